package service

import (
	"context"

	"qp-hub-backend/internal/csvrecord"
	"qp-hub-backend/internal/model"
	"qp-hub-backend/internal/pkg/logger"
	"qp-hub-backend/internal/sequencer"
	"qp-hub-backend/internal/tracker"
	"qp-hub-backend/internal/upstream"
	"qp-hub-backend/pkg/utils"
)

type ServerService struct {
	client Forwarder
	logger *logger.Logger
}

func NewServerService(client Forwarder, logger *logger.Logger) *ServerService {
	return &ServerService{
		client: client,
		logger: logger,
	}
}

func (s *ServerService) Create(ctx context.Context, req *model.CreateServerRequest, authorization string) (*upstream.Result, error) {
	target, err := CheckDestination(req.TargetURL, authorization)
	if err != nil {
		return nil, err
	}
	if req.Name == "" || req.Host == "" || req.SSHPort == 0 || req.OSType == "" {
		return nil, utils.NewRequiredError("name, host, sshPort, osType이 모두 필요합니다.")
	}
	server := model.Server{
		Name:       req.Name,
		Host:       req.Host,
		SSHPort:    int(req.SSHPort),
		OSType:     req.OSType,
		FTPPort:    int(req.FTPPort),
		TelnetPort: int(req.TelnetPort),
		VNCPort:    int(req.VNCPort),
	}
	return s.client.PostJSON(ctx, target, upstream.PathServers, authorization, server.Payload())
}

func (s *ServerService) Submit(ctx context.Context, dest Destination, srv model.Server) (*upstream.Result, error) {
	return s.client.PostJSON(ctx, dest.TargetURL, upstream.PathServers, dest.Authorization, srv.Payload())
}

func (s *ServerService) Submitter(dest Destination) sequencer.Submitter[model.Server] {
	return sequencer.SubmitFunc[model.Server](func(ctx context.Context, row tracker.Row[model.Server]) sequencer.Outcome {
		return outcome(s.Submit(ctx, dest, row.Record))
	})
}

// Upload forwards an uploaded file body after stripping its BOM.
func (s *ServerService) Upload(ctx context.Context, targetURL, authorization string, file []byte) (*upstream.Result, error) {
	target, err := CheckDestination(targetURL, authorization)
	if err != nil {
		return nil, err
	}
	return s.client.PostRaw(ctx, target, upstream.PathServers, authorization, "application/json", csvrecord.StripBOM(file)), nil
}
