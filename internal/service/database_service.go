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

type DatabaseService struct {
	client Forwarder
	logger *logger.Logger
}

func NewDatabaseService(client Forwarder, logger *logger.Logger) *DatabaseService {
	return &DatabaseService{
		client: client,
		logger: logger,
	}
}

func (s *DatabaseService) CreateConnection(ctx context.Context, req *model.CreateConnectionRequest, authorization string) (*upstream.Result, error) {
	target, err := CheckDestination(req.TargetURL, authorization)
	if err != nil {
		return nil, err
	}
	if req.Name == "" || req.DatabaseType == "" || req.UserName == "" || req.Password == "" || req.Clusters == nil || req.ConnectionAccount == nil {
		return nil, utils.NewRequiredError("name, databaseType, userName, password, clusters, connectionAccount가 모두 필요합니다.")
	}
	return s.client.PostJSON(ctx, target, upstream.PathConnections, authorization, model.NewConnectionPayload(req))
}

func (s *DatabaseService) CreateCluster(ctx context.Context, req *model.CreateClusterRequest, authorization string) (*upstream.Result, error) {
	target, err := CheckDestination(req.TargetURL, authorization)
	if err != nil {
		return nil, err
	}
	if req.ClusterGroupUUID == "" || req.Host == "" || req.Port == 0 || req.Type == "" {
		return nil, utils.NewRequiredError("clusterGroupUuid, host, port, type이 모두 필요합니다.")
	}
	return s.client.PostJSON(ctx, target, upstream.ClustersPath(req.ClusterGroupUUID), authorization, model.ClusterPayload{
		Host: req.Host,
		Port: int(req.Port),
		Type: req.Type,
	})
}

func (s *DatabaseService) Submit(ctx context.Context, dest Destination, db model.Database) (*upstream.Result, error) {
	payload := model.NewConnectionPayload(db.ConnectionRequest(dest.TargetURL))
	return s.client.PostJSON(ctx, dest.TargetURL, upstream.PathConnections, dest.Authorization, payload)
}

func (s *DatabaseService) Submitter(dest Destination) sequencer.Submitter[model.Database] {
	return sequencer.SubmitFunc[model.Database](func(ctx context.Context, row tracker.Row[model.Database]) sequencer.Outcome {
		return outcome(s.Submit(ctx, dest, row.Record))
	})
}

func (s *DatabaseService) Upload(ctx context.Context, targetURL, authorization string, file []byte) (*upstream.Result, error) {
	target, err := CheckDestination(targetURL, authorization)
	if err != nil {
		return nil, err
	}
	return s.client.PostRaw(ctx, target, upstream.PathDatabase, authorization, "application/json", csvrecord.StripBOM(file)), nil
}
