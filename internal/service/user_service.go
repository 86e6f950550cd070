package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"qp-hub-backend/internal/model"
	"qp-hub-backend/internal/pkg/logger"
	"qp-hub-backend/internal/projector"
	"qp-hub-backend/internal/sequencer"
	"qp-hub-backend/internal/tracker"
	"qp-hub-backend/internal/upstream"
	"qp-hub-backend/pkg/utils"
)

type UserService struct {
	client      Forwarder
	concurrency int
	logger      *logger.Logger
}

func NewUserService(client Forwarder, concurrency int, logger *logger.Logger) *UserService {
	return &UserService{
		client:      client,
		concurrency: concurrency,
		logger:      logger,
	}
}

func (s *UserService) Create(ctx context.Context, req *model.CreateUserRequest, authorization string) (*upstream.Result, error) {
	target, err := CheckDestination(req.TargetURL, authorization)
	if err != nil {
		return nil, err
	}
	return s.client.PostJSON(ctx, target, upstream.PathUsers, authorization, model.UserPayload{
		Email:    req.Email,
		LoginID:  req.LoginID,
		Name:     req.Name,
		Password: req.Password,
	})
}

// Submit sends one imported user; dest.Password fills in a missing password.
func (s *UserService) Submit(ctx context.Context, dest Destination, u model.User) (*upstream.Result, error) {
	password := u.Password
	if password == "" {
		password = dest.Password
	}
	return s.client.PostJSON(ctx, dest.TargetURL, upstream.PathUsers, dest.Authorization, model.UserPayload{
		Email:    u.Email,
		LoginID:  u.LoginID,
		Name:     u.Name,
		Password: password,
	})
}

func (s *UserService) Submitter(dest Destination) sequencer.Submitter[model.User] {
	return sequencer.SubmitFunc[model.User](func(ctx context.Context, row tracker.Row[model.User]) sequencer.Outcome {
		return outcome(s.Submit(ctx, dest, row.Record))
	})
}

// Bulk parses a users CSV and registers every row, one call per row.
func (s *UserService) Bulk(ctx context.Context, targetURL, authorization string, csv []byte) (*model.BulkUsersResponse, error) {
	target, err := CheckDestination(targetURL, authorization)
	if err != nil {
		return nil, err
	}
	users := projector.Users.ParseText(string(csv))
	if len(users) == 0 {
		return nil, utils.NewRequiredError("유효한 사용자 데이터가 없습니다.")
	}

	t := tracker.New[model.User](len(users))
	rows := t.Append(users, nil)
	dest := Destination{TargetURL: target, Authorization: authorization}
	summary := sequencer.New[model.User](t, s.Submitter(dest), s.concurrency, s.logger).Named("users-bulk").Submit(ctx)

	results := make([]model.BulkUserResult, 0, len(rows))
	for _, r := range rows {
		got, _ := t.Get(r.ID)
		results = append(results, model.BulkUserResult{
			User:   got.Record,
			Result: model.RowOutcome{Success: got.Status == model.StatusSuccess, Message: got.Message},
		})
	}
	s.logger.Info("bulk user registration finished",
		zap.Int("success", summary.SuccessCount),
		zap.Int("fail", summary.FailCount),
	)
	return &model.BulkUsersResponse{
		Success: summary.FailCount == 0,
		Message: fmt.Sprintf("%d명 성공, %d명 실패", summary.SuccessCount, summary.FailCount),
		Summary: summary,
		Results: results,
	}, nil
}
