package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"qp-hub-backend/internal/export"
	"qp-hub-backend/internal/model"
	"qp-hub-backend/internal/pkg/events"
	"qp-hub-backend/internal/pkg/logger"
	"qp-hub-backend/internal/pkg/metrics"
	"qp-hub-backend/internal/projector"
	"qp-hub-backend/internal/sequencer"
	"qp-hub-backend/internal/tracker"
	"qp-hub-backend/pkg/utils"
)

type BatchConfig struct {
	Concurrency int
	PageSize    int
}

// BatchService keeps the in-memory batch sessions; nothing is persisted.
type BatchService struct {
	users     *UserService
	servers   *ServerService
	databases *DatabaseService
	cfg       BatchConfig
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *logger.Logger

	mu      sync.RWMutex
	batches map[string]Batch
}

func NewBatchService(users *UserService, servers *ServerService, databases *DatabaseService, cfg BatchConfig, publisher events.Publisher, m *metrics.Metrics, logger *logger.Logger) *BatchService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if m == nil {
		m = metrics.Default()
	}
	return &BatchService{
		users:     users,
		servers:   servers,
		databases: databases,
		cfg:       cfg,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		batches:   make(map[string]Batch),
	}
}

func (s *BatchService) newBatch(kind model.Kind) (Batch, error) {
	id := uuid.New().String()
	var b Batch
	switch kind {
	case model.KindUser:
		b = newSession(id, kind, projector.Users, s.users.Submitter, s.cfg, s.logger,
			func(u model.User) string { return u.Email }, true)
	case model.KindServer:
		b = newSession(id, kind, projector.Servers, s.servers.Submitter, s.cfg, s.logger, nil, false)
	case model.KindDatabase:
		b = newSession(id, kind, projector.Databases, s.databases.Submitter, s.cfg, s.logger, nil, false)
	default:
		return nil, utils.NewValidationError("kind", kind)
	}
	b.Subscribe(s.forward(id, kind))
	return b, nil
}

func newSession[T export.Entity](id string, kind model.Kind, p projector.Projector[T], submitter func(Destination) sequencer.Submitter[T], cfg BatchConfig, log *logger.Logger, dedupe func(T) string, appendMode bool) *session[T] {
	return &session[T]{
		id:          id,
		kind:        kind,
		tracker:     tracker.New[T](cfg.PageSize),
		projector:   p,
		dedupe:      dedupe,
		appendMode:  appendMode,
		submitter:   submitter,
		concurrency: cfg.Concurrency,
		logger:      log,
	}
}

// forward tags events with the batch, counts final row states and relays to the broker.
func (s *BatchService) forward(id string, kind model.Kind) func(tracker.Event) {
	return func(ev tracker.Event) {
		ev.BatchID = id
		if ev.Type == tracker.EventStatus && (ev.Status == model.StatusSuccess || ev.Status == model.StatusError) {
			s.metrics.ObserveRow(string(kind), string(ev.Status))
		}
		if err := s.publisher.Publish(context.Background(), fmt.Sprintf("batch.%s.%s", kind, ev.Type), ev); err != nil {
			s.logger.Warn("publish batch event failed", zap.String("batch", id), zap.Error(err))
		}
	}
}

// Import parses a CSV into the named batch, creating one when batchID is empty.
func (s *BatchService) Import(kind model.Kind, batchID string, text []byte) (*model.ImportResponse, error) {
	var (
		b   Batch
		err error
	)
	if batchID != "" {
		if b, err = s.Get(batchID); err != nil {
			return nil, err
		}
		if b.Kind() != kind {
			return nil, utils.NewValidationError("batchId", batchID)
		}
		if b.Running() {
			return nil, utils.NewConflictError("이미 전송이 진행 중입니다.")
		}
	} else {
		if b, err = s.newBatch(kind); err != nil {
			return nil, err
		}
	}

	parsed, added := b.Import(string(text))
	if parsed == 0 {
		return nil, utils.NewRequiredError("유효한 데이터가 없습니다.")
	}
	if batchID == "" {
		s.mu.Lock()
		s.batches[b.ID()] = b
		s.mu.Unlock()
	}
	s.logger.Info("batch imported",
		zap.String("batch", b.ID()),
		zap.String("kind", string(kind)),
		zap.Int("parsed", parsed),
		zap.Int("added", added),
	)
	return &model.ImportResponse{
		Success: true,
		Message: fmt.Sprintf("%d건을 불러왔습니다.", added),
		Parsed:  parsed,
		Added:   added,
		Batch:   b.View(1, 0),
	}, nil
}

// Create opens an empty batch for rows entered by hand.
func (s *BatchService) Create(kind model.Kind) (Batch, error) {
	b, err := s.newBatch(kind)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.batches[b.ID()] = b
	s.mu.Unlock()
	return b, nil
}

func (s *BatchService) Get(id string) (Batch, error) {
	s.mu.RLock()
	b, ok := s.batches[id]
	s.mu.RUnlock()
	if !ok {
		return nil, utils.NewNotFoundError("배치")
	}
	return b, nil
}

func (s *BatchService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[id]
	if !ok {
		return utils.NewNotFoundError("배치")
	}
	if b.Running() {
		return utils.NewConflictError("전송 중인 배치는 삭제할 수 없습니다.")
	}
	b.Clear()
	delete(s.batches, id)
	return nil
}

// Destination validates a submit request; users need an initial password.
func (s *BatchService) Destination(b Batch, req *model.SubmitRequest, authorization string) (Destination, error) {
	target, err := CheckDestination(req.TargetURL, authorization)
	if err != nil {
		return Destination{}, err
	}
	if b.Kind() == model.KindUser && req.Password == "" {
		return Destination{}, utils.NewRequiredError("초기 비밀번호가 필요합니다.")
	}
	return Destination{TargetURL: target, Authorization: authorization, Password: req.Password}, nil
}
