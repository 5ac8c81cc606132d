package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/0x6flab/namegenerator"
	"github.com/google/uuid"

	"github.com/modelfold/modelfold/contributor"
	"github.com/modelfold/modelfold/gradient"
	"github.com/modelfold/modelfold/ledger"
	"github.com/modelfold/modelfold/model"
	"github.com/modelfold/modelfold/pkg/contentstore"
	pkgerrors "github.com/modelfold/modelfold/pkg/errors"
	"github.com/modelfold/modelfold/pkg/fedavg"
	"github.com/modelfold/modelfold/pkg/mqtt"
	"github.com/modelfold/modelfold/pkg/storage"
	"github.com/modelfold/modelfold/session"
)

// contribReward is the reputation granted per finalize to each contributor
// with at least one accepted gradient in the drained set.
const contribReward = 10

type service struct {
	modelsDB   storage.Storage
	sessionsDB storage.Storage
	registry   *contributor.Registry
	blobs      contentstore.Store
	pubsub     mqtt.PubSub
	clock      *ledger.Clock
	admin      string
	namegen    namegenerator.NameGenerator
	logger     *slog.Logger

	// sessionMu serializes session read-modify-write cycles and guards the
	// active-session index that enforces one live session per lineage.
	sessionMu sync.Mutex
	active    map[string]string
}

func NewService(modelsDB, sessionsDB storage.Storage, registry *contributor.Registry, blobs contentstore.Store, pubsub mqtt.PubSub, admin string, logger *slog.Logger) Service {
	return &service{
		modelsDB:   modelsDB,
		sessionsDB: sessionsDB,
		registry:   registry,
		blobs:      blobs,
		pubsub:     pubsub,
		clock:      ledger.NewClock(),
		admin:      admin,
		namegen:    namegenerator.NewGenerator(),
		logger:     logger,
		active:     make(map[string]string),
	}
}

func (svc *service) CreateModel(ctx context.Context, m model.Model, weightsRef string) (model.Model, error) {
	if m.Owner == "" || weightsRef == "" {
		return model.Model{}, pkgerrors.ErrInvalidData
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Name == "" {
		m.Name = svc.namegen.Generate()
	}

	l := ledger.New(m, weightsRef, svc.clock)
	if err := svc.modelsDB.Create(ctx, m.ID, l); err != nil {
		return model.Model{}, err
	}

	created := l.Model()
	svc.publish(ctx, topicModelCreated, map[string]any{
		"model_id":    created.ID,
		"owner":       created.Owner,
		"weights_ref": weightsRef,
	})

	return created, nil
}

func (svc *service) GetModel(ctx context.Context, modelID string) (model.Model, error) {
	l, err := svc.lineage(ctx, modelID)
	if err != nil {
		return model.Model{}, err
	}

	return l.Model(), nil
}

func (svc *service) ListModels(ctx context.Context, offset, limit uint64) (model.Page, error) {
	data, total, err := svc.modelsDB.List(ctx, offset, limit)
	if err != nil {
		return model.Page{}, err
	}

	models := make([]model.Model, len(data))
	for i := range data {
		l, ok := data[i].(*ledger.Ledger)
		if !ok {
			return model.Page{}, pkgerrors.ErrInvalidData
		}
		models[i] = l.Model()
	}

	return model.Page{
		Offset: offset,
		Limit:  limit,
		Total:  total,
		Models: models,
	}, nil
}

func (svc *service) GetModelVersion(ctx context.Context, modelID string, version uint64) (model.Version, error) {
	l, err := svc.lineage(ctx, modelID)
	if err != nil {
		return model.Version{}, err
	}

	return l.Version(version)
}

func (svc *service) LatestModelVersion(ctx context.Context, modelID string) (model.Version, error) {
	l, err := svc.lineage(ctx, modelID)
	if err != nil {
		return model.Version{}, err
	}

	return l.Latest(), nil
}

func (svc *service) AdvanceModelVersion(ctx context.Context, modelID, caller string) (model.Version, error) {
	l, err := svc.lineage(ctx, modelID)
	if err != nil {
		return model.Version{}, err
	}

	v, err := l.Advance(caller)
	if err != nil {
		return model.Version{}, err
	}

	svc.publish(ctx, topicVersionAdvanced, map[string]any{
		"model_id": modelID,
		"version":  v.Version,
	})

	return v, nil
}

func (svc *service) FinalizeModelVersion(ctx context.Context, modelID string, version uint64, newWeightsRef, caller string) (model.Version, error) {
	if newWeightsRef == "" {
		return model.Version{}, pkgerrors.ErrInvalidData
	}

	l, err := svc.lineage(ctx, modelID)
	if err != nil {
		return model.Version{}, err
	}

	credited := 0
	v, err := l.Finalize(version, newWeightsRef, caller, func(identity string, at uint64) {
		svc.registry.RecordContribution(identity, contribReward, at)
		credited++
	})
	if err != nil {
		return model.Version{}, err
	}

	svc.publish(ctx, topicVersionFinalized, map[string]any{
		"model_id":     modelID,
		"version":      v.Version,
		"weights_ref":  v.WeightsRef,
		"contributors": credited,
	})

	return v, nil
}

func (svc *service) AggregateModelVersion(ctx context.Context, modelID string, version uint64, caller string) (model.Version, error) {
	l, err := svc.lineage(ctx, modelID)
	if err != nil {
		return model.Version{}, err
	}

	pending, err := l.ListPending(version)
	if err != nil {
		return model.Version{}, err
	}
	if len(pending) == 0 {
		return model.Version{}, fedavg.ErrNoGradients
	}

	// Blob traffic stays outside the ledger lock. Submissions that land
	// after this snapshot are still drained and credited by the finalize
	// below; they simply miss this aggregation round.
	blobs := make([][]byte, 0, len(pending))
	for _, sub := range pending {
		data, err := svc.blobs.Get(ctx, sub.GradientRef)
		if err != nil {
			return model.Version{}, fmt.Errorf("failed to fetch gradient %s: %w", sub.GradientRef, err)
		}
		blobs = append(blobs, data)
	}

	weights, err := fedavg.Average(blobs)
	if err != nil {
		return model.Version{}, err
	}

	weightsRef, err := svc.blobs.Put(ctx, weights)
	if err != nil {
		return model.Version{}, fmt.Errorf("failed to store aggregated weights: %w", err)
	}

	return svc.FinalizeModelVersion(ctx, modelID, version, weightsRef, caller)
}

func (svc *service) SubmitGradient(ctx context.Context, sub gradient.Submission) (gradient.Submission, gradient.Status, error) {
	if sub.Contributor == "" || sub.ModelID == "" || sub.GradientRef == "" {
		return gradient.Submission{}, 0, pkgerrors.ErrInvalidData
	}

	// The blob must be durably stored before its reference is admitted.
	ok, err := svc.blobs.Has(ctx, sub.GradientRef)
	if err != nil {
		return gradient.Submission{}, 0, err
	}
	if !ok {
		return gradient.Submission{}, 0, fmt.Errorf("gradient blob %s: %w", sub.GradientRef, contentstore.ErrNotFound)
	}

	l, err := svc.lineage(ctx, sub.ModelID)
	if err != nil {
		return gradient.Submission{}, 0, err
	}

	admitted, status, err := l.Submit(sub.Contributor, sub.ModelVersion, sub.GradientRef)
	if err != nil {
		return gradient.Submission{}, 0, err
	}

	if status == gradient.StatusAccepted {
		svc.publish(ctx, topicGradientAccepted, map[string]any{
			"model_id":     sub.ModelID,
			"version":      sub.ModelVersion,
			"contributor":  sub.Contributor,
			"gradient_ref": sub.GradientRef,
		})
	}

	return admitted, status, nil
}

func (svc *service) ListPendingGradients(ctx context.Context, modelID string, version, offset, limit uint64) (gradient.Page, error) {
	l, err := svc.lineage(ctx, modelID)
	if err != nil {
		return gradient.Page{}, err
	}

	pending, err := l.ListPending(version)
	if err != nil {
		return gradient.Page{}, err
	}

	total := uint64(len(pending))
	if offset >= total {
		return gradient.Page{Offset: offset, Limit: limit, Total: total}, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return gradient.Page{
		Offset:      offset,
		Limit:       limit,
		Total:       total,
		Submissions: pending[offset:end],
	}, nil
}

func (svc *service) StartSession(ctx context.Context, s session.Session) (session.Session, error) {
	if s.ModelID == "" {
		return session.Session{}, pkgerrors.ErrInvalidData
	}
	if err := s.Config.Validate(); err != nil {
		return session.Session{}, err
	}
	if _, err := svc.lineage(ctx, s.ModelID); err != nil {
		return session.Session{}, err
	}

	svc.sessionMu.Lock()
	defer svc.sessionMu.Unlock()

	if runningID, ok := svc.active[s.ModelID]; ok {
		return session.Session{}, fmt.Errorf("%w: session %s", session.ErrSessionConflict, runningID)
	}

	name := s.Name
	if name == "" {
		name = svc.namegen.Generate()
	}
	created := session.New(uuid.NewString(), name, s.ModelID, s.Config, svc.clock.Tick())
	if err := created.Run(svc.clock.Tick()); err != nil {
		return session.Session{}, err
	}

	if err := svc.sessionsDB.Create(ctx, created.ID, created); err != nil {
		return session.Session{}, err
	}
	svc.active[s.ModelID] = created.ID

	svc.publish(ctx, topicSessionState, map[string]any{
		"session_id": created.ID,
		"model_id":   created.ModelID,
		"state":      created.State.String(),
	})

	return created, nil
}

func (svc *service) GetSession(ctx context.Context, sessionID string) (session.Session, error) {
	data, err := svc.sessionsDB.Get(ctx, sessionID)
	if err != nil {
		return session.Session{}, err
	}
	s, ok := data.(session.Session)
	if !ok {
		return session.Session{}, pkgerrors.ErrInvalidData
	}

	return s, nil
}

func (svc *service) ListSessions(ctx context.Context, offset, limit uint64) (session.Page, error) {
	data, total, err := svc.sessionsDB.List(ctx, offset, limit)
	if err != nil {
		return session.Page{}, err
	}

	sessions := make([]session.Session, len(data))
	for i := range data {
		s, ok := data[i].(session.Session)
		if !ok {
			return session.Page{}, pkgerrors.ErrInvalidData
		}
		sessions[i] = s
	}

	return session.Page{
		Offset:   offset,
		Limit:    limit,
		Total:    total,
		Sessions: sessions,
	}, nil
}

func (svc *service) PauseSession(ctx context.Context, sessionID string) (session.Session, error) {
	return svc.transition(ctx, sessionID, func(s *session.Session, at uint64) error {
		return s.Pause(at)
	})
}

func (svc *service) ResumeSession(ctx context.Context, sessionID string) (session.Session, error) {
	return svc.transition(ctx, sessionID, func(s *session.Session, at uint64) error {
		return s.Resume(at)
	})
}

func (svc *service) StopSession(ctx context.Context, sessionID string) (session.Session, error) {
	return svc.transition(ctx, sessionID, func(s *session.Session, at uint64) error {
		return s.Stop(at)
	})
}

func (svc *service) FailSession(ctx context.Context, sessionID, reason string) (session.Session, error) {
	return svc.transition(ctx, sessionID, func(s *session.Session, at uint64) error {
		return s.Fail(at, reason)
	})
}

func (svc *service) AdvanceEpoch(ctx context.Context, sessionID string, loss, accuracy float64) (session.Session, error) {
	return svc.transition(ctx, sessionID, func(s *session.Session, at uint64) error {
		return s.AdvanceEpoch(loss, accuracy, at)
	})
}

func (svc *service) transition(ctx context.Context, sessionID string, apply func(*session.Session, uint64) error) (session.Session, error) {
	svc.sessionMu.Lock()
	defer svc.sessionMu.Unlock()

	s, err := svc.GetSession(ctx, sessionID)
	if err != nil {
		return session.Session{}, err
	}

	prev := s.State
	if err := apply(&s, svc.clock.Tick()); err != nil {
		return session.Session{}, err
	}

	if err := svc.sessionsDB.Update(ctx, s.ID, s); err != nil {
		return session.Session{}, err
	}
	if s.State.Terminal() {
		delete(svc.active, s.ModelID)
	}

	if s.State != prev {
		svc.publish(ctx, topicSessionState, map[string]any{
			"session_id": s.ID,
			"model_id":   s.ModelID,
			"state":      s.State.String(),
		})
	}

	return s, nil
}

func (svc *service) RegisterContributor(ctx context.Context, identity string) (contributor.Contributor, error) {
	if identity == "" {
		return contributor.Contributor{}, pkgerrors.ErrInvalidData
	}

	c := svc.registry.Register(identity, svc.clock.Tick())
	svc.publish(ctx, topicContributorJoined, map[string]any{
		"identity": c.Identity,
	})

	return c, nil
}

func (svc *service) GetContributor(_ context.Context, identity string) (contributor.Contributor, error) {
	return svc.registry.Get(identity)
}

func (svc *service) AwardReputation(ctx context.Context, caller, identity string, amount uint64) (contributor.Contributor, error) {
	if caller != svc.admin {
		return contributor.Contributor{}, fmt.Errorf("%w: only the configured admin may award reputation", pkgerrors.ErrNotAuthorized)
	}

	c, err := svc.registry.AwardReputation(identity, amount, svc.clock.Tick())
	if err != nil {
		return contributor.Contributor{}, err
	}

	svc.publish(ctx, topicReputationAwarded, map[string]any{
		"identity": identity,
		"amount":   amount,
	})

	return c, nil
}

func (svc *service) Leaderboard(_ context.Context, offset, limit uint64) (contributor.Page, error) {
	board := svc.registry.Leaderboard()

	total := uint64(len(board))
	if offset >= total {
		return contributor.Page{Offset: offset, Limit: limit, Total: total}, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return contributor.Page{
		Offset:       offset,
		Limit:        limit,
		Total:        total,
		Contributors: board[offset:end],
	}, nil
}

func (svc *service) lineage(ctx context.Context, modelID string) (*ledger.Ledger, error) {
	data, err := svc.modelsDB.Get(ctx, modelID)
	if err != nil {
		return nil, err
	}
	l, ok := data.(*ledger.Ledger)
	if !ok {
		return nil, pkgerrors.ErrInvalidData
	}

	return l, nil
}
