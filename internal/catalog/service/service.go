// Package service implements the catalog read and admin mutation paths.
// Public reads go through the TTL cache; admin mutations write an audit
// record and publish the matching change-feed event.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/huntu09/airdropshunter-sub001/internal/cache"
	"github.com/huntu09/airdropshunter-sub001/internal/catalog/model"
	"github.com/huntu09/airdropshunter-sub001/internal/realtime"
)

// Repo is the persistence surface the service needs.
type Repo interface {
	ListAirdrops(ctx context.Context, q *model.AirdropQuery) ([]model.Airdrop, error)
	GetAirdrop(ctx context.Context, id string) (*model.Airdrop, error)
	GetAirdropBySlug(ctx context.Context, slug string) (*model.Airdrop, error)
	CreateAirdrop(ctx context.Context, a *model.Airdrop) error
	UpdateAirdrop(ctx context.Context, a *model.Airdrop) error
	DeleteAirdrop(ctx context.Context, id string) error

	ListTasks(ctx context.Context, airdropID string) ([]model.AirdropTask, error)
	GetTask(ctx context.Context, id string) (*model.AirdropTask, error)
	CreateTask(ctx context.Context, t *model.AirdropTask) error
	DeleteTask(ctx context.Context, id string) error

	CreateVerification(ctx context.Context, v *model.Verification) error
	GetVerification(ctx context.Context, id string) (*model.Verification, error)
	ListVerifications(ctx context.Context, status string) ([]model.Verification, error)
	UpdateVerificationStatus(ctx context.Context, id, status string, reviewedAt time.Time) error

	GetReward(ctx context.Context, userID string) (*model.UserReward, error)
	AddPoints(ctx context.Context, userID string, points int, at time.Time) (*model.UserReward, error)

	InsertAudit(ctx context.Context, rec *model.AuditRecord) error
	ListAudit(ctx context.Context, limit int) ([]model.AuditRecord, error)
}

// ChangePublisher emits change-feed events for platform writes.
type ChangePublisher interface {
	PublishActivity(ctx context.Context, row realtime.ActivityRow) error
	PublishVerificationChange(ctx context.Context, old, updated realtime.VerificationRow) error
	PublishRewardChange(ctx context.Context, old, updated realtime.RewardRow) error
}

type Service struct {
	repo      Repo
	cache     cache.Store
	publisher ChangePublisher
	cacheTTL  time.Duration
	now       func() time.Time
}

func New(repo Repo, store cache.Store, publisher ChangePublisher, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Service{
		repo:      repo,
		cache:     store,
		publisher: publisher,
		cacheTTL:  cacheTTL,
		now:       time.Now,
	}
}

// decodeCached recovers a typed value from either cache tier: the memory
// tier stores values as-is, the Redis tier hands back raw JSON.
func decodeCached[T any](v any) (T, bool) {
	switch x := v.(type) {
	case T:
		return x, true
	case json.RawMessage:
		var out T
		if err := json.Unmarshal(x, &out); err == nil {
			return out, true
		}
	case []byte:
		var out T
		if err := json.Unmarshal(x, &out); err == nil {
			return out, true
		}
	}
	var zero T
	return zero, false
}

// ListAirdrops is the public listing. Repo failures fall back to the
// built-in sample listings so the page renders something.
func (s *Service) ListAirdrops(ctx context.Context, q *model.AirdropQuery) []model.Airdrop {
	key := fmt.Sprintf("airdrops:%s:%s:%d:%d", q.Status, q.Category, q.Limit, q.Offset)
	v, err := s.cache.GetOrSet(ctx, key, s.cacheTTL, func(ctx context.Context) (any, error) {
		return s.repo.ListAirdrops(ctx, q)
	})
	if err != nil {
		log.Warn().Err(err).Msg("airdrop listing failed, serving sample data")
		return sampleAirdrops(q)
	}
	if out, ok := decodeCached[[]model.Airdrop](v); ok {
		return out
	}
	log.Warn().Str("key", key).Msg("unexpected cached value, serving sample data")
	return sampleAirdrops(q)
}

// GetAirdropBySlug is the public detail read.
func (s *Service) GetAirdropBySlug(ctx context.Context, slug string) (*model.Airdrop, error) {
	v, err := s.cache.GetOrSet(ctx, "airdrop:slug:"+slug, s.cacheTTL, func(ctx context.Context) (any, error) {
		return s.repo.GetAirdropBySlug(ctx, slug)
	})
	if err != nil {
		return nil, err
	}
	if a, ok := decodeCached[*model.Airdrop](v); ok {
		return a, nil
	}
	if a, ok := decodeCached[model.Airdrop](v); ok {
		return &a, nil
	}
	return nil, fmt.Errorf("unexpected cached value for slug %s", slug)
}

// ListTasks is the public task list of one airdrop.
func (s *Service) ListTasks(ctx context.Context, airdropID string) ([]model.AirdropTask, error) {
	v, err := s.cache.GetOrSet(ctx, "airdrop:tasks:"+airdropID, s.cacheTTL, func(ctx context.Context) (any, error) {
		return s.repo.ListTasks(ctx, airdropID)
	})
	if err != nil {
		return nil, err
	}
	if out, ok := decodeCached[[]model.AirdropTask](v); ok {
		return out, nil
	}
	return nil, fmt.Errorf("unexpected cached value for airdrop %s tasks", airdropID)
}

func (s *Service) invalidateAirdrop(ctx context.Context, a *model.Airdrop) {
	if a != nil {
		s.cache.Del(ctx, "airdrop:slug:"+a.Slug)
		s.cache.Del(ctx, "airdrop:tasks:"+a.ID)
	}
}

// audit is best-effort: a failed audit write is logged, never surfaced.
func (s *Service) audit(ctx context.Context, actionType, targetType, targetID, actorID string, oldData, newData any) {
	rec := &model.AuditRecord{
		ID:         uuid.NewString(),
		ActionType: actionType,
		TargetType: targetType,
		TargetID:   targetID,
		ActorID:    actorID,
		CreatedAt:  s.now(),
	}
	if oldData != nil {
		rec.OldData, _ = json.Marshal(oldData)
	}
	if newData != nil {
		rec.NewData, _ = json.Marshal(newData)
	}
	if err := s.repo.InsertAudit(ctx, rec); err != nil {
		log.Warn().Err(err).Str("action", actionType).Str("target", targetID).Msg("audit write failed")
	}
}

func (s *Service) publishActivity(ctx context.Context, activityType, message string) {
	if s.publisher == nil {
		return
	}
	row := realtime.ActivityRow{
		ID:        uuid.NewString(),
		Type:      activityType,
		Message:   message,
		CreatedAt: s.now(),
	}
	if err := s.publisher.PublishActivity(ctx, row); err != nil {
		log.Warn().Err(err).Msg("activity publish failed")
	}
}

// ListAudit returns the newest audit records for the admin trail view.
func (s *Service) ListAudit(ctx context.Context, limit int) ([]model.AuditRecord, error) {
	return s.repo.ListAudit(ctx, limit)
}

// CreateAirdrop is an admin mutation.
func (s *Service) CreateAirdrop(ctx context.Context, actorID string, req *model.UpsertAirdropRequest) (*model.Airdrop, error) {
	now := s.now()
	a := &model.Airdrop{
		ID:           uuid.NewString(),
		Title:        req.Title,
		Slug:         req.Slug,
		Description:  req.Description,
		Category:     req.Category,
		Status:       req.Status,
		RewardAmount: req.RewardAmount,
		LogoURL:      req.LogoURL,
		WebsiteURL:   req.WebsiteURL,
		StartsAt:     req.StartsAt,
		EndsAt:       req.EndsAt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if a.Status == "" {
		a.Status = model.StatusUpcoming
	}
	if err := s.repo.CreateAirdrop(ctx, a); err != nil {
		return nil, fmt.Errorf("create airdrop: %w", err)
	}
	s.audit(ctx, "create", "airdrop", a.ID, actorID, nil, a)
	s.publishActivity(ctx, "airdrop_listed", fmt.Sprintf("New airdrop listed: %s", a.Title))
	return a, nil
}

// UpdateAirdrop is an admin mutation; the audit record carries both rows.
func (s *Service) UpdateAirdrop(ctx context.Context, actorID, id string, req *model.UpsertAirdropRequest) (*model.Airdrop, error) {
	old, err := s.repo.GetAirdrop(ctx, id)
	if err != nil {
		return nil, err
	}
	updated := *old
	updated.Title = req.Title
	updated.Slug = req.Slug
	updated.Description = req.Description
	updated.Category = req.Category
	updated.Status = req.Status
	updated.RewardAmount = req.RewardAmount
	updated.LogoURL = req.LogoURL
	updated.WebsiteURL = req.WebsiteURL
	updated.StartsAt = req.StartsAt
	updated.EndsAt = req.EndsAt
	updated.UpdatedAt = s.now()

	if err := s.repo.UpdateAirdrop(ctx, &updated); err != nil {
		return nil, fmt.Errorf("update airdrop: %w", err)
	}
	s.audit(ctx, "update", "airdrop", id, actorID, old, &updated)
	s.invalidateAirdrop(ctx, old)
	s.invalidateAirdrop(ctx, &updated)
	return &updated, nil
}

// DeleteAirdrop is an admin mutation.
func (s *Service) DeleteAirdrop(ctx context.Context, actorID, id string) error {
	old, err := s.repo.GetAirdrop(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteAirdrop(ctx, id); err != nil {
		return fmt.Errorf("delete airdrop: %w", err)
	}
	s.audit(ctx, "delete", "airdrop", id, actorID, old, nil)
	s.invalidateAirdrop(ctx, old)
	return nil
}

// CreateTask is an admin mutation.
func (s *Service) CreateTask(ctx context.Context, actorID, airdropID string, req *model.UpsertTaskRequest) (*model.AirdropTask, error) {
	if _, err := s.repo.GetAirdrop(ctx, airdropID); err != nil {
		return nil, err
	}
	t := &model.AirdropTask{
		ID:        uuid.NewString(),
		AirdropID: airdropID,
		Title:     req.Title,
		TaskType:  req.TaskType,
		Points:    req.Points,
		URL:       req.URL,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateTask(ctx, t); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	s.audit(ctx, "create", "task", t.ID, actorID, nil, t)
	s.cache.Del(ctx, "airdrop:tasks:"+airdropID)
	return t, nil
}

// DeleteTask is an admin mutation.
func (s *Service) DeleteTask(ctx context.Context, actorID, id string) error {
	old, err := s.repo.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteTask(ctx, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	s.audit(ctx, "delete", "task", id, actorID, old, nil)
	s.cache.Del(ctx, "airdrop:tasks:"+old.AirdropID)
	return nil
}
