package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/huntu09/airdropshunter-sub001/internal/catalog/model"
	"github.com/huntu09/airdropshunter-sub001/internal/realtime"
)

// ErrAlreadyReviewed rejects approve/reject on a verification that already
// left the pending state.
var ErrAlreadyReviewed = errors.New("verification already reviewed")

func verificationRow(v *model.Verification) realtime.VerificationRow {
	return realtime.VerificationRow{
		ID:        v.ID,
		UserID:    v.UserID,
		AirdropID: v.AirdropID,
		Status:    v.Status,
	}
}

// SubmitVerification records a user's claim of task completion as pending.
func (s *Service) SubmitVerification(ctx context.Context, userID, taskID, proofURL string) (*model.Verification, error) {
	task, err := s.repo.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}
	v := &model.Verification{
		ID:        uuid.NewString(),
		AirdropID: task.AirdropID,
		TaskID:    taskID,
		UserID:    userID,
		Status:    model.VerificationPending,
		ProofURL:  proofURL,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateVerification(ctx, v); err != nil {
		return nil, fmt.Errorf("create verification: %w", err)
	}
	return v, nil
}

// ListVerifications is the admin review queue.
func (s *Service) ListVerifications(ctx context.Context, status string) ([]model.Verification, error) {
	return s.repo.ListVerifications(ctx, status)
}

// ApproveVerification moves a pending verification to approved, credits the
// task's points and publishes both change events.
func (s *Service) ApproveVerification(ctx context.Context, actorID, id string) (*model.Verification, error) {
	old, err := s.repo.GetVerification(ctx, id)
	if err != nil {
		return nil, err
	}
	if old.Status != model.VerificationPending {
		return nil, ErrAlreadyReviewed
	}

	now := s.now()
	if err := s.repo.UpdateVerificationStatus(ctx, id, model.VerificationApproved, now); err != nil {
		return nil, fmt.Errorf("approve verification: %w", err)
	}
	updated := *old
	updated.Status = model.VerificationApproved
	updated.ReviewedAt = &now

	s.audit(ctx, "approve", "verification", id, actorID, old, &updated)
	s.publishVerification(ctx, old, &updated)
	s.creditPoints(ctx, &updated)
	return &updated, nil
}

// RejectVerification moves a pending verification to rejected.
func (s *Service) RejectVerification(ctx context.Context, actorID, id string) (*model.Verification, error) {
	old, err := s.repo.GetVerification(ctx, id)
	if err != nil {
		return nil, err
	}
	if old.Status != model.VerificationPending {
		return nil, ErrAlreadyReviewed
	}

	now := s.now()
	if err := s.repo.UpdateVerificationStatus(ctx, id, model.VerificationRejected, now); err != nil {
		return nil, fmt.Errorf("reject verification: %w", err)
	}
	updated := *old
	updated.Status = model.VerificationRejected
	updated.ReviewedAt = &now

	s.audit(ctx, "reject", "verification", id, actorID, old, &updated)
	s.publishVerification(ctx, old, &updated)
	return &updated, nil
}

func (s *Service) publishVerification(ctx context.Context, old, updated *model.Verification) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishVerificationChange(ctx, verificationRow(old), verificationRow(updated)); err != nil {
		log.Warn().Err(err).Str("verification", updated.ID).Msg("verification change publish failed")
	}
}

// creditPoints adds the task's points to the user total and publishes the
// reward change. Failures are logged; the approval itself already stands.
func (s *Service) creditPoints(ctx context.Context, v *model.Verification) {
	task, err := s.repo.GetTask(ctx, v.TaskID)
	if err != nil {
		log.Warn().Err(err).Str("task", v.TaskID).Msg("point credit skipped, task lookup failed")
		return
	}
	oldTotal := 0
	if prev, err := s.repo.GetReward(ctx, v.UserID); err == nil && prev != nil {
		oldTotal = prev.TotalPoints
	}
	updated, err := s.repo.AddPoints(ctx, v.UserID, task.Points, s.now())
	if err != nil {
		log.Error().Err(err).Str("user", v.UserID).Msg("point credit failed")
		return
	}
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishRewardChange(ctx,
		realtime.RewardRow{UserID: v.UserID, TotalPoints: oldTotal},
		realtime.RewardRow{UserID: updated.UserID, TotalPoints: updated.TotalPoints},
	); err != nil {
		log.Warn().Err(err).Str("user", v.UserID).Msg("reward change publish failed")
	}
}

// GetReward returns a user's running total, zero-valued when absent.
func (s *Service) GetReward(ctx context.Context, userID string) (*model.UserReward, error) {
	r, err := s.repo.GetReward(ctx, userID)
	if err != nil {
		return &model.UserReward{UserID: userID}, nil
	}
	return r, nil
}
