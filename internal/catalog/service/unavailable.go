package service

import (
	"context"
	"errors"
	"time"

	"github.com/huntu09/airdropshunter-sub001/internal/catalog/model"
)

// ErrCatalogUnavailable is returned by every operation of the repo stand-in
// used when the catalog database could not be opened. Public reads then
// serve the sample listings; mutations fail.
var ErrCatalogUnavailable = errors.New("catalog database unavailable")

type unavailableRepo struct{}

// NewUnavailableRepo is the degraded-mode Repo.
func NewUnavailableRepo() Repo { return unavailableRepo{} }

func (unavailableRepo) ListAirdrops(context.Context, *model.AirdropQuery) ([]model.Airdrop, error) {
	return nil, ErrCatalogUnavailable
}
func (unavailableRepo) GetAirdrop(context.Context, string) (*model.Airdrop, error) {
	return nil, ErrCatalogUnavailable
}
func (unavailableRepo) GetAirdropBySlug(context.Context, string) (*model.Airdrop, error) {
	return nil, ErrCatalogUnavailable
}
func (unavailableRepo) CreateAirdrop(context.Context, *model.Airdrop) error {
	return ErrCatalogUnavailable
}
func (unavailableRepo) UpdateAirdrop(context.Context, *model.Airdrop) error {
	return ErrCatalogUnavailable
}
func (unavailableRepo) DeleteAirdrop(context.Context, string) error {
	return ErrCatalogUnavailable
}
func (unavailableRepo) ListTasks(context.Context, string) ([]model.AirdropTask, error) {
	return nil, ErrCatalogUnavailable
}
func (unavailableRepo) GetTask(context.Context, string) (*model.AirdropTask, error) {
	return nil, ErrCatalogUnavailable
}
func (unavailableRepo) CreateTask(context.Context, *model.AirdropTask) error {
	return ErrCatalogUnavailable
}
func (unavailableRepo) DeleteTask(context.Context, string) error {
	return ErrCatalogUnavailable
}
func (unavailableRepo) CreateVerification(context.Context, *model.Verification) error {
	return ErrCatalogUnavailable
}
func (unavailableRepo) GetVerification(context.Context, string) (*model.Verification, error) {
	return nil, ErrCatalogUnavailable
}
func (unavailableRepo) ListVerifications(context.Context, string) ([]model.Verification, error) {
	return nil, ErrCatalogUnavailable
}
func (unavailableRepo) UpdateVerificationStatus(context.Context, string, string, time.Time) error {
	return ErrCatalogUnavailable
}
func (unavailableRepo) GetReward(context.Context, string) (*model.UserReward, error) {
	return nil, ErrCatalogUnavailable
}
func (unavailableRepo) AddPoints(context.Context, string, int, time.Time) (*model.UserReward, error) {
	return nil, ErrCatalogUnavailable
}
func (unavailableRepo) InsertAudit(context.Context, *model.AuditRecord) error {
	return ErrCatalogUnavailable
}
func (unavailableRepo) ListAudit(context.Context, int) ([]model.AuditRecord, error) {
	return nil, ErrCatalogUnavailable
}
