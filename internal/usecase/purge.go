package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/polkiloo/payledger/internal/clock"
	"github.com/polkiloo/payledger/internal/config"
	domainErrors "github.com/polkiloo/payledger/internal/domain/errors"
	"github.com/polkiloo/payledger/internal/domain/repository"
	"github.com/polkiloo/payledger/internal/logger"
)

// PurgeConfirmation is the value PURGE_CONFIRM must hold for an erase.
const PurgeConfirmation = "YES"

// PurgeRequest selects a retention run.
type PurgeRequest struct {
	Mode    config.RetentionMode
	UserID  string
	Confirm string
}

// PurgeUseCase removes ledger entries by age or by owner.
type PurgeUseCase struct {
	events        repository.PaymentEventRepository
	clock         clock.Clock
	retentionDays int
	defaultMode   config.RetentionMode
	logger        *zap.Logger
}

func NewPurgeUseCase(events repository.PaymentEventRepository, clk clock.Clock, retentionDays int, defaultMode config.RetentionMode, log *zap.Logger) *PurgeUseCase {
	if clk == nil {
		clk = clock.System{}
	}
	if defaultMode == "" {
		defaultMode = config.RetentionRetain
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &PurgeUseCase{events: events, clock: clk, retentionDays: retentionDays, defaultMode: defaultMode, logger: log}
}

// Run executes the request. An empty mode falls back to the configured one.
func (u *PurgeUseCase) Run(ctx context.Context, req PurgeRequest) (int64, error) {
	mode := req.Mode
	if mode == "" {
		mode = u.defaultMode
	}
	switch mode {
	case config.RetentionRetain:
		return u.Retain(ctx)
	case config.RetentionErase:
		return u.Erase(ctx, req.UserID, req.Confirm)
	default:
		return 0, fmt.Errorf("%w: unknown purge mode %q", domainErrors.ErrValidation, mode)
	}
}

// Retain deletes entries received before now minus the retention period.
func (u *PurgeUseCase) Retain(ctx context.Context) (int64, error) {
	if u.retentionDays <= 0 {
		return 0, fmt.Errorf("%w: retention days must be positive", domainErrors.ErrValidation)
	}
	cutoff := u.clock.Now().Add(-time.Duration(u.retentionDays) * 24 * time.Hour)
	deleted, err := u.events.DeleteReceivedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge by age: %w", err)
	}
	logger.Payment(u.logger).Info("payment events purged",
		zap.String("reason", string(config.RetentionRetain)),
		zap.Int64("count", deleted),
	)
	return deleted, nil
}

// Erase deletes every entry tied to the user's orders.
func (u *PurgeUseCase) Erase(ctx context.Context, userID, confirm string) (int64, error) {
	if confirm != PurgeConfirmation {
		return 0, domainErrors.ErrEraseNotConfirmed
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return 0, fmt.Errorf("%w: user id is required", domainErrors.ErrValidation)
	}
	deleted, err := u.events.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("purge by user: %w", err)
	}
	logger.Payment(u.logger).Info("payment events purged",
		zap.String("reason", string(config.RetentionErase)),
		zap.String("user_id", userID),
		zap.Int64("count", deleted),
	)
	return deleted, nil
}
