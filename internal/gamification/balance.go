package gamification

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "github.com/Blazious/fun-learning-system/pkg/errors"
)

// TotalPoints returns the cached balance maintained alongside the ledger.
func (s *service) TotalPoints(ctx context.Context, userID uuid.UUID) (int, error) {
	if userID == uuid.Nil {
		return 0, apperrors.New(apperrors.CodeValidation, "user id is required")
	}

	total, err := s.repo.CachedTotal(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, apperrors.New(apperrors.CodeNotFound, "profile not found for user")
		}
		return 0, apperrors.Wrap(apperrors.CodeDependency, err, "reading cached balance")
	}
	return total, nil
}

// VerifyBalance reconciles the cached balance against the ledger sum. A
// mismatch is logged and counted, then repaired by writing the ledger sum
// back to the cache. The ledger is always the source of truth.
func (s *service) VerifyBalance(ctx context.Context, userID uuid.UUID) (BalanceReport, error) {
	if userID == uuid.Nil {
		return BalanceReport{}, apperrors.New(apperrors.CodeValidation, "user id is required")
	}

	cached, err := s.repo.CachedTotal(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return BalanceReport{}, apperrors.New(apperrors.CodeNotFound, "profile not found for user")
		}
		return BalanceReport{}, apperrors.Wrap(apperrors.CodeDependency, err, "reading cached balance")
	}

	ledger, err := s.repo.SumPointsByUser(ctx, userID)
	if err != nil {
		return BalanceReport{}, apperrors.Wrap(apperrors.CodeDependency, err, "summing ledger")
	}

	report := BalanceReport{
		UserID:      userID,
		CachedTotal: cached,
		LedgerTotal: ledger,
		Consistent:  cached == ledger,
	}
	if report.Consistent {
		return report, nil
	}

	s.metrics.IncConsistencyFault()
	logCtx := s.logg.WithFields(ctx, map[string]any{
		"user_id":      userID.String(),
		"cached_total": cached,
		"ledger_total": ledger,
	})
	s.logg.Warn(logCtx, "cached balance diverged from ledger")

	if err := s.repo.SetCachedTotal(ctx, userID, ledger); err != nil {
		return report, apperrors.Wrap(apperrors.CodeDependency, err, "repairing cached balance")
	}
	report.Repaired = true
	report.CachedTotal = ledger
	return report, nil
}
