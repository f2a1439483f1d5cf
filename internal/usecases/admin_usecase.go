package usecases

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"farmvet-auth.backend/internal/domain/entities"
	domainerrors "farmvet-auth.backend/internal/domain/errors"
	"farmvet-auth.backend/internal/domain/repositories"
	"farmvet-auth.backend/pkg/logger"
	"farmvet-auth.backend/pkg/utils"
)

// AdminUsecase reviews self-registered accounts
type AdminUsecase struct {
	accounts repositories.AccountRepository
}

// NewAdminUsecase creates a new admin usecase
func NewAdminUsecase(accounts repositories.AccountRepository) *AdminUsecase {
	return &AdminUsecase{accounts: accounts}
}

// Approve sets the account approved and active
func (uc *AdminUsecase) Approve(ctx context.Context, actorID, accountID uuid.UUID) error {
	return uc.setStatus(ctx, actorID, accountID, entities.StatusApproved, true)
}

// Decline sets the account declined and inactive
func (uc *AdminUsecase) Decline(ctx context.Context, actorID, accountID uuid.UUID) error {
	return uc.setStatus(ctx, actorID, accountID, entities.StatusDeclined, false)
}

// ListAccounts returns a filtered page of accounts for review
func (uc *AdminUsecase) ListAccounts(
	ctx context.Context,
	actorID uuid.UUID,
	filter entities.AccountFilter,
	pagination utils.PaginationParams,
) ([]*entities.Account, int64, error) {
	if err := uc.requireAdmin(ctx, actorID); err != nil {
		return nil, 0, err
	}
	return uc.accounts.List(ctx, filter, pagination)
}

func (uc *AdminUsecase) setStatus(ctx context.Context, actorID, accountID uuid.UUID, status entities.ApprovalStatus, active bool) error {
	if err := uc.requireAdmin(ctx, actorID); err != nil {
		return err
	}
	if err := uc.accounts.UpdateStatus(ctx, accountID, status, active); err != nil {
		return err
	}
	logger.Info(ctx, "Account status changed",
		zap.String("actor_id", actorID.String()),
		zap.String("account_id", accountID.String()),
		zap.String("status", string(status)),
	)
	return nil
}

// requireAdmin loads the actor from storage rather than trusting token claims
func (uc *AdminUsecase) requireAdmin(ctx context.Context, actorID uuid.UUID) error {
	actor, err := uc.accounts.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			return domainerrors.ErrForbidden
		}
		return err
	}
	if actor.Role != entities.RoleAdmin || !actor.IsActive {
		return domainerrors.ErrForbidden
	}
	return nil
}
