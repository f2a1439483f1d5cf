package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"farmvet-auth.backend/internal/domain/entities"
	domainerrors "farmvet-auth.backend/internal/domain/errors"
	"farmvet-auth.backend/internal/usecases"
	"farmvet-auth.backend/pkg/utils"
)

func TestAdminUsecase_ApproveAndDecline(t *testing.T) {
	repo := new(MockAccountRepository)
	uc := usecases.NewAdminUsecase(repo)
	actor := &entities.Account{ID: uuid.New(), Role: entities.RoleAdmin, IsActive: true}
	target := uuid.New()

	repo.On("GetByID", mock.Anything, actor.ID).Return(actor, nil)
	repo.On("UpdateStatus", mock.Anything, target, entities.StatusApproved, true).Return(nil).Once()
	repo.On("UpdateStatus", mock.Anything, target, entities.StatusDeclined, false).Return(nil).Once()

	require.NoError(t, uc.Approve(context.Background(), actor.ID, target))
	require.NoError(t, uc.Decline(context.Background(), actor.ID, target))
	repo.AssertExpectations(t)
}

func TestAdminUsecase_UnknownTarget(t *testing.T) {
	repo := new(MockAccountRepository)
	uc := usecases.NewAdminUsecase(repo)
	actor := &entities.Account{ID: uuid.New(), Role: entities.RoleAdmin, IsActive: true}
	target := uuid.New()

	repo.On("GetByID", mock.Anything, actor.ID).Return(actor, nil)
	repo.On("UpdateStatus", mock.Anything, target, entities.StatusApproved, true).Return(domainerrors.ErrNotFound).Once()

	err := uc.Approve(context.Background(), actor.ID, target)
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestAdminUsecase_ActorMustBeActiveAdmin(t *testing.T) {
	cases := []struct {
		name  string
		actor *entities.Account
		err   error
	}{
		{"farmer", &entities.Account{Role: entities.RoleFarmer, IsActive: true}, nil},
		{"inactive admin", &entities.Account{Role: entities.RoleAdmin, IsActive: false}, nil},
		{"missing", nil, domainerrors.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := new(MockAccountRepository)
			uc := usecases.NewAdminUsecase(repo)
			actorID := uuid.New()
			if tc.actor != nil {
				repo.On("GetByID", mock.Anything, actorID).Return(tc.actor, nil)
			} else {
				repo.On("GetByID", mock.Anything, actorID).Return(nil, tc.err)
			}

			assert.ErrorIs(t, uc.Approve(context.Background(), actorID, uuid.New()), domainerrors.ErrForbidden)
			assert.ErrorIs(t, uc.Decline(context.Background(), actorID, uuid.New()), domainerrors.ErrForbidden)
			_, _, err := uc.ListAccounts(context.Background(), actorID, entities.AccountFilter{}, utils.PaginationParams{Page: 1, Limit: 10})
			assert.ErrorIs(t, err, domainerrors.ErrForbidden)
			repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAdminUsecase_ActorLookupFailure(t *testing.T) {
	repo := new(MockAccountRepository)
	uc := usecases.NewAdminUsecase(repo)
	actorID := uuid.New()
	repo.On("GetByID", mock.Anything, actorID).Return(nil, errors.New("db down"))

	err := uc.Approve(context.Background(), actorID, uuid.New())
	assert.EqualError(t, err, "db down")
}

func TestAdminUsecase_ListAccounts(t *testing.T) {
	repo := new(MockAccountRepository)
	uc := usecases.NewAdminUsecase(repo)
	actor := &entities.Account{ID: uuid.New(), Role: entities.RoleAdmin, IsActive: true}
	filter := entities.AccountFilter{Status: entities.StatusPending, Role: entities.RoleVet}
	page := utils.PaginationParams{Page: 2, Limit: 5}
	rows := []*entities.Account{{ID: uuid.New(), Username: "v1"}}

	repo.On("GetByID", mock.Anything, actor.ID).Return(actor, nil)
	repo.On("List", mock.Anything, filter, page).Return(rows, int64(6), nil).Once()

	got, total, err := uc.ListAccounts(context.Background(), actor.ID, filter, page)
	require.NoError(t, err)
	assert.Equal(t, int64(6), total)
	assert.Equal(t, rows, got)
}
