package withdrawalservice

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/escrowpay/internal/domain"
	"github.com/GlebRadaev/escrowpay/internal/pg"
)

func NewMock(t *testing.T) (*Service, *MockRepo, *MockLedger, *MockPublisher) {
	ctrl := gomock.NewController(t)
	txManager := pg.NewMockTXManager(ctrl)
	txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn pg.TransactionalFn) error { return fn(ctx) }).
		AnyTimes()

	repo := NewMockRepo(ctrl)
	ledger := NewMockLedger(ctrl)
	publisher := NewMockPublisher(ctrl)
	return New(txManager, repo, ledger, publisher), repo, ledger, publisher
}

var (
	freelancer = domain.Actor{ID: uuid.New(), Role: domain.RoleFreelancer}
	client     = domain.Actor{ID: uuid.New(), Role: domain.RoleClient}
	operator   = domain.Actor{ID: uuid.New(), Role: domain.RoleOperator}
	validBank  = domain.BankDetails{AccountHolder: "Jane Doe", BankName: "Acme", CardNumber: "4242424242424242"}
)

func TestRequestWithdrawal(t *testing.T) {
	amount := decimal.RequireFromString("300")

	tests := []struct {
		name          string
		actor         domain.Actor
		amount        decimal.Decimal
		bank          domain.BankDetails
		prepareMock   func(repo *MockRepo, ledger *MockLedger, publisher *MockPublisher)
		expectedError error
	}{
		{
			name:   "Request accepted",
			actor:  freelancer,
			amount: amount,
			bank:   validBank,
			prepareMock: func(repo *MockRepo, ledger *MockLedger, publisher *MockPublisher) {
				gomock.InOrder(
					ledger.EXPECT().Reserve(gomock.Any(), freelancer.ID, amount).Return(nil),
					repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil),
				)
				publisher.EXPECT().Publish(gomock.Any()).Do(func(events ...domain.Event) {
					assert.Equal(t, domain.EventWithdrawalRequested, events[0].Type)
				})
			},
		},
		{
			name:          "Client cannot withdraw",
			actor:         client,
			amount:        amount,
			bank:          validBank,
			prepareMock:   func(*MockRepo, *MockLedger, *MockPublisher) {},
			expectedError: domain.ErrUnauthorized,
		},
		{
			name:          "Negative amount",
			actor:         freelancer,
			amount:        decimal.RequireFromString("-1"),
			bank:          validBank,
			prepareMock:   func(*MockRepo, *MockLedger, *MockPublisher) {},
			expectedError: domain.ErrInvalidAmount,
		},
		{
			name:          "Card fails Luhn check",
			actor:         freelancer,
			amount:        amount,
			bank:          domain.BankDetails{AccountHolder: "Jane Doe", BankName: "Acme", CardNumber: "4242424242424241"},
			prepareMock:   func(*MockRepo, *MockLedger, *MockPublisher) {},
			expectedError: domain.ErrInvalidBankDetails,
		},
		{
			name:          "Missing account holder",
			actor:         freelancer,
			amount:        amount,
			bank:          domain.BankDetails{BankName: "Acme", CardNumber: "4242424242424242"},
			prepareMock:   func(*MockRepo, *MockLedger, *MockPublisher) {},
			expectedError: domain.ErrInvalidBankDetails,
		},
		{
			name:   "Insufficient funds",
			actor:  freelancer,
			amount: amount,
			bank:   validBank,
			prepareMock: func(repo *MockRepo, ledger *MockLedger, publisher *MockPublisher) {
				ledger.EXPECT().Reserve(gomock.Any(), freelancer.ID, amount).Return(domain.ErrInsufficientFunds)
			},
			expectedError: domain.ErrInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, ledger, publisher := NewMock(t)
			tt.prepareMock(repo, ledger, publisher)

			w, err := service.RequestWithdrawal(context.Background(), tt.actor, tt.amount, tt.bank)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, w)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.WithdrawalPending, w.Status)
			assert.Equal(t, freelancer.ID, w.UserID)
			assert.True(t, w.Amount.Equal(amount))
		})
	}
}

func TestTransitions(t *testing.T) {
	amount := decimal.RequireFromString("300")
	stored := func(status domain.WithdrawalStatus) *domain.Withdrawal {
		return &domain.Withdrawal{ID: uuid.New(), UserID: freelancer.ID, Amount: amount, BankDetails: validBank, Status: status}
	}

	t.Run("Mark processing", func(t *testing.T) {
		service, repo, _, publisher := NewMock(t)
		w := stored(domain.WithdrawalPending)
		repo.EXPECT().GetForUpdate(gomock.Any(), w.ID).Return(w, nil)
		repo.EXPECT().Update(gomock.Any(), w).Return(nil)
		publisher.EXPECT().Publish(gomock.Any())

		result, err := service.MarkProcessing(context.Background(), operator, w.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.WithdrawalProcessing, result.Status)
		assert.Equal(t, operator.ID, *result.ProcessedBy)
		assert.Nil(t, result.ProcessedAt)
	})

	t.Run("Complete records the payout", func(t *testing.T) {
		service, repo, ledger, publisher := NewMock(t)
		w := stored(domain.WithdrawalProcessing)
		repo.EXPECT().GetForUpdate(gomock.Any(), w.ID).Return(w, nil)
		ledger.EXPECT().RecordWithdrawal(gomock.Any(), freelancer.ID, amount, gomock.Any()).
			DoAndReturn(func(_ context.Context, _ uuid.UUID, _ decimal.Decimal, ref domain.Reference) (*domain.WalletTransaction, error) {
				assert.Equal(t, domain.RefWithdrawal, ref.Type)
				assert.Equal(t, w.ID, ref.ID)
				assert.Equal(t, "withdrawal to *4242", ref.Description)
				return &domain.WalletTransaction{}, nil
			})
		repo.EXPECT().Update(gomock.Any(), w).Return(nil)
		publisher.EXPECT().Publish(gomock.Any())

		result, err := service.Complete(context.Background(), operator, w.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.WithdrawalCompleted, result.Status)
		assert.NotNil(t, result.ProcessedAt)
	})

	t.Run("Reject returns the reservation", func(t *testing.T) {
		service, repo, ledger, publisher := NewMock(t)
		w := stored(domain.WithdrawalPending)
		repo.EXPECT().GetForUpdate(gomock.Any(), w.ID).Return(w, nil)
		ledger.EXPECT().ReleaseReservation(gomock.Any(), freelancer.ID, amount).Return(nil)
		repo.EXPECT().Update(gomock.Any(), w).Return(nil)
		publisher.EXPECT().Publish(gomock.Any())

		result, err := service.Reject(context.Background(), operator, w.ID, "account closed")
		require.NoError(t, err)
		assert.Equal(t, domain.WithdrawalRejected, result.Status)
		assert.Equal(t, "account closed", result.Notes)
	})

	t.Run("Completed request is terminal", func(t *testing.T) {
		service, repo, _, _ := NewMock(t)
		w := stored(domain.WithdrawalCompleted)
		repo.EXPECT().GetForUpdate(gomock.Any(), w.ID).Return(w, nil)

		_, err := service.Reject(context.Background(), operator, w.ID, "")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		var terr *domain.TransitionError
		require.True(t, errors.As(err, &terr))
		assert.True(t, terr.AlreadyApplied)
	})

	t.Run("Only operators process payouts", func(t *testing.T) {
		service, repo, _, _ := NewMock(t)
		w := stored(domain.WithdrawalPending)
		repo.EXPECT().GetForUpdate(gomock.Any(), w.ID).Return(w, nil)

		_, err := service.Complete(context.Background(), freelancer, w.ID)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("Unknown request", func(t *testing.T) {
		service, repo, _, _ := NewMock(t)
		id := uuid.New()
		repo.EXPECT().GetForUpdate(gomock.Any(), id).Return(nil, nil)

		_, err := service.MarkProcessing(context.Background(), operator, id)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("Ledger failure aborts completion", func(t *testing.T) {
		service, repo, ledger, _ := NewMock(t)
		w := stored(domain.WithdrawalPending)
		repo.EXPECT().GetForUpdate(gomock.Any(), w.ID).Return(w, nil)
		ledger.EXPECT().RecordWithdrawal(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("db error"))

		_, err := service.Complete(context.Background(), operator, w.ID)
		assert.Error(t, err)
	})
}

func TestListByStatus(t *testing.T) {
	tests := []struct {
		name          string
		actor         domain.Actor
		status        domain.WithdrawalStatus
		expectQuery   domain.WithdrawalStatus
		expectedError error
	}{
		{name: "Default queue", actor: operator, expectQuery: domain.WithdrawalPending},
		{name: "Processing queue", actor: operator, status: domain.WithdrawalProcessing, expectQuery: domain.WithdrawalProcessing},
		{name: "Unknown status", actor: operator, status: "lost", expectedError: domain.ErrInvalidRequest},
		{name: "Freelancer", actor: freelancer, expectedError: domain.ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, _, _ := NewMock(t)
			if tt.expectedError == nil {
				repo.EXPECT().ListByStatus(gomock.Any(), tt.expectQuery).Return([]domain.Withdrawal{{ID: uuid.New()}}, nil)
			}

			result, err := service.ListByStatus(context.Background(), tt.actor, tt.status)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			require.NoError(t, err)
			assert.Len(t, result, 1)
		})
	}
}

func TestListOwn(t *testing.T) {
	service, repo, _, _ := NewMock(t)
	repo.EXPECT().ListByUser(gomock.Any(), freelancer.ID).Return(nil, errors.New("db error"))

	_, err := service.ListOwn(context.Background(), freelancer)
	assert.Error(t, err)
}
