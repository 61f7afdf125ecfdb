package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/escrowpay/internal/domain"
	"github.com/GlebRadaev/escrowpay/internal/handlers/contracts"
	"github.com/GlebRadaev/escrowpay/internal/handlers/escrow"
	"github.com/GlebRadaev/escrowpay/internal/handlers/wallet"
	"github.com/GlebRadaev/escrowpay/internal/handlers/withdrawals"
	"github.com/GlebRadaev/escrowpay/internal/service"
	"github.com/GlebRadaev/escrowpay/pkg/auth"
)

const secret = "test-secret"

func TestNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	services := &service.Services{
		ContractService:   contracts.NewMockService(ctrl),
		EscrowService:     escrow.NewMockService(ctrl),
		WalletService:     wallet.NewMockService(ctrl),
		WithdrawalService: withdrawals.NewMockService(ctrl),
	}

	h := New(services, auth.NewJWTService(secret))
	assert.NotNil(t, h, "Handlers should not be nil")
	assert.NotNil(t, h.ContractHandler)
	assert.NotNil(t, h.EscrowHandler)
	assert.NotNil(t, h.WalletHandler)
	assert.NotNil(t, h.WithdrawalHandler)
}

type route struct {
	method string
	url    string
	expect func(m *mockHandlers) *gomock.Call
}

type mockHandlers struct {
	contracts   *MockContractHandler
	escrow      *MockEscrowHandler
	wallet      *MockWalletHandler
	withdrawals *MockWithdrawalHandler
}

func TestInitRoutes(t *testing.T) {
	id := uuid.NewString()

	routes := []route{
		{"POST", "/api/contracts", func(m *mockHandlers) *gomock.Call { return m.contracts.EXPECT().AcceptProposal(gomock.Any(), gomock.Any()) }},
		{"GET", "/api/contracts/" + id, func(m *mockHandlers) *gomock.Call { return m.contracts.EXPECT().GetContract(gomock.Any(), gomock.Any()) }},
		{"GET", "/api/contracts/" + id + "/escrow", func(m *mockHandlers) *gomock.Call { return m.contracts.EXPECT().GetEscrow(gomock.Any(), gomock.Any()) }},
		{"GET", "/api/escrows/" + id, func(m *mockHandlers) *gomock.Call { return m.escrow.EXPECT().GetEscrow(gomock.Any(), gomock.Any()) }},
		{"GET", "/api/escrows/" + id + "/history", func(m *mockHandlers) *gomock.Call { return m.escrow.EXPECT().History(gomock.Any(), gomock.Any()) }},
		{"POST", "/api/escrows/" + id + "/confirm-payment", func(m *mockHandlers) *gomock.Call { return m.escrow.EXPECT().ConfirmPayment(gomock.Any(), gomock.Any()) }},
		{"POST", "/api/escrows/" + id + "/complete-work", func(m *mockHandlers) *gomock.Call { return m.escrow.EXPECT().CompleteWork(gomock.Any(), gomock.Any()) }},
		{"POST", "/api/escrows/" + id + "/release", func(m *mockHandlers) *gomock.Call { return m.escrow.EXPECT().Release(gomock.Any(), gomock.Any()) }},
		{"POST", "/api/escrows/" + id + "/dispute", func(m *mockHandlers) *gomock.Call { return m.escrow.EXPECT().Dispute(gomock.Any(), gomock.Any()) }},
		{"POST", "/api/escrows/" + id + "/refund", func(m *mockHandlers) *gomock.Call { return m.escrow.EXPECT().Refund(gomock.Any(), gomock.Any()) }},
		{"GET", "/api/wallet", func(m *mockHandlers) *gomock.Call { return m.wallet.EXPECT().GetWallet(gomock.Any(), gomock.Any()) }},
		{"GET", "/api/wallet/transactions", func(m *mockHandlers) *gomock.Call { return m.wallet.EXPECT().GetTransactions(gomock.Any(), gomock.Any()) }},
		{"POST", "/api/withdrawals", func(m *mockHandlers) *gomock.Call { return m.withdrawals.EXPECT().Request(gomock.Any(), gomock.Any()) }},
		{"GET", "/api/withdrawals", func(m *mockHandlers) *gomock.Call { return m.withdrawals.EXPECT().ListOwn(gomock.Any(), gomock.Any()) }},
		{"GET", "/api/withdrawals/queue", func(m *mockHandlers) *gomock.Call { return m.withdrawals.EXPECT().Queue(gomock.Any(), gomock.Any()) }},
		{"POST", "/api/withdrawals/" + id + "/processing", func(m *mockHandlers) *gomock.Call { return m.withdrawals.EXPECT().MarkProcessing(gomock.Any(), gomock.Any()) }},
		{"POST", "/api/withdrawals/" + id + "/complete", func(m *mockHandlers) *gomock.Call { return m.withdrawals.EXPECT().Complete(gomock.Any(), gomock.Any()) }},
		{"POST", "/api/withdrawals/" + id + "/reject", func(m *mockHandlers) *gomock.Call { return m.withdrawals.EXPECT().Reject(gomock.Any(), gomock.Any()) }},
	}

	jwtService := auth.NewJWTService(secret)
	token, err := jwtService.GenerateJWT(domain.Actor{ID: uuid.New(), Role: domain.RoleOperator}, time.Now().Add(time.Hour))
	require.NoError(t, err)

	newRouter := func(t *testing.T) (chi.Router, *mockHandlers) {
		ctrl := gomock.NewController(t)
		m := &mockHandlers{
			contracts:   NewMockContractHandler(ctrl),
			escrow:      NewMockEscrowHandler(ctrl),
			wallet:      NewMockWalletHandler(ctrl),
			withdrawals: NewMockWithdrawalHandler(ctrl),
		}
		h := &Handlers{
			ContractHandler:   m.contracts,
			EscrowHandler:     m.escrow,
			WalletHandler:     m.wallet,
			WithdrawalHandler: m.withdrawals,
			validator:         jwtService,
		}
		router := chi.NewRouter()
		h.InitRoutes(router)
		return router, m
	}

	for _, tt := range routes {
		t.Run("anonymous "+tt.method+" "+tt.url, func(t *testing.T) {
			router, _ := newRouter(t)
			req := httptest.NewRequest(tt.method, tt.url, nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})

		t.Run("authorized "+tt.method+" "+tt.url, func(t *testing.T) {
			router, m := newRouter(t)
			tt.expect(m).Times(1)

			req := httptest.NewRequest(tt.method, tt.url, nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusOK, rec.Code)
		})
	}
}

func TestInitRoutes_Public(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := &Handlers{
		ContractHandler:   NewMockContractHandler(ctrl),
		EscrowHandler:     NewMockEscrowHandler(ctrl),
		WalletHandler:     NewMockWalletHandler(ctrl),
		WithdrawalHandler: NewMockWithdrawalHandler(ctrl),
		validator:         auth.NewJWTService(secret),
	}
	router := chi.NewRouter()
	h.InitRoutes(router)

	tests := []struct {
		url    string
		status int
	}{
		{"/metrics", http.StatusOK},
		{"/swagger/doc.json", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
		})
	}
}
