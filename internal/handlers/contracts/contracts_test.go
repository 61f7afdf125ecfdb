package contracts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomock "go.uber.org/mock/gomock"

	"github.com/GlebRadaev/escrowpay/internal/domain"
	"github.com/GlebRadaev/escrowpay/internal/dto"
	"github.com/GlebRadaev/escrowpay/internal/service/paymentservice"
	"github.com/GlebRadaev/escrowpay/pkg/auth"
)

func NewMock(t *testing.T) (*ContractHandler, *MockService) {
	ctrl := gomock.NewController(t)
	service := NewMockService(ctrl)
	handler := New(service)
	return handler, service
}

var client = domain.Actor{ID: uuid.New(), Role: domain.RoleClient}

func withActor(r *http.Request, actor domain.Actor) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), auth.ActorKey, actor))
}

func withParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestAcceptProposalHandler(t *testing.T) {
	handler, service := NewMock(t)
	projectID, freelancerID := uuid.New(), uuid.New()
	body := `{"project_id":"` + projectID.String() + `","freelancer_id":"` + freelancerID.String() + `","amount":"500.00"}`

	contract := &domain.Contract{ID: uuid.New(), ProjectID: projectID, ClientID: client.ID, FreelancerID: freelancerID,
		Amount: decimal.RequireFromString("500"), Status: domain.ContractActive}
	escrow := &domain.Escrow{ID: uuid.New(), ContractID: contract.ID, Amount: contract.Amount, Status: domain.EscrowPendingPayment}

	tests := []struct {
		name          string
		body          string
		prepareMock   func()
		expectedCode  int
		expectedError string
	}{
		{
			name: "Contract created",
			body: body,
			prepareMock: func() {
				service.EXPECT().
					AcceptProposal(gomock.Any(), client, gomock.Any()).
					DoAndReturn(func(_ context.Context, _ domain.Actor, p paymentservice.ProposalAccepted) (*domain.Contract, *domain.Escrow, error) {
						assert.Equal(t, projectID, p.ProjectID)
						assert.Equal(t, freelancerID, p.FreelancerID)
						assert.True(t, p.Amount.Equal(decimal.RequireFromString("500")))
						return contract, escrow, nil
					})
			},
			expectedCode: http.StatusCreated,
		},
		{
			name:          "Invalid request body",
			body:          `{"amount":}`,
			prepareMock:   func() {},
			expectedCode:  http.StatusBadRequest,
			expectedError: "invalid request body",
		},
		{
			name: "Contract already exists",
			body: body,
			prepareMock: func() {
				service.EXPECT().AcceptProposal(gomock.Any(), client, gomock.Any()).Return(nil, nil, domain.ErrContractExists)
			},
			expectedCode:  http.StatusConflict,
			expectedError: domain.ErrContractExists.Error(),
		},
		{
			name: "Invalid amount",
			body: body,
			prepareMock: func() {
				service.EXPECT().AcceptProposal(gomock.Any(), client, gomock.Any()).Return(nil, nil, domain.ErrInvalidAmount)
			},
			expectedCode: http.StatusUnprocessableEntity,
		},
		{
			name: "Internal server error",
			body: body,
			prepareMock: func() {
				service.EXPECT().AcceptProposal(gomock.Any(), client, gomock.Any()).Return(nil, nil, errors.New("error"))
			},
			expectedCode:  http.StatusInternalServerError,
			expectedError: "Internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			r := withActor(httptest.NewRequest(http.MethodPost, "/api/contracts", bytes.NewBufferString(tt.body)), client)
			w := httptest.NewRecorder()
			handler.AcceptProposal(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
			if tt.expectedError != "" {
				assert.Contains(t, w.Body.String(), tt.expectedError)
			}
			if tt.expectedCode == http.StatusCreated {
				var resp dto.AcceptProposalResponseDTO
				require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
				assert.Equal(t, contract.ID, resp.Contract.ID)
				assert.Equal(t, "pending_payment", resp.Escrow.Status)
				assert.True(t, resp.Escrow.Amount.Equal(contract.Amount))
			}
		})
	}
}

func TestAcceptProposalHandler_NoActor(t *testing.T) {
	handler, _ := NewMock(t)
	w := httptest.NewRecorder()
	handler.AcceptProposal(w, httptest.NewRequest(http.MethodPost, "/api/contracts", bytes.NewBufferString(`{}`)))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGetContractHandler(t *testing.T) {
	handler, service := NewMock(t)
	id := uuid.New()

	tests := []struct {
		name         string
		param        string
		prepareMock  func()
		expectedCode int
	}{
		{
			name:  "Found",
			param: id.String(),
			prepareMock: func() {
				service.EXPECT().GetContract(gomock.Any(), client, id).Return(&domain.Contract{ID: id, Status: domain.ContractActive}, nil)
			},
			expectedCode: http.StatusOK,
		},
		{
			name:  "Not visible",
			param: id.String(),
			prepareMock: func() {
				service.EXPECT().GetContract(gomock.Any(), client, id).Return(nil, domain.ErrNotFound)
			},
			expectedCode: http.StatusNotFound,
		},
		{
			name:         "Malformed id",
			param:        "abc",
			prepareMock:  func() {},
			expectedCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()

			r := httptest.NewRequest(http.MethodGet, "/api/contracts/"+tt.param, nil)
			r = withActor(withParam(r, "contractID", tt.param), client)
			w := httptest.NewRecorder()
			handler.GetContract(w, r)

			assert.Equal(t, tt.expectedCode, w.Code)
		})
	}
}

func TestGetEscrowHandler(t *testing.T) {
	handler, service := NewMock(t)
	contractID := uuid.New()
	escrow := &domain.Escrow{ID: uuid.New(), ContractID: contractID, Status: domain.EscrowPaymentReceived}
	service.EXPECT().GetEscrowByContract(gomock.Any(), client, contractID).Return(escrow, nil)

	r := httptest.NewRequest(http.MethodGet, "/api/contracts/"+contractID.String()+"/escrow", nil)
	r = withActor(withParam(r, "contractID", contractID.String()), client)
	w := httptest.NewRecorder()
	handler.GetEscrow(w, r)

	require.Equal(t, http.StatusOK, w.Code)
	var resp dto.EscrowResponseDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, escrow.ID, resp.ID)
	assert.Equal(t, "payment_received", resp.Status)
}
