package redeem

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/helptoken/helptoken/internal/authz"
	"github.com/helptoken/helptoken/internal/models"
)

// MockService реализует интерфейс redeem.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Redeem(ctx context.Context, id authz.Identity, req models.RedeemRequest) (*models.Transaction, error) {
	args := m.Called(ctx, id, req)
	if tx := args.Get(0); tx != nil {
		return tx.(*models.Transaction), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestRedeemHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	volunteer := authz.Identity{UserUID: "u", Role: authz.RoleVolunteer}
	itemID := int64(2)

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешная покупка",
			body: `{"item_id":2}`,
			setupMock: func(m *MockService) {
				m.On("Redeem", mock.Anything, volunteer, mock.MatchedBy(func(req models.RedeemRequest) bool {
					return req.ItemID == 2 && req.Cost.IsZero()
				})).Return(&models.Transaction{
					ID: 1, Type: models.TxSpend, Amount: decimal.NewFromInt(20), UserUID: "u", ItemID: &itemID,
				}, nil)
			},
			expectedStatus: http.StatusCreated,
			expectedBody:   `"type":"spend"`,
		},
		{
			name: "недостаточно средств",
			body: `{"item_id":2,"cost":"50"}`,
			setupMock: func(m *MockService) {
				m.On("Redeem", mock.Anything, volunteer, mock.Anything).
					Return(nil, fmt.Errorf("accounting.Redeem: %w", models.ErrInsufficientBalance))
			},
			expectedStatus: http.StatusPaymentRequired,
			expectedBody:   `"error":"insufficient balance"`,
		},
		{
			name: "товар не найден",
			body: `{"item_id":99}`,
			setupMock: func(m *MockService) {
				m.On("Redeem", mock.Anything, volunteer, mock.Anything).
					Return(nil, fmt.Errorf("accounting.Redeem: %w", models.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "нет item_id",
			body:           `{}`,
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field ItemID is a required field`,
		},
		{
			name: "внутренняя ошибка скрыта",
			body: `{"item_id":2}`,
			setupMock: func(m *MockService) {
				m.On("Redeem", mock.Anything, volunteer, mock.Anything).
					Return(nil, fmt.Errorf("accounting.Redeem: dial tcp 10.0.0.5:5432: refused"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"error":"internal error"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/marketplace/redeem", bytes.NewBufferString(tt.body))
			req = req.WithContext(authz.WithIdentity(req.Context(), volunteer))
			rec := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			assert.NotContains(t, rec.Body.String(), "10.0.0.5")
			svc.AssertExpectations(t)
		})
	}
}
