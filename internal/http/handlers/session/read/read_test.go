package read

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/helptoken/helptoken/internal/authz"
	"github.com/helptoken/helptoken/internal/models"
)

// MockService реализует интерфейс read.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Get(ctx context.Context, id authz.Identity, sessionID int64) (*models.SessionDetails, error) {
	args := m.Called(ctx, id, sessionID)
	if d := args.Get(0); d != nil {
		return d.(*models.SessionDetails), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestReadHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	volunteer := authz.Identity{UserUID: "u", Role: authz.RoleVolunteer}

	tests := []struct {
		name           string
		sessionID      string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:      "сессия с расчётом",
			sessionID: "4",
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, volunteer, int64(4)).Return(&models.SessionDetails{
					Session:    &models.VolunteerSession{ID: 4, Status: models.SessionVerified},
					Settlement: &models.SettlementRecord{ID: 1, SessionID: 4, Status: models.SettlementPending},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"settlement":{"id":1,"session_id":4`,
		},
		{
			name:      "чужая сессия",
			sessionID: "8",
			setupMock: func(m *MockService) {
				m.On("Get", mock.Anything, volunteer, int64(8)).
					Return(nil, fmt.Errorf("verification.Get: %w", models.ErrNotFound))
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `"error":"not found"`,
		},
		{
			name:           "id не число",
			sessionID:      "x",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions/"+tt.sessionID, nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.sessionID)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			req = req.WithContext(authz.WithIdentity(ctx, volunteer))
			rec := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedBody)
			svc.AssertExpectations(t)
		})
	}
}
