package mine

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/helptoken/helptoken/internal/authz"
	"github.com/helptoken/helptoken/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ListMine(ctx context.Context, id authz.Identity, limit, offset int) ([]*models.VolunteerSession, error) {
	args := m.Called(ctx, id, limit, offset)
	return args.Get(0).([]*models.VolunteerSession), args.Error(1)
}

func TestMineHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	volunteer := authz.Identity{UserUID: "u", Role: authz.RoleVolunteer}

	svc := new(MockService)
	svc.On("ListMine", mock.Anything, volunteer, 5, 0).
		Return([]*models.VolunteerSession{{ID: 3, VolunteerUID: "u", Status: models.SessionRejected}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sessions?limit=5", nil)
	req = req.WithContext(authz.WithIdentity(req.Context(), volunteer))
	rec := httptest.NewRecorder()
	New(logger, svc).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"rejected"`)
	svc.AssertExpectations(t)

	rec = httptest.NewRecorder()
	New(logger, svc).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/sessions", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
