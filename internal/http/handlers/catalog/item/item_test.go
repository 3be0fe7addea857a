package item

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

type MockService struct {
	mock.Mock
}

func (m *MockService) ListItems(ctx context.Context) ([]*models.MarketplaceItem, error) {
	args := m.Called(ctx)
	if l := args.Get(0); l != nil {
		return l.([]*models.MarketplaceItem), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockService) CreateItem(ctx context.Context, id authz.Identity, req models.ItemRequest) (*models.MarketplaceItem, error) {
	args := m.Called(ctx, id, req)
	if it := args.Get(0); it != nil {
		return it.(*models.MarketplaceItem), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestItemHandlers(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	admin := authz.Identity{UserUID: "a", Role: authz.RoleAdmin}

	t.Run("список", func(t *testing.T) {
		svc := new(MockService)
		svc.On("ListItems", mock.Anything).Return([]*models.MarketplaceItem{
			{ID: 1, Title: "Bus pass", Cost: decimal.NewFromInt(20), Active: true},
		}, nil)

		rec := httptest.NewRecorder()
		New(logger, svc).List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/marketplace/items", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"title":"Bus pass"`)
		svc.AssertExpectations(t)
	})

	t.Run("создание", func(t *testing.T) {
		svc := new(MockService)
		svc.On("CreateItem", mock.Anything, admin, mock.MatchedBy(func(req models.ItemRequest) bool {
			return req.Cost.Equal(decimal.NewFromInt(20))
		})).Return(&models.MarketplaceItem{ID: 4, Title: "Bus pass", Cost: decimal.NewFromInt(20)}, nil)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/marketplace/items", bytes.NewBufferString(`{"title":"Bus pass","cost":"20"}`))
		req = req.WithContext(authz.WithIdentity(req.Context(), admin))
		rec := httptest.NewRecorder()
		New(logger, svc).Create(rec, req)

		assert.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"id":4`)
		svc.AssertExpectations(t)
	})

	t.Run("нулевая цена", func(t *testing.T) {
		svc := new(MockService)
		svc.On("CreateItem", mock.Anything, admin, mock.Anything).
			Return(nil, fmt.Errorf("catalog.CreateItem: cost must be positive with at most two decimal places: %w", models.ErrValidation))

		req := httptest.NewRequest(http.MethodPost, "/api/v1/marketplace/items", bytes.NewBufferString(`{"title":"Bus pass","cost":"0"}`))
		req = req.WithContext(authz.WithIdentity(req.Context(), admin))
		rec := httptest.NewRecorder()
		New(logger, svc).Create(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, rec.Body.String(), "cost must be positive")
	})
}
