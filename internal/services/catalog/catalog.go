// Package catalog содержит бизнес-логику каталога: волонтёрские возможности со ставками
// вознаграждения и товары маркетплейса. Чтение активных записей кэшируется.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/helptoken/helptoken/internal/authz"
	"github.com/helptoken/helptoken/internal/cache"
	"github.com/helptoken/helptoken/internal/lib/sl"
	"github.com/helptoken/helptoken/internal/models"
)

// Repository определяет методы хранилища каталога.
type Repository interface {
	CreateOpportunity(ctx context.Context, o *models.Opportunity) (int64, error)
	UpdateOpportunity(ctx context.Context, o *models.Opportunity) error
	GetOpportunity(ctx context.Context, id int64) (*models.Opportunity, error)
	ListOpportunities(ctx context.Context, activeOnly bool) ([]*models.Opportunity, error)
	CreateItem(ctx context.Context, it *models.MarketplaceItem) (int64, error)
	GetItem(ctx context.Context, id int64) (*models.MarketplaceItem, error)
	ListItems(ctx context.Context, activeOnly bool) ([]*models.MarketplaceItem, error)
}

// Cache описывает методы для кэширования данных.
type Cache interface {
	// Get пытается получить значение из кеша по ключу.
	Get(ctx context.Context, key string, result any) (bool, error)
	// Set сохраняет значение в кеш с временем жизни.
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	// Invalidate удаляет значения из кеша по ключам.
	Invalidate(ctx context.Context, keys ...string) error
}

// Service реализует операции каталога.
type Service struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	guard *authz.Guard
	log   *slog.Logger
	now   func() time.Time
}

// NewService создает новый экземпляр Service. cache может быть nil, тогда чтение идёт напрямую в хранилище.
func NewService(log *slog.Logger, repo Repository, c Cache, ttl time.Duration, guard *authz.Guard) *Service {
	return &Service{
		repo:  repo,
		cache: c,
		ttl:   ttl,
		guard: guard,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// cached читает key из кэша, а при промахе вызывает load и кладёт результат в кэш.
// Сбой кэша не ломает чтение.
func cached[T any](ctx context.Context, s *Service, key string, load func() (T, error)) (T, error) {
	var result T
	if s.cache != nil {
		hit, err := s.cache.Get(ctx, key, &result)
		if err != nil {
			s.log.Warn("catalog cache read failed", slog.String("key", key), sl.Err(err))
		} else if hit {
			return result, nil
		}
	}

	result, err := load()
	if err != nil {
		return result, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, s.ttl); err != nil {
			s.log.Warn("catalog cache write failed", slog.String("key", key), sl.Err(err))
		}
	}
	return result, nil
}

func (s *Service) invalidate(ctx context.Context, keys ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.log.Error("catalog cache invalidation failed", slog.Any("keys", keys), sl.Err(err))
	}
}

// ListOpportunities возвращает активные возможности. Неактивные видит только администратор каталога.
func (s *Service) ListOpportunities(ctx context.Context, id authz.Identity, includeInactive bool) ([]*models.Opportunity, error) {
	const op = "catalog.ListOpportunities"
	if includeInactive {
		if err := s.guard.Require(id, authz.ManageCatalog); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		list, err := s.repo.ListOpportunities(ctx, false)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return list, nil
	}

	list, err := cached(ctx, s, cache.KeyActiveOpportunities, func() ([]*models.Opportunity, error) {
		return s.repo.ListOpportunities(ctx, true)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// GetOpportunity возвращает возможность. Неактивная для всех, кроме администратора, не существует.
func (s *Service) GetOpportunity(ctx context.Context, id authz.Identity, oppID int64) (*models.Opportunity, error) {
	const op = "catalog.GetOpportunity"
	o, err := cached(ctx, s, cache.OpportunityKey(oppID), func() (*models.Opportunity, error) {
		return s.repo.GetOpportunity(ctx, oppID)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !o.Active && !id.Role.Can(authz.ManageCatalog) {
		return nil, fmt.Errorf("%s: opportunity %d: %w", op, oppID, models.ErrNotFound)
	}
	return o, nil
}

func validateOpportunity(req models.OpportunityRequest) error {
	if strings.TrimSpace(req.Title) == "" {
		return fmt.Errorf("title is required: %w", models.ErrValidation)
	}
	if err := models.ValidateRewardRate(req.RewardRate); err != nil {
		return err
	}
	if !req.RewardRate.Equal(req.RewardRate.Round(2)) {
		return fmt.Errorf("reward_rate must have at most two decimal places: %w", models.ErrValidation)
	}
	return nil
}

// CreateOpportunity добавляет возможность. Новая возможность активна, если не указано иное.
func (s *Service) CreateOpportunity(ctx context.Context, id authz.Identity, req models.OpportunityRequest) (*models.Opportunity, error) {
	const op = "catalog.CreateOpportunity"
	if err := s.guard.Require(id, authz.ManageCatalog); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := validateOpportunity(req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	o := &models.Opportunity{
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Municipality: req.Municipality,
		RewardRate:   req.RewardRate,
		Active:       req.Active == nil || *req.Active,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	oppID, err := s.repo.CreateOpportunity(ctx, o)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	o.ID = oppID
	s.invalidate(ctx, cache.KeyActiveOpportunities)

	s.log.Info("opportunity created", slog.Int64("opportunity_id", oppID), slog.String("reward_rate", o.RewardRate.String()))
	return o, nil
}

// UpdateOpportunity меняет возможность. Новая ставка действует только для сессий,
// поданных после изменения.
func (s *Service) UpdateOpportunity(ctx context.Context, id authz.Identity, oppID int64, req models.OpportunityRequest) (*models.Opportunity, error) {
	const op = "catalog.UpdateOpportunity"
	if err := s.guard.Require(id, authz.ManageCatalog); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := validateOpportunity(req); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	o, err := s.repo.GetOpportunity(ctx, oppID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	o.Title = req.Title
	o.Description = req.Description
	o.Category = req.Category
	o.Municipality = req.Municipality
	o.RewardRate = req.RewardRate
	if req.Active != nil {
		o.Active = *req.Active
	}
	o.UpdatedAt = s.now()

	if err := s.repo.UpdateOpportunity(ctx, o); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	s.invalidate(ctx, cache.KeyActiveOpportunities, cache.OpportunityKey(oppID))
	return o, nil
}

// ListItems возвращает активные товары маркетплейса, дешёвые первыми.
func (s *Service) ListItems(ctx context.Context) ([]*models.MarketplaceItem, error) {
	const op = "catalog.ListItems"
	items, err := cached(ctx, s, cache.KeyActiveItems, func() ([]*models.MarketplaceItem, error) {
		return s.repo.ListItems(ctx, true)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// CreateItem добавляет товар маркетплейса.
func (s *Service) CreateItem(ctx context.Context, id authz.Identity, req models.ItemRequest) (*models.MarketplaceItem, error) {
	const op = "catalog.CreateItem"
	if err := s.guard.Require(id, authz.ManageCatalog); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%s: title is required: %w", op, models.ErrValidation)
	}
	if !req.Cost.GreaterThan(decimal.Zero) || !req.Cost.Equal(req.Cost.Round(2)) {
		return nil, fmt.Errorf("%s: cost must be positive with at most two decimal places: %w", op, models.ErrValidation)
	}

	it := &models.MarketplaceItem{
		Title:       req.Title,
		Description: req.Description,
		Cost:        req.Cost,
		Active:      true,
		CreatedAt:   s.now(),
	}
	itemID, err := s.repo.CreateItem(ctx, it)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	it.ID = itemID
	s.invalidate(ctx, cache.KeyActiveItems)
	return it, nil
}
