// Package memory — хранилище учёта в памяти процесса для тестов и локального запуска.
// Каждая единица работы выполняется под одним мьютексом; при ошибке изменения
// откатываются по журналу отмены.
//
// Внутри WithinTx нужно пользоваться только переданным Ledger: методы Store
// захватывают тот же мьютекс.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/helptoken/helptoken/internal/models"
	"github.com/helptoken/helptoken/internal/storage"
)

// Store хранит все сущности в map и срезах.
type Store struct {
	mu sync.Mutex

	users         map[string]models.User
	opportunities map[int64]models.Opportunity
	sessions      map[int64]models.VolunteerSession
	items         map[int64]models.MarketplaceItem
	settlements   map[int64]models.SettlementRecord
	transactions  []models.Transaction

	lastID int64
}

var _ storage.UnitOfWork = (*Store)(nil)

// New создаёт пустое хранилище.
func New() *Store {
	return &Store{
		users:         make(map[string]models.User),
		opportunities: make(map[int64]models.Opportunity),
		sessions:      make(map[int64]models.VolunteerSession),
		items:         make(map[int64]models.MarketplaceItem),
		settlements:   make(map[int64]models.SettlementRecord),
	}
}

// WithinTx выполняет fn под мьютексом хранилища и откатывает изменения при ошибке или панике.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, l storage.Ledger) error) error {
	const op = "memory.WithinTx"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l := &ledger{s: s}
	defer func() {
		if p := recover(); p != nil {
			l.rollback()
			panic(p)
		}
	}()
	if err := fn(ctx, l); err != nil {
		l.rollback()
		return err
	}
	return nil
}

// Ping всегда успешен.
func (s *Store) Ping(_ context.Context) error {
	return nil
}

// Close ничего не делает и нужен для единообразия с PostgreSQL.
func (s *Store) Close() error {
	return nil
}

// locked выполняет fn под мьютексом без журнала отмены.
func (s *Store) locked(fn func(l *ledger) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&ledger{s: s})
}

var now = func() time.Time { return time.Now().UTC() }

func (s *Store) nextID() int64 {
	s.lastID++
	return s.lastID
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}
