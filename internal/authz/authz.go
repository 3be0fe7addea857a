// Package authz сопоставляет аутентифицированную идентичность с ролью и проверяет
// возможности до выполнения операций, изменяющих состояние.
//
// Проверка выполняется раньше любого обращения к хранилищу, поэтому вызывающий без
// нужной возможности не узнаёт, существует ли запрашиваемый ресурс.
package authz

import (
	"context"
	"fmt"

	"github.com/helptoken/helptoken/internal/models"
)

// Role — закрытое перечисление ролей.
type Role string

const (
	RoleVolunteer Role = "volunteer"
	RoleAdmin     Role = "municipal_admin"
	RoleVerifier  Role = "verifier"
)

// ParseRole возвращает роль по строке из токена.
func ParseRole(raw string) (Role, bool) {
	role := Role(raw)
	switch role {
	case RoleVolunteer, RoleAdmin, RoleVerifier:
		return role, true
	default:
		return "", false
	}
}

// Capability — закрытое перечисление возможностей.
type Capability int

const (
	SubmitSession Capability = iota + 1
	DecideSession
	ListPending
	Redeem
	ViewOwnLedger
	ManageCatalog
	ManageSettlements
)

func (c Capability) String() string {
	switch c {
	case SubmitSession:
		return "submit_session"
	case DecideSession:
		return "decide_session"
	case ListPending:
		return "list_pending"
	case Redeem:
		return "redeem"
	case ViewOwnLedger:
		return "view_own_ledger"
	case ManageCatalog:
		return "manage_catalog"
	case ManageSettlements:
		return "manage_settlements"
	default:
		return fmt.Sprintf("capability(%d)", int(c))
	}
}

// Can сообщает, обладает ли роль возможностью. Неизвестные роли не обладают ничем.
func (r Role) Can(c Capability) bool {
	switch r {
	case RoleVolunteer:
		switch c {
		case SubmitSession, Redeem, ViewOwnLedger:
			return true
		default:
			return false
		}
	case RoleVerifier:
		switch c {
		case DecideSession, ListPending, ViewOwnLedger, Redeem:
			return true
		default:
			return false
		}
	case RoleAdmin:
		switch c {
		case DecideSession, ListPending, ViewOwnLedger, Redeem, ManageCatalog, ManageSettlements:
			return true
		default:
			return false
		}
	default:
		return false
	}
}

// Identity — аутентифицированный вызывающий.
type Identity struct {
	UserUID string
	Role    Role
}

// IsAdmin сообщает, что идентичность принадлежит муниципальному администратору.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// Guard проверяет возможности идентичности.
type Guard struct{}

// NewGuard создаёт Guard.
func NewGuard() *Guard {
	return &Guard{}
}

// Require возвращает models.ErrForbidden, если у идентичности нет возможности c.
func (g *Guard) Require(id Identity, c Capability) error {
	const op = "authz.Require"
	if id.UserUID == "" || !id.Role.Can(c) {
		return fmt.Errorf("%s: %s lacks %s: %w", op, id.Role, c, models.ErrForbidden)
	}
	return nil
}

type identityKey struct{}

// WithIdentity кладёт идентичность в контекст запроса.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext достаёт идентичность, положенную middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}
