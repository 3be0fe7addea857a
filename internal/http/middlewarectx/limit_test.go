package middlewarectx_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/helptoken/helptoken/internal/authz"
	"github.com/helptoken/helptoken/internal/http/middlewarectx"
)

func TestRateLimitMiddleware_PerIdentity(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middlewarectx.RateLimitMiddleware(newNoopLogger(), 0.001, 2)(next)

	do := func(id *authz.Identity) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if id != nil {
			req = req.WithContext(authz.WithIdentity(req.Context(), *id))
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	alice := &authz.Identity{UserUID: "a", Role: authz.RoleVolunteer}
	bob := &authz.Identity{UserUID: "b", Role: authz.RoleVolunteer}

	assert.Equal(t, http.StatusOK, do(alice))
	assert.Equal(t, http.StatusOK, do(alice))
	assert.Equal(t, http.StatusTooManyRequests, do(alice))

	assert.Equal(t, http.StatusOK, do(bob), "limits are per identity")

	assert.Equal(t, http.StatusOK, do(nil))
	assert.Equal(t, http.StatusOK, do(nil))
	assert.Equal(t, http.StatusTooManyRequests, do(nil))
}
