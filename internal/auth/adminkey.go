package auth

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"topikbank/internal/app/apiresp"
)

const AdminKeyHeader = "X-Admin-Key"

type contextKey string

const (
	adminContextKey contextKey = "admin_key"
	adminSlotKey    contextKey = "admin_slot"
)

// adminSlot lets middleware that runs before Require see the admin it resolved.
type adminSlot struct {
	admin *Admin
}

var ErrInvalidKey = errors.New("invalid admin key")

// Admin identifies a caller that presented a valid admin key.
type Admin struct {
	KeyID string
}

// HashKey returns the bcrypt hash to put in ADMIN_KEY_HASH.
func HashKey(key string, cost int) (string, error) {
	key = strings.TrimSpace(key)
	if len(key) < 16 {
		return "", fmt.Errorf("admin key must be at least 16 characters")
	}
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", fmt.Errorf("hash admin key: %w", err)
	}
	return string(hash), nil
}

// AdminKeyAuth guards the admin API. A key is verified with bcrypt once; later requests
// carrying the same key are matched against a digest kept in memory.
type AdminKeyAuth struct {
	hash     []byte
	verified sync.Map
}

// NewAdminKeyAuth returns nil when hash is empty, which disables the check.
func NewAdminKeyAuth(hash string) *AdminKeyAuth {
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return nil
	}
	return &AdminKeyAuth{hash: []byte(hash)}
}

func (a *AdminKeyAuth) Enabled() bool {
	return a != nil
}

func (a *AdminKeyAuth) Verify(key string) (*Admin, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, ErrInvalidKey
	}
	digest := sha256.Sum256([]byte(key))
	admin := &Admin{KeyID: fmt.Sprintf("%x", digest[:4])}
	if _, ok := a.verified.Load(digest); ok {
		return admin, nil
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(key)); err != nil {
		return nil, ErrInvalidKey
	}
	a.verified.Store(digest, struct{}{})
	return admin, nil
}

func (a *AdminKeyAuth) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next.ServeHTTP(w, r)
			return
		}
		admin, err := a.Verify(readKey(r))
		if err != nil {
			apiresp.WriteError(w, r, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithAdmin(r.Context(), admin)))
	})
}

// CurrentAdmin returns the admin authenticated for this request, if any.
func CurrentAdmin(ctx context.Context) (*Admin, bool) {
	if a, ok := ctx.Value(adminContextKey).(*Admin); ok && a != nil {
		return a, true
	}
	if slot, ok := ctx.Value(adminSlotKey).(*adminSlot); ok && slot.admin != nil {
		return slot.admin, true
	}
	return nil, false
}

// ContextWithAdmin injects an authenticated admin into context and records it in the
// slot installed by TrackAdmin, if any.
func ContextWithAdmin(ctx context.Context, admin *Admin) context.Context {
	if slot, ok := ctx.Value(adminSlotKey).(*adminSlot); ok {
		slot.admin = admin
	}
	return context.WithValue(ctx, adminContextKey, admin)
}

// TrackAdmin installs a slot so that CurrentAdmin on the returned context reports an admin
// authenticated further down the handler chain.
func TrackAdmin(ctx context.Context) context.Context {
	if _, ok := ctx.Value(adminSlotKey).(*adminSlot); ok {
		return ctx
	}
	return context.WithValue(ctx, adminSlotKey, &adminSlot{})
}

func readKey(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get(AdminKeyHeader)); v != "" {
		return v
	}
	authz := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(authz) > 7 && strings.EqualFold(authz[:7], "bearer ") {
		return strings.TrimSpace(authz[7:])
	}
	return ""
}
