// Package kvstore is the durable per-session key/value storage that mirrors a
// browser's local storage: every value is a JSON string, and reads are
// defensive so that corrupted entries degrade to "empty" instead of failing.
package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-core/pkg/logger"
)

// Well-known keys.
const (
	KeyCartCount      = "cartCountSnapshot"
	KeyCart           = "cart"
	KeyReceiptHistory = "receiptHistory"
	KeyLastSearch     = "lastSearch"
	KeyCompareList    = "compareList"
	KeySelectedGift   = "selectedGift"
	KeyAccessToken    = "accessToken"
	KeyUserEmail      = "userEmail"
	favoritesPrefix   = "favorites_"
)

// FavoritesKey returns the per-user favorites key.
func FavoritesKey(email string) string {
	return favoritesPrefix + strings.ToLower(strings.TrimSpace(email))
}

// Backend persists raw string values grouped by namespace.
type Backend interface {
	Get(ctx context.Context, namespace, key string) (string, bool, error)
	Set(ctx context.Context, namespace, key, value string) error
	Delete(ctx context.Context, namespace, key string) error
	DeleteNamespace(ctx context.Context, namespace string) error
	Ping(ctx context.Context) error
}

// Store is a Backend bound to one session namespace.
type Store struct {
	backend   Backend
	namespace string
	logg      *logger.Logger
}

func New(backend Backend, namespace string, logg *logger.Logger) *Store {
	return &Store{backend: backend, namespace: namespace, logg: logg}
}

func (s *Store) Namespace() string {
	return s.namespace
}

// GetString returns the raw value. Backend failures are logged and read as missing.
func (s *Store) GetString(ctx context.Context, key string) (string, bool) {
	value, ok, err := s.backend.Get(ctx, s.namespace, key)
	if err != nil {
		s.logg.Warn(s.logCtx(ctx, key, err), "local state read failed")
		return "", false
	}
	return value, ok
}

func (s *Store) SetString(ctx context.Context, key, value string) error {
	if err := s.backend.Set(ctx, s.namespace, key, value); err != nil {
		return fmt.Errorf("persist %s: %w", key, err)
	}
	return nil
}

// ReadJSON decodes the value at key into dest. It reports false when the key
// is missing or the stored JSON is malformed; dest is left untouched then.
func (s *Store) ReadJSON(ctx context.Context, key string, dest any) bool {
	raw, ok := s.GetString(ctx, key)
	if !ok || strings.TrimSpace(raw) == "" {
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		s.logg.Warn(s.logCtx(ctx, key, err), "discarding malformed local state")
		return false
	}
	return true
}

func (s *Store) WriteJSON(ctx context.Context, key string, value any) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.SetString(ctx, key, string(payload))
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.backend.Delete(ctx, s.namespace, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// Clear drops every key of the namespace.
func (s *Store) Clear(ctx context.Context) error {
	return s.backend.DeleteNamespace(ctx, s.namespace)
}

func (s *Store) logCtx(ctx context.Context, key string, err error) context.Context {
	return s.logg.WithFields(ctx, map[string]any{
		"namespace": s.namespace,
		"key":       key,
		"error":     err.Error(),
	})
}
