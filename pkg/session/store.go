// Package session holds the two client-side session keys: the auth marker and the
// serialized current user profile.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

const (
	KeyAuthToken   = "authToken"
	KeyCurrentUser = "currentUser"
)

// ErrNotFound is returned when a key is absent.
var ErrNotFound = errors.New("session key not found")

// Store is session-scoped key/value storage.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}

// SaveJSON serializes value under key.
func SaveJSON(ctx context.Context, store Store, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode session value %s: %w", key, err)
	}
	return store.Set(ctx, key, string(raw))
}

// LoadJSON decodes the value stored under key into dst.
func LoadJSON(ctx context.Context, store Store, key string, dst any) error {
	raw, err := store.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode session value %s: %w", key, err)
	}
	return nil
}
