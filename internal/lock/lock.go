// Package lock implements the exclusivity lock that keeps a stock-backed SKU
// live on a single platform/account at a time.
package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/listwise/internal/model"
)

// ErrLockHeld is returned by AcquireLock when another platform/account holds the SKU.
var ErrLockHeld = errors.New("sku locked to another channel")

// Service is the exclusivity lock contract consumed by the strategy pipeline.
type Service interface {
	IsLocked(ctx context.Context, sku string) (bool, error)
	// GetActiveLock returns nil when the SKU is not locked.
	GetActiveLock(ctx context.Context, sku string) (*model.LockHolder, error)
	AcquireLock(ctx context.Context, sku, platform, accountID string) error
}

// HeldError reports the holder of a contested lock.
type HeldError struct {
	SKU    string
	Holder model.LockHolder
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("%v: %s held by %s", ErrLockHeld, e.SKU, e.Holder)
}

func (e *HeldError) Unwrap() error {
	return ErrLockHeld
}

func encodeHolder(platform, accountID string) string {
	return platform + "/" + accountID
}

func decodeHolder(value string) (model.LockHolder, error) {
	platform, account, ok := strings.Cut(value, "/")
	if !ok || platform == "" || account == "" {
		return model.LockHolder{}, fmt.Errorf("malformed lock value %q", value)
	}
	return model.LockHolder{Platform: platform, AccountID: account}, nil
}
