// Package store persists provider settings, fulfillment records and
// shipping-method data. Last write wins; no locking across processes.
package store

import (
	"context"
	"errors"

	"github.com/tournevent/paccofacile/pkg/fulfillment"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// Store is the persistence boundary of the service.
type Store interface {
	fulfillment.SettingsReader

	// SetSetting creates or replaces a setting.
	SetSetting(ctx context.Context, name, value string) error

	// ListSettings returns every stored setting.
	ListSettings(ctx context.Context) (map[string]string, error)

	// SaveFulfillment creates or replaces a fulfillment record.
	SaveFulfillment(ctx context.Context, record *fulfillment.Record) error

	// GetFulfillment returns a fulfillment record or ErrNotFound.
	GetFulfillment(ctx context.Context, id string) (*fulfillment.Record, error)

	// SaveShippingMethodData replaces the data blob of an order's shipping method.
	SaveShippingMethodData(ctx context.Context, orderID, methodID string, data map[string]any) error

	// GetShippingMethodData returns the data blob of an order's shipping method or ErrNotFound.
	GetShippingMethodData(ctx context.Context, orderID, methodID string) (map[string]any, error)

	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend connection.
	Close() error
}
