// Package fulfillment provides the provider-agnostic fulfillment model shared
// by shipping-provider integrations: cart and order context, package
// aggregation, fulfillment data and the provider registry.
package fulfillment

import (
	"context"
)

// Provider defines the operations the platform invokes on a fulfillment
// provider regardless of the upstream shipping API behind it.
type Provider interface {
	// Identifier returns the provider identifier (e.g., "paccofacile").
	Identifier() string

	// ListFulfillmentOptions returns the shipping options the provider offers.
	ListFulfillmentOptions(ctx context.Context) ([]Option, error)

	// CanCalculatePrice reports whether the provider computes prices itself.
	CanCalculatePrice() bool

	// RetrieveDocuments returns the shipment documents for a fulfillment.
	RetrieveDocuments(ctx context.Context, data Data, documentType string) ([]Document, error)

	// CancelFulfillment cancels a fulfillment and returns its updated data.
	CancelFulfillment(ctx context.Context, data Data) (Data, error)
}

// SettingsReader reads persisted provider settings.
type SettingsReader interface {
	// GetSetting returns the value stored under name and whether it exists.
	GetSetting(ctx context.Context, name string) (string, bool, error)
}
