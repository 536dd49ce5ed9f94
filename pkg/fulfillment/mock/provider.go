// Package mock provides a mock fulfillment provider for testing.
package mock

import (
	"context"
	"fmt"
	"time"

	"github.com/tournevent/paccofacile/pkg/fulfillment"
)

// Provider is a mock fulfillment provider for testing.
type Provider struct {
	id  string
	Err error // returned by every operation when set
}

// New creates a new mock provider.
func New(id string) *Provider {
	return &Provider{id: id}
}

// Identifier returns the provider identifier.
func (p *Provider) Identifier() string {
	return p.id
}

// ListFulfillmentOptions returns a standard and an express option.
func (p *Provider) ListFulfillmentOptions(ctx context.Context) ([]fulfillment.Option, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	return []fulfillment.Option{
		{
			ID:          "1__1",
			Name:        fmt.Sprintf("%s - Standard", p.id),
			ProviderID:  p.id,
			ServiceID:   1,
			CarrierID:   1,
			CarrierName: p.id,
			ServiceName: "Standard",
		},
		{
			ID:          "2__1",
			Name:        fmt.Sprintf("%s - Express", p.id),
			ProviderID:  p.id,
			ServiceID:   2,
			CarrierID:   1,
			CarrierName: p.id,
			ServiceName: "Express",
		},
	}, nil
}

// CanCalculatePrice is always true.
func (p *Provider) CanCalculatePrice() bool {
	return true
}

// RetrieveDocuments returns a single label for any fulfillment with a shipment id.
func (p *Provider) RetrieveDocuments(ctx context.Context, data fulfillment.Data, documentType string) ([]fulfillment.Document, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	if _, ok := data.ShipmentID(); !ok {
		return nil, fulfillment.ErrMissingShipmentID.WithProvider(p.id)
	}
	return []fulfillment.Document{{Content: "bW9jaw==", Format: "pdf", Label: "LABEL"}}, nil
}

// CancelFulfillment marks the data canceled.
func (p *Provider) CancelFulfillment(ctx context.Context, data fulfillment.Data) (fulfillment.Data, error) {
	if p.Err != nil {
		return nil, p.Err
	}
	return data.Merge(fulfillment.Data{
		fulfillment.DataKeyCanceledAt:   time.Now().UTC().Format(time.RFC3339),
		fulfillment.DataKeyCancelReason: "mock",
	}), nil
}

// Ensure Provider implements fulfillment.Provider interface
var _ fulfillment.Provider = (*Provider)(nil)
