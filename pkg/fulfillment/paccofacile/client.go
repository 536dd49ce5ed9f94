// Package paccofacile provides the PaccoFacile fulfillment provider: the API
// client (HTTP and mock) and the orchestration of quoting, shipment creation,
// payment and document retrieval on top of it.
package paccofacile

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/tournevent/paccofacile/pkg/fulfillment"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// ProviderID identifies the provider in the registry and in fulfillment records.
const ProviderID = "paccofacile"

// SettingAutoPayment is the setting enabling purchase right after creation.
// Only the exact value "true" enables it.
const SettingAutoPayment = "autoPayment"

// CancelReasonLocal is written to fulfillment data on cancellation; the
// upstream shipment stays untouched.
const CancelReasonLocal = "canceled locally"

// Config holds PaccoFacile configuration.
type Config struct {
	APIKey        string
	APIToken      string
	AccountNumber string
	Environment   string // "live" or "sandbox"
	BaseURL       string
	Timeout       time.Duration
	UseMock       bool          // When true, uses mock API client
	MockLatency   time.Duration // Delay added to every mock call
}

// Client is the PaccoFacile fulfillment provider.
// It implements fulfillment.Provider and delegates API calls to the
// underlying APIClient (mock or HTTP).
type Client struct {
	config    Config
	apiClient APIClient
	settings  fulfillment.SettingsReader
	logger    *otelzap.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// New creates a new PaccoFacile provider.
// If cfg.UseMock is true, it uses a mock API client.
// Otherwise, it uses the real HTTP API client. observer may be nil.
func New(cfg Config, settings fulfillment.SettingsReader, logger *otelzap.Logger, tracer trace.Tracer, observer RequestObserver) *Client {
	var apiClient APIClient

	if cfg.UseMock {
		mock := NewMockAPIClient()
		mock.SimulateLatency = cfg.MockLatency
		apiClient = mock
	} else {
		apiClient = NewHTTPAPIClient(HTTPAPIClientConfig{
			BaseURL:       cfg.BaseURL,
			Environment:   cfg.Environment,
			APIKey:        cfg.APIKey,
			APIToken:      cfg.APIToken,
			AccountNumber: cfg.AccountNumber,
			Timeout:       cfg.Timeout,
			Tracer:        tracer,
			Observer:      observer,
		})
	}

	return NewWithAPIClient(cfg, apiClient, settings, logger, tracer)
}

// NewWithAPIClient creates a new PaccoFacile provider with a custom API client.
// This is useful for injecting mock clients in tests.
func NewWithAPIClient(cfg Config, apiClient APIClient, settings fulfillment.SettingsReader, logger *otelzap.Logger, tracer trace.Tracer) *Client {
	if tracer == nil {
		tracer = otel.Tracer(ProviderID)
	}
	return &Client{
		config:    cfg,
		apiClient: apiClient,
		settings:  settings,
		logger:    logger,
		tracer:    tracer,
		now:       time.Now,
	}
}

// SetClock replaces the clock used for cancellation timestamps.
func (c *Client) SetClock(now func() time.Time) {
	c.now = now
}

// Identifier returns the provider identifier.
func (c *Client) Identifier() string {
	return ProviderID
}

// CanCalculatePrice is always true: every cart can be priced upstream.
func (c *Client) CanCalculatePrice() bool {
	return true
}

// ListFulfillmentOptions maps the account's carrier services to options.
func (c *Client) ListFulfillmentOptions(ctx context.Context) ([]fulfillment.Option, error) {
	ctx, span := c.tracer.Start(ctx, "paccofacile.ListFulfillmentOptions")
	defer span.End()

	carriers, err := c.apiClient.ListCarriers(ctx)
	if err != nil {
		recordError(span, err)
		c.logger.Ctx(ctx).Error("Failed to list PaccoFacile carriers", zap.Error(err))
		return nil, err
	}

	options := make([]fulfillment.Option, 0, len(carriers))
	for _, carrier := range carriers {
		options = append(options, carrierToOption(carrier))
	}
	return options, nil
}

func carrierToOption(carrier Carrier) fulfillment.Option {
	return fulfillment.Option{
		ID:              fmt.Sprintf("%d__%d", carrier.ServiceID, carrier.CarrierID),
		Name:            carrier.CarrierName + " - " + carrier.ServiceName,
		ProviderID:      ProviderID,
		ServiceID:       carrier.ServiceID,
		CarrierID:       carrier.CarrierID,
		CarrierName:     carrier.CarrierName,
		ServiceName:     carrier.ServiceName,
		CarrierShipTime: carrier.CarrierShipTime,
		PickupType:      carrier.PickupType,
		Dove:            carrier.Dove,
		ToConsolidate:   carrier.ToConsolidate,
		ImageURL:        carrier.ImageURL,
		BoxType:         carrier.BoxType,
	}
}

// quoteContext resolves the addresses of fc and selects the quote of serviceID.
func (c *Client) quoteContext(ctx context.Context, serviceID int, fc *fulfillment.Context) (*Quote, *Addresses, error) {
	addrs, err := c.ResolveAddresses(ctx, fc)
	if err != nil {
		return nil, nil, err
	}

	var lines []fulfillment.LineItem
	if fc != nil {
		lines = fc.Items
	}
	pkg := fulfillment.Aggregate(fulfillment.ItemsFromLineItems(lines))

	quote, err := c.SelectQuote(ctx, pkg, addrs.Route(), serviceID)
	if err != nil {
		return nil, nil, err
	}
	return quote, addrs, nil
}

// CalculatePrice prices serviceID for the cart in fc.
func (c *Client) CalculatePrice(ctx context.Context, serviceID int, fc *fulfillment.Context) (*fulfillment.CalculatedPrice, error) {
	ctx, span := c.tracer.Start(ctx, "paccofacile.CalculatePrice",
		trace.WithAttributes(attribute.Int("service_id", serviceID)))
	defer span.End()

	quote, _, err := c.quoteContext(ctx, serviceID, fc)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	return &fulfillment.CalculatedPrice{
		Amount:       quote.PriceTotal.Amount.Float64(),
		TaxInclusive: quote.Tax.Included(),
	}, nil
}

// ValidatedData is the bundle the platform persists after validation and
// hands back on creation.
type ValidatedData struct {
	fulfillment.Option
	Quote         *Quote           `json:"quote"`
	Pickup        *DetailedAddress `json:"pickup"`
	Triangulation *DetailedAddress `json:"triangulation"`
	Destination   *DetailedAddress `json:"destination"`
}

// ToData converts the bundle into an open fulfillment data map.
func (v *ValidatedData) ToData() (fulfillment.Data, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var data fulfillment.Data
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// DecodeValidatedData reads a bundle previously produced by Validate.
func DecodeValidatedData(data fulfillment.Data) (*ValidatedData, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	var v ValidatedData
	if err := json.Unmarshal(b, &v); err != nil {
		return nil, ErrMissingValidatedData.WithCause(err)
	}
	if v.Quote == nil || v.Pickup == nil || v.Triangulation == nil || v.Destination == nil {
		return nil, ErrMissingValidatedData
	}
	return &v, nil
}

// Validate resolves addresses and the quote of option's service again and
// returns them with the option for the platform to persist.
func (c *Client) Validate(ctx context.Context, option fulfillment.Option, fc *fulfillment.Context) (*ValidatedData, error) {
	ctx, span := c.tracer.Start(ctx, "paccofacile.Validate",
		trace.WithAttributes(attribute.Int("service_id", option.ServiceID)))
	defer span.End()

	quote, addrs, err := c.quoteContext(ctx, option.ServiceID, fc)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	return &ValidatedData{
		Option:        option,
		Quote:         quote,
		Pickup:        &addrs.Pickup,
		Triangulation: &addrs.Triangulation,
		Destination:   &addrs.Destination,
	}, nil
}

// PurchaseStatus is the outcome of the automatic purchase step.
type PurchaseStatus string

const (
	PurchaseSkipped   PurchaseStatus = "skipped"
	PurchaseSucceeded PurchaseStatus = "succeeded"
	PurchaseFailed    PurchaseStatus = "failed"
)

// PurchaseOutcome tells whether the new shipment was paid.
type PurchaseOutcome struct {
	Status PurchaseStatus `json:"status"`
	Reason string         `json:"reason,omitempty"`
}

// CreateRequest carries what the platform knows when creating a fulfillment.
type CreateRequest struct {
	Data   fulfillment.Data       // bundle stored by Validate
	Items  []fulfillment.LineItem // fulfillment items, used when Order is nil
	Order  *fulfillment.Order
	Record *fulfillment.Record
}

// CreateResult is the outcome of CreateFulfillment.
type CreateResult struct {
	ShipmentID int64            `json:"shipment_id,omitempty"`
	Purchase   PurchaseOutcome  `json:"purchase"`
	Data       fulfillment.Data `json:"data"`
}

// CreateFulfillment saves the upstream shipment of a validated fulfillment
// and, when auto-payment is enabled, buys it. A failed purchase is logged and
// reported in the result; it never fails the creation.
func (c *Client) CreateFulfillment(ctx context.Context, req *CreateRequest) (*CreateResult, error) {
	ctx, span := c.tracer.Start(ctx, "paccofacile.CreateFulfillment")
	defer span.End()

	validated, err := DecodeValidatedData(req.Data)
	if err != nil {
		recordError(span, err)
		return nil, err
	}

	lines := req.Items
	if req.Order != nil {
		lines = req.Order.Items
	}
	pkg := fulfillment.Aggregate(fulfillment.ItemsFromLineItems(lines))

	quote := validated.Quote
	shipment := &ShipmentRequest{
		ShipmentService: ShipmentService{
			PickupDate:         quote.PickupDate.FirstDate,
			PickupRange:        quote.PickupDate.FirstDateRange,
			ServiceID:          quote.ServiceID,
			Parcels:            []Parcel{parcelFromPackage(pkg)},
			Accessories:        []Accessory{},
			PackageContentType: PackageContentGoods,
		},
		Pickup:        *validated.Pickup,
		Triangulation: *validated.Triangulation,
		Destination:   *validated.Destination,
	}

	c.logger.Ctx(ctx).Info("Creating PaccoFacile shipment",
		zap.Int("service_id", quote.ServiceID),
		zap.Float64("weight", pkg.Weight),
	)

	resp, err := c.apiClient.CreateShipment(ctx, shipment)
	if err != nil {
		recordError(span, err)
		c.logger.Ctx(ctx).Error("PaccoFacile shipment creation failed", zap.Error(err))
		return nil, fulfillment.ErrShipmentCreationFailed.WithProvider(ProviderID).WithCause(err)
	}

	result := &CreateResult{ShipmentID: resp.ShipmentID}
	span.SetAttributes(attribute.Int64("shipment_id", resp.ShipmentID))

	result.Purchase = c.autoPurchase(ctx, resp.ShipmentID)

	var existing fulfillment.Data
	if req.Record != nil {
		existing = req.Record.Data
	}
	patch := fulfillment.Data{}
	if resp.ShipmentID != 0 {
		patch[fulfillment.DataKeyShipmentID] = resp.ShipmentID
	}
	result.Data = existing.Merge(patch)

	return result, nil
}

// autoPurchase buys the shipment when the auto-payment setting is "true".
func (c *Client) autoPurchase(ctx context.Context, shipmentID int64) PurchaseOutcome {
	log := c.logger.Ctx(ctx)

	enabled, err := c.autoPaymentEnabled(ctx)
	if err != nil {
		log.Warn("Failed to read auto-payment setting, treating as disabled", zap.Error(err))
	}
	if !enabled || shipmentID == 0 {
		log.Info("Auto-payment not executed",
			zap.Bool("auto_payment", enabled),
			zap.Bool("shipment_created", shipmentID != 0),
		)
		reason := "auto-payment disabled"
		if enabled {
			reason = "no shipment id returned"
		}
		return PurchaseOutcome{Status: PurchaseSkipped, Reason: reason}
	}

	log.Info("Auto-payment enabled, purchasing shipment", zap.Int64("shipment_id", shipmentID))
	_, err = c.apiClient.PurchaseShipment(ctx, &PurchaseRequest{
		Shipments:     []int64{shipmentID},
		BillingType:   BillingTypeInvoice,
		BillingDate:   BillingDateMonthly,
		PaymentMethod: PaymentMethodCredit,
	})
	if err != nil {
		log.Error("Failed to purchase PaccoFacile shipment", zap.Int64("shipment_id", shipmentID), zap.Error(err))
		return PurchaseOutcome{Status: PurchaseFailed, Reason: err.Error()}
	}

	log.Info("PaccoFacile shipment purchased", zap.Int64("shipment_id", shipmentID))
	return PurchaseOutcome{Status: PurchaseSucceeded}
}

func (c *Client) autoPaymentEnabled(ctx context.Context) (bool, error) {
	if c.settings == nil {
		return false, nil
	}
	value, ok, err := c.settings.GetSetting(ctx, SettingAutoPayment)
	if err != nil {
		return false, err
	}
	return ok && value == "true", nil
}

// RetrieveDocuments returns the documents of the shipment stored in data.
// When documentType matches no document label the full list is returned.
func (c *Client) RetrieveDocuments(ctx context.Context, data fulfillment.Data, documentType string) ([]fulfillment.Document, error) {
	ctx, span := c.tracer.Start(ctx, "paccofacile.RetrieveDocuments")
	defer span.End()

	shipmentID, ok := data.ShipmentID()
	if !ok {
		return nil, fulfillment.ErrMissingShipmentID.WithProvider(ProviderID)
	}
	span.SetAttributes(attribute.Int64("shipment_id", shipmentID))

	docs, err := c.apiClient.GetShipmentDocuments(ctx, shipmentID)
	if err != nil {
		recordError(span, err)
		c.logger.Ctx(ctx).Error("Failed to retrieve PaccoFacile documents",
			zap.Int64("shipment_id", shipmentID), zap.Error(err))
		return nil, fulfillment.ErrDocumentRetrievalFailed.
			WithProvider(ProviderID).
			WithMessage("failed to retrieve documents for shipment %s", strconv.FormatInt(shipmentID, 10)).
			WithCause(err)
	}

	all := make([]fulfillment.Document, 0, len(docs))
	var filtered []fulfillment.Document
	for _, d := range docs {
		doc := fulfillment.Document{Content: d.Content, Format: d.Format, Label: d.Label}
		all = append(all, doc)
		if documentType != "" && d.Label == documentType {
			filtered = append(filtered, doc)
		}
	}
	if len(filtered) > 0 {
		return filtered, nil
	}
	return all, nil
}

// CancelFulfillment marks the fulfillment canceled. PaccoFacile offers no
// cancellation endpoint, so the upstream shipment is left as is.
func (c *Client) CancelFulfillment(ctx context.Context, data fulfillment.Data) (fulfillment.Data, error) {
	shipmentID, _ := data.ShipmentID()
	c.logger.Ctx(ctx).Warn("Canceling PaccoFacile fulfillment locally only",
		zap.Int64("shipment_id", shipmentID))

	return data.Merge(fulfillment.Data{
		fulfillment.DataKeyCanceledAt:   c.now().UTC().Format(time.RFC3339),
		fulfillment.DataKeyCancelReason: CancelReasonLocal,
	}), nil
}

// Account returns the PaccoFacile account holder.
func (c *Client) Account(ctx context.Context) (*Account, error) {
	account, err := c.apiClient.GetAccount(ctx)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// Credit returns the PaccoFacile account balance.
func (c *Client) Credit(ctx context.Context) (*Credit, error) {
	credit, err := c.apiClient.GetCredit(ctx)
	if err != nil {
		return nil, err
	}
	if credit == nil {
		return nil, ErrCreditNotFound
	}
	return credit, nil
}

// ValidateLocality looks localities up by name or postal code. The country
// defaults to Italy.
func (c *Client) ValidateLocality(ctx context.Context, req LocalityRequest) ([]LocalityMatch, error) {
	if req.Search == "" && req.PostalCode == "" {
		return nil, ErrInvalidLocalityQuery
	}
	if req.ISOCode == "" {
		req.ISOCode = "IT"
	}
	return c.apiClient.ValidateLocality(ctx, &req)
}

func recordError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// Ensure Client implements fulfillment.Provider interface
var _ fulfillment.Provider = (*Client)(nil)
