package paccofacile

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultBaseURL is the PaccoFacile API host.
const DefaultBaseURL = "https://paccofacile.tecnosogima.cloud"

// Environments of the PaccoFacile API.
const (
	EnvironmentLive    = "live"
	EnvironmentSandbox = "sandbox"
)

// RequestObserver is notified after every upstream call.
type RequestObserver func(operation string, status int, duration time.Duration)

// HTTPAPIClient is the production implementation of APIClient using HTTP.
type HTTPAPIClient struct {
	baseURL       string
	apiKey        string
	apiToken      string
	accountNumber string
	httpClient    *http.Client
	tracer        trace.Tracer
	observe       RequestObserver
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL       string
	Environment   string
	APIKey        string
	APIToken      string
	AccountNumber string
	Timeout       time.Duration // zero leaves cancellation to the caller's context
	Tracer        trace.Tracer
	Observer      RequestObserver
}

// NewHTTPAPIClient creates a new HTTP-based API client for production use.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	env := cfg.Environment
	if env == "" {
		env = EnvironmentLive
	}

	tracer := cfg.Tracer
	if tracer == nil {
		tracer = otel.Tracer("paccofacile")
	}

	return &HTTPAPIClient{
		baseURL:       fmt.Sprintf("%s/%s/v1", base, env),
		apiKey:        cfg.APIKey,
		apiToken:      cfg.APIToken,
		accountNumber: cfg.AccountNumber,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		tracer:  tracer,
		observe: cfg.Observer,
	}
}

// RawResponse is a decoded upstream answer. JSON is nil when the server did
// not answer with JSON, in which case Text holds the body.
type RawResponse struct {
	StatusCode int
	JSON       json.RawMessage
	Text       string
}

// envelope is the common shape of JSON answers.
type envelope struct {
	Data   json.RawMessage   `json:"data"`
	Errors []json.RawMessage `json:"errors"`
}

// ListCarriers fetches the carrier services of the account.
// GET /service/carriers
func (c *HTTPAPIClient) ListCarriers(ctx context.Context) ([]Carrier, error) {
	var out []Carrier
	if err := c.call(ctx, "list_carriers", http.MethodGet, "/service/carriers", nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Carrier{}
	}
	return out, nil
}

// ListAddressBook fetches the saved addresses.
// GET /service/address-book
func (c *HTTPAPIClient) ListAddressBook(ctx context.Context) ([]AddressBookEntry, error) {
	var out struct {
		Items []AddressBookEntry `json:"items"`
	}
	if err := c.call(ctx, "list_address_book", http.MethodGet, "/service/address-book", nil, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		return []AddressBookEntry{}, nil
	}
	return out.Items, nil
}

// RequestQuote prices a shipment.
// POST /service/shipment/quote
func (c *HTTPAPIClient) RequestQuote(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error) {
	var out QuoteResponse
	if err := c.call(ctx, "request_quote", http.MethodPost, "/service/shipment/quote", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateShipment saves a shipment.
// POST /service/shipment/save
func (c *HTTPAPIClient) CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error) {
	var out struct {
		Shipment struct {
			ShipmentID ID `json:"shipment_id"`
		} `json:"shipment"`
	}
	if err := c.call(ctx, "create_shipment", http.MethodPost, "/service/shipment/save", req, &out); err != nil {
		return nil, err
	}
	return &ShipmentResponse{ShipmentID: int64(out.Shipment.ShipmentID)}, nil
}

// PurchaseShipment pays saved shipments.
// POST /service/shipment/buy
func (c *HTTPAPIClient) PurchaseShipment(ctx context.Context, req *PurchaseRequest) (*PurchaseResponse, error) {
	raw, err := c.doRequest(ctx, "purchase_shipment", http.MethodPost, "/service/shipment/buy", req)
	if err != nil {
		return nil, err
	}
	resp := &PurchaseResponse{}
	if raw.JSON == nil {
		// Plain-text confirmations are kept as a JSON string.
		if raw.Text != "" {
			resp.Data, _ = json.Marshal(raw.Text)
		}
		return resp, nil
	}
	var env envelope
	if err := json.Unmarshal(raw.JSON, &env); err == nil && len(env.Data) > 0 {
		resp.Data = env.Data
	} else {
		resp.Data = raw.JSON
	}
	return resp, nil
}

// GetShipmentDocuments fetches the documents of a shipment.
// GET /service/shipment/document/{shipment_id}
func (c *HTTPAPIClient) GetShipmentDocuments(ctx context.Context, shipmentID int64) ([]Document, error) {
	var out []Document
	path := fmt.Sprintf("/service/shipment/document/%d", shipmentID)
	if err := c.call(ctx, "get_shipment_documents", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []Document{}
	}
	return out, nil
}

// GetAccount fetches the account holder.
// GET /service/customers/account
func (c *HTTPAPIClient) GetAccount(ctx context.Context) (*Account, error) {
	var out struct {
		Customer *Account `json:"customer"`
	}
	if err := c.call(ctx, "get_account", http.MethodGet, "/service/customers/account", nil, &out); err != nil {
		return nil, err
	}
	return out.Customer, nil
}

// GetCredit fetches the account credit.
// GET /service/customers/credit
func (c *HTTPAPIClient) GetCredit(ctx context.Context) (*Credit, error) {
	var out *Credit
	if err := c.call(ctx, "get_credit", http.MethodGet, "/service/customers/credit", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ValidateLocality searches localities.
// POST /service/locality/validation
func (c *HTTPAPIClient) ValidateLocality(ctx context.Context, req *LocalityRequest) ([]LocalityMatch, error) {
	raw, err := c.doRequest(ctx, "validate_locality", http.MethodPost, "/service/locality/validation", req)
	if err != nil {
		return nil, err
	}
	if raw.JSON == nil {
		return []LocalityMatch{}, nil
	}
	return decodeLocalities(raw.JSON)
}

// decodeLocalities accepts the shapes the validation endpoint is known to
// answer with: {data:{items}}, [{data:{items}}], {items} and a bare list.
func decodeLocalities(body json.RawMessage) ([]LocalityMatch, error) {
	type items struct {
		Items []LocalityMatch `json:"items"`
	}
	type wrapped struct {
		Data items `json:"data"`
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []wrapped
		if err := json.Unmarshal(trimmed, &list); err == nil && len(list) > 0 && list[0].Data.Items != nil {
			return list[0].Data.Items, nil
		}
		var bare []LocalityMatch
		if err := json.Unmarshal(trimmed, &bare); err != nil {
			return nil, fmt.Errorf("failed to decode locality response: %w", err)
		}
		return bare, nil
	}

	var w wrapped
	if err := json.Unmarshal(trimmed, &w); err != nil {
		return nil, fmt.Errorf("failed to decode locality response: %w", err)
	}
	if w.Data.Items != nil {
		return w.Data.Items, nil
	}
	var i items
	if err := json.Unmarshal(trimmed, &i); err != nil {
		return nil, fmt.Errorf("failed to decode locality response: %w", err)
	}
	if i.Items == nil {
		return []LocalityMatch{}, nil
	}
	return i.Items, nil
}

// call performs a request and decodes the "data" member of the answer into out.
// A 2xx answer that is not JSON carries no data and leaves out untouched.
func (c *HTTPAPIClient) call(ctx context.Context, op, method, path string, body, out any) error {
	raw, err := c.doRequest(ctx, op, method, path, body)
	if err != nil {
		return err
	}
	if raw.JSON == nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw.JSON, &env); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}

// doRequest performs an HTTP request with the credential headers and returns
// the answer body. Non-2xx statuses become *HTTPError; a JSON body with a
// non-empty "errors" list becomes *APIError.
func (c *HTTPAPIClient) doRequest(ctx context.Context, op, method, path string, body any) (*RawResponse, error) {
	ctx, span := c.tracer.Start(ctx, "paccofacile."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
	)

	start := time.Now()
	status := 0
	defer func() {
		if c.observe != nil {
			c.observe(op, status, time.Since(start))
		}
	}()

	raw, err := c.send(ctx, method, path, body)
	if raw != nil {
		status = raw.StatusCode
		span.SetAttributes(attribute.Int("http.status_code", status))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return raw, nil
}

func (c *HTTPAPIClient) send(ctx context.Context, method, path string, body any) (*RawResponse, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Account-Number", c.accountNumber)
	req.Header.Set("Api-Key", c.apiKey)
	req.Header.Set("Authorization", "Bearer "+c.apiToken)
	req.Header.Set("X-Request-Id", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	raw := &RawResponse{StatusCode: resp.StatusCode}
	if err != nil {
		return raw, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return raw, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
			Body:       string(data),
		}
	}

	if !isJSON(resp.Header.Get("Content-Type")) {
		raw.Text = string(data)
		return raw, nil
	}
	if len(bytes.TrimSpace(data)) == 0 {
		raw.JSON = json.RawMessage("{}")
		return raw, nil
	}
	raw.JSON = data

	if msgs := parseErrors(data); len(msgs) > 0 {
		return raw, &APIError{Messages: msgs}
	}
	return raw, nil
}

// parseErrors extracts the messages of an "errors" list, whose elements are
// either strings or objects with a message.
func parseErrors(data []byte) []string {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil || len(env.Errors) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(env.Errors))
	for _, e := range env.Errors {
		var s string
		if err := json.Unmarshal(e, &s); err == nil {
			msgs = append(msgs, s)
			continue
		}
		var obj struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		}
		if err := json.Unmarshal(e, &obj); err == nil && obj.Message != "" {
			msgs = append(msgs, obj.Message)
			continue
		}
		msgs = append(msgs, string(e))
	}
	return msgs
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "application/json" || strings.HasSuffix(mt, "+json")
}

func statusText(resp *http.Response) string {
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode)))
}

// Ensure HTTPAPIClient implements APIClient interface
var _ APIClient = (*HTTPAPIClient)(nil)
