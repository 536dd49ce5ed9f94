package paccofacile

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"
)

// MockAPIClient is a mock implementation of APIClient for testing and local
// development. Every call is recorded; On* hooks replace the canned answers.
type MockAPIClient struct {
	SimulateErrors  bool
	SimulateLatency time.Duration

	OnListCarriers         func(ctx context.Context) ([]Carrier, error)
	OnListAddressBook      func(ctx context.Context) ([]AddressBookEntry, error)
	OnRequestQuote         func(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error)
	OnCreateShipment       func(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error)
	OnPurchaseShipment     func(ctx context.Context, req *PurchaseRequest) (*PurchaseResponse, error)
	OnGetShipmentDocuments func(ctx context.Context, shipmentID int64) ([]Document, error)
	OnGetAccount           func(ctx context.Context) (*Account, error)
	OnGetCredit            func(ctx context.Context) (*Credit, error)
	OnValidateLocality     func(ctx context.Context, req *LocalityRequest) ([]LocalityMatch, error)

	mu               sync.Mutex
	calls            map[string]int
	quoteRequests    []*QuoteRequest
	shipmentRequests []*ShipmentRequest
	purchaseRequests []*PurchaseRequest
}

// NewMockAPIClient creates a new mock API client with default behavior.
func NewMockAPIClient() *MockAPIClient {
	return &MockAPIClient{}
}

// Calls returns how many times op was invoked. op is the method name.
func (m *MockAPIClient) Calls(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

// QuoteRequests returns the recorded quote requests.
func (m *MockAPIClient) QuoteRequests() []*QuoteRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*QuoteRequest(nil), m.quoteRequests...)
}

// ShipmentRequests returns the recorded shipment requests.
func (m *MockAPIClient) ShipmentRequests() []*ShipmentRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*ShipmentRequest(nil), m.shipmentRequests...)
}

// PurchaseRequests returns the recorded purchase requests.
func (m *MockAPIClient) PurchaseRequests() []*PurchaseRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*PurchaseRequest(nil), m.purchaseRequests...)
}

// record counts the call, then waits SimulateLatency unless ctx ends first.
func (m *MockAPIClient) record(ctx context.Context, op string) error {
	m.mu.Lock()
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[op]++
	m.mu.Unlock()

	if m.SimulateLatency > 0 {
		timer := time.NewTimer(m.SimulateLatency)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.SimulateErrors {
		return &HTTPError{StatusCode: 503, Status: "Service Unavailable"}
	}
	return nil
}

// ListCarriers returns two mock carrier services.
func (m *MockAPIClient) ListCarriers(ctx context.Context) ([]Carrier, error) {
	if err := m.record(ctx, "ListCarriers"); err != nil {
		return nil, err
	}
	if m.OnListCarriers != nil {
		return m.OnListCarriers(ctx)
	}
	return []Carrier{
		{
			ServiceID:       2,
			CarrierID:       1,
			CarrierName:     "SDA",
			ServiceName:     "Extra Large",
			CarrierShipTime: "24/48h",
			PickupType:      1,
			ImageURL:        "https://paccofacile.tecnosogima.cloud/img/carriers/sda.png",
			BoxType:         "BOX",
		},
		{
			ServiceID:       108,
			CarrierID:       7,
			CarrierName:     "BRT",
			ServiceName:     "Espresso",
			CarrierShipTime: "24h",
			PickupType:      1,
			ImageURL:        "https://paccofacile.tecnosogima.cloud/img/carriers/brt.png",
			BoxType:         "BOX",
		},
	}, nil
}

// ListAddressBook returns a departure and a triangulation default address.
func (m *MockAPIClient) ListAddressBook(ctx context.Context) ([]AddressBookEntry, error) {
	if err := m.record(ctx, "ListAddressBook"); err != nil {
		return nil, err
	}
	if m.OnListAddressBook != nil {
		return m.OnListAddressBook(ctx)
	}
	km := "12"
	return []AddressBookEntry{
		{Address: AddressBookAddress{
			ID:       1001,
			Name:     "Magazzino Centrale",
			Phone:    "+39 02 1234567",
			Email:    "magazzino@example.com",
			Category: CategoryDepartureDefault,
			Locality: Locality{
				Address: Address{
					ISOCode:             "IT",
					PostalCode:          "20121",
					City:                "Milano",
					StateOrProvinceCode: "MI",
				},
				Street:         "Via Roma",
				BuildingNumber: "1",
			},
		}},
		{Address: AddressBookAddress{
			ID:       1002,
			Name:     "Hub Nord",
			Phone:    "+39 02 7654321",
			Email:    "hub@example.com",
			Category: CategoryTriangulationDefault,
			Locality: Locality{
				Address: Address{
					ISOCode:             "IT",
					PostalCode:          "24121",
					City:                "Bergamo",
					StateOrProvinceCode: "BG",
				},
				Street:         "Via Milano",
				BuildingNumber: "42",
				KmNumber:       &km,
			},
		}},
	}, nil
}

// RequestQuote returns quotes for services 2 and 108.
func (m *MockAPIClient) RequestQuote(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error) {
	m.mu.Lock()
	m.quoteRequests = append(m.quoteRequests, req)
	m.mu.Unlock()

	if err := m.record(ctx, "RequestQuote"); err != nil {
		return nil, err
	}
	if m.OnRequestQuote != nil {
		return m.OnRequestQuote(ctx, req)
	}

	pickup := PickupDate{
		FirstDate:      time.Now().AddDate(0, 0, 1).Format("2006-01-02"),
		FirstDateRange: "09:00-18:00",
	}
	return &QuoteResponse{
		ServicesAvailable: []Quote{
			{
				ServiceID:    2,
				CarrierID:    1,
				CarrierName:  "SDA",
				ServiceName:  "Extra Large",
				PriceService: Price{Amount: 7.5, Currency: "EUR"},
				PriceTotal:   Price{Amount: 9.15, Currency: "EUR", TaxAmount: 1.65, TaxableAmount: 7.5},
				Tax:          Tax{Name: TaxIncludedItalian, Rate: 22},
				PickupDate:   pickup,
				DeliveryDate: DeliveryDate{DeliveryDays: 2},
			},
			{
				ServiceID:    108,
				CarrierID:    7,
				CarrierName:  "BRT",
				ServiceName:  "Espresso",
				PriceService: Price{Amount: 10, Currency: "EUR"},
				PriceTotal:   Price{Amount: 12.2, Currency: "EUR", TaxAmount: 2.2, TaxableAmount: 10},
				Tax:          Tax{Name: "IVA_ESCLUSA", Rate: 22},
				PickupDate:   pickup,
				DeliveryDate: DeliveryDate{DeliveryDays: 1},
			},
		},
	}, nil
}

// CreateShipment returns a fixed shipment id.
func (m *MockAPIClient) CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error) {
	m.mu.Lock()
	m.shipmentRequests = append(m.shipmentRequests, req)
	m.mu.Unlock()

	if err := m.record(ctx, "CreateShipment"); err != nil {
		return nil, err
	}
	if m.OnCreateShipment != nil {
		return m.OnCreateShipment(ctx, req)
	}
	return &ShipmentResponse{ShipmentID: 123456}, nil
}

// PurchaseShipment accepts every purchase.
func (m *MockAPIClient) PurchaseShipment(ctx context.Context, req *PurchaseRequest) (*PurchaseResponse, error) {
	m.mu.Lock()
	m.purchaseRequests = append(m.purchaseRequests, req)
	m.mu.Unlock()

	if err := m.record(ctx, "PurchaseShipment"); err != nil {
		return nil, err
	}
	if m.OnPurchaseShipment != nil {
		return m.OnPurchaseShipment(ctx, req)
	}
	data, _ := json.Marshal(map[string]any{"shipments": req.Shipments, "paid": true})
	return &PurchaseResponse{Data: data}, nil
}

// GetShipmentDocuments returns a label and a customs document.
func (m *MockAPIClient) GetShipmentDocuments(ctx context.Context, shipmentID int64) ([]Document, error) {
	if err := m.record(ctx, "GetShipmentDocuments"); err != nil {
		return nil, err
	}
	if m.OnGetShipmentDocuments != nil {
		return m.OnGetShipmentDocuments(ctx, shipmentID)
	}
	pdf := base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 mock"))
	return []Document{
		{Content: pdf, Format: "pdf", Label: "LABEL"},
		{Content: pdf, Format: "pdf", Label: "CUSTOMS"},
	}, nil
}

// GetAccount returns a mock account holder.
func (m *MockAPIClient) GetAccount(ctx context.Context) (*Account, error) {
	if err := m.record(ctx, "GetAccount"); err != nil {
		return nil, err
	}
	if m.OnGetAccount != nil {
		return m.OnGetAccount(ctx)
	}
	acc := &Account{CustomerID: 42, FirstName: "Mario", LastName: "Rossi"}
	acc.Contact.Email = "mario.rossi@example.com"
	acc.Contact.Telephone = "+39 333 1234567"
	acc.Account.Company = "Rossi Srl"
	return acc, nil
}

// GetCredit returns a mock balance.
func (m *MockAPIClient) GetCredit(ctx context.Context) (*Credit, error) {
	if err := m.record(ctx, "GetCredit"); err != nil {
		return nil, err
	}
	if m.OnGetCredit != nil {
		return m.OnGetCredit(ctx)
	}
	credit := &Credit{}
	credit.Credit.Value = 150
	credit.Credit.Currency = "EUR"
	credit.Cashback.Total = 3.5
	return credit, nil
}

// ValidateLocality echoes the query as a single match.
func (m *MockAPIClient) ValidateLocality(ctx context.Context, req *LocalityRequest) ([]LocalityMatch, error) {
	if err := m.record(ctx, "ValidateLocality"); err != nil {
		return nil, err
	}
	if m.OnValidateLocality != nil {
		return m.OnValidateLocality(ctx, req)
	}
	postal := req.PostalCode
	if postal == "" {
		postal = "00100"
	}
	locality := req.Search
	if locality == "" {
		locality = "Roma"
	}
	return []LocalityMatch{
		{Cap: postal, Locality: locality, StateOrProvinceCode: "RM", ISOCode: req.ISOCode},
	}, nil
}

// Ensure MockAPIClient implements APIClient interface
var _ APIClient = (*MockAPIClient)(nil)
