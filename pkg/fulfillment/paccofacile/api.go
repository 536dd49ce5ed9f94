package paccofacile

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// APIClient defines the interface for PaccoFacile API operations.
// The HTTP implementation talks to the real service; the mock serves tests
// and local development.
type APIClient interface {
	// ListCarriers returns the carrier services enabled on the account.
	ListCarriers(ctx context.Context) ([]Carrier, error)

	// ListAddressBook returns the saved addresses of the account.
	ListAddressBook(ctx context.Context) ([]AddressBookEntry, error)

	// RequestQuote prices a shipment across the available services.
	RequestQuote(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error)

	// CreateShipment saves a shipment; it is not paid yet.
	CreateShipment(ctx context.Context, req *ShipmentRequest) (*ShipmentResponse, error)

	// PurchaseShipment pays one or more saved shipments.
	PurchaseShipment(ctx context.Context, req *PurchaseRequest) (*PurchaseResponse, error)

	// GetShipmentDocuments returns labels and customs documents of a shipment.
	GetShipmentDocuments(ctx context.Context, shipmentID int64) ([]Document, error)

	// GetAccount returns the account holder, or nil when the API has none.
	GetAccount(ctx context.Context) (*Account, error)

	// GetCredit returns the account credit, or nil when the API has none.
	GetCredit(ctx context.Context) (*Credit, error)

	// ValidateLocality searches localities by name or postal code.
	ValidateLocality(ctx context.Context, req *LocalityRequest) ([]LocalityMatch, error)
}

// Address book categories of the default addresses.
const (
	CategoryDepartureDefault     = "DEPARTURE-DEFAULT"
	CategoryTriangulationDefault = "TRIANGULATION-DEFAULT"
)

// Shipment and purchase constants.
const (
	ShipmentTypeParcel  = 1
	PackageContentGoods = "GOODS"

	BillingTypeReceipt = 1
	BillingTypeInvoice = 2

	BillingDateMonthly = "1"
	BillingDateSingle  = "2"

	PaymentMethodCredit = "CREDIT"
)

// Tax names meaning the quoted price already includes VAT.
const (
	TaxIncluded        = "TAX_INCLUDED"
	TaxIncludedItalian = "IVA_INCLUSA"
)

// ============================================================================
// Scalar helpers
// ============================================================================

// Amount is a decimal the API sends either as a JSON number or as a string.
type Amount float64

// UnmarshalJSON accepts 12.5, "12.5" and null.
func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*a = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %w", s, err)
	}
	*a = Amount(f)
	return nil
}

// Float64 returns the amount as a float64.
func (a Amount) Float64() float64 {
	return float64(a)
}

// ID is an upstream identifier sent either as a JSON number or a string.
type ID int64

// UnmarshalJSON accepts 42, "42" and null.
func (id *ID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", s, err)
	}
	*id = ID(n)
	return nil
}

// ============================================================================
// Addresses
// ============================================================================

// Address is the plain address used for quoting.
type Address struct {
	ISOCode             string `json:"iso_code"`
	PostalCode          string `json:"postal_code"`
	City                string `json:"city"`
	StateOrProvinceCode string `json:"StateOrProvinceCode"`
}

// DetailedAddress is an Address with the contact details needed to ship.
type DetailedAddress struct {
	Address
	ContactName     string `json:"header_name"`
	Street          string `json:"address"`
	BuildingNumber  string `json:"building_number"`
	Phone           string `json:"phone"`
	Email           string `json:"email"`
	Note            string `json:"note"`
	HubDistanceCode string `json:"km_number,omitempty"` // triangulation only
}

// Plain strips the contact details.
func (d DetailedAddress) Plain() Address {
	return d.Address
}

// Locality is the geographic part of an address book entry.
type Locality struct {
	Address
	Street         string  `json:"address"`
	CountryName    string  `json:"country_name"`
	CapID          int     `json:"capID"`
	BuildingNumber string  `json:"building_number"`
	KmNumber       *string `json:"km_number"`
	IntercomName   string  `json:"intercom_name"`
}

// AddressBookAddress is a saved address of the account.
type AddressBookAddress struct {
	ID         ID       `json:"id"`
	CustomerID ID       `json:"customer_id"`
	Name       string   `json:"name"`
	Alias      string   `json:"alias"`
	Phone      string   `json:"phone"`
	Email      string   `json:"email"`
	Category   string   `json:"category"`
	Locality   Locality `json:"locality"`
	Reference  string   `json:"reference"`
}

// AddressBookEntry wraps a saved address as returned by GET /service/address-book.
type AddressBookEntry struct {
	Address AddressBookAddress `json:"address"`
}

// ============================================================================
// Carriers
// ============================================================================

// Carrier is a carrier service enabled on the account.
// GET /service/carriers
type Carrier struct {
	ServiceID       int    `json:"service_id"`
	CarrierID       int    `json:"carrier_id"`
	Dove            int    `json:"dove"`
	CarrierName     string `json:"carrier_name"`
	ServiceName     string `json:"service_name"`
	CarrierShipTime string `json:"carrier_ship_time"`
	PickupType      int    `json:"pickup_type"`
	ToConsolidate   int    `json:"to_consolid"`
	ImageURL        string `json:"image_url"`
	BoxType         string `json:"box_type"`
}

// ============================================================================
// Quotes and shipments
// ============================================================================

// Money is an amount with its currency.
type Money struct {
	Amount   Amount `json:"amount"`
	Currency string `json:"currency"`
}

// Parcel is a single parcel of a shipment. Dimensions in cm, weight in kg.
type Parcel struct {
	ShipmentType             int     `json:"shipment_type"`
	Dim1                     float64 `json:"dim1"`
	Dim2                     float64 `json:"dim2"`
	Dim3                     float64 `json:"dim3"`
	Weight                   float64 `json:"weight"`
	AccessoryAssuranceAmount *Money  `json:"accessory_assurance_amount,omitempty"`
}

// Accessory is an optional paid extra such as insurance.
type Accessory struct {
	ServiceID   int   `json:"service_id"`
	AmountTotal Money `json:"amount_total"`
}

// ShipmentService describes what is shipped and, for shipments, with which
// service and pickup slot.
type ShipmentService struct {
	PickupDate         string      `json:"pickup_date,omitempty"`
	PickupRange        string      `json:"pickup_range,omitempty"`
	ServiceID          int         `json:"service_id,omitempty"`
	Parcels            []Parcel    `json:"parcels"`
	Accessories        []Accessory `json:"accessories"`
	PackageContentType string      `json:"package_content_type"`
}

// QuoteRequest is the body of POST /service/shipment/quote.
type QuoteRequest struct {
	ShipmentService ShipmentService `json:"shipment_service"`
	Pickup          Address         `json:"pickup"`
	Triangulation   Address         `json:"triangulation"`
	Destination     Address         `json:"destination"`
}

// Price is a quoted price.
type Price struct {
	Amount        Amount `json:"amount"`
	Currency      string `json:"currency"`
	TaxAmount     Amount `json:"vat_amount"`
	TaxableAmount Amount `json:"taxable_amount"`
}

// Tax describes the tax applied to a quote.
type Tax struct {
	Name        string  `json:"tax_name"`
	Rate        float64 `json:"tax_rate"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Included reports whether the quoted price already includes the tax.
func (t Tax) Included() bool {
	return t.Name == TaxIncluded || t.Name == TaxIncludedItalian
}

// WaitingTime is the time left before the first pickup slot.
type WaitingTime struct {
	Days    int `json:"days"`
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

// PickupDate is the first available pickup slot.
type PickupDate struct {
	FirstDay       string      `json:"first_day,omitempty"`
	FirstDate      string      `json:"first_date"`
	FirstDateRange string      `json:"first_date_range"`
	WaitingTime    WaitingTime `json:"waiting_time"`
}

// DeliveryDate is the expected delivery.
type DeliveryDate struct {
	DeliveryDays      int    `json:"delivery_days"`
	FirstDeliveryDate string `json:"first_delivery_date"`
}

// Quote is a carrier service offer for a shipment.
type Quote struct {
	ServiceID    int          `json:"service_id"`
	CarrierID    int          `json:"carrier_id"`
	CarrierName  string       `json:"carrier_name"`
	ServiceName  string       `json:"service_name"`
	PriceService Price        `json:"price_service"`
	PriceTotal   Price        `json:"price_total"`
	Tax          Tax          `json:"tax"`
	PickupDate   PickupDate   `json:"pickup_date"`
	DeliveryDate DeliveryDate `json:"delivery_date"`
}

// UnmarshalJSON also reads the short "carrier" and "name" keys the quote
// endpoint uses in place of carrier_name and service_name.
func (q *Quote) UnmarshalJSON(b []byte) error {
	type plain Quote
	aux := struct {
		*plain
		Carrier string `json:"carrier"`
		Name    string `json:"name"`
	}{plain: (*plain)(q)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if q.CarrierName == "" {
		q.CarrierName = aux.Carrier
	}
	if q.ServiceName == "" {
		q.ServiceName = aux.Name
	}
	return nil
}

// QuoteResponse holds the services able to carry the requested shipment.
type QuoteResponse struct {
	ServicesAvailable []Quote `json:"services_available"`
}

// AdditionalInformation is free text attached to a shipment.
type AdditionalInformation struct {
	Reference string `json:"reference"`
	Note      string `json:"note"`
	Content   string `json:"content"`
}

// ShipmentRequest is the body of POST /service/shipment/save.
type ShipmentRequest struct {
	ShipmentService       ShipmentService       `json:"shipment_service"`
	Pickup                DetailedAddress       `json:"pickup"`
	Triangulation         DetailedAddress       `json:"triangulation"`
	Destination           DetailedAddress       `json:"destination"`
	AdditionalInformation AdditionalInformation `json:"additional_information"`
}

// ShipmentResponse carries the id of a saved shipment. ShipmentID is zero
// when the API did not return one.
type ShipmentResponse struct {
	ShipmentID int64
}

// PurchaseRequest is the body of POST /service/shipment/buy.
type PurchaseRequest struct {
	Shipments     []int64 `json:"shipments"`
	BillingType   int     `json:"billing_type"`
	BillingDate   string  `json:"billing_date"`
	PaymentMethod string  `json:"payment_method"`
}

// PurchaseResponse is the purchase confirmation, kept opaque.
type PurchaseResponse struct {
	Data json.RawMessage `json:"data,omitempty"`
}

// Document is a shipment document.
// GET /service/shipment/document/{shipment_id}
type Document struct {
	Content string `json:"content"` // base64
	Format  string `json:"format"`
	Label   string `json:"label"`
}

// ============================================================================
// Account
// ============================================================================

// Account is the PaccoFacile account holder.
// GET /service/customers/account
type Account struct {
	CustomerID ID     `json:"customer_id"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Contact    struct {
		Email     string `json:"email"`
		Telephone string `json:"telephone"`
	} `json:"contact"`
	Account struct {
		Service string `json:"service"`
		Company string `json:"company"`
	} `json:"account"`
}

// FullName returns "first last", or "" when the holder has no name.
func (a *Account) FullName() string {
	if a == nil || a.FirstName == "" || a.LastName == "" {
		return ""
	}
	return a.FirstName + " " + a.LastName
}

// Credit is the account balance.
// GET /service/customers/credit
type Credit struct {
	Cashback struct {
		Total Amount `json:"total"`
	} `json:"cashback"`
	Credit struct {
		Value    Amount `json:"value"`
		Currency string `json:"currency"`
	} `json:"credit"`
}

// ============================================================================
// Localities
// ============================================================================

// LocalityRequest is the body of POST /service/locality/validation.
type LocalityRequest struct {
	ISOCode    string `json:"iso_code"`
	Search     string `json:"search,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
}

// LocalityMatch is a locality matching a search.
type LocalityMatch struct {
	Cap                 string   `json:"cap"`
	Locality            string   `json:"locality"`
	StateOrProvinceCode string   `json:"StateOrProvinceCode"`
	ISOCode             string   `json:"iso_code"`
	Latitude            *float64 `json:"latitude,omitempty"`
	Longitude           *float64 `json:"longitude,omitempty"`
}
