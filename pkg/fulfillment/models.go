package fulfillment

// Option is a shipping option offered by a provider.
type Option struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ProviderID      string `json:"provider_id"`
	ServiceID       int    `json:"service_id"`
	CarrierID       int    `json:"carrier_id"`
	CarrierName     string `json:"carrier_name"`
	ServiceName     string `json:"service_name"`
	CarrierShipTime string `json:"carrier_ship_time,omitempty"`
	PickupType      int    `json:"pickup_type,omitempty"`
	Dove            int    `json:"dove,omitempty"`
	ToConsolidate   int    `json:"to_consolid,omitempty"`
	ImageURL        string `json:"image_url,omitempty"`
	BoxType         string `json:"box_type,omitempty"`
}

// Variant holds the physical attributes of a product variant.
// Dimensions are in centimetres, weight in grams.
type Variant struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Weight float64 `json:"weight"`
}

// LineItem is a cart or order line.
type LineItem struct {
	ID       string  `json:"id,omitempty"`
	Title    string  `json:"title,omitempty"`
	Quantity int     `json:"quantity"`
	Variant  Variant `json:"variant"`
}

// ShippingAddress is the customer's delivery address.
type ShippingAddress struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Company     string `json:"company,omitempty"`
	Address1    string `json:"address_1"`
	Address2    string `json:"address_2"`
	City        string `json:"city"`
	CountryCode string `json:"country_code"`
	Province    string `json:"province"`
	PostalCode  string `json:"postal_code"`
	Phone       string `json:"phone"`
	Note        string `json:"note,omitempty"`
}

// LocationAddress is the address of a stock location.
type LocationAddress struct {
	Address1    string `json:"address_1"`
	Address2    string `json:"address_2"`
	City        string `json:"city"`
	CountryCode string `json:"country_code"`
	Province    string `json:"province"`
	PostalCode  string `json:"postal_code"`
	Phone       string `json:"phone"`
}

// StockLocation is the warehouse a fulfillment ships from.
type StockLocation struct {
	ID      string           `json:"id,omitempty"`
	Name    string           `json:"name"`
	Note    string           `json:"note,omitempty"`
	Address *LocationAddress `json:"address,omitempty"`
}

// Customer identifies the buyer.
type Customer struct {
	ID    string `json:"id,omitempty"`
	Email string `json:"email"`
}

// Context is the cart or order context the platform passes when pricing and
// validating a shipping option. It is read-only for providers.
type Context struct {
	ID              string           `json:"id,omitempty"`
	Items           []LineItem       `json:"items"`
	ShippingAddress *ShippingAddress `json:"shipping_address,omitempty"`
	Customer        *Customer        `json:"customer,omitempty"`
	FromLocation    *StockLocation   `json:"from_location,omitempty"`
}

// Order is the platform order a fulfillment belongs to.
type Order struct {
	ID              string           `json:"id"`
	Items           []LineItem       `json:"items"`
	ShippingAddress *ShippingAddress `json:"shipping_address,omitempty"`
	Customer        *Customer        `json:"customer,omitempty"`
}

// Record is the platform-owned fulfillment record. Providers only read and
// write its Data map.
type Record struct {
	ID         string `json:"id"`
	OrderID    string `json:"order_id"`
	ProviderID string `json:"provider_id"`
	Data       Data   `json:"data"`
}

// Document is a shipment document such as a label or customs form.
type Document struct {
	Content string `json:"content"` // base64
	Format  string `json:"format"`
	Label   string `json:"label"`
}

// CalculatedPrice is the price of a shipping option for a cart.
type CalculatedPrice struct {
	Amount       float64 `json:"calculated_amount"`
	TaxInclusive bool    `json:"is_calculated_price_tax_inclusive"`
}
