package paccofacile

import (
	"context"

	"github.com/tournevent/paccofacile/pkg/fulfillment"
	"go.uber.org/zap"
)

// Route is the plain address triple used for quoting.
type Route struct {
	Pickup        Address `json:"pickup"`
	Triangulation Address `json:"triangulation"`
	Destination   Address `json:"destination"`
}

// Route strips the contact details of the resolved addresses.
func (a *Addresses) Route() Route {
	return Route{
		Pickup:        a.Pickup.Plain(),
		Triangulation: a.Triangulation.Plain(),
		Destination:   a.Destination.Plain(),
	}
}

// SelectQuote requests quotes for a single parcel built from pkg and returns
// the one offered by serviceID. A package without weight is rejected before
// any upstream call.
func (c *Client) SelectQuote(ctx context.Context, pkg fulfillment.Package, route Route, serviceID int) (*Quote, error) {
	if err := pkg.Validate(); err != nil {
		return nil, err
	}
	return c.selectQuote(ctx, parcelFromPackage(pkg), route, serviceID)
}

// QuoteParcel prices an explicit parcel towards destination. When pickup is
// nil the account's default departure address is used.
func (c *Client) QuoteParcel(ctx context.Context, parcel Parcel, destination Address, pickup *Address, serviceID int) (*Quote, error) {
	ctx, span := c.tracer.Start(ctx, "paccofacile.QuoteParcel")
	defer span.End()

	pkg := fulfillment.Package{Length: parcel.Dim1, Width: parcel.Dim2, Height: parcel.Dim3, Weight: parcel.Weight}
	if err := pkg.Validate(); err != nil {
		return nil, err
	}
	if parcel.ShipmentType == 0 {
		parcel.ShipmentType = ShipmentTypeParcel
	}

	book, err := c.apiClient.ListAddressBook(ctx)
	if err != nil {
		return nil, err
	}

	route := Route{Destination: destination}
	if pickup != nil {
		route.Pickup = *pickup
	} else if departure := findCategory(book, CategoryDepartureDefault); departure != nil {
		route.Pickup = departure.Locality.Address
	} else {
		return nil, fulfillment.ErrNoDefaultSenderAddress.WithProvider(ProviderID)
	}

	route.Triangulation = route.Pickup
	if hub := findCategory(book, CategoryTriangulationDefault); hub != nil {
		route.Triangulation = hub.Locality.Address
	}

	return c.selectQuote(ctx, parcel, route, serviceID)
}

func (c *Client) selectQuote(ctx context.Context, parcel Parcel, route Route, serviceID int) (*Quote, error) {
	req := &QuoteRequest{
		ShipmentService: ShipmentService{
			Parcels:            []Parcel{parcel},
			Accessories:        []Accessory{},
			PackageContentType: PackageContentGoods,
		},
		Pickup:        route.Pickup,
		Triangulation: route.Triangulation,
		Destination:   route.Destination,
	}

	resp, err := c.apiClient.RequestQuote(ctx, req)
	if err != nil {
		c.logger.Ctx(ctx).Error("PaccoFacile quote request failed", zap.Int("service_id", serviceID), zap.Error(err))
		return nil, err
	}

	return selectService(resp, serviceID)
}

// selectService looks up serviceID among the available services. It is an
// exact match on the identifier, never a price comparison.
func selectService(resp *QuoteResponse, serviceID int) (*Quote, error) {
	if resp == nil || len(resp.ServicesAvailable) == 0 {
		return nil, fulfillment.ErrNoServicesAvailable.WithProvider(ProviderID)
	}
	for i := range resp.ServicesAvailable {
		if resp.ServicesAvailable[i].ServiceID == serviceID {
			q := resp.ServicesAvailable[i]
			return &q, nil
		}
	}
	return nil, fulfillment.ErrServiceNotFound.WithProvider(ProviderID).WithMessage("selected service not found: %d", serviceID)
}

func parcelFromPackage(pkg fulfillment.Package) Parcel {
	return Parcel{
		ShipmentType: ShipmentTypeParcel,
		Dim1:         pkg.Length,
		Dim2:         pkg.Width,
		Dim3:         pkg.Height,
		Weight:       pkg.Weight,
	}
}
