package paccofacile

import (
	"context"
	"strings"

	"github.com/tournevent/paccofacile/pkg/fulfillment"
	"golang.org/x/sync/errgroup"
)

// Addresses is the resolved address triple of a shipment.
type Addresses struct {
	Pickup        DetailedAddress `json:"pickup"`
	Triangulation DetailedAddress `json:"triangulation"`
	Destination   DetailedAddress `json:"destination"`
}

// ResolveAddresses resolves the pickup, triangulation and destination
// addresses for a cart or order context. The address book and account are
// fetched on every call.
func (c *Client) ResolveAddresses(ctx context.Context, fc *fulfillment.Context) (*Addresses, error) {
	var (
		book    []AddressBookEntry
		account *Account
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		book, err = c.apiClient.ListAddressBook(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		account, err = c.apiClient.GetAccount(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var location *fulfillment.StockLocation
	if fc != nil {
		location = fc.FromLocation
	}
	pickup, err := resolvePickup(location, book, account)
	if err != nil {
		return nil, err
	}

	triangulation := pickup
	if hub := findCategory(book, CategoryTriangulationDefault); hub != nil {
		triangulation = hubAddress(hub, account)
	}

	destination, err := resolveDestination(fc)
	if err != nil {
		return nil, err
	}

	return &Addresses{
		Pickup:        pickup,
		Triangulation: triangulation,
		Destination:   destination,
	}, nil
}

func resolvePickup(location *fulfillment.StockLocation, book []AddressBookEntry, account *Account) (DetailedAddress, error) {
	if location != nil && location.Address != nil {
		return locationAddress(location, account), nil
	}
	if departure := findCategory(book, CategoryDepartureDefault); departure != nil {
		return bookAddress(departure, account), nil
	}
	return DetailedAddress{}, fulfillment.ErrNoDefaultSenderAddress.WithProvider(ProviderID)
}

func locationAddress(location *fulfillment.StockLocation, account *Account) DetailedAddress {
	addr := location.Address
	return DetailedAddress{
		Address: Address{
			ISOCode:             addr.CountryCode,
			PostalCode:          addr.PostalCode,
			City:                addr.City,
			StateOrProvinceCode: addr.Province,
		},
		ContactName:    firstNonEmpty(location.Name, account.FullName()),
		Street:         addr.Address1,
		BuildingNumber: addr.Address2,
		Phone:          firstNonEmpty(addr.Phone, accountPhone(account)),
		Email:          accountEmail(account),
		Note:           location.Note,
	}
}

func bookAddress(entry *AddressBookAddress, account *Account) DetailedAddress {
	return DetailedAddress{
		Address:        entry.Locality.Address,
		ContactName:    firstNonEmpty(entry.Name, account.FullName()),
		Street:         entry.Locality.Street,
		BuildingNumber: entry.Locality.BuildingNumber,
		Phone:          firstNonEmpty(entry.Phone, accountPhone(account)),
		Email:          firstNonEmpty(entry.Email, accountEmail(account)),
	}
}

func hubAddress(entry *AddressBookAddress, account *Account) DetailedAddress {
	addr := bookAddress(entry, account)
	if entry.Locality.KmNumber != nil {
		addr.HubDistanceCode = *entry.Locality.KmNumber
	}
	return addr
}

func resolveDestination(fc *fulfillment.Context) (DetailedAddress, error) {
	if fc == nil || fc.ShippingAddress == nil {
		return DetailedAddress{}, fulfillment.ErrMissingShippingAddress.WithProvider(ProviderID)
	}
	addr := fc.ShippingAddress
	email := ""
	if fc.Customer != nil {
		email = fc.Customer.Email
	}
	return DetailedAddress{
		Address: Address{
			ISOCode:             addr.CountryCode,
			PostalCode:          addr.PostalCode,
			City:                addr.City,
			StateOrProvinceCode: addr.Province,
		},
		ContactName:    strings.TrimSpace(addr.FirstName + " " + addr.LastName),
		Street:         addr.Address1,
		BuildingNumber: addr.Address2,
		Phone:          addr.Phone,
		Email:          email,
		Note:           addr.Note,
	}, nil
}

// findCategory returns the first address book entry of the given category.
func findCategory(book []AddressBookEntry, category string) *AddressBookAddress {
	for i := range book {
		if book[i].Address.Category == category {
			return &book[i].Address
		}
	}
	return nil
}

func accountPhone(account *Account) string {
	if account == nil {
		return ""
	}
	return account.Contact.Telephone
}

func accountEmail(account *Account) string {
	if account == nil {
		return ""
	}
	return account.Contact.Email
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
