package paccofacile_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/paccofacile/pkg/fulfillment"
	"github.com/tournevent/paccofacile/pkg/fulfillment/paccofacile"
)

func TestResolveAddresses_FromAddressBook(t *testing.T) {
	mockAPI := paccofacile.NewMockAPIClient()
	client := newTestClient(mockAPI, nil)

	addrs, err := client.ResolveAddresses(context.Background(), testContext())

	require.NoError(t, err)
	assert.Equal(t, "20121", addrs.Pickup.PostalCode)
	assert.Equal(t, "Via Roma", addrs.Pickup.Street)
	assert.Equal(t, "Magazzino Centrale", addrs.Pickup.ContactName)
	assert.Equal(t, "Bergamo", addrs.Triangulation.City)
	assert.Equal(t, "12", addrs.Triangulation.HubDistanceCode)

	assert.Equal(t, "IT", addrs.Destination.ISOCode)
	assert.Equal(t, "TO", addrs.Destination.StateOrProvinceCode)
	assert.Equal(t, "Via Garibaldi", addrs.Destination.Street)
	assert.Equal(t, "7", addrs.Destination.BuildingNumber)
	assert.Equal(t, "giulia@example.com", addrs.Destination.Email)

	assert.Equal(t, 1, mockAPI.Calls("ListAddressBook"))
	assert.Equal(t, 1, mockAPI.Calls("GetAccount"))
}

func TestResolveAddresses_StockLocationWins(t *testing.T) {
	client := newTestClient(paccofacile.NewMockAPIClient(), nil)
	fc := testContext()
	fc.FromLocation = &fulfillment.StockLocation{
		Note: "ring twice",
		Address: &fulfillment.LocationAddress{
			Address1:    "Corso Italia",
			Address2:    "3",
			City:        "Genova",
			CountryCode: "IT",
			Province:    "GE",
			PostalCode:  "16145",
		},
	}

	addrs, err := client.ResolveAddresses(context.Background(), fc)

	require.NoError(t, err)
	assert.Equal(t, "16145", addrs.Pickup.PostalCode)
	assert.Equal(t, "Corso Italia", addrs.Pickup.Street)
	assert.Equal(t, "ring twice", addrs.Pickup.Note)
	// contact details fall back to the account holder
	assert.Equal(t, "Mario Rossi", addrs.Pickup.ContactName)
	assert.Equal(t, "+39 333 1234567", addrs.Pickup.Phone)
	assert.Equal(t, "mario.rossi@example.com", addrs.Pickup.Email)
}

func TestResolveAddresses_TriangulationDefaultsToPickup(t *testing.T) {
	mockAPI := paccofacile.NewMockAPIClient()
	mockAPI.OnListAddressBook = func(ctx context.Context) ([]paccofacile.AddressBookEntry, error) {
		return []paccofacile.AddressBookEntry{
			{Address: paccofacile.AddressBookAddress{
				Name:     "Depot",
				Category: paccofacile.CategoryDepartureDefault,
				Locality: paccofacile.Locality{Address: paccofacile.Address{ISOCode: "IT", PostalCode: "00100", City: "Roma"}},
			}},
		}, nil
	}
	client := newTestClient(mockAPI, nil)

	addrs, err := client.ResolveAddresses(context.Background(), testContext())

	require.NoError(t, err)
	assert.Equal(t, addrs.Pickup, addrs.Triangulation)
}

func TestResolveAddresses_NoSender(t *testing.T) {
	mockAPI := paccofacile.NewMockAPIClient()
	mockAPI.OnListAddressBook = func(ctx context.Context) ([]paccofacile.AddressBookEntry, error) {
		return nil, nil
	}
	client := newTestClient(mockAPI, nil)

	_, err := client.ResolveAddresses(context.Background(), testContext())

	assert.ErrorIs(t, err, fulfillment.ErrNoDefaultSenderAddress)
}

func TestResolveAddresses_MissingShippingAddress(t *testing.T) {
	client := newTestClient(paccofacile.NewMockAPIClient(), nil)
	fc := testContext()
	fc.ShippingAddress = nil

	_, err := client.ResolveAddresses(context.Background(), fc)

	assert.ErrorIs(t, err, fulfillment.ErrMissingShippingAddress)
}

func TestResolveAddresses_AccountFailure(t *testing.T) {
	mockAPI := paccofacile.NewMockAPIClient()
	mockAPI.OnGetAccount = func(ctx context.Context) (*paccofacile.Account, error) {
		return nil, errors.New("boom")
	}
	client := newTestClient(mockAPI, nil)

	_, err := client.ResolveAddresses(context.Background(), testContext())

	assert.EqualError(t, err, "boom")
}

func TestResolveAddresses_NilAccount(t *testing.T) {
	mockAPI := paccofacile.NewMockAPIClient()
	mockAPI.OnGetAccount = func(ctx context.Context) (*paccofacile.Account, error) {
		return nil, nil
	}
	client := newTestClient(mockAPI, nil)
	fc := testContext()
	fc.FromLocation = &fulfillment.StockLocation{Address: &fulfillment.LocationAddress{City: "Genova"}}

	addrs, err := client.ResolveAddresses(context.Background(), fc)

	require.NoError(t, err)
	assert.Empty(t, addrs.Pickup.ContactName)
	assert.Empty(t, addrs.Pickup.Email)
}
