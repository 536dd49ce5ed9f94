package paccofacile_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/paccofacile/pkg/fulfillment"
	"github.com/tournevent/paccofacile/pkg/fulfillment/paccofacile"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

func newHTTPClient(t *testing.T, handler http.HandlerFunc) *paccofacile.HTTPAPIClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return paccofacile.NewHTTPAPIClient(paccofacile.HTTPAPIClientConfig{
		BaseURL:       srv.URL,
		Environment:   "sandbox",
		APIKey:        "api-key",
		APIToken:      "api-token",
		AccountNumber: "12345",
	})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestHTTPAPIClient_Headers(t *testing.T) {
	var got *http.Request
	client := newHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		writeJSON(w, http.StatusOK, `{"data":[{"service_id":2,"carrier_id":1,"carrier_name":"SDA","service_name":"Extra Large"}]}`)
	})

	carriers, err := client.ListCarriers(context.Background())

	require.NoError(t, err)
	require.Len(t, carriers, 1)
	assert.Equal(t, "SDA", carriers[0].CarrierName)

	require.NotNil(t, got)
	assert.Equal(t, "/sandbox/v1/service/carriers", got.URL.Path)
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.Equal(t, "12345", got.Header.Get("Account-Number"))
	assert.Equal(t, "api-key", got.Header.Get("Api-Key"))
	assert.Equal(t, "Bearer api-token", got.Header.Get("Authorization"))
	assert.NotEmpty(t, got.Header.Get("X-Request-Id"))
}

func TestHTTPAPIClient_HTTPError(t *testing.T) {
	client := newHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusServiceUnavailable, `{"message":"down"}`)
	})

	_, err := client.ListCarriers(context.Background())

	var httpErr *paccofacile.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, 503, httpErr.StatusCode)
	assert.Equal(t, "HTTP Error: 503 - Service Unavailable", err.Error())
	assert.True(t, fulfillment.IsRetryable(err))
	assert.Equal(t, http.StatusBadGateway, fulfillment.HTTPStatus(err))
}

func TestHTTPAPIClient_ApplicationErrors(t *testing.T) {
	client := newHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":null,"errors":[{"message":"invalid postal code"},"missing city"]}`)
	})

	_, err := client.RequestQuote(context.Background(), &paccofacile.QuoteRequest{})

	var apiErr *paccofacile.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, []string{"invalid postal code", "missing city"}, apiErr.Messages)
	assert.False(t, fulfillment.IsRetryable(err))
}

func writeHTML(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = io.WriteString(w, "<html>ok</html>")
}

func TestHTTPAPIClient_NonJSONResponseCarriesNoData(t *testing.T) {
	client := newHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeHTML(w)
	})
	ctx := context.Background()

	carriers, err := client.ListCarriers(ctx)
	require.NoError(t, err)
	assert.NotNil(t, carriers)
	assert.Empty(t, carriers)

	entries, err := client.ListAddressBook(ctx)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)

	docs, err := client.GetShipmentDocuments(ctx, 123456)
	require.NoError(t, err)
	assert.NotNil(t, docs)
	assert.Empty(t, docs)

	account, err := client.GetAccount(ctx)
	require.NoError(t, err)
	assert.Nil(t, account)

	credit, err := client.GetCredit(ctx)
	require.NoError(t, err)
	assert.Nil(t, credit)

	quote, err := client.RequestQuote(ctx, &paccofacile.QuoteRequest{})
	require.NoError(t, err)
	assert.Empty(t, quote.ServicesAvailable)

	shipment, err := client.CreateShipment(ctx, &paccofacile.ShipmentRequest{})
	require.NoError(t, err)
	assert.Zero(t, shipment.ShipmentID)

	matches, err := client.ValidateLocality(ctx, &paccofacile.LocalityRequest{})
	require.NoError(t, err)
	assert.NotNil(t, matches)
	assert.Empty(t, matches)
}

func TestHTTPAPIClient_PurchaseShipmentPlainText(t *testing.T) {
	client := newHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, "paid")
	})

	resp, err := client.PurchaseShipment(context.Background(), &paccofacile.PurchaseRequest{})

	require.NoError(t, err)
	assert.JSONEq(t, `"paid"`, string(resp.Data))
}

func TestHTTPAPIClient_NonJSONShipmentSkipsPurchase(t *testing.T) {
	var mu sync.Mutex
	hits := map[string]int{}
	httpClient := newHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits[r.URL.Path]++
		mu.Unlock()
		writeHTML(w)
	})
	mockAPI := paccofacile.NewMockAPIClient()
	data := validatedData(t, newTestClient(mockAPI, settings{}))
	client := paccofacile.NewWithAPIClient(
		paccofacile.Config{APIKey: "api-key", APIToken: "api-token", AccountNumber: "12345"},
		httpClient,
		settings{"autoPayment": "true"},
		otelzap.New(zap.NewNop()),
		nil,
	)

	result, err := client.CreateFulfillment(context.Background(), &paccofacile.CreateRequest{
		Data:   data,
		Items:  testContext().Items,
		Record: &fulfillment.Record{ID: "ful_1", Data: fulfillment.Data{"platform_key": "keep"}},
	})

	require.NoError(t, err)
	assert.Zero(t, result.ShipmentID)
	assert.NotContains(t, result.Data, fulfillment.DataKeyShipmentID)
	assert.Equal(t, "keep", result.Data["platform_key"])
	assert.Equal(t, paccofacile.PurchaseSkipped, result.Purchase.Status)
	assert.Equal(t, "no shipment id returned", result.Purchase.Reason)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, hits["/sandbox/v1/service/shipment/save"])
	assert.Zero(t, hits["/sandbox/v1/service/shipment/buy"])
}

func TestHTTPAPIClient_RequestQuote(t *testing.T) {
	var body map[string]any
	client := newHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/sandbox/v1/service/shipment/quote", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		writeJSON(w, http.StatusOK, `{"data":{"services_available":[{
			"service_id": 2,
			"carrier_id": 1,
			"carrier": "SDA",
			"name": "Extra Large",
			"price_total": {"amount": "88.75", "currency": "EUR"},
			"tax": {"tax_name": "IVA_INCLUSA", "tax_rate": 22},
			"pickup_date": {"first_date": "2025-03-03", "first_date_range": "09:00-18:00"}
		}]}}`)
	})

	resp, err := client.RequestQuote(context.Background(), &paccofacile.QuoteRequest{
		ShipmentService: paccofacile.ShipmentService{
			Parcels:            []paccofacile.Parcel{{ShipmentType: 1, Dim1: 10, Dim2: 15, Dim3: 10, Weight: 6}},
			Accessories:        []paccofacile.Accessory{},
			PackageContentType: paccofacile.PackageContentGoods,
		},
		Pickup:        paccofacile.Address{ISOCode: "IT", PostalCode: "20121", City: "Milano", StateOrProvinceCode: "MI"},
		Triangulation: paccofacile.Address{ISOCode: "IT", PostalCode: "20121", City: "Milano", StateOrProvinceCode: "MI"},
		Destination:   paccofacile.Address{ISOCode: "IT", PostalCode: "10121", City: "Torino", StateOrProvinceCode: "TO"},
	})

	require.NoError(t, err)
	require.Len(t, resp.ServicesAvailable, 1)
	q := resp.ServicesAvailable[0]
	assert.Equal(t, "SDA", q.CarrierName)
	assert.Equal(t, "Extra Large", q.ServiceName)
	assert.Equal(t, 88.75, q.PriceTotal.Amount.Float64())
	assert.True(t, q.Tax.Included())
	assert.Equal(t, "09:00-18:00", q.PickupDate.FirstDateRange)

	service := body["shipment_service"].(map[string]any)
	assert.Equal(t, []any{}, service["accessories"])
	assert.Equal(t, "GOODS", service["package_content_type"])
	assert.NotContains(t, service, "service_id")
	pickup := body["pickup"].(map[string]any)
	assert.Equal(t, "MI", pickup["StateOrProvinceCode"])
}

func TestHTTPAPIClient_CreateShipment(t *testing.T) {
	client := newHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sandbox/v1/service/shipment/save", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"data":{"shipment":{"shipment_id":"987654"}}}`)
	})

	resp, err := client.CreateShipment(context.Background(), &paccofacile.ShipmentRequest{})

	require.NoError(t, err)
	assert.Equal(t, int64(987654), resp.ShipmentID)
}

func TestHTTPAPIClient_PurchaseShipment(t *testing.T) {
	var got paccofacile.PurchaseRequest
	client := newHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sandbox/v1/service/shipment/buy", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeJSON(w, http.StatusOK, `{"data":{"paid":true}}`)
	})

	resp, err := client.PurchaseShipment(context.Background(), &paccofacile.PurchaseRequest{
		Shipments:     []int64{1, 2},
		BillingType:   paccofacile.BillingTypeInvoice,
		BillingDate:   paccofacile.BillingDateMonthly,
		PaymentMethod: paccofacile.PaymentMethodCredit,
	})

	require.NoError(t, err)
	assert.JSONEq(t, `{"paid":true}`, string(resp.Data))
	assert.Equal(t, []int64{1, 2}, got.Shipments)
	assert.Equal(t, "CREDIT", got.PaymentMethod)
}

func TestHTTPAPIClient_GetShipmentDocuments(t *testing.T) {
	client := newHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sandbox/v1/service/shipment/document/42", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"data":[{"content":"JVBERi0=","format":"pdf","label":"LABEL"}]}`)
	})

	docs, err := client.GetShipmentDocuments(context.Background(), 42)

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "LABEL", docs[0].Label)
}

func TestHTTPAPIClient_AccountAndCredit(t *testing.T) {
	client := newHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sandbox/v1/service/customers/account":
			writeJSON(w, http.StatusOK, `{"data":{"customer":{"first_name":"Mario","last_name":"Rossi","contact":{"email":"m@example.com","telephone":"123"}}}}`)
		case "/sandbox/v1/service/customers/credit":
			writeJSON(w, http.StatusOK, `{"data":{"credit":{"value":"12.50","currency":"EUR"},"cashback":{"total":1}}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	account, err := client.GetAccount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Mario Rossi", account.FullName())
	assert.Equal(t, "123", account.Contact.Telephone)

	credit, err := client.GetCredit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12.5, credit.Credit.Value.Float64())
}

func TestHTTPAPIClient_GetAccount_Missing(t *testing.T) {
	client := newHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":{}}`)
	})

	account, err := client.GetAccount(context.Background())

	require.NoError(t, err)
	assert.Nil(t, account)
}

func TestHTTPAPIClient_ListAddressBook(t *testing.T) {
	client := newHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":{"items":[{"address":{"id":"7","name":"Depot","category":"DEPARTURE-DEFAULT",
			"locality":{"iso_code":"IT","postal_code":"20121","city":"Milano","StateOrProvinceCode":"MI","address":"Via Roma","km_number":null}}}]}}`)
	})

	book, err := client.ListAddressBook(context.Background())

	require.NoError(t, err)
	require.Len(t, book, 1)
	assert.Equal(t, paccofacile.ID(7), book[0].Address.ID)
	assert.Equal(t, "Via Roma", book[0].Address.Locality.Street)
	assert.Equal(t, "MI", book[0].Address.Locality.StateOrProvinceCode)
	assert.Nil(t, book[0].Address.Locality.KmNumber)
}

func TestHTTPAPIClient_ValidateLocality(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"wrapped", `{"data":{"items":[{"cap":"20121","locality":"Milano"}]}}`},
		{"wrapped list", `[{"data":{"items":[{"cap":"20121","locality":"Milano"}]}}]`},
		{"items", `{"items":[{"cap":"20121","locality":"Milano"}]}`},
		{"bare list", `[{"cap":"20121","locality":"Milano"}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newHTTPClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/sandbox/v1/service/locality/validation", r.URL.Path)
				writeJSON(w, http.StatusOK, tt.body)
			})

			matches, err := client.ValidateLocality(context.Background(), &paccofacile.LocalityRequest{ISOCode: "IT", Search: "Milano"})

			require.NoError(t, err)
			require.Len(t, matches, 1)
			assert.Equal(t, "20121", matches[0].Cap)
		})
	}
}

func TestHTTPAPIClient_Observer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusTooManyRequests, `{}`)
	}))
	defer srv.Close()

	var mu sync.Mutex
	var ops []string
	var statuses []int
	client := paccofacile.NewHTTPAPIClient(paccofacile.HTTPAPIClientConfig{
		BaseURL: srv.URL,
		Timeout: 5 * time.Second,
		Observer: func(op string, status int, _ time.Duration) {
			mu.Lock()
			defer mu.Unlock()
			ops = append(ops, op)
			statuses = append(statuses, status)
		},
	})

	_, err := client.GetCredit(context.Background())

	require.Error(t, err)
	assert.True(t, fulfillment.IsRetryable(err))
	assert.Equal(t, []string{"get_credit"}, ops)
	assert.Equal(t, []int{429}, statuses)
}
