package shopify

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/qts/internal/domain"
)

func mustDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", value, err)
	}
	return d
}

func newTestClient(t *testing.T, handler func(req graphQLRequest) (string, int)) *Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Shopify-Access-Token") != "test-token" {
			t.Errorf("missing access token header")
		}

		var req graphQLRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode graphql request: %v", err)
		}

		body, status := handler(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	return NewClient("teststore", "test-token", WithEndpoint(server.URL))
}

func TestNormalizeShopURL(t *testing.T) {
	cases := map[string]string{
		"mystore":                       "mystore.myshopify.com",
		"mystore.myshopify.com":         "mystore.myshopify.com",
		"https://mystore.myshopify.com": "mystore.myshopify.com",
		"http://mystore.myshopify.com/": "mystore.myshopify.com",
		"shop.example.com":              "shop.example.com",
		"  spaced.myshopify.com ":       "spaced.myshopify.com",
	}

	for input, expected := range cases {
		if got := normalizeShopURL(input); got != expected {
			t.Errorf("normalizeShopURL(%q) = %q, expected %q", input, got, expected)
		}
	}
}

func TestTestConnection(t *testing.T) {
	client := newTestClient(t, func(req graphQLRequest) (string, int) {
		if !strings.Contains(req.Query, "shop") {
			t.Errorf("unexpected query: %s", req.Query)
		}
		return `{"data": {"shop": {"name": "Test Store", "email": "owner@test.com", "currencyCode": "USD"}}}`, http.StatusOK
	})

	message, err := client.TestConnection()
	if err != nil {
		t.Fatalf("TestConnection failed: %v", err)
	}
	if message != "Connected to Test Store (owner@test.com)" {
		t.Fatalf("unexpected message: %s", message)
	}
}

func TestTestConnection_NoShopData(t *testing.T) {
	client := newTestClient(t, func(req graphQLRequest) (string, int) {
		return `{"data": {"shop": null}}`, http.StatusOK
	})

	if _, err := client.TestConnection(); err == nil {
		t.Fatal("expected error for missing shop data")
	}
}

const sampleOrderJSON = `{
	"id": "gid://shopify/Order/6000001",
	"name": "#1001",
	"createdAt": "2026-08-30T12:00:00Z",
	"displayFulfillmentStatus": "UNFULFILLED",
	"note": "rush delivery",
	"totalPriceSet": {"shopMoney": {"amount": "34.99", "currencyCode": "USD"}},
	"customer": {
		"id": "gid://shopify/Customer/9001",
		"firstName": "Jane",
		"lastName": "Doe",
		"email": "jane@acme.com"
	},
	"shippingAddress": {
		"firstName": "Jane",
		"lastName": "Doe",
		"company": "Acme Corp",
		"address1": "1 Main St",
		"address2": "",
		"city": "Springfield",
		"province": "Illinois",
		"provinceCode": "IL",
		"zip": "62704",
		"country": "United States",
		"countryCodeV2": "US",
		"phone": "555-0100"
	},
	"lineItems": {
		"pageInfo": {"hasNextPage": false, "endCursor": null},
		"edges": [
			{"node": {
				"id": "gid://shopify/LineItem/1",
				"name": "Widget",
				"quantity": 2,
				"variant": {"id": "gid://shopify/ProductVariant/11", "barcode": "111", "sku": "W-1", "price": "9.99", "title": "Default"}
			}},
			{"node": {
				"id": "gid://shopify/LineItem/2",
				"name": "Custom Item",
				"quantity": 1,
				"variant": null
			}}
		]
	}
}`

func TestGetOrder(t *testing.T) {
	client := newTestClient(t, func(req graphQLRequest) (string, int) {
		if req.Variables["id"] != "gid://shopify/Order/6000001" {
			t.Errorf("unexpected order id variable: %v", req.Variables["id"])
		}
		return `{"data": {"order": ` + sampleOrderJSON + `}}`, http.StatusOK
	})

	order, err := client.GetOrder("6000001")
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}

	if order.ID != "6000001" {
		t.Errorf("expected numeric id 6000001, got %s", order.ID)
	}
	if order.GID != "gid://shopify/Order/6000001" {
		t.Errorf("unexpected gid: %s", order.GID)
	}
	if order.Name != "#1001" {
		t.Errorf("unexpected name: %s", order.Name)
	}
	if order.Note != "rush delivery" {
		t.Errorf("unexpected note: %s", order.Note)
	}
	if !order.Total.Equal(mustDecimal(t, "34.99")) {
		t.Errorf("unexpected total: %s", order.Total)
	}
	if order.Customer.Name != "Jane Doe" {
		t.Errorf("unexpected customer name: %s", order.Customer.Name)
	}
	if order.Customer.ID != "9001" {
		t.Errorf("unexpected customer id: %s", order.Customer.ID)
	}
	if order.ShippingAddress.Company != "Acme Corp" {
		t.Errorf("unexpected company: %s", order.ShippingAddress.Company)
	}

	if len(order.LineItems) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(order.LineItems))
	}
	first := order.LineItems[0]
	if first.Barcode != "111" || first.SKU != "W-1" || first.Quantity != 2 {
		t.Errorf("unexpected first line item: %+v", first)
	}
	if first.Price == nil || !first.Price.Equal(mustDecimal(t, "9.99")) {
		t.Errorf("unexpected first line item price: %v", first.Price)
	}

	second := order.LineItems[1]
	if second.Barcode != "" || second.SKU != "" {
		t.Errorf("expected empty identifiers for null variant, got %+v", second)
	}
	if second.Price != nil {
		t.Errorf("expected nil price for null variant, got %v", second.Price)
	}
}

func TestGetOrder_NullFields(t *testing.T) {
	client := newTestClient(t, func(req graphQLRequest) (string, int) {
		return `{"data": {"order": {
			"id": "gid://shopify/Order/6000002",
			"name": "#1002",
			"createdAt": "2026-08-30T12:00:00Z",
			"displayFulfillmentStatus": "UNFULFILLED",
			"note": null,
			"totalPriceSet": null,
			"customer": null,
			"shippingAddress": null,
			"lineItems": {"pageInfo": {"hasNextPage": false, "endCursor": null}, "edges": []}
		}}}`, http.StatusOK
	})

	order, err := client.GetOrder("6000002")
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}

	if order.Customer.Name != "" {
		t.Errorf("expected empty customer, got %+v", order.Customer)
	}
	if order.Currency != "USD" {
		t.Errorf("expected default currency USD, got %s", order.Currency)
	}
	if !order.Total.IsZero() {
		t.Errorf("expected zero total, got %s", order.Total)
	}
	if len(order.LineItems) != 0 {
		t.Errorf("expected no line items, got %d", len(order.LineItems))
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	client := newTestClient(t, func(req graphQLRequest) (string, int) {
		return `{"data": {"order": null}}`, http.StatusOK
	})

	_, err := client.GetOrder("999")
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestGetOrder_PaginatedLineItems(t *testing.T) {
	pageCalls := 0
	client := newTestClient(t, func(req graphQLRequest) (string, int) {
		if strings.Contains(req.Query, "orderLineItems") {
			pageCalls++
			if req.Variables["after"] != "cursor-1" {
				t.Errorf("unexpected cursor: %v", req.Variables["after"])
			}
			return `{"data": {"order": {"lineItems": {
				"pageInfo": {"hasNextPage": false, "endCursor": null},
				"edges": [{"node": {"id": "gid://shopify/LineItem/3", "name": "Tail Item", "quantity": 1,
					"variant": {"id": "v3", "barcode": "333", "sku": "T-3", "price": "1.00", "title": ""}}}]
			}}}}`, http.StatusOK
		}

		paginated := strings.Replace(sampleOrderJSON,
			`"pageInfo": {"hasNextPage": false, "endCursor": null}`,
			`"pageInfo": {"hasNextPage": true, "endCursor": "cursor-1"}`, 1)
		return `{"data": {"order": ` + paginated + `}}`, http.StatusOK
	})

	order, err := client.GetOrder("6000001")
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}

	if pageCalls != 1 {
		t.Fatalf("expected 1 line item page fetch, got %d", pageCalls)
	}
	if len(order.LineItems) != 3 {
		t.Fatalf("expected 3 line items after pagination, got %d", len(order.LineItems))
	}
	if order.LineItems[2].Barcode != "333" {
		t.Errorf("unexpected tail line item: %+v", order.LineItems[2])
	}
}

func TestListUnfulfilled_Pagination(t *testing.T) {
	calls := 0
	client := newTestClient(t, func(req graphQLRequest) (string, int) {
		calls++
		search, _ := req.Variables["query"].(string)
		if !strings.Contains(search, "fulfillment_status:unfulfilled") {
			t.Errorf("unexpected search query: %s", search)
		}

		if calls == 1 {
			if _, ok := req.Variables["after"]; ok {
				t.Error("first page must not send a cursor")
			}
			return `{"data": {"orders": {
				"pageInfo": {"hasNextPage": true, "endCursor": "page-1"},
				"edges": [{"node": ` + sampleOrderJSON + `}]
			}}}`, http.StatusOK
		}

		if req.Variables["after"] != "page-1" {
			t.Errorf("unexpected cursor on second page: %v", req.Variables["after"])
		}
		secondOrder := strings.Replace(sampleOrderJSON, "6000001", "6000077", 2)
		return `{"data": {"orders": {
			"pageInfo": {"hasNextPage": false, "endCursor": null},
			"edges": [{"node": ` + secondOrder + `}]
		}}}`, http.StatusOK
	})

	orders, err := client.ListUnfulfilled(14)
	if err != nil {
		t.Fatalf("ListUnfulfilled failed: %v", err)
	}

	if calls != 2 {
		t.Fatalf("expected 2 page fetches, got %d", calls)
	}
	if len(orders) != 2 {
		t.Fatalf("expected 2 orders, got %d", len(orders))
	}
	if orders[0].ID != "6000001" || orders[1].ID != "6000077" {
		t.Errorf("unexpected order ids: %s, %s", orders[0].ID, orders[1].ID)
	}
}

func TestExecute_GraphQLErrors(t *testing.T) {
	client := newTestClient(t, func(req graphQLRequest) (string, int) {
		return `{"errors": [{"message": "Throttled"}, {"message": "Bad field"}]}`, http.StatusOK
	})

	_, err := client.GetOrder("123")
	if err == nil {
		t.Fatal("expected graphql error")
	}
	if !strings.Contains(err.Error(), "Throttled") || !strings.Contains(err.Error(), "Bad field") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestExecute_HTTPError(t *testing.T) {
	client := newTestClient(t, func(req graphQLRequest) (string, int) {
		return `{"errors": [{"message": "unauthorized"}]}`, http.StatusUnauthorized
	})

	_, err := client.GetOrder("123")
	if err == nil || !strings.Contains(err.Error(), "status 401") {
		t.Fatalf("expected status error, got %v", err)
	}
}
