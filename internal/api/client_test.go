package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront-client/internal/domain"
	"storefront-client/internal/store"
)

type hookLog struct {
	authFailures []AuthFailure
	forbidden    int
	network      int
}

func newClient(t *testing.T, handler http.Handler, token string) (*Client, *hookLog) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tokens := store.NewMemory()
	if token != "" {
		tokens.SetToken(token)
	}
	log := &hookLog{}
	client := New(Options{
		BaseURL: srv.URL,
		HTTP:    srv.Client(),
		Tokens:  tokens,
		OnAuthRequired: func(f AuthFailure) {
			log.authFailures = append(log.authFailures, f)
		},
		OnForbidden:    func() { log.forbidden++ },
		OnNetworkError: func() { log.network++ },
	})
	return client, log
}

func TestDoAttachesStandardHeaders(t *testing.T) {
	var gotAuth, gotAccept, gotContentType string
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		gotContentType = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	})
	client, _ := newClient(t, handler, "tok-123")

	resp, err := client.Do(context.Background(), http.MethodPost, "/api/user/shopping_cart", map[string]int{"qty": 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp.Body.Close()

	if gotAuth != "Bearer tok-123" {
		t.Fatalf("unexpected Authorization header: %q", gotAuth)
	}
	if gotAccept != "application/json" || gotContentType != "application/json" {
		t.Fatalf("missing standard headers: accept=%q content-type=%q", gotAccept, gotContentType)
	}
}

func TestDoWithoutTokenReportsMissingAuth(t *testing.T) {
	called := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true })
	client, log := newClient(t, handler, "")

	_, err := client.Do(context.Background(), http.MethodGet, "/x", nil)
	if err != domain.ErrNotAuthenticated {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if called {
		t.Fatal("request must not reach the network without a credential")
	}
	if len(log.authFailures) != 1 || log.authFailures[0] != AuthMissing {
		t.Fatalf("expected one AuthMissing hook, got %v", log.authFailures)
	}
}

func TestDoMapsAuthAndPermissionStatuses(t *testing.T) {
	status := http.StatusUnauthorized
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	})
	client, log := newClient(t, handler, "tok")

	_, err := client.Do(context.Background(), http.MethodGet, "/x", nil)
	if err != domain.ErrSessionExpired {
		t.Fatalf("expected ErrSessionExpired, got %v", err)
	}
	if len(log.authFailures) != 1 || log.authFailures[0] != AuthRejected {
		t.Fatalf("expected one AuthRejected hook, got %v", log.authFailures)
	}

	status = http.StatusForbidden
	_, err = client.Do(context.Background(), http.MethodGet, "/x", nil)
	if err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if log.forbidden != 1 {
		t.Fatalf("expected one forbidden hook, got %d", log.forbidden)
	}
	// The two auth statuses must not double as connectivity failures.
	if log.network != 0 {
		t.Fatalf("expected no network hook, got %d", log.network)
	}
}

func TestDoReturnsApplicationErrorsUntouched(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"message":"Insufficient product stock."}`))
	})
	client, log := newClient(t, handler, "tok")

	resp, err := client.Do(context.Background(), http.MethodPost, "/x", nil)
	if err != nil {
		t.Fatalf("400 must be returned to the caller, got error %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	if len(log.authFailures) != 0 || log.forbidden != 0 || log.network != 0 {
		t.Fatal("application errors must not fire session hooks")
	}
}

func TestDoNetworkFailureFiresHook(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	client, log := newClient(t, handler, "tok")
	// Point the client at a closed server.
	srv := httptest.NewServer(handler)
	srv.Close()
	client.baseURL = srv.URL

	_, err := client.Do(context.Background(), http.MethodGet, "/x", nil)
	if err == nil {
		t.Fatal("expected a transport error")
	}
	if log.network != 1 {
		t.Fatalf("expected one network hook, got %d", log.network)
	}
}

func TestLoginSuccessAndFailure(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Email string `json:"email"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if r.Header.Get("Authorization") != "" {
			t.Error("login must not carry a credential")
		}
		if body.Email == "demo@example.com" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"token":"fresh-token","message":"Welcome"}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Invalid email or password."}`))
	})
	client, log := newClient(t, handler, "")

	result, err := client.Login(context.Background(), "demo@example.com", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if result.Token != "fresh-token" {
		t.Fatalf("unexpected token %q", result.Token)
	}

	_, err = client.Login(context.Background(), "other@example.com", "pw")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401 APIError, got %v", err)
	}
	if apiErr.Message != "Invalid email or password." {
		t.Fatalf("expected backend message, got %q", apiErr.Message)
	}
	// Public login failures never trigger session hooks.
	if len(log.authFailures) != 0 {
		t.Fatalf("unexpected auth hooks: %v", log.authFailures)
	}
}

func TestCartDecodesWrappedList(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":[{"id":1,"qty":2,"product":{"id":9,"name":"Rose","stock":5,"original_price":100}},{"id":2,"qty":1,"product":null}]}`))
	})
	client, _ := newClient(t, handler, "tok")

	items, err := client.Cart(context.Background())
	if err != nil {
		t.Fatalf("cart: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(items))
	}
	if items[0].Product == nil || items[0].Product.UnitPrice != 100 {
		t.Fatalf("unexpected first row: %+v", items[0])
	}
	if !items[1].Broken() {
		t.Fatal("expected second row flagged broken")
	}
}

func TestCartToleratesShapeMismatch(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"unexpected":"object"}}`))
	})
	client, _ := newClient(t, handler, "tok")

	items, err := client.Cart(context.Background())
	if err != nil {
		t.Fatalf("shape mismatch must not fail the call: %v", err)
	}
	if len(items) != 0 {
		t.Fatalf("expected empty result, got %d", len(items))
	}
}

func TestOrdersCarriesPageMeta(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.RawQuery != "page=2" {
			t.Errorf("expected page=2 query, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"data":[{"id":4,"order_number":"ORD-1","status":"pending","total_amount":500}],"meta":{"current_page":2,"last_page":3,"per_page":10,"total":21}}`))
	})
	client, _ := newClient(t, handler, "tok")

	orders, meta, err := client.Orders(context.Background(), 2)
	if err != nil {
		t.Fatalf("orders: %v", err)
	}
	if len(orders) != 1 || orders[0].OrderNumber != "ORD-1" {
		t.Fatalf("unexpected orders: %+v", orders)
	}
	if meta == nil || meta.CurrentPage != 2 || meta.Total != 21 {
		t.Fatalf("unexpected meta: %+v", meta)
	}
}

func TestShippingQuotesDecodesBareArray(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"code":"jne","service":"REG","cost":12000,"etd":"2-4"}]`))
	})
	client, _ := newClient(t, handler, "tok")

	options, err := client.ShippingQuotes(context.Background(), ShippingQuoteInput{
		Destination: "1234", WeightGrams: 800, Courier: "jne", Price: "lowest",
	})
	if err != nil {
		t.Fatalf("quotes: %v", err)
	}
	if len(options) != 1 || options[0].Cost != 12000 {
		t.Fatalf("unexpected options: %+v", options)
	}
}

func TestRemoveCartItemAcceptsNoContent(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		w.WriteHeader(http.StatusNoContent)
	})
	client, _ := newClient(t, handler, "tok")

	if _, err := client.RemoveCartItem(context.Background(), 7); err != nil {
		t.Fatalf("204 must be a success: %v", err)
	}
}
