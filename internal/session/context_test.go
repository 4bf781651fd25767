package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"storefront-client/internal/domain"
	"storefront-client/internal/store"
)

type recordingNotifier struct {
	mu       sync.Mutex
	successs []string
	infos    []string
	warns    []string
	errs     []string
}

func (n *recordingNotifier) Success(msg string) {
	n.mu.Lock()
	n.successs = append(n.successs, msg)
	n.mu.Unlock()
}

func (n *recordingNotifier) Info(msg string) {
	n.mu.Lock()
	n.infos = append(n.infos, msg)
	n.mu.Unlock()
}

func (n *recordingNotifier) Warn(msg string) {
	n.mu.Lock()
	n.warns = append(n.warns, msg)
	n.mu.Unlock()
}

func (n *recordingNotifier) Error(msg string) {
	n.mu.Lock()
	n.errs = append(n.errs, msg)
	n.mu.Unlock()
}

func (n *recordingNotifier) infoCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.infos)
}

type recordingNavigator struct {
	mu     sync.Mutex
	path   string
	visits []string
}

func (n *recordingNavigator) Path() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.path == "" {
		return "/"
	}
	return n.path
}

func (n *recordingNavigator) GoTo(path string) {
	n.mu.Lock()
	n.path = path
	n.visits = append(n.visits, path)
	n.mu.Unlock()
}

// testBackend is a counting HTTP double for the storefront API.
type testBackend struct {
	mu     sync.Mutex
	counts map[string]int
	mux    *http.ServeMux
	srv    *httptest.Server
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()
	b := &testBackend{
		counts: make(map[string]int),
		mux:    http.NewServeMux(),
	}
	b.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.counts[r.Method+" "+r.URL.Path]++
		b.mu.Unlock()
		b.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *testBackend) count(method, path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts[method+" "+path]
}

func (b *testBackend) total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.counts {
		n += c
	}
	return n
}

func (b *testBackend) acceptLogout() {
	b.mux.HandleFunc("POST /api/user/logout", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out."})
	})
}

func (b *testBackend) serveCart(items func() []domain.CartItem) {
	b.mux.HandleFunc("GET /api/user/shopping_cart", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": items()})
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type rig struct {
	backend  *testBackend
	notifier *recordingNotifier
	nav      *recordingNavigator
	tokens   *store.Memory
	sess     *Context
}

func newRig(t *testing.T, timeout time.Duration) *rig {
	t.Helper()
	r := &rig{
		backend:  newTestBackend(t),
		notifier: &recordingNotifier{},
		nav:      &recordingNavigator{},
		tokens:   store.NewMemory(),
	}
	r.sess = New(Config{
		BaseURL:           r.backend.srv.URL,
		HTTP:              r.backend.srv.Client(),
		Tokens:            r.tokens,
		Notifier:          r.notifier,
		Navigator:         r.nav,
		InactivityTimeout: timeout,
	})
	return r
}

func snapshot(id int64, stock int, price int64) *domain.ProductSnapshot {
	return &domain.ProductSnapshot{
		ID:        id,
		Name:      fmt.Sprintf("product-%d", id),
		Slug:      fmt.Sprintf("product-%d", id),
		Stock:     stock,
		UnitPrice: price,
	}
}

func TestSetTokenClearIsSynchronousAndOffline(t *testing.T) {
	r := newRig(t, time.Hour)
	r.backend.serveCart(func() []domain.CartItem {
		return []domain.CartItem{{ID: 1, Quantity: 2, Product: snapshot(9, 10, 100)}}
	})

	r.sess.SetToken("tok-1")
	if !r.sess.Loading() {
		t.Fatal("expected cart to be loading after token set")
	}
	if err := r.sess.RefreshCart(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if got := r.sess.CartCount(); got != 2 {
		t.Fatalf("expected cart count 2, got %d", got)
	}

	before := r.backend.total()
	r.sess.SetToken("")

	if got := len(r.sess.Items()); got != 0 {
		t.Fatalf("expected empty cart, got %d items", got)
	}
	if r.sess.Loading() {
		t.Fatal("expected loading to be complete after clear")
	}
	if r.tokens.Token() != "" {
		t.Fatal("expected credential removed from store")
	}
	if after := r.backend.total(); after != before {
		t.Fatalf("token clear issued %d network calls", after-before)
	}
}

func TestFetchWithoutTokenFailsBeforeNetwork(t *testing.T) {
	r := newRig(t, time.Hour)
	r.backend.acceptLogout()

	_, err := r.sess.API().Cart(context.Background())
	if err != domain.ErrNotAuthenticated {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	if got := r.backend.count("GET", "/api/user/shopping_cart"); got != 0 {
		t.Fatalf("expected zero cart requests, got %d", got)
	}
	// No token was present, so no backend notify either.
	if got := r.backend.count("POST", "/api/user/logout"); got != 0 {
		t.Fatalf("expected zero logout notifies, got %d", got)
	}
	if r.nav.Path() != LoginPath {
		t.Fatalf("expected navigation to %s, got %s", LoginPath, r.nav.Path())
	}
	if got := r.notifier.infoCount(); got != 1 {
		t.Fatalf("expected exactly one logout notification, got %d", got)
	}
	if r.notifier.infos[0] != MsgSessionNotFound {
		t.Fatalf("unexpected logout reason: %q", r.notifier.infos[0])
	}
}

func TestUnauthorizedForcesSingleLogout(t *testing.T) {
	r := newRig(t, time.Hour)
	r.backend.acceptLogout()
	r.backend.mux.HandleFunc("GET /api/user/shopping_cart", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Unauthenticated."})
	})

	r.sess.SetToken("tok-1")

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = r.sess.API().Cart(context.Background())
		}()
	}
	wg.Wait()

	if r.tokens.Token() != "" {
		t.Fatal("expected token cleared after 401")
	}
	if got := len(r.sess.Items()); got != 0 {
		t.Fatalf("expected cart emptied, got %d items", got)
	}
	if got := r.backend.count("POST", "/api/user/logout"); got != 1 {
		t.Fatalf("expected exactly one backend logout notify, got %d", got)
	}
	if r.nav.Path() != LoginPath {
		t.Fatalf("expected navigation to %s, got %s", LoginPath, r.nav.Path())
	}
	if got := r.notifier.infoCount(); got != 1 {
		t.Fatalf("expected exactly one logout notification, got %d", got)
	}
}

func TestLogoutTwiceNotifiesBackendOnce(t *testing.T) {
	r := newRig(t, time.Hour)
	r.backend.acceptLogout()

	r.sess.SetToken("tok-1")
	r.sess.Logout("bye")
	r.sess.Logout("bye again")

	if got := r.backend.count("POST", "/api/user/logout"); got != 1 {
		t.Fatalf("expected one backend logout call, got %d", got)
	}
	if got := r.notifier.infoCount(); got != 1 {
		t.Fatalf("expected one logout notification, got %d", got)
	}
	if len(r.nav.visits) != 1 {
		t.Fatalf("expected one navigation, got %d", len(r.nav.visits))
	}
}

func TestLogoutProceedsWhenBackendNotifyFails(t *testing.T) {
	r := newRig(t, time.Hour)
	// No logout route registered: the notify 404s; local teardown must
	// still complete.
	r.sess.SetToken("tok-1")
	r.sess.Logout("")

	if r.tokens.Token() != "" {
		t.Fatal("expected token cleared despite failed notify")
	}
	if got := r.notifier.infoCount(); got != 1 {
		t.Fatalf("expected one logout notification, got %d", got)
	}
	if r.notifier.infos[0] != MsgSessionEnded {
		t.Fatalf("unexpected default reason: %q", r.notifier.infos[0])
	}
}

func TestForbiddenKeepsSession(t *testing.T) {
	r := newRig(t, time.Hour)
	r.backend.mux.HandleFunc("GET /api/user/shopping_cart", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "nope"})
	})

	r.sess.SetToken("tok-1")
	_, err := r.sess.API().Cart(context.Background())
	if err != domain.ErrForbidden {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if r.tokens.Token() != "tok-1" {
		t.Fatal("403 must not end the session")
	}
	if len(r.nav.visits) != 0 {
		t.Fatal("403 must not navigate")
	}
	r.notifier.mu.Lock()
	defer r.notifier.mu.Unlock()
	if len(r.notifier.errs) != 1 || r.notifier.errs[0] != MsgNoPermission {
		t.Fatalf("expected one permission notification, got %v", r.notifier.errs)
	}
}

func TestConnectivityFailureNotifiesWithoutLogout(t *testing.T) {
	r := newRig(t, time.Hour)
	r.sess.SetToken("tok-1")
	r.backend.srv.Close()

	_, err := r.sess.API().Cart(context.Background())
	if err == nil {
		t.Fatal("expected an error from a dead backend")
	}
	if r.tokens.Token() != "tok-1" {
		t.Fatal("connectivity failure must not end the session")
	}
	r.notifier.mu.Lock()
	defer r.notifier.mu.Unlock()
	if len(r.notifier.errs) == 0 || r.notifier.errs[0] != MsgNetworkProblem {
		t.Fatalf("expected a connectivity notification, got %v", r.notifier.errs)
	}
}

func TestAddToCartStockGuardSkipsNetwork(t *testing.T) {
	r := newRig(t, time.Hour)
	r.backend.serveCart(func() []domain.CartItem {
		return []domain.CartItem{{ID: 1, Quantity: 4, Product: snapshot(9, 5, 100)}}
	})

	r.sess.SetToken("tok-1")
	if err := r.sess.RefreshCart(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	err := r.sess.AddToCart(context.Background(), 9, 2, 5)
	if err != domain.ErrStockExceeded {
		t.Fatalf("expected ErrStockExceeded, got %v", err)
	}
	if got := r.backend.count("POST", "/api/user/shopping_cart"); got != 0 {
		t.Fatalf("stock guard must not reach the network, got %d posts", got)
	}
	if got := r.sess.CartCount(); got != 4 {
		t.Fatalf("cart state must be unchanged, got count %d", got)
	}
	r.notifier.mu.Lock()
	defer r.notifier.mu.Unlock()
	if len(r.notifier.warns) != 1 || r.notifier.warns[0] != MsgStockExceeded {
		t.Fatalf("expected one stock warning, got %v", r.notifier.warns)
	}
}

func TestAddToCartResynchronizes(t *testing.T) {
	r := newRig(t, time.Hour)

	var mu sync.Mutex
	qty := 0
	r.backend.serveCart(func() []domain.CartItem {
		mu.Lock()
		defer mu.Unlock()
		if qty == 0 {
			return nil
		}
		return []domain.CartItem{{ID: 1, Quantity: qty, Product: snapshot(9, 10, 150)}}
	})
	r.backend.mux.HandleFunc("POST /api/user/shopping_cart", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			Qty int `json:"qty"`
		}
		_ = json.NewDecoder(req.Body).Decode(&body)
		mu.Lock()
		qty += body.Qty
		mu.Unlock()
		writeJSON(w, http.StatusCreated, map[string]string{"message": "added"})
	})

	r.sess.SetToken("tok-1")
	if err := r.sess.RefreshCart(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	if err := r.sess.AddToCart(context.Background(), 9, 3, 10); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := r.sess.AddToCart(context.Background(), 9, 4, 10); err != nil {
		t.Fatalf("add: %v", err)
	}

	if got := r.sess.CartCount(); got != 7 {
		t.Fatalf("expected resynchronized count 7, got %d", got)
	}
	if got := r.sess.CartAmount(); got != 7*150 {
		t.Fatalf("expected amount %d, got %d", 7*150, got)
	}
}

func TestUpdateQuantityBelowOneRoutesToRemoval(t *testing.T) {
	for _, qty := range []int{0, -1} {
		t.Run(fmt.Sprintf("qty=%d", qty), func(t *testing.T) {
			r := newRig(t, time.Hour)
			r.backend.serveCart(func() []domain.CartItem { return nil })
			r.backend.mux.HandleFunc("DELETE /api/user/shopping_cart/7", func(w http.ResponseWriter, req *http.Request) {
				w.WriteHeader(http.StatusNoContent)
			})

			r.sess.SetToken("tok-1")
			if err := r.sess.UpdateQuantity(context.Background(), 7, qty); err != nil {
				t.Fatalf("update: %v", err)
			}
			if got := r.backend.count("DELETE", "/api/user/shopping_cart/7"); got != 1 {
				t.Fatalf("expected one delete, got %d", got)
			}
			if got := r.backend.count("PUT", "/api/user/shopping_cart/7"); got != 0 {
				t.Fatalf("expected zero updates, got %d", got)
			}
		})
	}
}

func TestBrokenItemsHiddenFromDisplayButCounted(t *testing.T) {
	r := newRig(t, time.Hour)
	r.backend.serveCart(func() []domain.CartItem {
		return []domain.CartItem{
			{ID: 1, Quantity: 2, Product: snapshot(9, 10, 100)},
			{ID: 2, Quantity: 1, Product: nil},
		}
	})

	r.sess.SetToken("tok-1")
	if err := r.sess.RefreshCart(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	items := r.sess.Items()
	if len(items) != 1 || items[0].ID != 1 {
		t.Fatalf("expected display list [1], got %v", items)
	}
	if got := r.sess.BrokenCount(); got != 1 {
		t.Fatalf("expected one broken row, got %d", got)
	}
	// The badge keeps counting rows the backend still owns.
	if got := r.sess.CartCount(); got != 3 {
		t.Fatalf("expected badge count 3, got %d", got)
	}
	// Broken rows cannot be priced.
	if got := r.sess.CartAmount(); got != 200 {
		t.Fatalf("expected amount 200, got %d", got)
	}
}

func TestRefreshWithoutTokenIsOffline(t *testing.T) {
	r := newRig(t, time.Hour)
	if err := r.sess.RefreshCart(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if r.backend.total() != 0 {
		t.Fatal("refresh without token must not touch the network")
	}
	if r.sess.Loading() {
		t.Fatal("expected loading complete")
	}
}

func TestStaleCartRefreshDiscardedAfterLogout(t *testing.T) {
	r := newRig(t, time.Hour)
	r.backend.acceptLogout()

	release := make(chan struct{})
	r.backend.mux.HandleFunc("GET /api/user/shopping_cart", func(w http.ResponseWriter, req *http.Request) {
		<-release
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"data": []domain.CartItem{{ID: 1, Quantity: 5, Product: snapshot(9, 10, 100)}},
		})
	})

	r.sess.SetToken("tok-1")

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = r.sess.RefreshCart(context.Background())
	}()

	// Let the refresh reach the backend, then end the session while the
	// response is still in flight.
	time.Sleep(50 * time.Millisecond)
	r.sess.Logout("bye")
	close(release)
	<-done

	if got := r.sess.CartCount(); got != 0 {
		t.Fatalf("stale refresh applied after logout: count %d", got)
	}
	if r.sess.Loading() {
		t.Fatal("expected loading complete after logout")
	}
}
