package pa

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gocql/gocql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/himanshidesai31/kickera/internal/gateway"
	"github.com/himanshidesai31/kickera/internal/models"
	"github.com/himanshidesai31/kickera/internal/store"
)

const testSecret = "test_secret"

func signFor(orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// --- doublures ---

type fakeCart struct {
	mu     sync.Mutex
	totals map[string]float64
	clears int32
}

func newFakeCart() *fakeCart {
	return &fakeCart{totals: map[string]float64{}}
}

func (f *fakeCart) Total(_ context.Context, userID string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.totals[userID], nil
}

func (f *fakeCart) Clear(_ context.Context, userID string) error {
	atomic.AddInt32(&f.clears, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.totals, userID)
	return nil
}

type fakeWishlist struct {
	mu      sync.Mutex
	stashed map[string][]gocql.UUID
	removed []gocql.UUID
}

func newFakeWishlist() *fakeWishlist {
	return &fakeWishlist{stashed: map[string][]gocql.UUID{}}
}

func (f *fakeWishlist) Stash(_ context.Context, userID string, productIDs []gocql.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stashed[userID] = productIDs
	return nil
}

func (f *fakeWishlist) PopStash(_ context.Context, userID string) ([]gocql.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := f.stashed[userID]
	delete(f.stashed, userID)
	return ids, nil
}

func (f *fakeWishlist) Remove(_ context.Context, _ string, productID gocql.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, productID)
	return nil
}

type fakeFinder struct {
	products map[gocql.UUID]*models.Product
}

func (f *fakeFinder) Find(_ context.Context, productID gocql.UUID) (*models.Product, error) {
	p, ok := f.products[productID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return p, nil
}

type fakeAddresses struct {
	defaultID *gocql.UUID
	owned     map[gocql.UUID]bool
}

func newFakeAddresses() *fakeAddresses {
	id := gocql.TimeUUID()
	return &fakeAddresses{defaultID: &id, owned: map[gocql.UUID]bool{id: true}}
}

func (f *fakeAddresses) Owns(_ context.Context, _ string, addressID gocql.UUID) (bool, error) {
	return f.owned[addressID], nil
}

func (f *fakeAddresses) DefaultFor(_ context.Context, _ string) (*gocql.UUID, error) {
	return f.defaultID, nil
}

type fakeNotifier struct {
	count int32
}

func (f *fakeNotifier) Notify(_ *models.Order) {
	atomic.AddInt32(&f.count, 1)
}

// --- montage ---

type fixture struct {
	router    *gin.Engine
	handler   *Handler
	store     *store.MemoryStore
	cart      *fakeCart
	wishlist  *fakeWishlist
	addresses *fakeAddresses
	notifier  *fakeNotifier
	gwHits    *int32
}

func newFixture(t *testing.T, product *models.Product) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	var hits int32
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		json.NewEncoder(w).Encode(map[string]string{"id": fmt.Sprintf("order_gw_%d", atomic.LoadInt32(&hits))})
	}))
	t.Cleanup(gw.Close)

	orders := store.NewMemoryStore()
	cart := newFakeCart()
	wishlist := newFakeWishlist()
	addresses := newFakeAddresses()
	notifier := &fakeNotifier{}

	finder := &fakeFinder{products: map[gocql.UUID]*models.Product{}}
	if product != nil {
		finder.products[product.ID] = product
	}

	h := NewHandler(orders,
		gateway.NewClient("rzp_test_key", testSecret, gw.URL),
		cart, wishlist, finder, addresses, notifier,
		"http://localhost:8080/api/payment/callback",
		"http://localhost:3000/confirmation",
		"Kickera", "")

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if uid := c.GetHeader("X-Test-User"); uid != "" {
			c.Set("user_id", uid)
		}
	})
	r.POST("/api/payment/create/:productId", h.CreatePayment)
	r.GET("/api/payment/callback", h.Callback)
	r.POST("/api/payment/callback", h.Callback)
	r.GET("/api/payment/confirmation", h.Confirmation)

	return &fixture{router: r, handler: h, store: orders, cart: cart,
		wishlist: wishlist, addresses: addresses, notifier: notifier, gwHits: &hits}
}

func (f *fixture) postCreate(userID, productID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/payment/create/"+productID, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", userID)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func (f *fixture) createPayment(t *testing.T, userID, productID string) map[string]any {
	t.Helper()
	w := f.postCreate(userID, productID, "{}")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (f *fixture) callback(gatewayOrderID, paymentID, signature string) *httptest.ResponseRecorder {
	q := url.Values{}
	if gatewayOrderID != "" {
		q.Set("razorpay_order_id", gatewayOrderID)
	}
	if paymentID != "" {
		q.Set("razorpay_payment_id", paymentID)
	}
	if signature != "" {
		q.Set("razorpay_signature", signature)
	}
	req := httptest.NewRequest(http.MethodGet, "/api/payment/callback?"+q.Encode(), nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func testProduct(price float64) *models.Product {
	return &models.Product{
		ID:    gocql.TimeUUID(),
		Name:  "Sneakers Apex",
		Price: price,
		Stock: 5,
	}
}

// --- scénarios ---

func TestCreatePaymentUsesCartTotal(t *testing.T) {
	product := testProduct(999.00)
	f := newFixture(t, product)
	f.cart.totals["buyer-1"] = 499.00

	resp := f.createPayment(t, "buyer-1", product.ID.String())

	assert.Equal(t, 499.00, resp["amount"])
	assert.Equal(t, float64(49900), resp["amount_paise"])
	assert.Equal(t, "INR", resp["currency"])
	assert.Equal(t, "rzp_test_key", resp["key_id"])
	assert.NotEmpty(t, resp["gateway_order_id"])

	order, err := f.store.FindByGatewayOrderID(context.Background(), resp["gateway_order_id"].(string))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Equal(t, int64(49900), order.AmountPaise)
}

func TestCreatePaymentFallsBackToProductPrice(t *testing.T) {
	product := testProduct(750.50)
	f := newFixture(t, product)

	resp := f.createPayment(t, "buyer-1", product.ID.String())

	assert.Equal(t, 750.50, resp["amount"])
	assert.Equal(t, float64(75050), resp["amount_paise"])
}

func TestCreatePaymentZeroCartTotalRejectedBeforeGateway(t *testing.T) {
	product := testProduct(499.00)
	f := newFixture(t, product)

	// Un cart_total explicite mais nul est rejeté, même si le produit a un prix
	w := f.postCreate("buyer-1", product.ID.String(), `{"cart_total": 0}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, atomic.LoadInt32(f.gwHits), "aucun appel passerelle attendu")
	orders, err := f.store.ListForBuyer(context.Background(), "buyer-1")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCreatePaymentZeroPriceRejected(t *testing.T) {
	product := testProduct(0)
	f := newFixture(t, product)

	w := f.postCreate("buyer-1", product.ID.String(), "{}")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, atomic.LoadInt32(f.gwHits))
}

func TestCreatePaymentCartTotalOverridesPrice(t *testing.T) {
	product := testProduct(499.00)
	f := newFixture(t, product)

	w := f.postCreate("buyer-1", product.ID.String(), `{"cart_total": 1250.50}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1250.50, resp["amount"])
	assert.Equal(t, float64(125050), resp["amount_paise"])
}

func TestCreatePaymentRequiresAddress(t *testing.T) {
	product := testProduct(499.00)
	f := newFixture(t, product)
	f.addresses.defaultID = nil

	w := f.postCreate("buyer-1", product.ID.String(), "{}")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Zero(t, atomic.LoadInt32(f.gwHits))
}

func TestCreatePaymentRejectsForeignAddress(t *testing.T) {
	product := testProduct(499.00)
	f := newFixture(t, product)

	w := f.postCreate("buyer-1", product.ID.String(),
		fmt.Sprintf(`{"address_id": %q}`, gocql.TimeUUID().String()))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, atomic.LoadInt32(f.gwHits))
}

func TestCreatePaymentUnknownProduct(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/payment/create/"+gocql.TimeUUID().String(), nil)
	req.Header.Set("X-Test-User", "buyer-1")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Zero(t, atomic.LoadInt32(f.gwHits))
}

func TestCreatePaymentGatewayDown(t *testing.T) {
	product := testProduct(499.00)
	f := newFixture(t, product)

	// Remplace la passerelle par un serveur qui refuse tout
	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":{"description":"auth failed"}}`, http.StatusUnauthorized)
	}))
	t.Cleanup(down.Close)
	f.handler.Gateway = gateway.NewClient("rzp_test_key", testSecret, down.URL)

	req := httptest.NewRequest(http.MethodPost, "/api/payment/create/"+product.ID.String(), nil)
	req.Header.Set("X-Test-User", "buyer-1")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)

	// Aucune ligne locale ne doit exister
	orders, err := f.store.ListForBuyer(context.Background(), "buyer-1")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestCallbackHappyPath(t *testing.T) {
	product := testProduct(499.00)
	f := newFixture(t, product)
	f.cart.totals["buyer-1"] = 499.00

	// "Acheter maintenant" depuis la wishlist : l'entrée est mise de côté
	w0 := f.postCreate("buyer-1", product.ID.String(),
		fmt.Sprintf(`{"wishlist_ids": [%q]}`, product.ID.String()))
	require.Equal(t, http.StatusOK, w0.Code, w0.Body.String())
	var resp map[string]any
	require.NoError(t, json.Unmarshal(w0.Body.Bytes(), &resp))
	gwID := resp["gateway_order_id"].(string)

	w := f.callback(gwID, "pay_1", signFor(gwID, "pay_1"))
	assert.Equal(t, http.StatusFound, w.Code)

	order, err := f.store.FindByGatewayOrderID(context.Background(), gwID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, "pay_1", order.GatewayPaymentID)
	assert.Contains(t, w.Header().Get("Location"), "order_id="+order.ID.String())

	// Réconciliation : panier vidé, entrée wishlist mise de côté retirée
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.cart.clears))
	require.Len(t, f.wishlist.removed, 1)
	assert.Equal(t, product.ID, f.wishlist.removed[0])
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.notifier.count))
}

func TestCallbackInvalidSignature(t *testing.T) {
	product := testProduct(499.00)
	f := newFixture(t, product)
	f.cart.totals["buyer-1"] = 499.00

	resp := f.createPayment(t, "buyer-1", product.ID.String())
	gwID := resp["gateway_order_id"].(string)

	w := f.callback(gwID, "pay_1", signFor(gwID, "pay_autre"))
	assert.Equal(t, http.StatusFound, w.Code)

	order, err := f.store.FindByGatewayOrderID(context.Background(), gwID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentFailed, order.PaymentStatus)
	assert.Empty(t, order.GatewayPaymentID)

	// Le panier n'est PAS touché sur un échec
	assert.Zero(t, atomic.LoadInt32(&f.cart.clears))
	assert.Empty(t, f.wishlist.removed)
	assert.Zero(t, atomic.LoadInt32(&f.notifier.count))
}

func TestCallbackUnknownGatewayOrder(t *testing.T) {
	f := newFixture(t, nil)

	w := f.callback("order_inconnu", "pay_1", signFor("order_inconnu", "pay_1"))

	// Redirection générique, aucune ligne créée
	assert.Equal(t, http.StatusFound, w.Code)
	assert.NotContains(t, w.Header().Get("Location"), "order_id=")
	_, err := f.store.FindByGatewayOrderID(context.Background(), "order_inconnu")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCallbackMissingFields(t *testing.T) {
	f := newFixture(t, nil)

	w := f.callback("order_gw_1", "", "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.NotContains(t, w.Header().Get("Location"), "order_id=")
}

func TestCallbackReplayIsIdempotent(t *testing.T) {
	product := testProduct(499.00)
	f := newFixture(t, product)
	f.cart.totals["buyer-1"] = 499.00

	resp := f.createPayment(t, "buyer-1", product.ID.String())
	gwID := resp["gateway_order_id"].(string)
	sig := signFor(gwID, "pay_1")

	w1 := f.callback(gwID, "pay_1", sig)
	w2 := f.callback(gwID, "pay_1", sig)

	assert.Equal(t, http.StatusFound, w1.Code)
	assert.Equal(t, http.StatusFound, w2.Code)
	assert.Equal(t, w1.Header().Get("Location"), w2.Header().Get("Location"))

	order, err := f.store.FindByGatewayOrderID(context.Background(), gwID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)
	assert.Equal(t, "pay_1", order.GatewayPaymentID)

	// Une seule réconciliation malgré le rejeu
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.cart.clears))
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.notifier.count))
}

func TestCallbackConcurrentExactlyOneReconciliation(t *testing.T) {
	product := testProduct(499.00)
	f := newFixture(t, product)
	f.cart.totals["buyer-1"] = 499.00

	resp := f.createPayment(t, "buyer-1", product.ID.String())
	gwID := resp["gateway_order_id"].(string)
	sig := signFor(gwID, "pay_1")

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			w := f.callback(gwID, "pay_1", sig)
			assert.Equal(t, http.StatusFound, w.Code)
		}()
	}
	wg.Wait()

	order, err := f.store.FindByGatewayOrderID(context.Background(), gwID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, order.PaymentStatus)

	// Exactement un callback gagne la transition et réconcilie
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.cart.clears))
	assert.Equal(t, int32(1), atomic.LoadInt32(&f.notifier.count))
}

func TestConfirmationByOrderID(t *testing.T) {
	product := testProduct(499.00)
	f := newFixture(t, product)

	resp := f.createPayment(t, "buyer-1", product.ID.String())
	gwID := resp["gateway_order_id"].(string)
	f.callback(gwID, "pay_1", signFor(gwID, "pay_1"))

	req := httptest.NewRequest(http.MethodGet, "/api/payment/confirmation?order_id="+resp["order_id"].(string), nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "paid", body["payment_status"])
}

func TestConfirmationFallbackLatestPaid(t *testing.T) {
	product := testProduct(499.00)
	f := newFixture(t, product)

	resp := f.createPayment(t, "buyer-1", product.ID.String())
	gwID := resp["gateway_order_id"].(string)
	f.callback(gwID, "pay_1", signFor(gwID, "pay_1"))

	req := httptest.NewRequest(http.MethodGet, "/api/payment/confirmation", nil)
	req.Header.Set("X-Test-User", "buyer-1")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "paid", body["payment_status"])
	order := body["order"].(map[string]any)
	assert.Equal(t, resp["order_id"], order["id"])
}

func TestConfirmationUnknownOrder(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/payment/confirmation?order_id="+gocql.TimeUUID().String(), nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestConfirmationNoFallbackForAnonymous(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/payment/confirmation", nil)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}
