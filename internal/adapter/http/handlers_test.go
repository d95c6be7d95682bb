package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	domain "github.com/agrikart/storefront/internal/entity"
	"github.com/agrikart/storefront/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGateway implements usecase.CommerceGateway with function fields so
// each test scripts only what it needs.
type fakeGateway struct {
	initiate     func(domain.OrderDraft) (string, error)
	create       func(domain.OrderDraft) (*domain.Order, error)
	statusByMtid func(mtid string) (*usecase.PaymentProbe, error)
	orderByID    func(id string) (*domain.Order, error)
	updateStatus func(id string, status domain.OrderStatus) (*domain.Order, error)
}

func (f *fakeGateway) InitiatePayment(_ context.Context, _ string, d domain.OrderDraft) (string, error) {
	return f.initiate(d)
}

func (f *fakeGateway) CreateOrder(_ context.Context, _ string, d domain.OrderDraft) (*domain.Order, error) {
	return f.create(d)
}

func (f *fakeGateway) StatusByMtid(_ context.Context, _, mtid string) (*usecase.PaymentProbe, error) {
	return f.statusByMtid(mtid)
}

func (f *fakeGateway) OrderByID(_ context.Context, _, id string) (*domain.Order, error) {
	return f.orderByID(id)
}

func (f *fakeGateway) MyOrders(context.Context, string) ([]domain.Order, error) { return nil, nil }
func (f *fakeGateway) AllOrders(context.Context, string) ([]domain.Order, error) {
	return nil, nil
}

func (f *fakeGateway) UpdateOrderStatus(_ context.Context, _, id string, status domain.OrderStatus) (*domain.Order, error) {
	return f.updateStatus(id, status)
}

type memCartStore struct {
	mu    sync.Mutex
	items map[string][]domain.CartItem
}

func newMemCartStore() *memCartStore {
	return &memCartStore{items: map[string][]domain.CartItem{}}
}

func (m *memCartStore) Items(_ context.Context, userID string) ([]domain.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CartItem{}, m.items[userID]...), nil
}

func (m *memCartStore) Replace(_ context.Context, userID string, items []domain.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[userID] = append([]domain.CartItem{}, items...)
	return nil
}

func (m *memCartStore) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, userID)
	return nil
}

type memStatusCache struct {
	mu       sync.Mutex
	statuses map[string]string
}

func newMemStatusCache() *memStatusCache {
	return &memStatusCache{statuses: map[string]string{}}
}

func (m *memStatusCache) SetStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[id] = status
	return nil
}

func (m *memStatusCache) GetStatus(_ context.Context, id string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.statuses[id]
	return s, ok, nil
}

// asUser replaces the authz middleware in tests.
func asUser(userID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", userID)
		c.Set("bearer", "tok-"+userID)
		c.Next()
	}
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func seededCart() []domain.CartItem {
	return []domain.CartItem{
		{ProductID: "p1", Name: domain.LocalizedName{En: "Organic Seeds"}, Price: 250, DiscountedPrice: 200, Quantity: 2},
		{ProductID: "p2", Name: domain.LocalizedName{En: "Fertilizer"}, Price: 120, DiscountedPrice: 100, Quantity: 1},
	}
}

func checkoutBody(t *testing.T, method domain.PaymentMethod) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"shippingAddress": domain.ShippingAddress{
			FullName: "Asha Patil", Phone: "9876543210", AddressLine1: "12 Market Road",
			City: "Pune", State: "Maharashtra", Pincode: "411001",
		},
		"paymentMethod": method,
	})
	require.NoError(t, err)
	return bytes.NewBuffer(body)
}

func TestCheckoutHandler_Submit(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRig := func(gw *fakeGateway) (*gin.Engine, *memCartStore) {
		carts := newMemCartStore()
		co := usecase.NewCheckout(gw, carts, usecase.NewShippingPolicy(50), discard())
		r := gin.New()
		r.POST("/v1/checkout", asUser("u1"), NewCheckoutHandler(co).Submit)
		return r, carts
	}

	t.Run("COD_Created", func(t *testing.T) {
		var sent domain.OrderDraft
		gw := &fakeGateway{create: func(d domain.OrderDraft) (*domain.Order, error) {
			sent = d
			return &domain.Order{ID: "ord-1"}, nil
		}}
		r, carts := newRig(gw)
		_ = carts.Replace(context.Background(), "u1", seededCart())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/checkout", checkoutBody(t, domain.PaymentCOD))
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "created", resp["state"])
		assert.Equal(t, "ord-1", resp["orderId"])

		assert.Equal(t, domain.PaymentCOD, sent.PaymentMethod)
		assert.Equal(t, int64(550), sent.Total)

		items, _ := carts.Items(context.Background(), "u1")
		assert.Empty(t, items)
	})

	t.Run("Online_Redirect", func(t *testing.T) {
		gw := &fakeGateway{initiate: func(domain.OrderDraft) (string, error) {
			return "https://gateway/pay/abc", nil
		}}
		r, carts := newRig(gw)
		_ = carts.Replace(context.Background(), "u1", seededCart())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/checkout", checkoutBody(t, domain.PaymentOnline))
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "redirect", resp["state"])
		assert.Equal(t, "https://gateway/pay/abc", resp["redirectUrl"])

		// no order was created yet, cart must survive
		items, _ := carts.Items(context.Background(), "u1")
		assert.Len(t, items, 2)
	})

	t.Run("EmptyCart_Rejected", func(t *testing.T) {
		gw := &fakeGateway{}
		r, _ := newRig(gw)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/checkout", checkoutBody(t, domain.PaymentCOD))
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("InitiationFailure_Retryable", func(t *testing.T) {
		gw := &fakeGateway{initiate: func(domain.OrderDraft) (string, error) {
			return "", errors.New("gateway down")
		}}
		r, carts := newRig(gw)
		_ = carts.Replace(context.Background(), "u1", seededCart())

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/v1/checkout", checkoutBody(t, domain.PaymentOnline))
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadGateway, w.Code)
		items, _ := carts.Items(context.Background(), "u1")
		assert.Len(t, items, 2)
	})
}

func TestPaymentHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRig := func(gw *fakeGateway) (*gin.Engine, *usecase.Reconciler) {
		rec := usecase.NewReconciler(gw, newMemCartStore(), newMemStatusCache(), usecase.ReconcilerConfig{
			PollInterval:  5 * time.Millisecond,
			PollTimeout:   200 * time.Millisecond,
			RedirectDelay: 5 * time.Millisecond,
			SessionTTL:    time.Minute,
		}, discard())
		h := NewPaymentHandler(rec)
		r := gin.New()
		r.GET("/v1/payment/return", asUser("u1"), h.Return)
		r.GET("/v1/payment/status", asUser("u1"), h.Status)
		return r, rec
	}

	t.Run("MissingMtid", func(t *testing.T) {
		r, rec := newRig(&fakeGateway{})
		defer rec.Close()

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/payment/return", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		var resp map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "error", resp["state"])
		assert.Equal(t, "/cart", resp["backToCart"])
	})

	t.Run("PaidFlow", func(t *testing.T) {
		gw := &fakeGateway{statusByMtid: func(string) (*usecase.PaymentProbe, error) {
			return &usecase.PaymentProbe{OrderID: "ord-7", PaymentStatus: domain.PaymentPaid, Status: domain.StatusProcessing}, nil
		}}
		r, rec := newRig(gw)
		defer rec.Close()

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/payment/return?mtid=mt-1", nil))
		assert.Equal(t, http.StatusOK, w.Code)

		require.Eventually(t, func() bool {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/payment/status?mtid=mt-1", nil))
			var resp map[string]any
			_ = json.Unmarshal(w.Body.Bytes(), &resp)
			return resp["state"] == "success" && resp["location"] == "/order-success/ord-7"
		}, 2*time.Second, 5*time.Millisecond)
	})

	t.Run("UnknownSession", func(t *testing.T) {
		r, rec := newRig(&fakeGateway{})
		defer rec.Close()

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/payment/status?mtid=nope", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestOrderHandler_AdminUpdateStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	newRig := func(gw *fakeGateway, cache *memStatusCache) *gin.Engine {
		h := NewOrderHandler(gw, cache)
		r := gin.New()
		r.PATCH("/v1/admin/orders/:id/status", asUser("admin"), h.AdminUpdateStatus)
		r.GET("/v1/orders/:id/status", asUser("admin"), h.GetStatus)
		return r
	}

	patch := func(r *gin.Engine, id, status string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(map[string]string{"status": status})
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPatch, "/v1/admin/orders/"+id+"/status", bytes.NewReader(body)))
		return w
	}

	t.Run("Success", func(t *testing.T) {
		cache := newMemStatusCache()
		gw := &fakeGateway{updateStatus: func(id string, status domain.OrderStatus) (*domain.Order, error) {
			return &domain.Order{ID: id, Status: status}, nil
		}}
		r := newRig(gw, cache)

		w := patch(r, "ord-1", "shipped")
		assert.Equal(t, http.StatusOK, w.Code)

		s, ok, _ := cache.GetStatus(context.Background(), "ord-1")
		assert.True(t, ok)
		assert.Equal(t, "shipped", s)
	})

	t.Run("BackendFailure_RestoresAuthoritativeStatus", func(t *testing.T) {
		cache := newMemStatusCache()
		_ = cache.SetStatus(context.Background(), "ord-1", "processing")
		gw := &fakeGateway{
			updateStatus: func(string, domain.OrderStatus) (*domain.Order, error) {
				return nil, errors.New("backend rejected transition")
			},
			orderByID: func(id string) (*domain.Order, error) {
				return &domain.Order{ID: id, Status: domain.StatusProcessing}, nil
			},
		}
		r := newRig(gw, cache)

		w := patch(r, "ord-1", "shipped")
		assert.Equal(t, http.StatusBadGateway, w.Code)

		// speculative "shipped" must have been replaced by the re-fetched state
		s, _, _ := cache.GetStatus(context.Background(), "ord-1")
		assert.Equal(t, "processing", s)
	})

	t.Run("InvalidStatus", func(t *testing.T) {
		r := newRig(&fakeGateway{}, newMemStatusCache())
		w := patch(r, "ord-1", "teleported")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("CachedStatusReadThrough", func(t *testing.T) {
		cache := newMemStatusCache()
		calls := 0
		gw := &fakeGateway{orderByID: func(id string) (*domain.Order, error) {
			calls++
			return &domain.Order{ID: id, Status: domain.StatusDelivered}, nil
		}}
		r := newRig(gw, cache)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/orders/ord-2/status", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, calls)

		// second read comes from cache
		w = httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/v1/orders/ord-2/status", nil))
		assert.Equal(t, 1, calls)
		var resp map[string]any
		_ = json.Unmarshal(w.Body.Bytes(), &resp)
		assert.Equal(t, true, resp["cached"])
	})
}
