package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	domain "github.com/agrikart/storefront/internal/entity"
	"github.com/agrikart/storefront/internal/usecase"
)

// Client talks to the remote commerce backend over JSON/HTTPS. It owns no
// business state; every response is the backend's authoritative view.
type Client struct {
	base string
	http *http.Client
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base: baseURL,
		http: &http.Client{Timeout: timeout},
	}
}

// apiError is the backend's error envelope; Message is preferred over a
// generic per-operation default when surfacing to the customer.
type apiError struct {
	Message string `json:"message"`
}

// orderEnvelope wraps single-order responses: { status, data: { order } }.
type orderEnvelope struct {
	Status string `json:"status"`
	Data   struct {
		Order domain.Order `json:"order"`
	} `json:"data"`
}

type ordersEnvelope struct {
	Status string `json:"status"`
	Data   struct {
		Orders []domain.Order `json:"orders"`
	} `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path, auth string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", "Bearer "+auth)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("commerce backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, path, usecase.ErrNotFound)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var ae apiError
		if json.Unmarshal(raw, &ae) == nil && ae.Message != "" {
			return fmt.Errorf("commerce backend (%d): %s", resp.StatusCode, ae.Message)
		}
		return fmt.Errorf("commerce backend (%d)", resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) InitiatePayment(ctx context.Context, auth string, draft domain.OrderDraft) (string, error) {
	var resp struct {
		RedirectURL string `json:"redirectUrl"`
	}
	if err := c.do(ctx, http.MethodPost, "/orders/initiate-payment", auth, draft, &resp); err != nil {
		return "", err
	}
	return resp.RedirectURL, nil
}

func (c *Client) CreateOrder(ctx context.Context, auth string, draft domain.OrderDraft) (*domain.Order, error) {
	var env orderEnvelope
	if err := c.do(ctx, http.MethodPost, "/orders", auth, draft, &env); err != nil {
		return nil, err
	}
	return &env.Data.Order, nil
}

func (c *Client) StatusByMtid(ctx context.Context, auth, mtid string) (*usecase.PaymentProbe, error) {
	var probe usecase.PaymentProbe
	if err := c.do(ctx, http.MethodGet, "/orders/status-by-mtid/"+mtid, auth, nil, &probe); err != nil {
		return nil, err
	}
	return &probe, nil
}

func (c *Client) OrderByID(ctx context.Context, auth, orderID string) (*domain.Order, error) {
	var env orderEnvelope
	if err := c.do(ctx, http.MethodGet, "/orders/"+orderID, auth, nil, &env); err != nil {
		return nil, err
	}
	return &env.Data.Order, nil
}

func (c *Client) MyOrders(ctx context.Context, auth string) ([]domain.Order, error) {
	var env ordersEnvelope
	if err := c.do(ctx, http.MethodGet, "/orders/my-orders", auth, nil, &env); err != nil {
		return nil, err
	}
	return env.Data.Orders, nil
}

func (c *Client) AllOrders(ctx context.Context, auth string) ([]domain.Order, error) {
	var env ordersEnvelope
	if err := c.do(ctx, http.MethodGet, "/orders", auth, nil, &env); err != nil {
		return nil, err
	}
	return env.Data.Orders, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, auth, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	body := map[string]string{"status": string(status)}
	var env orderEnvelope
	if err := c.do(ctx, http.MethodPatch, "/orders/"+orderID+"/status", auth, body, &env); err != nil {
		return nil, err
	}
	return &env.Data.Order, nil
}

var _ usecase.CommerceGateway = (*Client)(nil)
