package cartstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Client implements Service over the cart HTTP API. It carries either a
// bearer token or a guest cookie, mirroring how the storefront talks to
// the backend.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	// Exactly one of these identifies the cart owner. Token is a JWT for
	// a signed-in user; GuestCookie is the raw guest cookie value.
	Token       string
	GuestCookie string

	// CookieName defaults to "glowora_guest" when unset.
	CookieName string
}

func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	} else if c.GuestCookie != "" {
		name := c.CookieName
		if name == "" {
			name = "glowora_guest"
		}
		req.AddCookie(&http.Cookie{Name: name, Value: c.GuestCookie})
	}

	return req, nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var failure struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&failure); err == nil && failure.Error != "" {
			return fmt.Errorf("cart api: %s (status %d)", failure.Error, resp.StatusCode)
		}
		return fmt.Errorf("cart api: unexpected status %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// Fetch implements Service.
func (c *Client) Fetch(ctx context.Context) ([]Item, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/v1/cart", nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Items []struct {
			ID        int64  `json:"id"`
			ProductID *int64 `json:"productId"`
			VariantID *int64 `json:"variantId"`
			Quantity  int    `json:"quantity"`
			UnitPrice int64  `json:"unitPrice"`
		} `json:"items"`
	}
	if err := c.do(req, &payload); err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(payload.Items))
	for _, line := range payload.Items {
		items = append(items, Item{
			ID:        line.ID,
			ProductID: line.ProductID,
			VariantID: line.VariantID,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	return items, nil
}

// Add implements Service.
func (c *Client) Add(ctx context.Context, productID, variantID *int64, quantity int) error {
	body := map[string]interface{}{"quantity": quantity}
	if productID != nil {
		body["productId"] = *productID
	}
	if variantID != nil {
		body["variantId"] = *variantID
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/v1/cart/items", body)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// UpdateQuantity implements Service.
func (c *Client) UpdateQuantity(ctx context.Context, itemID int64, quantity int) error {
	req, err := c.newRequest(ctx, http.MethodPut, "/v1/cart/items/"+strconv.FormatInt(itemID, 10),
		map[string]interface{}{"quantity": quantity})
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

// Remove implements Service.
func (c *Client) Remove(ctx context.Context, itemID int64) error {
	req, err := c.newRequest(ctx, http.MethodDelete, "/v1/cart/items/"+strconv.FormatInt(itemID, 10), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}
