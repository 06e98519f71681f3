package cartstore

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientFetchMapsCartPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/cart", r.URL.Path)
		cookie, err := r.Cookie("glowora_guest")
		require.NoError(t, err)
		assert.Equal(t, "tok-123", cookie.Value)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"items":[{"id":4,"productId":10,"quantity":2,"unitPrice":500}],"totalItems":2}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	client.GuestCookie = "tok-123"

	items, err := client.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(4), items[0].ID)
	require.NotNil(t, items[0].ProductID)
	assert.Equal(t, int64(10), *items[0].ProductID)
	assert.Nil(t, items[0].VariantID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, int64(500), items[0].UnitPrice)
}

func TestClientSurfacesAPIFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer jwt-abc", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"success":false,"error":"Not enough stock"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	client.Token = "jwt-abc"

	productID := int64(10)
	err := client.Add(context.Background(), &productID, nil, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Not enough stock")
	assert.Contains(t, err.Error(), "409")
}
