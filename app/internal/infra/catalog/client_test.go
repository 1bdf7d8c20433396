package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domproduct "example.com/rocketshoes/app/internal/domain/product"
)

func newCatalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/products/1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1,"title":"Tênis de Caminhada Leve Confortável","price":179.9,"image":"https://example.com/1.jpg","brand":"RocketShoes"}`))
	})
	mux.HandleFunc("/stock/1", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":1,"amount":3}`))
	})
	mux.HandleFunc("/stock/2", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":2,`))
	})
	mux.HandleFunc("/stock/3", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_GetProduct(t *testing.T) {
	srv := newCatalogServer(t)
	client, err := NewClient(srv.URL+"/", time.Second)
	require.NoError(t, err)

	p, err := client.GetProduct(context.Background(), 1)

	require.NoError(t, err)
	require.Equal(t, int64(1), p.ID)
	require.Equal(t, "Tênis de Caminhada Leve Confortável", p.Title)
	require.Equal(t, 179.9, p.Price)
	require.Equal(t, "https://example.com/1.jpg", p.Image)
	require.JSONEq(t, `"RocketShoes"`, string(p.Extra["brand"]))
}

func TestClient_GetStock(t *testing.T) {
	srv := newCatalogServer(t)
	client, err := NewClient(srv.URL, time.Second)
	require.NoError(t, err)

	s, err := client.GetStock(context.Background(), 1)

	require.NoError(t, err)
	require.Equal(t, int64(3), s.Amount)
}

func TestClient_Errors(t *testing.T) {
	srv := newCatalogServer(t)
	client, err := NewClient(srv.URL, time.Second)
	require.NoError(t, err)

	t.Run("not found", func(t *testing.T) {
		_, err := client.GetProduct(context.Background(), 42)
		require.ErrorIs(t, err, domproduct.ErrProductNotFound)
	})

	t.Run("malformed body", func(t *testing.T) {
		_, err := client.GetStock(context.Background(), 2)
		require.Error(t, err)
		require.Contains(t, err.Error(), "decode stock/2")
	})

	t.Run("server error", func(t *testing.T) {
		_, err := client.GetStock(context.Background(), 3)
		require.Error(t, err)
		require.Contains(t, err.Error(), "unexpected status 503")
	})
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	_, err := NewClient("api/", time.Second)
	require.Error(t, err)
}
