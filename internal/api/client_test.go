package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Token(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/auth/token/", r.URL.Path)

			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "kamala@organics.test", body["email"])
			assert.Equal(t, "secret", body["password"])

			json.NewEncoder(w).Encode(map[string]string{"token": "tok-123"})
		}))
		defer srv.Close()

		c := NewClient(srv.URL, nil)
		tok, err := c.Token(context.Background(), "kamala@organics.test", "secret")
		assert.NoError(t, err)
		assert.Equal(t, "tok-123", tok)
	})

	t.Run("Rejected credentials", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"detail":"wrong"}`, http.StatusBadRequest)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, nil)
		_, err := c.Token(context.Background(), "kamala@organics.test", "wrong")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("Empty token in response", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{})
		}))
		defer srv.Close()

		c := NewClient(srv.URL, nil)
		_, err := c.Token(context.Background(), "a@b.c", "pw")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestClient_Me(t *testing.T) {
	t.Run("Success with auth header", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
			assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
			json.NewEncoder(w).Encode(User{ID: 7, Email: "kamala@organics.test"})
		}))
		defer srv.Close()

		c := NewClient(srv.URL, func() string { return "tok-123" })
		u, err := c.Me(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(7), u.ID)
		assert.Equal(t, "kamala@organics.test", u.Email)
	})

	t.Run("Expired token", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", http.StatusUnauthorized)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, func() string { return "stale" })
		_, err := c.Me(context.Background())
		assert.ErrorIs(t, err, ErrUnauthorized)
	})
}

func TestClient_CartCalls(t *testing.T) {
	var gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotBody = nil
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	variant := int64(44)

	t.Run("AddItem", func(t *testing.T) {
		require.NoError(t, c.AddItem(context.Background(), 7, &variant, 2))
		assert.Equal(t, "/carts/add_item/", gotPath)
		assert.Equal(t, float64(7), gotBody["product_id"])
		assert.Equal(t, float64(44), gotBody["variant_id"])
		assert.Equal(t, float64(2), gotBody["quantity"])
	})

	t.Run("AddItem without variant omits variant_id", func(t *testing.T) {
		require.NoError(t, c.AddItem(context.Background(), 7, nil, 1))
		_, present := gotBody["variant_id"]
		assert.False(t, present)
	})

	t.Run("SetQuantity", func(t *testing.T) {
		require.NoError(t, c.SetQuantity(context.Background(), 7, nil, 5))
		assert.Equal(t, "/carts/set_quantity/", gotPath)
		assert.Equal(t, float64(5), gotBody["quantity"])
	})

	t.Run("RemoveItem", func(t *testing.T) {
		require.NoError(t, c.RemoveItem(context.Background(), 7, &variant))
		assert.Equal(t, "/carts/remove_item/", gotPath)
		_, present := gotBody["quantity"]
		assert.False(t, present)
	})

	t.Run("SyncLines replace", func(t *testing.T) {
		require.NoError(t, c.SyncLines(context.Background(), nil, "replace"))
		assert.Equal(t, "/carts/sync/", gotPath)
		assert.Equal(t, "replace", gotBody["mode"])
		assert.Equal(t, []any{}, gotBody["lines"])
	})
}

func TestClient_Lines(t *testing.T) {
	t.Run("Results wrapper", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/carts/", r.URL.Path)
			w.Write([]byte(`{"results":[{"product_id":7,"quantity":2},{"product_id":9,"variant_id":3,"quantity":1}]}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, nil)
		lines, err := c.Lines(context.Background())
		require.NoError(t, err)
		require.Len(t, lines, 2)
		assert.Equal(t, int64(7), lines[0].ProductID)
		assert.Nil(t, lines[0].VariantID)
		require.NotNil(t, lines[1].VariantID)
		assert.Equal(t, int64(3), *lines[1].VariantID)
	})

	t.Run("Unexpected shape", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"detail":"teapot"}`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, nil)
		_, err := c.Lines(context.Background())
		assert.ErrorIs(t, err, ErrUnexpectedListShape)
	})
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, nil)
	err := c.AddItem(context.Background(), 1, nil, 1)
	assert.ErrorIs(t, err, ErrBadStatus)
}
