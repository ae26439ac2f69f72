package etfholdings

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestClient_GetHolders(t *testing.T) {
	t.Run("decodes holders", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/api/v3/etf-holder/XLK", r.URL.Path)
			require.Equal(t, "secret", r.URL.Query().Get("apikey"))
			w.Write([]byte(`[
				{"asset":"AAPL","name":"Apple Inc","weightPercentage":22.1},
				{"asset":"MSFT","name":"Microsoft Corp","weightPercentage":21.4}
			]`))
		}))
		defer server.Close()

		c := Client{HttpClient: server.Client(), ApiKey: "secret", BaseURL: server.URL}
		holders, err := c.GetHolders(context.Background(), "XLK")
		require.NoError(t, err)

		require.Equal(
			t,
			"",
			cmp.Diff(
				[]Holder{
					{Asset: "AAPL", Name: "Apple Inc", WeightPercentage: 22.1},
					{Asset: "MSFT", Name: "Microsoft Corp", WeightPercentage: 21.4},
				},
				holders,
			),
		)
	})

	t.Run("surfaces api error message", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"Error Message":"Invalid API KEY."}`))
		}))
		defer server.Close()

		c := Client{HttpClient: server.Client(), BaseURL: server.URL}
		_, err := c.GetHolders(context.Background(), "XLK")
		require.ErrorContains(t, err, "status code 401: Invalid API KEY.")
	})

	t.Run("non json error body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			w.Write([]byte("bad gateway"))
		}))
		defer server.Close()

		c := Client{HttpClient: server.Client(), BaseURL: server.URL}
		_, err := c.GetHolders(context.Background(), "XLK")
		require.ErrorContains(t, err, "status code 502")
	})
}
