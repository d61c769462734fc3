package discount

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newTestClient(t *testing.T, baseURL string) (*Client, *observer.ObservedLogs) {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	client, err := NewClient(baseURL, 2*time.Second, zap.New(core), prometheus.NewRegistry())
	require.NoError(t, err)
	return client, logs
}

func TestFetchDiscount_Success(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"discount": 10}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL+"/api/discounts/")

	got := client.FetchDiscount(context.Background(), 42)

	require.True(t, got.Equal(decimal.NewFromInt(10)), "got %s", got)
	require.Equal(t, "/api/discounts/productId/42", gotPath)
	require.Equal(t, float64(1), testutil.ToFloat64(client.lookups.WithLabelValues(OutcomeOK)))
}

func TestFetchDiscount_AcceptsQuotedDecimals(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"discount": "12.5"}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	got := client.FetchDiscount(context.Background(), 1)
	require.True(t, got.Equal(decimal.RequireFromString("12.5")), "got %s", got)
}

func TestFetchDiscount_FailsOpen(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		outcome string
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			outcome: OutcomeHTTPError,
		},
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"discount": 50}`))
			},
			outcome: OutcomeHTTPError,
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`not json`))
			},
			outcome: OutcomeDecodeError,
		},
		{
			name: "wrong type",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"discount": true}`))
			},
			outcome: OutcomeDecodeError,
		},
		{
			name: "missing field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{}`))
			},
			outcome: OutcomeNoDiscount,
		},
		{
			name: "explicit zero",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"discount": 0}`))
			},
			outcome: OutcomeNoDiscount,
		},
		{
			name: "above one hundred",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"discount": 150}`))
			},
			outcome: OutcomeOutOfRange,
		},
		{
			name: "negative",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"discount": -5}`))
			},
			outcome: OutcomeOutOfRange,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client, _ := newTestClient(t, server.URL)

			got := client.FetchDiscount(context.Background(), 7)

			require.True(t, got.IsZero(), "expected zero discount, got %s", got)
			require.Equal(t, float64(1), testutil.ToFloat64(client.lookups.WithLabelValues(tt.outcome)))
		})
	}
}

func TestFetchDiscount_UnreachableServiceIsLogged(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	client, logs := newTestClient(t, url)

	got := client.FetchDiscount(context.Background(), 3)

	require.True(t, got.IsZero())
	require.Equal(t, float64(1), testutil.ToFloat64(client.lookups.WithLabelValues(OutcomeTransportError)))

	entries := logs.FilterMessage("Discount lookup failed, using zero discount").All()
	require.Len(t, entries, 1)
	require.Equal(t, zapcore.WarnLevel, entries[0].Level)
	require.Equal(t, OutcomeTransportError, entries[0].ContextMap()["outcome"])
}

func TestFetchDiscount_ForwardsRequestID(t *testing.T) {
	var gotID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-ID")
		w.Write([]byte(`{"discount": 5}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-123")
	client.FetchDiscount(ctx, 1)
	require.Equal(t, "req-123", gotID)

	client.FetchDiscount(context.Background(), 1)
	require.NotEmpty(t, gotID)
	require.NotEqual(t, "req-123", gotID)
}

func TestNewClient_ReusesRegisteredCounter(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := NewClient("http://example.invalid", time.Second, zap.NewNop(), reg)
	require.NoError(t, err)
	second, err := NewClient("http://example.invalid", time.Second, zap.NewNop(), reg)
	require.NoError(t, err)

	require.Same(t, first.lookups, second.lookups)
}

func TestProperty_ServedDiscountsAreReturned(t *testing.T) {
	var served string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"discount": ` + served + `}`))
	}))
	defer server.Close()

	client, _ := newTestClient(t, server.URL)

	properties := gopter.NewProperties(nil)

	properties.Property("in-range discounts pass through unchanged", prop.ForAll(
		func(hundredths int64) bool {
			want := decimal.New(hundredths, -2)
			served = want.String()
			return client.FetchDiscount(context.Background(), 1).Equal(want)
		},
		gen.Int64Range(0, 10000),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}
