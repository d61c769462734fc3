// Package discount looks up product discount percentages from the external discount service.
package discount

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// Lookup outcomes recorded in logs and metrics. Every outcome except OutcomeOK yields a zero discount.
const (
	OutcomeOK             = "ok"
	OutcomeNoDiscount     = "no_discount"
	OutcomeHTTPError      = "http_error"
	OutcomeTransportError = "transport_error"
	OutcomeDecodeError    = "decode_error"
	OutcomeOutOfRange     = "out_of_range"
)

const maxBodyBytes = 1 << 20

var hundred = decimal.NewFromInt(100)

// Fetcher returns the discount percentage for a product
type Fetcher interface {
	FetchDiscount(ctx context.Context, productID int64) decimal.Decimal
}

// Client calls GET {baseURL}/productId/{id}. Any failure degrades to a zero discount.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
	lookups    *prometheus.CounterVec
}

type discountResponse struct {
	Discount *decimal.Decimal `json:"discount"`
}

// NewClient creates a discount client and registers its lookup counter on reg
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger, reg prometheus.Registerer) (*Client, error) {
	lookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "product_api_discount_lookups_total",
		Help: "Discount service lookups by outcome.",
	}, []string{"outcome"})

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if err := reg.Register(lookups); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, fmt.Errorf("failed to register discount metrics: %w", err)
		}
		existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, fmt.Errorf("discount metrics: unexpected collector type %T", already.ExistingCollector)
		}
		lookups = existing
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger:  logger,
		lookups: lookups,
	}, nil
}

// FetchDiscount never returns an error: product enrichment must not fail because the discount
// service is unavailable.
func (c *Client) FetchDiscount(ctx context.Context, productID int64) decimal.Decimal {
	discount, outcome, err := c.fetch(ctx, productID)
	c.lookups.WithLabelValues(outcome).Inc()

	switch outcome {
	case OutcomeOK:
		return discount
	case OutcomeNoDiscount:
		c.logger.Debug("No discount available", zap.Int64("product_id", productID))
	default:
		c.logger.Warn("Discount lookup failed, using zero discount",
			zap.Int64("product_id", productID),
			zap.String("outcome", outcome),
			zap.Error(err),
		)
	}

	return decimal.Zero
}

func (c *Client) fetch(ctx context.Context, productID int64) (decimal.Decimal, string, error) {
	url := fmt.Sprintf("%s/productId/%d", c.baseURL, productID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return decimal.Zero, OutcomeTransportError, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID(ctx))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, OutcomeTransportError, fmt.Errorf("failed to call discount service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return decimal.Zero, OutcomeHTTPError, fmt.Errorf("discount service returned status %d", resp.StatusCode)
	}

	var body discountResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&body); err != nil {
		return decimal.Zero, OutcomeDecodeError, fmt.Errorf("failed to decode discount response: %w", err)
	}

	if body.Discount == nil || body.Discount.IsZero() {
		return decimal.Zero, OutcomeNoDiscount, nil
	}

	if body.Discount.IsNegative() || body.Discount.GreaterThan(hundred) {
		return decimal.Zero, OutcomeOutOfRange, fmt.Errorf("discount %s is outside 0-100", body.Discount)
	}

	return *body.Discount, OutcomeOK, nil
}

func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}
