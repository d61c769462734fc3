// Package status maps product status codes to display names.
package status

import (
	"context"
	"errors"
	"strconv"
	"time"

	"product-api/internal/domain"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long a resolved name stays cached
const DefaultTTL = 5 * time.Minute

const (
	NameInactive = "Inactive"
	NameActive   = "Active"
	NameUnknown  = "Unknown"
)

var names = map[int]string{
	domain.StatusInactive: NameInactive,
	domain.StatusActive:   NameActive,
}

// Resolver turns a status code into its display name
type Resolver interface {
	Resolve(ctx context.Context, status int) string
}

// Name is the uncached mapping. Codes outside the known set are "Unknown".
func Name(status int) string {
	if name, ok := names[status]; ok {
		return name
	}
	return NameUnknown
}

type cachedResolver struct {
	cache  Cache
	ttl    time.Duration
	group  singleflight.Group
	logger *zap.Logger
}

// NewCachedResolver creates a Resolver that caches each code for ttl
func NewCachedResolver(cache Cache, ttl time.Duration, logger *zap.Logger) Resolver {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &cachedResolver{
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// Resolve never fails: cache backend errors fall through to the pure mapping
func (r *cachedResolver) Resolve(ctx context.Context, status int) string {
	name, err := r.cache.Get(ctx, status)
	if err == nil {
		return name
	}
	if !errors.Is(err, ErrCacheMiss) {
		r.logger.Warn("Status cache read failed", zap.Int("status", status), zap.Error(err))
	}

	v, _, _ := r.group.Do(strconv.Itoa(status), func() (interface{}, error) {
		name := Name(status)
		if err := r.cache.Set(ctx, status, name, r.ttl); err != nil {
			r.logger.Warn("Status cache write failed", zap.Int("status", status), zap.Error(err))
		}
		return name, nil
	})

	return v.(string)
}
