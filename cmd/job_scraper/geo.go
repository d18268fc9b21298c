package main

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/jonathan/job-scraper/internal/config"
	"github.com/jonathan/job-scraper/internal/geo"
)

// newResolver builds the country resolver from cfg. Without a geocode URL
// countries come from the location text alone; an unreachable Redis falls
// back to the in-memory cache.
func newResolver(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (*geo.Resolver, func(), error) {
	lookup := geo.NoLookup
	if cfg.Geocode.URL != "" {
		l, err := geo.NewHTTPLookup(geo.HTTPLookupOptions{
			Endpoint:       cfg.Geocode.URL,
			APIKey:         cfg.Geocode.APIKey,
			APIHost:        cfg.Geocode.APIHost,
			RequestsPerSec: cfg.Geocode.RequestsPerSec,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("geocoder: %w", err)
		}
		lookup = l
	} else {
		logger.Warn("No geocode URL configured; countries are taken from the location text only")
	}

	var opts []geo.ResolverOption
	cleanup := func() {}
	if cfg.RedisURL != "" {
		client, err := geo.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Warn("Redis unavailable, caching countries in memory")
		} else {
			opts = append(opts, geo.WithCache(geo.NewRedisCache(client, 0)))
			cleanup = func() { _ = client.Close() }
		}
	}

	return geo.NewResolver(lookup, logger, opts...), cleanup, nil
}
