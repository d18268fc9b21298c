package geo

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// trimSuffixLen is how many trailing runes the second lookup drops. Site
// locations sometimes end in a short suffix the geocoder does not recognize.
const trimSuffixLen = 2

// Resolver maps locations to countries: lookup of the full string, then of
// the string minus its last two runes, then the text after the last comma.
type Resolver struct {
	lookup Lookup
	cache  Cache
	group  singleflight.Group
	logger logrus.FieldLogger
}

// ResolverOption customizes a Resolver.
type ResolverOption func(*Resolver)

// WithCache memoizes results in c. Without it results are kept in memory.
func WithCache(c Cache) ResolverOption {
	return func(r *Resolver) { r.cache = c }
}

// NewResolver returns a Resolver backed by lookup.
func NewResolver(lookup Lookup, logger logrus.FieldLogger, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		lookup: lookup,
		cache:  NewMemoryCache(),
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type resolution struct {
	country string
	ok      bool
}

// Resolve returns the country for location, or ok false when every step of
// the chain comes up empty. Lookup and cache failures are logged, never returned.
func (r *Resolver) Resolve(ctx context.Context, location string) (string, bool) {
	location = strings.TrimSpace(location)
	if location == "" {
		return "", false
	}

	if country, ok, found, err := r.cache.Get(ctx, location); err != nil {
		r.logger.WithError(err).WithField("location", location).Warn("Country cache read failed")
	} else if found {
		return country, ok
	}

	v, _, _ := r.group.Do(location, func() (any, error) {
		country, ok, failed := r.chain(ctx, location)
		if failed {
			r.logger.WithField("location", location).Debug("Country not cached after a failed lookup")
		} else if ctx.Err() == nil {
			if err := r.cache.Set(ctx, location, country, ok); err != nil {
				r.logger.WithError(err).WithField("location", location).Warn("Country cache write failed")
			}
		}
		return resolution{country: country, ok: ok}, nil
	})
	res := v.(resolution)
	return res.country, res.ok
}

// chain runs the fallback steps for location. failed reports that a lookup
// broke in transit, so the answer may differ once the geocoder recovers.
func (r *Resolver) chain(ctx context.Context, location string) (country string, ok, failed bool) {
	country, ok, err := r.query(ctx, location)
	if ok {
		return country, true, false
	}
	failed = err != nil

	if runes := []rune(location); len(runes) > trimSuffixLen {
		trimmed := strings.TrimSpace(string(runes[:len(runes)-trimSuffixLen]))
		if trimmed != "" {
			c, hit, err := r.query(ctx, trimmed)
			if hit {
				return c, true, failed
			}
			failed = failed || err != nil
		}
	}

	if strings.Contains(location, ",") {
		if c := lastSegment(location); c != "" {
			r.logger.WithFields(logrus.Fields{"location": location, "country": c}).Debug("Country taken from location text")
			return c, true, failed
		}
	}

	r.logger.WithField("location", location).Info("Country could not be resolved")
	return "", false, failed
}

// query runs one lookup. A transport error counts as an empty result and is
// returned alongside it.
func (r *Resolver) query(ctx context.Context, q string) (string, bool, error) {
	results, err := r.lookup.Lookup(ctx, q)
	if err != nil {
		r.logger.WithError(err).WithField("query", q).Warn("Geocode lookup failed")
		return "", false, err
	}
	if len(results) == 0 {
		return "", false, nil
	}
	country := lastSegment(results[0].Name)
	return country, country != "", nil
}

func lastSegment(s string) string {
	parts := strings.Split(s, ",")
	return strings.TrimSpace(parts[len(parts)-1])
}
