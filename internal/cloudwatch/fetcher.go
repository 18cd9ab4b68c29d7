package cloudwatch

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/asimihsan/cwl-mount/internal/cache"
	"github.com/asimihsan/cwl-mount/internal/logger"
	"github.com/asimihsan/cwl-mount/internal/matcher"
	"github.com/asimihsan/cwl-mount/internal/metrics"
	"github.com/asimihsan/cwl-mount/internal/ratelimit"
	"github.com/asimihsan/cwl-mount/internal/tree"
)

// Fetcher implements C5: a rate-limited, cached, fan-out fetch of rendered
// log text for (matcher, time window), parameterized by a rate limiter, a
// fetch cache, and a log-service client.
type Fetcher struct {
	limiter *ratelimit.Limiter
	cache   *cache.Cache
	client  Client
	metrics *metrics.Handle
}

// NewFetcher builds a Fetcher over the given collaborators.
func NewFetcher(limiter *ratelimit.Limiter, c *cache.Cache, client Client) *Fetcher {
	return &Fetcher{limiter: limiter, cache: c, client: client}
}

// SetMetrics attaches a metrics.Handle to report cache hit/miss and fetch
// latency against. Optional; a nil Fetcher.metrics records nothing.
func (f *Fetcher) SetMetrics(m *metrics.Handle) {
	f.metrics = m
}

func (f *Fetcher) acquire(ctx context.Context) error {
	if f.metrics == nil {
		return f.limiter.Acquire(ctx)
	}
	start := time.Now()
	err := f.limiter.Acquire(ctx)
	f.metrics.RateLimiterWait.Observe(time.Since(start).Seconds())
	return err
}

// Fetch returns the rendered bytes for m over [start, end], consulting the
// cache first and, on miss, enumerating matching log groups, fanning out a
// paginated fetch per group, merging and rendering the result, then
// storing it back in the cache if the freshness gate allows.
func (f *Fetcher) Fetch(ctx context.Context, m matcher.Matcher, bounds tree.Bounds) ([]byte, error) {
	start := time.Now()
	key := cache.Key{Matcher: m.CacheKey(), Bounds: bounds}
	if cached, ok := f.cache.Get(key); ok {
		if f.metrics != nil {
			f.metrics.ObserveFetch(true, time.Since(start))
		}
		return cached, nil
	}
	if f.metrics != nil {
		defer func() { f.metrics.ObserveFetch(false, time.Since(start)) }()
	}

	groups, err := f.matchingLogGroups(ctx, m)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, &NoLogGroupsMatchFilterError{Pattern: m.Pattern()}
	}

	var (
		mu  sync.Mutex
		all []Event
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, group := range groups {
		group := group
		g.Go(func() error {
			events, err := f.fetchGroupEvents(gctx, group, bounds.Start, bounds.End)
			if err != nil {
				return &FilterLogEventsFailedError{Group: group, Underlying: err}
			}
			mu.Lock()
			all = append(all, events...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		logger.Errorf("fetch log events: %v", err)
		return nil, err
	}

	rendered := Render(all)

	if f.cache.Insertable(key) {
		f.cache.Put(key, rendered)
	}
	return rendered, nil
}

// matchingLogGroups enumerates all log-group names via paginated
// describe-log-groups calls (page size 50, one rate-limiter token per
// page), filtering by m.IsMatch.
func (f *Fetcher) matchingLogGroups(ctx context.Context, m matcher.Matcher) ([]string, error) {
	var matched []string
	token := ""
	for {
		if err := f.acquire(ctx); err != nil {
			return nil, &DescribeLogGroupsFailedError{Underlying: err}
		}
		names, next, err := f.client.DescribeLogGroupsPage(ctx, token)
		if err != nil {
			return nil, &DescribeLogGroupsFailedError{Underlying: err}
		}
		for _, name := range names {
			if m.IsMatch(name) {
				matched = append(matched, name)
			}
		}
		if next == "" {
			break
		}
		token = next
	}
	return matched, nil
}

// fetchGroupEvents paginates filter-log-events for one group (page size
// 10,000, one rate-limiter token per page) until the service stops
// returning a continuation token or an empty page.
func (f *Fetcher) fetchGroupEvents(ctx context.Context, group string, start, end time.Time) ([]Event, error) {
	var events []Event
	token := ""
	for {
		if err := f.acquire(ctx); err != nil {
			return nil, err
		}
		page, next, err := f.client.FilterLogEventsPage(ctx, group, start, end, token)
		if err != nil {
			return nil, err
		}
		events = append(events, page...)
		if next == "" || len(page) == 0 {
			break
		}
		token = next
	}
	return events, nil
}
