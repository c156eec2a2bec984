// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/naka-gawa/github-devstats/internal/domain"
	"github.com/naka-gawa/github-devstats/internal/gateway"
)

// searchResultWindow is the number of results the search API exposes per query.
const searchResultWindow = 1000

// CollectOptions controls which developers are collected and how.
type CollectOptions struct {
	Location     string
	MinFollowers int
	PerPage      int
	// MaxRepos caps the repositories fetched per developer. Zero means no cap.
	MaxRepos int
	// Workers is the number of developers fetched concurrently. Values below 1 mean 1.
	Workers int
	// RateLimitFallbackWait is used when a rate limit carries no usable reset time.
	RateLimitFallbackWait time.Duration
	// MaxRateLimitRetries bounds consecutive rate-limit waits for one request. Zero means unbounded.
	MaxRateLimitRetries int
}

// Collector is the use case for collecting developers and their repositories.
type Collector struct {
	fetcher gateway.Fetcher
	opts    CollectOptions
	logger  *zap.Logger

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewCollector creates a new Collector instance.
func NewCollector(fetcher gateway.Fetcher, opts CollectOptions, logger *zap.Logger) *Collector {
	if opts.PerPage <= 0 {
		opts.PerPage = 100
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.RateLimitFallbackWait <= 0 {
		opts.RateLimitFallbackWait = time.Minute
	}
	return &Collector{
		fetcher: fetcher,
		opts:    opts,
		logger:  logger,
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// Collect searches for matching developers and fetches each one's profile and repositories.
// The result is ordered as the search API returned the users. Any error other than a
// rate limit aborts the whole collection.
func (c *Collector) Collect(ctx context.Context) ([]*domain.Developer, error) {
	c.logger.Info("starting collection",
		zap.String("location", c.opts.Location),
		zap.Int("min_followers", c.opts.MinFollowers))

	if status, err := c.fetcher.FetchRateLimit(ctx); err != nil {
		c.logger.Warn("could not read rate limit status", zap.Error(err))
	} else {
		c.logger.Info("rate limit status",
			zap.Int("remaining", status.Remaining),
			zap.Int("limit", status.Limit),
			zap.Time("reset_at", status.ResetAt))
	}

	logins, err := c.searchLogins(ctx)
	if err != nil {
		return nil, err
	}
	c.logger.Info("found users", zap.Int("count", len(logins)))

	results := make([]*domain.Developer, len(logins))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.opts.Workers)
	for i, login := range logins {
		i, login := i, login
		eg.Go(func() error {
			dev, err := c.collectDeveloper(egCtx, login)
			if err != nil {
				return err
			}
			results[i] = dev
			c.logger.Debug("collected developer", zap.Int("index", i+1), zap.Int("of", len(logins)), zap.String("login", login))
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	developers := make([]*domain.Developer, 0, len(results))
	for _, dev := range results {
		if dev != nil {
			developers = append(developers, dev)
		}
	}
	c.logger.Info("collection complete", zap.Int("developers", len(developers)))
	return developers, nil
}

// searchLogins pages through the user search until an empty page.
func (c *Collector) searchLogins(ctx context.Context) ([]string, error) {
	query := gateway.BuildUserQuery(c.opts.Location, c.opts.MinFollowers)
	var logins []string
	for page := 1; ; page++ {
		var items []string
		err := c.withRateLimitRetry(ctx, "search users", func() error {
			var err error
			items, err = c.fetcher.SearchUsers(ctx, query, page, c.opts.PerPage)
			return err
		})
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			break
		}
		logins = append(logins, items...)
		if page*c.opts.PerPage >= searchResultWindow {
			c.logger.Warn("search API only exposes the first 1000 results", zap.String("query", query))
			break
		}
	}
	return logins, nil
}

// collectDeveloper returns nil when the profile does not satisfy the filter.
func (c *Collector) collectDeveloper(ctx context.Context, login string) (*domain.Developer, error) {
	var dev *domain.Developer
	err := c.withRateLimitRetry(ctx, "fetch user "+login, func() error {
		var err error
		dev, err = c.fetcher.FetchDeveloper(ctx, login)
		return err
	})
	if err != nil {
		return nil, err
	}
	if dev.Followers <= c.opts.MinFollowers || !domain.MatchesLocation(dev.Location, c.opts.Location) {
		c.logger.Debug("skipping user outside the filter",
			zap.String("login", login),
			zap.String("location", dev.Location),
			zap.Int("followers", dev.Followers))
		return nil, nil
	}

	repos, err := c.collectRepositories(ctx, login)
	if err != nil {
		return nil, err
	}
	dev.Repositories = repos
	return dev, nil
}

func (c *Collector) collectRepositories(ctx context.Context, login string) ([]domain.Repository, error) {
	repos := []domain.Repository{}
	for page := 1; ; page++ {
		var items []domain.Repository
		err := c.withRateLimitRetry(ctx, "list repositories of "+login, func() error {
			var err error
			items, err = c.fetcher.FetchRepositories(ctx, login, page, c.opts.PerPage)
			return err
		})
		if err != nil {
			return nil, err
		}
		repos = append(repos, items...)
		if len(items) < c.opts.PerPage {
			break
		}
		if c.opts.MaxRepos > 0 && len(repos) >= c.opts.MaxRepos {
			break
		}
	}
	if c.opts.MaxRepos > 0 && len(repos) > c.opts.MaxRepos {
		repos = repos[:c.opts.MaxRepos]
	}
	return repos, nil
}

// withRateLimitRetry runs fn and, while it fails with a rate limit, waits for the
// limit window to reset and runs it again.
func (c *Collector) withRateLimitRetry(ctx context.Context, what string, fn func() error) error {
	for attempt := 1; ; attempt++ {
		err := fn()
		var rateErr *gateway.RateLimitError
		if !errors.As(err, &rateErr) {
			return err
		}
		if c.opts.MaxRateLimitRetries > 0 && attempt > c.opts.MaxRateLimitRetries {
			return fmt.Errorf("failed to %s after %d rate limit waits: %w", what, attempt-1, err)
		}
		wait := rateErr.Wait(c.now(), c.opts.RateLimitFallbackWait)
		c.logger.Warn("rate limit hit, waiting for reset",
			zap.String("call", what),
			zap.Duration("wait", wait),
			zap.Int("attempt", attempt))
		if err := c.sleep(ctx, wait); err != nil {
			return fmt.Errorf("interrupted while waiting for rate limit reset: %w", err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
