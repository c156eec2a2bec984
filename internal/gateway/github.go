// Package gateway provides a gateway to the GitHub API,
// abstracting away the underlying REST and GraphQL clients.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v62/github"
	"github.com/shurcooL/githubv4"
	"go.uber.org/zap"

	"github.com/naka-gawa/github-devstats/internal/domain"
)

// Fetcher defines the behavior of a gateway for fetching information from GitHub.
type Fetcher interface {
	// SearchUsers returns the logins on one page of a user search.
	SearchUsers(ctx context.Context, query string, page, perPage int) ([]string, error)
	// FetchDeveloper returns the profile of a single user, without repositories.
	FetchDeveloper(ctx context.Context, login string) (*domain.Developer, error)
	// FetchRepositories returns one page of the repositories owned by a user.
	FetchRepositories(ctx context.Context, login string, page, perPage int) ([]domain.Repository, error)
	// FetchRateLimit returns the current GraphQL rate-limit budget.
	FetchRateLimit(ctx context.Context) (*RateLimitStatus, error)
}

// RateLimitError is returned when GitHub refuses a request because a rate limit
// is exhausted. Callers are expected to wait and retry the same request.
type RateLimitError struct {
	// ResetAt is when the primary limit window resets. Zero if unknown.
	ResetAt time.Time
	// RetryAfter is the server-provided delay for secondary limits. Zero if absent.
	RetryAfter time.Duration
	Err        error
}

func (e *RateLimitError) Error() string {
	if !e.ResetAt.IsZero() {
		return fmt.Sprintf("github rate limit exceeded, resets at %s: %v", e.ResetAt.Format(time.RFC3339), e.Err)
	}
	return fmt.Sprintf("github rate limit exceeded: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// Wait returns how long to suspend before retrying, measured from now.
// fallback is used when neither a retry-after nor a future reset time is known.
func (e *RateLimitError) Wait(now time.Time, fallback time.Duration) time.Duration {
	if e.RetryAfter > 0 {
		return e.RetryAfter
	}
	if !e.ResetAt.IsZero() {
		// One extra second so the request lands after the window has rolled over.
		if d := e.ResetAt.Sub(now) + time.Second; d > time.Second {
			return d
		}
	}
	return fallback
}

// RateLimitStatus is the GraphQL API budget for the authenticated token.
type RateLimitStatus struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	Cost      int       `json:"cost"`
	ResetAt   time.Time `json:"reset_at"`
}

// GitHubGateway is the concrete implementation of the Fetcher interface.
type GitHubGateway struct {
	restClient    *github.Client
	graphqlClient *githubv4.Client
	logger        *zap.Logger
}

// rateLimitQuery asks the GraphQL API for the remaining budget.
type rateLimitQuery struct {
	RateLimit struct {
		Limit     int
		Remaining int
		Cost      int
		ResetAt   githubv4.DateTime
	}
}

// NewGitHubGateway is a constructor that creates a new instance of GitHubGateway.
func NewGitHubGateway(token string, opts TransportOptions, logger *zap.Logger) (Fetcher, error) {
	httpClient, err := NewHTTPClient(token, opts)
	if err != nil {
		return nil, err
	}
	return &GitHubGateway{
		restClient:    github.NewClient(httpClient),
		graphqlClient: githubv4.NewClient(httpClient),
		logger:        logger,
	}, nil
}

// BuildUserQuery builds the search qualifier string for the location and follower filter.
func BuildUserQuery(location string, minFollowers int) string {
	location = strings.TrimSpace(location)
	if strings.ContainsAny(location, " \t") {
		location = `"` + location + `"`
	}
	return fmt.Sprintf("location:%s followers:>%d", location, minFollowers)
}

func (g *GitHubGateway) SearchUsers(ctx context.Context, query string, page, perPage int) ([]string, error) {
	opts := &github.SearchOptions{ListOptions: github.ListOptions{Page: page, PerPage: perPage}}
	result, _, err := g.restClient.Search.Users(ctx, query, opts)
	if err != nil {
		return nil, wrapError(err, "failed to search users")
	}
	logins := make([]string, 0, len(result.Users))
	for _, u := range result.Users {
		logins = append(logins, u.GetLogin())
	}
	g.logger.Debug("searched users",
		zap.String("query", query),
		zap.Int("page", page),
		zap.Int("items", len(logins)),
		zap.Int("total", result.GetTotal()))
	return logins, nil
}

func (g *GitHubGateway) FetchDeveloper(ctx context.Context, login string) (*domain.Developer, error) {
	user, _, err := g.restClient.Users.Get(ctx, login)
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("failed to fetch user %s", login))
	}
	return &domain.Developer{
		Login:       user.GetLogin(),
		Name:        user.GetName(),
		Company:     domain.CleanCompany(user.GetCompany()),
		Location:    user.GetLocation(),
		Email:       user.GetEmail(),
		Hireable:    user.GetHireable(),
		Bio:         user.GetBio(),
		PublicRepos: user.GetPublicRepos(),
		Followers:   user.GetFollowers(),
		Following:   user.GetFollowing(),
		CreatedAt:   user.GetCreatedAt().Time.UTC(),
	}, nil
}

func (g *GitHubGateway) FetchRepositories(ctx context.Context, login string, page, perPage int) ([]domain.Repository, error) {
	opts := &github.RepositoryListByUserOptions{
		Sort:        "pushed",
		Direction:   "desc",
		ListOptions: github.ListOptions{Page: page, PerPage: perPage},
	}
	repos, _, err := g.restClient.Repositories.ListByUser(ctx, login, opts)
	if err != nil {
		return nil, wrapError(err, fmt.Sprintf("failed to list repositories of %s", login))
	}
	out := make([]domain.Repository, 0, len(repos))
	for _, r := range repos {
		out = append(out, domain.Repository{
			Owner:       login,
			FullName:    r.GetFullName(),
			CreatedAt:   r.GetCreatedAt().Time.UTC(),
			Stars:       r.GetStargazersCount(),
			Watchers:    r.GetWatchersCount(),
			Language:    r.GetLanguage(),
			HasProjects: r.GetHasProjects(),
			HasWiki:     r.GetHasWiki(),
			License:     r.GetLicense().GetKey(),
		})
	}
	return out, nil
}

// FetchRateLimit queries the GraphQL rateLimit object.
func (g *GitHubGateway) FetchRateLimit(ctx context.Context) (*RateLimitStatus, error) {
	var q rateLimitQuery
	if err := g.graphqlClient.Query(ctx, &q, nil); err != nil {
		return nil, fmt.Errorf("failed to execute GraphQL query for rate limit: %w", err)
	}
	return &RateLimitStatus{
		Limit:     q.RateLimit.Limit,
		Remaining: q.RateLimit.Remaining,
		Cost:      q.RateLimit.Cost,
		ResetAt:   q.RateLimit.ResetAt.Time.UTC(),
	}, nil
}

// wrapError converts go-github rate limit errors into *RateLimitError and wraps
// everything else with msg.
func wrapError(err error, msg string) error {
	var primary *github.RateLimitError
	if errors.As(err, &primary) {
		return &RateLimitError{ResetAt: primary.Rate.Reset.Time, Err: err}
	}
	var secondary *github.AbuseRateLimitError
	if errors.As(err, &secondary) {
		return &RateLimitError{RetryAfter: secondary.GetRetryAfter(), Err: err}
	}
	var resp *github.ErrorResponse
	if errors.As(err, &resp) && resp.Response != nil && resp.Response.StatusCode == http.StatusTooManyRequests {
		return &RateLimitError{ResetAt: resetFromHeader(resp.Response.Header), Err: err}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
