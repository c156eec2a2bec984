package cmd

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/naka-gawa/github-devstats/internal/config"
	"github.com/naka-gawa/github-devstats/internal/usecase"
)

func TestCollectOptions(t *testing.T) {
	cfg := config.Default()
	cfg.MaxRateLimitRetries = 3

	opts := collectOptions(&cfg)

	assert.Equal(t, usecase.CollectOptions{
		Location:              "Berlin",
		MinFollowers:          200,
		PerPage:               100,
		MaxRepos:              500,
		Workers:               5,
		RateLimitFallbackWait: time.Minute,
		MaxRateLimitRetries:   3,
	}, opts)
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	assert.True(t, names["collect"])
	assert.True(t, names["analyze"])
	assert.True(t, names["ratelimit"])
}
