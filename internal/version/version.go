package version

import (
	"context"
	"fmt"
	"time"

	goversion "github.com/hashicorp/go-version"
	"github.com/nulzo/canteen-api/internal/httpclient"
	"go.uber.org/zap"
)

// Version is stamped at build time with -ldflags "-X .../internal/version.Version=v1.2.3".
var Version = "v0.0.0"

const DefaultAPIBaseURL = "https://api.github.com"

type release struct {
	TagName string `json:"tag_name"`
}

type Checker struct {
	client  httpclient.HTTPClient
	baseURL string
	repo    string
	current string
}

// NewChecker compares current against the latest release of repo ("owner/name").
func NewChecker(client httpclient.HTTPClient, baseURL, repo, current string) *Checker {
	if baseURL == "" {
		baseURL = DefaultAPIBaseURL
	}
	return &Checker{client: client, baseURL: baseURL, repo: repo, current: current}
}

// Latest returns the newest release tag and whether it is ahead of the running build.
func (c *Checker) Latest(ctx context.Context) (string, bool, error) {
	var rel release
	err := httpclient.Send(ctx, c.client, httpclient.Request{
		URL: fmt.Sprintf("%s/repos/%s/releases/latest", c.baseURL, c.repo),
	}, &rel)
	if err != nil {
		return "", false, err
	}

	current, err := goversion.NewVersion(c.current)
	if err != nil {
		return "", false, fmt.Errorf("bad current version %q: %w", c.current, err)
	}
	latest, err := goversion.NewVersion(rel.TagName)
	if err != nil {
		return "", false, fmt.Errorf("bad release tag %q: %w", rel.TagName, err)
	}

	return rel.TagName, current.LessThan(latest), nil
}

// Warn logs when a newer release exists. Failures are only logged at debug.
func (c *Checker) Warn(ctx context.Context, logger *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	latest, outdated, err := c.Latest(ctx)
	if err != nil {
		logger.Debug("Release check failed", zap.Error(err))
		return
	}
	if outdated {
		logger.Warn("A newer release is available",
			zap.String("running", c.current),
			zap.String("latest", latest),
		)
	}
}
