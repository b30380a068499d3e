// Package github provides an EndorsementPlatform implementation that
// checks whether an actor has starred a repository.
package github

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/go-github/v66/github"

	"github.com/Soulfra/soulfra-sub007/internal/infrastructure/config"
)

// maxStarPages caps pagination through an actor's starred repositories.
// Beyond this the answer is treated as "not endorsed" rather than
// scanning unbounded star lists.
const maxStarPages = 10

// Client implements ports.EndorsementPlatform against the GitHub API.
type Client struct {
	gh *github.Client
}

// NewClient creates a new GitHub endorsement client. An empty token uses
// unauthenticated access (lower rate limits).
func NewClient(cfg config.EndorsementConfig) *Client {
	gh := github.NewClient(nil)
	if cfg.Token != "" {
		gh = gh.WithAuthToken(cfg.Token)
	}
	return &Client{gh: gh}
}

// Query reports whether the actor has starred the namespace, given as a
// repository full name ("owner/repo"). Stars are public, so this reads
// the actor's starred list rather than requiring their authorization.
func (c *Client) Query(ctx context.Context, actorHandle, namespace string) (bool, error) {
	if !strings.Contains(namespace, "/") {
		return false, fmt.Errorf("namespace must be an owner/repo full name, got %q", namespace)
	}

	opts := &github.ActivityListStarredOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for page := 0; page < maxStarPages; page++ {
		starred, resp, err := c.gh.Activity.ListStarred(ctx, actorHandle, opts)
		if err != nil {
			return false, fmt.Errorf("listing starred repositories for %s: %w", actorHandle, err)
		}
		for _, star := range starred {
			if strings.EqualFold(star.GetRepository().GetFullName(), namespace) {
				return true, nil
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return false, nil
}
