// Package school is a typed client for the school-management backend.
package school

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

var (
	// ErrMissingID is returned before any request when a path id is empty.
	ErrMissingID  = errors.New("missing id")
	ErrEmptyTitle = errors.New("announcement title is required")
)

// Requester is satisfied by *dispatch.Client.
type Requester interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, in, out any) error
	Put(ctx context.Context, path string, in, out any) error
}

type Client struct {
	api Requester
}

func New(api Requester) *Client {
	return &Client{api: api}
}

// resourcePath joins escaped segments, e.g. ("students", id, "fees").
// Every odd position is an id and must be non-empty.
func resourcePath(segments ...string) (string, error) {
	var b strings.Builder
	for i, s := range segments {
		if i%2 == 1 && strings.TrimSpace(s) == "" {
			return "", fmt.Errorf("%s: %w", segments[i-1], ErrMissingID)
		}
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}
	return b.String(), nil
}

func (c *Client) get(ctx context.Context, out any, segments ...string) error {
	path, err := resourcePath(segments...)
	if err != nil {
		return err
	}
	return c.api.Get(ctx, path, out)
}
