package clients

import (
	schoolerrors "github.com/jrsteele09/go-school-client/internal/errors"
	"github.com/jrsteele09/go-school-client/internal/utils"
)

type ClientType string

const (
	ClientTypeConfidential ClientType = "confidential" // Can keep secrets (server-side apps)
	ClientTypePublic       ClientType = "public"       // Cannot keep secrets (mobile apps, CLIs)
)

// ScopeOfflineAccess must be allowed for a client to receive refresh tokens.
const ScopeOfflineAccess = "offline_access"

type Client struct {
	ID          string     `json:"id"`
	Type        ClientType `json:"type"` // public or confidential
	Description string     `json:"description"`
	Secret      string     `json:"secret,omitempty"`
	Scopes      []string   `json:"scopes"` // Allowed scopes for this client
}

// IsPublic returns true if the client is a public client
func (c *Client) IsPublic() bool {
	return c.Type == ClientTypePublic
}

// HasScope checks if the client has permission for a specific scope
func (c *Client) HasScope(scope string) bool {
	return utils.Contains(c.Scopes, scope)
}

// ValidateScopes checks if all requested scopes are allowed for this client
func (c *Client) ValidateScopes(requestedScopes string) error {
	for _, scope := range utils.SplitScopes(requestedScopes) {
		if !c.HasScope(scope) {
			return schoolerrors.Wrapf(schoolerrors.ErrInvalidScope, "scope %q", scope)
		}
	}
	return nil
}

// Authenticate checks the secret of a confidential client. Public clients
// have nothing to check.
func (c *Client) Authenticate(secret string) error {
	if c.IsPublic() {
		return nil
	}
	if c.Secret == "" || c.Secret != secret {
		return schoolerrors.ErrInvalidClient
	}
	return nil
}
