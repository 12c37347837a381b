package auth

import (
	"fmt"
	"time"

	"github.com/jrsteele09/go-school-client/clients"
	"github.com/jrsteele09/go-school-client/users"
)

const (
	DemoClientID = "school-app"
	DemoPassword = "correctpass"
)

// DemoUser describes one seeded account.
type DemoUser struct {
	ID        string
	Username  string
	FirstName string
	LastName  string
	Role      users.RoleType
}

// DemoUsers are the accounts SeedDemoData creates, one per school role.
var DemoUsers = []DemoUser{
	{ID: "T001", Username: "T001", FirstName: "Amani", LastName: "Njoroge", Role: users.RoleStudent},
	{ID: "P001", Username: "P001", FirstName: "Wanjiru", LastName: "Njoroge", Role: users.RoleParent},
	{ID: "F001", Username: "F001", FirstName: "Daniel", LastName: "Otieno", Role: users.RoleFaculty},
	{ID: "A001", Username: "A001", FirstName: "Grace", LastName: "Mutua", Role: users.RoleAdmin},
}

// SeedDemoData creates the public school-app client and the demo users if
// they do not exist yet. Every demo user has DemoPassword.
func SeedDemoData(repos Repos, clientID string, now func() time.Time) error {
	if clientID == "" {
		clientID = DemoClientID
	}
	if now == nil {
		now = time.Now
	}

	if _, err := repos.Clients.Get(clientID); err != nil {
		if err := repos.Clients.Upsert(&clients.Client{
			ID:          clientID,
			Type:        clients.ClientTypePublic,
			Description: "School mobile and command line client",
			Scopes:      []string{clients.ScopeOfflineAccess, "openid", "profile"},
		}); err != nil {
			return fmt.Errorf("[SeedDemoData] failed to create client: %w", err)
		}
	}

	passwordHash, err := users.HashPassword(DemoPassword)
	if err != nil {
		return fmt.Errorf("[SeedDemoData] failed to hash password: %w", err)
	}

	for _, du := range DemoUsers {
		if _, err := repos.Users.GetByID(du.ID); err == nil {
			continue
		}
		if err := repos.Users.Upsert(&users.User{
			ID:           du.ID,
			Username:     du.Username,
			Email:        fmt.Sprintf("%s@school.example", du.Username),
			PasswordHash: passwordHash,
			FirstName:    du.FirstName,
			LastName:     du.LastName,
			Roles:        []users.RoleType{du.Role},
			DateJoined:   now(),
			Verified:     true,
		}); err != nil {
			return fmt.Errorf("[SeedDemoData] failed to create user %s: %w", du.Username, err)
		}
	}
	return nil
}
