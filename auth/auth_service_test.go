package auth_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-school-client/auth"
	"github.com/jrsteele09/go-school-client/clients"
	fakeclientrepo "github.com/jrsteele09/go-school-client/clients/fakerepo"
	schoolerrors "github.com/jrsteele09/go-school-client/internal/errors"
	"github.com/jrsteele09/go-school-client/oauthmodel"
	"github.com/jrsteele09/go-school-client/token"
	"github.com/jrsteele09/go-school-client/token/refresh"
	refreshrepofake "github.com/jrsteele09/go-school-client/token/refresh/repofake"
	"github.com/jrsteele09/go-school-client/users"
	fakeuserrepo "github.com/jrsteele09/go-school-client/users/repofake"
	"github.com/stretchr/testify/require"
)

const (
	secretStr        = "1234"
	issuer           = "http://idp.test"
	testClientID     = "school-app"
	testUserID       = "T001"
	testUserPassword = "correctpass"
)

// testFixture holds all test dependencies
type testFixture struct {
	userRepo   users.UserRepo
	clientRepo clients.Repo
	tokens     *token.Manager
	refresh    *refresh.Manager
	service    *auth.Service
	now        time.Time
}

type testConfig struct{}

func (testConfig) GetRefreshTokenLength() int           { return 16 }
func (testConfig) GetRefreshTokenExpiry() time.Duration { return time.Hour }

// setupTestFixture creates a new test fixture with all dependencies
func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		userRepo:   fakeuserrepo.NewFakeUserRepo(),
		clientRepo: fakeclientrepo.NewFakeClientRepo(),
		now:        time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC),
	}
	nowFunc := func() time.Time { return f.now }

	f.tokens = token.New(token.NewHMACSigner(secretStr), token.WithNowFunc(nowFunc), token.WithAccessTokenExpiry(time.Hour))
	f.refresh = refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), testConfig{}, refresh.WithNowFunc(nowFunc))

	service, err := auth.NewService(auth.Repos{Users: f.userRepo, Clients: f.clientRepo}, f.tokens, f.refresh, auth.WithNowTime(nowFunc))
	require.NoError(t, err)
	f.service = service

	require.NoError(t, auth.SeedDemoData(auth.Repos{Users: f.userRepo, Clients: f.clientRepo}, testClientID, nowFunc))
	return f
}

func passwordRequest(username, password string) oauthmodel.TokenRequest {
	return oauthmodel.TokenRequest{
		GrantType: oauthmodel.PasswordGrant,
		ClientID:  testClientID,
		Username:  username,
		Password:  password,
		Scope:     clients.ScopeOfflineAccess,
	}
}

func refreshRequest(refreshToken string) oauthmodel.TokenRequest {
	return oauthmodel.TokenRequest{
		GrantType:    oauthmodel.RefreshTokenGrant,
		ClientID:     testClientID,
		RefreshToken: refreshToken,
	}
}

func TestNewService_MissingDependencies(t *testing.T) {
	tokens := token.New(token.NewHMACSigner(secretStr))
	rm := refresh.NewManager(refreshrepofake.NewFakeRefreshTokenRepo(), nil)
	repos := auth.Repos{Users: fakeuserrepo.NewFakeUserRepo(), Clients: fakeclientrepo.NewFakeClientRepo()}

	_, err := auth.NewService(auth.Repos{Clients: repos.Clients}, tokens, rm)
	require.Error(t, err)
	_, err = auth.NewService(auth.Repos{Users: repos.Users}, tokens, rm)
	require.Error(t, err)
	_, err = auth.NewService(repos, nil, rm)
	require.Error(t, err)
	_, err = auth.NewService(repos, tokens, nil)
	require.Error(t, err)

	s, err := auth.NewService(repos, tokens, rm)
	require.NoError(t, err)
	require.NotNil(t, s)
}

func TestToken_PasswordGrantSuccess(t *testing.T) {
	f := setupTestFixture(t)

	resp, err := f.service.Token(passwordRequest(testUserID, testUserPassword), issuer)
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.NotEmpty(t, resp.RefreshToken)
	require.Equal(t, oauthmodel.TokenTypeBearer, resp.TokenType)
	require.Equal(t, int64(3600), resp.ExpiresIn)

	introspection, err := f.tokens.Verify(resp.AccessToken)
	require.NoError(t, err)
	require.True(t, introspection.Active)
	require.Equal(t, testUserID, introspection.UserID)
	require.Equal(t, issuer, introspection.Iss)
	require.Equal(t, []string{"student"}, introspection.Roles)
	require.Equal(t, f.now.Add(time.Hour).Unix(), introspection.Exp)

	user, err := f.userRepo.GetByID(testUserID)
	require.NoError(t, err)
	require.Equal(t, f.now, user.LastLogin)
}

func TestToken_PasswordGrantWithoutOfflineAccess(t *testing.T) {
	f := setupTestFixture(t)

	req := passwordRequest(testUserID, testUserPassword)
	req.Scope = ""
	resp, err := f.service.Token(req, issuer)
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
	require.Empty(t, resp.RefreshToken)
}

func TestToken_InvalidPassword(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Token(passwordRequest(testUserID, "wrongpass"), issuer)
	require.ErrorIs(t, err, schoolerrors.ErrInvalidCredentials)

	code, status := oauthmodel.ErrorCode(err)
	require.Equal(t, oauthmodel.ErrorInvalidGrant, code)
	require.Equal(t, 400, status)
}

func TestToken_UnknownUser(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Token(passwordRequest("nobody", testUserPassword), issuer)
	require.ErrorIs(t, err, schoolerrors.ErrInvalidCredentials)
}

func TestToken_BlockedAndUnverifiedUsers(t *testing.T) {
	f := setupTestFixture(t)

	user, err := f.userRepo.GetByID(testUserID)
	require.NoError(t, err)
	user.Blocked = true
	require.NoError(t, f.userRepo.Upsert(user))

	_, err = f.service.Token(passwordRequest(testUserID, testUserPassword), issuer)
	require.ErrorIs(t, err, schoolerrors.ErrUserBlocked)

	user.Blocked = false
	user.Verified = false
	require.NoError(t, f.userRepo.Upsert(user))

	_, err = f.service.Token(passwordRequest(testUserID, testUserPassword), issuer)
	require.ErrorIs(t, err, schoolerrors.ErrUserNotVerified)
}

func TestToken_InvalidClient(t *testing.T) {
	f := setupTestFixture(t)

	req := passwordRequest(testUserID, testUserPassword)
	req.ClientID = "unknown-client"
	_, err := f.service.Token(req, issuer)
	require.ErrorIs(t, err, schoolerrors.ErrInvalidClient)

	code, status := oauthmodel.ErrorCode(err)
	require.Equal(t, oauthmodel.ErrorInvalidClient, code)
	require.Equal(t, 401, status)
}

func TestToken_InvalidScope(t *testing.T) {
	f := setupTestFixture(t)

	req := passwordRequest(testUserID, testUserPassword)
	req.Scope = "offline_access admin:everything"
	_, err := f.service.Token(req, issuer)
	require.ErrorIs(t, err, schoolerrors.ErrInvalidScope)
}

func TestToken_UnsupportedGrantType(t *testing.T) {
	f := setupTestFixture(t)

	req := passwordRequest(testUserID, testUserPassword)
	req.GrantType = "client_credentials"
	_, err := f.service.Token(req, issuer)
	require.ErrorIs(t, err, schoolerrors.ErrUnsupportedGrantType)

	code, _ := oauthmodel.ErrorCode(err)
	require.Equal(t, oauthmodel.ErrorUnsupportedGrantType, code)
}

func TestToken_MissingParameters(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.Token(passwordRequest(testUserID, ""), issuer)
	require.ErrorIs(t, err, schoolerrors.ErrMissingRequiredParam)

	_, err = f.service.Token(refreshRequest(""), issuer)
	require.ErrorIs(t, err, schoolerrors.ErrMissingRequiredParam)

	code, status := oauthmodel.ErrorCode(err)
	require.Equal(t, oauthmodel.ErrorInvalidRequest, code)
	require.Equal(t, 400, status)
}

func TestRefreshToken_RotatesToken(t *testing.T) {
	f := setupTestFixture(t)

	first, err := f.service.Token(passwordRequest(testUserID, testUserPassword), issuer)
	require.NoError(t, err)

	f.now = f.now.Add(30 * time.Minute)
	second, err := f.service.Token(refreshRequest(first.RefreshToken), issuer)
	require.NoError(t, err)
	require.NotEmpty(t, second.AccessToken)
	require.NotEqual(t, first.AccessToken, second.AccessToken)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)

	// The old refresh token is single use.
	_, err = f.service.Token(refreshRequest(first.RefreshToken), issuer)
	require.ErrorIs(t, err, schoolerrors.ErrInvalidRefreshToken)

	third, err := f.service.Token(refreshRequest(second.RefreshToken), issuer)
	require.NoError(t, err)
	require.NotEmpty(t, third.RefreshToken)
}

func TestRefreshToken_Expired(t *testing.T) {
	f := setupTestFixture(t)

	resp, err := f.service.Token(passwordRequest(testUserID, testUserPassword), issuer)
	require.NoError(t, err)

	f.now = f.now.Add(2 * time.Hour)
	_, err = f.service.Token(refreshRequest(resp.RefreshToken), issuer)
	require.ErrorIs(t, err, schoolerrors.ErrRefreshTokenExpired)

	// Expired tokens are removed.
	_, err = f.service.Token(refreshRequest(resp.RefreshToken), issuer)
	require.ErrorIs(t, err, schoolerrors.ErrInvalidRefreshToken)
}

func TestRefreshToken_BlockedUser(t *testing.T) {
	f := setupTestFixture(t)

	resp, err := f.service.Token(passwordRequest(testUserID, testUserPassword), issuer)
	require.NoError(t, err)

	user, err := f.userRepo.GetByID(testUserID)
	require.NoError(t, err)
	user.Blocked = true
	require.NoError(t, f.userRepo.Upsert(user))

	_, err = f.service.Token(refreshRequest(resp.RefreshToken), issuer)
	require.ErrorIs(t, err, schoolerrors.ErrUserBlocked)
}

func TestRefreshToken_WrongClient(t *testing.T) {
	f := setupTestFixture(t)

	require.NoError(t, f.clientRepo.Upsert(&clients.Client{
		ID:     "other-app",
		Type:   clients.ClientTypePublic,
		Scopes: []string{clients.ScopeOfflineAccess},
	}))

	resp, err := f.service.Token(passwordRequest(testUserID, testUserPassword), issuer)
	require.NoError(t, err)

	req := refreshRequest(resp.RefreshToken)
	req.ClientID = "other-app"
	_, err = f.service.Token(req, issuer)
	require.ErrorIs(t, err, schoolerrors.ErrInvalidGrant)
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	f := setupTestFixture(t)

	resp, err := f.service.Token(passwordRequest(testUserID, testUserPassword), issuer)
	require.NoError(t, err)

	require.NoError(t, f.service.Logout(testClientID, "", resp.RefreshToken))

	_, err = f.service.Token(refreshRequest(resp.RefreshToken), issuer)
	require.ErrorIs(t, err, schoolerrors.ErrInvalidRefreshToken)

	// Repeated logout is not an error.
	require.NoError(t, f.service.Logout(testClientID, "", resp.RefreshToken))
}

func TestLogout_InvalidClient(t *testing.T) {
	f := setupTestFixture(t)

	err := f.service.Logout("unknown-client", "", "token")
	require.ErrorIs(t, err, schoolerrors.ErrInvalidClient)

	err = f.service.Logout(testClientID, "", "")
	require.ErrorIs(t, err, schoolerrors.ErrMissingRequiredParam)
}

func TestConfidentialClient_RequiresSecret(t *testing.T) {
	f := setupTestFixture(t)

	require.NoError(t, f.clientRepo.Upsert(&clients.Client{
		ID:     "portal",
		Type:   clients.ClientTypeConfidential,
		Secret: "portal-secret",
		Scopes: []string{clients.ScopeOfflineAccess},
	}))

	req := passwordRequest(testUserID, testUserPassword)
	req.ClientID = "portal"
	_, err := f.service.Token(req, issuer)
	require.ErrorIs(t, err, schoolerrors.ErrInvalidClient)

	req.ClientSecret = "portal-secret"
	resp, err := f.service.Token(req, issuer)
	require.NoError(t, err)
	require.NotEmpty(t, resp.AccessToken)
}

func TestUserInfo_Success(t *testing.T) {
	f := setupTestFixture(t)

	resp, err := f.service.Token(passwordRequest("F001", testUserPassword), issuer)
	require.NoError(t, err)

	info, err := f.service.UserInfo(resp.AccessToken)
	require.NoError(t, err)
	require.Equal(t, "F001", info["sub"])
	require.Equal(t, "F001", info["userId"])
	require.Equal(t, "Daniel Otieno", info["name"])
	require.Equal(t, []string{"faculty"}, info["roles"])
}

func TestUserInfo_InvalidToken(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.service.UserInfo("not-a-jwt")
	require.ErrorIs(t, err, schoolerrors.ErrInvalidToken)

	_, err = f.service.UserInfo("")
	require.ErrorIs(t, err, schoolerrors.ErrInvalidToken)
}

func TestUserInfo_ExpiredToken(t *testing.T) {
	f := setupTestFixture(t)

	resp, err := f.service.Token(passwordRequest(testUserID, testUserPassword), issuer)
	require.NoError(t, err)

	f.now = f.now.Add(2 * time.Hour)
	_, err = f.service.UserInfo(resp.AccessToken)
	require.ErrorIs(t, err, schoolerrors.ErrTokenExpired)

	code, status := oauthmodel.ErrorCode(err)
	require.Equal(t, oauthmodel.ErrorInvalidToken, code)
	require.Equal(t, 401, status)
}

func TestUserInfo_BlockedUser(t *testing.T) {
	f := setupTestFixture(t)

	resp, err := f.service.Token(passwordRequest(testUserID, testUserPassword), issuer)
	require.NoError(t, err)

	user, err := f.userRepo.GetByID(testUserID)
	require.NoError(t, err)
	user.Blocked = true
	require.NoError(t, f.userRepo.Upsert(user))

	_, err = f.service.UserInfo(resp.AccessToken)
	require.ErrorIs(t, err, schoolerrors.ErrInvalidToken)
}

func TestSeedDemoData_Idempotent(t *testing.T) {
	f := setupTestFixture(t)

	require.NoError(t, auth.SeedDemoData(auth.Repos{Users: f.userRepo, Clients: f.clientRepo}, testClientID, nil))

	list, err := f.userRepo.List(0, 100)
	require.NoError(t, err)
	require.Len(t, list, len(auth.DemoUsers))

	client, err := f.clientRepo.Get(testClientID)
	require.NoError(t, err)
	require.True(t, client.IsPublic())
	require.True(t, client.HasScope(clients.ScopeOfflineAccess))
}
