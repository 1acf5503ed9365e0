package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/homeauto/mercedesme-api/internal/config"
	"github.com/homeauto/mercedesme-api/internal/test"
)

func authTestService() AuthService {
	settings := &config.Settings{
		MercedesUsername: "user@example.com",
		MercedesPassword: "hunter2",
		AcceptLanguage:   "en-US",
		CountryCode:      "DE",
	}
	return NewMercedesAuthService(settings, test.Logger())
}

func TestAuthService_LoginFullChain(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	svc := authTestService()

	// Authorize serves the credential form.
	httpmock.RegisterResponder(http.MethodGet,
		`=~^https://api\.secure\.mercedes-benz\.com/oidc10/auth/oauth/v2/authorize\?`,
		httpmock.NewStringResponder(200,
			`<html><body><form action="/wl/login">
				<input type="hidden" name="sessionID" value="sess-1"/>
				<input type="text" name="username"/>
				<input type="password" name="password"/>
			</form></body></html>`))

	httpmock.RegisterResponder(http.MethodGet,
		"https://login.secure.mercedes-benz.com/wl/third-party-cookie?app-id=MCMAPP.FE_PROD",
		httpmock.NewStringResponder(200, ""))

	// The credential post returns the consent form with its hidden state.
	httpmock.RegisterResponder(http.MethodPost,
		"https://login.secure.mercedes-benz.com/wl/login",
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, req.ParseForm())
			assert.Equal(t, "user@example.com", req.PostForm.Get("username"))
			assert.Equal(t, "hunter2", req.PostForm.Get("password"))
			assert.Equal(t, "sess-1", req.PostForm.Get("sessionID"), "hidden inputs are carried over")
			assert.Contains(t, req.Header.Get("Referer"), "/oidc10/auth/oauth/v2/authorize")

			return httpmock.NewStringResponse(200,
				`<html><body><form action="https://api.secure.mercedes-benz.com/oidc10/auth/oauth/v2/authorize/consent">
					<input type="hidden" name="token" value="consent-token-1"/>
				</form></body></html>`), nil
		})

	// Consent redirects with the authorization code in the location.
	httpmock.RegisterResponder(http.MethodPost,
		"https://api.secure.mercedes-benz.com/oidc10/auth/oauth/v2/authorize/consent",
		func(req *http.Request) (*http.Response, error) {
			require.NoError(t, req.ParseForm())
			assert.Equal(t, "consent-token-1", req.PostForm.Get("token"))
			assert.Equal(t, "https://login.secure.mercedes-benz.com/wl/login", req.Header.Get("Referer"))

			resp := httpmock.NewStringResponse(302, "")
			resp.Header.Set("Location", "https://cgw.meapp.secure.mercedes-benz.com/endpoint/api/v1/redirect?code=auth-code-9")
			return resp, nil
		})

	httpmock.RegisterResponder(http.MethodPost,
		`=~^https://api\.secure\.mercedes-benz\.com/oidc10/auth/oauth/v2/token\?`,
		func(req *http.Request) (*http.Response, error) {
			q := req.URL.Query()
			assert.Equal(t, "authorization_code", q.Get("grant_type"))
			assert.Equal(t, "auth-code-9", q.Get("code"))
			assert.NotEmpty(t, q.Get("code_verifier"))

			return httpmock.NewStringResponse(200,
				`{"access_token": "at-1", "refresh_token": "rt-1", "token_type": "Bearer", "expires_in": 3600}`), nil
		})

	token, err := svc.Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "at-1", token.AccessToken)
	assert.Equal(t, "rt-1", token.RefreshToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), token.Expiry, time.Minute)
}

func TestAuthService_LoginRejectedCredentials(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	svc := authTestService()

	httpmock.RegisterResponder(http.MethodGet,
		`=~^https://api\.secure\.mercedes-benz\.com/oidc10/auth/oauth/v2/authorize\?`,
		httpmock.NewStringResponder(200,
			`<html><body><form action="/wl/login"><input name="username"/><input name="password"/></form></body></html>`))
	httpmock.RegisterResponder(http.MethodGet,
		"https://login.secure.mercedes-benz.com/wl/third-party-cookie?app-id=MCMAPP.FE_PROD",
		httpmock.NewStringResponder(200, ""))

	// A rejected login renders an error page with no form to carry forward.
	httpmock.RegisterResponder(http.MethodPost,
		"https://login.secure.mercedes-benz.com/wl/login",
		httpmock.NewStringResponder(200, `<html><body><p>Wrong password.</p></body></html>`))

	_, err := svc.Login(context.Background())
	assert.Error(t, err)
}

func TestAuthService_RefreshPreservesRefreshToken(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	svc := authTestService()

	httpmock.RegisterResponder(http.MethodPost,
		`=~^https://api\.secure\.mercedes-benz\.com/oidc10/auth/oauth/v2/token\?`,
		func(req *http.Request) (*http.Response, error) {
			q := req.URL.Query()
			assert.Equal(t, "refresh_token", q.Get("grant_type"))
			assert.Equal(t, "rt-old", q.Get("refresh_token"))

			// no refresh_token in the response
			return httpmock.NewStringResponse(200,
				`{"access_token": "at-2", "token_type": "Bearer", "expires_in": 3600}`), nil
		})

	token, err := svc.Refresh(context.Background(), "rt-old")
	require.NoError(t, err)
	assert.Equal(t, "at-2", token.AccessToken)
	assert.Equal(t, "rt-old", token.RefreshToken, "the previous refresh token survives when the response omits one")
}

func TestAuthService_RefreshRejected(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	svc := authTestService()

	httpmock.RegisterResponder(http.MethodPost,
		`=~^https://api\.secure\.mercedes-benz\.com/oidc10/auth/oauth/v2/token\?`,
		httpmock.NewStringResponder(401, `{"error": "invalid_grant"}`))

	_, err := svc.Refresh(context.Background(), "rt-dead")
	assert.Error(t, err)
}
