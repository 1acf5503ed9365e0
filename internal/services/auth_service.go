package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/homeauto/mercedesme-api/internal/config"
	"github.com/homeauto/mercedesme-api/internal/constants"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// AuthService implements the vendor's OAuth2 flows: the scripted web login
// that yields the first token pair, and the refresh grant that keeps it
// alive afterwards.
type AuthService interface {
	Login(ctx context.Context) (*Token, error)
	Refresh(ctx context.Context, refreshToken string) (*Token, error)
}

type mercedesAuthService struct {
	Settings   *config.Settings
	HTTPClient *http.Client
	log        *zerolog.Logger
}

// NewMercedesAuthService builds the authenticator for the vendor's
// OAuth2/PKCE endpoint. The vendor has no documented non-browser login, so
// Login replays the browser form flow: it scrapes each returned HTML form,
// carries the hidden inputs forward and submits credentials the way the
// mobile app's embedded webview would.
func NewMercedesAuthService(settings *config.Settings, logger *zerolog.Logger) AuthService {
	jar, _ := cookiejar.New(nil)
	return &mercedesAuthService{
		Settings: settings,
		HTTPClient: &http.Client{
			Jar:     jar,
			Timeout: 30 * time.Second,
		},
		log: logger,
	}
}

func (a *mercedesAuthService) Login(ctx context.Context) (*Token, error) {
	verifier, err := randomVerifier()
	if err != nil {
		return nil, err
	}
	challenge := codeChallenge(verifier)

	// Step 1: the authorize call redirects to the login server, which
	// serves the credential form.
	authorizeURL := constants.OAuthBaseURL + "/authorize?" + url.Values{
		"response_type":         {"code"},
		"client_id":             {constants.OAuthClientID},
		"code_challenge":        {challenge},
		"code_challenge_method": {"S256"},
		"scope":                 {constants.OAuthScope},
		"redirect_uri":          {constants.OAuthRedirectURI},
	}.Encode()

	loginPage, err := a.get(ctx, authorizeURL, a.browserHeaders(""))
	if err != nil {
		return nil, errors.Wrap(err, "authorize request failed")
	}
	defer loginPage.Body.Close()

	// Step 1.5: collect the additional login-server cookies. Their
	// lifetime is short, so this must happen right away.
	sidestepURL := constants.LoginBaseURL + "/wl/third-party-cookie?app-id=" + constants.OAuthAPIID
	if resp, err := a.get(ctx, sidestepURL, nil); err == nil {
		resp.Body.Close()
	}

	_, form, err := formValues(loginPage.Body)
	if err != nil {
		return nil, err
	}
	form.Set("username", a.Settings.MercedesUsername)
	form.Set("password", a.Settings.MercedesPassword)

	// Step 2: submit credentials. The response is a page whose form is
	// normally auto-posted by javascript; step 3 rebuilds that post.
	loginURL := constants.LoginBaseURL + "/wl/login"
	consentPage, err := a.postForm(ctx, loginURL, form, a.browserHeaders(authorizeURL))
	if err != nil {
		return nil, errors.Wrap(err, "credential submit failed")
	}
	defer consentPage.Body.Close()

	_, consentForm, err := formValues(consentPage.Body)
	if err != nil {
		return nil, errors.Wrap(err, "login rejected, no consent form returned")
	}

	// Step 3: post the consent form without following the redirect; the
	// authorization code rides on the Location header.
	consentURL := constants.OAuthBaseURL + "/authorize/consent"
	noRedirect := *a.HTTPClient
	noRedirect.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, consentURL, strings.NewReader(consentForm.Encode()))
	if err != nil {
		return nil, err
	}
	for k, v := range a.browserHeaders(loginURL) {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	consentResp, err := noRedirect.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "consent request failed")
	}
	defer consentResp.Body.Close()

	if consentResp.StatusCode != http.StatusFound {
		return nil, errors.Errorf("expected consent redirect, got http %d", consentResp.StatusCode)
	}

	location, err := url.Parse(consentResp.Header.Get("Location"))
	if err != nil {
		return nil, errors.Wrap(err, "invalid consent redirect location")
	}
	code := location.Query().Get("code")
	if code == "" {
		return nil, errors.New("consent redirect carried no authorization code")
	}

	// Step 4: exchange the code for the bearer token.
	return a.requestToken(ctx, url.Values{
		"grant_type":    {"authorization_code"},
		"redirect_uri":  {constants.OAuthRedirectURI},
		"client_id":     {constants.OAuthClientID},
		"code_verifier": {verifier},
		"code":          {code},
	})
}

// Refresh exchanges a refresh token for a new access token. On failure the
// caller's prior token is untouched; on success the old refresh token is kept
// when the response omits a new one.
func (a *mercedesAuthService) Refresh(ctx context.Context, refreshToken string) (*Token, error) {
	token, err := a.requestToken(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"redirect_uri":  {constants.OAuthRedirectURI},
		"client_id":     {constants.OAuthClientID},
		"refresh_token": {refreshToken},
	})
	if err != nil {
		return nil, err
	}

	if token.RefreshToken == "" {
		token.RefreshToken = refreshToken
	}
	return token, nil
}

func (a *mercedesAuthService) requestToken(ctx context.Context, params url.Values) (*Token, error) {
	tokenURL := constants.OAuthBaseURL + "/token?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "okhttp/3.9.0")

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "token request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		a.log.Warn().
			Str("grantType", params.Get("grant_type")).
			Int("status", resp.StatusCode).
			Msg("Token endpoint rejected the request.")
		return nil, errors.Errorf("token endpoint returned http %d", resp.StatusCode)
	}

	token := new(Token)
	if err := json.NewDecoder(resp.Body).Decode(token); err != nil {
		return nil, errors.Wrap(err, "invalid token response")
	}
	if token.AccessToken == "" {
		return nil, errors.New("token response carried no access token")
	}
	if token.Scope == "" {
		token.Scope = constants.OAuthScope
	}

	return token, nil
}

func (a *mercedesAuthService) get(ctx context.Context, rawURL string, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return a.HTTPClient.Do(req)
}

func (a *mercedesAuthService) postForm(ctx context.Context, rawURL string, form url.Values, headers map[string]string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return a.HTTPClient.Do(req)
}

func (a *mercedesAuthService) browserHeaders(referer string) map[string]string {
	h := map[string]string{
		"Accept-Language":  a.Settings.AcceptLanguage,
		"X-Requested-With": "com.daimler.mm.android",
		"Accept":           "*/*",
		"User-Agent":       constants.AndroidUserAgent,
	}
	if referer != "" {
		h["Referer"] = referer
		h["Origin"] = constants.LoginBaseURL
		h["Cache-Control"] = "max-age=0"
	}
	return h
}

func randomVerifier() (string, error) {
	buf := make([]byte, 64)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "failed to generate code verifier")
	}
	return strings.TrimRight(base64.URLEncoding.EncodeToString(buf), "="), nil
}

func codeChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return strings.TrimRight(base64.URLEncoding.EncodeToString(sum[:]), "=")
}
