package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/homeauto/mercedesme-api/internal/config"
	"github.com/homeauto/mercedesme-api/internal/constants"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
)

// MercedesAPIService talks to the vendor's REST backends. It is the only
// place that knows URLs and headers; callers deal in documents and statuses.
type MercedesAPIService interface {
	GetAccountVehicles(ctx context.Context) ([]AccountVehicle, error)
	GetFeatures(ctx context.Context, fin string) (FeatureSet, error)
	GetDynamicStatus(ctx context.Context, fin string) ([]byte, error)
	GetLocation(ctx context.Context, fin string) ([]byte, error)
	SendCommand(ctx context.Context, fin, path, pin string, body []byte) (string, error)
	PollCommand(ctx context.Context, fin, path string) (string, error)
}

// AccountVehicle is one entry of the account status document.
type AccountVehicle struct {
	FIN          string `json:"fin"`
	LicensePlate string `json:"licensePlate"`
	VehicleTitle string `json:"vehicleTitle"`
}

type accountStatusResponse struct {
	Vehicles []AccountVehicle `json:"vehicles"`
}

type mercedesAPIService struct {
	Settings    *config.Settings
	HTTPClient  *http.Client
	tokens      *TokenStore
	log         *zerolog.Logger
	vehicleBase string
	userBase    string
}

// NewMercedesAPIService builds the raw vendor API client. All calls share one
// http client and obtain their bearer through the token store, so a refresh
// decided anywhere is visible everywhere.
func NewMercedesAPIService(settings *config.Settings, tokens *TokenStore, logger *zerolog.Logger) MercedesAPIService {
	region := constants.RegionSuffix(settings.CountryCode)
	return &mercedesAPIService{
		Settings:    settings,
		HTTPClient:  &http.Client{},
		tokens:      tokens,
		log:         logger,
		vehicleBase: constants.VehicleAPIBaseURL(region),
		userBase:    constants.UserAPIBaseURL(region),
	}
}

// GetAccountVehicles lists the vehicles owned by the authenticated account,
// in the order the backend reports them.
func (m *mercedesAPIService) GetAccountVehicles(ctx context.Context) ([]AccountVehicle, error) {
	body, err := m.authedRequest(ctx, http.MethodGet, m.userBase+"/api/v2/appdata", nil, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to fetch account vehicles")
	}
	m.debugDump("mercedesme_status.json", body)

	status := new(accountStatusResponse)
	if err := json.Unmarshal(body, status); err != nil {
		return nil, errors.Wrap(err, "invalid account status document")
	}

	return status.Vehicles, nil
}

// GetFeatures fetches the capability enablements for one vehicle. Names are
// lower-cased; a capability counts as enabled only when the backend reports
// the ACTIVATED sentinel.
func (m *mercedesAPIService) GetFeatures(ctx context.Context, fin string) (FeatureSet, error) {
	url := fmt.Sprintf("%s/api/v2/dashboarddata/%s/vehicle", m.userBase, fin)
	body, err := m.authedRequest(ctx, http.MethodGet, url, nil, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch features for %s", fin)
	}
	m.debugDump(fmt.Sprintf("feat_%s.json", fin), body)

	var doc struct {
		Metadata struct {
			FeatureEnablements []struct {
				Name       string `json:"name"`
				Enablement string `json:"enablement"`
			} `json:"featureEnablements"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, errors.Wrapf(err, "invalid feature document for %s", fin)
	}

	features := make(FeatureSet, len(doc.Metadata.FeatureEnablements))
	for _, fe := range doc.Metadata.FeatureEnablements {
		features[strings.ToLower(fe.Name)] = fe.Enablement == constants.FeatureEnablementActivated
	}

	return features, nil
}

// GetDynamicStatus fetches the full telemetry document for one vehicle,
// forcing the backend to refresh its server-side cache.
func (m *mercedesAPIService) GetDynamicStatus(ctx context.Context, fin string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/dynamic?forceRefresh=true", m.vehicleBase, fin)
	body, err := m.authedRequest(ctx, http.MethodGet, url, nil, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch dynamic status for %s", fin)
	}
	m.debugDump(fmt.Sprintf("state_%s.json", fin), body)

	return body, nil
}

// GetLocation fetches the current vehicle position. This lives on its own
// endpoint, not in the dynamic status document.
func (m *mercedesAPIService) GetLocation(ctx context.Context, fin string) ([]byte, error) {
	url := fmt.Sprintf("%s/%s/location", m.vehicleBase, fin)
	headers := map[string]string{"lat": "1", "lon": "1"}
	body, err := m.authedRequest(ctx, http.MethodGet, url, headers, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch location for %s", fin)
	}

	return body, nil
}

// SendCommand issues a remote command and returns the backend's immediate
// status (typically PENDING). pin and body are optional.
func (m *mercedesAPIService) SendCommand(ctx context.Context, fin, path, pin string, body []byte) (string, error) {
	url := fmt.Sprintf("%s/%s/%s", m.vehicleBase, fin, path)

	var headers map[string]string
	if pin != "" {
		headers = map[string]string{"x-pin": pin}
	}

	respBody, err := m.authedRequest(ctx, http.MethodPost, url, headers, body)
	if err != nil {
		return "", errors.Wrapf(err, "command %s failed for %s", path, fin)
	}

	return gjson.GetBytes(respBody, "status").String(), nil
}

// PollCommand re-checks a previously issued command on the same endpoint.
func (m *mercedesAPIService) PollCommand(ctx context.Context, fin, path string) (string, error) {
	url := fmt.Sprintf("%s/%s/%s", m.vehicleBase, fin, path)
	respBody, err := m.authedRequest(ctx, http.MethodGet, url, nil, nil)
	if err != nil {
		return "", errors.Wrapf(err, "command poll %s failed for %s", path, fin)
	}

	return gjson.GetBytes(respBody, "status").String(), nil
}

// authedRequest performs one authenticated round-trip. The token store is
// consulted first so an expired token is refreshed before the request goes
// out; when the refresh fails the stale token is sent anyway and the backend
// response surfaces the failure.
func (m *mercedesAPIService) authedRequest(ctx context.Context, method, url string, headers map[string]string, body []byte) ([]byte, error) {
	access, err := m.tokens.Access(ctx)
	if err != nil {
		if errors.Is(err, ErrNoToken) {
			return nil, err
		}
		m.log.Warn().Err(err).Str("url", url).Msg("Proceeding with stale token after failed refresh.")
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctxTimeout, method, url, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+access)
	req.Header.Set("Accept-Language", m.Settings.AcceptLanguage)
	req.Header.Set("country_code", m.Settings.CountryCode)
	req.Header.Set("User-Agent", constants.AppUserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "error calling mercedes api")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("mercedes api returned http %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// debugDump writes a raw vendor document to the configured directory. Used
// for reverse-engineering new attributes; off unless configured.
func (m *mercedesAPIService) debugDump(name string, body []byte) {
	if m.Settings.DebugSaveDirectory == "" {
		return
	}
	path := filepath.Join(m.Settings.DebugSaveDirectory, name)
	if err := os.WriteFile(path, body, 0o644); err != nil {
		m.log.Warn().Err(err).Str("path", path).Msg("Could not write debug dump.")
	}
}
