// Package bridge issues the entry URL for the embedded web surface. It
// exchanges a time-boxed identity payload for a one-time bridging token so
// the web app starts already authenticated as the active user, and degrades
// to a non-bridged URL when the exchange cannot be completed.
package bridge

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/vmedis/go-mobile-shell/internal/config"
	"github.com/vmedis/go-mobile-shell/users"
)

const (
	tokenLifetime = time.Hour
	maxRetries    = 2
	retryInterval = 500 * time.Millisecond
)

// TokenExchangeErr classifies a failed or malformed token exchange.
var TokenExchangeErr = errors.New("bridging token exchange failed")

// tokenRequest is the exchange payload. The access code is an obfuscation
// token only - base64 over the user id and a millisecond timestamp, exactly
// what the remote backend expects. It is not a security boundary and must
// not be upgraded to one; the backend authenticates the payload itself.
type tokenRequest struct {
	User        tokenUser     `json:"user"`
	Identity    tokenIdentity `json:"identity"`
	AccessToken string        `json:"accessToken"`
	Expiry      int64         `json:"expiredToken"`
}

type tokenUser struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	GroupID  int    `json:"gr_id,omitempty"`
	AppID    string `json:"app_id,omitempty"`
	Notes    string `json:"keterangan,omitempty"`
	Logo     string `json:"logo,omitempty"`
	Level    int    `json:"lvl,omitempty"`
	Domain   string `json:"domain"`
	FullName string `json:"nama_lengkap,omitempty"`
	AppKind  int    `json:"app_jenis,omitempty"`
	AppReg   string `json:"app_reg,omitempty"`
}

type tokenIdentity struct {
	ClinicID   int    `json:"kl_id,omitempty"`
	ClinicLogo string `json:"kl_logo,omitempty"`
	ClinicName string `json:"kl_nama,omitempty"`
}

type tokenResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    string `json:"data"`
}

// Issuer builds entry URLs for the embedded web surface.
type Issuer struct {
	cfg        config.EndpointConfig
	httpClient *http.Client
	log        zerolog.Logger
	nowTime    func() time.Time
	retryWait  time.Duration
}

// IssuerOption configures an Issuer.
type IssuerOption func(*Issuer)

// WithHTTPClient replaces the HTTP client (primarily for testing).
func WithHTTPClient(client *http.Client) IssuerOption {
	return func(i *Issuer) {
		i.httpClient = client
	}
}

// WithNowTime sets the clock (primarily for testing).
func WithNowTime(nowFunc func() time.Time) IssuerOption {
	return func(i *Issuer) {
		i.nowTime = nowFunc
	}
}

// WithRetryInterval shortens the retry delay (primarily for testing).
func WithRetryInterval(d time.Duration) IssuerOption {
	return func(i *Issuer) {
		i.retryWait = d
	}
}

// NewIssuer creates the bridging token issuer.
func NewIssuer(cfg config.EndpointConfig, log zerolog.Logger, options ...IssuerOption) *Issuer {
	i := &Issuer{
		cfg:       cfg,
		log:       log.With().Str("component", "bridge").Logger(),
		nowTime:   time.Now,
		retryWait: retryInterval,
	}
	for _, opt := range options {
		opt(i)
	}
	if i.httpClient == nil {
		i.httpClient = &http.Client{Timeout: cfg.GetRequestTimeout()}
	}
	return i
}

// BuildEntryURL performs one token exchange and returns the bridged entry
// URL {base}/{domain}/auth?token={token}&menu={destination}.
func (i *Issuer) BuildEntryURL(ctx context.Context, user *users.UserRecord, destination string) (*url.URL, error) {
	token, err := i.exchangeToken(ctx, user)
	if err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(i.cfg.GetBridgeBaseURL(), "/")
	raw := fmt.Sprintf("%s/%s/auth?token=%s&menu=%s",
		base, user.Domain, url.QueryEscape(token), url.QueryEscape(destination))
	entry, err := url.Parse(raw)
	if err != nil {
		return nil, errors.Wrap(err, "[BuildEntryURL] parse")
	}
	return entry, nil
}

// EntryURLWithFallback retries the exchange a bounded number of times, then
// returns the non-bridged fallback URL. It never fails: the web surface
// falls back to its own authentication when the token is absent.
func (i *Issuer) EntryURLWithFallback(ctx context.Context, user *users.UserRecord, destination string) *url.URL {
	entry, err := backoff.Retry(ctx, func() (*url.URL, error) {
		return i.BuildEntryURL(ctx, user, destination)
	},
		backoff.WithBackOff(backoff.NewConstantBackOff(i.retryWait)),
		backoff.WithMaxTries(1+maxRetries),
	)
	if err == nil {
		return entry
	}

	i.log.Warn().Err(err).Str("destination", destination).Msg("token exchange exhausted retries, using fallback URL")
	return i.FallbackURL(user, destination)
}

// FallbackURL builds the non-bridged URL {fallbackBase}/{domain}/{destination}.
func (i *Issuer) FallbackURL(user *users.UserRecord, destination string) *url.URL {
	domain := i.cfg.GetDefaultDomain()
	if user != nil && user.Domain != "" {
		domain = user.Domain
	}
	base := strings.TrimSuffix(i.cfg.GetFallbackBaseURL(), "/")
	fallback, err := url.Parse(fmt.Sprintf("%s/%s/%s", base, domain, destination))
	if err != nil {
		// The fallback base is static configuration; an unparseable value is
		// a deployment error, not a runtime one.
		i.log.Error().Err(err).Msg("fallback URL unparseable")
		return &url.URL{Scheme: "https", Host: "v3.vmedis.com", Path: "/" + domain + "/" + destination}
	}
	return fallback
}

// AccessCode derives the obfuscation code sent with the exchange payload:
// base64 over "{userID}--SED--{millis}".
func AccessCode(userID string, at time.Time) string {
	millis := at.UnixMilli()
	return base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%s--SED--%d", userID, millis)))
}

func (i *Issuer) exchangeToken(ctx context.Context, user *users.UserRecord) (string, error) {
	now := i.nowTime()
	reqPayload := tokenRequest{
		User: tokenUser{
			UserID:   user.ID,
			Username: user.Username,
			GroupID:  user.GroupID,
			AppID:    user.AppID,
			Notes:    user.Notes,
			Logo:     user.Logo,
			Level:    user.Level,
			Domain:   user.Domain,
			FullName: user.FullName,
			AppKind:  user.AppKind,
			AppReg:   user.AppReg,
		},
		Identity: tokenIdentity{
			ClinicID:   user.ClinicID,
			ClinicLogo: user.ClinicLogo,
			ClinicName: user.ClinicName,
		},
		AccessToken: AccessCode(user.ID, now),
		Expiry:      now.Add(tokenLifetime).Unix(),
	}

	payload, err := json.Marshal(reqPayload)
	if err != nil {
		return "", errors.Wrap(err, "[exchangeToken] marshal")
	}

	endpoint := strings.TrimSuffix(i.cfg.GetBridgeBaseURL(), "/") + "/api/auth/get-token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", errors.Wrap(err, "[exchangeToken] request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "[exchangeToken] do")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.Wrap(err, "[exchangeToken] read")
	}
	if resp.StatusCode != http.StatusOK {
		return "", errors.Wrapf(TokenExchangeErr, "[exchangeToken] status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", errors.Wrap(TokenExchangeErr, "[exchangeToken] decode")
	}
	if tr.Status != "success" || tr.Data == "" {
		return "", errors.Wrapf(TokenExchangeErr, "[exchangeToken] status %q", tr.Status)
	}
	return tr.Data, nil
}
