// Package auth implements the authentication gateway: tenant-domain
// validation, credential exchange, and the menu-access grant fetch that is
// merged into the resulting user record. Password reset and account
// registration ride on the same domain-validation contract.
package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/vmedis/go-mobile-shell/internal/config"
	"github.com/vmedis/go-mobile-shell/internal/utils"
	"github.com/vmedis/go-mobile-shell/users"
)

const loginDateFormat = "2006-01-02 15:04:05"

// Service is the authentication gateway. All network calls honour the
// caller's context and the configured request timeout; callers cancel
// superseded requests rather than racing them.
type Service struct {
	cfg        config.EndpointConfig
	httpClient *http.Client
	log        zerolog.Logger
	nowTime    func() time.Time
	device     string
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithHTTPClient replaces the HTTP client (primarily for testing).
func WithHTTPClient(client *http.Client) ServiceOption {
	return func(s *Service) {
		s.httpClient = client
	}
}

// WithNowTime sets the clock (primarily for testing).
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

// WithDevice overrides the device identifier sent on login.
func WithDevice(device string) ServiceOption {
	return func(s *Service) {
		s.device = device
	}
}

// NewService creates the gateway.
func NewService(cfg config.EndpointConfig, log zerolog.Logger, options ...ServiceOption) *Service {
	s := &Service{
		cfg:     cfg,
		log:     log.With().Str("component", "auth").Logger(),
		nowTime: time.Now,
		device:  "mobile",
	}
	for _, opt := range options {
		opt(s)
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: cfg.GetRequestTimeout()}
	}
	return s
}

// ValidateDomain resolves a tenant domain. Any non-success status, and any
// response that fails to decode into the expected envelope, classifies as
// DomainNotFoundErr; transport failures wrap into NetworkError.
func (s *Service) ValidateDomain(ctx context.Context, domain string) (*DomainInfo, error) {
	endpoint := s.cfg.GetDomainValidationBaseURL() + "/klinik/validate-domain"
	body, err := s.postForm(ctx, "domain validation", endpoint, url.Values{"domain": {domain}})
	if err != nil {
		return nil, err
	}

	var resp domainValidationResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		s.log.Debug().Err(err).Str("domain", domain).Msg("domain validation response undecodable")
		return nil, DomainNotFoundErr
	}
	if !resp.ok() {
		s.log.Info().Str("domain", domain).Str("status", resp.Status).Msg("domain rejected")
		return nil, DomainNotFoundErr
	}
	if resp.Data == nil {
		resp.Data = &DomainInfo{}
	}
	return resp.Data, nil
}

// Authenticate performs the full login sequence: domain validation,
// credential exchange, then the menu-grant fetch. A grant-fetch failure
// never fails the login; the record comes back with an empty grant set,
// which denies everything except the always-visible tab downstream.
func (s *Service) Authenticate(ctx context.Context, domain, username, password string) (*users.UserRecord, error) {
	if _, err := s.ValidateDomain(ctx, domain); err != nil {
		return nil, err
	}

	record, err := s.exchangeCredentials(ctx, domain, username, password)
	if err != nil {
		return nil, err
	}

	// Superadmins never carry a grant list; the level itself bypasses all
	// filtering, so the access query is skipped entirely.
	if record.IsSuperadmin() {
		s.log.Debug().Str("username", record.Username).Msg("superadmin login, skipping menu grant fetch")
		return record, nil
	}

	urls, headers, err := s.fetchMenuGrants(ctx, record.GroupID, record.Token)
	if err != nil {
		s.log.Warn().Err(err).Str("username", record.Username).Msg("menu grant fetch failed, continuing with empty grants")
		return record, nil
	}
	merged := record.WithGrants(urls, headers)
	s.log.Debug().Int("grants", len(merged.GrantedMenuURLs)).Str("username", merged.Username).Msg("menu grants merged")
	return &merged, nil
}

func (s *Service) exchangeCredentials(ctx context.Context, domain, username, password string) (*users.UserRecord, error) {
	endpoint := s.cfg.GetAPIBaseURL() + "/sys/login"
	form := url.Values{
		"u":      {username},
		"p":      {password},
		"t":      {domain},
		"device": {s.device},
		"ip":     {""},
		"date":   {s.nowTime().Format(loginDateFormat)},
	}

	body, err := s.postForm(ctx, "login", endpoint, form)
	if err != nil {
		return nil, err
	}

	var resp loginResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		// Some rejections come back in a shape the envelope cannot hold.
		if bytes.Contains(body, []byte("error")) || bytes.Contains(body, []byte("fail")) {
			return nil, &CredentialsError{Message: string(body), Hint: hintFromMessage(string(body))}
		}
		return nil, errors.Wrap(DecodingErr, "[exchangeCredentials] decode login response")
	}
	if !resp.ok() || resp.Data == nil {
		return nil, &CredentialsError{Message: resp.Message, Hint: hintFromMessage(resp.Message)}
	}

	record := resp.Data.toRecord(domain)
	return &record, nil
}

// fetchMenuGrants queries the access list for the user's group. Returns the
// granted backend URLs and the section header names.
func (s *Service) fetchMenuGrants(ctx context.Context, groupID int, token string) ([]string, []string, error) {
	query := fmt.Sprintf(`query {
  MenuGroupUser(gr_id: %d) {
    Items {
      mn_nama
      mn_kode
    }
    Items1 {
      mn_url
      mn_kode
      mn_nama
    }
  }
}`, groupID)

	body, err := s.postGraphQL(ctx, "menu grant fetch", s.cfg.GetAPIBaseURL()+"/graphql", query, token)
	if err != nil {
		return nil, nil, err
	}

	var resp menuGroupUserResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, nil, errors.Wrap(DecodingErr, "[fetchMenuGrants] decode")
	}
	if resp.Data == nil || resp.Data.MenuGroupUser == nil {
		return nil, nil, errors.Wrap(DecodingErr, "[fetchMenuGrants] missing MenuGroupUser")
	}

	var urls, headers []string
	for _, item := range resp.Data.MenuGroupUser.Items1 {
		urls = append(urls, item.URL.String())
		headers = append(headers, item.Name.String())
	}
	for _, item := range resp.Data.MenuGroupUser.Items {
		headers = append(headers, item.Name.String())
	}
	return utils.NonEmptyStrings(urls), utils.NonEmptyStrings(headers), nil
}

// RequestPasswordReset validates the domain, then asks the backend to mail a
// reset link. The backend signals failure with gak=true rather than an HTTP
// error.
func (s *Service) RequestPasswordReset(ctx context.Context, domain, email string) (*ResetResult, error) {
	if _, err := s.ValidateDomain(ctx, domain); err != nil {
		return nil, err
	}

	mutation := fmt.Sprintf(`mutation {
  vmedresetuser(domain: %q, email: %q) {
    gak
    user {
      user_id
      email
      nama_lengkap
    }
    aptnama {
      kl_nama
    }
    errors {
      path
      message
      title
    }
  }
}`, domain, email)

	body, err := s.postGraphQL(ctx, "password reset", s.cfg.GetApolloGraphQLURL(), mutation, "")
	if err != nil {
		return nil, err
	}

	var resp resetUserResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(DecodingErr, "[RequestPasswordReset] decode")
	}
	if resp.Data == nil || resp.Data.ResetUser == nil {
		return nil, errors.Wrap(DecodingErr, "[RequestPasswordReset] missing vmedresetuser")
	}

	reset := resp.Data.ResetUser
	message := ""
	if len(reset.Errors) > 0 {
		message = reset.Errors[0].Message.String()
	}
	if reset.Failed {
		if message == "" {
			message = "email is not registered"
		}
		return nil, &CredentialsError{Message: message, Hint: HintUsernameNotFound}
	}

	result := &ResetResult{Message: message}
	if result.Message == "" {
		result.Message = "a reset link has been sent to your email"
	}
	if reset.User != nil {
		result.Email = reset.User.Email.String()
		result.FullName = reset.User.FullName.String()
	}
	if reset.Clinic != nil {
		result.ClinicName = reset.Clinic.Name.String()
	}
	return result, nil
}

// Register validates the domain, then creates a new account.
func (s *Service) Register(ctx context.Context, reg Registration) (*RegisterResult, error) {
	if _, err := s.ValidateDomain(ctx, reg.Domain); err != nil {
		return nil, err
	}

	if reg.Device == "" {
		reg.Device = s.device
	}
	payload, err := json.Marshal(reg)
	if err != nil {
		return nil, errors.Wrap(err, "[Register] marshal")
	}

	body, err := s.postJSON(ctx, "register", s.cfg.GetRegisterBaseURL()+"/api/v1/register", payload, "")
	if err != nil {
		return nil, err
	}

	var resp registerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, errors.Wrap(DecodingErr, "[Register] decode")
	}
	if !resp.ok() {
		return nil, &CredentialsError{Message: resp.Message, Hint: hintFromMessage(resp.Message)}
	}

	result := &RegisterResult{Message: resp.Message}
	if resp.Data != nil {
		result.UserID = resp.Data.UserID.Int()
		result.Username = resp.Data.Username.String()
		result.Email = resp.Data.Email.String()
		result.FullName = resp.Data.FullName.String()
		result.AppID = resp.Data.AppID.String()
	}
	return result, nil
}

func (s *Service) postForm(ctx context.Context, op, endpoint string, form url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return s.do(op, req)
}

func (s *Service) postGraphQL(ctx context.Context, op, endpoint, query, bearer string) ([]byte, error) {
	payload, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, errors.Wrap(err, "[postGraphQL] marshal")
	}
	return s.postJSON(ctx, op, endpoint, payload, bearer)
}

func (s *Service) postJSON(ctx context.Context, op, endpoint string, payload []byte, bearer string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	return s.do(op, req)
}

func (s *Service) do(op string, req *http.Request) ([]byte, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	return body, nil
}
