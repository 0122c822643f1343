// Package backend is the HTTP client for the platform API: profile
// fetch, application tracking, job-match analysis, cover letters and
// the active resume. Calls are one-shot; a failed call is reported,
// never retried.
package backend

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/applypilot/applypilot-cli/api/schemas"
	"github.com/applypilot/applypilot-cli/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var (
	// ErrMessaging covers any rejected, failed or malformed API exchange.
	ErrMessaging = errors.New("backend: messaging failure")
	// ErrTokenExpired is returned before a request is even attempted
	// when the configured bearer token has passed its expiry claim.
	ErrTokenExpired = errors.New("backend: api token expired")
	// ErrNotConfigured is returned by New when no API URL is set.
	ErrNotConfigured = errors.New("backend: no api url configured")
)

const maxResumeBytes = 16 << 20

// Client talks to the platform API. It satisfies every external
// collaborator interface the pipeline consumes.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

var (
	_ schemas.ProfileProvider      = (*Client)(nil)
	_ schemas.Tracker              = (*Client)(nil)
	_ schemas.JobAnalyzer          = (*Client)(nil)
	_ schemas.CoverLetterGenerator = (*Client)(nil)
	_ schemas.ResumeProvider       = (*Client)(nil)
)

// New builds a client from configuration. Callers treat
// ErrNotConfigured as "run without a backend", not as a failure.
func New(cfg config.BackendConfig, logger *zap.Logger) (*Client, error) {
	if cfg.APIURL == "" {
		return nil, ErrNotConfigured
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.APIURL, "/"),
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
		logger:  logger.Named("backend"),
	}, nil
}

// BaseURL returns the configured API base.
func (c *Client) BaseURL() string { return c.baseURL }

// GetUserProfile fetches and validates the user profile.
func (c *Client) GetUserProfile(ctx context.Context) (*schemas.UserProfile, error) {
	var profile schemas.UserProfile
	if err := c.call(ctx, http.MethodGet, "/api/user-profile", nil, &profile); err != nil {
		return nil, err
	}
	if err := profile.Validate(); err != nil {
		return nil, fmt.Errorf("%w: invalid profile: %v", ErrMessaging, err)
	}
	return &profile, nil
}

// TrackApplication transmits one ApplicationEvent.
func (c *Client) TrackApplication(ctx context.Context, ev *schemas.ApplicationEvent) error {
	var resp struct {
		Success bool `json:"success"`
	}
	if err := c.call(ctx, http.MethodPost, "/api/track-application", ev, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: tracking rejected by server", ErrMessaging)
	}
	c.logger.Info("Application tracked.", zap.String("id", ev.ID), zap.String("title", ev.JobTitle))
	return nil
}

// AnalyzeJob scores a posting against the profile.
func (c *Client) AnalyzeJob(ctx context.Context, job schemas.JobInfo, profile *schemas.UserProfile) (*schemas.MatchAnalysis, error) {
	req := struct {
		JobData     schemas.JobInfo      `json:"jobData"`
		UserProfile *schemas.UserProfile `json:"userProfile"`
	}{JobData: job, UserProfile: profile}

	var analysis schemas.MatchAnalysis
	if err := c.call(ctx, http.MethodPost, "/api/analyze-job-match", req, &analysis); err != nil {
		return nil, err
	}
	return &analysis, nil
}

// GenerateCoverLetter produces a cover letter for the posting.
func (c *Client) GenerateCoverLetter(ctx context.Context, job schemas.JobInfo) (*schemas.CoverLetterResult, error) {
	req := struct {
		JobData schemas.JobInfo `json:"jobData"`
	}{JobData: job}

	var result schemas.CoverLetterResult
	if err := c.call(ctx, http.MethodPost, "/api/generate-cover-letter", req, &result); err != nil {
		return nil, err
	}
	if result.CoverLetter == "" {
		return nil, fmt.Errorf("%w: empty cover letter", ErrMessaging)
	}
	return &result, nil
}

// GetActiveResume downloads the active resume binary. The filename
// comes from the Content-Disposition header when present.
func (c *Client) GetActiveResume(ctx context.Context) (*schemas.ResumeBlob, error) {
	if err := c.checkToken(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/active-resume", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMessaging, err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMessaging, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: GET /api/active-resume returned %s", ErrMessaging, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResumeBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMessaging, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: no active resume", ErrMessaging)
	}

	blob := &schemas.ResumeBlob{
		FileName: "resume.pdf",
		MIMEType: resp.Header.Get("Content-Type"),
		Data:     data,
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			blob.FileName = params["filename"]
		}
	}
	return blob, nil
}

// call performs one JSON exchange. Non-2xx statuses, transport errors
// and undecodable bodies all collapse into ErrMessaging.
func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	if err := c.checkToken(); err != nil {
		return err
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", ErrMessaging, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMessaging, err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMessaging, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: %s %s returned %s", ErrMessaging, method, path, resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrMessaging, err)
	}
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// checkToken rejects a visibly expired JWT before spending a round
// trip. Opaque (non-JWT) tokens pass through untouched.
func (c *Client) checkToken() error {
	if c.token == "" {
		return nil
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(c.token, claims); err != nil {
		return nil
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return nil
	}
	if exp.Before(time.Now()) {
		return ErrTokenExpired
	}
	return nil
}
