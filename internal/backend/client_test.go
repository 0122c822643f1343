// internal/backend/client_test.go
package backend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/applypilot/applypilot-cli/api/schemas"
	"github.com/applypilot/applypilot-cli/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler, token string) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := New(config.BackendConfig{
		APIURL:  srv.URL,
		Token:   token,
		Timeout: 5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestNewWithoutAPIURL(t *testing.T) {
	_, err := New(config.BackendConfig{}, zap.NewNop())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGetUserProfile(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/user-profile", r.URL.Path)
		assert.Equal(t, "Bearer opaque-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"firstName":"Jane","lastName":"Doe","email":"jane@x.com","yearsExperience":6}`))
	}), "opaque-key")

	profile, err := client.GetUserProfile(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Jane", profile.FirstName)
	assert.InDelta(t, 6.0, profile.YearsExperience, 0.001)
}

func TestGetUserProfileRejectsInvalidPayload(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Missing required fields, malformed email.
		w.Write([]byte(`{"firstName":"Jane","email":"not-an-email"}`))
	}), "")

	_, err := client.GetUserProfile(context.Background())
	assert.ErrorIs(t, err, ErrMessaging)
}

func TestNonOKStatusIsMessagingFailureWithoutRetry(t *testing.T) {
	var calls atomic.Int64
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "nope", http.StatusBadGateway)
	}), "")

	_, err := client.GetUserProfile(context.Background())
	assert.ErrorIs(t, err, ErrMessaging)
	assert.Equal(t, int64(1), calls.Load(), "a failed call is never retried")
}

func TestExpiredTokenShortCircuits(t *testing.T) {
	var calls atomic.Int64
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}), signedToken(t, time.Now().Add(-time.Hour)))

	_, err := client.GetUserProfile(context.Background())
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.Equal(t, int64(0), calls.Load(), "expired token must not reach the server")
}

func TestValidTokenPassesPreCheck(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"firstName":"Jane","lastName":"Doe","email":"jane@x.com"}`))
	}), signedToken(t, time.Now().Add(time.Hour)))

	_, err := client.GetUserProfile(context.Background())
	assert.NoError(t, err)
}

func TestTrackApplication(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/track-application", r.URL.Path)
		var ev schemas.ApplicationEvent
		require.NoError(t, json.NewDecoder(r.Body).Decode(&ev))
		assert.Equal(t, "Senior Go Engineer", ev.JobTitle)
		w.Write([]byte(`{"success":true}`))
	}), "")

	err := client.TrackApplication(context.Background(), &schemas.ApplicationEvent{
		ID:       "ev-1",
		JobTitle: "Senior Go Engineer",
	})
	assert.NoError(t, err)
}

func TestTrackApplicationServerRejection(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success":false}`))
	}), "")

	err := client.TrackApplication(context.Background(), &schemas.ApplicationEvent{ID: "ev-1"})
	assert.ErrorIs(t, err, ErrMessaging)
}

func TestAnalyzeJobPostsJobAndProfile(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/analyze-job-match", r.URL.Path)
		var req struct {
			JobData     schemas.JobInfo     `json:"jobData"`
			UserProfile schemas.UserProfile `json:"userProfile"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Senior Go Engineer", req.JobData.Title)
		assert.Equal(t, "Jane", req.UserProfile.FirstName)
		w.Write([]byte(`{"matchScore":82,"detectedSeniority":"senior","matchingSkills":["go"]}`))
	}), "")

	analysis, err := client.AnalyzeJob(context.Background(),
		schemas.JobInfo{Title: "Senior Go Engineer"},
		&schemas.UserProfile{FirstName: "Jane"})
	require.NoError(t, err)
	assert.Equal(t, 82, analysis.MatchScore)
	assert.Equal(t, []string{"go"}, analysis.MatchingSkills)
}

func TestGenerateCoverLetter(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate-cover-letter", r.URL.Path)
		w.Write([]byte(`{"coverLetter":"Dear hiring team,"}`))
	}), "")

	result, err := client.GenerateCoverLetter(context.Background(), schemas.JobInfo{Title: "Engineer"})
	require.NoError(t, err)
	assert.Equal(t, "Dear hiring team,", result.CoverLetter)
}

func TestGetActiveResume(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", `attachment; filename="jane-doe.pdf"`)
		w.Write([]byte("%PDF-1.4 stub"))
	}), "")

	blob, err := client.GetActiveResume(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "jane-doe.pdf", blob.FileName)
	assert.Equal(t, "application/pdf", blob.MIMEType)
	assert.Equal(t, []byte("%PDF-1.4 stub"), blob.Data)
}

func TestGetActiveResumeEmptyBody(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), "")

	_, err := client.GetActiveResume(context.Background())
	assert.ErrorIs(t, err, ErrMessaging)
}
