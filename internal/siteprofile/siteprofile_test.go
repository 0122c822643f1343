// internal/siteprofile/siteprofile_test.go
package siteprofile

import (
	"testing"

	"github.com/applypilot/applypilot-cli/api/schemas"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveKnownPlatforms(t *testing.T) {
	r := NewResolver()

	tests := []struct {
		name     string
		url      string
		platform string
	}{
		{"Workday subdomain", "https://acme.wd5.myworkdayjobs.com/en-US/careers/job/NYC/Staff-Engineer_R123", PlatformWorkday},
		{"Greenhouse board", "https://boards.greenhouse.io/acme/jobs/4100", PlatformGreenhouse},
		{"Lever posting", "https://jobs.lever.co/acme/1234-abcd/apply", PlatformLever},
		{"iCIMS", "https://careers-acme.icims.com/jobs/2201/engineer/job", PlatformICIMS},
		{"LinkedIn job view", "https://www.linkedin.com/jobs/view/3791234567/", PlatformLinkedIn},
		{"Indeed", "https://www.indeed.com/viewjob?jk=abc123", PlatformIndeed},
		{"SmartRecruiters", "https://jobs.smartrecruiters.com/Acme/743999-engineer", PlatformSmartRecruiters},
		{"Taleo", "https://acme.taleo.net/careersection/2/jobdetail.ftl", PlatformTaleo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := r.Resolve(tt.url)
			require.NotNil(t, p)
			assert.Equal(t, tt.platform, p.Platform)
			assert.False(t, p.IsGeneric())
		})
	}
}

func TestResolveUnknownHostFallsBackToGeneric(t *testing.T) {
	r := NewResolver()

	p := r.Resolve("https://careers.example-startup.io/openings/42")
	require.NotNil(t, p)
	assert.True(t, p.IsGeneric())
	assert.Equal(t, PlatformGeneric, p.Platform)

	// The generic profile must still recognize common job paths.
	assert.True(t, p.MatchesJobPath("https://careers.example-startup.io/openings/42/apply"))
	assert.False(t, p.MatchesJobPath("https://example-startup.io/pricing"))
}

func TestResolveIsDeterministic(t *testing.T) {
	r := NewResolver()
	url := "https://boards.greenhouse.io/acme/jobs/4100"

	first := r.Resolve(url)
	for i := 0; i < 5; i++ {
		assert.Same(t, first, r.Resolve(url))
	}
}

func TestMatchesJobPath(t *testing.T) {
	r := NewResolver()
	wd := r.Resolve("https://acme.wd1.myworkdayjobs.com/careers")
	require.Equal(t, PlatformWorkday, wd.Platform)

	assert.True(t, wd.MatchesJobPath("https://acme.wd1.myworkdayjobs.com/en-US/careers/job/Remote/Engineer_R9"))
	assert.False(t, wd.MatchesJobPath("https://acme.wd1.myworkdayjobs.com/en-US/careers"))
}

func TestPlatformOverridesPresent(t *testing.T) {
	r := NewResolver()
	gh := r.Resolve("https://boards.greenhouse.io/acme/jobs/1")

	sels, ok := gh.AttributeSelectors[schemas.AttrFirstName]
	require.True(t, ok)
	assert.Contains(t, sels, "#first_name")
}
