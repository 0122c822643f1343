// internal/siteprofile/siteprofile.go
package siteprofile

import (
	"net/url"
	"strings"

	"github.com/applypilot/applypilot-cli/api/schemas"
)

// Profile is the configuration bundle of selectors and quirks for one
// recognized hiring platform. Exactly one profile is active per page:
// the matched platform's, or Generic.
type Profile struct {
	// Platform is the stable tag carried on ApplicationEvents.
	Platform string

	// HostPatterns and URLPatterns are lower-cased substrings; the first
	// profile with any match wins.
	HostPatterns []string
	URLPatterns  []string

	// AttributeSelectors maps canonical attributes to platform-specific
	// CSS selectors that short-circuit generic classification.
	AttributeSelectors map[schemas.CanonicalAttribute][]string

	// FormSelectors locate application form containers.
	FormSelectors []string
	// SubmitSelectors and SkipSelectors identify submission controls and
	// buttons that advance without submitting (e.g. "Save and Continue").
	SubmitSelectors []string
	SkipSelectors   []string

	// JobPathPatterns are URL substrings that mark a job posting or
	// application page on this platform.
	JobPathPatterns []string

	// ConfirmationURLPatterns and ConfirmationTextPatterns feed the
	// submission detector's dual-signal check.
	ConfirmationURLPatterns  []string
	ConfirmationTextPatterns []string

	// TitleSelectors are tried in order when extracting the job title.
	TitleSelectors []string
}

// IsGeneric reports whether this is the fallback profile.
func (p *Profile) IsGeneric() bool { return p.Platform == PlatformGeneric }

// MatchesJobPath reports whether a URL looks like a job posting or
// application page for this platform.
func (p *Profile) MatchesJobPath(rawURL string) bool {
	lower := strings.ToLower(rawURL)
	for _, pat := range p.JobPathPatterns {
		if strings.Contains(lower, pat) {
			return true
		}
	}
	return false
}

// Resolver maps a page's host/URL onto a platform profile. It is
// deterministic and side-effect-free; the table is ordered and the
// first match wins.
type Resolver struct {
	profiles []*Profile
	generic  *Profile
}

// NewResolver builds a resolver over the compiled-in platform table.
func NewResolver() *Resolver {
	return &Resolver{profiles: builtinProfiles, generic: genericProfile}
}

// NewResolverWithProfiles builds a resolver over a custom ordered table,
// falling back to the built-in generic profile.
func NewResolverWithProfiles(profiles []*Profile) *Resolver {
	return &Resolver{profiles: profiles, generic: genericProfile}
}

// Resolve returns the first profile whose host or URL patterns match, or
// the generic profile when nothing does.
func (r *Resolver) Resolve(rawURL string) *Profile {
	lower := strings.ToLower(rawURL)
	host := lower
	if u, err := url.Parse(rawURL); err == nil && u.Host != "" {
		host = strings.ToLower(u.Host)
	}

	for _, p := range r.profiles {
		for _, pat := range p.HostPatterns {
			if strings.Contains(host, pat) {
				return p
			}
		}
		for _, pat := range p.URLPatterns {
			if strings.Contains(lower, pat) {
				return p
			}
		}
	}
	return r.generic
}

// Generic returns the fallback profile directly.
func (r *Resolver) Generic() *Profile { return r.generic }
