// internal/siteprofile/builtin.go
package siteprofile

import "github.com/applypilot/applypilot-cli/api/schemas"

// Platform tags. PlatformGeneric marks the fallback profile.
const (
	PlatformWorkday        = "workday"
	PlatformGreenhouse     = "greenhouse"
	PlatformLever          = "lever"
	PlatformICIMS          = "icims"
	PlatformLinkedIn       = "linkedin"
	PlatformIndeed         = "indeed"
	PlatformZipRecruiter   = "ziprecruiter"
	PlatformSmartRecruiters = "smartrecruiters"
	PlatformTaleo          = "taleo"
	PlatformGeneric        = "generic"
)

// Shared confirmation vocabulary. Platform profiles may extend these but
// in practice the phrasing is uniform across ATS vendors.
var (
	commonConfirmationURLs = []string{
		"confirmation", "thank", "success", "submitted", "complete", "applied",
	}
	commonConfirmationTexts = []string{
		"application has been received",
		"application has been submitted",
		"application was submitted",
		"application received",
		"application submitted",
		"application complete",
		"thank you for applying",
		"thank you for your application",
		"successfully applied",
		"successfully submitted",
	}
)

// builtinProfiles is the ordered platform table. More specific ATS hosts
// come before aggregator job boards.
var builtinProfiles = []*Profile{
	{
		Platform:     PlatformWorkday,
		HostPatterns: []string{"myworkdayjobs.com", "workday.com", "wd1.", "wd3.", "wd5."},
		AttributeSelectors: map[schemas.CanonicalAttribute][]string{
			schemas.AttrFirstName: {`input[data-automation-id="legalNameSection_firstName"]`, `input[data-automation-id*="firstName"]`},
			schemas.AttrLastName:  {`input[data-automation-id="legalNameSection_lastName"]`, `input[data-automation-id*="lastName"]`},
			schemas.AttrEmail:     {`input[data-automation-id="email"]`},
			schemas.AttrPhone:     {`input[data-automation-id="phone-number"]`},
			schemas.AttrAddress:   {`input[data-automation-id="addressSection_addressLine1"]`},
			schemas.AttrCity:      {`input[data-automation-id="addressSection_city"]`},
			schemas.AttrZipCode:   {`input[data-automation-id="addressSection_postalCode"]`},
		},
		FormSelectors:            []string{`[data-automation-id="applyFlowPage"]`, "form"},
		SubmitSelectors:          []string{`button[data-automation-id="bottom-navigation-next-button"]`, `button[data-automation-id="submitButton"]`},
		SkipSelectors:            []string{`button[data-automation-id="bottom-navigation-back-button"]`},
		JobPathPatterns:          []string{"/job/", "/jobs/", "/apply", "/application"},
		ConfirmationURLPatterns:  commonConfirmationURLs,
		ConfirmationTextPatterns: commonConfirmationTexts,
		TitleSelectors:           []string{`[data-automation-id="jobPostingHeader"]`, "h1", "h2"},
	},
	{
		Platform:     PlatformGreenhouse,
		HostPatterns: []string{"greenhouse.io", "boards.greenhouse.io"},
		AttributeSelectors: map[schemas.CanonicalAttribute][]string{
			schemas.AttrFirstName:   {"#first_name", `input[name="job_application[first_name]"]`},
			schemas.AttrLastName:    {"#last_name", `input[name="job_application[last_name]"]`},
			schemas.AttrEmail:       {"#email", `input[name="job_application[email]"]`},
			schemas.AttrPhone:       {"#phone", `input[name="job_application[phone]"]`},
			schemas.AttrLinkedinURL: {`input[name="job_application[answers_attributes][0][text_value]"]`},
		},
		FormSelectors:            []string{"#application_form", "#application-form", "form"},
		SubmitSelectors:          []string{"#submit_app", `input[type="submit"]`, `button[type="submit"]`},
		JobPathPatterns:          []string{"/jobs/", "/job_app", "/applications"},
		ConfirmationURLPatterns:  commonConfirmationURLs,
		ConfirmationTextPatterns: commonConfirmationTexts,
		TitleSelectors:           []string{".app-title", "h1.section-header", "h1"},
	},
	{
		Platform:     PlatformLever,
		HostPatterns: []string{"jobs.lever.co", "lever.co"},
		AttributeSelectors: map[schemas.CanonicalAttribute][]string{
			schemas.AttrFullName:    {`input[name="name"]`},
			schemas.AttrEmail:       {`input[name="email"]`},
			schemas.AttrPhone:       {`input[name="phone"]`},
			schemas.AttrCurrentCompany: {`input[name="org"]`},
			schemas.AttrLinkedinURL: {`input[name="urls[LinkedIn]"]`},
			schemas.AttrGithubURL:   {`input[name="urls[GitHub]"]`},
		},
		FormSelectors:            []string{".application-form", "form#application-form", "form"},
		SubmitSelectors:          []string{`button[type="submit"].postings-btn`, `button[type="submit"]`},
		JobPathPatterns:          []string{"/apply", "/jobs/"},
		ConfirmationURLPatterns:  commonConfirmationURLs,
		ConfirmationTextPatterns: commonConfirmationTexts,
		TitleSelectors:           []string{".posting-headline h2", "h2"},
	},
	{
		Platform:     PlatformICIMS,
		HostPatterns: []string{"icims.com"},
		AttributeSelectors: map[schemas.CanonicalAttribute][]string{
			schemas.AttrFirstName: {`input[id*="FirstName"]`},
			schemas.AttrLastName:  {`input[id*="LastName"]`},
			schemas.AttrEmail:     {`input[id*="Email"]`},
		},
		FormSelectors:            []string{"#icims_content_iframe form", "form"},
		SubmitSelectors:          []string{`input[type="submit"]`, `button[type="submit"]`},
		JobPathPatterns:          []string{"/jobs/", "/careers"},
		ConfirmationURLPatterns:  commonConfirmationURLs,
		ConfirmationTextPatterns: commonConfirmationTexts,
		TitleSelectors:           []string{".iCIMS_Header h1", "h1"},
	},
	{
		Platform:     PlatformLinkedIn,
		HostPatterns: []string{"linkedin.com"},
		URLPatterns:  []string{"linkedin.com/jobs"},
		AttributeSelectors: map[schemas.CanonicalAttribute][]string{
			schemas.AttrEmail: {`input[id*="easyApplyFormElement"][type="email"]`},
			schemas.AttrPhone: {`input[id*="phoneNumber"]`},
		},
		FormSelectors:            []string{".jobs-easy-apply-content form", "form"},
		SubmitSelectors:          []string{`button[aria-label="Submit application"]`, `button[aria-label*="Submit"]`},
		SkipSelectors:            []string{`button[aria-label="Continue to next step"]`, `button[aria-label*="Review"]`},
		JobPathPatterns:          []string{"/jobs/view/", "/jobs/collections/"},
		ConfirmationURLPatterns:  append([]string{"post-apply"}, commonConfirmationURLs...),
		ConfirmationTextPatterns: append([]string{"your application was sent"}, commonConfirmationTexts...),
		TitleSelectors:           []string{".job-details-jobs-unified-top-card__job-title", "h1"},
	},
	{
		Platform:                 PlatformIndeed,
		HostPatterns:             []string{"indeed.com"},
		FormSelectors:            []string{".ia-BasePage form", "form"},
		SubmitSelectors:          []string{".ia-continueButton", `button[type="submit"]`},
		JobPathPatterns:          []string{"/viewjob", "/apply", "smartapply"},
		ConfirmationURLPatterns:  append([]string{"post-apply"}, commonConfirmationURLs...),
		ConfirmationTextPatterns: commonConfirmationTexts,
		TitleSelectors:           []string{".jobsearch-JobInfoHeader-title", "h1"},
	},
	{
		Platform:                 PlatformZipRecruiter,
		HostPatterns:             []string{"ziprecruiter.com"},
		FormSelectors:            []string{"form"},
		SubmitSelectors:          []string{`button[type="submit"]`},
		JobPathPatterns:          []string{"/jobs/", "/job/", "/apply"},
		ConfirmationURLPatterns:  commonConfirmationURLs,
		ConfirmationTextPatterns: commonConfirmationTexts,
		TitleSelectors:           []string{"h1.job_title", "h1"},
	},
	{
		Platform:     PlatformSmartRecruiters,
		HostPatterns: []string{"smartrecruiters.com"},
		AttributeSelectors: map[schemas.CanonicalAttribute][]string{
			schemas.AttrFirstName: {`input[name="firstName"]`},
			schemas.AttrLastName:  {`input[name="lastName"]`},
			schemas.AttrEmail:     {`input[name="email"]`},
		},
		FormSelectors:            []string{"form#st-apply", "form"},
		SubmitSelectors:          []string{`button[type="submit"]`},
		JobPathPatterns:          []string{"/job/", "/jobs/", "/publication"},
		ConfirmationURLPatterns:  commonConfirmationURLs,
		ConfirmationTextPatterns: commonConfirmationTexts,
		TitleSelectors:           []string{"h1.job-title", "h1"},
	},
	{
		Platform:                 PlatformTaleo,
		HostPatterns:             []string{"taleo.net"},
		FormSelectors:            []string{"form"},
		SubmitSelectors:          []string{`input[type="submit"]`, `button[type="submit"]`},
		JobPathPatterns:          []string{"/careersection", "/jobdetail"},
		ConfirmationURLPatterns:  commonConfirmationURLs,
		ConfirmationTextPatterns: commonConfirmationTexts,
		TitleSelectors:           []string{"#requisitionDescriptionInterface\\.reqTitleLinkAction", "h1"},
	},
}

// genericProfile is the fallback for unrecognized hosts: broad heuristic
// selectors and a generic job-path vocabulary.
var genericProfile = &Profile{
	Platform:        PlatformGeneric,
	FormSelectors:   []string{"form"},
	SubmitSelectors: []string{`button[type="submit"]`, `input[type="submit"]`},
	JobPathPatterns: []string{
		"/careers", "/career", "/jobs", "/job/", "/apply", "/application",
		"/position", "/opening", "/vacancy", "/recruit",
	},
	ConfirmationURLPatterns:  commonConfirmationURLs,
	ConfirmationTextPatterns: commonConfirmationTexts,
	TitleSelectors:           []string{"h1", "h2"},
}
