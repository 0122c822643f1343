package schemas

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// CanonicalAttribute is a normalized profile field name that many
// differently-labeled page inputs map onto (e.g. "firstName").
type CanonicalAttribute string

const (
	AttrFirstName           CanonicalAttribute = "firstName"
	AttrLastName            CanonicalAttribute = "lastName"
	AttrFullName            CanonicalAttribute = "fullName"
	AttrEmail               CanonicalAttribute = "email"
	AttrPhone               CanonicalAttribute = "phone"
	AttrAddress             CanonicalAttribute = "address"
	AttrCity                CanonicalAttribute = "city"
	AttrState               CanonicalAttribute = "state"
	AttrZipCode             CanonicalAttribute = "zipCode"
	AttrCountry             CanonicalAttribute = "country"
	AttrLinkedinURL         CanonicalAttribute = "linkedinUrl"
	AttrGithubURL           CanonicalAttribute = "githubUrl"
	AttrPortfolioURL        CanonicalAttribute = "portfolioUrl"
	AttrCurrentCompany      CanonicalAttribute = "currentCompany"
	AttrCurrentTitle        CanonicalAttribute = "currentTitle"
	AttrYearsExperience     CanonicalAttribute = "yearsExperience"
	AttrSalaryExpectation   CanonicalAttribute = "salaryExpectation"
	AttrWorkAuthorization   CanonicalAttribute = "workAuthorization"
	AttrRequiresSponsorship CanonicalAttribute = "requiresSponsorship"
	AttrDegree              CanonicalAttribute = "degree"
	AttrSchool              CanonicalAttribute = "school"
	AttrGraduationYear      CanonicalAttribute = "graduationYear"
	AttrSkills              CanonicalAttribute = "skills"
	AttrSummary             CanonicalAttribute = "summary"
	AttrCoverLetter         CanonicalAttribute = "coverLetter"
	AttrReferral            CanonicalAttribute = "referral"
	AttrEEOGender           CanonicalAttribute = "eeoGender"
	AttrEEOVeteran          CanonicalAttribute = "eeoVeteran"
	AttrEEODisability       CanonicalAttribute = "eeoDisability"
)

// WorkAuthStatus is the categorical work-authorization status stored on a
// profile. The resolver maps it onto whatever vocabulary the target
// control expects (Yes/No, true/false, option text).
type WorkAuthStatus string

const (
	WorkAuthCitizen    WorkAuthStatus = "citizen"
	WorkAuthPermanent  WorkAuthStatus = "permanent_resident"
	WorkAuthVisa       WorkAuthStatus = "visa_holder"
	WorkAuthNeedsVisa  WorkAuthStatus = "needs_sponsorship"
	WorkAuthUnspecified WorkAuthStatus = ""
)

// Authorized reports whether the status allows working without new
// sponsorship. The second return is false when the profile is silent.
func (w WorkAuthStatus) Authorized() (bool, bool) {
	switch w {
	case WorkAuthCitizen, WorkAuthPermanent, WorkAuthVisa:
		return true, true
	case WorkAuthNeedsVisa:
		return false, true
	default:
		return false, false
	}
}

// UserProfile holds the structured personal and professional attributes
// supplied once per session by the profile store. Read-only for the
// duration of a fill session.
type UserProfile struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	FullName  string `json:"fullName,omitempty"`
	Email     string `json:"email" validate:"required,email"`
	Phone     string `json:"phone,omitempty"`

	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`

	LinkedinURL  string `json:"linkedinUrl,omitempty" validate:"omitempty,url"`
	GithubURL    string `json:"githubUrl,omitempty" validate:"omitempty,url"`
	PortfolioURL string `json:"portfolioUrl,omitempty" validate:"omitempty,url"`

	CurrentCompany    string         `json:"currentCompany,omitempty"`
	CurrentTitle      string         `json:"currentTitle,omitempty"`
	YearsExperience   float64        `json:"yearsExperience,omitempty" validate:"gte=0,lte=80"`
	SalaryExpectation int            `json:"salaryExpectation,omitempty" validate:"gte=0"`
	WorkAuthorization WorkAuthStatus `json:"workAuthorization,omitempty"`

	Degree         string   `json:"degree,omitempty"`
	School         string   `json:"school,omitempty"`
	GraduationYear int      `json:"graduationYear,omitempty"`
	Skills         []string `json:"skills,omitempty"`
	Summary        string   `json:"summary,omitempty"`

	// AnswerEEO opts in to answering voluntary self-identification
	// questions with the control's own decline option; when false those
	// fields are always left untouched.
	AnswerEEO bool `json:"answerEeo,omitempty"`
}

var profileValidate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks the structural integrity of a fetched profile.
func (p *UserProfile) Validate() error {
	return profileValidate.Struct(p)
}

// DisplayName returns the best available full name, synthesizing it from
// the name parts when no combined value is stored.
func (p *UserProfile) DisplayName() string {
	if p.FullName != "" {
		return p.FullName
	}
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
