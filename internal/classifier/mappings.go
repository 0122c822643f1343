// internal/classifier/mappings.go
package classifier

import "github.com/applypilot/applypilot-cli/api/schemas"

// Mapping declares how one canonical attribute is recognized: the
// textual patterns that suggest it, the control types it is compatible
// with, and a priority used to break confidence ties. The table is
// read-only, loaded once at startup.
type Mapping struct {
	Attribute schemas.CanonicalAttribute
	Patterns  []string
	Types     []string // compatible input types / control kinds
	Priority  int      // higher wins ties
}

// defaultMappings is ordered roughly by specificity; ordering does not
// affect scoring, only readability. Patterns are matched against the
// lower-cased element context string.
var defaultMappings = []Mapping{
	{
		Attribute: schemas.AttrFirstName,
		Patterns:  []string{"first name", "firstname", "first_name", "first-name", "given name", "givenname", "fname", "legalname_firstname"},
		Types:     []string{"text"},
		Priority:  10,
	},
	{
		Attribute: schemas.AttrLastName,
		Patterns:  []string{"last name", "lastname", "last_name", "last-name", "family name", "familyname", "surname", "lname", "legalname_lastname"},
		Types:     []string{"text"},
		Priority:  10,
	},
	{
		Attribute: schemas.AttrFullName,
		Patterns:  []string{"full name", "fullname", "full_name", "your name", "legal name", "complete name", "applicant name"},
		Types:     []string{"text"},
		Priority:  8,
	},
	{
		Attribute: schemas.AttrEmail,
		Patterns:  []string{"email", "e-mail", "email address", "emailaddress"},
		Types:     []string{"email", "text"},
		Priority:  10,
	},
	{
		Attribute: schemas.AttrPhone,
		Patterns:  []string{"phone", "telephone", "mobile", "cell", "phone number", "phonenumber", "contact number"},
		Types:     []string{"tel", "text"},
		Priority:  9,
	},
	{
		Attribute: schemas.AttrAddress,
		Patterns:  []string{"address", "street", "address line", "addressline1", "address1"},
		Types:     []string{"text"},
		Priority:  6,
	},
	{
		Attribute: schemas.AttrCity,
		Patterns:  []string{"city", "town", "locality"},
		Types:     []string{"text"},
		Priority:  6,
	},
	{
		Attribute: schemas.AttrState,
		Patterns:  []string{"state", "province", "region"},
		Types:     []string{"text", "select"},
		Priority:  5,
	},
	{
		Attribute: schemas.AttrZipCode,
		Patterns:  []string{"zip", "zipcode", "zip code", "postal", "postalcode", "postal code", "postcode"},
		Types:     []string{"text"},
		Priority:  7,
	},
	{
		Attribute: schemas.AttrCountry,
		Patterns:  []string{"country", "nation"},
		Types:     []string{"text", "select"},
		Priority:  5,
	},
	{
		Attribute: schemas.AttrLinkedinURL,
		Patterns:  []string{"linkedin", "linked-in", "linked in"},
		Types:     []string{"url", "text"},
		Priority:  8,
	},
	{
		Attribute: schemas.AttrGithubURL,
		Patterns:  []string{"github", "git hub"},
		Types:     []string{"url", "text"},
		Priority:  8,
	},
	{
		Attribute: schemas.AttrPortfolioURL,
		Patterns:  []string{"portfolio", "personal website", "personal site", "website url", "web site"},
		Types:     []string{"url", "text"},
		Priority:  6,
	},
	{
		Attribute: schemas.AttrCurrentCompany,
		Patterns:  []string{"current company", "current employer", "company name", "employer", "organization", "organisation", "org"},
		Types:     []string{"text"},
		Priority:  6,
	},
	{
		Attribute: schemas.AttrCurrentTitle,
		Patterns:  []string{"current title", "job title", "current role", "current position", "your title"},
		Types:     []string{"text"},
		Priority:  6,
	},
	{
		Attribute: schemas.AttrYearsExperience,
		Patterns:  []string{"years of experience", "years experience", "yearsofexperience", "experience level", "years_experience", "yoe", "how many years"},
		Types:     []string{"number", "text", "select"},
		Priority:  8,
	},
	{
		Attribute: schemas.AttrSalaryExpectation,
		Patterns:  []string{"salary", "compensation", "expected pay", "desired pay", "pay expectation", "expected salary"},
		Types:     []string{"number", "text"},
		Priority:  7,
	},
	{
		Attribute: schemas.AttrWorkAuthorization,
		Patterns:  []string{"authorized to work", "work authorization", "work authorisation", "legally authorized", "eligible to work", "right to work"},
		Types:     []string{"select", "radio", "checkbox", "text"},
		Priority:  9,
	},
	{
		Attribute: schemas.AttrRequiresSponsorship,
		Patterns:  []string{"sponsorship", "require sponsorship", "visa sponsorship", "need sponsorship", "now or in the future"},
		Types:     []string{"select", "radio", "checkbox"},
		Priority:  9,
	},
	{
		Attribute: schemas.AttrDegree,
		Patterns:  []string{"degree", "education level", "highest education", "qualification"},
		Types:     []string{"text", "select"},
		Priority:  5,
	},
	{
		Attribute: schemas.AttrSchool,
		Patterns:  []string{"school", "university", "college", "institution", "alma mater"},
		Types:     []string{"text"},
		Priority:  5,
	},
	{
		Attribute: schemas.AttrGraduationYear,
		Patterns:  []string{"graduation year", "grad year", "year of graduation", "graduated"},
		Types:     []string{"number", "text", "select"},
		Priority:  5,
	},
	{
		Attribute: schemas.AttrSkills,
		Patterns:  []string{"skills", "technologies", "tech stack", "expertise"},
		Types:     []string{"text", "textarea"},
		Priority:  4,
	},
	{
		Attribute: schemas.AttrSummary,
		Patterns:  []string{"summary", "about you", "about yourself", "tell us about", "bio", "introduction"},
		Types:     []string{"textarea", "text"},
		Priority:  4,
	},
	{
		Attribute: schemas.AttrCoverLetter,
		Patterns:  []string{"cover letter", "coverletter", "cover_letter", "why do you want", "why are you interested", "motivation"},
		Types:     []string{"textarea", "text"},
		Priority:  5,
	},
	{
		Attribute: schemas.AttrReferral,
		Patterns:  []string{"how did you hear", "referral", "referred by", "source"},
		Types:     []string{"text", "select"},
		Priority:  3,
	},
	// Voluntary self-identification questions. Recognized so the fill
	// pass can account for them, but the resolver only ever produces the
	// decline option, and only when the profile opts in.
	{
		Attribute: schemas.AttrEEOGender,
		Patterns:  []string{"gender", "gender identity"},
		Types:     []string{"select", "radio"},
		Priority:  7,
	},
	{
		Attribute: schemas.AttrEEOVeteran,
		Patterns:  []string{"veteran", "veteran status", "protected veteran", "military service"},
		Types:     []string{"select", "radio"},
		Priority:  7,
	},
	{
		Attribute: schemas.AttrEEODisability,
		Patterns:  []string{"disability", "disability status", "disabilities"},
		Types:     []string{"select", "radio"},
		Priority:  7,
	},
}
