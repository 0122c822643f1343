// Package resolver turns a canonical attribute plus the session's user
// profile into the concrete string a target control should receive. It
// never invents data: when the profile has nothing for an attribute the
// field is left blank.
package resolver

import (
	"strconv"
	"strings"

	"github.com/applypilot/applypilot-cli/api/schemas"
)

// Resolve returns the value for one classified element, honouring the
// element's constraints (control type, max length, option list). The
// second return is false when the profile holds no usable data for the
// attribute.
func Resolve(attr schemas.CanonicalAttribute, p *schemas.UserProfile, el *schemas.Element) (string, bool) {
	if p == nil || el == nil {
		return "", false
	}

	v, ok := rawValue(attr, p, el)
	if !ok || v == "" {
		return "", false
	}
	if el.Kind == schemas.KindTextLike && el.MaxLength > 0 && len(v) > el.MaxLength {
		v = v[:el.MaxLength]
	}
	return v, true
}

func rawValue(attr schemas.CanonicalAttribute, p *schemas.UserProfile, el *schemas.Element) (string, bool) {
	switch attr {
	case schemas.AttrFirstName:
		if p.FirstName != "" {
			return p.FirstName, true
		}
		first, _ := splitFullName(p.FullName)
		return first, first != ""
	case schemas.AttrLastName:
		if p.LastName != "" {
			return p.LastName, true
		}
		_, last := splitFullName(p.FullName)
		return last, last != ""
	case schemas.AttrFullName:
		name := p.DisplayName()
		return name, name != ""
	case schemas.AttrEmail:
		return p.Email, p.Email != ""
	case schemas.AttrPhone:
		return formatPhone(p.Phone, el.MaxLength)
	case schemas.AttrAddress:
		return p.Address, p.Address != ""
	case schemas.AttrCity:
		return p.City, p.City != ""
	case schemas.AttrState:
		return p.State, p.State != ""
	case schemas.AttrZipCode:
		return p.ZipCode, p.ZipCode != ""
	case schemas.AttrCountry:
		return p.Country, p.Country != ""
	case schemas.AttrLinkedinURL:
		return normalizeURL(p.LinkedinURL)
	case schemas.AttrGithubURL:
		return normalizeURL(p.GithubURL)
	case schemas.AttrPortfolioURL:
		return normalizeURL(p.PortfolioURL)
	case schemas.AttrCurrentCompany:
		return p.CurrentCompany, p.CurrentCompany != ""
	case schemas.AttrCurrentTitle:
		return p.CurrentTitle, p.CurrentTitle != ""
	case schemas.AttrYearsExperience:
		return formatExperience(p.YearsExperience, el)
	case schemas.AttrSalaryExpectation:
		return formatSalary(p.SalaryExpectation, el)
	case schemas.AttrWorkAuthorization:
		return resolveWorkAuth(p.WorkAuthorization, el, false)
	case schemas.AttrRequiresSponsorship:
		return resolveWorkAuth(p.WorkAuthorization, el, true)
	case schemas.AttrDegree:
		return p.Degree, p.Degree != ""
	case schemas.AttrSchool:
		return p.School, p.School != ""
	case schemas.AttrGraduationYear:
		if p.GraduationYear <= 0 {
			return "", false
		}
		return strconv.Itoa(p.GraduationYear), true
	case schemas.AttrSkills:
		if len(p.Skills) == 0 {
			return "", false
		}
		return strings.Join(p.Skills, ", "), true
	case schemas.AttrSummary:
		return p.Summary, p.Summary != ""
	case schemas.AttrCoverLetter, schemas.AttrReferral:
		// Cover letters come from the generation collaborator, not the
		// profile; referral sources have no canonical profile field.
		return "", false
	case schemas.AttrEEOGender, schemas.AttrEEOVeteran, schemas.AttrEEODisability:
		return resolveEEO(p, el)
	}
	return "", false
}

// splitFullName breaks a combined name into first and last parts. The
// last whitespace-separated token becomes the last name; everything
// before it the first name.
func splitFullName(full string) (first, last string) {
	fields := strings.Fields(full)
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return strings.Join(fields[:len(fields)-1], " "), fields[len(fields)-1]
	}
}

// formatPhone reformats a stored phone number to fit the apparent input
// mask. Ten raw digits render as "(555) 123-4567" for a 14-character
// mask and "555-123-4567" for a 12-character one; anything else passes
// through as bare digits.
func formatPhone(phone string, maxLength int) (string, bool) {
	digits := digitsOnly(phone)
	if digits == "" {
		return "", false
	}
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return digits, true
	}
	switch maxLength {
	case 14:
		return "(" + digits[:3] + ") " + digits[3:6] + "-" + digits[6:], true
	case 12:
		return digits[:3] + "-" + digits[3:6] + "-" + digits[6:], true
	default:
		return digits, true
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// formatExperience renders years of experience as a bucketed range for
// enumerated controls and as the raw number for free-text ones.
func formatExperience(years float64, el *schemas.Element) (string, bool) {
	if years < 0 {
		return "", false
	}
	if el.Kind == schemas.KindSelect || el.Kind == schemas.KindChoiceGroup || len(el.Options) > 0 {
		return experienceBucket(years), true
	}
	if years == 0 {
		return "0", true
	}
	return strconv.FormatFloat(years, 'f', -1, 64), true
}

// formatSalary renders the expected salary to match the control: bare
// digits for numeric inputs, "$85,000" for free-text ones.
func formatSalary(amount int, el *schemas.Element) (string, bool) {
	if amount <= 0 {
		return "", false
	}
	digits := strconv.Itoa(amount)
	if el.InputType == "number" || el.InputType == "range" {
		return digits, true
	}
	return "$" + groupThousands(digits), true
}

func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

func experienceBucket(years float64) string {
	switch {
	case years < 1:
		return "0-1"
	case years < 3:
		return "1-3"
	case years < 5:
		return "3-5"
	case years < 10:
		return "5-10"
	default:
		return "10+"
	}
}

// resolveWorkAuth maps the categorical work-authorization status onto a
// Yes/No answer. When the profile is silent the legally conservative
// answer is produced, but only for binary controls; free-text questions
// stay blank rather than guessed.
func resolveWorkAuth(status schemas.WorkAuthStatus, el *schemas.Element, sponsorshipQuestion bool) (string, bool) {
	authorized, known := status.Authorized()
	if !known {
		if !binaryControl(el) {
			return "", false
		}
		// Conservative: do not claim authorization, do assume
		// sponsorship is needed.
		if sponsorshipQuestion {
			return "Yes", true
		}
		return "No", true
	}
	answerYes := authorized
	if sponsorshipQuestion {
		answerYes = !authorized
	}
	if answerYes {
		return "Yes", true
	}
	return "No", true
}

// binaryControl reports whether the element collects a yes/no style
// answer: a checkbox, a radio pair, or a select whose enabled options
// reduce to two choices.
func binaryControl(el *schemas.Element) bool {
	switch el.Kind {
	case schemas.KindCheckbox, schemas.KindChoiceGroup:
		return true
	case schemas.KindSelect:
		n := 0
		for _, o := range el.Options {
			if o.Disabled || strings.TrimSpace(o.Value) == "" {
				continue
			}
			n++
		}
		return n == 2
	}
	return false
}

// eeoDeclinePhrases identify the "prefer not to answer" option of a
// voluntary self-identification control.
var eeoDeclinePhrases = []string{
	"decline",
	"prefer not",
	"do not wish",
	"don't wish",
	"not to answer",
	"choose not",
}

// resolveEEO answers a voluntary self-identification question. These
// are only ever answered with the control's own decline option, and
// only when the profile has opted in; with no opt-in or no decline
// option the field stays untouched.
func resolveEEO(p *schemas.UserProfile, el *schemas.Element) (string, bool) {
	if !p.AnswerEEO {
		return "", false
	}
	for _, o := range el.Options {
		if o.Disabled {
			continue
		}
		text := strings.ToLower(o.Text)
		for _, phrase := range eeoDeclinePhrases {
			if strings.Contains(text, phrase) {
				return o.Text, true
			}
		}
	}
	return "", false
}

// normalizeURL ensures stored links carry a scheme so URL-typed inputs
// accept them.
func normalizeURL(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	return raw, true
}
