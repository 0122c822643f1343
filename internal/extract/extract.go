// Package extract pulls job posting metadata (title, company, location)
// out of DOM snapshots. Selectors come from the active site profile with
// generic heuristics as fallback; pages that yield no plausible title
// are not treated as job postings.
package extract

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/applypilot/applypilot-cli/api/schemas"
	"github.com/applypilot/applypilot-cli/internal/siteprofile"
)

// genericCompanySelectors and genericLocationSelectors are tried after
// the profile-specific ones.
var (
	genericCompanySelectors = []string{
		`[data-company]`,
		".company-name",
		".posting-categories .sort-by-team",
		`meta[property="og:site_name"]`,
	}
	genericLocationSelectors = []string{
		`[data-location]`,
		".location",
		".posting-categories .sort-by-location",
		".job-location",
	}
)

// JobInfo extracts best-effort posting metadata from a DOM snapshot.
func JobInfo(htmlStr, pageURL string, profile *siteprofile.Profile) (schemas.JobInfo, error) {
	doc, err := htmlquery.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return schemas.JobInfo{}, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	info := schemas.JobInfo{
		URL:      pageURL,
		Platform: profile.Platform,
		Title:    extractTitle(doc, profile),
		Company:  firstText(doc, genericCompanySelectors),
		Location: firstText(doc, genericLocationSelectors),
	}

	if info.Company == "" {
		info.Company = companyFromHost(pageURL)
	}
	return info, nil
}

// PageText returns the page's visible text, lower-cased and whitespace
// collapsed, for confirmation-phrase matching.
func PageText(htmlStr string) (string, error) {
	doc, err := htmlquery.Parse(strings.NewReader(htmlStr))
	if err != nil {
		return "", fmt.Errorf("failed to parse snapshot: %w", err)
	}
	body := htmlquery.FindOne(doc, "//body")
	if body == nil {
		body = doc
	}
	return strings.ToLower(strings.Join(strings.Fields(htmlquery.InnerText(body)), " ")), nil
}

// extractTitle walks the profile's title selectors in order, then falls
// back to og:title and the document title.
func extractTitle(doc *html.Node, profile *siteprofile.Profile) string {
	for _, sel := range profile.TitleSelectors {
		if t := queryText(doc, sel); t != "" {
			return t
		}
	}
	if t := metaContent(doc, "og:title"); t != "" {
		return t
	}
	if node := htmlquery.FindOne(doc, "//title"); node != nil {
		return cleanDocumentTitle(htmlquery.InnerText(node))
	}
	return ""
}

func firstText(doc *html.Node, selectors []string) string {
	for _, sel := range selectors {
		if strings.HasPrefix(sel, "meta") {
			if v := metaContent(doc, "og:site_name"); v != "" {
				return v
			}
			continue
		}
		if t := queryText(doc, sel); t != "" {
			return t
		}
	}
	return ""
}

func queryText(doc *html.Node, cssSelector string) string {
	xpath, err := cssToXPath(cssSelector)
	if err != nil {
		return ""
	}
	node, err := htmlquery.Query(doc, xpath)
	if err != nil || node == nil {
		return ""
	}
	return strings.Join(strings.Fields(htmlquery.InnerText(node)), " ")
}

func metaContent(doc *html.Node, property string) string {
	node, err := htmlquery.Query(doc, fmt.Sprintf(`//meta[@property=%q or @name=%q]`, property, property))
	if err != nil || node == nil {
		return ""
	}
	return strings.TrimSpace(htmlquery.SelectAttr(node, "content"))
}

// cleanDocumentTitle strips common "Job Title - Company | Board" suffixes
// from a <title> value.
func cleanDocumentTitle(title string) string {
	title = strings.TrimSpace(title)
	for _, sep := range []string{" | ", " - ", " – ", " at "} {
		if i := strings.Index(title, sep); i > 0 {
			title = title[:i]
			break
		}
	}
	return strings.TrimSpace(title)
}

// companyFromHost derives a fallback company label from the page host,
// dropping board subdomains and the TLD.
func companyFromHost(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return host
	}
	// ATS boards put the tenant in the subdomain (acme.wd5.myworkdayjobs.com).
	if len(parts) > 2 {
		return parts[0]
	}
	return parts[len(parts)-2]
}
