// internal/extract/cssxpath.go
package extract

import (
	"fmt"
	"strings"
)

// cssToXPath converts the narrow CSS subset used by site profiles into
// an XPath expression: tag names, .class, #id, [attr="value"] terms and
// descendant combinators. Escaped dots in IDs (`#a\.b`) are unescaped.
func cssToXPath(css string) (string, error) {
	css = strings.TrimSpace(css)
	if css == "" {
		return "", fmt.Errorf("empty selector")
	}

	var b strings.Builder
	for _, part := range strings.Fields(css) {
		step, err := compoundToXPath(part)
		if err != nil {
			return "", err
		}
		b.WriteString("//")
		b.WriteString(step)
	}
	return b.String(), nil
}

// compoundToXPath handles one compound selector like `h1.job_title` or
// `input[name="email"]`.
func compoundToXPath(sel string) (string, error) {
	tag := "*"
	var predicates []string

	i := 0
	// Leading tag name.
	for i < len(sel) && sel[i] != '.' && sel[i] != '#' && sel[i] != '[' {
		i++
	}
	if i > 0 {
		tag = strings.ToLower(sel[:i])
		for _, r := range tag {
			if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' && r != '*' {
				return "", fmt.Errorf("unsupported selector syntax in %q", sel)
			}
		}
	}

	for i < len(sel) {
		switch sel[i] {
		case '.':
			name, next := readName(sel, i+1)
			if name == "" {
				return "", fmt.Errorf("malformed class term in %q", sel)
			}
			predicates = append(predicates, fmt.Sprintf(
				`contains(concat(' ', normalize-space(@class), ' '), ' %s ')`, name))
			i = next
		case '#':
			name, next := readName(sel, i+1)
			if name == "" {
				return "", fmt.Errorf("malformed id term in %q", sel)
			}
			predicates = append(predicates, fmt.Sprintf(`@id=%q`, strings.ReplaceAll(name, `\.`, ".")))
			i = next
		case '[':
			end := strings.IndexByte(sel[i:], ']')
			if end < 0 {
				return "", fmt.Errorf("unterminated attribute term in %q", sel)
			}
			term := sel[i+1 : i+end]
			i += end + 1
			if eq := strings.IndexByte(term, '='); eq >= 0 {
				attr := strings.TrimRight(term[:eq], "*^$")
				val := strings.Trim(term[eq+1:], `"'`)
				switch {
				case strings.HasSuffix(term[:eq], "*"):
					predicates = append(predicates, fmt.Sprintf(`contains(@%s, %q)`, attr, val))
				case strings.HasSuffix(term[:eq], "^"):
					predicates = append(predicates, fmt.Sprintf(`starts-with(@%s, %q)`, attr, val))
				default:
					predicates = append(predicates, fmt.Sprintf(`@%s=%q`, attr, val))
				}
			} else {
				predicates = append(predicates, "@"+term)
			}
		default:
			return "", fmt.Errorf("unsupported selector syntax in %q", sel)
		}
	}

	xpath := tag
	for _, p := range predicates {
		xpath += "[" + p + "]"
	}
	return xpath, nil
}

// readName consumes an identifier starting at position i, honouring
// backslash escapes, and returns it with the index past its end.
func readName(s string, i int) (string, int) {
	start := i
	for i < len(s) {
		if s[i] == '\\' && i+1 < len(s) {
			i += 2
			continue
		}
		c := s[i]
		if c == '.' || c == '#' || c == '[' {
			break
		}
		i++
	}
	return s[start:i], i
}
