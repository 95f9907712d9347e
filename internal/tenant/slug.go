package tenant

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/suteetoe/vitrin/internal/apperr"
)

const (
	minSlugLength = 3
	maxSlugLength = 63
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// ValidateSlug checks that slug can be used as a subdomain label.
func ValidateSlug(slug string) error {
	const op = "tenant.ValidateSlug"
	if len(slug) < minSlugLength || len(slug) > maxSlugLength {
		return apperr.Validation(op, "slug must be between 3 and 63 characters")
	}
	if !slugPattern.MatchString(slug) || strings.Contains(slug, "--") {
		return apperr.Validation(op, "slug may only contain lowercase letters, digits and single hyphens")
	}
	return nil
}

// Slugify derives a subdomain-safe slug from a display name. Characters
// outside ASCII letters and digits become hyphen separators; the result may
// be empty when the name has none.
func Slugify(name string) string {
	var b strings.Builder
	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		pendingHyphen = true
	}
	s := b.String()
	if len(s) > maxSlugLength {
		s = strings.TrimRight(s[:maxSlugLength], "-")
	}
	return s
}
