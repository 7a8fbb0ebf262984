package validation

import (
	"regexp"
	"strings"

	"github.com/trudify/trudify-core/internal/apperrors"
)

// Reasons reported for rejected messages.
const (
	ReasonEmail = "email"
	ReasonURL   = "url"
	ReasonPhone = "phone"
)

var (
	slugRe = regexp.MustCompile(`^[a-z0-9_-]+$`)

	emailRe = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
	urlRe   = regexp.MustCompile(`(?i)(?:https?://|www\.)\S+|\b[a-z0-9][a-z0-9\-]*\.(?:com|net|org|bg|eu|io|info|biz|ru|me|co|app|dev|online|site|store)\b`)
	// nine or more digits, optionally separated by spaces, dots, dashes or brackets
	phoneRe = regexp.MustCompile(`\+?\d(?:[\s\-.()]*\d){8,}`)
)

// DetectContactInfo returns the reason a text would leak contact details,
// or "" when it is clean. Emails are checked before URLs since every email
// also contains a domain.
func DetectContactInfo(text string) string {
	switch {
	case strings.TrimSpace(text) == "":
		return ""
	case emailRe.MatchString(text):
		return ReasonEmail
	case urlRe.MatchString(text):
		return ReasonURL
	case phoneRe.MatchString(text):
		return ReasonPhone
	}

	return ""
}

// CheckMessage returns *apperrors.ContactInfoError for messages that share
// contact details before an application is accepted.
func CheckMessage(text string) error {
	if reason := DetectContactInfo(text); reason != "" {
		return &apperrors.ContactInfoError{Reason: reason}
	}

	return nil
}
