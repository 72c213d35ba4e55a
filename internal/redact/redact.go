// Package redact strips sensitive values from strings before they reach logs
// or error responses. Tasks carry store-account passwords, bearer tokens, and
// checkout session cookies; none of those may leak through an error message.
package redact

import "regexp"

// Redaction placeholders.
const (
	CredentialPlaceholder = "[REDACTED_CREDENTIAL]"
	TokenPlaceholder      = "[REDACTED_TOKEN]"
	CookiePlaceholder     = "[REDACTED_COOKIE]"
	WebhookPlaceholder    = "[REDACTED_WEBHOOK]"
)

var (
	// password/passwd/pwd fields in query strings, JSON bodies, or logs
	passwordRegex = regexp.MustCompile(`(?i)(password|passwd|pwd)(["']?\s*[=:]\s*["']?)[^"'&\s]{3,}`)

	// bearer headers and Magento integration tokens
	bearerRegex = regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9_\-.~+/]{8,}`)

	// three-part base64url JWTs
	jwtRegex = regexp.MustCompile(`eyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`)

	// session and clearance cookies by name
	cookieRegex = regexp.MustCompile(`(?i)(cf_clearance|ASP\.NET_SessionId)=[^;"\s]+`)

	// database connection strings with inline credentials
	dbConnRegex = regexp.MustCompile(`(?i)(postgres|postgresql|mysql)://[^@\s]+@`)

	// webhook endpoints embed a capability token in the path
	webhookRegex = regexp.MustCompile(`https://(discord(app)?\.com)/api/webhooks/[^\s"']+`)

	patternPlaceholders = []struct {
		pattern     *regexp.Regexp
		placeholder string
	}{
		{passwordRegex, "$1$2" + CredentialPlaceholder},
		{bearerRegex, TokenPlaceholder},
		{jwtRegex, TokenPlaceholder},
		{cookieRegex, "$1=" + CookiePlaceholder},
		{dbConnRegex, CredentialPlaceholder},
		{webhookRegex, WebhookPlaceholder},
	}
)

// String redacts sensitive values from the input.
func String(input string) string {
	if input == "" {
		return input
	}

	result := input
	for _, p := range patternPlaceholders {
		result = p.pattern.ReplaceAllString(result, p.placeholder)
	}
	return result
}

// Error redacts sensitive values from an error's message. Returns the empty
// string for a nil error.
func Error(err error) string {
	if err == nil {
		return ""
	}
	return String(err.Error())
}
