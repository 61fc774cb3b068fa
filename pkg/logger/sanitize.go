package logger

import (
	"strings"
)

// SanitizedLogin masks a manager login for logging (e.g., "a****")
func SanitizedLogin(login string) string {
	if login == "" {
		return "[empty-login]"
	}
	if len(login) == 1 {
		return "*"
	}
	return string(login[0]) + strings.Repeat("*", len(login)-1)
}

// SanitizeQueryString checks if query string contains sensitive parameters
// and returns true if the entire query string should be redacted
func SanitizeQueryString(rawQuery string) bool {
	sensitiveParams := map[string]bool{
		"password": true,
		"token":    true,
		"secret":   true,
		"login":    true,
		"auth":     true,
	}

	query := strings.ToLower(rawQuery)
	for param := range sensitiveParams {
		if strings.Contains(query, param+"=") {
			return true
		}
	}
	return false
}
