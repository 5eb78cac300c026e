package logging

import (
	"regexp"
	"strings"
)

// RedactedPlaceholder is the string used to replace sensitive data
const RedactedPlaceholder = "[REDACTED]"

// sensitivePatterns are matched against every string value before it is logged.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(sk-[a-zA-Z0-9_-]{20,})`),      // OpenAI keys, legacy and project-scoped
	regexp.MustCompile(`(?i)(AIza[a-zA-Z0-9_-]{35})`),      // Google API keys (Vision)
	regexp.MustCompile(`(?i)(bearer\s+[a-zA-Z0-9._-]{20,})`), // Bearer tokens
	regexp.MustCompile(`(?i)(basic\s+[a-zA-Z0-9+/=]{8,})`),  // Basic auth headers (admin report)
	regexp.MustCompile(`(?i)(\$2[aby]\$\d{2}\$[./a-zA-Z0-9]{53})`), // bcrypt hashes

	// Generic secret assignments
	regexp.MustCompile(`(?i)(password\s*[:=]\s*[^\s,;]{8,})`),
	regexp.MustCompile(`(?i)(secret\s*[:=]\s*[^\s,;]{8,})`),
	regexp.MustCompile(`(?i)(token\s*[:=]\s*[^\s,;]{8,})`),
	regexp.MustCompile(`(?i)(api_key\s*[:=]\s*[^\s,;]{8,})`),
	regexp.MustCompile(`(?i)(apikey\s*[:=]\s*[^\s,;]{8,})`),
	regexp.MustCompile(`(?i)([?&]key=[^&\s]{8,})`), // key query parameters on upstream URLs
}

// sensitiveFieldNames are substrings of field or variable names whose
// values are always redacted.
var sensitiveFieldNames = []string{
	"OPENAI_API_KEY",
	"GOOGLE_VISION_API_KEY",
	"ADMIN_PASSWORD",
	"AUTHORIZATION",
	"PASSWORD",
	"SECRET",
	"TOKEN",
	"API_KEY",
	"APIKEY",
}

// RedactSensitiveData scans a string value and redacts any detected sensitive data.
//
// Example:
//
//	RedactSensitiveData("API key is sk-abc123def456...")
//	// "API key is [REDACTED]"
func RedactSensitiveData(value string) string {
	if value == "" {
		return value
	}

	result := value
	for _, pattern := range sensitivePatterns {
		result = pattern.ReplaceAllString(result, RedactedPlaceholder)
	}
	return result
}

// IsSensitiveField returns true if the field name indicates sensitive data.
// Only the name is checked, not the value.
func IsSensitiveField(fieldName string) bool {
	upperName := strings.ToUpper(fieldName)

	for _, name := range sensitiveFieldNames {
		if strings.Contains(upperName, name) {
			return true
		}
	}
	return false
}
