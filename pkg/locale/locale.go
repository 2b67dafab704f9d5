package locale

import "strings"

const DefaultTimezone = "UTC"

type Country struct {
	Code            string   // ISO 3166-1 alpha-2 country code
	Name            string   // Human-readable country name
	PhonePrefixes   []string // Phone number prefixes (e.g., ["+972", "972"])
	DefaultTimezone string   // IANA timezone identifier
}

var Countries = map[string]Country{
	"IL": {
		Code:            "IL",
		Name:            "Israel",
		PhonePrefixes:   []string{"+972", "972"},
		DefaultTimezone: "Asia/Jerusalem",
	},
	"US": {
		Code:            "US",
		Name:            "United States",
		PhonePrefixes:   []string{"+1", "1"},
		DefaultTimezone: "America/New_York",
	},
	"GB": {
		Code:            "GB",
		Name:            "United Kingdom",
		PhonePrefixes:   []string{"+44", "44"},
		DefaultTimezone: "Europe/London",
	},
}

// InferTimezoneFromPhone guesses a host's timezone from their phone prefix.
// Used only as a default when a booking link carries no explicit timezone.
func InferTimezoneFromPhone(phone string) string {
	normalized := strings.TrimSpace(phone)

	for _, country := range Countries {
		for _, prefix := range country.PhonePrefixes {
			if strings.HasPrefix(normalized, prefix) {
				return country.DefaultTimezone
			}
		}
	}

	return DefaultTimezone
}
