package sanitizer

import (
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reWhitespace = regexp.MustCompile(`\s+`)
	reControl    = regexp.MustCompile(`[\x00-\x1f\x7f]`)

	supportedRegions = []string{
		"IL",
		"US",
		"GB",
	}
	reValidPhone = regexp.MustCompile(`^(?:|\+[1-9]\d{7,14})$`)
)

func trim(s string) string {
	return strings.TrimSpace(s)
}

func collapseWhitespace(s string) string {
	return reWhitespace.ReplaceAllString(s, " ")
}

func stripControl(s string) string {
	return reControl.ReplaceAllString(s, "")
}

// SanitizeName normalizes an attendee or link display name: control
// characters removed, runs of whitespace collapsed, surrounding space
// trimmed. Casing is preserved; this is a display value, not a key.
func SanitizeName(input string) string {
	p := Pipeline{
		stripControl,
		collapseWhitespace,
		trim,
	}
	return p.Apply(input)
}

// SanitizeNotes keeps free-form visitor notes printable and bounded in shape.
func SanitizeNotes(input string) string {
	p := Pipeline{
		stripControl,
		trim,
	}
	return p.Apply(input)
}

func SanitizeEmail(input string) string {
	p := Pipeline{
		trim,
		strings.ToLower,
	}
	return p.Apply(input)
}

// SanitizePhone normalizes a phone number to E.164. Invalid input passes
// through unchanged so the validator can reject it with a proper message.
func SanitizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" || !reValidPhone.MatchString(phone) {
		return phone
	}

	for _, region := range supportedRegions {
		parsedNumber, err := phonenumbers.Parse(phone, region)
		if err == nil {
			return phonenumbers.Format(parsedNumber, phonenumbers.E164)
		}
	}
	return phone
}

func TrimAndNormalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
