package cards

import "strings"

const minPhoneLen = 6

// Contact is one name/number pair recovered from free-form text.
type Contact struct {
	Name   string
	Number string
}

// IsPhoneNumber reports whether line is all digits with an optional single
// leading '+', longer than five characters.
func IsPhoneNumber(line string) bool {
	if len(line) < minPhoneLen {
		return false
	}
	digits := strings.TrimPrefix(line, "+")
	if digits == "" {
		return false
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return false
		}
	}
	return true
}

// ParseFreeform pairs each phone number line with the closest preceding name
// line. A number without a pending name is ignored, and a name that is never
// followed by a number is dropped.
func ParseFreeform(text string) []Contact {
	contacts := make([]Contact, 0)
	pending := ""
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if !IsPhoneNumber(line) {
			pending = line
			continue
		}
		if pending == "" {
			continue
		}
		contacts = append(contacts, Contact{Name: pending, Number: line})
		pending = ""
	}
	return contacts
}

// FreeformToCards renders the contacts found by ParseFreeform.
func FreeformToCards(text string) string {
	var b strings.Builder
	for _, c := range ParseFreeform(text) {
		writeCard(&b, c.Name, c.Number)
	}
	return b.String()
}
