package cards

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	BeginMarker = "BEGIN:VCARD"
	EndMarker   = "END:VCARD"

	fnPrefix = "FN:"
)

var trailingDigits = regexp.MustCompile(`\s*\d+$`)

// FormatCard renders one contact record. Field order and the version line are
// fixed so the files import cleanly into phone address books.
func FormatCard(name, number string) string {
	var b strings.Builder
	writeCard(&b, name, number)
	return b.String()
}

func writeCard(b *strings.Builder, name, number string) {
	b.WriteString(BeginMarker)
	b.WriteString("\nVERSION:3.0\nFN:")
	b.WriteString(name)
	b.WriteString("\nTEL;TYPE=CELL:")
	b.WriteString(number)
	b.WriteString("\n")
	b.WriteString(EndMarker)
	b.WriteString("\n")
}

// SequentialName is the numbered contact name used by the sequential workflows.
func SequentialName(base string, n int) string {
	return base + " " + strconv.Itoa(n)
}

// CleanContactBase drops a trailing number (and the spaces before it) so that
// "Team 7" and "Team" both number as "Team 1", "Team 2", ...
func CleanContactBase(raw string) string {
	return strings.TrimSpace(trailingDigits.ReplaceAllString(strings.TrimSpace(raw), ""))
}

// NumbersToCards emits one card per non-blank line of content, named
// "<base> <n>" with n starting at 1 for this content.
func NumbersToCards(content, base string) string {
	var b strings.Builder
	n := 1
	for _, line := range strings.Split(content, "\n") {
		number := strings.TrimSpace(line)
		if number == "" {
			continue
		}
		writeCard(&b, SequentialName(base, n), number)
		n++
	}
	return b.String()
}

// CardsToNumbers collects the value after the last ':' of every line that
// mentions TEL, one per output line.
func CardsToNumbers(content string) string {
	numbers := make([]string, 0)
	for _, line := range strings.Split(content, "\n") {
		if !strings.Contains(line, "TEL") {
			continue
		}
		value := line
		if idx := strings.LastIndex(line, ":"); idx >= 0 {
			value = line[idx+1:]
		}
		numbers = append(numbers, strings.TrimSpace(value))
	}
	return strings.Join(numbers, "\n")
}

// RenameContacts rewrites every FN line to "<base> <n>", n restarting at 1 for
// this content. Other lines are copied byte for byte.
func RenameContacts(content, base string) string {
	var b strings.Builder
	b.Grow(len(content))
	n := 1
	for _, line := range strings.SplitAfter(content, "\n") {
		if !strings.HasPrefix(line, fnPrefix) {
			b.WriteString(line)
			continue
		}
		b.WriteString(fnPrefix)
		b.WriteString(SequentialName(base, n))
		b.WriteString(lineTerminator(line))
		n++
	}
	return b.String()
}

func lineTerminator(line string) string {
	switch {
	case strings.HasSuffix(line, "\r\n"):
		return "\r\n"
	case strings.HasSuffix(line, "\n"):
		return "\n"
	default:
		return ""
	}
}
