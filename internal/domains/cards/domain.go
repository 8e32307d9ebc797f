package cards

import (
	"strings"
	"unicode/utf8"
)

// Domain says how a file's content is structured.
type Domain string

const (
	// DomainLines is plain text treated as an ordered list of lines.
	DomainLines Domain = "lines"
	// DomainCards is vCard text made of BEGIN/END delimited records.
	DomainCards Domain = "cards"
)

const (
	ExtCards = ".vcf"
	ExtLines = ".txt"
)

// DomainForExt picks the card domain for .vcf files and lines otherwise.
func DomainForExt(ext string) Domain {
	if strings.EqualFold(strings.TrimSpace(ext), ExtCards) {
		return DomainCards
	}
	return DomainLines
}

func (d Domain) Ext() string {
	if d == DomainCards {
		return ExtCards
	}
	return ExtLines
}

// MergeSeparator is written after each source when merging. Card records are
// self-delimiting; text files get a line break so the last line of one file
// does not run into the first line of the next.
func (d Domain) MergeSeparator() string {
	if d == DomainCards {
		return ""
	}
	return "\n"
}

// Decode turns raw upload bytes into text, dropping invalid UTF-8 sequences.
func Decode(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return strings.ToValidUTF8(string(data), "")
}
