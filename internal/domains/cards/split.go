package cards

import "strings"

// SplitItems breaks content into the units the splitter counts and chunks.
func SplitItems(d Domain, content string) []string {
	if d == DomainCards {
		return SplitRecords(content)
	}
	return SplitLines(content)
}

// SplitRecords returns every complete card record, each ending in
// "END:VCARD\n". Fragments without a BEGIN marker and a trailing record that
// never reaches its END marker are dropped.
func SplitRecords(content string) []string {
	parts := strings.Split(content, EndMarker)
	// The piece after the last END marker is never a complete record.
	parts = parts[:len(parts)-1]
	records := make([]string, 0, len(parts))
	for _, part := range parts {
		if !strings.Contains(part, BeginMarker) {
			continue
		}
		records = append(records, strings.TrimLeft(part, "\r\n")+EndMarker+"\n")
	}
	return records
}

// SplitLines returns the lines of content with their terminators kept.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	lines := strings.SplitAfter(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// CountItems is the number reported back after a file is uploaded for splitting.
func CountItems(d Domain, content string) int {
	if d == DomainCards {
		return strings.Count(content, BeginMarker)
	}
	return len(SplitLines(content))
}

// ChunkCount is ceil(n/limit).
func ChunkCount(n, limit int) int {
	if n <= 0 || limit <= 0 {
		return 0
	}
	return (n-1)/limit + 1
}

// Chunk returns items[i*limit:(i+1)*limit] for chunk i; the last chunk may be
// shorter. It returns nil for out of range chunks.
func Chunk(items []string, limit, i int) []string {
	if limit <= 0 || i < 0 {
		return nil
	}
	if i >= ChunkCount(len(items), limit) {
		return nil
	}
	start := i * limit
	end := len(items)
	if limit < end-start {
		end = start + limit
	}
	return items[start:end]
}
