package importer

import (
	"strings"
	"time"
)

// validResourceTypes are the slugs the Format column may map onto.
var validResourceTypes = map[string]struct{}{
	"assessment": {}, "audio": {}, "issue_brief": {}, "manual": {}, "online_training": {},
	"presentation": {}, "report": {}, "toolkit": {}, "trainer_tools": {},
	"training_curriculum": {}, "webinar": {}, "website": {}, "other": {},
}

var validTrainingLevels = map[string]struct{}{
	"101": {}, "202": {}, "advanced": {},
}

// mapResourceType slugs a Format cell. An empty cell maps to "", an unknown
// non-empty cell reports ok=false so the row can be skipped.
func mapResourceType(format string) (string, bool) {
	format = strings.TrimSpace(format)
	if format == "" {
		return "", true
	}
	slug := strings.ReplaceAll(strings.ToLower(format), " ", "_")
	if _, ok := validResourceTypes[slug]; ok {
		return slug, true
	}
	return "", false
}

// mapTrainingLevel slugs a Training Level cell. Unknown values degrade to ""
// rather than skipping the row; "101/202" style cells fall back to their
// first segment.
func mapTrainingLevel(level string) string {
	level = strings.TrimSpace(level)
	if level == "" {
		return ""
	}
	slug := strings.ReplaceAll(strings.ToLower(level), " ", "_")
	if _, ok := validTrainingLevels[slug]; ok {
		return slug
	}
	if strings.Contains(level, "/") {
		first := strings.ToLower(strings.TrimSpace(strings.SplitN(level, "/", 2)[0]))
		if _, ok := validTrainingLevels[first]; ok {
			return first
		}
	}
	return ""
}

var dateLayouts = []string{
	"2006-01-02",
	"1/2/2006",
	"01/02/2006",
	"1/2/06",
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
}

// convertDate parses a Date Added cell into YYYYMMDD; unparseable or empty
// cells map to "".
func convertDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.Format("20060102")
		}
	}
	return ""
}

// splitPipes splits a pipe-delimited cell into trimmed parts; an empty cell
// yields nil.
func splitPipes(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func nonEmpty(parts []string) []string {
	var out []string
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
