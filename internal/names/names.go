package names

import (
	"regexp"
	"strings"
)

// credentialTokens are honorifics and suffixes stripped during normalization.
// Comparison is case-insensitive with periods removed, so "Ph.D." and "phd"
// both match.
var credentialTokens = []string{
	"PhD", "PharmD", "PsyD", "EdD", "DrPH", "ScD", "DMin", "DBA", "JD", "DDS", "DMD", "DO", "DPM", "DC",
	"MD", "MS", "MSW", "MSN", "MSc", "MA", "MBA", "MPA", "MPH", "MPP", "MDiv", "MEd", "MFA", "MHS",
	"BSN", "BS", "BA", "BSW",
	"RN", "LPN", "NP", "CNS", "CRNA", "CNM", "APRN", "FNP",
	"LCSW", "LMSW", "LMFT", "LPC", "LCPC", "LCMHC", "LMHC", "LPCC", "LSW",
	"BCBA", "CPA", "PE", "RA", "AIA", "FACHE", "FAAN", "FACP", "FACS",
	"PA-C", "PA", "OT", "PT", "DPT", "SLP", "CCC-SLP",
	"CADC", "CASAC", "CAP", "CRC", "CARN", "NCAC",
	"Jr", "Sr", "II", "III", "IV",
	"Esq", "Ret",
}

var credentialSet = func() map[string]struct{} {
	set := make(map[string]struct{}, len(credentialTokens))
	for _, token := range credentialTokens {
		set[strings.ToLower(token)] = struct{}{}
	}
	return set
}()

var (
	asideRe      = regexp.MustCompile(`\[.*?\]|\(.*?\)`)
	multiRe      = regexp.MustCompile(`(?i)\b(and)\b|[&;]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// IsMultiAuthor reports whether a raw author cell names more than one person:
// a standalone "and", an ampersand, or a semicolon.
func IsMultiAuthor(raw string) bool {
	return multiRe.MatchString(raw)
}

func isCredential(token string) bool {
	cleaned := strings.ToLower(strings.ReplaceAll(token, ".", ""))
	_, ok := credentialSet[cleaned]
	return ok
}

func stripCredentials(segment string) string {
	tokens := strings.Fields(segment)
	kept := tokens[:0]
	for _, token := range tokens {
		if !isCredential(token) {
			kept = append(kept, token)
		}
	}
	return strings.Join(kept, " ")
}

// Normalize reduces a raw author name to a comparable form: bracketed and
// parenthetical asides removed, credential tokens dropped, "Last, First"
// reordered to "First Last", lowercased with collapsed whitespace.
//
// A comma-separated name keeps the first non-credential segment as the
// surname; every later surviving segment is treated as given names and moved
// in front of it. A name that is nothing but credentials normalizes to "".
func Normalize(raw string) string {
	name := asideRe.ReplaceAllString(raw, "")

	if strings.Contains(name, ",") {
		var segments []string
		for _, part := range strings.Split(name, ",") {
			if cleaned := stripCredentials(part); cleaned != "" {
				segments = append(segments, cleaned)
			}
		}
		switch {
		case len(segments) >= 2:
			surname := segments[0]
			given := strings.Join(segments[1:], " ")
			name = given + " " + surname
		case len(segments) == 1:
			name = segments[0]
		}
	} else {
		name = stripCredentials(name)
	}

	name = whitespaceRe.ReplaceAllString(name, " ")
	return strings.ToLower(strings.TrimSpace(name))
}
