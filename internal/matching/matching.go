package matching

import (
	"github.com/agnivade/levenshtein"
)

// Kind identifies which cascade stage produced a match.
type Kind string

const (
	KindExactName  Kind = "exact_name"
	KindFuzzyName  Kind = "fuzzy_name"
	KindExactEmail Kind = "exact_email"
	KindFuzzyEmail Kind = "fuzzy_email"
)

// Candidate is one directory entry to match against. Name must already be
// normalized and Email lowercased; the matcher compares values verbatim.
type Candidate struct {
	ID    int64
	Name  string
	Email string
}

// Outcome reports the winning candidate and the stage that selected it.
type Outcome struct {
	ID   int64
	Kind Kind
}

// Thresholds controls when a fuzzy comparison qualifies. A candidate
// qualifies when its similarity percentage reaches SimilarityPercent or its
// edit distance stays within the relevant limit.
type Thresholds struct {
	SimilarityPercent  int
	NameDistanceLimit  int
	EmailDistanceLimit int
}

// DefaultThresholds returns the stock matcher tuning.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SimilarityPercent:  85,
		NameDistanceLimit:  2,
		EmailDistanceLimit: 3,
	}
}

// Match runs the four-stage cascade: exact name, fuzzy name, exact email,
// fuzzy email. The first stage that produces a hit wins and later stages are
// not consulted. Empty inputs skip their stages entirely.
func Match(normalizedName, email string, candidates []Candidate, th Thresholds) (Outcome, bool) {
	if normalizedName != "" {
		for _, c := range candidates {
			if c.Name == normalizedName {
				return Outcome{ID: c.ID, Kind: KindExactName}, true
			}
		}
		if id, ok := bestFuzzy(normalizedName, candidates, th, false); ok {
			return Outcome{ID: id, Kind: KindFuzzyName}, true
		}
	}

	if email != "" {
		for _, c := range candidates {
			if c.Email != "" && c.Email == email {
				return Outcome{ID: c.ID, Kind: KindExactEmail}, true
			}
		}
		if id, ok := bestFuzzy(email, candidates, th, true); ok {
			return Outcome{ID: id, Kind: KindFuzzyEmail}, true
		}
	}

	return Outcome{}, false
}

// bestFuzzy scans all candidates and keeps the qualifying one with the
// strictly highest similarity. Equal scores break toward the lowest candidate
// id so reruns over a reordered directory pick the same winner.
func bestFuzzy(value string, candidates []Candidate, th Thresholds, byEmail bool) (int64, bool) {
	distanceLimit := th.NameDistanceLimit
	if byEmail {
		distanceLimit = th.EmailDistanceLimit
	}

	var (
		bestID    int64
		bestScore float64 = -1
		found     bool
	)
	for _, c := range candidates {
		target := c.Name
		if byEmail {
			target = c.Email
		}
		if target == "" {
			continue
		}

		pct := Similarity(value, target)
		dist := levenshtein.ComputeDistance(value, target)
		if pct < float64(th.SimilarityPercent) && dist > distanceLimit {
			continue
		}
		if !found || pct > bestScore || (pct == bestScore && c.ID < bestID) {
			bestID = c.ID
			bestScore = pct
			found = true
		}
	}
	return bestID, found
}
