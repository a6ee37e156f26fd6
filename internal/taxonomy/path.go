package taxonomy

import "strconv"

// PathOutcome reports how a single category path resolved.
//
// Exactly one of the three shapes holds: TermID > 0 with Skipped false and
// Mismatch nil (fully resolved, TermID is the deepest term); Skipped true
// (an operator mapping said to ignore a level, the path assigns nothing);
// Mismatch non-nil (resolution suspended at Depth, 1-based).
type PathOutcome struct {
	TermID   int64
	Skipped  bool
	Mismatch *Mismatch
	Depth    int
}

// ResolvePath walks the given levels down the forest, consulting memory
// before the forest at every level. The walk ends at the first Skip mapping
// or unknown value; an unknown value produces a mismatch whose options are
// the children of the current parent. Empty levels must already be trimmed
// away by the caller.
func ResolvePath(forest *Forest, levels []string, memory Memory) PathOutcome {
	var parent int64
	var last int64

	for depth, value := range levels {
		key := PathKey(parent, value)

		if resolved, ok := memory[key]; ok {
			if resolved == Skip {
				return PathOutcome{Skipped: true, Depth: depth + 1}
			}
			id, err := strconv.ParseInt(resolved, 10, 64)
			if err != nil || id <= 0 {
				return PathOutcome{Skipped: true, Depth: depth + 1}
			}
			last = id
			parent = id
			continue
		}

		id, ok := forest.FindChild(parent, value)
		if !ok {
			return PathOutcome{
				Depth: depth + 1,
				Mismatch: &Mismatch{
					MappingKey: key,
					CSVValue:   value,
					Options:    forest.ChildOptions(parent),
				},
			}
		}
		last = id
		parent = id
	}

	return PathOutcome{TermID: last, Depth: len(levels)}
}
