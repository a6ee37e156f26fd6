package taxonomy

import (
	"sort"

	"golang.org/x/text/cases"
)

var fold = cases.Fold()

// Term is one node of the category hierarchy. Parent 0 marks a top-level
// term.
type Term struct {
	ID     int64
	Name   string
	Parent int64
}

// Forest indexes the full category hierarchy for parent-scoped lookups.
type Forest struct {
	terms    []Term
	children map[int64][]int
	byKey    map[childKey]int64
}

type childKey struct {
	parent int64
	folded string
}

// NewForest builds lookup indexes over the given terms. The first term wins
// when two siblings fold to the same name.
func NewForest(terms []Term) *Forest {
	f := &Forest{
		terms:    make([]Term, len(terms)),
		children: make(map[int64][]int),
		byKey:    make(map[childKey]int64, len(terms)),
	}
	copy(f.terms, terms)
	for i, term := range f.terms {
		f.children[term.Parent] = append(f.children[term.Parent], i)
		key := childKey{parent: term.Parent, folded: fold.String(term.Name)}
		if _, ok := f.byKey[key]; !ok {
			f.byKey[key] = term.ID
		}
	}
	return f
}

// FindChild looks up a term by name under the given parent,
// case-insensitively.
func (f *Forest) FindChild(parent int64, name string) (int64, bool) {
	id, ok := f.byKey[childKey{parent: parent, folded: fold.String(trim(name))}]
	return id, ok
}

// ChildOptions lists every direct child of parent as selectable options,
// sorted case-insensitively by name.
func (f *Forest) ChildOptions(parent int64) []Option {
	indexes := f.children[parent]
	options := make([]Option, 0, len(indexes))
	for _, i := range indexes {
		options = append(options, Option{
			Value: formatID(f.terms[i].ID),
			Label: f.terms[i].Name,
		})
	}
	sort.SliceStable(options, func(i, j int) bool {
		return fold.String(options[i].Label) < fold.String(options[j].Label)
	})
	return options
}

// Len returns the number of terms in the forest.
func (f *Forest) Len() int {
	return len(f.terms)
}
