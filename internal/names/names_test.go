package names_test

import (
	"testing"

	"intake/internal/names"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "John Smith", "john smith"},
		{"last first", "Smith, John", "john smith"},
		{"last first credential", "Smith, John, MD", "john smith"},
		{"credential with periods", "Smith, John, Ph.D.", "john smith"},
		{"trailing credentials no comma", "John Smith PhD RN", "john smith"},
		{"parenthetical aside", "John Smith (emeritus)", "john smith"},
		{"bracketed aside", "John Smith [deceased]", "john smith"},
		{"multiple given segments", "Smith, John, Jacob", "john jacob smith"},
		{"credential only", "PhD", ""},
		{"credentials only comma form", "MD, PhD", ""},
		{"mixed case credential", "Smith, John, md", "john smith"},
		{"suffix", "Smith, John, Jr.", "john smith"},
		{"whitespace collapse", "  John   Smith  ", "john smith"},
		{"credential inside segment", "Smith MD, John", "john smith"},
		{"empty", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := names.Normalize(tc.in); got != tc.want {
				t.Fatalf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestIsMultiAuthor(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"John Smith and Jane Roe", true},
		{"John Smith & Jane Roe", true},
		{"John Smith; Jane Roe", true},
		{"John Smith AND Jane Roe", true},
		{"Alexander Smith", false},
		{"Sandra Bland", false},
		{"John Smith", false},
	}

	for _, tc := range cases {
		if got := names.IsMultiAuthor(tc.in); got != tc.want {
			t.Fatalf("IsMultiAuthor(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
