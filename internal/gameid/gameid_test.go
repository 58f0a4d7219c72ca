package gameid

import (
	"strings"
	"testing"
)

func TestGenerateFormat(t *testing.T) {
	t.Parallel()
	for i := 0; i < 100; i++ {
		code := Generate()
		if err := Validate(code); err != nil {
			t.Fatalf("generated invalid code %q: %v", code, err)
		}
		if !strings.HasPrefix(code, "H") {
			t.Fatalf("code %q missing prefix", code)
		}
		if len(code) != CodeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), CodeLength)
		}
	}
}

func TestGeneratePracticalUniqueness(t *testing.T) {
	t.Parallel()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		code := Generate()
		if seen[code] {
			t.Fatalf("duplicate code %q after %d generations", code, i)
		}
		seen[code] = true
	}
}

type fixedSource struct {
	values []int
	pos    int
}

func (f *fixedSource) Intn(n int) int {
	v := f.values[f.pos%len(f.values)] % n
	f.pos++
	return v
}

func TestGenerateWithRandSource(t *testing.T) {
	t.Parallel()
	gen := NewGenerator(&fixedSource{values: []int{0, 1, 2, 3, 4}})
	code := gen.Generate()
	if code != "H01234" {
		t.Errorf("deterministic source produced %q, want H01234", code)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()
	cases := []struct {
		code string
		ok   bool
	}{
		{"HK7Q2M", true},
		{"H00000", true},
		{"HZZZZZ", true},
		{"", false},
		{"K7Q2M", false},   // too short
		{"XK7Q2M", false},  // wrong prefix
		{"HK7Q2MM", false}, // too long
		{"HK7Q2I", false},  // I not in alphabet
		{"hk7q2m", false},  // lowercase
	}
	for _, tc := range cases {
		err := Validate(tc.code)
		if tc.ok && err != nil {
			t.Errorf("Validate(%q) = %v, want nil", tc.code, err)
		}
		if !tc.ok && err == nil {
			t.Errorf("Validate(%q) = nil, want error", tc.code)
		}
	}
}
