package generator

import (
	"strings"
	"testing"
)

func TestGenerate_Length(t *testing.T) {
	tests := []struct {
		name     string
		length   int
		expected int
	}{
		{"default on zero", 0, DefaultLength},
		{"default on negative", -3, DefaultLength},
		{"explicit six", 6, 6},
		{"explicit ten", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := New(tt.length)
			code, err := g.Generate()
			if err != nil {
				t.Fatalf("Generate failed: %v", err)
			}
			if len(code) != tt.expected {
				t.Errorf("Generate() len = %d; want %d", len(code), tt.expected)
			}
		})
	}
}

func TestGenerate_AlphabetOnly(t *testing.T) {
	g := New(32)
	for i := 0; i < 50; i++ {
		code, err := g.Generate()
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		for _, c := range code {
			if !strings.ContainsRune(Alphabet(), c) {
				t.Fatalf("Generate() produced %q, char %q outside alphabet", code, c)
			}
		}
	}
}

func TestGenerate_NotConstant(t *testing.T) {
	// With 62^20 combinations, two equal codes in a row means the
	// randomness source is broken.
	g := New(20)
	a, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	b, err := g.Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if a == b {
		t.Errorf("two consecutive codes identical: %s", a)
	}
}
