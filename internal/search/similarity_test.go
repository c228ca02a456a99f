// Bibliotheca - Library Catalog Index and Query Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bibliotheca

package search

import (
	"math"
	"testing"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{"identical", "learning python", "learning python", 1.0},
		{"both empty", "", "", 1.0},
		{"one empty", "python", "", 0.0},
		{"no overlap", "abc", "xyz", 0.0},
		{"single typo", "abcd", "abed", 0.75}, // matches "ab" + "d" = 3, 2*3/8
		{"shifted block", "abcd", "bcde", 0.75},
		{"prefix", "learn", "learning", 10.0 / 13.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Ratio(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Ratio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRatioOrderSensitivity(t *testing.T) {
	// A scrambled string shares characters but few contiguous blocks.
	straight := Ratio("learning python", "learning python")
	scrambled := Ratio("learning python", "python learning")

	if scrambled >= straight {
		t.Errorf("scrambled ratio %v should be below identical ratio %v", scrambled, straight)
	}
	if scrambled <= 0 {
		t.Errorf("scrambled ratio %v should still credit the common block", scrambled)
	}
}

func TestLongestCommonBlock(t *testing.T) {
	tests := []struct {
		a, b     string
		wantA    int
		wantB    int
		wantSize int
	}{
		{"abcd", "bcde", 1, 0, 3},
		{"abc", "xyz", 0, 0, 0},
		{"same", "same", 0, 0, 4},
		{"xxabxx", "yyabyy", 2, 2, 2},
	}

	for _, tt := range tests {
		ai, bi, size := longestCommonBlock([]rune(tt.a), []rune(tt.b))
		if ai != tt.wantA || bi != tt.wantB || size != tt.wantSize {
			t.Errorf("longestCommonBlock(%q, %q) = (%d, %d, %d), want (%d, %d, %d)",
				tt.a, tt.b, ai, bi, size, tt.wantA, tt.wantB, tt.wantSize)
		}
	}
}

func FuzzRatio(f *testing.F) {
	f.Add("learning python", "learning pythn")
	f.Add("", "")
	f.Add("ai revolution", "AI Revolution")
	f.Add("日本語のタイトル", "日本語タイトル")

	f.Fuzz(func(t *testing.T, a, b string) {
		got := Ratio(a, b)
		if got < 0 || got > 1 {
			t.Fatalf("Ratio(%q, %q) = %v, outside [0, 1]", a, b, got)
		}
		if a == b && got != 1.0 {
			t.Fatalf("Ratio of identical strings = %v, want 1.0", got)
		}
	})
}
