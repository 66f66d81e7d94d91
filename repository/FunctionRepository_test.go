package repository

import (
	"strings"
	"testing"
)

func TestGenerateGroupID(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{
			name:  "simple title",
			title: "Notebook Dell Inspiron",
			want:  "notebook-dell-inspiron-group",
		},
		{
			name:  "mixed case and punctuation",
			title: "Geladeira Brastemp 375L (Frost Free)!",
			want:  "geladeira-brastemp-375l-frost-free-group",
		},
		{
			name:  "leading and trailing spaces",
			title: "  iPhone 15 Pro  ",
			want:  "iphone-15-pro-group",
		},
		{
			name:  "consecutive separators collapse",
			title: "TV -- 55\"  4K",
			want:  "tv-55-4k-group",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateGroupID(tt.title); got != tt.want {
				t.Errorf("GenerateGroupID(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

func TestGenerateGroupIDEmptyTitle(t *testing.T) {
	got := GenerateGroupID("!!!")
	if !strings.HasPrefix(got, "group-") {
		t.Errorf("titles with no slug characters should fall back to a random id, got %q", got)
	}
}

func TestGenerateRandomNumberRange(t *testing.T) {
	for i := 0; i < 100; i++ {
		n := GenerateRandomNumber()
		if n < 100000000 || n > 999999999 {
			t.Fatalf("GenerateRandomNumber() = %d, want a nine-digit number", n)
		}
	}
}
