package textutil

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Image-Alt ", "image-alt"},
		{"SERIOUS", "serious"},
		{"", ""},
		{"\tGovernment\n", "government"},
	}
	for _, tt := range tests {
		if got := Clean(tt.input); got != tt.want {
			t.Errorf("Clean(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestLen(t *testing.T) {
	if got := Len("café"); got != 4 {
		t.Errorf("Len(café) = %d, want 4", got)
	}
	if got := Len(""); got != 0 {
		t.Errorf("Len(\"\") = %d, want 0", got)
	}
}

func TestWordCount(t *testing.T) {
	tests := []struct {
		input string
		want  int
	}{
		{`<img alt="">`, 2},
		{"  spaced   out\ttext\n", 3},
		{"", 0},
		{"one", 1},
	}
	for _, tt := range tests {
		if got := WordCount(tt.input); got != tt.want {
			t.Errorf("WordCount(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestNormalizeWhitespaces(t *testing.T) {
	got := NormalizeWhitespaces("a\n\nb   c")
	if got != "a b c" {
		t.Errorf("NormalizeWhitespaces = %q", got)
	}
}

func TestExcerpt(t *testing.T) {
	if got := Excerpt("short", 10); got != "short" {
		t.Errorf("Excerpt = %q", got)
	}
	if got := Excerpt("<div>\n  long text here</div>", 8); got != "<div> lo..." {
		t.Errorf("Excerpt = %q", got)
	}
}
