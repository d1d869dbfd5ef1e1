package domain

import (
	"strings"
	"testing"
)

func TestNormalizeReply(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello world", "hello world"},
		{"  hello   world  ", "hello world"},
		{"line1\nline2\n\nline3", "line1 line2 line3"},
		{"\t tabbed \t", "tabbed"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		if got := NormalizeReply(tt.input); got != tt.expected {
			t.Errorf("NormalizeReply(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestEnforceMaxLength(t *testing.T) {
	tests := []struct {
		input    string
		max      int
		expected string
	}{
		{"hello", 10, "hello"},
		{"hello world", 5, "hello"},
		{"hello world", 6, "hello"},
		{"héllo wörld", 7, "héllo w"},
		{"abc", 0, "abc"},
	}

	for _, tt := range tests {
		if got := EnforceMaxLength(tt.input, tt.max); got != tt.expected {
			t.Errorf("EnforceMaxLength(%q, %d) = %q, want %q", tt.input, tt.max, got, tt.expected)
		}
	}
}

func TestChunkText(t *testing.T) {
	t.Run("short text is one chunk", func(t *testing.T) {
		chunks := ChunkText("hello", 200)
		if len(chunks) != 1 || chunks[0] != "hello" {
			t.Errorf("ChunkText() = %v, want [hello]", chunks)
		}
	})

	t.Run("splits on word boundaries", func(t *testing.T) {
		chunks := ChunkText("alpha beta gamma delta", 11)
		want := []string{"alpha beta", "gamma delta"}
		if len(chunks) != len(want) {
			t.Fatalf("ChunkText() = %v, want %v", chunks, want)
		}
		for i := range want {
			if chunks[i] != want[i] {
				t.Errorf("chunk %d = %q, want %q", i, chunks[i], want[i])
			}
		}
	})

	t.Run("hard splits a long identifier", func(t *testing.T) {
		long := strings.Repeat("x", 50)
		chunks := ChunkText(long, 20)
		if len(chunks) != 3 {
			t.Fatalf("ChunkText() produced %d chunks, want 3", len(chunks))
		}
		if joined := strings.Join(chunks, ""); joined != long {
			t.Errorf("rejoined hard-split chunks = %q, want original", joined)
		}
	})

	t.Run("every chunk respects the limit and rejoins to the original", func(t *testing.T) {
		text := NormalizeReply(strings.Repeat("the quick brown fox jumps over the lazy dog ", 12))
		limit := 200
		chunks := ChunkText(text, limit)
		if len(chunks) < 2 {
			t.Fatalf("expected multiple chunks for %d chars, got %d", len(text), len(chunks))
		}
		for i, chunk := range chunks {
			if len([]rune(chunk)) > limit {
				t.Errorf("chunk %d has %d chars, limit %d", i, len([]rune(chunk)), limit)
			}
			if chunk == "" {
				t.Errorf("chunk %d is empty", i)
			}
		}
		if rejoined := strings.Join(chunks, " "); rejoined != text {
			t.Errorf("rejoined chunks do not reconstruct the reply:\n got %q\nwant %q", rejoined, text)
		}
	})

	t.Run("empty input yields no chunks", func(t *testing.T) {
		if chunks := ChunkText("   ", 10); chunks != nil {
			t.Errorf("ChunkText() = %v, want nil", chunks)
		}
	})
}

func TestNormalizeForDedup(t *testing.T) {
	tests := []struct {
		a, b string
		same bool
	}{
		{"Hello", "hello", true},
		{"  hello  ", "hello", true},
		{"hello", "hello there", false},
	}

	for _, tt := range tests {
		got := NormalizeForDedup(tt.a) == NormalizeForDedup(tt.b)
		if got != tt.same {
			t.Errorf("NormalizeForDedup(%q) == NormalizeForDedup(%q): got %v, want %v", tt.a, tt.b, got, tt.same)
		}
	}
}
