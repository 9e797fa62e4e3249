package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFirstLine(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"single line", "Fix flaky retry test", "Fix flaky retry test"},
		{"unix newline", "Fix retry\n\nLonger body here", "Fix retry"},
		{"windows newline", "Fix retry\r\nBody", "Fix retry"},
		{"leading newline", "\nBody only", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FirstLine(tt.input))
		})
	}
}

func TestEllipsize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		max   int
		want  string
	}{
		{"short enough", "abc", 10, "abc"},
		{"exact fit", "abcde", 5, "abcde"},
		{"truncated", "abcdefghij", 8, "abcde..."},
		{"tiny max", "abcdefghij", 2, "ab"},
		{"unicode", "日本語のコミットメッセージです", 8, "日本語のコ..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Ellipsize(tt.input, tt.max))
		})
	}
}

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "Add pagination support", "Add pagination support"},
		{"multi line", "Add pagination support\n\nDetails in body", "Add pagination support"},
		{"padded", "   Add pagination support  ", "Add pagination support"},
		{"inner runs", "Add   pagination\tsupport", "Add pagination support"},
		{"whitespace only", "  \t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanTitle(tt.input))
		})
	}
}

func TestActorsEqual(t *testing.T) {
	tests := []struct {
		name string
		a    []string
		b    []string
		want bool
	}{
		{"same order", []string{"alice", "bob"}, []string{"alice", "bob"}, true},
		{"different order", []string{"alice", "bob"}, []string{"bob", "alice"}, true},
		{"different length", []string{"alice"}, []string{"alice", "bob"}, false},
		{"different names", []string{"alice", "bob"}, []string{"alice", "carol"}, false},
		{"duplicate sensitivity", []string{"alice", "alice"}, []string{"alice", "bob"}, false},
		{"both empty", nil, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ActorsEqual(tt.a, tt.b))
		})
	}
}
