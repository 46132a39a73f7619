package plagiarism

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(data)
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{
			name: "strips all comment styles",
			code: "int x = 5; // trailing\n/* block\n spanning */ # hash comment",
			want: "var var = 5;",
		},
		{
			name: "keeps keywords case-insensitively",
			code: "IF (Count) Return total",
			want: "if (var) return var",
		},
		{
			name: "collapses whitespace",
			code: "  a\t\t=\n\n  b  ",
			want: "var = var",
		},
		{
			name: "digit-led runs are not identifiers",
			code: "x1 = 1abc + 42",
			want: "var = 1abc + 42",
		},
		{
			name: "underscore identifiers",
			code: "_tmp = __init__",
			want: "var = var",
		},
		{
			name: "empty input",
			code: "",
			want: "",
		},
		{
			name: "comment only",
			code: "// nothing here\n# nor here",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Canonicalize("s1", tt.code, "javascript")
			assert.Equal(t, tt.want, got.Text)
			assert.Equal(t, "s1", got.SubmissionID)
		})
	}
}

func TestCanonicalize_Deterministic(t *testing.T) {
	code := loadFixture(t, "inventory.js")

	first := Canonicalize("a", code, "javascript")
	second := Canonicalize("a", code, "javascript")

	assert.Equal(t, first, second)
}

func TestCanonicalize_RenamedSubmissionsAreEqual(t *testing.T) {
	a := Canonicalize("a", loadFixture(t, "twosum_a.js"), "javascript")
	b := Canonicalize("b", loadFixture(t, "twosum_b.js"), "javascript")

	assert.Equal(t, a.Text, b.Text)
	assert.NotEmpty(t, a.Text)
}

func TestCanonicalize_UnterminatedBlockComment(t *testing.T) {
	got := Canonicalize("s", "x = 1 /* never closed", "c")
	assert.Equal(t, "var = 1 /* var var", got.Text)
}
