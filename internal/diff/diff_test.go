package diff

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute_SimpleAddition(t *testing.T) {
	d := NewEngine().Compute("stdout", "line1\nline2\nline3", "line1\nline2\nline2.5\nline3")

	assert.True(t, d.Changed())
	assert.Equal(t, 1, d.Added)
	assert.Equal(t, 0, d.Removed)

	var added []Line
	for _, l := range d.Lines {
		if l.Type == LineAdded {
			added = append(added, l)
		}
	}
	require.Len(t, added, 1)
	assert.Equal(t, "line2.5", added[0].Content)
	assert.Equal(t, 3, added[0].NewNum)
	assert.Equal(t, 0, added[0].OldNum)
}

func TestCompute_SimpleDeletion(t *testing.T) {
	d := NewEngine().Compute("stderr", "line1\nline2\nline3\nline4", "line1\nline2\nline4")

	assert.Equal(t, 1, d.Removed)
	assert.Equal(t, 0, d.Added)
	for _, l := range d.Lines {
		if l.Type == LineRemoved {
			assert.Equal(t, "line3", l.Content)
			assert.Equal(t, 3, l.OldNum)
		}
	}
}

func TestCompute_Identical(t *testing.T) {
	d := NewEngine().Compute("stdout", "a\nb\n", "a\nb\n")
	assert.False(t, d.Changed())
	assert.Empty(t, d.Render(1, 10))
}

func TestCompute_FromEmpty(t *testing.T) {
	d := NewEngine().Compute("stdout", "", "warn\n")
	assert.Equal(t, 1, d.Added)
	assert.Equal(t, "--- baseline stdout\n+++ candidate stdout\n+warn\n", d.Render(0, 10))
}

func TestRender_ContextAndGaps(t *testing.T) {
	old := "a\nb\nc\nd\ne\nf\ng\n"
	cur := "a\nB\nc\nd\ne\nF\ng\n"
	out := NewEngine().Compute("stdout", old, cur).Render(1, 0)

	want := strings.Join([]string{
		"--- baseline stdout",
		"+++ candidate stdout",
		" a",
		"-b",
		"+B",
		" c",
		"...",
		" e",
		"-f",
		"+F",
		" g",
		"",
	}, "\n")
	assert.Equal(t, want, out)
}

func TestRender_Truncates(t *testing.T) {
	var old, cur strings.Builder
	for i := 0; i < 20; i++ {
		old.WriteString("same\n")
		cur.WriteString("different\n")
	}
	out := NewEngine().Compute("stdout", old.String(), cur.String()).Render(0, 5)
	assert.Contains(t, out, "... (35 more lines)")
}

func TestOutputs(t *testing.T) {
	out := Outputs("stderr", "", "warn")
	assert.Contains(t, out, "+warn")
}
