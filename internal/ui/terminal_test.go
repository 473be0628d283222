package ui

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTerminalView(t *testing.T) {
	var out bytes.Buffer
	v := NewTerminalView(&out)

	v.ReplaceList([]Card{NewCard("1", "one"), NewCard("2", "two")}, true)
	v.Prepend(NewCard("3", "three"))
	v.UpdateCard(NewCard("1", "uno"))
	v.Remove("2")

	assert.Equal(t, []string{"three", "uno"}, texts(v.Cards()))
	assert.Contains(t, out.String(), "  1  one\n")
	assert.Contains(t, out.String(), "+ 3  three\n")
	assert.Contains(t, out.String(), "- 2\n")

	out.Reset()
	v.ReplaceList(nil, false)
	assert.Equal(t, "(no todos)\n", out.String())

	out.Reset()
	v.ShowThemes([]string{"Work:", "Home:"})
	v.Error("search", errors.New("boom"))
	assert.Equal(t, "Themes: Work:  Home:\n! search failed: boom\n", out.String())
}

func TestTerminalViewWithController(t *testing.T) {
	var out bytes.Buffer
	v := NewTerminalView(&out)
	c := testController(newFakeAPI("a", "b"), v)

	c.Load(context.Background())
	c.Submit(context.Background(), "c")
	assert.Equal(t, []string{"c", "b", "a"}, texts(v.Cards()))
}
