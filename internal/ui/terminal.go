package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/streed/ml-todos/internal/logger"
)

// TerminalView renders the board as plain text. It keeps its own copy of the
// visible cards so partial updates can be reprinted.
type TerminalView struct {
	out   io.Writer
	cards []Card
}

func NewTerminalView(out io.Writer) *TerminalView {
	return &TerminalView{out: out}
}

func (v *TerminalView) Cards() []Card {
	return append([]Card(nil), v.cards...)
}

func (v *TerminalView) print() {
	if len(v.cards) == 0 {
		fmt.Fprintln(v.out, "(no todos)")
		return
	}
	for _, c := range v.cards {
		fmt.Fprintf(v.out, "  %s  %s\n", c.ID, c.Text)
	}
}

func (v *TerminalView) ReplaceList(cards []Card, fade bool) {
	v.cards = append([]Card(nil), cards...)
	v.print()
}

func (v *TerminalView) Prepend(card Card) {
	v.cards = append([]Card{card}, v.cards...)
	fmt.Fprintf(v.out, "+ %s  %s\n", card.ID, card.Text)
}

func (v *TerminalView) UpdateCard(card Card) {
	for i := range v.cards {
		if v.cards[i].ID == card.ID {
			v.cards[i] = card
		}
	}
	fmt.Fprintf(v.out, "~ %s  %s\n", card.ID, card.Text)
}

func (v *TerminalView) Remove(id string) {
	kept := v.cards[:0]
	for _, c := range v.cards {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	v.cards = kept
	fmt.Fprintf(v.out, "- %s\n", id)
}

func (v *TerminalView) ShowThemes(themes []string) {
	if len(themes) == 0 {
		fmt.Fprintln(v.out, "Themes: (none)")
		return
	}
	fmt.Fprintf(v.out, "Themes: %s\n", strings.Join(themes, "  "))
}

func (v *TerminalView) ClearInput() {}

func (v *TerminalView) SetClearSearchVisible(visible bool) {}

func (v *TerminalView) OpenEditor(card Card) {
	fmt.Fprintf(v.out, "editing %s\n", card.ID)
}

func (v *TerminalView) CloseEditor() {}

func (v *TerminalView) Error(op string, err error) {
	logger.Error("%s failed: %v", op, err)
	fmt.Fprintf(v.out, "! %s failed: %v\n", op, err)
}
