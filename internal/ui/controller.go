// Package ui holds the client-side behaviour of the todo board as a state
// machine driven by discrete events. Rendering is delegated to a View.
package ui

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/bep/debounce"

	"github.com/streed/ml-todos/internal/constants"
	"github.com/streed/ml-todos/internal/models"
	"github.com/streed/ml-todos/internal/search"
)

// API is the server surface the controller drives.
type API interface {
	List(ctx context.Context) ([]*models.Note, error)
	Create(ctx context.Context, text string) (*models.Note, error)
	Update(ctx context.Context, id, text string) (*models.Note, error)
	Delete(ctx context.Context, id string) error
	Search(ctx context.Context, query string) ([]search.Result, error)
	Themes(ctx context.Context) ([]string, error)
	ByTheme(ctx context.Context, theme string) ([]*models.Note, error)
}

// Card is a rendered note.
type Card struct {
	ID       string
	Text     string
	FontSize float64
}

// View renders controller output. Calls are serialized by the controller.
type View interface {
	// ReplaceList swaps the whole list, fading the old one out when fade is set.
	ReplaceList(cards []Card, fade bool)
	Prepend(card Card)
	UpdateCard(card Card)
	// Remove fades a card out and then drops it.
	Remove(id string)
	ShowThemes(themes []string)
	ClearInput()
	SetClearSearchVisible(visible bool)
	OpenEditor(card Card)
	CloseEditor()
	Error(op string, err error)
}

type EditState int

const (
	EditIdle EditState = iota
	EditEditing
	EditSaving
)

func (s EditState) String() string {
	switch s {
	case EditEditing:
		return "editing"
	case EditSaving:
		return "saving"
	default:
		return "idle"
	}
}

// FontSize scales inversely with text length, clamped to [14, 28] px.
func FontSize(text string) float64 {
	n := float64(utf8.RuneCountInString(text))
	size := (constants.MaxFontSize-constants.MinFontSize)*(constants.FontScaleChars-n)/constants.FontScaleChars + constants.MinFontSize
	if size < constants.MinFontSize {
		return constants.MinFontSize
	}
	if size > constants.MaxFontSize {
		return constants.MaxFontSize
	}
	return size
}

func NewCard(id, text string) Card {
	return Card{ID: id, Text: text, FontSize: FontSize(text)}
}

type Controller struct {
	api  API
	view View

	searchDebounce func(func())
	editDebounce   func(func())

	mu         sync.Mutex
	generation uint64
	editState  EditState
	editorOpen bool
	editID     string
}

func NewController(api API, view View) *Controller {
	return newController(api, view, constants.SearchDebounce, constants.EditDebounce)
}

func newController(api API, view View, searchDelay, editDelay time.Duration) *Controller {
	return &Controller{
		api:            api,
		view:           view,
		searchDebounce: debounce.New(searchDelay),
		editDebounce:   debounce.New(editDelay),
	}
}

// nextGeneration invalidates every list request still in flight.
func (c *Controller) nextGeneration() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	return c.generation
}

// render runs fn under the lock unless a newer list request has started.
func (c *Controller) render(gen uint64, fn func()) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	fn()
	return true
}

func (c *Controller) withView(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}

func notesToCards(notes []*models.Note, newestFirst bool) []Card {
	cards := make([]Card, len(notes))
	for i, n := range notes {
		j := i
		if newestFirst {
			j = len(notes) - 1 - i
		}
		cards[j] = NewCard(n.ID, n.Text)
	}
	return cards
}

// Load replaces the list with every note, newest first.
func (c *Controller) Load(ctx context.Context) {
	gen := c.nextGeneration()
	notes, err := c.api.List(ctx)
	if err != nil {
		c.render(gen, func() { c.view.Error("load", err) })
		return
	}
	c.render(gen, func() { c.view.ReplaceList(notesToCards(notes, true), true) })
}

// Submit creates a note. The card appears only once the server has stored it.
func (c *Controller) Submit(ctx context.Context, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	note, err := c.api.Create(ctx, text)
	c.withView(func() {
		if err != nil {
			c.view.Error("add", err)
			return
		}
		c.view.ClearInput()
		c.view.Prepend(NewCard(note.ID, note.Text))
	})
}

// Delete removes a note; on failure the card stays where it is.
func (c *Controller) Delete(ctx context.Context, id string) {
	if id == "" {
		return
	}
	err := c.api.Delete(ctx, id)
	c.withView(func() {
		if err != nil {
			c.view.Error("delete", err)
			return
		}
		c.view.Remove(id)
	})
}

// SearchInput reacts to a change of the search box. An empty query reloads
// the full list at once; anything else is searched after the debounce delay.
func (c *Controller) SearchInput(ctx context.Context, query string) {
	query = strings.TrimSpace(query)
	c.withView(func() { c.view.SetClearSearchVisible(query != "") })
	if query == "" {
		c.searchDebounce(func() {})
		c.Load(ctx)
		return
	}
	c.searchDebounce(func() { c.runSearch(ctx, query) })
}

func (c *Controller) runSearch(ctx context.Context, query string) {
	gen := c.nextGeneration()
	results, err := c.api.Search(ctx, query)
	if err != nil {
		c.render(gen, func() { c.view.Error("search", err) })
		return
	}
	cards := make([]Card, len(results))
	for i, r := range results {
		cards[i] = NewCard(r.ID, r.Text)
	}
	c.render(gen, func() { c.view.ReplaceList(cards, true) })
}

// ClearSearch empties the search box and reloads the full list.
func (c *Controller) ClearSearch(ctx context.Context) {
	c.searchDebounce(func() {})
	c.withView(func() { c.view.SetClearSearchVisible(false) })
	c.Load(ctx)
}

func (c *Controller) LoadThemes(ctx context.Context) {
	themes, err := c.api.Themes(ctx)
	c.withView(func() {
		if err != nil {
			c.view.Error("themes", err)
			return
		}
		c.view.ShowThemes(themes)
	})
}

// SelectTheme replaces the list with the notes of one theme, without fading.
func (c *Controller) SelectTheme(ctx context.Context, theme string) {
	gen := c.nextGeneration()
	notes, err := c.api.ByTheme(ctx, theme)
	if err != nil {
		c.render(gen, func() { c.view.Error("theme", err) })
		return
	}
	c.render(gen, func() { c.view.ReplaceList(notesToCards(notes, false), false) })
}

func (c *Controller) EditState() EditState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editState
}

// OpenEdit starts editing a card.
func (c *Controller) OpenEdit(card Card) {
	c.withView(func() {
		c.editorOpen = true
		c.editID = card.ID
		if c.editState == EditIdle {
			c.editState = EditEditing
		}
		c.view.OpenEditor(card)
	})
}

// EditInput schedules a save of text once typing pauses.
func (c *Controller) EditInput(ctx context.Context, text string) {
	c.mu.Lock()
	if !c.editorOpen {
		c.mu.Unlock()
		return
	}
	id := c.editID
	c.mu.Unlock()

	c.editDebounce(func() { c.save(ctx, id, text) })
}

func (c *Controller) save(ctx context.Context, id, text string) {
	c.withView(func() { c.editState = EditSaving })

	note, err := c.api.Update(ctx, id, text)

	c.withView(func() {
		if err != nil {
			c.view.Error("edit", err)
		} else {
			c.view.UpdateCard(NewCard(note.ID, note.Text))
		}
		if c.editorOpen {
			c.editState = EditEditing
		} else {
			c.editState = EditIdle
		}
	})
}

// CloseEdit closes the editor. A save already scheduled still runs.
func (c *Controller) CloseEdit() {
	c.withView(func() {
		c.editorOpen = false
		if c.editState == EditEditing {
			c.editState = EditIdle
		}
		c.view.CloseEditor()
	})
}
