package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streed/ml-todos/internal/models"
	"github.com/streed/ml-todos/internal/search"
)

type fakeAPI struct {
	mu      sync.Mutex
	notes   []*models.Note
	nextID  int
	fail    error
	updates []string
	queries []string

	// gates blocks a search for the given query until the channel is closed
	gates map[string]chan struct{}
}

func newFakeAPI(texts ...string) *fakeAPI {
	f := &fakeAPI{gates: map[string]chan struct{}{}}
	for _, text := range texts {
		f.add(text)
	}
	return f
}

func (f *fakeAPI) add(text string) *models.Note {
	f.nextID++
	n := &models.Note{ID: fmt.Sprintf("n%d", f.nextID), Text: text}
	f.notes = append(f.notes, n)
	return n
}

func (f *fakeAPI) List(ctx context.Context) ([]*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	return append([]*models.Note(nil), f.notes...), nil
}

func (f *fakeAPI) Create(ctx context.Context, text string) (*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return nil, f.fail
	}
	return f.add(text), nil
}

func (f *fakeAPI) Update(ctx context.Context, id, text string) (*models.Note, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, text)
	if f.fail != nil {
		return nil, f.fail
	}
	return &models.Note{ID: id, Text: text}, nil
}

func (f *fakeAPI) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fail
}

func (f *fakeAPI) Search(ctx context.Context, query string) ([]search.Result, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	gate := f.gates[query]
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return []search.Result{{ID: "r-" + query, Text: query}}, nil
}

func (f *fakeAPI) Themes(ctx context.Context) ([]string, error) {
	return []string{"Work:", "Home:"}, nil
}

func (f *fakeAPI) ByTheme(ctx context.Context, theme string) ([]*models.Note, error) {
	return []*models.Note{{ID: "t1", Text: theme + " one"}, {ID: "t2", Text: theme + " two"}}, nil
}

func (f *fakeAPI) searchQueries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func (f *fakeAPI) updateTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.updates...)
}

type listUpdate struct {
	cards []Card
	fade  bool
}

// recordingView records every call; tests read it through snapshot and lastList.
type recordingView struct {
	mu           sync.Mutex
	lists        []listUpdate
	prepended    []Card
	updated      []Card
	removed      []string
	themes       []string
	errors       []string
	cleared      int
	clearVisible bool
	editorOpen   bool
}

func (v *recordingView) ReplaceList(cards []Card, fade bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lists = append(v.lists, listUpdate{cards: cards, fade: fade})
}

func (v *recordingView) Prepend(card Card) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.prepended = append(v.prepended, card)
}

func (v *recordingView) UpdateCard(card Card) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.updated = append(v.updated, card)
}

func (v *recordingView) Remove(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.removed = append(v.removed, id)
}

func (v *recordingView) ShowThemes(themes []string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.themes = themes
}

func (v *recordingView) ClearInput() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cleared++
}

func (v *recordingView) SetClearSearchVisible(visible bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.clearVisible = visible
}

func (v *recordingView) OpenEditor(card Card) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.editorOpen = true
}

func (v *recordingView) CloseEditor() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.editorOpen = false
}

func (v *recordingView) Error(op string, err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errors = append(v.errors, op)
}

func (v *recordingView) lastList() (listUpdate, int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.lists) == 0 {
		return listUpdate{}, 0
	}
	return v.lists[len(v.lists)-1], len(v.lists)
}

type viewState struct {
	prepended    []Card
	updated      []Card
	removed      []string
	themes       []string
	errors       []string
	cleared      int
	clearVisible bool
	editorOpen   bool
}

func (v *recordingView) snapshot() viewState {
	v.mu.Lock()
	defer v.mu.Unlock()
	return viewState{
		prepended:    append([]Card(nil), v.prepended...),
		updated:      append([]Card(nil), v.updated...),
		removed:      append([]string(nil), v.removed...),
		themes:       v.themes,
		errors:       append([]string(nil), v.errors...),
		cleared:      v.cleared,
		clearVisible: v.clearVisible,
		editorOpen:   v.editorOpen,
	}
}

func texts(cards []Card) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Text
	}
	return out
}

func testController(api API, view View) *Controller {
	return newController(api, view, 20*time.Millisecond, 30*time.Millisecond)
}

func TestFontSize(t *testing.T) {
	tests := []struct {
		length int
		want   float64
	}{
		{0, 28},
		{50, 21},
		{100, 14},
		{250, 14},
		{10, 26.6},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.length), func(t *testing.T) {
			text := make([]rune, tt.length)
			for i := range text {
				text[i] = 'x'
			}
			assert.InDelta(t, tt.want, FontSize(string(text)), 1e-9)
		})
	}

	assert.Equal(t, FontSize("aaaaa"), FontSize("ééééé"), "length counts characters, not bytes")
}

func TestLoadNewestFirst(t *testing.T) {
	view := &recordingView{}
	c := testController(newFakeAPI("first", "second", "third"), view)

	c.Load(context.Background())

	list, n := view.lastList()
	require.Equal(t, 1, n)
	assert.True(t, list.fade)
	assert.Equal(t, []string{"third", "second", "first"}, texts(list.cards))
	assert.Equal(t, FontSize("third"), list.cards[0].FontSize)
}

func TestSubmit(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI()
	view := &recordingView{}
	c := testController(api, view)

	c.Submit(ctx, "   ")
	assert.Empty(t, view.snapshot().prepended, "blank input is ignored")

	c.Submit(ctx, "  Buy milk ")
	snap := view.snapshot()
	require.Len(t, snap.prepended, 1)
	assert.Equal(t, "Buy milk", snap.prepended[0].Text)
	assert.Equal(t, 1, snap.cleared)

	api.fail = errors.New("500")
	c.Submit(ctx, "Buy eggs")
	snap = view.snapshot()
	assert.Len(t, snap.prepended, 1, "nothing is rendered until the server confirms")
	assert.Equal(t, 1, snap.cleared, "input is kept on failure")
	assert.Equal(t, []string{"add"}, snap.errors)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI("a")
	view := &recordingView{}
	c := testController(api, view)

	c.Delete(ctx, "n1")
	assert.Equal(t, []string{"n1"}, view.snapshot().removed)

	api.fail = errors.New("404")
	c.Delete(ctx, "n1")
	snap := view.snapshot()
	assert.Equal(t, []string{"n1"}, snap.removed, "failed delete leaves the card")
	assert.Equal(t, []string{"delete"}, snap.errors)
}

func TestSearchIsDebounced(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI("a")
	view := &recordingView{}
	c := testController(api, view)

	for _, q := range []string{"m", "mi", "mil", "milk"} {
		c.SearchInput(ctx, q)
	}
	assert.True(t, view.snapshot().clearVisible)

	require.Eventually(t, func() bool {
		_, n := view.lastList()
		return n == 1
	}, time.Second, 5*time.Millisecond)

	list, _ := view.lastList()
	assert.Equal(t, []string{"milk"}, texts(list.cards))
	assert.True(t, list.fade)
	assert.Equal(t, []string{"milk"}, api.searchQueries(), "only the last keystroke is searched")
}

func TestEmptySearchReloadsList(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI("a", "b")
	view := &recordingView{}
	c := testController(api, view)

	c.SearchInput(ctx, "pending")
	c.SearchInput(ctx, "  ")

	list, n := view.lastList()
	require.Equal(t, 1, n)
	assert.Equal(t, []string{"b", "a"}, texts(list.cards))
	assert.False(t, view.snapshot().clearVisible)

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, api.searchQueries(), "pending search is cancelled")
}

func TestStaleSearchResponseIsDiscarded(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI("a", "b")
	gate := make(chan struct{})
	api.gates["slow"] = gate
	view := &recordingView{}
	c := testController(api, view)

	done := make(chan struct{})
	go func() {
		c.runSearch(ctx, "slow")
		close(done)
	}()
	require.Eventually(t, func() bool { return len(api.searchQueries()) == 1 }, time.Second, time.Millisecond)

	c.ClearSearch(ctx)
	close(gate)
	<-done

	list, n := view.lastList()
	require.Equal(t, 1, n, "the slow search never rendered")
	assert.Equal(t, []string{"b", "a"}, texts(list.cards))
}

func TestThemes(t *testing.T) {
	ctx := context.Background()
	view := &recordingView{}
	c := testController(newFakeAPI(), view)

	c.LoadThemes(ctx)
	assert.Equal(t, []string{"Work:", "Home:"}, view.snapshot().themes)

	c.SelectTheme(ctx, "Work:")
	list, _ := view.lastList()
	assert.False(t, list.fade)
	assert.Equal(t, []string{"Work: one", "Work: two"}, texts(list.cards))
}

func TestEditStateMachine(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI("draft")
	view := &recordingView{}
	c := testController(api, view)

	c.EditInput(ctx, "ignored")
	assert.Equal(t, EditIdle, c.EditState(), "input without an open editor is ignored")

	c.OpenEdit(NewCard("n1", "draft"))
	assert.Equal(t, EditEditing, c.EditState())
	assert.True(t, view.snapshot().editorOpen)

	for _, text := range []string{"d", "do", "don", "done"} {
		c.EditInput(ctx, text)
	}
	require.Eventually(t, func() bool { return len(view.snapshot().updated) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []string{"done"}, api.updateTexts(), "one save after typing stops")
	assert.Equal(t, "done", view.snapshot().updated[0].Text)
	assert.Equal(t, EditEditing, c.EditState())

	c.EditInput(ctx, "done!")
	c.CloseEdit()
	assert.False(t, view.snapshot().editorOpen)
	require.Eventually(t, func() bool { return len(view.snapshot().updated) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, EditIdle, c.EditState(), "save scheduled before closing still lands")
}

func TestEditSaveFailure(t *testing.T) {
	ctx := context.Background()
	api := newFakeAPI("draft")
	api.fail = errors.New("500")
	view := &recordingView{}
	c := testController(api, view)

	c.OpenEdit(NewCard("n1", "draft"))
	c.EditInput(ctx, "x")
	require.Eventually(t, func() bool { return len(view.snapshot().errors) == 1 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, view.snapshot().updated)
	assert.Equal(t, EditEditing, c.EditState())
}

func TestEditStateString(t *testing.T) {
	assert.Equal(t, "idle", EditIdle.String())
	assert.Equal(t, "editing", EditEditing.String())
	assert.Equal(t, "saving", EditSaving.String())
}
