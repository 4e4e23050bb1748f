package history

import (
	"context"
	"testing"

	"github.com/Comcast/tale/notify"
	"github.com/Comcast/tale/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func push(t *testing.T, h *History, titles ...string) {
	t.Helper()
	for _, title := range titles {
		_, err := h.Push(context.Background(), NewMoment(title, map[string]interface{}{"at": title}))
		require.NoError(t, err)
	}
}

func TestPushExpiry(t *testing.T) {
	h := New(3)
	push(t, h, "A", "A", "B", "C", "D")

	assert.Equal(t, 3, h.Size())
	assert.Equal(t, 2, h.Expired())
	assert.Equal(t, "A", h.ExpiredLast())
	// The second A expired while B was the new bottom.
	assert.Equal(t, "A", h.ExpiredUnique())
	assert.Equal(t, []string{"B", "C", "D"}, h.Passages())
	assert.Equal(t, 5, h.Turns())
	assert.True(t, h.HasPlayed("A"))
	assert.False(t, h.Has("A"))
}

func TestExpiredUniqueOnlyOnTitleChange(t *testing.T) {
	h := New(2)
	push(t, h, "A", "B", "B", "B")
	// First expiry drops A under B: unique.  Second drops B under
	// B: not unique.
	assert.Equal(t, 2, h.Expired())
	assert.Equal(t, "B", h.ExpiredLast())
	assert.Equal(t, "A", h.ExpiredUnique())
}

func TestUnlimited(t *testing.T) {
	h := New(0)
	for i := 0; i < 200; i++ {
		push(t, h, "X")
	}
	assert.Equal(t, 200, h.Size())
	assert.Equal(t, 0, h.Expired())
}

func TestGoToBounds(t *testing.T) {
	ctx := context.Background()
	h := New(0)
	shows := 0
	h.Show = func(ctx context.Context) error {
		shows++
		return nil
	}
	push(t, h, "A", "B", "C")

	for _, i := range []int{-1, 3, 2} {
		ok, err := h.GoTo(ctx, i)
		require.NoError(t, err)
		assert.False(t, ok, i)
		assert.Equal(t, 2, h.ActiveIndex())
	}
	assert.Equal(t, 0, shows)

	ok, err := h.GoTo(ctx, 0)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0, h.ActiveIndex())
	assert.Equal(t, "A", h.Active().Title)
	assert.Equal(t, 1, shows)

	ok, _ = h.Backward(ctx)
	assert.False(t, ok)
	ok, _ = h.Forward(ctx)
	assert.True(t, ok)
	assert.Equal(t, "B", h.Active().Title)
	ok, _ = h.Go(ctx, 0)
	assert.False(t, ok)
}

func TestRedoDiscard(t *testing.T) {
	ctx := context.Background()
	h := New(0)
	push(t, h, "A", "B", "C", "D")
	_, err := h.GoTo(ctx, 1)
	require.NoError(t, err)

	before := h.ActiveIndex()
	push(t, h, "E")
	assert.Equal(t, before+2, h.Size())
	assert.Equal(t, []string{"A", "B", "E"}, h.Passages())
	assert.Nil(t, h.Index(5))
	assert.Equal(t, "B", h.Peek(1).Title)
	assert.Nil(t, h.Peek(3))
}

func TestActivePrivate(t *testing.T) {
	h := New(0)
	push(t, h, "A")
	h.Active().Variables["at"] = "changed"
	assert.Equal(t, "A", h.Top().Variables["at"])
}

func TestActivateErrors(t *testing.T) {
	ctx := context.Background()
	h := New(0)

	_, err := h.Activate(ctx, nil)
	assert.Equal(t, ErrNullMoment, err)

	_, err = h.Activate(ctx, 0)
	assert.Equal(t, ErrEmptyHistory, err)

	push(t, h, "A")
	_, err = h.Activate(ctx, 4)
	var oor *IndexOutOfRange
	assert.ErrorAs(t, err, &oor)

	_, err = h.Activate(ctx, "A")
	var bad *BadMomentType
	assert.ErrorAs(t, err, &bad)

	m, err := h.Activate(ctx, NewMoment("Elsewhere", nil))
	require.NoError(t, err)
	assert.Equal(t, "Elsewhere", m.Title)
}

func TestPRNGReplay(t *testing.T) {
	ctx := context.Background()
	h := New(0)
	require.NoError(t, h.InitPRNG("seed", false))

	h.Random()
	h.Random()
	push(t, h, "A")

	// The draw that follows A.
	want := h.Random()
	h.Random()
	push(t, h, "B")
	h.Random()

	ok, err := h.GoTo(ctx, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, h.Random())
	assert.Equal(t, 2, h.Bottom().Pull)
	assert.Equal(t, 4, h.Top().Pull)
}

func TestPRNGAfterPush(t *testing.T) {
	h := New(0)
	push(t, h, "A")
	assert.Equal(t, ErrPRNGAfterPush, h.InitPRNG("x", false))
}

func TestPRNGEntropy(t *testing.T) {
	a := NewPRNG("x", true)
	b := NewPRNG("x", true)
	assert.NotEqual(t, a.Seed, b.Seed)
	c := NewPRNG("x", false)
	d := RestorePRNG("x", 0)
	assert.Equal(t, c.Random(), d.Random())
}

func TestResetKeepsSeed(t *testing.T) {
	h := New(0)
	require.NoError(t, h.InitPRNG("keep", false))
	push(t, h, "A")
	h.Reset()
	assert.True(t, h.IsEmpty())
	require.NotNil(t, h.PRNG())
	assert.Equal(t, "keep", h.PRNG().Seed)
	assert.Equal(t, -1, h.ActiveIndex())
}

func TestCheckpointAndNotify(t *testing.T) {
	ctx := context.Background()
	h := New(0)
	s := storage.NewMemory()
	h.Session = s
	var events []notify.Event
	h.Notifier = notify.Func(func(ctx context.Context, e notify.Event) {
		events = append(events, e)
	})
	push(t, h, "A", "B")

	require.Len(t, events, 2)
	assert.Equal(t, notify.Event{Type: notify.HistoryUpdate, Index: 1, Length: 2, Size: 2, Title: "B"}, events[1])

	var st State
	have, err := s.Get(ctx, SessionKey, &st)
	require.NoError(t, err)
	require.True(t, have)
	require.NotNil(t, st.Index)
	assert.Equal(t, 1, *st.Index)

	// A fresh history restores from the session.
	g := New(0)
	g.Session = s
	shown := false
	g.Show = func(context.Context) error {
		shown = true
		return nil
	}
	ok, err := g.Restore(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, shown)
	assert.Equal(t, []string{"A", "B"}, g.Passages())
	assert.Equal(t, "B", g.Active().Variables["at"])
}
