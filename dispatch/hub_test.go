package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldworks/formfill"
	"github.com/fieldworks/formfill/convert"
)

func TestHub_OpenReusesLiveConversation(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	first, err := hub.Open("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, first)

	again, err := hub.Open("user-1")
	require.NoError(t, err)
	assert.Equal(t, first, again)

	other, err := hub.Open("user-2")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestHub_ResolveUnknownUser(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	_, err := hub.Resolve(context.Background(), "nobody")
	require.ErrorIs(t, err, formfill.ErrNoConversation)
}

func TestHub_ResolveReturnsOpenConversation(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	convID, err := hub.Open("user-1")
	require.NoError(t, err)

	resolved, err := hub.Resolve(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, convID, resolved)
}

func TestHub_DeliverTextThenRead(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	convID, err := hub.Open("user-1")
	require.NoError(t, err)

	sent, ok := hub.DeliverText("user-1", "hello")
	require.True(t, ok)
	require.NotEmpty(t, sent.ID)
	assert.Equal(t, convID, sent.ConversationID)
	assert.Equal(t, "user-1", sent.From)
	assert.Equal(t, "hello", sent.Text)
	assert.WithinDuration(t, time.Now(), sent.ReceivedAt, 5*time.Second)

	got, err := hub.ReadNext(context.Background(), convID, time.Second)
	require.NoError(t, err)
	assert.Same(t, sent, got)
}

func TestHub_ReadNextKeepsOrder(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	convID, err := hub.Open("user-1")
	require.NoError(t, err)

	for _, text := range []string{"first", "second", "third"} {
		_, ok := hub.DeliverText("user-1", text)
		require.True(t, ok)
	}

	for _, want := range []string{"first", "second", "third"} {
		got, err := hub.ReadNext(context.Background(), convID, time.Second)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, want, got.Text)
	}
}

func TestHub_ReadNextTimesOut(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	convID, err := hub.Open("user-1")
	require.NoError(t, err)

	start := time.Now()
	got, err := hub.ReadNext(context.Background(), convID, 30*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestHub_ReadNextHonorsContext(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	convID, err := hub.Open("user-1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = hub.ReadNext(ctx, convID, 0)
	require.ErrorIs(t, err, context.Canceled)
}

func TestHub_ReadNextUnknownConversation(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	_, err := hub.ReadNext(context.Background(), "no-such-conversation", time.Second)
	require.ErrorIs(t, err, ErrConversationClosed)
}

func TestHub_DeliverUnknownConversation(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	assert.False(t, hub.Deliver(&formfill.Message{ConversationID: "no-such-conversation"}))
	assert.False(t, hub.Deliver(nil))
}

func TestHub_DeliverRoutesByUserWhenConversationIDMissing(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	convID, err := hub.Open("user-1")
	require.NoError(t, err)

	msg := &formfill.Message{ID: "m1", From: "user-1", Text: "routed"}
	require.True(t, hub.Deliver(msg))

	got, err := hub.ReadNext(context.Background(), convID, time.Second)
	require.NoError(t, err)
	assert.Same(t, msg, got)
}

func TestHub_DeliverTextUnknownUser(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	msg, ok := hub.DeliverText("nobody", "hello")
	assert.False(t, ok)
	assert.Nil(t, msg)
}

func TestHub_PendingDrainsToZero(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	convID, err := hub.Open("user-1")
	require.NoError(t, err)
	assert.Zero(t, hub.Pending("no-such-conversation"))

	_, ok := hub.DeliverText("user-1", "only")
	require.True(t, ok)

	_, err = hub.ReadNext(context.Background(), convID, time.Second)
	require.NoError(t, err)
	assert.Zero(t, hub.Pending(convID))
}

func TestHub_CloseConversation(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	convID, err := hub.Open("user-1")
	require.NoError(t, err)

	hub.CloseConversation(convID)
	hub.CloseConversation("no-such-conversation")

	_, err = hub.ReadNext(context.Background(), convID, time.Second)
	require.ErrorIs(t, err, ErrConversationClosed)

	_, err = hub.Resolve(context.Background(), "user-1")
	require.ErrorIs(t, err, formfill.ErrNoConversation)

	assert.False(t, hub.Deliver(&formfill.Message{ConversationID: convID}))

	// The user can start over.
	reopened, err := hub.Open("user-1")
	require.NoError(t, err)
	assert.NotEqual(t, convID, reopened)
}

func TestHub_CloseConversationUnblocksReader(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	convID, err := hub.Open("user-1")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := hub.ReadNext(context.Background(), convID, 0)
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	hub.CloseConversation(convID)

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrConversationClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("reader still blocked after CloseConversation")
	}
}

func TestHub_Close(t *testing.T) {
	hub := NewHub()

	convID, err := hub.Open("user-1")
	require.NoError(t, err)

	hub.Close()
	hub.Close()

	_, err = hub.Open("user-2")
	require.ErrorIs(t, err, ErrHubClosed)

	_, err = hub.ReadNext(context.Background(), convID, time.Second)
	require.ErrorIs(t, err, ErrConversationClosed)

	assert.False(t, hub.Deliver(&formfill.Message{ConversationID: convID}))
}

// -----------------------------------------------------------------------------
// End to End
// -----------------------------------------------------------------------------

type enrollment struct {
	Age  int64
	Name string
}

func TestHub_FillsFormEndToEnd(t *testing.T) {
	hub := NewHub()
	defer hub.Close()

	form, err := formfill.NewBuilder[enrollment]("enrollment", convert.Defaults()).
		Add(formfill.Field[enrollment]{
			Name:     "age",
			Prompt:   "How old are you?",
			Type:     formfill.TypeInteger,
			Priority: 1,
			Required: true,
			Assign:   func(f *enrollment, v any) { f.Age = v.(int64) },
		}).
		Add(formfill.Field[enrollment]{
			Name:     "name",
			Prompt:   "What is your name?",
			Type:     formfill.TypeString,
			Priority: 2,
			Required: true,
			Assign:   func(f *enrollment, v any) { f.Name = v.(string) },
		}).
		Build()
	require.NoError(t, err)

	filler, err := formfill.NewFiller(formfill.Config[enrollment]{
		Form:   form,
		Source: hub,
	})
	require.NoError(t, err)

	_, err = hub.Open("user-1")
	require.NoError(t, err)

	// The mailbox is unbounded, so answers can be queued up front and
	// the fill drains them in field order.
	for _, text := range []string{"25", "Alice"} {
		_, ok := hub.DeliverText("user-1", text)
		require.True(t, ok)
	}

	result := filler.Fill(context.Background(), "user-1")
	require.NoError(t, result.Err)
	require.NotNil(t, result.Form)
	assert.Equal(t, int64(25), result.Form.Age)
	assert.Equal(t, "Alice", result.Form.Name)
	assert.Equal(t, 2, result.Context.Stats().Reads)
}
