package followup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func waitAsync(w *Waiter, ctx context.Context, channelID, userID string, accept func(*Message) bool) <-chan result {
	out := make(chan result, 1)
	go func() {
		m, err := w.Wait(ctx, channelID, userID, accept)
		out <- result{m: m, err: err}
	}()
	return out
}

type result struct {
	m   *Message
	err error
}

func waitPending(t *testing.T, w *Waiter, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return w.Pending() == n }, time.Second, time.Millisecond)
}

func TestWaiter_Deliver(t *testing.T) {
	w := NewWaiter(time.Second)
	res := waitAsync(w, context.Background(), "C1", "U1", nil)
	waitPending(t, w, 1)

	require.False(t, w.Deliver(&Message{ChannelID: "C1", AuthorID: "other"}))
	require.False(t, w.Deliver(&Message{ChannelID: "C2", AuthorID: "U1"}))
	require.True(t, w.Deliver(&Message{ChannelID: "C1", AuthorID: "U1", Content: "<#42>"}))

	r := <-res
	require.NoError(t, r.err)
	require.Equal(t, "<#42>", r.m.Content)
	require.Zero(t, w.Pending())
}

func TestWaiter_Accept(t *testing.T) {
	w := NewWaiter(time.Second)
	hasMention := func(m *Message) bool { return len(m.ChannelMentions()) > 0 }
	res := waitAsync(w, context.Background(), "C1", "U1", hasMention)
	waitPending(t, w, 1)

	require.False(t, w.Deliver(&Message{ChannelID: "C1", AuthorID: "U1", Content: "hang on"}))
	require.True(t, w.Deliver(&Message{ChannelID: "C1", AuthorID: "U1", Content: "in <#7> please"}))

	r := <-res
	require.NoError(t, r.err)
	require.Equal(t, []string{"7"}, r.m.ChannelMentions())
}

func TestWaiter_Timeout(t *testing.T) {
	w := NewWaiter(10 * time.Millisecond)

	_, err := w.Wait(context.Background(), "C1", "U1", nil)
	require.ErrorIs(t, err, ErrTimeout)
	require.Zero(t, w.Pending())
	require.False(t, w.Deliver(&Message{ChannelID: "C1", AuthorID: "U1"}))
}

func TestWaiter_ContextCancelled(t *testing.T) {
	w := NewWaiter(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := w.Wait(ctx, "C1", "U1", nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestWaiter_Replaced(t *testing.T) {
	w := NewWaiter(time.Second)
	first := waitAsync(w, context.Background(), "C1", "U1", nil)
	waitPending(t, w, 1)

	second := waitAsync(w, context.Background(), "C1", "U1", nil)
	r := <-first
	require.ErrorIs(t, r.err, ErrReplaced)

	waitPending(t, w, 1)
	require.True(t, w.Deliver(&Message{ChannelID: "C1", AuthorID: "U1"}))
	r = <-second
	require.NoError(t, r.err)
}

func TestNewWaiter_DefaultTimeout(t *testing.T) {
	require.Equal(t, DefaultTimeout, NewWaiter(0).Timeout())
}

func TestMessage_ChannelMentions(t *testing.T) {
	m := &Message{Content: "post it in <#123> or <#456>, not #general"}
	require.Equal(t, []string{"123", "456"}, m.ChannelMentions())
	require.Empty(t, (&Message{Content: "nothing"}).ChannelMentions())
}
