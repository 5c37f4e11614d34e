package events

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMarshal(t *testing.T) {
	e := &Event{
		Type:      TypeTicketOpened,
		GuildID:   "G",
		ChannelID: "C",
		UserID:    "U",
		Option:    "Buy",
		Number:    1,
	}

	data, err := Marshal(e)
	require.NoError(t, err)
	require.False(t, e.Time.IsZero())

	got := new(Event)
	require.NoError(t, json.Unmarshal(data, got))
	require.Equal(t, TypeTicketOpened, got.Type)
	require.Equal(t, int64(1), got.Number)
	require.WithinDuration(t, time.Now(), got.Time, time.Minute)
}

func TestLogPublisher(t *testing.T) {
	buf := new(bytes.Buffer)
	p := NewLogPublisher(slog.New(slog.NewJSONHandler(buf, nil)))

	require.NoError(t, p.Publish(context.Background(), &Event{Type: TypeTicketClosed, GuildID: "G"}))
	require.Contains(t, buf.String(), `"event":"ticket.closed"`)
	require.NoError(t, p.Close())
}

func TestNewAMQPPublisher_EmptyURL(t *testing.T) {
	_, err := NewAMQPPublisher(slog.Default(), "", "")
	require.Error(t, err)
}
