// Package transcripts renders ticket channel history as plain text and archives it.
package transcripts

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Jacobbrewer1/ticketpanel/pkg/entities"
	"github.com/Jacobbrewer1/ticketpanel/pkg/platform"
)

const (
	// ContentType is the media type of a rendered transcript.
	ContentType = "text/plain; charset=utf-8"

	timestampLayout = "2006-01-02 15:04:05"
)

// Archiver stores rendered transcripts.
type Archiver interface {
	// Archive stores the transcript under key and returns where it can be found.
	Archive(ctx context.Context, key string, data []byte) (string, error)
}

// FileName is the attachment name of a ticket's transcript.
func FileName(t *entities.Ticket) string {
	return fmt.Sprintf("transcript-%04d.txt", t.Number)
}

// Key is where a ticket's transcript is archived.
func Key(t *entities.Ticket) string {
	return fmt.Sprintf("%s/%s-%04d.txt", t.GuildID, t.ChannelID, t.Number)
}

// Render writes the history, oldest first, one "[time] author: content" line per message.
func Render(t *entities.Ticket, history []platform.HistoryMessage, closedBy string, closedAt time.Time) []byte {
	buf := new(bytes.Buffer)

	fmt.Fprintf(buf, "Transcript of ticket %s\n", t.Name())
	fmt.Fprintf(buf, "Guild: %s\n", t.GuildID)
	fmt.Fprintf(buf, "Channel: %s\n", t.ChannelID)
	fmt.Fprintf(buf, "Opened by: %s at %s\n", t.UserID, t.CreatedAt.Time().Format(timestampLayout))
	if t.ClaimedBy != "" {
		fmt.Fprintf(buf, "Claimed by: %s\n", t.ClaimedBy)
	}
	fmt.Fprintf(buf, "Closed by: %s at %s\n", closedBy, closedAt.UTC().Format(timestampLayout))
	fmt.Fprintf(buf, "Messages: %d\n\n", len(history))

	for _, m := range history {
		author := m.AuthorName
		if author == "" {
			author = m.AuthorID
		}

		fmt.Fprintf(buf, "[%s] %s: %s", m.Timestamp.UTC().Format(timestampLayout), author, m.Content)
		if len(m.Attachments) > 0 {
			fmt.Fprintf(buf, " [attachments: %s]", strings.Join(m.Attachments, ", "))
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}
