package dataaccess

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/Jacobbrewer1/ticketpanel/pkg/custom"
	"github.com/Jacobbrewer1/ticketpanel/pkg/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serviceBackends are backends that need a running server. They are registered by the integration build.
var serviceBackends = map[string]func(t *testing.T) Store{}

// backends returns a constructor per backend under test.
func backends() map[string]func(t *testing.T) Store {
	all := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore(testLogger())
		},
		"file": func(t *testing.T) Store {
			s, err := NewFileStore(testLogger(), filepath.Join(t.TempDir(), "store.json"))
			require.NoError(t, err)
			return s
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLiteStore(context.Background(), testLogger(), filepath.Join(t.TempDir(), "store.db"))
			require.NoError(t, err)
			t.Cleanup(func() {
				require.NoError(t, s.Close(context.Background()))
			})
			return s
		},
	}
	for name, newStore := range serviceBackends {
		all[name] = newStore
	}
	return all
}

func newTicket(channelID, userID string, number int64) *entities.Ticket {
	return &entities.Ticket{
		ChannelID:   channelID,
		GuildID:     "guild",
		UserID:      userID,
		OptionLabel: "Buy",
		Status:      entities.TicketStatusOpen,
		Number:      number,
		CreatedAt:   custom.Now(),
	}
}

func TestStore_PanelRoundTrip(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			_, err := s.LoadPanel(ctx, "guild")
			require.ErrorIs(t, err, ErrNotFound)

			p := entities.NewPanel("guild")
			p.Embed.Title = "Shop"
			p.Embed.ImageURL = "https://example.com/banner.png"
			p.CategoryID = "category"
			p.ChannelID = "panel-channel"
			p.MessageID = "panel-message"
			p.Options = append(p.Options,
				entities.TicketOption{Label: "Buy", Emoji: entities.Emoji{Name: "💸"}, StaffRoleID: "R"},
				entities.TicketOption{Label: "Help", Emoji: entities.Emoji{Name: "help", ID: "123456789012345678"}, StaffRoleID: "S"},
			)
			require.NoError(t, s.SavePanel(ctx, p))

			got, err := s.LoadPanel(ctx, "guild")
			require.NoError(t, err)
			require.Equal(t, p, got)

			// Mutating the loaded copy must not leak into the store.
			got.Options[0].Label = "Sell"
			again, err := s.LoadPanel(ctx, "guild")
			require.NoError(t, err)
			require.Equal(t, "Buy", again.Options[0].Label)
		})
	}
}

func TestStore_CounterNeverDecreases(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			p := entities.NewPanel("guild")
			require.NoError(t, s.SavePanel(ctx, p))

			n, err := s.NextTicketNumber(ctx, "guild")
			require.NoError(t, err)
			require.Equal(t, int64(1), n)

			n, err = s.NextTicketNumber(ctx, "guild")
			require.NoError(t, err)
			require.Equal(t, int64(2), n)

			// A stale panel must not wind the counter back.
			require.NoError(t, s.SavePanel(ctx, p))
			got, err := s.LoadPanel(ctx, "guild")
			require.NoError(t, err)
			require.Equal(t, int64(2), got.TicketCounter)

			n, err = s.NextTicketNumber(ctx, "guild")
			require.NoError(t, err)
			require.Equal(t, int64(3), n)
		})
	}
}

func TestStore_NextTicketNumber_WithoutPanel(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			n, err := s.NextTicketNumber(ctx, "guild")
			require.NoError(t, err)
			require.Equal(t, int64(1), n)

			_, err = s.LoadPanel(ctx, "guild")
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_NextTicketNumber_Concurrent(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			const workers = 20
			var (
				wg   sync.WaitGroup
				mu   sync.Mutex
				seen = make(map[int64]bool)
			)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					n, err := s.NextTicketNumber(ctx, "guild")
					assert.NoError(t, err)
					mu.Lock()
					seen[n] = true
					mu.Unlock()
				}()
			}
			wg.Wait()

			require.Len(t, seen, workers)
			for i := int64(1); i <= workers; i++ {
				require.True(t, seen[i], "missing number %d", i)
			}
		})
	}
}

func TestStore_GuildConfig(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			_, err := s.GetGuildConfig(ctx, "guild")
			require.ErrorIs(t, err, ErrNotFound)

			cfg := &entities.GuildConfig{
				GuildID:      "guild",
				CategoryID:   "category",
				LogChannelID: "logs",
				StaffRoleID:  "staff",
			}
			require.NoError(t, s.SetGuildConfig(ctx, cfg))

			// Setting the config must not create a panel.
			_, err = s.LoadPanel(ctx, "guild")
			require.ErrorIs(t, err, ErrNotFound)

			got, err := s.GetGuildConfig(ctx, "guild")
			require.NoError(t, err)
			require.Equal(t, cfg, got)
		})
	}
}

func TestStore_DuplicateTicket(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			has, err := s.HasActiveTicket(ctx, "U", "guild")
			require.NoError(t, err)
			require.False(t, has)

			require.NoError(t, s.AddTicket(ctx, newTicket("c1", "U", 1)))

			has, err = s.HasActiveTicket(ctx, "U", "guild")
			require.NoError(t, err)
			require.True(t, has)

			err = s.AddTicket(ctx, newTicket("c2", "U", 2))
			require.ErrorIs(t, err, ErrDuplicateTicket)

			// Another member is unaffected.
			require.NoError(t, s.AddTicket(ctx, newTicket("c3", "V", 3)))

			require.NoError(t, s.RemoveTicket(ctx, "c1"))
			has, err = s.HasActiveTicket(ctx, "U", "guild")
			require.NoError(t, err)
			require.False(t, has)

			require.NoError(t, s.AddTicket(ctx, newTicket("c4", "U", 4)))
		})
	}
}

func TestStore_ClaimTicket(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			_, err := s.ClaimTicket(ctx, "missing", "staff")
			require.ErrorIs(t, err, ErrNotFound)

			require.NoError(t, s.AddTicket(ctx, newTicket("c1", "U", 1)))

			got, err := s.ClaimTicket(ctx, "c1", "staff")
			require.NoError(t, err)
			require.Equal(t, entities.TicketStatusClaimed, got.Status)
			require.Equal(t, "staff", got.ClaimedBy)

			_, err = s.ClaimTicket(ctx, "c1", "other")
			require.ErrorIs(t, err, ErrAlreadyClaimed)

			stored, err := s.GetTicket(ctx, "c1")
			require.NoError(t, err)
			require.Equal(t, "staff", stored.ClaimedBy)
		})
	}
}

func TestStore_TicketRoundTrip(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			want := newTicket("c1", "U", 7)
			require.NoError(t, s.AddTicket(ctx, want))

			got, err := s.GetTicket(ctx, "c1")
			require.NoError(t, err)
			require.Equal(t, want, got)
			require.True(t, want.CreatedAt.Time().Equal(got.CreatedAt.Time()))
		})
	}
}

func TestStore_RemoveAndList(t *testing.T) {
	for name, newStore := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := newStore(t)

			require.NoError(t, s.AddTicket(ctx, newTicket("c2", "V", 2)))
			require.NoError(t, s.AddTicket(ctx, newTicket("c1", "U", 1)))

			list, err := s.ListTickets(ctx, "guild")
			require.NoError(t, err)
			require.Len(t, list, 2)
			require.Equal(t, int64(1), list[0].Number)
			require.Equal(t, int64(2), list[1].Number)

			got, err := s.GetTicket(ctx, "c1")
			require.NoError(t, err)
			require.Equal(t, "U", got.UserID)
			require.Equal(t, list[0].CreatedAt, got.CreatedAt)

			require.NoError(t, s.RemoveTicket(ctx, "c1"))
			require.ErrorIs(t, s.RemoveTicket(ctx, "c1"), ErrNotFound)

			_, err = s.GetTicket(ctx, "c1")
			require.ErrorIs(t, err, ErrNotFound)

			list, err = s.ListTickets(ctx, "other-guild")
			require.NoError(t, err)
			require.Empty(t, list)
		})
	}
}

func TestFileStore_SurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "store.json")

	s, err := NewFileStore(testLogger(), path)
	require.NoError(t, err)

	p := entities.NewPanel("guild")
	p.Options = append(p.Options, entities.TicketOption{Label: "Buy", Emoji: entities.Emoji{Name: "💸"}, StaffRoleID: "R"})
	require.NoError(t, s.SavePanel(ctx, p))
	_, err = s.NextTicketNumber(ctx, "guild")
	require.NoError(t, err)
	require.NoError(t, s.AddTicket(ctx, newTicket("c1", "U", 1)))

	reopened, err := NewFileStore(testLogger(), path)
	require.NoError(t, err)

	got, err := reopened.LoadPanel(ctx, "guild")
	require.NoError(t, err)
	require.Equal(t, "Buy", got.Options[0].Label)
	require.Equal(t, int64(1), got.TicketCounter)

	tk, err := reopened.GetTicket(ctx, "c1")
	require.NoError(t, err)
	require.Equal(t, "U", tk.UserID)

	has, err := reopened.HasActiveTicket(ctx, "U", "guild")
	require.NoError(t, err)
	require.True(t, has)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), testLogger(), &Options{Driver: "cassandra"})
	require.Error(t, err)
}

func TestOpen_DefaultsToMemory(t *testing.T) {
	s, err := Open(context.Background(), testLogger(), &Options{})
	require.NoError(t, err)
	require.NoError(t, s.Ping(context.Background()))
}

func TestDialect_Rebind(t *testing.T) {
	tests := []struct {
		name  string
		d     dialect
		query string
		want  string
	}{
		{
			name:  "sqlite unchanged",
			d:     sqliteDialect,
			query: "SELECT * FROM t WHERE a = ? AND b = ?",
			want:  "SELECT * FROM t WHERE a = ? AND b = ?",
		},
		{
			name:  "postgres numbered",
			d:     postgresDialect,
			query: "SELECT * FROM t WHERE a = ? AND b = ?",
			want:  "SELECT * FROM t WHERE a = $1 AND b = $2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.d.rebind(tt.query))
		})
	}
}
