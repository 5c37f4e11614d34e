package dataaccess

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Jacobbrewer1/ticketpanel/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/ticketpanel/pkg/entities"
	"github.com/Jacobbrewer1/ticketpanel/pkg/logging"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

const (
	sqliteDalName   = "sqlite"
	postgresDalName = "postgres"
)

// dialect holds what differs between the relational backends.
type dialect struct {
	// name is the backend name used in metrics and logs.
	name string

	// numbered is whether placeholders are $1, $2... instead of ?.
	numbered bool

	// greatest is the two argument maximum function.
	greatest string

	// isDuplicate reports whether err is a unique constraint violation.
	isDuplicate func(err error) bool
}

var (
	sqliteDialect = dialect{
		name:     sqliteDalName,
		greatest: "MAX",
		isDuplicate: func(err error) bool {
			sqliteErr := new(sqlite.Error)
			if !errors.As(err, &sqliteErr) {
				return false
			}
			code := sqliteErr.Code()
			return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
		},
	}

	postgresDialect = dialect{
		name:     postgresDalName,
		numbered: true,
		greatest: "GREATEST",
		isDuplicate: func(err error) bool {
			pqErr := new(pq.Error)
			return errors.As(err, &pqErr) && pqErr.Code == "23505" // unique_violation
		},
	}
)

// rebind rewrites ? placeholders for dialects that number them.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}

	var (
		sb strings.Builder
		n  int
	)
	sb.Grow(len(query) + 8)
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

type sqlStore struct {
	// l is the logger.
	l *slog.Logger

	// db is the connection pool.
	db *sql.DB

	// d is the SQL dialect of db.
	d dialect
}

// NewSQLiteStore opens (creating if needed) a SQLite database at path and applies the schema.
func NewSQLiteStore(ctx context.Context, l *slog.Logger, path string) (Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("error creating sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening sqlite: %w", err)
	}

	// SQLite serialises writers anyway, a single connection avoids SQLITE_BUSY between our own connections.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("error configuring sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("error applying sqlite schema: %w", err)
	}

	l.Info("SQLite store initialised", slog.String("path", path))

	return &sqlStore{
		l:  l.With(slog.String(logging.KeyDal, sqliteDalName)),
		db: db,
		d:  sqliteDialect,
	}, nil
}

// NewPostgresStore connects to PostgreSQL and runs the embedded migrations.
func NewPostgresStore(ctx context.Context, l *slog.Logger, dsn string) (Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error pinging postgres: %w", err)
	}

	if err := runPostgresMigrations(l, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqlStore{
		l:  l.With(slog.String(logging.KeyDal, postgresDalName)),
		db: db,
		d:  postgresDialect,
	}, nil
}

func runPostgresMigrations(l *slog.Logger, db *sql.DB) error {
	src, err := iofs.New(postgresMigrations, postgresMigrationsPath)
	if err != nil {
		return fmt.Errorf("error loading migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{
		MigrationsTable: "schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("error creating migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("error creating migrate instance: %w", err)
	}

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			l.Info("Database schema is already up to date")
			return nil
		}
		return fmt.Errorf("error running migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		l.Warn("Error getting migration version", slog.String(logging.KeyError, err.Error()))
		return nil
	}

	l.Info("Database migrations completed",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)
	return nil
}

func (s *sqlStore) LoadPanel(ctx context.Context, guildID string) (*entities.Panel, error) {
	defer monitoring.Observe(s.d.name, "load_panel")()

	const query = `
		SELECT embed_title, embed_description, embed_color, embed_image_url, options,
		       panel_category_id, panel_channel_id, panel_message_id, ticket_counter
		FROM guilds
		WHERE guild_id = ? AND has_panel = ?`

	p := &entities.Panel{GuildID: guildID}
	var options string
	err := s.db.QueryRowContext(ctx, s.d.rebind(query), guildID, true).Scan(
		&p.Embed.Title,
		&p.Embed.Description,
		&p.Embed.Color,
		&p.Embed.ImageURL,
		&options,
		&p.CategoryID,
		&p.ChannelID,
		&p.MessageID,
		&p.TicketCounter,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		monitoring.Failed(s.d.name, "load_panel")
		return nil, fmt.Errorf("error getting panel: %w", err)
	}

	p.Options = make([]entities.TicketOption, 0)
	if err := json.Unmarshal([]byte(options), &p.Options); err != nil {
		return nil, fmt.Errorf("error decoding panel options: %w", err)
	}
	return p, nil
}

func (s *sqlStore) SavePanel(ctx context.Context, panel *entities.Panel) error {
	defer monitoring.Observe(s.d.name, "save_panel")()

	options := panel.Options
	if options == nil {
		options = make([]entities.TicketOption, 0)
	}
	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return fmt.Errorf("error encoding panel options: %w", err)
	}

	query := `
		INSERT INTO guilds (guild_id, has_panel, embed_title, embed_description, embed_color, embed_image_url,
		                    options, panel_category_id, panel_channel_id, panel_message_id, ticket_counter)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (guild_id) DO UPDATE
		SET has_panel = excluded.has_panel,
		    embed_title = excluded.embed_title,
		    embed_description = excluded.embed_description,
		    embed_color = excluded.embed_color,
		    embed_image_url = excluded.embed_image_url,
		    options = excluded.options,
		    panel_category_id = excluded.panel_category_id,
		    panel_channel_id = excluded.panel_channel_id,
		    panel_message_id = excluded.panel_message_id,
		    ticket_counter = ` + s.d.greatest + `(guilds.ticket_counter, excluded.ticket_counter)`

	_, err = s.db.ExecContext(ctx, s.d.rebind(query),
		panel.GuildID,
		true,
		panel.Embed.Title,
		panel.Embed.Description,
		panel.Embed.Color,
		panel.Embed.ImageURL,
		string(optionsJSON),
		panel.CategoryID,
		panel.ChannelID,
		panel.MessageID,
		panel.TicketCounter,
	)
	if err != nil {
		monitoring.Failed(s.d.name, "save_panel")
		return fmt.Errorf("error saving panel: %w", err)
	}
	return nil
}

func (s *sqlStore) NextTicketNumber(ctx context.Context, guildID string) (int64, error) {
	defer monitoring.Observe(s.d.name, "next_ticket_number")()

	// A single statement, so concurrent openers in any number of processes get distinct numbers.
	const query = `
		INSERT INTO guilds (guild_id, ticket_counter)
		VALUES (?, 1)
		ON CONFLICT (guild_id) DO UPDATE
		SET ticket_counter = guilds.ticket_counter + 1
		RETURNING ticket_counter`

	var n int64
	if err := s.db.QueryRowContext(ctx, s.d.rebind(query), guildID).Scan(&n); err != nil {
		monitoring.Failed(s.d.name, "next_ticket_number")
		return 0, fmt.Errorf("error incrementing ticket counter: %w", err)
	}
	return n, nil
}

func (s *sqlStore) GetGuildConfig(ctx context.Context, guildID string) (*entities.GuildConfig, error) {
	defer monitoring.Observe(s.d.name, "get_guild_config")()

	const query = `
		SELECT config_category_id, config_log_channel_id, config_staff_role_id
		FROM guilds
		WHERE guild_id = ? AND has_config = ?`

	cfg := &entities.GuildConfig{GuildID: guildID}
	err := s.db.QueryRowContext(ctx, s.d.rebind(query), guildID, true).Scan(
		&cfg.CategoryID,
		&cfg.LogChannelID,
		&cfg.StaffRoleID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		monitoring.Failed(s.d.name, "get_guild_config")
		return nil, fmt.Errorf("error getting guild config: %w", err)
	}
	return cfg, nil
}

func (s *sqlStore) SetGuildConfig(ctx context.Context, cfg *entities.GuildConfig) error {
	defer monitoring.Observe(s.d.name, "set_guild_config")()

	const query = `
		INSERT INTO guilds (guild_id, has_config, config_category_id, config_log_channel_id, config_staff_role_id)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (guild_id) DO UPDATE
		SET has_config = excluded.has_config,
		    config_category_id = excluded.config_category_id,
		    config_log_channel_id = excluded.config_log_channel_id,
		    config_staff_role_id = excluded.config_staff_role_id`

	_, err := s.db.ExecContext(ctx, s.d.rebind(query), cfg.GuildID, true, cfg.CategoryID, cfg.LogChannelID, cfg.StaffRoleID)
	if err != nil {
		monitoring.Failed(s.d.name, "set_guild_config")
		return fmt.Errorf("error saving guild config: %w", err)
	}
	return nil
}

func (s *sqlStore) HasActiveTicket(ctx context.Context, userID, guildID string) (bool, error) {
	defer monitoring.Observe(s.d.name, "has_active_ticket")()

	const query = `
		SELECT COUNT(*)
		FROM tickets
		WHERE guild_id = ? AND user_id = ? AND status IN (?, ?)`

	var n int
	err := s.db.QueryRowContext(ctx, s.d.rebind(query),
		guildID, userID, entities.TicketStatusOpen, entities.TicketStatusClaimed,
	).Scan(&n)
	if err != nil {
		monitoring.Failed(s.d.name, "has_active_ticket")
		return false, fmt.Errorf("error checking active tickets: %w", err)
	}
	return n > 0, nil
}

func (s *sqlStore) AddTicket(ctx context.Context, ticket *entities.Ticket) error {
	defer monitoring.Observe(s.d.name, "add_ticket")()

	const query = `
		INSERT INTO tickets (channel_id, guild_id, user_id, option_label, claimed_by, status, number, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, s.d.rebind(query),
		ticket.ChannelID,
		ticket.GuildID,
		ticket.UserID,
		ticket.OptionLabel,
		ticket.ClaimedBy,
		ticket.Status,
		ticket.Number,
		ticket.CreatedAt,
	)
	if err != nil {
		monitoring.Failed(s.d.name, "add_ticket")
		if s.d.isDuplicate(err) {
			return fmt.Errorf("channel %s user %s: %w", ticket.ChannelID, ticket.UserID, ErrDuplicateTicket)
		}
		return fmt.Errorf("error saving ticket: %w", err)
	}
	return nil
}

const selectTicket = `
	SELECT channel_id, guild_id, user_id, option_label, claimed_by, status, number, created_at
	FROM tickets`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row rowScanner) (*entities.Ticket, error) {
	t := new(entities.Ticket)
	err := row.Scan(
		&t.ChannelID,
		&t.GuildID,
		&t.UserID,
		&t.OptionLabel,
		&t.ClaimedBy,
		&t.Status,
		&t.Number,
		&t.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (s *sqlStore) GetTicket(ctx context.Context, channelID string) (*entities.Ticket, error) {
	defer monitoring.Observe(s.d.name, "get_ticket")()

	t, err := scanTicket(s.db.QueryRowContext(ctx, s.d.rebind(selectTicket+` WHERE channel_id = ?`), channelID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		monitoring.Failed(s.d.name, "get_ticket")
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}
	return t, nil
}

func (s *sqlStore) ClaimTicket(ctx context.Context, channelID, actorID string) (*entities.Ticket, error) {
	defer monitoring.Observe(s.d.name, "claim_ticket")()

	// The status condition makes the claim a compare and swap, only one claimer can win.
	const query = `
		UPDATE tickets
		SET status = ?, claimed_by = ?
		WHERE channel_id = ? AND status = ?`

	res, err := s.db.ExecContext(ctx, s.d.rebind(query),
		entities.TicketStatusClaimed, actorID, channelID, entities.TicketStatusOpen,
	)
	if err != nil {
		monitoring.Failed(s.d.name, "claim_ticket")
		return nil, fmt.Errorf("error claiming ticket: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("error getting claimed rows: %w", err)
	}

	t, err := s.GetTicket(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrAlreadyClaimed
	}
	return t, nil
}

func (s *sqlStore) RemoveTicket(ctx context.Context, channelID string) error {
	defer monitoring.Observe(s.d.name, "remove_ticket")()

	res, err := s.db.ExecContext(ctx, s.d.rebind(`DELETE FROM tickets WHERE channel_id = ?`), channelID)
	if err != nil {
		monitoring.Failed(s.d.name, "remove_ticket")
		return fmt.Errorf("error removing ticket: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting removed rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqlStore) ListTickets(ctx context.Context, guildID string) ([]*entities.Ticket, error) {
	defer monitoring.Observe(s.d.name, "list_tickets")()

	rows, err := s.db.QueryContext(ctx, s.d.rebind(selectTicket+` WHERE guild_id = ? ORDER BY number`), guildID)
	if err != nil {
		monitoring.Failed(s.d.name, "list_tickets")
		return nil, fmt.Errorf("error listing tickets: %w", err)
	}
	defer rows.Close()

	tickets := make([]*entities.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickets: %w", err)
	}
	return tickets, nil
}

func (s *sqlStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("error pinging %s: %w", s.d.name, err)
	}
	return nil
}

func (s *sqlStore) Close(_ context.Context) error {
	s.l.Info("Closing database connection")
	return s.db.Close()
}
