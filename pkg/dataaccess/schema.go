package dataaccess

import "embed"

// postgresMigrations are applied with golang-migrate when the postgres backend starts.
//
//go:embed migrations/postgres/*.sql
var postgresMigrations embed.FS

const postgresMigrationsPath = "migrations/postgres"

// sqliteSchema is applied every time the sqlite backend starts.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS guilds (
    guild_id              TEXT PRIMARY KEY,
    has_panel             INTEGER NOT NULL DEFAULT 0,
    embed_title           TEXT    NOT NULL DEFAULT '',
    embed_description     TEXT    NOT NULL DEFAULT '',
    embed_color           INTEGER NOT NULL DEFAULT 0,
    embed_image_url       TEXT    NOT NULL DEFAULT '',
    options               TEXT    NOT NULL DEFAULT '[]',
    panel_category_id     TEXT    NOT NULL DEFAULT '',
    panel_channel_id      TEXT    NOT NULL DEFAULT '',
    panel_message_id      TEXT    NOT NULL DEFAULT '',
    has_config            INTEGER NOT NULL DEFAULT 0,
    config_category_id    TEXT    NOT NULL DEFAULT '',
    config_log_channel_id TEXT    NOT NULL DEFAULT '',
    config_staff_role_id  TEXT    NOT NULL DEFAULT '',
    ticket_counter        INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS tickets (
    channel_id   TEXT PRIMARY KEY,
    guild_id     TEXT    NOT NULL,
    user_id      TEXT    NOT NULL,
    option_label TEXT    NOT NULL,
    claimed_by   TEXT    NOT NULL DEFAULT '',
    status       TEXT    NOT NULL,
    number       INTEGER NOT NULL,
    created_at   TEXT    NOT NULL,
    UNIQUE (guild_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_tickets_guild ON tickets (guild_id, number);
`
