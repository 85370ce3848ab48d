package sqlite

import "database/sql"

// migrations contains the SQL statements to set up the database schema.
// These run on startup to ensure tables exist.
// Amounts are stored as decimal TEXT, never REAL. Timestamps are unix milliseconds.
// IMPORTANT: trips must be created BEFORE every table that references it.
const schema = `
CREATE TABLE IF NOT EXISTS trips (
    name_key TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    base_currency TEXT NOT NULL,
    last_entry_kind TEXT,
    last_entry_id TEXT,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS participants (
    trip_key TEXT NOT NULL,
    position INTEGER NOT NULL,
    name TEXT NOT NULL,
    PRIMARY KEY (trip_key, position),
    FOREIGN KEY (trip_key) REFERENCES trips(name_key) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS expenses (
    id TEXT PRIMARY KEY,
    trip_key TEXT NOT NULL,
    position INTEGER NOT NULL,
    description TEXT NOT NULL,
    amount TEXT NOT NULL,
    currency TEXT NOT NULL,
    paid_by TEXT NOT NULL,
    mode TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (trip_key) REFERENCES trips(name_key) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS splits (
    expense_id TEXT NOT NULL,
    position INTEGER NOT NULL,
    participant TEXT NOT NULL,
    amount TEXT NOT NULL,
    PRIMARY KEY (expense_id, position),
    FOREIGN KEY (expense_id) REFERENCES expenses(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS settlements (
    id TEXT PRIMARY KEY,
    trip_key TEXT NOT NULL,
    position INTEGER NOT NULL,
    from_name TEXT NOT NULL,
    to_name TEXT NOT NULL,
    amount TEXT NOT NULL,
    currency TEXT NOT NULL,
    notes TEXT,
    created_at INTEGER NOT NULL,
    FOREIGN KEY (trip_key) REFERENCES trips(name_key) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS chat_sessions (
    chat_id TEXT PRIMARY KEY,
    trip_key TEXT NOT NULL,
    updated_at INTEGER NOT NULL,
    FOREIGN KEY (trip_key) REFERENCES trips(name_key) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS pending (
    chat_id TEXT PRIMARY KEY,
    id TEXT NOT NULL,
    trip TEXT NOT NULL,
    command TEXT NOT NULL,
    created_at INTEGER NOT NULL,
    expires_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS audit_log (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    id TEXT NOT NULL UNIQUE,
    created_at INTEGER NOT NULL,
    chat_id TEXT NOT NULL,
    trip TEXT NOT NULL,
    input TEXT NOT NULL,
    status TEXT NOT NULL,
    detail TEXT
);

CREATE INDEX IF NOT EXISTS idx_expenses_trip_key ON expenses(trip_key, position);
CREATE INDEX IF NOT EXISTS idx_settlements_trip_key ON settlements(trip_key, position);
CREATE INDEX IF NOT EXISTS idx_splits_expense_id ON splits(expense_id);
CREATE INDEX IF NOT EXISTS idx_chat_sessions_trip_key ON chat_sessions(trip_key);
`

// runMigrations executes the schema setup.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(schema)
	return err
}
