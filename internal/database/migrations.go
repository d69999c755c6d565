package database

// migrations run in order; the version is the 1-based index.
var migrations = [][]string{
	{
		`CREATE TABLE options (
			name TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,

		// Calendars and bookings share one id space so meta rows can point
		// at either.
		`CREATE TABLE entities (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			kind TEXT NOT NULL CHECK (kind IN ('calendar', 'booking')),
			title TEXT NOT NULL DEFAULT '',
			calendar_id INTEGER REFERENCES entities(id),
			payload TEXT NOT NULL DEFAULT '{}',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX idx_entities_kind ON entities(kind, id)`,
		`CREATE INDEX idx_entities_calendar ON entities(calendar_id)`,

		`CREATE TABLE entity_meta (
			entity_id INTEGER NOT NULL,
			meta_key TEXT NOT NULL,
			value TEXT NOT NULL,
			updated_at TEXT NOT NULL,
			PRIMARY KEY (entity_id, meta_key)
		)`,
	},
}
