package sqlstore

// schema creates the ledger tables. Statements are idempotent.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS ledger_meta (
		id INTEGER PRIMARY KEY,
		administrator TEXT NOT NULL,
		token_seq INTEGER NOT NULL,
		offer_seq INTEGER NOT NULL,
		event_seq INTEGER NOT NULL,
		generated INTEGER NOT NULL,
		retired INTEGER NOT NULL,
		traded INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_authenticators (
		principal TEXT PRIMARY KEY
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_credentials (
		developer TEXT NOT NULL,
		authenticator TEXT NOT NULL,
		valid BOOLEAN NOT NULL,
		registered_at INTEGER NOT NULL,
		label TEXT NOT NULL,
		PRIMARY KEY (developer, authenticator)
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_tokens (
		id INTEGER PRIMARY KEY,
		custodian TEXT NOT NULL,
		originator TEXT NOT NULL,
		quantity INTEGER NOT NULL,
		scheme TEXT NOT NULL,
		location TEXT NOT NULL,
		framework TEXT NOT NULL,
		vintage INTEGER NOT NULL,
		credential_ref TEXT NOT NULL,
		issued_at INTEGER NOT NULL,
		retired INTEGER NOT NULL,
		consumed BOOLEAN NOT NULL,
		consumed_by TEXT NOT NULL,
		consumed_at INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_portfolio (
		holder TEXT NOT NULL,
		token_id INTEGER NOT NULL,
		available INTEGER NOT NULL,
		consumed INTEGER NOT NULL,
		PRIMARY KEY (holder, token_id)
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_offers (
		id INTEGER PRIMARY KEY,
		merchant TEXT NOT NULL,
		token_id INTEGER NOT NULL,
		quantity INTEGER NOT NULL,
		rate INTEGER NOT NULL,
		active BOOLEAN NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS ledger_events (
		seq INTEGER PRIMARY KEY,
		event_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		height INTEGER NOT NULL,
		caller TEXT NOT NULL,
		subject TEXT NOT NULL,
		token_id INTEGER NOT NULL,
		offer_id INTEGER NOT NULL,
		quantity INTEGER NOT NULL
	)`,
}
