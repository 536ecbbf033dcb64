/*
Package sqlite provides the SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements ledger.Store (members, events, snapshots, aggregation views)
  plus ledger.SnapshotMaintenance on an embedded SQLite database. The same
  patterns apply to PostgreSQL - only minor SQL dialect differences.

APPEND-ONLY ENFORCEMENT:
  The events table has no UPDATE path at all. The only destructive
  statement is the admin correction DELETE.

MONEY:
  Credits are stored as decimal strings and summed in Go with
  shopspring/decimal. SQLite's SUM would coerce to float, and the
  reconciliation invariant must hold exactly, not approximately.

OPTIMISTIC CONCURRENCY:
  Member rows carry a rev counter; updates are conditional on the rev the
  caller read ("... WHERE email = ? AND rev = ?"). Snapshot dates are the
  primary key, so the second creator for a date hits the unique constraint.
  Both surface as ledger.ErrConcurrencyConflict.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) so readers don't block
  during writes.

USAGE:
  store, err := sqlite.New("./data/clubtab.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - ledger/store.go: interface definitions and the view contracts
  - store/memory:    in-memory implementation used by most tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/clubtab/clubtab/ledger"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// Store implements ledger.Store and ledger.SnapshotMaintenance on SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at dbPath and migrates the schema.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS members (
		email      TEXT PRIMARY KEY,
		first_name TEXT NOT NULL DEFAULT '',
		last_name  TEXT NOT NULL DEFAULT '',
		swish      TEXT,
		swish_lazy BOOLEAN NOT NULL DEFAULT FALSE,
		address    TEXT NOT NULL DEFAULT '',
		role       TEXT NOT NULL,
		status     TEXT NOT NULL,
		password   TEXT,
		code       TEXT,
		api_key    TEXT,
		last_login TEXT,
		rev        INTEGER NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_members_swish
		ON members(swish) WHERE swish IS NOT NULL;
	CREATE INDEX IF NOT EXISTS idx_members_status
		ON members(status);

	-- Append-only event log. No UPDATE statements exist for this table.
	CREATE TABLE IF NOT EXISTS events (
		id            TEXT PRIMARY KEY,
		account       TEXT NOT NULL,
		action        TEXT NOT NULL,
		credit        TEXT NOT NULL,
		beverage      TEXT NOT NULL DEFAULT '',
		payment       TEXT NOT NULL DEFAULT '',
		description   TEXT NOT NULL DEFAULT '',
		date          TEXT NOT NULL,
		log_timestamp TEXT NOT NULL,
		log_user      TEXT NOT NULL DEFAULT '',
		log_remote    TEXT NOT NULL DEFAULT ''
	);

	-- Secondary indexes behind the aggregation views (hot paths)
	CREATE INDEX IF NOT EXISTS idx_events_account
		ON events(account, log_timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_events_account_date
		ON events(account, date);
	CREATE INDEX IF NOT EXISTS idx_events_date
		ON events(date, log_timestamp);
	CREATE INDEX IF NOT EXISTS idx_events_action_date
		ON events(action, date);
	CREATE INDEX IF NOT EXISTS idx_events_timestamp
		ON events(log_timestamp);

	-- One snapshot per calendar date; the PK is the race arbiter
	CREATE TABLE IF NOT EXISTS snapshots (
		date            TEXT PRIMARY KEY,
		club_balance    TEXT NOT NULL,
		members_balance TEXT NOT NULL,
		count_pending   INTEGER NOT NULL DEFAULT 0,
		count_enabled   INTEGER NOT NULL DEFAULT 0,
		count_disabled  INTEGER NOT NULL DEFAULT 0
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// MEMBER STORE
// =============================================================================

func (s *Store) SaveMember(ctx context.Context, m *ledger.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lastLogin sql.NullString
	if m.LastLogin != nil {
		lastLogin = sql.NullString{String: m.LastLogin.UTC().Format(timestampLayout), Valid: true}
	}

	if m.Rev == 0 {
		query := `
			INSERT INTO members
			(email, first_name, last_name, swish, swish_lazy, address, role,
			 status, password, code, api_key, last_login, rev)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)
		`
		_, err := s.db.ExecContext(ctx, query,
			m.Email, m.FirstName, m.LastName, nullString(m.Swish), m.SwishLazy,
			m.Address, m.Role, m.Status, nullString(m.Password),
			nullString(m.Code), nullString(m.APIKey), lastLogin,
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return ledger.ErrConcurrencyConflict
			}
			return fmt.Errorf("failed to insert member: %w", err)
		}
		m.Rev = 1
		return nil
	}

	query := `
		UPDATE members SET
			first_name = ?, last_name = ?, swish = ?, swish_lazy = ?,
			address = ?, role = ?, status = ?, password = ?, code = ?,
			api_key = ?, last_login = ?, rev = rev + 1
		WHERE email = ? AND rev = ?
	`
	res, err := s.db.ExecContext(ctx, query,
		m.FirstName, m.LastName, nullString(m.Swish), m.SwishLazy,
		m.Address, m.Role, m.Status, nullString(m.Password),
		nullString(m.Code), nullString(m.APIKey), lastLogin,
		m.Email, m.Rev,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrConcurrencyConflict
		}
		return fmt.Errorf("failed to update member: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Either the row is gone or someone else advanced the revision.
		var exists int
		if err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM members WHERE email = ?", m.Email,
		).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return &ledger.NotFoundError{Kind: "member", Key: m.Email}
		}
		return ledger.ErrConcurrencyConflict
	}
	m.Rev++
	return nil
}

const memberColumns = `email, first_name, last_name, swish, swish_lazy, address,
	role, status, password, code, api_key, last_login, rev`

func (s *Store) GetMember(ctx context.Context, email string) (ledger.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE email = ?", email)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return ledger.Member{}, &ledger.NotFoundError{Kind: "member", Key: email}
	}
	return m, err
}

func (s *Store) GetMemberBySwish(ctx context.Context, swish string) (ledger.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		"SELECT "+memberColumns+" FROM members WHERE swish = ?", swish)
	m, err := scanMember(row)
	if err == sql.ErrNoRows {
		return ledger.Member{}, &ledger.NotFoundError{Kind: "member", Key: swish}
	}
	return m, err
}

func (s *Store) DeleteMember(ctx context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM members WHERE email = ?", email)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &ledger.NotFoundError{Kind: "member", Key: email}
	}
	return nil
}

func (s *Store) ListMembers(ctx context.Context) ([]ledger.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryMembers(ctx,
		"SELECT "+memberColumns+" FROM members ORDER BY email ASC")
}

func (s *Store) ListMembersByStatus(ctx context.Context, status ledger.Status) ([]ledger.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryMembers(ctx,
		"SELECT "+memberColumns+" FROM members WHERE status = ? ORDER BY email ASC",
		status)
}

func (s *Store) CountMembersByStatus(ctx context.Context) (map[ledger.Status]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[ledger.Status]int, len(ledger.Statuses))
	for _, status := range ledger.Statuses {
		counts[status] = 0
	}
	rows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(*) FROM members GROUP BY status")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status ledger.Status
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

func (s *Store) queryMembers(ctx context.Context, query string, args ...any) ([]ledger.Member, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []ledger.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (ledger.Member, error) {
	var (
		m                             ledger.Member
		swish, password, code, apiKey sql.NullString
		lastLogin                     sql.NullString
	)
	err := row.Scan(
		&m.Email, &m.FirstName, &m.LastName, &swish, &m.SwishLazy, &m.Address,
		&m.Role, &m.Status, &password, &code, &apiKey, &lastLogin, &m.Rev,
	)
	if err != nil {
		return m, err
	}
	m.Swish = swish.String
	m.Password = password.String
	m.Code = code.String
	m.APIKey = apiKey.String
	if lastLogin.Valid {
		t, err := time.Parse(timestampLayout, lastLogin.String)
		if err != nil {
			return m, fmt.Errorf("corrupt last login %q for member %s: %w", lastLogin.String, m.Email, err)
		}
		m.LastLogin = &t
	}
	return m, nil
}

// =============================================================================
// EVENT STORE - Append-only
// =============================================================================

func (s *Store) AddEvent(ctx context.Context, ev ledger.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO events
		(id, account, action, credit, beverage, payment, description,
		 date, log_timestamp, log_user, log_remote)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		ev.ID, ev.Account, ev.Action, ev.Credit.String(),
		ev.Beverage, ev.Payment, ev.Description,
		ev.Date.String(), ev.Log.Timestamp.UTC().Format(timestampLayout),
		ev.Log.User, ev.Log.Remote,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrConcurrencyConflict
		}
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

const eventColumns = `id, account, action, credit, beverage, payment,
	description, date, log_timestamp, log_user, log_remote`

func (s *Store) GetEvent(ctx context.Context, id string) (ledger.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+eventColumns+" FROM events WHERE id = ?", id)
	if err != nil {
		return ledger.Event{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return ledger.Event{}, err
		}
		return ledger.Event{}, &ledger.NotFoundError{Kind: "event", Key: id}
	}
	return scanEvent(rows)
}

func (s *Store) DeleteEvent(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &ledger.NotFoundError{Kind: "event", Key: id}
	}
	return nil
}

func (s *Store) EventsByAccount(ctx context.Context, account string, limit int) ([]ledger.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := "SELECT " + eventColumns + ` FROM events
		WHERE account = ?
		ORDER BY log_timestamp DESC`
	args := []any{account}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return s.queryEvents(ctx, query, args...)
}

func (s *Store) EventsInRange(ctx context.Context, from, to ledger.Date) ([]ledger.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query, args := rangeQuery("", from, to)
	return s.queryEvents(ctx, query, args...)
}

func (s *Store) EventsByAction(ctx context.Context, action ledger.Action, from, to ledger.Date) ([]ledger.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query, args := rangeQuery(string(action), from, to)
	return s.queryEvents(ctx, query, args...)
}

// rangeQuery builds the date-range listing query. Zero bounds are open.
func rangeQuery(action string, from, to ledger.Date) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if action != "" {
		conds = append(conds, "action = ?")
		args = append(args, action)
	}
	if !from.IsZero() {
		conds = append(conds, "date >= ?")
		args = append(args, from.String())
	}
	if !to.IsZero() {
		conds = append(conds, "date <= ?")
		args = append(args, to.String())
	}
	query := "SELECT " + eventColumns + " FROM events"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date ASC, log_timestamp ASC"
	return query, args
}

func (s *Store) HasEvents(ctx context.Context, account string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM events WHERE account = ?", account).Scan(&count)
	return count > 0, err
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]ledger.Event, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []ledger.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func scanEvent(rows rowScanner) (ledger.Event, error) {
	var (
		ev           ledger.Event
		credit, date string
		logTimestamp string
	)
	err := rows.Scan(
		&ev.ID, &ev.Account, &ev.Action, &credit, &ev.Beverage, &ev.Payment,
		&ev.Description, &date, &logTimestamp, &ev.Log.User, &ev.Log.Remote,
	)
	if err != nil {
		return ev, fmt.Errorf("failed to scan event: %w", err)
	}
	ev.Credit, err = decimal.NewFromString(credit)
	if err != nil {
		return ev, fmt.Errorf("corrupt credit %q for event %s: %w", credit, ev.ID, err)
	}
	ev.Date, err = ledger.ParseDate(date)
	if err != nil {
		return ev, fmt.Errorf("corrupt date %q for event %s: %w", date, ev.ID, err)
	}
	ev.Log.Timestamp, err = time.Parse(timestampLayout, logTimestamp)
	if err != nil {
		return ev, fmt.Errorf("corrupt timestamp %q for event %s: %w", logTimestamp, ev.ID, err)
	}
	return ev, nil
}

// =============================================================================
// SNAPSHOT STORE
// =============================================================================

func (s *Store) CreateSnapshot(ctx context.Context, snap ledger.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO snapshots
		(date, club_balance, members_balance, count_pending, count_enabled, count_disabled)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		snap.Date.String(), snap.ClubBalance.String(), snap.MembersBalance.String(),
		snap.MemberCounts[ledger.StatusPending],
		snap.MemberCounts[ledger.StatusEnabled],
		snap.MemberCounts[ledger.StatusDisabled],
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrConcurrencyConflict
		}
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	return nil
}

const snapshotColumns = `date, club_balance, members_balance,
	count_pending, count_enabled, count_disabled`

func (s *Store) GetSnapshot(ctx context.Context, date ledger.Date) (ledger.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+snapshotColumns+" FROM snapshots WHERE date = ?", date.String())
	if err != nil {
		return ledger.Snapshot{}, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return ledger.Snapshot{}, err
		}
		return ledger.Snapshot{}, &ledger.NotFoundError{Kind: "snapshot", Key: date.String()}
	}
	return scanSnapshot(rows)
}

func (s *Store) SnapshotsInRange(ctx context.Context, from, to ledger.Date) ([]ledger.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT "+snapshotColumns+` FROM snapshots
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC`, from.String(), to.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []ledger.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// OverwriteSnapshot implements ledger.SnapshotMaintenance. Offline
// correction only; never called while serving requests.
func (s *Store) OverwriteSnapshot(ctx context.Context, snap ledger.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE snapshots SET club_balance = ?, members_balance = ?
		WHERE date = ?`,
		snap.ClubBalance.String(), snap.MembersBalance.String(), snap.Date.String())
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &ledger.NotFoundError{Kind: "snapshot", Key: snap.Date.String()}
	}
	return nil
}

func scanSnapshot(rows rowScanner) (ledger.Snapshot, error) {
	var (
		snap                       ledger.Snapshot
		date, club, members        string
		pending, enabled, disabled int
	)
	err := rows.Scan(&date, &club, &members, &pending, &enabled, &disabled)
	if err != nil {
		return snap, fmt.Errorf("failed to scan snapshot: %w", err)
	}
	snap.Date, err = ledger.ParseDate(date)
	if err != nil {
		return snap, err
	}
	snap.ClubBalance, err = decimal.NewFromString(club)
	if err != nil {
		return snap, fmt.Errorf("corrupt club balance %q: %w", club, err)
	}
	snap.MembersBalance, err = decimal.NewFromString(members)
	if err != nil {
		return snap, fmt.Errorf("corrupt members balance %q: %w", members, err)
	}
	snap.MemberCounts = map[ledger.Status]int{
		ledger.StatusPending:  pending,
		ledger.StatusEnabled:  enabled,
		ledger.StatusDisabled: disabled,
	}
	return snap, nil
}

// =============================================================================
// AGGREGATION VIEWS
// =============================================================================
// Credits are summed in Go with decimal arithmetic; the queries only select
// and filter. Counting stays in SQL since counts are exact integers.

func (s *Store) CreditOf(ctx context.Context, account string) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sumCredits(ctx,
		"SELECT credit FROM events WHERE account = ?", account)
}

func (s *Store) CreditByAccount(ctx context.Context) (map[string]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT account, credit FROM events")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]decimal.Decimal)
	for rows.Next() {
		var account, credit string
		if err := rows.Scan(&account, &credit); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(credit)
		if err != nil {
			return nil, fmt.Errorf("corrupt credit %q: %w", credit, err)
		}
		out[account] = out[account].Add(d)
	}
	return out, rows.Err()
}

func (s *Store) CreditTotal(ctx context.Context) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sumCredits(ctx, "SELECT credit FROM events")
}

func (s *Store) PurchaseCount(ctx context.Context, account string, date ledger.Date) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM events
		WHERE action = ? AND account = ? AND date = ?`,
		ledger.ActionPurchase, account, date.String()).Scan(&count)
	return count, err
}

func (s *Store) LedgerTotalThrough(ctx context.Context, date ledger.Date) (decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.sumCredits(ctx,
		"SELECT credit FROM events WHERE date <= ?", date.String())
}

func (s *Store) RecentActivity(ctx context.Context, since time.Time) ([]ledger.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT account, MAX(log_timestamp)
		FROM events
		WHERE CAST(credit AS REAL) != 0 AND log_timestamp >= ?
		GROUP BY account`,
		since.UTC().Format(timestampLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ledger.Activity
	for rows.Next() {
		var account, latest string
		if err := rows.Scan(&account, &latest); err != nil {
			return nil, err
		}
		at, err := time.Parse(timestampLayout, latest)
		if err != nil {
			return nil, fmt.Errorf("corrupt timestamp %q: %w", latest, err)
		}
		out = append(out, ledger.Activity{Account: account, Latest: at})
	}
	return out, rows.Err()
}

func (s *Store) sumCredits(ctx context.Context, query string, args ...any) (decimal.Decimal, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return decimal.Decimal{}, err
	}
	defer rows.Close()

	sum := decimal.Zero
	for rows.Next() {
		var credit string
		if err := rows.Scan(&credit); err != nil {
			return decimal.Decimal{}, err
		}
		d, err := decimal.NewFromString(credit)
		if err != nil {
			return decimal.Decimal{}, fmt.Errorf("corrupt credit %q: %w", credit, err)
		}
		sum = sum.Add(d)
	}
	return sum, rows.Err()
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
