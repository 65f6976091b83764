package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

// DiscoveryScan is a stored discovery run.
type DiscoveryScan struct {
	ID        string
	Subnet    string
	Errors    string
	ScannedAt int64
}

// DiscoveredServer is a server found by a stored discovery run.
type DiscoveredServer struct {
	ScanID   string
	IP       string
	Port     int
	Type     string
	Version  string
	Hostname string
	Release  string
}

// Queries is the set of statements the console runs against its cache.
type Queries interface {
	InsertDiscoveryScan(ctx context.Context, arg DiscoveryScan) error
	InsertDiscoveredServer(ctx context.Context, arg DiscoveredServer) error
	GetLatestDiscoveryScan(ctx context.Context) (DiscoveryScan, error)
	ListDiscoveredServers(ctx context.Context, scanID string) ([]DiscoveredServer, error)
	DeleteDiscoveryScansBeyond(ctx context.Context, keep int) error

	WithTx(tx *sql.Tx) Queries
}

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func newQueries(driver Driver, db DBTX) (Queries, error) {
	switch driver {
	case DriverSQLite:
		return &sqliteQueries{queries{db: db, bind: questionMarks}}, nil
	case DriverPostgres:
		return &postgresQueries{queries{db: db, bind: dollarNumbers}}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// queries holds the statements shared by both dialects. Statements are
// written with "?" placeholders and rebound per dialect.
type queries struct {
	db   DBTX
	bind func(string) string
}

type sqliteQueries struct {
	queries
}

func (q *sqliteQueries) WithTx(tx *sql.Tx) Queries {
	return &sqliteQueries{queries{db: tx, bind: q.bind}}
}

type postgresQueries struct {
	queries
}

func (q *postgresQueries) WithTx(tx *sql.Tx) Queries {
	return &postgresQueries{queries{db: tx, bind: q.bind}}
}

func questionMarks(query string) string {
	return query
}

func dollarNumbers(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

const insertDiscoveryScan = `INSERT INTO discovery_scans (id, subnet, errors, scanned_at) VALUES (?, ?, ?, ?)`

func (q *queries) InsertDiscoveryScan(ctx context.Context, arg DiscoveryScan) error {
	_, err := q.db.ExecContext(ctx, q.bind(insertDiscoveryScan), arg.ID, arg.Subnet, arg.Errors, arg.ScannedAt)
	return err
}

const insertDiscoveredServer = `INSERT INTO discovered_servers (scan_id, ip, port, type, version, hostname, release_name)
VALUES (?, ?, ?, ?, ?, ?, ?)`

func (q *queries) InsertDiscoveredServer(ctx context.Context, arg DiscoveredServer) error {
	_, err := q.db.ExecContext(ctx, q.bind(insertDiscoveredServer),
		arg.ScanID, arg.IP, arg.Port, arg.Type, arg.Version, arg.Hostname, arg.Release)
	return err
}

const getLatestDiscoveryScan = `SELECT id, subnet, errors, scanned_at FROM discovery_scans
ORDER BY scanned_at DESC, id DESC LIMIT 1`

func (q *queries) GetLatestDiscoveryScan(ctx context.Context) (DiscoveryScan, error) {
	var scan DiscoveryScan
	err := q.db.QueryRowContext(ctx, q.bind(getLatestDiscoveryScan)).
		Scan(&scan.ID, &scan.Subnet, &scan.Errors, &scan.ScannedAt)
	return scan, err
}

const listDiscoveredServers = `SELECT scan_id, ip, port, type, version, hostname, release_name FROM discovered_servers
WHERE scan_id = ? ORDER BY ip, port`

func (q *queries) ListDiscoveredServers(ctx context.Context, scanID string) ([]DiscoveredServer, error) {
	rows, err := q.db.QueryContext(ctx, q.bind(listDiscoveredServers), scanID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []DiscoveredServer
	for rows.Next() {
		var s DiscoveredServer
		if err := rows.Scan(&s.ScanID, &s.IP, &s.Port, &s.Type, &s.Version, &s.Hostname, &s.Release); err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

const deleteDiscoveredServersBeyond = `DELETE FROM discovered_servers WHERE scan_id NOT IN
(SELECT id FROM discovery_scans ORDER BY scanned_at DESC, id DESC LIMIT ?)`

const deleteDiscoveryScansBeyond = `DELETE FROM discovery_scans WHERE id NOT IN
(SELECT id FROM discovery_scans ORDER BY scanned_at DESC, id DESC LIMIT ?)`

// DeleteDiscoveryScansBeyond keeps the newest keep scans and removes the rest
// together with their servers. SQLite does not enforce the cascade without a
// pragma, so servers are deleted explicitly.
func (q *queries) DeleteDiscoveryScansBeyond(ctx context.Context, keep int) error {
	if _, err := q.db.ExecContext(ctx, q.bind(deleteDiscoveredServersBeyond), keep); err != nil {
		return err
	}
	_, err := q.db.ExecContext(ctx, q.bind(deleteDiscoveryScansBeyond), keep)
	return err
}
