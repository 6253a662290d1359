// Package pollindex keeps a queryable sqlite index of poll outcomes and
// published departures.
package pollindex

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/craigm26/BARTDepartureBoard/internal/persistence"
)

type SQLiteIndex struct {
	db *sql.DB

	ch   chan req
	wg   sync.WaitGroup
	once sync.Once

	closed  atomic.Bool
	dropped atomic.Uint64
}

type reqKind int

const (
	reqPoll reqKind = iota + 1
	reqStop
)

type req struct {
	kind reqKind
	poll persistence.PollRecord
	stop persistence.StopRecord
}

func OpenSQLite(path string) (*SQLiteIndex, error) {
	if path == "" {
		return nil, fmt.Errorf("empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := initPragmas(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLiteIndex{
		db: db,
		ch: make(chan req, 4096),
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.loop()
	}()
	return s, nil
}

func initPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		"PRAGMA temp_store=MEMORY;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return err
		}
	}
	return nil
}

// schemaVersion 2 stores timestamps as unix nanoseconds so MAX(at) orders
// records within the same second.
const schemaVersion = "2"

func initSchema(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);`); err != nil {
		return err
	}
	var version string
	err := db.QueryRow(`SELECT value FROM meta WHERE key='schema_version'`).Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return err
	case version != schemaVersion:
		// The index is rebuilt from new polls; the journal keeps the history.
		for _, t := range []string{"polls", "departures"} {
			if _, err := db.Exec("DROP TABLE IF EXISTS " + t); err != nil {
				return err
			}
		}
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS polls (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			at INTEGER NOT NULL,
			kind TEXT NOT NULL,
			stop TEXT NOT NULL,
			ok INTEGER NOT NULL,
			error TEXT,
			duration_ms INTEGER NOT NULL,
			departures INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_polls_kind_at ON polls(kind, at);`,
		`CREATE TABLE IF NOT EXISTS departures (
			at INTEGER NOT NULL,
			stop TEXT NOT NULL,
			seq INTEGER NOT NULL,
			destination TEXT NOT NULL,
			minutes INTEGER NOT NULL,
			platform TEXT,
			line TEXT,
			delay_seconds INTEGER NOT NULL,
			PRIMARY KEY (at, stop, seq)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_departures_stop_at ON departures(stop, at);`,
		`INSERT OR REPLACE INTO meta(key,value) VALUES('schema_version','` + schemaVersion + `');`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteIndex) Close() error {
	var err error
	s.once.Do(func() {
		s.closed.Store(true)
		close(s.ch)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

// Dropped counts records discarded because the writer fell behind.
func (s *SQLiteIndex) Dropped() uint64 { return s.dropped.Load() }

func (s *SQLiteIndex) RecordPoll(r persistence.PollRecord) {
	s.enqueue(req{kind: reqPoll, poll: r})
}

func (s *SQLiteIndex) RecordStop(r persistence.StopRecord) {
	s.enqueue(req{kind: reqStop, stop: r})
}

func (s *SQLiteIndex) enqueue(r req) {
	if s == nil || s.closed.Load() {
		return
	}
	select {
	case s.ch <- r:
	default:
		// The journal remains complete; the index is best-effort.
		s.dropped.Add(1)
	}
}

// Recent returns up to limit poll records, newest first.
func (s *SQLiteIndex) Recent(ctx context.Context, limit int) ([]persistence.PollRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT at, kind, stop, ok, COALESCE(error,''), duration_ms, departures
		 FROM polls ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []persistence.PollRecord
	for rows.Next() {
		var (
			r  persistence.PollRecord
			at int64
			ok int
		)
		if err := rows.Scan(&at, &r.Kind, &r.Stop, &ok, &r.Error, &r.DurationMS, &r.Departures); err != nil {
			return nil, err
		}
		r.At = time.Unix(0, at).UTC()
		r.OK = ok != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

// LastDepartures returns the most recently published departures for stop.
func (s *SQLiteIndex) LastDepartures(ctx context.Context, stop string) ([]persistence.DepartureRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT destination, minutes, COALESCE(platform,''), COALESCE(line,''), delay_seconds
		 FROM departures
		 WHERE stop = ? AND at = (SELECT MAX(at) FROM departures WHERE stop = ?)
		 ORDER BY seq`, stop, stop)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []persistence.DepartureRecord
	for rows.Next() {
		var d persistence.DepartureRecord
		if err := rows.Scan(&d.Destination, &d.Minutes, &d.Platform, &d.Line, &d.DelaySeconds); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLiteIndex) loop() {
	ctx := context.Background()

	insertPoll, _ := s.db.Prepare(`INSERT INTO polls(at,kind,stop,ok,error,duration_ms,departures) VALUES(?,?,?,?,?,?,?)`)
	insertDeparture, _ := s.db.Prepare(`INSERT OR REPLACE INTO departures(at,stop,seq,destination,minutes,platform,line,delay_seconds) VALUES(?,?,?,?,?,?,?,?)`)
	defer func() {
		if insertPoll != nil {
			_ = insertPoll.Close()
		}
		if insertDeparture != nil {
			_ = insertDeparture.Close()
		}
	}()

	var (
		tx          *sql.Tx
		opCount     int
		commitEvery = 256
	)
	begin := func() {
		if tx != nil {
			return
		}
		txx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			time.Sleep(50 * time.Millisecond)
			return
		}
		tx = txx
		opCount = 0
	}
	commit := func() {
		if tx == nil {
			return
		}
		_ = tx.Commit()
		tx = nil
		opCount = 0
	}
	rollback := func() {
		if tx == nil {
			return
		}
		_ = tx.Rollback()
		tx = nil
		opCount = 0
	}

	for r := range s.ch {
		begin()
		if tx == nil {
			continue
		}
		switch r.kind {
		case reqPoll:
			p := r.poll
			if insertPoll == nil {
				break
			}
			ok := 0
			if p.OK {
				ok = 1
			}
			if _, err := tx.Stmt(insertPoll).Exec(
				p.At.UnixNano(),
				p.Kind,
				p.Stop,
				ok,
				p.Error,
				p.DurationMS,
				p.Departures,
			); err != nil {
				rollback()
				continue
			}
			opCount++
		case reqStop:
			st := r.stop
			at := st.At.UnixNano()
			for i, d := range st.Departures {
				if insertDeparture == nil {
					break
				}
				if _, err := tx.Stmt(insertDeparture).Exec(at, st.Code, i, d.Destination, d.Minutes, d.Platform, d.Line, d.DelaySeconds); err != nil {
					rollback()
					break
				}
				opCount++
			}
		}
		// Readers share the single connection, so keep transactions short.
		if opCount >= commitEvery || len(s.ch) == 0 {
			commit()
		}
	}
	commit()
}
