package pollindex

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/craigm26/BARTDepartureBoard/internal/persistence"
	"github.com/craigm26/BARTDepartureBoard/internal/transit"
)

func TestSQLiteIndex_RecordPollAndRecent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}

	base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		rec := persistence.PollRecord{
			At:         base.Add(time.Duration(i) * time.Second),
			Kind:       "departures",
			Stop:       "WCRK",
			OK:         true,
			DurationMS: int64(10 * i),
			Departures: i,
		}
		if i == 3 {
			rec.OK = false
			rec.Error = "boom"
		}
		idx.RecordPoll(rec)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	idx, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()

	recent, err := idx.Recent(context.Background(), 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("got %d records, want 3", len(recent))
	}
	if recent[0].Departures != 4 || recent[2].Departures != 2 {
		t.Fatalf("records not newest first: %+v", recent)
	}
	if recent[1].OK || recent[1].Error != "boom" {
		t.Fatalf("failed poll lost its error: %+v", recent[1])
	}
	if !recent[0].At.Equal(base.Add(4 * time.Second)) {
		t.Fatalf("at = %v", recent[0].At)
	}
}

func TestSQLiteIndex_RecordStop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}

	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	older := transit.NewStop("WCRK", "Walnut Creek", []transit.Departure{{Destination: "Antioch", Minutes: 9}}, at)
	newer := transit.NewStop("WCRK", "Walnut Creek", []transit.Departure{
		{Destination: "SFO/Millbrae", Minutes: 7, Line: "yellow"},
		{Destination: "Antioch", Minutes: 2},
	}, at.Add(time.Minute))
	idx.RecordStop(persistence.NewStopRecord(at, older))
	idx.RecordStop(persistence.NewStopRecord(at.Add(time.Minute), newer))
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM departures WHERE stop='WCRK'`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Fatalf("departure rows = %d, want 3", n)
	}

	idx, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()
	last, err := idx.LastDepartures(context.Background(), "WCRK")
	if err != nil {
		t.Fatalf("LastDepartures: %v", err)
	}
	if len(last) != 2 || last[0].Destination != "Antioch" || last[1].Line != "yellow" {
		t.Fatalf("last departures = %+v", last)
	}
}

func TestSQLiteIndex_LastDeparturesWithinOneSecond(t *testing.T) {
	tests := []struct {
		name  string
		first time.Duration
		last  time.Duration
	}{
		{name: "fraction after whole second", first: 0, last: 500 * time.Millisecond},
		{name: "longer fraction", first: 900 * time.Millisecond, last: 950 * time.Millisecond},
		{name: "nanoseconds apart", first: 100 * time.Millisecond, last: 100*time.Millisecond + 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "index.db")
			idx, err := OpenSQLite(path)
			if err != nil {
				t.Fatalf("OpenSQLite: %v", err)
			}
			base := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
			stale := transit.NewStop("WCRK", "Walnut Creek", []transit.Departure{{Destination: "Antioch", Minutes: 9}}, base)
			fresh := transit.NewStop("WCRK", "Walnut Creek", []transit.Departure{{Destination: "Richmond", Minutes: 3}}, base)
			idx.RecordStop(persistence.NewStopRecord(base.Add(tt.first), stale))
			idx.RecordStop(persistence.NewStopRecord(base.Add(tt.last), fresh))
			if err := idx.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}

			idx, err = OpenSQLite(path)
			if err != nil {
				t.Fatalf("reopen: %v", err)
			}
			defer idx.Close()
			last, err := idx.LastDepartures(context.Background(), "WCRK")
			if err != nil {
				t.Fatalf("LastDepartures: %v", err)
			}
			if len(last) != 1 || last[0].Destination != "Richmond" {
				t.Fatalf("last departures = %+v, want the later record", last)
			}
		})
	}
}

func TestSQLiteIndex_OldSchemaIsRebuilt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	for _, stmt := range []string{
		`CREATE TABLE meta (key TEXT PRIMARY KEY, value TEXT NOT NULL)`,
		`INSERT INTO meta(key,value) VALUES('schema_version','1')`,
		`CREATE TABLE polls (id INTEGER PRIMARY KEY AUTOINCREMENT, at TEXT NOT NULL, kind TEXT NOT NULL, stop TEXT NOT NULL, ok INTEGER NOT NULL, error TEXT, duration_ms INTEGER NOT NULL, departures INTEGER NOT NULL)`,
		`INSERT INTO polls(at,kind,stop,ok,duration_ms,departures) VALUES('2024-05-01T08:00:00Z','status','',1,5,0)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("seed %q: %v", stmt, err)
		}
	}
	db.Close()

	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	at := time.Date(2024, 5, 1, 9, 0, 0, 250, time.UTC)
	idx.RecordPoll(persistence.PollRecord{At: at, Kind: "departures", Stop: "WCRK", OK: true})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	idx, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()
	recent, err := idx.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 1 || !recent[0].At.Equal(at) {
		t.Fatalf("recent = %+v", recent)
	}
}

func TestSQLiteIndex_RecordAfterCloseIsNoop(t *testing.T) {
	idx, err := OpenSQLite(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	idx.RecordPoll(persistence.PollRecord{Kind: "status"})
	if err := idx.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
