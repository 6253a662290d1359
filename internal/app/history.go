package app

import (
	"path/filepath"

	"github.com/craigm26/BARTDepartureBoard/internal/config"
	"github.com/craigm26/BARTDepartureBoard/internal/persistence"
	"github.com/craigm26/BARTDepartureBoard/internal/persistence/pollindex"
	"github.com/craigm26/BARTDepartureBoard/internal/persistence/snaplog"
)

// History is the set of enabled history sinks. Index is nil when the
// sqlite index is disabled.
type History struct {
	Index    *pollindex.SQLiteIndex
	Journal  *snaplog.Journal
	Recorder persistence.Recorder
}

// OpenHistory opens the poll index and the journal under cfg.DataDir. An
// empty DataDir disables both. A failing index is logged and skipped; the
// board runs without history.
func OpenHistory(cfg config.StorageConfig, logger Logger) History {
	h := History{Recorder: persistence.Nop{}}
	if cfg.DataDir == "" {
		return h
	}
	var sinks persistence.Multi
	if cfg.Index {
		idx, err := pollindex.OpenSQLite(filepath.Join(cfg.DataDir, "index.db"))
		if err != nil {
			logger.Errorf("index", "poll index disabled: %v", err)
		} else {
			h.Index = idx
			sinks = append(sinks, idx)
			logger.Infof("index", "poll index at %s", filepath.Join(cfg.DataDir, "index.db"))
		}
	}
	if cfg.Journal {
		j := snaplog.NewJournal(cfg.DataDir)
		j.OnError = func(err error) { logger.Errorf("journal", "write failed: %v", err) }
		h.Journal = j
		sinks = append(sinks, j)
	}
	if len(sinks) > 0 {
		h.Recorder = sinks
	}
	return h
}
