package store

import (
	"log/slog"

	"github.com/botdeck/botdeck/pkg/types"
)

// Reader is the read-only view of a loaded snapshot.
type Reader interface {
	Bots() Finder[types.Bot]
	Workers() Finder[types.Worker]
	Logs() Finder[types.Log]
}

// Stats summarises a loaded snapshot.
type Stats struct {
	Bots    int `json:"bots"`
	Workers int `json:"workers"`
	Logs    int `json:"logs"`

	// DuplicateIDs counts records whose id was already seen in the same
	// collection. The later record wins.
	DuplicateIDs int `json:"duplicate_ids"`

	UnresolvedWorkerBots int `json:"unresolved_worker_bots"`
	UnresolvedLogBots    int `json:"unresolved_log_bots"`
	UnresolvedLogWorkers int `json:"unresolved_log_workers"`
}

// Store is the frozen snapshot. Build one with Load.
type Store struct {
	bots    *Collection[types.Bot]
	workers *Collection[types.Worker]
	logs    *Collection[types.Log]
	stats   Stats
}

var _ Reader = (*Store)(nil)

// Load indexes the three collections and resolves cross-references.
//
// BotID on each element of workers is overwritten in place with the
// resolved bot id, or cleared when Worker.Bot names no bot. Worker.Bot is
// matched against bot names only. Bots and logs are never written: a log's
// BotID and WorkerID are resolved on the store's own copy. Unresolved
// references are not an error. When several bots share a name, the last one
// wins; the same holds for worker names.
//
// A log's Bot and Worker fields may hold either an id or a name. An exact id
// match takes precedence over a name match.
func Load(bots []types.Bot, workers []types.Worker, logs []types.Log) *Store {
	s := &Store{
		bots:    newCollection[types.Bot](len(bots)),
		workers: newCollection[types.Worker](len(workers)),
		logs:    newCollection[types.Log](len(logs)),
	}

	botIDByName := make(map[string]string, len(bots))
	for _, b := range bots {
		if s.bots.put(b.ID, b) {
			s.stats.DuplicateIDs++
		}
		// A nameless bot must not claim references that are merely empty.
		if b.Name != "" {
			botIDByName[b.Name] = b.ID
		}
	}

	workerIDByName := make(map[string]string, len(workers))
	for i := range workers {
		w := &workers[i]
		w.BotID = botIDByName[w.Bot]
		if w.BotID == "" {
			s.stats.UnresolvedWorkerBots++
		}
		if s.workers.put(w.ID, *w) {
			s.stats.DuplicateIDs++
		}
		// Same for nameless workers.
		if w.Name != "" {
			workerIDByName[w.Name] = w.ID
		}
	}

	for _, l := range logs {
		l.BotID = resolve(l.Bot, s.bots.byID, botIDByName)
		if l.BotID == "" {
			s.stats.UnresolvedLogBots++
		}
		l.WorkerID = resolve(l.Worker, s.workers.byID, workerIDByName)
		if l.WorkerID == "" {
			s.stats.UnresolvedLogWorkers++
		}
		if s.logs.put(l.ID, l) {
			s.stats.DuplicateIDs++
		}
	}

	s.stats.Bots = s.bots.Len()
	s.stats.Workers = s.workers.Len()
	s.stats.Logs = s.logs.Len()

	slog.Debug("store: snapshot indexed",
		"bots", s.stats.Bots,
		"workers", s.stats.Workers,
		"logs", s.stats.Logs,
	)
	return s
}

// resolve maps ref to an id: ref itself if it is a known id, otherwise the
// id registered under ref as a name, otherwise "".
func resolve[T any](ref string, byID map[string]T, idByName map[string]string) string {
	if ref == "" {
		return ""
	}
	if _, ok := byID[ref]; ok {
		return ref
	}
	return idByName[ref]
}

// Bots implements Reader.
func (s *Store) Bots() Finder[types.Bot] { return s.bots }

// Workers implements Reader.
func (s *Store) Workers() Finder[types.Worker] { return s.workers }

// Logs implements Reader.
func (s *Store) Logs() Finder[types.Log] { return s.logs }

// Stats returns counters gathered during Load.
func (s *Store) Stats() Stats { return s.stats }
