// Package query answers the read queries served by the API: bots, a single
// bot, the workers of a bot and the logs of a bot or worker.
//
// Every method is a pure read of the injected store.Reader. Absence is a
// value (false, or an empty page), never an error.
package query

import (
	"log/slog"
	"sort"

	"github.com/botdeck/botdeck/pkg/paginate"
	"github.com/botdeck/botdeck/pkg/types"
	"github.com/botdeck/botdeck/server/internal/store"
)

// Service composes store lookups with filtering, ordering and pagination.
type Service struct {
	store store.Reader
}

// New creates a Service reading from st.
func New(st store.Reader) *Service {
	return &Service{store: st}
}

// ListBots returns a page of all bots in snapshot order.
func (s *Service) ListBots(p paginate.Params) paginate.Result[types.Bot] {
	res := paginate.Paginate(s.store.Bots().FindAll(), p)
	slog.Debug("query: bots listed",
		"returned", len(res.Data), "total", res.Pagination.Total, "page", res.Pagination.Page)
	return res
}

// GetBot returns the bot with the given id, or false if there is none.
func (s *Service) GetBot(id string) (types.Bot, bool) {
	return s.store.Bots().FindByID(id)
}

// GetWorker returns the worker with the given id, or false if there is none.
func (s *Service) GetWorker(id string) (types.Worker, bool) {
	return s.store.Workers().FindByID(id)
}

// ListWorkersOfBot returns a page of the workers whose resolved bot id is
// botID, in snapshot order. An unknown bot yields an empty page.
func (s *Service) ListWorkersOfBot(botID string, p paginate.Params) paginate.Result[types.Worker] {
	workers := store.Where(s.store.Workers(), func(w types.Worker) bool {
		return w.BotID != "" && w.BotID == botID
	})
	res := paginate.Paginate(workers, p)
	slog.Debug("query: workers listed",
		"bot_id", botID, "returned", len(res.Data), "total", res.Pagination.Total)
	return res
}

// ListLogsOfBot returns a page of the logs attributed to botID, oldest
// first.
func (s *Service) ListLogsOfBot(botID string, p paginate.Params) paginate.Result[types.Log] {
	logs := store.Where(s.store.Logs(), func(l types.Log) bool {
		return l.BotID != "" && l.BotID == botID
	})
	res := paginate.Paginate(sortByCreated(logs), p)
	slog.Debug("query: bot logs listed",
		"bot_id", botID, "returned", len(res.Data), "total", res.Pagination.Total)
	return res
}

// ListLogsOfWorker returns a page of the logs attributed to workerID, oldest
// first.
func (s *Service) ListLogsOfWorker(workerID string, p paginate.Params) paginate.Result[types.Log] {
	logs := store.Where(s.store.Logs(), func(l types.Log) bool {
		return l.WorkerID != "" && l.WorkerID == workerID
	})
	res := paginate.Paginate(sortByCreated(logs), p)
	slog.Debug("query: worker logs listed",
		"worker_id", workerID, "returned", len(res.Data), "total", res.Pagination.Total)
	return res
}

// sortByCreated orders logs ascending by Created. Equal timestamps keep
// their snapshot order.
func sortByCreated(logs []types.Log) []types.Log {
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].Created < logs[j].Created
	})
	return logs
}
