package store

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/botdeck/botdeck/pkg/types"
)

func fixture() ([]types.Bot, []types.Worker, []types.Log) {
	bots := []types.Bot{
		{ID: "bot-1", Name: "Test Bot One", Status: types.BotEnabled, Created: 1713809849892},
		{ID: "bot-2", Name: "Test Bot Two", Status: types.BotDisabled, Created: 1713774119964},
		{ID: "bot-3", Name: "Test Bot Three", Status: types.BotPaused, Created: 1713762074682},
	}
	workers := []types.Worker{
		{ID: "worker-1", Bot: "Test Bot One", Name: "Worker 1-1"},
		{ID: "worker-2", Bot: "Test Bot One", Name: "Worker 1-2"},
		{ID: "worker-3", Bot: "Test Bot Two", Name: "Worker 2-1"},
	}
	logs := []types.Log{
		{ID: "log-1", Bot: "bot-1", Worker: "worker-1", Message: "one", Created: 1713780000000},
		{ID: "log-2", Bot: "bot-1", Worker: "worker-1", Message: "two", Created: 1713780060000},
		{ID: "log-3", Bot: "bot-1", Worker: "worker-2", Message: "three", Created: 1713780120000},
		{ID: "log-4", Bot: "bot-2", Worker: "worker-3", Message: "four", Created: 1713780180000},
	}
	return bots, workers, logs
}

func TestLoad_IndexesByID(t *testing.T) {
	st := Load(fixture())

	b, ok := st.Bots().FindByID("bot-2")
	require.True(t, ok)
	assert.Equal(t, "Test Bot Two", b.Name)

	w, ok := st.Workers().FindByID("worker-3")
	require.True(t, ok)
	assert.Equal(t, "Worker 2-1", w.Name)

	l, ok := st.Logs().FindByID("log-4")
	require.True(t, ok)
	assert.Equal(t, "four", l.Message)

	_, ok = st.Bots().FindByID("missing-id")
	assert.False(t, ok)
}

func TestLoad_ResolvesWorkerBotByName(t *testing.T) {
	st := Load(
		[]types.Bot{{ID: "b1", Name: "Alpha"}},
		[]types.Worker{{ID: "w1", Bot: "Alpha"}, {ID: "w2", Bot: "Ghost"}},
		nil,
	)

	w1, _ := st.Workers().FindByID("w1")
	assert.Equal(t, "b1", w1.BotID)

	w2, _ := st.Workers().FindByID("w2")
	assert.Empty(t, w2.BotID)
	assert.Equal(t, 1, st.Stats().UnresolvedWorkerBots)
}

func TestLoad_ClearsStaleWorkerBotID(t *testing.T) {
	st := Load(nil, []types.Worker{{ID: "w1", Bot: "Ghost", BotID: "bot-9"}}, nil)

	w, _ := st.Workers().FindByID("w1")
	assert.Empty(t, w.BotID, "BotID must only be set when the name resolves")
}

func TestLoad_DuplicateBotNameLastWins(t *testing.T) {
	st := Load(
		[]types.Bot{{ID: "b1", Name: "Twin"}, {ID: "b2", Name: "Twin"}},
		[]types.Worker{{ID: "w1", Bot: "Twin"}},
		nil,
	)
	w, _ := st.Workers().FindByID("w1")
	assert.Equal(t, "b2", w.BotID)
}

func TestLoad_MutatesWorkersInPlace(t *testing.T) {
	bots, workers, logs := fixture()
	Load(bots, workers, logs)

	assert.Equal(t, "bot-1", workers[0].BotID)
	assert.Equal(t, "bot-2", workers[2].BotID)
}

func TestLoad_LeavesCallerLogsUntouched(t *testing.T) {
	bots, workers, logs := fixture()
	before := append([]types.Log(nil), logs...)

	st := Load(bots, workers, logs)

	assert.Equal(t, before, logs)
	l, ok := st.Logs().FindByID("log-3")
	require.True(t, ok)
	assert.Equal(t, "bot-1", l.BotID)
	assert.Equal(t, "worker-2", l.WorkerID)
}

func TestLoad_WorkerBotIsNeverAnID(t *testing.T) {
	st := Load(
		[]types.Bot{{ID: "bot-1", Name: "Alpha"}},
		[]types.Worker{{ID: "w1", Bot: "bot-1"}},
		nil,
	)

	w, _ := st.Workers().FindByID("w1")
	assert.Empty(t, w.BotID)
	assert.Equal(t, 1, st.Stats().UnresolvedWorkerBots)
}

func TestLoad_ResolvesLogReferences(t *testing.T) {
	st := Load(
		[]types.Bot{{ID: "b1", Name: "Alpha"}},
		[]types.Worker{{ID: "w1", Bot: "Alpha", Name: "Digger"}},
		[]types.Log{
			{ID: "by-id", Bot: "b1", Worker: "w1"},
			{ID: "by-name", Bot: "Alpha", Worker: "Digger"},
			{ID: "dangling", Bot: "Nobody", Worker: "nobody"},
		},
	)

	byID, _ := st.Logs().FindByID("by-id")
	assert.Equal(t, "b1", byID.BotID)
	assert.Equal(t, "w1", byID.WorkerID)

	byName, _ := st.Logs().FindByID("by-name")
	assert.Equal(t, "b1", byName.BotID)
	assert.Equal(t, "w1", byName.WorkerID)

	dangling, _ := st.Logs().FindByID("dangling")
	assert.Empty(t, dangling.BotID)
	assert.Empty(t, dangling.WorkerID)

	assert.Equal(t, 1, st.Stats().UnresolvedLogBots)
	assert.Equal(t, 1, st.Stats().UnresolvedLogWorkers)
}

func TestLoad_IDMatchBeatsNameMatch(t *testing.T) {
	// Bot "b2" is named "b1": a log referencing "b1" means the bot with id b1.
	st := Load(
		[]types.Bot{{ID: "b1", Name: "first"}, {ID: "b2", Name: "b1"}},
		nil,
		[]types.Log{{ID: "l1", Bot: "b1"}},
	)
	l, _ := st.Logs().FindByID("l1")
	assert.Equal(t, "b1", l.BotID)
}

func TestLoad_DuplicateIDKeepsPositionLastValue(t *testing.T) {
	st := Load([]types.Bot{
		{ID: "a", Name: "first"},
		{ID: "b", Name: "second"},
		{ID: "a", Name: "third"},
	}, nil, nil)

	all := st.Bots().FindAll()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "third", all[0].Name)
	assert.Equal(t, "b", all[1].ID)
	assert.Equal(t, 1, st.Stats().DuplicateIDs)
}

func TestFindAll_InsertionOrderAndCopy(t *testing.T) {
	st := Load(fixture())

	all := st.Bots().FindAll()
	ids := make([]string, 0, len(all))
	for _, b := range all {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"bot-1", "bot-2", "bot-3"}, ids)

	all[0].Name = "mutated"
	again, _ := st.Bots().FindByID("bot-1")
	assert.Equal(t, "Test Bot One", again.Name, "FindAll must not expose internal state")
}

func TestStats(t *testing.T) {
	st := Load(fixture())
	assert.Equal(t, Stats{Bots: 3, Workers: 3, Logs: 4}, st.Stats())
}

func TestWhere(t *testing.T) {
	st := Load(fixture())
	got := Where(st.Workers(), func(w types.Worker) bool { return w.BotID == "bot-1" })

	require.Len(t, got, 2)
	assert.Equal(t, "worker-1", got[0].ID)
	assert.Equal(t, "worker-2", got[1].ID)

	assert.Empty(t, Where(st.Workers(), func(types.Worker) bool { return false }))
}

func TestLoad_Empty(t *testing.T) {
	st := Load(nil, nil, nil)
	assert.Empty(t, st.Bots().FindAll())
	assert.Equal(t, 0, st.Logs().Len())
}

func TestConcurrentReads(t *testing.T) {
	st := Load(fixture())
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			st.Bots().FindAll()
		}()
		go func() {
			defer wg.Done()
			st.Logs().FindByID("log-1")
		}()
	}
	wg.Wait()
}

func TestLoad_EmptyNamesNeverMatch(t *testing.T) {
	st := Load(
		[]types.Bot{{ID: "nameless", Status: types.BotEnabled}},
		[]types.Worker{{ID: "w", Name: ""}},
		[]types.Log{{ID: "l"}},
	)

	w, _ := st.Workers().FindByID("w")
	assert.Empty(t, w.BotID)
	l, _ := st.Logs().FindByID("l")
	assert.Empty(t, l.BotID)
	assert.Empty(t, l.WorkerID)
}
