package assets

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-scene/engine/core"
)

type recordedEvents struct {
	loaded []string
	failed map[string]error
}

func recordEvents(es *core.EventSystem) *recordedEvents {
	rec := &recordedEvents{failed: make(map[string]error)}
	es.Register(core.EVENT_CODE_ASSET_LOADED, rec, func(_, _ interface{}, data core.EventContext) bool {
		rec.loaded = append(rec.loaded, data.Name)
		return false
	})
	es.Register(core.EVENT_CODE_ASSET_FAILED, rec, func(_, _ interface{}, data core.EventContext) bool {
		rec.failed[data.Name] = data.Err
		return false
	})
	return rec
}

func newTestPool(t *testing.T, workers int, loader *scriptedLoader) (*LoadPool, *AssetCache, *recordedEvents, *core.Progress) {
	t.Helper()
	cache := NewAssetCache(loader)
	events := core.NewEventSystem()
	progress := core.NewProgress()
	lp, err := NewLoadPool(LoadPoolConfig{Workers: workers, QueueSize: 8}, cache, loader, events, progress)
	require.NoError(t, err)
	t.Cleanup(func() { _ = lp.Shutdown() })
	return lp, cache, recordEvents(events), progress
}

func TestNewLoadPoolValidatesConfig(t *testing.T) {
	_, err := NewLoadPool(LoadPoolConfig{Workers: 0}, nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrNoWorkers)
	_, err = NewLoadPool(LoadPoolConfig{Workers: 1, QueueSize: -1}, nil, nil, nil, nil)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestLoadPoolLoadsAndFires(t *testing.T) {
	loader := newScriptedLoader()
	lp, cache, rec, progress := newTestPool(t, 2, loader)
	progress.Reset(true)

	a, _ := cache.FindOrCreate("tree.bundle", "")
	b, _ := cache.FindOrCreate("rock.bundle", "")
	require.True(t, lp.AddLoad(a))
	require.True(t, lp.AddLoad(b))
	require.NoError(t, lp.Start())
	assert.True(t, a.Loading)
	assert.Equal(t, 2, lp.InFlight())

	waitForResults(t, lp, 2)

	assert.ElementsMatch(t, []string{"tree.bundle", "rock.bundle"}, rec.loaded)
	assert.True(t, a.IsLoaded())
	assert.False(t, a.Loading)
	assert.Equal(t, "tree.bundle", a.Bundle.Source)
	assert.Zero(t, lp.InFlight())
	assert.False(t, progress.InProgress())

	loaded, _ := lp.Metrics().Counts()
	assert.Equal(t, uint64(2), loaded)
}

func TestLoadPoolOrdersByLevelThenPriority(t *testing.T) {
	loader := newScriptedLoader()
	lp, cache, _, _ := newTestPool(t, 1, loader)

	add := func(source string, level LoadLevel, pri uint16) {
		a, _ := cache.FindOrCreate(source, "")
		a.LoadLevel = level
		a.LoadPri = pri
		lp.AddLoad(a)
	}
	add("dynamic", LoadLevelScriptDynamic, 0)
	add("idle", LoadLevelIdle, 0)
	add("after", LoadLevelEnterAfter, 0)
	add("before-late", LoadLevelEnterBefore, 5)
	add("before-early", LoadLevelEnterBefore, 1)

	require.NoError(t, lp.Start())
	waitForResults(t, lp, 5)

	assert.Equal(t, []string{"before-early", "before-late", "after", "idle", "dynamic"}, loader.loadOrder())
}

func TestLoadPoolAddLoadSkips(t *testing.T) {
	loader := newScriptedLoader()
	lp, cache, _, _ := newTestPool(t, 1, loader)

	loaded, _ := cache.FindOrCreate("loaded.bundle", "")
	loaded.Bundle = &Bundle{Source: "loaded.bundle"}
	loading, _ := cache.FindOrCreate("loading.bundle", "")
	loading.Loading = true
	fresh, _ := cache.FindOrCreate("fresh.bundle", "")

	assert.False(t, lp.AddLoad(loaded))
	assert.False(t, lp.AddLoad(loading))
	assert.False(t, lp.AddLoad(nil))
	assert.True(t, lp.AddLoad(fresh))
	assert.False(t, lp.AddLoad(fresh))
	assert.Equal(t, 1, lp.Pending())
}

func TestLoadPoolReportsFailure(t *testing.T) {
	loader := newScriptedLoader()
	boom := errors.New("boom")
	loader.failures["bad.bundle"] = boom
	lp, cache, rec, _ := newTestPool(t, 1, loader)

	a, _ := cache.FindOrCreate("bad.bundle", "")
	lp.AddLoad(a)
	require.NoError(t, lp.Start())
	waitForResults(t, lp, 1)

	assert.ErrorIs(t, rec.failed["bad.bundle"], boom)
	assert.False(t, a.IsLoaded())
	assert.False(t, a.Loading)
	_, failed := lp.Metrics().Counts()
	assert.Equal(t, uint64(1), failed)
}

func TestLoadPoolClearDiscardsStaleResults(t *testing.T) {
	loader := newScriptedLoader()
	loader.gate = make(chan struct{})
	loader.entered = make(chan string, 1)
	lp, cache, rec, _ := newTestPool(t, 1, loader)

	a, _ := cache.FindOrCreate("slow.bundle", "")
	queued, _ := cache.FindOrCreate("queued.bundle", "")
	lp.AddLoad(a)
	require.NoError(t, lp.Start())
	lp.AddLoad(queued)
	// the worker must own the job before the clear, otherwise it is skipped
	require.Equal(t, "slow.bundle", <-loader.entered)

	lp.Clear(true)
	assert.False(t, a.Loading)
	assert.Zero(t, lp.Pending())
	assert.Zero(t, lp.InFlight())
	assert.ErrorIs(t, rec.failed["slow.bundle"], core.ErrLoadCancelled)
	assert.ErrorIs(t, rec.failed["queued.bundle"], core.ErrLoadCancelled)

	close(loader.gate)
	waitForResults(t, lp, 1)

	assert.False(t, a.IsLoaded())
	assert.Empty(t, rec.loaded)
	assert.Equal(t, []string{"slow.bundle"}, loader.releasedSources())
}

func TestLoadPoolReleasesEvictedRecords(t *testing.T) {
	loader := newScriptedLoader()
	loader.gate = make(chan struct{})
	lp, cache, rec, _ := newTestPool(t, 1, loader)

	a, _ := cache.FindOrCreate("evicted.bundle", "")
	lp.AddLoad(a)
	require.NoError(t, lp.Start())
	cache.EvictUnreferencedExcept([]string{"evicted.bundle"}, "other")

	close(loader.gate)
	waitForResults(t, lp, 1)

	assert.False(t, a.IsLoaded())
	assert.Empty(t, rec.loaded)
	assert.Equal(t, []string{"evicted.bundle"}, loader.releasedSources())
}

func TestLoadPoolShutdown(t *testing.T) {
	loader := newScriptedLoader()
	lp, cache, _, _ := newTestPool(t, 1, loader)
	require.NoError(t, lp.Shutdown())
	require.NoError(t, lp.Shutdown())

	a, _ := cache.FindOrCreate("late.bundle", "")
	lp.AddLoad(a)
	assert.ErrorIs(t, lp.Start(), core.ErrPoolClosed)
}
