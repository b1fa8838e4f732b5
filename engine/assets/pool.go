package assets

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/anima-scene/engine/containers"
	"github.com/spaghettifunk/anima-scene/engine/core"
)

var ErrNoWorkers = fmt.Errorf("attempting to create load pool with less than 1 worker")
var ErrNegativeChannelSize = fmt.Errorf("attempting to create load pool with a negative channel size")

type LoadPoolConfig struct {
	Workers   int
	QueueSize int
}

type loadJob struct {
	ctx        context.Context
	asset      *Asset
	source     string
	generation uuid.UUID
}

type loadResult struct {
	asset      *Asset
	bundle     *Bundle
	err        error
	generation uuid.UUID
	elapsed    time.Duration
}

/**
 * @brief LoadPool is the asynchronous asset load queue. Records are queued
 * with AddLoad and handed to the workers by Start. Results are buffered and
 * only applied to the records by Update, which must run on the goroutine
 * that owns the scenes.
 */
type LoadPool struct {
	cache    *AssetCache
	loader   BundleLoader
	events   *core.EventSystem
	progress *core.Progress
	metrics  *core.LoadMetrics

	// owned by the scene goroutine
	pending    []*Asset
	queued     map[*Asset]struct{}
	inflight   map[*Asset]struct{}
	generation uuid.UUID
	ctx        context.Context
	cancel     context.CancelFunc
	closed     bool

	jobQueue   chan loadJob
	wg         sync.WaitGroup
	dispatchWg sync.WaitGroup

	resultsMutex sync.Mutex
	results      *containers.RingQueue[loadResult]
}

func NewLoadPool(config LoadPoolConfig, cache *AssetCache, loader BundleLoader, events *core.EventSystem, progress *core.Progress) (*LoadPool, error) {
	if config.Workers <= 0 {
		return nil, ErrNoWorkers
	}
	if config.QueueSize < 0 {
		return nil, ErrNegativeChannelSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	lp := &LoadPool{
		cache:      cache,
		loader:     loader,
		events:     events,
		progress:   progress,
		metrics:    core.NewLoadMetrics(),
		queued:     make(map[*Asset]struct{}),
		inflight:   make(map[*Asset]struct{}),
		generation: uuid.New(),
		ctx:        ctx,
		cancel:     cancel,
		jobQueue:   make(chan loadJob, config.QueueSize),
		results:    containers.NewRingQueue[loadResult](64),
	}

	lp.startWorkers(config.Workers)

	return lp, nil
}

func (lp *LoadPool) startWorkers(n int) {
	for i := 0; i < n; i++ {
		lp.wg.Add(1)
		go func() {
			defer lp.wg.Done()
			for job := range lp.jobQueue {
				if job.ctx.Err() != nil {
					// cleared before the job was picked up
					continue
				}
				start := time.Now()
				bundle, err := lp.loader.Load(job.ctx, job.source)
				lp.pushResult(loadResult{
					asset:      job.asset,
					bundle:     bundle,
					err:        err,
					generation: job.generation,
					elapsed:    time.Since(start),
				})
			}
		}()
	}
}

func (lp *LoadPool) pushResult(r loadResult) {
	lp.resultsMutex.Lock()
	defer lp.resultsMutex.Unlock()
	lp.results.Enqueue(r)
}

// AddLoad queues a record for the next Start. Records that are loaded,
// loading or already queued are ignored.
func (lp *LoadPool) AddLoad(a *Asset) bool {
	if a == nil || a.IsLoaded() || a.Loading {
		return false
	}
	if _, ok := lp.queued[a]; ok {
		return false
	}
	lp.queued[a] = struct{}{}
	lp.pending = append(lp.pending, a)
	return true
}

func loadLevelRank(l LoadLevel) int {
	switch l {
	case LoadLevelEnterBefore:
		return 0
	case LoadLevelEnterAfter:
		return 1
	case LoadLevelIdle:
		return 2
	default:
		return 3
	}
}

// Start hands every queued record to the workers, sooner load levels first
// and, within a level, lower LoadPri first.
func (lp *LoadPool) Start() error {
	if lp.closed {
		return core.ErrPoolClosed
	}
	if len(lp.pending) == 0 {
		return nil
	}

	batch := lp.pending
	lp.pending = nil
	lp.queued = make(map[*Asset]struct{})

	slices.SortStableFunc(batch, func(a, b *Asset) int {
		if ra, rb := loadLevelRank(a.LoadLevel), loadLevelRank(b.LoadLevel); ra != rb {
			return ra - rb
		}
		return int(a.LoadPri) - int(b.LoadPri)
	})

	jobs := make([]loadJob, 0, len(batch))
	for _, a := range batch {
		a.Loading = true
		lp.inflight[a] = struct{}{}
		jobs = append(jobs, loadJob{
			ctx:        lp.ctx,
			asset:      a,
			source:     a.Source,
			generation: lp.generation,
		})
	}
	if lp.progress != nil {
		lp.progress.AddMax(len(jobs))
	}
	core.LogDebug("load pool: starting %d asset loads", len(jobs))

	ctx := lp.ctx
	lp.dispatchWg.Add(1)
	go func() {
		defer lp.dispatchWg.Done()
		for _, j := range jobs {
			select {
			case lp.jobQueue <- j:
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

/**
 * @brief Applies finished loads to their records and fires the asset events.
 * Results of a previous generation, or for records no longer cached, are
 * released instead.
 * @returns the number of results processed.
 */
func (lp *LoadPool) Update() int {
	lp.resultsMutex.Lock()
	results := lp.results.Drain()
	lp.resultsMutex.Unlock()

	for _, r := range results {
		if r.generation != lp.generation {
			lp.release(r.bundle)
			continue
		}

		delete(lp.inflight, r.asset)
		r.asset.Loading = false
		lp.advance()

		if cur, ok := lp.cache.Lookup(r.asset.Source); !ok || cur != r.asset {
			core.LogDebug("load pool: asset(%s) left the cache while loading", r.asset.Source)
			lp.release(r.bundle)
			continue
		}

		if r.err != nil {
			lp.metrics.RecordFailure()
			core.LogError("load pool: failed to load asset(%s): %s", r.asset.Source, r.err)
			lp.fire(core.EventContext{Type: core.EVENT_CODE_ASSET_FAILED, Name: r.asset.Source, Payload: r.asset, Err: r.err})
			continue
		}

		r.asset.Bundle = r.bundle
		lp.metrics.RecordLoad(r.elapsed)
		core.LogDebug("load pool: asset(%s) loaded in %s", r.asset.Source, r.elapsed)
		lp.fire(core.EventContext{Type: core.EVENT_CODE_ASSET_LOADED, Name: r.asset.Source, Payload: r.asset})
	}
	if len(results) > 0 && lp.progress != nil {
		lp.progress.Settle()
	}
	return len(results)
}

/**
 * @brief Drops every queued and in-flight load. Outstanding worker results
 * belong to the old generation and are discarded when they arrive.
 * @param fireCallbacks when true, EVENT_CODE_ASSET_FAILED is fired with
 * ErrLoadCancelled for every dropped record.
 */
func (lp *LoadPool) Clear(fireCallbacks bool) {
	lp.cancel()
	lp.ctx, lp.cancel = context.WithCancel(context.Background())
	lp.generation = uuid.New()

	dropped := make([]*Asset, 0, len(lp.pending)+len(lp.inflight))
	dropped = append(dropped, lp.pending...)
	for a := range lp.inflight {
		dropped = append(dropped, a)
	}
	lp.pending = nil
	lp.queued = make(map[*Asset]struct{})
	lp.inflight = make(map[*Asset]struct{})

	for _, a := range dropped {
		a.Loading = false
		if fireCallbacks {
			lp.fire(core.EventContext{Type: core.EVENT_CODE_ASSET_FAILED, Name: a.Source, Payload: a, Err: core.ErrLoadCancelled})
		}
	}
	if len(dropped) > 0 {
		core.LogDebug("load pool: cleared %d asset loads", len(dropped))
	}
}

func (lp *LoadPool) Pending() int {
	return len(lp.pending)
}

func (lp *LoadPool) InFlight() int {
	return len(lp.inflight)
}

func (lp *LoadPool) Metrics() *core.LoadMetrics {
	return lp.metrics
}

/**
 * @brief Shuts the load pool down. Loads still running are cancelled and
 * their bundles released.
 */
func (lp *LoadPool) Shutdown() error {
	if lp.closed {
		return nil
	}
	lp.closed = true
	lp.Clear(false)
	lp.cancel()
	lp.dispatchWg.Wait()
	close(lp.jobQueue)
	lp.wg.Wait()

	lp.resultsMutex.Lock()
	results := lp.results.Drain()
	lp.resultsMutex.Unlock()
	for _, r := range results {
		lp.release(r.bundle)
	}
	return nil
}

func (lp *LoadPool) advance() {
	if lp.progress != nil {
		lp.progress.Advance()
	}
}

func (lp *LoadPool) fire(data core.EventContext) {
	if lp.events != nil {
		lp.events.Fire(lp, data)
	}
}

func (lp *LoadPool) release(b *Bundle) {
	if b == nil {
		return
	}
	if err := lp.loader.Unload(b); err != nil {
		core.LogError("load pool: failed to release bundle(%s): %s", b.Source, err)
	}
}
