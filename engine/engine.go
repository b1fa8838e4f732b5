package engine

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spaghettifunk/anima-scene/engine/assets"
	"github.com/spaghettifunk/anima-scene/engine/assets/loaders"
	"github.com/spaghettifunk/anima-scene/engine/config"
	"github.com/spaghettifunk/anima-scene/engine/core"
	"github.com/spaghettifunk/anima-scene/engine/scene"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently booting up
	EngineStageBooting
	// Engine completed boot process and is ready to be initialized
	EngineStageBootComplete
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

const defaultTickRate = time.Second / 60

const fetchTimeout = 30 * time.Second

/**
 * @brief Engine owns everything the scenes share: the event system, the
 * asset cache, the load pool, the description fetcher and the loading bar.
 * All of its methods run on one goroutine.
 */
type Engine struct {
	currentStage Stage
	gameInstance *Game
	config       *config.Config
	isRunning    bool

	renderer scene.Renderer
	events   *core.EventSystem
	progress *core.Progress
	loader   assets.BundleLoader
	cache    *assets.AssetCache
	pool     *assets.LoadPool
	fetcher  scene.Fetcher
	watcher  *assets.DescriptionWatcher

	scenes map[string]*scene.Scene
	active *scene.Scene

	clock    *core.Clock
	tickRate time.Duration
}

func New(g *Game, cfg *config.Config, renderer scene.Renderer) (*Engine, error) {
	if g == nil || g.ApplicationConfig == nil {
		return nil, fmt.Errorf("engine needs a game with an application config")
	}
	if renderer == nil {
		return nil, fmt.Errorf("engine needs a renderer")
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		core.LogError(err.Error())
		return nil, err
	}

	e := &Engine{
		currentStage: EngineStageUninitialized,
		gameInstance: g,
		config:       cfg,
		renderer:     renderer,
		scenes:       make(map[string]*scene.Scene),
		clock:        core.NewClock(),
		tickRate:     defaultTickRate,
	}
	e.currentStage = EngineStageBooting

	level := cfg.Log.Level
	if g.ApplicationConfig.LogLevel != "" {
		level = g.ApplicationConfig.LogLevel
	}
	if err := core.SetLogLevel(level); err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	if g.ApplicationConfig.TickRate > 0 {
		e.tickRate = time.Duration(g.ApplicationConfig.TickRate * float64(time.Second))
	}

	e.events = core.NewEventSystem()
	e.progress = core.NewProgress()
	e.loader = loaders.NewFileBundleLoader(cfg.Loader.BundleDir)
	e.cache = assets.NewAssetCache(e.loader)

	pool, err := assets.NewLoadPool(cfg.PoolConfig(), e.cache, e.loader, e.events, e.progress)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	e.pool = pool

	if cfg.Scenes.BaseURL != "" {
		e.fetcher = &scene.HTTPFetcher{
			BaseURL: cfg.Scenes.BaseURL,
			Client:  &http.Client{Timeout: fetchTimeout},
		}
	} else {
		e.fetcher = &scene.FileFetcher{Dir: cfg.Scenes.Dir}
	}

	g.Engine = e
	e.currentStage = EngineStageBootComplete
	return e, nil
}

func (e *Engine) Initialize(ctx context.Context) error {
	e.currentStage = EngineStageInitializing

	if e.config.Scenes.Watch {
		w, err := assets.NewDescriptionWatcher(e.config.Scenes.Dir)
		if err != nil {
			return err
		}
		e.watcher = w
	}

	e.events.Register(core.EVENT_CODE_ASSET_FAILED, e, e.onAssetFailed)
	e.events.Register(core.EVENT_CODE_SCENE_CREATED, e, e.onSceneCreated)

	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			return err
		}
	}

	start := e.config.Scenes.Start
	if e.gameInstance.ApplicationConfig.StartScene != "" {
		start = e.gameInstance.ApplicationConfig.StartScene
	}
	if start != "" {
		if err := e.SwitchScene(ctx, start, e.gameInstance.ApplicationConfig.ShowProgress); err != nil {
			return err
		}
	}

	e.currentStage = EngineStageInitialized
	core.LogInfo("%s initialized", e.gameInstance.ApplicationConfig.Name)
	return nil
}

// Scene returns the named scene, building it on first use.
func (e *Engine) Scene(name string) *scene.Scene {
	if s, ok := e.scenes[name]; ok {
		return s
	}
	s := scene.New(name, scene.Config{
		Cache:    e.cache,
		Queue:    e.pool,
		Renderer: e.renderer,
		Fetcher:  e.fetcher,
		Events:   e.events,
		Progress: e.progress,
	})
	e.scenes[name] = s
	return s
}

// ActiveScene returns the scene last switched to, or nil.
func (e *Engine) ActiveScene() *scene.Scene {
	return e.active
}

/**
 * @brief Unloads the active scene and starts loading the named one with
 * autocreate. The switch completes in later Update calls when the
 * description still has to be fetched.
 */
func (e *Engine) SwitchScene(ctx context.Context, name string, showProgress bool) error {
	next := e.Scene(name)
	if e.progress.InProgress() || (e.active != nil && e.active.Fetching()) {
		core.LogWarn("cannot switch to scene(%s) while another scene is loading", name)
		return fmt.Errorf("%w: %s", core.ErrReentrantLoad, name)
	}
	if e.active != nil && e.active.Created() {
		e.active.Unload()
	}
	e.active = next
	return next.LoadScene(ctx, true, showProgress)
}

/**
 * @brief Runs one engine step: applies finished asset loads, completes
 * pending description fetches and invalidates descriptions changed on disk.
 * @returns the errors of description fetches that completed with a failure.
 */
func (e *Engine) Update() error {
	e.pool.Update()

	var errs []error
	for name, s := range e.scenes {
		if err := s.Update(); err != nil {
			core.LogError("scene(%s) update failed: %s", name, err)
			errs = append(errs, err)
		}
	}

	if e.watcher != nil {
		for _, name := range e.watcher.Poll() {
			if s, ok := e.scenes[name]; ok {
				s.InvalidateDescription()
			}
			core.LogInfo("scene description(%s) changed", name)
			e.events.Fire(e, core.EventContext{Type: core.EVENT_CODE_DESCRIPTION_CHANGED, Name: name})
		}
	}
	return errors.Join(errs...)
}

// Run calls Update and the game's update hook every tick until ctx is done.
func (e *Engine) Run(ctx context.Context) error {
	e.currentStage = EngineStageRunning
	e.isRunning = true
	e.clock.Start()
	defer e.clock.Stop()

	ticker := time.NewTicker(e.tickRate)
	defer ticker.Stop()

	for e.isRunning {
		select {
		case <-ctx.Done():
			e.isRunning = false
		case <-ticker.C:
			if err := e.Update(); err != nil {
				core.LogWarn("engine update: %s", err)
			}
			delta := e.clock.Tick().Seconds()
			if e.gameInstance.FnUpdate != nil {
				if err := e.gameInstance.FnUpdate(delta); err != nil {
					core.LogError("Game update failed, shutting down.")
					e.isRunning = false
					return err
				}
			}
		}
	}
	return nil
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	e.isRunning = false

	for _, s := range e.scenes {
		if s.Created() {
			s.Unload()
		}
		s.Close()
	}

	var errs []error
	if e.watcher != nil {
		errs = append(errs, e.watcher.Close())
	}
	errs = append(errs, e.pool.Shutdown())
	if e.gameInstance.FnShutdown != nil {
		errs = append(errs, e.gameInstance.FnShutdown())
	}
	errs = append(errs, e.events.Shutdown())

	loaded, failed := e.pool.Metrics().Counts()
	core.LogInfo("shutdown: %d assets loaded (avg %.2fms), %d failed", loaded, e.pool.Metrics().AverageLoadMS(), failed)
	return errors.Join(errs...)
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}

func (e *Engine) Cache() *assets.AssetCache {
	return e.cache
}

func (e *Engine) Progress() *core.Progress {
	return e.progress
}

func (e *Engine) Events() *core.EventSystem {
	return e.events
}

func (e *Engine) onAssetFailed(_ interface{}, _ interface{}, data core.EventContext) bool {
	if errors.Is(data.Err, core.ErrLoadCancelled) {
		core.LogDebug("asset(%s) load cancelled", data.Name)
		return false
	}
	core.LogWarn("asset(%s) failed to load: %v", data.Name, data.Err)
	return false
}

func (e *Engine) onSceneCreated(_ interface{}, _ interface{}, data core.EventContext) bool {
	core.LogInfo("scene(%s) created, %d assets cached", data.Name, e.cache.Len())
	if e.gameInstance.FnOnSceneCreated != nil {
		if err := e.gameInstance.FnOnSceneCreated(data.Name); err != nil {
			core.LogError("game failed to handle scene(%s): %s", data.Name, err)
		}
	}
	return false
}
