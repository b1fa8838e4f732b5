package scene

import (
	"context"
	"fmt"

	"github.com/spaghettifunk/anima-scene/engine/assets"
	"github.com/spaghettifunk/anima-scene/engine/core"
)

// Config carries the collaborators shared by every scene of an application.
type Config struct {
	Cache    *assets.AssetCache
	Queue    LoadQueue
	Renderer Renderer
	Fetcher  Fetcher
	Events   *core.EventSystem
	Progress *core.Progress
	// NewWorld builds the partition for a world entry. Defaults to a WorldManager.
	NewWorld func(name string) WorldPartition
}

type fetchResult struct {
	data       []byte
	err        error
	autocreate bool
}

/**
 * @brief Scene is one named scene: its description, live and persisted
 * objects, render settings and world partition.
 *
 * States: description not fetched -> fetched -> created -> unloaded. Every
 * method must be called from the same goroutine; the only concurrent step is
 * the description fetch, whose result is handed back through Update or
 * AwaitDescription.
 */
type Scene struct {
	name string

	cache    *assets.AssetCache
	queue    LoadQueue
	renderer Renderer
	fetcher  Fetcher
	events   *core.EventSystem
	progress *core.Progress
	newWorld func(name string) WorldPartition

	objs          *ObjectRegistry
	tree          *xmlNode
	created       bool
	renderSetting RenderSettings
	worldmgr      WorldPartition

	fetching bool
	fetches  chan fetchResult
}

func New(name string, config Config) *Scene {
	s := &Scene{
		name:     name,
		cache:    config.Cache,
		queue:    config.Queue,
		renderer: config.Renderer,
		fetcher:  config.Fetcher,
		events:   config.Events,
		progress: config.Progress,
		newWorld: config.NewWorld,
		objs:     NewObjectRegistry(config.Renderer),
		fetches:  make(chan fetchResult, 1),
	}
	if s.progress == nil {
		s.progress = core.NewProgress()
	}
	if s.newWorld == nil {
		s.newWorld = func(worldName string) WorldPartition {
			return NewWorldManager(worldName, s.name, s.cache, s.queue, s.renderer)
		}
	}
	if s.events != nil {
		s.events.Register(core.EVENT_CODE_ASSET_LOADED, s, s.onEvent)
	}
	return s
}

func (s *Scene) Name() string {
	return s.name
}

func (s *Scene) Created() bool {
	return s.created
}

// Fetching reports whether a description fetch is outstanding.
func (s *Scene) Fetching() bool {
	return s.fetching
}

func (s *Scene) DescriptionCached() bool {
	return s.tree != nil
}

// InvalidateDescription drops the cached description so the next LoadScene
// fetches it again.
func (s *Scene) InvalidateDescription() {
	s.tree = nil
}

func (s *Scene) RenderSettings() RenderSettings {
	return s.renderSetting
}

func (s *Scene) World() WorldPartition {
	return s.worldmgr
}

func (s *Scene) Objects() *ObjectRegistry {
	return s.objs
}

/**
 * @brief Starts loading the scene. A cached description is used right away;
 * otherwise the fetch runs in the background and completes through Update
 * or AwaitDescription.
 * @param autocreate run Create once the description is available.
 * @param showProgressbar show the loading bar for this load.
 * @returns ErrReentrantLoad when another load is in progress.
 */
func (s *Scene) LoadScene(ctx context.Context, autocreate, showProgressbar bool) error {
	if s.progress.InProgress() || s.fetching {
		core.LogWarn("Scene::loadScene: (%s) is in loading...", s.name)
		return fmt.Errorf("%w: %s", core.ErrReentrantLoad, s.name)
	}

	s.progress.Reset(showProgressbar)

	if s.tree != nil {
		return s.onDescriptionReady(autocreate)
	}

	s.progress.AddMax(1)
	s.fetching = true
	core.LogDebug("starting loadSceneXML(%s)...", s.name)
	go func() {
		data, err := s.fetcher.Fetch(ctx, s.name)
		s.fetches <- fetchResult{data: data, err: err, autocreate: autocreate}
	}()
	return nil
}

// Update finishes a pending description fetch if its result has arrived.
func (s *Scene) Update() error {
	select {
	case r := <-s.fetches:
		return s.onFetched(r)
	default:
		return nil
	}
}

// AwaitDescription blocks until a pending description fetch completes and
// finishes it. Returns immediately when no fetch is pending.
func (s *Scene) AwaitDescription(ctx context.Context) error {
	if !s.fetching {
		return nil
	}
	select {
	case r := <-s.fetches:
		return s.onFetched(r)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scene) onFetched(r fetchResult) error {
	s.fetching = false
	if r.err != nil {
		core.LogError("loadSceneXML(%s): %s", s.name, r.err)
		s.progress.Reset(false)
		return fmt.Errorf("%w: %s: %v", core.ErrTransport, s.name, r.err)
	}

	if s.tree == nil {
		tree, err := decodeTree(r.data)
		if err != nil {
			core.LogError("loadSceneXML(%s): %s", s.name, err)
			s.progress.Reset(false)
			return err
		}
		s.tree = tree
	}

	s.progress.Advance()
	core.LogDebug("loadSceneXML(%s) is finished!", s.name)
	return s.onDescriptionReady(r.autocreate)
}

func (s *Scene) onDescriptionReady(autocreate bool) error {
	defer s.progress.Settle()
	if autocreate {
		return s.Create()
	}
	return nil
}

/**
 * @brief Builds the scene from its description: applies render settings,
 * builds the world, registers objects, evicts cached assets the scene does
 * not reference and queues every cached asset for loading.
 * The description is validated as a whole first; a malformed description
 * leaves every shared structure untouched.
 */
func (s *Scene) Create() error {
	if s.tree == nil || s.created {
		core.LogWarn("Scene::create: (%s) is failed! created=%v", s.name, s.created)
		if s.tree == nil {
			return fmt.Errorf("%w: %s", core.ErrDescriptionNotFetched, s.name)
		}
		return fmt.Errorf("%w: %s", core.ErrDuplicateCreate, s.name)
	}

	desc, err := parseDescription(s.name, s.tree)
	if err != nil {
		core.LogError("Scene::create: (%s): %s", s.name, err)
		return err
	}

	core.LogDebug("create scene(%s)...", s.name)
	s.created = true

	keys := s.cache.Keys()
	unreferenced := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		unreferenced[k] = struct{}{}
	}

	for _, entry := range desc.Entries {
		switch e := entry.(type) {
		case *RenderSettingsEntry:
			s.setRender(e)
		case *WorldEntry:
			s.setupWorld(e, unreferenced)
		case *ObjectEntry:
			s.createObject(e, unreferenced)
		}
	}

	candidates := make([]string, 0, len(unreferenced))
	for _, k := range keys {
		if _, ok := unreferenced[k]; ok {
			candidates = append(candidates, k)
		}
	}
	s.cache.EvictUnreferencedExcept(candidates, s.name)

	core.LogDebug("create scene(%s) successfully, start loading...", s.name)

	for _, a := range s.cache.All() {
		s.queue.AddLoad(a)
	}
	if err := s.queue.Start(); err != nil {
		core.LogError("Scene::create: (%s) failed to start loading: %s", s.name, err)
		return err
	}

	s.fire(core.EVENT_CODE_SCENE_CREATED)
	return nil
}

// findAsset resolves source in the cache, stamping records this scene creates.
func (s *Scene) findAsset(source, layer string) *assets.Asset {
	a, created := s.cache.FindOrCreate(source, layer)
	if created {
		a.CreateAtScene = s.name
	}
	return a
}

func (s *Scene) setRender(e *RenderSettingsEntry) {
	s.renderSetting = e.Settings
	ApplyRenderSettings(s.renderer, s.renderSetting)

	// the skybox key stays an eviction candidate
	sky := s.renderSetting.SkyboxName
	if sky == "" {
		return
	}
	if _, ok := s.cache.Lookup(sky); !ok {
		a := s.findAsset(sky, assets.DefaultLayer)
		a.Type = assets.AssetTypeSkybox
		a.LoadLevel = assets.LoadLevelEnterBefore
		a.LayerName = assets.DefaultLayer
	}
}

func (s *Scene) setupWorld(e *WorldEntry, unreferenced map[string]struct{}) {
	if s.worldmgr != nil {
		s.worldmgr.Unload()
	}
	w := s.newWorld(e.Name)
	s.worldmgr = w

	w.SetTerrain(e.Terrain)
	for _, src := range w.CreateWorldObjs() {
		delete(unreferenced, src)
	}

	for _, oe := range e.Objects {
		delete(unreferenced, oe.Asset)
		a := s.findAsset(oe.Asset, oe.Layer)
		a.Type = assets.AssetTypeWorldObj
		a.LoadLevel = assets.LoadLevelScriptDynamic

		obj := &WorldObject{
			SceneObject: SceneObject{
				IDKey:     oe.ID,
				Name:      oe.Name,
				Transform: oe.Transform,
				Asset:     a,
			},
		}
		pos := CalcAtChunk(oe.Transform.Position.X, oe.Transform.Position.Z, w.ChunkSplit(), w.ChunkSize())
		w.Place(pos, obj)
	}

	w.Load()
}

func (s *Scene) createObject(e *ObjectEntry, unreferenced map[string]struct{}) {
	delete(unreferenced, e.Asset)

	a := s.findAsset(e.Asset, e.Layer)
	a.LoadPri = e.LoadPri
	if e.Layer != "" {
		a.LayerName = e.Layer
	}
	a.LoadLevel = e.LoadLevel
	a.UnloadLevel = e.UnloadLevel

	if p, ok := s.objs.adopt(e.ID); ok {
		if p.Asset != nil && p.Asset != a {
			p.Asset.RemoveRef(e.ID)
		}
		p.Asset = a
		p.Name = e.Name
		core.LogDebug("SceneObject(%s) re-adopted from persisted objects", e.ID)
		if !p.Instantiated() {
			a.AddRef(e.ID)
			if a.IsLoaded() {
				s.instantiate(p)
			}
		}
		return
	}

	obj := &SceneObject{
		IDKey:     e.ID,
		Name:      e.Name,
		Transform: e.Transform,
		Asset:     a,
	}
	s.objs.Add(e.ID, obj)
	a.AddRef(e.ID)
	if a.IsLoaded() {
		s.instantiate(obj)
	}
}

// instantiate builds the representation of a pending object and releases
// the ref it held while waiting.
func (s *Scene) instantiate(obj *SceneObject) {
	gameObject, err := s.renderer.Instantiate(obj)
	if err != nil {
		core.LogError("Scene(%s): failed to instantiate sceneobject(%s): %s", s.name, obj.IDKey, err)
		return
	}
	obj.GameObject = gameObject
	obj.Asset.RemoveRef(obj.IDKey)
}

/**
 * @brief Tears the scene down. Queued loads are dropped, the world is
 * unloaded and objects are destroyed or persisted by their asset's unload
 * level. The asset cache is left alone; eviction happens on the next Create.
 */
func (s *Scene) Unload() {
	s.created = false
	s.queue.Clear(false)
	s.progress.Reset(false)

	if s.worldmgr != nil {
		s.worldmgr.Unload()
		s.worldmgr = nil
	}

	s.objs.UnloadAll()
	core.LogDebug("unload scene(%s) successfully!", s.name)
	s.fire(core.EVENT_CODE_SCENE_UNLOADED)
}

// AddSceneObject registers obj under key, replacing any object already
// there. An object with an asset is instantiated right away when the asset
// is loaded and otherwise waits for it.
func (s *Scene) AddSceneObject(key string, obj *SceneObject) {
	obj.IDKey = key
	s.objs.Add(key, obj)
	if obj.Asset != nil && !obj.Instantiated() {
		obj.Asset.AddRef(key)
		if obj.Asset.IsLoaded() {
			s.instantiate(obj)
		}
	}
}

func (s *Scene) RemoveSceneObject(key string) error {
	return s.objs.Remove(key)
}

// OnAssetLoaded instantiates the objects waiting for a. Ignored unless the
// scene is created.
func (s *Scene) OnAssetLoaded(a *assets.Asset) {
	if !s.created {
		return
	}
	for _, obj := range s.objs.Pending(a) {
		s.instantiate(obj)
	}
	if s.worldmgr != nil {
		s.worldmgr.OnAssetLoaded(a)
	}
}

func (s *Scene) onEvent(_ interface{}, _ interface{}, data core.EventContext) bool {
	if a, ok := data.Payload.(*assets.Asset); ok {
		s.OnAssetLoaded(a)
	}
	// other scenes may wait for the same asset
	return false
}

// Close detaches the scene from the event system.
func (s *Scene) Close() {
	if s.events != nil {
		s.events.Unregister(core.EVENT_CODE_ASSET_LOADED, s)
	}
}

func (s *Scene) fire(code core.SystemEventCode) {
	if s.events != nil {
		s.events.Fire(s, core.EventContext{Type: code, Name: s.name})
	}
}
