package scene

import (
	"github.com/spaghettifunk/anima-scene/engine/assets"
	"github.com/spaghettifunk/anima-scene/engine/core"
	"github.com/spaghettifunk/anima-scene/engine/math"
)

// LoadQueue is the part of the asset load pool the scene code drives.
type LoadQueue interface {
	AddLoad(a *assets.Asset) bool
	Start() error
	Clear(fireCallbacks bool)
}

// ChunkPos is a cell of the world grid (row, column).
type ChunkPos struct {
	X, Y int
}

// ChunkIndex addresses one object list of the sparse chunk grid.
type ChunkIndex struct {
	X, Y, Z int
}

// CalcAtChunk returns the chunk holding world position (x, z). Positions
// outside the grid are clamped to its border cells.
func CalcAtChunk(x, z float32, split int, chunkSize float32) ChunkPos {
	if split < 1 || chunkSize <= 0 {
		return ChunkPos{}
	}
	return ChunkPos{
		X: math.Clamp(math.FloorToInt(x/chunkSize), 0, split-1),
		Y: math.Clamp(math.FloorToInt(z/chunkSize), 0, split-1),
	}
}

/**
 * @brief WorldPartition places world objects into spatial chunks and loads
 * them on its own schedule.
 */
type WorldPartition interface {
	SetTerrain(t TerrainEntry)
	ChunkSplit() int
	ChunkSize() float32
	Place(pos ChunkPos, obj *WorldObject)
	CreateWorldObjs() []string
	Load()
	Unload()
	OnAssetLoaded(a *assets.Asset)
}

// WorldManager is the default WorldPartition.
type WorldManager struct {
	Name        string
	SceneName   string
	TerrainName string
	Size        math.Vec3
	Split       int
	CellSize    float32

	SplatPrototypes  []SplatPrototype
	TreePrototypes   []string
	DetailPrototypes []string

	WorldObjs map[ChunkIndex][]*WorldObject

	cache      *assets.AssetCache
	queue      LoadQueue
	renderer   Renderer
	prototypes []*assets.Asset
}

func NewWorldManager(name, sceneName string, cache *assets.AssetCache, queue LoadQueue, renderer Renderer) *WorldManager {
	return &WorldManager{
		Name:      name,
		SceneName: sceneName,
		WorldObjs: make(map[ChunkIndex][]*WorldObject),
		cache:     cache,
		queue:     queue,
		renderer:  renderer,
	}
}

func (w *WorldManager) SetTerrain(t TerrainEntry) {
	w.TerrainName = t.Name
	w.Size = t.Size
	w.Split = t.SplitSize
	w.CellSize = t.Size.X / float32(t.SplitSize)
	w.SplatPrototypes = append(w.SplatPrototypes, t.SplatPrototypes...)
	w.TreePrototypes = append(w.TreePrototypes, t.TreePrototypes...)
	w.DetailPrototypes = append(w.DetailPrototypes, t.DetailPrototypes...)

	core.LogDebug("name:%s, worldsize:%+v, splitChunks:%d, chunkSize:%v", w.Name, w.Size, w.Split, w.CellSize)
}

func (w *WorldManager) ChunkSplit() int {
	return w.Split
}

func (w *WorldManager) ChunkSize() float32 {
	return w.CellSize
}

func (w *WorldManager) Place(pos ChunkPos, obj *WorldObject) {
	obj.Chunk = pos
	idx := ChunkIndex{X: pos.X, Y: pos.Y}
	w.WorldObjs[idx] = append(w.WorldObjs[idx], obj)
}

// Objects returns the objects placed in a chunk.
func (w *WorldManager) Objects(pos ChunkPos) []*WorldObject {
	return w.WorldObjs[ChunkIndex{X: pos.X, Y: pos.Y}]
}

// CreateWorldObjs registers the terrain prototype assets in the cache and
// returns their sources.
func (w *WorldManager) CreateWorldObjs() []string {
	var sources []string
	for _, sp := range w.SplatPrototypes {
		sources = append(sources, sp.Texture, sp.NormalMap)
	}
	sources = append(sources, w.TreePrototypes...)
	sources = append(sources, w.DetailPrototypes...)

	registered := make([]string, 0, len(sources))
	for _, src := range sources {
		if src == "" {
			continue
		}
		a, created := w.cache.FindOrCreate(src, assets.DefaultLayer)
		if created {
			a.Type = assets.AssetTypeTerrain
			a.LoadLevel = assets.LoadLevelScriptDynamic
			a.CreateAtScene = w.SceneName
		}
		w.prototypes = append(w.prototypes, a)
		registered = append(registered, src)
		core.LogDebug("set load prototype:%s", src)
	}
	return registered
}

// Load queues the prototype and placed object assets and instantiates the
// objects whose asset is already loaded.
func (w *WorldManager) Load() {
	for _, a := range w.prototypes {
		w.queue.AddLoad(a)
	}
	w.each(func(obj *WorldObject) {
		if obj.Asset.IsLoaded() {
			w.instantiate(obj)
			return
		}
		w.queue.AddLoad(obj.Asset)
	})
	if err := w.queue.Start(); err != nil {
		core.LogError("world(%s): failed to start loading: %s", w.Name, err)
	}
}

func (w *WorldManager) OnAssetLoaded(a *assets.Asset) {
	w.each(func(obj *WorldObject) {
		if obj.Asset == a && !obj.Instantiated() {
			w.instantiate(obj)
		}
	})
}

func (w *WorldManager) Unload() {
	w.each(func(obj *WorldObject) {
		if obj.GameObject != nil {
			w.renderer.Destroy(obj.GameObject)
			obj.GameObject = nil
		}
		obj.Asset = nil
	})
	w.WorldObjs = make(map[ChunkIndex][]*WorldObject)
	w.prototypes = nil
	core.LogDebug("world(%s) unloaded", w.Name)
}

func (w *WorldManager) instantiate(obj *WorldObject) {
	gameObject, err := w.renderer.Instantiate(&obj.SceneObject)
	if err != nil {
		core.LogError("world(%s): failed to instantiate %s: %s", w.Name, obj.IDKey, err)
		return
	}
	obj.GameObject = gameObject
}

func (w *WorldManager) each(fn func(obj *WorldObject)) {
	for _, objs := range w.WorldObjs {
		for _, obj := range objs {
			if obj.Asset != nil {
				fn(obj)
			}
		}
	}
}
