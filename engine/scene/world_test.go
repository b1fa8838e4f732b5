package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/anima-scene/engine/assets"
	"github.com/spaghettifunk/anima-scene/engine/math"
)

func TestCalcAtChunk(t *testing.T) {
	for _, tc := range []struct {
		x, z float32
		want ChunkPos
	}{
		{15, 25, ChunkPos{X: 1, Y: 2}},
		{0, 0, ChunkPos{X: 0, Y: 0}},
		{29.9, 10, ChunkPos{X: 2, Y: 1}},
		{-5, 400, ChunkPos{X: 0, Y: 2}},
	} {
		assert.Equal(t, tc.want, CalcAtChunk(tc.x, tc.z, 3, 10), "(%v, %v)", tc.x, tc.z)
	}
	assert.Equal(t, ChunkPos{}, CalcAtChunk(15, 25, 0, 10))
}

func TestWorldManagerLifecycle(t *testing.T) {
	cache := assets.NewAssetCache(nil)
	queue := &recordingQueue{}
	renderer := newRecordingRenderer()
	wm := NewWorldManager("island", "harbor", cache, queue, renderer)
	wm.SetTerrain(TerrainEntry{Name: "ground", Size: math.NewVec3(40, 1, 40), SplitSize: 4, TreePrototypes: []string{"pine.prefab"}})
	assert.Equal(t, []string{"pine.prefab"}, wm.CreateWorldObjs())

	loaded, _ := cache.FindOrCreate("house.bundle", "")
	loaded.Bundle = &assets.Bundle{Source: "house.bundle"}
	pending, _ := cache.FindOrCreate("hut.bundle", "")

	house := &WorldObject{SceneObject: SceneObject{IDKey: "h1", Asset: loaded}}
	hut := &WorldObject{SceneObject: SceneObject{IDKey: "h2", Asset: pending}}
	wm.Place(ChunkPos{X: 1, Y: 1}, house)
	wm.Place(ChunkPos{X: 3, Y: 0}, hut)
	wm.Load()

	assert.Equal(t, []string{"h1"}, renderer.instantiated)
	assert.ElementsMatch(t, []string{"pine.prefab", "hut.bundle"}, queue.added)
	assert.Equal(t, 1, queue.starts)
	assert.Equal(t, ChunkPos{X: 3, Y: 0}, hut.Chunk)

	pine, ok := cache.Lookup("pine.prefab")
	require.True(t, ok)
	assert.Equal(t, "harbor", pine.CreateAtScene)

	pending.Bundle = &assets.Bundle{Source: "hut.bundle"}
	wm.OnAssetLoaded(pending)
	assert.ElementsMatch(t, []string{"h1", "h2"}, renderer.instantiated)

	wm.Unload()
	assert.ElementsMatch(t, []string{"go:h1", "go:h2"}, renderer.destroyed)
	assert.Empty(t, wm.Objects(ChunkPos{X: 1, Y: 1}))
	assert.Nil(t, house.Asset)
}
