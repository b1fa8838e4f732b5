package scene

import (
	"github.com/spaghettifunk/anima-scene/engine/assets"
	"github.com/spaghettifunk/anima-scene/engine/math"
)

/**
 * @brief SceneObject is an object placed in a scene. It owns its in-world
 * representation (GameObject) and points at, without owning, the asset it
 * is built from. While pending it holds one ref on that asset under IDKey.
 */
type SceneObject struct {
	IDKey     string
	Name      string
	Transform math.Transform

	GameObject GameObject
	Asset      *assets.Asset
}

func (o *SceneObject) Instantiated() bool {
	return o.GameObject != nil
}

// WorldObject is a scene object placed in a world chunk.
type WorldObject struct {
	SceneObject
	Chunk ChunkPos
}
