package scene

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/anima-scene/engine/assets"
	"github.com/spaghettifunk/anima-scene/engine/core"
)

/**
 * @brief ObjectRegistry maps object keys to the live objects of one scene,
 * plus the persisted objects that outlive Unload because their asset is
 * FORBID_GAMEOBJECT.
 */
type ObjectRegistry struct {
	renderer  Renderer
	objs      map[string]*SceneObject
	persisted map[string]*SceneObject
}

func NewObjectRegistry(renderer Renderer) *ObjectRegistry {
	return &ObjectRegistry{
		renderer:  renderer,
		objs:      make(map[string]*SceneObject),
		persisted: make(map[string]*SceneObject),
	}
}

// Add registers obj under key, removing whatever was there first.
func (r *ObjectRegistry) Add(key string, obj *SceneObject) {
	if cur, ok := r.objs[key]; ok {
		if cur == obj {
			return
		}
		_ = r.Remove(key)
	}
	r.objs[key] = obj
}

/**
 * @brief Destroys the representation of the object under key, drops its
 * ref on the asset and forgets it, live or persisted.
 * @returns ErrMissingObject when nothing is registered under key.
 */
func (r *ObjectRegistry) Remove(key string) error {
	obj, live := r.objs[key]
	p, persisted := r.persisted[key]
	if !live && !persisted {
		core.LogError("Scene::removeSceneObject: not found sceneObject(%s)!", key)
		return fmt.Errorf("%w: %s", core.ErrMissingObject, key)
	}

	if live {
		r.destroy(obj)
		core.LogDebug("Scene::removeSceneObject: destroyed sceneobject(%s) successfully!", obj.IDKey)
		r.release(key, obj)
		delete(r.objs, key)
	}
	if persisted {
		if p != obj {
			r.destroy(p)
			core.LogDebug("Scene::removeSceneObject: destroyed persisted sceneobject(%s) successfully!", p.IDKey)
			r.release(key, p)
		}
		delete(r.persisted, key)
	}
	return nil
}

// adopt moves a persisted object back into the live registry without
// touching its representation. It stays in the persisted set.
func (r *ObjectRegistry) adopt(key string) (*SceneObject, bool) {
	p, ok := r.persisted[key]
	if !ok {
		return nil, false
	}
	if cur, ok := r.objs[key]; ok && cur != p {
		_ = r.Remove(key)
	}
	r.objs[key] = p
	return p, true
}

// UnloadAll empties the live registry. Objects whose asset is
// FORBID_GAMEOBJECT move to the persisted set; the rest are destroyed.
func (r *ObjectRegistry) UnloadAll() {
	for _, key := range r.Keys() {
		obj := r.objs[key]
		if obj.Asset != nil && obj.Asset.UnloadLevel == assets.UnloadLevelForbidGameObject {
			core.LogDebug("SceneObject(%s) is persisted!", obj.Asset.Source)
			if _, ok := r.persisted[key]; !ok {
				r.persisted[key] = obj
			} else {
				core.LogDebug("SceneObject(%s) is exist!", obj.Asset.Source)
			}
			continue
		}

		// the asset itself is only evicted once the next scene is built
		// and turns out not to reference it
		r.destroy(obj)
		core.LogDebug("destroyed sceneobject(%s) successfully!", obj.Name)
		r.release(key, obj)
	}
	r.objs = make(map[string]*SceneObject)
}

func (r *ObjectRegistry) destroy(obj *SceneObject) {
	if obj.GameObject != nil {
		r.renderer.Destroy(obj.GameObject)
		obj.GameObject = nil
	}
}

func (r *ObjectRegistry) release(key string, obj *SceneObject) {
	if obj.Asset != nil {
		obj.Asset.RemoveRef(key)
		obj.Asset = nil
	}
}

func (r *ObjectRegistry) Get(key string) (*SceneObject, bool) {
	obj, ok := r.objs[key]
	return obj, ok
}

func (r *ObjectRegistry) Persisted(key string) (*SceneObject, bool) {
	obj, ok := r.persisted[key]
	return obj, ok
}

func (r *ObjectRegistry) Len() int {
	return len(r.objs)
}

func (r *ObjectRegistry) PersistedLen() int {
	return len(r.persisted)
}

// Keys returns the live keys in sorted order.
func (r *ObjectRegistry) Keys() []string {
	keys := make([]string, 0, len(r.objs))
	for k := range r.objs {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Pending returns the live objects built from a that still wait for it.
func (r *ObjectRegistry) Pending(a *assets.Asset) []*SceneObject {
	var out []*SceneObject
	for _, key := range r.Keys() {
		obj := r.objs[key]
		if obj.Asset == a && !obj.Instantiated() {
			out = append(out, obj)
		}
	}
	return out
}
