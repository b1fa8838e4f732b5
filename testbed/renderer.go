package testbed

import (
	"fmt"

	"github.com/spaghettifunk/anima-scene/engine/core"
	"github.com/spaghettifunk/anima-scene/engine/math"
	"github.com/spaghettifunk/anima-scene/engine/scene"
)

type gameObject struct {
	ID        uint32
	Key       string
	Name      string
	Source    string
	Transform math.Transform
}

// Renderer keeps the objects it is asked to build in memory and logs every
// call. It stands in for a real renderer when running the testbed headless.
type Renderer struct {
	settings scene.RenderSettings
	live     map[uint32]*gameObject
	nextID   uint32
}

func NewRenderer() *Renderer {
	return &Renderer{live: make(map[uint32]*gameObject)}
}

func (r *Renderer) SetFogEnabled(enabled bool) {
	r.settings.Fog = enabled
}

func (r *Renderer) SetFogMode(mode scene.FogMode) {
	r.settings.FogMode = mode
}

func (r *Renderer) SetFogColor(color math.Color) {
	r.settings.FogColor = color
}

func (r *Renderer) SetFogDensity(density float32) {
	r.settings.FogDensity = density
}

func (r *Renderer) SetFogStartDistance(distance float32) {
	r.settings.FogStartDistance = distance
}

func (r *Renderer) SetFogEndDistance(distance float32) {
	r.settings.FogEndDistance = distance
}

func (r *Renderer) SetAmbientLight(color math.Color) {
	r.settings.AmbientLight = color
}

func (r *Renderer) SetHaloStrength(strength float32) {
	r.settings.HaloStrength = strength
}

func (r *Renderer) SetFlareStrength(strength float32) {
	r.settings.FlareStrength = strength
}

func (r *Renderer) Instantiate(obj *scene.SceneObject) (scene.GameObject, error) {
	if obj.Asset == nil || !obj.Asset.IsLoaded() {
		return nil, fmt.Errorf("sceneobject(%s) has no loaded asset", obj.IDKey)
	}
	r.nextID++
	g := &gameObject{
		ID:        r.nextID,
		Key:       obj.IDKey,
		Name:      obj.Name,
		Source:    obj.Asset.Source,
		Transform: obj.Transform,
	}
	r.live[g.ID] = g
	core.LogDebug("instantiate %s(%s) from %s (%s, %d bytes) at %+v",
		g.Name, g.Key, g.Source, obj.Asset.Bundle.ContentType, len(obj.Asset.Bundle.Data), g.Transform.Position)
	return g, nil
}

func (r *Renderer) Destroy(handle scene.GameObject) {
	g, ok := handle.(*gameObject)
	if !ok {
		core.LogError("wrong game object type %T", handle)
		return
	}
	delete(r.live, g.ID)
	core.LogDebug("destroy %s(%s)", g.Name, g.Key)
}

// Live returns the number of instantiated objects.
func (r *Renderer) Live() int {
	return len(r.live)
}

func (r *Renderer) Settings() scene.RenderSettings {
	return r.settings
}
