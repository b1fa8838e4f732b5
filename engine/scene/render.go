package scene

import (
	"github.com/spaghettifunk/anima-scene/engine/core"
	"github.com/spaghettifunk/anima-scene/engine/math"
)

type FogMode int

const (
	FogModeLinear FogMode = iota + 1
	FogModeExponential
	FogModeExponentialSquared
)

// FogModeFromCode maps the description's fogMode code. Unknown codes fall
// back to linear fog.
func FogModeFromCode(code int) FogMode {
	switch code {
	case 2:
		return FogModeExponential
	case 3:
		return FogModeExponentialSquared
	default:
		return FogModeLinear
	}
}

func (m FogMode) String() string {
	switch m {
	case FogModeExponential:
		return "Exponential"
	case FogModeExponentialSquared:
		return "ExponentialSquared"
	default:
		return "Linear"
	}
}

// RenderSettings is the render configuration a scene applies on Create.
type RenderSettings struct {
	Fog              bool
	FogMode          FogMode
	FogDensity       float32
	FogStartDistance float32
	FogEndDistance   float32
	FogColor         math.Color
	AmbientLight     math.Color
	HaloStrength     float32
	FlareStrength    float32
	SkyboxName       string
}

// GameObject is the renderer's handle for an instantiated scene object.
type GameObject interface{}

/**
 * @brief Renderer is the engine side the scene drives: global render
 * settings plus creation and destruction of object representations.
 */
type Renderer interface {
	SetFogEnabled(enabled bool)
	SetFogMode(mode FogMode)
	SetFogColor(color math.Color)
	SetFogDensity(density float32)
	SetFogStartDistance(distance float32)
	SetFogEndDistance(distance float32)
	SetAmbientLight(color math.Color)
	SetHaloStrength(strength float32)
	SetFlareStrength(strength float32)

	Instantiate(obj *SceneObject) (GameObject, error)
	Destroy(gameObject GameObject)
}

func ApplyRenderSettings(r Renderer, rs RenderSettings) {
	r.SetFogEnabled(rs.Fog)
	r.SetAmbientLight(rs.AmbientLight)
	r.SetFogColor(rs.FogColor)
	r.SetFogDensity(rs.FogDensity)
	r.SetFogStartDistance(rs.FogStartDistance)
	r.SetFogEndDistance(rs.FogEndDistance)
	r.SetFogMode(rs.FogMode)
	r.SetHaloStrength(rs.HaloStrength)
	r.SetFlareStrength(rs.FlareStrength)

	core.LogDebug("RenderSettings.fog=%v", rs.Fog)
	core.LogDebug("RenderSettings.ambientLight=%+v", rs.AmbientLight)
	core.LogDebug("RenderSettings.fogColor=%+v", rs.FogColor)
	core.LogDebug("RenderSettings.fogDensity=%v", rs.FogDensity)
	core.LogDebug("RenderSettings.fogStartDistance=%v", rs.FogStartDistance)
	core.LogDebug("RenderSettings.fogEndDistance=%v", rs.FogEndDistance)
	core.LogDebug("RenderSettings.fogMode=%s", rs.FogMode)
	core.LogDebug("RenderSettings.haloStrength=%v", rs.HaloStrength)
	core.LogDebug("RenderSettings.flareStrength=%v", rs.FlareStrength)
	core.LogDebug("RenderSettings.skybox=%s", rs.SkyboxName)
}
