package testbed

import (
	"fmt"

	"github.com/spaghettifunk/anima-scene/engine"
	"github.com/spaghettifunk/anima-scene/engine/core"
)

type TestGame struct {
	*engine.Game
	Renderer *Renderer
}

type gameState struct {
	elapsed       float64
	lastReport    float64
	scenesCreated []string
}

func NewTestGame(app *engine.ApplicationConfig) *TestGame {
	if app == nil {
		app = &engine.ApplicationConfig{Name: "Anima Scene Testbed"}
	}
	tg := &TestGame{
		Game: &engine.Game{
			ApplicationConfig: app,
			State:             &gameState{},
		},
		Renderer: NewRenderer(),
	}

	tg.FnInitialize = tg.Initialize
	tg.FnUpdate = tg.Update
	tg.FnOnSceneCreated = tg.OnSceneCreated
	tg.FnShutdown = tg.Shutdown

	return tg
}

func (g *TestGame) Initialize() error {
	core.LogDebug("TestGame Initialize fn....")
	if g.Engine == nil {
		return fmt.Errorf("the engine is not yet initialized")
	}
	return nil
}

// Update reports the loading bar about once per second.
func (g *TestGame) Update(deltaTime float64) error {
	state := g.State.(*gameState)
	state.elapsed += deltaTime

	progress := g.Engine.Progress()
	if progress.InProgress() && state.elapsed-state.lastReport >= 1 {
		state.lastReport = state.elapsed
		core.LogInfo("loading %d/%d (%.0f%%)", progress.Current, progress.MaxValue, progress.Fraction()*100)
	}
	return nil
}

func (g *TestGame) OnSceneCreated(sceneName string) error {
	state := g.State.(*gameState)
	state.scenesCreated = append(state.scenesCreated, sceneName)

	s := g.Engine.Scene(sceneName)
	core.LogInfo("scene(%s): %d objects, %d persisted, %d live, fog %s",
		sceneName, s.Objects().Len(), s.Objects().PersistedLen(), g.Renderer.Live(), g.Renderer.Settings().FogMode)
	return nil
}

// ScenesCreated returns the scenes created so far, in order.
func (g *TestGame) ScenesCreated() []string {
	return g.State.(*gameState).scenesCreated
}

func (g *TestGame) Shutdown() error {
	core.LogDebug("TestGame Shutdown fn....")
	return nil
}
