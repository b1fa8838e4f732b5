package engine

type Game struct {
	ApplicationConfig *ApplicationConfig
	// Set by engine.New.
	Engine           *Engine
	State            interface{}
	FnInitialize     Initialize
	FnUpdate         Update
	FnOnSceneCreated OnSceneCreated
	FnShutdown       Shutdown
}

type Initialize func() error
type Update func(deltaTime float64) error
type OnSceneCreated func(sceneName string) error
type Shutdown func() error
