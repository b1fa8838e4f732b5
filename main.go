/*
Host binary for the scene subsystem: loads the TOML configuration, builds
the engine around the headless testbed game and runs it until interrupted.
*/
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/anima-scene/engine"
	"github.com/spaghettifunk/anima-scene/engine/config"
	"github.com/spaghettifunk/anima-scene/engine/core"
	"github.com/spaghettifunk/anima-scene/testbed"
)

func main() {
	app := &engine.ApplicationConfig{Name: "Anima Scene Testbed", ShowProgress: true}
	flag.StringVar(&app.ConfigPath, "config", "", "path of the TOML configuration file")
	flag.StringVar(&app.StartScene, "scene", "", "scene to load on start (overrides scenes.start)")
	flag.StringVar(&app.LogLevel, "log-level", "", "log level (overrides log.level)")
	flag.Parse()

	cfg := config.Default()
	if app.ConfigPath != "" {
		var err error
		if cfg, err = config.Load(app.ConfigPath); err != nil {
			core.LogFatal("failed to load configuration: %s", err)
		}
	}

	tb := testbed.NewTestGame(app)

	e, err := engine.New(tb.Game, cfg, tb.Renderer)
	if err != nil {
		core.LogFatal(err.Error())
	}

	// signal channel to capture system calls
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := e.Initialize(ctx); err != nil {
		core.LogFatal(err.Error())
	}

	// run engine
	runErr := e.Run(ctx)
	if err := e.Shutdown(); err != nil {
		core.LogError("shutdown: %s", err)
	}
	if runErr != nil {
		core.LogFatal(runErr.Error())
	}
}
