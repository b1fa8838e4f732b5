//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the testbed with config.toml, loading the harbor scene.
func (Run) Engine() error {
	fmt.Println("Run engine...")
	if _, err := executeCmd("go", withArgs("run", "main.go", "-config", "config.toml", "-scene", "harbor"), withStream()); err != nil {
		return err
	}
	return nil
}
