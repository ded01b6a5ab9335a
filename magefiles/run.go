//go:build mage

package main

import (
	"fmt"

	"github.com/magefile/mage/mg"
)

type Run mg.Namespace

// Runs the headless frame-loop simulation with the default configuration.
func (Run) Simulate() error {
	fmt.Println("Run simulation...")
	if _, err := executeCmd("go", withArgs("run", ".", "simulate"), withStream()); err != nil {
		return err
	}
	return nil
}

// Runs the simulation with CPU profiling enabled.
func (Run) Profile() error {
	fmt.Println("Run simulation with CPU profiling...")
	if _, err := executeCmd("go", withArgs("run", ".", "simulate", "--cpu"), withStream()); err != nil {
		return err
	}
	return nil
}
