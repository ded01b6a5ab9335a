//go:build mage

package main

import (
	"github.com/magefile/mage/mg"
)

type Build mg.Namespace

// Tidies the module and builds the binary into bin/.
func (Build) Binary() error {
	mg.Deps(goTidy)
	if _, err := executeCmd("go", withArgs("build", "-o", "bin/anima-descriptors", "."), withStream()); err != nil {
		return err
	}
	return nil
}

// Builds the binary with the release tag, which turns off pool usage validation.
func (Build) Release() error {
	mg.Deps(goTidy)
	if _, err := executeCmd("go", withArgs("build", "-tags", "release", "-o", "bin/anima-descriptors", "."), withStream()); err != nil {
		return err
	}
	return nil
}
