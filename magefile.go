//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binaryName = "mine"
	binDir     = "bin"
)

// Default target builds the binary.
var Default = Build

// Build compiles the mine binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o750); err != nil {
		return fmt.Errorf("create bin dir: %w", err)
	}

	return sh.RunV("go", "build", "-o", binDir+"/"+binaryName, ".")
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Lint runs go vet and golangci-lint when it is installed.
func Lint() error {
	if err := sh.RunV("go", "vet", "./..."); err != nil {
		return fmt.Errorf("vet failed: %w", err)
	}

	if _, err := sh.Exec(nil, os.Stdout, os.Stderr, "golangci-lint", "version"); err != nil {
		fmt.Fprintln(os.Stderr, "golangci-lint not found, skipping")
		return nil
	}

	return sh.RunV("golangci-lint", "run", "./...")
}

// Check runs lint and tests.
func Check() {
	mg.SerialDeps(Lint, Test)
}

// Clean removes build artifacts and the default log file.
func Clean() error {
	for _, path := range []string{binDir, ".reportminer.log"} {
		if err := sh.Rm(path); err != nil {
			return fmt.Errorf("remove %s: %w", path, err)
		}
	}

	return nil
}
