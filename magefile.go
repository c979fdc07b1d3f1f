//go:build mage

package main

import (
	"fmt"
	"os"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const binary = "screentrans"

// Default target to run when none is specified
var Default = Build

// Build builds the screentrans binary
func Build() error {
	fmt.Println("Building", binary)
	return sh.RunV("go", "build", "-o", binary, "./cmd/screentrans")
}

// Install installs the binary into GOPATH/bin
func Install() error {
	return sh.RunV("go", "install", "./cmd/screentrans")
}

// Test runs all tests with the race detector
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// TestShort runs tests without the integration tests
func TestShort() error {
	env := map[string]string{
		"OPENAI_API_KEY":   "",
		"DEEPSEEK_API_KEY": "",
	}
	return sh.RunWithV(env, "go", "test", "-short", "./...")
}

// NoCGO runs the tests without Tesseract support
func NoCGO() error {
	return sh.RunWithV(map[string]string{"CGO_ENABLED": "0"}, "go", "test", "./...")
}

// Vet runs go vet
func Vet() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs vet and tests
func Check() {
	mg.SerialDeps(Vet, Test)
}

// Clean removes the built binary
func Clean() error {
	return os.RemoveAll(binary)
}
