//go:build mage
// +build mage

package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

// Default target to run when none is specified.
var Default = Build

// Build compiles both binaries into ./bin.
func Build() error {
	mg.Deps(BuildScan, BuildMerge)
	fmt.Println("Compilation finished")
	return nil
}

// BuildScan builds the effscan executable.
func BuildScan() error {
	return goBuild("effscan")
}

// BuildMerge builds the effmerge executable.
func BuildMerge() error {
	return goBuild("effmerge")
}

func goBuild(name string) error {
	fmt.Printf("Building %s executable...\n", name)
	cmd := exec.Command("go", "build", "-o", "./bin/"+name, "./cmd/"+name)
	cmd.Env = append(os.Environ(), "CGO_ENABLED=0")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// Test runs every package test with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Lint runs go vet.
func Lint() error {
	return sh.RunV("go", "vet", "./...")
}

// Clean removes build output.
func Clean() error {
	return os.RemoveAll("bin")
}
