//go:build mage
// +build mage

package main

import (
	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

var Default = Build

func Build() error {
	return sh.Run(mg.GoCmd(), "build", "./...")
}

func Test() error {
	args := []string{"test"}
	if mg.Verbose() {
		args = append(args, "-v")
	}
	args = append(args, "./...")
	return sh.Run(mg.GoCmd(), args...)
}

func Vet() error {
	return sh.Run(mg.GoCmd(), "vet", "./...")
}

// Wayback builds the wayback command.
func Wayback() error {
	return sh.Run(mg.GoCmd(), "build", "./cmd/wayback")
}
