package version

import (
	"context"
	"io"
	"os/exec"
)

// Runner starts an external program and waits for it. Installers and the game itself go through it.
type Runner interface {
	Run(ctx context.Context, dir string, name string, args ...string) error
}

type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

func (r ExecRunner) Run(ctx context.Context, dir string, name string, args ...string) error {
	command := exec.CommandContext(ctx, name, args...) // #nosec G204 -- the binary is the managed JVM.
	command.Dir = dir
	command.Stdout = r.Stdout
	command.Stderr = r.Stderr
	return command.Run()
}
