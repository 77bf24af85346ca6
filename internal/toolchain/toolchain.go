// Package toolchain wraps the external compiler and archiver processes.
package toolchain

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Toolchain names the external compiler and archiver binaries.
type Toolchain struct {
	CC string
	AR string
}

// Default returns the platform-default toolchain: gcc/ar on linux,
// clang on darwin, gcc.exe/ar.exe on windows.
func Default() Toolchain {
	tc := Toolchain{CC: "gcc", AR: "ar"}
	switch runtime.GOOS {
	case "windows":
		tc.CC = "gcc.exe"
		tc.AR = "ar.exe"
	case "darwin":
		tc.CC = "clang"
	}
	return tc
}

// WithOverrides replaces the compiler or archiver when the project manifest
// names one; empty overrides keep the platform default.
func (tc Toolchain) WithOverrides(cc, ar string) Toolchain {
	if cc != "" {
		tc.CC = cc
	}
	if ar != "" {
		tc.AR = ar
	}
	return tc
}

// Run invokes an external tool and blocks until it exits. On nonzero exit
// the returned error carries the captured stderr; deciding whether that is
// fatal belongs to the caller.
func Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return fmt.Errorf("%s: %w", name, err)
		}
		return fmt.Errorf("%s: %s", name, msg)
	}
	return nil
}

// Check verifies both tools resolve before any stage runs, so a missing
// compiler surfaces as one clear error instead of a per-source failure.
func (tc Toolchain) Check() error {
	if err := LookPath(tc.CC); err != nil {
		return err
	}
	return LookPath(tc.AR)
}

// LookPath reports whether the named tool is resolvable on PATH.
func LookPath(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%s not found on PATH: %w", name, err)
	}
	return nil
}
