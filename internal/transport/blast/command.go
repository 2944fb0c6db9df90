// Package blast runs the NCBI BLAST+ command line tools.
package blast

import (
	"context"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
)

// Command runs an external program to completion.
type Command func(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error

func execCommand(ctx context.Context, name string, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run() //nolint:wrapcheck // callers wrap with tool context
}

// binary resolves a tool name against an optional install directory.
func binary(binDir, name string) string {
	if binDir == "" {
		return name
	}
	return filepath.Join(binDir, name)
}

// LookPath reports whether the named tool can be executed.
func LookPath(binDir, name string) (string, error) {
	return exec.LookPath(binary(binDir, name)) //nolint:wrapcheck // health reports the raw reason
}

// maxStderr bounds the stderr excerpt carried in errors.
const maxStderr = 512

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxStderr {
		s = s[:maxStderr] + "..."
	}
	return s
}
