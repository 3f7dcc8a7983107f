package internal

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/k1LoW/exec"
)

// Viewer displays a saved image.
type Viewer interface {
	View(ctx context.Context, path string) error
}

// ExecViewer runs an external terminal image viewer, such as viu, with the
// image path as its final argument.
type ExecViewer struct {
	Command string
}

func (v *ExecViewer) View(ctx context.Context, path string) error {
	fields := strings.Fields(v.Command)
	if len(fields) == 0 {
		return errors.New("no viewer command configured")
	}

	args := append(fields[1:], path)
	cmd := exec.CommandContext(ctx, fields[0], args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to run viewer %s: %w", fields[0], err)
	}
	return nil
}
