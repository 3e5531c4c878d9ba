// Package shell provides a transformer that pipes module content through an
// external command.
package shell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.trai.ch/knit/internal/core/domain"
	"go.trai.ch/knit/internal/core/ports"
	"go.trai.ch/zerr"
)

// PathPlaceholder is replaced by the quoted module path in the command line.
const PathPlaceholder = "{path}"

// Transformer implements ports.Transformer by running a shell command with the
// module content on stdin and reading the replacement content from stdout.
type Transformer struct {
	command string
	dir     string
	logger  ports.Logger
}

// NewTransformer creates a Transformer running command from dir.
func NewTransformer(command, dir string, logger ports.Logger) *Transformer {
	return &Transformer{
		command: command,
		dir:     dir,
		logger:  logger,
	}
}

// Transform runs the command for one module.
// The environment is the process environment plus KNIT_MODULE and KNIT_KIND.
// Empty output from a successful command leaves the content unchanged.
func (t *Transformer) Transform(
	ctx context.Context,
	id domain.ModuleID,
	kind domain.FileKind,
	content string,
) (string, error) {
	if strings.TrimSpace(t.command) == "" {
		return content, nil
	}

	cmdEnv := resolveEnvironment(os.Environ(), map[string]string{
		"KNIT_MODULE": id.String(),
		"KNIT_KIND":   string(kind),
	})

	shell := "sh"
	if lp, err := lookPath(shell, cmdEnv); err == nil {
		shell = lp
	}

	line := strings.ReplaceAll(t.command, PathPlaceholder, quote(id.String()))
	cmd := exec.CommandContext(ctx, shell, "-c", line) //nolint:gosec // user provided command
	if len(cmd.Args) > 0 {
		cmd.Args[0] = "sh"
	}
	if t.dir != "" {
		cmd.Dir = t.dir
	}
	cmd.Env = cmdEnv
	cmd.Stdin = strings.NewReader(content)

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if v, ok := ports.VertexFromContext(ctx); ok {
		cmd.Stderr = v.Stderr()
	} else {
		cmd.Stderr = &logWriter{logger: t.logger, module: id.String()}
	}

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return "", zerr.With(zerr.Wrap(err, "command failed"), "exit_code", exitCode)
	}

	if stdout.Len() == 0 {
		return content, nil
	}
	return stdout.String(), nil
}

// logWriter forwards command stderr to the logger, one warning per line.
type logWriter struct {
	logger ports.Logger
	module string
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	lines := strings.Split(strings.TrimSuffix(string(p), "\n"), "\n")
	for _, line := range lines {
		if line == "" {
			continue
		}
		w.logger.Warn(line, "module", w.module)
	}
	return len(p), nil
}

// quote wraps s in single quotes for sh.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// resolveEnvironment overlays extra on the system environment.
func resolveEnvironment(sysEnv []string, extra map[string]string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(extra))
	order := make([]string, 0, len(sysEnv)+len(extra))
	for _, entry := range sysEnv {
		k, v, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		if _, seen := envMap[k]; !seen {
			order = append(order, k)
		}
		envMap[k] = v
	}
	for k, v := range extra {
		if _, seen := envMap[k]; !seen {
			order = append(order, k)
		}
		envMap[k] = v
	}

	result := make([]string, 0, len(order))
	for _, k := range order {
		result = append(result, k+"="+envMap[k])
	}
	return result
}

// lookPath searches for an executable in the directories named by the PATH entry of env.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if after, ok := strings.CutPrefix(e, "PATH="); ok {
			path = after
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		candidate := filepath.Join(dir, file)
		if err := findExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
