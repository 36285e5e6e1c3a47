package svn

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/thomas-vilte/svnreview/internal/logger"
)

// Command is one svn subcommand invocation against a repository URL.
type Command struct {
	Name string
	URL  string
	Args []string
}

func (c Command) String() string {
	return strings.TrimSpace(fmt.Sprintf("svn %s %s %s", c.Name, strings.Join(c.Args, " "), c.URL))
}

// Executor runs svn commands. Implementations return the raw stdout on success and an
// error whose text describes the failure otherwise.
type Executor interface {
	Execute(ctx context.Context, cmd Command) ([]byte, error)
}

// CLIExecutor shells out to the svn binary.
type CLIExecutor struct {
	Binary   string
	Username string
	Password string
}

func NewCLIExecutor(binary, username, password string) *CLIExecutor {
	if binary == "" {
		binary = "svn"
	}
	return &CLIExecutor{Binary: binary, Username: username, Password: password}
}

func (e *CLIExecutor) Execute(ctx context.Context, cmd Command) ([]byte, error) {
	args := append([]string{cmd.Name, "--non-interactive"}, cmd.Args...)
	if e.Username != "" && e.Password != "" {
		args = append(args, "--username", e.Username, "--password", e.Password, "--no-auth-cache")
	}
	if cmd.URL != "" {
		args = append(args, cmd.URL)
	}

	logger.Debug(ctx, "running svn command", "command", cmd.String())

	c := exec.CommandContext(ctx, e.Binary, args...)
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	if err := c.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		var exitErr *exec.ExitError
		if msg == "" || !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("svn %s: %w", cmd.Name, err)
		}
		return nil, fmt.Errorf("svn %s: %s", cmd.Name, msg)
	}

	return stdout.Bytes(), nil
}
