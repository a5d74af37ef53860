// Package dockercli launches character instances through the docker CLI.
// Arguments are always built as an argv slice and handed to exec directly,
// never interpolated through a shell, so character names and env values
// cannot smuggle options or commands into the invocation.
package dockercli

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/personaforge/personaforge/internal/platform/logger"
)

// containerNamePattern matches what docker accepts for --name.
var containerNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

// Spec is the full launch specification for one character instance.
type Spec struct {
	Name       string            `json:"name"`
	Image      string            `json:"image"`
	Port       int               `json:"port"`
	HealthPort int               `json:"health_port"`
	Env        map[string]string `json:"env"`
}

// Runtime is the external container runtime boundary. The production
// implementation shells out to docker; tests substitute a fake.
type Runtime interface {
	Run(ctx context.Context, spec Spec) (containerID string, err error)
}

type CLI struct {
	log     *logger.Logger
	binary  string
	timeout time.Duration
}

func New(log *logger.Logger, binary string, timeout time.Duration) *CLI {
	if binary == "" {
		binary = "docker"
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &CLI{
		log:     log.With("service", "DockerCLI"),
		binary:  binary,
		timeout: timeout,
	}
}

// Args renders the argv slice for `docker run`. Env keys are emitted in
// sorted order so specs serialize deterministically.
func (s Spec) Args() []string {
	args := []string{
		"run", "-d",
		"--name", s.Name,
		"--restart", "unless-stopped",
		"-p", fmt.Sprintf("%d:%d", s.Port, s.HealthPort),
	}
	keys := make([]string, 0, len(s.Env))
	for k := range s.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", fmt.Sprintf("%s=%s", k, s.Env[k]))
	}
	return append(args, s.Image)
}

func (s Spec) validate() error {
	if s.Name == "" || !containerNamePattern.MatchString(s.Name) {
		return fmt.Errorf("invalid container name %q", s.Name)
	}
	if s.Image == "" {
		return fmt.Errorf("missing container image")
	}
	if s.Port <= 0 {
		return fmt.Errorf("invalid port %d", s.Port)
	}
	return nil
}

// Run blocks until docker returns or the timeout fires. Stderr is folded
// into the returned error so the deployer can persist a useful diagnostic.
func (c *CLI) Run(ctx context.Context, spec Spec) (string, error) {
	if err := spec.validate(); err != nil {
		return "", err
	}

	runCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	args := spec.Args()
	c.log.Info("Launching container", "name", spec.Name, "image", spec.Image, "port", spec.Port)

	cmd := exec.CommandContext(runCtx, c.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("container launch timed out after %s", c.timeout)
		}
		if stderr.Len() > 0 {
			return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(stderr.String()))
		}
		return "", err
	}
	return strings.TrimSpace(stdout.String()), nil
}
