package dockercli

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/personaforge/personaforge/internal/platform/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}
	return log
}

func TestSpecArgs(t *testing.T) {
	spec := Spec{
		Name:       "nova-bot",
		Image:      "personaforge/character-instance:latest",
		Port:       9090,
		HealthPort: 8080,
		Env: map[string]string{
			"BOT_NAME":     "Nova",
			"LLM_MODEL":    "llama3.1",
			"CHARACTER_ID": "1",
		},
	}
	args := spec.Args()

	joined := strings.Join(args, " ")
	if !strings.HasPrefix(joined, "run -d --name nova-bot") {
		t.Fatalf("unexpected prefix: %s", joined)
	}
	if !strings.Contains(joined, "-p 9090:8080") {
		t.Fatalf("missing port mapping: %s", joined)
	}
	if args[len(args)-1] != spec.Image {
		t.Fatalf("image must be the final argument, got %s", args[len(args)-1])
	}

	// Env keys are sorted, so the rendering is deterministic.
	idxBot := strings.Index(joined, "BOT_NAME=Nova")
	idxChar := strings.Index(joined, "CHARACTER_ID=1")
	idxModel := strings.Index(joined, "LLM_MODEL=llama3.1")
	if idxBot == -1 || idxChar == -1 || idxModel == -1 {
		t.Fatalf("missing env entries: %s", joined)
	}
	if !(idxBot < idxChar && idxChar < idxModel) {
		t.Fatalf("env entries not sorted: %s", joined)
	}
}

func TestRunRejectsBadNames(t *testing.T) {
	cli := New(testLogger(t), "docker", time.Minute)
	bad := []string{
		"",
		"-leading-dash",
		"nova bot",
		"nova;rm -rf /",
		"nova$(whoami)",
	}
	for _, name := range bad {
		spec := Spec{Name: name, Image: "img", Port: 9090, HealthPort: 8080}
		if _, err := cli.Run(context.Background(), spec); err == nil {
			t.Fatalf("expected rejection for name %q", name)
		}
	}
}

func TestRunRejectsMissingImage(t *testing.T) {
	cli := New(testLogger(t), "docker", time.Minute)
	spec := Spec{Name: "nova-bot", Port: 9090, HealthPort: 8080}
	if _, err := cli.Run(context.Background(), spec); err == nil {
		t.Fatalf("expected rejection for missing image")
	}
}

// Uses echo as a stand-in binary: the adapter only cares about exit status
// and captured output.
func TestRunCapturesStdout(t *testing.T) {
	cli := New(testLogger(t), "echo", time.Minute)
	spec := Spec{Name: "nova-bot", Image: "img", Port: 9090, HealthPort: 8080}
	out, err := cli.Run(context.Background(), spec)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "nova-bot") {
		t.Fatalf("expected echoed args, got %q", out)
	}
}

func TestRunReportsFailure(t *testing.T) {
	cli := New(testLogger(t), "false", time.Minute)
	spec := Spec{Name: "nova-bot", Image: "img", Port: 9090, HealthPort: 8080}
	if _, err := cli.Run(context.Background(), spec); err == nil {
		t.Fatalf("expected failure from non-zero exit")
	}
}
