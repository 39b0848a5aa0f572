//go:build !windows

package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "subsh.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestRunCapturesStdout(t *testing.T) {
	out, _, err := executeCommand(t, "run", "--capture", "stdout", "--", "sh", "-c", "echo hello")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out != "hello\n" {
		t.Fatalf("out = %q, want %q", out, "hello\n")
	}
}

func TestRunSingleArgumentIsParsedAsLine(t *testing.T) {
	out, _, err := executeCommand(t, "run", "--capture", "stdout", "printf 'a\\nb\\n' | grep b")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out != "b\n" {
		t.Fatalf("out = %q, want %q", out, "b\n")
	}
}

func TestRunArgsPreserveEmbeddedSpaces(t *testing.T) {
	out, _, err := executeCommand(t, "run", "--capture", "stdout", "--", "echo", "hello world")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out != "hello world\n" {
		t.Fatalf("out = %q, want %q", out, "hello world\n")
	}
}

func TestRunPipelineFromSplitArgs(t *testing.T) {
	out, _, err := executeCommand(t, "run", "--capture", "stdout", "--",
		"sh", "-c", "printf 'one\\ntwo\\n'", "|", "grep", "two")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out != "two\n" {
		t.Fatalf("out = %q, want %q", out, "two\n")
	}
}

func TestRunBackgroundFlagDetaches(t *testing.T) {
	out, _, err := executeCommand(t, "run", "--capture", "object", "--background", "--", "sh", "-c", "echo bg")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out != "bg\n" {
		t.Fatalf("out = %q, want %q", out, "bg\n")
	}
}

func TestRunObjectModeReportsFailure(t *testing.T) {
	_, _, err := executeCommand(t, "run", "--capture", "object", "--", "sh", "-c", "exit 7")
	if err == nil {
		t.Fatal("expected pipeline failure")
	}
	if !strings.Contains(err.Error(), "7") {
		t.Fatalf("error = %v, want exit status 7", err)
	}
}

func TestRunRejectsUnknownCaptureMode(t *testing.T) {
	_, _, err := executeCommand(t, "run", "--capture", "sideways", "--", "echo", "hi")
	if err == nil || !strings.Contains(err.Error(), "sideways") {
		t.Fatalf("error = %v, want unknown capture mode", err)
	}
}

func TestRunUsesConfiguredAliases(t *testing.T) {
	cfg := writeConfig(t, "aliases:\n  shout: \"sh -c\"\n")
	out, _, err := executeCommand(t, "--config", cfg, "run", "--capture", "stdout", "--", "shout", "echo hi")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if out != "hi\n" {
		t.Fatalf("out = %q, want %q", out, "hi\n")
	}
}

func TestAliasesListsBindings(t *testing.T) {
	cfg := writeConfig(t, `
aliases:
  ll: "ls -l"
  gco: ["git", "checkout"]
  unthreadable:
    modifier:
      threadable: false
`)
	out, _, err := executeCommand(t, "--config", cfg, "aliases")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, want := range []string{"ll", "command", "ls -l", "gco", "tokens", "git checkout", "unthreadable", "modifier", "threadable=false"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}

func TestAliasesEmptyRegistry(t *testing.T) {
	out, _, err := executeCommand(t, "aliases")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "no aliases configured") {
		t.Fatalf("output = %q", out)
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := writeConfig(t, "version: \"1\"\n")
	out, _, err := executeCommand(t, "config", "validate", cfg)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "OK") {
		t.Fatalf("output = %q", out)
	}

	bad := writeConfig(t, "version: \"9\"\n")
	if _, _, err := executeCommand(t, "config", "validate", bad); err == nil {
		t.Fatal("expected validation failure")
	}
}

func TestConfigShowReportsPolicy(t *testing.T) {
	cfg := writeConfig(t, `
settings:
  raiseSubprocError: true
  subprocOutputFormat: list_lines
`)
	out, _, err := executeCommand(t, "--config", cfg, "config", "show")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	for _, want := range []string{"threadSubprocs: true", "raiseSubprocError: true", "subprocOutputFormat: list_lines"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}

func TestExitCodeMapping(t *testing.T) {
	if got := exitCode(3); got != 3 {
		t.Fatalf("exitCode(3) = %d", got)
	}
	if got := exitCode(-2); got != 130 {
		t.Fatalf("exitCode(-2) = %d, want 130", got)
	}
}

func TestMissingConfigFileFails(t *testing.T) {
	_, _, err := executeCommand(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "aliases")
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}
