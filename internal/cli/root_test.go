package cli

import (
	"bytes"
	"strings"
	"testing"
)

// executeCommand runs a command with the given args and captures output.
func executeCommand(args ...string) (string, error) {
	root := NewRootCmd()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestRootHelp(t *testing.T) {
	_, err := executeCommand("--help")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGlobalFlags(t *testing.T) {
	root := NewRootCmd()

	formatFlag := root.PersistentFlags().Lookup("format")
	if formatFlag == nil {
		t.Fatal("expected --format flag to exist")
	}
	if formatFlag.DefValue != "text" {
		t.Errorf("expected --format default 'text', got %q", formatFlag.DefValue)
	}

	dbFlag := root.PersistentFlags().Lookup("db")
	if dbFlag == nil {
		t.Fatal("expected --db flag to exist")
	}
}

func TestVersion(t *testing.T) {
	out, err := executeCommand("version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.TrimSpace(out) != "rw dev" {
		t.Errorf("output = %q", out)
	}
}

func TestVisitHasEveryAction(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"request", "show", "confirm", "cancel", "complete", "delete"} {
		cmd, _, err := root.Find([]string{"visit", name})
		if err != nil || cmd.Name() != name {
			t.Errorf("visit %s not found (got %v, %v)", name, cmd, err)
		}
	}
}

func TestArgValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"message no args", []string{"message"}},
		{"message no text", []string{"message", "1"}},
		{"message bad id", []string{"message", "abc", "hello"}},
		{"reply no text", []string{"reply", "1"}},
		{"reply zero id", []string{"reply", "0", "hi"}},
		{"thread no id", []string{"thread"}},
		{"thread bad id", []string{"thread", "x"}},
		{"visit request one arg", []string{"visit", "request", "1"}},
		{"visit confirm no id", []string{"visit", "confirm"}},
		{"visit cancel bad id", []string{"visit", "cancel", "-4"}},
		{"visits extra arg", []string{"visits", "1"}},
		{"property show no id", []string{"property", "show"}},
		{"key delete bad id", []string{"key", "delete", "abc"}},
		{"admin user add no email", []string{"admin", "user", "add"}},
		{"admin property no owner", []string{"admin", "property", "add", "Loft"}},
		{"admin property status one arg", []string{"admin", "property", "status", "1"}},
		{"serve extra arg", []string{"serve", "extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("RW_SERVER_URL", "http://127.0.0.1:1")
			_, err := executeCommand(tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
