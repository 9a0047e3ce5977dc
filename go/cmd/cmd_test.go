package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/snapcorn/snapcorn/go/arch"
)

const scenario = `
arch: x86_64
symbolic:
  registers: [rax, rbx]
symbolize_at:
  - {addr: 0x07, register: rcx}
program:
  - {addr: 0x00, asm: "cmp rbx, 1"}
  - {addr: 0x04, asm: "je 0x10"}
  - {addr: 0x06, asm: "nop"}
  - {addr: 0x07, asm: "mov rax, 0x1010101"}
  - {addr: 0x0e, asm: "jmp 0x17"}
  - {addr: 0x10, asm: "mov rax, 0x2020202"}
`

func execute(t *testing.T, args ...string) string {
	dir := t.TempDir()
	path := filepath.Join(dir, "scenario.yaml")
	if err := os.WriteFile(path, []byte(scenario), 0644); err != nil {
		t.Fatal(err)
	}
	// a missing config file yields the defaults
	args = append(args, "--config", filepath.Join(dir, "none.yaml"))
	for i, a := range args {
		args[i] = strings.Replace(a, "SCENARIO", path, 1)
	}
	var out, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&stderr)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		t.Fatalf("%v: %v\n%s", args, err, stderr.String())
	}
	return out.String()
}

func TestCommands(t *testing.T) {
	tests := []struct {
		args []string
		want []string
	}{
		{[]string{"trace", "SCENARIO"}, []string{
			"0x0004: je 0x10",
			"-- restored snapshot(",
			"0x0010: mov rax, 0x2020202",
			"changed since snapshot for 0x6:",
		}},
		{[]string{"explore", "SCENARIO", "--mode", "pc_tracking_symbolic"}, []string{
			"path 0 (exit at 0x17): 0x0 -> 0x4 -> 0x6 -> 0x7 -> 0xe",
			"path 1 (exit at 0x11): 0x0 -> 0x4 -> 0x10",
			"0x4 -> 0x10 taken=true",
		}},
	}
	for _, v := range tests {
		out := execute(t, v.args...)
		for _, want := range v.want {
			if !strings.Contains(out, want) {
				t.Errorf("%v: missing %q in:\n%s", v.args, want, out)
			}
		}
	}
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	execute(t, "trace", "SCENARIO", "--save-dir", dir)
	files, _ := filepath.Glob(filepath.Join(dir, "*.snap"))
	if len(files) != 1 {
		t.Fatalf("%d images saved", len(files))
	}
	out := execute(t, "inspect", files[0])
	if !strings.HasPrefix(out, "state(x86_64, ") || !strings.Contains(out, "rip 0x") {
		t.Fatalf("inspect output:\n%s", out)
	}
}

func TestBadArgs(t *testing.T) {
	root := NewRootCommand()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"trace"})
	if err := root.Execute(); err == nil {
		t.Fatal("trace without a scenario succeeded")
	}
}

func restoreElsewhere() error {
	return errors.Wrap(arch.ErrArchMismatch, "restoring")
}

func TestPrintError(t *testing.T) {
	var out bytes.Buffer
	PrintError(&out, restoreElsewhere(), true)
	if !strings.Contains(out.String(), "Error: restoring: ") {
		t.Fatalf("missing message:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "restoreElsewhere()") {
		t.Fatalf("stack trace does not start at the wrap site:\n%s", out.String())
	}

	out.Reset()
	PrintError(&out, restoreElsewhere(), false)
	if strings.Contains(out.String(), "restoreElsewhere") {
		t.Fatalf("stack trace printed without verbose:\n%s", out.String())
	}
}
