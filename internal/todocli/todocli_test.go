package todocli

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"todo/internal/corecli"
)

type runner struct {
	t      *testing.T
	dbPath string
}

func newRunner(t *testing.T) *runner {
	t.Helper()
	return &runner{t: t, dbPath: filepath.Join(t.TempDir(), "todo.db")}
}

func (r *runner) run(args ...string) (int, string, string) {
	r.t.Helper()
	var stdout, stderr bytes.Buffer
	full := append([]string{"--db", r.dbPath}, args...)
	code := Execute(context.Background(), full, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func (r *runner) mustRun(args ...string) string {
	r.t.Helper()
	code, out, errOut := r.run(args...)
	if code != 0 {
		r.t.Fatalf("todo %s exited %d: %s", strings.Join(args, " "), code, errOut)
	}
	return out
}

func TestAdd(t *testing.T) {
	r := newRunner(t)

	out := r.mustRun("add", "Buy milk")
	if strings.TrimSpace(out) != "Added task: Buy milk" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestAdd_ValidationError(t *testing.T) {
	r := newRunner(t)

	code, _, errOut := r.run("add", "")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(errOut, "Error: task title is required") {
		t.Errorf("unexpected stderr %q", errOut)
	}
}

func TestList_Empty(t *testing.T) {
	r := newRunner(t)

	out := r.mustRun("list")
	if strings.TrimSpace(out) != "No tasks found" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestList_Filters(t *testing.T) {
	r := newRunner(t)
	r.mustRun("add", "Task 1")
	r.mustRun("add", "Task 2")
	r.mustRun("done", "1")

	tests := []struct {
		args    []string
		want    []string
		notWant []string
	}{
		{args: []string{"list"}, want: []string{"Task 1", "Task 2"}},
		{args: []string{"list", "--all"}, want: []string{"Task 1", "Task 2"}},
		{args: []string{"list", "--done"}, want: []string{"Task 1", "COMPLETED"}, notWant: []string{"Task 2"}},
		{args: []string{"list", "--pending"}, want: []string{"Task 2", "PENDING"}, notWant: []string{"Task 1"}},
	}

	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			out := r.mustRun(tt.args...)
			for _, s := range tt.want {
				if !strings.Contains(out, s) {
					t.Errorf("expected %q in output:\n%s", s, out)
				}
			}
			for _, s := range tt.notWant {
				if strings.Contains(out, s) {
					t.Errorf("did not expect %q in output:\n%s", s, out)
				}
			}
		})
	}
}

func TestList_NoColorWhenNotTerminal(t *testing.T) {
	r := newRunner(t)
	r.mustRun("add", "Plain")

	out := r.mustRun("list")
	if strings.Contains(out, "\x1b[") {
		t.Errorf("expected no ANSI escapes when stdout is not a terminal: %q", out)
	}
}

func TestDone_ByPosition(t *testing.T) {
	r := newRunner(t)
	r.mustRun("add", "First")
	r.mustRun("add", "Second")

	out := r.mustRun("done", "2")
	if strings.TrimSpace(out) != "Completed task: Second" {
		t.Errorf("unexpected output %q", out)
	}

	out = r.mustRun("list", "--done")
	if !strings.Contains(out, "Second") || strings.Contains(out, "First") {
		t.Errorf("expected only Second completed:\n%s", out)
	}
}

func TestDone_ByID(t *testing.T) {
	r := newRunner(t)

	var stdout, stderr bytes.Buffer
	if code := corecli.Execute(context.Background(), []string{"--db", r.dbPath, "create", "By id"}, &stdout, &stderr); code != 0 {
		t.Fatalf("create exited %d: %s", code, stderr.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &created); err != nil {
		t.Fatalf("invalid json %q: %v", stdout.String(), err)
	}
	id := created.ID

	out := r.mustRun("done", id)
	if strings.TrimSpace(out) != "Completed task: By id" {
		t.Errorf("unexpected output %q", out)
	}
}

func TestDone_OutOfRange(t *testing.T) {
	r := newRunner(t)
	r.mustRun("add", "Only")

	for _, arg := range []string{"0", "2", uuid.NewString()} {
		t.Run(arg, func(t *testing.T) {
			code, _, errOut := r.run("done", arg)
			if code != 1 {
				t.Fatalf("expected exit 1, got %d", code)
			}
			if strings.TrimSpace(errOut) != "Error: Task not found" {
				t.Errorf("unexpected stderr %q", errOut)
			}
		})
	}
}

func TestRm(t *testing.T) {
	r := newRunner(t)
	r.mustRun("add", "Keep")
	r.mustRun("add", "Drop")

	out := r.mustRun("rm", "2")
	if strings.TrimSpace(out) != "Removed task: Drop" {
		t.Errorf("unexpected output %q", out)
	}

	out = r.mustRun("list")
	if strings.Contains(out, "Drop") || !strings.Contains(out, "Keep") {
		t.Errorf("unexpected list after rm:\n%s", out)
	}

	code, _, errOut := r.run("rm", "2")
	if code != 1 {
		t.Fatalf("expected exit 1, got %d", code)
	}
	if !strings.Contains(errOut, "Task not found") {
		t.Errorf("unexpected stderr %q", errOut)
	}
}

func TestUsageErrors(t *testing.T) {
	r := newRunner(t)

	tests := [][]string{
		{"add"},
		{"done"},
		{"rm", "abc"},
		{"list", "extra"},
		{"list", "--bogus"},
	}

	for _, args := range tests {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			if code, _, _ := r.run(args...); code != 2 {
				t.Errorf("expected exit 2, got %d", code)
			}
		})
	}
}
