//go:build go1.18

package core

import "testing"

// FuzzTaskValidate checks that Task.Validate agrees with the documented
// invariants regardless of field values.
func FuzzTaskValidate(f *testing.F) {
	f.Add("", 1, 1)
	f.Add("title", 0, 1)
	f.Add("title", 1, 0)
	f.Add("title", 11, 1)
	f.Add("title", 5, 5)

	f.Fuzz(func(t *testing.T, title string, complexity, risk int) {
		task := NewTask(title, TaskTypeOther)
		task.Complexity = complexity
		task.Risk = risk

		err := task.Validate()

		wantErr := title == "" || complexity < 1 || complexity > 10 || risk < 1 || risk > 10
		if wantErr && err == nil {
			t.Fatalf("expected error for title=%q complexity=%d risk=%d", title, complexity, risk)
		}
		if !wantErr && err != nil {
			t.Fatalf("unexpected error for title=%q complexity=%d risk=%d: %v", title, complexity, risk, err)
		}
	})
}

// FuzzTaskRoute checks Route's dedup-preserving-order contract and its
// empty-assignees rejection.
func FuzzTaskRoute(f *testing.F) {
	f.Add("a", "b", "a")
	f.Add("", "", "")
	f.Add("x", "x", "x")

	f.Fuzz(func(t *testing.T, a, b, c string) {
		task := NewTask("x", TaskTypeOther)
		var assignees []AgentId
		for _, s := range []string{a, b, c} {
			if s != "" {
				assignees = append(assignees, AgentId(s))
			}
		}

		err := task.Route(RoutingSolo, assignees...)
		if len(assignees) == 0 {
			if err == nil {
				t.Fatal("expected error routing with zero assignees")
			}
			return
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		seen := make(map[AgentId]bool)
		for _, got := range task.Assignees {
			if seen[got] {
				t.Fatalf("duplicate assignee %q in result", got)
			}
			seen[got] = true
		}
	})
}
