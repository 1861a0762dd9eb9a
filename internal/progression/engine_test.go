package progression

import "testing"

func TestCurrentAndAdvance(t *testing.T) {
	e := New(3, false)

	if got := e.Current(); got != 0 {
		t.Fatalf("expected current 0, got %d", got)
	}
	if e.Done() {
		t.Fatal("expected engine not done")
	}

	if got := e.Advance(); got != 1 {
		t.Fatalf("expected advance to 1, got %d", got)
	}
	if got := e.Advance(); got != 2 {
		t.Fatalf("expected advance to 2, got %d", got)
	}
	if got := e.Advance(); got != -1 {
		t.Fatalf("expected exhausted sentinel, got %d", got)
	}
	if !e.Done() {
		t.Fatal("expected engine done")
	}
	if got := e.Current(); got != -1 {
		t.Fatalf("expected current -1 when done, got %d", got)
	}
}

func TestAdvanceNeverMovesBackwardsOrPastEnd(t *testing.T) {
	e := New(1, false)
	e.Advance()

	for i := 0; i < 3; i++ {
		if got := e.Advance(); got != -1 {
			t.Fatalf("expected -1 after exhaustion, got %d", got)
		}
	}
	if got := e.Remaining(); got != 0 {
		t.Fatalf("expected 0 remaining, got %d", got)
	}
}

func TestResumeClampsIndex(t *testing.T) {
	tests := []struct {
		name    string
		current int
		want    int
	}{
		{"negative clamps to start", -2, 0},
		{"mid-sequence preserved", 2, 2},
		{"beyond end clamps to done", 10, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Resume(3, tt.current, false)
			if got := e.Current(); got != tt.want {
				t.Fatalf("expected current %d, got %d", tt.want, got)
			}
		})
	}
}

func TestIsLockedStrict(t *testing.T) {
	e := Resume(3, 1, true)

	if !e.IsLocked(0) {
		t.Fatal("strict: answered item should be locked")
	}
	if e.IsLocked(1) {
		t.Fatal("strict: current item should be actionable")
	}
	if !e.IsLocked(2) {
		t.Fatal("strict: future item should be locked")
	}
}

func TestIsLockedNonStrict(t *testing.T) {
	e := Resume(3, 1, false)

	if e.IsLocked(0) {
		t.Fatal("non-strict: answered item should stay open for review")
	}
	if e.IsLocked(1) {
		t.Fatal("non-strict: current item should be actionable")
	}
	if !e.IsLocked(2) {
		t.Fatal("non-strict: future item should be locked")
	}
	if !e.IsLocked(-1) || !e.IsLocked(3) {
		t.Fatal("out-of-range indexes should be locked")
	}
}
