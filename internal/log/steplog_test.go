package log

import "testing"

func TestStepLoggerTracksNamedStages(t *testing.T) {
	sl := NewStepLogger(42, stepStagesForTest)
	sl.StartStep("expire")
	sl.StartStep("route")
	sl.Finish()

	if sl.slot != 42 {
		t.Fatalf("slot = %d, want 42", sl.slot)
	}
	if _, ok := sl.durations["expire"]; !ok {
		t.Fatalf("expected expire stage duration to be recorded")
	}
	if sl.current != "" {
		t.Fatalf("expected Finish to close out the open stage")
	}
}

func TestStepLoggerFailLeavesCurrentStageSet(t *testing.T) {
	sl := NewStepLogger(1, stepStagesForTest)
	sl.StartStep("antimev")
	sl.Fail(errStepLoggerTest)

	if sl.current != "antimev" {
		t.Fatalf("current = %q, want antimev", sl.current)
	}
}

var stepStagesForTest = []string{"expire", "antimev", "priority", "route"}

var errStepLoggerTest = &testErr{"boom"}

type testErr struct{ msg string }

func (e *testErr) Error() string { return e.msg }
