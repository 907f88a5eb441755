package state

import (
	"errors"
	"testing"
)

func TestMachineLifecycle(t *testing.T) {
	var transitions []string
	m := NewMachine(func(from, to string) {
		transitions = append(transitions, from+"->"+to)
	})

	if got := m.CurrentState(); got != StateIdle {
		t.Fatalf("initial state = %s, want idle", got)
	}

	if err := m.Begin("run-1"); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if err := m.Begin("run-2"); !errors.Is(err, ErrAlreadySyncing) {
		t.Fatalf("second Begin err = %v, want ErrAlreadySyncing", err)
	}
	if got := m.Status().RunID; got != "run-1" {
		t.Errorf("RunID = %s, want run-1", got)
	}

	if err := m.Fail(errors.New("403")); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	st := m.Status()
	if st.State != StateFailed || st.LastError != "403" || st.LastSuccessAt != nil {
		t.Errorf("status after failure = %+v", st)
	}

	// failed 状态可以重新开始
	if err := m.Begin("run-3"); err != nil {
		t.Fatalf("Begin after failure: %v", err)
	}
	if err := m.Complete(12, 1); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	st = m.Status()
	if st.State != StateIdle || st.LastError != "" || st.EntriesSynced != 12 || st.RowsRejected != 1 {
		t.Errorf("status after success = %+v", st)
	}
	if st.LastSuccessAt == nil {
		t.Error("LastSuccessAt not set")
	}

	want := []string{"idle->syncing", "syncing->failed", "failed->syncing", "syncing->idle"}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition %d = %s, want %s", i, transitions[i], want[i])
		}
	}
}

func TestCompleteWithoutBegin(t *testing.T) {
	m := NewMachine(nil)
	if err := m.Complete(1, 0); err == nil {
		t.Fatal("Complete from idle succeeded")
	}
}
