package system

import "testing"

func TestValidateTransition(t *testing.T) {
	valid := []struct{ from, to SystemState }{
		{StateInitializing, StateRunning},
		{StateRunning, StateStopping},
		{StateStopping, StateStopped},
		{StateStopped, StateInitializing},
		{StateError, StateInitializing},
	}
	for _, tr := range valid {
		if err := ValidateTransition(tr.from, tr.to); err != nil {
			t.Errorf("%s -> %s should be allowed: %v", tr.from, tr.to, err)
		}
	}

	invalid := []struct{ from, to SystemState }{
		{StateInitializing, StateStopped},
		{StateStopped, StateRunning},
		{StateRunning, StateInitializing},
	}
	for _, tr := range invalid {
		if err := ValidateTransition(tr.from, tr.to); err == nil {
			t.Errorf("%s -> %s should be rejected", tr.from, tr.to)
		}
	}
}
