package fiber

import (
	"testing"
)

func TestState_String(t *testing.T) {
	t.Parallel()

	for _, tc := range [...]struct {
		state State
		want  string
	}{
		{StateReady, "Ready"},
		{StateRunning, "Running"},
		{StateTerminated, "Terminated"},
		{StateClosed, "Closed"},
		{State(99), "Unknown"},
	} {
		if got := tc.state.String(); got != tc.want {
			t.Errorf("State(%d).String() = %q, want %q", uint64(tc.state), got, tc.want)
		}
	}
}

func TestState_NumericOrdering(t *testing.T) {
	t.Parallel()

	// The Ready/Running/Terminated numbering is relied upon by consumers
	// that persist or compare raw state values.
	if StateReady != 0 || StateRunning != 1 || StateTerminated != 2 || StateClosed != 3 {
		t.Errorf("state numbering changed: %d %d %d %d",
			StateReady, StateRunning, StateTerminated, StateClosed)
	}
}

func Test_FastState_InitialState(t *testing.T) {
	t.Parallel()

	s := NewFastState()
	if got := s.Load(); got != StateReady {
		t.Errorf("new state machine is %v, want %v", got, StateReady)
	}
}

func Test_FastState_TryTransition(t *testing.T) {
	t.Parallel()

	t.Run("matching from succeeds", func(t *testing.T) {
		t.Parallel()

		s := NewFastState()
		if !s.TryTransition(StateReady, StateRunning) {
			t.Fatal("Ready->Running CAS failed from Ready")
		}
		if got := s.Load(); got != StateRunning {
			t.Errorf("state = %v after transition, want %v", got, StateRunning)
		}
	})

	t.Run("mismatched from fails without mutation", func(t *testing.T) {
		t.Parallel()

		s := NewFastState()
		s.Store(StateTerminated)
		if s.TryTransition(StateReady, StateRunning) {
			t.Fatal("Ready->Running CAS succeeded from Terminated")
		}
		if got := s.Load(); got != StateTerminated {
			t.Errorf("state = %v after failed transition, want %v", got, StateTerminated)
		}
	})
}

func Test_FastState_TransitionAny(t *testing.T) {
	t.Parallel()

	for _, tc := range [...]struct {
		name  string
		start State
		want  bool
	}{
		{"from Ready", StateReady, true},
		{"from Terminated", StateTerminated, true},
		{"from Running", StateRunning, false},
		{"from Closed", StateClosed, false},
	} {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			s := NewFastState()
			s.Store(tc.start)
			got := s.TransitionAny([]State{StateReady, StateTerminated}, StateClosed)
			if got != tc.want {
				t.Fatalf("TransitionAny from %v = %v, want %v", tc.start, got, tc.want)
			}
			want := tc.start
			if got {
				want = StateClosed
			}
			if s.Load() != want {
				t.Errorf("state = %v, want %v", s.Load(), want)
			}
		})
	}
}

func Test_FastState_Predicates(t *testing.T) {
	t.Parallel()

	for _, tc := range [...]struct {
		state      State
		isTerminal bool
		canResume  bool
		isFinished bool
	}{
		{StateReady, false, true, false},
		{StateRunning, false, false, false},
		{StateTerminated, false, false, true},
		{StateClosed, true, false, true},
	} {
		tc := tc
		t.Run(tc.state.String(), func(t *testing.T) {
			t.Parallel()

			s := NewFastState()
			s.Store(tc.state)
			if got := s.IsTerminal(); got != tc.isTerminal {
				t.Errorf("IsTerminal() = %v, want %v", got, tc.isTerminal)
			}
			if got := s.CanResume(); got != tc.canResume {
				t.Errorf("CanResume() = %v, want %v", got, tc.canResume)
			}
			if got := s.IsFinished(); got != tc.isFinished {
				t.Errorf("IsFinished() = %v, want %v", got, tc.isFinished)
			}
		})
	}
}
