package types //nolint:revive // types is a valid package name

import "testing"

func TestRunState_IsTerminal(t *testing.T) {
	tests := []struct {
		state RunState
		want  bool
	}{
		{RunStateIdle, false},
		{RunStateRunning, false},
		{RunStateSucceeded, true},
		{RunStateExhausted, true},
		{RunStateCancelled, true},
		{RunStateFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.want {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRunState_CanTransition(t *testing.T) {
	tests := []struct {
		from, to RunState
		want     bool
	}{
		{RunStateIdle, RunStateRunning, true},
		{RunStateIdle, RunStateFailed, true},
		{RunStateIdle, RunStateSucceeded, false},
		{RunStateRunning, RunStateSucceeded, true},
		{RunStateRunning, RunStateExhausted, true},
		{RunStateRunning, RunStateCancelled, true},
		{RunStateRunning, RunStateIdle, false},
		{RunStateSucceeded, RunStateCancelled, false},
		{RunStateCancelled, RunStateRunning, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransition(tt.to); got != tt.want {
				t.Errorf("CanTransition() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDescribeTerminal(t *testing.T) {
	winner := &Candidate{Value: "ba", Seq: 2}

	if got := DescribeTerminal(RunStateSucceeded, winner, 3, nil); got != "candidate seq#2 accepted after 3 attempts" {
		t.Errorf("succeeded reason = %q", got)
	}
	if got := DescribeTerminal(RunStateExhausted, nil, 4, nil); got != "keyspace exhausted after 4 attempts without acceptance" {
		t.Errorf("exhausted reason = %q", got)
	}

	cfgErr := NewConfigurationError("concurrency", "must be >= 1, got %d", 0)
	if got := DescribeTerminal(RunStateFailed, nil, 0, cfgErr); got != cfgErr.Error() {
		t.Errorf("failed reason = %q, want %q", got, cfgErr.Error())
	}
}
