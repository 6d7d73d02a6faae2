package cmd

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"

	"github.com/pithecene-io/keyspace/candidate"
	"github.com/pithecene-io/keyspace/checkpoint"
	"github.com/pithecene-io/keyspace/cli/config"
	"github.com/pithecene-io/keyspace/lode"
	"github.com/pithecene-io/keyspace/oracle"
	"github.com/pithecene-io/keyspace/report"
	"github.com/pithecene-io/keyspace/runtime"
	"github.com/pithecene-io/keyspace/types"
)

func TestReadOnlyFlags_IncludesTUI(t *testing.T) {
	hasTUI := false
	for _, f := range ReadOnlyFlags() {
		if f.Names()[0] == "tui" {
			hasTUI = true
			break
		}
	}
	if !hasTUI {
		t.Error("ReadOnlyFlags should include --tui flag for explicit error handling")
	}
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		state types.RunState
		want  int
	}{
		{types.RunStateSucceeded, exitSucceeded},
		{types.RunStateExhausted, exitExhausted},
		{types.RunStateCancelled, exitCancelled},
		{types.RunStateFailed, exitFailed},
		{types.RunStateRunning, exitFailed},
	}
	for _, tt := range tests {
		if got := exitCodeFor(tt.state); got != tt.want {
			t.Errorf("exitCodeFor(%s) = %d, want %d", tt.state, got, tt.want)
		}
	}
}

func TestBuildPlan(t *testing.T) {
	resp, err := buildPlan(candidate.Strategy{
		Kind:     candidate.KindAlphabet,
		Alphabet: "ab",
		Length:   2,
		Priority: []string{"zz"},
		Skip:     []string{"ab"},
	}, 10)
	if err != nil {
		t.Fatalf("buildPlan failed: %v", err)
	}

	want := []string{"zz", "aa", "ba", "bb"}
	if len(resp.Preview) != len(want) {
		t.Fatalf("Preview = %v, want %v", resp.Preview, want)
	}
	for i := range want {
		if resp.Preview[i] != want[i] {
			t.Errorf("Preview[%d] = %q, want %q", i, resp.Preview[i], want[i])
		}
	}
	if resp.KeyspaceSize != 4 {
		t.Errorf("KeyspaceSize = %d, want 4", resp.KeyspaceSize)
	}
	if resp.Fingerprint == "" {
		t.Error("Fingerprint is empty")
	}
}

func TestBuildPlan_Invalid(t *testing.T) {
	_, err := buildPlan(candidate.Strategy{Kind: "brute"}, 5)
	if !types.IsConfigurationError(err) {
		t.Errorf("buildPlan error = %v, want ConfigurationError", err)
	}
}

func testPlan(t *testing.T, target string) *benchPlan {
	t.Helper()
	engine := runtime.DefaultConfig()
	engine.Concurrency = 2
	engine.RunID = "run-bench"
	return &benchPlan{
		runID:    "run-bench",
		strategy: candidate.Strategy{Kind: candidate.KindAlphabet, Alphabet: "ab", Length: 2},
		engine:   engine,
		oracle:   oracle.SimulatedConfig{Target: target},
		storage: config.StorageConfig{
			Dataset: lode.DefaultDataset,
			Backend: "fs",
			Path:    t.TempDir(),
		},
		report:     config.ReportConfig{FlushCount: 1},
		checkpoint: config.CheckpointConfig{Path: filepath.Join(t.TempDir(), "run.ckpt"), Interval: config.Duration{Duration: time.Hour}},
		logLevel:   zapcore.ErrorLevel,
	}
}

func TestRunBench_SucceedsAndStoresSummary(t *testing.T) {
	p := testPlan(t, "ba")

	resp, err := runBench(t.Context(), p, false)
	if err != nil {
		t.Fatalf("runBench failed: %v", err)
	}
	if resp.State != string(types.RunStateSucceeded) {
		t.Fatalf("State = %s (%s), want succeeded", resp.State, resp.Reason)
	}
	if resp.Winner != report.RedactedValue {
		t.Errorf("Winner = %q, want redacted", resp.Winner)
	}
	if resp.WinnerSeq == nil || *resp.WinnerSeq != 2 {
		t.Errorf("WinnerSeq = %v, want 2", resp.WinnerSeq)
	}

	ds, err := buildReadDataset(t.Context(), p.storage)
	if err != nil {
		t.Fatalf("buildReadDataset failed: %v", err)
	}
	summary, err := lode.QueryRunSummary(t.Context(), ds, "run-bench", "")
	if err != nil {
		t.Fatalf("QueryRunSummary failed: %v", err)
	}
	if summary.State != "succeeded" || summary.KeyspaceSize != 4 || summary.Concurrency != 2 {
		t.Errorf("summary = %+v", summary)
	}
	if summary.Winner != "" {
		t.Errorf("stored Winner = %q, want redacted", summary.Winner)
	}

	cp, err := checkpoint.Load(p.checkpoint.Path)
	if err != nil {
		t.Fatalf("checkpoint.Load failed: %v", err)
	}
	if cp.State != "succeeded" || cp.RunID != "run-bench" {
		t.Errorf("checkpoint = %+v", cp)
	}
}

func TestRunBench_ExhaustedThenResume(t *testing.T) {
	p := testPlan(t, "")

	resp, err := runBench(t.Context(), p, false)
	if err != nil {
		t.Fatalf("runBench failed: %v", err)
	}
	if resp.State != string(types.RunStateExhausted) || resp.Attempts != 4 {
		t.Fatalf("State/Attempts = %s/%d, want exhausted/4", resp.State, resp.Attempts)
	}
	if resp.ResumeOffset != 4 {
		t.Errorf("ResumeOffset = %d, want 4", resp.ResumeOffset)
	}

	p2 := testPlan(t, "")
	p2.checkpoint = p.checkpoint
	p2.resume = true
	resp2, err := runBench(t.Context(), p2, false)
	if err != nil {
		t.Fatalf("resume failed: %v", err)
	}
	if resp2.Attempts != 0 || resp2.State != string(types.RunStateExhausted) {
		t.Errorf("resumed State/Attempts = %s/%d, want exhausted/0", resp2.State, resp2.Attempts)
	}
}

func TestRunBench_ResumeRejectsOtherStrategy(t *testing.T) {
	p := testPlan(t, "")
	if _, err := runBench(t.Context(), p, false); err != nil {
		t.Fatal(err)
	}

	p2 := testPlan(t, "")
	p2.checkpoint = p.checkpoint
	p2.resume = true
	p2.strategy.Length = 3
	if _, err := runBench(t.Context(), p2, false); !errors.Is(err, checkpoint.ErrFingerprintMismatch) {
		t.Errorf("runBench error = %v, want ErrFingerprintMismatch", err)
	}
}

func TestRunBench_InvalidStrategyFails(t *testing.T) {
	p := testPlan(t, "")
	p.strategy = candidate.Strategy{Kind: candidate.KindAlphabet, Length: 2}

	resp, err := runBench(t.Context(), p, false)
	if err != nil {
		t.Fatalf("runBench failed: %v", err)
	}
	if resp.State != string(types.RunStateFailed) || resp.Attempts != 0 {
		t.Errorf("State/Attempts = %s/%d, want failed/0", resp.State, resp.Attempts)
	}
	if exitCodeFor(types.RunState(resp.State)) != exitFailed {
		t.Error("failed run should exit with exitFailed")
	}
}

func TestBenchCommand_ExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"succeeded", []string{"--target", "bb"}, exitSucceeded},
		{"exhausted", []string{}, exitExhausted},
		{"invalid engine", []string{"--concurrency", "0"}, exitFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := &cli.App{
				Commands:       []*cli.Command{BenchCommand()},
				ExitErrHandler: func(*cli.Context, error) {},
			}
			args := append([]string{"keyspace", "bench", "--quiet", "--log-level", "error",
				"--kind", "alphabet", "--alphabet", "ab", "--length", "2"}, tt.args...)

			err := app.Run(args)
			var exitCoder cli.ExitCoder
			if !errors.As(err, &exitCoder) {
				t.Fatalf("app.Run error = %v, want cli.ExitCoder", err)
			}
			if exitCoder.ExitCode() != tt.want {
				t.Errorf("exit code = %d, want %d", exitCoder.ExitCode(), tt.want)
			}
		})
	}
}
