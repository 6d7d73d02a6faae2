package candidate

import (
	"testing"
)

func TestPrioritized_PriorityFirstThenBulkWithoutRepeats(t *testing.T) {
	bulk, err := NewAlphabet(AlphabetConfig{Symbols: []string{"a", "b"}, Length: 2})
	if err != nil {
		t.Fatal(err)
	}

	p := NewPrioritized(bulk, []string{"ba", "zz", "ba"}, []string{"ab"})
	got := drain(t, p)

	want := []string{"ba", "zz", "aa", "bb"}
	if !equalStrings(values(got), want) {
		t.Fatalf("sequence = %v, want %v", values(got), want)
	}
	if got[0].Seq != -1 || got[1].Seq != -2 {
		t.Errorf("priority ordinals = %d,%d, want -1,-2", got[0].Seq, got[1].Seq)
	}
	if !got[0].IsPriority() || got[2].IsPriority() {
		t.Error("IsPriority misclassified candidates")
	}
}

func TestPrioritized_Size(t *testing.T) {
	bulk, err := NewAlphabet(AlphabetConfig{Symbols: []string{"a", "b"}, Length: 2})
	if err != nil {
		t.Fatal(err)
	}

	// "ba" overlaps bulk, "zz" does not, "ab" is skipped from bulk.
	p := NewPrioritized(bulk, []string{"ba", "zz"}, []string{"ab"})
	if got := p.Size(); got != 4 {
		t.Errorf("Size() = %d, want 4", got)
	}
	if got := int64(len(drain(t, p))); got != 4 {
		t.Errorf("emitted %d, want 4", got)
	}
}

func TestPrioritized_SkippedPriorityNotProbed(t *testing.T) {
	bulk, err := NewWordlist([]string{"x", "y"}, 0)
	if err != nil {
		t.Fatal(err)
	}

	p := NewPrioritized(bulk, []string{"y"}, []string{"y"})
	if got := values(drain(t, p)); !equalStrings(got, []string{"x"}) {
		t.Errorf("sequence = %v, want [x]", got)
	}
	if len(p.Priority()) != 0 {
		t.Errorf("Priority() = %v, want empty", p.Priority())
	}
}
