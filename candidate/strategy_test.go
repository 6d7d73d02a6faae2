package candidate

import (
	"testing"

	"github.com/pithecene-io/keyspace/types"
)

func TestBuild_Alphabet(t *testing.T) {
	src, err := Build(Strategy{Kind: KindAlphabet, Alphabet: "ab", Length: 2})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if src.Size() != 4 {
		t.Errorf("Size() = %d, want 4", src.Size())
	}
	if _, ok := src.(*Alphabet); !ok {
		t.Errorf("source type = %T, want *Alphabet", src)
	}
}

func TestBuild_CharsetDedup(t *testing.T) {
	s := Strategy{Kind: KindAlphabet, Alphabet: "a0", Charset: "digits+hex", Length: 1}
	symbols, err := s.Symbols()
	if err != nil {
		t.Fatalf("Symbols failed: %v", err)
	}
	// a0 + 0-9 + 0-9a-f, deduplicated
	if len(symbols) != 16 {
		t.Errorf("got %d symbols, want 16", len(symbols))
	}
	if symbols[0] != "a" || symbols[1] != "0" {
		t.Errorf("first symbols = %v, want literal alphabet first", symbols[:2])
	}
}

func TestBuild_PriorityWraps(t *testing.T) {
	src, err := Build(Strategy{Kind: KindWordlist, Words: []string{"a", "b"}, Priority: []string{"b"}})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if _, ok := src.(*Prioritized); !ok {
		t.Fatalf("source type = %T, want *Prioritized", src)
	}
	if got := values(drain(t, src)); !equalStrings(got, []string{"b", "a"}) {
		t.Errorf("sequence = %v, want [b a]", got)
	}
}

func TestBuild_Invalid(t *testing.T) {
	tests := []struct {
		name string
		s    Strategy
	}{
		{"missing kind", Strategy{}},
		{"unknown kind", Strategy{Kind: "markov"}},
		{"unknown charset", Strategy{Kind: KindAlphabet, Charset: "emoji", Length: 1}},
		{"empty wordlist", Strategy{Kind: KindWordlist}},
		{"bad length", Strategy{Kind: KindAlphabet, Alphabet: "ab"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Build(tt.s); !types.IsConfigurationError(err) {
				t.Errorf("expected ConfigurationError, got %v", err)
			}
		})
	}
}

func TestStrategy_FingerprintIgnoresOffset(t *testing.T) {
	a := Strategy{Kind: KindAlphabet, Alphabet: "ab", Length: 3}
	b := a
	b.Offset = 5
	if a.Fingerprint() != b.Fingerprint() {
		t.Error("fingerprint should not depend on offset")
	}

	c := a
	c.Length = 4
	if a.Fingerprint() == c.Fingerprint() {
		t.Error("fingerprint should change with the sequence definition")
	}
}
