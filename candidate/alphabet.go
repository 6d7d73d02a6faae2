package candidate

import (
	"math"
	"slices"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/pithecene-io/keyspace/types"
)

// AlphabetConfig configures a fixed alphabet × fixed length source.
type AlphabetConfig struct {
	// Symbols is the ordered alphabet. Each symbol is emitted verbatim and
	// may be longer than one rune, but no symbol may be a prefix of another
	// so that every value decomposes one way only.
	Symbols []string
	// Length is the number of symbols per candidate.
	Length int
	// Offset is the ordinal to start from (resume point).
	Offset int64
}

// Alphabet enumerates every string of Length symbols drawn from Symbols,
// in cartesian-product order (the last position varies fastest).
//
// Candidates are derived from a single atomic ordinal, so Next never takes
// a lock.
type Alphabet struct {
	symbols []string
	lookup  map[string]int
	length  int
	total   int64
	offset  int64
	cursor  atomic.Int64
}

// NewAlphabet validates cfg and creates an alphabet source.
func NewAlphabet(cfg AlphabetConfig) (*Alphabet, error) {
	if len(cfg.Symbols) == 0 {
		return nil, types.NewConfigurationError("strategy.alphabet", "alphabet must not be empty")
	}
	if cfg.Length < 1 {
		return nil, types.NewConfigurationError("strategy.length", "must be >= 1, got %d", cfg.Length)
	}

	lookup := make(map[string]int, len(cfg.Symbols))
	for i, sym := range cfg.Symbols {
		if sym == "" {
			return nil, types.NewConfigurationError("strategy.alphabet", "symbol %d is empty", i)
		}
		if _, dup := lookup[sym]; dup {
			return nil, types.NewConfigurationError("strategy.alphabet", "duplicate symbol %q", sym)
		}
		lookup[sym] = i
	}
	if a, b, ok := prefixPair(cfg.Symbols); ok {
		return nil, types.NewConfigurationError("strategy.alphabet",
			"symbol %q is a prefix of %q; values would repeat", a, b)
	}

	total, ok := keyspaceSize(len(cfg.Symbols), cfg.Length)
	if !ok {
		return nil, types.NewConfigurationError("strategy.length",
			"keyspace of %d symbols × length %d overflows int64", len(cfg.Symbols), cfg.Length)
	}
	if cfg.Offset < 0 || cfg.Offset > total {
		return nil, types.NewConfigurationError("strategy.offset", "must be within [0, %d], got %d", total, cfg.Offset)
	}

	a := &Alphabet{
		symbols: append([]string(nil), cfg.Symbols...),
		lookup:  lookup,
		length:  cfg.Length,
		total:   total,
		offset:  cfg.Offset,
	}
	a.cursor.Store(cfg.Offset)
	return a, nil
}

// SplitSymbols splits s into single-rune symbols.
func SplitSymbols(s string) []string {
	symbols := make([]string, 0, utf8.RuneCountInString(s))
	for _, r := range s {
		symbols = append(symbols, string(r))
	}
	return symbols
}

// Next implements Source.
func (a *Alphabet) Next() (types.Candidate, error) {
	seq := a.cursor.Add(1) - 1
	if seq >= a.total {
		return types.Candidate{}, types.ErrEndOfSequence
	}
	return types.Candidate{Value: a.At(seq), Seq: seq}, nil
}

// At returns the candidate value at ordinal seq. seq must be within
// [0, Total()).
func (a *Alphabet) At(seq int64) string {
	digits := make([]int, a.length)
	base := int64(len(a.symbols))
	for pos := a.length - 1; pos >= 0; pos-- {
		digits[pos] = int(seq % base)
		seq /= base
	}

	var b strings.Builder
	for _, d := range digits {
		b.WriteString(a.symbols[d])
	}
	return b.String()
}

// Index implements Indexed. Values that cannot be decomposed into exactly
// Length symbols return false.
func (a *Alphabet) Index(value string) (int64, bool) {
	var seq int64
	base := int64(len(a.symbols))
	rest := value
	for range a.length {
		idx, n := a.matchPrefix(rest)
		if n == 0 {
			return 0, false
		}
		seq = seq*base + int64(idx)
		rest = rest[n:]
	}
	if rest != "" {
		return 0, false
	}
	return seq, true
}

// matchPrefix finds the symbol that prefixes s. Symbols are prefix-free, so
// there is at most one.
func (a *Alphabet) matchPrefix(s string) (idx, n int) {
	for sym, i := range a.lookup {
		if len(sym) > n && strings.HasPrefix(s, sym) {
			idx, n = i, len(sym)
		}
	}
	return idx, n
}

// Size implements Source.
func (a *Alphabet) Size() int64 {
	return a.total - a.offset
}

// Offset implements Indexed.
func (a *Alphabet) Offset() int64 {
	return a.offset
}

// Total returns the full keyspace size, ignoring the offset.
func (a *Alphabet) Total() int64 {
	return a.total
}

// prefixPair returns two symbols where the first is a prefix of the second.
// In sorted order such a pair is always adjacent.
func prefixPair(symbols []string) (string, string, bool) {
	sorted := slices.Sorted(slices.Values(symbols))
	for i := 1; i < len(sorted); i++ {
		if strings.HasPrefix(sorted[i], sorted[i-1]) {
			return sorted[i-1], sorted[i], true
		}
	}
	return "", "", false
}

// keyspaceSize returns base^length, or false on int64 overflow.
func keyspaceSize(base, length int) (int64, bool) {
	total := int64(1)
	for range length {
		if total > math.MaxInt64/int64(base) {
			return 0, false
		}
		total *= int64(base)
	}
	return total, true
}

var _ Indexed = (*Alphabet)(nil)
