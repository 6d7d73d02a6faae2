package candidate

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/pithecene-io/keyspace/types"
)

// Strategy kinds.
const (
	KindAlphabet = "alphabet"
	KindWordlist = "wordlist"
)

// charsets are the named alphabets accepted in Strategy.Charset.
var charsets = map[string]string{
	"lower":   "abcdefghijklmnopqrstuvwxyz",
	"upper":   "ABCDEFGHIJKLMNOPQRSTUVWXYZ",
	"digits":  "0123456789",
	"hex":     "0123456789abcdef",
	"alpha":   "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ",
	"alnum":   "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789",
	"symbols": "!@#$%^&*()-_=+[]{}|;:,.<>?/",
}

// Strategy describes how to generate candidates. It is the shape used by
// the YAML config and CLI flags.
type Strategy struct {
	// Kind is "alphabet" or "wordlist".
	Kind string `yaml:"kind" json:"kind"`
	// Alphabet is a literal alphabet, split into single-rune symbols.
	Alphabet string `yaml:"alphabet,omitempty" json:"alphabet,omitempty"`
	// Charset is a "+"-joined list of named alphabets (e.g. "lower+digits"),
	// appended after Alphabet.
	Charset string `yaml:"charset,omitempty" json:"charset,omitempty"`
	// Length is the candidate length for alphabet strategies.
	Length int `yaml:"length,omitempty" json:"length,omitempty"`
	// WordlistPath is a file with one candidate per line.
	WordlistPath string `yaml:"wordlist_path,omitempty" json:"wordlist_path,omitempty"`
	// Words is an inline wordlist, appended after the file contents.
	Words []string `yaml:"words,omitempty" json:"words,omitempty"`
	// Priority candidates are probed before the bulk sequence.
	Priority []string `yaml:"priority,omitempty" json:"priority,omitempty"`
	// Skip lists values known to be bad or already tried.
	Skip []string `yaml:"skip,omitempty" json:"skip,omitempty"`
	// Offset is the bulk ordinal to resume from.
	Offset int64 `yaml:"offset,omitempty" json:"offset,omitempty"`
}

// Symbols resolves the alphabet symbols, de-duplicating while keeping
// first-occurrence order.
func (s Strategy) Symbols() ([]string, error) {
	raw := s.Alphabet
	if s.Charset != "" {
		for _, name := range strings.Split(s.Charset, "+") {
			set, ok := charsets[strings.TrimSpace(name)]
			if !ok {
				return nil, types.NewConfigurationError("strategy.charset", "unknown charset %q", name)
			}
			raw += set
		}
	}

	seen := make(map[string]struct{})
	var symbols []string
	for _, sym := range SplitSymbols(raw) {
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		symbols = append(symbols, sym)
	}
	return symbols, nil
}

// Build constructs the Source described by s. All validation failures are
// *types.ConfigurationError.
func Build(s Strategy) (Source, error) {
	var bulk Source

	switch s.Kind {
	case KindAlphabet:
		symbols, err := s.Symbols()
		if err != nil {
			return nil, err
		}
		a, err := NewAlphabet(AlphabetConfig{Symbols: symbols, Length: s.Length, Offset: s.Offset})
		if err != nil {
			return nil, err
		}
		bulk = a

	case KindWordlist:
		var words []string
		if s.WordlistPath != "" {
			loaded, err := OpenWordlist(s.WordlistPath)
			if err != nil {
				return nil, err
			}
			words = loaded
		}
		words = append(words, s.Words...)
		w, err := NewWordlist(words, s.Offset)
		if err != nil {
			return nil, err
		}
		bulk = w

	case "":
		return nil, types.NewConfigurationError("strategy.kind", "required (alphabet or wordlist)")
	default:
		return nil, types.NewConfigurationError("strategy.kind", "unknown kind %q (must be alphabet or wordlist)", s.Kind)
	}

	if len(s.Priority) == 0 && len(s.Skip) == 0 {
		return bulk, nil
	}
	return NewPrioritized(bulk, s.Priority, s.Skip), nil
}

// Fingerprint identifies the candidate sequence independent of the resume
// offset. Checkpoints store it to refuse resuming a different strategy.
func (s Strategy) Fingerprint() string {
	s.Offset = 0
	// json.Marshal of a struct with only strings, ints and slices cannot fail.
	data, _ := json.Marshal(s)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
