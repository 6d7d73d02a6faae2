package candidate

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/pithecene-io/keyspace/iox"
	"github.com/pithecene-io/keyspace/types"
)

// Wordlist emits an ordered list of candidates. Duplicate entries are
// dropped at construction, keeping the first occurrence.
type Wordlist struct {
	words  []string
	index  map[string]int64
	offset int64
	cursor atomic.Int64
}

// NewWordlist creates a wordlist source starting at offset.
func NewWordlist(words []string, offset int64) (*Wordlist, error) {
	if len(words) == 0 {
		return nil, types.NewConfigurationError("strategy.words", "wordlist must not be empty")
	}

	w := &Wordlist{
		words: make([]string, 0, len(words)),
		index: make(map[string]int64, len(words)),
	}
	for _, word := range words {
		if _, dup := w.index[word]; dup {
			continue
		}
		w.index[word] = int64(len(w.words))
		w.words = append(w.words, word)
	}

	if offset < 0 || offset > int64(len(w.words)) {
		return nil, types.NewConfigurationError("strategy.offset", "must be within [0, %d], got %d", len(w.words), offset)
	}
	w.offset = offset
	w.cursor.Store(offset)
	return w, nil
}

// Next implements Source.
func (w *Wordlist) Next() (types.Candidate, error) {
	seq := w.cursor.Add(1) - 1
	if seq >= int64(len(w.words)) {
		return types.Candidate{}, types.ErrEndOfSequence
	}
	return types.Candidate{Value: w.words[seq], Seq: seq}, nil
}

// Size implements Source.
func (w *Wordlist) Size() int64 {
	return int64(len(w.words)) - w.offset
}

// Index implements Indexed.
func (w *Wordlist) Index(value string) (int64, bool) {
	seq, ok := w.index[value]
	return seq, ok
}

// Offset implements Indexed.
func (w *Wordlist) Offset() int64 {
	return w.offset
}

// LoadWordlist reads one candidate per line. Blank lines and lines starting
// with '#' are skipped; trailing carriage returns are stripped.
func LoadWordlist(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read wordlist: %w", err)
	}
	return words, nil
}

// OpenWordlist loads a wordlist file from path.
func OpenWordlist(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, types.NewConfigurationError("strategy.wordlist_path", "file not found: %s", path)
		}
		return nil, fmt.Errorf("open wordlist %q: %w", path, err)
	}
	defer iox.DiscardClose(f)

	return LoadWordlist(f)
}

var _ Indexed = (*Wordlist)(nil)
