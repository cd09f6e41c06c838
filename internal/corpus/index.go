package corpus

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

const (
	DefaultChunkSize = 400
	DefaultOverlap   = 40
	DefaultRankLimit = 3
)

// Chunk is an immutable slice of a source document used as a retrieval unit.
// Source encodes the origin file name and the 0-based window index.
type Chunk struct {
	Source  string `json:"source"`
	Content string `json:"content"`
}

// Index loads, chunks and ranks a directory of UTF-8 text documents.
// The chunk snapshot is rebuilt off to the side and published with an atomic
// pointer swap, so Rank never observes a half-built corpus.
type Index struct {
	dir       string
	chunkSize int
	overlap   int
	snapshot  atomic.Pointer[[]Chunk]
}

// NewIndex builds an index over dir. Non-positive size/overlap fall back to
// the defaults. The initial snapshot is loaded immediately; a missing
// directory yields an empty corpus, not an error.
func NewIndex(dir string, chunkSize, overlap int) (*Index, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	idx := &Index{dir: dir, chunkSize: chunkSize, overlap: overlap}
	if err := idx.Load(); err != nil {
		return nil, err
	}
	return idx, nil
}

// Dir returns the corpus directory the index reads from.
func (idx *Index) Dir() string { return idx.dir }

// Load reads every .txt file under the corpus directory (recursively, in
// sorted path order), chunks it, and atomically replaces the snapshot.
func (idx *Index) Load() error {
	chunks, err := idx.loadChunks()
	if err != nil {
		return err
	}
	idx.snapshot.Store(&chunks)
	return nil
}

func (idx *Index) loadChunks() ([]Chunk, error) {
	if _, err := os.Stat(idx.dir); os.IsNotExist(err) {
		return nil, nil
	}

	var paths []string
	err := filepath.WalkDir(idx.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".txt") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking corpus dir: %w", err)
	}
	sort.Strings(paths)

	var chunks []Chunk
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading corpus file %s: %w", path, err)
		}
		name := filepath.Base(path)
		for i, piece := range splitChunks(string(data), idx.chunkSize, idx.overlap) {
			chunks = append(chunks, Chunk{
				Source:  fmt.Sprintf("%s#chunk%d", name, i),
				Content: piece,
			})
		}
	}
	return chunks, nil
}

// splitChunks slides a fixed-width window across text. Size and overlap
// count characters, not bytes, so multi-byte runes are never split at a
// window edge. Text no longer than size is returned whole; otherwise
// windows start every max(size-overlap, 1) characters and the final window
// may be shorter than size.
func splitChunks(text string, size, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}
	step := size - overlap
	if step < 1 {
		step = 1
	}
	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
	}
	return out
}

// AddDocument persists text as a new uniquely named file in the corpus
// directory (creating it if absent) and reloads the snapshot. The generated
// file name is returned.
func (idx *Index) AddDocument(text string) (string, error) {
	if err := os.MkdirAll(idx.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating corpus dir: %w", err)
	}
	name := fmt.Sprintf("doc-%s.txt", uuid.NewString())
	if err := os.WriteFile(filepath.Join(idx.dir, name), []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("writing corpus file: %w", err)
	}
	if err := idx.Load(); err != nil {
		return "", err
	}
	return name, nil
}

// Clear deletes corpus files best-effort (per-file failures are swallowed)
// and empties the snapshot.
func (idx *Index) Clear() {
	_ = filepath.WalkDir(idx.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".txt") {
			_ = os.Remove(path)
		}
		return nil
	})
	empty := []Chunk(nil)
	idx.snapshot.Store(&empty)
}

// Size reports the number of chunks in the current snapshot.
func (idx *Index) Size() int {
	return len(*idx.snapshot.Load())
}

// Rank returns at most limit chunks ordered by descending token-overlap
// score. Ties keep their snapshot order, so results are deterministic for a
// given query and snapshot. An empty query or empty corpus yields no results.
func (idx *Index) Rank(query string, limit int) []Chunk {
	if limit <= 0 {
		limit = DefaultRankLimit
	}
	snapshot := *idx.snapshot.Load()
	if query == "" || len(snapshot) == 0 {
		return nil
	}

	tokens := queryTokens(query)
	scores := make([]int, len(snapshot))
	for i, ch := range snapshot {
		scores[i] = overlapScore(tokens, strings.ToLower(ch.Content))
	}

	order := make([]int, len(snapshot))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if limit > len(order) {
		limit = len(order)
	}
	ranked := make([]Chunk, limit)
	for i := 0; i < limit; i++ {
		ranked[i] = snapshot[order[i]]
	}
	return ranked
}

// overlapScore counts distinct query tokens contained in the lowercased
// chunk text. Containment is substring matching, not word-boundary matching.
func overlapScore(tokens []string, loweredText string) int {
	score := 0
	for _, tok := range tokens {
		if strings.Contains(loweredText, tok) {
			score++
		}
	}
	return score
}
