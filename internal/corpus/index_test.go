package corpus

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"
)

func writeDoc(t *testing.T, dir, name, text string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(text), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestNewIndexMissingDir(t *testing.T) {
	idx, err := NewIndex(filepath.Join(t.TempDir(), "nope"), 0, -1)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	if idx.Size() != 0 {
		t.Fatalf("expected empty snapshot, got %d chunks", idx.Size())
	}
	if got := idx.Rank("nuclear energy", 3); len(got) != 0 {
		t.Fatalf("expected no results for empty corpus, got %d", len(got))
	}
}

func TestChunkingShortDocument(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "short.txt", "solar power is cheap")

	idx, err := NewIndex(dir, 400, 40)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	if idx.Size() != 1 {
		t.Fatalf("expected 1 chunk, got %d", idx.Size())
	}
	got := idx.Rank("solar", 1)
	if len(got) != 1 || got[0].Content != "solar power is cheap" {
		t.Fatalf("unexpected chunk: %+v", got)
	}
	if got[0].Source != "short.txt#chunk0" {
		t.Fatalf("unexpected source id: %s", got[0].Source)
	}
}

func TestChunkingWindowsCoverDocument(t *testing.T) {
	text := strings.Repeat("abcdefghij", 12) // 120 chars
	pieces := splitChunks(text, 50, 10)

	// step is 40, so windows start at 0, 40, 80.
	if len(pieces) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(pieces))
	}
	if pieces[0] != text[0:50] || pieces[1] != text[40:90] || pieces[2] != text[80:120] {
		t.Fatalf("unexpected windows: %q", pieces)
	}

	// Every character position is covered by some window.
	covered := make([]bool, len(text))
	for i, p := range pieces {
		start := i * 40
		for j := range p {
			covered[start+j] = true
		}
	}
	for i, ok := range covered {
		if !ok {
			t.Fatalf("position %d not covered by any window", i)
		}
	}
}

func TestChunkingCountsCharactersNotBytes(t *testing.T) {
	// 300 two-byte runes fit a 400-character window in one chunk.
	pieces := splitChunks(strings.Repeat("é", 300), 400, 40)
	if len(pieces) != 1 {
		t.Fatalf("expected 1 chunk for 300 characters, got %d", len(pieces))
	}

	// Window edges land between runes, never inside one.
	pieces = splitChunks(strings.Repeat("日本語", 200), 50, 10)
	for i, p := range pieces {
		if !utf8.ValidString(p) {
			t.Fatalf("chunk %d is not valid UTF-8: %q", i, p)
		}
		if i < len(pieces)-1 && utf8.RuneCountInString(p) != 50 {
			t.Fatalf("chunk %d has %d characters, want 50", i, utf8.RuneCountInString(p))
		}
	}
}

func TestChunkingDegenerateOverlap(t *testing.T) {
	// overlap >= size forces the minimum step of 1.
	pieces := splitChunks("abcd", 2, 5)
	want := []string{"ab", "bc", "cd", "d"}
	if !reflect.DeepEqual(pieces, want) {
		t.Fatalf("got %q want %q", pieces, want)
	}
}

func TestRankOrdersByOverlap(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "wind turbines and solar panels both cut emissions")
	writeDoc(t, dir, "b.txt", "nuclear reactors produce steady baseload power")
	writeDoc(t, dir, "c.txt", "nuclear waste and nuclear accidents worry the public")

	idx, err := NewIndex(dir, 400, 40)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}

	got := idx.Rank("nuclear waste", 3)
	if len(got) != 3 {
		t.Fatalf("expected 3 results, got %d", len(got))
	}
	// c.txt matches both tokens, b.txt one, a.txt none.
	if got[0].Source != "c.txt#chunk0" {
		t.Fatalf("expected c.txt first, got %s", got[0].Source)
	}
	if got[1].Source != "b.txt#chunk0" {
		t.Fatalf("expected b.txt second, got %s", got[1].Source)
	}
}

func TestRankIsDeterministic(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "energy policy background")
	writeDoc(t, dir, "b.txt", "energy policy foreground")

	idx, err := NewIndex(dir, 400, 40)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}

	first := idx.Rank("energy policy", 2)
	for i := 0; i < 10; i++ {
		again := idx.Rank("energy policy", 2)
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("ranking not deterministic: %+v vs %+v", first, again)
		}
	}
	// Equal scores keep snapshot (sorted path) order.
	if first[0].Source != "a.txt#chunk0" {
		t.Fatalf("expected stable tie order, got %s first", first[0].Source)
	}
}

func TestRankStopwordOnlyQuery(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "the better opinion")

	idx, err := NewIndex(dir, 400, 40)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	if toks := queryTokens("I think the better opinion"); len(toks) != 0 {
		t.Fatalf("expected all tokens dropped, got %v", toks)
	}
	// All-zero scores still return chunks in snapshot order.
	got := idx.Rank("I think the better opinion", 3)
	if len(got) != 1 || got[0].Source != "a.txt#chunk0" {
		t.Fatalf("unexpected results: %+v", got)
	}
}

func TestRankSubstringContainment(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "a taxonomy of policy instruments")

	idx, err := NewIndex(dir, 400, 40)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	// "tax" matches inside "taxonomy": containment is substring, not word-boundary.
	got := idx.Rank("tax", 1)
	if len(got) != 1 {
		t.Fatalf("expected a substring match, got %d results", len(got))
	}
	if score := overlapScore([]string{"tax"}, "a taxonomy of policy instruments"); score != 1 {
		t.Fatalf("expected score 1, got %d", score)
	}
}

func TestAddDocumentAndClear(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "corpora")
	idx, err := NewIndex(dir, 400, 40)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}

	name, err := idx.AddDocument("hydro dams flood river valleys")
	if err != nil {
		t.Fatalf("AddDocument: %v", err)
	}
	if !strings.HasPrefix(name, "doc-") || !strings.HasSuffix(name, ".txt") {
		t.Fatalf("unexpected generated name: %s", name)
	}
	if idx.Size() != 1 {
		t.Fatalf("expected 1 chunk after add, got %d", idx.Size())
	}
	if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
		t.Fatalf("document not persisted: %v", err)
	}

	idx.Clear()
	if idx.Size() != 0 {
		t.Fatalf("expected empty snapshot after clear, got %d", idx.Size())
	}
	if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
		t.Fatalf("expected file removed, stat err: %v", err)
	}
}

func TestRankLimitTruncation(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", "carbon pricing")
	writeDoc(t, dir, "b.txt", "carbon capture")
	writeDoc(t, dir, "c.txt", "carbon offsets")
	writeDoc(t, dir, "d.txt", "carbon budgets")

	idx, err := NewIndex(dir, 400, 40)
	if err != nil {
		t.Fatalf("NewIndex: %v", err)
	}
	if got := idx.Rank("carbon", 2); len(got) != 2 {
		t.Fatalf("expected limit 2 respected, got %d", len(got))
	}
	if got := idx.Rank("carbon", 0); len(got) != 3 {
		t.Fatalf("expected default limit 3, got %d", len(got))
	}
}
