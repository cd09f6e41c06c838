package corpus

import "strings"

// FormatContext turns ranked chunks into a prompt-ready evidence bundle plus
// a parallel citation list. Blocks keep the input order; an empty input
// yields an empty bundle and no citations.
func FormatContext(chunks []Chunk) (string, []string) {
	if len(chunks) == 0 {
		return "", nil
	}
	blocks := make([]string, 0, len(chunks))
	citations := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		citations = append(citations, ch.Source)
		blocks = append(blocks, "Source: "+ch.Source+"\n"+strings.TrimSpace(ch.Content))
	}
	return strings.Join(blocks, "\n\n"), citations
}
