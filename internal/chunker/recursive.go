package chunker

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/sourabhgrover/org-user-rag/internal/domain"
)

// Default segment sizing, in characters. The overlap keeps facts that span a
// boundary retrievable from at least one side of it.
const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

// defaultSeparators is the layered boundary preference: paragraph, line,
// sentence end, word, and finally a hard character cut.
var defaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

// Splitter cuts text into overlapping segments, preferring the strongest
// separator available inside each window. Splitting is a pure function of
// the input, so re-ingesting the same text reproduces the same chunk ids.
type Splitter struct {
	chunkSize  int
	overlap    int
	separators []string
}

// NewSplitter creates a splitter with the given segment size and overlap.
// Non-positive values fall back to the defaults.
func NewSplitter(chunkSize, overlap int) *Splitter {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap <= 0 || overlap >= chunkSize {
		overlap = DefaultOverlap
		if overlap >= chunkSize {
			overlap = chunkSize / 5
		}
	}
	return &Splitter{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: defaultSeparators,
	}
}

// Split produces the ordered chunk sequence for one document. Chunk ids are
// derived as "{documentID}_chunk_{index}" with a dense 0-based index, so a
// re-ingestion overwrites rather than duplicates. Empty input yields an
// empty sequence, never an error.
func (s *Splitter) Split(text, documentID, organizationID string) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []domain.Chunk
	idx := 0
	for _, segment := range s.splitText(text, s.separators) {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		chunks = append(chunks, domain.Chunk{
			ChunkID:        fmt.Sprintf("%s_chunk_%d", documentID, idx),
			DocumentID:     documentID,
			OrganizationID: organizationID,
			Index:          idx,
			Text:           segment,
			Length:         utf8.RuneCountInString(segment),
		})
		idx++
	}
	return chunks
}

// splitText recursively splits on the strongest separator present in text,
// then merges the pieces back into windows of at most chunkSize characters
// with overlap characters carried between consecutive windows.
func (s *Splitter) splitText(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var deeper []string
	for i, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			separator = sep
			deeper = separators[i+1:]
			break
		}
	}

	if separator == "" {
		return s.hardCut(text)
	}

	var out []string
	var fitting []string
	for _, piece := range strings.Split(text, separator) {
		if utf8.RuneCountInString(piece) < s.chunkSize {
			fitting = append(fitting, piece)
			continue
		}
		// Oversized piece: flush what fits so far, then recurse with the
		// weaker separators.
		if len(fitting) > 0 {
			out = append(out, s.merge(fitting, separator)...)
			fitting = nil
		}
		if len(deeper) == 0 {
			out = append(out, piece)
		} else {
			out = append(out, s.splitText(piece, deeper)...)
		}
	}
	if len(fitting) > 0 {
		out = append(out, s.merge(fitting, separator)...)
	}
	return out
}

// merge packs separator-delimited pieces into windows. When a window is
// full it is emitted, and pieces are dropped from the front until at most
// overlap characters remain to seed the next window.
func (s *Splitter) merge(pieces []string, separator string) []string {
	sepLen := utf8.RuneCountInString(separator)

	var windows []string
	var current []string
	total := 0

	join := func(parts []string) string {
		return strings.TrimSpace(strings.Join(parts, separator))
	}

	for _, piece := range pieces {
		pieceLen := utf8.RuneCountInString(piece)
		extra := 0
		if len(current) > 0 {
			extra = sepLen
		}
		if total+pieceLen+extra > s.chunkSize && len(current) > 0 {
			if w := join(current); w != "" {
				windows = append(windows, w)
			}
			for total > s.overlap || (total+pieceLen+sepLen > s.chunkSize && total > 0) {
				total -= utf8.RuneCountInString(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}
		if len(current) > 0 {
			total += sepLen
		}
		current = append(current, piece)
		total += pieceLen
	}
	if w := join(current); w != "" {
		windows = append(windows, w)
	}
	return windows
}

// hardCut slices text into fixed windows when no separator exists. Windows
// still share overlap characters with their predecessor.
func (s *Splitter) hardCut(text string) []string {
	runes := []rune(text)
	step := s.chunkSize - s.overlap

	var out []string
	for start := 0; start < len(runes); start += step {
		end := start + s.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		out = append(out, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return out
}
