package pipeline

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// DefaultSeparators are tried in order: paragraphs, lines, words, characters
var DefaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveChunker creates a chunker that splits text on the coarsest separator
// that yields pieces of at most chunkSize characters, then merges neighbouring
// pieces back up to chunkSize with chunkOverlap characters repeated between chunks.
func RecursiveChunker(chunkSize int, chunkOverlap int) ChunkFunc {
	return func(text string) ([]string, error) {
		if chunkSize <= 0 {
			return nil, fmt.Errorf("chunk size must be positive")
		}
		if chunkOverlap < 0 || chunkOverlap >= chunkSize {
			return nil, fmt.Errorf("chunk overlap must be between 0 and chunk size, got %d", chunkOverlap)
		}

		if strings.TrimSpace(text) == "" {
			return []string{}, nil
		}

		s := splitter{size: chunkSize, overlap: chunkOverlap}
		return s.split(text, DefaultSeparators), nil
	}
}

type splitter struct {
	size    int
	overlap int
}

func (s splitter) split(text string, separators []string) []string {
	separator := separators[len(separators)-1]
	var remaining []string
	for i, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			separator = sep
			remaining = separators[i+1:]
			break
		}
	}

	var chunks []string
	var fitting []string
	for _, piece := range strings.Split(text, separator) {
		if piece == "" {
			continue
		}
		if utf8.RuneCountInString(piece) <= s.size {
			fitting = append(fitting, piece)
			continue
		}

		if len(fitting) > 0 {
			chunks = append(chunks, s.merge(fitting, separator)...)
			fitting = nil
		}
		if len(remaining) == 0 {
			chunks = append(chunks, piece)
		} else {
			chunks = append(chunks, s.split(piece, remaining)...)
		}
	}
	if len(fitting) > 0 {
		chunks = append(chunks, s.merge(fitting, separator)...)
	}

	return chunks
}

// merge joins pieces into chunks of at most size characters. When a chunk is
// emitted, pieces are dropped from its front until at most overlap characters
// remain to start the next one.
func (s splitter) merge(pieces []string, separator string) []string {
	sepLen := utf8.RuneCountInString(separator)

	var chunks []string
	var current []string
	total := 0

	for _, piece := range pieces {
		length := utf8.RuneCountInString(piece)
		joinLen := 0
		if len(current) > 0 {
			joinLen = sepLen
		}

		if total+length+joinLen > s.size && len(current) > 0 {
			if chunk := strings.TrimSpace(strings.Join(current, separator)); chunk != "" {
				chunks = append(chunks, chunk)
			}

			for total > s.overlap || (total > 0 && total+length+sepLen > s.size) {
				dropped := utf8.RuneCountInString(current[0])
				if len(current) > 1 {
					dropped += sepLen
				}
				total -= dropped
				current = current[1:]
			}
		}

		current = append(current, piece)
		total += length
		if len(current) > 1 {
			total += sepLen
		}
	}

	if chunk := strings.TrimSpace(strings.Join(current, separator)); chunk != "" {
		chunks = append(chunks, chunk)
	}

	return chunks
}
