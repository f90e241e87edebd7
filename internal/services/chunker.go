package services

import (
	"strings"
	"unicode/utf8"
)

type TextChunker interface {
	ChunkText(text string, maxChunkSize int, overlap int) []string
}

type textChunker struct{}

func NewTextChunker() TextChunker {
	return &textChunker{}
}

// ChunkText packs paragraphs (or sentences of oversized paragraphs) into
// chunks of at most maxChunkSize runes, each chunk starting with the last
// overlap runes of the previous one.
func (tc *textChunker) ChunkText(text string, maxChunkSize int, overlap int) []string {
	if maxChunkSize <= 0 {
		maxChunkSize = 1000
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= maxChunkSize {
		overlap = maxChunkSize / 4
	}

	var (
		chunks  []string
		current strings.Builder
	)

	flush := func() {
		if current.Len() == 0 {
			return
		}
		chunk := current.String()
		chunks = append(chunks, chunk)
		current.Reset()
		if tail := lastRunes(chunk, overlap); tail != "" {
			current.WriteString(tail)
		}
	}

	add := func(piece, sep string) {
		size := utf8.RuneCountInString(current.String())
		if size > 0 && size+utf8.RuneCountInString(sep+piece) > maxChunkSize {
			flush()
			// Drop the overlap when it leaves no room for the piece.
			if utf8.RuneCountInString(current.String()+sep+piece) > maxChunkSize {
				current.Reset()
			}
		}
		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(piece)
	}

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if utf8.RuneCountInString(para) <= maxChunkSize {
			add(para, "\n\n")
			continue
		}

		window := maxChunkSize - overlap - 1
		if window < 1 {
			window = 1
		}
		for _, sentence := range splitIntoSentences(para) {
			for _, piece := range splitRunes(sentence, window) {
				add(piece, " ")
			}
		}
	}

	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}

	return chunks
}

func splitIntoSentences(text string) []string {
	sentences := strings.FieldsFunc(text, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	})

	var result []string
	for _, s := range sentences {
		if s = strings.TrimSpace(s); s != "" {
			result = append(result, s)
		}
	}
	return result
}

// splitRunes cuts text into pieces of at most n runes.
func splitRunes(text string, n int) []string {
	runes := []rune(text)
	if len(runes) <= n {
		return []string{text}
	}

	var pieces []string
	for len(runes) > n {
		pieces = append(pieces, string(runes[:n]))
		runes = runes[n:]
	}
	return append(pieces, string(runes))
}

func lastRunes(text string, n int) string {
	if n <= 0 {
		return ""
	}

	runes := []rune(text)
	if len(runes) <= n {
		return text
	}

	return string(runes[len(runes)-n:])
}
