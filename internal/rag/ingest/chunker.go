package ingest

import (
	"strings"
	"unicode/utf8"

	"github.com/akolanti/vellum/internal/adapter/utils"
	"github.com/akolanti/vellum/internal/config"
	"github.com/akolanti/vellum/internal/domain/commonModels"
)

// separators ordered from best to worst semantic boundary
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// splitTextIntoChunks cuts text into pieces of at most limit runes. Each
// chunk after the first starts with up to overlap runes from the end of the
// previous one when that still fits.
func splitTextIntoChunks(text string, limit int, overlap int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if limit <= 0 {
		limit = config.DefaultChunkSize
	}
	if overlap < 0 || overlap >= limit {
		overlap = 0
	}
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	currentLen := 0

	for _, piece := range splitRecursive(text, limit, separators) {
		pieceLen := utf8.RuneCountInString(piece)
		if currentLen+pieceLen > limit && currentLen > 0 {
			prev := current.String()
			if strings.TrimSpace(prev) != "" {
				chunks = append(chunks, prev)
			}
			tail := lastRunes(prev, overlap)
			current.Reset()
			currentLen = 0
			if tailLen := utf8.RuneCountInString(tail); tailLen+pieceLen <= limit {
				current.WriteString(tail)
				currentLen = tailLen
			}
		}
		current.WriteString(piece)
		currentLen += pieceLen
	}
	if last := current.String(); strings.TrimSpace(last) != "" {
		chunks = append(chunks, last)
	}
	return chunks
}

// splitRecursive breaks text on the best separator present, keeping the
// separator attached, and recurses into parts that are still too long.
func splitRecursive(text string, limit int, seps []string) []string {
	if utf8.RuneCountInString(text) <= limit {
		return []string{text}
	}
	for i, sep := range seps {
		if sep == "" {
			return hardCut(text, limit)
		}
		if !strings.Contains(text, sep) {
			continue
		}
		var out []string
		for _, part := range strings.SplitAfter(text, sep) {
			if part == "" {
				continue
			}
			if utf8.RuneCountInString(part) > limit {
				out = append(out, splitRecursive(part, limit, seps[i+1:])...)
				continue
			}
			out = append(out, part)
		}
		return out
	}
	return hardCut(text, limit)
}

func hardCut(text string, limit int) []string {
	runes := []rune(text)
	var out []string
	for start := 0; start < len(runes); start += limit {
		end := min(start+limit, len(runes))
		out = append(out, string(runes[start:end]))
	}
	return out
}

func lastRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[len(runes)-n:])
}

// PrepareChunks splits every page and stamps each passage with its provenance.
func PrepareChunks(pages []rawPage, doc commonModels.Document, embeddingModel string, size, overlap int) []commonModels.DocChunk {
	var allChunks []commonModels.DocChunk
	for _, page := range pages {
		for i, text := range splitTextIntoChunks(page.Content, size, overlap) {
			allChunks = append(allChunks, commonModels.DocChunk{
				Doc:            doc,
				ChunkId:        utils.GetNewUUID(),
				Chunk:          text,
				PageLabel:      page.Label,
				ChunkPageOrder: i,
				EmbeddingModel: embeddingModel,
			})
		}
	}
	return allChunks
}
