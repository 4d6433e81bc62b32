package generators

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultChunkLimit is the longest text, in runes, the translate TTS
// endpoint accepts per request
const DefaultChunkLimit = 100

// clauseBreaks end a clause when followed by whitespace or end of text
const clauseBreaks = ".!?;:,"

// SplitText breaks text into chunks of at most limit runes. It prefers
// sentence and clause punctuation, then whitespace, and cuts words only
// when a single word exceeds limit. Whitespace runs are collapsed.
func SplitText(text string, limit int) []string {
	if limit <= 0 {
		limit = DefaultChunkLimit
	}
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	var chunks []string
	current := ""
	for _, clause := range splitClauses(text) {
		for _, part := range fitToLimit(clause, limit) {
			switch {
			case current == "":
				current = part
			case runeLen(current)+1+runeLen(part) <= limit:
				current += " " + part
			default:
				chunks = append(chunks, current)
				current = part
			}
		}
	}
	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

func splitClauses(text string) []string {
	var clauses []string
	start := 0
	for i, r := range text {
		if !strings.ContainsRune(clauseBreaks, r) {
			continue
		}
		end := i + utf8.RuneLen(r)
		if end < len(text) {
			next, _ := utf8.DecodeRuneInString(text[end:])
			if !unicode.IsSpace(next) {
				continue
			}
		}
		if clause := strings.TrimSpace(text[start:end]); clause != "" {
			clauses = append(clauses, clause)
		}
		start = end
	}
	if tail := strings.TrimSpace(text[start:]); tail != "" {
		clauses = append(clauses, tail)
	}
	return clauses
}

// fitToLimit splits a clause longer than limit on whitespace, then cuts
// oversized words
func fitToLimit(clause string, limit int) []string {
	if runeLen(clause) <= limit {
		return []string{clause}
	}

	var parts []string
	current := ""
	for _, word := range strings.Fields(clause) {
		for _, piece := range cutRunes(word, limit) {
			switch {
			case current == "":
				current = piece
			case runeLen(current)+1+runeLen(piece) <= limit:
				current += " " + piece
			default:
				parts = append(parts, current)
				current = piece
			}
		}
	}
	if current != "" {
		parts = append(parts, current)
	}
	return parts
}

func cutRunes(word string, limit int) []string {
	runes := []rune(word)
	if len(runes) <= limit {
		return []string{word}
	}
	var pieces []string
	for len(runes) > limit {
		pieces = append(pieces, string(runes[:limit]))
		runes = runes[limit:]
	}
	if len(runes) > 0 {
		pieces = append(pieces, string(runes))
	}
	return pieces
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
