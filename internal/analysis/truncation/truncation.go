// Package truncation holds text heuristics for detecting and repairing
// model answers cut off by token limits.
package truncation

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// EndMarker is the terminator continuation prompts ask for, so a finished
// answer can be told apart from one that ran out of tokens.
const EndMarker = "[END]"

var (
	listTargetRe = regexp.MustCompile(`top\s+(\d+)`)
	listItemRe   = regexp.MustCompile(`(?m)^\s*(\d+)\.`)
)

// LooksComplete reports whether text reads as a finished answer. Empty
// output, an explicit end marker, and terminal punctuation all count;
// anything ending mid-sentence does not.
func LooksComplete(text string) bool {
	if text == "" {
		return true
	}
	tail := strings.TrimRightFunc(text, unicode.IsSpace)
	if strings.Contains(tail, EndMarker) {
		return true
	}
	return strings.HasSuffix(tail, ".") || strings.HasSuffix(tail, "!") || strings.HasSuffix(tail, "?")
}

// ListTarget extracts N from a "top N" style request.
func ListTarget(prompt string) (int, bool) {
	m := listTargetRe.FindStringSubmatch(strings.ToLower(prompt))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// LastListIndex returns the highest numbered item ("3.") found at a line
// start in text, or 0 when text holds no numbered list.
func LastListIndex(text string) int {
	highest := 0
	for _, m := range listItemRe.FindAllStringSubmatch(text, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > highest {
			highest = n
		}
	}
	return highest
}

// MergeContinuation appends continuation to base, dropping the overlap where
// the model restarted from text it had already produced.
func MergeContinuation(base, continuation string) string {
	cont := strings.TrimSpace(continuation)
	if cont == "" {
		return base
	}
	trimmed := strings.TrimRightFunc(base, unicode.IsSpace)
	if trimmed == "" {
		return cont
	}

	baseRunes := []rune(strings.ToLower(trimmed))
	contRunes := []rune(strings.ToLower(cont))

	tail := baseRunes
	if len(tail) > 100 {
		tail = tail[len(tail)-100:]
	}
	head := contRunes
	if len(head) > 100 {
		head = head[:100]
	}

	if !strings.Contains(string(head), string(tail)) && !strings.Contains(string(tail), string(head)) {
		return trimmed + "\n\n" + cont
	}

	maxOverlap := len(contRunes)
	if maxOverlap > 200 {
		maxOverlap = 200
	}
	for i := 50; i < maxOverlap; i++ {
		if len(baseRunes) < i {
			break
		}
		if string(baseRunes[len(baseRunes)-i:]) == string(contRunes[:i]) {
			return trimmed + string([]rune(cont)[i:])
		}
	}

	return base + cont
}
