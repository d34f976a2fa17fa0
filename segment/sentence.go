package segment

import "regexp"

// sentenceEnd matches CJK and ASCII sentence-terminating punctuation.
var sentenceEnd = regexp.MustCompile(`[。！？.!?]`)

// SplitSentences splits text into punctuation-terminated fragments.
// Terminal punctuation stays on the fragment it closes, a trailing
// unterminated run becomes the final fragment, and no fragment is empty.
// Joining the fragments in order reproduces the input exactly, whitespace
// included.
func SplitSentences(text string) []string {
	var sentences []string
	last := 0
	for _, loc := range sentenceEnd.FindAllStringIndex(text, -1) {
		sentences = append(sentences, text[last:loc[1]])
		last = loc[1]
	}
	if last < len(text) {
		sentences = append(sentences, text[last:])
	}
	return sentences
}
