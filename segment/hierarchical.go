package segment

import (
	"regexp"
	"strings"
	"unicode"
)

// Heading shapes recognized on a trimmed line: Markdown headings, Chinese
// chapter/section markers, enumerated list markers, and parenthesized
// enumerations.
var (
	mdHeadingRe    = regexp.MustCompile(`^#{1,6}\s+`)
	chapterRe      = regexp.MustCompile(`^第[一二三四五六七八九十0-9]+[章节篇]`)
	enumRe         = regexp.MustCompile(`^[一二三四五六七八九十0-9]+[、.．]\s*`)
	parenEnumRe    = regexp.MustCompile(`^（[一二三四五六七八九十0-9]+）`)
	paragraphSepRe = regexp.MustCompile(`\n\s*\n`)
)

// HierarchicalSplitter splits natural-language text into sections by heading
// lines, falling back to blank-line-delimited paragraphs when no line looks
// like a heading. Heading-aware splitting keeps logically related content
// together even when far larger than one sentence; size enforcement is the
// assembler's job.
type HierarchicalSplitter struct{}

// Split returns section or paragraph fragments in document order. An empty
// result tells the caller to fall back to sentence splitting.
func (HierarchicalSplitter) Split(text string) []string {
	lines := splitLines(text)
	for _, line := range lines {
		if isHeading(line) {
			return splitByHeading(lines)
		}
	}
	return splitByParagraph(text)
}

// splitByHeading starts a new section at every heading line; the heading
// line is the first line of its section.
func splitByHeading(lines []string) []string {
	var sections []string
	var buffer []string
	flush := func() {
		if len(buffer) == 0 {
			return
		}
		section := strings.TrimSpace(strings.Join(buffer, "\n"))
		if section != "" {
			sections = append(sections, section)
		}
		buffer = buffer[:0]
	}
	for _, line := range lines {
		if isHeading(line) {
			flush()
		}
		buffer = append(buffer, strings.TrimRightFunc(line, unicode.IsSpace))
	}
	flush()
	return sections
}

func splitByParagraph(text string) []string {
	var paragraphs []string
	for _, p := range paragraphSepRe.Split(text, -1) {
		p = strings.TrimSpace(p)
		if p != "" {
			paragraphs = append(paragraphs, p)
		}
	}
	return paragraphs
}

func isHeading(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return false
	}
	return mdHeadingRe.MatchString(trimmed) ||
		chapterRe.MatchString(trimmed) ||
		enumRe.MatchString(trimmed) ||
		parenEnumRe.MatchString(trimmed)
}
