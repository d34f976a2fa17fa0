package input

import (
	"bytes"
	"net/url"
	"strings"
	"unicode/utf8"

	readability "github.com/go-shiori/go-readability"
)

// HTMLReader extracts readable article text from HTML using readability,
// falling back to a simple tag strip when extraction fails.
type HTMLReader struct{}

var _ Reader = HTMLReader{}

func (HTMLReader) Read(content []byte) (string, error) {
	pageURL := &url.URL{Scheme: "https", Host: "localhost"}
	article, err := readability.FromReader(bytes.NewReader(content), pageURL)
	if err == nil && strings.TrimSpace(article.TextContent) != "" {
		return strings.TrimSpace(article.TextContent), nil
	}
	return stripTags(string(content)), nil
}

// stripTags removes tags and the contents of script/style elements. It is a
// crude fallback, not an HTML parser.
func stripTags(content string) string {
	var out strings.Builder
	out.Grow(len(content))

	inTag := false
	skipUntil := "" // closing tag whose content is being discarded
	var tag strings.Builder

	i := 0
	for i < len(content) {
		r, size := utf8.DecodeRuneInString(content[i:])

		if r == '<' {
			inTag = true
			tag.Reset()
			i += size
			continue
		}
		if inTag {
			if r == '>' {
				inTag = false
				name := strings.ToLower(strings.TrimSpace(tag.String()))
				name = strings.TrimSuffix(name, "/")
				switch {
				case skipUntil == "" && (name == "script" || name == "style"):
					skipUntil = "/" + name
				case name == skipUntil:
					skipUntil = ""
				}
			} else {
				tag.WriteRune(r)
			}
			i += size
			continue
		}
		if skipUntil == "" {
			out.WriteRune(r)
		}
		i += size
	}
	return strings.TrimSpace(out.String())
}
