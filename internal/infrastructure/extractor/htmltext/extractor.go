// Package htmltext turns inbound email bodies into plain text ready for
// classification: HTML markup is flattened with a real tokenizer, then
// signatures and quoted replies are stripped.
package htmltext

import (
	"context"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

var signatureMarkers = []string{
	"\n-- \n",
	"\n__________________",
	"\nRegards,",
	"\nBest regards,",
	"\nThanks,",
	"\nThank you,",
	"\nSincerely,",
	"\nCheers,",
}

var quotedTextPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\nOn .* wrote:[\s\S]*`),
	regexp.MustCompile(`\n-+Original Message-+[\s\S]*`),
	regexp.MustCompile(`\n>.*`),
	regexp.MustCompile(`\nFrom:.*\nSent:.*\nTo:.*\nSubject:.*\n[\s\S]*`),
}

var excessBlankLines = regexp.MustCompile(`\n{3,}`)

var blockTags = map[string]bool{
	"p": true, "div": true, "br": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"blockquote": true, "table": true, "ul": true, "ol": true,
}

type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract flattens the body to plain text and strips signatures and quoted
// reply chains. HTML bodies are detected by content type or leading markup.
func (e *Extractor) Extract(_ context.Context, body, contentType string) (string, error) {
	text := body
	if isHTML(body, contentType) {
		text = flattenHTML(body)
	}
	return clean(text), nil
}

func isHTML(body, contentType string) bool {
	if strings.Contains(strings.ToLower(contentType), "html") {
		return true
	}
	trimmed := strings.TrimSpace(body)
	return strings.HasPrefix(trimmed, "<") && strings.Contains(trimmed, ">")
}

func flattenHTML(raw string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(raw))
	var b strings.Builder
	skipDepth := 0

	for {
		tokenType := tokenizer.Next()
		switch tokenType {
		case html.ErrorToken:
			return b.String()
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				if tokenType == html.StartTagToken {
					skipDepth++
				}
				continue
			}
			if blockTags[tag] {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				if skipDepth > 0 {
					skipDepth--
				}
				continue
			}
			if blockTags[tag] {
				b.WriteByte('\n')
			}
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			b.WriteString(string(tokenizer.Text()))
			b.WriteByte(' ')
		}
	}
}

func clean(content string) string {
	for _, marker := range signatureMarkers {
		if idx := strings.Index(content, marker); idx >= 0 {
			content = content[:idx]
		}
	}
	for _, pattern := range quotedTextPatterns {
		content = pattern.ReplaceAllString(content, "")
	}

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	content = strings.Join(lines, "\n")
	content = excessBlankLines.ReplaceAllString(content, "\n\n")
	return strings.TrimSpace(content)
}
