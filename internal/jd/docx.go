package jd

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/nguyenthenguyen/docx"
)

var (
	paragraphCloseRe = regexp.MustCompile(`</w:p>`)
	xmlTagRe         = regexp.MustCompile(`<[^>]+>`)
)

// ExtractDocxText pulls the plain text out of a .docx file. Word stores the
// document as XML; paragraph boundaries become newlines and all other markup
// is dropped.
func ExtractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read docx: %w", err)
	}
	defer doc.Close()

	content := doc.Editable().GetContent()
	content = paragraphCloseRe.ReplaceAllString(content, "\n")
	content = xmlTagRe.ReplaceAllString(content, "")
	content = strings.ReplaceAll(content, "&amp;", "&")
	content = strings.ReplaceAll(content, "&lt;", "<")
	content = strings.ReplaceAll(content, "&gt;", ">")
	content = strings.ReplaceAll(content, "&quot;", `"`)
	content = strings.ReplaceAll(content, "&apos;", "'")

	text := strings.TrimSpace(content)
	if text == "" {
		return "", fmt.Errorf("document contains no text")
	}
	return text, nil
}
