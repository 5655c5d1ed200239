package service

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	markdownEngine = goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.Table),
		goldmark.WithRendererOptions(goldmarkhtml.WithHardWraps(), goldmarkhtml.WithXHTML()),
	)
	contentSanitizer = bluemonday.UGCPolicy()
	textStripper     = bluemonday.StrictPolicy()
)

// RenderMarkdown 将 Markdown 渲染为净化后的 HTML。
func RenderMarkdown(content string) (string, error) {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return "", err
	}
	return contentSanitizer.Sanitize(buf.String()), nil
}

// PlainTextExcerpt 将 Markdown 渲染后剥离全部标签，
// 折叠空白并按字符数截断，截断时追加省略号。
func PlainTextExcerpt(content string, limit int) string {
	var buf bytes.Buffer
	if err := markdownEngine.Convert([]byte(content), &buf); err != nil {
		return ""
	}

	text := html.UnescapeString(textStripper.Sanitize(buf.String()))
	text = strings.Join(strings.Fields(text), " ")

	if limit <= 0 {
		return text
	}

	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
