package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// maxMessageRunes caps messages taken from text bodies; proxies return whole pages.
const maxMessageRunes = 300

// ErrorMessage derives a human-readable message from a non-2xx response body.
// The chain is: JSON "message", JSON "error", markup-stripped text, "<status> <status text>".
func ErrorMessage(status int, body []byte) string {
	return ResponseMessage(status, "", body)
}

// ResponseMessage is ErrorMessage with the status line the server sent, as in
// http.Response.Status. Its reason phrase wins over the standard status text.
func ResponseMessage(status int, reason string, body []byte) string {
	trimmed := bytes.TrimSpace(body)

	if len(trimmed) > 0 && json.Valid(trimmed) {
		if msg := jsonMessage(trimmed); msg != "" {
			return msg
		}
		return statusLine(status, reason)
	}

	if text := stripMarkup(trimmed); text != "" {
		return truncateRunes(text, maxMessageRunes)
	}
	return statusLine(status, reason)
}

func jsonMessage(body []byte) string {
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}
	for _, key := range []string{"message", "error"} {
		if s, ok := fields[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// stripMarkup returns the visible text of an HTML or plain-text body with whitespace collapsed.
func stripMarkup(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var b strings.Builder
	hidden := 0
	z := html.NewTokenizer(bytes.NewReader(body))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			if hidden == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken:
			if isHiddenElement(z) {
				hidden++
			}
			b.WriteByte(' ')
		case html.EndTagToken:
			if isHiddenElement(z) && hidden > 0 {
				hidden--
			}
			b.WriteByte(' ')
		case html.SelfClosingTagToken:
			b.WriteByte(' ')
		}
	}
}

func isHiddenElement(z *html.Tokenizer) bool {
	name, _ := z.TagName()
	switch atom.Lookup(name) {
	case atom.Script, atom.Style, atom.Noscript, atom.Template:
		return true
	}
	return false
}

func statusLine(status int, reason string) string {
	code := strconv.Itoa(status)
	reason = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(reason), code))
	if reason == "" {
		reason = http.StatusText(status)
	}
	return strings.TrimSpace(code + " " + reason)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}
