package engine

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// CleanCaptionText turns a raw timedtext line into plain text.
// Entities are decoded (YouTube double-escapes them), inline markup such as
// <font> or <i> is dropped, and whitespace runs collapse to one space.
// A "<" that never closes with ">" is literal text and is kept.
func CleanCaptionText(s string) string {
	// Decode once so that "&lt;i&gt;" becomes a real tag the tokenizer can drop.
	s = html.UnescapeString(s)

	var sb strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for done := false; !done; {
		switch z.Next() {
		case html.TextToken:
			sb.Write(z.Text())
		case html.ErrorToken:
			// An unterminated tag ends the input; its raw bytes are still text.
			if z.Err() == io.EOF {
				sb.WriteString(html.UnescapeString(string(z.Raw())))
			}
			done = true
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
