package schema

import (
	"regexp"
	"strings"
)

var (
	scriptBlockRe  = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script>`)
	strayScriptRe  = regexp.MustCompile(`(?i)</?script\b[^>]*>`)
	jsURLRe        = regexp.MustCompile(`(?i)javascript\s*:`)
	eventHandlerRe = regexp.MustCompile(`(?i)\bon[a-z]+\s*=`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
)

// Sanitize renders a validated value safe for embedding in HTML email.
// Active content is stripped before encoding so that mangled script tags
// cannot survive as text that a lenient renderer reassembles.
func Sanitize(value string) string {
	out := scriptBlockRe.ReplaceAllString(value, "")
	out = strayScriptRe.ReplaceAllString(out, "")
	out = jsURLRe.ReplaceAllString(out, "")
	out = eventHandlerRe.ReplaceAllString(out, "")

	// Ampersand first so encoded entities are not double-encoded.
	out = strings.ReplaceAll(out, "&", "&amp;")
	out = strings.ReplaceAll(out, "<", "&lt;")
	out = strings.ReplaceAll(out, ">", "&gt;")
	out = strings.ReplaceAll(out, `"`, "&quot;")
	out = strings.ReplaceAll(out, "'", "&#39;")

	out = stripControl(out)
	out = whitespaceRe.ReplaceAllString(out, " ")
	return strings.TrimSpace(out)
}

// stripControl removes control characters, keeping plain whitespace for the
// collapse pass to normalize.
func stripControl(value string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' || r == ' ' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, value)
}
