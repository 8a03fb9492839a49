package inbox

import "regexp"

// extraInfoBlock matches a single `<extra_info viewer='...'>...</extra_info>`
// block, non-greedily so adjacent blocks are matched independently.
var extraInfoBlock = regexp.MustCompile(`(?s)<extra_info viewer='([^']*)'>(.*?)</extra_info>`)

// Redact strips scenario prose blocks addressed to a viewer other than the
// given one, unwrapping blocks addressed to it (or to "all") into plain text.
// Text outside any <extra_info> block is always kept: only explicitly scoped
// blocks are subject to redaction.
func Redact(text string, viewer string) string {
	return extraInfoBlock.ReplaceAllStringFunc(text, func(block string) string {
		m := extraInfoBlock.FindStringSubmatch(block)
		if m == nil {
			return block
		}
		blockViewer, inner := m[1], m[2]
		if blockViewer == viewer || blockViewer == "all" {
			return inner
		}
		return ""
	})
}

// Full unwraps every viewer-tagged block unconditionally, regardless of which
// viewer it names. It is used where a reader is meant to see the complete
// scenario — the terminal evaluator judging the whole episode, or diagnostic
// tooling — as opposed to Redact's per-participant scoping.
func Full(text string) string {
	return extraInfoBlock.ReplaceAllStringFunc(text, func(block string) string {
		m := extraInfoBlock.FindStringSubmatch(block)
		if m == nil {
			return block
		}
		return m[2]
	})
}
