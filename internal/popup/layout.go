package popup

import "unicode/utf8"

const ellipsis = "…"

// truncate shortens text to maxWidth runes, ending in an ellipsis when cut.
// maxWidth <= 0 means unlimited.
func truncate(text string, maxWidth int) string {
	if maxWidth <= 0 || utf8.RuneCountInString(text) <= maxWidth {
		return text
	}
	if maxWidth == 1 {
		return ellipsis
	}
	runes := []rune(text)
	return string(runes[:maxWidth-1]) + ellipsis
}

// viewportOffset returns the first visible row that keeps selected on
// screen, keeping it roughly centered.
func viewportOffset(selected, total, visible int) int {
	if visible <= 0 || total <= visible {
		return 0
	}
	offset := max(selected-visible/2, 0)
	return min(offset, total-visible)
}
