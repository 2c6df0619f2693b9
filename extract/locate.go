package extract

import (
	"regexp"
	"strings"
)

// chainageWindow is how many characters before a keyword occurrence are
// scanned for a chainage label. Tuned to the source report layout.
const chainageWindow = 150

var labelPattern = regexp.MustCompile(`\d+\+\d+`)

// LocateChainage finds the chainage label nearest before an occurrence of the
// intervention key. Occurrences are tried in order; the first window that
// contains a "<km>+<m>" label wins. Used only for map annotation, so not
// finding one is fine.
func LocateChainage(key, text string) (string, bool) {
	lowerText := strings.ToLower(text)
	lowerKey := strings.ToLower(key)
	if lowerKey == "" {
		return "", false
	}

	from := 0
	for {
		i := strings.Index(lowerText[from:], lowerKey)
		if i < 0 {
			return "", false
		}
		at := from + i

		start := at - chainageWindow
		if start < 0 {
			start = 0
		}
		if label := labelPattern.FindString(lowerText[start:at]); label != "" {
			return label, true
		}
		from = at + len(lowerKey)
	}
}
