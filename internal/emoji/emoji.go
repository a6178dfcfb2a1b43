package emoji

import "strconv"

// emojiMap holds [emoji, fallback] pairs
var emojiMap = map[string][2]string{
	"error":      {"❌", "[ERR]"},
	"warning":    {"⚠️", "[WRN]"},
	"success":    {"✅", "[OK]"},
	"insight":    {"💡", "[INS]"},
	"statistics": {"📊", "[STATS]"},
	"help":       {"❓", "[?]"},
	"target":     {"🎯", "[>]"},
	"door":       {"🚪", "[EXIT]"},
	"eye":        {"👁️", "[EYE]"},
	"file":       {"📄", "[FILE]"},
	"folder":     {"📁", "[DIR]"},
	"cluster":    {"🔵", "[GRP]"},
	"chart":      {"📈", "[CHART]"},
	"radar":      {"🕸️", "[RADAR]"},
	"watch":      {"👀", "[WATCH]"},
	"left":       {"◀", "<"},
	"right":      {"▶", ">"},
}

var emojiDisabled bool

// SetEmojiDisabled sets the global emoji disabled state
func SetEmojiDisabled(disabled bool) {
	emojiDisabled = disabled
}

// IsEmojiDisabled returns the current emoji disabled state
func IsEmojiDisabled() bool {
	return emojiDisabled
}

// GetEmoji returns emoji or fallback based on no-emoji setting
func GetEmoji(key string) string {
	if mapping, exists := emojiMap[key]; exists {
		if emojiDisabled {
			return mapping[1]
		}
		return mapping[0]
	}
	return "[?]"
}

// ClusterMarker returns a colored dot for cluster i, or its number when
// emoji are disabled
func ClusterMarker(i int) string {
	markers := []string{"🔵", "🟢", "🟠", "🟣", "🔴", "🟡"}
	if i < 0 {
		i = -i
	}
	if emojiDisabled {
		return "[" + strconv.Itoa(i+1) + "]"
	}
	return markers[i%len(markers)]
}
