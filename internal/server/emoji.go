package server

import (
	"errors"
	"strings"
)

const maxHintEmoji = 3

// Base emoji blocks. Modifiers (ZWJ, VS-16, skin tones) are allowed but do
// not count toward the glyph limit.
var emojiBaseRanges = [][2]rune{
	{0x1F600, 0x1F64F}, // emoticons
	{0x1F300, 0x1F5FF}, // misc symbols & pictographs
	{0x1F680, 0x1F6FF}, // transport & map
	{0x1F1E6, 0x1F1FF}, // regional indicators
	{0x2600, 0x26FF},   // misc symbols
	{0x2700, 0x27BF},   // dingbats
	{0x1F900, 0x1F9FF}, // supplemental symbols & pictographs
	{0x1FA70, 0x1FAFF}, // symbols & pictographs extended-A
	{0x2B00, 0x2BFF},   // arrows
	{0x25A0, 0x25FF},   // geometric shapes
}

const (
	zeroWidthJoiner   = rune(0x200D)
	variationSelector = rune(0xFE0F)
	skinToneLow       = rune(0x1F3FB)
	skinToneHigh      = rune(0x1F3FF)
)

var (
	errEmojiRequired = errors.New("an emoji hint is required")
	errEmojiOnly     = errors.New("hints must contain only emoji")
	errEmojiTooMany  = errors.New("hints may contain at most 3 emoji")
)

func isEmojiBase(r rune) bool {
	for _, span := range emojiBaseRanges {
		if r >= span[0] && r <= span[1] {
			return true
		}
	}
	return false
}

func isEmojiModifier(r rune) bool {
	return r == zeroWidthJoiner || r == variationSelector ||
		(r >= skinToneLow && r <= skinToneHigh)
}

// normalizeHintPayload validates that the input is emoji-only with at most
// maxHintEmoji base glyphs and returns the normalized (trimmed) form used
// for storage and cross-player uniqueness checks.
func normalizeHintPayload(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", errEmojiRequired
	}
	baseCount := 0
	for _, r := range trimmed {
		switch {
		case isEmojiBase(r):
			baseCount++
		case isEmojiModifier(r):
		default:
			return "", errEmojiOnly
		}
	}
	if baseCount == 0 {
		return "", errEmojiRequired
	}
	if baseCount > maxHintEmoji {
		return "", errEmojiTooMany
	}
	return trimmed, nil
}
