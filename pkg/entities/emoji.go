package entities

import (
	"errors"
	"fmt"
	"regexp"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidEmoji is returned when an emoji is neither unicode nor a custom emoji reference.
var ErrInvalidEmoji = errors.New("invalid emoji")

var (
	// customEmojiRegex matches the <:name:id> and <a:name:id> references Discord renders.
	customEmojiRegex = regexp.MustCompile(`^<(a)?:([A-Za-z0-9_~]{2,32}):([0-9]{15,21})>$`)

	// bareEmojiRegex matches name:id, :name:id and a:name:id.
	bareEmojiRegex = regexp.MustCompile(`^(?:(a)?:)?([A-Za-z0-9_~]{2,32}):([0-9]{15,21})$`)
)

const (
	zeroWidthJoiner   = '\u200d'
	variationSelector = '\ufe0f'
	keycapCombining   = '\u20e3'
)

// Emoji is the single canonical emoji representation. Unicode emoji only have a Name, custom emoji also carry their
// ID.
type Emoji struct {
	// Name is the unicode emoji itself, or the name of a custom emoji.
	Name string `json:"name" bson:"name"`

	// ID is the snowflake of a custom emoji. Empty for unicode emoji.
	ID string `json:"id,omitempty" bson:"id,omitempty"`

	// Animated is whether the custom emoji is animated.
	Animated bool `json:"animated,omitempty" bson:"animated,omitempty"`
}

// ParseEmoji validates and parses a unicode emoji or custom emoji reference.
func ParseEmoji(s string) (Emoji, error) {
	if s == "" {
		return Emoji{}, fmt.Errorf("%w: empty", ErrInvalidEmoji)
	}

	re := bareEmojiRegex
	if s[0] == '<' || s[len(s)-1] == '>' {
		re = customEmojiRegex
	}

	if m := re.FindStringSubmatch(s); m != nil {
		return Emoji{
			Name:     m[2],
			ID:       m[3],
			Animated: m[1] == "a",
		}, nil
	}

	if !isUnicodeEmoji(s) {
		return Emoji{}, fmt.Errorf("%w: %q", ErrInvalidEmoji, s)
	}
	return Emoji{Name: s}, nil
}

// IsCustom is whether the emoji is a custom guild emoji.
func (e Emoji) IsCustom() bool {
	return e.ID != ""
}

// String renders the emoji the way the chat platform expects it in message content.
func (e Emoji) String() string {
	if !e.IsCustom() {
		return e.Name
	}
	if e.Animated {
		return fmt.Sprintf("<a:%s:%s>", e.Name, e.ID)
	}
	return fmt.Sprintf("<:%s:%s>", e.Name, e.ID)
}

// isUnicodeEmoji reports whether s is a single emoji, including ZWJ sequences, flags and keycaps.
func isUnicodeEmoji(s string) bool {
	if !utf8.ValidString(s) {
		return false
	}

	runes := []rune(s)
	if len(runes) > 16 {
		return false
	}

	// Keycaps: 0-9, # or * followed by an optional variation selector and the combining keycap.
	if last := runes[len(runes)-1]; last == keycapCombining {
		first := runes[0]
		return len(runes) <= 3 && (unicode.IsDigit(first) || first == '#' || first == '*')
	}

	// Flags are exactly two regional indicators.
	if isRegionalIndicator(runes[0]) {
		return len(runes) == 2 && isRegionalIndicator(runes[1])
	}

	expectEmoji := true
	for _, r := range runes {
		switch {
		case r == zeroWidthJoiner:
			if expectEmoji {
				return false
			}
			expectEmoji = true
		case r == variationSelector || isSkinTone(r) || isTag(r):
			if expectEmoji {
				return false
			}
		case isEmojiRune(r):
			if !expectEmoji {
				return false
			}
			expectEmoji = false
		default:
			return false
		}
	}
	return !expectEmoji
}

func isRegionalIndicator(r rune) bool {
	return r >= 0x1F1E6 && r <= 0x1F1FF
}

func isSkinTone(r rune) bool {
	return r >= 0x1F3FB && r <= 0x1F3FF
}

func isTag(r rune) bool {
	return r >= 0xE0020 && r <= 0xE007F
}

func isEmojiRune(r rune) bool {
	switch {
	case r >= 0x1F000 && r <= 0x1FAFF:
		return !isRegionalIndicator(r) && !isSkinTone(r)
	case r >= 0x2600 && r <= 0x27BF: // Misc symbols and dingbats.
		return true
	case r >= 0x2300 && r <= 0x23FF: // Misc technical.
		return true
	case r >= 0x2B00 && r <= 0x2BFF:
		return true
	case r >= 0x2190 && r <= 0x21FF: // Arrows.
		return true
	case r >= 0x2930 && r <= 0x2935:
		return true
	case r == 0x00A9 || r == 0x00AE || r == 0x203C || r == 0x2049 || r == 0x2122 || r == 0x2139:
		return true
	case r >= 0x24C2 && r <= 0x25FF:
		return true
	case r == 0x3030 || r == 0x303D || r == 0x3297 || r == 0x3299:
		return true
	}
	return false
}
