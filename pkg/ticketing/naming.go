package ticketing

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxChannelName is the longest channel name the platform accepts.
const maxChannelName = 100

// Slug lowercases s and collapses every run of characters that are not letters or digits into a single "-".
// A label with nothing usable in it becomes "ticket".
func Slug(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))

	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && sb.Len() > 0 {
				sb.WriteByte('-')
			}
			dash = false
			sb.WriteRune(r)
			continue
		}
		dash = true
	}

	if sb.Len() == 0 {
		return "ticket"
	}
	return sb.String()
}

// ChannelName is the name of the n-th ticket opened with the option label.
func (p *Policy) ChannelName(label, username string, n int64) string {
	suffix := "-" + strconv.FormatInt(n, 10)

	name := Slug(label)
	if p.Naming == NamingLabelUser && username != "" {
		name += "-" + Slug(username)
	}

	if len(name)+len(suffix) > maxChannelName {
		name = strings.TrimRight(truncateRunes(name, maxChannelName-len(suffix)), "-")
	}
	return name + suffix
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
