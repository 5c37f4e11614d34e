package ticketing

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Buy", want: "buy"},
		{in: "Bug Report", want: "bug-report"},
		{in: "  Help!! me  ", want: "help-me"},
		{in: "C++ / Go", want: "c-go"},
		{in: "Café", want: "café"},
		{in: "💸💸", want: "ticket"},
		{in: "", want: "ticket"},
		{in: "v2.0", want: "v2-0"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			require.Equal(t, tt.want, Slug(tt.in))
		})
	}
}

func TestPolicy_ChannelName(t *testing.T) {
	label := &Policy{Naming: NamingLabel}
	user := &Policy{Naming: NamingLabelUser}

	require.Equal(t, "buy-1", label.ChannelName("Buy", "alice", 1))
	require.Equal(t, "bug-report-42", label.ChannelName("Bug Report", "alice", 42))
	require.Equal(t, "buy-alice-1", user.ChannelName("Buy", "Alice", 1))
	require.Equal(t, "buy-7", user.ChannelName("Buy", "", 7))
}

func TestPolicy_ChannelName_Truncated(t *testing.T) {
	p := &Policy{Naming: NamingLabelUser}

	name := p.ChannelName(strings.Repeat("é", 80), "alice", 12345)
	require.LessOrEqual(t, len(name), maxChannelName)
	require.True(t, utf8.ValidString(name))
	require.True(t, strings.HasSuffix(name, "-12345"))
	require.NotContains(t, name, "--")
}
