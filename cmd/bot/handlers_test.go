package main

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/ticketpanel/pkg/entities"
	"github.com/Jacobbrewer1/ticketpanel/pkg/followup"
	"github.com/Jacobbrewer1/ticketpanel/pkg/ticketing"
	"github.com/stretchr/testify/require"
)

func TestTicketList(t *testing.T) {
	require.Equal(t, "There are no open tickets.", ticketList(nil))

	out := ticketList([]*entities.Ticket{
		{ChannelID: "c1", UserID: "U", OptionLabel: "Buy", Number: 1},
		{ChannelID: "c2", UserID: "V", OptionLabel: "Help", Number: 12, ClaimedBy: "S"},
	})
	require.Contains(t, out, "**2 open tickets**")
	require.Contains(t, out, "`#0001` <#c1> Buy by <@U>\n")
	require.Contains(t, out, "`#0012` <#c2> Help by <@V>, claimed by <@S>\n")
}

func TestTicketList_Truncated(t *testing.T) {
	tickets := make([]*entities.Ticket, 200)
	for i := range tickets {
		tickets[i] = &entities.Ticket{ChannelID: "123456789012345678", UserID: "123456789012345678", OptionLabel: "Buy", Number: int64(i + 1)}
	}

	out := ticketList(tickets)
	require.Less(t, len(out), 2000)
	require.Contains(t, out, "more\n")
}

func TestCloseSummary(t *testing.T) {
	tk := &entities.Ticket{UserID: "U", OptionLabel: "Buy", Number: 3}

	out := closeSummary(&ticketing.CloseResult{Ticket: tk, Transcript: []byte("x"), ChannelDeleted: true})
	require.Contains(t, out, "The transcript was sent to <@U>.")

	out = closeSummary(&ticketing.CloseResult{Ticket: tk, Transcript: []byte("x"), DeliveryErr: errors.New("could not be sent")})
	require.Contains(t, out, "could not be sent")
	require.NotContains(t, out, "was sent to")
	require.Contains(t, out, "delete it by hand")
}

func TestPanelSummary(t *testing.T) {
	p := entities.NewPanel("G")
	out := panelSummary(p)
	require.Contains(t, out, "None yet")
	require.Contains(t, out, "**Category**: not set")
	require.Contains(t, out, "not posted yet")

	p.Options = append(p.Options, entities.TicketOption{Label: "Buy", Emoji: entities.Emoji{Name: "💸"}, StaffRoleID: "R"})
	p.CategoryID = "C"
	p.ChannelID = "P"
	p.MessageID = "M"
	out = panelSummary(p)
	require.Contains(t, out, "💸 Buy, handled by <@&R>")
	require.Contains(t, out, "**Category**: <#C>")
	require.Contains(t, out, "**Posted in**: <#P>")
}

func TestConfigSummary(t *testing.T) {
	out := configSummary(&entities.GuildConfig{GuildID: "G", CategoryID: "C", StaffRoleID: "R"})
	require.True(t, strings.HasPrefix(out, "Ticketing configured."))
	require.Contains(t, out, "Category: <#C>")
	require.Contains(t, out, "Log channel: not set")
	require.Contains(t, out, "Staff role: <@&R>")
}

func TestGuildSet(t *testing.T) {
	g := newGuildSet()
	require.True(t, g.add("b"))
	require.True(t, g.add("a"))
	require.False(t, g.add("a"))
	require.Equal(t, []string{"a", "b"}, g.list())

	g.remove("a")
	require.Equal(t, []string{"b"}, g.list())
}

func TestMessageCreateHandler(t *testing.T) {
	a := &App{waiter: followup.NewWaiter(time.Second)}
	h := messageCreateHandler(a)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	got := make(chan *followup.Message, 1)
	go func() {
		m, err := a.waiter.Wait(ctx, "C", "U", nil)
		if err == nil {
			got <- m
		}
		close(got)
	}()
	require.Eventually(t, func() bool { return a.waiter.Pending() == 1 }, time.Second, time.Millisecond)

	// Bots are ignored.
	h(nil, &discordgo.MessageCreate{Message: &discordgo.Message{ChannelID: "C", Author: &discordgo.User{ID: "U", Bot: true}, Content: "<#1>"}})
	require.Equal(t, 1, a.waiter.Pending())

	h(nil, &discordgo.MessageCreate{Message: &discordgo.Message{GuildID: "G", ChannelID: "C", Author: &discordgo.User{ID: "U"}, Content: "<#2>"}})
	m := <-got
	require.NotNil(t, m)
	require.Equal(t, []string{"2"}, m.ChannelMentions())
}
