package ticketing

import (
	"context"
	"testing"

	"github.com/Jacobbrewer1/ticketpanel/pkg/dataaccess"
	"github.com/Jacobbrewer1/ticketpanel/pkg/entities"
	"github.com/Jacobbrewer1/ticketpanel/pkg/events"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T {
	return &v
}

func TestRegistry_CreateOrLoadPanel_DefaultNotPersisted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.registry.CreateOrLoadPanel(ctx, guildG)
	require.NoError(t, err)
	require.Equal(t, entities.DefaultPanelTitle, p.Embed.Title)
	require.Equal(t, entities.DefaultPanelColor, p.Embed.Color)
	require.Empty(t, p.Options)
	require.Empty(t, p.CategoryID)

	_, err = f.store.LoadPanel(ctx, guildG)
	require.ErrorIs(t, err, dataaccess.ErrNotFound)
}

func TestRegistry_SetEmbed(t *testing.T) {
	tests := []struct {
		name  string
		color string
		want  int
	}{
		{name: "hash", color: "#3498db", want: 0x3498db},
		{name: "bare", color: "3498db", want: 0x3498db},
		{name: "0x", color: "0x3498DB", want: 0x3498db},
		{name: "invalid falls back", color: "blue", want: entities.DefaultPanelColor},
		{name: "too long falls back", color: "#1234567", want: entities.DefaultPanelColor},
		{name: "empty falls back", color: "", want: entities.DefaultPanelColor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()

			p, err := f.registry.CreateOrLoadPanel(ctx, guildG)
			require.NoError(t, err)

			err = f.registry.SetEmbed(ctx, p, EmbedFields{
				Title:    ptr("Shop"),
				Color:    ptr(tt.color),
				ImageURL: ptr("not a url"),
			})
			require.NoError(t, err)
			require.Equal(t, tt.want, p.Embed.Color)

			stored, err := f.store.LoadPanel(ctx, guildG)
			require.NoError(t, err)
			require.Equal(t, "Shop", stored.Embed.Title)
			require.Equal(t, entities.DefaultPanelDescription, stored.Embed.Description)
			require.Equal(t, "not a url", stored.Embed.ImageURL)
			require.Equal(t, tt.want, stored.Embed.Color)
		})
	}
}

func TestRegistry_AddOption_Validation(t *testing.T) {
	tests := []struct {
		name  string
		label string
		emoji string
		role  string
	}{
		{name: "empty label", label: " ", emoji: "💸", role: roleR},
		{name: "bad emoji", label: "Sell", emoji: "not-an-emoji", role: roleR},
		{name: "half custom emoji", label: "Sell", emoji: "<:coin:123456789012345678", role: roleR},
		{name: "missing role", label: "Sell", emoji: "💸", role: ""},
		{name: "duplicate label", label: "Buy", emoji: "🛒", role: roleR},
		{name: "duplicate label other case", label: "BUY", emoji: "🛒", role: roleR},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			ctx := context.Background()
			p := f.buyPanel(t)

			err := f.registry.AddOption(ctx, p, tt.label, tt.emoji, tt.role)
			requireKind(t, err, ErrValidation)

			require.Len(t, p.Options, 1)
			stored, err := f.store.LoadPanel(ctx, guildG)
			require.NoError(t, err)
			require.Len(t, stored.Options, 1)
			require.Equal(t, "Buy", stored.Options[0].Label)
		})
	}
}

func TestRegistry_AddOption_CustomEmoji(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.buyPanel(t)

	require.NoError(t, f.registry.AddOption(ctx, p, "Support", "<a:wave:123456789012345678>", "support"))

	stored, err := f.store.LoadPanel(ctx, guildG)
	require.NoError(t, err)
	require.Len(t, stored.Options, 2)
	require.Equal(t, entities.Emoji{Name: "wave", ID: "123456789012345678", Animated: true}, stored.Options[1].Emoji)
}

func TestRegistry_AddOption_Limit(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.registry.CreateOrLoadPanel(ctx, guildG)
	require.NoError(t, err)
	for i := 0; i < entities.MaxPanelOptions; i++ {
		require.NoError(t, f.registry.AddOption(ctx, p, "Option "+string(rune('A'+i)), "🎫", roleR))
	}

	err = f.registry.AddOption(ctx, p, "One too many", "🎫", roleR)
	requireKind(t, err, ErrValidation)
	require.Len(t, p.Options, entities.MaxPanelOptions)
}

func TestRegistry_RemoveOption(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.buyPanel(t)

	err := f.registry.RemoveOption(ctx, p, "Refund")
	requireKind(t, err, ErrOptionNotFound)

	require.NoError(t, f.registry.RemoveOption(ctx, p, "buy"))
	require.Empty(t, p.Options)

	stored, err := f.store.LoadPanel(ctx, guildG)
	require.NoError(t, err)
	require.Empty(t, stored.Options)
}

func TestRegistry_SetCategory_NotValidated(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.registry.CreateOrLoadPanel(ctx, guildG)
	require.NoError(t, err)
	require.NoError(t, f.registry.SetCategory(ctx, p, "does-not-exist"))

	stored, err := f.store.LoadPanel(ctx, guildG)
	require.NoError(t, err)
	require.Equal(t, "does-not-exist", stored.CategoryID)
}

func TestRegistry_Publish(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.buyPanel(t)

	messageID, err := f.registry.Publish(ctx, p, "panel-channel")
	require.NoError(t, err)
	require.NotEmpty(t, messageID)

	stored, err := f.store.LoadPanel(ctx, guildG)
	require.NoError(t, err)
	require.Equal(t, "panel-channel", stored.ChannelID)
	require.Equal(t, messageID, stored.MessageID)

	ch := f.platform.Channel("panel-channel")
	require.Len(t, ch.Messages, 1)
	content := ch.Messages[0].Content
	require.Equal(t, PanelSelectID, content.Select.CustomID)
	require.Len(t, content.Select.Options, 1)
	require.Equal(t, "Buy", content.Select.Options[0].Value)
	require.Equal(t, "💸", content.Select.Options[0].Emoji.Name)

	f.publisher.AssertCalled(t, "Publish", mock.Anything, mock.MatchedBy(func(e *events.Event) bool {
		return e.Type == events.TypePanelPublished && e.ChannelID == "panel-channel"
	}))
}

func TestRegistry_Publish_Requirements(t *testing.T) {
	t.Run("no options", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		p, err := f.registry.CreateOrLoadPanel(ctx, guildG)
		require.NoError(t, err)
		require.NoError(t, f.registry.SetCategory(ctx, p, categoryC))

		_, err = f.registry.Publish(ctx, p, "panel-channel")
		requireKind(t, err, ErrValidation)
	})

	t.Run("category required", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		p := f.buyPanel(t)
		require.NoError(t, f.registry.SetCategory(ctx, p, ""))

		_, err := f.registry.Publish(ctx, p, "panel-channel")
		requireKind(t, err, ErrConfiguration)
		require.Empty(t, f.platform.Channel("panel-channel").Messages)
	})

	t.Run("guild category is enough", func(t *testing.T) {
		f := newFixture(t)
		ctx := context.Background()

		p := f.buyPanel(t)
		require.NoError(t, f.registry.SetCategory(ctx, p, ""))
		require.NoError(t, f.registry.Configure(ctx, &entities.GuildConfig{GuildID: guildG, CategoryID: categoryC}))

		_, err := f.registry.Publish(ctx, p, "panel-channel")
		require.NoError(t, err)
	})

	t.Run("category optional", func(t *testing.T) {
		f := newFixture(t)
		f.policy.RequireCategory = false
		ctx := context.Background()

		p := f.buyPanel(t)
		require.NoError(t, f.registry.SetCategory(ctx, p, ""))

		_, err := f.registry.Publish(ctx, p, "panel-channel")
		require.NoError(t, err)
	})

	t.Run("missing channel", func(t *testing.T) {
		f := newFixture(t)
		p := f.buyPanel(t)

		_, err := f.registry.Publish(context.Background(), p, "gone")
		requireKind(t, err, ErrNotFound)
	})
}

func TestRegistry_Refresh(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.buyPanel(t)

	err := f.registry.Refresh(ctx, p)
	requireKind(t, err, ErrNotFound)

	messageID, err := f.registry.Publish(ctx, p, "panel-channel")
	require.NoError(t, err)

	// Another handler changes the panel, this copy is stale.
	other, err := f.registry.CreateOrLoadPanel(ctx, guildG)
	require.NoError(t, err)
	require.NoError(t, f.registry.AddOption(ctx, other, "Help", "🛠️", "support"))

	require.NoError(t, f.registry.Refresh(ctx, p))
	require.Len(t, p.Options, 2)

	msg := f.platform.Channel("panel-channel").Messages[0]
	require.Equal(t, messageID, msg.ID)
	require.Equal(t, 1, msg.Edits)
	require.Len(t, msg.Content.Select.Options, 2)

	// The message was deleted by hand.
	f.platform.DeleteMessage("panel-channel", messageID)
	err = f.registry.Refresh(ctx, p)
	requireKind(t, err, ErrNotFound)
}

func TestRegistry_Configure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.registry.Configure(ctx, &entities.GuildConfig{GuildID: guildG, CategoryID: "nope"})
	requireKind(t, err, ErrValidation)

	cfg, err := f.registry.GuildConfig(ctx, guildG)
	require.NoError(t, err)
	require.Nil(t, cfg)

	want := &entities.GuildConfig{GuildID: guildG, CategoryID: categoryC, LogChannelID: "logs", StaffRoleID: "staff"}
	require.NoError(t, f.registry.Configure(ctx, want))

	cfg, err = f.registry.GuildConfig(ctx, guildG)
	require.NoError(t, err)
	require.Equal(t, want, cfg)
}
