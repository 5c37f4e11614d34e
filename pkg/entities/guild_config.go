package entities

// GuildConfig is the ticketing configuration of a guild, set by an administrator.
type GuildConfig struct {
	// GuildID is the ID of the guild.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// CategoryID is the category tickets are created in when the panel does not set one.
	CategoryID string `json:"category_id,omitempty" bson:"category_id,omitempty"`

	// LogChannelID is the channel closed ticket summaries are posted to.
	LogChannelID string `json:"log_channel_id,omitempty" bson:"log_channel_id,omitempty"`

	// StaffRoleID is the role that can handle every ticket in the guild.
	StaffRoleID string `json:"staff_role_id,omitempty" bson:"staff_role_id,omitempty"`
}
