// Package messages holds the user facing text the bot replies with.
package messages

const (
	// ErrUserErrorProcessing is shown when something unexpected went wrong.
	ErrUserErrorProcessing = "There was an error processing your request, please try again later."

	// ErrAdminOnly is shown when a non administrator runs an administrator command.
	ErrAdminOnly = "You must be an administrator to use this command."

	// ErrNotTicketChannel is shown when a ticket command is used outside of a ticket.
	ErrNotTicketChannel = "This is not a ticket channel."

	// ErrSlowDown is shown when a member opens tickets too quickly.
	ErrSlowDown = "You are doing that too quickly, please wait a moment."

	// ErrFollowUpTimeout is shown when the admin did not answer a follow up in time.
	ErrFollowUpTimeout = "Timed out waiting for a channel mention. Please run the command again."

	// ErrNoChannelMentioned is shown when the follow up did not mention a channel.
	ErrNoChannelMentioned = "No channel was mentioned. Please run the command again."

	// MentionChannelPrompt asks the admin to mention the channel the panel should be posted in.
	MentionChannelPrompt = "Mention the channel where the ticket panel should be sent."
)
