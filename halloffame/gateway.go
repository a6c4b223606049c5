package halloffame

import (
	"errors"

	"github.com/bwmarrin/discordgo"
)

// Gateway is the slice of the Discord API the hall-of-fame core needs.
// Declared here so the reconciler and sweep can be exercised against a
// fake in tests.
type Gateway interface {
	Message(channelID, messageID string) (*discordgo.Message, error)
	// Messages walks channel history newest-first, returning up to limit
	// messages posted before beforeID (all newest when beforeID is empty).
	Messages(channelID string, limit int, beforeID string) ([]*discordgo.Message, error)
	GuildChannels(guildID string) ([]*discordgo.Channel, error)
	Send(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error)
	Edit(edit *discordgo.MessageEdit) (*discordgo.Message, error)
	Delete(channelID, messageID string) error
	// Reactors lists users who reacted with the emoji (API name form).
	Reactors(channelID, messageID, emojiAPIName string, limit int) ([]*discordgo.User, error)
}

// SessionGateway adapts a discordgo session to the Gateway interface.
type SessionGateway struct {
	Session *discordgo.Session
}

func NewSessionGateway(s *discordgo.Session) *SessionGateway {
	return &SessionGateway{Session: s}
}

func (g *SessionGateway) Message(channelID, messageID string) (*discordgo.Message, error) {
	return g.Session.ChannelMessage(channelID, messageID)
}

func (g *SessionGateway) Messages(channelID string, limit int, beforeID string) ([]*discordgo.Message, error) {
	return g.Session.ChannelMessages(channelID, limit, beforeID, "", "")
}

func (g *SessionGateway) GuildChannels(guildID string) ([]*discordgo.Channel, error) {
	return g.Session.GuildChannels(guildID)
}

func (g *SessionGateway) Send(channelID string, data *discordgo.MessageSend) (*discordgo.Message, error) {
	return g.Session.ChannelMessageSendComplex(channelID, data)
}

func (g *SessionGateway) Edit(edit *discordgo.MessageEdit) (*discordgo.Message, error) {
	return g.Session.ChannelMessageEditComplex(edit)
}

func (g *SessionGateway) Delete(channelID, messageID string) error {
	return g.Session.ChannelMessageDelete(channelID, messageID)
}

func (g *SessionGateway) Reactors(channelID, messageID, emojiAPIName string, limit int) ([]*discordgo.User, error) {
	return g.Session.MessageReactions(channelID, messageID, emojiAPIName, limit, "", "")
}

// IsUnknownResource reports whether the error is Discord telling us the
// message or channel no longer exists.
func IsUnknownResource(err error) bool {
	var rerr *discordgo.RESTError
	if errors.As(err, &rerr) && rerr.Message != nil {
		switch rerr.Message.Code {
		case discordgo.ErrCodeUnknownMessage, discordgo.ErrCodeUnknownChannel:
			return true
		}
	}
	return false
}

// IsPermissionDenied reports whether the error is a missing-access or
// missing-permissions response for a channel.
func IsPermissionDenied(err error) bool {
	var rerr *discordgo.RESTError
	if errors.As(err, &rerr) && rerr.Message != nil {
		switch rerr.Message.Code {
		case discordgo.ErrCodeMissingAccess, discordgo.ErrCodeMissingPermissions:
			return true
		}
	}
	return false
}
