package halloffame

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
)

const (
	embedColor = 0xFFD700 // gold

	// reactionsFieldName marks the field the cheap update path patches
	// in place instead of rebuilding the whole embed.
	reactionsFieldName = "Reactions"

	sourceFieldName = "Source"

	maxQuotedContent = 512
)

// EmbedContext carries everything around the source message that the
// builder needs: where it lives, what it replied to, and which reaction
// put it in the hall of fame.
type EmbedContext struct {
	GuildID  string
	ReplyTo  *discordgo.Message
	TopEmoji *discordgo.Emoji
	TopCount int
}

// BuildEmbed formats a source message into its hall-of-fame artifact.
//
// A message may simultaneously be a reply, carry attachments, or be a
// sticker post; the branches compound rather than exclude each other.
func BuildEmbed(msg *discordgo.Message, ctx EmbedContext) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Color:     embedColor,
		Timestamp: msg.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
	}

	if msg.Author != nil {
		embed.Author = &discordgo.MessageEmbedAuthor{
			Name:    msg.Author.Username,
			IconURL: msg.Author.AvatarURL("64"),
		}
	}

	stickerID := firstStickerID(msg)
	isReply := ctx.ReplyTo != nil

	switch {
	case stickerID != "" && isReply:
		embed.Title = fmt.Sprintf("Sticker reply to %s", authorName(ctx.ReplyTo))
	case stickerID != "":
		embed.Title = "Sticker"
	case isReply:
		embed.Title = fmt.Sprintf("Replying to %s", authorName(ctx.ReplyTo))
	}

	var body strings.Builder
	if isReply {
		quoted := truncate(ctx.ReplyTo.Content, maxQuotedContent)
		if quoted == "" && len(ctx.ReplyTo.Attachments) > 0 {
			quoted = "(attachment)"
		}
		if quoted != "" {
			body.WriteString("> ")
			body.WriteString(strings.ReplaceAll(quoted, "\n", "\n> "))
			body.WriteString("\n\n")
		}
	}
	body.WriteString(msg.Content)
	embed.Description = body.String()

	if img := firstImageURL(msg); img != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: img}
	} else if stickerID != "" {
		embed.Image = &discordgo.MessageEmbedImage{
			URL: fmt.Sprintf("https://media.discordapp.net/stickers/%s.png", stickerID),
		}
	}

	embed.Fields = []*discordgo.MessageEmbedField{
		{
			Name:   reactionsFieldName,
			Value:  ReactionDisplay(ctx.TopEmoji, ctx.TopCount),
			Inline: true,
		},
		{
			Name:   sourceFieldName,
			Value:  fmt.Sprintf("[Jump to message](%s)", Permalink(ctx.GuildID, msg.ChannelID, msg.ID)),
			Inline: true,
		},
	}

	return embed
}

// ReactionDisplay renders the top reaction the same way for mirrors and
// leaderboard slots.
func ReactionDisplay(emoji *discordgo.Emoji, count int) string {
	if emoji == nil {
		return fmt.Sprintf("**%d**", count)
	}
	return fmt.Sprintf("%s **%d**", emoji.MessageFormat(), count)
}

// PatchReactionCount rewrites the reactions field of an existing mirror
// embed in place. Returns false when the embed carries no such field and
// the caller has to rebuild instead.
func PatchReactionCount(embed *discordgo.MessageEmbed, emoji *discordgo.Emoji, count int) bool {
	for _, f := range embed.Fields {
		if f != nil && f.Name == reactionsFieldName {
			f.Value = ReactionDisplay(emoji, count)
			return true
		}
	}
	return false
}

// Permalink builds the jump URL for a guild message.
func Permalink(guildID, channelID, messageID string) string {
	return fmt.Sprintf("https://discord.com/channels/%s/%s/%s", guildID, channelID, messageID)
}

// VideoURL returns the bare link for the first video attachment, or ""
// when the message has none. Video attachments do not play inside an
// embed, so the link is posted as a secondary plain message.
func VideoURL(msg *discordgo.Message) string {
	for _, a := range msg.Attachments {
		if a == nil {
			continue
		}
		if strings.HasPrefix(a.ContentType, "video/") {
			return a.URL
		}
	}
	return ""
}

func firstImageURL(msg *discordgo.Message) string {
	for _, a := range msg.Attachments {
		if a == nil {
			continue
		}
		if strings.HasPrefix(a.ContentType, "image/") {
			return a.URL
		}
	}
	return ""
}

func firstStickerID(msg *discordgo.Message) string {
	if len(msg.StickerItems) == 0 {
		return ""
	}
	return msg.StickerItems[0].ID
}

func authorName(msg *discordgo.Message) string {
	if msg.Author == nil {
		return "unknown"
	}
	return msg.Author.Username
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) > max {
		return string(runes[:max]) + "…"
	}
	return s
}
