package commands

import "github.com/bwmarrin/discordgo"

var adminPermission int64 = discordgo.PermissionManageServer

var HofConfig = &discordgo.ApplicationCommand{
	Name:                     "hof-config",
	Description:              "Configure the hall of fame for this server",
	DefaultMemberPermissions: &adminPermission,
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "setting",
			Description: "Setting to change",
			Required:    true,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "Hall of fame channel (channel)", Value: "channel"},
				{Name: "Reaction threshold (threshold)", Value: "threshold"},
				{Name: "Post due days (due-days)", Value: "due-days"},
				{Name: "Sweep message limit (sweep-limit)", Value: "sweep-limit"},
				{Name: "Count author's own reaction (include-author)", Value: "include-author"},
				{Name: "Allow messages in HoF channel (allow-hof-messages)", Value: "allow-hof-messages"},
				{Name: "Emoji whitelist (emoji-whitelist)", Value: "emoji-whitelist"},
				{Name: "Whitelist check on/off (custom-emoji-check)", Value: "custom-emoji-check"},
				{Name: "Ignore bot messages (ignore-bots)", Value: "ignore-bots"},
				{Name: "Hide posts below threshold (hide-below)", Value: "hide-below"},
				{Name: "Show current settings (show)", Value: "show"},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "value",
			Description: "New value (number, true/false, or comma-separated emojis)",
			Required:    false,
		},
		{
			Type:        discordgo.ApplicationCommandOptionChannel,
			Name:        "channel",
			Description: "Channel for the 'channel' setting",
			Required:    false,
			ChannelTypes: []discordgo.ChannelType{
				discordgo.ChannelTypeGuildText,
			},
		},
	},
}

var HofSweep = &discordgo.ApplicationCommand{
	Name:                     "hof-sweep",
	Description:              "Scan channel history and backfill the hall of fame",
	DefaultMemberPermissions: &adminPermission,
}

var HofLeaderboard = &discordgo.ApplicationCommand{
	Name:                     "hof-leaderboard",
	Description:              "Manage the reaction leaderboard",
	DefaultMemberPermissions: &adminPermission,
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "action",
			Description: "Action to perform",
			Required:    true,
			Choices: []*discordgo.ApplicationCommandOptionChoice{
				{Name: "Provision slot messages (provision)", Value: "provision"},
				{Name: "Refresh now (refresh)", Value: "refresh"},
			},
		},
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "slots",
			Description: "Number of leaderboard slots for 'provision' (default 10)",
			Required:    false,
		},
		{
			Type:        discordgo.ApplicationCommandOptionChannel,
			Name:        "channel",
			Description: "Channel for the slot messages (default: current channel)",
			Required:    false,
			ChannelTypes: []discordgo.ChannelType{
				discordgo.ChannelTypeGuildText,
			},
		},
	},
}

var HofStatus = &discordgo.ApplicationCommand{
	Name:        "hof-status",
	Description: "Show bot and hall-of-fame statistics",
}

// GenerateCommands returns all application commands to register.
func GenerateCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		HofConfig,
		HofSweep,
		HofLeaderboard,
		HofStatus,
	}
}
