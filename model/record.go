package model

// HallOfFameRecord tracks one source message that has, at some point, met
// the reaction threshold for its guild. The record survives the message
// dropping back below the threshold; only the mirror post is hidden.
type HallOfFameRecord struct {
	MessageID      string `db:"message_id"`
	ChannelID      string `db:"channel_id"`
	GuildID        string `db:"guild_id"`
	HofMessageID   string `db:"hof_message_id"`
	VideoMessageID string `db:"video_message_id"`
	ReactionCount  int    `db:"reaction_count"`
	AuthorID       string `db:"author_id"`
	Timestamp      int64  `db:"created_at"`
}
