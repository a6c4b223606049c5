package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/LukasKristensen/discord-hall-of-fame-bot-sub000/model"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// ErrNotFound is returned when a record or config row does not exist.
var ErrNotFound = errors.New("database: not found")

const schemaVersion = 1

const schema = `
CREATE TABLE IF NOT EXISTS hall_of_fame_messages (
	message_id TEXT NOT NULL PRIMARY KEY,
	channel_id TEXT NOT NULL,
	guild_id TEXT NOT NULL,
	hof_message_id TEXT NOT NULL DEFAULT '',
	video_message_id TEXT NOT NULL DEFAULT '',
	reaction_count INTEGER NOT NULL DEFAULT 0,
	author_id TEXT NOT NULL DEFAULT '',
	created_at INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_hof_guild_count
	ON hall_of_fame_messages (guild_id, reaction_count DESC);

CREATE TABLE IF NOT EXISTS server_configs (
	guild_id TEXT NOT NULL PRIMARY KEY,
	hof_channel_id TEXT NOT NULL DEFAULT '',
	reaction_threshold INTEGER NOT NULL DEFAULT 6,
	post_due_days INTEGER NOT NULL DEFAULT 14,
	sweep_limit INTEGER NOT NULL DEFAULT 500,
	sweep_limited INTEGER NOT NULL DEFAULT 1,
	include_author_in_count INTEGER NOT NULL DEFAULT 0,
	allow_messages_in_hof INTEGER NOT NULL DEFAULT 0,
	custom_emoji_check INTEGER NOT NULL DEFAULT 0,
	whitelisted_emojis TEXT NOT NULL DEFAULT '',
	leaderboard_channel_id TEXT NOT NULL DEFAULT '',
	leaderboard_message_ids TEXT NOT NULL DEFAULT '',
	ignore_bot_messages INTEGER NOT NULL DEFAULT 1,
	hide_below_threshold INTEGER NOT NULL DEFAULT 1
);`

// Init opens the hall-of-fame database and ensures the schema exists.
func Init(dbPath string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	var version int
	if err := db.Get(&version, "PRAGMA user_version"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to read schema version: %w", err)
	}
	if version > schemaVersion {
		db.Close()
		return nil, fmt.Errorf("database schema version %d is newer than supported version %d", version, schemaVersion)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set schema version: %w", err)
	}

	return db, nil
}

// Store wraps the database handle with the record and config operations.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *sqlx.DB {
	return s.db
}

// GetRecord retrieves the hall-of-fame record for a source message.
func (s *Store) GetRecord(messageID string) (*model.HallOfFameRecord, error) {
	var rec model.HallOfFameRecord
	err := s.db.Get(&rec, "SELECT * FROM hall_of_fame_messages WHERE message_id = ?", messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record for message %s: %w", messageID, err)
	}
	return &rec, nil
}

// ClaimRecord inserts a record if none exists for the message and reports
// whether this caller won the insert. A losing caller must discard any
// mirror post it already made; the winner's row is the only one.
func (s *Store) ClaimRecord(rec model.HallOfFameRecord) (bool, error) {
	res, err := s.db.NamedExec(`INSERT OR IGNORE INTO hall_of_fame_messages
		(message_id, channel_id, guild_id, hof_message_id, video_message_id, reaction_count, author_id, created_at)
		VALUES (:message_id, :channel_id, :guild_id, :hof_message_id, :video_message_id, :reaction_count, :author_id, :created_at)`, rec)
	if err != nil {
		return false, fmt.Errorf("failed to claim record for message %s: %w", rec.MessageID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check claim result for message %s: %w", rec.MessageID, err)
	}
	return n == 1, nil
}

// UpdateReactionCount refreshes the last-known effective reaction count.
func (s *Store) UpdateReactionCount(messageID string, count int) error {
	_, err := s.db.Exec("UPDATE hall_of_fame_messages SET reaction_count = ? WHERE message_id = ?", count, messageID)
	if err != nil {
		return fmt.Errorf("failed to update reaction count for message %s: %w", messageID, err)
	}
	return nil
}

// SetMirror updates the mirror message IDs after a self-heal repost.
func (s *Store) SetMirror(messageID, hofMessageID, videoMessageID string) error {
	_, err := s.db.Exec("UPDATE hall_of_fame_messages SET hof_message_id = ?, video_message_id = ? WHERE message_id = ?",
		hofMessageID, videoMessageID, messageID)
	if err != nil {
		return fmt.Errorf("failed to set mirror for message %s: %w", messageID, err)
	}
	return nil
}

// TopRecords returns up to n records for a guild ordered by reaction count
// descending. Ties keep insertion order, which keeps ranking stable.
func (s *Store) TopRecords(guildID string, n int) ([]model.HallOfFameRecord, error) {
	var recs []model.HallOfFameRecord
	err := s.db.Select(&recs,
		"SELECT * FROM hall_of_fame_messages WHERE guild_id = ? ORDER BY reaction_count DESC, rowid ASC LIMIT ?",
		guildID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to get top records for guild %s: %w", guildID, err)
	}
	return recs, nil
}

// CountRecords returns the number of tracked messages for a guild.
func (s *Store) CountRecords(guildID string) (int, error) {
	var count int
	err := s.db.Get(&count, "SELECT COUNT(*) FROM hall_of_fame_messages WHERE guild_id = ?", guildID)
	if err != nil {
		return 0, fmt.Errorf("failed to count records for guild %s: %w", guildID, err)
	}
	return count, nil
}

// DeleteGuildData removes all records and the config for a guild.
func (s *Store) DeleteGuildData(guildID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM hall_of_fame_messages WHERE guild_id = ?", guildID); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete records for guild %s: %w", guildID, err)
	}
	if _, err := tx.Exec("DELETE FROM server_configs WHERE guild_id = ?", guildID); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to delete config for guild %s: %w", guildID, err)
	}
	return tx.Commit()
}
