package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type Database struct {
	Conn *sql.DB
}

func NewDatabase(dsn string) (*Database, error) {
	conn, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(25)
	conn.SetConnMaxLifetime(5 * time.Minute)
	return &Database{Conn: conn}, nil
}

func (d *Database) AutoMigrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS profiles (
            id UUID PRIMARY KEY,
            email VARCHAR(255) UNIQUE NOT NULL,
            password VARCHAR(255) NOT NULL,
            display_name VARCHAR(100) NOT NULL,
            avatar_url TEXT,
            status VARCHAR(30) NOT NULL DEFAULT 'offline',
            last_seen TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE TABLE IF NOT EXISTS team_members (
            id UUID PRIMARY KEY,
            owner_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            user_id UUID REFERENCES profiles(id) ON DELETE SET NULL,
            name VARCHAR(100) NOT NULL,
            email VARCHAR(255) NOT NULL,
            role VARCHAR(50) NOT NULL DEFAULT 'member',
            position VARCHAR(100),
            status VARCHAR(30) NOT NULL DEFAULT 'pending',
            presence VARCHAR(30) NOT NULL DEFAULT 'offline',
            last_seen TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            chat_nickname VARCHAR(100),
            is_chat_blocked BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            UNIQUE (owner_id, email)
        )`,

		`CREATE TABLE IF NOT EXISTS team_messages (
            id UUID PRIMARY KEY,
            owner_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            sender_id UUID NOT NULL,
            sender_name VARCHAR(100) NOT NULL,
            sender_avatar TEXT,
            body TEXT NOT NULL,
            file_url TEXT,
            file_name TEXT,
            file_type VARCHAR(100),
            reply_to_id UUID,
            reply_to_preview TEXT,
            reply_to_sender VARCHAR(100),
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE INDEX IF NOT EXISTS idx_team_messages_owner_created
            ON team_messages (owner_id, created_at DESC)`,

		`CREATE TABLE IF NOT EXISTS private_messages (
            id UUID PRIMARY KEY,
            owner_id UUID NOT NULL REFERENCES profiles(id) ON DELETE CASCADE,
            sender_id UUID NOT NULL,
            receiver_id UUID NOT NULL,
            sender_name VARCHAR(100) NOT NULL,
            sender_avatar TEXT,
            body TEXT NOT NULL,
            file_url TEXT,
            file_name TEXT,
            file_type VARCHAR(100),
            reply_to_id UUID,
            reply_to_preview TEXT,
            reply_to_sender VARCHAR(100),
            is_read BOOLEAN NOT NULL DEFAULT FALSE,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
        )`,

		`CREATE INDEX IF NOT EXISTS idx_private_messages_pair_created
            ON private_messages (owner_id, sender_id, receiver_id, created_at DESC)`,

		`CREATE INDEX IF NOT EXISTS idx_private_messages_unread
            ON private_messages (receiver_id) WHERE is_read = FALSE`,

		`CREATE TABLE IF NOT EXISTS message_reactions (
            id UUID PRIMARY KEY,
            message_id UUID NOT NULL REFERENCES team_messages(id) ON DELETE CASCADE,
            user_id UUID NOT NULL,
            user_name VARCHAR(100) NOT NULL,
            reaction_type VARCHAR(20) NOT NULL DEFAULT 'emoji',
            reaction_value TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            UNIQUE (message_id, user_id, reaction_value)
        )`,

		`CREATE TABLE IF NOT EXISTS private_message_reactions (
            id UUID PRIMARY KEY,
            message_id UUID NOT NULL REFERENCES private_messages(id) ON DELETE CASCADE,
            user_id UUID NOT NULL,
            user_name VARCHAR(100) NOT NULL,
            reaction_type VARCHAR(20) NOT NULL DEFAULT 'emoji',
            reaction_value TEXT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
            UNIQUE (message_id, user_id, reaction_value)
        )`,
	}

	for _, query := range queries {
		_, err := d.Conn.Exec(query)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
