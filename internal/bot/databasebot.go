package bot

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const createCommandQueries = `
CREATE TABLE IF NOT EXISTS command_queries (
	id            BIGSERIAL PRIMARY KEY,
	invocation_id TEXT   NOT NULL,
	server_id     TEXT   NOT NULL,
	server_name   TEXT   NOT NULL,
	discord_id    TEXT   NOT NULL,
	discord_name  TEXT   NOT NULL,
	command       TEXT   NOT NULL,
	full_command  TEXT   NOT NULL,
	time          BIGINT NOT NULL
)`

const insertCommandQuery = `
INSERT INTO command_queries
	(invocation_id, server_id, server_name, discord_id, discord_name, command, full_command, time)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

// One successfully executed command
type CommandQuery struct {
	InvocationId uuid.UUID
	ServerId     string
	ServerName   string
	DiscordId    string
	DiscordName  string
	Command      string
	FullCommand  string
	Time         time.Time
}

type CommandLog interface {
	LogCommand(ctx context.Context, query CommandQuery) error
}

// Keeps the log of executed commands in postgres
type DatabaseBot struct {
	pool *pgxpool.Pool
}

func CreateDatabaseBot(ctx context.Context, connString string) (*DatabaseBot, error) {

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, errors.WithMessage(err, "create connection pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.WithMessage(err, "ping database")
	}
	if _, err := pool.Exec(ctx, createCommandQueries); err != nil {
		pool.Close()
		return nil, errors.WithMessage(err, "create command_queries table")
	}
	log.Info().Msg("Connected to the command log database")

	return &DatabaseBot{pool: pool}, nil
}

func (db *DatabaseBot) LogCommand(ctx context.Context, query CommandQuery) error {
	_, err := db.pool.Exec(ctx, insertCommandQuery,
		query.InvocationId.String(),
		query.ServerId,
		query.ServerName,
		query.DiscordId,
		query.DiscordName,
		query.Command,
		query.FullCommand,
		query.Time.Unix(),
	)
	if err != nil {
		return errors.WithMessage(err, fmt.Sprintf("insert command query %s", query.InvocationId))
	}
	return nil
}

func (db *DatabaseBot) Close() {
	db.pool.Close()
	log.Info().Msg("Disconnected from the command log database")
}
