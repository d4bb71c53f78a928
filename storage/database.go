package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"csmc-bot/config"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	_ "modernc.org/sqlite"
)

var DB Database

// Database is the append-only audit log of ticket and language events.
// It records history only; active tickets and cooldowns live in memory
// and do not survive a restart.
type Database interface {
	Init() error
	Close() error

	AddEvent(e Event) error
	GetEvents(guildID, userID string, limit int) ([]Event, error)
}

type Event struct {
	ID        int    `json:"id"         bson:"id,omitempty"`
	GuildID   string `json:"guild_id"   bson:"guild_id"`
	UserID    string `json:"user_id"    bson:"user_id"`
	ActorID   string `json:"actor_id"   bson:"actor_id"`
	Action    string `json:"action"     bson:"action"`
	Language  string `json:"language"   bson:"language"`
	ThreadID  string `json:"thread_id"  bson:"thread_id"`
	Timestamp string `json:"timestamp"  bson:"timestamp"`
}

const (
	EventTicketOpened     = "ticket_opened"
	EventTicketClosed     = "ticket_closed"
	EventLanguageSelected = "language_selected"
)

func InitDB(cfg *config.DatabaseConfig) error {
	switch cfg.Driver {
	case "sqlite":
		db := &SQLiteDB{Path: cfg.SQLite.Path}
		if err := db.Init(); err != nil {
			return err
		}
		DB = db
		return nil

	case "mongodb":
		db := &MongoDB{URI: cfg.MongoDB.URI, DBName: cfg.MongoDB.Database}
		if err := db.Init(); err != nil {
			return err
		}
		DB = db
		return nil

	default:
		return fmt.Errorf("unsupported database driver: %s (use \"sqlite\" or \"mongodb\")", cfg.Driver)
	}
}

type SQLiteDB struct {
	Path string
	db   *sql.DB
}

func (s *SQLiteDB) Init() error {
	_ = os.MkdirAll(filepath.Dir(s.Path), 0755)

	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return fmt.Errorf("sqlite open: %w", err)
	}
	s.db = db

	schema := `
	CREATE TABLE IF NOT EXISTS events (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		guild_id    TEXT NOT NULL,
		user_id     TEXT NOT NULL,
		actor_id    TEXT NOT NULL,
		action      TEXT NOT NULL,
		language    TEXT NOT NULL DEFAULT '',
		thread_id   TEXT NOT NULL DEFAULT '',
		timestamp   TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_events_guild_user ON events(guild_id, user_id);
	`
	_, err = db.Exec(schema)
	if err != nil {
		return fmt.Errorf("sqlite schema: %w", err)
	}
	log.Printf("[DB] SQLite initialised at %s", s.Path)
	return nil
}

func (s *SQLiteDB) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDB) AddEvent(e Event) error {
	_, err := s.db.Exec(
		"INSERT INTO events (guild_id, user_id, actor_id, action, language, thread_id, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)",
		e.GuildID, e.UserID, e.ActorID, e.Action, e.Language, e.ThreadID, e.Timestamp,
	)
	return err
}

func (s *SQLiteDB) GetEvents(guildID, userID string, limit int) ([]Event, error) {
	rows, err := s.db.Query(
		"SELECT id, guild_id, user_id, actor_id, action, language, thread_id, timestamp FROM events WHERE guild_id = ? AND user_id = ? ORDER BY id DESC LIMIT ?",
		guildID, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.GuildID, &e.UserID, &e.ActorID, &e.Action, &e.Language, &e.ThreadID, &e.Timestamp); err != nil {
			continue
		}
		events = append(events, e)
	}
	return events, nil
}

type MongoDB struct {
	URI    string
	DBName string

	client *mongo.Client
	events *mongo.Collection
}

func (m *MongoDB) Init() error {
	if m.URI == "" || m.DBName == "" {
		return fmt.Errorf("database.mongodb.uri and database.mongodb.database must be set to use driver=mongodb")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(m.URI))
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	m.client = client
	m.events = client.Database(m.DBName).Collection("events")

	m.events.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "guild_id", Value: 1}, {Key: "user_id", Value: 1}},
	})

	log.Printf("[DB] MongoDB initialised (%s)", m.DBName)
	return nil
}

func (m *MongoDB) Close() error {
	if m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *MongoDB) AddEvent(e Event) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := m.events.InsertOne(ctx, bson.M{
		"guild_id":  e.GuildID,
		"user_id":   e.UserID,
		"actor_id":  e.ActorID,
		"action":    e.Action,
		"language":  e.Language,
		"thread_id": e.ThreadID,
		"timestamp": e.Timestamp,
	})
	return err
}

func (m *MongoDB) GetEvents(guildID, userID string, limit int) ([]Event, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(int64(limit))
	cursor, err := m.events.Find(ctx, bson.M{"guild_id": guildID, "user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	return events, cursor.All(ctx, &events)
}
