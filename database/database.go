package database

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"

	"github.com/rpupo63/issue-tracker/config"
	"github.com/rpupo63/issue-tracker/errs"
)

type migrator interface {
	Migrate(ctx context.Context) error
}

// conn is the lifecycle side of a store client.
type conn interface {
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

type Database struct {
	issueRepo IssueRepo
	migrator  migrator
	conn      conn
}

// New wraps an open gorm connection (postgres or sqlite)
func New(db *gorm.DB) *Database {
	repo := NewGormIssueRepo(db)
	return &Database{
		issueRepo: repo,
		migrator:  repo,
		conn:      gormConn{db},
	}
}

// NewMongo wraps a connected mongo client
func NewMongo(client *mongo.Client, database, collection string) *Database {
	repo := NewMongoIssueRepo(client.Database(database).Collection(collection))
	return &Database{
		issueRepo: repo,
		migrator:  repo,
		conn:      mongoConn{client},
	}
}

// Open connects to the store selected by cfg.Type and verifies the connection.
func Open(ctx context.Context, cfg config.Database, logger zerolog.Logger) (*Database, error) {
	switch cfg.Type {
	case config.StorePostgres:
		return openPostgres(ctx, cfg, logger)
	case config.StoreSQLite:
		return openSQLite(ctx, cfg, logger)
	case config.StoreMongo:
		return openMongo(ctx, cfg)
	default:
		return nil, errs.NewUnsupportedStoreError(cfg.Type)
	}
}

func (d *Database) IssueRepo() IssueRepo {
	return d.issueRepo
}

// Migrate creates the issue table/collection indexes if missing
func (d *Database) Migrate(ctx context.Context) error {
	return d.migrator.Migrate(ctx)
}

func (d *Database) Ping(ctx context.Context) error {
	return d.conn.Ping(ctx)
}

func (d *Database) Close(ctx context.Context) error {
	return d.conn.Close(ctx)
}

func openPostgres(ctx context.Context, cfg config.Database, logger zerolog.Logger) (*Database, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for %s", config.StorePostgres)
	}

	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  cfg.URL,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		PrepareStmt: false,
		Logger:      newGormLogger(logger, cfg.SlowThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if len(cfg.ReplicaURLs) > 0 {
		replicas := make([]gorm.Dialector, 0, len(cfg.ReplicaURLs))
		for _, dsn := range cfg.ReplicaURLs {
			replicas = append(replicas, postgres.Open(dsn))
		}
		if err := db.Use(dbresolver.Register(dbresolver.Config{
			Replicas: replicas,
			Policy:   dbresolver.RandomPolicy{},
		})); err != nil {
			return nil, fmt.Errorf("register read replicas: %w", err)
		}
		logger.Info().Int("replicas", len(replicas)).Msg("read replicas registered")
	}

	d := New(db)
	if err := d.Ping(ctx); err != nil {
		_ = d.Close(ctx)
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return d, nil
}

func openSQLite(ctx context.Context, cfg config.Database, logger zerolog.Logger) (*Database, error) {
	if dir := filepath.Dir(cfg.SQLitePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(cfg.SQLitePath), &gorm.Config{
		Logger: newGormLogger(logger, cfg.SlowThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; concurrent requests queue on the pool instead of
	// failing with "database is locked".
	sqlDB.SetMaxOpenConns(1)

	if err := db.WithContext(ctx).Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	return New(db), nil
}

func openMongo(ctx context.Context, cfg config.Database) (*Database, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	d := NewMongo(client, cfg.MongoDatabase, cfg.MongoCollection)
	if err := d.Ping(ctx); err != nil {
		_ = d.Close(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return d, nil
}

type gormConn struct {
	db *gorm.DB
}

func (c gormConn) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (c gormConn) Close(context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type mongoConn struct {
	client *mongo.Client
}

func (c mongoConn) Ping(ctx context.Context) error {
	return c.client.Ping(ctx, readpref.Primary())
}

func (c mongoConn) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}
