package database

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"google.golang.org/api/option"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/babcheck/babcheck/backend/config"
	"github.com/babcheck/babcheck/backend/internal/store"
)

// PostgresDSN builds the connection string for the configured database.
func PostgresDSN(cfg *config.Config) string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.DBHost, cfg.DBPort, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBSSLMode,
	)
}

// OpenGorm connects to Postgres or SQLite depending on STORE_BACKEND.
func OpenGorm(cfg *config.Config, log logrus.FieldLogger) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.StoreBackend {
	case config.StorePostgres:
		log.WithFields(logrus.Fields{"host": cfg.DBHost, "port": cfg.DBPort, "user": cfg.DBUser}).
			Info("Connecting to database")
		dialector = postgres.Open(PostgresDSN(cfg))
	case config.StoreSQLite:
		log.WithField("path", cfg.SQLitePath).Info("Opening SQLite database")
		dialector = sqlite.Open(cfg.SQLitePath)
	default:
		return nil, fmt.Errorf("store backend %q is not SQL", cfg.StoreBackend)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	if cfg.StoreBackend == config.StorePostgres {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(25)
		sqlDB.SetConnMaxLifetime(5 * time.Minute)
	} else {
		// SQLite allows one writer at a time.
		sqlDB.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to the database: %w", err)
	}

	log.Info("Successfully connected to database")
	return db, nil
}

// NewFirestoreClient connects to the configured Firestore project. Without a
// credentials file the client uses application default credentials.
func NewFirestoreClient(ctx context.Context, cfg *config.Config) (*firestore.Client, error) {
	var opts []option.ClientOption
	if cfg.FirestoreCredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.FirestoreCredentialsFile))
	}
	client, err := firestore.NewClient(ctx, cfg.FirestoreProjectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return client, nil
}

// NewMongoDatabase connects and pings MongoDB, returning the configured
// database handle.
func NewMongoDatabase(ctx context.Context, cfg *config.Config) (*mongo.Database, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to verify connection with MongoDB: %w", err)
	}
	return client.Database(cfg.MongoDatabase), nil
}

// OpenStore builds the record store selected by STORE_BACKEND. SQL backends
// are migrated before use.
func OpenStore(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (store.RecordStore, error) {
	switch cfg.StoreBackend {
	case config.StorePostgres, config.StoreSQLite:
		db, err := OpenGorm(cfg, log)
		if err != nil {
			return nil, err
		}
		if err := AutoMigrate(db); err != nil {
			return nil, err
		}
		return store.NewGormStore(db), nil
	case config.StoreFirestore:
		client, err := NewFirestoreClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.WithField("project", cfg.FirestoreProjectID).Info("Using Firestore record store")
		return store.NewFirestoreStore(client), nil
	case config.StoreMongo:
		db, err := NewMongoDatabase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.WithField("database", cfg.MongoDatabase).Info("Using MongoDB record store")
		return store.NewMongoStore(db), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
