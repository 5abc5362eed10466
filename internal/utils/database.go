package utils

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// InitDatabase opens a gorm handle without pinging, so an unreachable server
// surfaces on the first query instead of aborting startup.
func InitDatabase(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, err
	}

	return db, nil
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		DisableAutomaticPing: true,
		TranslateError:       true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// InitMongo creates a client pinned to the stable server API v1. The driver
// connects lazily; Ping reports reachability.
func InitMongo(uri string) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	return mongo.Connect(context.Background(), opts)
}
