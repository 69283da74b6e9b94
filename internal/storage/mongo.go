// Package storage is the persistence layer (component L): a Mongo-backed
// played-game record repository, a file-backed fallback for the
// zero-infra path, and the replay file writer component J's collector
// saves finished replays through.
package storage

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"mahjongserver/common/log"
)

// MongoManager owns the driver client and the database handle every
// repository in this package pulls its collections from.
type MongoManager struct {
	Cli *mongo.Client
	Db  *mongo.Database
}

// NewMongoManager dials uri and pings it before returning, so a bad
// connection string fails at startup rather than on the first query.
func NewMongoManager(uri, dbName string) (*MongoManager, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, err
	}
	log.Info("storage: connected to mongodb database %s", dbName)
	return &MongoManager{Cli: client, Db: client.Database(dbName)}, nil
}

func (m *MongoManager) Close(ctx context.Context) error {
	if m == nil {
		return nil
	}
	return m.Cli.Disconnect(ctx)
}
