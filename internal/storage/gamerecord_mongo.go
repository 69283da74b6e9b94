package storage

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mahjongserver/common/log"
)

const gameRecordsCollection = "game_records"

// MongoGameRecordRepository stores one document per finished game,
// flattened rather than mirrored one-to-one onto GameRecord's Go types,
// matching the teacher repository's bson.M-document convention.
type MongoGameRecordRepository struct {
	mongo *MongoManager
}

func NewMongoGameRecordRepository(mongo *MongoManager) *MongoGameRecordRepository {
	return &MongoGameRecordRepository{mongo: mongo}
}

func (r *MongoGameRecordRepository) SaveCompletedGame(ctx context.Context, record GameRecord) error {
	collection := r.mongo.Db.Collection(gameRecordsCollection)
	doc := bson.M{
		"_id":          record.GameID,
		"seed":         record.Seed,
		"rng_version":  record.RNGVersion,
		"player_names": record.PlayerNames[:],
		"final_scores": record.FinalScores[:],
		"placements":   record.Placements[:],
		"replay_path":  record.ReplayPath,
		"started_at":   record.StartedAt,
		"finished_at":  record.FinishedAt,
	}
	_, err := collection.ReplaceOne(ctx, bson.M{"_id": record.GameID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		log.Error("storage: save game record %s: %v", record.GameID, err)
		return err
	}
	return nil
}

func (r *MongoGameRecordRepository) GetGame(ctx context.Context, gameID string) (GameRecord, error) {
	collection := r.mongo.Db.Collection(gameRecordsCollection)
	var doc bson.M
	if err := collection.FindOne(ctx, bson.M{"_id": gameID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return GameRecord{}, &ErrNotFound{GameID: gameID}
		}
		return GameRecord{}, err
	}
	return docToGameRecord(doc), nil
}

func (r *MongoGameRecordRepository) ListGamesForUser(ctx context.Context, userName string, limit int) ([]GameRecord, error) {
	collection := r.mongo.Db.Collection(gameRecordsCollection)
	opts := options.Find().SetSort(bson.M{"started_at": -1}).SetLimit(int64(limit))
	cursor, err := collection.Find(ctx, bson.M{"player_names": userName}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []GameRecord
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			continue
		}
		records = append(records, docToGameRecord(doc))
	}
	return records, cursor.Err()
}

func docToGameRecord(doc bson.M) GameRecord {
	rec := GameRecord{
		GameID:     stringField(doc, "_id"),
		Seed:       stringField(doc, "seed"),
		RNGVersion: stringField(doc, "rng_version"),
		ReplayPath: stringField(doc, "replay_path"),
		StartedAt:  timeField(doc, "started_at"),
		FinishedAt: timeField(doc, "finished_at"),
	}
	copyStringArray(&rec.PlayerNames, doc["player_names"])
	copyIntArray(&rec.FinalScores, doc["final_scores"])
	copyIntArray(&rec.Placements, doc["placements"])
	return rec
}

func stringField(doc bson.M, key string) string {
	s, _ := doc[key].(string)
	return s
}

func timeField(doc bson.M, key string) time.Time {
	t, _ := doc[key].(time.Time)
	return t
}

func copyStringArray(dst *[4]string, v any) {
	arr, ok := v.(bson.A)
	if !ok {
		return
	}
	for i := 0; i < len(arr) && i < 4; i++ {
		if s, ok := arr[i].(string); ok {
			dst[i] = s
		}
	}
}

func copyIntArray(dst *[4]int, v any) {
	arr, ok := v.(bson.A)
	if !ok {
		return
	}
	for i := 0; i < len(arr) && i < 4; i++ {
		switch n := arr[i].(type) {
		case int32:
			dst[i] = int(n)
		case int64:
			dst[i] = int(n)
		case float64:
			dst[i] = int(n)
		}
	}
}
