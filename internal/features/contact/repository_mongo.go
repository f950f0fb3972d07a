package contact

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go-confops/internal/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type MongoContactRepository struct {
	collection *mongo.Collection
}

func NewMongoContactRepository(db *mongo.Database) *MongoContactRepository {
	return &MongoContactRepository{
		collection: db.Collection(database.ContactsTable),
	}
}

func (r *MongoContactRepository) Insert(ctx context.Context, c *Contact) error {
	doc := *c
	if doc.SyncStatus == "" {
		doc.SyncStatus = SyncStatusSynced
	}
	if doc.AdditionalProperties == nil {
		doc.AdditionalProperties = map[string]any{}
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("contact %s already exists: %w", c.NotionID, err)
		}
		return fmt.Errorf("insert contact %s: %w", c.NotionID, err)
	}
	return nil
}

func (r *MongoContactRepository) Update(ctx context.Context, c *Contact) error {
	raw, err := bson.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode contact %s: %w", c.NotionID, err)
	}
	var set bson.M
	if err := bson.Unmarshal(raw, &set); err != nil {
		return fmt.Errorf("encode contact %s: %w", c.NotionID, err)
	}
	delete(set, "sync_status")
	delete(set, "_id")
	if set["additional_properties"] == nil {
		set["additional_properties"] = bson.M{}
	}

	res, err := r.collection.UpdateOne(ctx, bson.M{"notion_id": c.NotionID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update contact %s: %w", c.NotionID, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *MongoContactRepository) FindByNotionID(ctx context.Context, notionID string) (*Contact, error) {
	var c Contact
	err := r.collection.FindOne(ctx, bson.M{"notion_id": notionID}).Decode(&c)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find contact %s: %w", notionID, err)
	}
	return &c, nil
}

func (r *MongoContactRepository) ListSyncKeys(ctx context.Context) ([]SyncKey, error) {
	opts := options.Find().SetProjection(bson.M{"notion_id": 1, "notion_last_edited_time": 1, "sync_status": 1})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list sync keys: %w", err)
	}
	defer cursor.Close(ctx)

	var keys []SyncKey
	if err := cursor.All(ctx, &keys); err != nil {
		return nil, fmt.Errorf("decode sync keys: %w", err)
	}
	return keys, nil
}

func (r *MongoContactRepository) SetStatus(ctx context.Context, notionIDs []string, status SyncStatus) (int64, error) {
	if len(notionIDs) == 0 {
		return 0, nil
	}
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"notion_id": bson.M{"$in": notionIDs}},
		bson.M{"$set": bson.M{"sync_status": status}},
	)
	if err != nil {
		return 0, fmt.Errorf("set sync_status=%s: %w", status, err)
	}
	return res.MatchedCount, nil
}

func (r *MongoContactRepository) CountByStatus(ctx context.Context) (map[SyncStatus]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$sync_status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("count contacts: %w", err)
	}
	defer cursor.Close(ctx)

	var groups []struct {
		Status SyncStatus `bson:"_id"`
		Count  int64      `bson:"count"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("decode counts: %w", err)
	}

	counts := map[SyncStatus]int64{}
	for _, g := range groups {
		counts[g.Status] = g.Count
	}
	return counts, nil
}

func (r *MongoContactRepository) List(ctx context.Context, filter ContactFilter) ([]Contact, error) {
	query := bson.M{}
	if filter.Status != "" {
		query["sync_status"] = filter.Status
	}
	if filter.Sport != "" {
		query["sport"] = filter.Sport
	}
	if filter.Search != "" {
		pattern := regexp.QuoteMeta(filter.Search)
		query["$or"] = bson.A{
			bson.M{"name": bson.M{"$regex": pattern, "$options": "i"}},
			bson.M{"email": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "notion_id", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(filter.Limit)
	}
	if filter.Offset > 0 {
		opts.SetSkip(filter.Offset)
	}

	cursor, err := r.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	defer cursor.Close(ctx)

	var contacts []Contact
	if err := cursor.All(ctx, &contacts); err != nil {
		return nil, fmt.Errorf("decode contacts: %w", err)
	}
	return contacts, nil
}
