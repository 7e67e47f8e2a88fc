package store

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Default database and collection names.
const (
	DefaultMongoDatabase   = "ductrouter"
	DefaultMongoCollection = "runs"
)

// MongoStore keeps runs in a MongoDB collection.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to uri and uses the given database. An empty
// database name selects DefaultMongoDatabase.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		database = DefaultMongoDatabase
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	coll := client.Database(database).Collection(DefaultMongoCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return &MongoStore{client: client, coll: coll}, nil
}

// runDocument is the BSON form of a Run. The result stays JSON so the
// document layout does not depend on the result's Go types.
type runDocument struct {
	ID           string    `bson:"_id"`
	Name         string    `bson:"name"`
	CreatedAt    time.Time `bson:"created_at"`
	ScenarioHash string    `bson:"scenario_hash"`
	Terminals    int       `bson:"terminals"`
	Routed       int       `bson:"routed"`
	Failed       int       `bson:"failed"`
	Result       []byte    `bson:"result"`
}

func toDocument(r *Run) runDocument {
	return runDocument{
		ID:           r.ID,
		Name:         r.Name,
		CreatedAt:    r.CreatedAt,
		ScenarioHash: r.ScenarioHash,
		Terminals:    r.Terminals,
		Routed:       r.Routed,
		Failed:       r.Failed,
		Result:       r.Result,
	}
}

func (d runDocument) run() *Run {
	return &Run{
		ID:           d.ID,
		Name:         d.Name,
		CreatedAt:    d.CreatedAt,
		ScenarioHash: d.ScenarioHash,
		Terminals:    d.Terminals,
		Routed:       d.Routed,
		Failed:       d.Failed,
		Result:       d.Result,
	}
}

func (s *MongoStore) Save(ctx context.Context, run *Run) error {
	if err := ValidateID(run.ID); err != nil {
		return err
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": run.ID}, toDocument(run), options.Replace().SetUpsert(true))
	return err
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Run, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	var doc runDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, err
	}
	return doc.run(), nil
}

func (s *MongoStore) List(ctx context.Context, limit int) ([]*Run, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	var docs []runDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	runs := make([]*Run, len(docs))
	for i, d := range docs {
		runs[i] = d.run()
	}
	return runs, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
