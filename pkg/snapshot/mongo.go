package snapshot

import (
	"context"
	stderrors "errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/justgrid/pkg/errors"
)

// DefaultMongoCollection is the collection snapshots are stored in.
const DefaultMongoCollection = "gallery_snapshots"

// MongoStore keeps one document per gallery, keyed by gallery id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
	owned  bool
}

// NewMongoStore connects to uri and stores snapshots in database.collection.
// An empty collection means [DefaultMongoCollection].
func NewMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	s := NewMongoStoreFromClient(client, database, collection)
	s.owned = true
	return s, nil
}

// NewMongoStoreFromClient uses an existing client; Close leaves it
// connected.
func NewMongoStoreFromClient(client *mongo.Client, database, collection string) *MongoStore {
	if collection == "" {
		collection = DefaultMongoCollection
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}
}

func (s *MongoStore) Get(ctx context.Context, galleryID string) (*Snapshot, error) {
	if err := errors.ValidateGalleryID(galleryID); err != nil {
		return nil, err
	}
	var snap Snapshot
	err := s.coll.FindOne(ctx, bson.M{"_id": galleryID}).Decode(&snap)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find snapshot: %w", err)
	}
	return &snap, nil
}

func (s *MongoStore) Save(ctx context.Context, snap *Snapshot) error {
	if err := errors.ValidateGalleryID(snap.GalleryID); err != nil {
		return err
	}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": snap.GalleryID}, snap, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, galleryID string) error {
	if err := errors.ValidateGalleryID(galleryID); err != nil {
		return err
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": galleryID})
	if err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]string, error) {
	cur, err := s.coll.Find(ctx, bson.M{},
		options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	var docs []struct {
		ID string `bson:"_id"`
	}
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}
	return ids, nil
}

// Close disconnects the client if the store created it.
func (s *MongoStore) Close() error {
	if !s.owned {
		return nil
	}
	return s.client.Disconnect(context.Background())
}

var _ Store = (*MongoStore)(nil)
