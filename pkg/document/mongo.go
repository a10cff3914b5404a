package document

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	solventerrors "github.com/matzehuels/solvent/pkg/errors"
	"github.com/matzehuels/solvent/pkg/solver"
)

const (
	defaultDatabase = "solvent"
	collectionName  = "documents"
)

// MongoStore keeps one record per document in a MongoDB collection,
// keyed by document id.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// mongoDocument is the stored shape. The result payload is kept as the
// document's canonical JSON encoding rather than re-mapped to BSON field
// names.
type mongoDocument struct {
	ID       string `bson:"_id"`
	Metadata Meta   `bson:"metadata"`
	Result   []byte `bson:"result"`
}

// NewMongoStore connects to the MongoDB behind a connection string and
// verifies the connection. The database name is taken from the connection
// string path, defaulting to "solvent".
func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, solventerrors.Wrap(solventerrors.ErrCodeStore, err, "failed to connect to document store")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, solventerrors.Wrap(solventerrors.ErrCodeStore, err, "failed to reach document store")
	}

	collection := client.Database(databaseFromURI(uri)).Collection(collectionName)
	return &MongoStore{client: client, collection: collection}, nil
}

// Save writes or replaces a document record.
func (s *MongoStore) Save(ctx context.Context, doc *Document) error {
	result, err := json.Marshal(doc.Result)
	if err != nil {
		return solventerrors.Wrap(solventerrors.ErrCodeStore, err, "failed to encode document %s", doc.Metadata.ID)
	}

	record := mongoDocument{ID: doc.Metadata.ID, Metadata: doc.Metadata, Result: result}
	_, err = s.collection.ReplaceOne(ctx, bson.M{"_id": record.ID}, record, options.Replace().SetUpsert(true))
	if err != nil {
		return solventerrors.Wrap(solventerrors.ErrCodeStore, err, "failed to save document %s", doc.Metadata.ID)
	}
	return nil
}

// Get returns a stored document by id.
func (s *MongoStore) Get(ctx context.Context, id string) (*Document, error) {
	var record mongoDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, solventerrors.New(solventerrors.ErrCodeDocumentNotFound, "document %s not found", id)
	}
	if err != nil {
		return nil, solventerrors.Wrap(solventerrors.ErrCodeStore, err, "failed to read document %s", id)
	}

	var result []solver.PassResult
	if err := json.Unmarshal(record.Result, &result); err != nil {
		return nil, solventerrors.Wrap(solventerrors.ErrCodeInvalidFormat, err, "failed to decode document %s", id)
	}
	return &Document{Metadata: record.Metadata, Result: result}, nil
}

// List returns the metadata of all stored documents, newest first.
func (s *MongoStore) List(ctx context.Context) ([]Meta, error) {
	opts := options.Find().
		SetProjection(bson.M{"metadata": 1}).
		SetSort(bson.D{{Key: "metadata.datetime", Value: -1}})

	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, solventerrors.Wrap(solventerrors.ErrCodeStore, err, "failed to list documents")
	}
	defer cursor.Close(ctx)

	var records []mongoDocument
	if err := cursor.All(ctx, &records); err != nil {
		return nil, solventerrors.Wrap(solventerrors.ErrCodeStore, err, "failed to list documents")
	}

	metas := make([]Meta, 0, len(records))
	for _, record := range records {
		metas = append(metas, record.Metadata)
	}
	return metas, nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

// databaseFromURI extracts the database name from a connection string,
// falling back to defaultDatabase when none is present.
func databaseFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return defaultDatabase
	}
	name := strings.TrimPrefix(u.Path, "/")
	if name == "" {
		return defaultDatabase
	}
	return name
}
