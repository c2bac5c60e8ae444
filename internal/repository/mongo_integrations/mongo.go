package mongo

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"workOrders/internal/repository"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

const defaultCacheCollection = "dashboard_cache"

type MongoClient struct {
	client          *mongo.Client
	cacheCollection *mongo.Collection
}

// cacheEntry is one key of the local cache stored as a document.
type cacheEntry struct {
	Key       string    `bson:"_id"`
	Value     string    `bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

func NewMongoClient(ctx context.Context) (c *MongoClient, err error) {
	uri := os.Getenv("MONGO_URI")
	if uri == "" {
		err = fmt.Errorf("empty MONGO_URI for connection string")
		return
	}
	databaseName := os.Getenv("MONGO_DATABASE")
	if databaseName == "" {
		err = fmt.Errorf("empty MONGO_DATABASE for connection string")
		return
	}
	collectionName := os.Getenv("MONGO_CACHE_COLLECTION")
	if collectionName == "" {
		collectionName = defaultCacheCollection
	}

	opts := options.Client().ApplyURI(uri).
		SetWriteConcern(writeconcern.New(writeconcern.WMajority()))

	retryWrites := os.Getenv("MONGO_RETRY_WRITES")
	if retries, err := strconv.ParseBool(retryWrites); err == nil && retries {
		opts.SetRetryWrites(retries)
	}
	timeoutMs := os.Getenv("MONGO_TIMEOUT_MS")
	if timeout, err := strconv.ParseInt(timeoutMs, 10, 32); err == nil && timeout != 0 {
		opts.SetTimeout(time.Duration(timeout) * time.Millisecond)
	}

	c = &MongoClient{}

	c.client, err = mongo.Connect(ctx, opts)
	if err != nil {
		return
	}

	c.cacheCollection = c.client.Database(databaseName).Collection(collectionName)
	return
}

var _ repository.ReadWriteRepository = (*MongoClient)(nil)

func (m *MongoClient) Get(ctx context.Context, key string) (value string, err error) {
	var entry cacheEntry
	err = m.cacheCollection.FindOne(ctx, bson.D{{Key: "_id", Value: key}}).Decode(&entry)
	if errors.Is(err, mongo.ErrNoDocuments) {
		err = repository.NewErrorNotFound(fmt.Sprintf("Key %s not found", key))
		return
	}
	if err != nil {
		return
	}
	value = entry.Value
	return
}

func (m *MongoClient) Set(ctx context.Context, key string, value string) error {
	filter := bson.D{{Key: "_id", Value: key}}
	entry := cacheEntry{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	opts := options.Replace().SetUpsert(true)
	out, err := m.cacheCollection.ReplaceOne(ctx, filter, entry, opts)
	if err != nil {
		return err
	}
	log.Printf("successfully stored cache key %s (modified %v, upserted %v)\n", key, out.ModifiedCount, out.UpsertedCount)
	return nil
}

func (m *MongoClient) Delete(ctx context.Context, key string) error {
	_, err := m.cacheCollection.DeleteOne(ctx, bson.D{{Key: "_id", Value: key}})
	return err
}

func (m *MongoClient) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
