// Package mongostore implements store.Store on MongoDB. Multi-record
// mutations run inside a session transaction, so the deployment must be a
// replica set.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/asadk95/estore/internal/models"
	"github.com/asadk95/estore/internal/store"
)

const opTimeout = 5 * time.Second

type Store struct {
	client   *mongo.Client
	db       *mongo.Database
	now      func() time.Time
	products *collection[models.Product, *models.Product]
	users    *collection[models.User, *models.User]
	orders   *collection[models.Order, *models.Order]
	carts    *collection[models.Cart, *models.Cart]
}

// Open wires the collections, aligns the id counters with any existing
// documents and seeds the demo catalog into an empty products collection.
func Open(ctx context.Context, client *mongo.Client, db *mongo.Database) (*Store, error) {
	s := &Store{client: client, db: db, now: time.Now}
	s.products = newCollection[models.Product](s, "products")
	s.users = newCollection[models.User](s, "users")
	s.orders = newCollection[models.Order](s, "orders")
	s.carts = newCollection[models.Cart](s, "carts")

	for _, name := range []string{"products", "users", "orders", "carts"} {
		if err := s.syncCounter(ctx, name); err != nil {
			return nil, err
		}
	}

	count, err := db.Collection("products").CountDocuments(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("count products: %w", err)
	}
	if count == 0 {
		for _, p := range store.DefaultProducts() {
			if _, err := s.products.Create(ctx, p); err != nil {
				return nil, fmt.Errorf("seed products: %w", err)
			}
		}
	}
	return s, nil
}

func (s *Store) Products() store.Collection[models.Product] { return s.products }
func (s *Store) Users() store.Collection[models.User]       { return s.users }
func (s *Store) Orders() store.Collection[models.Order]     { return s.orders }
func (s *Store) Carts() store.Collection[models.Cart]       { return s.carts }

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// WithTx runs fn inside a session transaction. The driver may retry fn on
// transient errors, so fn must not keep state between attempts.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}

type counter struct {
	Seq int64 `bson:"seq"`
}

// syncCounter raises the id counter of a collection to its current max id.
func (s *Store) syncCounter(ctx context.Context, name string) error {
	var top struct {
		ID int64 `bson:"_id"`
	}
	err := s.db.Collection(name).FindOne(ctx, bson.M{},
		options.FindOne().SetSort(bson.D{{Key: "_id", Value: -1}}).SetProjection(bson.M{"_id": 1}),
	).Decode(&top)
	if err != nil && !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("read max id of %s: %w", name, err)
	}

	_, err = s.db.Collection("counters").UpdateOne(ctx,
		bson.M{"_id": name},
		bson.M{"$max": bson.M{"seq": top.ID}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("sync counter %s: %w", name, err)
	}
	return nil
}

func (s *Store) nextID(ctx context.Context, name string) (int64, error) {
	var c counter
	err := s.db.Collection("counters").FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&c)
	if err != nil {
		return 0, fmt.Errorf("next id for %s: %w", name, err)
	}
	return c.Seq, nil
}

type collection[T any, P store.Record[T]] struct {
	s    *Store
	name string
	coll *mongo.Collection
}

func newCollection[T any, P store.Record[T]](s *Store, name string) *collection[T, P] {
	return &collection[T, P]{s: s, name: name, coll: s.db.Collection(name)}
}

func (c *collection[T, P]) FindAll(ctx context.Context) ([]T, error) {
	return c.Filter(ctx, nil)
}

func (c *collection[T, P]) FindByID(ctx context.Context, id int64) (T, error) {
	return c.findOne(ctx, bson.M{"_id": id})
}

func (c *collection[T, P]) FindBy(ctx context.Context, field string, value any) (T, error) {
	return c.findOne(ctx, bson.M{field: value})
}

func (c *collection[T, P]) findOne(ctx context.Context, filter bson.M) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	var rec T
	err := c.coll.FindOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return rec, fmt.Errorf("%s %v: %w", c.name, filter, store.ErrNotFound)
	}
	if err != nil {
		return rec, fmt.Errorf("find %s: %w", c.name, err)
	}
	return rec, nil
}

func (c *collection[T, P]) Filter(ctx context.Context, keep func(T) bool) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	cursor, err := c.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", c.name, err)
	}
	defer cursor.Close(ctx)

	out := make([]T, 0)
	for cursor.Next(ctx) {
		var rec T
		if err := cursor.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", c.name, err)
		}
		if keep == nil || keep(rec) {
			out = append(out, rec)
		}
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", c.name, err)
	}
	return out, nil
}

func (c *collection[T, P]) Create(ctx context.Context, rec T) (T, error) {
	err := c.s.WithTx(ctx, func(ctx context.Context) error {
		id, err := c.s.nextID(ctx, c.name)
		if err != nil {
			return err
		}
		P(&rec).SetID(id)
		P(&rec).SetCreatedAt(c.s.now())

		opCtx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()
		if _, err := c.coll.InsertOne(opCtx, rec); err != nil {
			return fmt.Errorf("insert %s: %w", c.name, err)
		}
		return nil
	})
	return rec, err
}

func (c *collection[T, P]) Update(ctx context.Context, id int64, apply func(*T) error) (T, error) {
	var out T
	err := c.s.WithTx(ctx, func(ctx context.Context) error {
		cur, err := c.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := apply(&cur); err != nil {
			return err
		}
		P(&cur).SetID(id)
		P(&cur).SetUpdatedAt(c.s.now())

		opCtx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()
		if _, err := c.coll.ReplaceOne(opCtx, bson.M{"_id": id}, cur); err != nil {
			return fmt.Errorf("replace %s: %w", c.name, err)
		}
		out = cur
		return nil
	})
	return out, err
}

func (c *collection[T, P]) Delete(ctx context.Context, id int64) error {
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	res, err := c.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete %s: %w", c.name, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%s %d: %w", c.name, id, store.ErrNotFound)
	}
	return nil
}
