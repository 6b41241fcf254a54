// Package sqlstore implements store.Store on MySQL through gorm. Nested
// lists (order lines, timelines, addresses, cart items) live in JSON text
// columns; updates lock the row with SELECT ... FOR UPDATE. Ids come from a
// counters row per table, locked the same way, so concurrent inserts never
// collide.
package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"

	"github.com/asadk95/estore/internal/models"
	"github.com/asadk95/estore/internal/store"
)

// counter holds the last id handed out for one table.
type counter struct {
	Name string `gorm:"primaryKey;size:64"`
	Seq  int64
}

func (counter) TableName() string { return "counters" }

type Store struct {
	db       *gorm.DB
	now      func() time.Time
	naming   schema.Namer
	products *table[models.Product, *models.Product]
	users    *table[models.User, *models.User]
	orders   *table[models.Order, *models.Order]
	carts    *table[models.Cart, *models.Cart]
}

// Open migrates the schema and seeds the demo catalog into an empty
// products table.
func Open(ctx context.Context, db *gorm.DB) (*Store, error) {
	if err := db.WithContext(ctx).AutoMigrate(&counter{}, &models.Product{}, &models.User{}, &models.Order{}, &models.Cart{}); err != nil {
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	s := &Store{db: db, now: time.Now, naming: schema.NamingStrategy{}}
	s.products = &table[models.Product, *models.Product]{s: s, name: "products"}
	s.users = &table[models.User, *models.User]{s: s, name: "users"}
	s.orders = &table[models.Order, *models.Order]{s: s, name: "orders"}
	s.carts = &table[models.Cart, *models.Cart]{s: s, name: "carts"}

	for name, model := range map[string]any{
		s.products.name: &models.Product{},
		s.users.name:    &models.User{},
		s.orders.name:   &models.Order{},
		s.carts.name:    &models.Cart{},
	} {
		if err := s.syncCounter(ctx, name, model); err != nil {
			return nil, err
		}
	}

	var count int64
	if err := db.WithContext(ctx).Model(&models.Product{}).Count(&count).Error; err != nil {
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

func (s *Store) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// syncCounter creates the counter row for a table and raises it to the
// table's current max id.
func (s *Store) syncCounter(ctx context.Context, name string, model any) error {
	db := s.db.WithContext(ctx)
	var maxID int64
	if err := db.Model(model).Select("COALESCE(MAX(id), 0)").Scan(&maxID).Error; err != nil {
		return fmt.Errorf("read max id of %s: %w", name, err)
	}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoUpdates: clause.Assignments(map[string]any{"seq": gorm.Expr("GREATEST(seq, ?)", maxID)}),
	}).Create(&counter{Name: name, Seq: maxID}).Error
	if err != nil {
		return fmt.Errorf("sync counter %s: %w", name, err)
	}
	return nil
}

// nextID must run inside a transaction; the counter row stays locked until
// it commits.
func (s *Store) nextID(tx *gorm.DB, name string) (int64, error) {
	var c counter
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&c, "name = ?", name).Error; err != nil {
		return 0, fmt.Errorf("next id for %s: %w", name, err)
	}
	c.Seq++
	if err := tx.Model(&counter{}).Where("name = ?", name).Update("seq", c.Seq).Error; err != nil {
		return 0, fmt.Errorf("next id for %s: %w", name, err)
	}
	return c.Seq, nil
}

type txKey struct{}

func (s *Store) conn(ctx context.Context) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx.WithContext(ctx)
	}
	return s.db.WithContext(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return fn(ctx)
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

type table[T any, P store.Record[T]] struct {
	s    *Store
	name string
}

func (t *table[T, P]) notFound(what any, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s %v: %w", t.name, what, store.ErrNotFound)
	}
	return fmt.Errorf("query %s: %w", t.name, err)
}

func (t *table[T, P]) FindAll(ctx context.Context) ([]T, error) {
	return t.Filter(ctx, nil)
}

func (t *table[T, P]) FindByID(ctx context.Context, id int64) (T, error) {
	var rec T
	if err := t.s.conn(ctx).First(&rec, "id = ?", id).Error; err != nil {
		return rec, t.notFound(id, err)
	}
	return rec, nil
}

func (t *table[T, P]) FindBy(ctx context.Context, field string, value any) (T, error) {
	column := "id"
	if field != "_id" {
		column = t.s.naming.ColumnName("", field)
	}

	var rec T
	err := t.s.conn(ctx).
		Where(clause.Eq{Column: clause.Column{Name: column}, Value: value}).
		Order("id").
		First(&rec).Error
	if err != nil {
		return rec, t.notFound(fmt.Sprintf("%s=%v", field, value), err)
	}
	return rec, nil
}

func (t *table[T, P]) Filter(ctx context.Context, keep func(T) bool) ([]T, error) {
	var all []T
	if err := t.s.conn(ctx).Order("id").Find(&all).Error; err != nil {
		return nil, fmt.Errorf("query %s: %w", t.name, err)
	}
	out := make([]T, 0, len(all))
	for _, rec := range all {
		if keep == nil || keep(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (t *table[T, P]) Create(ctx context.Context, rec T) (T, error) {
	err := t.s.WithTx(ctx, func(ctx context.Context) error {
		tx := t.s.conn(ctx)

		id, err := t.s.nextID(tx, t.name)
		if err != nil {
			return err
		}
		P(&rec).SetID(id)
		P(&rec).SetCreatedAt(t.s.now())

		if err := tx.Create(P(&rec)).Error; err != nil {
			return fmt.Errorf("insert %s: %w", t.name, err)
		}
		return nil
	})
	return rec, err
}

func (t *table[T, P]) Update(ctx context.Context, id int64, apply func(*T) error) (T, error) {
	var out T
	err := t.s.WithTx(ctx, func(ctx context.Context) error {
		tx := t.s.conn(ctx)

		var cur T
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&cur, "id = ?", id).Error; err != nil {
			return t.notFound(id, err)
		}
		if err := apply(&cur); err != nil {
			return err
		}
		P(&cur).SetID(id)
		P(&cur).SetUpdatedAt(t.s.now())

		if err := tx.Save(P(&cur)).Error; err != nil {
			return fmt.Errorf("update %s: %w", t.name, err)
		}
		out = cur
		return nil
	})
	return out, err
}

func (t *table[T, P]) Delete(ctx context.Context, id int64) error {
	res := t.s.conn(ctx).Delete(P(new(T)), id)
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", t.name, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s %d: %w", t.name, id, store.ErrNotFound)
	}
	return nil
}
