package domain

import "context"

const MaxItemNameLength = 255

type Item struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

type ItemRepository interface {
	List(ctx context.Context) ([]Item, error)
	Create(ctx context.Context, name string) (int64, error)
	DeleteAll(ctx context.Context) error
	Ping(ctx context.Context) error
}
