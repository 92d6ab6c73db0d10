package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type BookFilter struct {
	AuthorID    *snowflake.ID
	PublisherID *snowflake.ID
}

// Repository is stateless; every call runs against the db or transaction it is given.
type Repository interface {
	InsertUser(ctx context.Context, db *gorm.DB, user *User) error
	FindUserByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	FindUserByEmail(ctx context.Context, db *gorm.DB, email string) (*User, error)

	InsertAuthor(ctx context.Context, db *gorm.DB, author *Author) error
	FindAuthorByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Author, error)
	// LockAuthorByID reads the author with a row lock held until db's transaction ends.
	LockAuthorByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Author, error)
	ListAuthors(ctx context.Context, db *gorm.DB) ([]*Author, error)

	InsertPublisher(ctx context.Context, db *gorm.DB, publisher *Publisher) error
	FindPublisherByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Publisher, error)
	LockPublisherByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Publisher, error)
	ListPublishers(ctx context.Context, db *gorm.DB) ([]*Publisher, error)

	InsertBook(ctx context.Context, db *gorm.DB, book *Book) error
	FindBookByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Book, error)
	ListBooks(ctx context.Context, db *gorm.DB, filter BookFilter) ([]*Book, error)
}
