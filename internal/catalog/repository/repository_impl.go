package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/folio/internal/catalog/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertUser(ctx context.Context, db *gorm.DB, user *domain.User) error {
	return db.WithContext(ctx).Create(user).Error
}

func (r *repo) FindUserByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.User, error) {
	return findOne[domain.User](ctx, db, "id = ?", id)
}

func (r *repo) FindUserByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.User, error) {
	return findOne[domain.User](ctx, db, "LOWER(email) = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *repo) InsertAuthor(ctx context.Context, db *gorm.DB, author *domain.Author) error {
	return db.WithContext(ctx).Create(author).Error
}

func (r *repo) FindAuthorByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Author, error) {
	return findOne[domain.Author](ctx, db, "id = ?", id)
}

func (r *repo) LockAuthorByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Author, error) {
	return findOne[domain.Author](ctx, forUpdate(db), "id = ?", id)
}

func (r *repo) ListAuthors(ctx context.Context, db *gorm.DB) ([]*domain.Author, error) {
	var authors []*domain.Author
	if err := db.WithContext(ctx).Order("name asc, id asc").Find(&authors).Error; err != nil {
		return nil, err
	}
	return authors, nil
}

func (r *repo) InsertPublisher(ctx context.Context, db *gorm.DB, publisher *domain.Publisher) error {
	return db.WithContext(ctx).Create(publisher).Error
}

func (r *repo) FindPublisherByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Publisher, error) {
	return findOne[domain.Publisher](ctx, db, "id = ?", id)
}

func (r *repo) LockPublisherByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Publisher, error) {
	return findOne[domain.Publisher](ctx, forUpdate(db), "id = ?", id)
}

func (r *repo) ListPublishers(ctx context.Context, db *gorm.DB) ([]*domain.Publisher, error) {
	var publishers []*domain.Publisher
	if err := db.WithContext(ctx).Order("name asc, id asc").Find(&publishers).Error; err != nil {
		return nil, err
	}
	return publishers, nil
}

func (r *repo) InsertBook(ctx context.Context, db *gorm.DB, book *domain.Book) error {
	return db.WithContext(ctx).Create(book).Error
}

func (r *repo) FindBookByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Book, error) {
	return findOne[domain.Book](ctx, db, "id = ?", id)
}

func (r *repo) ListBooks(ctx context.Context, db *gorm.DB, filter domain.BookFilter) ([]*domain.Book, error) {
	var books []*domain.Book
	stmt := db.WithContext(ctx).Model(&domain.Book{})
	if filter.AuthorID != nil {
		stmt = stmt.Where("author_id = ?", *filter.AuthorID)
	}
	if filter.PublisherID != nil {
		stmt = stmt.Where("publisher_id = ?", *filter.PublisherID)
	}
	if err := stmt.Order("title asc, id asc").Find(&books).Error; err != nil {
		return nil, err
	}
	return books, nil
}

// findOne returns nil without error when no row matches.
// forUpdate adds SELECT ... FOR UPDATE. sqlite drops the clause; its writers are
// already serialized.
func forUpdate(db *gorm.DB) *gorm.DB {
	return db.Clauses(clause.Locking{Strength: "UPDATE"})
}

func findOne[T any](ctx context.Context, db *gorm.DB, query string, args ...any) (*T, error) {
	var out T
	res := db.WithContext(ctx).Where(query, args...).Limit(1).Find(&out)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &out, nil
}
