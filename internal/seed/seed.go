package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	catalogdomain "github.com/smallbiznis/folio/internal/catalog/domain"
	"gorm.io/gorm"
)

const (
	defaultAdminEmail = "admin@folio.local"
	defaultAdminName  = "Folio Admin"

	demoAuthorEmail    = "author@folio.local"
	demoPublisherEmail = "publisher@folio.local"
	demoBookTitle      = "The Demo Manuscript"
)

// EnsureDemoCatalog seeds an admin account plus one author, publisher and book so a
// fresh local install can record sales immediately. It is safe to run repeatedly.
func EnsureDemoCatalog(db *gorm.DB, node *snowflake.Node, currency string) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}
	if node == nil {
		return errors.New("seed id generator is required")
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()

		if _, err := ensureUserTx(ctx, tx, node, defaultAdminEmail, defaultAdminName, catalogdomain.RoleAdmin, now); err != nil {
			return err
		}
		authorUser, err := ensureUserTx(ctx, tx, node, demoAuthorEmail, "Demo Author", catalogdomain.RoleAuthor, now)
		if err != nil {
			return err
		}

		var author catalogdomain.Author
		err = tx.WithContext(ctx).Where("email = ?", demoAuthorEmail).First(&author).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			author = catalogdomain.Author{
				ID:        node.Generate(),
				Name:      "Demo Author",
				Email:     demoAuthorEmail,
				UserID:    &authorUser.ID,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.WithContext(ctx).Create(&author).Error; err != nil {
				return err
			}
		}

		if _, err := ensureUserTx(ctx, tx, node, demoPublisherEmail, "Demo Press", catalogdomain.RolePublisher, now); err != nil {
			return err
		}
		var publisher catalogdomain.Publisher
		err = tx.WithContext(ctx).Where("email = ?", demoPublisherEmail).First(&publisher).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			publisher = catalogdomain.Publisher{
				ID:        node.Generate(),
				Name:      "Demo Press",
				Email:     demoPublisherEmail,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := tx.WithContext(ctx).Create(&publisher).Error; err != nil {
				return err
			}
		}

		var book catalogdomain.Book
		err = tx.WithContext(ctx).
			Where("title = ? AND author_id = ?", demoBookTitle, author.ID).
			First(&book).Error
		if err == nil {
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		book = catalogdomain.Book{
			ID:              node.Generate(),
			Title:           demoBookTitle,
			AuthorID:        author.ID,
			PublisherID:     publisher.ID,
			ListPrice:       2000,
			DiscountPercent: decimal.Zero,
			FinalPrice:      2000,
			Currency:        currency,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		return tx.WithContext(ctx).Create(&book).Error
	})
}

func ensureUserTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, email, name string, role catalogdomain.Role, now time.Time) (catalogdomain.User, error) {
	var user catalogdomain.User
	err := tx.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return catalogdomain.User{}, err
	}

	user = catalogdomain.User{
		ID:        node.Generate(),
		Name:      name,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&user).Error; err != nil {
		return catalogdomain.User{}, err
	}
	return user, nil
}
