package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleCustomer  Role = "customer"
	RoleAuthor    Role = "author"
	RolePublisher Role = "publisher"
	RoleAdmin     Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAuthor, RolePublisher, RoleAdmin:
		return true
	}
	return false
}

// User is a platform account. WalletBalance is in minor units.
type User struct {
	ID            snowflake.ID `gorm:"primaryKey" json:"id"`
	Name          string       `gorm:"not null" json:"name"`
	Email         string       `gorm:"type:varchar(320);not null;uniqueIndex" json:"email"`
	Role          Role         `gorm:"type:text;not null" json:"role"`
	WalletBalance int64        `gorm:"not null;default:0" json:"wallet_balance"`
	CreatedAt     time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time    `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// RateScale is the number of decimal places royalty_rate columns store.
const RateScale = 4

// Author receives royalties. A nil RoyaltyRate falls back to the configured default.
type Author struct {
	ID            snowflake.ID        `gorm:"primaryKey" json:"id"`
	Name          string              `gorm:"not null" json:"name"`
	Email         string              `gorm:"not null" json:"email"`
	RoyaltyRate   decimal.NullDecimal `gorm:"type:numeric(5,4)" json:"royalty_rate"`
	TotalEarnings int64               `gorm:"not null;default:0" json:"total_earnings"`
	UserID        *snowflake.ID       `gorm:"index" json:"user_id,omitempty"`
	CreatedAt     time.Time           `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"not null" json:"updated_at"`
}

func (Author) TableName() string { return "authors" }

type Publisher struct {
	ID            snowflake.ID        `gorm:"primaryKey" json:"id"`
	Name          string              `gorm:"not null" json:"name"`
	Email         string              `gorm:"not null" json:"email"`
	RoyaltyRate   decimal.NullDecimal `gorm:"type:numeric(5,4)" json:"royalty_rate"`
	TotalEarnings int64               `gorm:"not null;default:0" json:"total_earnings"`
	CreatedAt     time.Time           `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time           `gorm:"not null" json:"updated_at"`
}

func (Publisher) TableName() string { return "publishers" }

// Book prices are in minor units; FinalPrice is ListPrice after DiscountPercent.
type Book struct {
	ID              snowflake.ID    `gorm:"primaryKey" json:"id"`
	Title           string          `gorm:"not null" json:"title"`
	AuthorID        snowflake.ID    `gorm:"not null;index" json:"author_id"`
	PublisherID     snowflake.ID    `gorm:"not null;index" json:"publisher_id"`
	ListPrice       int64           `gorm:"not null" json:"list_price"`
	DiscountPercent decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"discount_percent"`
	FinalPrice      int64           `gorm:"not null" json:"final_price"`
	Currency        string          `gorm:"type:text;not null" json:"currency"`
	CreatedAt       time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null" json:"updated_at"`
}

func (Book) TableName() string { return "books" }
