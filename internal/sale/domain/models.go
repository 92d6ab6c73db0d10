package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Sale is one recorded order line item. Rows are written once and never updated.
// Amounts are minor units and PlatformFee+AuthorRoyalty+PublisherShare+NetAmount == SaleAmount.
type Sale struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	OrderID        string       `gorm:"type:varchar(128);not null;uniqueIndex:ux_sales_order_book,priority:1" json:"order_id"`
	BookID         snowflake.ID `gorm:"not null;uniqueIndex:ux_sales_order_book,priority:2" json:"book_id"`
	BookTitle      string       `gorm:"not null" json:"book_title"`
	AuthorID       snowflake.ID `gorm:"not null;index" json:"author_id"`
	AuthorName     string       `gorm:"not null" json:"author_name"`
	PublisherID    snowflake.ID `gorm:"not null;index" json:"publisher_id"`
	PublisherName  string       `gorm:"not null" json:"publisher_name"`
	Quantity       int64        `gorm:"not null" json:"quantity"`
	UnitPrice      int64        `gorm:"not null" json:"unit_price"`
	SaleAmount     int64        `gorm:"not null" json:"sale_amount"`
	PlatformFee    int64        `gorm:"not null" json:"platform_fee"`
	AuthorRoyalty  int64        `gorm:"not null" json:"author_royalty"`
	PublisherShare int64        `gorm:"not null" json:"publisher_share"`
	NetAmount      int64        `gorm:"not null" json:"net_amount"`
	Currency       string       `gorm:"type:text;not null" json:"currency"`
	SoldAt         time.Time    `gorm:"not null;index" json:"sold_at"`
	CreatedAt      time.Time    `gorm:"not null" json:"created_at"`
}

func (Sale) TableName() string { return "sales" }
