package repository

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/folio/internal/catalog/domain"
	"github.com/smallbiznis/folio/pkg/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func TestForUpdateRendersRowLock(t *testing.T) {
	conn, err := gorm.Open(mysql.New(mysql.Config{
		DSN:                       "folio:folio@tcp(127.0.0.1:3306)/folio?parseTime=true",
		SkipInitializeWithVersion: true,
	}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)

	sql := conn.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return forUpdate(tx).Where("id = ?", 42).Limit(1).Find(&domain.Author{})
	})
	assert.Contains(t, sql, "FOR UPDATE")
	assert.Contains(t, sql, "`authors`")
}

func TestLockByIDInsideTransaction(t *testing.T) {
	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&domain.Author{}, &domain.Publisher{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	author := domain.Author{ID: node.Generate(), Name: "Ada Lovelace", Email: "ada@example.com", TotalEarnings: 900, CreatedAt: now, UpdatedAt: now}
	publisher := domain.Publisher{ID: node.Generate(), Name: "Analytical Press", Email: "press@example.com", CreatedAt: now, UpdatedAt: now}
	require.NoError(t, conn.Create(&author).Error)
	require.NoError(t, conn.Create(&publisher).Error)

	r := Provide()
	ctx := context.Background()
	err = conn.Transaction(func(tx *gorm.DB) error {
		gotAuthor, err := r.LockAuthorByID(ctx, tx, author.ID)
		require.NoError(t, err)
		require.NotNil(t, gotAuthor)
		assert.Equal(t, int64(900), gotAuthor.TotalEarnings)

		gotPublisher, err := r.LockPublisherByID(ctx, tx, publisher.ID)
		require.NoError(t, err)
		require.NotNil(t, gotPublisher)

		missing, err := r.LockAuthorByID(ctx, tx, node.Generate())
		require.NoError(t, err)
		assert.Nil(t, missing)
		return nil
	})
	require.NoError(t, err)
}
