package database_test

import (
	"bytes"
	"errors"
	"testing"

	"qr-hunt-backend/internal/config"
	"qr-hunt-backend/internal/database"
	"qr-hunt-backend/internal/logger"
	"qr-hunt-backend/internal/models"
	"qr-hunt-backend/internal/testutil"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func TestIsUniqueViolation(t *testing.T) {
	assert.False(t, database.IsUniqueViolation(nil))
	assert.False(t, database.IsUniqueViolation(errors.New("boom")))
	assert.True(t, database.IsUniqueViolation(gorm.ErrDuplicatedKey))
	assert.True(t, database.IsUniqueViolation(&pgconn.PgError{Code: "23505"}))
	assert.False(t, database.IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
}

func TestUniqueIndexOnPlayerCheckpoint(t *testing.T) {
	db := testutil.NewDB(t)

	game := models.Game{Name: "g", IsActive: true}
	require.NoError(t, db.Create(&game).Error)
	cp := models.Checkpoint{GameID: game.ID, Name: "cp", Question: "q", Answers: []string{"a", "b"}, QRToken: "tok"}
	require.NoError(t, db.Create(&cp).Error)
	player := models.Player{GameID: game.ID, Name: "p", Email: "p@example.com", SessionToken: "s", GDPRConsent: true}
	require.NoError(t, db.Create(&player).Error)

	first := models.PlayerCheckpoint{PlayerID: player.ID, CheckpointID: cp.ID, AnsweredCorrectly: true}
	require.NoError(t, db.Create(&first).Error)

	dup := models.PlayerCheckpoint{PlayerID: player.ID, CheckpointID: cp.ID}
	err := db.Create(&dup).Error
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
}

func TestDSN(t *testing.T) {
	cfg := &config.Config{DBHost: "db", DBPort: "5432", DBUser: "u", DBPassword: "p", DBName: "n", DBSSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=n sslmode=disable", database.DSN(cfg))
}

func TestGormLogsThroughSlogWithoutParams(t *testing.T) {
	var buf bytes.Buffer
	db, err := database.Open(sqlite.Open("file:gormlog?mode=memory&cache=shared"), logger.NewWithWriter(&buf, "debug"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.AutoMigrate(db))

	var player models.Player
	err = db.Where("email = ?", "jana@example.com").First(&player).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Empty(t, buf.String())

	var n int
	err = db.Raw("SELECT COUNT(*) FROM missing_table WHERE email = ?", "jana@example.com").Scan(&n).Error
	require.Error(t, err)
	assert.Contains(t, buf.String(), "missing_table")
	assert.NotContains(t, buf.String(), "jana@example.com")
}
