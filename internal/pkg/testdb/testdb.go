// Package testdb открывает изолированную БД SQLite в памяти с моделями приложения.
// Используется только в тестах репозиториев и сервисов.
package testdb

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/firewise/fireedu-api/internal/domain/entity"
)

// New открывает новую БД для теста и закрывает её по завершении.
// Одно соединение: запросы вне транзакции ждут её завершения, как строка под блокировкой в PostgreSQL.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&entity.User{},
		&entity.EngagementLog{},
		&entity.AssessmentQuestion{},
		&entity.UserAnswer{},
	))
	return db
}

// CreateUser создает пользователя с заполненным профилем
func CreateUser(t testing.TB, db *gorm.DB, username string) *entity.User {
	t.Helper()

	user := &entity.User{
		Username:         username,
		Email:            username + "@example.com",
		Password:         "$2a$10$abcdefghijklmnopqrstuuJZ0cJ4o2v7u3W8e6Yx1Zq9x0a1b2c3d",
		Role:             entity.RoleAdult,
		ProfileCompleted: true,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
