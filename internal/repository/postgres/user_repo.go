package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/firewise/fireedu-api/internal/domain/entity"
	"github.com/firewise/fireedu-api/internal/domain/repository"
	apperrors "github.com/firewise/fireedu-api/internal/pkg/errors"
)

// UserRepo реализует repository.UserRepository
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo создает новый репозиторий пользователей
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create создает нового пользователя. Дубликат email или username -> ErrConflict.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user with this email or username already exists", apperrors.ErrConflict)
		}
		return err
	}
	return nil
}

// GetByID возвращает пользователя по ID
func (r *UserRepo) GetByID(ctx context.Context, id uint) (*entity.User, error) {
	return r.first(ctx, "id = ?", id)
}

// GetByEmail возвращает пользователя по email
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.first(ctx, "email = ?", email)
}

// GetByUsername возвращает пользователя по имени пользователя
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *UserRepo) first(ctx context.Context, query string, arg interface{}) (*entity.User, error) {
	var user entity.User
	err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile обновляет профиль пользователя без изменения пароля и счетчиков.
// Счетчики меняются только атомарными инкрементами.
func (r *UserRepo) UpdateProfile(ctx context.Context, userID uint, updates map[string]interface{}) error {
	delete(updates, "password")
	delete(updates, "engagement_points")
	delete(updates, "total_time_spent_minutes")

	updates["updated_at"] = time.Now()

	result := r.db.WithContext(ctx).Model(&entity.User{}).Where("id = ?", userID).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// IncrementEngagementPoints увеличивает счетчик очков на уровне БД (без read-modify-write)
func (r *UserRepo) IncrementEngagementPoints(ctx context.Context, tx *gorm.DB, userID uint, points int) error {
	return increment(withTx(ctx, r.db, tx), userID, "engagement_points", points)
}

// IncrementTimeSpent увеличивает суммарное время обучения
func (r *UserRepo) IncrementTimeSpent(ctx context.Context, userID uint, minutes int) error {
	return increment(r.db.WithContext(ctx), userID, "total_time_spent_minutes", minutes)
}

// increment выполняет UPDATE column = column + delta; 0 затронутых строк -> ErrNotFound
func increment(db *gorm.DB, userID uint, column string, delta int) error {
	result := db.Model(&entity.User{}).
		Where("id = ?", userID).
		UpdateColumn(column, gorm.Expr(column+" + ?", delta))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SetTestResult записывает результат теста.
// Условие IS NULL не дает второй параллельной отправке перезаписать результат: в этом случае ErrConflict.
func (r *UserRepo) SetTestResult(ctx context.Context, tx *gorm.DB, userID uint, res repository.TestResult) error {
	prefix := "pre_test"
	if res.TestType == entity.TestTypePost {
		prefix = "post_test"
	}

	result := withTx(ctx, r.db, tx).Model(&entity.User{}).
		Where("id = ? AND "+prefix+"_score IS NULL", userID).
		UpdateColumns(map[string]interface{}{
			prefix + "_score":        res.Score,
			prefix + "_max_score":    res.MaxScore,
			prefix + "_completed_at": res.CompletedAt,
			"updated_at":             time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s already submitted", apperrors.ErrConflict, res.TestType)
	}
	return nil
}

// GetLeaderboard возвращает обучающихся по убыванию очков с пагинацией и общим количеством.
// Место считается оконной функцией RANK по всем обучающимся, а не по странице,
// поэтому совпадает с GetRank и на границах страниц.
func (r *UserRepo) GetLeaderboard(ctx context.Context, limit, offset int) ([]repository.LeaderboardEntry, int64, error) {
	var (
		entries []repository.LeaderboardEntry
		total   int64
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.User{}).Where("role <> ?", entity.RoleAdmin).Count(&total).Error; err != nil {
			return err
		}
		ranked := tx.Model(&entity.User{}).
			Select("id, username, role, engagement_points, RANK() OVER (ORDER BY engagement_points DESC) AS lb_rank").
			Where("role <> ?", entity.RoleAdmin)
		// ID для стабильного порядка при равных очках
		return tx.Table("(?) AS ranked", ranked).
			Order("lb_rank ASC, id ASC").
			Limit(limit).
			Offset(offset).
			Scan(&entries).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// GetRank возвращает место пользователя: пользователи с равными очками делят место
func (r *UserRepo) GetRank(ctx context.Context, userID uint) (int64, error) {
	user, err := r.GetByID(ctx, userID)
	if err != nil {
		return 0, err
	}

	var higher int64
	err = r.db.WithContext(ctx).Model(&entity.User{}).
		Where("role <> ? AND engagement_points > ?", entity.RoleAdmin, user.EngagementPoints).
		Count(&higher).Error
	if err != nil {
		return 0, err
	}
	return higher + 1, nil
}

// ListForReport возвращает всех обучающихся по возрастанию ID
func (r *UserRepo) ListForReport(ctx context.Context) ([]entity.User, error) {
	var users []entity.User
	err := r.db.WithContext(ctx).
		Where("role <> ?", entity.RoleAdmin).
		Order("id").
		Find(&users).Error
	return users, err
}
