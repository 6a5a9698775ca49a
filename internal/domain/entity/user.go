package entity

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Роли пользователей. Роль определяет трек обучения и набор вопросов.
const (
	RoleKid          = "kid"
	RoleAdult        = "adult"
	RoleProfessional = "professional"
	RoleAdmin        = "admin"
)

// IsLearnerRole возвращает true для ролей, которые пользователь может выбрать сам
func IsLearnerRole(role string) bool {
	switch role {
	case RoleKid, RoleAdult, RoleProfessional:
		return true
	default:
		return false
	}
}

// User представляет пользователя платформы
type User struct {
	ID               uint   `gorm:"primaryKey" json:"id"`
	Username         string `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email            string `gorm:"size:100;not null;uniqueIndex" json:"email"`
	Password         string `gorm:"size:100;not null" json:"-"`
	Role             string `gorm:"size:20;not null;default:'adult'" json:"role"`
	FirstName        string `gorm:"size:100;not null;default:''" json:"firstName"`
	LastName         string `gorm:"size:100;not null;default:''" json:"lastName"`
	Organization     string `gorm:"size:150;not null;default:''" json:"organization"`
	ProfileCompleted bool   `gorm:"not null;default:false" json:"profileCompleted"`

	// EngagementPoints — кешированная сумма очков журнала активности.
	// Меняется только атомарным инкрементом в одной транзакции с записью в журнал.
	EngagementPoints      int64 `gorm:"not null;default:0;index" json:"engagementPoints"`
	TotalTimeSpentMinutes int64 `gorm:"not null;default:0" json:"totalTimeSpentMinutes"`

	PreTestScore        *int       `json:"preTestScore"`
	PreTestMaxScore     *int       `json:"preTestMaxScore,omitempty"`
	PreTestCompletedAt  *time.Time `json:"preTestCompletedAt,omitempty"`
	PostTestScore       *int       `json:"postTestScore"`
	PostTestMaxScore    *int       `json:"postTestMaxScore,omitempty"`
	PostTestCompletedAt *time.Time `json:"postTestCompletedAt,omitempty"`
	ProfileCompletedAt  *time.Time `json:"profileCompletedAt,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName определяет имя таблицы для GORM
func (User) TableName() string {
	return "users"
}

// IsAdmin возвращает true для администратора
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// HasCompletedPostTest — терминальное состояние: пост-тест сдан, пересдачи нет
func (u *User) HasCompletedPostTest() bool {
	return u.PostTestScore != nil && u.PostTestCompletedAt != nil
}

// HasCompletedPreTest возвращает true, если пре-тест уже сдан
func (u *User) HasCompletedPreTest() bool {
	return u.PreTestScore != nil
}

// BeforeSave хеширует пароль перед сохранением, только если он не является bcrypt-хешем
func (u *User) BeforeSave(tx *gorm.DB) error {
	if len(u.Password) > 0 && !isBcryptHash(u.Password) {
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u.Password = string(hashedPassword)
	}
	return nil
}

// CheckPassword проверяет, соответствует ли переданный пароль хешу
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

func isBcryptHash(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
