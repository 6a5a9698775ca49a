package dto

import (
	"time"

	"github.com/firewise/fireedu-api/internal/domain/entity"
)

// RegisterRequest — запрос на регистрацию
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

// LoginRequest — запрос на вход
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CompleteProfileRequest — заполнение профиля и выбор трека обучения
type CompleteProfileRequest struct {
	Role         string `json:"role" binding:"required,oneof=kid adult professional"`
	FirstName    string `json:"firstName" binding:"required,max=100"`
	LastName     string `json:"lastName" binding:"max=100"`
	Organization string `json:"organization" binding:"max=150"`
}

// UserResponse — пользователь в ответе клиенту
type UserResponse struct {
	ID                    uint       `json:"id"`
	Username              string     `json:"username"`
	Email                 string     `json:"email"`
	Role                  string     `json:"role"`
	FirstName             string     `json:"firstName"`
	LastName              string     `json:"lastName"`
	Organization          string     `json:"organization"`
	ProfileCompleted      bool       `json:"profileCompleted"`
	EngagementPoints      int64      `json:"engagementPoints"`
	TotalTimeSpentMinutes int64      `json:"totalTimeSpentMinutes"`
	PreTestScore          *int       `json:"preTestScore"`
	PreTestMaxScore       *int       `json:"preTestMaxScore,omitempty"`
	PostTestScore         *int       `json:"postTestScore"`
	PostTestMaxScore      *int       `json:"postTestMaxScore,omitempty"`
	PostTestCompletedAt   *time.Time `json:"postTestCompletedAt,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
}

// NewUserResponse создает DTO пользователя
func NewUserResponse(u *entity.User) *UserResponse {
	return &UserResponse{
		ID:                    u.ID,
		Username:              u.Username,
		Email:                 u.Email,
		Role:                  u.Role,
		FirstName:             u.FirstName,
		LastName:              u.LastName,
		Organization:          u.Organization,
		ProfileCompleted:      u.ProfileCompleted,
		EngagementPoints:      u.EngagementPoints,
		TotalTimeSpentMinutes: u.TotalTimeSpentMinutes,
		PreTestScore:          u.PreTestScore,
		PreTestMaxScore:       u.PreTestMaxScore,
		PostTestScore:         u.PostTestScore,
		PostTestMaxScore:      u.PostTestMaxScore,
		PostTestCompletedAt:   u.PostTestCompletedAt,
		CreatedAt:             u.CreatedAt,
	}
}

// LeaderboardUserDTO представляет одного пользователя в лидерборде
type LeaderboardUserDTO struct {
	Rank             int    `json:"rank"`
	UserID           uint   `json:"userId"`
	Username         string `json:"username"`
	Role             string `json:"role"`
	EngagementPoints int64  `json:"engagementPoints"`
}

// PaginatedLeaderboardResponse представляет пагинированный ответ для лидерборда
type PaginatedLeaderboardResponse struct {
	Users   []*LeaderboardUserDTO `json:"users"`
	Total   int64                 `json:"total"`
	Page    int                   `json:"page"`
	PerPage int                   `json:"perPage"`
}
