package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestUser_BeforeSave(t *testing.T) {
	preHashed, err := bcrypt.GenerateFromPassword([]byte("already-hashed"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name       string
		password   string
		wantHashed bool
		wantSame   bool
	}{
		{name: "plain password is hashed", password: "s3cret-passw0rd", wantHashed: true},
		{name: "bcrypt hash is kept", password: string(preHashed), wantSame: true},
		{name: "empty password is kept", password: "", wantSame: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &User{Username: "learner", Email: "learner@example.com", Password: tt.password}

			require.NoError(t, u.BeforeSave(nil))

			if tt.wantSame {
				assert.Equal(t, tt.password, u.Password)
			}
			if tt.wantHashed {
				assert.True(t, isBcryptHash(u.Password), "Ожидался bcrypt-хеш, получено %q", u.Password)
				assert.True(t, u.CheckPassword(tt.password))
			}
		})
	}
}

func TestUser_CheckPassword(t *testing.T) {
	u := &User{Password: "correct-horse"}
	require.NoError(t, u.BeforeSave(nil))

	assert.True(t, u.CheckPassword("correct-horse"))
	assert.False(t, u.CheckPassword("battery-staple"))
	assert.False(t, u.CheckPassword(""))
}

func TestUser_TestCompletion(t *testing.T) {
	score := 8
	now := time.Now()

	assert.False(t, (&User{}).HasCompletedPreTest())
	assert.True(t, (&User{PreTestScore: &score}).HasCompletedPreTest())

	assert.False(t, (&User{}).HasCompletedPostTest(), "Без балла пост-тест не завершён")
	assert.False(t, (&User{PostTestScore: &score}).HasCompletedPostTest(), "Без отметки времени состояние не терминальное")
	assert.True(t, (&User{PostTestScore: &score, PostTestCompletedAt: &now}).HasCompletedPostTest())
}

func TestUser_Roles(t *testing.T) {
	assert.True(t, (&User{Role: RoleAdmin}).IsAdmin())
	assert.False(t, (&User{Role: RoleProfessional}).IsAdmin())

	for _, role := range []string{RoleKid, RoleAdult, RoleProfessional} {
		assert.True(t, IsLearnerRole(role), role)
	}
	assert.False(t, IsLearnerRole(RoleAdmin), "Роль admin нельзя выбрать самостоятельно")
	assert.False(t, IsLearnerRole(""))
	assert.Equal(t, "users", User{}.TableName())
}
