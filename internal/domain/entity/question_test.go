package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/datatypes"
)

func TestAssessmentQuestion_IsCorrect(t *testing.T) {
	q := &AssessmentQuestion{
		Options:       datatypes.JSONSlice[string]{"Water", "CO2", "Foam", "Sand"},
		CorrectAnswer: 1,
	}

	assert.True(t, q.IsCorrect(1))
	assert.False(t, q.IsCorrect(0))
	assert.False(t, q.IsCorrect(-1), "Сравнение строго по индексу")
}

func TestAssessmentQuestion_IsValidOption(t *testing.T) {
	q := &AssessmentQuestion{Options: datatypes.JSONSlice[string]{"A", "B"}}

	assert.True(t, q.IsValidOption(0))
	assert.True(t, q.IsValidOption(1))
	assert.False(t, q.IsValidOption(2))
	assert.False(t, q.IsValidOption(-1))
}

func TestAssessmentQuestion_AvailableFor(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		role  string
		want  bool
	}{
		{name: "empty list means everyone", roles: nil, role: RoleKid, want: true},
		{name: "role listed", roles: []string{RoleKid, RoleAdult}, role: RoleAdult, want: true},
		{name: "role not listed", roles: []string{RoleKid}, role: RoleProfessional, want: false},
		{name: "admin sees everything", roles: []string{RoleKid}, role: RoleAdmin, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &AssessmentQuestion{ForRoles: tt.roles}
			assert.Equal(t, tt.want, q.AvailableFor(tt.role))
		})
	}
}

func TestEventType_IsValid(t *testing.T) {
	for _, et := range AllEventTypes() {
		assert.True(t, et.IsValid(), "тип %s должен быть допустимым", et)
	}
	assert.False(t, EventType("webinar").IsValid())
	assert.False(t, EventType("").IsValid())
	assert.False(t, EventType("Module").IsValid(), "Сравнение чувствительно к регистру")
}

func TestEventType_IsAssessment(t *testing.T) {
	assert.True(t, EventPreTest.IsAssessment())
	assert.True(t, EventPostTest.IsAssessment())
	assert.False(t, EventModule.IsAssessment())
	assert.False(t, EventType("webinar").IsAssessment())
}

func TestTestType_EventType(t *testing.T) {
	assert.Equal(t, EventPreTest, TestTypePre.EventType())
	assert.Equal(t, EventPostTest, TestTypePost.EventType())
	assert.True(t, TestTypePre.IsValid())
	assert.False(t, TestType("midTest").IsValid())
}
