package models

type User struct {
	BaseModelWithDeleted
	Email          string     `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash   string     `gorm:"not null" json:"-"`
	FirstName      string     `json:"first_name"`
	LastName       string     `json:"last_name"`
	Role           UserRole   `gorm:"type:varchar(20);default:'alumnus';index" json:"role"`
	Status         UserStatus `gorm:"type:varchar(20);default:'pending'" json:"status"`
	IsVerified     bool       `gorm:"default:false" json:"is_verified"`
	GraduationYear int        `json:"graduation_year,omitempty"`
	Degree         string     `json:"degree,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}
