package models

import "time"

// User is a citizen identified by their National Identification Number.
type User struct {
	ID          int64      `gorm:"column:id;primaryKey;autoIncrement"`
	NIN         string     `gorm:"column:nin;size:11;not null;unique"`
	FirstName   string     `gorm:"column:first_name;size:200;not null"`
	LastName    string     `gorm:"column:last_name;size:200;not null"`
	MiddleName  *string    `gorm:"column:middle_name;size:200"`
	Email       string     `gorm:"column:email;size:100;not null"`
	PhoneNumber string     `gorm:"column:phone_number;size:20;not null"`
	DateOfBirth time.Time  `gorm:"column:date_of_birth"`
	Gender      string     `gorm:"column:gender;size:10"`
	IsActive    bool       `gorm:"column:is_active;not null;default:true"`
	LastLoginAt *time.Time `gorm:"column:last_login_at"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`

	Applications []Application `gorm:"foreignKey:UserID"`
}

// FullName joins first, middle, and last names, skipping an absent middle name.
func (u User) FullName() string {
	if u.MiddleName != nil && *u.MiddleName != "" {
		return u.FirstName + " " + *u.MiddleName + " " + u.LastName
	}
	return u.FirstName + " " + u.LastName
}
