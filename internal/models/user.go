// internal/models/user.go
package models

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type User struct {
	BaseModel
	Name                    string                                   `json:"name" gorm:"size:255;not null"`
	Email                   string                                   `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Username                *string                                  `json:"username" gorm:"uniqueIndex;size:50"`
	GoogleID                *string                                  `json:"-" gorm:"uniqueIndex;size:255"`
	PasswordHash            string                                   `json:"-" gorm:"size:255"`
	ProfilePicture          string                                   `json:"profile_picture" gorm:"size:1024"`
	Bio                     string                                   `json:"bio" gorm:"type:text"`
	PhoneNumber             string                                   `json:"phone_number" gorm:"size:50"`
	DateOfBirth             *time.Time                               `json:"date_of_birth"`
	IsActive                bool                                     `json:"is_active" gorm:"not null"`
	UserType                UserType                                 `json:"user_type" gorm:"type:varchar(20);not null;default:'customer'"`
	VerificationLevel       VerificationLevel                        `json:"verification_level" gorm:"type:varchar(20);not null;default:'Unverified'"`
	NotificationPreferences datatypes.JSONType[NotificationSettings] `json:"-"`
	PrivacySettings         datatypes.JSONType[PrivacySettings]      `json:"-"`
	LastLogin               *time.Time                               `json:"last_login"`

	// Relationships
	Payments        []Payment              `json:"-" gorm:"foreignKey:UserID"`
	Authentications []AuthenticationRecord `json:"-" gorm:"foreignKey:UserID"`
}

type NotificationSettings struct {
	PushNotifications bool `json:"push_notifications"`
	EmailUpdates      bool `json:"email_updates"`
	SMSNotifications  bool `json:"sms_notifications"`
}

type PrivacySettings struct {
	ProfileVisibility         string `json:"profile_visibility" validate:"required,oneof=public friends private"`
	ShowAuthenticationHistory bool   `json:"show_authentication_history"`
	AllowContact              bool   `json:"allow_contact"`
}

func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{PushNotifications: true}
}

func DefaultPrivacySettings() PrivacySettings {
	return PrivacySettings{
		ProfileVisibility:         "public",
		ShowAuthenticationHistory: true,
		AllowContact:              true,
	}
}

func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	if u.Email == "" {
		return fmt.Errorf("user email is required")
	}
	if u.UserType == "" {
		u.UserType = UserTypeCustomer
	}
	if u.VerificationLevel == "" {
		u.VerificationLevel = VerificationLevelUnverified
	}
	if u.NotificationPreferences.Data() == (NotificationSettings{}) && u.CreatedAt.IsZero() {
		u.NotificationPreferences = datatypes.NewJSONType(DefaultNotificationSettings())
	}
	if u.PrivacySettings.Data().ProfileVisibility == "" {
		u.PrivacySettings = datatypes.NewJSONType(DefaultPrivacySettings())
	}
	return nil
}

func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	if u.PasswordHash == "" {
		return bcrypt.ErrMismatchedHashAndPassword
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password))
}

// MemberSince is the year the account was created.
func (u *User) MemberSince() string {
	return u.CreatedAt.Format("2006")
}
