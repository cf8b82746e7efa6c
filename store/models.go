package store

import (
	"time"

	"github.com/tasuku-app/tasuku/auth"
)

// UserModel is the GORM model for the users relation. Provider ids and the
// password hash are nullable pointers so that absent values stay NULL and
// the per-provider unique indexes ignore them.
type UserModel struct {
	ID           int64     `gorm:"primaryKey;autoIncrement"`
	Name         string    `gorm:"size:64;index"`
	PasswordHash *string   `gorm:"size:128"`
	DiscordID    *string   `gorm:"column:discord_id;size:64;uniqueIndex"`
	GoogleID     *string   `gorm:"column:google_id;size:64;uniqueIndex"`
	XID          *string   `gorm:"column:x_id;size:64;uniqueIndex"`
	Email        *string   `gorm:"size:255"`
	Avatar       *string   `gorm:"size:512"`
	AccessToken  *string   `gorm:"size:512"`
	CreatedAt    time.Time `gorm:"autoCreateTime"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime"`
}

func (UserModel) TableName() string {
	return "users"
}

func (m *UserModel) ToUser() *auth.User {
	return &auth.User{
		ID:           m.ID,
		Name:         m.Name,
		PasswordHash: deref(m.PasswordHash),
		DiscordID:    deref(m.DiscordID),
		GoogleID:     deref(m.GoogleID),
		XID:          deref(m.XID),
		Email:        deref(m.Email),
		Avatar:       deref(m.Avatar),
		AccessToken:  deref(m.AccessToken),
	}
}

func UserToModel(u *auth.User) *UserModel {
	return &UserModel{
		ID:           u.ID,
		Name:         u.Name,
		PasswordHash: optional(u.PasswordHash),
		DiscordID:    optional(u.DiscordID),
		GoogleID:     optional(u.GoogleID),
		XID:          optional(u.XID),
		Email:        optional(u.Email),
		Avatar:       optional(u.Avatar),
		AccessToken:  optional(u.AccessToken),
	}
}

// TaskModel is the GORM model for the tasks relation.
type TaskModel struct {
	ID        int64     `gorm:"primaryKey;autoIncrement"`
	UserID    int64     `gorm:"index;not null"`
	Content   string    `gorm:"size:1024;not null"`
	Done      bool      `gorm:"default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (TaskModel) TableName() string {
	return "tasks"
}

func (m *TaskModel) ToTask() *Task {
	return &Task{
		ID:      m.ID,
		UserID:  m.UserID,
		Content: m.Content,
		Done:    m.Done,
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
