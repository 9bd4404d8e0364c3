package store

import (
	"time"

	"gorm.io/gorm"
)

// User is an account, created manually (password) or linked from an
// OAuth provider (provider + provider id, no password hash).
type User struct {
	ID           string    `gorm:"primarykey;size:36" json:"id"`
	Username     string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:100" json:"-"`
	AuthProvider *string   `gorm:"size:32;index:idx_users_provider,unique" json:"auth_provider,omitempty"`
	ProviderID   *string   `gorm:"size:128;index:idx_users_provider,unique" json:"-"`
	AvatarURL    string    `gorm:"size:500" json:"avatar_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// Note is the authoritative note record. Content here changes only on
// explicit save, never from relay traffic. Deletion is soft: the row
// keeps its content until the purge job removes it.
type Note struct {
	NoteID    uint           `gorm:"primarykey" json:"note_id"`
	OwnerID   string         `gorm:"size:36;index;not null" json:"owner_id"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	Content   string         `json:"content"`
	TagID     *uint          `gorm:"index" json:"tag_id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Note) TableName() string {
	return "notes"
}

// Tag names are unique per owner.
type Tag struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	OwnerID   string    `gorm:"size:36;index:idx_tags_owner_name,unique;not null" json:"owner_id"`
	Name      string    `gorm:"size:50;index:idx_tags_owner_name,unique;not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (Tag) TableName() string {
	return "tags"
}

// NoteShare grants another user access to a note. CanEdit distinguishes
// read-only recipients from co-editors.
type NoteShare struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	NoteID    uint      `gorm:"index:idx_shares_note_user,unique;not null" json:"note_id"`
	UserID    string    `gorm:"size:36;index:idx_shares_note_user,unique;not null" json:"user_id"`
	CanEdit   bool      `gorm:"not null;default:false" json:"can_edit"`
	CreatedAt time.Time `json:"created_at"`
}

func (NoteShare) TableName() string {
	return "note_shares"
}
