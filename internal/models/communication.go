package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Comment is an append-only remark attached to exactly one activity.
type Comment struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	ActivityID string    `gorm:"size:36;index;not null" json:"activity_id"`
	UserID     string    `gorm:"size:36;index;not null" json:"user_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Author     *Profile  `gorm:"foreignKey:UserID" json:"author,omitempty"`
}

// BeforeCreate assigns the comment identifier.
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// Channel is a named group-messaging space with a flat member list.
type Channel struct {
	ID          string                      `gorm:"primaryKey;size:36" json:"id"`
	Name        string                      `gorm:"size:255;not null" json:"name"`
	Description *string                     `gorm:"type:text" json:"description,omitempty"`
	InternIDs   datatypes.JSONSlice[string] `gorm:"type:json" json:"intern_ids"`
	CreatedBy   string                      `gorm:"size:36;index;not null" json:"created_by"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// BeforeCreate assigns the channel identifier.
func (c *Channel) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	return nil
}

// HasMember reports whether the profile is listed as a channel member.
func (c Channel) HasMember(profileID string) bool {
	for _, id := range c.InternIDs {
		if id == profileID {
			return true
		}
	}
	return false
}

// Message is an append-only chat entry inside a channel.
type Message struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	ChannelID string    `gorm:"size:36;index;not null" json:"channel_id"`
	UserID    string    `gorm:"size:36;index;not null" json:"user_id"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	MediaURL  *string   `gorm:"size:512" json:"media_url,omitempty"`
	MediaType *string   `gorm:"size:64" json:"media_type,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Author    *Profile  `gorm:"foreignKey:UserID" json:"author,omitempty"`
}

// BeforeCreate assigns the message identifier.
func (m *Message) BeforeCreate(tx *gorm.DB) error {
	ensureID(&m.ID)
	return nil
}

// Notification types emitted by the portal.
const (
	NotificationActivitySubmitted = "activity_submitted"
	NotificationActivityReviewed  = "activity_reviewed"
	NotificationNewComment        = "new_comment"
	NotificationNewMessage        = "new_message"
	NotificationProfileUpdated    = "profile_updated"
)

// Notification is a per-user message; only the read flag ever changes.
type Notification struct {
	ID        string    `gorm:"primaryKey;size:36" json:"id"`
	UserID    string    `gorm:"size:36;index;not null" json:"user_id"`
	Type      string    `gorm:"size:64;not null" json:"type"`
	Title     string    `gorm:"size:255;not null" json:"title"`
	Message   string    `gorm:"type:text" json:"message"`
	Read      bool      `gorm:"not null;default:false" json:"read"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate assigns the notification identifier.
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	ensureID(&n.ID)
	return nil
}
