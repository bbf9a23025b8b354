package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Post represents a blog article written by a user.
type Post struct {
	ID         string    `gorm:"primaryKey;size:36" json:"_id"`
	Title      string    `gorm:"size:255;not null" json:"title"`
	Text       string    `gorm:"type:text;not null" json:"text"`
	Tags       []string  `gorm:"serializer:json;type:text" json:"tags"`
	ViewsCount int64     `gorm:"not null;default:0;index" json:"viewsCount"`
	ImageURL   string    `gorm:"size:1024" json:"imageUrl"`
	UserID     string    `gorm:"size:36;index;not null" json:"-"`
	User       *User     `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt  time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// BeforeCreate assigns an id when the store did not provide one.
func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// MarshalJSON renders the author as the full user when it was resolved and as the bare id otherwise.
func (p Post) MarshalJSON() ([]byte, error) {
	type alias Post
	var author any = p.UserID
	if p.User != nil {
		author = p.User
	}
	return json.Marshal(struct {
		alias
		Author any `json:"user"`
	}{alias: alias(p), Author: author})
}
