package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Answer struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	QuestionID string    `gorm:"size:36;not null;index" json:"questionId"`
	AuthorID   string    `gorm:"size:36;not null;index" json:"authorId"`
	Author     User      `gorm:"foreignKey:AuthorID" json:"author"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (a *Answer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

type CreateAnswerRequest struct {
	Content string `json:"content" binding:"required"`
}
