package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

// User is a registered customer account.
type User struct {
	gorm.Model
	Email          string `gorm:"unique_index;not null" json:"email"`
	Name           string `gorm:"not null" json:"name"`
	HashedPassword string `gorm:"not null" json:"-"`
	Disabled       bool   `json:"disabled"`
}

// Conversation groups the messages of one ordering session.
type Conversation struct {
	gorm.Model
	Title     string `json:"title"`
	UserEmail string `gorm:"index" json:"user_email"`
	Status    string `gorm:"default:'open'" json:"status"`
}

// Conversation lifecycle states. A conversation is completed once its order
// has been committed; further confirmations are rejected.
const (
	ConversationOpen      = "open"
	ConversationCompleted = "completed"
)

// Message is one turn of a conversation, append-only.
type Message struct {
	gorm.Model
	ConversationID uint      `gorm:"index" json:"conversation_id"`
	Text           string    `gorm:"type:text" json:"text"`
	IsUser         bool      `json:"is_user"`
	Timestamp      time.Time `json:"timestamp"`
}

// Commande is a committed order, immutable once created. Vegetables and
// sauces are stored as joined display strings (empty when none were asked).
// JSON tags match the frames the kitchen displays already consume.
type Commande struct {
	gorm.Model
	Plat           string `json:"plat"`
	Viande         string `json:"viande"`
	Legumes        string `json:"legumes"`
	Sauces         string `json:"sauces"`
	Taille         string `json:"taille"`
	Table          int    `gorm:"column:table_number" json:"table"`
	ConversationID uint   `gorm:"index" json:"conversation_id"`
	UserEmail      string `json:"user_email"`
}
