package repository

import (
	"context"
	"fmt"

	"github.com/jinzhu/gorm"

	"snackzinabi/internal/extraction"
	"snackzinabi/internal/models"
)

// Orders is the gorm-backed order store.
type Orders struct {
	db *gorm.DB
}

// NewOrders creates the store.
func NewOrders(db *gorm.DB) *Orders {
	return &Orders{db: db}
}

// Insert persists a complete candidate order as an immutable Commande.
func (o *Orders) Insert(ctx context.Context, c extraction.CandidateOrder, conversationID uint, userEmail string) (*models.Commande, error) {
	commande := &models.Commande{
		Plat:           c.Dish,
		Viande:         c.Meat,
		Legumes:        c.VegetablesDisplay(),
		Sauces:         c.SaucesDisplay(),
		Taille:         c.Size,
		Table:          c.Table,
		ConversationID: conversationID,
		UserEmail:      userEmail,
	}
	if err := o.db.Create(commande).Error; err != nil {
		return nil, fmt.Errorf("insert commande: %w", err)
	}
	return commande, nil
}

// MarkConversationCompleted flips the conversation status.
func (o *Orders) MarkConversationCompleted(ctx context.Context, conversationID uint) error {
	err := o.db.Model(&models.Conversation{}).
		Where("id = ?", conversationID).
		Update("status", models.ConversationCompleted).Error
	if err != nil {
		return fmt.Errorf("mark conversation completed: %w", err)
	}
	return nil
}

// ConversationCompleted reports whether the conversation already has a
// committed order. Unknown conversations count as not completed.
func (o *Orders) ConversationCompleted(ctx context.Context, conversationID uint) (bool, error) {
	var conv models.Conversation
	err := o.db.Select("status").Where("id = ?", conversationID).First(&conv).Error
	if gorm.IsRecordNotFoundError(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load conversation status: %w", err)
	}
	return conv.Status == models.ConversationCompleted, nil
}

// List returns committed orders, newest first. Used by the kitchen
// dashboard to show the backlog on connect.
func (o *Orders) List(ctx context.Context, limit int) ([]models.Commande, error) {
	var commandes []models.Commande
	q := o.db.Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&commandes).Error; err != nil {
		return nil, fmt.Errorf("list commandes: %w", err)
	}
	return commandes, nil
}
