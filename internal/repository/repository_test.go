package repository

import (
	"context"
	"testing"

	"github.com/jinzhu/gorm"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snackzinabi/internal/database"
	"snackzinabi/internal/extraction"
	"snackzinabi/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

func TestTranscriptsAppendAndHistory(t *testing.T) {
	db := testDB(t)
	transcripts := NewTranscripts(db)
	ctx := context.Background()

	conv, err := transcripts.CreateConversation(ctx, "Nouvelle commande", "a@b.fr")
	require.NoError(t, err)
	require.NotZero(t, conv.ID)
	assert.Equal(t, models.ConversationOpen, conv.Status)

	require.NoError(t, transcripts.Append(ctx, conv.ID, "bonjour", true))
	require.NoError(t, transcripts.Append(ctx, conv.ID, "Bonjour ! Que souhaitez-vous ?", false))

	history, err := transcripts.History(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "bonjour", history[0].Text)
	assert.True(t, history[0].IsUser)
	assert.False(t, history[1].IsUser)
}

func TestLastAssistantMessage(t *testing.T) {
	db := testDB(t)
	transcripts := NewTranscripts(db)
	ctx := context.Background()

	conv, err := transcripts.CreateConversation(ctx, "commande", "a@b.fr")
	require.NoError(t, err)

	// No messages at all.
	text, err := transcripts.LastAssistantMessage(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, text)

	// Only a user message: no qualifying assistant message.
	require.NoError(t, transcripts.Append(ctx, conv.ID, "je confirme", true))
	text, err = transcripts.LastAssistantMessage(ctx, conv.ID)
	require.NoError(t, err)
	assert.Empty(t, text)

	// Assistant summary followed by the confirming user message: the
	// summary is returned, not an older assistant turn.
	require.NoError(t, transcripts.Append(ctx, conv.ID, "Que souhaitez-vous ?", false))
	require.NoError(t, transcripts.Append(ctx, conv.ID, "un tacos", true))
	require.NoError(t, transcripts.Append(ctx, conv.ID, "Pour résumer votre commande : Plat : tacos , Table : 5 .", false))
	require.NoError(t, transcripts.Append(ctx, conv.ID, "je confirme", true))

	text, err = transcripts.LastAssistantMessage(ctx, conv.ID)
	require.NoError(t, err)
	assert.Contains(t, text, "Pour résumer votre commande")

	// An assistant message after the latest user message does not qualify.
	require.NoError(t, transcripts.Append(ctx, conv.ID, "C'est noté !", false))
	text, err = transcripts.LastAssistantMessage(ctx, conv.ID)
	require.NoError(t, err)
	assert.Contains(t, text, "Pour résumer votre commande")
}

func TestOrdersInsertAndConversationCompletion(t *testing.T) {
	db := testDB(t)
	transcripts := NewTranscripts(db)
	orders := NewOrders(db)
	ctx := context.Background()

	conv, err := transcripts.CreateConversation(ctx, "commande", "a@b.fr")
	require.NoError(t, err)

	done, err := orders.ConversationCompleted(ctx, conv.ID)
	require.NoError(t, err)
	assert.False(t, done)

	candidate := extraction.CandidateOrder{
		Dish:       "tacos",
		Meat:       "poulet",
		Sauces:     []string{"mayonnaise", "ketchup"},
		Vegetables: []string{"tomate"},
		Size:       "grand",
		Table:      5,
		Confirmed:  true,
	}
	commande, err := orders.Insert(ctx, candidate, conv.ID, "a@b.fr")
	require.NoError(t, err)
	require.NotZero(t, commande.ID)
	assert.Equal(t, "mayonnaise, ketchup", commande.Sauces)
	assert.Equal(t, "tomate", commande.Legumes)
	assert.Equal(t, 5, commande.Table)

	require.NoError(t, orders.MarkConversationCompleted(ctx, conv.ID))
	done, err = orders.ConversationCompleted(ctx, conv.ID)
	require.NoError(t, err)
	assert.True(t, done)

	// Unknown conversations count as not completed.
	done, err = orders.ConversationCompleted(ctx, 999)
	require.NoError(t, err)
	assert.False(t, done)
}

func TestOrdersList(t *testing.T) {
	db := testDB(t)
	orders := NewOrders(db)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		_, err := orders.Insert(ctx, extraction.CandidateOrder{
			Dish: "tacos", Meat: "thon", Size: "petit", Table: i,
		}, uint(i), "a@b.fr")
		require.NoError(t, err)
	}

	all, err := orders.List(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	limited, err := orders.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestUsers(t *testing.T) {
	db := testDB(t)
	users := NewUsers(db)
	ctx := context.Background()

	missing, err := users.ByEmail(ctx, "absent@b.fr")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, users.Create(ctx, &models.User{
		Email: "a@b.fr", Name: "Client", HashedPassword: "hash",
	}))

	user, err := users.ByEmail(ctx, "a@b.fr")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "Client", user.Name)
}
