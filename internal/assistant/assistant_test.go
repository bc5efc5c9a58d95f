package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snackzinabi/internal/config"
	"snackzinabi/internal/models"
)

func testMenu() []config.MenuItem {
	return []config.MenuItem{
		{Name: "tacos", Description: "Tacos à la française, viande au choix", Tags: []string{"tacos"}, Available: true},
		{Name: "sandwich", Description: "Sandwich baguette, crudités", Tags: []string{"sandwich"}, Available: true},
		{Name: "panini", Description: "Panini grillé", Tags: []string{"panini"}, Available: false},
		{Name: "salade", Description: "Salade composée", Tags: []string{"salade"}, Available: true},
	}
}

func TestSelectMenuContextRelevanceFirst(t *testing.T) {
	items := selectMenuContext(testMenu(), "je veux un sandwich", 2)

	require.NotEmpty(t, items)
	assert.Equal(t, "sandwich", items[0].Name)
	assert.Len(t, items, 2)
}

func TestSelectMenuContextSkipsUnavailable(t *testing.T) {
	items := selectMenuContext(testMenu(), "un panini svp", 4)

	for _, item := range items {
		assert.NotEqual(t, "panini", item.Name)
	}
	assert.Len(t, items, 3)
}

func TestSelectMenuContextFallsBackToMenuOrder(t *testing.T) {
	items := selectMenuContext(testMenu(), "bonjour", 2)

	require.Len(t, items, 2)
	assert.Equal(t, "tacos", items[0].Name)
	assert.Equal(t, "sandwich", items[1].Name)
}

func TestBuildPrompt(t *testing.T) {
	a := &Assistant{menu: testMenu()}

	history := []models.Message{
		{Text: "Bonjour !", IsUser: false},
		{Text: "je veux un tacos", IsUser: true},
	}
	prompt := a.buildPrompt(history, "je veux un tacos")

	assert.Contains(t, prompt, "passer commande dans un snack")
	assert.Contains(t, prompt, "Pour résumer votre commande")
	assert.Contains(t, prompt, "Assistant : Bonjour !")
	assert.Contains(t, prompt, "Utilisateur : je veux un tacos")
	assert.Contains(t, prompt, "tacos")
	// The prompt ends with the assistant's turn to speak.
	assert.Contains(t, prompt, "Assistant :\n")
}
