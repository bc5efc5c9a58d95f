package assistant

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"snackzinabi/internal/config"
	"snackzinabi/internal/models"
)

// Assistant is the LLM-backed waiter. It guides the customer through
// composing an order, one question at a time, and produces the structured
// recap the confirmation workflow parses back.
type Assistant struct {
	llm         llms.Model
	menu        []config.MenuItem
	temperature float64
	maxTokens   int
}

// New builds the assistant on any OpenAI-compatible endpoint. The API token
// comes from the environment variable named in the configuration.
func New(cfg config.LLMConfig, menu []config.MenuItem) (*Assistant, error) {
	token := os.Getenv(cfg.APIKeyEnv)
	if token == "" {
		return nil, fmt.Errorf("assistant: %s is not set", cfg.APIKeyEnv)
	}

	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("assistant: init llm client: %w", err)
	}

	return &Assistant{
		llm:         client,
		menu:        menu,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Reply generates the assistant's next turn. history must end with the
// customer's latest message.
func (a *Assistant) Reply(ctx context.Context, history []models.Message) (string, error) {
	var latest string
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].IsUser {
			latest = history[i].Text
			break
		}
	}

	prompt := a.buildPrompt(history, latest)
	response, err := llms.GenerateFromSinglePrompt(ctx, a.llm, prompt,
		llms.WithTemperature(a.temperature),
		llms.WithMaxTokens(a.maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("assistant: generate: %w", err)
	}
	return strings.TrimSpace(response), nil
}

// buildPrompt assembles the instruction, the relevant menu context and the
// formatted conversation history.
func (a *Assistant) buildPrompt(history []models.Message, userInput string) string {
	var b strings.Builder

	b.WriteString("Tu es un assistant virtuel qui aide les clients à passer commande dans un snack.\n\n")
	b.WriteString("Voici les plats disponibles :\n")
	for _, item := range selectMenuContext(a.menu, userInput, 3) {
		fmt.Fprintf(&b, "- %s : %s (%.2f €)\n", item.Name, item.Description, item.Price)
	}

	b.WriteString("\nTa mission est de guider le client étape par étape, en posant une question à la fois, et en gardant le fil de la conversation.\n")
	b.WriteString("Lorsque tu demandes la table, pose la question ainsi : \"À quelle table etes-vous assis ?\".\n")
	b.WriteString("Quand tous les éléments sont réunis (plat, viande, taille, légumes, sauces, table), résume la commande comme ceci :\n")
	b.WriteString("< Pour résumer votre commande : Plat : ... , Viande : ... , Taille : ... , Légumes : ... , Sauces : ... , Table : ... .> et propose la confirmation en disant au client de taper \"je confirme\".\n\n")
	b.WriteString("Ne parle jamais entre parenthèses. N'utilise jamais de remarque, de note interne, de commentaire ou d'explication entre parenthèses ou autrement. Adresse-toi uniquement au client, de façon naturelle et amicale, comme un serveur humain. Ne dis jamais 'Remarque :, Utilisateur : ou Assistant :' ou toute autre note interne.\n\n")

	b.WriteString("Historique de la conversation :\n")
	for _, msg := range history {
		if msg.IsUser {
			fmt.Fprintf(&b, "Utilisateur : %s\n", msg.Text)
		} else {
			fmt.Fprintf(&b, "Assistant : %s\n", msg.Text)
		}
	}
	b.WriteString("Assistant :\n")

	return b.String()
}

// selectMenuContext picks the k menu items most relevant to the input by
// shared-token count, falling back to menu order when nothing matches.
// Unavailable items are never offered.
func selectMenuContext(menu []config.MenuItem, input string, k int) []config.MenuItem {
	type scored struct {
		item  config.MenuItem
		score int
		pos   int
	}

	tokens := strings.Fields(strings.ToLower(input))
	var candidates []scored
	for i, item := range menu {
		if !item.Available {
			continue
		}
		haystack := strings.ToLower(item.Name + " " + item.Description + " " + strings.Join(item.Tags, " "))
		score := 0
		for _, tok := range tokens {
			if strings.Contains(haystack, tok) {
				score++
			}
		}
		candidates = append(candidates, scored{item: item, score: score, pos: i})
	}

	// Best scores first, menu order as tie-break.
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].pos < candidates[j].pos
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}
	result := make([]config.MenuItem, 0, len(candidates))
	for _, c := range candidates {
		result = append(result, c.item)
	}
	return result
}
