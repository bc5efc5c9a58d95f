package workflow

import (
	"fmt"
	"strings"

	"snackzinabi/internal/models"
)

// Customer-facing responses. French, like the assistant itself.
const (
	msgPromptConfirmation = `Votre commande n'est pas encore confirmée. Quand tout est prêt, tapez "je confirme" pour la valider.`
	msgAlreadyConfirmed   = "Votre commande a déjà été confirmée et transmise en cuisine."
	msgStorageError       = "Une erreur est survenue lors de l'enregistrement de votre commande. Veuillez réessayer dans un instant."
	noneDisplay           = "aucun"
)

func incompleteResponse(missing []string) string {
	return fmt.Sprintf(
		"Vous avez demandé la confirmation, mais il manque encore : %s. Pouvez-vous préciser ?",
		strings.Join(missing, ", "),
	)
}

func successResponse(c *models.Commande) string {
	legumes := c.Legumes
	if legumes == "" {
		legumes = noneDisplay
	}
	sauces := c.Sauces
	if sauces == "" {
		sauces = noneDisplay
	}
	return fmt.Sprintf(
		"Votre commande est confirmée ! Plat : %s, Viande : %s, Taille : %s, Légumes : %s, Sauces : %s, Table : %d. Elle a été transmise en cuisine. Merci !",
		c.Plat, c.Viande, c.Taille, legumes, sauces, c.Table,
	)
}
