package entity

import "time"

// Client contrepartie d'un document (client ou fournisseur selon le côté).
// IsWalkIn: client de passage anonyme du comptoir, contrepartie des commandes
// regroupées par la facturation groupée.
type Client struct {
	ID        string
	Code      string
	Name      string
	Email     string
	Phone     string
	Address   string
	IsWalkIn  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}
