package entity

import "time"

// DeliveryTracking sous-état de livraison attaché à une commande expédiée.
// ReturnState est vide tant que le cycle retour n'est pas ouvert.
// Les états transporteur arrivent du collaborateur externe et ne touchent
// jamais aux montants.
type DeliveryTracking struct {
	OrderID     string
	Carrier     string
	State       string
	ReturnState string
	UpdatedAt   time.Time
}
