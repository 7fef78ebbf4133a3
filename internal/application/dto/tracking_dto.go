package dto

// TrackingUpdateRequest body pour PUT /api/orders/:id/tracking.
// State et ReturnState sont exclusifs: un appel avance soit le cycle de
// livraison, soit le cycle retour.
type TrackingUpdateRequest struct {
	Carrier     string `json:"carrier,omitempty"`
	State       string `json:"state,omitempty"`
	ReturnState string `json:"return_state,omitempty"`
}

// TrackingResponse suivi de livraison d'une commande.
type TrackingResponse struct {
	OrderID     string `json:"order_id"`
	Carrier     string `json:"carrier"`
	State       string `json:"state"`
	ReturnState string `json:"return_state,omitempty"`
	UpdatedAt   string `json:"updated_at"`
}
