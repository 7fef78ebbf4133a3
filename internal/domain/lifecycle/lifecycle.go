package lifecycle

import (
	"github.com/haythemba/gescom-api/internal/domain"
	"github.com/haythemba/gescom-api/internal/domain/entity"
)

// Statuts par type de document. Les cycles sont strictement avant: aucune
// transition de retour, pas d'annulation générique hors des arcs listés.
const (
	// Devis
	StatusEnAttente = "EN_ATTENTE"
	StatusAccepte   = "ACCEPTE"
	StatusRefuse    = "REFUSE"
	StatusAnnule    = "ANNULE"

	// Commande
	StatusAnnulee            = "ANNULEE"
	StatusEnPreparation      = "EN_PREPARATION"
	StatusEnLivraison        = "EN_LIVRAISON"
	StatusLivree             = "LIVREE"
	StatusRetournee          = "RETOURNEE"
	StatusRefusTransporteur1 = "REFUS_TRANSPORTEUR_1"
	StatusRefusTransporteur2 = "REFUS_TRANSPORTEUR_2"

	// Bon de livraison
	StatusLivre = "LIVRE"

	// Facture / avoir
	StatusBrouillon = "BROUILLON"
	StatusEnvoyee   = "ENVOYEE"
	StatusPayee     = "PAYEE"
	StatusValide    = "VALIDE"
)

// Sous-états de suivi de livraison (alimentés par le transporteur).
const (
	TrackingEnAttente        = "EN_ATTENTE"
	TrackingRecupere         = "RECUPERE"
	TrackingEnTransit        = "EN_TRANSIT"
	TrackingEnCoursLivraison = "EN_COURS_LIVRAISON"
	TrackingLivre            = "LIVRE"
	TrackingEchec            = "ECHEC"

	// Cycle retour, ouvert après un échec de livraison ou un refus transporteur.
	// RETOUR_STOCKE est terminal et déclenche la remise en stock physique.
	ReturnEnAttente = "RETOUR_EN_ATTENTE"
	ReturnEnTransit = "RETOUR_EN_TRANSIT"
	ReturnStocke    = "RETOUR_STOCKE"
)

// transitions table d'adjacence des statuts par type de document.
var transitions = map[entity.DocumentType]map[string][]string{
	entity.TypeDevis: {
		StatusEnAttente: {StatusAccepte, StatusRefuse, StatusAnnule},
	},
	entity.TypeCommande: {
		StatusEnAttente:          {StatusAnnulee, StatusEnPreparation},
		StatusEnPreparation:      {StatusEnLivraison},
		StatusEnLivraison:        {StatusLivree, StatusRetournee, StatusRefusTransporteur1},
		StatusRefusTransporteur1: {StatusRefusTransporteur2},
		StatusRefusTransporteur2: {StatusAnnulee},
	},
	entity.TypeBonLivraison: {
		StatusEnAttente: {StatusLivre, StatusAnnule},
	},
	entity.TypeFacture: {
		StatusBrouillon: {StatusEnvoyee, StatusAnnulee},
		StatusEnvoyee:   {StatusPayee, StatusAnnulee},
	},
	entity.TypeAvoir: {
		StatusBrouillon: {StatusValide, StatusAnnule},
	},
}

// trackingTransitions table d'adjacence des sous-états de livraison.
var trackingTransitions = map[string][]string{
	TrackingEnAttente:        {TrackingRecupere},
	TrackingRecupere:         {TrackingEnTransit},
	TrackingEnTransit:        {TrackingEnCoursLivraison, TrackingEchec},
	TrackingEnCoursLivraison: {TrackingLivre, TrackingEchec},
}

// returnTransitions cycle retour. "" -> RETOUR_EN_ATTENTE correspond à
// l'ouverture du cycle (autorisée seulement après échec ou refus).
var returnTransitions = map[string][]string{
	"":              {ReturnEnAttente},
	ReturnEnAttente: {ReturnEnTransit},
	ReturnEnTransit: {ReturnStocke},
}

// initialStatus statut de départ par type.
var initialStatus = map[entity.DocumentType]string{
	entity.TypeDevis:        StatusEnAttente,
	entity.TypeCommande:     StatusEnAttente,
	entity.TypeBonLivraison: StatusEnAttente,
	entity.TypeFacture:      StatusBrouillon,
	entity.TypeAvoir:        StatusBrouillon,
}

// InitialStatus retourne le statut de création pour un type de document.
func InitialStatus(docType entity.DocumentType) string {
	return initialStatus[docType]
}

// IsInitial indique si le document est encore dans son statut de départ
// (condition de suppression).
func IsInitial(docType entity.DocumentType, status string) bool {
	return status == initialStatus[docType]
}

// CanTransition vérifie qu'un arc existe dans la table du type.
func CanTransition(docType entity.DocumentType, current, next string) bool {
	return contains(transitions[docType][current], next)
}

// Transition valide le changement de statut et retourne l'erreur structurée
// nommant l'état courant et l'état tenté si l'arc n'existe pas.
func Transition(docType entity.DocumentType, current, next string) error {
	if !CanTransition(docType, current, next) {
		return &domain.InvalidTransitionError{DocumentType: docType, Current: current, Attempted: next}
	}
	return nil
}

// TrackingTransition valide un changement de sous-état de livraison.
func TrackingTransition(current, next string) error {
	if !contains(trackingTransitions[current], next) {
		return &domain.InvalidTransitionError{DocumentType: entity.TypeCommande, Current: current, Attempted: next}
	}
	return nil
}

// ReturnTransition valide un changement du cycle retour.
func ReturnTransition(current, next string) error {
	if !contains(returnTransitions[current], next) {
		return &domain.InvalidTransitionError{DocumentType: entity.TypeCommande, Current: current, Attempted: next}
	}
	return nil
}

// ReturnCycleOpen indique si le cycle retour peut être ouvert: livraison en
// échec ou commande refusée/retournée.
func ReturnCycleOpen(trackingState, orderStatus string) bool {
	if trackingState == TrackingEchec {
		return true
	}
	switch orderStatus {
	case StatusRetournee, StatusRefusTransporteur1, StatusRefusTransporteur2:
		return true
	}
	return false
}

// IsReturnTerminal RETOUR_STOCKE est terminal: c'est le point de déclenchement
// de la remise en stock physique.
func IsReturnTerminal(state string) bool {
	return state == ReturnStocke
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
