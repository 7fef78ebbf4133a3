package tracking

import (
	"context"
	"fmt"
	"time"

	"github.com/haythemba/gescom-api/internal/application/dto"
	"github.com/haythemba/gescom-api/internal/application/ports"
	"github.com/haythemba/gescom-api/internal/domain"
	"github.com/haythemba/gescom-api/internal/domain/entity"
	"github.com/haythemba/gescom-api/internal/domain/lifecycle"
	"github.com/haythemba/gescom-api/internal/domain/repository"
)

// UseCase suivi de livraison des commandes: sous-états transporteur et cycle
// retour. Le passage en RETOUR_STOCKE est terminal et déclenche la remise en
// stock physique des lignes de la commande.
type UseCase struct {
	txRunner  ports.TxRunner
	docs      repository.DocumentRepository
	trackings repository.TrackingRepository
	inventory ports.Inventory
}

// NewUseCase construit le cas d'usage.
func NewUseCase(
	txRunner ports.TxRunner,
	docs repository.DocumentRepository,
	trackings repository.TrackingRepository,
	inventory ports.Inventory,
) *UseCase {
	return &UseCase{txRunner: txRunner, docs: docs, trackings: trackings, inventory: inventory}
}

// Get retourne le suivi d'une commande. Une commande jamais suivie expose le
// sous-état initial EN_ATTENTE sans créer de ligne.
func (uc *UseCase) Get(ctx context.Context, orderID string) (*entity.DeliveryTracking, error) {
	order, err := uc.loadOrder(ctx, orderID, uc.docs)
	if err != nil {
		return nil, err
	}
	t, err := uc.trackings.Get(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		t = &entity.DeliveryTracking{OrderID: order.ID, State: lifecycle.TrackingEnAttente}
	}
	return t, nil
}

// Update avance le suivi: soit le sous-état de livraison, soit le cycle
// retour, jamais les deux dans le même appel. L'ouverture du cycle retour
// n'est autorisée qu'après un échec de livraison ou un refus transporteur.
func (uc *UseCase) Update(ctx context.Context, orderID string, in dto.TrackingUpdateRequest) (*entity.DeliveryTracking, error) {
	if in.State != "" && in.ReturnState != "" {
		return nil, &domain.ValidationError{Field: "state", Reason: "state et return_state sont exclusifs"}
	}
	if in.State == "" && in.ReturnState == "" && in.Carrier == "" {
		return nil, &domain.ValidationError{Field: "state", Reason: "aucun changement demandé"}
	}

	var updated *entity.DeliveryTracking
	var restore []ports.StockMovement

	err := uc.txRunner.Run(ctx, func(s repository.Stores) error {
		order, err := uc.loadOrder(ctx, orderID, s.Documents)
		if err != nil {
			return err
		}
		t, err := s.Tracking.Get(ctx, order.ID)
		if err != nil {
			return err
		}
		if t == nil {
			t = &entity.DeliveryTracking{OrderID: order.ID, State: lifecycle.TrackingEnAttente}
		}
		if in.Carrier != "" {
			t.Carrier = in.Carrier
		}

		switch {
		case in.State != "":
			if err := lifecycle.TrackingTransition(t.State, in.State); err != nil {
				return err
			}
			t.State = in.State

		case in.ReturnState != "":
			if t.ReturnState == "" && !lifecycle.ReturnCycleOpen(t.State, order.Status) {
				return fmt.Errorf("ouverture du cycle retour sur la commande %s (statut %s, livraison %s): %w",
					order.Number, order.Status, t.State, domain.ErrConflict)
			}
			if err := lifecycle.ReturnTransition(t.ReturnState, in.ReturnState); err != nil {
				return err
			}
			t.ReturnState = in.ReturnState
			if lifecycle.IsReturnTerminal(t.ReturnState) {
				for _, l := range order.Lines {
					if l.ProductID != "" {
						restore = append(restore, ports.StockMovement{ProductID: l.ProductID, Quantity: l.Quantity})
					}
				}
			}
		}

		t.UpdatedAt = time.Now()
		if err := s.Tracking.Upsert(ctx, t); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Remise en stock après commit: le retour est déjà enregistré; en cas
	// d'échec l'appelant relance la remise en stock, pas la transition.
	if len(restore) > 0 {
		if err := uc.inventory.RestorePhysical(ctx, restore); err != nil {
			return updated, fmt.Errorf("retour stocké pour la commande %s, remise en stock: %w", updated.OrderID, err)
		}
	}
	return updated, nil
}

// loadOrder charge la commande suivie: le suivi de livraison n'existe que pour
// les commandes client.
func (uc *UseCase) loadOrder(ctx context.Context, orderID string, docs repository.DocumentRepository) (*entity.Document, error) {
	order, err := docs.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, domain.ErrNotFound
	}
	if order.Type != entity.TypeCommande || order.Side != entity.SideClient {
		return nil, &domain.ValidationError{Field: "order_id", Reason: "le suivi ne concerne que les commandes client"}
	}
	return order, nil
}
