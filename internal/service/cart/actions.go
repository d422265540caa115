package cart

import (
	"context"
	"fmt"

	"infohub/internal/domain"
)

// UpdateAction is one cart mutation in a batch update request.
type UpdateAction struct {
	Action    string          `json:"action"`
	Product   *domain.Product `json:"product,omitempty"`
	ProductID int64           `json:"productId,omitempty"`
	Quantity  int             `json:"quantity,omitempty"`
}

// Apply runs actions in order and stops at the first invalid one. Earlier actions stay applied.
func (m *Manager) Apply(ctx context.Context, actions []UpdateAction) error {
	for i, a := range actions {
		switch a.Action {
		case "addLineItem":
			if a.Product == nil {
				return fmt.Errorf("action %d: product required: %w", i, domain.ErrInvalidFormat)
			}
			m.Add(ctx, *a.Product, a.Quantity)
		case "removeLineItem":
			m.Remove(ctx, a.ProductID)
		case "changeLineItemQuantity":
			if err := m.UpdateQuantity(ctx, a.ProductID, a.Quantity); err != nil {
				return fmt.Errorf("action %d: %w", i, err)
			}
		case "clear":
			m.Clear(ctx)
		default:
			return fmt.Errorf("action %d: unsupported action %q: %w", i, a.Action, domain.ErrInvalidFormat)
		}
	}
	return nil
}
