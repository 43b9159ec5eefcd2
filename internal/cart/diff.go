package cart

import "storefront-client/internal/model"

// Diff describes the mutations that turn the server cart into a desired
// cart. Apply in order Remove → Update → Add so an update never races a
// removal of the same line.
type Diff struct {
	ToRemove []int            // line IDs present on the server but not desired
	ToUpdate []QuantityChange // lines present in both with differing quantity
	ToAdd    []model.CartLine // lines desired but absent on the server
}

// QuantityChange is a quantity edit for an existing line.
type QuantityChange struct {
	ID   int
	From int
	To   int
}

// IsEmpty reports whether the carts already agree.
func (d *Diff) IsEmpty() bool {
	return len(d.ToRemove) == 0 && len(d.ToUpdate) == 0 && len(d.ToAdd) == 0
}

// DiffLines computes the delta between the server's lines and the desired
// lines. Matching is by line ID. Desired lines with quantity <= 0 are
// treated as absent: a zero-quantity line is a removal, never a stored zero.
func DiffLines(current, desired []model.CartLine) *Diff {
	diff := &Diff{}

	currentByID := make(map[int]model.CartLine, len(current))
	for _, line := range current {
		currentByID[line.ID] = line
	}

	desiredByID := make(map[int]model.CartLine, len(desired))
	for _, line := range desired {
		if line.Quantity <= 0 {
			continue
		}
		desiredByID[line.ID] = line
	}

	for id, want := range desiredByID {
		if have, exists := currentByID[id]; exists {
			if have.Quantity != want.Quantity {
				diff.ToUpdate = append(diff.ToUpdate, QuantityChange{
					ID:   id,
					From: have.Quantity,
					To:   want.Quantity,
				})
			}
		} else {
			diff.ToAdd = append(diff.ToAdd, want)
		}
	}

	for id := range currentByID {
		if _, exists := desiredByID[id]; !exists {
			diff.ToRemove = append(diff.ToRemove, id)
		}
	}

	return diff
}
