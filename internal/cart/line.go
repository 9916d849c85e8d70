package cart

import (
	"github.com/google/uuid"
)

// LineKey identifies a cart line. VariantID is uuid.Nil when no variant is
// selected; two lines differing only by variant are distinct.
type LineKey struct {
	ProductID uuid.UUID
	VariantID uuid.UUID
}

func NewKey(productID uuid.UUID, variantID *uuid.UUID) LineKey {
	k := LineKey{ProductID: productID}
	if variantID != nil {
		k.VariantID = *variantID
	}
	return k
}

// Variant returns the variant as a pointer, nil when absent.
func (k LineKey) Variant() *uuid.UUID {
	if k.VariantID == uuid.Nil {
		return nil
	}
	v := k.VariantID
	return &v
}

func (k LineKey) String() string {
	if k.VariantID == uuid.Nil {
		return k.ProductID.String()
	}
	return k.ProductID.String() + ":" + k.VariantID.String()
}

// Line is the wire form of a cart line, shared by guest carts and requests.
type Line struct {
	ProductID uuid.UUID  `json:"product_id"`
	VariantID *uuid.UUID `json:"variant_id,omitempty"`
	Quantity  int        `json:"quantity"`
}

func (l Line) Key() LineKey { return NewKey(l.ProductID, l.VariantID) }

// Normalize folds duplicate keys together, keeps first-seen order and drops
// lines whose summed quantity is not positive.
func Normalize(lines []Line) []Line {
	if len(lines) == 0 {
		return []Line{}
	}
	order := make([]LineKey, 0, len(lines))
	qty := make(map[LineKey]int, len(lines))
	for _, l := range lines {
		if l.ProductID == uuid.Nil {
			continue
		}
		k := l.Key()
		if _, seen := qty[k]; !seen {
			order = append(order, k)
		}
		qty[k] += l.Quantity
	}
	out := make([]Line, 0, len(order))
	for _, k := range order {
		if qty[k] <= 0 {
			continue
		}
		out = append(out, Line{ProductID: k.ProductID, VariantID: k.Variant(), Quantity: qty[k]})
	}
	return out
}
