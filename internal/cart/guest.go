package cart

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidProduct = errors.New("product id required")

// GuestCart is the cart of a browser that has not signed in. Revision changes
// on every mutation so a consolidation can be recorded against the exact
// contents it applied.
type GuestCart struct {
	ID        string    `json:"id"`
	Revision  string    `json:"revision"`
	Lines     []Line    `json:"lines"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewGuestCart(id string) *GuestCart {
	return &GuestCart{ID: id, Lines: []Line{}}
}

func (g *GuestCart) touch() {
	g.Revision = uuid.NewString()
	g.UpdatedAt = time.Now().UTC()
}

func (g *GuestCart) index(k LineKey) int {
	for i, l := range g.Lines {
		if l.Key() == k {
			return i
		}
	}
	return -1
}

// Add increments a matching line or appends a new one at the end.
// A non-positive result removes the line.
func (g *GuestCart) Add(productID uuid.UUID, variantID *uuid.UUID, qty int) error {
	if productID == uuid.Nil {
		return ErrInvalidProduct
	}
	k := NewKey(productID, variantID)
	if i := g.index(k); i >= 0 {
		g.Lines[i].Quantity += qty
		if g.Lines[i].Quantity <= 0 {
			g.removeAt(i)
		}
		g.touch()
		return nil
	}
	if qty <= 0 {
		return nil
	}
	g.Lines = append(g.Lines, Line{ProductID: productID, VariantID: k.Variant(), Quantity: qty})
	g.touch()
	return nil
}

// SetQuantity overwrites a line's quantity; qty <= 0 removes it.
func (g *GuestCart) SetQuantity(productID uuid.UUID, variantID *uuid.UUID, qty int) error {
	if productID == uuid.Nil {
		return ErrInvalidProduct
	}
	k := NewKey(productID, variantID)
	i := g.index(k)
	switch {
	case qty <= 0 && i >= 0:
		g.removeAt(i)
	case qty <= 0:
		return nil
	case i >= 0:
		g.Lines[i].Quantity = qty
	default:
		g.Lines = append(g.Lines, Line{ProductID: productID, VariantID: k.Variant(), Quantity: qty})
	}
	g.touch()
	return nil
}

func (g *GuestCart) Remove(productID uuid.UUID, variantID *uuid.UUID) {
	if i := g.index(NewKey(productID, variantID)); i >= 0 {
		g.removeAt(i)
		g.touch()
	}
}

func (g *GuestCart) Clear() {
	if len(g.Lines) == 0 {
		return
	}
	g.Lines = []Line{}
	g.touch()
}

func (g *GuestCart) IsEmpty() bool { return g == nil || len(g.Lines) == 0 }

func (g *GuestCart) removeAt(i int) {
	g.Lines = append(g.Lines[:i], g.Lines[i+1:]...)
}
