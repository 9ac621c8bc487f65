package checkout

import "agribasket/internal/cart"

// Line is the narrow projection staged for purchase: display-only fields
// are dropped and the product id takes its wire name.
type Line struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id,omitempty"`
	Weight    string `json:"weight,omitempty"`
	Quantity  int    `json:"quantity"`
}

// FromCart projects a live cart line into its checkout shape.
func FromCart(l cart.Line) Line {
	return Line{
		ProductID: l.ID,
		VariantID: l.VariantID,
		Weight:    l.Weight,
		Quantity:  l.Quantity,
	}
}
