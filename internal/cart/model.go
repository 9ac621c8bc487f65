package cart

// Line is one row in the cart. Identity of a line is the
// (ID, Weight, VariantID) triple: a different weight label or variant id is
// a different purchasable item even when the base product matches.
type Line struct {
	ID            int64    `json:"id"`
	Name          string   `json:"name"`
	Price         float64  `json:"price"`
	OriginalPrice *float64 `json:"originalPrice,omitempty"`
	Image         string   `json:"image"`
	Weight        string   `json:"weight"`
	Quantity      int      `json:"quantity"`
	InStock       bool     `json:"inStock"`
	VariantID     *int64   `json:"variantId,omitempty"`
}

// matches reports whether l has the given identity key. Weight is always a
// plain string ("" means no variant dimension), but VariantID stays a
// pointer: nil only matches nil, and nil never matches a zero id. The two
// fields default differently on purpose, collapsing them would silently
// merge lines that are distinct items.
func (l Line) matches(id int64, weight string, variantID *int64) bool {
	if l.ID != id || l.Weight != weight {
		return false
	}
	if (l.VariantID == nil) != (variantID == nil) {
		return false
	}
	return l.VariantID == nil || *l.VariantID == *variantID
}
