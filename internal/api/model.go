package api

// User is the profile returned by GET /auth/me/.
type User struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
}

// LineItem is the wire shape for cart mirror calls and /carts/sync/.
type LineItem struct {
	ProductID int64  `json:"product_id"`
	VariantID *int64 `json:"variant_id,omitempty"`
	Weight    string `json:"weight,omitempty"`
	Quantity  int    `json:"quantity"`
}

type tokenRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type syncRequest struct {
	Lines []LineItem `json:"lines"`
	Mode  string     `json:"mode"`
}
