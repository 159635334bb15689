package domain

import "fitledger/internal/money"

// CartItem is one purchasable item reference inside a checkout. Type may be
// empty in a homogeneous cart (implied by the cart-level type) but must be
// explicit for every item of a mixed cart.
type CartItem struct {
	ID   string
	Type ItemType
}

// CheckoutRequest is the ephemeral value a buyer's checkout produces. It is
// consumed once by order creation and never stored; the gateway order plus
// its embedded encoding carry everything capture needs.
type CheckoutRequest struct {
	BuyerID  string
	Items    []CartItem
	CartType ItemType
	Total    money.Amount
}
