package port

import (
	"github.com/nikolayk812/marketplace-cart/internal/domain"
)

type Cart interface {
	Products() []domain.CartItem
	AddToCart(p domain.Product) error
	Increment(id string)
	Decrement(id string)
}
