package cart

import (
	"context"
	"errors"
	"reflect"

	"github.com/nikolayk812/marketplace-cart/internal/port"
)

var ErrNoProvider = errors.New("useCart must be used within a CartProvider")

type providerKey struct{}

// WithProvider returns a copy of ctx through which UseCart reaches c.
func WithProvider(ctx context.Context, c port.Cart) context.Context {
	return context.WithValue(ctx, providerKey{}, c)
}

// UseCart returns the cart installed by WithProvider, or ErrNoProvider.
// A nil cart, including a nil *Store, counts as no provider.
func UseCart(ctx context.Context) (port.Cart, error) {
	c, ok := ctx.Value(providerKey{}).(port.Cart)
	if !ok || isNil(c) {
		return nil, ErrNoProvider
	}
	return c, nil
}

func isNil(c port.Cart) bool {
	if c == nil {
		return true
	}
	v := reflect.ValueOf(c)
	return v.Kind() == reflect.Pointer && v.IsNil()
}

// MustUseCart is like UseCart but panics outside a provider.
func MustUseCart(ctx context.Context) port.Cart {
	c, err := UseCart(ctx)
	if err != nil {
		panic(err)
	}
	return c
}
