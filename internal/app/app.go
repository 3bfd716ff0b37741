package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/nikolayk812/marketplace-cart/internal/cart"
	"github.com/nikolayk812/marketplace-cart/internal/config"
	"github.com/nikolayk812/marketplace-cart/internal/logger"
	"github.com/nikolayk812/marketplace-cart/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// App owns the cart store of one session together with its storage backend.
type App struct {
	Cart *cart.Store
	Log  *logrus.Entry

	closeKV func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	log := logger.New(logger.Options{Service: "cart", Env: cfg.AppEnv, Level: cfg.LogLevel})

	unit, err := currency.ParseISO(cfg.Currency)
	if err != nil {
		return nil, fmt.Errorf("currency[%s] is not valid: %w", cfg.Currency, err)
	}

	tag, err := language.Parse(cfg.Locale)
	if err != nil {
		return nil, fmt.Errorf("locale[%s] is not valid: %w", cfg.Locale, err)
	}

	kv, closeKV, err := repository.New(ctx, cfg.Storage, log)
	if err != nil {
		return nil, fmt.Errorf("repository.New: %w", err)
	}

	store, err := cart.Open(ctx, kv,
		cart.WithStorageKey(cfg.Storage.Key),
		cart.WithLogger(log),
		cart.WithCurrency(unit),
		cart.WithLocale(tag),
	)
	if err != nil {
		closeKV()
		return nil, fmt.Errorf("cart.Open: %w", err)
	}

	log.WithFields(logrus.Fields{
		"driver": cfg.Storage.Driver,
		"items":  len(store.Products()),
	}).Info("cart ready")

	return &App{
		Cart:    store,
		Log:     log,
		closeKV: closeKV,
	}, nil
}

// Context returns ctx with the cart installed for cart.UseCart.
func (a *App) Context(ctx context.Context) context.Context {
	return cart.WithProvider(ctx, a.Cart)
}

// Close flushes the cart and then releases the storage backend.
func (a *App) Close(ctx context.Context) error {
	var errs []error

	if err := a.Cart.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("cart.Close: %w", err))
	}
	a.closeKV()

	if err := errors.Join(errs...); err != nil {
		a.Log.WithError(err).Error("close cart")
		return err
	}

	a.Log.Info("cart closed")
	return nil
}
