// Package payments is the boundary to the payment provider. Real payment
// intent creation lives outside this repository; the storefront depends on
// this interface only.
package payments

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

type Intent struct {
	ID           string
	ClientSecret string
}

type Provider interface {
	// CreateIntent starts a payment for amount in the given currency.
	// Metadata is passed through to the provider for reconciliation.
	CreateIntent(ctx context.Context, amount int, currency string, metadata map[string]string) (*Intent, error)
}

// ErrNotConfigured is returned while no provider credentials are stored.
var ErrNotConfigured = fmt.Errorf("payment provider not configured")

// LocalProvider mints locally generated intent references for deployments
// without a real provider wired in. Orders record the reference; settlement
// is out of band.
type LocalProvider struct {
	log *slog.Logger
}

func NewLocalProvider(log *slog.Logger) *LocalProvider {
	return &LocalProvider{log: log}
}

func (p *LocalProvider) CreateIntent(ctx context.Context, amount int, currency string, metadata map[string]string) (*Intent, error) {
	id := "pi_" + uuid.NewString()
	p.log.Info("local payment intent created",
		"intent_id", id, "amount", amount, "currency", currency)
	return &Intent{ID: id, ClientSecret: id + "_secret_" + uuid.NewString()}, nil
}
