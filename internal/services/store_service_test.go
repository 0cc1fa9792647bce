package services

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"forum-server/internal/models"
	"forum-server/internal/payments"
	"forum-server/internal/store"
)

func newTestStore(t *testing.T) (*StoreService, *store.Store) {
	t.Helper()
	st, err := store.Open("")
	require.NoError(t, err)
	return NewStoreService(st, payments.NewLocalProvider(testLogger())), st
}

func seedProduct(t *testing.T, svc *StoreService) *models.Product {
	t.Helper()
	p, err := svc.CreateProduct(ProductInput{Name: "Premium", Description: "30 days", Price: 999, Currency: "EUR"})
	require.NoError(t, err)
	return p
}

func seedTOS(t *testing.T, svc *StoreService) {
	t.Helper()
	_, err := svc.SetTOS("Terms of Service", "No refunds.")
	require.NoError(t, err)
}

func TestCreateProductNormalizesCurrency(t *testing.T) {
	svc, _ := newTestStore(t)
	p := seedProduct(t, svc)
	assert.Equal(t, "eur", p.Currency)

	_, err := svc.CreateProduct(ProductInput{Name: "", Price: 100})
	appErr(t, err)
	_, err = svc.CreateProduct(ProductInput{Name: "Free", Price: 0})
	appErr(t, err)
}

func TestCreateIntentRequiresConfig(t *testing.T) {
	svc, _ := newTestStore(t)
	p := seedProduct(t, svc)

	_, err := svc.CreateIntent(context.Background(), memberActor("user-1"), p.ID)
	e := appErr(t, err)
	assert.Equal(t, http.StatusInternalServerError, e.Status)

	require.NoError(t, svc.SetPaymentConfig("sk_test_123", "pk_test_123"))
	intent, err := svc.CreateIntent(context.Background(), memberActor("user-1"), p.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, intent.ClientSecret)
}

func TestCheckoutRequiresTOS(t *testing.T) {
	svc, _ := newTestStore(t)
	p := seedProduct(t, svc)

	_, err := svc.Checkout(memberActor("user-1"), CheckoutInput{
		ProductID: p.ID, PaymentIntentID: "pi_1", TOSAccepted: true, TOSSignature: "alice",
	})
	e := appErr(t, err)
	assert.Equal(t, "TOS not configured", e.Message)

	seedTOS(t, svc)

	_, err = svc.Checkout(memberActor("user-1"), CheckoutInput{
		ProductID: p.ID, PaymentIntentID: "pi_1", TOSAccepted: false, TOSSignature: "alice",
	})
	appErr(t, err)
	_, err = svc.Checkout(memberActor("user-1"), CheckoutInput{
		ProductID: p.ID, PaymentIntentID: "pi_1", TOSAccepted: true, TOSSignature: "  ",
	})
	appErr(t, err)

	order, err := svc.Checkout(memberActor("user-1"), CheckoutInput{
		ProductID: p.ID, PaymentIntentID: "pi_1", TOSAccepted: true, TOSSignature: "alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "Premium", order.ProductName)
	assert.Equal(t, 999, order.Price)
	assert.Equal(t, "completed", order.Status)
	assert.True(t, order.TOSAccepted)
}

func TestCheckoutSnapshotsPrice(t *testing.T) {
	svc, _ := newTestStore(t)
	p := seedProduct(t, svc)
	seedTOS(t, svc)

	order, err := svc.Checkout(memberActor("user-1"), CheckoutInput{
		ProductID: p.ID, PaymentIntentID: "pi_1", TOSAccepted: true, TOSSignature: "alice",
	})
	require.NoError(t, err)

	_, err = svc.UpdateProduct(p.ID, ProductInput{Price: 1999})
	require.NoError(t, err)

	orders, err := svc.Orders(memberActor("user-1"))
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, order.ID, orders[0].ID)
	assert.Equal(t, 999, orders[0].Price, "the order keeps the price at purchase time")
}

func TestPaymentConfigHidesSecret(t *testing.T) {
	svc, _ := newTestStore(t)

	status, err := svc.PaymentConfig()
	require.NoError(t, err)
	assert.False(t, status.Configured)

	require.NoError(t, svc.SetPaymentConfig("sk_test_123", "pk_test_123"))
	status, err = svc.PaymentConfig()
	require.NoError(t, err)
	assert.True(t, status.Configured)
	assert.Equal(t, "pk_test_123", status.PublishableKey)
	assert.NotContains(t, status.PublishableKey, "sk_")
}

func TestTOSDefaultsWhenUnset(t *testing.T) {
	svc, _ := newTestStore(t)

	tos, err := svc.TOS()
	require.NoError(t, err)
	assert.Equal(t, "Terms of Service", tos.Title)
	assert.Empty(t, tos.Content)
}
