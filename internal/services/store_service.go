package services

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"

	"forum-server/internal/models"
	"forum-server/internal/payments"
	"forum-server/internal/store"
	"forum-server/internal/utils"
)

type StoreService struct {
	store    *store.Store
	provider payments.Provider
}

func NewStoreService(st *store.Store, provider payments.Provider) *StoreService {
	return &StoreService{store: st, provider: provider}
}

func (s *StoreService) Products() ([]*models.Product, error) {
	out := []*models.Product{}
	err := s.store.View(func(d *models.Document) error {
		out = append(out, store.NewProductRepo(d).All()...)
		return nil
	})
	return out, err
}

type ProductInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       int    `json:"price"`
	Currency    string `json:"currency"`
}

func (s *StoreService) CreateProduct(in ProductInput) (*models.Product, error) {
	if strings.TrimSpace(in.Name) == "" || in.Price <= 0 {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "name and a positive price required", nil)
	}
	if in.Currency == "" {
		in.Currency = "usd"
	}
	p := &models.Product{
		ID:          "prod_" + uuid.NewString()[:8],
		Name:        in.Name,
		Description: in.Description,
		Price:       in.Price,
		Currency:    strings.ToLower(in.Currency),
		CreatedAt:   nowMillis(),
	}
	err := s.store.Update(func(d *models.Document) error {
		store.NewProductRepo(d).Add(p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *StoreService) UpdateProduct(id string, in ProductInput) (*models.Product, error) {
	var out *models.Product
	err := s.store.Update(func(d *models.Document) error {
		p := store.NewProductRepo(d).ByID(id)
		if p == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "product not found", nil)
		}
		if strings.TrimSpace(in.Name) != "" {
			p.Name = in.Name
		}
		if in.Description != "" {
			p.Description = in.Description
		}
		if in.Price > 0 {
			p.Price = in.Price
		}
		if in.Currency != "" {
			p.Currency = strings.ToLower(in.Currency)
		}
		out = p
		return nil
	})
	return out, err
}

func (s *StoreService) DeleteProduct(id string) error {
	return s.store.Update(func(d *models.Document) error {
		if !store.NewProductRepo(d).Remove(id) {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "product not found", nil)
		}
		return nil
	})
}

// CreateIntent starts a payment for a product. The provider must be
// configured through the admin payment-config endpoint first.
func (s *StoreService) CreateIntent(ctx context.Context, actor Actor, productID string) (*payments.Intent, error) {
	var product *models.Product
	err := s.store.View(func(d *models.Document) error {
		p := store.NewProductRepo(d).ByID(productID)
		if p == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "product not found", nil)
		}
		if d.PaymentConfig == nil || d.PaymentConfig.APIKey == "" {
			return utils.NewAppError(http.StatusInternalServerError, utils.CodeInternal, "payment provider not configured", nil)
		}
		copied := *p
		product = &copied
		return nil
	})
	if err != nil {
		return nil, err
	}

	intent, err := s.provider.CreateIntent(ctx, product.Price, product.Currency, map[string]string{
		"productId":   product.ID,
		"productName": product.Name,
		"userId":      actor.ID,
	})
	if err != nil {
		return nil, utils.NewAppError(http.StatusInternalServerError, utils.CodeInternal, "could not create payment intent", nil)
	}
	return intent, nil
}

type CheckoutInput struct {
	ProductID       string `json:"productId"`
	PaymentIntentID string `json:"paymentIntentId"`
	TOSAccepted     bool   `json:"tosAccepted"`
	TOSSignature    string `json:"tosSignature"`
}

// Checkout records a completed order. The TOS must be configured, accepted,
// and signed; the intent reference is stored but not verified against the
// provider.
func (s *StoreService) Checkout(actor Actor, in CheckoutInput) (*models.Order, error) {
	if in.ProductID == "" || in.PaymentIntentID == "" {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "productId and paymentIntentId required", nil)
	}

	order := &models.Order{
		ID:              uuid.NewString(),
		ProductID:       in.ProductID,
		UserID:          actor.ID,
		PaymentIntentID: in.PaymentIntentID,
		Status:          "completed",
		TOSAccepted:     true,
		TOSSignature:    in.TOSSignature,
		CreatedAt:       nowMillis(),
	}
	err := s.store.Update(func(d *models.Document) error {
		if d.TOS == nil {
			return utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "TOS not configured", nil)
		}
		if !in.TOSAccepted || strings.TrimSpace(in.TOSSignature) == "" {
			return utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "you must accept the TOS and provide a signature before purchase", nil)
		}
		p := store.NewProductRepo(d).ByID(in.ProductID)
		if p == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "product not found", nil)
		}
		order.ProductName = p.Name
		order.Price = p.Price
		order.Currency = p.Currency
		store.NewOrderRepo(d).Add(order)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Orders lists the actor's orders newest first.
func (s *StoreService) Orders(actor Actor) ([]*models.Order, error) {
	out := []*models.Order{}
	err := s.store.View(func(d *models.Document) error {
		out = append(out, store.NewOrderRepo(d).ByUser(actor.ID)...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

// TOS is public; an unconfigured document reads as an empty default.
func (s *StoreService) TOS() (*models.TOS, error) {
	tos := &models.TOS{Title: "Terms of Service", Content: ""}
	err := s.store.View(func(d *models.Document) error {
		if d.TOS != nil {
			copied := *d.TOS
			tos = &copied
		}
		return nil
	})
	return tos, err
}

func (s *StoreService) SetTOS(title, content string) (*models.TOS, error) {
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "title and content required", nil)
	}
	tos := &models.TOS{Title: title, Content: content, LastUpdated: nowMillis()}
	err := s.store.Update(func(d *models.Document) error {
		d.TOS = tos
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tos, nil
}

type PaymentConfigStatus struct {
	Configured     bool   `json:"configured"`
	PublishableKey string `json:"publishableKey"`
}

// PaymentConfig never returns the secret key, only whether one is stored.
func (s *StoreService) PaymentConfig() (*PaymentConfigStatus, error) {
	status := &PaymentConfigStatus{}
	err := s.store.View(func(d *models.Document) error {
		if d.PaymentConfig != nil {
			status.Configured = d.PaymentConfig.APIKey != ""
			status.PublishableKey = d.PaymentConfig.PublishableKey
		}
		return nil
	})
	return status, err
}

func (s *StoreService) SetPaymentConfig(apiKey, publishableKey string) error {
	if apiKey == "" || publishableKey == "" {
		return utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "apiKey and publishableKey required", nil)
	}
	return s.store.Update(func(d *models.Document) error {
		d.PaymentConfig = &models.PaymentConfig{APIKey: apiKey, PublishableKey: publishableKey}
		return nil
	})
}
