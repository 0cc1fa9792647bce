package store

import "forum-server/internal/models"

type ProductRepo struct {
	d *models.Document
}

func NewProductRepo(d *models.Document) *ProductRepo {
	return &ProductRepo{d: d}
}

func (r *ProductRepo) ByID(id string) *models.Product {
	for _, p := range r.d.Products {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *ProductRepo) All() []*models.Product {
	return r.d.Products
}

func (r *ProductRepo) Add(p *models.Product) {
	r.d.Products = append(r.d.Products, p)
}

func (r *ProductRepo) Remove(id string) bool {
	for i, p := range r.d.Products {
		if p.ID == id {
			r.d.Products = append(r.d.Products[:i], r.d.Products[i+1:]...)
			return true
		}
	}
	return false
}

type OrderRepo struct {
	d *models.Document
}

func NewOrderRepo(d *models.Document) *OrderRepo {
	return &OrderRepo{d: d}
}

func (r *OrderRepo) Add(o *models.Order) {
	r.d.Orders = append(r.d.Orders, o)
}

func (r *OrderRepo) ByUser(userID string) []*models.Order {
	var out []*models.Order
	for _, o := range r.d.Orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out
}
