package store

import "forum-server/internal/models"

type TicketRepo struct {
	d *models.Document
}

func NewTicketRepo(d *models.Document) *TicketRepo {
	return &TicketRepo{d: d}
}

func (r *TicketRepo) ByID(id string) *models.Ticket {
	for _, t := range r.d.Tickets {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (r *TicketRepo) All() []*models.Ticket {
	return r.d.Tickets
}

func (r *TicketRepo) ByCreator(userID string) []*models.Ticket {
	var out []*models.Ticket
	for _, t := range r.d.Tickets {
		if t.CreatedBy == userID {
			out = append(out, t)
		}
	}
	return out
}

func (r *TicketRepo) Add(t *models.Ticket) {
	r.d.Tickets = append(r.d.Tickets, t)
}
