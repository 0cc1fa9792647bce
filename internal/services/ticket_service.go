package services

import (
	"net/http"
	"sort"
	"strings"

	"github.com/google/uuid"

	"forum-server/internal/models"
	"forum-server/internal/store"
	"forum-server/internal/utils"
)

type TicketService struct {
	store *store.Store
}

func NewTicketService(st *store.Store) *TicketService {
	return &TicketService{store: st}
}

type TicketPayload struct {
	models.Ticket
	CreatedByUsername string `json:"createdByUsername,omitempty"`
}

// List returns tickets visible to the actor: staff see everything, rank
// holders with the view permission see their own. Users without either get
// a 403 rather than an empty list.
func (s *TicketService) List(actor Actor) ([]TicketPayload, error) {
	out := []TicketPayload{}
	err := s.store.View(func(d *models.Document) error {
		if !actor.IsStaff() {
			u := store.NewUserRepo(d).ByID(actor.ID)
			if u == nil {
				return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "user not found", nil)
			}
			rank := store.NewRankRepo(d).ForUser(u)
			if !HasPermission(u, rank, models.PermViewTickets) {
				return utils.NewAppError(http.StatusForbidden, utils.CodeForbidden, "no permission to view tickets", nil)
			}
		}

		users := store.NewUserRepo(d)
		for _, t := range store.NewTicketRepo(d).All() {
			if !actor.IsStaff() && t.CreatedBy != actor.ID {
				continue
			}
			tp := TicketPayload{Ticket: *t}
			if tp.Responses == nil {
				tp.Responses = []models.TicketResponse{}
			}
			if creator := users.ByID(t.CreatedBy); creator != nil {
				tp.CreatedByUsername = creator.Username
			}
			out = append(out, tp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

// Create opens a ticket. Staff may always create; others need the rank
// permission.
func (s *TicketService) Create(actor Actor, subject, description, category string) (*models.Ticket, error) {
	subject = strings.TrimSpace(subject)
	description = strings.TrimSpace(description)
	if subject == "" || description == "" {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "subject and description required", nil)
	}
	if category == "" {
		category = "general"
	}

	ticket := &models.Ticket{
		ID:          uuid.NewString(),
		Subject:     subject,
		Description: description,
		Category:    category,
		Status:      models.TicketOpen,
		CreatedBy:   actor.ID,
		CreatedAt:   nowMillis(),
		Responses:   []models.TicketResponse{},
	}
	err := s.store.Update(func(d *models.Document) error {
		if !actor.IsStaff() {
			u := store.NewUserRepo(d).ByID(actor.ID)
			if u == nil {
				return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "user not found", nil)
			}
			rank := store.NewRankRepo(d).ForUser(u)
			if !HasPermission(u, rank, models.PermCreateTickets) {
				return utils.NewAppError(http.StatusForbidden, utils.CodeForbidden, "no permission to create tickets", nil)
			}
		}
		store.NewTicketRepo(d).Add(ticket)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// Respond appends a staff reply and moves the ticket to assigned.
func (s *TicketService) Respond(actor Actor, ticketID, message string) (*models.Ticket, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "message required", nil)
	}

	var out *models.Ticket
	err := s.store.Update(func(d *models.Document) error {
		t := store.NewTicketRepo(d).ByID(ticketID)
		if t == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "ticket not found", nil)
		}
		t.Responses = append(t.Responses, models.TicketResponse{
			ID:        uuid.NewString(),
			Staff:     true,
			Message:   message,
			StaffID:   actor.ID,
			CreatedAt: nowMillis(),
		})
		t.Status = models.TicketAssigned
		out = t
		return nil
	})
	return out, err
}

// Close marks the ticket closed regardless of its current state.
func (s *TicketService) Close(ticketID string) (*models.Ticket, error) {
	var out *models.Ticket
	err := s.store.Update(func(d *models.Document) error {
		t := store.NewTicketRepo(d).ByID(ticketID)
		if t == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "ticket not found", nil)
		}
		t.Status = models.TicketClosed
		out = t
		return nil
	})
	return out, err
}
