package store

import (
	"strings"

	"forum-server/internal/models"
)

// UserRepo is a view over the users collection of one document. Construct it
// inside a View/Update closure; holding it outside the closure defeats the
// store's serialization.
type UserRepo struct {
	d *models.Document
}

func NewUserRepo(d *models.Document) *UserRepo {
	return &UserRepo{d: d}
}

func (r *UserRepo) ByID(id string) *models.User {
	for _, u := range r.d.Users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// ByUsername is case-insensitive, matching the uniqueness invariant.
func (r *UserRepo) ByUsername(username string) *models.User {
	for _, u := range r.d.Users {
		if strings.EqualFold(u.Username, username) {
			return u
		}
	}
	return nil
}

func (r *UserRepo) ByEmail(email string) *models.User {
	for _, u := range r.d.Users {
		if strings.EqualFold(u.Email, email) {
			return u
		}
	}
	return nil
}

func (r *UserRepo) ByUID(uid int) *models.User {
	for _, u := range r.d.Users {
		if u.UID == uid {
			return u
		}
	}
	return nil
}

func (r *UserRepo) All() []*models.User {
	return r.d.Users
}

func (r *UserRepo) Add(u *models.User) {
	r.d.Users = append(r.d.Users, u)
}

// NextUID hands out the next sequential uid and advances the counter.
func (r *UserRepo) NextUID() int {
	uid := r.d.UIDCounter
	if uid < 1 {
		uid = 1
	}
	r.d.UIDCounter = uid + 1
	return uid
}
