package store

import "forum-server/internal/models"

type KeyRepo struct {
	d *models.Document
}

func NewKeyRepo(d *models.Document) *KeyRepo {
	return &KeyRepo{d: d}
}

func (r *KeyRepo) ByID(id string) *models.InviteKey {
	for _, k := range r.d.Keys {
		if k.ID == id {
			return k
		}
	}
	return nil
}

func (r *KeyRepo) ByKey(key string) *models.InviteKey {
	for _, k := range r.d.Keys {
		if k.Key == key {
			return k
		}
	}
	return nil
}

// Redeemable returns the key only if it is unused and not revoked; callers
// re-check both flags before writing, in the same Update closure.
func (r *KeyRepo) Redeemable(key string) *models.InviteKey {
	k := r.ByKey(key)
	if k == nil || !k.Redeemable() {
		return nil
	}
	return k
}

func (r *KeyRepo) ByGenerator(userID string) []*models.InviteKey {
	var out []*models.InviteKey
	for _, k := range r.d.Keys {
		if k.GeneratedBy == userID {
			out = append(out, k)
		}
	}
	return out
}

func (r *KeyRepo) All() []*models.InviteKey {
	return r.d.Keys
}

func (r *KeyRepo) Add(k *models.InviteKey) {
	r.d.Keys = append(r.d.Keys, k)
}

func (r *KeyRepo) Remove(id string) bool {
	for i, k := range r.d.Keys {
		if k.ID == id {
			r.d.Keys = append(r.d.Keys[:i], r.d.Keys[i+1:]...)
			return true
		}
	}
	return false
}
