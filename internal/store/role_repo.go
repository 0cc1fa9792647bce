package store

import "forum-server/internal/models"

type RoleRepo struct {
	d *models.Document
}

func NewRoleRepo(d *models.Document) *RoleRepo {
	return &RoleRepo{d: d}
}

func (r *RoleRepo) ByID(id string) *models.Role {
	for _, role := range r.d.Roles {
		if role.ID == id {
			return role
		}
	}
	return nil
}

func (r *RoleRepo) All() []*models.Role {
	return r.d.Roles
}

func (r *RoleRepo) Add(role *models.Role) {
	r.d.Roles = append(r.d.Roles, role)
}

// Remove drops the role and strips it from every user's role list.
func (r *RoleRepo) Remove(id string) {
	out := r.d.Roles[:0]
	for _, role := range r.d.Roles {
		if role.ID != id {
			out = append(out, role)
		}
	}
	r.d.Roles = out
	for _, u := range r.d.Users {
		kept := u.Roles[:0]
		for _, rr := range u.Roles {
			if rr != id {
				kept = append(kept, rr)
			}
		}
		u.Roles = kept
	}
}

type RankRepo struct {
	d *models.Document
}

func NewRankRepo(d *models.Document) *RankRepo {
	return &RankRepo{d: d}
}

func (r *RankRepo) ByID(id string) *models.Rank {
	for _, rank := range r.d.Ranks {
		if rank.ID == id {
			return rank
		}
	}
	return nil
}

// ForUser resolves the user's assigned custom rank, nil when unassigned.
func (r *RankRepo) ForUser(u *models.User) *models.Rank {
	if u == nil || u.Profile.CustomRank == nil {
		return nil
	}
	return r.ByID(*u.Profile.CustomRank)
}

func (r *RankRepo) All() []*models.Rank {
	return r.d.Ranks
}

func (r *RankRepo) Add(rank *models.Rank) {
	r.d.Ranks = append(r.d.Ranks, rank)
}

func (r *RankRepo) Remove(id string) {
	out := r.d.Ranks[:0]
	for _, rank := range r.d.Ranks {
		if rank.ID != id {
			out = append(out, rank)
		}
	}
	r.d.Ranks = out
}
