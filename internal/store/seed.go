package store

import "forum-server/internal/models"

// SeedDocument returns the defaults a fresh deployment starts from: an open
// forum, a member role, and one category with two forums.
func SeedDocument() *models.Document {
	return &models.Document{
		UIDCounter:  1,
		ForumStatus: models.ForumStatus{IsOpen: true},
		Ranks:       []*models.Rank{},
		Roles: []*models.Role{
			{ID: "role_member", Name: "Member", Color: "#9bb0bd", Permissions: map[models.Permission]bool{}, Position: 0},
		},
		ForumCategories: []*models.ForumCategory{
			{ID: "cat_general", Name: "General", Color: "#00ff88"},
		},
		Forums: []*models.Forum{
			{ID: "forum_general", Name: "General Discussion", Description: "General discussions", CategoryID: "cat_general"},
			{ID: "forum_trading", Name: "Trading", Description: "Buy and sell", CategoryID: "cat_general"},
		},
		Users:       []*models.User{},
		Threads:     []*models.Thread{},
		Posts:       []*models.Post{},
		Keys:        []*models.InviteKey{},
		Tickets:     []*models.Ticket{},
		Products:    []*models.Product{},
		Orders:      []*models.Order{},
		AccountLogs: []*models.AccountLog{},
	}
}
