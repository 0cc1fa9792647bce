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

const (
	threadTitleMax   = 200
	postContentMax   = 20000
	threadContentMax = 40000
)

type ForumService struct {
	store *store.Store
}

func NewForumService(st *store.Store) *ForumService {
	return &ForumService{store: st}
}

// AuthorPayload is the slim author block attached to rendered threads and
// posts.
type AuthorPayload struct {
	ID        string         `json:"id"`
	UID       int            `json:"uid"`
	Username  string         `json:"username"`
	Role      string         `json:"role"`
	StaffRole *string        `json:"staffRole"`
	Roles     []string       `json:"roles"`
	Profile   models.Profile `json:"profile"`
	Rank      *models.Rank   `json:"rank"`
}

type ForumPayload struct {
	models.Forum
	ThreadCount int `json:"threadCount"`
	PostCount   int `json:"postCount"`
}

type CategoryPayload struct {
	models.ForumCategory
	Forums []ForumPayload `json:"forums"`
}

type ThreadPayload struct {
	ID          string         `json:"id"`
	ForumID     string         `json:"forumId,omitempty"`
	Title       string         `json:"title"`
	Content     string         `json:"content"`
	ContentHTML string         `json:"contentHtml"`
	Author      *AuthorPayload `json:"author"`
	PostCount   int            `json:"postCount"`
	CreatedAt   int64          `json:"createdAt"`
}

type PostPayload struct {
	ID          string         `json:"id"`
	ThreadID    string         `json:"threadId"`
	Content     string         `json:"content"`
	ContentHTML string         `json:"contentHtml"`
	Author      *AuthorPayload `json:"author"`
	CreatedAt   int64          `json:"createdAt"`
}

func authorPayload(d *models.Document, userID string) *AuthorPayload {
	u := store.NewUserRepo(d).ByID(userID)
	if u == nil {
		return nil
	}
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return &AuthorPayload{
		ID:        u.ID,
		UID:       u.UID,
		Username:  u.Username,
		Role:      u.Role,
		StaffRole: u.StaffRole,
		Roles:     roles,
		Profile:   u.Profile,
		Rank:      store.NewRankRepo(d).ForUser(u),
	}
}

// Categories returns the whole forum index: every category with its forums
// and their thread and post counters.
func (s *ForumService) Categories() ([]CategoryPayload, error) {
	out := []CategoryPayload{}
	err := s.store.View(func(d *models.Document) error {
		forums := store.NewForumRepo(d)
		threads := store.NewThreadRepo(d)
		for _, c := range forums.Categories() {
			cp := CategoryPayload{ForumCategory: *c, Forums: []ForumPayload{}}
			for _, f := range forums.ByCategory(c.ID) {
				fp := ForumPayload{Forum: *f}
				for _, t := range threads.ByForum(f.ID) {
					fp.ThreadCount++
					fp.PostCount += threads.PostCount(t.ID)
				}
				cp.Forums = append(cp.Forums, fp)
			}
			out = append(out, cp)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, nil
}

// Status reports whether the forum accepts non-staff writes.
func (s *ForumService) Status() (models.ForumStatus, error) {
	var st models.ForumStatus
	err := s.store.View(func(d *models.Document) error {
		st = d.ForumStatus
		return nil
	})
	return st, err
}

// SetStatus opens or closes the forum for non-staff writes.
func (s *ForumService) SetStatus(isOpen bool) error {
	return s.store.Update(func(d *models.Document) error {
		d.ForumStatus.IsOpen = isOpen
		return nil
	})
}

// ensureWritable enforces the global open flag and a forum's read-only flag.
// Staff write through both.
func ensureWritable(d *models.Document, f *models.Forum, actor Actor) error {
	if actor.IsStaff() {
		return nil
	}
	if !d.ForumStatus.IsOpen {
		return utils.NewAppError(http.StatusForbidden, utils.CodeForbidden, "the forum is currently closed", nil)
	}
	if f != nil && f.ReadOnly {
		return utils.NewAppError(http.StatusForbidden, utils.CodeForbidden, "this forum is read-only", nil)
	}
	return nil
}

// Threads lists a forum's threads newest first.
func (s *ForumService) Threads(forumID string) ([]ThreadPayload, error) {
	out := []ThreadPayload{}
	err := s.store.View(func(d *models.Document) error {
		forums := store.NewForumRepo(d)
		if forums.ByID(forumID) == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "forum not found", nil)
		}
		threads := store.NewThreadRepo(d)
		for _, t := range threads.ByForum(forumID) {
			out = append(out, ThreadPayload{
				ID:          t.ID,
				ForumID:     t.ForumID,
				Title:       t.Title,
				Content:     t.Content,
				ContentHTML: utils.RenderMarkdown(t.Content),
				Author:      authorPayload(d, t.Author()),
				PostCount:   threads.PostCount(t.ID),
				CreatedAt:   t.CreatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	return out, nil
}

// Thread returns a single thread with its posts oldest first.
func (s *ForumService) Thread(threadID string) (*ThreadPayload, []PostPayload, error) {
	var tp *ThreadPayload
	posts := []PostPayload{}
	err := s.store.View(func(d *models.Document) error {
		threads := store.NewThreadRepo(d)
		t := threads.ByID(threadID)
		if t == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "thread not found", nil)
		}
		tp = &ThreadPayload{
			ID:          t.ID,
			ForumID:     t.ForumID,
			Title:       t.Title,
			Content:     t.Content,
			ContentHTML: utils.RenderMarkdown(t.Content),
			Author:      authorPayload(d, t.Author()),
			PostCount:   threads.PostCount(t.ID),
			CreatedAt:   t.CreatedAt,
		}
		for _, p := range threads.Posts(threadID) {
			posts = append(posts, PostPayload{
				ID:          p.ID,
				ThreadID:    p.ThreadID,
				Content:     p.Content,
				ContentHTML: utils.RenderMarkdown(p.Content),
				Author:      authorPayload(d, p.AuthorID),
				CreatedAt:   p.CreatedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	sort.Slice(posts, func(i, j int) bool { return posts[i].CreatedAt < posts[j].CreatedAt })
	return tp, posts, nil
}

// CreateThread posts a new thread into a forum, subject to the write gates.
func (s *ForumService) CreateThread(actor Actor, forumID, title, content string) (*ThreadPayload, error) {
	title = strings.TrimSpace(title)
	content = strings.TrimSpace(content)
	if title == "" || len(title) > threadTitleMax {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "title must be 1-200 characters", nil)
	}
	if content == "" || len(content) > threadContentMax {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "content required", nil)
	}

	now := nowMillis()
	var tp *ThreadPayload
	err := s.store.Update(func(d *models.Document) error {
		f := store.NewForumRepo(d).ByID(forumID)
		if f == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "forum not found", nil)
		}
		if err := ensureWritable(d, f, actor); err != nil {
			return err
		}
		t := &models.Thread{
			ID:        uuid.NewString(),
			ForumID:   forumID,
			Title:     title,
			Content:   content,
			CreatedBy: actor.ID,
			CreatedAt: now,
		}
		store.NewThreadRepo(d).Add(t)
		tp = &ThreadPayload{
			ID:          t.ID,
			ForumID:     t.ForumID,
			Title:       t.Title,
			Content:     t.Content,
			ContentHTML: utils.RenderMarkdown(t.Content),
			Author:      authorPayload(d, actor.ID),
			CreatedAt:   t.CreatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return tp, nil
}

// CreatePost replies to a thread, subject to the write gates of the thread's
// forum.
func (s *ForumService) CreatePost(actor Actor, threadID, content string) (*PostPayload, error) {
	content = strings.TrimSpace(content)
	if content == "" || len(content) > postContentMax {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "content required", nil)
	}

	now := nowMillis()
	var pp *PostPayload
	err := s.store.Update(func(d *models.Document) error {
		t := store.NewThreadRepo(d).ByID(threadID)
		if t == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "thread not found", nil)
		}
		var f *models.Forum
		if t.ForumID != "" {
			f = store.NewForumRepo(d).ByID(t.ForumID)
		}
		if err := ensureWritable(d, f, actor); err != nil {
			return err
		}
		p := &models.Post{
			ID:        uuid.NewString(),
			ThreadID:  threadID,
			Content:   content,
			AuthorID:  actor.ID,
			CreatedAt: now,
		}
		store.NewThreadRepo(d).AddPost(p)
		pp = &PostPayload{
			ID:          p.ID,
			ThreadID:    p.ThreadID,
			Content:     p.Content,
			ContentHTML: utils.RenderMarkdown(p.Content),
			Author:      authorPayload(d, actor.ID),
			CreatedAt:   p.CreatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pp, nil
}

// DeleteThread removes a thread and its posts. Authors may delete their own
// threads; staff may delete any.
func (s *ForumService) DeleteThread(actor Actor, threadID string) error {
	return s.store.Update(func(d *models.Document) error {
		t := store.NewThreadRepo(d).ByID(threadID)
		if t == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "thread not found", nil)
		}
		if !actor.IsStaff() && t.Author() != actor.ID {
			return utils.NewAppError(http.StatusForbidden, utils.CodeForbidden, "you can only delete your own threads", nil)
		}
		store.NewThreadRepo(d).Remove(threadID)
		return nil
	})
}

// DeletePost removes a single post under the same ownership rule.
func (s *ForumService) DeletePost(actor Actor, postID string) error {
	return s.store.Update(func(d *models.Document) error {
		var target *models.Post
		for _, p := range d.Posts {
			if p.ID == postID {
				target = p
				break
			}
		}
		if target == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "post not found", nil)
		}
		if !actor.IsStaff() && target.AuthorID != actor.ID {
			return utils.NewAppError(http.StatusForbidden, utils.CodeForbidden, "you can only delete your own posts", nil)
		}
		store.NewThreadRepo(d).RemovePost(postID)
		return nil
	})
}

type CategoryInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
	Order       int    `json:"order"`
}

func (s *ForumService) CreateCategory(in CategoryInput) (*models.ForumCategory, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "category name required", nil)
	}
	c := &models.ForumCategory{
		ID:          "cat_" + uuid.NewString()[:8],
		Name:        in.Name,
		Description: in.Description,
		Color:       in.Color,
		Order:       in.Order,
	}
	err := s.store.Update(func(d *models.Document) error {
		store.NewForumRepo(d).AddCategory(c)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

type ForumInput struct {
	CategoryID  string `json:"categoryId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ReadOnly    bool   `json:"readOnly"`
}

func (s *ForumService) CreateForum(actor Actor, in ForumInput) (*models.Forum, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, utils.NewAppError(http.StatusBadRequest, utils.CodeValidation, "forum name required", nil)
	}
	f := &models.Forum{
		ID:          "forum_" + uuid.NewString()[:8],
		CategoryID:  in.CategoryID,
		Name:        in.Name,
		Description: in.Description,
		CreatedBy:   actor.ID,
		CreatedAt:   nowMillis(),
		ReadOnly:    in.ReadOnly,
	}
	err := s.store.Update(func(d *models.Document) error {
		if store.NewForumRepo(d).CategoryByID(in.CategoryID) == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "category not found", nil)
		}
		store.NewForumRepo(d).Add(f)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return f, nil
}

// UpdateForum edits name, description and the read-only flag.
func (s *ForumService) UpdateForum(forumID string, in ForumInput) (*models.Forum, error) {
	var out *models.Forum
	err := s.store.Update(func(d *models.Document) error {
		f := store.NewForumRepo(d).ByID(forumID)
		if f == nil {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "forum not found", nil)
		}
		if strings.TrimSpace(in.Name) != "" {
			f.Name = in.Name
		}
		if in.Description != "" {
			f.Description = in.Description
		}
		f.ReadOnly = in.ReadOnly
		out = f
		return nil
	})
	return out, err
}

// DeleteForum cascades to the forum's threads and their posts.
func (s *ForumService) DeleteForum(forumID string) error {
	return s.store.Update(func(d *models.Document) error {
		if !store.NewForumRepo(d).Remove(forumID) {
			return utils.NewAppError(http.StatusNotFound, utils.CodeNotFound, "forum not found", nil)
		}
		return nil
	})
}
