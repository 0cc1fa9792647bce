package store

import "forum-server/internal/models"

type ForumRepo struct {
	d *models.Document
}

func NewForumRepo(d *models.Document) *ForumRepo {
	return &ForumRepo{d: d}
}

func (r *ForumRepo) CategoryByID(id string) *models.ForumCategory {
	for _, c := range r.d.ForumCategories {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (r *ForumRepo) Categories() []*models.ForumCategory {
	return r.d.ForumCategories
}

func (r *ForumRepo) AddCategory(c *models.ForumCategory) {
	r.d.ForumCategories = append(r.d.ForumCategories, c)
}

func (r *ForumRepo) ByID(id string) *models.Forum {
	for _, f := range r.d.Forums {
		if f.ID == id {
			return f
		}
	}
	return nil
}

func (r *ForumRepo) ByCategory(categoryID string) []*models.Forum {
	var out []*models.Forum
	for _, f := range r.d.Forums {
		if f.CategoryID == categoryID {
			out = append(out, f)
		}
	}
	return out
}

func (r *ForumRepo) Add(f *models.Forum) {
	r.d.Forums = append(r.d.Forums, f)
}

// Remove deletes the forum and cascades to its threads and their posts.
func (r *ForumRepo) Remove(id string) bool {
	found := false
	forums := r.d.Forums[:0]
	for _, f := range r.d.Forums {
		if f.ID == id {
			found = true
			continue
		}
		forums = append(forums, f)
	}
	r.d.Forums = forums
	if !found {
		return false
	}

	removed := map[string]bool{}
	threads := r.d.Threads[:0]
	for _, t := range r.d.Threads {
		if t.ForumID == id {
			removed[t.ID] = true
			continue
		}
		threads = append(threads, t)
	}
	r.d.Threads = threads

	posts := r.d.Posts[:0]
	for _, p := range r.d.Posts {
		if !removed[p.ThreadID] {
			posts = append(posts, p)
		}
	}
	r.d.Posts = posts
	return true
}

type ThreadRepo struct {
	d *models.Document
}

func NewThreadRepo(d *models.Document) *ThreadRepo {
	return &ThreadRepo{d: d}
}

func (r *ThreadRepo) ByID(id string) *models.Thread {
	for _, t := range r.d.Threads {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (r *ThreadRepo) ByForum(forumID string) []*models.Thread {
	var out []*models.Thread
	for _, t := range r.d.Threads {
		if t.ForumID == forumID {
			out = append(out, t)
		}
	}
	return out
}

func (r *ThreadRepo) All() []*models.Thread {
	return r.d.Threads
}

func (r *ThreadRepo) Add(t *models.Thread) {
	r.d.Threads = append(r.d.Threads, t)
}

// Remove deletes the thread and its posts.
func (r *ThreadRepo) Remove(id string) bool {
	found := false
	threads := r.d.Threads[:0]
	for _, t := range r.d.Threads {
		if t.ID == id {
			found = true
			continue
		}
		threads = append(threads, t)
	}
	r.d.Threads = threads
	if !found {
		return false
	}
	posts := r.d.Posts[:0]
	for _, p := range r.d.Posts {
		if p.ThreadID != id {
			posts = append(posts, p)
		}
	}
	r.d.Posts = posts
	return true
}

func (r *ThreadRepo) Posts(threadID string) []*models.Post {
	var out []*models.Post
	for _, p := range r.d.Posts {
		if p.ThreadID == threadID {
			out = append(out, p)
		}
	}
	return out
}

func (r *ThreadRepo) PostCount(threadID string) int {
	n := 0
	for _, p := range r.d.Posts {
		if p.ThreadID == threadID {
			n++
		}
	}
	return n
}

func (r *ThreadRepo) AddPost(p *models.Post) {
	r.d.Posts = append(r.d.Posts, p)
}

func (r *ThreadRepo) RemovePost(id string) bool {
	for i, p := range r.d.Posts {
		if p.ID == id {
			r.d.Posts = append(r.d.Posts[:i], r.d.Posts[i+1:]...)
			return true
		}
	}
	return false
}
