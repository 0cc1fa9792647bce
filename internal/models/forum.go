package models

type ForumCategory struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color"`
	Order       int    `json:"order,omitempty"`
}

type Forum struct {
	ID          string `json:"id"`
	CategoryID  string `json:"categoryId"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedBy   string `json:"createdBy,omitempty"`
	CreatedAt   int64  `json:"createdAt,omitempty"`
	ReadOnly    bool   `json:"readOnly,omitempty"`
}

type Thread struct {
	ID        string `json:"id"`
	ForumID   string `json:"forumId,omitempty"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	CreatedBy string `json:"createdBy,omitempty"`
	AuthorID  string `json:"authorId,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

// Author returns whichever author field the record carries; older documents
// used authorId for top-level threads and createdBy for forum threads.
func (t *Thread) Author() string {
	if t.CreatedBy != "" {
		return t.CreatedBy
	}
	return t.AuthorID
}

type Post struct {
	ID        string `json:"id"`
	ThreadID  string `json:"threadId"`
	Content   string `json:"content"`
	AuthorID  string `json:"authorId"`
	CreatedAt int64  `json:"createdAt"`
}

type ForumStatus struct {
	IsOpen bool `json:"isOpen"`
}
