package model

import "time"

type Account struct {
	ID       string   `json:"_id"`
	Email    string   `json:"email"`
	Name     string   `json:"name"`
	Password string   `json:"-"`
	Posts    []string `json:"posts"`
}

// HasPost reports whether postID is in the account's post list.
func (a *Account) HasPost(postID string) bool {
	for _, id := range a.Posts {
		if id == postID {
			return true
		}
	}
	return false
}

// AddPost appends postID unless it is already present.
func (a *Account) AddPost(postID string) {
	if !a.HasPost(postID) {
		a.Posts = append(a.Posts, postID)
	}
}

// RemovePost drops every occurrence of postID.
func (a *Account) RemovePost(postID string) {
	posts := a.Posts[:0]
	for _, id := range a.Posts {
		if id != postID {
			posts = append(posts, id)
		}
	}
	a.Posts = posts
}

type Post struct {
	ID        string    `json:"_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"imageUrl"`
	Creator   string    `json:"creator"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type CreatorSummary struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}

type PostPage struct {
	Posts      []Post `json:"posts"`
	PostsCount int64  `json:"postsCount"`
}

// UploadedFile is an image already written to the file store for the current request.
type UploadedFile struct {
	Ref          string
	OriginalName string
	ContentType  string
	Size         int64
}
