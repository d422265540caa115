package domain

import "time"

type Post struct {
	ID           int64     `json:"id"`
	AuthorID     int64     `json:"authorId"`
	AuthorName   string    `json:"authorName"`
	Content      string    `json:"content"`
	Image        string    `json:"image,omitempty"`
	Likes        int       `json:"likes"`
	LikedByMe    bool      `json:"likedByMe"`
	CommentCount int       `json:"commentCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Comment struct {
	ID         int64     `json:"id"`
	PostID     int64     `json:"postId"`
	AuthorID   int64     `json:"authorId"`
	AuthorName string    `json:"authorName"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}
