package feed

import (
	"context"
	"fmt"
	"io"
	"log"
	"sort"
	"strings"
	"unicode/utf8"

	"infohub/internal/backend"
	"infohub/internal/domain"
)

// MaxContentLength bounds posts and comments, in characters.
const MaxContentLength = 1000

type Backend interface {
	Posts(ctx context.Context, token string) ([]domain.Post, error)
	CreatePost(ctx context.Context, token, content, image string) (domain.Post, error)
	LikePost(ctx context.Context, token string, postID int64) (backend.LikeResult, error)
	Comments(ctx context.Context, postID int64) ([]domain.Comment, error)
	AddComment(ctx context.Context, token string, postID int64, content string) (domain.Comment, error)
}

// Service is the community feed. Reads degrade to empty lists; writes surface errors.
type Service struct {
	backend Backend
	logger  *log.Logger
}

func New(b Backend, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{backend: b, logger: logger}
}

// List returns posts newest first. token may be empty for anonymous reads.
func (s *Service) List(ctx context.Context, token string) []domain.Post {
	posts, err := s.backend.Posts(ctx, token)
	if err != nil {
		s.logger.Printf("feed: list error=%v", err)
		return []domain.Post{}
	}
	out := append([]domain.Post{}, posts...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// Comments returns comments oldest first.
func (s *Service) Comments(ctx context.Context, postID int64) []domain.Comment {
	comments, err := s.backend.Comments(ctx, postID)
	if err != nil {
		s.logger.Printf("feed: comments post=%d error=%v", postID, err)
		return []domain.Comment{}
	}
	out := append([]domain.Comment{}, comments...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *Service) Create(ctx context.Context, token, content, image string) (domain.Post, error) {
	if token == "" {
		return domain.Post{}, domain.ErrNotAuthenticated
	}
	content, err := validContent(content)
	if err != nil {
		return domain.Post{}, err
	}
	post, err := s.backend.CreatePost(ctx, token, content, strings.TrimSpace(image))
	if err != nil {
		return domain.Post{}, fmt.Errorf("create post: %w", err)
	}
	if post.Content == "" {
		post.Content = content
	}
	return post, nil
}

func (s *Service) Like(ctx context.Context, token string, postID int64) (backend.LikeResult, error) {
	if token == "" {
		return backend.LikeResult{}, domain.ErrNotAuthenticated
	}
	if postID <= 0 {
		return backend.LikeResult{}, fmt.Errorf("post id %d: %w", postID, domain.ErrInvalidFormat)
	}
	res, err := s.backend.LikePost(ctx, token, postID)
	if err != nil {
		return backend.LikeResult{}, fmt.Errorf("like post %d: %w", postID, err)
	}
	return res, nil
}

func (s *Service) Comment(ctx context.Context, token string, postID int64, content string) (domain.Comment, error) {
	if token == "" {
		return domain.Comment{}, domain.ErrNotAuthenticated
	}
	if postID <= 0 {
		return domain.Comment{}, fmt.Errorf("post id %d: %w", postID, domain.ErrInvalidFormat)
	}
	content, err := validContent(content)
	if err != nil {
		return domain.Comment{}, err
	}
	c, err := s.backend.AddComment(ctx, token, postID, content)
	if err != nil {
		return domain.Comment{}, fmt.Errorf("comment post %d: %w", postID, err)
	}
	return c, nil
}

func validContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", fmt.Errorf("empty content: %w", domain.ErrInvalidFormat)
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return "", fmt.Errorf("content longer than %d characters: %w", MaxContentLength, domain.ErrInvalidFormat)
	}
	return content, nil
}
