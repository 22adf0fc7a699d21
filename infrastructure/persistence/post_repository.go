package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"blog-social/domain/model"
	"blog-social/infrastructure/content"
	"blog-social/infrastructure/logger"

	"gorm.io/gorm"
)

type postRow struct {
	ID          string `gorm:"primaryKey"`
	AuthorID    string
	Title       string
	Slug        string
	Excerpt     string
	CoverImage  string
	Status      string
	PublishedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (postRow) TableName() string { return "posts" }

type postBlockRow struct {
	ID        string `gorm:"primaryKey"`
	PostID    string
	Type      string
	Content   string
	GridID    string
	CreatedAt time.Time
}

func (postBlockRow) TableName() string { return "post_blocks" }

// PostRepository reads posts owned by the blog CMS and renders them as canonical posts.
type PostRepository struct {
	db       *gorm.DB
	linkBase string
}

func NewPostRepository(db *gorm.DB, linkBase string) *PostRepository {
	return &PostRepository{db: db, linkBase: linkBase}
}

func (r *PostRepository) GetCanonicalPost(ctx context.Context, postID string) (*model.CanonicalPost, error) {
	var post postRow
	if err := r.db.WithContext(ctx).Where("id = ?", postID).Take(&post).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}

	var blocks []postBlockRow
	if err := r.db.WithContext(ctx).Where("post_id = ?", postID).Order("created_at, id").Find(&blocks).Error; err != nil {
		return nil, err
	}

	link := r.linkBase + post.ID
	canonical := &model.CanonicalPost{
		ID:       post.ID,
		AuthorID: post.AuthorID,
		Title:    post.Title,
		Link:     link,
		Images:   []string{},
	}
	seen := map[string]bool{}
	addImage := func(u string) {
		if u == "" || seen[u] {
			return
		}
		seen[u] = true
		canonical.Images = append(canonical.Images, u)
	}
	addImage(post.CoverImage)

	var paragraphs []string
	for _, row := range blocks {
		block, err := model.DecodeBlockContent(model.BlockType(row.Type), []byte(row.Content))
		if err != nil {
			logger.GetLogger().WithField("post_id", postID).WithField("block_id", row.ID).WithField("error", err).
				Warn("Skipping invalid post block")
			continue
		}
		for _, img := range block.ImageURLs() {
			addImage(img)
		}
		text := block.Text()
		if block.Type() == model.BlockText {
			extracted, err := content.ExtractHTML(text, link)
			if err != nil {
				logger.GetLogger().WithField("post_id", postID).WithField("block_id", row.ID).WithField("error", err).
					Warn("Error extracting text from block html")
				continue
			}
			text = extracted.Text
			for _, img := range extracted.Images {
				addImage(img)
			}
		}
		if text = strings.TrimSpace(text); text != "" {
			paragraphs = append(paragraphs, text)
		}
	}

	canonical.Body = strings.Join(paragraphs, "\n\n")
	if canonical.Body == "" {
		canonical.Body = strings.TrimSpace(post.Excerpt)
	}
	return canonical, nil
}
