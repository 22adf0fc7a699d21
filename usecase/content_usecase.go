package usecase

import (
	"context"

	"blog-social/domain/model"
	"blog-social/domain/repository"
	"blog-social/infrastructure/logger"
)

const (
	TelegramTextLimit = 4000
	ThreadTextLimit   = 500
	truncationMarker  = "..."
)

// TextLimit returns the maximum text length in runes for platform, 0 meaning unlimited.
func TextLimit(platform model.Platform) int {
	switch platform {
	case model.PlatformTelegram:
		return TelegramTextLimit
	case model.PlatformThread:
		return ThreadTextLimit
	default:
		return 0
	}
}

// Truncate cuts s to exactly limit runes, the last three being the marker.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= len(truncationMarker) {
		return string(runes[:limit])
	}
	return string(runes[:limit-len(truncationMarker)]) + truncationMarker
}

// AdaptForPlatform shapes a canonical post for one platform. The post is not modified.
func AdaptForPlatform(platform model.Platform, post model.CanonicalPost, placeholderImage string) model.AdaptedContent {
	images := make([]string, len(post.Images))
	copy(images, post.Images)

	content := model.AdaptedContent{
		Title:  post.Title,
		Text:   Truncate(post.Body, TextLimit(platform)),
		Images: images,
		Link:   post.Link,
	}
	if platform == model.PlatformThread && len(content.Images) == 0 {
		content.Images = []string{placeholderImage}
	}
	return content
}

type IContentUsecase interface {
	AdaptContent(ctx context.Context, postID string) (map[model.Platform]model.AdaptedContent, error)
}

type contentUsecase struct {
	posts       repository.IPostSource
	cache       repository.IContentCache
	placeholder string
}

// NewContentUsecase builds the adaptation stage; cache may be nil.
func NewContentUsecase(posts repository.IPostSource, cache repository.IContentCache, placeholderImage string) IContentUsecase {
	return &contentUsecase{posts: posts, cache: cache, placeholder: placeholderImage}
}

func (u *contentUsecase) AdaptContent(ctx context.Context, postID string) (map[model.Platform]model.AdaptedContent, error) {
	if postID == "" {
		return nil, &model.ValidationError{Field: "postId", Message: "is required"}
	}
	if u.cache != nil {
		cached, ok, err := u.cache.Get(ctx, postID)
		if err != nil {
			logger.GetLogger().WithField("post_id", postID).WithField("error", err).Warn("Adapted content cache read failed")
		} else if ok {
			return cached, nil
		}
	}

	post, err := u.posts.GetCanonicalPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	result := make(map[model.Platform]model.AdaptedContent, len(model.SupportedPlatforms))
	for _, p := range model.SupportedPlatforms {
		result[p] = AdaptForPlatform(p, *post, u.placeholder)
	}

	if u.cache != nil {
		if err := u.cache.Set(ctx, postID, result); err != nil {
			logger.GetLogger().WithField("post_id", postID).WithField("error", err).Warn("Adapted content cache write failed")
		}
	}
	return result, nil
}
