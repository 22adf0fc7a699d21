package http

import (
	"errors"
	"net/http"

	"blog-social/domain/dto"
	"blog-social/domain/model"
	"blog-social/infrastructure/logger"
	"blog-social/usecase"

	"github.com/gin-gonic/gin"
)

type ISocialHandler interface {
	ConnectAccount(ctx *gin.Context)
	ListAccounts(ctx *gin.Context)
	DeleteAccount(ctx *gin.Context)
	AuthorizeURL(ctx *gin.Context)
	Publish(ctx *gin.Context)
	ListPublications(ctx *gin.Context)
	GetStats(ctx *gin.Context)
}

type SocialHandler struct {
	socialUsecase usecase.ISocialUsecase
	states        *stateStore
}

func NewSocialHandler(uc usecase.ISocialUsecase) ISocialHandler {
	return &SocialHandler{socialUsecase: uc, states: newStateStore()}
}

func abortWithError(ctx *gin.Context, status int, message string) {
	ctx.AbortWithStatusJSON(status, dto.ErrorResponse{Error: message})
}

// writeError maps domain errors onto HTTP statuses.
func writeError(ctx *gin.Context, err error) {
	var (
		validationErr *model.ValidationError
		authErr       *model.ExternalAuthError
		configErr     *model.ConfigurationError
	)
	switch {
	case errors.As(err, &validationErr):
		abortWithError(ctx, http.StatusBadRequest, validationErr.Error())
	case errors.Is(err, model.ErrNotFound):
		abortWithError(ctx, http.StatusNotFound, "not found")
	case errors.As(err, &authErr):
		abortWithError(ctx, http.StatusUnauthorized, authErr.Message)
	case errors.As(err, &configErr):
		logger.GetLogger().WithField("platform", configErr.Platform).WithField("error", err).Error("Platform is not configured")
		abortWithError(ctx, http.StatusInternalServerError, err.Error())
	default:
		logger.GetLogger().WithField("path", ctx.FullPath()).WithField("error", err).Error("Request failed")
		abortWithError(ctx, http.StatusInternalServerError, "internal server error")
	}
}

func currentUser(ctx *gin.Context) (string, bool) {
	userID := ctx.GetString("user_id")
	if userID == "" {
		abortWithError(ctx, http.StatusUnauthorized, "Unauthorized")
		return "", false
	}
	return userID, true
}

func (h *SocialHandler) ConnectAccount(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req dto.ConnectAccountRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		abortWithError(ctx, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Platform == "" || req.Code == "" {
		abortWithError(ctx, http.StatusBadRequest, "platform and code are required")
		return
	}
	if req.State != "" {
		platform, err := model.ParsePlatform(req.Platform)
		if err != nil {
			writeError(ctx, err)
			return
		}
		if !h.states.consume(req.State, userID, platform) {
			abortWithError(ctx, http.StatusBadRequest, "invalid_state")
			return
		}
	}

	account, err := h.socialUsecase.ConnectAccount(ctx.Request.Context(), req.Platform, req.Code, userID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"account": account})
}

func (h *SocialHandler) ListAccounts(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	accounts, err := h.socialUsecase.ListAccounts(ctx.Request.Context(), userID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	if accounts == nil {
		accounts = []*model.SocialAccount{}
	}
	ctx.JSON(http.StatusOK, gin.H{"accounts": accounts})
}

func (h *SocialHandler) DeleteAccount(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	id := ctx.Query("id")
	if id == "" {
		abortWithError(ctx, http.StatusBadRequest, "Account ID is required")
		return
	}
	if err := h.socialUsecase.DeleteAccount(ctx.Request.Context(), userID, id); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"success": true})
}

// AuthorizeURL returns the platform consent URL and a state valid for 10 minutes.
func (h *SocialHandler) AuthorizeURL(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	platform, err := model.ParsePlatform(ctx.Query("platform"))
	if err != nil {
		writeError(ctx, err)
		return
	}
	state := h.states.issue(userID, platform)
	u, err := h.socialUsecase.AuthURL(ctx.Request.Context(), string(platform), state)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"authUrl": u, "state": state})
}

func (h *SocialHandler) Publish(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	var req dto.PublishRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		abortWithError(ctx, http.StatusBadRequest, "invalid request body")
		return
	}
	platforms := make([]model.Platform, len(req.Platforms))
	for i, p := range req.Platforms {
		platforms[i] = model.Platform(p)
	}

	results, err := h.socialUsecase.PublishPost(ctx.Request.Context(), model.PublishRequest{
		PostID:      req.PostID,
		UserID:      userID,
		Platforms:   platforms,
		ScheduledAt: req.ScheduledAt,
	})
	if err != nil {
		logger.GetLogger().WithField("post_id", req.PostID).WithField("error", err).Warn("Publish request rejected")
		writeError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *SocialHandler) ListPublications(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	postID := ctx.Query("postId")
	if postID == "" {
		abortWithError(ctx, http.StatusBadRequest, "Post ID is required")
		return
	}
	pubs, err := h.socialUsecase.ListPublications(ctx.Request.Context(), userID, postID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	if pubs == nil {
		pubs = []*model.SocialPublication{}
	}
	ctx.JSON(http.StatusOK, gin.H{"publications": pubs})
}

func (h *SocialHandler) GetStats(ctx *gin.Context) {
	userID, ok := currentUser(ctx)
	if !ok {
		return
	}
	postID := ctx.Query("postId")
	if postID == "" {
		abortWithError(ctx, http.StatusBadRequest, "Post ID is required")
		return
	}
	stats, err := h.socialUsecase.GetStats(ctx.Request.Context(), userID, postID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	if stats == nil {
		stats = []model.SocialStats{}
	}
	ctx.JSON(http.StatusOK, gin.H{"stats": stats})
}
