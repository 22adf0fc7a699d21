package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"blog-social/domain/model"
	"blog-social/infrastructure/clients/social"
	"blog-social/infrastructure/logger"
)

const DefaultAPIBaseURL = "https://api.telegram.org"

type Config struct {
	BotToken   string
	APIBaseURL string
}

// Adapter posts to channels through the Telegram Bot API. There is no per-user
// OAuth: the bot token is shared and a channel handle is the connect proof.
type Adapter struct {
	cfg       Config
	client    *social.APIClient
	configErr error
	now       func() time.Time
}

func NewAdapter(cfg Config, client *social.APIClient) *Adapter {
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultAPIBaseURL
	}
	a := &Adapter{cfg: cfg, client: client, now: time.Now}
	a.configErr = social.RequireConfigured(model.PlatformTelegram, map[string]string{"botToken": cfg.BotToken})
	if a.configErr != nil {
		logger.GetLogger().WithField("platform", model.PlatformTelegram).WithField("error", a.configErr).
			Warn("Telegram API credentials are not properly configured")
	}
	return a
}

func (a *Adapter) Platform() model.Platform { return model.PlatformTelegram }

// AuthURL is not applicable: channels are connected by handle.
func (a *Adapter) AuthURL(string) (string, error) {
	return "", &model.ValidationError{Field: "platform", Message: "telegram is connected with a channel handle, not OAuth"}
}

func (a *Adapter) method(name string) string {
	return fmt.Sprintf("%s/bot%s/%s", a.cfg.APIBaseURL, a.cfg.BotToken, name)
}

type envelope struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	ErrorCode   int    `json:"error_code"`
}

type getChatParams struct {
	ChatID string `url:"chat_id"`
}

type getChatResponse struct {
	envelope
	Result struct {
		ID       int64  `json:"id"`
		Title    string `json:"title"`
		Username string `json:"username"`
	} `json:"result"`
}

func (a *Adapter) Connect(ctx context.Context, channelID string) (model.SocialAccount, error) {
	if a.configErr != nil {
		return model.SocialAccount{}, a.configErr
	}
	channelID = strings.TrimSpace(channelID)
	if channelID == "" {
		return model.SocialAccount{}, &model.ValidationError{Field: "code", Message: "channel id is required"}
	}

	var resp getChatResponse
	err := a.client.GetJSON(ctx, a.method("getChat"), getChatParams{ChatID: channelID}, &resp)
	if !resp.OK {
		msg := resp.Description
		if msg == "" && err != nil {
			msg = err.Error()
		}
		if msg == "" {
			msg = "getChat failed"
		}
		return model.SocialAccount{}, &model.ExternalAuthError{Platform: model.PlatformTelegram, Message: msg, Err: err}
	}

	username := resp.Result.Title
	if username == "" && resp.Result.Username != "" {
		username = "@" + resp.Result.Username
	}
	if username == "" {
		username = channelID
	}
	now := a.now().UTC()
	return model.SocialAccount{
		Platform:         model.PlatformTelegram,
		AccessToken:      a.cfg.BotToken,
		PlatformUserID:   channelID,
		PlatformUsername: username,
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

type sendPhotoRequest struct {
	ChatID string `json:"chat_id"`
	Photo  string `json:"photo"`
}

type messageResponse struct {
	envelope
	Result struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

func (a *Adapter) Publish(ctx context.Context, account model.SocialAccount, content model.AdaptedContent) model.PublishResult {
	if a.configErr != nil {
		return model.FailedResult(model.PlatformTelegram, a.configErr)
	}
	if !account.TokenValid(a.now()) {
		refreshed, err := a.RefreshToken(ctx, account)
		if err != nil {
			return model.FailedResult(model.PlatformTelegram, fmt.Errorf("refresh token: %w", err))
		}
		account = refreshed
	}

	var resp messageResponse
	err := a.client.PostJSON(ctx, a.method("sendMessage"), sendMessageRequest{
		ChatID:    account.PlatformUserID,
		Text:      FormatMarkdown(content),
		ParseMode: "MarkdownV2",
	}, &resp)
	if !resp.OK {
		if resp.Description != "" {
			return model.FailedResult(model.PlatformTelegram, fmt.Errorf("Telegram API error: %s", resp.Description))
		}
		if err == nil {
			err = fmt.Errorf("ok=false")
		}
		return model.FailedResult(model.PlatformTelegram, fmt.Errorf("Telegram API error: %w", err))
	}

	a.sendImages(ctx, account.PlatformUserID, content.Images)

	messageID := strconv.FormatInt(resp.Result.MessageID, 10)
	return model.PublishResult{
		Success:     true,
		Platform:    model.PlatformTelegram,
		Status:      model.StatusPublished,
		ExternalID:  messageID,
		ExternalURL: messageURL(account, messageID),
	}
}

// sendImages is best effort: a failed photo never fails the publication.
func (a *Adapter) sendImages(ctx context.Context, chatID string, images []string) {
	for _, img := range images {
		var resp envelope
		err := a.client.PostJSON(ctx, a.method("sendPhoto"), sendPhotoRequest{ChatID: chatID, Photo: img}, &resp)
		if err != nil || !resp.OK {
			logger.GetLogger().WithFields(map[string]interface{}{
				"platform":    model.PlatformTelegram,
				"image":       img,
				"error":       err,
				"description": resp.Description,
			}).Error("Error sending image to Telegram")
		}
	}
}

// messageURL only exists for public channels, which are addressed by @username.
func messageURL(account model.SocialAccount, messageID string) string {
	for _, handle := range []string{account.PlatformUsername, account.PlatformUserID} {
		if strings.HasPrefix(handle, "@") && len(handle) > 1 {
			return fmt.Sprintf("https://t.me/%s/%s", handle[1:], messageID)
		}
	}
	return ""
}

func (a *Adapter) GetStats(_ context.Context, publication model.SocialPublication) (model.SocialStats, error) {
	return model.EmptyStats(publication.ID, a.now().UTC()), nil
}

// RefreshToken is a no-op: bot tokens are static.
func (a *Adapter) RefreshToken(_ context.Context, account model.SocialAccount) (model.SocialAccount, error) {
	return account, nil
}
