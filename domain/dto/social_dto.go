package dto

import "time"

// Res is the generic envelope used by middleware rejections
type Res struct {
	ResponseCode    string      `json:"responseCode"`
	ResponseMessage string      `json:"responseMessage"`
	Data            interface{} `json:"data,omitempty"`
}

// ConnectAccountRequest is the body of POST /social/accounts
type ConnectAccountRequest struct {
	Platform string `json:"platform"`
	Code     string `json:"code"`
	State    string `json:"state,omitempty"`
}

// PublishRequest is the body of POST /social/publish
type PublishRequest struct {
	PostID      string     `json:"postId"`
	Platforms   []string   `json:"platforms"`
	ScheduledAt *time.Time `json:"scheduledAt,omitempty"`
}

// ErrorResponse is returned for every request-level failure
type ErrorResponse struct {
	Error string `json:"error"`
}
