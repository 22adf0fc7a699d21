package social

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"blog-social/domain/model"

	"golang.org/x/oauth2"
)

// RequireConfigured returns a ConfigurationError naming every empty setting.
func RequireConfigured(platform model.Platform, settings map[string]string) error {
	var missing []string
	for name, v := range settings {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return &model.ConfigurationError{Platform: platform, Reason: "missing " + strings.Join(missing, ", ")}
}

// AuthError wraps a failed token exchange, preferring the platform's own message.
func AuthError(platform model.Platform, err error) error {
	if err == nil {
		return nil
	}
	var ae *model.ExternalAuthError
	if errors.As(err, &ae) {
		return err
	}
	msg := err.Error()
	var re *oauth2.RetrieveError
	var se *StatusError
	switch {
	case errors.As(err, &re):
		if m := messageFromBody(re.Body); m != "" {
			msg = m
		} else if re.ErrorDescription != "" {
			msg = re.ErrorDescription
		} else if re.ErrorCode != "" {
			msg = re.ErrorCode
		}
	case errors.As(err, &se):
		if m := messageFromBody([]byte(se.Body)); m != "" {
			msg = m
		}
	}
	return &model.ExternalAuthError{Platform: platform, Message: msg, Err: err}
}

// messageFromBody digs the human readable message out of the error envelopes
// used by VK, Telegram and the Instagram Graph API.
func messageFromBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	var env struct {
		ErrorDescription string          `json:"error_description"`
		ErrorMessage     string          `json:"error_message"`
		Description      string          `json:"description"`
		Error            json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return ""
	}
	for _, m := range []string{env.ErrorDescription, env.ErrorMessage, env.Description} {
		if m != "" {
			return m
		}
	}
	if len(env.Error) == 0 {
		return ""
	}
	var nested struct {
		Message  string `json:"message"`
		ErrorMsg string `json:"error_msg"`
	}
	if err := json.Unmarshal(env.Error, &nested); err == nil {
		if nested.ErrorMsg != "" {
			return nested.ErrorMsg
		}
		if nested.Message != "" {
			return nested.Message
		}
	}
	var s string
	if err := json.Unmarshal(env.Error, &s); err == nil {
		return s
	}
	return ""
}
