package model

import "time"

const EventPublicationReconcile = "social.publication.reconcile"

// ReconcileEvent asks an operator to reconcile a live external post that has
// no local publication record.
type ReconcileEvent struct {
	ID              string    `json:"id"`
	Type            string    `json:"type"`
	PostID          string    `json:"postId"`
	Platform        Platform  `json:"platform"`
	SocialAccountID string    `json:"socialAccountId"`
	ExternalID      string    `json:"externalId,omitempty"`
	ExternalURL     string    `json:"externalUrl,omitempty"`
	Error           string    `json:"error"`
	OccurredAt      time.Time `json:"occurredAt"`
}

// PublicationStatusEvent is streamed to the publication owner
type PublicationStatusEvent struct {
	Type          string            `json:"type"`
	UserID        string            `json:"-"`
	PostID        string            `json:"postId"`
	PublicationID string            `json:"publicationId,omitempty"`
	Platform      Platform          `json:"platform"`
	Status        PublicationStatus `json:"status"`
	ExternalURL   string            `json:"externalUrl,omitempty"`
	Error         string            `json:"error,omitempty"`
}
