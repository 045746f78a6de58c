package model

import "time"

type Webhook struct {
	Id              int64     `json:"id"`
	NamespaceId     *int64    `json:"namespace_id,omitempty"`
	Url             string    `json:"url"`
	Secret          *string   `json:"secret,omitempty"`
	SslVerify       bool      `json:"ssl_verify"`
	RetryTimes      int       `json:"retry_times"`
	RetryDuration   int       `json:"retry_duration"`
	Enable          bool      `json:"enable"`
	EventNamespace  *bool     `json:"event_namespace,omitempty"`
	EventRepository bool      `json:"event_repository"`
	EventTag        bool      `json:"event_tag"`
	EventArtifact   bool      `json:"event_artifact"`
	EventMember     bool      `json:"event_member"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type WebhookForm struct {
	Url             string  `json:"url" validate:"required,url"`
	Secret          *string `json:"secret,omitempty" validate:"omitempty,min=6,max=63"`
	SslVerify       bool    `json:"ssl_verify"`
	RetryTimes      int     `json:"retry_times" validate:"min=0,max=10"`
	RetryDuration   int     `json:"retry_duration" validate:"min=0,max=10"`
	Enable          bool    `json:"enable"`
	EventNamespace  *bool   `json:"event_namespace,omitempty"`
	EventRepository bool    `json:"event_repository"`
	EventTag        bool    `json:"event_tag"`
	EventArtifact   bool    `json:"event_artifact"`
	EventMember     bool    `json:"event_member"`
}
