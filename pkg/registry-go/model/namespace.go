package model

import "time"

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

type Namespace struct {
	Id              int64      `json:"id"`
	Name            string     `json:"name"`
	Description     *string    `json:"description,omitempty"`
	Visibility      Visibility `json:"visibility"`
	Size            int64      `json:"size"`
	SizeLimit       int64      `json:"size_limit"`
	RepositoryCount int64      `json:"repository_count"`
	RepositoryLimit int64      `json:"repository_limit"`
	TagCount        int64      `json:"tag_count"`
	TagLimit        int64      `json:"tag_limit"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// NamespaceForm is the body of create and update calls. A nil limit is left
// as it is on the server, a zero limit means unlimited.
type NamespaceForm struct {
	Name            string     `json:"name,omitempty" validate:"required,namespace"`
	Description     *string    `json:"description,omitempty" validate:"omitempty,max=255"`
	Visibility      Visibility `json:"visibility,omitempty" validate:"omitempty,oneof=public private"`
	SizeLimit       *int64     `json:"size_limit,omitempty" validate:"omitempty,quota"`
	RepositoryLimit *int64     `json:"repository_limit,omitempty" validate:"omitempty,quota"`
	TagLimit        *int64     `json:"tag_limit,omitempty" validate:"omitempty,quota"`
}
