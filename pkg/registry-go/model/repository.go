package model

import "time"

type Repository struct {
	Id          int64     `json:"id"`
	NamespaceId int64     `json:"namespace_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Overview    *string   `json:"overview,omitempty"`
	Size        int64     `json:"size"`
	SizeLimit   int64     `json:"size_limit"`
	TagCount    int64     `json:"tag_count"`
	TagLimit    int64     `json:"tag_limit"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type RepositoryForm struct {
	Name        string  `json:"name,omitempty" validate:"required,repository"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=255"`
	Overview    *string `json:"overview,omitempty"`
	SizeLimit   *int64  `json:"size_limit,omitempty" validate:"omitempty,quota"`
	TagLimit    *int64  `json:"tag_limit,omitempty" validate:"omitempty,quota"`
}
