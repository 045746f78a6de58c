package model

import (
	"net/url"
	"strconv"
)

type SortMethod string

const (
	SortAsc  SortMethod = "asc"
	SortDesc SortMethod = "desc"
)

// Pagination is the query shared by every list endpoint.
type Pagination struct {
	Page   int
	Limit  int
	Sort   string
	Method SortMethod
	Name   string
}

func (p Pagination) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Sort != "" {
		v.Set("sort", p.Sort)
		if p.Method != "" {
			v.Set("method", string(p.Method))
		}
	}
	if p.Name != "" {
		v.Set("name", p.Name)
	}
	return v
}

// Limit returns a pointer for the optional quota fields of the forms.
func Limit(v int64) *int64 {
	return &v
}

type NamespaceList struct {
	Items []Namespace `json:"items"`
	Total int64       `json:"total"`
}

type RepositoryList struct {
	Items []Repository `json:"items"`
	Total int64        `json:"total"`
}

type TagList struct {
	Items []Tag `json:"items"`
	Total int64 `json:"total"`
}

type ArtifactList struct {
	Items []Artifact `json:"items"`
	Total int64      `json:"total"`
}

type UserList struct {
	Items []User `json:"items"`
	Total int64  `json:"total"`
}

type WebhookList struct {
	Items []Webhook `json:"items"`
	Total int64     `json:"total"`
}

type CreatedId struct {
	Id int64 `json:"id"`
}

type Endpoint struct {
	Endpoint string `json:"endpoint"`
}

// ErrorPayload is the body the backend sends with every non-2xx response.
type ErrorPayload struct {
	Code        int    `json:"code"`
	Title       string `json:"title"`
	Description string `json:"description"`
}
