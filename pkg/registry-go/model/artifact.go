package model

import "time"

type Artifact struct {
	Id              int64      `json:"id"`
	Digest          string     `json:"digest"`
	MediaType       string     `json:"media_type"`
	RawSize         int64      `json:"raw_size"`
	BlobSize        int64      `json:"blob_size"`
	ConfigMediaType string     `json:"config_media_type,omitempty"`
	LastPull        *time.Time `json:"last_pull,omitempty"`
	PullTimes       int64      `json:"pull_times"`
	PushedAt        time.Time  `json:"pushed_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type Tag struct {
	Id           int64     `json:"id"`
	Name         string    `json:"name"`
	RepositoryId int64     `json:"repository_id"`
	Artifact     Artifact  `json:"artifact"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
