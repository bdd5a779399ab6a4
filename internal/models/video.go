package models

import (
	"time"

	"github.com/google/uuid"
)

type Platform string

const (
	PlatformBilibili   Platform = "bilibili"
	PlatformYoutube    Platform = "youtube"
	PlatformXiaoyuzhou Platform = "xiaoyuzhou"
)

// Video is the durable record keyed by (platform, platform_vid). Created on
// first successful metadata fetch, updated on re-acquisition, never
// implicitly deleted. AudioPath may be cleared by the retention sweep.
type Video struct {
	VideoID       uuid.UUID      `json:"video_id" db:"video_id" validate:"omitempty"`
	Platform      Platform       `json:"platform" db:"platform" validate:"required"`
	PlatformVid   string         `json:"platform_vid" db:"platform_vid" validate:"required,lte=64"`
	Title         string         `json:"title" db:"title"`
	Author        string         `json:"author" db:"author"`
	Duration      int64          `json:"duration" db:"duration"`
	ViewCount     int64          `json:"view_count" db:"view_count"`
	Tags          StringSlice    `json:"tags" db:"tags"`
	Keywords      StringSlice    `json:"keywords" db:"keywords"`
	Description   string         `json:"description" db:"description"`
	AudioPath     *string        `json:"audio_path" db:"audio_path"`
	SearchKeyword *string        `json:"search_keyword" db:"search_keyword"`
	SearchRank    *int           `json:"search_rank" db:"search_rank"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at" db:"updated_at"`
}

// VideoInfo is the platform-normalized metadata shape returned by signing
// clients before persistence.
type VideoInfo struct {
	PlatformVid string   `json:"platform_vid"`
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Duration    int64    `json:"duration"`
	ViewCount   int64    `json:"view_count"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Keywords    []string `json:"keywords"`
	// AudioURL is set by platforms that expose the track as a direct file
	// URL (podcast feeds); empty means the downloader resolves it.
	AudioURL string `json:"audio_url,omitempty"`
}

// VideoSummary is one search hit.
type VideoSummary struct {
	PlatformVid string `json:"platform_vid"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Duration    string `json:"duration"`
	PlayCount   int64  `json:"play_count"`
}

type VideoList struct {
	Videos     []*Video `json:"videos"`
	TotalCount int      `json:"total_count"`
	Page       int      `json:"page"`
	PageSize   int      `json:"page_size"`
	HasMore    bool     `json:"has_more"`
}
