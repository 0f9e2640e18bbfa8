// Package models contains the row types shared across services and handlers.
package models

import "time"

// Production status values stored in the image/reel status columns.
// The generation dialog keys its entry state off these.
const (
	StatusPending     = "Pending"
	StatusDone        = "Done"
	StatusUnderReview = "Under Review"
)

// User is a dashboard login account.
type User struct {
	ID        int       `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewsSource is one collected article row.
type NewsSource struct {
	ID            int        `json:"id"`
	Title         string     `json:"title"`
	SourceURL     string     `json:"source_url,omitempty"`
	Category      string     `json:"category,omitempty"`
	PublishedDate *time.Time `json:"published_date,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ImageProduction is the manual image production record attached to an article.
type ImageProduction struct {
	ID             int       `json:"id"`
	NewsSourceID   int       `json:"news_source_id"`
	Title          string    `json:"title"`
	ImageForPost   string    `json:"image_for_post,omitempty"`
	Categories     string    `json:"catogires,omitempty"`
	ImageURL       string    `json:"image_url,omitempty"`
	ImageOwnerName string    `json:"image_owner_name,omitempty"`
	DownloadLink   string    `json:"download_link,omitempty"`
	Status         string    `json:"status,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Reel is the short-video production record attached to an article.
type Reel struct {
	ID             int       `json:"id"`
	NewsSourceID   int       `json:"news_source_id"`
	Title          string    `json:"title"`
	VideoURL       string    `json:"video_url,omitempty"`
	VideoOwnerName string    `json:"video_owner_name,omitempty"`
	VideoDimension string    `json:"video_dimension,omitempty"`
	ReelCoverImage string    `json:"reel_cover_image,omitempty"`
	FinalVideo     string    `json:"final_video,omitempty"`
	Status         string    `json:"status,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
