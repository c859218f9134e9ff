package model

import (
	"time"
)

// Trip is a draft itinerary created from a chat action.
type Trip struct {
	ID          string    `json:"id" db:"id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	Country     string    `json:"country" db:"country"`
	Location    string    `json:"location" db:"location"`
	PhotoURL    *string   `json:"photo_url,omitempty" db:"photo_url"`
	Lat         float64   `json:"lat" db:"lat"`
	Lng         float64   `json:"lng" db:"lng"`
	IsDraft     bool      `json:"is_draft" db:"is_draft"`
	CreatedByAI bool      `json:"created_by_ai" db:"created_by_ai"`
	IsPublic    bool      `json:"is_public" db:"is_public"`
	Budget      float64   `json:"budget" db:"budget"`
	StartDate   time.Time `json:"start_date" db:"start_date"`
	EndDate     time.Time `json:"end_date" db:"end_date"`
	Likes       int       `json:"likes" db:"likes"`
	Comments    int       `json:"comments" db:"comments"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Point is an ordered stop of a trip.
type Point struct {
	ID          string  `json:"id" db:"id"`
	TripID      string  `json:"trip_id" db:"trip_id"`
	Order       int     `json:"order" db:"ord"`
	Name        string  `json:"name" db:"name"`
	Description string  `json:"description" db:"description"`
	Latitude    float64 `json:"latitude" db:"latitude"`
	Longitude   float64 `json:"longitude" db:"longitude"`
	HowToGet    string  `json:"how_to_get" db:"how_to_get"`
	Impressions string  `json:"impressions" db:"impressions"`
}

// PointImage is a photo attached to a point.
type PointImage struct {
	PointID string `json:"point_id" db:"point_id"`
	URL     string `json:"url" db:"url"`
}

// TripResult is the outcome of a successful materialization.
type TripResult struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}
