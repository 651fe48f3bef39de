package models

import "time"

// CardRecord is one classified card of the latest run as kept in the snapshot store.
type CardRecord struct {
	ID                 string `gorm:"primaryKey"`
	RunID              string `gorm:"index"`
	Position           int
	Bucket             string `gorm:"index"`
	Status             string
	Issues             []string `gorm:"serializer:json"`
	Name               string
	URL                string
	DueDate            *time.Time
	StartDate          *time.Time
	LastActivity       *time.Time
	ItemCount          int
	CompletedItemCount int
	CloseSummary       string
	RecordedAt         time.Time
}
