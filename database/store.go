package database

import (
	"context"
	"fmt"

	"github.com/chxlky/trello-pm/internal/models"
	"github.com/chxlky/trello-pm/internal/report"
	"github.com/chxlky/trello-pm/internal/status"
	"gorm.io/gorm"
)

// Store holds the cards of the most recent run. Each Record replaces the
// previous snapshot.
type Store struct {
	DB *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

func (s *Store) Record(ctx context.Context, rep *report.Report) error {
	records := toRecords(rep)
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&models.CardRecord{}).Error; err != nil {
			return fmt.Errorf("failed to clear previous snapshot: %w", err)
		}
		if len(records) == 0 {
			return nil
		}
		if err := tx.Create(&records).Error; err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}
		return nil
	})
}

// Cards returns the snapshot rows of bucket, or of every bucket when bucket is empty.
func (s *Store) Cards(ctx context.Context, bucket string) ([]models.CardRecord, error) {
	q := s.DB.WithContext(ctx).Order("position")
	if bucket != "" {
		q = q.Where("bucket = ?", bucket)
	}
	var records []models.CardRecord
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	return records, nil
}

func toRecords(rep *report.Report) []models.CardRecord {
	var records []models.CardRecord
	for _, b := range status.Buckets {
		for _, c := range rep.Buckets[b] {
			issues := make([]string, 0, len(c.Issues))
			for _, issue := range c.Issues {
				issues = append(issues, issue.String())
			}
			records = append(records, models.CardRecord{
				ID:                 c.Card.ID,
				RunID:              rep.RunID,
				Position:           len(records),
				Bucket:             b.String(),
				Status:             c.Status.String(),
				Issues:             issues,
				Name:               c.Card.Name,
				URL:                c.Card.URL,
				DueDate:            c.Card.DueDate,
				StartDate:          c.Card.StartDate,
				LastActivity:       c.Card.LastActivity,
				ItemCount:          c.Card.ItemCount(),
				CompletedItemCount: c.Card.CompletedItemCount(),
				CloseSummary:       c.CloseSummary,
				RecordedAt:         rep.GeneratedAt,
			})
		}
	}
	return records
}
