package services

import (
	"time"

	"github.com/tofa/academy-backend/internal/database"
	"github.com/tofa/academy-backend/pkg/funnel"
)

// AnalyticsService computes the command-center counters and funnel rates.
// Everything derives from live lead data; nothing is precomputed.
type AnalyticsService struct {
	leadRepo    *database.LeadRepository
	studentRepo *database.StudentRepository
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(leadRepo *database.LeadRepository, studentRepo *database.StudentRepository) *AnalyticsService {
	return &AnalyticsService{leadRepo: leadRepo, studentRepo: studentRepo}
}

// CommandCenter is the dashboard payload: actionable buckets plus per-status
// counts.
type CommandCenter struct {
	Buckets      funnel.BucketCounts   `json:"buckets"`
	StatusCounts map[funnel.Status]int `json:"status_counts"`
	ActiveLeads  int                   `json:"active_leads"`
	TotalLeads   int                   `json:"total_leads"`
}

// CommandCenterCounts builds the dashboard for one center (empty = all).
func (s *AnalyticsService) CommandCenterCounts(centerID string) (*CommandCenter, error) {
	snapshots, err := s.leadRepo.Snapshots(centerID)
	if err != nil {
		return nil, err
	}
	statusCounts, err := s.leadRepo.CountByStatus(centerID)
	if err != nil {
		return nil, err
	}

	out := &CommandCenter{
		Buckets:      funnel.CountBuckets(snapshots, time.Now()),
		StatusCounts: statusCounts,
	}
	for status, n := range statusCounts {
		out.TotalLeads += n
		if funnel.IsActive(status) {
			out.ActiveLeads += n
		}
	}
	return out, nil
}

// StageRate is one edge of the funnel with its conversion percentage.
type StageRate struct {
	From    funnel.Status `json:"from"`
	To      funnel.Status `json:"to"`
	Reached int           `json:"reached"`
	Total   int           `json:"total"`
	Rate    float64       `json:"rate"` // 0-100
}

// ConversionRates computes stage-to-stage conversion down the main funnel.
// A lead at stage N counts as having reached every earlier stage.
func (s *AnalyticsService) ConversionRates(centerID string) ([]StageRate, error) {
	statusCounts, err := s.leadRepo.CountByStatus(centerID)
	if err != nil {
		return nil, err
	}

	order := funnel.FunnelOrder()

	// Cumulative reach per stage, walking the funnel backwards.
	reached := make([]int, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		reached[i] = statusCounts[order[i]]
		if i < len(order)-1 {
			reached[i] += reached[i+1]
		}
	}

	rates := make([]StageRate, 0, len(order)-1)
	for i := 0; i < len(order)-1; i++ {
		r := StageRate{
			From:    order[i],
			To:      order[i+1],
			Reached: reached[i+1],
			Total:   reached[i],
		}
		if r.Total > 0 {
			r.Rate = float64(r.Reached) / float64(r.Total) * 100
		}
		rates = append(rates, r)
	}
	return rates, nil
}

// TimeToContact is the average-lag metric for the dashboard.
type TimeToContact struct {
	AverageHours float64 `json:"average_hours"`
}

// AverageTimeToContact computes the mean lag between lead creation and first
// contact.
func (s *AnalyticsService) AverageTimeToContact(centerID string) (*TimeToContact, error) {
	hours, err := s.leadRepo.AverageTimeToContactHours(centerID)
	if err != nil {
		return nil, err
	}
	return &TimeToContact{AverageHours: hours}, nil
}
