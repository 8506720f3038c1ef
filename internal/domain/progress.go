package domain

import "time"

// ProgressRecord tracks one user's progress through one course
type ProgressRecord struct {
	ID        string
	UserID    string
	CourseID  string
	Minutes   int
	Completed bool
	UpdatedAt time.Time
}

// CreditEntry is one row in a user's credit ledger
type CreditEntry struct {
	ID        string
	UserID    string
	Amount    float64
	Reason    string
	CreatedAt time.Time
}

// MemberStats is the derived per-member aggregate used by team reports.
// Computed per request, never persisted.
type MemberStats struct {
	UserID           string
	FullName         string
	TotalMinutes     int
	CompletedCourses int
	Conversations    int
	CreditsEarned    float64
	LastActivity     time.Time
}

// PerformanceScore ranks members for top-performer selection
func (m *MemberStats) PerformanceScore() float64 {
	return float64(m.CompletedCourses)*10 + float64(m.TotalMinutes)/60
}
