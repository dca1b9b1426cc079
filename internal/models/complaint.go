package models

import "time"

const (
	StatusRegistered  = "Registered"
	StatusInProgress  = "In Progress"
	StatusUnderReview = "Under Review"
	StatusResolved    = "Resolved"
	StatusClosed      = "Closed"
	StatusRejected    = "Rejected"
)

const (
	CategoryHardware = "Hardware"
	CategorySoftware = "Software"
	CategoryNetwork  = "Network"
	CategoryAccount  = "Account"
	CategoryBilling  = "Billing"
	CategoryService  = "Service"
	CategoryOther    = "Other"
)

var Statuses = []string{
	StatusRegistered,
	StatusInProgress,
	StatusUnderReview,
	StatusResolved,
	StatusClosed,
	StatusRejected,
}

var Categories = []string{
	CategoryHardware,
	CategorySoftware,
	CategoryNetwork,
	CategoryAccount,
	CategoryBilling,
	CategoryService,
	CategoryOther,
}

func ValidStatus(s string) bool {
	for _, status := range Statuses {
		if s == status {
			return true
		}
	}
	return false
}

func ValidCategory(c string) bool {
	for _, category := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

type Complaint struct {
	ID          int       `json:"id"`
	ComplaintID string    `json:"complaint_id"`
	Name        string    `json:"name"`
	Mobile      string    `json:"mobile"`
	Details     string    `json:"complaint_details"`
	Category    string    `json:"category"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type StatusChange struct {
	ID          int       `json:"id"`
	ComplaintID string    `json:"complaint_id"`
	OldStatus   string    `json:"old_status,omitempty"`
	NewStatus   string    `json:"new_status"`
	Notes       string    `json:"notes,omitempty"`
	ChangedAt   time.Time `json:"changed_at"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type ComplaintStats struct {
	TotalComplaints      int             `json:"total_complaints"`
	RecentComplaints     int             `json:"recent_complaints"`
	StatusDistribution   []StatusCount   `json:"status_distribution"`
	CategoryDistribution []CategoryCount `json:"category_distribution"`
}
