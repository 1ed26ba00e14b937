package model

import (
	"time"

	"github.com/md-rashed-zaman/bizsites/services/site-service/internal/schedule"
)

// ApprovalStatus gates public visibility of a microsite.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

func (s ApprovalStatus) Valid() bool {
	switch s {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

type Business struct {
	ID              int64
	OwnerID         int64
	Name            string
	Slug            string
	SubdomainURL    string
	SubdirectoryURL string
	Description     string
	Phone           string
	Email           string
	Address         string
	BusinessHours   schedule.WeeklyHours
	Status          ApprovalStatus
	ViewCount       int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// BusinessProfile holds the owner-editable fields.
type BusinessProfile struct {
	Name          string
	Description   string
	Phone         string
	Email         string
	Address       string
	BusinessHours schedule.WeeklyHours
}

// Actor is the authenticated caller acting on owner-scoped resources.
type Actor struct {
	UserID int64
	Admin  bool
}

// CanManage reports whether a may edit b and its appointments.
func (a Actor) CanManage(b Business) bool {
	return a.Admin || (a.UserID != 0 && a.UserID == b.OwnerID)
}
