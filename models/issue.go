package models

import (
	"strings"
	"time"
)

// IssueStatus enum
type IssueStatus string

const (
	StatusSubmitted  IssueStatus = "submitted"
	StatusVerified   IssueStatus = "verified"
	StatusInProgress IssueStatus = "in_progress"
	StatusResolved   IssueStatus = "resolved"
	StatusClosed     IssueStatus = "closed"
)

// Statuses lists the lifecycle states in display order.
var Statuses = []IssueStatus{StatusSubmitted, StatusVerified, StatusInProgress, StatusResolved, StatusClosed}

// IssuePriority enum
type IssuePriority string

const (
	PriorityLow    IssuePriority = "low"
	PriorityMedium IssuePriority = "medium"
	PriorityHigh   IssuePriority = "high"
	PriorityUrgent IssuePriority = "urgent"
)

var Priorities = []IssuePriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// IssueTypes is the catalog offered to clients. The stored type is an open set.
var IssueTypes = []string{
	"pothole",
	"streetlight",
	"garbage",
	"traffic_signal",
	"sidewalk",
	"drainage",
	"tree_maintenance",
	"street_sign",
	"graffiti",
	"noise_complaint",
	"other",
}

func ValidStatus(s string) bool {
	for _, st := range Statuses {
		if string(st) == s {
			return true
		}
	}
	return false
}

func ValidPriority(p string) bool {
	for _, pr := range Priorities {
		if string(pr) == p {
			return true
		}
	}
	return false
}

// Issue represents a civic issue reported by a resident
type Issue struct {
	ID                      int64      `bson:"_id" json:"id"`
	Title                   string     `bson:"title" json:"title"`
	Description             string     `bson:"description" json:"description"`
	IssueType               string     `bson:"issue_type" json:"issue_type"`
	Status                  string     `bson:"status" json:"status"`
	Priority                string     `bson:"priority" json:"priority"`
	Latitude                float64    `bson:"latitude" json:"latitude"`
	Longitude               float64    `bson:"longitude" json:"longitude"`
	Address                 *string    `bson:"address,omitempty" json:"address"`
	ImageURL                *string    `bson:"image_url,omitempty" json:"image_url"`
	ReporterID              int64      `bson:"reporter_id" json:"reporter_id"`
	AssignedTo              *string    `bson:"assigned_to" json:"assigned_to"`
	EstimatedResolutionDate *time.Time `bson:"estimated_resolution_date" json:"-"`
	ActualResolutionDate    *time.Time `bson:"actual_resolution_date" json:"-"`
	CreatedAt               time.Time  `bson:"created_at" json:"created_at"`
	UpdatedAt               time.Time  `bson:"updated_at" json:"updated_at"`
}

// Today truncates t to its UTC calendar date.
func Today(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD date into UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.UTC)
}

// FormatDate renders a date field, nil when unset.
func FormatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format("2006-01-02")
	return &s
}

// ApplyStatus sets the status and, when given, the assignee. The resolution
// date is stamped only the first time the issue becomes resolved.
func (i *Issue) ApplyStatus(status string, assignedTo *string, now time.Time) {
	i.Status = status
	if assignedTo != nil {
		i.AssignedTo = assignedTo
	}
	if status == string(StatusResolved) && i.ActualResolutionDate == nil {
		d := Today(now)
		i.ActualResolutionDate = &d
	}
	i.UpdatedAt = now.UTC()
}

// StatusColor returns the display color of a status.
func StatusColor(status string) string {
	switch IssueStatus(status) {
	case StatusSubmitted:
		return "#FFA500"
	case StatusVerified:
		return "#0000FF"
	case StatusInProgress:
		return "#FFFF00"
	case StatusResolved:
		return "#00FF00"
	case StatusClosed:
		return "#808080"
	}
	return "#C9CBCF"
}

// HumanizeStatus turns "in_progress" into "In Progress".
func HumanizeStatus(status string) string {
	words := strings.Split(strings.ReplaceAll(status, "_", " "), " ")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, " ")
}
