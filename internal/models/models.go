package models

import (
	"time"
)

// DateLayout is the calendar-day format used for TimeEntry.Date.
const DateLayout = "2006-01-02"

type Status string

const (
	StatusDraft     Status = "draft"
	StatusSubmitted Status = "submitted"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
)

// Statuses lists every entry status in workflow order.
var Statuses = []Status{StatusDraft, StatusSubmitted, StatusApproved, StatusRejected}

func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Pending reports whether the entry is still awaiting a client decision.
func (s Status) Pending() bool {
	return s == StatusDraft || s == StatusSubmitted
}

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

type TrackingMode string

const (
	TrackingClock     TrackingMode = "clock"
	TrackingTimesheet TrackingMode = "timesheet"
)

type ProofType string

const (
	ProofScreenshot ProofType = "screenshot"
	ProofFile       ProofType = "file"
	ProofNote       ProofType = "note"
)

// TimeEntry represents a single unit of logged work.
type TimeEntry struct {
	ID           string        `json:"id"`
	WorkerID     string        `json:"workerId"`
	Date         string        `json:"date"`
	StartTime    string        `json:"startTime,omitempty"` // HH:MM[:SS], clock entries
	EndTime      string        `json:"endTime,omitempty"`   // empty while the session is open
	ManualHours  *float64      `json:"manualHours,omitempty"`
	Description  string        `json:"description"`
	ProofOfWork  []ProofOfWork `json:"proofOfWork"`
	Status       Status        `json:"status"`
	ClientNotes  string        `json:"clientNotes,omitempty"`
	EditHistory  []EditRecord  `json:"editHistory,omitempty"`
	LastModified *time.Time    `json:"lastModified,omitempty"`
}

// Open reports whether the entry is a clock session that has not been closed.
func (e TimeEntry) Open() bool {
	return e.ManualHours == nil && e.StartTime != "" && e.EndTime == ""
}

// Day parses Date. ok is false when the date is missing or malformed.
func (e TimeEntry) Day() (day time.Time, ok bool) {
	if e.Date == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(DateLayout, e.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Clone returns a copy that shares no slices with e.
func (e TimeEntry) Clone() TimeEntry {
	c := e
	if e.ManualHours != nil {
		h := *e.ManualHours
		c.ManualHours = &h
	}
	if e.ProofOfWork != nil {
		c.ProofOfWork = append([]ProofOfWork(nil), e.ProofOfWork...)
	}
	if e.EditHistory != nil {
		c.EditHistory = append([]EditRecord(nil), e.EditHistory...)
	}
	if e.LastModified != nil {
		t := *e.LastModified
		c.LastModified = &t
	}
	return c
}

// ProofOfWork is an attachment evidencing an entry.
type ProofOfWork struct {
	ID          string    `json:"id"`
	Type        ProofType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	Content     string    `json:"content"` // data URL or note text
	Description string    `json:"description,omitempty"`
	FileName    string    `json:"fileName,omitempty"`
	FileSize    int64     `json:"fileSize,omitempty"`
}

// EditRecord is one field change made by a worker.
type EditRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Field     string    `json:"field"`
	OldValue  string    `json:"oldValue"`
	NewValue  string    `json:"newValue"`
	Reason    string    `json:"reason,omitempty"`
}

// Worker is a tracked contractor.
type Worker struct {
	ContractorID string       `json:"contractorId"`
	Name         string       `json:"name"`
	Email        string       `json:"email"`
	InviteToken  string       `json:"inviteToken"`
	IsActive     bool         `json:"isActive"`
	TrackingMode TrackingMode `json:"trackingMode"`
	JoinedAt     *time.Time   `json:"joinedAt,omitempty"`
}

// Client is the account reviewing the workers' time.
type Client struct {
	ID                  string              `json:"id"`
	Name                string              `json:"name"`
	Email               string              `json:"email"`
	TrackingPreferences TrackingPreferences `json:"trackingPreferences"`
}

type TrackingPreferences struct {
	AllowClockInOut     bool   `json:"allowClockInOut"`
	AllowManualEntry    bool   `json:"allowManualEntry"`
	RequireProofOfWork  bool   `json:"requireProofOfWork"`
	ScreenshotFrequency string `json:"screenshotFrequency"` // manual, random, disabled
}

// DefaultTrackingPreferences mirrors a freshly set-up client.
func DefaultTrackingPreferences() TrackingPreferences {
	return TrackingPreferences{
		AllowClockInOut:     true,
		AllowManualEntry:    true,
		RequireProofOfWork:  false,
		ScreenshotFrequency: "manual",
	}
}
