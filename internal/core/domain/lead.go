package domain

import (
	"errors"
	"time"
)

// LeadStatus represents the pipeline state of a lead.
type LeadStatus string

const (
	StatusNew            LeadStatus = "New"
	StatusContacted      LeadStatus = "Contacted"
	StatusFollowUp       LeadStatus = "Follow Up"
	StatusCallBack       LeadStatus = "Call Back"
	StatusNotReachable   LeadStatus = "Not Reachable"
	StatusNotConnected   LeadStatus = "Not Connected"
	StatusSwitchedOff    LeadStatus = "Switched Off"
	StatusWrongNumber    LeadStatus = "Wrong Number"
	StatusSiteVisit      LeadStatus = "Site Visit Scheduled"
	StatusSiteVisited    LeadStatus = "Site Visited"
	StatusRevisit        LeadStatus = "Revisit Scheduled"
	StatusNegotiation    LeadStatus = "Negotiation"
	StatusTokenReceived  LeadStatus = "Token Received"
	StatusBooked         LeadStatus = "Booked"
	StatusRegistered     LeadStatus = "Registered"
	StatusDropped        LeadStatus = "Dropped"
	StatusDuplicate      LeadStatus = "Duplicate"
	StatusBudgetMismatch LeadStatus = "Budget Mismatch"
	StatusLocationIssue  LeadStatus = "Location Mismatch"
	StatusNotInterested  LeadStatus = "Not Interested"
)

// LeadStatuses is the full enumerated set, in pipeline order. Handlers use it
// to validate incoming status strings; exports use it for the summary sheet.
var LeadStatuses = []LeadStatus{
	StatusNew, StatusContacted, StatusFollowUp, StatusCallBack,
	StatusNotReachable, StatusNotConnected, StatusSwitchedOff, StatusWrongNumber,
	StatusSiteVisit, StatusSiteVisited, StatusRevisit, StatusNegotiation,
	StatusTokenReceived, StatusBooked, StatusRegistered, StatusDropped,
	StatusDuplicate, StatusBudgetMismatch, StatusLocationIssue, StatusNotInterested,
}

var ErrLeadNotFound = errors.New("lead not found")
var ErrInvalidStatus = errors.New("invalid lead status")
var ErrForbidden = errors.New("access forbidden")

// ValidLeadStatus reports whether s is a member of the enumerated status set.
func ValidLeadStatus(s LeadStatus) bool {
	for _, v := range LeadStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Interaction is one dated remark in a lead's append-only history.
type Interaction struct {
	Remark string    `json:"remark" bson:"remark"`
	Date   time.Time `json:"date" bson:"date"`
}

// Lead is the core aggregate of the sales pipeline.
//
// Invariants:
//   - AssignedTo empty ⇔ the lead is unassigned; only the assign and unassign
//     operations mutate it.
//   - Every follow-up appends exactly one Interaction and rewrites LastRemark
//     and NextTaskDate to the submitted values (denormalised latest state).
type Lead struct {
	ID           string        `json:"id" bson:"_id,omitempty"`
	Name         string        `json:"name" bson:"name"`
	Phone        string        `json:"phone" bson:"phone"`
	Email        string        `json:"email" bson:"email"`
	Source       string        `json:"source" bson:"source"`
	LeadDated    time.Time     `json:"lead_dated" bson:"lead_dated"`
	Status       LeadStatus    `json:"status" bson:"status"`
	HotLead      bool          `json:"hot_lead" bson:"hot_lead"`
	Budget       string        `json:"budget,omitempty" bson:"budget,omitempty"`
	Location     string        `json:"location,omitempty" bson:"location,omitempty"`
	LastRemark   string        `json:"last_remark,omitempty" bson:"last_remark,omitempty"`
	NextTaskDate time.Time     `json:"next_task_date,omitempty" bson:"next_task_date,omitempty"`
	AssignedTo   string        `json:"assigned_to,omitempty" bson:"assigned_to,omitempty"`
	Interactions []Interaction `json:"interactions" bson:"interactions"`
	CreatedAt    time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" bson:"updated_at"`
}

// Assigned reports whether the lead currently has an owner.
func (l *Lead) Assigned() bool {
	return l.AssignedTo != ""
}
