package domain

import (
	"errors"
	"time"
)

// MeetingType discriminates the two meeting payload shapes.
type MeetingType string

const (
	MeetingBroker MeetingType = "Broker"
	MeetingClient MeetingType = "Client"
)

var ErrReportNotFound = errors.New("report not found")
var ErrFollowUpNotFound = errors.New("follow-up not found")
var ErrInvalidMeetingType = errors.New("invalid meeting type")
var ErrVisitingCardRequired = errors.New("visiting card is required")
var ErrLocationRequired = errors.New("location is required")

// Coordinates is a geographic point captured at submission time.
type Coordinates struct {
	Latitude  float64 `json:"latitude" bson:"latitude"`
	Longitude float64 `json:"longitude" bson:"longitude"`
}

// BrokerDetails is the payload when MeetingType is Broker.
type BrokerDetails struct {
	FirmName    string `json:"firm_name" bson:"firm_name"`
	OwnerName   string `json:"owner_name" bson:"owner_name"`
	PhoneNumber string `json:"phone_number" bson:"phone_number"`
	Email       string `json:"email,omitempty" bson:"email,omitempty"`
	TeamSize    int    `json:"team_size,omitempty" bson:"team_size,omitempty"`
	RERA        string `json:"rera,omitempty" bson:"rera,omitempty"`
	Status      string `json:"status" bson:"status"`
}

// ClientDetails is the payload when MeetingType is Client.
type ClientDetails struct {
	ClientName string `json:"client_name" bson:"client_name"`
	BrokerName string `json:"broker_name,omitempty" bson:"broker_name,omitempty"`
	BrokerType string `json:"broker_type,omitempty" bson:"broker_type,omitempty"`
	PhoneLast5 string `json:"phone_last5" bson:"phone_last5"`
	Status     string `json:"status" bson:"status"`
}

// FollowUp is a dated remark attached to a meeting.
type FollowUp struct {
	ID     string    `json:"id" bson:"id"`
	Date   time.Time `json:"date" bson:"date"`
	Remark string    `json:"remark" bson:"remark"`
}

// Meeting is one broker or client interaction inside a sales report. Exactly
// one of Broker and Client is non-nil, selected by Type.
type Meeting struct {
	ID           string         `json:"id" bson:"id"`
	Type         MeetingType    `json:"meeting_type" bson:"meeting_type"`
	Broker       *BrokerDetails `json:"broker,omitempty" bson:"broker,omitempty"`
	Client       *ClientDetails `json:"client,omitempty" bson:"client,omitempty"`
	Remark       string         `json:"remark,omitempty" bson:"remark,omitempty"`
	VisitingCard string         `json:"visiting_card" bson:"visiting_card"`
	FollowUps    []FollowUp     `json:"follow_ups" bson:"follow_ups"`
}

// Validate checks the tagged-union shape: the payload matching Type must be
// present and the other absent.
func (m *Meeting) Validate() error {
	switch m.Type {
	case MeetingBroker:
		if m.Broker == nil || m.Client != nil {
			return ErrInvalidMeetingType
		}
	case MeetingClient:
		if m.Client == nil || m.Broker != nil {
			return ErrInvalidMeetingType
		}
	default:
		return ErrInvalidMeetingType
	}
	if m.VisitingCard == "" {
		return ErrVisitingCardRequired
	}
	return nil
}

// SalesReport is one field visit submission: a geolocated set of meetings.
// Address is filled asynchronously by the geocoding workers after creation.
type SalesReport struct {
	ID        string      `json:"id" bson:"_id,omitempty"`
	Date      time.Time   `json:"date" bson:"date"`
	UserID    string      `json:"user_id" bson:"user_id"`
	Location  Coordinates `json:"location" bson:"location"`
	Address   string      `json:"address,omitempty" bson:"address,omitempty"`
	Meetings  []Meeting   `json:"meetings" bson:"meetings"`
	CreatedAt time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" bson:"updated_at"`
}
