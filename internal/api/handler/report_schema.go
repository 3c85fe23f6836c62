package handler

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/estateline/crm-api/internal/core/domain"
	"github.com/estateline/crm-api/internal/core/ports"
)

// meetingRequest is one entry of the "meetings" JSON form field. On edit, a
// meeting keeping its stored card sends visiting_card and no file part; the
// file part visiting_card_<index> otherwise supplies the upload. An id ties
// the entry to an existing meeting so its follow-ups are kept.
type meetingRequest struct {
	ID           string                `json:"id,omitempty"`
	Type         string                `json:"meeting_type"`
	Broker       *domain.BrokerDetails `json:"broker,omitempty"`
	Client       *domain.ClientDetails `json:"client,omitempty"`
	Remark       string                `json:"remark"`
	VisitingCard string                `json:"visiting_card,omitempty"`
	FollowUps    []followUpStubRequest `json:"follow_ups,omitempty"`
}

type followUpStubRequest struct {
	Date   string `json:"date"`
	Remark string `json:"remark"`
}

type reportFollowUpRequest struct {
	Date   string `json:"date"   validate:"required"`
	Remark string `json:"remark" validate:"required"`
}

// parseReportForm decodes the multipart report submission shared by create
// and edit: the meetings JSON field plus one uploaded card per new meeting.
func parseReportForm(c echo.Context, store ports.FileStore) ([]ports.MeetingInput, error) {
	raw := c.FormValue("meetings")
	if raw == "" {
		return nil, fmt.Errorf("meetings field is required")
	}

	var reqs []meetingRequest
	if err := json.Unmarshal([]byte(raw), &reqs); err != nil {
		return nil, fmt.Errorf("meetings is not a valid JSON array")
	}

	meetings := make([]ports.MeetingInput, 0, len(reqs))
	for i, req := range reqs {
		input := ports.MeetingInput{
			ID:           req.ID,
			Type:         req.Type,
			Broker:       req.Broker,
			Client:       req.Client,
			Remark:       req.Remark,
			VisitingCard: req.VisitingCard,
		}

		for _, stub := range req.FollowUps {
			date, err := parseDate(stub.Date)
			if err != nil {
				return nil, fmt.Errorf("meetings[%d]: %s", i, err.Error())
			}
			input.FollowUps = append(input.FollowUps, ports.FollowUpStub{Date: date, Remark: stub.Remark})
		}

		if fh, err := c.FormFile(fmt.Sprintf("visiting_card_%d", i)); err == nil {
			src, err := fh.Open()
			if err != nil {
				return nil, fmt.Errorf("meetings[%d]: cannot read visiting card", i)
			}
			path, err := store.Save(fh.Filename, fh.Header.Get("Content-Type"), src)
			src.Close()
			if err != nil {
				return nil, fmt.Errorf("meetings[%d]: %s", i, err.Error())
			}
			input.VisitingCard = path
		}

		meetings = append(meetings, input)
	}
	return meetings, nil
}

// exportFilename builds the Content-Disposition attachment name.
func exportFilename(prefix, date string) string {
	return fmt.Sprintf("attachment; filename=%s-%s.xlsx", prefix, strings.ReplaceAll(date, " ", "-"))
}
