package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"orarsync/internal/model"
)

// mutationEnvelope wraps create/update responses from the schedule router.
type mutationEnvelope struct {
	Message string         `json:"message"`
	Data    model.Schedule `json:"data"`
}

// ListSchedules fetches sessions filtered by whichever scope parameters
// are set. An empty scope returns everything.
func (c *Client) ListSchedules(ctx context.Context, sc model.Scope) ([]model.Schedule, error) {
	var out []model.Schedule
	if err := c.do(ctx, http.MethodGet, "/schedule/", scopeQuery(sc), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SchedulesByGroup fetches every session for one group code.
func (c *Client) SchedulesByGroup(ctx context.Context, group string) ([]model.Schedule, error) {
	var out []model.Schedule
	if err := c.do(ctx, http.MethodGet, "/schedule/"+url.PathEscape(group), nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ScheduleByID fetches a single session.
func (c *Client) ScheduleByID(ctx context.Context, id int) (model.Schedule, error) {
	var out model.Schedule
	if err := c.do(ctx, http.MethodGet, "/schedule/id/"+strconv.Itoa(id), nil, nil, &out); err != nil {
		return model.Schedule{}, err
	}
	return out, nil
}

// CreateSchedule adds a new session.
func (c *Client) CreateSchedule(ctx context.Context, in model.ScheduleInput) (model.Schedule, error) {
	var env mutationEnvelope
	if err := c.do(ctx, http.MethodPost, "/schedule/", nil, in, &env); err != nil {
		return model.Schedule{}, err
	}
	return env.Data, nil
}

// UpdateSchedule modifies an existing session.
func (c *Client) UpdateSchedule(ctx context.Context, id int, in model.ScheduleInput) (model.Schedule, error) {
	var env mutationEnvelope
	if err := c.do(ctx, http.MethodPut, "/schedule/"+strconv.Itoa(id), nil, in, &env); err != nil {
		return model.Schedule{}, err
	}
	return env.Data, nil
}

// DeleteSchedule removes a session.
func (c *Client) DeleteSchedule(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/schedule/"+strconv.Itoa(id), nil, nil, nil)
}

// NotifyResult summarizes a change-notification batch.
type NotifyResult struct {
	Message        string `json:"message"`
	GroupsNotified int    `json:"groups_notified"`
	TotalStudents  int    `json:"total_students"`
	EmailsSent     int    `json:"emails_sent"`
	EmailsFailed   int    `json:"emails_failed"`
}

// NotifyScheduleChanges asks the backend to email the students of the
// modified groups.
func (c *Client) NotifyScheduleChanges(ctx context.Context, modifiedGroupIDs []int) (NotifyResult, error) {
	body := map[string][]int{"modified_group_ids": modifiedGroupIDs}
	var out NotifyResult
	if err := c.do(ctx, http.MethodPost, "/schedule/notifications/batch", nil, body, &out); err != nil {
		return NotifyResult{}, err
	}
	return out, nil
}

// RefreshResult summarizes a broadcast request.
type RefreshResult struct {
	Message        string `json:"message"`
	SchedulesCount int    `json:"schedules_count"`
}

// RefreshAll asks the backend to push a refresh-all message to every
// connected live-update client.
func (c *Client) RefreshAll(ctx context.Context) (RefreshResult, error) {
	var out RefreshResult
	if err := c.do(ctx, http.MethodPost, "/schedule/refresh-all", nil, nil, &out); err != nil {
		return RefreshResult{}, err
	}
	return out, nil
}

// ListAssessments fetches periodic-evaluation records filtered by scope.
func (c *Client) ListAssessments(ctx context.Context, sc model.Scope) ([]model.AssessmentSchedule, error) {
	var out []model.AssessmentSchedule
	if err := c.do(ctx, http.MethodGet, "/assessment-schedules/", scopeQuery(sc), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AssessmentInput is the payload for creating or updating an assessment.
type AssessmentInput struct {
	Subject           string `json:"subject"`
	GroupsComposition string `json:"groups_composition"`
	ProfessorName     string `json:"professor_name"`
	AssessmentDate    string `json:"assessment_date"`
	AssessmentTime    string `json:"assessment_time"`
	RoomCode          string `json:"room_code"`
	AcademicYear      int    `json:"academic_year"`
	Semester          string `json:"semester"`
	CycleType         string `json:"cycle_type,omitempty"`
}

// CreateAssessment adds a periodic-evaluation record.
func (c *Client) CreateAssessment(ctx context.Context, in AssessmentInput) (model.AssessmentSchedule, error) {
	var out model.AssessmentSchedule
	if err := c.do(ctx, http.MethodPost, "/assessment-schedules/", nil, in, &out); err != nil {
		return model.AssessmentSchedule{}, err
	}
	return out, nil
}

// UpdateAssessment modifies a periodic-evaluation record.
func (c *Client) UpdateAssessment(ctx context.Context, id int, in AssessmentInput) (model.AssessmentSchedule, error) {
	var out model.AssessmentSchedule
	if err := c.do(ctx, http.MethodPut, "/assessment-schedules/"+strconv.Itoa(id), nil, in, &out); err != nil {
		return model.AssessmentSchedule{}, err
	}
	return out, nil
}

// DeleteAssessment removes a periodic-evaluation record.
func (c *Client) DeleteAssessment(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, "/assessment-schedules/"+strconv.Itoa(id), nil, nil, nil)
}
