package model

import "strings"

// SessionType classifies a timetabled session.
type SessionType string

const (
	SessionCourse  SessionType = "course"
	SessionSeminar SessionType = "seminar"
	SessionLab     SessionType = "lab"
)

// SessionStatus tracks whether a session runs as planned.
type SessionStatus string

const (
	StatusNormal   SessionStatus = "normal"
	StatusMoved    SessionStatus = "moved"
	StatusCanceled SessionStatus = "canceled"
)

// Cycle types: full-time and reduced-attendance enrollment tracks.
const (
	CycleFullTime = "F"
	CycleReduced  = "FR"
)

// Days holds the six teaching days in grid order.
var Days = []string{"Luni", "Marți", "Miercuri", "Joi", "Vineri", "Sâmbătă"}

// TimeSlots holds the seven fixed daily intervals in grid order.
var TimeSlots = []string{
	"8.00-9.30",
	"9.45-11.15",
	"11.30-13.00",
	"13.30-15.00",
	"15.15-16.45",
	"17.00-18.30",
	"18.45-20.15",
}

// Group is a student group reference entity.
type Group struct {
	ID             int    `json:"id"`
	Code           string `json:"code"`
	Year           *int   `json:"year,omitempty"`
	Faculty        string `json:"faculty,omitempty"`
	Specialization string `json:"specialization,omitempty"`
}

// Professor is a teaching staff reference entity.
type Professor struct {
	ID         int    `json:"id"`
	FullName   string `json:"full_name"`
	Department string `json:"department,omitempty"`
	Email      string `json:"email,omitempty"`
}

// Subject is a taught discipline reference entity.
type Subject struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Code     string `json:"code"`
	Semester string `json:"semester,omitempty"`
}

// Room is a teaching space reference entity.
type Room struct {
	ID       int    `json:"id"`
	Code     string `json:"code"`
	Building string `json:"building,omitempty"`
	Capacity *int   `json:"capacity,omitempty"`
}

// Schedule is one timetabled session. The odd-week fields carry the
// alternates substituted on biweekly-alternating sessions.
type Schedule struct {
	ID           int           `json:"id"`
	Day          string        `json:"day"`
	Hour         string        `json:"hour"`
	SessionType  SessionType   `json:"session_type"`
	Status       SessionStatus `json:"status"`
	Notes        string        `json:"notes,omitempty"`
	Version      int           `json:"version"`
	Group        Group         `json:"group"`
	Subject      Subject       `json:"subject"`
	Professor    Professor     `json:"professor"`
	Room         Room          `json:"room"`
	OddSubject   *Subject      `json:"odd_week_subject,omitempty"`
	OddProfessor *Professor    `json:"odd_week_professor,omitempty"`
	OddRoom      *Room         `json:"odd_week_room,omitempty"`
	AcademicYear int           `json:"academic_year,omitempty"`
	Semester     string        `json:"semester,omitempty"`
	CycleType    string        `json:"cycle_type,omitempty"`
}

// ScheduleInput is the payload for creating or updating a session.
type ScheduleInput struct {
	GroupID        int           `json:"group_id"`
	SubjectID      int           `json:"subject_id"`
	ProfessorID    int           `json:"professor_id"`
	RoomID         int           `json:"room_id"`
	Day            string        `json:"day"`
	Hour           string        `json:"hour"`
	SessionType    SessionType   `json:"session_type"`
	Status         SessionStatus `json:"status"`
	Notes          string        `json:"notes,omitempty"`
	OddSubjectID   *int          `json:"odd_week_subject_id,omitempty"`
	OddProfessorID *int          `json:"odd_week_professor_id,omitempty"`
	OddRoomID      *int          `json:"odd_week_room_id,omitempty"`
	AcademicYear   int           `json:"academic_year,omitempty"`
	Semester       string        `json:"semester,omitempty"`
	CycleType      string        `json:"cycle_type,omitempty"`
}

// AssessmentSchedule is a periodic-evaluation record. All descriptive
// fields are free text entered by the admin; groups sharing the slot are
// stored comma-joined in GroupsComposition.
type AssessmentSchedule struct {
	ID                int    `json:"id"`
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

// Groups splits the comma-joined composition into trimmed group codes.
func (a AssessmentSchedule) Groups() []string {
	parts := strings.Split(a.GroupsComposition, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if g := strings.TrimSpace(p); g != "" {
			out = append(out, g)
		}
	}
	return out
}

// HasGroup reports whether the composition includes the given group code.
func (a AssessmentSchedule) HasGroup(code string) bool {
	for _, g := range a.Groups() {
		if g == code {
			return true
		}
	}
	return false
}

// User is an authenticated portal account.
type User struct {
	ID        int    `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	GroupID   *int   `json:"group_id,omitempty"`
	GroupCode string `json:"group_code,omitempty"`
}

// UserInput is the payload for creating or updating an account.
type UserInput struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Role     string `json:"role,omitempty"`
	GroupID  *int   `json:"group_id,omitempty"`
}

// Scope identifies one scheduling context: the (academic year, semester,
// cycle type) triple every cache key and fetch is parameterized by.
type Scope struct {
	AcademicYear int
	Semester     string
	CycleType    string
}

// Complete reports whether all three scope parameters are set.
func (s Scope) Complete() bool {
	return s.AcademicYear != 0 && s.Semester != "" && s.CycleType != ""
}

// IsAssessmentPeriod reports whether the semester tag selects the
// periodic-assessment calendar rather than the weekly grid.
func (s Scope) IsAssessmentPeriod() bool {
	switch s.Semester {
	case "assessments1", "assessments2", "exams":
		return true
	}
	return false
}

// Matches reports whether a schedule entry belongs to this scope.
func (s Scope) Matches(e Schedule) bool {
	return e.AcademicYear == s.AcademicYear &&
		e.Semester == s.Semester &&
		e.CycleType == s.CycleType
}
