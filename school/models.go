package school

import "time"

type Student struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Class     string `json:"class"`
	Section   string `json:"section,omitempty"`
	RollNo    string `json:"rollNo,omitempty"`
	Email     string `json:"email,omitempty"`
}

func (s Student) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}

// Profile is the signed-in user as the backend sees them.
type Profile struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Email string   `json:"email,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

type AttendanceStatus string

const (
	Present AttendanceStatus = "present"
	Absent  AttendanceStatus = "absent"
	Late    AttendanceStatus = "late"
	Excused AttendanceStatus = "excused"
)

type AttendanceRecord struct {
	Date    string           `json:"date"`
	Subject string           `json:"subject,omitempty"`
	Status  AttendanceStatus `json:"status"`
}

type Attendance struct {
	StudentID string             `json:"studentId"`
	Records   []AttendanceRecord `json:"records"`
}

// Summary counts records by status. Late counts as attended; excused
// absences are left out of the percentage.
func (a Attendance) Summary() AttendanceSummary {
	var s AttendanceSummary
	for _, r := range a.Records {
		switch r.Status {
		case Present:
			s.Present++
		case Late:
			s.Late++
		case Absent:
			s.Absent++
		case Excused:
			s.Excused++
		}
	}
	if counted := s.Present + s.Late + s.Absent; counted > 0 {
		s.Percentage = float64(s.Present+s.Late) * 100 / float64(counted)
	}
	return s
}

type AttendanceSummary struct {
	Present    int
	Late       int
	Absent     int
	Excused    int
	Percentage float64
}

// AttendanceMark is one student's status in a class register.
type AttendanceMark struct {
	StudentID string           `json:"studentId"`
	Status    AttendanceStatus `json:"status"`
}

type AttendanceSheet struct {
	Date  string           `json:"date"`
	Marks []AttendanceMark `json:"marks"`
}

type Period struct {
	Day     string `json:"day"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Subject string `json:"subject"`
	Room    string `json:"room,omitempty"`
	Teacher string `json:"teacher,omitempty"`
	Class   string `json:"class,omitempty"`
}

type Timetable struct {
	Periods []Period `json:"periods"`
}

type Assessment struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Subject  string   `json:"subject"`
	Date     string   `json:"date,omitempty"`
	MaxMarks float64  `json:"maxMarks"`
	Obtained *float64 `json:"obtained,omitempty"`
	Grade    string   `json:"grade,omitempty"`
}

// Graded reports whether marks have been published.
func (a Assessment) Graded() bool {
	return a.Obtained != nil
}

type Mark struct {
	StudentID string  `json:"studentId"`
	Obtained  float64 `json:"obtained"`
	Remarks   string  `json:"remarks,omitempty"`
}

type FeeItem struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Amount  float64 `json:"amount"`
	Paid    float64 `json:"paid"`
	DueDate string  `json:"dueDate,omitempty"`
}

type Fees struct {
	StudentID string    `json:"studentId"`
	Currency  string    `json:"currency,omitempty"`
	Items     []FeeItem `json:"items"`
}

// Balance is the total still owed.
func (f Fees) Balance() float64 {
	var owed float64
	for _, item := range f.Items {
		if rest := item.Amount - item.Paid; rest > 0 {
			owed += rest
		}
	}
	return owed
}

type Announcement struct {
	ID        string    `json:"id,omitempty"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Audience  string    `json:"audience,omitempty"`
	Author    string    `json:"author,omitempty"`
	CreatedAt time.Time `json:"createdAt,omitempty"`
}

type Recording struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	Duration int    `json:"durationSeconds,omitempty"`
	Recorded string `json:"recordedAt,omitempty"`
}
