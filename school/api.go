package school

import (
	"context"
	"strings"
)

// Me returns the profile of the signed-in user.
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.api.Get(ctx, "/me", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) Student(ctx context.Context, studentID string) (*Student, error) {
	var s Student
	if err := c.get(ctx, &s, "students", studentID); err != nil {
		return nil, err
	}
	return &s, nil
}

// Children lists the students linked to a parent account.
func (c *Client) Children(ctx context.Context, parentID string) ([]Student, error) {
	var out []Student
	if err := c.get(ctx, &out, "parents", parentID, "students"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Attendance(ctx context.Context, studentID string) (*Attendance, error) {
	var a Attendance
	if err := c.get(ctx, &a, "students", studentID, "attendance"); err != nil {
		return nil, err
	}
	if a.StudentID == "" {
		a.StudentID = studentID
	}
	return &a, nil
}

func (c *Client) MarkAttendance(ctx context.Context, classID string, sheet AttendanceSheet) error {
	path, err := resourcePath("classes", classID, "attendance")
	if err != nil {
		return err
	}
	return c.api.Post(ctx, path, sheet, nil)
}

func (c *Client) Timetable(ctx context.Context, studentID string) (*Timetable, error) {
	var t Timetable
	if err := c.get(ctx, &t, "students", studentID, "timetable"); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) FacultySchedule(ctx context.Context, facultyID string) (*Timetable, error) {
	var t Timetable
	if err := c.get(ctx, &t, "faculty", facultyID, "schedule"); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) Assessments(ctx context.Context, studentID string) ([]Assessment, error) {
	var out []Assessment
	if err := c.get(ctx, &out, "students", studentID, "assessments"); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SubmitMarks(ctx context.Context, assessmentID string, marks []Mark) error {
	path, err := resourcePath("assessments", assessmentID, "marks")
	if err != nil {
		return err
	}
	return c.api.Put(ctx, path, marks, nil)
}

func (c *Client) Fees(ctx context.Context, studentID string) (*Fees, error) {
	var f Fees
	if err := c.get(ctx, &f, "students", studentID, "fees"); err != nil {
		return nil, err
	}
	return &f, nil
}

func (c *Client) Announcements(ctx context.Context) ([]Announcement, error) {
	var out []Announcement
	if err := c.api.Get(ctx, "/announcements", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PostAnnouncement publishes a and returns the stored copy.
func (c *Client) PostAnnouncement(ctx context.Context, a Announcement) (*Announcement, error) {
	if strings.TrimSpace(a.Title) == "" {
		return nil, ErrEmptyTitle
	}
	var out Announcement
	if err := c.api.Post(ctx, "/announcements", a, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Recordings(ctx context.Context, courseID string) ([]Recording, error) {
	var out []Recording
	if err := c.get(ctx, &out, "courses", courseID, "recordings"); err != nil {
		return nil, err
	}
	return out, nil
}
