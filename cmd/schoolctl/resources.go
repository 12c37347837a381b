package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/jrsteele09/go-school-client/school"
)

var errForbidden = errors.New("your role is not allowed to do this")

// studentID resolves the student a read command is about. Parents have no
// records of their own and must name one of their children.
func studentID(a *app, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}
	if currentRole(a) == school.RoleParent {
		return "", errors.New("specify a student id (see 'schoolctl children')")
	}
	return defaultID(a, args), nil
}

// parsePairs splits "key=value" arguments.
func parsePairs(args []string) ([][2]string, error) {
	pairs := make([][2]string, 0, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("expected id=value, got %q", arg)
		}
		pairs = append(pairs, [2]string{strings.TrimSpace(k), strings.TrimSpace(v)})
	}
	return pairs, nil
}

func newChildrenCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "children [parent-id]",
		Short: "List the students linked to a parent account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			children, err := a.school.Children(cmd.Context(), defaultID(a, args))
			if err != nil {
				return err
			}
			if len(children) == 0 {
				printEmpty(cmd.OutOrStdout(), "students")
				return nil
			}
			t := newTable(cmd.OutOrStdout(), "ID", "Name", "Class", "Roll No")
			for _, s := range children {
				class := s.Class
				if s.Section != "" {
					class += " " + s.Section
				}
				t.AppendRow(table.Row{s.ID, s.FullName(), class, s.RollNo})
			}
			t.Render()
			return nil
		},
	}
}

func newAttendanceCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attendance [student-id]",
		Short: "Show a student's attendance",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			id, err := studentID(a, args)
			if err != nil {
				return err
			}
			att, err := a.school.Attendance(cmd.Context(), id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(att.Records) == 0 {
				printEmpty(out, "attendance records")
				return nil
			}
			t := newTable(out, "Date", "Subject", "Status")
			for _, r := range att.Records {
				t.AppendRow(table.Row{r.Date, r.Subject, colourAttendance(r.Status)})
			}
			sum := att.Summary()
			t.AppendFooter(table.Row{"", "Attendance", fmt.Sprintf("%.1f%%", sum.Percentage)})
			t.Render()
			return nil
		},
	}
	cmd.AddCommand(newMarkAttendanceCmd(c))
	return cmd
}

func newMarkAttendanceCmd(c *cli) *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "mark <class-id> <student-id>=<status>...",
		Short: "Record attendance for a class (faculty and admin)",
		Example: `  schoolctl attendance mark 7B T001=present T002=late T003=absent
  schoolctl attendance mark 7B --date 2026-03-02 T001=excused`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			if !currentRole(a).CanManageAttendance() {
				return errForbidden
			}
			pairs, err := parsePairs(args[1:])
			if err != nil {
				return err
			}
			sheet := school.AttendanceSheet{Date: date}
			for _, p := range pairs {
				status := school.AttendanceStatus(strings.ToLower(p[1]))
				switch status {
				case school.Present, school.Absent, school.Late, school.Excused:
				default:
					return fmt.Errorf("unknown attendance status %q", p[1])
				}
				sheet.Marks = append(sheet.Marks, school.AttendanceMark{StudentID: p[0], Status: status})
			}
			if err := a.school.MarkAttendance(cmd.Context(), args[0], sheet); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %d marks for %s on %s\n", len(sheet.Marks), args[0], date)
			return nil
		},
	}
	cmd.Flags().StringVar(&date, "date", time.Now().Format(time.DateOnly), "Register date (YYYY-MM-DD)")
	return cmd
}

func newTimetableCmd(c *cli) *cobra.Command {
	var faculty bool

	cmd := &cobra.Command{
		Use:   "timetable [id]",
		Short: "Show a student's timetable, or a teaching schedule with --faculty",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := c.requireSession(ctx)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("faculty") && currentRole(a) == school.RoleFaculty && len(args) == 0 {
				faculty = true
			}

			var tt *school.Timetable
			if faculty {
				tt, err = a.school.FacultySchedule(ctx, defaultID(a, args))
			} else {
				var id string
				if id, err = studentID(a, args); err != nil {
					return err
				}
				tt, err = a.school.Timetable(ctx, id)
			}
			if err != nil {
				return err
			}
			return renderTimetable(cmd, tt, faculty)
		},
	}
	cmd.Flags().BoolVar(&faculty, "faculty", false, "Show a faculty member's teaching schedule")
	return cmd
}

func renderTimetable(cmd *cobra.Command, tt *school.Timetable, faculty bool) error {
	if len(tt.Periods) == 0 {
		printEmpty(cmd.OutOrStdout(), "periods")
		return nil
	}
	who := "Teacher"
	if faculty {
		who = "Class"
	}
	t := newTable(cmd.OutOrStdout(), "Day", "Time", "Subject", "Room", who)
	t.SetColumnConfigs([]table.ColumnConfig{{Number: 1, AutoMerge: true}})
	for _, p := range tt.Periods {
		other := p.Teacher
		if faculty {
			other = p.Class
		}
		t.AppendRow(table.Row{p.Day, p.Start + "-" + p.End, p.Subject, p.Room, other})
	}
	t.Render()
	return nil
}

func newAssessmentsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assessments [student-id]",
		Short: "Show a student's assessments and grades",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			id, err := studentID(a, args)
			if err != nil {
				return err
			}
			list, err := a.school.Assessments(cmd.Context(), id)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				printEmpty(cmd.OutOrStdout(), "assessments")
				return nil
			}
			t := newTable(cmd.OutOrStdout(), "ID", "Subject", "Title", "Date", "Marks", "Grade")
			for _, as := range list {
				marks := text.FgHiBlack.Sprint("pending")
				if as.Graded() {
					marks = fmt.Sprintf("%g/%g", *as.Obtained, as.MaxMarks)
				}
				t.AppendRow(table.Row{as.ID, as.Subject, as.Title, as.Date, marks, as.Grade})
			}
			t.Render()
			return nil
		},
	}
	cmd.AddCommand(newSubmitMarksCmd(c))
	return cmd
}

func newSubmitMarksCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:     "submit <assessment-id> <student-id>=<marks>...",
		Short:   "Submit marks for an assessment (faculty and admin)",
		Example: "  schoolctl assessments submit A-101 T001=78 T002=64.5",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			if !currentRole(a).CanManageAttendance() {
				return errForbidden
			}
			pairs, err := parsePairs(args[1:])
			if err != nil {
				return err
			}
			marks := make([]school.Mark, 0, len(pairs))
			for _, p := range pairs {
				obtained, err := strconv.ParseFloat(p[1], 64)
				if err != nil || obtained < 0 {
					return fmt.Errorf("invalid marks %q for %s", p[1], p[0])
				}
				marks = append(marks, school.Mark{StudentID: p[0], Obtained: obtained})
			}
			if err := a.school.SubmitMarks(cmd.Context(), args[0], marks); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Submitted %d marks for %s\n", len(marks), args[0])
			return nil
		},
	}
}

func newFeesCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "fees [student-id]",
		Short: "Show a student's fee statement",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			id, err := studentID(a, args)
			if err != nil {
				return err
			}
			fees, err := a.school.Fees(cmd.Context(), id)
			if err != nil {
				return err
			}
			if len(fees.Items) == 0 {
				printEmpty(cmd.OutOrStdout(), "fee items")
				return nil
			}
			t := newTable(cmd.OutOrStdout(), "Item", "Due", "Amount", "Paid")
			for _, item := range fees.Items {
				t.AppendRow(table.Row{item.Title, item.DueDate,
					formatMoney(fees.Currency, item.Amount), formatMoney(fees.Currency, item.Paid)})
			}
			balance := formatMoney(fees.Currency, fees.Balance())
			if fees.Balance() > 0 {
				balance = text.FgRed.Sprint(balance)
			}
			t.AppendFooter(table.Row{"", "", "Balance", balance})
			t.Render()
			return nil
		},
	}
}

func newAnnouncementsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "announcements",
		Short: "List school announcements",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			list, err := a.school.Announcements(cmd.Context())
			if err != nil {
				return err
			}
			if len(list) == 0 {
				printEmpty(cmd.OutOrStdout(), "announcements")
				return nil
			}
			t := newTable(cmd.OutOrStdout(), "Date", "Title", "Audience", "Author")
			for _, an := range list {
				date := ""
				if !an.CreatedAt.IsZero() {
					date = an.CreatedAt.Local().Format(time.DateOnly)
				}
				t.AppendRow(table.Row{date, text.Bold.Sprint(an.Title), an.Audience, an.Author})
			}
			t.Render()
			return nil
		},
	}
	cmd.AddCommand(newPostAnnouncementCmd(c))
	return cmd
}

func newPostAnnouncementCmd(c *cli) *cobra.Command {
	var title, body, audience string

	cmd := &cobra.Command{
		Use:   "post",
		Short: "Publish an announcement (faculty and admin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			if !currentRole(a).CanPostAnnouncements() {
				return errForbidden
			}
			posted, err := a.school.PostAnnouncement(cmd.Context(), school.Announcement{
				Title:    title,
				Body:     body,
				Audience: audience,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Posted announcement %s\n", posted.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Announcement title")
	cmd.Flags().StringVar(&body, "body", "", "Announcement body")
	cmd.Flags().StringVar(&audience, "audience", "all", "Who should see it, e.g. all, parents, 7B")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newRecordingsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "recordings <course-id>",
		Short: "List lecture recordings for a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			list, err := a.school.Recordings(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if len(list) == 0 {
				printEmpty(cmd.OutOrStdout(), "recordings")
				return nil
			}
			t := newTable(cmd.OutOrStdout(), "Title", "Recorded", "Length", "URL")
			for _, r := range list {
				length := ""
				if r.Duration > 0 {
					length = (time.Duration(r.Duration) * time.Second).String()
				}
				t.AppendRow(table.Row{r.Title, r.Recorded, length, r.URL})
			}
			t.Render()
			return nil
		},
	}
}
