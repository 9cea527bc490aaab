package models

import (
	"time"

	"timeclock/internal/attendance"
)

// AttendanceSession is a row of attendance_sessions.
type AttendanceSession struct {
	ID         int64      `db:"id"`
	EmployeeID int64      `db:"employee_id"`
	WorkDate   time.Time  `db:"work_date"`
	CheckIn    time.Time  `db:"check_in"`
	CheckOut   *time.Time `db:"check_out"`
	WorkedUS   *int64     `db:"worked_us"`
}

func (r AttendanceSession) Domain() attendance.Session {
	s := attendance.Session{
		ID:         r.ID,
		EmployeeID: r.EmployeeID,
		Date:       attendance.DateOf(r.WorkDate),
		CheckIn:    r.CheckIn,
		CheckOut:   r.CheckOut,
	}
	if r.WorkedUS != nil {
		worked := time.Duration(*r.WorkedUS) * time.Microsecond
		s.Worked = &worked
	}
	return s
}

// AttendanceRecord is a session row joined with employee display fields.
type AttendanceRecord struct {
	AttendanceSession
	EmployeeName  string `db:"name"`
	EmployeeEmail string `db:"email"`
}

func (r AttendanceRecord) Domain() attendance.Record {
	return attendance.Record{
		Session:       r.AttendanceSession.Domain(),
		EmployeeName:  r.EmployeeName,
		EmployeeEmail: r.EmployeeEmail,
	}
}
