package storefake

import (
	"context"
	"sort"
	"sync"

	"timeclock/internal/attendance"
)

var _ attendance.Store = (*Store)(nil)

// Store is an in-memory attendance.Store. Check-in and check-out for one
// employee are serialised by a per-employee lock; different employees do
// not contend beyond the brief map access.
type Store struct {
	mu        sync.RWMutex
	employees map[int64]attendance.Employee
	sessions  map[int64]*attendance.Session
	nextID    int64

	locksMu sync.Mutex
	locks   map[int64]*sync.Mutex
}

func New() *Store {
	return &Store{
		employees: make(map[int64]attendance.Employee),
		sessions:  make(map[int64]*attendance.Session),
		locks:     make(map[int64]*sync.Mutex),
	}
}

// AddEmployee registers reference data for e.
func (s *Store) AddEmployee(e attendance.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[e.ID] = e
}

// RemoveEmployee drops the employee and cascades their sessions.
func (s *Store) RemoveEmployee(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.employees, id)
	for sid, sess := range s.sessions {
		if sess.EmployeeID == id {
			delete(s.sessions, sid)
		}
	}
}

func (s *Store) lockFor(employeeID int64) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[employeeID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[employeeID] = l
	}
	return l
}

func (s *Store) InsertOpen(ctx context.Context, sess attendance.Session) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	l := s.lockFor(sess.EmployeeID)
	l.Lock()
	defer l.Unlock()

	if _, err := s.latestOpen(sess.EmployeeID); err == nil {
		return 0, attendance.ErrOpenSessionExists
	} else if err != attendance.ErrNoOpenSession {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	sess.ID = s.nextID
	sess.CheckOut = nil
	sess.Worked = nil
	s.sessions[sess.ID] = &sess
	return sess.ID, nil
}

func (s *Store) CloseOpen(ctx context.Context, employeeID int64, close func(attendance.Session) (attendance.Session, error)) (attendance.Session, error) {
	if err := ctx.Err(); err != nil {
		return attendance.Session{}, err
	}
	l := s.lockFor(employeeID)
	l.Lock()
	defer l.Unlock()

	open, err := s.latestOpen(employeeID)
	if err != nil {
		return attendance.Session{}, err
	}
	closed, err := close(open)
	if err != nil {
		return attendance.Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.sessions[open.ID]
	if !ok {
		return attendance.Session{}, attendance.ErrNoOpenSession
	}
	stored.CheckOut = closed.CheckOut
	stored.Worked = closed.Worked
	return *stored, nil
}

// latestOpen must be called with the employee's lock held.
func (s *Store) latestOpen(employeeID int64) (attendance.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.employees[employeeID]; !ok {
		return attendance.Session{}, attendance.ErrEmployeeNotFound
	}
	var latest *attendance.Session
	for _, sess := range s.sessions {
		if sess.EmployeeID != employeeID || sess.CheckOut != nil {
			continue
		}
		if latest == nil || sess.ID > latest.ID {
			latest = sess
		}
	}
	if latest == nil {
		return attendance.Session{}, attendance.ErrNoOpenSession
	}
	return *latest, nil
}

func (s *Store) List(ctx context.Context, q attendance.Query) ([]attendance.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]attendance.Record, 0)
	for _, sess := range s.sessions {
		if q.EmployeeID != nil && sess.EmployeeID != *q.EmployeeID {
			continue
		}
		if q.DateFrom != nil && sess.Date.Before(*q.DateFrom) {
			continue
		}
		if q.DateTo != nil && sess.Date.After(*q.DateTo) {
			continue
		}
		if q.OpenOnly && sess.CheckOut != nil {
			continue
		}
		emp := s.employees[sess.EmployeeID]
		records = append(records, attendance.Record{
			Session:       *sess,
			EmployeeName:  emp.Name,
			EmployeeEmail: emp.Email,
		})
	}

	sort.Slice(records, func(i, j int) bool {
		if !records[i].Date.Equal(records[j].Date) {
			return records[i].Date.After(records[j].Date)
		}
		return records[i].ID > records[j].ID
	})
	return records, nil
}
