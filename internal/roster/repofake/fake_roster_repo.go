package repofake

import (
	"context"
	"sort"
	"sync"
	"time"

	"timeclock/internal/attendance/storefake"
	"timeclock/internal/roster"
)

var _ roster.Repo = (*FakeRosterRepo)(nil)

// FakeRosterRepo keeps employees in memory. When built with a session
// store it mirrors reference data into it and cascades deletes.
type FakeRosterRepo struct {
	lock      sync.RWMutex
	employees map[int64]*roster.Employee
	nextID    int64
	sessions  *storefake.Store
}

func NewFakeRosterRepo(sessions *storefake.Store) *FakeRosterRepo {
	return &FakeRosterRepo{
		employees: make(map[int64]*roster.Employee),
		sessions:  sessions,
	}
}

func (r *FakeRosterRepo) CreateEmployee(_ context.Context, e *roster.Employee) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if err := r.checkUnique(e); err != nil {
		return err
	}
	r.nextID++
	e.ID = r.nextID
	e.CreatedAt = time.Now()
	stored := *e
	r.employees[e.ID] = &stored
	r.mirror(stored)
	return nil
}

func (r *FakeRosterRepo) UpdateEmployee(_ context.Context, e *roster.Employee) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.employees[e.ID]; !ok {
		return roster.ErrNotFound
	}
	if err := r.checkUnique(e); err != nil {
		return err
	}
	stored := *e
	r.employees[e.ID] = &stored
	r.mirror(stored)
	return nil
}

func (r *FakeRosterRepo) DeleteEmployee(_ context.Context, id int64) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.employees[id]; !ok {
		return roster.ErrNotFound
	}
	delete(r.employees, id)
	if r.sessions != nil {
		r.sessions.RemoveEmployee(id)
	}
	return nil
}

func (r *FakeRosterRepo) EmployeeByID(_ context.Context, id int64) (*roster.Employee, error) {
	return r.find(func(e *roster.Employee) bool { return e.ID == id })
}

func (r *FakeRosterRepo) EmployeeByEmail(_ context.Context, email string) (*roster.Employee, error) {
	return r.find(func(e *roster.Employee) bool { return e.Email == email })
}

func (r *FakeRosterRepo) EmployeeByDiscordID(_ context.Context, discordID string) (*roster.Employee, error) {
	if discordID == "" {
		return nil, roster.ErrNotFound
	}
	return r.find(func(e *roster.Employee) bool { return e.DiscordID == discordID })
}

func (r *FakeRosterRepo) ListEmployees(_ context.Context) ([]*roster.Employee, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	list := make([]*roster.Employee, 0, len(r.employees))
	for _, e := range r.employees {
		c := *e
		list = append(list, &c)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list, nil
}

func (r *FakeRosterRepo) find(match func(*roster.Employee) bool) (*roster.Employee, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	for _, e := range r.employees {
		if match(e) {
			c := *e
			return &c, nil
		}
	}
	return nil, roster.ErrNotFound
}

func (r *FakeRosterRepo) checkUnique(e *roster.Employee) error {
	for _, other := range r.employees {
		if other.ID == e.ID {
			continue
		}
		if other.Email == e.Email {
			return roster.ErrEmailTaken
		}
		if e.DiscordID != "" && other.DiscordID == e.DiscordID {
			return roster.ErrDiscordLinked
		}
	}
	return nil
}

func (r *FakeRosterRepo) mirror(e roster.Employee) {
	if r.sessions != nil {
		r.sessions.AddEmployee(e.Employee)
	}
}
