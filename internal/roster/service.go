package roster

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"

	"timeclock/internal/attendance"
	"timeclock/internal/auth"
)

// Input is the writable part of an employee. An empty Password on update
// keeps the current one.
type Input struct {
	Name      string          `json:"name"`
	Email     string          `json:"email"`
	Role      attendance.Role `json:"role"`
	Password  string          `json:"password"`
	DiscordID string          `json:"discord_id"`
}

type Service struct {
	repo Repo
	log  zerolog.Logger
}

func NewService(repo Repo, logger zerolog.Logger) *Service {
	return &Service{repo: repo, log: logger.With().Str("component", "roster").Logger()}
}

func (s *Service) Create(ctx context.Context, in Input) (*Employee, error) {
	in = normalise(in)
	if in.Role == "" {
		in.Role = attendance.RoleStaff
	}
	if err := validate(in); err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, fmt.Errorf("%w: password is required", ErrInvalid)
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	e := &Employee{
		Employee:     attendance.Employee{Name: in.Name, Email: in.Email, Role: in.Role},
		PasswordHash: hash,
		DiscordID:    in.DiscordID,
	}
	if err := s.repo.CreateEmployee(ctx, e); err != nil {
		return nil, err
	}
	s.log.Info().Int64("employee_id", e.ID).Str("role", string(e.Role)).Msg("employee created")
	return e, nil
}

func (s *Service) Update(ctx context.Context, id int64, in Input) (*Employee, error) {
	in = normalise(in)
	if err := validate(in); err != nil {
		return nil, err
	}
	e, err := s.repo.EmployeeByID(ctx, id)
	if err != nil {
		return nil, err
	}

	e.Name, e.Email, e.Role, e.DiscordID = in.Name, in.Email, in.Role, in.DiscordID
	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
		}
		e.PasswordHash = hash
	}
	if err := s.repo.UpdateEmployee(ctx, e); err != nil {
		return nil, err
	}
	s.log.Info().Int64("employee_id", e.ID).Msg("employee updated")
	return e, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.DeleteEmployee(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("employee_id", id).Msg("employee deleted with attendance history")
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Employee, error) {
	return s.repo.EmployeeByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Employee, error) {
	return s.repo.ListEmployees(ctx)
}

// ByDiscordID resolves a linked Discord account to its employee.
func (s *Service) ByDiscordID(ctx context.Context, discordID string) (*Employee, error) {
	return s.repo.EmployeeByDiscordID(ctx, discordID)
}

// Authenticate checks an email and password. Unknown emails return
// ErrNotFound and wrong passwords ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Employee, error) {
	e, err := s.repo.EmployeeByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	ok, err := auth.CheckPassword(e.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("error checking password: %w", err)
	}
	if !ok {
		s.log.Info().Int64("employee_id", e.ID).Msg("login rejected")
		return nil, ErrInvalidCredentials
	}
	return e, nil
}

func normalise(in Input) Input {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.DiscordID = strings.TrimSpace(in.DiscordID)
	return in
}

func validate(in Input) error {
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if in.Email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalid)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return fmt.Errorf("%w: email %q is malformed", ErrInvalid, in.Email)
	}
	if !in.Role.Valid() {
		return fmt.Errorf("%w: role must be staff or admin", ErrInvalid)
	}
	return nil
}
