package httpapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"timeclock/internal/attendance"
	"timeclock/internal/feed"
	"timeclock/internal/roster"
)

// Engine is the session state machine.
type Engine interface {
	CheckIn(ctx context.Context, employeeID int64) (int64, error)
	CheckOut(ctx context.Context, employeeID int64) (attendance.Session, error)
}

// Query is the role-scoped history service.
type Query interface {
	ListSessions(ctx context.Context, req attendance.Requester, f attendance.Filter) ([]attendance.View, error)
	ListOpen(ctx context.Context, req attendance.Requester) ([]attendance.View, error)
}

type Roster interface {
	Create(ctx context.Context, in roster.Input) (*roster.Employee, error)
	Update(ctx context.Context, id int64, in roster.Input) (*roster.Employee, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (*roster.Employee, error)
	List(ctx context.Context) ([]*roster.Employee, error)
	Authenticate(ctx context.Context, email, password string) (*roster.Employee, error)
}

type Tokens interface {
	Issue(employeeID int64, role attendance.Role) (string, time.Time, error)
	Verify(raw string) (attendance.Requester, error)
}

// Feed is the live attendance event source.
type Feed interface {
	Subscribe() *feed.Subscription
	Unsubscribe(*feed.Subscription)
}

type Server struct {
	router   *gin.Engine
	engine   Engine
	query    Query
	roster   Roster
	tokens   Tokens
	feed     Feed
	upgrader websocket.Upgrader
	log      zerolog.Logger

	closing   chan struct{}
	closeOnce sync.Once
}

func New(engine Engine, query Query, rosterSvc Roster, tokens Tokens, events Feed, logger zerolog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		router:  gin.New(),
		engine:  engine,
		query:   query,
		roster:  rosterSvc,
		tokens:  tokens,
		feed:    events,
		log:     logger.With().Str("component", "http").Logger(),
		closing: make(chan struct{}),
	}
	s.initRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close ends open event streams. http.Server.Shutdown does not wait for
// hijacked connections, so call this alongside it.
func (s *Server) Close() {
	s.closeOnce.Do(func() { close(s.closing) })
}

func (s *Server) initRoutes() {
	s.router.Use(s.RequestLogger(), s.Recovery())

	s.router.GET(RouteHealth, s.Health)
	s.router.POST(RouteLogin, s.Login)
	s.router.GET(RouteMe, s.AuthRequired(), s.Me)

	att := s.router.Group("", s.AuthRequired())
	{
		att.POST(RouteAttendanceCheckIn, s.CheckIn)
		att.POST(RouteAttendanceCheckOut, s.CheckOut)
		att.GET(RouteAttendance, s.ListSessions)
		att.GET(RouteAttendanceOpen, s.ListOpen)
	}

	admin := s.router.Group("", s.AuthRequired(), s.RequireAdmin())
	{
		admin.GET(RouteEmployees, s.ListEmployees)
		admin.GET(RouteEmployee, s.GetEmployee)
		admin.POST(RouteEmployees, s.CreateEmployee)
		admin.PUT(RouteEmployee, s.UpdateEmployee)
		admin.DELETE(RouteEmployee, s.DeleteEmployee)
		admin.GET(RouteAttendanceStream, s.Stream)
	}

	for _, r := range s.router.Routes() {
		s.log.Debug().Str("method", r.Method).Str("path", r.Path).Msg("route registered")
	}
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
