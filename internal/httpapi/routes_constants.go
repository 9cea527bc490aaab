package httpapi

// Route path constants
const (
	RouteHealth = "/healthz"
	RouteLogin  = "/login"
	RouteMe     = "/api/me"

	RouteAttendance         = "/api/attendance"
	RouteAttendanceCheckIn  = "/api/attendance/checkin"
	RouteAttendanceCheckOut = "/api/attendance/checkout"
	RouteAttendanceOpen     = "/api/attendance/open"
	RouteAttendanceStream   = "/api/attendance/stream"

	RouteEmployees = "/api/employees"
	RouteEmployee  = "/api/employees/:id"
)
