package bot

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"timeclock/internal/attendance"
	"timeclock/internal/roster"
)

// maxHistoryRows keeps text replies under Discord's message size limit.
const maxHistoryRows = 25

var (
	errUnknownCommand = errors.New("unknown command")
	errNotLinked      = errors.New("discord account not linked")
)

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        "checkin",
		Description: "Start a work session",
	},
	{
		Name:        "checkout",
		Description: "Close your open work session",
	},
	{
		Name:        "status",
		Description: "Show open work sessions",
	},
	{
		Name:        "history",
		Description: "Show attendance history",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "date_from",
				Description: "First day to include (YYYY-MM-DD)",
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "date_to",
				Description: "Last day to include (YYYY-MM-DD)",
			},
			{
				Type:         discordgo.ApplicationCommandOptionString,
				Name:         "employee",
				Description:  "Employee to show (admins only)",
				Autocomplete: true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "format",
				Description: "Output format (CSV available for admins only)",
				Choices: []*discordgo.ApplicationCommandOptionChoice{
					{Name: "Text", Value: "text"},
					{Name: "CSV", Value: "csv"},
				},
			},
		},
	},
}

// reply is what a command sends back to the caller.
type reply struct {
	Text  string
	Files []*discordgo.File
}

// identify resolves the caller's linked employee. Roles come from the
// roster, never from Discord permissions.
func (b *Bot) identify(ctx context.Context, discordID string) (*roster.Employee, error) {
	if discordID == "" {
		return nil, errNotLinked
	}
	e, err := b.roster.ByDiscordID(ctx, discordID)
	if errors.Is(err, roster.ErrNotFound) {
		return nil, errNotLinked
	}
	if err != nil {
		return nil, fmt.Errorf("error resolving discord account: %w", err)
	}
	return e, nil
}

func (b *Bot) checkIn(ctx context.Context, discordID string) (reply, error) {
	e, err := b.identify(ctx, discordID)
	if err != nil {
		return reply{}, err
	}
	id, err := b.engine.CheckIn(ctx, e.ID)
	if err != nil {
		return reply{}, err
	}
	return reply{Text: fmt.Sprintf("Checked in, %s. Session #%d is open.", e.Name, id)}, nil
}

func (b *Bot) checkOut(ctx context.Context, discordID string) (reply, error) {
	e, err := b.identify(ctx, discordID)
	if err != nil {
		return reply{}, err
	}
	closed, err := b.engine.CheckOut(ctx, e.ID)
	if err != nil {
		return reply{}, err
	}
	v := attendance.Record{Session: closed}.View()
	return reply{Text: fmt.Sprintf("Checked out at %s.\nTime worked: %s", v.CheckOut, v.Worked)}, nil
}

func (b *Bot) status(ctx context.Context, discordID string) (reply, error) {
	e, err := b.identify(ctx, discordID)
	if err != nil {
		return reply{}, err
	}
	open, err := b.query.ListOpen(ctx, e.Requester())
	if err != nil {
		return reply{}, err
	}

	if e.Role != attendance.RoleAdmin {
		if len(open) == 0 {
			return reply{Text: "You are not checked in."}, nil
		}
		v := open[0]
		return reply{Text: fmt.Sprintf("Checked in since %s on %s (%s so far).", v.CheckIn, v.Date, b.elapsed(v))}, nil
	}

	if len(open) == 0 {
		return reply{Text: "Nobody is checked in."}, nil
	}
	rows := make([][]string, 0, len(open))
	for _, v := range open {
		rows = append(rows, []string{truncateString(v.EmployeeName, 20), v.Date, v.CheckIn, b.elapsed(v)})
	}
	return reply{Text: "Open sessions\n" + formatTable([]string{"EMPLOYEE", "DATE", "IN", "ELAPSED"}, rows)}, nil
}

// elapsed is the time since an open session's check-in.
func (b *Bot) elapsed(v attendance.View) string {
	now := b.clock.Now()
	in, err := time.ParseInLocation(attendance.DateLayout+" "+attendance.TimeOfDayLayout, v.Date+" "+v.CheckIn, now.Location())
	if err != nil {
		return "-"
	}
	return attendance.FormatDuration(now.Sub(in))
}

func (b *Bot) history(ctx context.Context, discordID string, opts options) (reply, error) {
	e, err := b.identify(ctx, discordID)
	if err != nil {
		return reply{}, err
	}

	filter, err := historyFilter(opts)
	if err != nil {
		return reply{}, err
	}
	asCSV := opts["format"] == "csv"
	if asCSV && e.Role != attendance.RoleAdmin {
		return reply{}, &attendance.Error{Kind: attendance.KindAccessDenied, Message: "CSV format is only available for administrators"}
	}

	views, err := b.query.ListSessions(ctx, e.Requester(), filter)
	if err != nil {
		return reply{}, err
	}
	if len(views) == 0 {
		return reply{Text: "No sessions found."}, nil
	}

	title := "Attendance history" + rangeLabel(opts["date_from"], opts["date_to"])
	if asCSV {
		data, err := historyCSV(views)
		if err != nil {
			return reply{}, err
		}
		return reply{
			Text: fmt.Sprintf("%s: %d sessions", title, len(views)),
			Files: []*discordgo.File{{
				Name:        "attendance.csv",
				ContentType: "text/csv",
				Reader:      bytes.NewReader(data),
			}},
		}, nil
	}

	shown := views
	if len(shown) > maxHistoryRows {
		shown = shown[:maxHistoryRows]
	}
	rows := make([][]string, 0, len(shown))
	for _, v := range shown {
		rows = append(rows, []string{v.Date, truncateString(v.EmployeeName, 20), v.CheckIn, v.CheckOut.String(), v.Worked.String()})
	}

	var out strings.Builder
	out.WriteString("# " + title + "\n")
	out.WriteString(formatTable([]string{"DATE", "EMPLOYEE", "IN", "OUT", "WORKED"}, rows))
	if len(views) > len(shown) {
		fmt.Fprintf(&out, "\nShowing %d of %d sessions. Narrow the dates or use CSV.", len(shown), len(views))
	}
	return reply{Text: out.String()}, nil
}

func historyFilter(opts options) (attendance.Filter, error) {
	var f attendance.Filter
	if raw := opts["employee"]; raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			return f, &attendance.Error{Kind: attendance.KindValidation, Message: "pick an employee from the list"}
		}
		f.EmployeeID = &id
	}
	for name, dst := range map[string]**time.Time{"date_from": &f.DateFrom, "date_to": &f.DateTo} {
		raw := opts[name]
		if raw == "" {
			continue
		}
		d, err := attendance.ParseDate(raw)
		if err != nil {
			return f, &attendance.Error{Kind: attendance.KindValidation, Message: name + ": " + err.Error()}
		}
		*dst = &d
	}
	return f, nil
}

func rangeLabel(from, to string) string {
	switch {
	case from != "" && to != "":
		return fmt.Sprintf(" (%s to %s)", from, to)
	case from != "":
		return fmt.Sprintf(" (from %s)", from)
	case to != "":
		return fmt.Sprintf(" (until %s)", to)
	}
	return ""
}

func historyCSV(views []attendance.View) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"session_id", "employee_id", "employee", "email", "date", "check_in", "check_out", "worked"})
	for _, v := range views {
		_ = w.Write([]string{
			strconv.FormatInt(v.ID, 10),
			strconv.FormatInt(v.EmployeeID, 10),
			v.EmployeeName,
			v.EmployeeEmail,
			v.Date,
			v.CheckIn,
			v.CheckOut.Value,
			v.Worked.Value,
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("error writing csv: %w", err)
	}
	return buf.Bytes(), nil
}

// employeeChoices offers roster entries matching input. Only admins get
// choices since staff history is always their own.
func (b *Bot) employeeChoices(ctx context.Context, discordID, input string) ([]*discordgo.ApplicationCommandOptionChoice, error) {
	e, err := b.identify(ctx, discordID)
	if errors.Is(err, errNotLinked) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if e.Role != attendance.RoleAdmin {
		return nil, nil
	}
	list, err := b.roster.List(ctx)
	if err != nil {
		return nil, err
	}

	input = strings.ToLower(input)
	var choices []*discordgo.ApplicationCommandOptionChoice
	for _, emp := range list {
		if !strings.Contains(strings.ToLower(emp.Name), input) && !strings.Contains(emp.Email, input) {
			continue
		}
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  truncateString(fmt.Sprintf("%s <%s>", emp.Name, emp.Email), 100),
			Value: strconv.FormatInt(emp.ID, 10),
		})
		if len(choices) >= 25 {
			break
		}
	}
	return choices, nil
}
