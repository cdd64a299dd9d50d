// Package mcpserver exposes the reminder store and scheduler as MCP tools.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/notexe/remind/internal/reminder"
	"github.com/notexe/remind/internal/scheduler"
	"go.uber.org/zap"
)

const (
	serverName    = "reminder"
	serverVersion = "1.0.0"
)

// Server is the MCP server for reminder management.
type Server struct {
	mcpServer *server.MCPServer
	store     *reminder.Store
	scheduler *scheduler.Scheduler
	logger    *zap.Logger
	now       func() time.Time
}

// NewServer creates a new Reminder MCP server backed by the given store.
func NewServer(store *reminder.Store, sched *scheduler.Scheduler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		store:     store,
		scheduler: sched,
		logger:    logger,
		now:       time.Now,
	}

	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(false),
	)

	s.registerTools()
	return s
}

// MCPServer returns the underlying MCP server for serving.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	// add_reminder
	s.mcpServer.AddTool(
		mcp.NewTool("add_reminder",
			mcp.WithDescription("Add a new reminder. It is notified once, lead_hours before its date and time."),
			mcp.WithString("title", mcp.Required(), mcp.Description("Reminder title")),
			mcp.WithString("description", mcp.Required(), mcp.Description("Reminder description")),
			mcp.WithString("date", mcp.Required(), mcp.Description("Local date, YYYY-MM-DD")),
			mcp.WithString("time", mcp.Required(), mcp.Description("Local time, HH:MM or HH:MM:SS")),
			mcp.WithNumber("lead_hours", mcp.Description("Hours before date/time to notify (default: 0)")),
		),
		s.handleAddReminder,
	)

	// list_reminders
	s.mcpServer.AddTool(
		mcp.NewTool("list_reminders",
			mcp.WithDescription("List all reminders in creation order, optionally filtered by state"),
			mcp.WithString("state", mcp.Description("Filter by state: pending, due, delivered, or empty for all")),
		),
		s.handleListReminders,
	)

	// get_due_reminders
	s.mcpServer.AddTool(
		mcp.NewTool("get_due_reminders",
			mcp.WithDescription("Check which reminders are due this minute and have not been delivered"),
		),
		s.handleGetDueReminders,
	)

	// deliver_reminder
	s.mcpServer.AddTool(
		mcp.NewTool("deliver_reminder",
			mcp.WithDescription("Send a reminder's notification and mark it delivered"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID or unique ID prefix")),
		),
		s.handleDeliverReminder,
	)

	// delete_reminder
	s.mcpServer.AddTool(
		mcp.NewTool("delete_reminder",
			mcp.WithDescription("Delete a reminder permanently"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID or unique ID prefix")),
		),
		s.handleDeleteReminder,
	)

	// update_reminder
	s.mcpServer.AddTool(
		mcp.NewTool("update_reminder",
			mcp.WithDescription("Update a reminder's fields (title, description, date, time, lead_hours)"),
			mcp.WithString("id", mcp.Required(), mcp.Description("Reminder ID or unique ID prefix")),
			mcp.WithString("title", mcp.Description("New title")),
			mcp.WithString("description", mcp.Description("New description")),
			mcp.WithString("date", mcp.Description("New date, YYYY-MM-DD")),
			mcp.WithString("time", mcp.Description("New time, HH:MM or HH:MM:SS")),
			mcp.WithNumber("lead_hours", mcp.Description("New lead time in hours")),
		),
		s.handleUpdateReminder,
	)
}

func (s *Server) handleAddReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	description := req.GetString("description", "")
	dateStr := req.GetString("date", "")
	timeStr := req.GetString("time", "")
	lead, err := leadHours(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	date, err := reminder.ParseDate(dateStr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	clock, err := reminder.ParseClock(timeStr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	r := reminder.Reminder{
		Title:       title,
		Description: description,
		Date:        date,
		Time:        clock,
	}
	if lead != nil {
		r.LeadHours = *lead
	}

	added, err := s.store.Add(r)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to add reminder: %v", err)), nil
	}

	if res := s.save(ctx); res != nil {
		return res, nil
	}

	output, _ := json.MarshalIndent(added, "", "  ")
	return mcp.NewToolResultText(string(output)), nil
}

func (s *Server) handleListReminders(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state := req.GetString("state", "")

	var reminders []reminder.Reminder
	for _, r := range s.store.List() {
		if state == "" || r.State().String() == state {
			reminders = append(reminders, r)
		}
	}

	if len(reminders) == 0 {
		return mcp.NewToolResultText("No reminders found."), nil
	}

	output, _ := json.MarshalIndent(reminders, "", "  ")
	return mcp.NewToolResultText(string(output)), nil
}

func (s *Server) handleGetDueReminders(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	reminders := s.scheduler.CheckDue(s.now())

	if len(reminders) == 0 {
		return mcp.NewToolResultText("No due reminders."), nil
	}

	output, _ := json.MarshalIndent(reminders, "", "  ")
	return mcp.NewToolResultText(string(output)), nil
}

func (s *Server) handleDeliverReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := s.store.Find(req.GetString("id", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to deliver reminder: %v", err)), nil
	}

	if err := s.scheduler.Deliver(ctx, r.ID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to deliver reminder: %v", err)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Reminder %s delivered.", r.ID)), nil
}

func (s *Server) handleDeleteReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := s.store.Find(req.GetString("id", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete reminder: %v", err)), nil
	}

	if err := s.store.Remove(r.ID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete reminder: %v", err)), nil
	}

	if res := s.save(ctx); res != nil {
		return res, nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("Reminder %s deleted.", r.ID)), nil
}

func (s *Server) handleUpdateReminder(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	r, err := s.store.Find(req.GetString("id", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update reminder: %v", err)), nil
	}

	var fields reminder.UpdateFields

	if v := req.GetString("title", ""); v != "" {
		fields.Title = &v
	}
	if v := req.GetString("description", ""); v != "" {
		fields.Description = &v
	}
	if v := req.GetString("date", ""); v != "" {
		d, err := reminder.ParseDate(v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		fields.Date = &d
	}
	if v := req.GetString("time", ""); v != "" {
		c, err := reminder.ParseClock(v)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		fields.Time = &c
	}
	lead, err := leadHours(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fields.LeadHours = lead

	updated, err := s.store.Update(r.ID, fields)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to update reminder: %v", err)), nil
	}

	if res := s.save(ctx); res != nil {
		return res, nil
	}

	output, _ := json.MarshalIndent(updated, "", "  ")
	return mcp.NewToolResultText(string(output)), nil
}

// save persists the store and returns an error result when it fails.
// The change stays in memory and is retried on the next save.
func (s *Server) save(ctx context.Context) *mcp.CallToolResult {
	if err := s.store.Save(ctx); err != nil {
		s.logger.Error("failed to save reminders", zap.Error(err))
		return mcp.NewToolResultError(fmt.Sprintf("change kept in memory but not saved: %v", err))
	}
	return nil
}

// leadHours reads the optional lead_hours argument. It must be a whole
// number of hours, zero or more; nil means the argument was not given.
func leadHours(req mcp.CallToolRequest) (*int, error) {
	v, ok := req.GetArguments()["lead_hours"]
	if !ok || v == nil {
		return nil, nil
	}

	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case int:
		f = float64(n)
	default:
		return nil, fmt.Errorf("%w: lead_hours must be a number, got %v", reminder.ErrInvalid, v)
	}
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return nil, fmt.Errorf("%w: lead_hours must be a whole number of hours >= 0, got %v", reminder.ErrInvalid, v)
	}

	lead := int(f)
	return &lead, nil
}
