// ABOUTME: MCP tool implementations for activities, achievements, and PDCA notes.
// ABOUTME: Months are 1-12 here; zero month or year means the current one.
package mcp

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/minilok/internal/models"
	"github.com/harperreed/minilok/internal/views"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_clusters",
		Description: "List the five fixed Puskesmas clusters",
	}, s.handleListClusters)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_activities",
		Description: "List activities, optionally only those of one cluster",
	}, s.handleListActivities)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_activity",
		Description: "Create an activity with a monthly target in a cluster",
	}, s.handleAddActivity)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "record_achievement",
		Description: "Record the achieved value of an activity for a month",
	}, s.handleRecordAchievement)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_dashboard",
		Description: "Show target, value and percent of every activity in a cluster for a month",
	}, s.handleGetDashboard)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_failed_activities",
		Description: "List activities below target for a month, with their PDCA notes",
	}, s.handleListFailed)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "save_pdca",
		Description: "Write the Plan-Do-Check-Action note of an activity for a month",
	}, s.handleSavePdca)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "delete_activity",
		Description: "Delete an activity with all its achievements and PDCA notes",
	}, s.handleDeleteActivity)
}

// Tool input/output types

type emptyInput struct{}

type clustersOutput struct {
	Clusters []models.Cluster `json:"clusters"`
}

type listActivitiesInput struct {
	ClusterID string `json:"cluster_id,omitempty" jsonschema:"Cluster id k1 to k5; empty lists every cluster"`
}

type activitiesOutput struct {
	Activities []*models.Activity `json:"activities"`
	Message    string             `json:"message,omitempty"`
}

type addActivityInput struct {
	ClusterID   string  `json:"cluster_id" jsonschema:"Cluster id k1 to k5"`
	Name        string  `json:"name" jsonschema:"Activity name"`
	TargetValue float64 `json:"target_value" jsonschema:"Monthly target value"`
	TargetLogic string  `json:"target_logic,omitempty" jsonschema:"static (default) or cumulative"`
}

type activityOutput struct {
	Activity *models.Activity `json:"activity"`
	Message  string           `json:"message"`
}

type recordAchievementInput struct {
	ActivityID string `json:"activity_id" jsonschema:"Activity id"`
	Month      int    `json:"month,omitempty" jsonschema:"Month number 1-12, defaults to the current month"`
	Year       int    `json:"year,omitempty" jsonschema:"Year, defaults to the current year"`
	Value      string `json:"value" jsonschema:"Achieved value; a comma is accepted as decimal separator"`
}

type achievementOutput struct {
	Achievement *models.Achievement `json:"achievement"`
	Message     string              `json:"message"`
}

type periodInput struct {
	ClusterID string `json:"cluster_id" jsonschema:"Cluster id k1 to k5"`
	Month     int    `json:"month,omitempty" jsonschema:"Month number 1-12, defaults to the current month"`
	Year      int    `json:"year,omitempty" jsonschema:"Year, defaults to the current year"`
}

type failedOutput struct {
	Period string           `json:"period"`
	Items  []views.PdcaItem `json:"items"`
}

type savePdcaInput struct {
	ActivityID string `json:"activity_id" jsonschema:"Activity id"`
	Month      int    `json:"month,omitempty" jsonschema:"Month number 1-12, defaults to the current month"`
	Year       int    `json:"year,omitempty" jsonschema:"Year, defaults to the current year"`
	Plan       string `json:"plan,omitempty" jsonschema:"Plan"`
	Do         string `json:"do,omitempty" jsonschema:"Do"`
	Check      string `json:"check,omitempty" jsonschema:"Check"`
	Action     string `json:"action,omitempty" jsonschema:"Action"`
}

type pdcaOutput struct {
	Entry   *models.PdcaEntry `json:"entry"`
	Message string            `json:"message"`
}

type deleteActivityInput struct {
	ID string `json:"id" jsonschema:"Activity id"`
}

type simpleOutput struct {
	Message string `json:"message"`
}

// period resolves a 1-12 month and a year, defaulting zeros to today.
func (s *Server) period(month, year int) models.Period {
	now := s.now()
	p := models.Period{Month: month - 1, Year: year}
	if month == 0 {
		p.Month = int(now.Month()) - 1
	}
	if year == 0 {
		p.Year = now.Year()
	}
	return p
}

func (s *Server) filter(in periodInput) views.Filter {
	p := s.period(in.Month, in.Year)
	return views.Filter{ClusterID: in.ClusterID, Month: p.Month, Year: p.Year}
}

// Tool handlers

func (s *Server) handleListClusters(ctx context.Context, req *mcp.CallToolRequest, input emptyInput) (*mcp.CallToolResult, any, error) {
	return nil, clustersOutput{Clusters: models.Clusters}, nil
}

func (s *Server) handleListActivities(ctx context.Context, req *mcp.CallToolRequest, input listActivitiesInput) (*mcp.CallToolResult, any, error) {
	if input.ClusterID != "" && !models.IsValidCluster(input.ClusterID) {
		return nil, nil, fmt.Errorf("unknown cluster: %s", input.ClusterID)
	}
	list, err := s.svc.Repository().ListActivities(ctx, input.ClusterID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list activities: %w", err)
	}
	out := activitiesOutput{Activities: list}
	if len(list) == 0 {
		out.Message = "No activities found."
	}
	return nil, out, nil
}

func (s *Server) handleAddActivity(ctx context.Context, req *mcp.CallToolRequest, input addActivityInput) (*mcp.CallToolResult, any, error) {
	logic, err := models.ParseTargetLogic(input.TargetLogic)
	if err != nil {
		return nil, nil, err
	}
	a, err := s.svc.AddActivity(ctx, models.ActivityInput{
		ClusterID:   input.ClusterID,
		Name:        input.Name,
		TargetValue: input.TargetValue,
		TargetLogic: logic,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to add activity: %w", err)
	}
	return nil, activityOutput{
		Activity: a,
		Message:  fmt.Sprintf("Activity %q in %s (ID: %s)", a.Name, a.ClusterID, a.ID),
	}, nil
}

func (s *Server) handleRecordAchievement(ctx context.Context, req *mcp.CallToolRequest, input recordAchievementInput) (*mcp.CallToolResult, any, error) {
	p := s.period(input.Month, input.Year)
	saved, err := s.svc.RecordAchievement(ctx, input.ActivityID, p, input.Value)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to record achievement: %w", err)
	}
	return nil, achievementOutput{
		Achievement: saved,
		Message:     fmt.Sprintf("Recorded %g for %s", saved.Value, p),
	}, nil
}

func (s *Server) handleGetDashboard(ctx context.Context, req *mcp.CallToolRequest, input periodInput) (*mcp.CallToolResult, any, error) {
	v, err := s.svc.Dashboard(ctx, s.filter(input))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build dashboard: %w", err)
	}
	return nil, v, nil
}

func (s *Server) handleListFailed(ctx context.Context, req *mcp.CallToolRequest, input periodInput) (*mcp.CallToolResult, any, error) {
	f := s.filter(input)
	v, err := s.svc.Pdca(ctx, f, views.PageRequest{Page: 1})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list failed activities: %w", err)
	}
	return nil, failedOutput{Period: f.Period().String(), Items: v.Items}, nil
}

func (s *Server) handleSavePdca(ctx context.Context, req *mcp.CallToolRequest, input savePdcaInput) (*mcp.CallToolResult, any, error) {
	p := s.period(input.Month, input.Year)
	saved, err := s.svc.SavePdca(ctx, &models.PdcaEntry{
		ActivityID: input.ActivityID,
		Month:      p.Month,
		Year:       p.Year,
		Plan:       input.Plan,
		Do:         input.Do,
		Check:      input.Check,
		Action:     input.Action,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to save pdca: %w", err)
	}
	return nil, pdcaOutput{Entry: saved, Message: fmt.Sprintf("Saved PDCA for %s", p)}, nil
}

func (s *Server) handleDeleteActivity(ctx context.Context, req *mcp.CallToolRequest, input deleteActivityInput) (*mcp.CallToolResult, simpleOutput, error) {
	if err := s.svc.RemoveActivity(ctx, input.ID); err != nil {
		return nil, simpleOutput{}, fmt.Errorf("failed to delete activity: %w", err)
	}
	return nil, simpleOutput{Message: fmt.Sprintf("Deleted activity: %s", input.ID)}, nil
}

