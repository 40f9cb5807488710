// ABOUTME: Tests for MCP server, tools, and resources.
// ABOUTME: Handlers are called directly against a temp SQLite store.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/minilok/internal/aggregate"
	"github.com/harperreed/minilok/internal/models"
	"github.com/harperreed/minilok/internal/storage"
	"github.com/harperreed/minilok/internal/views"
)

// setupTestServer creates a server over a fresh database, pinned to March 2025.
func setupTestServer(t *testing.T) *Server {
	t.Helper()

	db, err := storage.Open(filepath.Join(t.TempDir(), "minilok.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	server, err := NewServer(views.NewService(db, aggregate.Evaluator{}))
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	server.now = func() time.Time { return time.Date(2025, time.March, 15, 9, 0, 0, 0, time.UTC) }
	return server
}

func addActivity(t *testing.T, s *Server, cluster, name string, target float64) *models.Activity {
	t.Helper()
	_, out, err := s.handleAddActivity(context.Background(), &mcp.CallToolRequest{}, addActivityInput{
		ClusterID: cluster, Name: name, TargetValue: target,
	})
	if err != nil {
		t.Fatalf("add_activity failed: %v", err)
	}
	return out.(activityOutput).Activity
}

func TestNewServer(t *testing.T) {
	server := setupTestServer(t)
	if server.mcpServer == nil {
		t.Error("Expected non-nil mcpServer")
	}
	if server.svc == nil {
		t.Error("Expected non-nil service")
	}
}

func TestHandleListClusters(t *testing.T) {
	server := setupTestServer(t)
	_, out, err := server.handleListClusters(context.Background(), &mcp.CallToolRequest{}, emptyInput{})
	if err != nil {
		t.Fatalf("list_clusters failed: %v", err)
	}
	if got := len(out.(clustersOutput).Clusters); got != 5 {
		t.Errorf("Expected 5 clusters, got %d", got)
	}
}

func TestHandleAddActivity(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		input     addActivityInput
		wantErr   bool
		errSubstr string
	}{
		{"valid static", addActivityInput{ClusterID: "k2", Name: "Imunisasi", TargetValue: 100}, false, ""},
		{"valid cumulative", addActivityInput{ClusterID: "k3", Name: "Posbindu", TargetValue: 12, TargetLogic: "cumulative"}, false, ""},
		{"unknown logic", addActivityInput{ClusterID: "k3", Name: "X", TargetValue: 1, TargetLogic: "weekly"}, true, "unknown target logic"},
		{"missing target", addActivityInput{ClusterID: "k1", Name: "Rapat"}, true, "target value is required"},
		{"unknown cluster", addActivityInput{ClusterID: "k7", Name: "Rapat", TargetValue: 1}, true, "unknown cluster"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := server.handleAddActivity(ctx, &mcp.CallToolRequest{}, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errSubstr) {
					t.Errorf("Expected error containing %q, got %v", tt.errSubstr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if out.(activityOutput).Activity.ID == "" {
				t.Error("Expected an activity id")
			}
		})
	}
}

func TestHandleListActivities(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()

	_, out, err := server.handleListActivities(ctx, &mcp.CallToolRequest{}, listActivitiesInput{})
	if err != nil {
		t.Fatalf("list_activities failed: %v", err)
	}
	if out.(activitiesOutput).Message != "No activities found." {
		t.Errorf("Expected empty message, got %+v", out)
	}

	addActivity(t, server, "k2", "Imunisasi", 100)
	addActivity(t, server, "k4", "Skrining TB", 20)

	_, out, err = server.handleListActivities(ctx, &mcp.CallToolRequest{}, listActivitiesInput{ClusterID: "k4"})
	if err != nil {
		t.Fatalf("list_activities failed: %v", err)
	}
	list := out.(activitiesOutput).Activities
	if len(list) != 1 || list[0].Name != "Skrining TB" {
		t.Errorf("Unexpected activities: %+v", list)
	}

	if _, _, err := server.handleListActivities(ctx, &mcp.CallToolRequest{}, listActivitiesInput{ClusterID: "zz"}); err == nil {
		t.Error("Expected error for unknown cluster")
	}
}

func TestHandleRecordAchievementDefaultsToCurrentMonth(t *testing.T) {
	server := setupTestServer(t)
	a := addActivity(t, server, "k2", "Imunisasi", 100)

	_, out, err := server.handleRecordAchievement(context.Background(), &mcp.CallToolRequest{}, recordAchievementInput{
		ActivityID: a.ID, Value: "87,5",
	})
	if err != nil {
		t.Fatalf("record_achievement failed: %v", err)
	}
	saved := out.(achievementOutput).Achievement
	if saved.Month != 2 || saved.Year != 2025 || saved.Value != 87.5 {
		t.Errorf("Unexpected achievement: %+v", saved)
	}
}

func TestHandleRecordAchievementUnknownActivity(t *testing.T) {
	server := setupTestServer(t)
	_, _, err := server.handleRecordAchievement(context.Background(), &mcp.CallToolRequest{}, recordAchievementInput{
		ActivityID: "act_missing", Month: 1, Year: 2025, Value: "3",
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestHandleGetDashboardAndFailed(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()
	ok := addActivity(t, server, "k2", "Imunisasi", 100)
	addActivity(t, server, "k2", "Posyandu", 10)

	if _, _, err := server.handleRecordAchievement(ctx, &mcp.CallToolRequest{}, recordAchievementInput{ActivityID: ok.ID, Month: 3, Year: 2025, Value: "120"}); err != nil {
		t.Fatalf("record_achievement failed: %v", err)
	}

	_, out, err := server.handleGetDashboard(ctx, &mcp.CallToolRequest{}, periodInput{ClusterID: "k2", Month: 3, Year: 2025})
	if err != nil {
		t.Fatalf("get_dashboard failed: %v", err)
	}
	dash := out.(*views.DashboardView)
	if dash.Totals.Achieved != 1 || dash.Totals.NotAchieved != 1 {
		t.Errorf("Unexpected totals: %+v", dash.Totals)
	}

	_, out, err = server.handleListFailed(ctx, &mcp.CallToolRequest{}, periodInput{ClusterID: "k2"})
	if err != nil {
		t.Fatalf("list_failed_activities failed: %v", err)
	}
	failed := out.(failedOutput)
	if failed.Period != "Maret 2025" || len(failed.Items) != 1 || failed.Items[0].Activity.Name != "Posyandu" {
		t.Errorf("Unexpected failed list: %+v", failed)
	}

	if _, _, err := server.handleGetDashboard(ctx, &mcp.CallToolRequest{}, periodInput{ClusterID: "k2", Month: 13}); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Expected ErrValidation for month 13, got %v", err)
	}
}

func TestHandleSavePdcaAndDelete(t *testing.T) {
	server := setupTestServer(t)
	ctx := context.Background()
	a := addActivity(t, server, "k2", "Posyandu", 10)

	_, out, err := server.handleSavePdca(ctx, &mcp.CallToolRequest{}, savePdcaInput{ActivityID: a.ID, Plan: "Jadwal ulang"})
	if err != nil {
		t.Fatalf("save_pdca failed: %v", err)
	}
	if entry := out.(pdcaOutput).Entry; entry.Plan != "Jadwal ulang" || entry.Month != 2 {
		t.Errorf("Unexpected entry: %+v", entry)
	}

	_, del, err := server.handleDeleteActivity(ctx, &mcp.CallToolRequest{}, deleteActivityInput{ID: a.ID})
	if err != nil {
		t.Fatalf("delete_activity failed: %v", err)
	}
	if !strings.Contains(del.Message, a.ID) {
		t.Errorf("Unexpected message: %s", del.Message)
	}

	if _, _, err := server.handleSavePdca(ctx, &mcp.CallToolRequest{}, savePdcaInput{ActivityID: a.ID, Plan: "x"}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("Expected ErrNotFound after delete, got %v", err)
	}
}

func TestHandleClustersResource(t *testing.T) {
	server := setupTestServer(t)
	res, err := server.handleClustersResource(context.Background(), &mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("clusters resource failed: %v", err)
	}
	if len(res.Contents) != 1 || res.Contents[0].URI != clustersURI {
		t.Fatalf("Unexpected contents: %+v", res.Contents)
	}
	if !strings.Contains(res.Contents[0].Text, "Lintas Kluster") {
		t.Error("Expected cluster names in resource")
	}
}

func TestHandleDashboardResource(t *testing.T) {
	server := setupTestServer(t)
	addActivity(t, server, "k5", "Rapat Lintas Sektor", 1)

	res, err := server.handleDashboardResource(context.Background(), &mcp.ReadResourceRequest{})
	if err != nil {
		t.Fatalf("dashboard resource failed: %v", err)
	}

	var body struct {
		Period   string           `json:"period"`
		Clusters []clusterSummary `json:"clusters"`
	}
	if err := json.Unmarshal([]byte(res.Contents[0].Text), &body); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if body.Period != "Maret 2025" {
		t.Errorf("Unexpected period %q", body.Period)
	}
	if len(body.Clusters) != 5 {
		t.Fatalf("Expected 5 clusters, got %d", len(body.Clusters))
	}
	if body.Clusters[4].Totals.NotAchieved != 1 {
		t.Errorf("Unexpected k5 totals: %+v", body.Clusters[4].Totals)
	}
}
