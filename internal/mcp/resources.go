// ABOUTME: MCP resource implementations for the dashboard.
// ABOUTME: Provides minilok://clusters and minilok://dashboard/current.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/minilok/internal/aggregate"
	"github.com/harperreed/minilok/internal/models"
	"github.com/harperreed/minilok/internal/views"
)

const (
	clustersURI  = "minilok://clusters"
	dashboardURI = "minilok://dashboard/current"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         clustersURI,
		Name:        "Clusters",
		Description: "The fixed Puskesmas clusters",
		MIMEType:    "application/json",
	}, s.handleClustersResource)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         dashboardURI,
		Name:        "Current Month Dashboard",
		Description: "Achievement totals of every cluster for the current month",
		MIMEType:    "application/json",
	}, s.handleDashboardResource)
}

// clusterSummary is one cluster's line of the current dashboard.
type clusterSummary struct {
	Cluster models.Cluster      `json:"cluster"`
	Totals  aggregate.Totals    `json:"totals"`
	Rows    []views.ActivityRow `json:"rows"`
}

func (s *Server) handleClustersResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	return jsonResource(clustersURI, models.Clusters)
}

func (s *Server) handleDashboardResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	base := views.DefaultFilter(s.now())

	clusters := make([]clusterSummary, 0, len(models.Clusters))
	for _, c := range models.Clusters {
		f := base
		f.ClusterID = c.ID
		v, err := s.svc.Dashboard(ctx, f)
		if err != nil {
			return nil, fmt.Errorf("failed to build dashboard for %s: %w", c.ID, err)
		}
		clusters = append(clusters, clusterSummary{Cluster: c, Totals: v.Totals, Rows: v.Rows})
	}

	return jsonResource(dashboardURI, map[string]any{
		"period":   base.Period().String(),
		"clusters": clusters,
	})
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
