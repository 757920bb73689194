package mcpserver

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/giantswarm/housekeep/internal/formatting"
	"github.com/giantswarm/housekeep/internal/ledger"
	"github.com/giantswarm/housekeep/internal/tracker"
	"github.com/giantswarm/housekeep/pkg/logging"
)

// ledgerPreview is the response of preview_ledger.
type ledgerPreview struct {
	IID       int    `json:"iid"`
	Items     int    `json:"items"`
	Total     string `json:"total"`
	Unit      string `json:"unit,omitempty"`
	Goal      string `json:"goal,omitempty"`
	Summary   string `json:"summary"`
	Published bool   `json:"published"`
	UpToDate  bool   `json:"upToDate"`
	Diff      string `json:"diff,omitempty"`
}

func requireIID(request mcp.CallToolRequest) (int, *mcp.CallToolResult) {
	iid, err := request.RequireInt("iid")
	if err != nil {
		return 0, mcp.NewToolResultError("iid argument is required")
	}
	if iid <= 0 {
		return 0, mcp.NewToolResultError(fmt.Sprintf("invalid iid %d", iid))
	}
	return iid, nil
}

// handleReconcileIssue runs all rules on one issue. The report is returned
// even when processing failed part way.
func (s *Server) handleReconcileIssue(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	iid, errResult := requireIID(request)
	if errResult != nil {
		return errResult, nil
	}

	s.mu.Lock()
	report, err := s.processor.ProcessIID(ctx, iid)
	s.mu.Unlock()

	if errors.Is(err, tracker.ErrNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("Issue #%d not found", iid)), nil
	}
	if err != nil {
		logging.Error("MCPServer", err, "reconcile_issue failed for #%d", iid)
		return mcp.NewToolResultError(fmt.Sprintf("Failed to reconcile issue #%d: %v\n%s", iid, err, formatting.PrettyJSON(report))), nil
	}
	return mcp.NewToolResultText(formatting.PrettyJSON(report)), nil
}

func (s *Server) handlePreviewLedger(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	iid, errResult := requireIID(request)
	if errResult != nil {
		return errResult, nil
	}
	withDiff := request.GetBool("diff", false)

	rendered, published, scan, err := s.processor.PreviewLedger(ctx, iid)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to preview ledger of issue #%d: %v", iid, err)), nil
	}

	resp := ledgerPreview{
		IID:       iid,
		Items:     len(scan.Next.Items),
		Total:     scan.Next.Total().String(),
		Unit:      scan.Next.Unit,
		Summary:   rendered,
		Published: published != "",
		UpToDate:  published == rendered,
	}
	if scan.Next.Goal != nil {
		resp.Goal = scan.Next.Goal.String()
	}
	if withDiff {
		resp.Diff = ledger.DiffSummary(published, rendered)
	}
	return mcp.NewToolResultText(formatting.PrettyJSON(resp)), nil
}

func (s *Server) handleListRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(formatting.PrettyJSON(s.processor.Rules())), nil
}
