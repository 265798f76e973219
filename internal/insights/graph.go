package insights

import (
	"fmt"

	"github.com/balanceiq/balanceiq/internal/model"
)

// Edge styling shared with the frontend renderer.
var (
	trunkStyle  = model.EdgeStyle{Stroke: "#6b4423", StrokeWidth: 3}
	branchStyle = model.EdgeStyle{Stroke: "#8b6240", StrokeWidth: 2}
)

// buildNodes lays out the graph: a central node, one category node per
// branch, and a fixed-grid row of insight nodes under each branch. The
// coordinates are pinned so the frontend renders an identical layout every
// time.
func buildNodes(set model.InsightSet) []model.Node {
	nodes := []model.Node{
		{
			ID:       "piggy",
			Type:     "piggy",
			Data:     model.NodeData{Label: "Piggy", Subtitle: "Your Spending Profile"},
			Position: model.Position{X: 600, Y: 400},
		},
		{
			ID:       "category_location",
			Type:     "category",
			Data:     model.NodeData{Label: "Locations", Subtitle: "Where you shop"},
			Position: model.Position{X: 150, Y: 200},
		},
		{
			ID:       "category_frequency",
			Type:     "category",
			Data:     model.NodeData{Label: "Frequency", Subtitle: "How often you spend"},
			Position: model.Position{X: 600, Y: 100},
		},
		{
			ID:       "category_preferences",
			Type:     "category",
			Data:     model.NodeData{Label: "Preferences", Subtitle: "What you like"},
			Position: model.Position{X: 1050, Y: 200},
		},
	}

	for i, insight := range set.Location {
		nodes = append(nodes, insightNode(fmt.Sprintf("location_%d", i), "location", insight,
			model.Position{X: 50 + i*280, Y: 500}))
	}
	for i, insight := range set.Frequency {
		nodes = append(nodes, insightNode(fmt.Sprintf("frequency_%d", i), "frequency", insight,
			model.Position{X: 400 + i*300, Y: 0}))
	}
	for i, insight := range set.Preferences {
		nodes = append(nodes, insightNode(fmt.Sprintf("preference_%d", i), "preferences", insight,
			model.Position{X: 900 + i*280, Y: 500}))
	}
	return nodes
}

func insightNode(id, category string, insight model.Insight, pos model.Position) model.Node {
	return model.Node{
		ID:   id,
		Type: "insight",
		Data: model.NodeData{
			Label:       insight.Title,
			Description: insight.Description,
			Category:    category,
		},
		Position: pos,
	}
}

func buildEdges(set model.InsightSet) []model.Edge {
	edges := []model.Edge{
		{ID: "edge_piggy_location", Source: "piggy", Target: "category_location", Animated: true, Style: trunkStyle},
		{ID: "edge_piggy_frequency", Source: "piggy", Target: "category_frequency", Animated: true, Style: trunkStyle},
		{ID: "edge_piggy_preferences", Source: "piggy", Target: "category_preferences", Animated: true, Style: trunkStyle},
	}

	for i := range set.Location {
		edges = append(edges, model.Edge{
			ID:     fmt.Sprintf("edge_loc_location_%d", i),
			Source: "category_location",
			Target: fmt.Sprintf("location_%d", i),
			Style:  branchStyle,
		})
	}
	for i := range set.Frequency {
		edges = append(edges, model.Edge{
			ID:     fmt.Sprintf("edge_freq_frequency_%d", i),
			Source: "category_frequency",
			Target: fmt.Sprintf("frequency_%d", i),
			Style:  branchStyle,
		})
	}
	for i := range set.Preferences {
		edges = append(edges, model.Edge{
			ID:     fmt.Sprintf("edge_pref_preference_%d", i),
			Source: "category_preferences",
			Target: fmt.Sprintf("preference_%d", i),
			Style:  branchStyle,
		})
	}
	return edges
}
