package model

import "github.com/shopspring/decimal"

// Graph is the spending-habits visualization returned by the insights
// endpoint: a fixed-position node/edge layout plus the insights and stats
// that drove it.
type Graph struct {
	Insights InsightSet `json:"insights"`
	Nodes    []Node     `json:"nodes"`
	Edges    []Edge     `json:"edges"`
	Stats    GraphStats `json:"stats"`
}

// Node is a single graph node positioned for the frontend renderer.
type Node struct {
	ID       string   `json:"id"`
	Type     string   `json:"type"`
	Data     NodeData `json:"data"`
	Position Position `json:"position"`
}

// NodeData carries the renderable content of a node.
type NodeData struct {
	Label       string `json:"label"`
	Subtitle    string `json:"subtitle,omitempty"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

// Position is a fixed layout coordinate.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Edge connects two nodes in the graph.
type Edge struct {
	ID       string    `json:"id"`
	Source   string    `json:"source"`
	Target   string    `json:"target"`
	Style    EdgeStyle `json:"style"`
	Animated bool      `json:"animated"`
}

// EdgeStyle is passed through to the frontend renderer.
type EdgeStyle struct {
	Stroke      string `json:"stroke"`
	StrokeWidth int    `json:"strokeWidth"`
}

// Insight is one narrative observation about the user's spending.
type Insight struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// InsightSet groups insights by the three graph branches.
type InsightSet struct {
	Location    []Insight `json:"location"`
	Frequency   []Insight `json:"frequency"`
	Preferences []Insight `json:"preferences"`
	All         []Insight `json:"all"`
}

// GraphStats summarizes the history the graph was built from.
type GraphStats struct {
	TotalTransactions int             `json:"total_transactions"`
	UniqueMerchants   int             `json:"unique_merchants"`
	TotalSpent        decimal.Decimal `json:"total_spent"`
}
