package models

// Pattern tags and ring markers written into SuspiciousAccount records.
const (
	PatternFanInHigh  = "fan_in_high"
	PatternFanOutHigh = "fan_out_high"
	PatternTypeCycle  = "cycle"
	RingIDSmurfing    = "SMURFING"
)

// SuspiciousAccount is the single surviving detection record for an account.
type SuspiciousAccount struct {
	AccountID        string   `json:"account_id"`
	SuspicionScore   float64  `json:"suspicion_score"`
	DetectedPatterns []string `json:"detected_patterns"`
	RingID           string   `json:"ring_id,omitempty"` // "RING_NNN", "SMURFING" or empty
}

// FraudRing is one qualifying transfer cycle. Rings sharing members are kept
// as separate rings.
type FraudRing struct {
	RingID         string   `json:"ring_id"`
	MemberAccounts []string `json:"member_accounts"`
	PatternType    string   `json:"pattern_type"`
	RiskScore      float64  `json:"risk_score"`
}

// AnalysisSummary aggregates one analysis run.
type AnalysisSummary struct {
	TotalAccountsAnalyzed     int     `json:"total_accounts_analyzed"`
	SuspiciousAccountsFlagged int     `json:"suspicious_accounts_flagged"`
	FraudRingsDetected        int     `json:"fraud_rings_detected"`
	ProcessingTimeSeconds     float64 `json:"processing_time_seconds"` // rounded to 2 decimals
}

// AnalysisResult is the record produced by the detector and served by export.
// It carries exactly three top-level fields.
type AnalysisResult struct {
	SuspiciousAccounts []SuspiciousAccount `json:"suspicious_accounts"`
	FraudRings         []FraudRing         `json:"fraud_rings"`
	Summary            AnalysisSummary     `json:"summary"`
}

// GraphNode is a visualization node. Flagged nodes appear in
// SuspiciousAccounts.
type GraphNode struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Flagged bool   `json:"flagged"`
	Color   string `json:"color"`
}

// GraphEdge is a visualization edge.
type GraphEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// GraphSnapshot is the node/edge view of the transaction graph used by the
// dashboard. It is never fed back into analysis.
type GraphSnapshot struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}
