package models

// DashboardSummary is the cached, role-agnostic summary payload.
type DashboardSummary struct {
	HeadcountByRole map[UserRole]int `json:"headcount_by_role"`
	Today           DashboardToday   `json:"today"`
	PendingLeaves   int              `json:"pending_leaves"`
}

// DashboardToday aggregates today's attendance marks.
type DashboardToday struct {
	Date    string `json:"date"`
	Present int    `json:"present"`
	Absent  int    `json:"absent"`
	Leave   int    `json:"leave"`
}
