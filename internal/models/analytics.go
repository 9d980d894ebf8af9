package models

// DashboardStats backs the admin dashboard cards.
type DashboardStats struct {
	TotalUsers       int64   `json:"totalUsers"`
	TotalTherapists  int64   `json:"totalTherapists"`
	TotalSessions    int64   `json:"totalSessions"`
	PaidSessions     int64   `json:"paidSessions"`
	UnpaidSessions   int64   `json:"unpaidSessions"`
	TotalRevenue     float64 `json:"totalRevenue"`
	TotalPayments    int64   `json:"totalPayments"`
	VerifiedPayments int64   `json:"verifiedPayments"`
	PendingPayments  int64   `json:"pendingPayments"`
	RejectedPayments int64   `json:"rejectedPayments"`
	TodaySessions    int64   `json:"todaySessions"`
	WeeklySessions   int64   `json:"weeklySessions"`
	MonthlySessions  int64   `json:"monthlySessions"`
}

type DayPoint struct {
	Date     string  `json:"date"`
	Day      string  `json:"day,omitempty"`
	Sessions int     `json:"sessions"`
	Revenue  float64 `json:"revenue"`
}

type Dashboard struct {
	Stats     DashboardStats `json:"stats"`
	ChartData []DayPoint     `json:"chartData"`
}

type TherapistPerformance struct {
	TherapistID string  `bson:"_id" json:"id"`
	Name        string  `bson:"name" json:"name"`
	Sessions    int     `bson:"sessions" json:"sessions"`
	Revenue     float64 `bson:"revenue" json:"revenue"`
	Rating      float64 `bson:"rating" json:"rating"`
}

type TypeShare struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type GrowthPoint struct {
	Month      string `json:"month"`
	Clients    int    `json:"clients"`
	Therapists int    `json:"therapists"`
}

type AnalyticsMetrics struct {
	TotalRevenue  float64 `json:"totalRevenue"`
	ActiveUsers   int64   `json:"activeUsers"`
	TotalSessions int     `json:"totalSessions"`
	AvgRating     float64 `json:"avgRating"`
}

type Analytics struct {
	Range                string                 `json:"range"`
	Metrics              AnalyticsMetrics       `json:"metrics"`
	SessionTrends        []DayPoint             `json:"sessionTrends"`
	TherapistPerformance []TherapistPerformance `json:"therapistPerformance"`
	SessionTypes         []TypeShare            `json:"sessionTypes"`
	UserGrowth           []GrowthPoint          `json:"userGrowth"`
}

// PublicStats are the landing page counters.
type PublicStats struct {
	Sessions     int64 `json:"sessions"`
	Therapists   int64 `json:"therapists"`
	Languages    int   `json:"languages"`
	Satisfaction int   `json:"satisfaction"`
}

// RatingSummary aggregates ratings: mean score, count, and how many are 4 or above.
type RatingSummary struct {
	Average   float64 `bson:"average" json:"average"`
	Count     int64   `bson:"count" json:"count"`
	Satisfied int64   `bson:"satisfied" json:"-"`
}
