package services

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"time"

	"civicreport-be/models"
)

const (
	recentWindow   = 7 * 24 * time.Hour
	topActiveUsers = 10
	heatmapDigits  = 3
)

// typePalette is cycled over the issue type buckets.
var typePalette = []string{
	"#FF6384", "#36A2EB", "#FFCE56", "#4BC0C0",
	"#9966FF", "#FF9F40", "#FF6384", "#C9CBCF",
	"#4BC0C0", "#FF6384", "#36A2EB",
}

type Overview struct {
	TotalIssues        int64            `json:"total_issues"`
	TotalUsers         int64            `json:"total_users"`
	TotalComments      int64            `json:"total_comments"`
	TotalUpvotes       int64            `json:"total_upvotes"`
	RecentIssues       int64            `json:"recent_issues"`
	RecentComments     int64            `json:"recent_comments"`
	ResolutionRate     float64          `json:"resolution_rate"`
	StatusDistribution map[string]int64 `json:"status_distribution"`
}

// ChartData is shaped for Chart.js.
type ChartData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

type Dataset struct {
	Label           string  `json:"label"`
	Data            []int64 `json:"data"`
	BackgroundColor any     `json:"backgroundColor"`
	BorderColor     string  `json:"borderColor,omitempty"`
	Tension         float64 `json:"tension,omitempty"`
}

type ResolutionMetrics struct {
	AverageDays      float64          `json:"average_days"`
	MinDays          int              `json:"min_days"`
	MaxDays          int              `json:"max_days"`
	TotalResolved    int              `json:"total_resolved"`
	TimeDistribution map[string]int64 `json:"time_distribution"`
}

type ActiveUser struct {
	Name         string `json:"name"`
	IssueCount   *int64 `json:"issue_count,omitempty"`
	CommentCount *int64 `json:"comment_count,omitempty"`
}

type UserActivity struct {
	MostActiveReporters  []ActiveUser `json:"most_active_reporters"`
	MostActiveCommenters []ActiveUser `json:"most_active_commenters"`
}

type HeatPoint struct {
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Weight int64   `json:"weight"`
}

type DashboardStats struct {
	TodayStats struct {
		NewIssues      int64 `json:"new_issues"`
		ResolvedIssues int64 `json:"resolved_issues"`
		NewUsers       int64 `json:"new_users"`
	} `json:"today_stats"`
	PendingByPriority struct {
		Urgent int64 `json:"urgent"`
		High   int64 `json:"high"`
	} `json:"pending_by_priority"`
}

// ReportRequest asks for a report over an optional inclusive date range.
type ReportRequest struct {
	Type      string  `json:"type"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

type DateRange struct {
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

type IssueSummary struct {
	TotalIssues int              `json:"total_issues"`
	ByStatus    map[string]int64 `json:"by_status"`
	ByType      map[string]int64 `json:"by_type"`
	ByPriority  map[string]int64 `json:"by_priority"`
}

type Report struct {
	ReportType string       `json:"report_type"`
	DateRange  DateRange    `json:"date_range"`
	Data       IssueSummary `json:"data"`
}

const ReportIssueSummary = "issue_summary"

// AnalyticsAggregator computes read-only dashboard figures.
type AnalyticsAggregator struct {
	source AnalyticsSource
	now    func() time.Time
}

func NewAnalyticsAggregator(source AnalyticsSource) *AnalyticsAggregator {
	return &AnalyticsAggregator{source: source, now: time.Now}
}

func (a *AnalyticsAggregator) Overview(ctx context.Context, p Principal) (*Overview, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	var (
		out Overview
		err error
	)
	weekAgo := a.now().UTC().Add(-recentWindow)
	fail := func(err error) (*Overview, error) {
		slog.Error("analytics overview failed", "error", err)
		return nil, internalError("Failed to fetch overview data")
	}

	if out.TotalIssues, err = a.source.CountIssues(ctx, models.IssueFilter{}); err != nil {
		return fail(err)
	}
	if out.TotalUsers, err = a.source.CountUsers(ctx, models.UserFilter{Role: models.RoleResident}); err != nil {
		return fail(err)
	}
	if out.TotalComments, err = a.source.CountComments(ctx, models.CommentFilter{}); err != nil {
		return fail(err)
	}
	if out.TotalUpvotes, err = a.source.CountAllUpvotes(ctx); err != nil {
		return fail(err)
	}
	groups, err := a.source.GroupIssues(ctx, "status", models.IssueFilter{})
	if err != nil {
		return fail(err)
	}
	out.StatusDistribution = make(map[string]int64, len(groups))
	for _, g := range groups {
		out.StatusDistribution[g.Key] = g.Count
	}
	if out.RecentIssues, err = a.source.CountIssues(ctx, models.IssueFilter{CreatedFrom: &weekAgo}); err != nil {
		return fail(err)
	}
	if out.RecentComments, err = a.source.CountComments(ctx, models.CommentFilter{CreatedFrom: &weekAgo}); err != nil {
		return fail(err)
	}
	resolved, err := a.source.CountIssues(ctx, models.IssueFilter{Status: string(models.StatusResolved)})
	if err != nil {
		return fail(err)
	}
	out.ResolutionRate = ResolutionRate(resolved, out.TotalIssues)
	return &out, nil
}

func (a *AnalyticsAggregator) IssuesByType(ctx context.Context, p Principal) (*ChartData, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	groups, err := a.source.GroupIssues(ctx, "issue_type", models.IssueFilter{})
	if err != nil {
		slog.Error("analytics issues by type failed", "error", err)
		return nil, internalError("Failed to fetch issues by type data")
	}
	labels := make([]string, len(groups))
	data := make([]int64, len(groups))
	for i, g := range groups {
		labels[i] = g.Key
		data[i] = g.Count
	}
	return &ChartData{
		Labels: labels,
		Datasets: []Dataset{{
			Label:           "Issues by Type",
			Data:            data,
			BackgroundColor: typePalette,
		}},
	}, nil
}

func (a *AnalyticsAggregator) IssuesByStatus(ctx context.Context, p Principal) (*ChartData, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	groups, err := a.source.GroupIssues(ctx, "status", models.IssueFilter{})
	if err != nil {
		slog.Error("analytics issues by status failed", "error", err)
		return nil, internalError("Failed to fetch issues by status data")
	}
	return StatusChart(groups), nil
}

// StatusChart labels each status bucket with its humanized name and color.
func StatusChart(groups []models.GroupCount) *ChartData {
	labels := make([]string, len(groups))
	data := make([]int64, len(groups))
	colors := make([]string, len(groups))
	for i, g := range groups {
		labels[i] = models.HumanizeStatus(g.Key)
		data[i] = g.Count
		colors[i] = models.StatusColor(g.Key)
	}
	return &ChartData{
		Labels: labels,
		Datasets: []Dataset{{
			Label:           "Issues by Status",
			Data:            data,
			BackgroundColor: colors,
		}},
	}
}

func (a *AnalyticsAggregator) ResolutionTime(ctx context.Context, p Principal) (*ResolutionMetrics, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	issues, err := a.source.FindIssues(ctx, models.IssueFilter{
		Status:            string(models.StatusResolved),
		HasResolutionDate: true,
	})
	if err != nil {
		slog.Error("analytics resolution time failed", "error", err)
		return nil, internalError("Failed to fetch resolution time data")
	}
	days := make([]int, 0, len(issues))
	for _, issue := range issues {
		if issue.ActualResolutionDate == nil {
			continue
		}
		days = append(days, ResolutionDays(issue.CreatedAt, *issue.ActualResolutionDate))
	}
	return SummarizeResolution(days), nil
}

// ResolutionDays counts whole days from created to the start of the
// resolution date, rounding toward negative infinity.
func ResolutionDays(created, resolved time.Time) int {
	d := models.Today(resolved).Sub(created.UTC())
	return int(math.Floor(d.Hours() / 24))
}

// SummarizeResolution computes the mean, extremes and histogram of days.
func SummarizeResolution(days []int) *ResolutionMetrics {
	out := &ResolutionMetrics{
		TotalResolved: len(days),
		TimeDistribution: map[string]int64{
			"0-1 days":  0,
			"2-7 days":  0,
			"8-30 days": 0,
			"30+ days":  0,
		},
	}
	if len(days) == 0 {
		return out
	}
	sum := 0
	out.MinDays, out.MaxDays = days[0], days[0]
	for _, d := range days {
		sum += d
		out.MinDays = min(out.MinDays, d)
		out.MaxDays = max(out.MaxDays, d)
		out.TimeDistribution[resolutionBucket(d)]++
	}
	out.AverageDays = Round(float64(sum)/float64(len(days)), 1)
	return out
}

func resolutionBucket(days int) string {
	switch {
	case days <= 1:
		return "0-1 days"
	case days <= 7:
		return "2-7 days"
	case days <= 30:
		return "8-30 days"
	}
	return "30+ days"
}

func (a *AnalyticsAggregator) MonthlyTrends(ctx context.Context, p Principal) (*ChartData, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	year := a.now().UTC().Year()
	labels := make([]string, 0, 12)
	created := make([]int64, 0, 12)
	resolved := make([]int64, 0, 12)

	for month := time.January; month <= time.December; month++ {
		from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		to := from.AddDate(0, 1, 0)

		c, err := a.source.CountIssues(ctx, models.IssueFilter{CreatedFrom: &from, CreatedTo: &to})
		if err != nil {
			slog.Error("analytics monthly trends failed", "error", err, "month", month)
			return nil, internalError("Failed to fetch monthly trends data")
		}
		r, err := a.source.CountIssues(ctx, models.IssueFilter{ResolvedFrom: &from, ResolvedTo: &to})
		if err != nil {
			slog.Error("analytics monthly trends failed", "error", err, "month", month)
			return nil, internalError("Failed to fetch monthly trends data")
		}
		labels = append(labels, month.String())
		created = append(created, c)
		resolved = append(resolved, r)
	}

	return &ChartData{
		Labels: labels,
		Datasets: []Dataset{
			{
				Label:           "Issues Created",
				Data:            created,
				BorderColor:     "#36A2EB",
				BackgroundColor: "rgba(54, 162, 235, 0.1)",
				Tension:         0.1,
			},
			{
				Label:           "Issues Resolved",
				Data:            resolved,
				BorderColor:     "#4BC0C0",
				BackgroundColor: "rgba(75, 192, 192, 0.1)",
				Tension:         0.1,
			},
		},
	}, nil
}

func (a *AnalyticsAggregator) UserActivity(ctx context.Context, p Principal) (*UserActivity, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	reporters, err := a.source.TopReporters(ctx, topActiveUsers)
	if err != nil {
		slog.Error("analytics top reporters failed", "error", err)
		return nil, internalError("Failed to fetch user activity data")
	}
	commenters, err := a.source.TopCommenters(ctx, topActiveUsers)
	if err != nil {
		slog.Error("analytics top commenters failed", "error", err)
		return nil, internalError("Failed to fetch user activity data")
	}

	out := &UserActivity{
		MostActiveReporters:  make([]ActiveUser, 0, len(reporters)),
		MostActiveCommenters: make([]ActiveUser, 0, len(commenters)),
	}
	for _, r := range reporters {
		n := r.Count
		out.MostActiveReporters = append(out.MostActiveReporters, ActiveUser{Name: r.FirstName + " " + r.LastName, IssueCount: &n})
	}
	for _, c := range commenters {
		n := c.Count
		out.MostActiveCommenters = append(out.MostActiveCommenters, ActiveUser{Name: c.FirstName + " " + c.LastName, CommentCount: &n})
	}
	return out, nil
}

func (a *AnalyticsAggregator) Heatmap(ctx context.Context, p Principal) ([]HeatPoint, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	locations, err := a.source.IssueLocations(ctx)
	if err != nil {
		slog.Error("analytics heatmap failed", "error", err)
		return nil, internalError("Failed to fetch heatmap data")
	}
	return BucketLocations(locations), nil
}

// BucketLocations groups coordinates rounded to three decimals. Buckets keep
// the order in which they were first seen.
func BucketLocations(locations []models.Location) []HeatPoint {
	type key struct{ lat, lng float64 }
	index := make(map[key]int)
	points := make([]HeatPoint, 0)
	for _, loc := range locations {
		k := key{Round(loc.Latitude, heatmapDigits), Round(loc.Longitude, heatmapDigits)}
		if i, ok := index[k]; ok {
			points[i].Weight++
			continue
		}
		index[k] = len(points)
		points = append(points, HeatPoint{Lat: k.lat, Lng: k.lng, Weight: 1})
	}
	return points
}

// DashboardStats reports today's activity and the urgent backlog.
func (a *AnalyticsAggregator) DashboardStats(ctx context.Context, p Principal) (*DashboardStats, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	today := models.Today(a.now())
	tomorrow := today.AddDate(0, 0, 1)
	pending := []string{string(models.StatusSubmitted), string(models.StatusVerified)}

	var (
		out DashboardStats
		err error
	)
	fail := func(err error) (*DashboardStats, error) {
		slog.Error("dashboard stats failed", "error", err)
		return nil, internalError("Failed to fetch dashboard stats")
	}
	if out.TodayStats.NewIssues, err = a.source.CountIssues(ctx, models.IssueFilter{CreatedFrom: &today, CreatedTo: &tomorrow}); err != nil {
		return fail(err)
	}
	if out.TodayStats.ResolvedIssues, err = a.source.CountIssues(ctx, models.IssueFilter{
		Status:       string(models.StatusResolved),
		ResolvedFrom: &today,
		ResolvedTo:   &tomorrow,
	}); err != nil {
		return fail(err)
	}
	if out.TodayStats.NewUsers, err = a.source.CountUsers(ctx, models.UserFilter{
		Role:        models.RoleResident,
		CreatedFrom: &today,
		CreatedTo:   &tomorrow,
	}); err != nil {
		return fail(err)
	}
	if out.PendingByPriority.Urgent, err = a.source.CountIssues(ctx, models.IssueFilter{
		Statuses: pending,
		Priority: string(models.PriorityUrgent),
	}); err != nil {
		return fail(err)
	}
	if out.PendingByPriority.High, err = a.source.CountIssues(ctx, models.IssueFilter{
		Statuses: pending,
		Priority: string(models.PriorityHigh),
	}); err != nil {
		return fail(err)
	}
	return &out, nil
}

// GenerateReport builds the requested report. Only issue_summary exists.
func (a *AnalyticsAggregator) GenerateReport(ctx context.Context, p Principal, req ReportRequest) (*Report, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if req.Type == "" {
		return nil, validationError("Report type is required")
	}

	var filter models.IssueFilter
	out := &Report{ReportType: req.Type}
	if raw := nonBlank(req.StartDate); raw != nil {
		start, err := models.ParseDate(*raw)
		if err != nil {
			return nil, validationError("Invalid date format, expected YYYY-MM-DD")
		}
		filter.CreatedFrom = &start
		out.DateRange.StartDate = models.FormatDate(&start)
	}
	if raw := nonBlank(req.EndDate); raw != nil {
		end, err := models.ParseDate(*raw)
		if err != nil {
			return nil, validationError("Invalid date format, expected YYYY-MM-DD")
		}
		until := end.AddDate(0, 0, 1)
		filter.CreatedTo = &until
		out.DateRange.EndDate = models.FormatDate(&end)
	}
	if req.Type != ReportIssueSummary {
		return nil, validationError("Invalid report type")
	}

	issues, err := a.source.FindIssues(ctx, filter)
	if err != nil {
		slog.Error("report generation failed", "error", err, "type", req.Type)
		return nil, internalError("Failed to generate report")
	}
	out.Data = SummarizeIssues(issues)
	return out, nil
}

func SummarizeIssues(issues []models.Issue) IssueSummary {
	s := IssueSummary{
		TotalIssues: len(issues),
		ByStatus:    map[string]int64{},
		ByType:      map[string]int64{},
		ByPriority:  map[string]int64{},
	}
	for _, issue := range issues {
		s.ByStatus[issue.Status]++
		s.ByType[issue.IssueType]++
		s.ByPriority[issue.Priority]++
	}
	return s
}

// ResolutionRate is resolved/total as a percentage with two decimals.
func ResolutionRate(resolved, total int64) float64 {
	if total == 0 {
		return 0
	}
	return Round(float64(resolved)/float64(total)*100, 2)
}

// Round rounds the exact binary value of x to digits decimals, so 2.675
// becomes 2.67.
func Round(x float64, digits int) float64 {
	v, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', digits, 64), 64)
	if err != nil {
		return x
	}
	return v
}
