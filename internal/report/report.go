package report

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
	"text/template"
	"time"

	"github.com/viralops/viralfinder/internal/credential"
	"github.com/viralops/viralfinder/internal/storage"
)

// PlatformStats aggregates the discovered items of one platform.
type PlatformStats struct {
	Count           int     `json:"count"`
	TotalEngagement float64 `json:"total_engagement"`
	AvgEngagement   float64 `json:"avg_engagement"`
	TotalViews      int64   `json:"total_views"`
	TotalLikes      int64   `json:"total_likes"`
}

// Histogram buckets items by engagement tier.
type Histogram struct {
	High   int `json:"high"`   // score >= 50
	Medium int `json:"medium"` // 20 <= score < 50
	Low    int `json:"low"`    // score < 20
}

// TopItem is one row of the top-performers list.
type TopItem struct {
	PageURL         string  `json:"page_url"`
	Platform        string  `json:"platform"`
	EngagementScore float64 `json:"engagement_score"`
	ResolvedBy      string  `json:"resolved_by"`
}

// Summary contains aggregated metrics about one discovery run.
type Summary struct {
	Query         string                             `json:"query"`
	TotalItems    int                                `json:"total_items"`
	ViralItems    int                                `json:"viral_items"`
	Platforms     map[string]*PlatformStats          `json:"platforms"`
	ResolvedBy    map[string]int                     `json:"resolved_by"`
	Histogram     Histogram                          `json:"histogram"`
	TopItems      []TopItem                          `json:"top_items"`
	Credentials   map[string][]credential.SlotHealth `json:"credentials,omitempty"`
	StartTime     time.Time                          `json:"start_time"`
	EndTime       time.Time                          `json:"end_time"`
	Duration      time.Duration                      `json:"duration"`
	DurationHuman string                             `json:"duration_human"`
}

const (
	highTier = 50.0
	midTier  = 20.0
	topCount = 5
)

// GenerateSummary aggregates a run's items into a Summary. minEngagement is
// the score at or above which an item counts as viral.
func GenerateSummary(query string, items []*storage.Item, minEngagement float64, start, end time.Time) Summary {
	s := Summary{
		Query:      query,
		Platforms:  make(map[string]*PlatformStats),
		ResolvedBy: make(map[string]int),
		StartTime:  start,
		EndTime:    end,
	}
	s.Duration = end.Sub(start)
	s.DurationHuman = s.Duration.Round(time.Millisecond).String()

	for _, it := range items {
		s.TotalItems++
		if it.EngagementScore >= minEngagement {
			s.ViralItems++
		}

		ps := s.Platforms[it.Platform]
		if ps == nil {
			ps = &PlatformStats{}
			s.Platforms[it.Platform] = ps
		}
		ps.Count++
		ps.TotalEngagement += it.EngagementScore
		ps.TotalViews += it.Views
		ps.TotalLikes += it.Likes

		s.ResolvedBy[it.ResolvedBy]++

		switch {
		case it.EngagementScore >= highTier:
			s.Histogram.High++
		case it.EngagementScore >= midTier:
			s.Histogram.Medium++
		default:
			s.Histogram.Low++
		}
	}

	for _, ps := range s.Platforms {
		ps.AvgEngagement = round2(ps.TotalEngagement / float64(ps.Count))
		ps.TotalEngagement = round2(ps.TotalEngagement)
	}

	sorted := make([]*storage.Item, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EngagementScore > sorted[j].EngagementScore
	})
	for i := 0; i < len(sorted) && i < topCount; i++ {
		s.TopItems = append(s.TopItems, TopItem{
			PageURL:         sorted[i].PageURL,
			Platform:        sorted[i].Platform,
			EngagementScore: sorted[i].EngagementScore,
			ResolvedBy:      sorted[i].ResolvedBy,
		})
	}

	return s
}

// WithCredentials attaches the end-of-run credential health snapshot.
func (s Summary) WithCredentials(snapshot map[string][]credential.SlotHealth) Summary {
	s.Credentials = snapshot
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	const textTmpl = `Viral Content Discovery Summary
-------------------------------
Query:         {{.Query}}
Time:          {{.StartTime.Format "2006-01-02 15:04:05"}} - {{.EndTime.Format "2006-01-02 15:04:05"}}
Duration:      {{.DurationHuman}}
Total Items:   {{.TotalItems}}
Viral Items:   {{.ViralItems}}

Engagement Tiers:
  high:   {{.Histogram.High}}
  medium: {{.Histogram.Medium}}
  low:    {{.Histogram.Low}}

Platforms:
{{- range $name, $stats := .Platforms}}
  {{$name}}: {{$stats.Count}} items, avg score {{$stats.AvgEngagement}}, {{$stats.TotalViews}} views
{{- else}}
  None
{{- end}}

Resolved By:
{{- range $strategy, $count := .ResolvedBy}}
  {{$strategy}}: {{$count}}
{{- else}}
  None
{{- end}}

Top Performers:
{{- range .TopItems}}
  {{.EngagementScore}} [{{.Platform}}] {{.PageURL}}
{{- else}}
  None
{{- end}}
{{- if .Credentials}}

Credential Health:
{{- range $cat, $slots := .Credentials}}
  {{$cat}}:
{{- range $slots}}
    slot {{.Slot}}: score {{.PerformanceScore}}{{if .Blacklisted}} (cooling down){{end}}
{{- end}}
{{- end}}
{{- end}}
`

	t, err := template.New("textReport").Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("parse text template: %w", err)
	}
	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("render text summary: %w", err)
	}
	return nil
}
