package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wellnest/internal/db"
)

type memoryCheckInReader struct {
	records []db.CheckIn
	err     error
	start   time.Time
	end     time.Time
}

func (m *memoryCheckInReader) ListBetween(_ context.Context, _ uint, start, end time.Time) ([]db.CheckIn, error) {
	m.start, m.end = start, end
	if m.err != nil {
		return nil, m.err
	}
	var out []db.CheckIn
	for _, record := range m.records {
		if !record.CreatedAt.Before(start) && record.CreatedAt.Before(end) {
			out = append(out, record)
		}
	}
	return out, nil
}

func TestAnalyticsSummaryWeek(t *testing.T) {
	// 2025-06-11 是周三
	now := time.Date(2025, 6, 11, 20, 0, 0, 0, time.UTC)
	reader := &memoryCheckInReader{records: []db.CheckIn{
		{CreatedAt: now.AddDate(0, 0, -20), MoodScore: 1, EnergyLevel: 1, SleepHours: 3},
		{CreatedAt: now.AddDate(0, 0, -2), MoodScore: 4, EnergyLevel: 2, SleepHours: 5},
		{CreatedAt: now.AddDate(0, 0, -1), MoodScore: 6, EnergyLevel: 3, SleepHours: 7},
		{CreatedAt: now.Add(-3 * time.Hour), MoodScore: 8, EnergyLevel: 4, SleepHours: 8},
		{CreatedAt: now.Add(-time.Hour), MoodScore: 9, EnergyLevel: 5, SleepHours: 9},
	}}

	svc := NewAnalyticsService(reader)
	svc.SetClock(fixedClock(now))
	svc.SetLocation(time.UTC)

	summary, err := svc.Summary(context.Background(), 1, AnalyticsRangeWeek)
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}

	if len(summary.Buckets) != 7 {
		t.Fatalf("expected 7 buckets, got %d", len(summary.Buckets))
	}
	if !summary.Start.Equal(time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected range start %v", summary.Start)
	}
	last := summary.Buckets[6]
	if last.Label != "Wed" || last.Count != 2 || last.AvgMood != 8.5 || last.AvgSleep != 8.5 || last.AvgEnergy != 4.5 {
		t.Fatalf("unexpected today bucket: %+v", last)
	}
	if summary.Buckets[0].Count != 0 || summary.Buckets[0].AvgMood != 0 {
		t.Fatalf("expected empty first bucket, got %+v", summary.Buckets[0])
	}

	if summary.Totals.CheckIns != 4 {
		t.Fatalf("expected 4 check-ins in range, got %d", summary.Totals.CheckIns)
	}
	if summary.Totals.AvgMood != 6.8 || summary.Totals.AvgSleep != 7.3 || summary.Totals.AvgEnergy != 3.5 {
		t.Fatalf("unexpected totals: %+v", summary.Totals)
	}
	if summary.Totals.CurrentStreak != 3 {
		t.Fatalf("expected streak 3, got %d", summary.Totals.CurrentStreak)
	}
	if len(summary.SleepMood) != 4 {
		t.Fatalf("expected 4 sleep/mood points, got %d", len(summary.SleepMood))
	}
	if summary.Correlation == nil || *summary.Correlation < 0.9 {
		t.Fatalf("expected strong positive correlation, got %v", summary.Correlation)
	}
	if reader.start.After(now.AddDate(0, 0, -streakLookbackDays)) {
		t.Fatalf("expected reader to look back for streaks, started at %v", reader.start)
	}
}

func TestAnalyticsSummaryMonthAndYearBuckets(t *testing.T) {
	now := time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC)
	reader := &memoryCheckInReader{records: []db.CheckIn{
		{CreatedAt: time.Date(2024, 7, 3, 9, 0, 0, 0, time.UTC), MoodScore: 5, EnergyLevel: 3, SleepHours: 7},
		{CreatedAt: time.Date(2025, 6, 9, 9, 0, 0, 0, time.UTC), MoodScore: 7, EnergyLevel: 3, SleepHours: 7},
	}}
	svc := NewAnalyticsService(reader)
	svc.SetClock(fixedClock(now))
	svc.SetLocation(time.UTC)

	month, err := svc.Summary(context.Background(), 1, AnalyticsRangeMonth)
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}
	for _, bucket := range month.Buckets {
		if bucket.Start.Weekday() != time.Monday {
			t.Fatalf("month buckets should start on Monday, got %v", bucket.Start)
		}
	}
	lastWeek := month.Buckets[len(month.Buckets)-1]
	if !lastWeek.Start.Equal(time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)) || lastWeek.Count != 1 {
		t.Fatalf("unexpected last month bucket: %+v", lastWeek)
	}
	if month.Correlation != nil {
		t.Fatalf("expected nil correlation for a single point, got %v", *month.Correlation)
	}

	year, err := svc.Summary(context.Background(), 1, AnalyticsRangeYear)
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}
	if len(year.Buckets) != 12 {
		t.Fatalf("expected 12 buckets, got %d", len(year.Buckets))
	}
	if year.Buckets[0].Label != "Jul 2024" || year.Buckets[0].Count != 1 {
		t.Fatalf("unexpected first year bucket: %+v", year.Buckets[0])
	}
	if year.Buckets[11].Label != "Jun 2025" || year.Totals.CheckIns != 2 {
		t.Fatalf("unexpected year summary: %+v", year.Buckets[11])
	}
}

func TestAnalyticsSummaryReaderError(t *testing.T) {
	svc := NewAnalyticsService(&memoryCheckInReader{err: errors.New("boom")})
	if _, err := svc.Summary(context.Background(), 1, AnalyticsRangeWeek); err == nil {
		t.Fatal("expected error")
	}
}

func TestParseAnalyticsRange(t *testing.T) {
	cases := map[string]AnalyticsRange{"": AnalyticsRangeWeek, "WEEK": AnalyticsRangeWeek, "month": AnalyticsRangeMonth, " year ": AnalyticsRangeYear}
	for raw, want := range cases {
		got, err := ParseAnalyticsRange(raw)
		if err != nil || got != want {
			t.Fatalf("ParseAnalyticsRange(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseAnalyticsRange("decade"); !errors.Is(err, ErrAnalyticsRangeInvalid) {
		t.Fatalf("expected ErrAnalyticsRangeInvalid, got %v", err)
	}
}

func TestPearsonCorrelation(t *testing.T) {
	if got := PearsonCorrelation([]float64{1}, []float64{2}); got != nil {
		t.Fatalf("expected nil for single point, got %v", *got)
	}
	if got := PearsonCorrelation([]float64{7, 7, 7}, []float64{1, 2, 3}); got != nil {
		t.Fatalf("expected nil for zero variance, got %v", *got)
	}
	if got := PearsonCorrelation([]float64{1, 2, 3}, []float64{3, 2, 1}); got == nil || *got != -1 {
		t.Fatalf("expected -1, got %v", got)
	}
	if got := PearsonCorrelation([]float64{1, 2, 3, 4}, []float64{2, 4, 6, 8}); got == nil || *got != 1 {
		t.Fatalf("expected 1, got %v", got)
	}
}
