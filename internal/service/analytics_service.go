package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/wellnest/internal/db"
)

// AnalyticsRange 是统计页支持的时间范围
type AnalyticsRange string

const (
	AnalyticsRangeWeek  AnalyticsRange = "week"
	AnalyticsRangeMonth AnalyticsRange = "month"
	AnalyticsRangeYear  AnalyticsRange = "year"

	streakLookbackDays = 366
)

// ErrAnalyticsRangeInvalid 在范围参数无法识别时返回
var ErrAnalyticsRangeInvalid = errors.New("invalid analytics range")

// ParseAnalyticsRange 解析查询参数，空值视为 week
func ParseAnalyticsRange(raw string) (AnalyticsRange, error) {
	switch AnalyticsRange(strings.ToLower(strings.TrimSpace(raw))) {
	case "", AnalyticsRangeWeek:
		return AnalyticsRangeWeek, nil
	case AnalyticsRangeMonth:
		return AnalyticsRangeMonth, nil
	case AnalyticsRangeYear:
		return AnalyticsRangeYear, nil
	}
	return "", fmt.Errorf("%w: %s", ErrAnalyticsRangeInvalid, raw)
}

// AnalyticsBucket 是一个时间桶内的平均值
type AnalyticsBucket struct {
	Start     time.Time
	Label     string
	AvgMood   float64
	AvgSleep  float64
	AvgEnergy float64
	Count     int
}

// SleepMoodPoint 是相关性散点图的一个点
type SleepMoodPoint struct {
	Date       time.Time
	SleepHours float64
	MoodScore  int
}

// AnalyticsTotals 汇总整个区间
type AnalyticsTotals struct {
	CheckIns      int
	AvgMood       float64
	AvgSleep      float64
	AvgEnergy     float64
	CurrentStreak int
}

// AnalyticsSummary 是统计页所需的全部数据
type AnalyticsSummary struct {
	Range     AnalyticsRange
	Start     time.Time
	End       time.Time
	Buckets   []AnalyticsBucket
	SleepMood []SleepMoodPoint
	// Correlation 为 nil 表示数据不足以计算
	Correlation *float64
	Totals      AnalyticsTotals
}

// CheckInRangeReader 读取区间内的打卡，结果按时间正序
type CheckInRangeReader interface {
	ListBetween(ctx context.Context, userID uint, start, end time.Time) ([]db.CheckIn, error)
}

// AnalyticsService 根据打卡记录计算趋势与相关性
type AnalyticsService struct {
	checkins CheckInRangeReader
	now      func() time.Time
	location *time.Location
}

// NewAnalyticsService 创建 AnalyticsService
func NewAnalyticsService(checkins CheckInRangeReader) *AnalyticsService {
	return &AnalyticsService{checkins: checkins, now: time.Now, location: time.Local}
}

// SetClock 覆盖当前时间来源，主要用于测试。
func (s *AnalyticsService) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.now = now
}

// SetLocation 指定按天分桶使用的时区。
func (s *AnalyticsService) SetLocation(loc *time.Location) {
	if loc == nil {
		loc = time.Local
	}
	s.location = loc
}

// Summary 计算指定范围内的统计
func (s *AnalyticsService) Summary(ctx context.Context, userID uint, rng AnalyticsRange) (*AnalyticsSummary, error) {
	now := s.now().In(s.location)
	today := normalizeToDate(now)
	tomorrow := today.AddDate(0, 0, 1)

	starts := bucketStarts(rng, today)
	if len(starts) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrAnalyticsRangeInvalid, rng)
	}
	rangeStart := starts[0]

	fetchStart := today.AddDate(0, 0, -streakLookbackDays)
	if rangeStart.Before(fetchStart) {
		fetchStart = rangeStart
	}
	records, err := s.checkins.ListBetween(ctx, userID, fetchStart, tomorrow)
	if err != nil {
		return nil, fmt.Errorf("analytics summary: %w", err)
	}

	summary := &AnalyticsSummary{
		Range:     rng,
		Start:     rangeStart,
		End:       tomorrow,
		SleepMood: make([]SleepMoodPoint, 0),
	}

	accumulators := make([]bucketAccumulator, len(starts))
	var totalMood, totalSleep, totalEnergy float64
	days := make([]time.Time, 0, len(records))
	sleeps := make([]float64, 0)
	moods := make([]float64, 0)

	for _, record := range records {
		local := record.CreatedAt.In(s.location)
		days = append(days, normalizeToDate(local))
		if local.Before(rangeStart) {
			continue
		}

		idx := bucketIndex(starts, local)
		accumulators[idx].add(record)

		totalMood += float64(record.MoodScore)
		totalSleep += record.SleepHours
		totalEnergy += float64(record.EnergyLevel)
		summary.Totals.CheckIns++

		summary.SleepMood = append(summary.SleepMood, SleepMoodPoint{
			Date:       local,
			SleepHours: record.SleepHours,
			MoodScore:  record.MoodScore,
		})
		sleeps = append(sleeps, record.SleepHours)
		moods = append(moods, float64(record.MoodScore))
	}

	summary.Buckets = make([]AnalyticsBucket, len(starts))
	for i, start := range starts {
		summary.Buckets[i] = accumulators[i].bucket(start, bucketLabel(rng, start))
	}

	if n := float64(summary.Totals.CheckIns); n > 0 {
		summary.Totals.AvgMood = roundOneDecimal(totalMood / n)
		summary.Totals.AvgSleep = roundOneDecimal(totalSleep / n)
		summary.Totals.AvgEnergy = roundOneDecimal(totalEnergy / n)
	}
	summary.Totals.CurrentStreak, _ = calculateStreaks(days, today)
	summary.Correlation = PearsonCorrelation(sleeps, moods)

	return summary, nil
}

// PearsonCorrelation 计算两组数据的皮尔逊相关系数，保留两位小数。
// 少于两个点或任一方差为零时返回 nil。
func PearsonCorrelation(xs, ys []float64) *float64 {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return nil
	}

	var sumX, sumY float64
	for i := 0; i < n; i++ {
		sumX += xs[i]
		sumY += ys[i]
	}
	meanX := sumX / float64(n)
	meanY := sumY / float64(n)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx := xs[i] - meanX
		dy := ys[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return nil
	}

	r := math.Round(cov/math.Sqrt(varX*varY)*100) / 100
	return &r
}

type bucketAccumulator struct {
	mood, sleep, energy float64
	count               int
}

func (a *bucketAccumulator) add(record db.CheckIn) {
	a.mood += float64(record.MoodScore)
	a.sleep += record.SleepHours
	a.energy += float64(record.EnergyLevel)
	a.count++
}

func (a bucketAccumulator) bucket(start time.Time, label string) AnalyticsBucket {
	bucket := AnalyticsBucket{Start: start, Label: label, Count: a.count}
	if a.count > 0 {
		n := float64(a.count)
		bucket.AvgMood = roundOneDecimal(a.mood / n)
		bucket.AvgSleep = roundOneDecimal(a.sleep / n)
		bucket.AvgEnergy = roundOneDecimal(a.energy / n)
	}
	return bucket
}

// bucketStarts 返回升序的桶起点：week 为最近 7 天，month 为覆盖最近 30 天的
// 周一起点，year 为最近 12 个自然月。
func bucketStarts(rng AnalyticsRange, today time.Time) []time.Time {
	var starts []time.Time
	switch rng {
	case AnalyticsRangeWeek:
		for i := 6; i >= 0; i-- {
			starts = append(starts, today.AddDate(0, 0, -i))
		}
	case AnalyticsRangeMonth:
		first := weekStart(today.AddDate(0, 0, -29))
		for day := first; !day.After(today); day = day.AddDate(0, 0, 7) {
			starts = append(starts, day)
		}
	case AnalyticsRangeYear:
		month := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		for i := 11; i >= 0; i-- {
			starts = append(starts, month.AddDate(0, -i, 0))
		}
	}
	return starts
}

func bucketIndex(starts []time.Time, t time.Time) int {
	idx := 0
	for i, start := range starts {
		if t.Before(start) {
			break
		}
		idx = i
	}
	return idx
}

func weekStart(day time.Time) time.Time {
	offset := (int(day.Weekday()) + 6) % 7
	return normalizeToDate(day).AddDate(0, 0, -offset)
}

func bucketLabel(rng AnalyticsRange, start time.Time) string {
	switch rng {
	case AnalyticsRangeWeek:
		return start.Format("Mon")
	case AnalyticsRangeYear:
		return start.Format("Jan 2006")
	default:
		return start.Format("Jan 2")
	}
}
