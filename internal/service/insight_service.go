package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/wellnest/internal/db"
	"github.com/wellnest/internal/locale"
)

const (
	// InsightLoginMessage 未登录时返回的提示
	InsightLoginMessage = "Please log in to get AI insights."
	// InsightNoDataMessage 窗口内没有打卡时返回的鼓励语
	InsightNoDataMessage = "🌱 Start tracking your mood to get personalized AI insights!"
	// InsightEmptyMessage 上游成功但没有文本时的替代文案
	InsightEmptyMessage = "Couldn't generate insights right now. Try again later."
	// InsightFallbackMessage 任意失败时返回的兜底文案
	InsightFallbackMessage = "⚠️ Couldn't generate insights right now. Please try again later."

	insightWindowDays       = 7
	insightRecordLimit      = 10
	defaultInsightMaxTokens = 300
)

var (
	// ErrInsightQuery 表示读取打卡数据失败
	ErrInsightQuery = errors.New("insight: check-in query failed")
	// ErrInsightCompletion 表示补全服务调用失败
	ErrInsightCompletion = errors.New("insight: completion failed")

	energyLabels = [...]string{"Very Low", "Low", "Medium", "High", "Very High"}
)

// InsightStatus 区分正常生成与无数据两种非错误结果
type InsightStatus int

const (
	// InsightGenerated 表示文本来自补全服务
	InsightGenerated InsightStatus = iota
	// InsightNoData 表示窗口内没有打卡
	InsightNoData
)

// InsightInput 描述一次洞察请求
type InsightInput struct {
	UserID uint
	// Language 决定日期的显示格式，空值按 en-US 处理
	Language string
}

// InsightResult 返回给调用方的文本以及少量元数据
type InsightResult struct {
	Suggestion   string
	Status       InsightStatus
	CheckInCount int
	Averages     InsightAverages
}

// InsightAverages 是窗口内的三项平均值
type InsightAverages struct {
	Mood   float64
	Sleep  float64
	Energy float64
}

// CheckInReader 是洞察所需的最小数据读取能力
type CheckInReader interface {
	ListSince(ctx context.Context, userID uint, filter CheckInFilter) ([]db.CheckIn, error)
}

// InsightService 汇总最近 7 天打卡并请求补全服务生成建议。
// 每次调用都会重新查询与请求上游，不做缓存也不做重试。
type InsightService struct {
	checkins   CheckInReader
	completion CompletionClient
	now        func() time.Time
	location   *time.Location
}

// NewInsightService 构造 InsightService
func NewInsightService(checkins CheckInReader, completion CompletionClient) *InsightService {
	return &InsightService{
		checkins:   checkins,
		completion: completion,
		now:        time.Now,
		location:   time.Local,
	}
}

// SetClock 覆盖当前时间来源，主要用于测试。
func (s *InsightService) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.now = now
}

// SetLocation 指定渲染日期使用的时区。
func (s *InsightService) SetLocation(loc *time.Location) {
	if loc == nil {
		loc = time.Local
	}
	s.location = loc
}

// Generate 执行完整的洞察流程。
// 无数据时返回 InsightNoData 且不调用补全服务；查询或上游失败时返回错误，
// 由调用方统一转换为兜底文案。
func (s *InsightService) Generate(ctx context.Context, input InsightInput) (InsightResult, error) {
	since := s.now().AddDate(0, 0, -insightWindowDays)

	records, err := s.checkins.ListSince(ctx, input.UserID, CheckInFilter{Since: since, Limit: insightRecordLimit})
	if err != nil {
		return InsightResult{}, fmt.Errorf("%w: %w", ErrInsightQuery, err)
	}
	if len(records) > insightRecordLimit {
		records = records[:insightRecordLimit]
	}

	if len(records) == 0 {
		return InsightResult{Suggestion: InsightNoDataMessage, Status: InsightNoData}, nil
	}

	digest := BuildInsightDigest(records, input.Language, s.location)
	averages := ComputeInsightAverages(records)
	prompt := BuildInsightPrompt(digest, averages)
	logAIExchange("INSIGHT", "prompt", prompt)

	resp, err := s.completion.Complete(ctx, CompletionRequest{
		Messages:  []CompletionMessage{{Role: "user", Content: prompt}},
		MaxTokens: defaultInsightMaxTokens,
	})
	if err != nil {
		return InsightResult{}, fmt.Errorf("%w: %w", ErrInsightCompletion, err)
	}

	suggestion := strings.TrimSpace(resp.Text)
	logAIExchange("INSIGHT", "response", suggestion)
	if suggestion == "" {
		suggestion = InsightEmptyMessage
	}

	return InsightResult{
		Suggestion:   suggestion,
		Status:       InsightGenerated,
		CheckInCount: len(records),
		Averages:     averages,
	}, nil
}

// EnergyLabel 将 1–5 的精力值映射为文字标签，超出范围返回 Unknown。
func EnergyLabel(level int) string {
	if level < 1 || level > len(energyLabels) {
		return "Unknown"
	}
	return energyLabels[level-1]
}

// BuildInsightDigest 每条记录渲染一行，顺序与输入一致。
func BuildInsightDigest(records []db.CheckIn, language string, loc *time.Location) string {
	lines := make([]string, 0, len(records))
	for _, record := range records {
		var line strings.Builder
		line.WriteString(locale.FormatDate(record.CreatedAt, language, loc))
		fmt.Fprintf(&line, ": Mood %d/5, Energy %s, Sleep %shrs",
			record.MoodScore, EnergyLabel(record.EnergyLevel), formatHours(record.SleepHours))
		if record.HasNote() {
			line.WriteString(", Notes: ")
			line.WriteString(*record.Notes)
		}
		lines = append(lines, line.String())
	}
	return strings.Join(lines, "\n")
}

// ComputeInsightAverages 计算算术平均并保留一位小数。
func ComputeInsightAverages(records []db.CheckIn) InsightAverages {
	if len(records) == 0 {
		return InsightAverages{}
	}

	var mood, sleep, energy float64
	for _, record := range records {
		mood += float64(record.MoodScore)
		sleep += record.SleepHours
		energy += float64(record.EnergyLevel)
	}
	n := float64(len(records))
	return InsightAverages{
		Mood:   roundOneDecimal(mood / n),
		Sleep:  roundOneDecimal(sleep / n),
		Energy: roundOneDecimal(energy / n),
	}
}

// BuildInsightPrompt 将摘要与平均值填入固定模板。
func BuildInsightPrompt(digest string, averages InsightAverages) string {
	return fmt.Sprintf(`You are a warm, supportive wellness coach. Analyze this user's recent wellness data and provide encouraging insights.

Recent Check-ins (Last 7 Days):
%s

Averages: Mood %s/5, Energy %s/5, Sleep %shrs

Provide:
1. A warm observation about their patterns (2 sentences)
2. 2-3 short, actionable suggestions to improve their wellbeing
3. Encouraging closing words

Keep it friendly, concise (4-5 sentences total), and use 1-2 relevant emojis. Focus on small wins and practical steps.`,
		digest,
		formatOneDecimal(averages.Mood),
		formatOneDecimal(averages.Energy),
		formatOneDecimal(averages.Sleep),
	)
}

// roundOneDecimal 采用四舍五入（.x5 向上），与前端 toFixed 的显示一致。
func roundOneDecimal(v float64) float64 {
	return math.Floor(v*10+0.5) / 10
}

func formatOneDecimal(v float64) string {
	return strconv.FormatFloat(roundOneDecimal(v), 'f', 1, 64)
}

func formatHours(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
