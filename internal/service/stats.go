package service

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/nuqta-lab/mooda/internal/model"
	"github.com/nuqta-lab/mooda/internal/repository"
)

// 统计口径：
//   - 快路径读计数器缓存（近似值，不支持 locale 过滤）；
//   - 计数器全零（冷缓存）或查历史日期/区间时走慢路径，扫持久日志精确聚合。
// 计数器 TTL 故意超过一天，读到非零只代表“近期有活动”，权威口径以日志为准。

// TotalItem 单个类型的计数与占比
type TotalItem struct {
	MoodType string  `json:"moodType"`
	Count    int64   `json:"count"`
	Percent  float64 `json:"percent"`
}

// TodayStats /stats/today 的兼容响应
type TodayStats struct {
	Totals []TotalItem `json:"totals"`
	Top    []string    `json:"top"`
}

// LiveTotalItem 带表情的实时条目
type LiveTotalItem struct {
	MoodType string  `json:"moodType"`
	Count    int64   `json:"count"`
	Percent  float64 `json:"percent"`
	Emoji    string  `json:"emoji"`
}

// LiveStats 某一 scope 的完整实时快照
type LiveStats struct {
	Scope      string          `json:"scope"` // GLOBAL | COUNTRY
	Country    string          `json:"country,omitempty"`
	Date       string          `json:"date"`
	Totals     []LiveTotalItem `json:"totals"`
	Top        []string        `json:"top"`
	TotalCount int64           `json:"totalCount"`
}

// RangePoint 区间内单日聚合
type RangePoint struct {
	Date       string      `json:"date"`
	Totals     []TotalItem `json:"totals"`
	TotalCount int64       `json:"totalCount"`
}

// RangeStats 周/月/年区间聚合，逐日无空洞
type RangeStats struct {
	Period     string       `json:"period"`
	From       string       `json:"from"`
	To         string       `json:"to"`
	Days       []RangePoint `json:"days"`
	Totals     []TotalItem  `json:"totals"`
	TotalCount int64        `json:"totalCount"`
}

type LeaderboardItem struct {
	Country string  `json:"country"`
	Score   float64 `json:"score"`
	TopMood string  `json:"topMood"`
	Sample  int64   `json:"sample"`
}

type LeaderboardStats struct {
	Date  string            `json:"date"`
	Items []LeaderboardItem `json:"items"`
}

// 区间长度（天）
var rangePeriods = map[string]int{
	"week":  7,
	"month": 30,
	"year":  365,
}

// StatsService 组合计数器快路径与持久日志慢路径
type StatsService struct {
	counters  *CounterStore
	moodRepo  repository.MoodRepository
	minSample int64
	now       func() time.Time // 可注入，测试用
}

func NewStatsService(counters *CounterStore, moodRepo repository.MoodRepository, minSample int64) *StatsService {
	if minSample <= 0 {
		minSample = 100
	}
	return &StatsService{counters: counters, moodRepo: moodRepo, minSample: minSample, now: time.Now}
}

// 统计日界固定用 UTC（守卫日界才用应用时区）
func (s *StatsService) today() string {
	return s.now().UTC().Format("2006-01-02")
}

// Today 当日计数与占比；计数器有值走快路径，否则扫当日日志
func (s *StatsService) Today(ctx context.Context, country, locale string) (*TodayStats, error) {
	counts, err := s.countsFor(ctx, s.today(), country, locale)
	if err != nil {
		return nil, err
	}
	totals, _, _ := buildTotals(counts)
	return &TodayStats{Totals: totals, Top: topMoods(counts, 5)}, nil
}

// Live 当日实时快照：带表情、按计数降序、截取 top-5
func (s *StatsService) Live(ctx context.Context, country, locale string) (*LiveStats, error) {
	return s.liveFor(ctx, s.today(), country, locale)
}

// ByDay 查指定日期。今日委托 Live（可用快路径）；历史日期计数器不可靠，
// 一律走慢路径。
func (s *StatsService) ByDay(ctx context.Context, date, country, locale string) (*LiveStats, error) {
	if date == s.today() {
		return s.Live(ctx, country, locale)
	}
	records, err := s.moodRepo.FindByDay(ctx, date)
	if err != nil {
		return nil, err
	}
	counts := aggregate(records, country, locale)
	return buildLive(counts, country, date), nil
}

// Range 周/月/年区间：[today-n+1, today]，逐日一个点，零提交日也占位
func (s *StatsService) Range(ctx context.Context, period, country, locale string) (*RangeStats, error) {
	n, ok := rangePeriods[strings.ToLower(period)]
	if !ok {
		n = rangePeriods["week"]
		period = "week"
	}
	end := s.now().UTC()
	start := end.AddDate(0, 0, -(n - 1))
	startDay := start.Format("2006-01-02")
	endDay := end.Format("2006-01-02")

	records, err := s.moodRepo.FindByDayRange(ctx, startDay, endDay)
	if err != nil {
		return nil, err
	}

	byDay := make(map[string][]*model.Mood)
	for _, rec := range records {
		byDay[rec.Day] = append(byDay[rec.Day], rec)
	}

	overall := zeroCounts()
	days := make([]RangePoint, 0, n)
	for d := 0; d < n; d++ {
		day := start.AddDate(0, 0, d).Format("2006-01-02")
		counts := aggregate(byDay[day], country, locale)
		for t, c := range counts {
			overall[t] += c
		}
		totals, _, total := buildTotals(counts)
		days = append(days, RangePoint{Date: day, Totals: totals, TotalCount: total})
	}

	totals, _, total := buildTotals(overall)
	return &RangeStats{
		Period:     strings.ToLower(period),
		From:       startDay,
		To:         endDay,
		Days:       days,
		Totals:     totals,
		TotalCount: total,
	}, nil
}

// Leaderboard 扫 key 模式动态发现今日活跃国家，样本不足的剔除（避免
// 单笔提交霸榜），score = 正向类型占比，保留两位小数，降序截断
func (s *StatsService) Leaderboard(ctx context.Context, limit int) (*LeaderboardStats, error) {
	if limit <= 0 {
		limit = 20
	}
	items := make([]LeaderboardItem, 0)
	for _, cc := range s.counters.ActiveCountries(ctx) {
		counts := s.counters.ReadAll(ctx, cc)
		var total, positive int64
		for t, c := range counts {
			total += c
			if model.PositiveMoods[t] {
				positive += c
			}
		}
		if total < s.minSample {
			continue
		}
		score := math.Round(float64(positive)/float64(total)*100) / 100
		items = append(items, LeaderboardItem{
			Country: cc,
			Score:   score,
			TopMood: topMoods(counts, 1)[0],
			Sample:  total,
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Score > items[j].Score })
	if len(items) > limit {
		items = items[:limit]
	}
	return &LeaderboardStats{Date: s.today(), Items: items}, nil
}

func (s *StatsService) liveFor(ctx context.Context, day, country, locale string) (*LiveStats, error) {
	counts, err := s.countsFor(ctx, day, country, locale)
	if err != nil {
		return nil, err
	}
	return buildLive(counts, country, day), nil
}

// countsFor 快路径优先：计数器和大于零直接使用（近似，不按 locale 过滤）；
// 全零回退持久日志精确聚合
func (s *StatsService) countsFor(ctx context.Context, day, country, locale string) (map[model.MoodType]int64, error) {
	cc := strings.ToUpper(strings.TrimSpace(country))
	counts := s.counters.ReadAll(ctx, cc)
	var sum int64
	for _, c := range counts {
		sum += c
	}
	if sum > 0 {
		return counts, nil
	}
	records, err := s.moodRepo.FindByDay(ctx, day)
	if err != nil {
		return nil, err
	}
	return aggregate(records, cc, locale), nil
}

// aggregate 慢路径：按国家相等（忽略大小写）与 locale 前缀过滤后逐条累加
func aggregate(records []*model.Mood, country, locale string) map[model.MoodType]int64 {
	counts := zeroCounts()
	for _, rec := range records {
		if country != "" {
			if rec.Country == nil || !strings.EqualFold(*rec.Country, country) {
				continue
			}
		}
		if locale != "" {
			if rec.Locale == nil || !hasPrefixFold(*rec.Locale, locale) {
				continue
			}
		}
		if t, ok := model.ParseMoodType(rec.MoodType); ok {
			counts[t]++
		}
	}
	return counts
}

func zeroCounts() map[model.MoodType]int64 {
	m := make(map[model.MoodType]int64, len(model.MoodTypes))
	for _, t := range model.MoodTypes {
		m[t] = 0
	}
	return m
}

// buildTotals 枚举序输出全部类型（缺失补零）；百分比截断到一位小数：
// 先算 count*100/total，乘 10 取整再除 10，余数一律向下
func buildTotals(counts map[model.MoodType]int64) ([]TotalItem, map[model.MoodType]float64, int64) {
	var total int64
	for _, c := range counts {
		total += c
	}
	totals := make([]TotalItem, 0, len(model.MoodTypes))
	percents := make(map[model.MoodType]float64, len(model.MoodTypes))
	for _, t := range model.MoodTypes {
		count := counts[t]
		var pct float64
		if total > 0 {
			pct = float64(int64(float64(count)*100/float64(total)*10)) / 10
		}
		percents[t] = pct
		totals = append(totals, TotalItem{MoodType: t.String(), Count: count, Percent: pct})
	}
	return totals, percents, total
}

func buildLive(counts map[model.MoodType]int64, country, date string) *LiveStats {
	_, percents, total := buildTotals(counts)
	items := make([]LiveTotalItem, 0, len(model.MoodTypes))
	for _, t := range model.MoodTypes {
		items = append(items, LiveTotalItem{
			MoodType: t.String(),
			Count:    counts[t],
			Percent:  percents[t],
			Emoji:    t.Emoji(),
		})
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Count > items[j].Count })

	top := make([]string, 0, 5)
	for i := 0; i < len(items) && i < 5; i++ {
		top = append(top, items[i].MoodType)
	}

	scope := "GLOBAL"
	cc := strings.ToUpper(strings.TrimSpace(country))
	if cc != "" {
		scope = "COUNTRY"
	}
	return &LiveStats{
		Scope:      scope,
		Country:    cc,
		Date:       date,
		Totals:     items,
		Top:        top,
		TotalCount: total,
	}
}

// topMoods 计数降序取前 n 个类型名（同数保持枚举序）
func topMoods(counts map[model.MoodType]int64, n int) []string {
	order := make([]model.MoodType, len(model.MoodTypes))
	copy(order, model.MoodTypes)
	sort.SliceStable(order, func(i, j int) bool { return counts[order[i]] > counts[order[j]] })
	if n > len(order) {
		n = len(order)
	}
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, order[i].String())
	}
	return out
}

func hasPrefixFold(s, prefix string) bool {
	if len(s) < len(prefix) {
		return false
	}
	return strings.EqualFold(s[:len(prefix)], prefix)
}
