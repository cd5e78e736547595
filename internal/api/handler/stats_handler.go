package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nuqta-lab/mooda/internal/service"
	"github.com/nuqta-lab/mooda/pkg/response"
)

// queryCountry 归一化 country 参数；非法值直接写 400 并返回 false
func (h *Handler) queryCountry(c *gin.Context) (string, bool) {
	raw := c.Query("country")
	if raw == "" {
		return "", true
	}
	cc, err := h.countries.Normalize(raw)
	if err != nil {
		response.BadRequest(c, service.ErrInvalidCountry.Error())
		return "", false
	}
	return cc, true
}

// StatsToday 当日统计
// @Summary 当日各类型计数与占比
// @Tags stats
// @Produce json
// @Param country query string false "国家码"
// @Param locale query string false "locale 前缀过滤（仅慢路径生效）"
// @Success 200 {object} response.Response{data=service.TodayStats}
// @Router /api/v1/stats/today [get]
func (h *Handler) StatsToday(c *gin.Context) {
	cc, ok := h.queryCountry(c)
	if !ok {
		return
	}
	c.Header("Cache-Control", "public, max-age=1, stale-while-revalidate=5")
	stats, err := h.stats.Today(c.Request.Context(), cc, c.Query("locale"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, stats)
}

// StatsLive 实时快照
// @Summary 当日实时快照（带表情与 top-5）
// @Tags stats
// @Produce json
// @Param country query string false "国家码"
// @Param locale query string false "locale 前缀过滤（仅慢路径生效）"
// @Success 200 {object} response.Response{data=service.LiveStats}
// @Router /api/v1/stats/live [get]
func (h *Handler) StatsLive(c *gin.Context) {
	cc, ok := h.queryCountry(c)
	if !ok {
		return
	}
	c.Header("Cache-Control", "public, max-age=1, stale-while-revalidate=5")
	stats, err := h.stats.Live(c.Request.Context(), cc, c.Query("locale"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, stats)
}

// StatsByDay 指定日期统计
// @Summary 指定日期的快照（历史日期走持久日志）
// @Tags stats
// @Produce json
// @Param date path string true "YYYY-MM-DD"
// @Param country query string false "国家码"
// @Success 200 {object} response.Response{data=service.LiveStats}
// @Router /api/v1/stats/day/{date} [get]
func (h *Handler) StatsByDay(c *gin.Context) {
	date := c.Param("date")
	if _, err := time.Parse("2006-01-02", date); err != nil {
		response.BadRequest(c, "invalid date, expected YYYY-MM-DD")
		return
	}
	cc, ok := h.queryCountry(c)
	if !ok {
		return
	}
	stats, err := h.stats.ByDay(c.Request.Context(), date, cc, c.Query("locale"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, stats)
}

// StatsRange 区间统计
// @Summary 周/月/年区间的逐日聚合
// @Tags stats
// @Produce json
// @Param period path string true "week|month|year"
// @Param country query string false "国家码"
// @Success 200 {object} response.Response{data=service.RangeStats}
// @Router /api/v1/stats/range/{period} [get]
func (h *Handler) StatsRange(c *gin.Context) {
	cc, ok := h.queryCountry(c)
	if !ok {
		return
	}
	stats, err := h.stats.Range(c.Request.Context(), c.Param("period"), cc, c.Query("locale"))
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, stats)
}

// Leaderboard 国家排行榜
// @Summary 今日活跃国家按正向心情占比排行
// @Tags stats
// @Produce json
// @Param limit query int false "条数上限" default(20)
// @Success 200 {object} response.Response{data=service.LeaderboardStats}
// @Router /api/v1/stats/leaderboard [get]
func (h *Handler) Leaderboard(c *gin.Context) {
	limit := 20
	if v, ok := c.GetQuery("limit"); ok {
		if n, err := atoiSafe(v); err == nil {
			limit = n
		}
	}
	c.Header("Cache-Control", "public, max-age=2, stale-while-revalidate=8")
	stats, err := h.stats.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, stats)
}

func atoiSafe(s string) (int, error) { return strconv.Atoi(s) }
