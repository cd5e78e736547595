package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nuqta-lab/mooda/internal/service"
	"github.com/nuqta-lab/mooda/pkg/response"
)

// ShareToday 分享卡片
// @Summary 渲染当日 top-5 的 SVG 分享卡
// @Tags share
// @Produce image/svg+xml
// @Param country query string false "国家码"
// @Success 200 {string} string "SVG"
// @Router /api/v1/share/today.svg [get]
func (h *Handler) ShareToday(c *gin.Context) {
	cc, ok := h.queryCountry(c)
	if !ok {
		return
	}
	stats, err := h.stats.Live(c.Request.Context(), cc, "")
	if err != nil {
		response.InternalError(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=30, stale-while-revalidate=60")
	c.Data(http.StatusOK, "image/svg+xml", []byte(renderShareCard(stats)))
}

// renderShareCard 纯文本拼 SVG，避免模板依赖
func renderShareCard(stats *service.LiveStats) string {
	const (
		width        = 1000
		padding      = 24
		rowHeight    = 48
		headerHeight = 80
		footerHeight = 40
	)

	rows := stats.Totals
	if len(rows) > 5 {
		rows = rows[:5]
	}
	height := headerHeight + len(rows)*(rowHeight+12) + footerHeight + padding

	title := "How the world feels today"
	if stats.Scope == "COUNTRY" {
		title = fmt.Sprintf("How %s feels today", stats.Country)
	}

	maxPercent := 1.0
	for _, r := range rows {
		if r.Percent > maxPercent {
			maxPercent = r.Percent
		}
	}

	var bars strings.Builder
	y := headerHeight
	for _, item := range rows {
		barW := int(float64(width-padding*2-220) * (item.Percent / maxPercent))
		yCenter := y + rowHeight - 18
		fmt.Fprintf(&bars, `<g>
  <text x="%d" y="%d" font-size="24">%s</text>
  <text x="%d" y="%d" font-size="18" fill="#111">%s</text>
  <rect x="%d" y="%d" width="%d" height="24" rx="12" fill="#6EE7B7"/>
  <text x="%d" y="%d" font-size="16" fill="#333">%.1f%%</text>
</g>
`,
			padding, yCenter, item.Emoji,
			padding+36, yCenter, item.MoodType,
			padding+200, yCenter-18, barW,
			padding+200+barW+8, yCenter, item.Percent,
		)
		y += rowHeight + 12
	}

	return fmt.Sprintf(`<svg xmlns='http://www.w3.org/2000/svg' width='%d' height='%d' viewBox='0 0 %d %d'>
  <defs>
    <linearGradient id='bg' x1='0' x2='1' y1='0' y2='1'>
      <stop offset='0%%' stop-color='#F0FDFA'/>
      <stop offset='100%%' stop-color='#F9FAFB'/>
    </linearGradient>
  </defs>
  <rect width='100%%' height='100%%' fill='url(#bg)'/>
  <text x='%d' y='48' font-size='28' font-weight='700' fill='#111'>%s</text>
  <text x='%d' y='72' font-size='16' fill='#555'>Total: %d</text>
  %s
  <text x='%d' y='%d' font-size='14' fill='#777'>mooda.app • %s</text>
</svg>`,
		width, height, width, height,
		padding, title,
		padding, stats.TotalCount,
		bars.String(),
		padding, height-padding, stats.Date,
	)
}
