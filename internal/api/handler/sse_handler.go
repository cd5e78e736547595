package handler

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nuqta-lab/mooda/pkg/response"
)

// SSELive 认证用户的实时推送
// @Summary 订阅某 scope 的实时统计推送（SSE）
// @Tags sse
// @Produce text/event-stream
// @Param country query string false "国家码，缺省 GLOBAL"
// @Param token query string false "访问令牌（也接受 Authorization 头或 cookie）"
// @Success 200 {string} string "event stream"
// @Failure 401 {object} response.Response
// @Router /api/v1/sse/live [get]
func (h *Handler) SSELive(c *gin.Context) {
	if _, err := h.verifier.Verify(h.bearerToken(c)); err != nil {
		response.Unauthorized(c, "unauthorized")
		return
	}
	scope := "GLOBAL"
	if cc, ok := h.queryCountry(c); !ok {
		return
	} else if cc != "" {
		scope = cc
	}
	h.streamScope(c, scope)
}

// SSEPublic 免认证的 GLOBAL 推送（仅软限速防重连风暴）
// @Summary 订阅全局实时统计推送（SSE，免认证）
// @Tags sse
// @Produce text/event-stream
// @Success 200 {string} string "event stream"
// @Router /api/v1/sse/public [get]
func (h *Handler) SSEPublic(c *gin.Context) {
	h.streamScope(c, "GLOBAL")
}

func (h *Handler) bearerToken(c *gin.Context) string {
	if v := c.Query("token"); v != "" {
		return v
	}
	if hdr := c.GetHeader("Authorization"); strings.HasPrefix(hdr, "Bearer ") {
		return strings.TrimPrefix(hdr, "Bearer ")
	}
	for _, name := range []string{"accessToken", "mooda_access"} {
		if v, err := c.Cookie(name); err == nil && v != "" {
			return v
		}
	}
	return ""
}

// streamScope 先补 last 快照（断线重连不做事件回放，以快照兜底），
// 然后持续转发本地 Broadcaster 的事件并按周期发心跳
func (h *Handler) streamScope(c *gin.Context, scope string) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache, no-transform")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ctx := c.Request.Context()
	events := h.broadcaster.Stream(ctx, scope)

	if snap, err := h.moods.LastSnapshot(ctx, scope); err == nil && snap != "" {
		writeSSE(c, "stats", snap)
	}

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			writeSSE(c, ev.Type, ev.Data)
		case <-heartbeat.C:
			writeSSE(c, "ping", "")
		}
	}
}

func writeSSE(c *gin.Context, event, data string) {
	c.SSEvent(event, data)
	c.Writer.Flush()
}

// Subscribers 订阅数（可观测性）
// @Summary 某 scope 的当前订阅者数量
// @Tags sse
// @Produce json
// @Param scope query string false "GLOBAL 或国家码；缺省统计全部"
// @Success 200 {object} response.Response
// @Router /api/v1/sse/subscribers [get]
func (h *Handler) Subscribers(c *gin.Context) {
	scope := strings.ToUpper(c.Query("scope"))
	response.Success(c, gin.H{
		"scope": scope,
		"count": h.broadcaster.Subscribers(scope),
	})
}
