package middleware

import (
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/nuqta-lab/mooda/pkg/response"
)

// PerIPLimiter 进程内按 IP 的令牌桶，护住 SSE 端点的重连风暴。
// 提交链路的分布式限流在 service.RateLimiter（Redis）里，这层只管边缘滥用。
type PerIPLimiter struct {
	rps   rate.Limit
	burst int

	mu       sync.Mutex
	visitors map[string]*visitor
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

const visitorTTL = 10 * time.Minute

func NewPerIPLimiter(rps float64, burst int) *PerIPLimiter {
	return &PerIPLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		visitors: make(map[string]*visitor),
	}
}

func (l *PerIPLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	v, ok := l.visitors[ip]
	if !ok {
		// 顺带清理久未出现的桶，内存有界
		for k, old := range l.visitors {
			if now.Sub(old.lastSeen) > visitorTTL {
				delete(l.visitors, k)
			}
		}
		v = &visitor{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Handle 超速直接 429
func (l *PerIPLimiter) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.get(c.ClientIP()).Allow() {
			response.TooManyRequests(c, "rate_limited")
			c.Abort()
			return
		}
		c.Next()
	}
}
