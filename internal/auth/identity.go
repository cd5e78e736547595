package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/nuqta-lab/mooda/internal/service"
)

const (
	identityKey  = "mooda.identity"
	deviceCookie = "mooda_device"
	deviceHeader = "X-Device-Id"
)

// Identify 解析请求主体：优先 Bearer 令牌里的用户，其次设备 cookie 或
// X-Device-Id 头，最后退化为 IP+UA 指纹。每个请求总能得到一个 Identity。
func Identify(verifier *Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(identityKey, resolve(verifier, c))
		c.Next()
	}
}

// FromContext 取出 Identify 中解析的主体
func FromContext(c *gin.Context) service.Identity {
	if v, ok := c.Get(identityKey); ok {
		if id, ok := v.(service.Identity); ok {
			return id
		}
	}
	return service.DeviceIdentity(fingerprint(c))
}

func resolve(verifier *Verifier, c *gin.Context) service.Identity {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		if sub, err := verifier.Verify(strings.TrimPrefix(h, "Bearer ")); err == nil {
			return service.UserIdentity(sub)
		}
	}
	if v, err := c.Cookie(deviceCookie); err == nil && v != "" {
		return service.DeviceIdentity(v)
	}
	if v := c.GetHeader(deviceHeader); v != "" {
		return service.DeviceIdentity(v)
	}
	return service.DeviceIdentity(fingerprint(c))
}

// fingerprint 匿名退路：IP+UA 摘要，只求稳定不求防伪
func fingerprint(c *gin.Context) string {
	sum := sha256.Sum256([]byte(c.ClientIP() + "|" + c.GetHeader("User-Agent")))
	return hex.EncodeToString(sum[:16])
}
