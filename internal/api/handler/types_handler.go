package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/nuqta-lab/mooda/internal/model"
	"github.com/nuqta-lab/mooda/pkg/response"
)

type moodTypeItem struct {
	Code  string `json:"code"`
	Emoji string `json:"emoji"`
}

// MoodTypes 心情类型目录
// @Summary 列出全部心情类型及默认表情
// @Tags types
// @Produce json
// @Success 200 {object} response.Response
// @Router /api/v1/types [get]
func (h *Handler) MoodTypes(c *gin.Context) {
	items := make([]moodTypeItem, 0, len(model.MoodTypes))
	for _, t := range model.MoodTypes {
		items = append(items, moodTypeItem{Code: t.String(), Emoji: t.Emoji()})
	}
	c.Header("Cache-Control", "public, max-age=3600")
	response.Success(c, gin.H{"types": items})
}
