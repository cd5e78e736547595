package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/nuqta-lab/mooda/internal/auth"
	"github.com/nuqta-lab/mooda/internal/service"
	"github.com/nuqta-lab/mooda/pkg/response"
)

type submitMoodRequest struct {
	MoodType string `json:"moodType" binding:"required,moodtype"`
	Country  string `json:"country" binding:"required"`
	Comment  string `json:"comment" binding:"omitempty,max=500"`
}

// SubmitMood 提交今日心情
// @Summary 提交今日心情（每主体每日一次）
// @Tags mood
// @Accept json
// @Produce json
// @Param request body submitMoodRequest true "提交内容"
// @Success 200 {object} response.Response{data=service.SubmitResult}
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Failure 422 {object} response.Response
// @Failure 429 {object} response.Response
// @Router /api/v1/mood [post]
func (h *Handler) SubmitMood(c *gin.Context) {
	var req submitMoodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	result, err := h.moods.Submit(c.Request.Context(), service.SubmitCommand{
		MoodType: req.MoodType,
		Country:  req.Country,
		Comment:  req.Comment,
		Locale:   c.GetHeader("Accept-Language"),
		Identity: auth.FromContext(c),
	})
	if err != nil {
		h.writeSubmitError(c, err)
		return
	}
	response.Success(c, result)
}

// writeSubmitError 把流水线错误码映射为 HTTP 状态，拒绝永远带稳定 reason
func (h *Handler) writeSubmitError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidMoodType):
		response.UnprocessableEntity(c, service.ErrInvalidMoodType.Error())
	case errors.Is(err, service.ErrCountryRequired):
		response.BadRequest(c, service.ErrCountryRequired.Error())
	case errors.Is(err, service.ErrInvalidCountry):
		response.BadRequest(c, service.ErrInvalidCountry.Error())
	case errors.Is(err, service.ErrRateLimited):
		response.TooManyRequests(c, service.ErrRateLimited.Error())
	case errors.Is(err, service.ErrAlreadySubmittedToday):
		response.Conflict(c, service.ErrAlreadySubmittedToday.Error())
	case errors.Is(err, service.ErrBackendUnavailable):
		response.ServiceUnavailable(c, service.ErrBackendUnavailable.Error())
	default:
		response.InternalError(c, err)
	}
}

// MyMoods 我的最近提交
// @Summary 查询当前用户最近的心情记录
// @Tags me
// @Produce json
// @Param days query int false "天数（0..31）" default(7)
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /api/v1/me/moods [get]
func (h *Handler) MyMoods(c *gin.Context) {
	id := auth.FromContext(c)
	if !id.IsUser() {
		response.Unauthorized(c, "unauthorized")
		return
	}
	days := 7
	if v, ok := c.GetQuery("days"); ok {
		if n, err := atoiSafe(v); err == nil {
			days = n
		}
	}
	items, err := h.moods.History(c.Request.Context(), id.ID, days)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, gin.H{"items": items})
}
