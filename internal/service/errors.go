package service

import "errors"

// 提交链路的稳定错误码，handler 层按此映射 HTTP 状态
var (
	ErrInvalidMoodType       = errors.New("invalid_mood_type")
	ErrInvalidCountry        = errors.New("country_invalid")
	ErrCountryRequired       = errors.New("country_required")
	ErrRateLimited           = errors.New("rate_limited")
	ErrAlreadySubmittedToday = errors.New("already_submitted_today")
	ErrBackendUnavailable    = errors.New("backend_unavailable")
)
