package handler

import (
	"time"

	"github.com/nuqta-lab/mooda/internal/auth"
	"github.com/nuqta-lab/mooda/internal/service"
)

// Handler 聚合 HTTP 层依赖
type Handler struct {
	moods       *service.MoodService
	stats       *service.StatsService
	broadcaster *service.Broadcaster
	countries   *service.CountryService
	verifier    *auth.Verifier
	heartbeat   time.Duration
}

func New(
	moods *service.MoodService,
	stats *service.StatsService,
	broadcaster *service.Broadcaster,
	countries *service.CountryService,
	verifier *auth.Verifier,
	heartbeat time.Duration,
) *Handler {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &Handler{
		moods:       moods,
		stats:       stats,
		broadcaster: broadcaster,
		countries:   countries,
		verifier:    verifier,
		heartbeat:   heartbeat,
	}
}
