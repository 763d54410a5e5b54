package service

import (
	"math"
	"time"

	"github.com/hollybot/dashboard/internal/dashboard/domain"
)

// StatsService serves bot usage snapshots. The numbers are synthesized until
// the bot process exports real counters; only the uptime percentage moves.
type StatsService struct {
	GuildCount int

	start time.Time
	Now   func() time.Time
}

func NewStatsService(guildCount int) *StatsService {
	return &StatsService{
		GuildCount: guildCount,
		start:      time.Now(),
		Now:        time.Now,
	}
}

// Snapshot returns the current stats. The synthesized values are stable
// across calls, only the uptime percentage moves.
func (s *StatsService) Snapshot() domain.BotStats {
	now := s.Now()

	byHour := make([]int, 24)
	total := 0
	for h := range byHour {
		// Quiet overnight, busiest in the evening.
		byHour[h] = 12 + 9*h%31 + activity(h)
		total += byHour[h]
	}

	return domain.BotStats{
		Guilds:         s.GuildCount,
		Commands24h:    total,
		UniqueUsers:    40 + total/12,
		UptimePercent:  uptimePercent(now.Sub(s.start)),
		CommandsByHour: byHour,
		CommandCategories: domain.CommandCategories{
			Moderation: total * 15 / 100,
			Fun:        total * 30 / 100,
			Utility:    total * 25 / 100,
			Music:      total * 20 / 100,
			Other:      total - total*15/100 - total*30/100 - total*25/100 - total*20/100,
		},
	}
}

// uptimePercent creeps from 99.5 towards 99.99 the longer the process has
// been up. The dashboard renders this with a trailing percent sign.
func uptimePercent(up time.Duration) float64 {
	pct := math.Min(99.99, 99.5+up.Hours()*0.02)
	return math.Round(pct*100) / 100
}

// activity shapes the hourly curve: low overnight, peaking around 20:00.
func activity(hour int) int {
	switch {
	case hour < 7:
		return 0
	case hour < 12:
		return 18
	case hour < 18:
		return 35
	case hour < 23:
		return 60
	default:
		return 10
	}
}
