package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GamificationMetrics tracks the points ledger, badge awards, and the
// leaderboard builder.
type GamificationMetrics struct {
	pointEvents       *prometheus.CounterVec
	duplicateEvents   *prometheus.CounterVec
	consistencyFaults prometheus.Counter
	badgeAwards       *prometheus.CounterVec
	leaderboardBuild  *prometheus.HistogramVec
}

// NewGamificationMetrics registers the gamification metrics on the provided registerer.
func NewGamificationMetrics(reg prometheus.Registerer) *GamificationMetrics {
	if reg == nil {
		return &GamificationMetrics{}
	}
	pointEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "point_events_total",
		Help: "Point events recorded, by kind.",
	}, []string{"kind"})
	duplicateEvents := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "point_events_duplicate_total",
		Help: "Point events rejected by the dedup constraint, by kind.",
	}, []string{"kind"})
	consistencyFaults := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "points_consistency_faults_total",
		Help: "Detected mismatches between cached balances and the ledger.",
	})
	badgeAwards := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "badge_awards_total",
		Help: "Badges awarded, by slug.",
	}, []string{"badge"})
	leaderboardBuild := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "leaderboard_build_duration_seconds",
		Help:    "Duration of leaderboard rebuilds in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"scope"})
	reg.MustRegister(pointEvents, duplicateEvents, consistencyFaults, badgeAwards, leaderboardBuild)
	return &GamificationMetrics{
		pointEvents:       pointEvents,
		duplicateEvents:   duplicateEvents,
		consistencyFaults: consistencyFaults,
		badgeAwards:       badgeAwards,
		leaderboardBuild:  leaderboardBuild,
	}
}

// IncPointEvent counts a recorded point event.
func (g *GamificationMetrics) IncPointEvent(kind string) {
	if g == nil || g.pointEvents == nil {
		return
	}
	g.pointEvents.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncDuplicateEvent counts a deduplicated point event.
func (g *GamificationMetrics) IncDuplicateEvent(kind string) {
	if g == nil || g.duplicateEvents == nil {
		return
	}
	g.duplicateEvents.WithLabelValues(normalizeLabel(kind)).Inc()
}

// IncConsistencyFault counts a cached-balance mismatch.
func (g *GamificationMetrics) IncConsistencyFault() {
	if g == nil || g.consistencyFaults == nil {
		return
	}
	g.consistencyFaults.Inc()
}

// IncBadgeAward counts an awarded badge.
func (g *GamificationMetrics) IncBadgeAward(slug string) {
	if g == nil || g.badgeAwards == nil {
		return
	}
	g.badgeAwards.WithLabelValues(normalizeLabel(slug)).Inc()
}

// ObserveLeaderboardBuild records how long a rebuild took.
func (g *GamificationMetrics) ObserveLeaderboardBuild(scope string, elapsed time.Duration) {
	if g == nil || g.leaderboardBuild == nil {
		return
	}
	g.leaderboardBuild.WithLabelValues(normalizeLabel(scope)).Observe(elapsed.Seconds())
}
