package controllers

import (
	"context"
	"net/http"
	"sort"

	"github.com/Blazious/fun-learning-system/api/responses"
	"github.com/Blazious/fun-learning-system/pkg/config"
	pkgerrors "github.com/Blazious/fun-learning-system/pkg/errors"
	"github.com/Blazious/fun-learning-system/pkg/logger"
)

// Pinger is satisfied by the db, redis, and pubsub clients.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FLS-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every registered dependency and reports per-check status.
func HealthReady(cfg *config.Config, logg *logger.Logger, checks map[string]Pinger) http.HandlerFunc {
	names := make([]string, 0, len(checks))
	for name := range checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-FLS-Env", cfg.App.Env)

		statuses := map[string]string{}
		healthy := true
		for _, name := range names {
			check := checks[name]
			if check == nil {
				statuses[name] = "skipped"
				continue
			}
			if err := check.Ping(r.Context()); err != nil {
				healthy = false
				statuses[name] = "down"
				if logg != nil {
					logg.Error(logg.WithField(r.Context(), "check", name), "readiness check failed", err)
				}
				continue
			}
			statuses[name] = "up"
		}

		if !healthy {
			responses.WriteError(r.Context(), nil, w, pkgerrors.New(pkgerrors.CodeDependency, "dependency unavailable").WithDetails(statuses))
			return
		}
		responses.WriteSuccess(w, map[string]any{"status": "ready", "checks": statuses})
	}
}
