package handlers

import (
	"context"
	"net/http"
	"time"

	"streamsalvage/internal/domain"
	"streamsalvage/internal/httpserver/deps"
)

type componentStatus struct {
	OK     bool   `json:"ok"`
	Mode   string `json:"mode,omitempty"`
	Impact string `json:"impact,omitempty"`
	Error  string `json:"error,omitempty"`
}

type relayStatus struct {
	OK         bool    `json:"ok"`
	Registered int     `json:"registered"`
	Usable     int     `json:"usable"`
	AvgHealth  float64 `json:"avg_health"`
}

type infraResponse struct {
	SalvageMode string                     `json:"salvage_mode"`
	Relays      relayStatus                `json:"relays"`
	Components  map[string]componentStatus `json:"components"`
}

// Infra is an operator view: which stores are up, how the relay pool looks,
// and what capability level the node currently runs at.
func Infra(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		relays := relayStatus{}
		for _, st := range d.Pool.Snapshot() {
			relays.Registered++
			relays.AvgHealth += st.Health
			if st.Health >= domain.HealthFloor {
				relays.Usable++
			}
		}
		if relays.Registered > 0 {
			relays.AvgHealth /= float64(relays.Registered)
		}
		relays.OK = relays.Usable > 0

		components := map[string]componentStatus{
			"redis":  checkRedis(d),
			"sqlite": checkSqlite(d),
		}

		writeJSON(w, http.StatusOK, infraResponse{
			SalvageMode: determineSalvageMode(relays, components),
			Relays:      relays,
			Components:  components,
		})
	}
}

// determineSalvageMode summarizes node capability. No usable relays means
// direct-only resolution, which defeats the point of the service.
func determineSalvageMode(relays relayStatus, components map[string]componentStatus) string {
	if !relays.OK {
		return "critical"
	}
	for _, c := range components {
		if !c.OK {
			return "degraded"
		}
	}
	return "adaptive"
}

func checkRedis(d deps.Deps) componentStatus {
	if d.RedisClient == nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "result-cache-disabled",
			Error:  "client not initialized",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := d.RedisClient.Ping(ctx).Err(); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "result-cache-disabled",
			Error:  "timeout",
		}
	}
	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "result-cache-enabled",
		Error:  "none",
	}
}

func checkSqlite(d deps.Deps) componentStatus {
	if d.DB == nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "forensics-disabled",
			Error:  "database not initialized",
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := d.DB.Ping(ctx); err != nil {
		return componentStatus{
			OK:     false,
			Mode:   "degraded",
			Impact: "forensics-disabled",
			Error:  err.Error(),
		}
	}
	return componentStatus{
		OK:     true,
		Mode:   "optimal",
		Impact: "forensics-enabled",
		Error:  "none",
	}
}
