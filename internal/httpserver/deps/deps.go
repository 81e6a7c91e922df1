package deps

import (
	"time"

	"github.com/redis/go-redis/v9"

	"streamsalvage/internal/forensic"
	"streamsalvage/internal/logger"
	"streamsalvage/internal/orchestrator"
	"streamsalvage/internal/pool"
	"streamsalvage/internal/registry"
	redisstore "streamsalvage/internal/store/redis"
	"streamsalvage/internal/store/sqlite"
)

type Deps struct {
	Logger       logger.Logger
	StartTime    time.Time
	Version      string
	Commit       string
	BuildDate    string
	GoVersion    string
	TimeNow      func() time.Time // for testing, defaults to time.Now
	AllowedHosts []string         // Host headers allowed on mutating endpoints
	AllowedCIDRS []string         // IPs allowed on infra endpoints
	TrustProxy   bool             // true when running behind a trusted reverse proxy

	RedisClient  *redis.Client            // raw client, used for readiness pings
	Store        *redisstore.Store        // resolution cache and channel status
	DB           *sqlite.Database         // alternates and forensic log
	Pool         *pool.Pool               // relay pool
	Orchestrator *orchestrator.Orchestrator
	Registry     *registry.Registry
	Forensic     *forensic.Service

	ResolveTimeout time.Duration // cap on one resolve call driven over HTTP

	RefreshTrigger chan struct{} // manual offline-channel refresh
	ProbeTrigger   chan struct{} // manual relay probe round
}
