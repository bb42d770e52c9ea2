package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Blazious/fun-learning-system/pkg/enums"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	PubSub        PubSubConfig
	Points        PointsConfig
	Leaderboard   LeaderboardConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Points.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"FLS_APP_ENV" required:"true"`
	Port         string `envconfig:"FLS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"FLS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"FLS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"FLS_DB_DSN"`
	Driver string `envconfig:"FLS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"FLS_DB_HOST"`
	LegacyPort     int    `envconfig:"FLS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"FLS_DB_USER"`
	LegacyPassword string `envconfig:"FLS_DB_PASSWORD"`
	LegacyName     string `envconfig:"FLS_DB_NAME"`
	LegacySSLMode  string `envconfig:"FLS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"FLS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"FLS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"FLS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"FLS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"FLS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"FLS_REDIS_ADDR"`
	Password     string        `envconfig:"FLS_REDIS_PASSWORD"`
	DB           int           `envconfig:"FLS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"FLS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"FLS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"FLS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"FLS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"FLS_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"FLS_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"FLS_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"FLS_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"FLS_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"FLS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"FLS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"FLS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"FLS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"FLS_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"FLS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"FLS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"FLS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"FLS_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"FLS_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"FLS_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"FLS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"FLS_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"FLS_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"FLS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"FLS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	GamificationTopic        string `envconfig:"FLS_PUBSUB_GAMIFICATION_TOPIC" default:"fls-gamification-events"`
	GamificationSubscription string `envconfig:"FLS_PUBSUB_GAMIFICATION_SUBSCRIPTION"`
}

// PointsConfig maps every point-earning event kind to the value awarded at
// event-creation time. Values are captured on the ledger entry and never
// recomputed, so changing these only affects future events.
type PointsConfig struct {
	SessionHosted         int `envconfig:"FLS_POINTS_SESSION_HOSTED" default:"50"`
	SessionAttended       int `envconfig:"FLS_POINTS_SESSION_ATTENDED" default:"10"`
	SessionModerated      int `envconfig:"FLS_POINTS_SESSION_MODERATED" default:"20"`
	ArticlePublished      int `envconfig:"FLS_POINTS_ARTICLE_PUBLISHED" default:"25"`
	CommunityContribution int `envconfig:"FLS_POINTS_COMMUNITY_CONTRIBUTION" default:"5"`
}

// Table returns the kind-to-value lookup consumed by the ledger. The
// correction kind is intentionally absent: its value arrives per request.
func (p PointsConfig) Table() map[enums.PointEventKind]int {
	return map[enums.PointEventKind]int{
		enums.PointEventKindSessionHosted:         p.SessionHosted,
		enums.PointEventKindSessionAttended:       p.SessionAttended,
		enums.PointEventKindSessionModerated:      p.SessionModerated,
		enums.PointEventKindArticlePublished:      p.ArticlePublished,
		enums.PointEventKindCommunityContribution: p.CommunityContribution,
	}
}

// Validate rejects negative values for any non-correction kind. A violation
// is a deployment error and must prevent the process from serving traffic.
func (p PointsConfig) Validate() error {
	for kind, value := range p.Table() {
		if value < 0 {
			return fmt.Errorf("invalid point config: kind %q configured with negative value %d", kind, value)
		}
	}
	return nil
}

type LeaderboardConfig struct {
	CacheTTL   time.Duration `envconfig:"FLS_LEADERBOARD_CACHE_TTL" default:"60s"`
	MaxEntries int           `envconfig:"FLS_LEADERBOARD_MAX_ENTRIES" default:"100"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
