package configuration

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/precinct/pkg/logging"
)

const Production = "production"

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

// LoadEnv loads the env files that exist, looking in the working directory
// first and then in the nearest directory containing go.mod.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if fileExists(file) {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		if root, ok := findModuleRoot(); ok {
			for _, file := range envFiles {
				candidate := filepath.Join(root, file)
				if fileExists(candidate) {
					existing = append(existing, candidate)
				}
			}
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func findModuleRoot() (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for {
		if fileExists(filepath.Join(dir, "go.mod")) {
			return dir, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

type DatabaseOptions struct {
	Opts     string `env:"-"`
	Name     string `env:"DB_NAME" envDefault:"precinct"`
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
}

func (d *DatabaseOptions) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s dbname=%s password=%s sslmode=disable",
		d.Host, d.Port, d.User, d.Name, d.Password,
	)
}

type OpenTelemetryOptions struct {
	Enabled     bool   `env:"OTEL_ENABLED" envDefault:"false"`
	TempoURL    string `env:"OTEL_TEMPO_URL" envDefault:"localhost:4318"`
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"precinct"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
}

// OpsGuardOptions restrict the metrics endpoint once it is exposed.
type OpsGuardOptions struct {
	Enabled      bool   `env:"OPS_GUARD_ENABLED" envDefault:"false"`
	Token        string `env:"OPS_GUARD_TOKEN"`
	CIDRs        string `env:"OPS_GUARD_CIDRS"`
	RealIPHeader string `env:"REAL_IP_HEADER"`
}

type RateLimitOptions struct {
	Enabled   bool   `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	GlobalRPS int    `env:"RATE_LIMIT_GLOBAL_RPS" envDefault:"1000"`
	Storage   string `env:"RATE_LIMIT_STORAGE" envDefault:"memory"` // memory or redis
	RedisURL  string `env:"RATE_LIMIT_REDIS_URL"`
}

// Validate checks the rate limit configuration for errors
func (r *RateLimitOptions) Validate() error {
	if r.GlobalRPS < 0 {
		return fmt.Errorf("rate limit GlobalRPS must be non-negative, got %d", r.GlobalRPS)
	}
	if r.Storage != "memory" && r.Storage != "redis" {
		return fmt.Errorf("rate limit Storage must be 'memory' or 'redis', got '%s'", r.Storage)
	}
	if r.Storage == "redis" && r.RedisURL == "" {
		return fmt.Errorf("rate limit RedisURL is required when Storage is 'redis'")
	}
	return nil
}

type AuthzOptions struct {
	ModelPath      string `env:"AUTHZ_MODEL_PATH" envDefault:"config/access/model.conf"`
	PolicyPath     string `env:"AUTHZ_POLICY_PATH" envDefault:"config/access/policy.csv"`
	FlagConfigPath string `env:"AUTHZ_FLAG_CONFIG" envDefault:"config/access/authz_flags.yaml"`
	Mode           string `env:"AUTHZ_MODE" envDefault:"enforce"`
	// Trusted headers set by the upstream auth gateway. The actor header
	// carries the caller's Discord user id.
	ActorHeader  string `env:"AUTHZ_ACTOR_HEADER" envDefault:"X-Actor-ID"`
	TenantHeader string `env:"AUTHZ_TENANT_HEADER" envDefault:"X-Tenant-ID"`
	// Discord ids granted SuperuserRole regardless of stored assignments.
	Superusers    []string `env:"AUTHZ_SUPERUSERS" envSeparator:","`
	SuperuserRole string   `env:"AUTHZ_SUPERUSER_ROLE" envDefault:"chief"`
}

type OutboxOptions struct {
	Table                string        `env:"OUTBOX_TABLE" envDefault:"public.precinct_outbox"`
	RelayEnabled         bool          `env:"OUTBOX_RELAY_ENABLED" envDefault:"true"`
	RelayPollInterval    time.Duration `env:"OUTBOX_RELAY_POLL_INTERVAL" envDefault:"1s"`
	RelayBatchSize       int           `env:"OUTBOX_RELAY_BATCH_SIZE" envDefault:"100"`
	RelayLockTTL         time.Duration `env:"OUTBOX_RELAY_LOCK_TTL" envDefault:"60s"`
	RelayMaxAttempts     int           `env:"OUTBOX_RELAY_MAX_ATTEMPTS" envDefault:"25"`
	RelayDispatchTimeout time.Duration `env:"OUTBOX_RELAY_DISPATCH_TIMEOUT" envDefault:"30s"`
	LastErrorMaxBytes    int           `env:"OUTBOX_LAST_ERROR_MAX_BYTES" envDefault:"2048"`

	CleanerEnabled   bool          `env:"OUTBOX_CLEANER_ENABLED" envDefault:"true"`
	CleanerInterval  time.Duration `env:"OUTBOX_CLEANER_INTERVAL" envDefault:"1m"`
	CleanerRetention time.Duration `env:"OUTBOX_CLEANER_RETENTION" envDefault:"168h"`
}

type DiscordOptions struct {
	Enabled         bool          `env:"DISCORD_ENABLED" envDefault:"false"`
	APIBase         string        `env:"DISCORD_API_BASE" envDefault:"https://discord.com/api/v10"`
	BotToken        string        `env:"DISCORD_BOT_TOKEN"`
	GuildID         string        `env:"DISCORD_GUILD_ID"`
	InviteChannelID string        `env:"DISCORD_INVITE_CHANNEL_ID"`
	HireChannelID   string        `env:"DISCORD_HIRE_CHANNEL_ID"`
	Timeout         time.Duration `env:"DISCORD_TIMEOUT" envDefault:"10s"`
}

type RecruitmentOptions struct {
	// Percentage of active questions that must be answered to leave step 2.
	QuestionThresholdPercent int           `env:"RECRUITMENT_QUESTION_THRESHOLD_PERCENT" envDefault:"70"`
	InviteTTL                time.Duration `env:"RECRUITMENT_INVITE_TTL" envDefault:"24h"`
}

type IncentiveOptions struct {
	ExamConducted        string `env:"INCENTIVE_RATE_EXAM_CONDUCTED" envDefault:"2500"`
	ModuleCompleted      string `env:"INCENTIVE_RATE_MODULE_COMPLETED" envDefault:"1500"`
	ApplicationProcessed string `env:"INCENTIVE_RATE_APPLICATION_PROCESSED" envDefault:"2000"`
}

// Rates parses the configured incentive amounts.
func (o IncentiveOptions) Rates() (map[string]decimal.Decimal, error) {
	raw := map[string]string{
		"exam_conducted":        o.ExamConducted,
		"module_completed":      o.ModuleCompleted,
		"application_processed": o.ApplicationProcessed,
	}
	out := make(map[string]decimal.Decimal, len(raw))
	for k, v := range raw {
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return nil, fmt.Errorf("invalid incentive rate %s=%q: %w", k, v, err)
		}
		if d.IsNegative() {
			return nil, fmt.Errorf("incentive rate %s must be non-negative", k)
		}
		out[k] = d
	}
	return out, nil
}

type Configuration struct {
	Database      DatabaseOptions
	OpenTelemetry OpenTelemetryOptions
	Prometheus    PrometheusOptions
	RateLimit     RateLimitOptions
	OpsGuard      OpsGuardOptions
	Authz         AuthzOptions
	Outbox        OutboxOptions
	Discord       DiscordOptions
	Recruitment   RecruitmentOptions
	Incentive     IncentiveOptions

	StorageBackend   string        `env:"STORAGE_BACKEND" envDefault:"postgres"`
	DefaultTenantID  string        `env:"DEFAULT_TENANT_ID"`
	ServerPort       int           `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string        `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string        `env:"-"`
	UploadsPath      string        `env:"UPLOADS_PATH" envDefault:"static/uploads"`
	MaxUploadSize    int64         `env:"MAX_UPLOAD_SIZE" envDefault:"8388608"`
	Origin           string        `env:"ORIGIN" envDefault:"http://localhost:3000"`
	RequestTimeout   time.Duration `env:"REQUEST_TIMEOUT" envDefault:"15s"`
	PageSize         int           `env:"PAGE_SIZE" envDefault:"25"`
	MaxPageSize      int           `env:"MAX_PAGE_SIZE" envDefault:"100"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"error"`
	LogPath          string        `env:"LOG_PATH" envDefault:"./logs/app.log"`
	// Header carrying the request id; generated when absent.
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
}

// TenantID is the parsed DEFAULT_TENANT_ID, uuid.Nil when unset.
func (c *Configuration) TenantID() uuid.UUID {
	id, err := uuid.Parse(c.DefaultTenantID)
	if err != nil {
		return uuid.Nil
	}
	return id
}

func (c *Configuration) LogrusLogLevel() logrus.Level {
	switch c.LogLevel {
	case "silent":
		return logrus.PanicLevel
	case "error":
		return logrus.ErrorLevel
	case "warn":
		return logrus.WarnLevel
	case "info":
		return logrus.InfoLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.ErrorLevel
	}
}

func Use() *Configuration {
	return singleton()
}

func (c *Configuration) load(envFiles []string) error {
	n, err := LoadEnv(envFiles)
	if err != nil {
		return err
	}
	if n == 0 {
		wd, _ := os.Getwd()
		log.Println("No .env files found. Tried:")
		for _, file := range envFiles {
			log.Println(filepath.Join(wd, file))
		}
	}
	if err := env.Parse(c); err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	c.Database.Opts = c.Database.ConnectionString()
	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}
	return nil
}

// Validate normalizes enum-like options and rejects invalid combinations.
func (c *Configuration) Validate() error {
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate limit configuration error: %w", err)
	}

	backend := strings.ToLower(strings.TrimSpace(c.StorageBackend))
	switch backend {
	case "":
		backend = StoragePostgres
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("invalid STORAGE_BACKEND=%q (expected postgres|memory)", c.StorageBackend)
	}
	c.StorageBackend = backend

	if p := c.Recruitment.QuestionThresholdPercent; p < 1 || p > 100 {
		return fmt.Errorf("invalid RECRUITMENT_QUESTION_THRESHOLD_PERCENT=%d (expected 1..100)", p)
	}
	if _, err := c.Incentive.Rates(); err != nil {
		return err
	}
	if c.DefaultTenantID != "" {
		if _, err := uuid.Parse(c.DefaultTenantID); err != nil {
			return fmt.Errorf("invalid DEFAULT_TENANT_ID: %w", err)
		}
	}
	if c.OpsGuard.Enabled && c.OpsGuard.Token == "" && c.OpsGuard.CIDRs == "" {
		return fmt.Errorf("OPS_GUARD_ENABLED requires OPS_GUARD_TOKEN or OPS_GUARD_CIDRS")
	}
	if c.Discord.Enabled && (c.Discord.BotToken == "" || c.Discord.GuildID == "") {
		return fmt.Errorf("DISCORD_ENABLED requires DISCORD_BOT_TOKEN and DISCORD_GUILD_ID")
	}
	return nil
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
