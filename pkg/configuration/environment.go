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
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/iota-uz/estate-office/pkg/logging"
)

const Production = "production"

var singleton = sync.OnceValue(func() *Configuration {
	c := &Configuration{}
	if err := c.load([]string{".env", ".env.local"}); err != nil {
		c.Unload()
		panic(err)
	}
	return c
})

// LoadEnv loads the env files that exist, looking in the working directory
// first and then in the nearest parent directory holding a go.mod.
func LoadEnv(envFiles []string) (int, error) {
	existingFiles := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if fileExists(file) {
			existingFiles = append(existingFiles, file)
		}
	}

	if len(existingFiles) == 0 {
		if root, ok := findModuleRoot(); ok {
			for _, file := range envFiles {
				candidate := filepath.Join(root, file)
				if fileExists(candidate) {
					existingFiles = append(existingFiles, candidate)
				}
			}
		}
	}

	if len(existingFiles) == 0 {
		return 0, nil
	}

	return len(existingFiles), godotenv.Load(existingFiles...)
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
	Name     string `env:"DB_NAME" envDefault:"estate_office"`
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
	ServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"estate-office"`
}

type PrometheusOptions struct {
	Enabled bool   `env:"PROMETHEUS_METRICS_ENABLED" envDefault:"false"`
	Path    string `env:"PROMETHEUS_METRICS_PATH" envDefault:"/debug/prometheus"`
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
	if r.GlobalRPS > 1000000 {
		return fmt.Errorf("rate limit GlobalRPS too high, maximum is 1,000,000, got %d", r.GlobalRPS)
	}
	if r.Storage != "memory" && r.Storage != "redis" {
		return fmt.Errorf("rate limit Storage must be 'memory' or 'redis', got '%s'", r.Storage)
	}
	if r.Storage == "redis" && r.RedisURL == "" {
		return fmt.Errorf("rate limit RedisURL is required when Storage is 'redis'")
	}
	return nil
}

type JobsOptions struct {
	WorkerEnabled   bool          `env:"JOBS_WORKER_ENABLED" envDefault:"true"`
	Table           string        `env:"JOBS_TABLE" envDefault:"public.jobs"`
	PollInterval    time.Duration `env:"JOBS_POLL_INTERVAL" envDefault:"1s"`
	BatchSize       int           `env:"JOBS_BATCH_SIZE" envDefault:"20"`
	LockTTL         time.Duration `env:"JOBS_LOCK_TTL" envDefault:"120s"`
	MaxAttempts     int           `env:"JOBS_MAX_ATTEMPTS" envDefault:"10"`
	SingleActive    bool          `env:"JOBS_SINGLE_ACTIVE" envDefault:"false"`
	DispatchTimeout time.Duration `env:"JOBS_DISPATCH_TIMEOUT" envDefault:"60s"`

	LastErrorMaxBytes int `env:"JOBS_LAST_ERROR_MAX_BYTES" envDefault:"2048"`

	CleanerEnabled   bool          `env:"JOBS_CLEANER_ENABLED" envDefault:"true"`
	CleanerInterval  time.Duration `env:"JOBS_CLEANER_INTERVAL" envDefault:"10m"`
	CleanerRetention time.Duration `env:"JOBS_CLEANER_RETENTION" envDefault:"168h"`
}

func (j *JobsOptions) Validate() error {
	if j.BatchSize <= 0 {
		return fmt.Errorf("JOBS_BATCH_SIZE must be positive, got %d", j.BatchSize)
	}
	if j.MaxAttempts <= 0 {
		return fmt.Errorf("JOBS_MAX_ATTEMPTS must be positive, got %d", j.MaxAttempts)
	}
	if j.PollInterval <= 0 {
		return fmt.Errorf("JOBS_POLL_INTERVAL must be positive, got %s", j.PollInterval)
	}
	if strings.TrimSpace(j.Table) == "" {
		return fmt.Errorf("JOBS_TABLE is required")
	}
	return nil
}

type ListViewOptions struct {
	PageSize      int `env:"PAGE_SIZE" envDefault:"25"`
	MaxPageSize   int `env:"MAX_PAGE_SIZE" envDefault:"100"`
	MaxExportRows int `env:"MAX_EXPORT_ROWS" envDefault:"10000"`
}

type Configuration struct {
	Database      DatabaseOptions
	OpenTelemetry OpenTelemetryOptions
	Prometheus    PrometheusOptions
	RateLimit     RateLimitOptions
	Jobs          JobsOptions
	ListView      ListViewOptions

	RedisURL         string        `env:"REDIS_URL" envDefault:""`
	CacheTTL         time.Duration `env:"CACHE_TTL" envDefault:"5m"`
	ServerPort       int           `env:"PORT" envDefault:"3200"`
	GoAppEnvironment string        `env:"GO_APP_ENV" envDefault:"development"`
	SocketAddress    string        `env:"-"`
	Domain           string        `env:"DOMAIN" envDefault:"localhost"`
	Origin           string        `env:"ORIGIN" envDefault:"http://localhost:3200"`
	CorsOrigins      string        `env:"CORS_ORIGINS" envDefault:"http://localhost:3000"`
	LogLevel         string        `env:"LOG_LEVEL" envDefault:"error"`
	LogPath          string        `env:"LOG_PATH" envDefault:"./logs/app.log"`
	// Incoming request id header; a uuidv4 is generated when absent
	RequestIDHeader string `env:"REQUEST_ID_HEADER" envDefault:"X-Request-ID"`
	// Client ip header; request.RemoteAddr is used when absent
	RealIPHeader string `env:"REAL_IP_HEADER" envDefault:"X-Real-IP"`

	logFile *os.File
	logger  *logrus.Logger
}

func (c *Configuration) Logger() *logrus.Logger {
	return c.logger
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

func (c *Configuration) Scheme() string {
	if c.GoAppEnvironment == Production { // assume 'https' on production mode
		return "https"
	}
	return "http"
}

func (c *Configuration) CorsOriginList() []string {
	var out []string
	for _, part := range strings.Split(c.CorsOrigins, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
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
	if err := c.validate(); err != nil {
		return err
	}

	f, logger, err := logging.FileLogger(c.LogrusLogLevel(), c.LogPath)
	if err != nil {
		return err
	}
	c.logFile = f
	c.logger = logger

	c.finalize()
	return nil
}

func (c *Configuration) validate() error {
	if err := c.RateLimit.Validate(); err != nil {
		return fmt.Errorf("rate limit configuration error: %w", err)
	}
	if err := c.Jobs.Validate(); err != nil {
		return fmt.Errorf("jobs configuration error: %w", err)
	}
	if c.ListView.PageSize <= 0 || c.ListView.MaxPageSize < c.ListView.PageSize {
		return fmt.Errorf("invalid PAGE_SIZE=%d / MAX_PAGE_SIZE=%d", c.ListView.PageSize, c.ListView.MaxPageSize)
	}
	return nil
}

func (c *Configuration) finalize() {
	c.Database.Opts = c.Database.ConnectionString()
	if c.GoAppEnvironment == Production {
		c.SocketAddress = fmt.Sprintf(":%d", c.ServerPort)
	} else {
		c.SocketAddress = fmt.Sprintf("localhost:%d", c.ServerPort)
	}

	if os.Getenv("ORIGIN") == "" {
		if c.GoAppEnvironment == "development" {
			c.Origin = fmt.Sprintf("%s://%s:%d", c.Scheme(), c.Domain, c.ServerPort)
		} else {
			c.Origin = fmt.Sprintf("%s://%s", c.Scheme(), c.Domain)
		}
	}
}

// Unload handles a graceful shutdown.
func (c *Configuration) Unload() {
	if c.logFile != nil {
		if err := c.logFile.Close(); err != nil {
			log.Printf("Failed to close log file: %v", err)
		}
	}
}
