package cliparse

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/danielhkuo/anonvote/models"
)

// DefaultEnvFile is loaded when present. A missing file is not an error.
const DefaultEnvFile = ".env"

type Config struct {
	Port         int    `env:"PORT" envDefault:"3318"`
	DatabaseURL  string `env:"DATABASE_URL"`
	DatabaseType string `env:"DATABASE_TYPE" envDefault:"sqlite"`

	// MasterSecret keys every public key. Never defaulted.
	MasterSecret string `env:"MASTER_SECRET"`

	MaxRank         int      `env:"MAX_RANK"`
	CutoffFraction  float64  `env:"CUTOFF_FRACTION" envDefault:"0.5"`
	Locale          string   `env:"COLLATION_LOCALE" envDefault:"pt-BR"`
	Race1Candidates []string `env:"RACE1_CANDIDATES" envSeparator:","`
	Race2Candidates []string `env:"RACE2_CANDIDATES" envSeparator:","`

	SnapshotTTL time.Duration `env:"SNAPSHOT_TTL" envDefault:"5s"`
	Production  bool          `env:"PRODUCTION"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
}

// Flags holds the command-line overrides registered by Bind.
type Flags struct {
	fs *pflag.FlagSet

	envFile         string
	port            int
	databaseURL     string
	databaseType    string
	masterSecret    string
	maxRank         int
	cutoffFraction  float64
	locale          string
	race1Candidates []string
	race2Candidates []string
	snapshotTTL     time.Duration
	production      bool
	logLevel        string
}

// Bind registers the configuration flags on fs. Cobra commands pass their
// persistent flag set.
func Bind(fs *pflag.FlagSet) *Flags {
	f := &Flags{fs: fs}

	fs.StringVar(&f.envFile, "env-file", DefaultEnvFile, "Dotenv file to load")

	// Network and storage
	fs.IntVarP(&f.port, "port", "p", 0, "Server port")
	fs.StringVarP(&f.databaseURL, "database-url", "d", "", "Database URL")
	fs.StringVarP(&f.databaseType, "database-type", "t", "", "Database type (sqlite or postgres)")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&f.masterSecret, "master-secret", "", "Master secret (prefer env)")

	// Tally
	fs.IntVar(&f.maxRank, "max-rank", 0, "Ranked positions in race 1 (0 = number of candidates)")
	fs.Float64Var(&f.cutoffFraction, "cutoff-fraction", 0, "Points cutoff as a fraction of active credentials times rank")
	fs.StringVar(&f.locale, "locale", "", "Collation locale for name tie-breaks")
	fs.StringSliceVar(&f.race1Candidates, "race1-candidates", nil, "Race 1 candidate names")
	fs.StringSliceVar(&f.race2Candidates, "race2-candidates", nil, "Race 2 candidate names")

	fs.DurationVar(&f.snapshotTTL, "snapshot-ttl", 0, "Credential snapshot cache lifetime")
	fs.BoolVar(&f.production, "production", false, "Production mode: delivery failures abort issuance")
	fs.StringVar(&f.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	return f
}

// Load resolves the configuration: defaults, then the dotenv file, then the
// environment, then any flag set on the command line. The master secret is
// required.
func (f *Flags) Load() (Config, error) {
	cfg, err := f.LoadPartial()
	if err != nil {
		return Config{}, err
	}
	if err := cfg.RequireMasterSecret(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadPartial is Load without the master-secret check, for commands that
// never touch credentials.
func (f *Flags) LoadPartial() (Config, error) {
	if err := loadEnvFile(f.envFile); err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	f.apply(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// apply overrides cfg with every flag the user actually set.
func (f *Flags) apply(cfg *Config) {
	changed := f.fs.Changed
	if changed("port") {
		cfg.Port = f.port
	}
	if changed("database-url") {
		cfg.DatabaseURL = f.databaseURL
	}
	if changed("database-type") {
		cfg.DatabaseType = f.databaseType
	}
	if changed("master-secret") {
		cfg.MasterSecret = f.masterSecret
	}
	if changed("max-rank") {
		cfg.MaxRank = f.maxRank
	}
	if changed("cutoff-fraction") {
		cfg.CutoffFraction = f.cutoffFraction
	}
	if changed("locale") {
		cfg.Locale = f.locale
	}
	if changed("race1-candidates") {
		cfg.Race1Candidates = f.race1Candidates
	}
	if changed("race2-candidates") {
		cfg.Race2Candidates = f.race2Candidates
	}
	if changed("snapshot-ttl") {
		cfg.SnapshotTTL = f.snapshotTTL
	}
	if changed("production") {
		cfg.Production = f.production
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
}

func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	// godotenv never overrides variables already in the environment.
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) validate() error {
	c.DatabaseType = strings.ToLower(strings.TrimSpace(c.DatabaseType))
	c.Race1Candidates = trimAll(c.Race1Candidates)
	c.Race2Candidates = trimAll(c.Race2Candidates)

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: invalid port %d", models.ErrConfiguration, c.Port)
	}
	if c.MaxRank < 0 {
		return fmt.Errorf("%w: max rank must not be negative", models.ErrConfiguration)
	}
	if c.CutoffFraction < 0 || c.CutoffFraction > 1 {
		return fmt.Errorf("%w: cutoff fraction must be within [0, 1]", models.ErrConfiguration)
	}
	return nil
}

// RequireMasterSecret fails with ErrConfiguration when no secret is set.
func (c Config) RequireMasterSecret() error {
	if strings.TrimSpace(c.MasterSecret) == "" {
		return fmt.Errorf("%w: MASTER_SECRET required (use --master-secret or MASTER_SECRET env)", models.ErrConfiguration)
	}
	return nil
}

func trimAll(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// ParseFlags parses args on a fresh flag set and loads the configuration.
func ParseFlags(args []string) (Config, error) {
	fs := pflag.NewFlagSet("anonvote", pflag.ContinueOnError)
	f := Bind(fs)
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return f.Load()
}
