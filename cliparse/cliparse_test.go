// cliparse/cliparse_test.go
package cliparse

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"

	"github.com/danielhkuo/anonvote/models"
)

// isolate clears every key the config reads so the host environment cannot
// leak into a test.
func isolate(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DATABASE_URL", "DATABASE_TYPE", "MASTER_SECRET", "MAX_RANK",
		"CUTOFF_FRACTION", "COLLATION_LOCALE", "RACE1_CANDIDATES",
		"RACE2_CANDIDATES", "SNAPSHOT_TTL", "PRODUCTION", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestParseFlags_EnvVars(t *testing.T) {
	isolate(t)
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_URL", "postgres://test")
	t.Setenv("DATABASE_TYPE", "Postgres")
	t.Setenv("MASTER_SECRET", "test-secret")
	t.Setenv("RACE1_CANDIDATES", "Ana, Bruno ,,Carla")
	t.Setenv("SNAPSHOT_TTL", "30s")
	t.Setenv("PRODUCTION", "true")

	cfg, err := ParseFlags([]string{"--env-file="})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "postgres" {
		t.Errorf("expected database type postgres, got %q", cfg.DatabaseType)
	}
	if cfg.MasterSecret != "test-secret" {
		t.Error("master secret not read from env")
	}
	if want := []string{"Ana", "Bruno", "Carla"}; !reflect.DeepEqual(cfg.Race1Candidates, want) {
		t.Errorf("race 1 candidates = %q, want %q", cfg.Race1Candidates, want)
	}
	if cfg.SnapshotTTL != 30*time.Second {
		t.Errorf("expected snapshot ttl 30s, got %v", cfg.SnapshotTTL)
	}
	if !cfg.Production {
		t.Error("expected production mode")
	}
}

func TestParseFlags_Defaults(t *testing.T) {
	isolate(t)
	t.Setenv("MASTER_SECRET", "s")

	cfg, err := ParseFlags([]string{"--env-file="})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Port != 3318 {
		t.Errorf("expected default port 3318, got %d", cfg.Port)
	}
	if cfg.DatabaseType != "sqlite" {
		t.Errorf("expected default database type sqlite, got %q", cfg.DatabaseType)
	}
	if cfg.CutoffFraction != 0.5 {
		t.Errorf("expected default cutoff fraction 0.5, got %v", cfg.CutoffFraction)
	}
	if cfg.Locale != "pt-BR" {
		t.Errorf("expected default locale pt-BR, got %q", cfg.Locale)
	}
	if cfg.MaxRank != 0 || cfg.Race1Candidates != nil || cfg.Production {
		t.Errorf("unexpected non-zero defaults: %+v", cfg)
	}
}

func TestParseFlags_CLIOverridesEnv(t *testing.T) {
	isolate(t)
	t.Setenv("PORT", "9000")
	t.Setenv("MASTER_SECRET", "from-env")
	t.Setenv("MAX_RANK", "3")

	cfg, err := ParseFlags([]string{
		"--env-file=",
		"-p", "8080",
		"-d", "file:test.db",
		"--master-secret", "from-flag",
		"--race2-candidates", "X,Y",
		"--max-rank", "0",
	})
	if err != nil {
		t.Fatal(err)
	}

	// CLI should override env
	if cfg.Port != 8080 {
		t.Errorf("CLI should override env: expected 8080, got %d", cfg.Port)
	}
	if cfg.MasterSecret != "from-flag" {
		t.Error("CLI should override env for the master secret")
	}
	// An explicit zero still wins over the environment.
	if cfg.MaxRank != 0 {
		t.Errorf("expected max rank 0, got %d", cfg.MaxRank)
	}
	if want := []string{"X", "Y"}; !reflect.DeepEqual(cfg.Race2Candidates, want) {
		t.Errorf("race 2 candidates = %q, want %q", cfg.Race2Candidates, want)
	}
	if cfg.DatabaseURL != "file:test.db" {
		t.Errorf("expected database URL from flag, got %q", cfg.DatabaseURL)
	}
}

func TestParseFlags_MissingMasterSecret(t *testing.T) {
	isolate(t)

	_, err := ParseFlags([]string{"--env-file="})
	if !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("expected ErrConfiguration, got %v", err)
	}
}

func TestLoadPartial_AllowsMissingSecret(t *testing.T) {
	isolate(t)

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	f := Bind(fs)
	if err := fs.Parse([]string{"--env-file="}); err != nil {
		t.Fatal(err)
	}
	cfg, err := f.LoadPartial()
	if err != nil {
		t.Fatalf("LoadPartial() error = %v", err)
	}
	if err := cfg.RequireMasterSecret(); !errors.Is(err, models.ErrConfiguration) {
		t.Errorf("RequireMasterSecret() = %v, want ErrConfiguration", err)
	}
}

func TestParseFlags_EnvFile(t *testing.T) {
	isolate(t)
	t.Setenv("PORT", "9100")

	path := filepath.Join(t.TempDir(), ".env")
	content := "MASTER_SECRET=from-file\nMAX_RANK=4\nPORT=7000\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := ParseFlags([]string{"--env-file", path})
	if err != nil {
		t.Fatal(err)
	}

	if cfg.MasterSecret != "from-file" || cfg.MaxRank != 4 {
		t.Errorf("dotenv values not loaded: %+v", cfg)
	}
	// The real environment wins over the file.
	if cfg.Port != 9100 {
		t.Errorf("expected env port 9100 over file, got %d", cfg.Port)
	}
}

func TestParseFlags_MissingEnvFileIsIgnored(t *testing.T) {
	isolate(t)
	t.Setenv("MASTER_SECRET", "s")

	if _, err := ParseFlags([]string{"--env-file", filepath.Join(t.TempDir(), "absent.env")}); err != nil {
		t.Errorf("missing env file should be ignored, got %v", err)
	}
}

func TestParseFlags_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		args    []string
		wantCfg bool
	}{
		{"non-numeric port", map[string]string{"PORT": "abc"}, nil, false},
		{"port out of range", nil, []string{"-p", "70000"}, true},
		{"negative max rank", map[string]string{"MAX_RANK": "-1"}, nil, true},
		{"fraction above one", map[string]string{"CUTOFF_FRACTION": "1.5"}, nil, true},
		{"bad duration", map[string]string{"SNAPSHOT_TTL": "soon"}, nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv("MASTER_SECRET", "s")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := ParseFlags(append([]string{"--env-file="}, tt.args...))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.wantCfg && !errors.Is(err, models.ErrConfiguration) {
				t.Errorf("expected ErrConfiguration, got %v", err)
			}
		})
	}
}

func TestBind_MaxRankUsage(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	Bind(fs)

	f := fs.Lookup("max-rank")
	if f == nil {
		t.Fatal("max-rank flag not registered")
	}
	if !strings.Contains(f.Usage, "number of candidates") || strings.Contains(f.Usage, "longest ballot") {
		t.Errorf("max-rank usage = %q", f.Usage)
	}
}
