// Package conf loads service configuration. Precedence, lowest to highest:
// built-in defaults, an optional config.toml, environment variables.
// Mains load a .env file first (godotenv) so env vars cover both.
package conf

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"
)

// DefaultAdminDigest is the SHA-256 digest of the deployed admin
// credential. The cleartext never appears in this repository.
const DefaultAdminDigest = "fd233b18d7ea6c254ee05a76ab448bc062f4f938e906fdb426fc752e411c57b8"

type Config struct {
	HTTPAddress string `env:"HTTP_ADDRESS" toml:"http_address"`

	// exactly one storage backend is used: SqlitePath wins when set,
	// otherwise the flat-file store under DataDir.
	DataDir    string `env:"DATA_DIR" toml:"data_dir"`
	SqlitePath string `env:"SQLITE_PATH" toml:"sqlite_path"`

	AdminPasswordDigest   string `env:"ADMIN_PASSWORD_DIGEST" toml:"admin_password_digest"`
	SessionTimeoutMinutes int    `env:"SESSION_TIMEOUT_MINUTES" toml:"session_timeout_minutes"`
	JWTKey                string `env:"JWT_KEY" toml:"jwt_key"`

	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," toml:"cors_origins"`

	// optional best-effort sinks; empty means disabled
	FeedbackSinkURL string `env:"FEEDBACK_SINK_URL" toml:"feedback_sink_url"`

	GitHubToken   string `env:"GITHUB_TOKEN" toml:"github_token"`
	GitHubOwner   string `env:"GITHUB_OWNER" toml:"github_owner"`
	GitHubRepo    string `env:"GITHUB_REPO" toml:"github_repo"`
	GitHubBranch  string `env:"GITHUB_BRANCH" toml:"github_branch"`
	GitHubCSVPath string `env:"GITHUB_CSV_PATH" toml:"github_csv_path"`

	S3Region    string `env:"S3_REGION" toml:"s3_region"`
	S3Bucket    string `env:"S3_BUCKET" toml:"s3_bucket"`
	S3BackupKey string `env:"S3_BACKUP_KEY" toml:"s3_backup_key"`
}

func defaults() Config {
	return Config{
		HTTPAddress:           ":8080",
		DataDir:               "./data",
		AdminPasswordDigest:   DefaultAdminDigest,
		SessionTimeoutMinutes: 30,
		CORSOrigins:           []string{"http://localhost:3000"},
		GitHubBranch:          "main",
		GitHubCSVPath:         "data/essex-feedback.csv",
	}
}

// Load reads configuration. tomlPath may be empty or point at a file that
// does not exist; only a malformed file is an error.
func Load(tomlPath string) (Config, error) {
	cfg := defaults()

	if tomlPath != "" {
		data, err := os.ReadFile(tomlPath)
		if err == nil {
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse %s: %w", tomlPath, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read %s: %w", tomlPath, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c Config) SessionTimeout() time.Duration {
	return time.Duration(c.SessionTimeoutMinutes) * time.Minute
}

func (c Config) GitHubMirrorEnabled() bool {
	return c.GitHubToken != "" && c.GitHubOwner != "" && c.GitHubRepo != ""
}

func (c Config) S3MirrorEnabled() bool {
	return c.S3Region != "" && c.S3Bucket != ""
}
