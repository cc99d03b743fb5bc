package verifier

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/ethereum-optimism/infra/op-verifier/flags"
)

// Config holds the application configuration
type Config struct {
	Subject        string        // program under test, passed as given
	Root           string        // absolute, symlink-free suite root
	InputDir       string        // absolute input directory
	ExpectedDir    string        // absolute expected-output directory
	InputExt       string        // extension shared by input and expected-output files
	ExpectedSuffix string        // appended to the input name, e.g. "_OUT"
	Timeout        time.Duration // per test case, 0 = unbounded
	NoColor        bool
	MetricsPushURL string // Pushgateway URL, empty disables pushing
	MetricsJob     string
	Log            log.Logger
}

// SuiteFile is the optional YAML suite description. Unset fields keep the
// flag values.
type SuiteFile struct {
	Root           string         `yaml:"root,omitempty"`
	InputDir       string         `yaml:"input_dir,omitempty"`
	ExpectedDir    string         `yaml:"expected_dir,omitempty"`
	InputExt       string         `yaml:"input_ext,omitempty"`
	ExpectedSuffix string         `yaml:"expected_suffix,omitempty"`
	Timeout        *time.Duration `yaml:"timeout,omitempty"`
}

// LoadSuiteFile reads a YAML suite file. A relative root is resolved against
// the directory holding the file.
func LoadSuiteFile(path string) (*SuiteFile, error) {
	log.Debug("Reading suite file", "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading suite file: %w", err)
	}

	var suite SuiteFile
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, fmt.Errorf("parsing suite file: %w", err)
	}
	if suite.Root != "" && !filepath.IsAbs(suite.Root) {
		suite.Root = filepath.Join(filepath.Dir(path), suite.Root)
	}
	return &suite, nil
}

// DefaultEnvFile is loaded when present and no other env file is named.
const DefaultEnvFile = ".env"

// LoadEnvFile loads the dotenv file named by the OP_VERIFIER_ENV_FILE variable,
// or DefaultEnvFile when it exists. Variables already set in the environment
// are kept. It returns the path that was loaded, empty when none was.
func LoadEnvFile() (string, error) {
	path := os.Getenv(flags.EnvFileVar)
	if path == "" {
		if _, err := os.Stat(DefaultEnvFile); errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		path = DefaultEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		return "", fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return path, nil
}

// NewConfig creates a new Config from cli context
func NewConfig(ctx *cli.Context, log log.Logger, subject string) (*Config, error) {
	if subject == "" {
		return nil, errors.New("subject program is required")
	}

	cfg := &Config{
		Subject:        subject,
		Root:           ctx.String(flags.Root.Name),
		InputDir:       ctx.String(flags.InputDir.Name),
		ExpectedDir:    ctx.String(flags.ExpectedDir.Name),
		InputExt:       ctx.String(flags.InputExt.Name),
		ExpectedSuffix: ctx.String(flags.ExpectedSuffix.Name),
		Timeout:        ctx.Duration(flags.Timeout.Name),
		NoColor:        ctx.Bool(flags.NoColor.Name),
		MetricsPushURL: ctx.String(flags.MetricsPushURL.Name),
		MetricsJob:     ctx.String(flags.MetricsJob.Name),
		Log:            log,
	}

	if path := ctx.String(flags.SuiteConfig.Name); path != "" {
		suite, err := LoadSuiteFile(path)
		if err != nil {
			return nil, err
		}
		cfg.applySuiteFile(ctx, suite)
	}

	if cfg.Timeout < 0 {
		return nil, fmt.Errorf("timeout cannot be negative: %s", cfg.Timeout)
	}
	if cfg.InputExt == "" {
		return nil, errors.New("input extension cannot be empty")
	}

	root, err := resolveRoot(cfg.Root)
	if err != nil {
		return nil, err
	}
	cfg.Root = root
	cfg.InputDir = underRoot(root, cfg.InputDir)
	cfg.ExpectedDir = underRoot(root, cfg.ExpectedDir)

	return cfg, nil
}

// applySuiteFile copies the suite file values over every flag that was not
// set explicitly on the command line or through the environment.
func (c *Config) applySuiteFile(ctx *cli.Context, suite *SuiteFile) {
	setString := func(dst *string, flagName, value string) {
		if value != "" && !ctx.IsSet(flagName) {
			*dst = value
		}
	}
	setString(&c.Root, flags.Root.Name, suite.Root)
	setString(&c.InputDir, flags.InputDir.Name, suite.InputDir)
	setString(&c.ExpectedDir, flags.ExpectedDir.Name, suite.ExpectedDir)
	setString(&c.InputExt, flags.InputExt.Name, suite.InputExt)
	setString(&c.ExpectedSuffix, flags.ExpectedSuffix.Name, suite.ExpectedSuffix)
	if suite.Timeout != nil && !ctx.IsSet(flags.Timeout.Name) {
		c.Timeout = *suite.Timeout
	}
}

// resolveRoot returns the absolute form of root with symlinks evaluated. A
// root that does not exist yet keeps its absolute, unevaluated form.
func resolveRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path for root '%s': %w", root, err)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return abs, nil
	}
	return resolved, nil
}

func underRoot(root, dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(root, dir)
}
