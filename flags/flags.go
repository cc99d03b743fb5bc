package flags

import (
	"github.com/urfave/cli/v2"

	opservice "github.com/ethereum-optimism/optimism/op-service"
	oplog "github.com/ethereum-optimism/optimism/op-service/log"
)

const EnvVarPrefix = "OP_VERIFIER"

// EnvFileVar names the dotenv file loaded before the flags are parsed.
var EnvFileVar = EnvVarPrefix + "_ENV_FILE"

var (
	Root = &cli.StringFlag{
		Name:    "root",
		Value:   "..",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "ROOT"),
		Usage:   "Directory holding the input and expected-output directories",
	}
	InputDir = &cli.StringFlag{
		Name:    "input-dir",
		Value:   "data_in",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "INPUT_DIR"),
		Usage:   "Input directory, relative to --root unless absolute",
	}
	ExpectedDir = &cli.StringFlag{
		Name:    "expected-dir",
		Value:   "data_expected",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "EXPECTED_DIR"),
		Usage:   "Expected-output directory, relative to --root unless absolute",
	}
	InputExt = &cli.StringFlag{
		Name:    "input-ext",
		Value:   ".txt",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "INPUT_EXT"),
		Usage:   "Extension of input files; expected-output files share it",
	}
	ExpectedSuffix = &cli.StringFlag{
		Name:    "expected-suffix",
		Value:   "_OUT",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "EXPECTED_SUFFIX"),
		Usage:   "Suffix appended to the input name to form the expected-output name",
	}
	Timeout = &cli.DurationFlag{
		Name:    "timeout",
		Value:   0,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "TIMEOUT"),
		Usage:   "Per test case timeout for the subject program (e.g. '5s'). 0 disables it.",
	}
	NoColor = &cli.BoolFlag{
		Name:    "no-color",
		Value:   false,
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "NO_COLOR"),
		Usage:   "Disable colored console output",
	}
	SuiteConfig = &cli.StringFlag{
		Name:    "config",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "CONFIG"),
		Usage:   "Path to a YAML suite file (eg. 'verifier.yaml'). Flags set explicitly take precedence.",
	}
	MetricsPushURL = &cli.StringFlag{
		Name:    "metrics.push-url",
		Value:   "",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "METRICS_PUSH_URL"),
		Usage:   "Prometheus Pushgateway URL to push run metrics to. Empty disables pushing.",
	}
	MetricsJob = &cli.StringFlag{
		Name:    "metrics.job",
		Value:   "op-verifier",
		EnvVars: opservice.PrefixEnvVar(EnvVarPrefix, "METRICS_JOB"),
		Usage:   "Job name used when pushing metrics",
	}
)

var optionalFlags = []cli.Flag{
	Root,
	InputDir,
	ExpectedDir,
	InputExt,
	ExpectedSuffix,
	Timeout,
	NoColor,
	SuiteConfig,
	MetricsPushURL,
	MetricsJob,
}

var Flags []cli.Flag

func init() {
	optionalFlags = append(optionalFlags, oplog.CLIFlags(EnvVarPrefix)...)

	Flags = optionalFlags
}
