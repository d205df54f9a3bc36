package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/questapi/quest/internal/authplugins"
	"github.com/questapi/quest/internal/config"
	"github.com/questapi/quest/internal/convert"
	"github.com/questapi/quest/internal/core"
	"github.com/questapi/quest/internal/engine"
	"github.com/questapi/quest/internal/eventbus"
	"github.com/questapi/quest/internal/protocol/http"
	"github.com/questapi/quest/internal/protocol/websocket"
	"github.com/questapi/quest/internal/valueproviders"
)

// runFlags holds the run command's flags, mirroring the teacher's
// cli.RunOptions (internal/cli/run.go) generalized to the fields spec.md
// §4.5/§8 require.
type runFlags struct {
	envFile        string
	configFile     string
	dataFile       string
	iterations     int
	filter         string
	allowParallel  bool
	maxConcurrency int
	bail           bool
	delayMillis    int
	jarPersist     bool
	timeoutMillis  int
	jsonOutput     bool
}

// NewRunCommand creates the "run" subcommand.
func NewRunCommand() *cobra.Command {
	flags := &runFlags{}

	cmd := &cobra.Command{
		Use:   "run COLLECTION_FILE",
		Short: "Run every request in a collection",
		Long:  "Executes a collection's requests in DAG order, honoring dependsOn edges, cascading variables, and pre/post scripts.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCollection(cmd, args[0], flags)
		},
	}

	cmd.Flags().StringVarP(&flags.envFile, "env", "e", "", "Environment file (YAML)")
	cmd.Flags().StringVarP(&flags.configFile, "config", "c", "", "Run configuration file (YAML)")
	cmd.Flags().StringVar(&flags.dataFile, "data", "", "Iteration data file (JSON array of objects), overrides every other testData source")
	cmd.Flags().IntVar(&flags.iterations, "iterations", 0, "Number of iterations (caps the row count when a data source provides rows)")
	cmd.Flags().StringVar(&flags.filter, "filter", "", "Regex matched against each request's path; unmatched requests are skipped")
	cmd.Flags().BoolVar(&flags.allowParallel, "parallel", false, "Allow independent DAG nodes to run concurrently")
	cmd.Flags().IntVar(&flags.maxConcurrency, "concurrency", 1, "Maximum concurrent requests when --parallel is set")
	cmd.Flags().BoolVar(&flags.bail, "bail", false, "Abort the run on the first failing test")
	cmd.Flags().IntVar(&flags.delayMillis, "delay", 0, "Delay in milliseconds between iterations")
	cmd.Flags().BoolVar(&flags.jarPersist, "jar-persist", false, "Share one cookie jar across every iteration instead of resetting it each iteration")
	cmd.Flags().IntVar(&flags.timeoutMillis, "timeout", 0, "Default per-request timeout in milliseconds")
	cmd.Flags().BoolVar(&flags.jsonOutput, "json", false, "Print the run result as JSON instead of a human summary")

	return cmd
}

func runCollection(cmd *cobra.Command, collectionPath string, flags *runFlags) error {
	coll, err := loadCollection(collectionPath)
	if err != nil {
		return err
	}

	opts := core.RunOptions{
		Iterations:     flags.iterations,
		Filter:         flags.filter,
		AllowParallel:  flags.allowParallel,
		MaxConcurrency: flags.maxConcurrency,
		Bail:           flags.bail,
		JarPersist:     flags.jarPersist,
	}
	if flags.configFile != "" {
		rf, err := config.LoadRunFile(flags.configFile)
		if err != nil {
			return err
		}
		opts = rf.ToRunOptions()
	}
	if flags.delayMillis > 0 {
		opts.Delay = time.Duration(flags.delayMillis) * time.Millisecond
	}
	if flags.timeoutMillis > 0 {
		opts.DefaultTimeout = time.Duration(flags.timeoutMillis) * time.Millisecond
	}
	if flags.envFile != "" {
		env, err := config.LoadEnvironment(flags.envFile)
		if err != nil {
			return err
		}
		opts.EnvironmentName = env.Name
		opts.Environment = env
	}
	if flags.dataFile != "" {
		rows, err := loadDataFile(flags.dataFile)
		if err != nil {
			return err
		}
		opts.CLIData = rows
	}

	registry := newRegistry()
	bus := eventbus.New()
	if !flags.jsonOutput {
		bus.Subscribe(newConsoleSubscriber(cmd.OutOrStdout()))
	}

	runner, err := engine.NewRunner(coll, registry, bus)
	if err != nil {
		return fmt.Errorf("quest: failed to build collection DAG: %w", err)
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Running collection: %s\n", coll.Info.Name)
	result := runner.Run(context.Background(), opts)

	if flags.jsonOutput {
		return printJSON(cmd, result)
	}
	return printSummary(cmd, result)
}

// newRegistry wires every built-in protocol and auth plugin, grounded on
// the teacher's newImporterRegistry (internal/cli/root.go) generalized to
// this module's plugin registry shape.
func newRegistry() *core.Registry {
	registry := core.NewRegistry()
	registry.RegisterProtocol(http.New())
	registry.RegisterProtocol(websocket.New())
	registry.RegisterAuth(authplugins.NewBasic("http"))
	registry.RegisterAuth(authplugins.NewBearer("http", "websocket"))
	registry.RegisterAuth(authplugins.NewAPIKey("http", "websocket"))
	registry.RegisterValueProvider(valueproviders.NewEnv())
	return registry
}

// loadCollection reads a collection file. Only ".json" files are accepted,
// and they are always decoded as Postman Collection v2.1; any other
// extension is an error.
func loadCollection(path string) (*core.Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("quest: failed to open collection file %q: %w", path, err)
	}
	defer f.Close()

	if strings.HasSuffix(path, ".json") {
		return convert.FromPostmanCollection(f)
	}
	return nil, fmt.Errorf("quest: unrecognized collection file extension for %q (expected .json)", path)
}

func loadDataFile(path string) ([]map[string]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("quest: failed to read data file %q: %w", path, err)
	}
	var rows []map[string]string
	if err := json.Unmarshal(content, &rows); err != nil {
		return nil, fmt.Errorf("quest: failed to parse data file %q: %w", path, err)
	}
	return rows, nil
}
