package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/reaandrew/migrationlint/cache"
	"github.com/reaandrew/migrationlint/catalog"
	"github.com/reaandrew/migrationlint/config"
	"github.com/reaandrew/migrationlint/core"
	"github.com/reaandrew/migrationlint/processors"
	"github.com/reaandrew/migrationlint/reporters"
	"github.com/reaandrew/migrationlint/repositories"
	"github.com/reaandrew/migrationlint/scanner"
	"github.com/reaandrew/migrationlint/scanners"
	"github.com/reaandrew/migrationlint/utils"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Cli represents the command-line interface
type Cli struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	cfg config.Config
}

func NewCli(in io.Reader, out io.Writer, errOut io.Writer) *Cli {
	return &Cli{in: in, out: out, errOut: errOut}
}

// Execute runs the command line and returns the process exit status.
func (cli *Cli) Execute(args []string) int {
	findings := 0
	rootCmd := cli.createRootCommand(&findings)
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		log.Errorf("Error executing command: %v", err)
		fmt.Fprintf(cli.errOut, "Error: %v\n", err)
		return ExitError
	}
	if findings > 0 {
		return ExitFindings
	}
	return ExitClean
}

func (cli *Cli) createRootCommand(findings *int) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "migrationlint",
		Short:         "migrationlint detects known Swift 3 migration defects in source files.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cli.loadConfig(cmd)
		},
	}
	rootCmd.SetIn(cli.in)
	rootCmd.SetOut(cli.out)
	rootCmd.SetErr(cli.errOut)

	defaults := config.Default()
	flags := rootCmd.PersistentFlags()
	flags.String("config", config.DefaultConfigFile, "Config file")
	flags.String("configuration", defaults.Configuration, "Active build configuration used to evaluate #if conditions")
	flags.String("format", defaults.Format, "Report format (supported: "+strings.Join(config.Formats, ", ")+")")
	flags.StringP("output", "o", "", "Write the report to a file instead of stdout")
	flags.StringSlice("rules", nil, "Extra rule files (.yaml, .yml or .toml)")
	flags.StringSlice("language", nil, "Languages to scan (default Swift)")
	flags.StringSlice("include", nil, "Glob patterns of files to scan regardless of language")
	flags.StringSlice("exclude", nil, "Glob patterns of files to skip")
	flags.String("store", defaults.Store, "Report store (supported: "+strings.Join(config.Stores, ", ")+")")
	flags.String("cache", "", "Path of a scan cache database")
	flags.Bool("progress", false, "Show a progress bar while scanning directories")
	flags.String("base-url", "", "Http report base url")
	flags.String("log-level", defaults.LogLevel, "Log level")
	flags.Int("workers", 0, "Number of files scanned in parallel (default number of CPUs)")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a file, a directory, a git repository or an organisation.",
	}
	scanCmd.AddCommand(cli.createScanFileCommand(findings))
	scanCmd.AddCommand(cli.createScanDirCommand(findings))
	scanCmd.AddCommand(cli.createScanRepoCommand(findings))
	scanCmd.AddCommand(cli.createScanOrgCommand(findings))

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(cli.createRulesCommand())
	return rootCmd
}

// loadConfig layers defaults, the config file, the environment and changed
// flags, in that order.
func (cli *Cli) loadConfig(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()
	configPath, err := flags.GetString("config")
	if err != nil {
		return err
	}

	cfg, err := config.Load(config.New(), configPath, flags.Changed("config"), flags)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := setupLogging(cli.errOut, cfg.LogLevel); err != nil {
		return err
	}
	cli.cfg = cfg
	return nil
}

func (cli *Cli) createScanFileCommand(findings *int) *cobra.Command {
	return &cobra.Command{
		Use:   "file <PATH|->",
		Short: "Scan a single source file, or stdin when the path is -.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			var content []byte
			var err error
			if path == "-" {
				content, err = io.ReadAll(cmd.InOrStdin())
				path = ""
			} else {
				content, err = os.ReadFile(path)
			}
			if err != nil {
				return fmt.Errorf("failed to read source: %w", err)
			}

			c, err := catalog.Load(cli.cfg.Rules...)
			if err != nil {
				return err
			}
			s := scanner.NewScanner(c, cli.cfg.Configuration)
			report := s.ScanSource(path, string(content))

			return cli.withReporting(c, false, func(reporter core.Reporter, repository core.ReportRepository) error {
				if err := repository.Store([]core.Report{report}); err != nil {
					return fmt.Errorf("error storing report: %w", err)
				}
				if err := reporter.Report(repository); err != nil {
					return fmt.Errorf("error generating report: %w", err)
				}
				*findings = len(report.Findings)
				return nil
			})
		},
	}
}

func (cli *Cli) createScanDirCommand(findings *int) *cobra.Command {
	return &cobra.Command{
		Use:   "dir [DIRECTORY]",
		Short: "Scan every supported file below a directory (defaults to CWD).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			directory := "."
			if len(args) == 1 {
				directory = args[0]
			}

			info, err := os.Stat(directory)
			if err != nil {
				return fmt.Errorf("error accessing directory '%s': %w", directory, err)
			}
			if !info.IsDir() {
				return fmt.Errorf("provided path '%s' is not a directory", directory)
			}

			return cli.withFileScanner(func(c *catalog.Catalog, fileScanner scanners.FileScanner) error {
				return cli.withReporting(c, true, func(reporter core.Reporter, repository core.ReportRepository) error {
					ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
					defer stop()
					count, err := scanners.NewDirectoryScanner(reporter, fileScanner, repository).Scan(ctx, directory)
					*findings = count
					return err
				})
			})
		},
	}
}

func (cli *Cli) createScanRepoCommand(findings *int) *cobra.Command {
	var keep bool
	cmd := &cobra.Command{
		Use:   "repo <REPO_URL>",
		Short: "Clone a git repository and scan it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.withFileScanner(func(c *catalog.Catalog, fileScanner scanners.FileScanner) error {
				return cli.withReporting(c, true, func(reporter core.Reporter, repository core.ReportRepository) error {
					ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
					defer stop()
					repoScanner := scanners.NewRepoScanner(reporter, fileScanner, repository)
					repoScanner.Keep = keep
					count, err := repoScanner.Scan(ctx, args[0])
					*findings = count
					return err
				})
			})
		},
	}
	cmd.Flags().BoolVar(&keep, "keep", false, "Keep the clone after scanning")
	return cmd
}

func (cli *Cli) createScanOrgCommand(findings *int) *cobra.Command {
	var provider, token, apiURL string
	var keep bool
	cmd := &cobra.Command{
		Use:   "org <ORG>",
		Short: "Clone and scan every repository of a GitHub organisation or GitLab group.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			lister, err := createRepositoryLister(ctx, provider, token, apiURL)
			if err != nil {
				return err
			}

			return cli.withFileScanner(func(c *catalog.Catalog, fileScanner scanners.FileScanner) error {
				return cli.withReporting(c, true, func(reporter core.Reporter, repository core.ReportRepository) error {
					orgScanner := scanners.NewOrgScanner(reporter, fileScanner, repository, lister)
					orgScanner.Keep = keep
					count, err := orgScanner.Scan(ctx, args[0])
					*findings = count
					return err
				})
			})
		},
	}
	cmd.Flags().StringVar(&provider, "provider", "github", "Hosting service (supported: github, gitlab)")
	cmd.Flags().StringVar(&token, "token", "", "API token (default $GITHUB_TOKEN or $GITLAB_TOKEN)")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "Base url of a GitHub Enterprise or self-hosted GitLab server")
	cmd.Flags().BoolVar(&keep, "keep", false, "Keep the clones after scanning")
	return cmd
}

func createRepositoryLister(ctx context.Context, provider, token, apiURL string) (utils.RepositoryLister, error) {
	switch provider {
	case "github":
		if token == "" {
			token = os.Getenv("GITHUB_TOKEN")
		}
		return utils.NewGithubApiClient(ctx, token, apiURL)
	case "gitlab":
		if token == "" {
			token = os.Getenv("GITLAB_TOKEN")
		}
		return utils.NewGitlabApiClient(token, apiURL)
	}
	return nil, fmt.Errorf("unsupported provider %q (supported: github, gitlab)", provider)
}

func (cli *Cli) createRulesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rules",
		Short: "List the rule catalog, open and fixed.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := catalog.Load(cli.cfg.Rules...)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTATUS\tFIXED IN\tDESCRIPTION")
			for _, rule := range c.AllRules() {
				fixedIn := rule.FixedIn
				if fixedIn == "" {
					fixedIn = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", rule.ID, rule.Status, fixedIn, rule.Description)
			}
			return w.Flush()
		},
	}
}

// withFileScanner builds the catalog, processors and cache shared by the
// directory and repository scans.
func (cli *Cli) withFileScanner(run func(*catalog.Catalog, scanners.FileScanner) error) error {
	c, err := catalog.Load(cli.cfg.Rules...)
	if err != nil {
		return err
	}
	s := scanner.NewScanner(c, cli.cfg.Configuration)

	fileProcessors, err := processors.InitializeProcessors(s, processors.Options{
		Languages: cli.cfg.Languages,
		Includes:  cli.cfg.Include,
		Excludes:  cli.cfg.Exclude,
	})
	if err != nil {
		return err
	}

	var reportCache cache.ReportCache = cache.NoopReportCache{}
	if cli.cfg.Cache != "" {
		boltCache, err := cache.OpenBoltReportCache(cli.cfg.Cache)
		if err != nil {
			return err
		}
		reportCache = boltCache
	}
	defer reportCache.Close()

	var progress utils.ProgressReporter = utils.NoopProgressReporter{}
	if cli.cfg.Progress {
		progress = utils.NewBarProgressReporter(cli.errOut, "Scanning")
	}

	return run(c, scanners.FsFileScanner{
		Processors: fileProcessors,
		Workers:    cli.cfg.Workers,
		Cache:      reportCache,
		CacheSalt:  cache.Key(c.Fingerprint(), s.ActiveConfiguration(), "", ""),
		Progress:   progress,
	})
}

// withReporting opens the report store and the output for the duration of
// run. headers is set for runs that can report more than one file.
func (cli *Cli) withReporting(c *catalog.Catalog, headers bool, run func(core.Reporter, core.ReportRepository) error) error {
	repository, err := cli.createRepository()
	if err != nil {
		return err
	}
	defer func() {
		if err := repository.Close(); err != nil {
			log.Warnf("Failed to close report store: %v", err)
		}
	}()

	writer := cli.out
	if cli.cfg.Output != "" && cli.cfg.Format != "xlsx" {
		file, err := os.Create(cli.cfg.Output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		writer = file
	}

	reporter, err := reporters.CreateReporter(cli.cfg.Format, reporters.Options{
		Writer:      writer,
		OutputFile:  cli.cfg.Output,
		BaseURL:     cli.cfg.BaseURL,
		Catalog:     c,
		ToolVersion: Version,
		Headers:     headers,
	})
	if err != nil {
		return err
	}
	return run(reporter, repository)
}

func (cli *Cli) createRepository() (core.ReportRepository, error) {
	switch cli.cfg.Store {
	case "file":
		dir, err := os.MkdirTemp("", "migrationlint-reports")
		if err != nil {
			return nil, fmt.Errorf("failed to create report directory: %w", err)
		}
		return removeOnClose{ReportRepository: repositories.NewFileBasedReportRepository(dir), path: dir}, nil
	case "sqlite":
		dbPath := filepath.Join(os.TempDir(), utils.GenerateRandomFilename("db"))
		repository, err := repositories.NewSqliteReportRepository(dbPath)
		if err != nil {
			return nil, err
		}
		return sqliteStore{SqliteReportRepository: repository, path: dbPath}, nil
	}
	return repositories.NewInMemoryReportRepository(), nil
}

// removeOnClose deletes the temporary storage of a repository once it is
// closed.
type removeOnClose struct {
	core.ReportRepository
	path string
}

func (r removeOnClose) Close() error {
	if err := r.ReportRepository.Close(); err != nil {
		return err
	}
	return os.RemoveAll(r.path)
}

type sqliteStore struct {
	*repositories.SqliteReportRepository
	path string
}

func (r sqliteStore) Close() error {
	if err := r.SqliteReportRepository.Close(); err != nil {
		return err
	}
	for _, suffix := range []string{"", "-wal", "-shm"} {
		if err := utils.DeleteDatabaseFileIfExists(r.path + suffix); err != nil {
			return err
		}
	}
	return nil
}
