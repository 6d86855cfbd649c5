package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/brendan.keane/shopcheck/internal/cli"
	"github.com/brendan.keane/shopcheck/internal/config"
	"github.com/brendan.keane/shopcheck/internal/errors"
	"github.com/brendan.keane/shopcheck/internal/logger"
)

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the command line and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	log := zerolog.Nop()
	rootCmd := newRootCmd(&log)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.Execute(); err != nil {
		log.Debug().Fields(errors.DebugInfo(err)).Msg("command failed")
		// failed cases are already listed in the summary
		if !errors.IsType(err, errors.ErrorTypeAssertion) {
			fmt.Fprintf(stderr, "Error: %s\n", errors.UserMessage(err))
		}
		return 1
	}
	return 0
}

// newRootCmd builds the command tree. log is replaced by the configured
// logger once flags are parsed.
func newRootCmd(log *zerolog.Logger) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shopcheck",
		Short: "Run HTTP checks against the automationexercise.com demo API",
		Long: `shopcheck runs a catalog of HTTP checks against the automationexercise.com
demo shop API (or any server that speaks it) and asserts on status codes and
response bodies. With no subcommand it runs the catalog.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadFromFlags(cmd.Flags())
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			*log = logger.SetupFromFlags(cfg.Verbose, cfg.Debug, cfg.LogFormat)
			cmd.SetContext(config.WithConfig(cmd.Context(), cfg))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.NewRunHandler(*log).Execute(cmd, args)
		},
	}
	config.RegisterOutputFlags(rootCmd.PersistentFlags())
	config.RegisterRunFlags(rootCmd.Flags())
	registerCaseCompletion(rootCmd)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the catalog and exit non-zero if any case fails",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.NewRunHandler(*log).Execute(cmd, args)
		},
	}
	config.RegisterRunFlags(runCmd.Flags())
	registerCaseCompletion(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "Print the catalog: every case with its method, path and expectation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.NewListHandler(*log).Execute(cmd, args)
		},
	}
	config.RegisterCatalogFlags(listCmd.Flags())

	lintCmd := &cobra.Command{
		Use:   "lint",
		Short: "Report catalog operations an OpenAPI document does not describe",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.NewLintHandler(*log).Execute(cmd, args)
		},
	}
	config.RegisterLintFlags(lintCmd.Flags())

	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the catalog as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.NewMCPHandler(*log).Execute(cmd, args)
		},
	}
	config.RegisterTargetFlags(mcpCmd.Flags())

	rootCmd.AddCommand(runCmd, listCmd, lintCmd, mcpCmd, generateCompletionCmd())
	return rootCmd
}

// registerCaseCompletion completes --run and --skip with case names from
// the built-in catalog.
func registerCaseCompletion(cmd *cobra.Command) {
	_ = cmd.RegisterFlagCompletionFunc("run", caseNameCompletion)
	_ = cmd.RegisterFlagCompletionFunc("skip", caseNameCompletion)
}

func caseNameCompletion(cmd *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	cfg, err := config.LoadFromFlags(cmd.Flags())
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}
	names, err := cli.CaseNames(cfg)
	if err != nil {
		return nil, cobra.ShellCompDirectiveError
	}

	var matches []string
	for _, name := range names {
		if strings.HasPrefix(name, toComplete) {
			matches = append(matches, name)
		}
	}
	return matches, cobra.ShellCompDirectiveNoFileComp
}

func generateCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate completion script",
		Long: `To load completions:

Bash:

  $ source <(shopcheck completion bash)

Zsh:

  $ shopcheck completion zsh > "${fpath[1]}/_shopcheck"

Fish:

  $ shopcheck completion fish | source

PowerShell:

  PS> shopcheck completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(out)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}
