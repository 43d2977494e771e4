package fleetctl

import (
	"fmt"

	"github.com/spf13/cobra"

	"puppetfleet/internal/inventory"
)

// buildRootCmd is a convenience for help-only fallbacks.
func buildRootCmd() *cobra.Command { return buildRootCmdWith(&Config{LogLvl: "info", SSHTimeout: 30}) }

// buildRootCmdWith constructs a Cobra command tree wired to the fleet actions.
func buildRootCmdWith(cfg *Config) *cobra.Command {
	root := &cobra.Command{
		Use:           "fleetctl",
		Short:         "Prepare puppet test hosts: collections, paths, defaults, certificates, firewalls",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags -> Config
	pf := root.PersistentFlags()
	pf.StringVar(&cfg.LogLvl, "log-level", cfg.LogLvl, "Log level: debug|info|warn|error (defaults FLEETCTL_LOG_LEVEL or info)")
	pf.StringVarP(&cfg.Inventory, "inventory", "i", cfg.Inventory, "Inventory file, .yaml|.json|.toml (defaults FLEETCTL_INVENTORY)")
	pf.StringVar(&cfg.MetricsFile, "metrics-file", cfg.MetricsFile, "Write command metrics in Prometheus textfile format (defaults FLEETCTL_METRICS_FILE)")
	pf.IntVar(&cfg.SSHTimeout, "ssh-timeout", cfg.SSHTimeout, "SSH connect timeout in seconds (defaults FLEETCTL_SSH_TIMEOUT or 30)")
	pf.BoolVar(&cfg.NoColor, "no-color", cfg.NoColor, "Disable colored log output (defaults FLEETCTL_NO_COLOR)")
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logger = newLogger(stderr, cfg.NoColor)
		SetLogLevel(cfg.LogLvl)
	}

	// collection group
	collectionCmd := &cobra.Command{Use: "collection", Short: "Resolve the package collection for a version", RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("collection requires a subcommand: agent|server|legacy")
	}}
	for _, kind := range []string{"agent", "server", "legacy"} {
		kind := kind // per-iteration copy; go 1.21 loop variables are shared
		collectionCmd.AddCommand(&cobra.Command{
			Use:     kind + " <version|latest>",
			Short:   "Collection for a puppet " + kind + " version",
			Example: "  fleetctl collection " + kind + " 6.4.2",
			Args:    cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return printCollection(cmd.OutOrStdout(), kind, args[0])
			},
		})
	}
	root.AddCommand(collectionCmd)

	root.AddCommand(&cobra.Command{Use: "host-type <label>", Short: "Normalize a host type label to foss, pe or aio", Example: "  fleetctl host-type pe-aio", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		printHostType(cmd.OutOrStdout(), args[0])
		return nil
	}})

	root.AddCommand(&cobra.Command{Use: "path <selector>", Short: "Print the puppet PATH contribution per host", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		return showPaths(cmd.Context(), cfg, cmd.OutOrStdout(), args[0])
	}})

	// paths group
	pathsCmd := &cobra.Command{Use: "paths", Short: "Add or remove puppet binary dirs in host environments", RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("paths requires a subcommand: add|remove")
	}}
	pathsAdd := &cobra.Command{Use: "add <selector>", Short: "Add the puppet PATH contribution", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		return changePaths(cmd.Context(), cfg, cmd.OutOrStdout(), args[0], true)
	}}
	pathsRemove := &cobra.Command{Use: "remove <selector>", Short: "Remove the puppet PATH contribution", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		return changePaths(cmd.Context(), cfg, cmd.OutOrStdout(), args[0], false)
	}}
	pathsCmd.AddCommand(pathsAdd, pathsRemove)
	root.AddCommand(pathsCmd)

	// defaults group
	defaultsCmd := &cobra.Command{Use: "defaults", Short: "Apply or remove host type defaults", RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("defaults requires a subcommand: apply|declared|remove")
	}}
	defaultsApply := &cobra.Command{Use: "apply <selector> <foss|pe|aio>", Short: "Apply one type's defaults to every selected host", Example: "  fleetctl defaults apply agent aio", Args: cobra.ExactArgs(2), RunE: func(cmd *cobra.Command, args []string) error {
		return applyDefaults(cmd.Context(), cfg, cmd.OutOrStdout(), args[0], args[1])
	}}
	defaultsDeclared := &cobra.Command{Use: "declared <selector>", Short: "Apply each host's declared type defaults", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		return applyDeclaredDefaults(cmd.Context(), cfg, cmd.OutOrStdout(), args[0])
	}}
	defaultsRemove := &cobra.Command{Use: "remove <selector>", Short: "Remove each host's declared type defaults", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		return removeDefaults(cmd.Context(), cfg, cmd.OutOrStdout(), args[0])
	}}
	defaultsCmd.AddCommand(defaultsApply, defaultsDeclared, defaultsRemove)
	root.AddCommand(defaultsCmd)

	// certs group
	certsCmd := &cobra.Command{Use: "certs", Short: "Certificate maintenance", RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("certs requires a subcommand: rotate")
	}}
	certsRotate := &cobra.Command{Use: "rotate [selector]", Short: "Regenerate the CA and re-sign every agent certificate", Example: "  fleetctl certs rotate\n  fleetctl certs rotate master,agent1", Args: cobra.MaximumNArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		selector := inventory.SelectAll
		if len(args) == 1 {
			selector = args[0]
		}
		return rotateCerts(cmd.Context(), cfg, selector)
	}}
	certsCmd.AddCommand(certsRotate)
	root.AddCommand(certsCmd)

	// firewall group
	firewallCmd := &cobra.Command{Use: "firewall", Short: "Host firewall control", RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("firewall requires a subcommand: stop")
	}}
	firewallStop := &cobra.Command{Use: "stop <selector>", Short: "Stop or flush the platform firewall", Args: cobra.ExactArgs(1), RunE: func(cmd *cobra.Command, args []string) error {
		return stopFirewalls(cmd.Context(), cfg, args[0])
	}}
	firewallCmd.AddCommand(firewallStop)
	root.AddCommand(firewallCmd)

	// version group
	versionCmd := &cobra.Command{Use: "version", Short: "Probe installed puppet versions", RunE: func(cmd *cobra.Command, args []string) error {
		return fmt.Errorf("version requires a subcommand: agent|server")
	}}
	for _, kind := range []string{"agent", "server"} {
		kind := kind // per-iteration copy; go 1.21 loop variables are shared
		versionCmd.AddCommand(&cobra.Command{
			Use:   kind + " <selector>",
			Short: "Installed puppet " + kind + " version and collection per host",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return showVersions(cmd.Context(), cfg, cmd.OutOrStdout(), kind, args[0])
			},
		})
	}
	root.AddCommand(versionCmd)

	// completion command
	completionCmd := &cobra.Command{Use: "completion", Short: "Generate the autocompletion script for the specified shell"}
	completionCmd.AddCommand(&cobra.Command{Use: "bash", Short: "Bash completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenBashCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "zsh", Short: "Zsh completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenZshCompletion(cmd.OutOrStdout()) }})
	completionCmd.AddCommand(&cobra.Command{Use: "fish", Short: "Fish completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenFishCompletion(cmd.OutOrStdout(), true) }})
	completionCmd.AddCommand(&cobra.Command{Use: "powershell", Short: "PowerShell completion", RunE: func(cmd *cobra.Command, args []string) error { return root.GenPowerShellCompletionWithDesc(cmd.OutOrStdout()) }})
	root.AddCommand(completionCmd)

	return root
}
