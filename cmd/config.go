package cmd

import (
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"lovmig/cli/internal/config"
	"lovmig/cli/internal/logging"
)

var (
	configURL     string
	configKey     string
	configSiteURL string
)

// configCmd groups the endpoint override commands.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or change which auth project lovmig talks to",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective auth endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := current
		ep := a.holder.ResolveConfig()

		source := "built-in defaults"
		if a.holder.IsUsingOverride() {
			source = "override (" + a.store.Path() + ")"
		}
		if !ep.Complete() {
			source = "not configured"
		}

		label := pterm.NewStyle(pterm.FgLightCyan)
		lines := []string{
			label.Sprint("Endpoint:  ") + valueOr(a.holder.CurrentEndpoint(), "(none)"),
			label.Sprint("Key:       ") + valueOr(logging.MaskKey(ep.Key), "(none)"),
			label.Sprint("Source:    ") + source,
			label.Sprint("Redirect:  ") + a.cfg.RedirectURL(),
			label.Sprint("Log level: ") + a.cfg.LogLevel,
		}
		pterm.DefaultBox.
			WithTitle(pterm.NewStyle(pterm.FgCyan, pterm.Bold).Sprint("Auth endpoint")).
			Println(strings.Join(lines, "\n"))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Point lovmig at another auth project",
	Long: `The set command stores an endpoint override that takes precedence over the
built-in defaults. Both --url and --key are required. Sessions are kept per
project, so switching back later restores the earlier session.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a := current
		if cmd.Flags().Changed("site-url") {
			cfg, err := a.store.Load()
			if err != nil {
				return err
			}
			cfg.SiteURL = strings.TrimSpace(configSiteURL)
			if err := a.store.Save(cfg); err != nil {
				return err
			}
			a.cfg.SiteURL = cfg.SiteURL
			if configURL == "" && configKey == "" {
				pterm.Success.Printfln("Signup redirect set to %s", cfg.RedirectURL())
				return nil
			}
		}

		if err := a.store.SaveOverride(config.Override{URL: configURL, AnonKey: configKey}); err != nil {
			return err
		}
		c := a.holder.Reinitialize()
		pterm.Success.Printfln("Now using %s", c.URL())
		return nil
	},
}

var configClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the endpoint override and use the defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		a := current
		if err := a.store.ClearOverride(); err != nil {
			return err
		}
		c := a.holder.Reinitialize()
		if c.IsPlaceholder() {
			pterm.Warning.Println("Override removed. No default endpoint is configured.")
			return nil
		}
		pterm.Success.Printfln("Override removed. Using %s", a.holder.CurrentEndpoint())
		return nil
	},
}

func init() {
	configSetCmd.Flags().StringVar(&configURL, "url", "", "Project URL, e.g. https://abc.supabase.co")
	configSetCmd.Flags().StringVar(&configKey, "key", "", "Publishable (anon) key")
	configSetCmd.Flags().StringVar(&configSiteURL, "site-url", "", "Origin used for signup confirmation redirects")

	configCmd.AddCommand(configShowCmd, configSetCmd, configClearCmd)
	rootCmd.AddCommand(configCmd)
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
