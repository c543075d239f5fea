package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "cwp",
	Short: "Mission lists for accepted contracts",
	Long: `cwp keeps named mission lists over the contracts offered by an item source.

Every contract is tracked in the master list. Further lists hold any subset,
each with its own sort order, pins and hidden items. Lists are stored in a
section of the host save document and reloaded when that file changes.

Item sources:
  --items FILE       a TOML roster of contracts
  --source-url URL   a GraphQL endpoint; the bearer token is read from
                     the variable named by source.token_env (CWP_SOURCE_TOKEN)

Run without a subcommand to open the interactive browser.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTUI,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (default .cwp.yaml)")
	pf.String("document", "", "save document holding the mission lists")
	pf.String("section", "", "document section the lists are stored under")
	pf.String("items", "", "TOML roster used as the item source")
	pf.String("source-url", "", "GraphQL endpoint used as the item source")
	pf.String("scene", "", "scene whose window state is used (flight, editor, spacecenter, trackingstation)")
	pf.String("vessel", "", "active vessel id; its associated list is selected on load")
	pf.String("log-level", "", "log level (trace, debug, info, warn, error)")
	pf.String("log-file", "", "append logs to this file instead of stderr")

	bindFlag("document", "document")
	bindFlag("section", "section")
	bindFlag("items", "items")
	bindFlag("source.url", "source-url")
	bindFlag("scene", "scene")
	bindFlag("vessel", "vessel")
	bindFlag("log.level", "log-level")
	bindFlag("log.file", "log-file")
}

func bindFlag(key, flag string) {
	if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() {
	if cfgFile, _ := rootCmd.Flags().GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName(".cwp")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home)
		}
	}

	viper.SetEnvPrefix("CWP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// No config file is fine; defaults apply.
	_ = viper.ReadInConfig()
}
