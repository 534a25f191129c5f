// Command filings downloads SEC 10-K and 10-Q filings for a set of
// tickers and writes each one out as cleaned plain text.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/message"

	"github.com/saranrapjs/filing-text/pkg/batch"
	"github.com/saranrapjs/filing-text/pkg/edgar"
	"github.com/saranrapjs/filing-text/pkg/manifest"
)

var printer = message.NewPrinter(message.MatchLanguage("en"))

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "filings",
		Short: "Download SEC filings as plain text",
		Long: `filings fetches 10-K and 10-Q filings from the SEC's EDGAR system,
strips the iXBRL markup out of each filing's primary document, and saves
the result as readable plain text, one file per filing.

EDGAR requires an identifying User-Agent (your name and email); set it
with --user-agent, the FILINGS_USER_AGENT environment variable, or the
user_agent config key.`,
		PersistentPreRunE: initConfig,
		RunE:              run,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/filings/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.Flags().StringSlice("tickers", nil, "ticker symbols to download filings for")
	rootCmd.Flags().StringSlice("forms", []string{"10-K", "10-Q"}, "filing forms to download")
	rootCmd.Flags().IntSlice("years", nil, "fiscal years to download (default: most recent filing)")
	rootCmd.Flags().Int("quarter", 0, "fiscal quarter 1-4 (10-Q only)")
	rootCmd.Flags().String("output", "filings", "output directory")
	rootCmd.Flags().String("user-agent", "", "identifying User-Agent required by SEC access policy")
	rootCmd.Flags().Duration("delay", time.Second, "minimum delay between EDGAR requests")
	rootCmd.Flags().String("manifest", "", "optional sqlite file recording per-item outcomes")

	_ = viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("tickers", rootCmd.Flags().Lookup("tickers"))
	_ = viper.BindPFlag("forms", rootCmd.Flags().Lookup("forms"))
	_ = viper.BindPFlag("years", rootCmd.Flags().Lookup("years"))
	_ = viper.BindPFlag("quarter", rootCmd.Flags().Lookup("quarter"))
	_ = viper.BindPFlag("output", rootCmd.Flags().Lookup("output"))
	_ = viper.BindPFlag("user_agent", rootCmd.Flags().Lookup("user-agent"))
	_ = viper.BindPFlag("delay", rootCmd.Flags().Lookup("delay"))
	_ = viper.BindPFlag("manifest", rootCmd.Flags().Lookup("manifest"))
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "filings"))
		}
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}
	viper.SetEnvPrefix("FILINGS")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log_level"))); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

func run(cmd *cobra.Command, _ []string) error {
	tickers := viper.GetStringSlice("tickers")
	if len(tickers) == 0 {
		return fmt.Errorf("no tickers given; use --tickers")
	}
	userAgent := viper.GetString("user_agent")
	if userAgent == "" {
		return fmt.Errorf("no User-Agent configured; EDGAR requires an identifying User-Agent (name and email)")
	}
	if q := viper.GetInt("quarter"); q < 0 || q > 4 {
		return fmt.Errorf("quarter must be 1-4, got %d", q)
	}

	client := edgar.NewClient(userAgent, viper.GetDuration("delay"))
	store := &dirStore{root: viper.GetString("output")}

	opts := []batch.RunnerOption{}
	if path := viper.GetString("manifest"); path != "" {
		ledger, err := manifest.Open(path)
		if err != nil {
			return fmt.Errorf("opening manifest: %w", err)
		}
		defer ledger.Close()
		opts = append(opts, batch.WithManifest(ledger))
	}

	runner := batch.NewRunner(client, store, opts...)
	reqs := batch.Expand(tickers, viper.GetStringSlice("forms"), viper.GetIntSlice("years"), viper.GetInt("quarter"))
	outcomes := runner.Run(cmd.Context(), reqs)

	keys := make([]string, 0, len(outcomes))
	for key := range outcomes {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var failed int
	for _, key := range keys {
		out := outcomes[key]
		if out.Success() {
			fmt.Printf("%s: saved %s\n", key, out.FileName)
		} else {
			failed++
			fmt.Printf("%s: FAILED: %s\n", key, out.Reason())
		}
	}
	printer.Printf("%d of %d items succeeded\n", len(outcomes)-failed, len(outcomes))

	if failed > 0 {
		return fmt.Errorf("%d of %d items failed", failed, len(outcomes))
	}
	return nil
}

// dirStore writes extracted filings under a root directory.
type dirStore struct {
	root string
}

func (s *dirStore) Save(name, text string) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.root, name), []byte(text), 0o644)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
