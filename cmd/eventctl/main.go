package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/geocoder89/eventmanager/internal/app"
	"github.com/geocoder89/eventmanager/internal/config"
	"github.com/geocoder89/eventmanager/internal/domain/user"
	"github.com/geocoder89/eventmanager/internal/observability"
)

var rootCmd = &cobra.Command{
	Use:   "eventctl",
	Short: "Operator CLI for the event manager",
	Long: `eventctl talks to the same store and bus as the API and the worker.
It reads the service configuration from the environment (and .env).

- sweep: complete every published event whose end date has passed.
- cancel: queue a cancellation, or apply it at once with --direct.
- list: show events visible to the acting user.
- token: mint an access token for local testing.`,
	SilenceUsage: true,
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("EVENTCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("as", "", "acting user email (defaults to ADMIN_EMAIL)")
	rootCmd.PersistentFlags().Bool("verbose", false, "log to stderr")
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("as", rootCmd.PersistentFlags().Lookup("as"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func registerCommands() {
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(cancelCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(tokenCmd())
}

// withRuntime loads config, builds the runtime and releases it after fn.
func withRuntime(ctx context.Context, fn func(ctx context.Context, rt *app.Runtime) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if viper.GetBool("verbose") {
		log = observability.NewLogger(cfg.Env)
	}

	rt, err := app.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer rt.Close()

	return fn(ctx, rt)
}

func resolveActor(ctx context.Context, rt *app.Runtime) (user.User, error) {
	email := viper.GetString("as")
	if email == "" {
		email = rt.Config.AdminEmail
	}
	if email == "" {
		return user.User{}, fmt.Errorf("no acting user: pass --as or set ADMIN_EMAIL")
	}
	return rt.Lifecycle.ResolveActor(ctx, email)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
