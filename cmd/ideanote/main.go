package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hrygo/ideanote/ai/metrics"
	"github.com/hrygo/ideanote/ai/prompt"
	"github.com/hrygo/ideanote/internal/profile"
	"github.com/hrygo/ideanote/internal/version"
	"github.com/hrygo/ideanote/server"
	"github.com/hrygo/ideanote/store"
	"github.com/hrygo/ideanote/store/db"
)

var (
	rootCmd = &cobra.Command{
		Use:   "ideanote",
		Short: `A note-taking service with LLM enrichment: tag suggestions, insight chains and voice notes.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Systemd units provide their environment themselves.
			if !isRunningAsSystemdService() {
				_ = godotenv.Load()
			}
			return nil
		},
		Run: func(_ *cobra.Command, _ []string) {
			instanceProfile, err := loadProfile()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			setupLogger(instanceProfile)

			ctx, cancel := context.WithCancel(context.Background())
			dbDriver, err := db.NewDBDriver(instanceProfile)
			if err != nil {
				cancel()
				slog.Error("failed to create db driver", "error", err)
				return
			}

			exporter := metrics.NewPrometheusExporter(metrics.DefaultConfig())
			storeInstance := store.New(dbDriver, instanceProfile, store.WithCacheRecorder(exporter))
			if err := storeInstance.Migrate(ctx); err != nil {
				cancel()
				slog.Error("failed to migrate", "error", err)
				return
			}

			s, err := server.NewServer(ctx, instanceProfile, storeInstance, exporter)
			if err != nil {
				cancel()
				slog.Error("failed to create server", "error", err)
				return
			}

			c := make(chan os.Signal, 1)
			signal.Notify(c, terminationSignals...)

			if err := s.Start(ctx); err != nil {
				slog.Error("failed to start server", "error", err)
				cancel()
				return
			}

			printGreetings(instanceProfile)

			go func() {
				<-c
				s.Shutdown(ctx)
				cancel()
			}()

			<-ctx.Done()
		},
	}

	chainCmd = &cobra.Command{
		Use:   "chain [content]",
		Short: "Run a task and its insight chain over content and print the result as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := prompt.ParseTask(viper.GetString("task"))
			if err != nil {
				return err
			}
			instanceProfile, err := loadProfile()
			if err != nil {
				return err
			}
			setupLogger(instanceProfile)

			svc, _, err := server.NewEnrichment(instanceProfile, metrics.NewPrometheusExporter(metrics.DefaultConfig()))
			if err != nil {
				return err
			}
			res, err := svc.RunChainWithBase(cmd.Context(), task, args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	transcribeCmd = &cobra.Command{
		Use:   "transcribe [audio file]",
		Short: "Transcribe an audio file and print the text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			instanceProfile, err := loadProfile()
			if err != nil {
				return err
			}
			setupLogger(instanceProfile)

			svc, _, err := server.NewEnrichment(instanceProfile, metrics.NewPrometheusExporter(metrics.DefaultConfig()))
			if err != nil {
				return err
			}
			text := svc.TranscribeFile(cmd.Context(), args[0])
			if text == "" {
				return fmt.Errorf("no text could be transcribed from %s", args[0])
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
)

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("driver", "sqlite")
	viper.SetDefault("port", 8081)

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8081, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver (sqlite, postgres)")
	rootCmd.PersistentFlags().String("dsn", "", "database source name(aka. DSN)")
	rootCmd.PersistentFlags().String("providers-file", "", "YAML file overriding the AI provider roster")
	rootCmd.PersistentFlags().StringSlice("allowed-origins", nil, "browser origins allowed to call the API")
	chainCmd.Flags().String("task", string(prompt.TaskExpansion), "task run before the chain (expansion, concept_analysis, ...)")

	for _, key := range []string{"mode", "addr", "port", "data", "driver", "dsn", "providers-file", "allowed-origins"} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key)); err != nil {
			panic(err)
		}
	}
	if err := viper.BindPFlag("task", chainCmd.Flags().Lookup("task")); err != nil {
		panic(err)
	}

	viper.SetEnvPrefix("ideanote")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	rootCmd.AddCommand(chainCmd, transcribeCmd, versionCmd)
}

func loadProfile() (*profile.Profile, error) {
	instanceProfile := &profile.Profile{
		Mode:           viper.GetString("mode"),
		Addr:           viper.GetString("addr"),
		Port:           viper.GetInt("port"),
		Data:           viper.GetString("data"),
		Driver:         viper.GetString("driver"),
		DSN:            viper.GetString("dsn"),
		ProvidersFile:  viper.GetString("providers-file"),
		AllowedOrigins: viper.GetStringSlice("allowed-origins"),
		Version:        version.GetCurrentVersion(viper.GetString("mode")),
	}
	instanceProfile.FromEnv()
	if err := instanceProfile.Validate(); err != nil {
		return nil, err
	}
	return instanceProfile, nil
}

// setupLogger installs a text handler in dev and a JSON handler otherwise.
func setupLogger(p *profile.Profile) {
	var handler slog.Handler
	if p.IsDev() {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}

func printGreetings(profile *profile.Profile) {
	fmt.Printf("ideanote %s started successfully!\n", profile.Version)

	if profile.IsDev() {
		fmt.Fprint(os.Stderr, "Development mode is enabled\n")
		if profile.DSN != "" {
			fmt.Fprintf(os.Stderr, "Database: %s\n", profile.DSN)
		}
	}

	fmt.Printf("Data directory: %s\n", profile.Data)
	fmt.Printf("Database driver: %s\n", profile.Driver)
	fmt.Printf("Mode: %s\n", profile.Mode)
	fmt.Printf("AI enabled: %t\n", profile.IsAIEnabled())

	if len(profile.Addr) == 0 {
		fmt.Printf("Server running on port %d\n", profile.Port)
	} else {
		fmt.Printf("Server running on %s:%d\n", profile.Addr, profile.Port)
	}
}

// isRunningAsSystemdService detects if the process is running under systemd
func isRunningAsSystemdService() bool {
	return os.Getenv("INVOCATION_ID") != "" || os.Getenv("WATCHDOG_USEC") != ""
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
