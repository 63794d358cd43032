package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2/humacli"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/zw-schools/schoolmap/internal/config"
	"github.com/zw-schools/schoolmap/internal/server"
)

// Options defines the CLI flags and env vars. Unset options keep the
// value from config.yaml or SCHOOLMAP_* variables.
// Flags: --config, --host, --port, --data-dir, --web-dir
type Options struct {
	Config  string `doc:"Path to a config file (default ./config.yaml)"`
	Host    string `doc:"Host to bind to"`
	Port    int    `doc:"Port to listen on" short:"p"`
	DataDir string `doc:"Directory holding the generated datasets"`
	WebDir  string `doc:"Path to web/ directory"`
}

// loadConfig loads the configuration, applies flag overrides and
// initializes the global logger.
func loadConfig(opts *Options) (*config.Config, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, err
	}
	if opts.Host != "" {
		cfg.Server.Host = opts.Host
	}
	if opts.Port != 0 {
		cfg.Server.Port = opts.Port
	}
	if opts.DataDir != "" {
		cfg.Data.Dir = opts.DataDir
	}
	if opts.WebDir != "" {
		cfg.Server.WebDir = opts.WebDir
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fatal prints err and exits.
func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func main() {
	cli := humacli.New(func(hooks humacli.Hooks, opts *Options) {
		var httpServer *http.Server

		hooks.OnStart(func() {
			cfg, err := loadConfig(opts)
			if err != nil {
				fatal(err)
			}
			defer zap.L().Sync()

			srv, err := server.New(cfg)
			if err != nil {
				fatal(err)
			}
			defer srv.Close()

			// Views answer 503 with the loading message until this finishes.
			go func() {
				if err := srv.Load(context.Background()); err != nil {
					zap.L().Error("load datasets", zap.Error(err))
				}
			}()

			addr := cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port)
			displayHost := cfg.Server.Host
			if displayHost == "0.0.0.0" {
				displayHost = "localhost"
			}
			baseURL := fmt.Sprintf("http://%s:%d", displayHost, cfg.Server.Port)

			fmt.Println()
			fmt.Printf("schoolmap server starting...\n")
			fmt.Printf("  Server:  %s\n", baseURL)
			fmt.Printf("  Data:    %s\n", cfg.Data.Dir)
			fmt.Println()
			fmt.Printf("  Docs:    %s/docs\n", baseURL)
			fmt.Printf("  OpenAPI: %s/openapi.json\n", baseURL)
			fmt.Println()

			httpServer = &http.Server{Addr: addr, Handler: srv, ReadHeaderTimeout: 10 * time.Second}
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zap.L().Fatal("server error", zap.Error(err))
			}
		})

		hooks.OnStop(func() {
			if httpServer == nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			httpServer.Shutdown(ctx)
		})
	})

	cli.Root().Use = "schoolmap"
	cli.Root().Short = "Zimbabwe school location maps"
	cli.Root().Version = "0.1.0"

	// spec subcommand: export OpenAPI spec
	specCmd := &cobra.Command{
		Use:   "spec",
		Short: "Export OpenAPI spec (JSON by default, --yaml for YAML)",
		Run: humacli.WithOptions(func(cmd *cobra.Command, args []string, opts *Options) {
			cfg, err := loadConfig(opts)
			if err != nil {
				fatal(err)
			}
			srv, err := server.New(cfg)
			if err != nil {
				fatal(err)
			}
			defer srv.Close()
			spec := srv.OpenAPI()

			useYAML, _ := cmd.Flags().GetBool("yaml")

			var output []byte
			if useYAML {
				output, err = yaml.Marshal(spec)
			} else {
				output, err = json.MarshalIndent(spec, "", "  ")
			}
			if err != nil {
				fatal(fmt.Errorf("marshal spec: %w", err))
			}
			fmt.Println(string(output))
		}),
	}
	specCmd.Flags().BoolP("yaml", "y", false, "Output as YAML instead of JSON")
	cli.Root().AddCommand(specCmd)

	cli.Root().AddCommand(buildCmd(), cleanCmd(), legendCmd())

	cli.Run()
}
