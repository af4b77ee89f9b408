package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tirep/internal/app"
	"tirep/internal/config"
	"tirep/internal/db"
	"tirep/internal/engine"
	"tirep/internal/generator"
	"tirep/internal/logging"
	"tirep/internal/render"
	"tirep/internal/reports"
	"tirep/internal/repo"
	"tirep/internal/server"
	"tirep/internal/snapshot"
)

var rootCmd = &cobra.Command{
	Use:   "tirep",
	Short: "Campaign snapshot reports",
	Long: `tirep turns campaign snapshots into Markdown reports.
- Snapshot: one saved game state (YAML or JSON) imported into the workspace store.
- Observer: the faction whose knowledge the reports are written from.
- Reports: technology, relations, resources, armies, councilors and prospecting tables.
- Triggers: a directory watcher and an MQTT listener import and report new saves.
- API: 'tirep serve' exposes snapshots and reports over HTTP.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		level, format := viper.GetString("log-level"), viper.GetString("log-format")
		if level == "" || format == "" {
			if cfg, err := config.LoadOptional(workspace); err == nil && cfg != nil {
				if level == "" {
					level = cfg.Log.Level
				}
				if format == "" {
					format = cfg.Log.Format
				}
			}
		}
		if level == "" {
			level = "info"
		}
		return logging.Init(level, format)
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("TIREP")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	flags := rootCmd.PersistentFlags()
	flags.StringP("workspace", "w", ".", "workspace directory")
	flags.Bool("json", false, "output JSON")
	flags.String("actor-id", "local-user", "actor identifier")
	flags.String("observer", "", "faction to report for (overrides config and snapshot)")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	flags.String("log-format", "", "log format (console, json)")
	for _, name := range []string{"workspace", "json", "actor-id", "observer", "log-level", "log-format"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
}

func registerCommands() {
	rootCmd.AddCommand(snapshotCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(apiKeyCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(watchCmd())
	rootCmd.AddCommand(listenCmd())
}

func snapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Manage stored snapshots",
	}
	cmd.AddCommand(snapshotImportCmd())
	cmd.AddCommand(snapshotListCmd())
	cmd.AddCommand(snapshotShowCmd())
	cmd.AddCommand(snapshotDeleteCmd())
	return cmd
}

func snapshotImportCmd() *cobra.Command {
	var name, format string
	var generate bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Validate and store a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				opts := engine.ImportOptions{
					Path:    args[0],
					Format:  snapshot.Format(format),
					Name:    name,
					ActorID: viper.GetString("actor-id"),
				}
				if !generate {
					rec, err := ws.Engine.ImportSnapshot(ctx, opts)
					if err != nil {
						return err
					}
					return printJSONOrTable(rec)
				}
				rec, results, err := ws.Engine.ImportAndGenerate(ctx, opts)
				if rec.ID == "" {
					return err
				}
				if viper.GetBool("json") {
					if perr := printJSON(map[string]any{"snapshot": rec, "reports": results}); perr != nil {
						return perr
					}
					return err
				}
				fmt.Printf("imported %s (%s)\n", rec.ID, rec.GameDate)
				printResults(results)
				return err
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "display name (default: file name)")
	cmd.Flags().StringVar(&format, "format", "", "yaml or json (default: by extension)")
	cmd.Flags().BoolVar(&generate, "generate", false, "write the configured reports after import")
	return cmd
}

func snapshotListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List snapshots, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				items, err := ws.Engine.Repo.ListSnapshots(ctx, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				fmt.Print(render.ASCIITable(snapshotTable, items))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "max snapshots")
	return cmd
}

func snapshotShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show [id]",
		Short: "Show snapshot metadata (default: latest)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				rec, err := ws.Engine.GetSnapshot(ctx, argOr(args, engine.Latest))
				if err != nil {
					return err
				}
				return printJSONOrTable(rec)
			})
		},
	}
}

func snapshotDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				if err := ws.Engine.DeleteSnapshot(ctx, args[0], viper.GetString("actor-id")); err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"deleted": args[0]})
				}
				fmt.Println("deleted", args[0])
				return nil
			})
		},
	}
}

// snapshotSource binds the flags that pick which snapshot a report reads.
type snapshotSource struct {
	id   string
	file string
}

func (s *snapshotSource) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&s.id, "snapshot", engine.Latest, "stored snapshot id")
	cmd.Flags().StringVar(&s.file, "file", "", "read a snapshot file instead of the store")
}

func (s *snapshotSource) view(ctx context.Context, ws *app.Workspace) (*snapshot.View, error) {
	return ws.View(ctx, s.id, s.file, viper.GetString("observer"))
}

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render reports",
	}
	cmd.AddCommand(reportListCmd())
	cmd.AddCommand(reportGenerateCmd())
	cmd.AddCommand(reportShowCmd())
	cmd.AddCommand(reportExportCmd())
	return cmd
}

func reportListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			if viper.GetBool("json") {
				out := []map[string]string{}
				for _, r := range reports.All() {
					out = append(out, map[string]string{"name": r.Name, "title": r.Title})
				}
				return printJSON(out)
			}
			fmt.Print(render.ASCIITable(reportTable, reports.All()))
			return nil
		},
	}
}

func reportGenerateCmd() *cobra.Command {
	var src snapshotSource
	var out string
	var only []string
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write report files for a snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				v, err := src.view(ctx, ws)
				if err != nil {
					return err
				}
				opts := engine.GenerateOptions{
					Dir:     out,
					Only:    only,
					ActorID: viper.GetString("actor-id"),
				}
				if src.file == "" {
					if opts.SnapshotID, err = ws.Engine.ResolveID(ctx, src.id); err != nil {
						return err
					}
				}
				results, err := ws.Engine.Generate(ctx, v, opts)
				if viper.GetBool("json") {
					if perr := printJSON(results); perr != nil {
						return perr
					}
					return err
				}
				printResults(results)
				return err
			})
		},
	}
	src.bind(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output directory (default: config output.dir)")
	cmd.Flags().StringSliceVar(&only, "only", nil, "report names to write (default: config output.reports or all)")
	return cmd
}

func reportShowCmd() *cobra.Command {
	var src snapshotSource
	cmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Print one report to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				v, err := src.view(ctx, ws)
				if err != nil {
					return err
				}
				body, err := ws.Engine.RenderReport(v, args[0])
				if err != nil {
					return err
				}
				_, err = os.Stdout.Write(body)
				return err
			})
		},
	}
	src.bind(cmd)
	return cmd
}

func reportExportCmd() *cobra.Command {
	var src snapshotSource
	var format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Print the technology export as YAML or JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			if viper.GetBool("json") {
				format = "json"
			}
			if format != "yaml" && format != "json" {
				return fmt.Errorf("unknown export format %q", format)
			}
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				v, err := src.view(ctx, ws)
				if err != nil {
					return err
				}
				return reports.WriteExport(os.Stdout, v, format)
			})
		},
	}
	src.bind(cmd)
	cmd.Flags().StringVar(&format, "format", "yaml", "yaml or json")
	return cmd
}

func configCmd() *cobra.Command {
	cfg := &cobra.Command{
		Use:   "config",
		Short: "Inspect workspace config",
		Long:  "Config lives in tirep.yml at the workspace root: observer, output directory and report list, watcher, MQTT broker, API server and logging.",
	}
	cfg.AddCommand(configInitCmd())
	cfg.AddCommand(configShowCmd())
	cfg.AddCommand(configValidateCmd())
	return cfg
}

func configInitCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default tirep.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.Path(viper.GetString("workspace"))
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(viper.GetString("observer"))), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func configShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show effective config",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.LoadConfig(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			if cfg.MQTT.Password != "" {
				cfg.MQTT.Password = "********"
			}
			return printJSONOrTable(cfg)
		},
	}
}

func configValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate tirep.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := config.Load(viper.GetString("workspace"))
			if viper.GetBool("json") {
				return printJSON(map[string]any{"ok": err == nil, "error": fmt.Sprint(err)})
			}
			if err != nil {
				return err
			}
			fmt.Println("config OK")
			return nil
		},
	}
}

func apiKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikey",
		Short: "Manage API credentials",
	}
	cmd.AddCommand(apiKeyCreateCmd())
	cmd.AddCommand(apiKeyListCmd())
	cmd.AddCommand(apiKeyRevokeCmd())
	cmd.AddCommand(apiKeyTokenCmd())
	return cmd
}

func apiKeyCreateCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key for the current actor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				key, plain, err := ws.Engine.CreateAPIKey(ctx, viper.GetString("actor-id"), name)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(map[string]any{"id": key.ID, "actor_id": key.ActorID, "name": key.Name, "key": plain})
				}
				fmt.Printf("api key %s for %s (shown once):\n%s\n", key.ID, key.ActorID, plain)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "label for the key")
	return cmd
}

func apiKeyListCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				actorID := viper.GetString("actor-id")
				if all {
					actorID = ""
				}
				keys, err := ws.Engine.Repo.ListAPIKeys(ctx, actorID)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(keys)
				}
				fmt.Print(render.ASCIITable(apiKeyTable, keys))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "list keys of every actor")
	return cmd
}

func apiKeyRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <id>",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				if err := ws.Engine.Repo.DeleteAPIKey(ctx, args[0]); err != nil {
					return err
				}
				fmt.Println("revoked", args[0])
				return nil
			})
		},
	}
}

func apiKeyTokenCmd() *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token for the current actor with TIREP_JWT_SECRET",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret := os.Getenv("TIREP_JWT_SECRET")
			if secret == "" {
				return errors.New("TIREP_JWT_SECRET is required to sign tokens")
			}
			token, err := server.SignToken(secret, viper.GetString("actor-id"), ttl)
			if err != nil {
				return err
			}
			if viper.GetBool("json") {
				return printJSON(map[string]any{"token": token, "expires_in": ttl.String()})
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func logCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "log", Short: "Event log"}
	cmd.AddCommand(logTailCmd())
	return cmd
}

func logTailCmd() *cobra.Command {
	var n int
	var f repo.EventFilter
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Tail events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				events, err := ws.Engine.Repo.LatestEvents(ctx, n, f)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(events)
				}
				fmt.Print(render.ASCIITable(eventTable, events))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&n, "n", 20, "number of events")
	cmd.Flags().StringVar(&f.Type, "type", "", "event type filter")
	cmd.Flags().StringVar(&f.EntityKind, "entity-kind", "", "entity kind")
	cmd.Flags().StringVar(&f.EntityID, "entity-id", "", "entity id")
	return cmd
}

// --- helpers ---

func withWorkspace(ctx context.Context, fn func(context.Context, *app.Workspace) error) error {
	ws, err := app.Open(ctx, viper.GetString("workspace"), logging.New("engine"))
	if err != nil {
		return err
	}
	defer ws.Close()
	return fn(ctx, ws)
}

func printResults(results []generator.Result) {
	fmt.Print(render.ASCIITable(resultTable, results))
}

func argOr(args []string, def string) string {
	if len(args) > 0 {
		return args[0]
	}
	return def
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
