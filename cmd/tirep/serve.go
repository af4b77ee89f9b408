package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tirep/internal/app"
	"tirep/internal/engine"
	"tirep/internal/logging"
	"tirep/internal/mqtt"
	"tirep/internal/server"
	"tirep/internal/watch"
)

const (
	watcherActor  = "watcher"
	listenerActor = "mqtt"
)

func serveCmd() *cobra.Command {
	var addr, basePath string
	var withWatch, withListen bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			authCfg := server.AuthConfig{JWTSecret: os.Getenv("TIREP_JWT_SECRET"), Log: logging.New("auth")}
			if authCfg.JWTSecret == "" {
				return fmt.Errorf("TIREP_JWT_SECRET is required for bearer auth")
			}
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				if !cmd.Flags().Changed("addr") {
					addr = ws.Config.Server.Addr
				}
				if !cmd.Flags().Changed("base-path") {
					basePath = ws.Config.Server.BasePath
				}
				handler, err := server.New(server.Config{
					Engine:   ws.Engine,
					BasePath: basePath,
					Auth:     authCfg,
					Log:      logging.New("http"),
				})
				if err != nil {
					return err
				}
				srv := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}
				var w *watch.Watcher
				if withWatch {
					if w, err = newWatcher(ws, ""); err != nil {
						return err
					}
				}

				g, gctx := errgroup.WithContext(ctx)
				g.Go(func() error {
					<-gctx.Done()
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					return srv.Shutdown(shutdownCtx)
				})
				g.Go(func() error {
					fmt.Printf("Serving tirep API on http://%s%s (OpenAPI at %s/openapi.json, Swagger UI at /docs)\n", addr, basePath, basePath)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						return err
					}
					return nil
				})
				if w != nil {
					g.Go(func() error { return w.Run(gctx) })
				}
				if withListen {
					g.Go(func() error { return runListener(gctx, ws) })
				}
				return g.Wait()
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address (default: config server.addr)")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path (default: config server.base_path)")
	cmd.Flags().BoolVar(&withWatch, "watch", false, "also watch the snapshot directory")
	cmd.Flags().BoolVar(&withListen, "listen", false, "also listen for MQTT snapshot notices")
	return cmd
}

func watchCmd() *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Import and report snapshot files as they are saved",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), func(ctx context.Context, ws *app.Workspace) error {
				w, err := newWatcher(ws, dir)
				if err != nil {
					return err
				}
				return w.Run(ctx)
			})
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "directory to watch (default: config watch.dir)")
	return cmd
}

func listenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Import and report snapshots announced over MQTT",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withWorkspace(cmd.Context(), runListener)
		},
	}
}

func newWatcher(ws *app.Workspace, dir string) (*watch.Watcher, error) {
	if dir == "" {
		dir = ws.Config.Watch.Dir
	}
	log := logging.New("watch")
	return watch.New(dir, ws.Config.Watch.Debounce, func(ctx context.Context, path string) error {
		_, _, err := ws.Engine.ImportAndGenerate(ctx, engine.ImportOptions{Path: path, ActorID: watcherActor})
		return err
	}, log)
}

func runListener(ctx context.Context, ws *app.Workspace) error {
	cfg := ws.Config.MQTT
	if cfg.Broker == "" {
		return errors.New("mqtt.broker is not configured")
	}
	log := logging.New("mqtt")
	client := mqtt.NewClient(cfg, log)
	if err := client.Connect(); err != nil {
		return err
	}
	defer client.Disconnect()
	l := mqtt.NewListener(client, cfg.Topic, cfg.QoS, func(ctx context.Context, n mqtt.Notice) error {
		rec, _, err := ws.Engine.ImportAndGenerate(ctx, engine.ImportOptions{
			Path:    app.Resolve(ws.Dir, n.Path),
			Name:    n.Name,
			ActorID: listenerActor,
		})
		if rec.ID != "" {
			log.Debug("notice imported", zap.String("snapshot", rec.ID))
		}
		return err
	}, log)
	return l.Run(ctx)
}
