package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	auditchain "github.com/hxlane/ticketforge/internal/audit/chain"
	rbac "github.com/hxlane/ticketforge/internal/auth/rbac"
	jwt "github.com/hxlane/ticketforge/internal/auth/token"
	"github.com/hxlane/ticketforge/internal/cache"
	common "github.com/hxlane/ticketforge/internal/cli/common"
	"github.com/hxlane/ticketforge/internal/db"
	"github.com/hxlane/ticketforge/internal/directory"
	"github.com/hxlane/ticketforge/internal/events"
	"github.com/hxlane/ticketforge/internal/infra/persistence/gorm/support"
	usersgorm "github.com/hxlane/ticketforge/internal/infra/persistence/gorm/users"
	"github.com/hxlane/ticketforge/internal/objstore"
	httpserver "github.com/hxlane/ticketforge/internal/server/http"
	"github.com/hxlane/ticketforge/internal/telemetry"
)

func main() {
	var cfgFile string
	root := &cobra.Command{
		Use:   "ticketforge",
		Short: "Ticket form engine for game community support",
		RunE: func(cmd *cobra.Command, args []string) error {
			// default logger first so early config errors are visible
			common.SetupLoggerWithFile("info", "console", "", 0, 0, 0, false)
			viper.SetEnvPrefix("TICKETFORGE")
			viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
			viper.AutomaticEnv()
			if cfgFile != "" {
				viper.SetConfigFile(cfgFile)
				if err := viper.ReadInConfig(); err != nil {
					slog.Warn("read config", "error", err)
				} else {
					slog.Info("config loaded", "file", viper.ConfigFileUsed())
				}
			}
			v := viper.GetViper()
			if sub := v.Sub("server"); sub != nil {
				v = sub
			}
			common.SetupLoggerWithFile(
				v.GetString("log.level"),
				v.GetString("log.format"),
				v.GetString("log.file"),
				v.GetInt("log.max_size"),
				v.GetInt("log.max_backups"),
				v.GetInt("log.max_age"),
				v.GetBool("log.compress"),
			)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			gdb, err := db.Open(v.GetString("db.dsn"))
			if err != nil {
				slog.Error("open database", "error", err)
				os.Exit(1)
			}
			if err := support.AutoMigrate(gdb); err != nil {
				slog.Error("migrate support", "error", err)
				os.Exit(1)
			}
			if err := usersgorm.AutoMigrate(gdb); err != nil {
				slog.Error("migrate users", "error", err)
				os.Exit(1)
			}
			users := usersgorm.NewRepo(gdb)
			if err := users.EnsureAdmin(ctx, v.GetString("admin.username"), v.GetString("admin.password")); err != nil {
				slog.Warn("seed admin", "error", err)
			}

			aw, err := auditchain.NewWriter(v.GetString("audit.path"))
			if err != nil {
				slog.Error("audit writer", "error", err)
				os.Exit(1)
			}
			defer aw.Close()

			var pol rbac.Policy
			if mp, pp := v.GetString("rbac.model"), v.GetString("rbac.policy"); mp != "" && pp != "" {
				cp, err := rbac.NewCasbinPolicy(mp, pp)
				if err != nil {
					slog.Warn("casbin policy load failed, using defaults", "error", err)
					pol = rbac.DefaultPolicy()
				} else {
					pol = cp
				}
			} else {
				pol = rbac.DefaultPolicy()
			}

			store := cache.New(v.GetString("redis.url"))

			prod := events.NewProducer(events.ParseBrokers(v.GetString("kafka.brokers")), v.GetString("kafka.topic"))
			defer prod.Close()

			var dir *directory.Directory
			if p := v.GetString("servers.config"); p != "" {
				dir, err = directory.Load(p)
				if err != nil {
					slog.Error("load server directory", "error", err)
					os.Exit(1)
				}
				if err := dir.Watch(ctx); err != nil {
					slog.Warn("watch server directory", "error", err)
				}
			}

			var players httpserver.PlayerLookup
			if c := directory.NewPlayerClient(v.GetString("players.api_url")); c != nil {
				players = c
			}

			obj, err := objstore.Open(ctx, objstore.Config{
				Driver:       v.GetString("storage.driver"),
				Bucket:       v.GetString("storage.bucket"),
				Region:       v.GetString("storage.region"),
				Endpoint:     v.GetString("storage.endpoint"),
				AccessKey:    v.GetString("storage.access_key"),
				SecretKey:    v.GetString("storage.secret_key"),
				BaseDir:      v.GetString("storage.base_dir"),
				SignedURLTTL: v.GetDuration("storage.signed_url_ttl"),
			})
			if err != nil {
				slog.Error("open object storage", "error", err)
				os.Exit(1)
			}

			metrics, err := telemetry.NewTicketMetrics()
			if err != nil {
				slog.Warn("metrics init", "error", err)
			}

			srv, err := httpserver.NewServer(httpserver.Options{
				DB:       gdb,
				Audit:    aw,
				Policy:   pol,
				JWT:      jwt.NewManager(v.GetString("jwt_secret")),
				Cache:    store,
				Events:   prod,
				Servers:  dir,
				Players:  players,
				ObjStore: obj,
				Metrics:  metrics,
				TokenTTL: v.GetDuration("token_ttl"),
			})
			if err != nil {
				slog.Error("http server", "error", err)
				os.Exit(1)
			}
			return srv.Run(ctx, v.GetString("http_addr"))
		},
	}

	root.Flags().StringVar(&cfgFile, "config", "", "config file (yaml), e.g. configs/server.yaml")
	root.Flags().String("http_addr", ":8080", "http api listen address")
	root.Flags().String("jwt_secret", "dev-secret", "jwt hs256 secret")
	root.Flags().Duration("token_ttl", 24*time.Hour, "session token lifetime")
	root.Flags().String("db.dsn", "", "database DSN/URL; postgres:// or sqlite path (default data/ticketforge.db)")
	root.Flags().String("redis.url", "", "redis url for the category cache; empty disables caching")
	root.Flags().String("kafka.brokers", "", "comma-separated kafka brokers for ticket events; empty disables")
	root.Flags().String("kafka.topic", "ticket-events", "kafka topic for ticket events")
	root.Flags().String("servers.config", "configs/servers.yaml", "game server directory yaml")
	root.Flags().String("players.api_url", "", "player lookup API base url; empty disables resolution")
	root.Flags().String("audit.path", "logs/audit.log", "hash-chained audit log path")
	root.Flags().String("admin.username", "admin", "seed admin username (first boot only)")
	root.Flags().String("admin.password", "admin", "seed admin password (first boot only)")
	root.Flags().String("rbac.model", "", "casbin model path; empty uses the built-in policy")
	root.Flags().String("rbac.policy", "", "casbin policy path")
	root.Flags().String("storage.driver", "", "attachment storage driver: s3|oss|file")
	root.Flags().String("storage.bucket", "", "object storage bucket")
	root.Flags().String("storage.region", "", "object storage region (s3)")
	root.Flags().String("storage.endpoint", "", "object storage endpoint (s3/oss/minio)")
	root.Flags().String("storage.access_key", "", "object storage access key")
	root.Flags().String("storage.secret_key", "", "object storage secret key")
	root.Flags().String("storage.base_dir", "", "local storage base dir when driver=file")
	root.Flags().Duration("storage.signed_url_ttl", 15*time.Minute, "signed URL TTL")
	_ = viper.BindPFlags(root.Flags())

	if err := root.Execute(); err != nil {
		slog.Error("server exit", "error", err)
		os.Exit(1)
	}
}
