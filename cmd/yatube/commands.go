package main

import (
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/app"
	"github.com/d60-Lab/yatube/internal/cache"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/pkg/database"
	"github.com/d60-Lab/yatube/pkg/logger"
)

type rootOptions struct {
	configPath string
	cfg        *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "yatube",
		Short:         "Yatube blogging platform",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if err := logger.Init(cfg.Log.Level, cfg.Log.Development); err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			opts.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default ./config.yaml)")

	root.AddCommand(
		newServeCmd(opts),
		newMigrateCmd(opts),
		newGroupCmd(opts),
		newCacheCmd(opts),
	)
	return root
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var migrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := app.New(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			if migrate {
				if err := a.Migrate(); err != nil {
					return err
				}
			}
			return a.Run(ctx)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "run migrations before serving")
	return cmd
}

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update database tables",
		RunE: func(_ *cobra.Command, _ []string) error {
			db, err := database.InitDB(opts.cfg)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			logger.Info("migration finished", zap.String("driver", opts.cfg.Database.Driver))
			return nil
		},
	}
}

func newGroupCmd(opts *rootOptions) *cobra.Command {
	group := &cobra.Command{
		Use:   "group",
		Short: "Manage post groups",
	}

	var title, description string
	create := &cobra.Command{
		Use:   "create <slug>",
		Short: "Create a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := database.InitDB(opts.cfg)
			if err != nil {
				return err
			}
			g := &model.Group{Slug: args[0], Title: title, Description: description}
			if g.Title == "" {
				g.Title = g.Slug
			}
			if err := repository.NewGroupRepository(db).Create(cmd.Context(), g); err != nil {
				return fmt.Errorf("create group %s: %w", g.Slug, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created group %d %s\n", g.ID, g.Slug)
			return nil
		},
	}
	create.Flags().StringVar(&title, "title", "", "group title (defaults to the slug)")
	create.Flags().StringVar(&description, "description", "", "group description")

	group.AddCommand(create)
	return group
}

func newCacheCmd(opts *rootOptions) *cobra.Command {
	c := &cobra.Command{
		Use:   "cache",
		Short: "Page cache maintenance",
	}
	c.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop every cached page",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if !opts.cfg.Redis.Enabled {
				return errors.New("redis is disabled: page caches live in each server process and expire on their own")
			}
			client, err := cache.NewRedisClient(ctx, opts.cfg.Redis)
			if err != nil {
				return fmt.Errorf("connect redis: %w", err)
			}
			defer client.Close()
			store := cache.NewRedisStore(client, opts.cfg.Cache.Prefix)
			if err := cache.NewPageCache(store, opts.cfg.Cache.IndexTTL).Clear(ctx); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "page cache cleared")
			return nil
		},
	})
	return c
}
