// Package cli implements the fieldlookup command tree: creating the declared
// tables, and counting or explaining lookups between them.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"fieldlookup/internal/config"
	"fieldlookup/internal/logging"
	"fieldlookup/internal/secret"
	"fieldlookup/internal/service"
	"fieldlookup/internal/storage"
)

// NewRootCommand returns the root command with all subcommands wired in.
// Command output goes to out, logs to errOut.
func NewRootCommand(out, errOut io.Writer, secrets secret.Store) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "fieldlookup",
		Short:         "Filter tables by field-matched lookups into other tables",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)

	cmd.PersistentFlags().StringP("config", "c", "fieldlookup.yaml", "configuration file")
	cmd.PersistentFlags().String("log-level", "", "override the configured log level")
	cmd.PersistentFlags().Bool("introspect", false, "read table schemas from the database instead of the config file")
	cmd.PersistentFlags().StringP("output", "o", "table", "output format: table or json")

	r := &runner{secrets: secrets}
	cmd.AddCommand(
		newSyncCmd(r),
		newTablesCmd(r),
		newCountCmd(r),
		newExplainCmd(r),
		newWatchCmd(r),
		newTruncateCmd(r),
		newSecretCmd(r),
	)
	return cmd
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	root := NewRootCommand(os.Stdout, os.Stderr, secret.Default())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		return 1
	}
	return 0
}

type runner struct {
	secrets secret.Store
}

// env is everything a command needs once config and database are open.
type env struct {
	cfg *config.Config
	log *logrus.Entry
	svc *service.Catalog
}

func (e *env) Close() {
	_ = e.svc.Close(context.Background())
}

// logger builds the command logger from the config and the --log-level flag.
func (r *runner) logger(cmd *cobra.Command, cfg *config.Config) (*logrus.Entry, error) {
	level := cfg.Log.Level
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		level = v
	}
	log, err := logging.New(cmd.ErrOrStderr(), level, cfg.Log.JSON)
	if err != nil {
		return nil, err
	}
	return log.WithField("command", cmd.Name()), nil
}

// open loads the configuration, connects to the database and fills the
// catalog from config or, with --introspect, from the database.
func (r *runner) open(cmd *cobra.Command) (*env, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	log, err := r.logger(cmd, cfg)
	if err != nil {
		return nil, err
	}

	var password string
	if r.secrets != nil {
		pw, err := r.secrets.Get(cfg.Connection.SecretKey())
		if err != nil {
			return nil, fmt.Errorf("resolve password: %w", err)
		}
		password = string(pw)
	}

	db, err := storage.Open(&cfg.Connection, password, log)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(cmd.Context()); err != nil {
		_ = db.Close()
		return nil, err
	}
	svc := service.NewCatalog(db, nil, service.LogEmitter{Log: log}, log)

	ctx := cmd.Context()
	introspect, _ := cmd.Flags().GetBool("introspect")
	if introspect {
		err = svc.Introspect(ctx)
	} else {
		err = svc.ApplyConfig(ctx, cfg)
	}
	if err != nil {
		_ = svc.Close(ctx)
		return nil, err
	}
	log.WithField("tables", svc.Current().Len()).Debug("ready")
	return &env{cfg: cfg, log: log, svc: svc}, nil
}

// outputFormat returns "json" or "table" from the --output flag.
func outputFormat(cmd *cobra.Command) string {
	f, _ := cmd.Flags().GetString("output")
	return f
}
