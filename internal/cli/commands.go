package cli

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"fieldlookup/internal/config"
)

func newSyncCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Create the configured tables and indices if missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := r.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			synced, err := e.svc.Sync(cmd.Context())
			p := newPrinter(outputFormat(cmd), cmd.OutOrStdout())
			if p.isJSON() {
				if jerr := p.json(map[string]any{"synced": synced}); jerr != nil {
					return jerr
				}
				return err
			}
			for _, name := range synced {
				fmt.Fprintln(cmd.OutOrStdout(), "synced", name)
			}
			return err
		},
	}
}

func newTablesCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List tables with their fields and indices",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := r.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			cat := e.svc.Current()
			p := newPrinter(outputFormat(cmd), cmd.OutOrStdout())
			if p.isJSON() {
				out := make([]config.TableConfig, 0, cat.Len())
				for _, name := range cat.Names() {
					s, _ := cat.Table(name)
					out = append(out, config.TableConfig{Name: name, Fields: s.Fields(), Indices: s.Indices()})
				}
				return p.json(out)
			}
			var rows [][]string
			for _, name := range cat.Names() {
				s, _ := cat.Table(name)
				s.EachIndex(func(idx string, fields []string) bool {
					rows = append(rows, []string{name, idx, strings.Join(fields, ", ")})
					return true
				})
				if len(s.Indices()) == 0 {
					rows = append(rows, []string{name, "-", ""})
				}
			}
			p.table([]string{"TABLE", "INDEX", "FIELDS"}, rows)
			return nil
		},
	}
}

func newCountCmd(r *runner) *cobra.Command {
	var f lookupFlags
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count driving rows with a match in the reference table",
		Example: `  fieldlookup count --driving aFilter --reference bFilter \
      --pair date=created --pair number1=numb1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := r.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			drv, _, err := f.apply(e.svc.NewSession())
			if err != nil {
				return err
			}
			n, err := drv.Count(cmd.Context())
			if err != nil {
				return err
			}
			p := newPrinter(outputFormat(cmd), cmd.OutOrStdout())
			if p.isJSON() {
				return p.json(map[string]int{"count": n})
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newExplainCmd(r *runner) *cobra.Command {
	var f lookupFlags
	cmd := &cobra.Command{
		Use:   "explain",
		Short: "Show the indices a lookup matches and the statement it runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := r.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			drv, l, err := f.apply(e.svc.NewSession())
			if err != nil {
				return err
			}
			stmt, stmtArgs := drv.SQL()

			p := newPrinter(outputFormat(cmd), cmd.OutOrStdout())
			pred, hasIn := drv.In()
			if p.isJSON() {
				out := map[string]any{"sql": stmt, "args": stmtArgs}
				if hasIn {
					out["lookup"] = l.String()
					out["drivingIndex"] = pred.DrivingIndex
					out["referenceIndex"] = pred.ReferenceIndex
				}
				return p.json(out)
			}
			var kv [][2]string
			if hasIn {
				kv = append(kv,
					[2]string{"Lookup", l.String()},
					[2]string{"Driving index", pred.DrivingIndex.Name},
					[2]string{"Reference index", pred.ReferenceIndex.Name},
				)
			}
			kv = append(kv, [2]string{"SQL", stmt})
			for i, a := range stmtArgs {
				kv = append(kv, [2]string{"Arg " + strconv.Itoa(i+1), fmt.Sprint(a)})
			}
			p.kv(kv)
			return nil
		},
	}
	f.register(cmd)
	return cmd
}

func newWatchCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Revalidate the configuration file whenever it changes",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := r.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			path, _ := cmd.Flags().GetString("config")
			out := cmd.OutOrStdout()
			return config.Watch(ctx, path, e.log, func(cfg *config.Config, err error) {
				if err != nil {
					fmt.Fprintln(out, "invalid:", describe(err))
					return
				}
				if err := e.svc.ApplyConfig(context.WithoutCancel(ctx), cfg); err != nil {
					fmt.Fprintln(out, "invalid:", describe(err))
					return
				}
				fmt.Fprintf(out, "ok: %d tables\n", e.svc.Current().Len())
			})
		},
	}
}

func newTruncateCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "truncate <table>",
		Short: "Delete every row of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := r.open(cmd)
			if err != nil {
				return err
			}
			defer e.Close()

			n, err := e.svc.Truncate(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			p := newPrinter(outputFormat(cmd), cmd.OutOrStdout())
			if p.isJSON() {
				return p.json(map[string]int{"deleted": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d rows from %s\n", n, args[0])
			return nil
		},
	}
}
