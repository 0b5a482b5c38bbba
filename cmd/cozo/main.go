// Package main is the `cozo` CLI: a cobra root command with one
// subcommand per script-level entry point (spec.md §6), plus `serve` for a
// long-running process fronting them over HTTP. Mirrors the teacher's
// cmd/<tool>/main.go + cobra subcommand split (SPEC_FULL.md §1).
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/chiefnoah/cozo"
	"github.com/chiefnoah/cozo/config"
)

type rootFlags struct {
	configPath string
	dataPath   string
	debug      bool
}

func main() {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:   "cozo",
		Short: "Embeddable transactional datalog database",
	}
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to a cozo.toml config file")
	rootCmd.PersistentFlags().StringVar(&flags.dataPath, "data", "", "override config.data_path")
	rootCmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "development-formatted logs")

	rootCmd.AddCommand(
		serveCmd(flags),
		queryCmd(flags),
		schemaCmd(flags),
		txCmd(flags),
		sysCmd(flags),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func cmdCtx() context.Context { return context.Background() }

func loadConfig(flags *rootFlags) (config.Config, error) {
	cfg := config.Default()
	if flags.configPath != "" {
		var err error
		cfg, err = config.Load(flags.configPath, cfg)
		if err != nil {
			return config.Config{}, err
		}
	}
	if flags.dataPath != "" {
		cfg.DataPath = flags.dataPath
	}
	if flags.debug {
		cfg.Debug = true
	}
	return cfg, nil
}

func openDb(flags *rootFlags) (*cozo.Db, error) {
	cfg, err := loadConfig(flags)
	if err != nil {
		return nil, err
	}
	log, err := cozo.NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	return cozo.Open(cmdCtx(), cfg, log)
}

func readPayload(args []string) ([]byte, error) {
	if len(args) > 0 {
		return os.ReadFile(args[0])
	}
	return io.ReadAll(os.Stdin)
}

func queryCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "query [file]",
		Short: "Run a query script (JSON InputProgram on stdin or a file argument)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			db, err := openDb(flags)
			if err != nil {
				return err
			}
			defer db.Close()
			payload, err := readPayload(args)
			if err != nil {
				return err
			}
			out, err := db.QueryJSON(cmdCtx(), payload)
			if err != nil {
				return err
			}
			return printJSON(out)
		},
	}
}

func schemaCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "schema [file]",
		Short: "Apply a schema request (attribute upserts/retractions)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			db, err := openDb(flags)
			if err != nil {
				return err
			}
			defer db.Close()
			payload, err := readPayload(args)
			if err != nil {
				return err
			}
			out, err := db.SchemaJSON(cmdCtx(), payload)
			if err != nil {
				return err
			}
			return printJSON(out)
		},
	}
}

func txCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tx [file]",
		Short: "Commit a transaction request (triple asserts/retracts)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			db, err := openDb(flags)
			if err != nil {
				return err
			}
			defer db.Close()
			payload, err := readPayload(args)
			if err != nil {
				return err
			}
			out, err := db.TxJSON(cmdCtx(), payload, time.Now())
			if err != nil {
				return err
			}
			return printJSON(out)
		},
	}
}

func sysCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sys [file]",
		Short: "Run an administrative op (Compact, ListSchema, ListRelations, ...)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			db, err := openDb(flags)
			if err != nil {
				return err
			}
			defer db.Close()
			payload, err := readPayload(args)
			if err != nil {
				return err
			}
			out, err := db.SysJSON(cmdCtx(), payload)
			if err != nil {
				return err
			}
			return printJSON(out)
		},
	}
}

func serveCmd(flags *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run cozo as a long-lived process exposing the four entry points over HTTP",
		RunE: func(_ *cobra.Command, _ []string) error {
			db, err := openDb(flags)
			if err != nil {
				return err
			}
			defer db.Close()

			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			listenAddr := addr
			if listenAddr == "" {
				listenAddr = cfg.ListenAddr
			}

			mux := http.NewServeMux()
			mux.HandleFunc("/query", jsonHandler(db.QueryJSON))
			mux.HandleFunc("/schema", jsonHandler(db.SchemaJSON))
			mux.HandleFunc("/tx", jsonHandler(func(ctx context.Context, payload []byte) ([]byte, error) {
				return db.TxJSON(ctx, payload, time.Now())
			}))
			mux.HandleFunc("/sys", jsonHandler(db.SysJSON))

			return http.ListenAndServe(listenAddr, mux)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "override config.listen_addr")
	return cmd
}

func jsonHandler(fn func(ctx context.Context, payload []byte) ([]byte, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeErr(w, err)
			return
		}
		out, err := fn(r.Context(), body)
		if err != nil {
			writeErr(w, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(out)
	}
}

func writeErr(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusBadRequest)
	json.NewEncoder(w).Encode(struct {
		Error string `json:"error"`
	}{err.Error()})
}

func printJSON(payload []byte) error {
	_, err := os.Stdout.Write(append(payload, '\n'))
	return err
}
