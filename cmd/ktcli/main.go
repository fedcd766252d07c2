// Command ktcli is a small operator front-end for the KT engine: single
// get/set/remove, plus a ping liveness check.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/coleifer/go-kt/codec"
	"github.com/coleifer/go-kt/config"
	"github.com/coleifer/go-kt/internal/waitready"
	"github.com/coleifer/go-kt/kt"
	"github.com/coleifer/go-kt/logging"
)

// caller is the fixed identity this single-threaded CLI process leases
// sockets under; it never runs two operations concurrently.
const caller = "ktcli"

var (
	cfgPath string
	verbose bool
	dbFlag  uint16
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ktcli",
		Short: "Command-line client for the KT key/value protocol",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a YAML config file (see config.Config)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log engine/pool diagnostics")
	root.PersistentFlags().Uint16Var(&dbFlag, "db", 0, "database index for this call")

	root.AddCommand(newGetCmd(), newSetCmd(), newRemoveCmd(), newPingCmd())
	return root
}

func loadEngine() (*kt.Engine, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	logFunc := logging.Discard
	if verbose {
		logFunc = func(l logging.Level, format string, a ...any) {
			log.Printf("%s: "+format, append([]any{l}, a...)...)
		}
	}

	c, err := codec.NewRegistry().Get(cfg.Codec)
	if err != nil {
		return nil, nil, errors.Wrap(err, "resolve codec")
	}

	e := kt.New(cfg.Host, cfg.Port,
		kt.WithCodec(c),
		kt.WithDecodeKeys(cfg.DecodeKeys),
		kt.WithTimeout(cfg.Timeout),
		kt.WithConnectionPool(cfg.ConnectionPool),
		kt.WithDefaultDB(cfg.DefaultDB),
		kt.WithLogFunc(logFunc),
	)
	return e, cfg, nil
}

func loadConfig() (*config.Config, error) {
	if cfgPath == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, errors.Wrapf(err, "load config %s", cfgPath)
	}
	return cfg, nil
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Fetch one key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := loadEngine()
			if err != nil {
				return err
			}
			defer e.CloseAll()

			v, found, err := e.Get(cmd.Context(), caller, args[0], kt.WithDB(dbFlag))
			if err != nil {
				return errors.Wrap(err, "get")
			}
			if !found {
				return fmt.Errorf("key not found: %s", args[0])
			}
			fmt.Println(v)
			return nil
		},
	}
}

func newSetCmd() *cobra.Command {
	var expire int64

	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := loadEngine()
			if err != nil {
				return err
			}
			defer e.CloseAll()

			opts := []kt.CallOption{kt.WithDB(dbFlag)}
			if expire > 0 {
				opts = append(opts, kt.WithExpire(expire))
			}
			if _, err := e.Set(cmd.Context(), caller, args[0], args[1], opts...); err != nil {
				return errors.Wrap(err, "set")
			}
			return nil
		},
	}
	cmd.Flags().Int64Var(&expire, "expire", 0, "seconds from now until expiration (0 = never)")
	return cmd
}

func newRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <key>",
		Short: "Remove one key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, _, err := loadEngine()
			if err != nil {
				return err
			}
			defer e.CloseAll()

			n, err := e.Remove(cmd.Context(), caller, args[0], kt.WithDB(dbFlag))
			if err != nil {
				return errors.Wrap(err, "remove")
			}
			if n == 0 {
				return fmt.Errorf("key not found: %s", args[0])
			}
			return nil
		},
	}
}

func newPingCmd() *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that the server is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			address := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, unix.SIGINT, unix.SIGTERM)
			go func() {
				<-sig
				cancel()
			}()

			if wait {
				if err := waitready.Wait(ctx, address, waitready.DefaultOptions()); err != nil {
					return errors.Wrap(err, "ping")
				}
				fmt.Println("ok")
				return nil
			}

			e, _, err := loadEngine()
			if err != nil {
				return err
			}
			defer e.CloseAll()

			if err := e.VoidCall(ctx, caller); err != nil {
				return errors.Wrap(err, "ping")
			}
			fmt.Println("ok")
			return nil
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "retry with backoff until the server accepts a connection")
	return cmd
}
