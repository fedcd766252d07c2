// Command ttcli is a small operator front-end for the TT engine: single
// put/get/out, mget, vsiz, size, stat and key iteration.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sys/unix"

	"github.com/coleifer/go-kt/codec"
	"github.com/coleifer/go-kt/config"
	"github.com/coleifer/go-kt/logging"
	"github.com/coleifer/go-kt/tt"
)

const caller = "ttcli"

var (
	cfgPath string
	verbose bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Fatal(err)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "ttcli",
		Short: "Command-line client for the TT key/value protocol",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a YAML config file (see config.Config)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log engine/pool diagnostics")

	root.AddCommand(
		newPutCmd(), newGetCmd(), newOutCmd(), newMGetCmd(),
		newVsizCmd(), newSizeCmd(), newStatCmd(), newIterCmd(),
	)
	return root
}

func loadEngine() (*tt.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logFunc := logging.Discard
	if verbose {
		logFunc = func(l logging.Level, format string, a ...any) {
			log.Printf("%s: "+format, append([]any{l}, a...)...)
		}
	}

	c, err := codec.NewRegistry().Get(cfg.Codec)
	if err != nil {
		return nil, errors.Wrap(err, "resolve codec")
	}

	e := tt.New(cfg.Host, cfg.Port,
		tt.WithCodec(c),
		tt.WithDecodeKeys(cfg.DecodeKeys),
		tt.WithTimeout(cfg.Timeout),
		tt.WithConnectionPool(cfg.ConnectionPool),
		tt.WithLogFunc(logFunc),
	)
	return e, nil
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

func newPutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "put <key> <value>",
		Short: "Unconditionally store a key",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEngine()
			if err != nil {
				return err
			}
			defer e.CloseAll()

			if _, err := e.Put(cmd.Context(), caller, args[0], args[1]); err != nil {
				return errors.Wrap(err, "put")
			}
			return nil
		},
	}
}

func newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Fetch one key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEngine()
			if err != nil {
				return err
			}
			defer e.CloseAll()

			v, found, err := e.Get(cmd.Context(), caller, args[0])
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

func newOutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "out <key>",
		Short: "Remove one key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEngine()
			if err != nil {
				return err
			}
			defer e.CloseAll()

			applied, err := e.Out(cmd.Context(), caller, args[0])
			if err != nil {
				return errors.Wrap(err, "out")
			}
			if !applied {
				return fmt.Errorf("key not found: %s", args[0])
			}
			return nil
		},
	}
}

func newMGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mget <key>...",
		Short: "Fetch several keys, skipping the ones that don't exist",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEngine()
			if err != nil {
				return err
			}
			defer e.CloseAll()

			keys := make([]any, len(args))
			for i, a := range args {
				keys[i] = a
			}
			result, err := e.MGet(cmd.Context(), caller, keys)
			if err != nil {
				return errors.Wrap(err, "mget")
			}
			for k, v := range result {
				fmt.Printf("%v\t%v\n", k, v)
			}
			return nil
		},
	}
}

func newVsizCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vsiz <key>",
		Short: "Report the byte length of a stored value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEngine()
			if err != nil {
				return err
			}
			defer e.CloseAll()

			n, found, err := e.Vsiz(cmd.Context(), caller, args[0])
			if err != nil {
				return errors.Wrap(err, "vsiz")
			}
			if !found {
				return fmt.Errorf("key not found: %s", args[0])
			}
			fmt.Println(n)
			return nil
		},
	}
}

func newSizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "size",
		Short: "Report the on-disk database size in bytes",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEngine()
			if err != nil {
				return err
			}
			defer e.CloseAll()

			n, err := e.Size(cmd.Context(), caller)
			if err != nil {
				return errors.Wrap(err, "size")
			}
			fmt.Println(n)
			return nil
		},
	}
}

func newStatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stat",
		Short: "Print server status text",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEngine()
			if err != nil {
				return err
			}
			defer e.CloseAll()

			stat, err := e.Stat(cmd.Context(), caller)
			if err != nil {
				return errors.Wrap(err, "stat")
			}
			fmt.Println(strings.TrimSpace(string(stat)))
			return nil
		},
	}
}

func newIterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "iter",
		Short: "Walk every key in the database",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEngine()
			if err != nil {
				return err
			}
			defer e.CloseAll()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, unix.SIGINT, unix.SIGTERM)
			go func() {
				<-sig
				cancel()
			}()

			it, err := e.Iterate(ctx, caller)
			if err != nil {
				return errors.Wrap(err, "iterinit")
			}
			for {
				key, ok, err := it.Next()
				if err != nil {
					return errors.Wrap(err, "iternext")
				}
				if !ok {
					return nil
				}
				fmt.Println(key)
			}
		},
	}
}
