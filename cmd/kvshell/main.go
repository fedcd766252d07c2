// Command kvshell is an interactive REPL over either engine, for manual
// poking at a running server. Line editing and history are provided by
// peterh/liner, a real dependency of the teacher's own interactive
// tooling with no retrieved call site in this pack to adapt line for
// line, so the usage here follows the library's documented public API.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/peterh/liner"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/coleifer/go-kt/codec"
	"github.com/coleifer/go-kt/config"
	"github.com/coleifer/go-kt/kt"
	"github.com/coleifer/go-kt/logging"
	"github.com/coleifer/go-kt/tt"
)

const caller = "kvshell"

func main() {
	var dialect string
	var cfgPath string

	root := &cobra.Command{
		Use:   "kvshell",
		Short: "Interactive shell for the KT/TT key/value protocols",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}

			switch dialect {
			case "kt":
				return runKT(cfg)
			case "tt":
				return runTT(cfg)
			default:
				return fmt.Errorf("unknown dialect %q (want kt or tt)", dialect)
			}
		},
	}
	root.Flags().StringVar(&dialect, "dialect", "kt", "protocol dialect: kt or tt")
	root.Flags().StringVar(&cfgPath, "config", "", "path to a YAML config file (see config.Config)")

	if err := root.Execute(); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load config %s", path)
	}
	return cfg, nil
}

func newLine() *liner.State {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	return line
}

func runKT(cfg *config.Config) error {
	c, err := codec.NewRegistry().Get(cfg.Codec)
	if err != nil {
		return errors.Wrap(err, "resolve codec")
	}
	e := kt.New(cfg.Host, cfg.Port,
		kt.WithCodec(c),
		kt.WithDecodeKeys(cfg.DecodeKeys),
		kt.WithTimeout(cfg.Timeout),
		kt.WithConnectionPool(cfg.ConnectionPool),
		kt.WithDefaultDB(cfg.DefaultDB),
		kt.WithLogFunc(logging.Discard),
	)
	defer e.CloseAll()

	ctx := context.Background()
	line := newLine()
	defer line.Close()

	fmt.Printf("kvshell (kt, %s:%d) — get/set/remove/ping/quit\n", cfg.Host, cfg.Port)
	for {
		input, err := line.Prompt("kt> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read line")
		}
		line.AppendHistory(input)

		fields := strings.Fields(input)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit", "exit":
			return nil
		case "ping":
			if err := e.VoidCall(ctx, caller); err != nil {
				fmt.Println("error:", err)
				continue
			}
			fmt.Println("ok")
		case "get":
			if len(fields) != 2 {
				fmt.Println("usage: get <key>")
				continue
			}
			v, found, err := e.Get(ctx, caller, fields[1])
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			if !found {
				fmt.Println("(not found)")
				continue
			}
			fmt.Println(v)
		case "set":
			if len(fields) != 3 {
				fmt.Println("usage: set <key> <value>")
				continue
			}
			if _, err := e.Set(ctx, caller, fields[1], fields[2]); err != nil {
				fmt.Println("error:", err)
			}
		case "remove":
			if len(fields) != 2 {
				fmt.Println("usage: remove <key>")
				continue
			}
			n, err := e.Remove(ctx, caller, fields[1])
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			if n == 0 {
				fmt.Println("(not found)")
			}
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
	}
}

func runTT(cfg *config.Config) error {
	c, err := codec.NewRegistry().Get(cfg.Codec)
	if err != nil {
		return errors.Wrap(err, "resolve codec")
	}
	e := tt.New(cfg.Host, cfg.Port,
		tt.WithCodec(c),
		tt.WithDecodeKeys(cfg.DecodeKeys),
		tt.WithTimeout(cfg.Timeout),
		tt.WithConnectionPool(cfg.ConnectionPool),
		tt.WithLogFunc(logging.Discard),
	)
	defer e.CloseAll()

	ctx := context.Background()
	line := newLine()
	defer line.Close()

	fmt.Printf("kvshell (tt, %s:%d) — put/get/out/size/quit\n", cfg.Host, cfg.Port)
	for {
		input, err := line.Prompt("tt> ")
		if err == liner.ErrPromptAborted || err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read line")
		}
		line.AppendHistory(input)

		fields := strings.Fields(input)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit", "exit":
			return nil
		case "put":
			if len(fields) != 3 {
				fmt.Println("usage: put <key> <value>")
				continue
			}
			if _, err := e.Put(ctx, caller, fields[1], fields[2]); err != nil {
				fmt.Println("error:", err)
			}
		case "get":
			if len(fields) != 2 {
				fmt.Println("usage: get <key>")
				continue
			}
			v, found, err := e.Get(ctx, caller, fields[1])
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			if !found {
				fmt.Println("(not found)")
				continue
			}
			fmt.Println(v)
		case "out":
			if len(fields) != 2 {
				fmt.Println("usage: out <key>")
				continue
			}
			applied, err := e.Out(ctx, caller, fields[1])
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			if !applied {
				fmt.Println("(not found)")
			}
		case "size":
			n, err := e.Size(ctx, caller)
			if err != nil {
				fmt.Println("error:", err)
				continue
			}
			fmt.Println(n)
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
	}
}

