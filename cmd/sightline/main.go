package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/zeusync/sightline/internal/config"
	"github.com/zeusync/sightline/internal/injector"
	"github.com/zeusync/sightline/internal/scene"
)

const usage = `usage:
  sightline eval [-config file] scene...   print one JSON line per check
  sightline serve [-config file]           serve HTTP and websocket queries`

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "sightline:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	switch args[0] {
	case "eval":
		return runEval(ctx, args[1:], out)
	case "serve":
		return runServe(ctx, args[1:])
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
}

func loadConfig(fs *flag.FlagSet, args []string) (*config.Config, error) {
	path := fs.String("config", "", "configuration file (YAML, or JSON by extension)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return config.Load(*path)
}

func runEval(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("eval", flag.ContinueOnError)
	scenes := fs.String("scene", "", "scene file; more may follow as arguments")
	cfg, err := loadConfig(fs, args)
	if err != nil {
		return err
	}
	paths := fs.Args()
	if *scenes != "" {
		paths = append([]string{*scenes}, paths...)
	}
	if len(paths) == 0 {
		return errors.New("eval: no scene given")
	}

	engine, err := injector.InitializeEngine(cfg)
	if err != nil {
		return err
	}
	docs, err := scene.LoadAll(paths...)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	for _, doc := range docs {
		evals, err := scene.Evaluate(ctx, engine, doc, cfg.Policy(), cfg.Workers)
		if err != nil {
			return err
		}
		for _, e := range evals {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
	}
	return nil
}

func runServe(ctx context.Context, args []string) error {
	cfg, err := loadConfig(flag.NewFlagSet("serve", flag.ContinueOnError), args)
	if err != nil {
		return err
	}
	srv, err := injector.InitializeServer(cfg)
	if err != nil {
		return err
	}
	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()
	return srv.Stop(context.Background())
}
