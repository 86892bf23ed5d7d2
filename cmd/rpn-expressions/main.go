package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/goccy/go-json"
	"github.com/jessevdk/go-flags"
	"github.com/karupanerura/rpn-expressions/internal/config"
	"github.com/karupanerura/rpn-expressions/internal/expression"
	"github.com/karupanerura/rpn-expressions/internal/server"
	"github.com/karupanerura/rpn-expressions/internal/service"
	"github.com/karupanerura/rpn-expressions/internal/store"
	"github.com/karupanerura/rpn-expressions/internal/types"
	"github.com/mattn/go-isatty"
	"golang.org/x/sync/errgroup"
)

type Option struct {
	Config  string `short:"c" long:"config" description:"[OPTIONAL] Config file (.json, .yaml or .toml)" required:"false"`
	Listen  string `short:"l" long:"listen" description:"[OPTIONAL] Listen host and port to serve API" required:"false"`
	Store   string `short:"s" long:"store" description:"[OPTIONAL] Store file (.json, .yaml or .msgpack), in-memory if omitted" required:"false"`
	Eval    string `short:"e" long:"eval" description:"[OPTIONAL] Evaluate a comma separated postfix expression and exit" required:"false"`
	Lenient bool   `long:"lenient" description:"[OPTIONAL] Return the top of the stack when values are left over" required:"false"`
	Debug   bool   `long:"debug" description:"[OPTIONAL] Dump the evaluation stack" required:"false"`
}

const shutdownTimeout = 10 * time.Second

var errorColor = color.New(color.FgRed, color.Bold)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	var opt Option
	parser := flags.NewParser(&opt, flags.Default)
	_, err := parser.ParseArgs(args)
	if err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return 0
		} else {
			parser.WriteHelp(os.Stdout)
			return 1
		}
	}
	if opt.Eval != "" && opt.Listen != "" {
		parser.WriteHelp(os.Stdout)
		return 1
	}

	cfg := &config.Config{}
	if opt.Config != "" {
		cfg, err = config.Load(opt.Config)
		if err != nil {
			log.Printf("failed to load config: %v", err)
			return 1
		}
	}
	applyOption(cfg, &opt)

	// evaluate mode
	if opt.Eval != "" {
		return evaluate(opt.Eval, cfg)
	}

	if cfg.Listen == "" {
		parser.WriteHelp(os.Stdout)
		return 1
	}

	st, err := openStore(cfg.StoreFile)
	if err != nil {
		log.Printf("failed to open store: %v", err)
		return 1
	}

	svc := service.New(st, service.WithLenientEvaluation(cfg.Lenient()), service.WithDebug(cfg.Debug))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err = serve(ctx, cfg.Listen, server.NewHTTPHandler(svc)); err != nil {
		log.Printf("failed to serve: %v", err)
		return 1
	}
	return 0
}

func applyOption(cfg *config.Config, opt *Option) {
	if opt.Listen != "" {
		cfg.Listen = opt.Listen
	}
	if opt.Store != "" {
		cfg.StoreFile = opt.Store
	}
	if opt.Lenient {
		strict := false
		cfg.StrictEvaluation = &strict
	}
	if opt.Debug {
		cfg.Debug = true
	}
}

func openStore(filePath string) (store.Store, error) {
	if filePath == "" {
		return store.NewMemoryStore(), nil
	}
	st, err := store.OpenFileStore(filePath)
	if err != nil {
		return nil, fmt.Errorf("store.OpenFileStore: %w", err)
	}
	return st, nil
}

func evaluate(source string, cfg *config.Config) int {
	ev := expression.Evaluator{Lenient: cfg.Lenient(), Debug: cfg.Debug}
	b, err := expression.ParseBuffer(source)
	if err == nil {
		var v float64
		if v, err = ev.Evaluate(b); err == nil {
			if err = dumpJSON(os.Stdout, map[string]string{
				"expression": b.String(),
				"result":     expression.FormatResult(v),
			}); err != nil {
				log.Printf("failed to dump result: %v", err)
				return 1
			}
			return 0
		}
	}

	var exception types.Exception
	if errors.As(err, &exception) {
		if _, err = errorColor.Fprintln(os.Stderr, exception.Error()); err != nil {
			log.Printf("failed to dump evaluation error: %v", err)
		}
		if err = dumpJSON(os.Stderr, exception.Exception()); err != nil {
			log.Printf("failed to dump evaluation error as JSON: %v", err)
		}
	} else {
		log.Printf("failed to evaluate expression: %v", err)
	}
	return 1
}

func serve(ctx context.Context, listen string, handler http.Handler) error {
	srv := http.Server{
		Handler:           handler,
		Addr:              listen,
		ReadHeaderTimeout: 5 * time.Second,
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		log.Printf("Listen HTTP on %s", listen)
		if err := srv.ListenAndServe(); errors.Is(err, http.ErrServerClosed) {
			return nil
		} else if err != nil {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		log.Printf("shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return eg.Wait()
}

func dumpJSON(w io.Writer, v any) error {
	opts := []json.EncodeOptionFunc{json.DisableHTMLEscape()}
	if f, ok := w.(interface{ Fd() uintptr }); ok {
		if isatty.IsTerminal(f.Fd()) {
			opts = append(opts, json.Colorize(json.DefaultColorScheme))
		}
	}

	b, err := json.MarshalIndentWithOption(v, "", "\t", opts...)
	if err != nil {
		return fmt.Errorf("json.MarshalIndentWithOption: %w", err)
	}

	if _, err = w.Write(b); err != nil {
		return fmt.Errorf("w.Write: %w", err)
	}
	if _, err = io.WriteString(w, "\n"); err != nil {
		return fmt.Errorf("io.WriteString: %w", err)
	}
	return nil
}
