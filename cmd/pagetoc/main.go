// CLAUDE:SUMMARY CLI entry point for pagetoc: live TOC overlay on a Chrome tab, or an offline outline of a local HTML file.
// Command pagetoc attaches a table-of-contents overlay to a page and keeps
// it in sync while the page is read.
//
// Usage:
//
//	pagetoc -url https://example.com/guide        # live overlay in Chrome
//	pagetoc -config pagetoc.yaml -addr :8087      # live overlay plus control API
//	pagetoc -file guide.html -print md            # offline outline, no browser
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/pagetoc/tocsync"
	"github.com/hazyhaar/pagetoc/tocsync/dom"
)

func main() {
	configPath := flag.String("config", "", "path to pagetoc.yaml config file")
	pageURL := flag.String("url", "", "page to open in Chrome")
	pageFile := flag.String("file", "", "local HTML file to open (or outline with -print)")
	printFmt := flag.String("print", "", "print the outline of -file and exit: md, json or html")
	addr := flag.String("addr", "", "serve the control API on this address")
	headless := flag.Bool("headless", false, "run Chrome without a window")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := tocsync.DefaultConfig()
	if *configPath != "" {
		c, err := tocsync.LoadConfigFile(*configPath)
		if err != nil {
			logger.Error("pagetoc: load config", "error", err)
			os.Exit(1)
		}
		cfg = c
	}
	if *pageURL != "" {
		cfg.Page.URL = *pageURL
	}
	if *pageFile != "" {
		cfg.Page.File = *pageFile
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *headless {
		cfg.Browser.Mode = "headless"
	}

	var err error
	switch {
	case *printFmt != "":
		err = runPrint(ctx, cfg, *printFmt)
	case cfg.Page.URL != "" || cfg.Page.File != "":
		err = runLive(ctx, logger, cfg)
	default:
		fmt.Fprintln(os.Stderr, "usage: pagetoc -url <url> | -file <path> [-print md|json|html] | -config <file>")
		os.Exit(2)
	}
	if err != nil {
		logger.Error("pagetoc: fatal", "error", err)
		os.Exit(1)
	}
}

func runPrint(ctx context.Context, cfg *tocsync.Config, format string) error {
	if cfg.Page.File == "" {
		return errors.New("-print needs -file")
	}
	f, err := os.Open(cfg.Page.File)
	if err != nil {
		return err
	}
	defer f.Close()

	doc, err := dom.NewMemory(f)
	if err != nil {
		return err
	}
	s, err := tocsync.Outline(ctx, doc, cfg.Overlay.Title)
	if err != nil {
		return err
	}

	var out string
	switch format {
	case "md":
		out, err = s.Markdown()
	case "html":
		out, err = s.Fragment()
		out += "\n"
	case "json":
		var data []byte
		data, err = json.MarshalIndent(s.Entries, "", "  ")
		out = string(data) + "\n"
	default:
		return fmt.Errorf("unknown -print format %q", format)
	}
	if err != nil {
		return err
	}
	_, err = os.Stdout.WriteString(out)
	return err
}

func runLive(ctx context.Context, logger *slog.Logger, cfg *tocsync.Config) error {
	sess, err := tocsync.OpenSession(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer sess.Close()

	engine := tocsync.New(tocsync.Options{
		Page:   sess.Page,
		Store:  sess.Store,
		Timing: cfg.Timing,
		Title:  cfg.Overlay.Title,
		Logger: logger,
	})

	if cfg.Server.Addr != "" {
		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           routes(engine, cfg.Server.MCP),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			logger.Info("pagetoc: control api listening", "addr", cfg.Server.Addr, "mcp", cfg.Server.MCP)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("pagetoc: http server", "error", err)
			}
		}()
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(sctx)
		}()
	}

	logger.Info("pagetoc: running", "url", sess.URL)
	return engine.Run(ctx)
}

func routes(engine *tocsync.Engine, withMCP bool) http.Handler {
	r := engine.Routes()
	if withMCP {
		srv := mcp.NewServer(&mcp.Implementation{Name: "pagetoc", Version: "0.1.0"}, nil)
		engine.RegisterMCP(srv)
		r.Handle("/mcp", mcp.NewStreamableHTTPHandler(func(*http.Request) *mcp.Server { return srv }, nil))
	}
	return r
}
