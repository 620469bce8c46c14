package tocsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"

	"github.com/hazyhaar/pagetoc/tocsync/dom"
	"github.com/hazyhaar/pagetoc/tocsync/internal/browser"
	"github.com/hazyhaar/pagetoc/tocsync/prefs"
)

// Session is a Chrome tab opened on the configured document, with the
// bridge installed and a preference store chosen by cfg.Prefs.
type Session struct {
	Page  dom.Page
	Store prefs.Store
	URL   string

	closers []func() error
}

// OpenSession starts (or connects to) Chrome, opens the configured
// document and installs the page bridge. Close releases everything.
func OpenSession(ctx context.Context, cfg *Config, logger *slog.Logger) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	target, err := PageURL(cfg.Page)
	if err != nil {
		return nil, err
	}

	s := &Session{URL: target}
	mgr := browser.NewManager(browser.Config{
		RemoteURL: cfg.Browser.Remote,
		Headless:  cfg.Browser.Mode == "headless",
		Stealth:   cfg.Browser.Stealth,
		Logger:    logger,
	})
	if _, err := mgr.Start(ctx); err != nil {
		return nil, err
	}
	s.closers = append(s.closers, mgr.Close)

	tab, err := browser.OpenTab(ctx, mgr, target, cfg.Page.LoadTimeout)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.closers = append(s.closers, tab.Close)

	page, err := browser.NewPage(ctx, tab, logger)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.closers = append(s.closers, func() error { page.Close(); return nil })
	s.Page = page

	switch cfg.Prefs.Backend {
	case "memory":
		s.Store = prefs.NewMemory()
	case "sqlite":
		scope := cfg.Prefs.Scope
		if scope == "" {
			scope = Origin(target)
		}
		st, err := prefs.OpenSQLite(cfg.Prefs.DBPath, scope)
		if err != nil {
			s.Close()
			return nil, err
		}
		s.closers = append(s.closers, st.Close)
		s.Store = st
	default:
		s.Store = browser.NewLocalStorage(tab)
	}

	logger.Info("tocsync: session open", "url", target, "prefs", cfg.Prefs.Backend)
	return s, nil
}

// Close releases the session in reverse order of acquisition.
func (s *Session) Close() error {
	var errs []error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	s.closers = nil
	return errors.Join(errs...)
}

// PageURL resolves the document to open: page.url, or page.file as a
// file:// URL.
func PageURL(pc PageConfig) (string, error) {
	switch {
	case pc.URL != "":
		u, err := url.Parse(pc.URL)
		if err != nil || u.Scheme == "" {
			return "", fmt.Errorf("tocsync: page url %q: not absolute", pc.URL)
		}
		return u.String(), nil
	case pc.File != "":
		abs, err := filepath.Abs(pc.File)
		if err != nil {
			return "", fmt.Errorf("tocsync: page file: %w", err)
		}
		return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
	default:
		return "", errors.New("tocsync: no page url or file configured")
	}
}

// Origin returns scheme://host of raw, the scope under which a page's
// preferences are shared. Local files share the "file://" scope.
func Origin(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return raw
	}
	return u.Scheme + "://" + u.Host
}
