// Copyright (c) Jeevanandam M. (https://github.com/jeevatkm)
// Source code and usage is governed by a MIT style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"aahframe.work/authn/config"
	"aahframe.work/authn/i18n"
	"aahframe.work/authn/location"
	"aahframe.work/authn/log"
	"aahframe.work/authn/security"
	"aahframe.work/authn/security/anticsrf"
	"aahframe.work/authn/security/audit"
	"aahframe.work/authn/security/realm"
	"aahframe.work/authn/security/session"
	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	defaultConfigFile = "authn.conf"
	reloadDelay       = 200 * time.Millisecond
)

type server struct {
	cfgFiles  []string
	profile   string
	cfg       *config.Config
	realm     *realm.Realm
	locations *location.Directory
	sessions  *session.Manager
	manager   *security.Manager
	csrf      *anticsrf.AntiCSRF
	messages  *i18n.I18n
	registry  *prometheus.Registry
	srv       *http.Server

	reloadMu sync.Mutex
}

func loadConfig(files []string, profile string) (*config.Config, error) {
	cfg, err := config.LoadFiles(files...)
	if err != nil {
		return nil, err
	}
	if len(profile) > 0 {
		if err = cfg.SetProfile("env." + profile); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func newServerFromFiles(files []string, profile string) (*server, error) {
	cfg, err := loadConfig(files, profile)
	if err != nil {
		return nil, err
	}
	s, err := newServer(cfg, filepath.Dir(files[0]))
	if err != nil {
		return nil, err
	}
	s.cfgFiles, s.profile = files, profile
	return s, nil
}

// newServer creates the server, relative file paths in the config are
// resolved against baseDir.
func newServer(cfg *config.Config, baseDir string) (*server, error) {
	logger, err := log.New(cfg)
	if err != nil {
		return nil, err
	}
	log.SetDefaultLogger(logger)

	s := &server{cfg: cfg, registry: prometheus.NewRegistry()}
	if s.realm, err = realm.NewFromConfig(cfg); err != nil {
		return nil, err
	}

	if file := cfg.StringDefault("locations.file", ""); len(file) > 0 {
		if !filepath.IsAbs(file) {
			file = filepath.Join(baseDir, file)
		}
		if s.locations, err = location.LoadFile(file); err != nil {
			return nil, fmt.Errorf("locations: %v", err)
		}
	} else if s.locations, err = location.NewDirectory(); err != nil {
		return nil, err
	}

	if s.csrf, err = anticsrf.New(cfg); err != nil {
		return nil, err
	}

	s.messages = i18n.New(cfg.StringDefault("i18n.default", "en"))
	if err = s.messages.LoadFS(messageFiles, "i18n"); err != nil {
		return nil, err
	}
	if dir := cfg.StringDefault("i18n.dir", ""); len(dir) > 0 {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(baseDir, dir)
		}
		if err = s.messages.Load(dir); err != nil {
			return nil, err
		}
	}

	if s.sessions, err = session.NewManager(cfg); err != nil {
		return nil, err
	}

	s.manager, err = security.NewManager(cfg, s.sessions, security.Collaborators{
		Verifier:      s.realm,
		TokenVerifier: s.realm,
		UserLookup:    s.realm,
		Locations:     s.locations,
		AuditSink:     audit.NewLoggerSink(logger),
	})
	if err != nil {
		_ = s.sessions.Close()
		return nil, err
	}
	s.manager.ErrorHandler = s.handleError

	s.registry.MustRegister(s.manager.Metrics, collectors.NewGoCollector())

	s.srv = &http.Server{
		Addr:              cfg.StringDefault("server.address", ":8080"),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *server) routes() http.Handler {
	app := http.NewServeMux()
	app.HandleFunc("/", s.home)
	app.HandleFunc(loginPage, s.page(loginPage))
	app.HandleFunc(tokenPage, s.page(tokenPage))
	app.HandleFunc("/logout", s.logout)

	root := http.NewServeMux()
	root.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	root.Handle("/", s.csrf.Middleware(s.manager.Handler(app)))
	return root
}

func (s *server) run(ctx context.Context, watch bool) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()
	defer func() { _ = s.sessions.Close() }()

	s.sessions.StartCleanup(ctx)
	go s.listenForReload(ctx)
	if watch {
		w, err := s.watch(ctx)
		if err != nil {
			return err
		}
		defer func() { _ = w.Close() }()
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("authn server listening on %s", s.srv.Addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	graceTimeout, err := s.cfg.DurationDefault("server.timeout.grace_shutdown", 60*time.Second)
	if err != nil {
		log.Warnf("'server.timeout.grace_shutdown' value is not a valid time unit, assigning default")
		graceTimeout = 60 * time.Second
	}
	sctx, scancel := context.WithTimeout(context.Background(), graceTimeout)
	defer scancel()

	log.Trace("authn server shutdown with timeout: ", graceTimeout)
	if err = s.srv.Shutdown(sctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// reload re-reads the configuration files and swaps the authentication
// setup. A failing configuration keeps the current one in effect.
func (s *server) reload() error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	log.Info("Authentication reload starts ...")
	cfg, err := loadConfig(s.cfgFiles, s.profile)
	if err != nil {
		log.Errorf("Unable to reload configuration: %v", err)
		return err
	}
	if err = s.manager.Reload(cfg); err != nil {
		log.Errorf("Unable to reinitialize authentication: %v", err)
		return err
	}
	s.cfg = cfg
	log.Info("Authentication reinitialize succeeded")
	return nil
}

func (s *server) listenForReload(ctx context.Context) {
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGHUP)
	defer signal.Stop(sc)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sc:
			log.Warn("Hangup signal (SIGHUP) received")
			_ = s.reload()
		}
	}
}

// watch reloads on changes of the configuration files. Directories are
// watched since editors replace files on save.
func (s *server) watch(ctx context.Context) (*fsnotify.Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	files := make(map[string]bool, len(s.cfgFiles))
	dirs := make(map[string]bool)
	for _, f := range s.cfgFiles {
		abs, err := filepath.Abs(f)
		if err != nil {
			_ = w.Close()
			return nil, err
		}
		files[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err = w.Add(dir); err != nil {
			_ = w.Close()
			return nil, err
		}
		log.Debugf("Watching '%s' for configuration changes", dir)
	}

	go func() {
		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if !files[filepath.Clean(ev.Name)] ||
					ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				log.Debugf("Configuration file changed: %s", ev)
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDelay, func() { _ = s.reload() })
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				log.Error(err)
			}
		}
	}()
	return w, nil
}
