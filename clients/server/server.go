// Package server provides the namecard HTTP API: render and export cards
// from a preset, validate names, and manage uploaded background images.
package server

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/xob0t/namecard/internal/logger"
	"github.com/xob0t/namecard/pkg/compositor"
	"github.com/xob0t/namecard/pkg/template"
)

// Config configures a Server. Zero values select defaults.
type Config struct {
	// Addr is the listen address. Defaults to ":8080".
	Addr string
	// Preset is the card every request renders. Defaults to the stock card.
	Preset *template.Preset
	// StaticDir, when set to an existing directory, is served at "/" and
	// anchors web-style image paths such as "/eid-photo/eid.png".
	StaticDir string
	// DevCORS enables permissive CORS for a separately served UI.
	DevCORS bool
	// Loader overrides how the card's images are fetched. Uploaded assets
	// and source restrictions only apply to the default loader.
	Loader compositor.Loader
}

// Server serves the HTTP API.
type Server struct {
	cfg      Config
	assets   *assetManager
	cache    *compositor.CachedLoader
	source   *compositor.SourceLoader
	renderer *template.Renderer
	log      *slog.Logger

	mu     sync.Mutex
	srv    *http.Server
	ln     net.Listener
	closed bool
}

// New creates a server for cfg.
func New(cfg Config) (*Server, error) {
	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Preset == nil {
		cfg.Preset = template.DefaultPreset()
	}

	s := &Server{
		cfg:    cfg,
		assets: newAssetManager(),
		log:    logger.For("server"),
	}

	loader := cfg.Loader
	if loader == nil {
		// Sources come from clients: keep files inside StaticDir and remote
		// fetches on the preset's own hosts.
		s.source = &compositor.SourceLoader{
			BaseDir:     cfg.StaticDir,
			Assets:      s.assets.bytes,
			Restrict:    true,
			RemoteHosts: cfg.Preset.Background.RemoteHosts(),
		}
		s.cache = compositor.NewCachedLoader(s.source, compositor.DefaultCacheSize)
		loader = s.cache
	}

	r, err := template.NewRenderer(cfg.Preset, template.RendererOptions{Loader: loader, BaseDir: cfg.StaticDir})
	if err != nil {
		return nil, fmt.Errorf("create renderer: %w", err)
	}
	s.renderer = r
	return s, nil
}

// Handler returns the HTTP handler with all routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API routes.
	mux.HandleFunc("POST /api/render", s.handleRender)
	mux.HandleFunc("POST /api/export", s.handleExport)
	mux.HandleFunc("POST /api/validate", s.handleValidate)
	mux.HandleFunc("GET /api/preset", s.handlePreset)
	mux.HandleFunc("POST /api/upload/image", s.handleUploadImage)
	mux.HandleFunc("GET /api/assets/{id}", s.handleGetAsset)
	mux.HandleFunc("DELETE /api/assets/{id}", s.handleDeleteAsset)
	mux.HandleFunc("GET /api/assets", s.handleListAssets)

	// Static files.
	if st, err := os.Stat(s.cfg.StaticDir); s.cfg.StaticDir != "" && err == nil && st.IsDir() {
		fileServer := http.FileServer(http.Dir(s.cfg.StaticDir))
		mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Clean path to avoid oddities.
			r.URL.Path = filepath.ToSlash(filepath.Clean("/" + r.URL.Path))
			fileServer.ServeHTTP(w, r)
		}))
	}

	var h http.Handler = mux
	if s.cfg.DevCORS {
		h = WithDevCORS(h)
	}
	return s.logRequests(h)
}

// Start listens on the configured address and serves in the background
// until ctx is done or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return errors.New("server already stopped")
	}
	if s.srv != nil {
		return nil
	}

	s.srv = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.srv = nil
		return fmt.Errorf("listen %s: %w", s.cfg.Addr, err)
	}
	s.ln = ln

	go func() {
		<-ctx.Done()
		_ = s.Stop()
	}()

	srv := s.srv
	go func() {
		err := srv.Serve(ln)
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return
		}
		s.log.Error("serve failed", "err", err)
	}()

	s.log.Info("listening", "addr", ln.Addr().String())
	return nil
}

// Addr returns the address the server listens on, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Stop shuts the server down, waiting up to five seconds for requests.
func (s *Server) Stop() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	srv := s.srv
	ln := s.ln
	s.srv = nil
	s.ln = nil
	s.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}
	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// RunServe parses serve flags and runs the server until ctx is done.
func RunServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	port := fs.String("port", "8080", "Port to listen on")
	fs.StringVar(port, "p", "8080", "Port to listen on (shorthand)")
	presetPath := fs.String("preset", "", "Preset file (.json, .toml or .cardpack)")
	static := fs.String("static", "", "Directory served at / and used for web-style image paths")
	dev := fs.Bool("dev", false, "Enable permissive CORS for local UI development")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg := Config{Addr: ":" + *port, StaticDir: *static, DevCORS: *dev}
	if *presetPath != "" {
		p, cleanup, err := template.LoadPreset(*presetPath)
		if err != nil {
			return err
		}
		defer cleanup()
		cfg.Preset = p
	}

	s, err := New(cfg)
	if err != nil {
		return err
	}
	if err := s.Start(ctx); err != nil {
		return err
	}
	fmt.Printf("namecard API → http://localhost:%s/api/preset\n", *port)

	<-ctx.Done()
	return s.Stop()
}
