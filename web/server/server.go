package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/df07/go-hitshade/pkg/config"
	"github.com/df07/go-hitshade/pkg/core"
	"github.com/df07/go-hitshade/pkg/scene"
)

const (
	// DefaultTileSize is smaller than the CLI default so previews update often
	DefaultTileSize = 32
	maxPixels       = 1920 * 1080
)

// Server handles web requests for the progressive preview
type Server struct {
	port      int
	staticDir string
	base      config.Config
	mux       *http.ServeMux
}

// NewServer creates a new web server. base holds file-level defaults that
// request parameters override.
func NewServer(port int, staticDir string, base config.Config) *Server {
	if base.TileSize == 0 {
		base.TileSize = DefaultTileSize
	}
	s := &Server{port: port, staticDir: staticDir, base: base, mux: http.NewServeMux()}

	if staticDir != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(staticDir)))
	}
	s.mux.HandleFunc("/api/render", s.handleRender)
	s.mux.HandleFunc("/api/inspect", s.handleInspect)
	s.mux.HandleFunc("/api/scenes", s.handleScenes)
	s.mux.HandleFunc("/api/health", s.handleHealth)
	return s
}

// Handler returns the server's request router
func (s *Server) Handler() http.Handler { return s.mux }

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	slog.Info("starting web server", "url", "http://localhost"+addr)
	return http.ListenAndServe(addr, s.mux)
}

// RenderRequest represents the scene parameters shared by render and inspect
type RenderRequest struct {
	Scene      string      `json:"scene"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	MaxSamples int         `json:"maxSamples"`
	MaxPasses  int         `json:"maxPasses"`
	Variant    string      `json:"variant"`
	Mode       string      `json:"mode"`
	Gamma      float32     `json:"gamma"`
	ClearColor *[4]float32 `json:"clearColor,omitempty"`
}

// config resolves the request against the server's base configuration
func (s *Server) config(req *RenderRequest) (config.Config, error) {
	override := config.Config{
		Scene:      req.Scene,
		Width:      req.Width,
		Height:     req.Height,
		Samples:    req.MaxSamples,
		Passes:     req.MaxPasses,
		Variant:    req.Variant,
		Mode:       req.Mode,
		Gamma:      req.Gamma,
		ClearColor: req.ClearColor,
	}
	return config.Resolve(s.base, override)
}

// createScene loads the requested scene with the request's overrides
func (s *Server) createScene(ctx context.Context, cfg config.Config, logger core.Logger) (*scene.Scene, error) {
	opts, err := cfg.LoadOptions()
	if err != nil {
		return nil, err
	}
	opts.Logger = logger
	return scene.Load(ctx, cfg.Scene, opts)
}

// parseCommonSceneParams parses the parameters shared by every scene endpoint
func (s *Server) parseCommonSceneParams(r *http.Request, req *RenderRequest) error {
	query := r.URL.Query()

	req.Scene = query.Get("scene")
	req.Variant = query.Get("variant")
	req.Mode = query.Get("mode")

	var err error
	if req.Width, err = parseIntParam(query, "width", 400, 1, 4096); err != nil {
		return err
	}
	if req.Height, err = parseIntParam(query, "height", 225, 1, 4096); err != nil {
		return err
	}
	if req.Width*req.Height > maxPixels {
		return fmt.Errorf("image of %dx%d pixels exceeds the %d pixel limit", req.Width, req.Height, maxPixels)
	}
	if req.Gamma, err = parseFloatParam(query, "gamma", 0, 0.1, 5); err != nil {
		return err
	}
	if raw := query.Get("clear"); raw != "" {
		c, err := parseColorParam(raw)
		if err != nil {
			return err
		}
		req.ClearColor = &c
	}
	return nil
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleScenes lists built-in scenes and discovered model files
func (s *Server) handleScenes(w http.ResponseWriter, r *http.Request) {
	response, err := scene.ListAllScenes()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, response)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("writing response", "err", err)
	}
}

// parseIntParam parses an integer parameter with default value and validation
func parseIntParam(query url.Values, paramName string, defaultValue, minValue, maxValue int) (int, error) {
	str := query.Get(paramName)
	if str == "" {
		return defaultValue, nil
	}

	value, err := strconv.Atoi(str)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter: %s", paramName, str)
	}
	if value < minValue || value > maxValue {
		return 0, fmt.Errorf("%s must be between %d and %d, got %d", paramName, minValue, maxValue, value)
	}
	return value, nil
}

// parseFloatParam parses a float parameter with default value and validation
func parseFloatParam(query url.Values, paramName string, defaultValue, minValue, maxValue float32) (float32, error) {
	str := query.Get(paramName)
	if str == "" {
		return defaultValue, nil
	}

	value, err := strconv.ParseFloat(str, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter: %s", paramName, str)
	}
	if float32(value) < minValue || float32(value) > maxValue {
		return 0, fmt.Errorf("%s must be between %g and %g, got %g", paramName, minValue, maxValue, value)
	}
	return float32(value), nil
}

// parseColorParam parses "r,g,b" or "r,g,b,a"; alpha defaults to 1
func parseColorParam(s string) ([4]float32, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 && len(parts) != 4 {
		return [4]float32{}, fmt.Errorf("invalid clear parameter: %s", s)
	}

	c := [4]float32{0, 0, 0, 1}
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 32)
		if err != nil {
			return [4]float32{}, fmt.Errorf("invalid clear parameter: %s", s)
		}
		c[i] = float32(v)
	}
	return c, nil
}
