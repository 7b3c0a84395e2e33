package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ppplink/internal/pppd"
	"ppplink/internal/serialport"
	"ppplink/internal/settings"
)

// Router provides the HTTP control surface for the PPP link.
// Endpoints (under basePath, default "/ppp"):
//
//	GET  {base}/settings   current settings (defaults + warning when unreadable)
//	POST {base}/settings   save settings; body = the four connection fields
//	GET  {base}/status     supervisor snapshot, always 200
//	POST {base}/run        launch pppd with the saved settings
//	POST {base}/stop       terminate pppd (graceful, then forceful)
//	POST {base}/ack        clear a failed link back to stopped
//	GET  {base}/enabled    persisted auto-start flag
//	POST {base}/enabled    save the auto-start flag; body: {"enabled": bool}
//	GET  {base}/devices    serial ports present on the host
//
// Validation errors map to 400, state conflicts to 409, storage and launch
// failures to 500. Handlers never crash; gin.Recovery backstops the rest.
type Router struct {
	store    *settings.Store
	sup      *pppd.Supervisor
	basePath string
}

// NewRouter constructs a Router with a configurable basePath.
func NewRouter(store *settings.Store, sup *pppd.Supervisor, basePath string) *Router {
	return &Router{store: store, sup: sup, basePath: sanitizeBase(basePath)}
}

// Handler returns an http.Handler powered by gin that can be mounted in any server/mux.
func (r *Router) Handler() http.Handler {
	g := gin.New()
	g.Use(gin.Recovery())
	group := g.Group(r.basePath)
	group.GET("/settings", r.handleGetSettings)
	group.POST("/settings", r.handleSaveSettings)
	group.GET("/status", r.handleStatus)
	group.POST("/run", r.handleRun)
	group.POST("/stop", r.handleStop)
	group.POST("/ack", r.handleAck)
	group.GET("/enabled", r.handleGetEnabled)
	group.POST("/enabled", r.handleSaveEnabled)
	group.GET("/devices", r.handleDevices)
	return g
}

// NewServer starts a standalone HTTP server on addr using this router.
func NewServer(addr, basePath string, store *settings.Store, sup *pppd.Supervisor) (*http.Server, error) {
	r := NewRouter(store, sup, basePath)
	server := &http.Server{
		Addr:              addr,
		Handler:           r.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() { _ = server.ListenAndServe() }()
	return server, nil
}

// --- Handlers ---

type errorResp struct {
	Error string `json:"error"`
}

type okResp struct {
	OK bool `json:"ok"`
}

type settingsResp struct {
	Settings settings.Settings `json:"settings"`
	Warning  string            `json:"warning,omitempty"`
}

type enabledBody struct {
	Enabled bool `json:"enabled"`
}

func (r *Router) handleGetSettings(c *gin.Context) {
	s, err := r.store.Load()
	resp := settingsResp{Settings: s}
	if err != nil {
		resp.Warning = "stored settings unreadable, showing defaults: " + err.Error()
	}
	writeJSON(c, http.StatusOK, resp)
}

func (r *Router) handleSaveSettings(c *gin.Context) {
	var s settings.Settings
	if err := c.ShouldBindJSON(&s); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if err := r.store.Save(s); err != nil {
		writeError(c, err)
		return
	}
	// Absent devices are accepted; USB adapters may be plugged in later.
	resp := gin.H{"ok": true}
	if !serialport.Exists(s.Device) {
		resp["warning"] = "device " + s.Device + " is not currently present"
	}
	writeJSON(c, http.StatusOK, resp)
}

func (r *Router) handleStatus(c *gin.Context) {
	writeJSON(c, http.StatusOK, r.sup.Status())
}

func (r *Router) handleRun(c *gin.Context) {
	if err := r.sup.Run(); err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleStop(c *gin.Context) {
	if err := r.sup.Stop(); err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleAck(c *gin.Context) {
	if err := r.sup.Acknowledge(); err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleGetEnabled(c *gin.Context) {
	enabled, err := r.store.Enabled()
	if err != nil {
		writeJSON(c, http.StatusOK, gin.H{"enabled": false, "warning": err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"enabled": enabled})
}

func (r *Router) handleSaveEnabled(c *gin.Context) {
	var body enabledBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error()})
		return
	}
	if err := r.store.SetEnabled(body.Enabled); err != nil {
		writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, okResp{OK: true})
}

func (r *Router) handleDevices(c *gin.Context) {
	ports, err := serialport.List()
	if err != nil {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: "enumerate serial ports: " + err.Error()})
		return
	}
	writeJSON(c, http.StatusOK, gin.H{"devices": ports})
}

// writeError maps the error taxonomy onto HTTP status codes: validation 400,
// conflict 409, everything else (storage, launch) 500.
func writeError(c *gin.Context, err error) {
	var ve *settings.ValidationError
	var ce *pppd.ConflictError
	switch {
	case errors.As(err, &ve):
		writeJSON(c, http.StatusBadRequest, errorResp{Error: err.Error()})
	case errors.As(err, &ce):
		writeJSON(c, http.StatusConflict, errorResp{Error: err.Error()})
	default:
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: err.Error()})
	}
}
