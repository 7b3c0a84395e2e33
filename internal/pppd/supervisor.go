package pppd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"ppplink/internal/history"
	"ppplink/internal/logger"
	"ppplink/internal/metrics"
	"ppplink/internal/settings"
)

const (
	DefaultGracePeriod   = 3 * time.Second
	DefaultConfirmWindow = 2 * time.Second
)

// Config controls how the supervisor launches and terminates pppd.
type Config struct {
	BinaryPath    string        // pppd executable, default "pppd" (resolved via PATH)
	GracePeriod   time.Duration // SIGTERM wait before SIGKILL escalation
	ConfirmWindow time.Duration // time pppd must stay up before Starting becomes Running
	Log           logger.Config // destination for captured pppd output
}

func (c *Config) applyDefaults() {
	if c.BinaryPath == "" {
		c.BinaryPath = "pppd"
	}
	if c.GracePeriod <= 0 {
		c.GracePeriod = DefaultGracePeriod
	}
	if c.ConfirmWindow <= 0 {
		c.ConfirmWindow = DefaultConfirmWindow
	}
}

// Supervisor owns the lifecycle of exactly one external pppd process bound to
// the persisted connection settings.
//
// All transitions run on a single state machine goroutine fed by a command
// channel, so run/stop/exit notifications are linearizable. A dedicated
// waiter goroutine holds the only cmd.Wait reference and reports the exit
// over exitChan; unexpected exits are picked up even when no API request is
// in flight.
type Supervisor struct {
	cfg   Config
	store *settings.Store
	log   *slog.Logger

	mu        sync.RWMutex
	state     State
	pid       int
	startedAt time.Time
	stoppedAt time.Time
	lastErr   string
	launched  settings.Settings
	history   []history.Sink

	cmd  *exec.Cmd
	outW io.WriteCloser
	errW io.WriteCloser

	cmdChan  chan command
	exitChan chan error
	doneChan chan struct{}
}

type command struct {
	action commandAction
	reply  chan error
}

type commandAction int

const (
	actionRun commandAction = iota
	actionStop
	actionAck
	actionShutdown
)

// New creates a supervisor and starts its state machine goroutine.
func New(cfg Config, store *settings.Store) *Supervisor {
	cfg.applyDefaults()
	s := &Supervisor{
		cfg:      cfg,
		store:    store,
		log:      slog.Default().With("component", "pppd"),
		state:    StateStopped,
		cmdChan:  make(chan command, 16),
		exitChan: make(chan error),
		doneChan: make(chan struct{}),
	}
	go s.runStateMachine()
	return s
}

// SetHistory configures history sinks (thread-safe).
func (s *Supervisor) SetHistory(sinks ...history.Sink) {
	s.mu.Lock()
	s.history = append([]history.Sink(nil), sinks...)
	s.mu.Unlock()
}

// Run launches pppd with a snapshot of the current settings.
// Returns *ConflictError unless the link is stopped or failed, and
// *settings.ValidationError when the snapshot does not validate.
func (s *Supervisor) Run() error { return s.send(actionRun) }

// Stop requests graceful termination, escalating to SIGKILL after the grace
// period. Returns *ConflictError when the link is already stopped.
func (s *Supervisor) Stop() error { return s.send(actionStop) }

// Acknowledge clears a failed link back to stopped.
func (s *Supervisor) Acknowledge() error { return s.send(actionAck) }

// Shutdown stops any running link and terminates the state machine.
func (s *Supervisor) Shutdown() error { return s.send(actionShutdown) }

func (s *Supervisor) send(a commandAction) error {
	reply := make(chan error, 1)
	select {
	case s.cmdChan <- command{action: a, reply: reply}:
		return <-reply
	case <-s.doneChan:
		return fmt.Errorf("supervisor shut down")
	}
}

// Status returns a read-only snapshot. It always succeeds.
func (s *Supervisor) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		State:     s.state.String(),
		Running:   s.state == StateRunning,
		PID:       s.pid,
		StartedAt: s.startedAt,
		StoppedAt: s.stoppedAt,
		LastError: s.lastErr,
	}
}

// runStateMachine is the single goroutine that owns every state transition.
func (s *Supervisor) runStateMachine() {
	defer close(s.doneChan)
	for {
		select {
		case cmd := <-s.cmdChan:
			var err error
			switch cmd.action {
			case actionRun:
				err = s.handleRun()
			case actionStop:
				err = s.handleStop()
			case actionAck:
				err = s.handleAck()
			case actionShutdown:
				err = s.handleShutdown()
				cmd.reply <- err
				return
			}
			cmd.reply <- err
		case err := <-s.exitChan:
			s.handleUnexpectedExit(err)
		}
	}
}

func (s *Supervisor) handleRun() error {
	st := s.currentState()
	if st != StateStopped && st != StateFailed {
		return &ConflictError{Op: "run", State: st}
	}

	// Snapshot the settings at the moment of launch. A save during the run
	// takes effect only on the next run. A corrupt settings file degrades to
	// the defaults with a warning, matching the store's load contract.
	conn, err := s.store.Load()
	if err != nil {
		s.log.Warn("settings unreadable, using defaults", "error", err)
	}
	if err := conn.Validate(); err != nil {
		return err
	}

	s.setState(StateStarting)
	s.mu.Lock()
	s.launched = conn
	s.lastErr = ""
	s.mu.Unlock()

	cmd := s.configureCmd(conn)
	if err := cmd.Start(); err != nil {
		s.closeWriters()
		return s.fail(fmt.Errorf("launch %s: %w", s.cfg.BinaryPath, err))
	}

	s.mu.Lock()
	s.cmd = cmd
	s.pid = cmd.Process.Pid
	s.startedAt = time.Now()
	s.stoppedAt = time.Time{}
	s.mu.Unlock()

	// Waiter owns the only cmd.Wait reference; the exit lands on exitChan
	// whether or not a stop is in progress.
	go func() { s.exitChan <- cmd.Wait() }()

	// pppd exiting inside the confirmation window means the launch failed
	// (bad device, option error). Staying up promotes the link to running.
	select {
	case werr := <-s.exitChan:
		s.finalizeExit()
		return s.fail(exitError("pppd exited during startup", werr))
	case <-time.After(s.cfg.ConfirmWindow):
	}

	s.setState(StateRunning)
	metrics.IncStart()
	s.persist(history.EventStart, "")
	s.log.Info("link up",
		"device", conn.Device,
		"baud_rate", conn.BaudRate,
		"local_address", conn.LocalAddress,
		"remote_address", conn.RemoteAddress,
		"pid", cmd.Process.Pid)
	return nil
}

func (s *Supervisor) handleStop() error {
	switch st := s.currentState(); st {
	case StateStopped:
		return &ConflictError{Op: "stop", State: st}
	case StateFailed:
		// Stopping a failed link doubles as acknowledgement.
		s.setState(StateStopped)
		return nil
	case StateStarting, StateRunning:
	default:
		return &ConflictError{Op: "stop", State: st}
	}

	s.setState(StateStopping)

	s.mu.RLock()
	pid := s.pid
	s.mu.RUnlock()

	// Signal the whole process group so pppd's pty helpers go down with it.
	_ = syscall.Kill(-pid, syscall.SIGTERM)
	select {
	case <-s.exitChan:
	case <-time.After(s.cfg.GracePeriod):
		s.log.Warn("pppd ignored SIGTERM, escalating", "pid", pid)
		_ = syscall.Kill(-pid, syscall.SIGKILL)
		<-s.exitChan
	}

	s.finalizeExit()
	s.setState(StateStopped)
	metrics.IncStop()
	s.persist(history.EventStop, "")
	s.log.Info("link down", "pid", pid)
	return nil
}

func (s *Supervisor) handleAck() error {
	st := s.currentState()
	if st != StateFailed {
		return &ConflictError{Op: "acknowledge", State: st}
	}
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
	s.setState(StateStopped)
	return nil
}

func (s *Supervisor) handleShutdown() error {
	if st := s.currentState(); st == StateRunning || st == StateStarting {
		return s.handleStop()
	}
	return nil
}

// handleUnexpectedExit runs when pppd dies outside a stop request.
func (s *Supervisor) handleUnexpectedExit(werr error) {
	st := s.currentState()
	if st != StateRunning && st != StateStarting {
		return
	}
	s.finalizeExit()
	_ = s.fail(exitError("pppd exited unexpectedly", werr))
}

// fail records the error, moves to Failed and reports the failure. The link
// stays failed until an explicit run or acknowledgement; nothing retries.
func (s *Supervisor) fail(err error) error {
	s.mu.Lock()
	s.lastErr = err.Error()
	s.mu.Unlock()
	s.setState(StateFailed)
	metrics.IncFailure()
	s.persist(history.EventFail, err.Error())
	s.log.Error("link failed", "error", err)
	return err
}

// finalizeExit clears the process bookkeeping after the waiter reported exit.
func (s *Supervisor) finalizeExit() {
	s.closeWriters()
	s.mu.Lock()
	s.cmd = nil
	s.stoppedAt = time.Now()
	s.mu.Unlock()
}

func (s *Supervisor) configureCmd(conn settings.Settings) *exec.Cmd {
	// #nosec G204 -- binary path comes from operator config, args are validated settings
	cmd := exec.Command(s.cfg.BinaryPath, BuildArgs(conn)...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if s.cfg.Log.Dir != "" || s.cfg.Log.StdoutPath != "" || s.cfg.Log.StderrPath != "" {
		if s.cfg.Log.Dir != "" {
			_ = os.MkdirAll(s.cfg.Log.Dir, 0o750)
		}
		outW, errW, _ := s.cfg.Log.Writers()
		s.mu.Lock()
		s.outW, s.errW = outW, errW
		s.mu.Unlock()
		if outW != nil {
			cmd.Stdout = outW
		} else {
			cmd.Stdout, _ = os.OpenFile(os.DevNull, os.O_RDWR, 0)
		}
		if errW != nil {
			cmd.Stderr = errW
		} else {
			cmd.Stderr, _ = os.OpenFile(os.DevNull, os.O_RDWR, 0)
		}
	} else {
		null, _ := os.OpenFile(os.DevNull, os.O_RDWR, 0)
		cmd.Stdout = null
		cmd.Stderr = null
	}
	return cmd
}

func (s *Supervisor) closeWriters() {
	s.mu.Lock()
	if s.outW != nil {
		_ = s.outW.Close()
		s.outW = nil
	}
	if s.errW != nil {
		_ = s.errW.Close()
		s.errW = nil
	}
	s.mu.Unlock()
}

func (s *Supervisor) currentState() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Supervisor) setState(newState State) {
	s.mu.Lock()
	oldState := s.state
	s.state = newState
	s.mu.Unlock()

	metrics.RecordStateTransition(oldState.String(), newState.String())
	metrics.SetCurrentState(oldState.String(), false)
	metrics.SetCurrentState(newState.String(), true)
	s.log.Debug("state transition", "from", oldState.String(), "to", newState.String())
}

func (s *Supervisor) persist(t history.EventType, errMsg string) {
	s.mu.RLock()
	sinks := append([]history.Sink(nil), s.history...)
	pid := s.pid
	conn := s.launched
	s.mu.RUnlock()
	if len(sinks) == 0 {
		return
	}
	evt := history.Event{
		Type:       t,
		OccurredAt: time.Now().UTC(),
		PID:        pid,
		Settings:   conn,
		Error:      errMsg,
	}
	ctx := context.Background()
	for _, h := range sinks {
		_ = h.Send(ctx, evt)
	}
}

func exitError(prefix string, werr error) error {
	if werr == nil {
		return fmt.Errorf("%s: exit status 0", prefix)
	}
	return fmt.Errorf("%s: %v", prefix, werr)
}
