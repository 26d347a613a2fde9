// Package watcher runs the chat-monitoring service: channel adapters
// feeding the dispatch pipeline, a periodic oracle health probe, and a
// small status server.
package watcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/DamirAkzhigitov/offer-parser/pkg/channel"
	"github.com/DamirAkzhigitov/offer-parser/pkg/config"
	"github.com/DamirAkzhigitov/offer-parser/pkg/dispatch"
	"github.com/DamirAkzhigitov/offer-parser/pkg/oracle"
)

const (
	defaultStatusHost       = "0.0.0.0"
	defaultStatusPort       = 18790
	oracleProbeInterval     = 30 * time.Second
	statusShutdownTimeout   = 5 * time.Second
	statusReadHeaderTimeout = 5 * time.Second
)

type Service struct {
	cfg         *config.Config
	log         *slog.Logger
	oracle      oracle.Client
	coordinator *dispatch.Coordinator
	adapters    []channel.Adapter

	mu             sync.RWMutex
	startedAt      time.Time
	oracleLastOKAt time.Time
	oracleLastErr  string
	channelStates  map[string]channelState
}

type channelState struct {
	Running bool   `json:"running"`
	Error   string `json:"error,omitempty"`
}

type statusResponse struct {
	Status         string                  `json:"status"`
	UptimeSeconds  int64                   `json:"uptime_seconds"`
	OracleLastOKAt string                  `json:"oracle_last_ok_at,omitempty"`
	OracleLastErr  string                  `json:"oracle_last_error,omitempty"`
	Channels       map[string]channelState `json:"channels"`
}

// NewService wires the oracle, pipeline, and channel adapters into one
// runnable service.
func NewService(cfg *config.Config, oracleClient oracle.Client, coordinator *dispatch.Coordinator, adapters []channel.Adapter, log *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if oracleClient == nil {
		return nil, errors.New("oracle client is required")
	}
	if coordinator == nil {
		return nil, errors.New("dispatch coordinator is required")
	}
	if len(adapters) == 0 {
		return nil, errors.New("at least one channel adapter is required")
	}
	if log == nil {
		log = slog.Default()
	}

	channelStates := make(map[string]channelState, len(adapters))
	for _, adapter := range adapters {
		channelStates[adapter.Name()] = channelState{}
	}

	return &Service{
		cfg:           cfg,
		log:           log.With("component", "watcher.service"),
		oracle:        oracleClient,
		coordinator:   coordinator,
		adapters:      adapters,
		channelStates: channelStates,
	}, nil
}

// Run starts every adapter and blocks until the context is cancelled
// or a fatal channel or status-server error occurs.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	if err := s.checkOracleHealth(ctx); err != nil {
		return err
	}

	serverErrors := make(chan error, 1)
	go s.runStatusServer(ctx, serverErrors)

	ticker := time.NewTicker(oracleProbeInterval)
	defer ticker.Stop()
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				_ = s.checkOracleHealth(ctx)
			}
		}
	}()

	errCh := make(chan error, len(s.adapters))
	for _, adapter := range s.adapters {
		adapter := adapter
		s.setChannelState(adapter.Name(), channelState{Running: true})

		go func() {
			err := adapter.Run(ctx, s.handleEvent)
			s.setChannelState(adapter.Name(), channelState{Running: false, Error: errorString(err)})
			if err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("run %s channel: %w", adapter.Name(), err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		return nil
	case err := <-serverErrors:
		return err
	case err := <-errCh:
		return err
	}
}

func (s *Service) handleEvent(ctx context.Context, event channel.Event) {
	outcome := s.coordinator.Handle(ctx, event)
	s.log.Debug("Handled event", "chat_id", event.ChatID, "outcome", string(outcome))
}

func (s *Service) runStatusServer(ctx context.Context, errCh chan<- error) {
	host := strings.TrimSpace(s.cfg.Watcher.Host)
	if host == "" {
		host = defaultStatusHost
	}

	port := s.cfg.Watcher.Port
	if port <= 0 {
		port = defaultStatusPort
	}

	addr := host + ":" + strconv.Itoa(port)
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealth)
	mux.HandleFunc("/readyz", s.handleReady)

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: statusReadHeaderTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), statusShutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info("Status server started", "address", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errCh <- fmt.Errorf("start status server: %w", err)
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondStatus(w, http.StatusOK, "ok")
}

func (s *Service) handleReady(w http.ResponseWriter, _ *http.Request) {
	statusCode := http.StatusOK
	status := "ready"
	if !s.isReady() {
		statusCode = http.StatusServiceUnavailable
		status = "not_ready"
	}

	s.respondStatus(w, statusCode, status)
}

func (s *Service) respondStatus(w http.ResponseWriter, statusCode int, status string) {
	payload := s.currentStatus(status)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to write status response", "error", err)
	}
}

func (s *Service) currentStatus(status string) statusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	uptime := int64(0)
	if !s.startedAt.IsZero() {
		uptime = int64(time.Since(s.startedAt).Seconds())
	}

	channels := make(map[string]channelState, len(s.channelStates))
	for name, state := range s.channelStates {
		channels[name] = state
	}

	oracleLastOK := ""
	if !s.oracleLastOKAt.IsZero() {
		oracleLastOK = s.oracleLastOKAt.Format(time.RFC3339)
	}

	return statusResponse{
		Status:         status,
		UptimeSeconds:  uptime,
		OracleLastOKAt: oracleLastOK,
		OracleLastErr:  s.oracleLastErr,
		Channels:       channels,
	}
}

func (s *Service) isReady() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	anyRunning := false
	for _, state := range s.channelStates {
		if state.Running {
			anyRunning = true
			break
		}
	}

	if !anyRunning {
		return false
	}

	if s.oracleLastOKAt.IsZero() {
		return false
	}

	return s.oracleLastErr == ""
}

func (s *Service) checkOracleHealth(ctx context.Context) error {
	if err := s.oracle.Health(ctx); err != nil {
		s.mu.Lock()
		s.oracleLastErr = err.Error()
		s.mu.Unlock()
		return fmt.Errorf("oracle health check failed: %w", err)
	}

	s.mu.Lock()
	s.oracleLastErr = ""
	s.oracleLastOKAt = time.Now().UTC()
	s.mu.Unlock()

	return nil
}

func (s *Service) setChannelState(name string, state channelState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.channelStates[name] = state
}

func errorString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
