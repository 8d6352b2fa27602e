package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/quillworks/scribebot/internal/chat"
	"github.com/quillworks/scribebot/internal/llm"
)

// DefaultIdleTimeout is how long an agent may sit without a qualifying
// message before the sweep disposes it. Zero disables the sweep.
const DefaultIdleTimeout = 30 * time.Minute

// ManagerConfig holds settings for the agent supervisor.
type ManagerConfig struct {
	// NewMessenger opens one transport session per agent; each agent owns
	// and disconnects its own session on Dispose.
	NewMessenger func(ctx context.Context) chat.Messenger

	// Provider, when set, is shared by all agents instead of a per-agent
	// OpenAI client. Mainly for tests.
	Provider llm.Provider

	APIKey      string
	APIBase     string
	Model       string
	Temperature float64
	MaxTokens   int

	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

// Manager supervises one agent per channel: creates them on demand and
// disposes the ones that have been idle past the timeout.
type Manager struct {
	config ManagerConfig

	mu     sync.Mutex
	agents map[string]*Agent
}

// NewManager creates an agent supervisor.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	return &Manager{
		config: cfg,
		agents: make(map[string]*Agent),
	}
}

// EnsureAgent returns the agent serving a channel, creating and
// initializing one on first use. A failed Init leaves no agent behind.
func (m *Manager) EnsureAgent(ctx context.Context, cid string) (*Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a, ok := m.agents[cid]; ok {
		return a, nil
	}

	messenger := m.config.NewMessenger(ctx)
	a := New(Config{
		Messenger:   messenger,
		Channel:     chat.NewChannel(messenger, cid),
		Provider:    m.config.Provider,
		APIKey:      m.config.APIKey,
		APIBase:     m.config.APIBase,
		Model:       m.config.Model,
		Temperature: m.config.Temperature,
		MaxTokens:   m.config.MaxTokens,
	})
	if err := a.Init(ctx); err != nil {
		messenger.Disconnect(ctx)
		return nil, fmt.Errorf("init agent for %s: %w", cid, err)
	}

	m.agents[cid] = a
	return a, nil
}

// StopAgent disposes the agent serving a channel. Returns false when
// no agent is active there.
func (m *Manager) StopAgent(ctx context.Context, cid string) bool {
	m.mu.Lock()
	a, ok := m.agents[cid]
	delete(m.agents, cid)
	m.mu.Unlock()

	if !ok {
		return false
	}
	if err := a.Dispose(ctx); err != nil {
		slog.Warn("Agent dispose failed", "cid", cid, "err", err)
	}
	return true
}

// StopAll disposes every active agent. Used on shutdown.
func (m *Manager) StopAll(ctx context.Context) {
	m.mu.Lock()
	agents := m.agents
	m.agents = make(map[string]*Agent)
	m.mu.Unlock()

	for cid, a := range agents {
		if err := a.Dispose(ctx); err != nil {
			slog.Warn("Agent dispose failed", "cid", cid, "err", err)
		}
	}
}

// Run sweeps for idle agents until ctx is cancelled. A non-positive idle
// timeout disables sweeping and Run returns immediately.
func (m *Manager) Run(ctx context.Context) {
	if m.config.IdleTimeout <= 0 {
		return
	}

	slog.Info("Idle sweep started", "timeout", m.config.IdleTimeout, "interval", m.config.SweepInterval)
	ticker := time.NewTicker(m.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("Idle sweep stopped")
			return
		case <-ticker.C:
			m.sweep(ctx)
		}
	}
}

func (m *Manager) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-m.config.IdleTimeout)

	m.mu.Lock()
	var idle []string
	for cid, a := range m.agents {
		if a.LastInteraction().Before(cutoff) {
			idle = append(idle, cid)
		}
	}
	m.mu.Unlock()

	for _, cid := range idle {
		slog.Info("Disposing idle agent", "cid", cid)
		m.StopAgent(ctx, cid)
	}
}

// Active returns the CIDs currently served, for status reporting.
func (m *Manager) Active() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	cids := make([]string, 0, len(m.agents))
	for cid := range m.agents {
		cids = append(cids, cid)
	}
	return cids
}
