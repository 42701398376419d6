// Package health polls the backend's health and service-status endpoints
// on a schedule and publishes snapshots for the status bar.
package health

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/vistral/vistral/internal/api"
	"github.com/vistral/vistral/pkg/log"
)

// Snapshot is one poll result. Reachable is false when the health endpoint
// itself failed, in which case Services is empty.
type Snapshot struct {
	Reachable bool
	Status    string
	Services  map[string]bool
	CheckedAt time.Time
}

// Degraded reports whether the backend is up but at least one dependent
// service is down.
func (s Snapshot) Degraded() bool {
	if !s.Reachable {
		return false
	}
	for _, up := range s.Services {
		if !up {
			return true
		}
	}
	return false
}

// DownServices lists the names of unavailable services, sorted.
func (s Snapshot) DownServices() []string {
	var down []string
	for name, up := range s.Services {
		if !up {
			down = append(down, name)
		}
	}
	sort.Strings(down)
	return down
}

// Monitor runs the poll loop. Updates arrives buffered so a slow UI never
// blocks the scheduler; only the most recent snapshot matters.
type Monitor struct {
	client   *api.Client
	cron     *cron.Cron
	interval time.Duration

	mu      sync.RWMutex
	latest  Snapshot
	updates chan Snapshot
}

// NewMonitor builds a monitor polling every interval.
func NewMonitor(client *api.Client, interval time.Duration) (*Monitor, error) {
	if client == nil {
		return nil, fmt.Errorf("api client is required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive, got %s", interval)
	}
	return &Monitor{
		client:   client,
		cron:     cron.New(),
		interval: interval,
		updates:  make(chan Snapshot, 8),
	}, nil
}

// Start polls once immediately, then on the configured schedule.
func (m *Monitor) Start(ctx context.Context) error {
	m.publish(m.poll(ctx))

	_, err := m.cron.AddFunc(fmt.Sprintf("@every %s", m.interval), func() {
		m.publish(m.poll(ctx))
	})
	if err != nil {
		return fmt.Errorf("schedule health poll: %w", err)
	}
	m.cron.Start()
	return nil
}

// Stop halts the schedule. Updates stays open; Latest keeps serving the
// last snapshot.
func (m *Monitor) Stop() {
	<-m.cron.Stop().Done()
}

// Updates returns the snapshot channel.
func (m *Monitor) Updates() <-chan Snapshot {
	return m.updates
}

// Latest returns the most recent snapshot.
func (m *Monitor) Latest() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.latest
}

func (m *Monitor) poll(ctx context.Context) Snapshot {
	snap := Snapshot{CheckedAt: time.Now()}

	health, err := m.client.Health(ctx)
	if err != nil {
		log.Warn("health check failed", "error", err)
		return snap
	}
	snap.Reachable = true
	snap.Status = health.Status

	status, err := m.client.ServiceStatus(ctx)
	if err != nil {
		log.Warn("service status check failed", "error", err)
		return snap
	}
	snap.Services = status.Services
	return snap
}

func (m *Monitor) publish(snap Snapshot) {
	m.mu.Lock()
	m.latest = snap
	m.mu.Unlock()

	select {
	case m.updates <- snap:
	default:
		// drop when the UI is behind; Latest still has it
	}
}
