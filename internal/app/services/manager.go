package services

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/thushan/warden/internal/logger"
)

// ManagedService defines the contract for services participating in the orchestration
// lifecycle. Services must be idempotent for Start/Stop operations and explicitly
// declare their dependencies to enable proper initialisation ordering.
type ManagedService interface {
	// Name returns the unique name of the service
	Name() string

	// Start initialises and starts the service
	Start(ctx context.Context) error

	// Stop gracefully shuts down the service
	Stop(ctx context.Context) error

	// Dependencies returns the names of services this service depends on
	Dependencies() []string
}

// ServiceManager orchestrates service lifecycle using topological sorting to resolve
// dependencies. Services are grouped into levels where every dependency sits in an
// earlier level; a level starts concurrently once the one before it is up. Shutdown
// runs in reverse start order, and a partial startup is unwound before Start returns.
type ServiceManager struct {
	services   map[string]ManagedService
	registry   *ServiceRegistry
	logger     logger.StyledLogger
	startOrder []string // order services actually finished starting in
	mu         sync.RWMutex
}

// NewServiceManager creates a new service manager
func NewServiceManager(logger logger.StyledLogger) *ServiceManager {
	return &ServiceManager{
		services: make(map[string]ManagedService),
		registry: NewServiceRegistry(),
		logger:   logger,
	}
}

func (sm *ServiceManager) Register(service ManagedService) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	name := service.Name()
	if _, exists := sm.services[name]; exists {
		return fmt.Errorf("service %s already registered", name)
	}

	sm.services[name] = service
	sm.registry.Register(name, service)
	sm.logger.Debug("Service registered", "name", name)
	return nil
}

// resolveLevels implements Kahn's algorithm and returns the services grouped
// by start level, names sorted within a level. Returns an error if circular
// dependencies are detected or if a service declares a dependency on a
// non-existent service.
func (sm *ServiceManager) resolveLevels() ([][]string, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	inDegree := make(map[string]int, len(sm.services))
	dependants := make(map[string][]string, len(sm.services))

	for name := range sm.services {
		inDegree[name] = 0
	}
	for name, service := range sm.services {
		for _, dep := range service.Dependencies() {
			if _, exists := sm.services[dep]; !exists {
				return nil, fmt.Errorf("dependency %s of %s not registered", dep, name)
			}
			inDegree[name]++
			dependants[dep] = append(dependants[dep], name)
		}
	}

	var current []string
	for name, degree := range inDegree {
		if degree == 0 {
			current = append(current, name)
		}
	}

	var levels [][]string
	resolved := 0
	for len(current) > 0 {
		slices.Sort(current)
		levels = append(levels, current)
		resolved += len(current)

		var next []string
		for _, name := range current {
			for _, dependant := range dependants[name] {
				inDegree[dependant]--
				if inDegree[dependant] == 0 {
					next = append(next, dependant)
				}
			}
		}
		current = next
	}

	if resolved != len(sm.services) {
		return nil, fmt.Errorf("circular dependency detected")
	}
	return levels, nil
}

// Start orchestrates service initialisation level by level. If any service fails
// to start, all previously started services are stopped in reverse order to maintain
// system consistency. This ensures no partial startup states persist.
func (sm *ServiceManager) Start(ctx context.Context) error {
	levels, err := sm.resolveLevels()
	if err != nil {
		return fmt.Errorf("failed to resolve dependencies: %w", err)
	}

	sm.logger.Debug("Starting services", "count", len(sm.services), "levels", len(levels))

	var startedMu sync.Mutex
	started := make([]string, 0, len(sm.services))

	for _, level := range levels {
		// services hold on to ctx, so the group must not own it
		var g errgroup.Group
		for _, name := range level {
			service := sm.services[name]
			g.Go(func() error {
				sm.logger.Debug("Starting service", "name", name, "dependencies", service.Dependencies())
				if err := service.Start(ctx); err != nil {
					sm.logger.Error("Failed to start service", "name", name, "error", err)
					return fmt.Errorf("failed to start service %s: %w", name, err)
				}
				startedMu.Lock()
				started = append(started, name)
				startedMu.Unlock()
				sm.logger.Debug("Service started", "name", name)
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			slices.Reverse(started)
			_ = sm.stopServices(ctx, started)
			return err
		}
	}

	sm.mu.Lock()
	sm.startOrder = started
	sm.mu.Unlock()

	sm.logger.Debug("All services started successfully")
	return nil
}

// Stop gracefully shuts down all services in reverse start order, ensuring
// dependants stop before their dependencies. This prevents resource access violations
// during shutdown.
func (sm *ServiceManager) Stop(ctx context.Context) error {
	sm.mu.RLock()
	order := slices.Clone(sm.startOrder)
	sm.mu.RUnlock()

	slices.Reverse(order)

	sm.logger.Debug("Stopping services", "count", len(order))
	return sm.stopServices(ctx, order)
}

// stopServices stops the given services in order
func (sm *ServiceManager) stopServices(ctx context.Context, names []string) error {
	var firstErr error

	for _, name := range names {
		service, exists := sm.services[name]
		if !exists {
			continue
		}

		sm.logger.Debug("Stopping service", "name", name)
		if err := service.Stop(ctx); err != nil {
			sm.logger.Error("Failed to stop service", "name", name, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		} else {
			sm.logger.Debug("Service stopped", "name", name)
		}
	}

	return firstErr
}

func (sm *ServiceManager) Get(name string) (ManagedService, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	service, exists := sm.services[name]
	return service, exists
}

func (sm *ServiceManager) GetRegistry() *ServiceRegistry {
	return sm.registry
}
