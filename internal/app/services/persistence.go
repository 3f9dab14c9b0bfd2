package services

import (
	"context"
	"fmt"
	"io"

	"github.com/thushan/warden/internal/adapter/persistence"
	"github.com/thushan/warden/internal/config"
	"github.com/thushan/warden/internal/core/ports"
	"github.com/thushan/warden/internal/logger"
)

// PersistenceService holds the liveness probe for the configured store. The
// probe is only ever pinged by the aggregator tick; a store that is down at
// startup is reported through health, it does not stop the guard.
type PersistenceService struct {
	config config.PersistenceConfig
	probe  ports.PersistenceProbe
	logger logger.StyledLogger
}

func NewPersistenceService(cfg config.PersistenceConfig, logger logger.StyledLogger) *PersistenceService {
	return &PersistenceService{
		config: cfg,
		logger: logger,
	}
}

func (s *PersistenceService) Name() string {
	return "persistence"
}

func (s *PersistenceService) Start(ctx context.Context) error {
	probe, err := persistence.NewProbe(s.config)
	if err != nil {
		return fmt.Errorf("failed to create persistence probe: %w", err)
	}
	s.probe = probe

	if probe == nil {
		s.logger.Info("Persistence probe disabled")
		return nil
	}
	s.logger.Info("Persistence probe configured", "driver", probe.Name())
	return nil
}

func (s *PersistenceService) Stop(ctx context.Context) error {
	if closer, ok := s.probe.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (s *PersistenceService) Dependencies() []string {
	return []string{}
}

// GetProbe returns the probe, nil when persistence is disabled
func (s *PersistenceService) GetProbe() ports.PersistenceProbe {
	return s.probe
}
