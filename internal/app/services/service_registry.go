package services

import (
	"fmt"
)

// ServiceRegistry facilitates runtime service discovery and dependency injection
// after the registration phase completes.
type ServiceRegistry struct {
	services map[string]ManagedService
}

// NewServiceRegistry creates a new service registry
func NewServiceRegistry() *ServiceRegistry {
	return &ServiceRegistry{
		services: make(map[string]ManagedService),
	}
}

func (r *ServiceRegistry) Register(name string, service ManagedService) {
	r.services[name] = service
}

func (r *ServiceRegistry) Get(name string) (ManagedService, error) {
	service, exists := r.services[name]
	if !exists {
		return nil, fmt.Errorf("service %s not found", name)
	}
	return service, nil
}

func (r *ServiceRegistry) GetSecurity() (*SecurityService, error) {
	service, err := r.Get("security")
	if err != nil {
		return nil, err
	}
	security, ok := service.(*SecurityService)
	if !ok {
		return nil, fmt.Errorf("service security is not a SecurityService")
	}
	return security, nil
}

func (r *ServiceRegistry) GetMonitor() (*MonitorService, error) {
	service, err := r.Get("monitor")
	if err != nil {
		return nil, err
	}
	monitor, ok := service.(*MonitorService)
	if !ok {
		return nil, fmt.Errorf("service monitor is not a MonitorService")
	}
	return monitor, nil
}

func (r *ServiceRegistry) GetHTTP() (*HTTPService, error) {
	service, err := r.Get("http")
	if err != nil {
		return nil, err
	}
	http, ok := service.(*HTTPService)
	if !ok {
		return nil, fmt.Errorf("service http is not a HTTPService")
	}
	return http, nil
}
