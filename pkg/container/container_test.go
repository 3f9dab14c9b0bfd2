package container

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCgroupMentionsRuntime(t *testing.T) {
	dir := t.TempDir()

	docker := filepath.Join(dir, "docker")
	require.NoError(t, os.WriteFile(docker, []byte("0::/system.slice/docker-abc.scope\n"), 0o600))
	assert.True(t, cgroupMentionsRuntime(docker))

	host := filepath.Join(dir, "host")
	require.NoError(t, os.WriteFile(host, []byte("0::/init.scope\n"), 0o600))
	assert.False(t, cgroupMentionsRuntime(host))

	assert.False(t, cgroupMentionsRuntime(filepath.Join(dir, "missing")))
}

func TestIsContainerised_Kubernetes(t *testing.T) {
	t.Setenv("KUBERNETES_SERVICE_HOST", "10.0.0.1")
	assert.True(t, IsContainerised())
}
