package container

import (
	"os"
	"strings"
)

// IsContainerised reports whether the process looks like it runs in a
// container. Used to pick a listen address that is reachable from outside.
func IsContainerised() bool {
	return fileExists("/.dockerenv") ||
		os.Getenv("KUBERNETES_SERVICE_HOST") != "" ||
		cgroupMentionsRuntime("/proc/1/cgroup")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func cgroupMentionsRuntime(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	content := string(data)
	for _, marker := range []string{"docker", "containerd", "kubepods", "libpod"} {
		if strings.Contains(content, marker) {
			return true
		}
	}
	return false
}
