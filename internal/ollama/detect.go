package ollama

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// installPaths lists where the official installers put the binary
func installPaths(goos, home string) []string {
	switch goos {
	case "darwin":
		return []string{
			"/Applications/Ollama.app/Contents/Resources/ollama",
			"/opt/homebrew/bin/ollama",
			"/usr/local/bin/ollama",
		}
	case "linux":
		return []string{
			"/usr/local/bin/ollama",
			"/usr/bin/ollama",
			filepath.Join(home, ".local/bin/ollama"),
		}
	default:
		return nil
	}
}

// DetectBinary resolves the server binary: an explicit path, a name on PATH,
// then the platform's install locations when name is the default "ollama"
func DetectBinary(name string) (string, error) {
	if path, err := exec.LookPath(name); err == nil {
		return path, nil
	}
	if name != "ollama" {
		return "", fmt.Errorf("%s not found", name)
	}

	home, _ := os.UserHomeDir()
	for _, candidate := range installPaths(runtime.GOOS, home) {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() && info.Mode()&0111 != 0 {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("ollama not found on PATH or in the default install locations for %s", runtime.GOOS)
}
