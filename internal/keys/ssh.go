package keys

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"gitflow.dev/gitflow/internal/git"
)

// SSHKey is one public key found in the user's ssh directory.
type SSHKey struct {
	Name        string
	Path        string
	Fingerprint string
	Comment     string
}

// SSHService lists the user's SSH public keys.
type SSHService struct {
	runner *git.Runner
	sshDir string
}

// NewSSHService creates an SSHService over ~/.ssh.
func NewSSHService() *SSHService {
	home, _ := os.UserHomeDir()
	return &SSHService{
		runner: git.NewRunner(""),
		sshDir: filepath.Join(home, ".ssh"),
	}
}

// ListKeys scans the ssh directory for .pub files and resolves each
// fingerprint via ssh-keygen. Keys whose fingerprint cannot be read are
// listed without one rather than failing the whole scan.
func (s *SSHService) ListKeys(ctx context.Context) ([]SSHKey, error) {
	entries, err := os.ReadDir(s.sshDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []SSHKey{}, nil
		}
		return nil, err
	}

	keys := []SSHKey{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".pub") {
			continue
		}
		path := filepath.Join(s.sshDir, entry.Name())
		key := SSHKey{
			Name: strings.TrimSuffix(entry.Name(), ".pub"),
			Path: path,
		}
		if out, err := s.runner.Output(ctx, "ssh-keygen", "-lf", path); err == nil {
			// Format: "<bits> <fingerprint> <comment> (<type>)"
			fields := strings.Fields(out)
			if len(fields) >= 2 {
				key.Fingerprint = fields[1]
			}
			if len(fields) >= 3 {
				key.Comment = strings.Join(fields[2:len(fields)-1], " ")
			}
		}
		keys = append(keys, key)
	}
	return keys, nil
}
