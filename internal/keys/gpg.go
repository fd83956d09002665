// Package keys wraps gpg and ssh-keygen through the same process runner
// used for git. These services collaborate with the core but stay thin:
// one subprocess, one parse.
package keys

import (
	"context"

	"gitflow.dev/gitflow/internal/git"
	"gitflow.dev/gitflow/internal/parse"
)

// GPGService lists GPG keys for commit signing configuration.
type GPGService struct {
	runner *git.Runner
}

// NewGPGService creates a GPGService.
func NewGPGService() *GPGService {
	return &GPGService{runner: git.NewRunner("")}
}

// ListKeys returns the public keys known to gpg.
func (s *GPGService) ListKeys(ctx context.Context) ([]parse.GPGKey, error) {
	out, err := s.runner.OutputRaw(ctx, "gpg", "--with-colons", "--list-keys")
	if err != nil {
		return nil, err
	}
	return parse.ParseColonKeys(out), nil
}

// ListSecretKeys returns the secret keys available for signing.
func (s *GPGService) ListSecretKeys(ctx context.Context) ([]parse.GPGKey, error) {
	out, err := s.runner.OutputRaw(ctx, "gpg", "--with-colons", "--list-secret-keys")
	if err != nil {
		return nil, err
	}
	return parse.ParseColonKeys(out), nil
}
