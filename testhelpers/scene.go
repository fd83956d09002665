package testhelpers

import (
	"testing"
)

// Scene is a test fixture: a temporary Git repository with an initial commit,
// cleaned up with the test.
type Scene struct {
	Dir  string
	Repo *GitRepo
}

// SceneSetup customizes a scene after the initial commit.
type SceneSetup func(*Scene) error

// NewScene creates a repository in a temp directory and makes one initial
// commit so HEAD resolves.
func NewScene(t *testing.T, setup SceneSetup) *Scene {
	t.Helper()

	dir := t.TempDir()
	repo, err := NewGitRepo(dir)
	if err != nil {
		t.Fatalf("failed to create git repo: %v", err)
	}

	scene := &Scene{Dir: dir, Repo: repo}

	if err := repo.CreateChangeAndCommit("initial", ""); err != nil {
		t.Fatalf("failed to create initial commit: %v", err)
	}

	if setup != nil {
		if err := setup(scene); err != nil {
			t.Fatalf("scene setup failed: %v", err)
		}
	}
	return scene
}

// NewEmptyScene creates a repository with no commits, for testing behavior
// before the first commit exists.
func NewEmptyScene(t *testing.T) *Scene {
	t.Helper()

	dir := t.TempDir()
	repo, err := NewGitRepo(dir)
	if err != nil {
		t.Fatalf("failed to create git repo: %v", err)
	}
	return &Scene{Dir: dir, Repo: repo}
}
