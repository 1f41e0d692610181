package git

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// HistoryRecorder keeps a versioned copy of every application's exported
// configuration
type HistoryRecorder interface {
	RecordApplication(appID, appName string, snapshot []byte) (string, error)
	RemoveApplication(appID, appName string) (string, error)
	CheckHealth() error
}

// AppsDir is the directory snapshots are written to inside the repository
const AppsDir = "apps"

// SnapshotPath returns the repository path of an application's snapshot
func SnapshotPath(appID string) string {
	return path.Join(AppsDir, appID+".yml")
}

type Client struct {
	repoURL     string
	branch      string
	localPath   string
	username    string
	token       string
	authorName  string
	authorEmail string

	mu   sync.Mutex
	repo *git.Repository
}

// NewClient opens the history repository at localPath. With a repository URL
// it is cloned and every commit is pushed; without one a local repository is
// initialised and nothing leaves the machine.
func NewClient(repoURL, branch, localPath, username, token, authorName, authorEmail string) (*Client, error) {
	c := &Client{
		repoURL:     repoURL,
		branch:      branch,
		localPath:   localPath,
		username:    username,
		token:       token,
		authorName:  authorName,
		authorEmail: authorEmail,
	}

	if err := c.ensureRepo(); err != nil {
		return nil, err
	}

	return c, nil
}

func (c *Client) remote() bool {
	return c.repoURL != ""
}

func (c *Client) ensureRepo() error {
	// Check if repo already exists
	if _, err := os.Stat(filepath.Join(c.localPath, ".git")); err == nil {
		repo, err := git.PlainOpen(c.localPath)
		if err != nil {
			return fmt.Errorf("failed to open repository: %w", err)
		}
		c.repo = repo
		return c.pull()
	}

	if !c.remote() {
		repo, err := git.PlainInitWithOptions(c.localPath, &git.PlainInitOptions{
			InitOptions: git.InitOptions{
				DefaultBranch: plumbing.NewBranchReferenceName(c.branch),
			},
		})
		if err != nil {
			return fmt.Errorf("failed to init repository: %w", err)
		}
		c.repo = repo
		return nil
	}

	repo, err := git.PlainClone(c.localPath, false, &git.CloneOptions{
		URL:           c.repoURL,
		Auth:          c.auth(),
		ReferenceName: plumbing.NewBranchReferenceName(c.branch),
		SingleBranch:  true,
	})
	if err != nil {
		return fmt.Errorf("failed to clone repository: %w", err)
	}

	c.repo = repo
	return nil
}

func (c *Client) auth() *http.BasicAuth {
	return &http.BasicAuth{
		Username: c.username,
		Password: c.token,
	}
}

func (c *Client) pull() error {
	if !c.remote() {
		return nil
	}

	w, err := c.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	err = w.Pull(&git.PullOptions{
		Auth:          c.auth(),
		ReferenceName: plumbing.NewBranchReferenceName(c.branch),
		SingleBranch:  true,
	})

	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("failed to pull: %w", err)
	}

	return nil
}

// RecordApplication writes the snapshot of an application and commits it.
// An unchanged snapshot produces no commit and returns an empty hash.
func (c *Client) RecordApplication(appID, appName string, snapshot []byte) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.pull(); err != nil {
		return "", fmt.Errorf("failed to pull latest: %w", err)
	}

	relPath := SnapshotPath(appID)
	fullPath := filepath.Join(c.localPath, filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create apps directory: %w", err)
	}
	if err := os.WriteFile(fullPath, snapshot, 0644); err != nil {
		return "", fmt.Errorf("failed to write snapshot: %w", err)
	}

	message := fmt.Sprintf("Update application %s\n\nID: %s\nRecorded at: %s",
		appName, appID, time.Now().Format(time.RFC3339))
	return c.commitAndPush(message, func(w *git.Worktree) error {
		_, err := w.Add(relPath)
		return err
	})
}

// RemoveApplication deletes the snapshot of an application and commits the
// removal
func (c *Client) RemoveApplication(appID, appName string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.pull(); err != nil {
		return "", fmt.Errorf("failed to pull latest: %w", err)
	}

	relPath := SnapshotPath(appID)
	fullPath := filepath.Join(c.localPath, filepath.FromSlash(relPath))
	if _, err := os.Stat(fullPath); os.IsNotExist(err) {
		return "", nil
	}

	message := fmt.Sprintf("Remove application %s\n\nID: %s\nRemoved at: %s",
		appName, appID, time.Now().Format(time.RFC3339))
	return c.commitAndPush(message, func(w *git.Worktree) error {
		_, err := w.Remove(relPath)
		return err
	})
}

func (c *Client) commitAndPush(message string, stage func(w *git.Worktree) error) (string, error) {
	w, err := c.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}

	if err := stage(w); err != nil {
		return "", fmt.Errorf("failed to stage snapshot: %w", err)
	}

	status, err := w.Status()
	if err != nil {
		return "", fmt.Errorf("failed to get status: %w", err)
	}
	if status.IsClean() {
		return "", nil
	}

	commit, err := w.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  c.authorName,
			Email: c.authorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to commit: %w", err)
	}

	if c.remote() {
		err = c.repo.Push(&git.PushOptions{
			Auth:     c.auth(),
			RefSpecs: []config.RefSpec{config.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", c.branch, c.branch))},
		})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return "", fmt.Errorf("failed to push: %w", err)
		}
	}

	return commit.String(), nil
}

// History returns the commit messages touching an application's snapshot,
// newest first
func (c *Client) History(appID string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	relPath := SnapshotPath(appID)
	iter, err := c.repo.Log(&git.LogOptions{FileName: &relPath})
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read log: %w", err)
	}
	defer iter.Close()

	var messages []string
	err = iter.ForEach(func(commit *object.Commit) error {
		messages = append(messages, commit.Message)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk log: %w", err)
	}
	return messages, nil
}

func (c *Client) CheckHealth() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.remote() {
		if _, err := c.repo.Worktree(); err != nil {
			return fmt.Errorf("git client health check failed: %w", err)
		}
		return nil
	}

	// Attempt to pull to check connectivity and authentication
	err := c.pull()
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return fmt.Errorf("git client health check failed: %w", err)
	}
	return nil
}

// NopRecorder is used when history is disabled
type NopRecorder struct{}

func (NopRecorder) RecordApplication(appID, appName string, snapshot []byte) (string, error) {
	return "", nil
}

func (NopRecorder) RemoveApplication(appID, appName string) (string, error) {
	return "", nil
}

func (NopRecorder) CheckHealth() error {
	return nil
}
