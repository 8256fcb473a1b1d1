// Package gitprovider shells out to the git CLI to support the retrieval
// engine's git-history provider: recent commits and co-changed files for
// an in-scope path, returned as synthetic snippets by internal/retrieval.
package gitprovider

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"os"

	"github.com/conclave-ai/conclave/internal/core"
)

// Commit is one log entry touching a path.
type Commit struct {
	Hash    string
	Author  string
	When    time.Time
	Subject string
}

// Provider answers git-history queries for a repository.
type Provider struct {
	repoPath string
	gitPath  string
	timeout  time.Duration
}

// New constructs a Provider rooted at repoPath, verifying it is a git
// repository and resolving a real, executable git binary the way the
// teacher's adapter does, rather than trusting PATH blindly.
func New(repoPath string) (*Provider, error) {
	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("resolving repo path: %w", err)
	}
	gitPath, err := resolveGitBinaryPath()
	if err != nil {
		return nil, err
	}
	p := &Provider{repoPath: absPath, gitPath: gitPath, timeout: 10 * time.Second}
	if _, err := p.run(context.Background(), "rev-parse", "--git-dir"); err != nil {
		return nil, core.ErrValidation("NOT_GIT_REPO", fmt.Sprintf("%s is not a git repository", absPath))
	}
	return p, nil
}

func (p *Provider) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.gitPath, args...)
	cmd.Dir = p.repoPath
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", core.ErrValidation("GIT_TIMEOUT", "git command timed out")
		}
		return "", fmt.Errorf("git %s: %s: %w", strings.Join(args, " "), stderr.String(), err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// RecentCommits returns up to limit commits that touched relativePath,
// newest first.
func (p *Provider) RecentCommits(ctx context.Context, relativePath string, limit int) ([]Commit, error) {
	if limit <= 0 {
		limit = 10
	}
	out, err := p.run(ctx, "log",
		fmt.Sprintf("-n%d", limit),
		"--date=iso-strict",
		"--format=%H%x1f%an%x1f%ad%x1f%s",
		"--", relativePath)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	var commits []Commit
	for _, line := range strings.Split(out, "\n") {
		parts := strings.Split(line, "\x1f")
		if len(parts) != 4 {
			continue
		}
		when, _ := time.Parse(time.RFC3339, parts[2])
		commits = append(commits, Commit{Hash: parts[0], Author: parts[1], When: when, Subject: parts[3]})
	}
	return commits, nil
}

// CoChangedFiles returns paths that appeared alongside relativePath in the
// same commit, most frequent first, for the last `lookback` commits touching it.
func (p *Provider) CoChangedFiles(ctx context.Context, relativePath string, lookback int) ([]string, error) {
	if lookback <= 0 {
		lookback = 20
	}
	out, err := p.run(ctx, "log", fmt.Sprintf("-n%d", lookback), "--name-only", "--format=%x00", "--", relativePath)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "\x00" || line == relativePath {
			continue
		}
		counts[line]++
	}
	type pair struct {
		path  string
		count int
	}
	pairs := make([]pair, 0, len(counts))
	for path, count := range counts {
		pairs = append(pairs, pair{path, count})
	}
	for i := 1; i < len(pairs); i++ {
		for j := i; j > 0 && pairs[j].count > pairs[j-1].count; j-- {
			pairs[j], pairs[j-1] = pairs[j-1], pairs[j]
		}
	}
	out2 := make([]string, len(pairs))
	for i, pr := range pairs {
		out2[i] = pr.path
	}
	return out2, nil
}

func resolveGitBinaryPath() (string, error) {
	p, err := exec.LookPath("git")
	if err != nil {
		return "", fmt.Errorf("git not found in PATH: %w", err)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolving git path: %w", err)
	}
	real := abs
	if rr, err := filepath.EvalSymlinks(abs); err == nil {
		real = rr
	}
	info, err := os.Stat(real)
	if err != nil {
		return "", fmt.Errorf("stat git binary: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("git binary is not a regular file: %s", real)
	}
	if runtime.GOOS != "windows" && info.Mode()&0o111 == 0 {
		return "", fmt.Errorf("git binary is not executable: %s", real)
	}
	return real, nil
}
