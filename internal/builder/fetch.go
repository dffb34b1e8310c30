package builder

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
)

var remoteShortcuts = map[string]string{
	"gh:": "https://github.com/",
	"gl:": "https://gitlab.com/",
	"bb:": "https://bitbucket.org/",
	"sr:": "https://sr.ht/",
	"cb:": "https://codeberg.org/",
}

const gitPrefix = "git:"

var errIllegalRemote = errors.New("empty or illegal git remote")

// FetchOutcome describes what FetchSources did with one project
type FetchOutcome struct {
	Project string
	Dir     string
	// Cloned is false when the source tree was already present
	Cloned bool
	Err    error
}

// FetchSources clones the source tree of every project that names a git remote
// and whose source directory does not exist yet. Relative source directories are
// resolved against root. Progress from the clones is written to progress.
func FetchSources(root string, projects []Project, progress io.Writer) []FetchOutcome {
	var outcomes []FetchOutcome
	for _, p := range projects {
		if p.Git == "" {
			continue
		}

		dir := p.SourceDir
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(root, dir)
		}
		outcome := FetchOutcome{Project: p.Name, Dir: dir}

		if stat, err := os.Stat(dir); err == nil && stat.IsDir() {
			outcomes = append(outcomes, outcome)
			continue
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			outcome.Err = err
			outcomes = append(outcomes, outcome)
			continue
		}

		remote, err := expandRemote(p.Git)
		if err == nil {
			err = cloneGitRepo(remote, dir, progress)
		}
		if err != nil {
			// leave no half-cloned tree behind, discovery would pick it up
			os.RemoveAll(dir)
			outcome.Err = &BuildError{Kind: KindSourceDirMissing, Project: p.Name, Err: fmt.Errorf("fetch %s: %w", p.Git, err)}
		} else {
			outcome.Cloned = true
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// expandRemote turns `gh:owner/repo` shortcuts and `git:` prefixed URLs into clone URLs
func expandRemote(remote string) (string, error) {
	if remote == "" {
		return "", errIllegalRemote
	}

	// check for `git:` prefix, e.g. git:https://example.com/ace.git
	if strings.HasPrefix(remote, gitPrefix) && !strings.HasPrefix(remote, "git://") {
		return remote[len(gitPrefix):], nil
	}

	// check for shortcut prefix, e.g. gh:someone/ace-vm
	for shortcut, url := range remoteShortcuts {
		if strings.HasPrefix(remote, shortcut) {
			return url + remote[len(shortcut):], nil
		}
	}

	if strings.Contains(remote, "://") || strings.HasPrefix(remote, "git@") {
		return remote, nil
	}
	return "", fmt.Errorf("%w: %q", errIllegalRemote, remote)
}

type gitURL struct {
	cleanURL    string
	branch      string
	commitOrTag string
}

// someone/something@master#0.1.0
// someone/something@feature-branch#12345abc
// someone/something#12345abc
func parseGitURL(rawURL string) (res gitURL) {
	parts := strings.SplitN(rawURL, "#", 2)
	baseURL := parts[0]
	if len(parts) == 2 {
		res.commitOrTag = parts[1]
	}

	// the userinfo of ssh remotes (git@host:path) also uses '@'
	at := strings.LastIndex(baseURL, "@")
	if at > 0 && !strings.Contains(baseURL[at:], "/") && !strings.Contains(baseURL[at:], ":") {
		res.cleanURL = baseURL[:at]
		res.branch = baseURL[at+1:]
	} else {
		res.cleanURL = baseURL
	}

	if !strings.HasSuffix(res.cleanURL, ".git") {
		res.cleanURL += ".git"
	}

	return
}

// cloneGitRepo clones a Git remote into the specified directory
func cloneGitRepo(url, toWhere string, progress io.Writer) error {
	parsedURL := parseGitURL(url)

	cloneOptions := &git.CloneOptions{
		URL:               parsedURL.cleanURL,
		Progress:          progress,
		RecurseSubmodules: git.DefaultSubmoduleRecursionDepth,
	}

	if parsedURL.commitOrTag == "" {
		cloneOptions.Depth = 1 // we can do a shallow clone of the latest commit
	}

	if parsedURL.branch != "" {
		cloneOptions.ReferenceName = plumbing.NewBranchReferenceName(parsedURL.branch)
		cloneOptions.SingleBranch = true
	}

	repo, err := git.PlainClone(toWhere, cloneOptions)
	if err != nil {
		return err
	}

	if parsedURL.commitOrTag != "" {
		w, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("could not get worktree: %w", err)
		}

		revision := parsedURL.commitOrTag
		hash, err := repo.ResolveRevision(plumbing.Revision(revision))
		if err != nil {
			return fmt.Errorf("could not resolve revision `%s`: %w", revision, err)
		}

		err = w.Checkout(&git.CheckoutOptions{
			Hash:  *hash,
			Force: true,
		})
		if err != nil {
			return fmt.Errorf("failed to checkout `%s`: %w", revision, err)
		}
	}

	return nil
}
