package config

import (
	"fmt"
	"os/exec"
	"regexp"
	"strings"
)

// GitHub remote URL shapes we recognize, with or without the .git suffix:
// https://github.com/owner/repo and git@github.com:owner/repo.
var githubRemotePatterns = []*regexp.Regexp{
	regexp.MustCompile(`https://github\.com/([^/]+)/([^/]+?)(?:\.git)?$`),
	regexp.MustCompile(`git@github\.com:([^/]+)/([^/]+?)(?:\.git)?$`),
}

// detectGitHubRepo reads the origin remote and extracts owner/repo from
// it. Used only when config leaves them on "auto".
func detectGitHubRepo(repoRoot string) (owner, repo string, err error) {
	cmd := exec.Command("git", "remote", "get-url", "origin")
	cmd.Dir = repoRoot
	out, err := cmd.Output()
	if err != nil {
		return "", "", fmt.Errorf("get git remote: %w", err)
	}
	return parseGitHubURL(strings.TrimSpace(string(out)))
}

func parseGitHubURL(url string) (owner, repo string, err error) {
	for _, re := range githubRemotePatterns {
		if m := re.FindStringSubmatch(url); m != nil {
			return m[1], m[2], nil
		}
	}
	return "", "", fmt.Errorf("unrecognized GitHub URL format: %s", url)
}
