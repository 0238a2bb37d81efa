// Package issue_tracker talks to the GitLab REST API on behalf of the
// replay engine.
package issue_tracker

import (
	"fmt"
	"regexp"
	"strings"

	gitlab "gitlab.com/gitlab-org/api/client-go"

	"github.com/MichaelEischer/openproject-gitlab-migrator/internal/replay"
)

var projectURLPattern = regexp.MustCompile(`^(https?://.+)/([\w_.-]+)/([\w_.-]+)$`)

// ParseProjectURL splits a project URL such as https://git.example.com/group/project
// into the instance URL and the "group/project" path.
func ParseProjectURL(projectURL string) (baseURL, project string, err error) {
	m := projectURLPattern.FindStringSubmatch(strings.TrimSuffix(projectURL, "/"))
	if m == nil {
		return "", "", fmt.Errorf("invalid project url %q: expected https://host/group/project", projectURL)
	}
	return m[1], m[2] + "/" + m[3], nil
}

// GitLab is a replay target backed by one GitLab project. Requests are
// never retried so a failed write is not silently duplicated.
type GitLab struct {
	client  *gitlab.Client
	project string
}

var _ replay.Target = (*GitLab)(nil)

// New returns a client for project (an id or "group/project" path) on the
// instance at baseURL.
func New(baseURL, token, project string) (*GitLab, error) {
	apiURL := strings.TrimSuffix(baseURL, "/") + "/api/v4"
	client, err := gitlab.NewClient(token, gitlab.WithBaseURL(apiURL), gitlab.WithoutRetries())
	if err != nil {
		return nil, fmt.Errorf("creating gitlab client: %w", err)
	}
	return &GitLab{client: client, project: project}, nil
}

func NewFromProjectURL(projectURL, token string) (*GitLab, error) {
	baseURL, project, err := ParseProjectURL(projectURL)
	if err != nil {
		return nil, err
	}
	return New(baseURL, token, project)
}
