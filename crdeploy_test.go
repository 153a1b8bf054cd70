package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/crcloud/crdeploy/api"
	"github.com/crcloud/crdeploy/config"
	"github.com/crcloud/crdeploy/project"
	"github.com/crcloud/crdeploy/prompt"
	"github.com/crcloud/crdeploy/vcs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadRules(t *testing.T) {
	projectDir := t.TempDir()
	cfg := config.Config{
		Exclude: []string{"media", filepath.Join(projectDir, "secrets.txt")},
		Include: []string{"media/keep.css"},
	}
	rules := uploadRules(projectDir, cfg, vcs.None{})
	assert.True(t, rules.Exclude.Contains(filepath.Join(projectDir, "media")))
	assert.True(t, rules.Exclude.Contains(filepath.Join(projectDir, "secrets.txt")))
	assert.True(t, rules.Include.Contains(filepath.Join(projectDir, "media", "keep.css")))
	assert.True(t, rules.ExcludedNames.Contains("node_modules"))
}

func TestDownloadRules(t *testing.T) {
	rules := downloadRules(config.Config{})
	assert.True(t, rules.Exclude.Contains("wp-content/cache"))
	overridden := downloadRules(config.Config{DownloadExclude: []string{"media"}})
	assert.True(t, overridden.Exclude.Contains("media"))
	assert.False(t, overridden.Exclude.Contains("cache"))
}

func TestAnchorEntry(t *testing.T) {
	projectDir := t.TempDir()
	assert.Equal(t, filepath.Join(projectDir, "media"), anchorEntry(projectDir, "media"))
	abs := filepath.Join(projectDir, "already-abs")
	assert.Equal(t, abs, anchorEntry(projectDir, abs))
}

func TestDeployProjectDeclinedConfirmation(t *testing.T) {
	projectDir := t.TempDir()
	err := deployProject(context.Background(), projectDir, config.Config{Handle: "myapp"},
		nil, nil, prompt.Scripted{ConfirmAnswer: false}, nil, false)
	assert.ErrorIs(t, err, prompt.ErrCancelled)
}

func TestDeployProjectValidationFailure(t *testing.T) {
	projectDir := t.TempDir()
	validators := []project.Validator{project.RequiredFiles{Names: []string{"index.html"}}}
	err := deployProject(context.Background(), projectDir, config.Config{Handle: "myapp"},
		nil, nil, prompt.Scripted{ConfirmAnswer: true}, validators, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NotErrorIs(t, err, prompt.ErrCancelled)
}

type immediateTaskService struct {
	queued string
	status api.TaskStatus
}

func (s *immediateTaskService) QueueDeploy(context.Context) (int, error) {
	s.queued = "deploy"
	return 41, nil
}

func (s *immediateTaskService) QueueRestart(context.Context) (int, error) {
	s.queued = "restart"
	return 42, nil
}

func (s *immediateTaskService) GetTask(context.Context, int) (api.TaskStatus, error) {
	return s.status, nil
}

func (s *immediateTaskService) GetLogs(context.Context, time.Time) ([]api.LogLine, error) {
	return nil, nil
}

func TestRestartApp(t *testing.T) {
	tasks := &immediateTaskService{status: api.StatusCompleted}
	err := restartApp(context.Background(), tasks)
	require.NoError(t, err)
	assert.Equal(t, "restart", tasks.queued)
}

func TestRestartAppTaskFailure(t *testing.T) {
	tasks := &immediateTaskService{status: api.StatusError}
	err := restartApp(context.Background(), tasks)
	assert.ErrorIs(t, err, api.ErrTaskFailed)
}
