package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/crcloud/crdeploy/api"
	"github.com/crcloud/crdeploy/config"
	"github.com/crcloud/crdeploy/filter"
	"github.com/crcloud/crdeploy/fmte"
	"github.com/crcloud/crdeploy/pathutil"
	"github.com/crcloud/crdeploy/project"
	"github.com/crcloud/crdeploy/prompt"
	"github.com/crcloud/crdeploy/remote"
	"github.com/crcloud/crdeploy/service"
	"github.com/crcloud/crdeploy/transfer"
	"github.com/crcloud/crdeploy/vcs"
	set "github.com/deckarep/golang-set/v2"
)

const connectTimeout = 20 * time.Second

const taskPollInterval = 10 * time.Second

// uploadRules combines the config's exclusions, git's ignored paths and
// the config's inclusion overrides into the upload filter. Relative config
// entries are anchored at the project directory.
func uploadRules(projectDir string, cfg config.Config, versionControl vcs.VersionControl) filter.Rules {
	excludes := set.NewThreadUnsafeSet[string]()
	for _, entry := range cfg.Exclude {
		excludes.Add(anchorEntry(projectDir, entry))
	}
	for _, ignored := range versionControl.IgnoredPaths(projectDir) {
		excludes.Add(ignored)
	}
	includes := set.NewThreadUnsafeSet[string]()
	for _, entry := range cfg.Include {
		includes.Add(anchorEntry(projectDir, entry))
	}
	return filter.NewLocalRules(excludes, includes, string(filepath.Separator))
}

func anchorEntry(projectDir string, entry string) string {
	if !filepath.IsAbs(entry) {
		entry = filepath.Join(projectDir, entry)
	}
	resolved, err := pathutil.Resolve(entry)
	if err != nil {
		return entry
	}
	return resolved
}

func versionControlFor(cfg config.Config) vcs.VersionControl {
	if cfg.DisableGit {
		return vcs.None{}
	}
	return vcs.NewGitCLI()
}

func uploadProject(ctx context.Context, projectDir string, cfg config.Config, creds remote.Credentials,
	verbose bool) error {
	if verbose {
		fmte.VerboseOn()
	}
	root, err := pathutil.Resolve(projectDir)
	if err != nil {
		return fmt.Errorf("couldn't resolve project directory %q: %w", projectDir, err)
	}
	rules := uploadRules(root, cfg, versionControlFor(cfg))
	fmte.Printf("Scanning project directory (%s)...\n", root)
	start := time.Now()
	paths, err := service.PathsToDeploy(root, rules)
	if err != nil {
		return fmt.Errorf("error scanning project directory: %w", err)
	}
	fmte.Printf("Found %d items to upload in %.1fs\n", len(paths), time.Since(start).Seconds())
	fmte.Printf("Connecting to %s...\n", creds.Addr())
	session := remote.NewSession(creds, connectTimeout)
	defer session.Close()
	if err := session.Connect(); err != nil {
		return err
	}
	engine := transfer.NewEngine(session, transfer.NewConsoleSink())
	start = time.Now()
	summary, err := engine.Put(ctx, paths, root, cfg.RemoteRoot)
	if err != nil {
		return fmt.Errorf("upload to %s failed: %w", cfg.RemoteRoot, err)
	}
	fmte.Printf("Uploaded %s in %.1fs\n", summary, time.Since(start).Seconds())
	return nil
}

func downloadRules(cfg config.Config) filter.Rules {
	names := cfg.DownloadExclude
	if len(names) == 0 {
		names = filter.DefaultDownloadExcludes
	}
	return filter.NewRemoteRules(set.NewThreadUnsafeSet[string](names...))
}

func downloadProject(ctx context.Context, cfg config.Config, creds remote.Credentials, destDir string,
	verbose bool) error {
	if verbose {
		fmte.VerboseOn()
	}
	fmte.Printf("Connecting to %s...\n", creds.Addr())
	session := remote.NewSession(creds, connectTimeout)
	defer session.Close()
	if err := session.Connect(); err != nil {
		return err
	}
	engine := transfer.NewEngine(session, transfer.NewConsoleSink())
	fmte.Printf("Downloading %s into %s...\n", cfg.RemoteRoot, destDir)
	start := time.Now()
	summary, err := engine.Get(ctx, cfg.RemoteRoot, destDir, downloadRules(cfg))
	if err != nil {
		return fmt.Errorf("download of %s failed: %w", cfg.RemoteRoot, err)
	}
	fmte.Printf("Downloaded %s in %.1fs\n", summary, time.Since(start).Seconds())
	return nil
}

// deployProject validates the project, asks for confirmation, uploads the
// files and then queues a deployment task, streaming its logs until it
// reaches a terminal state.
func deployProject(ctx context.Context, projectDir string, cfg config.Config, tasks api.TaskService,
	credentials api.CredentialsProvider, ask prompt.UserPrompt, validators []project.Validator,
	verbose bool) error {
	root, err := pathutil.Resolve(projectDir)
	if err != nil {
		return fmt.Errorf("couldn't resolve project directory %q: %w", projectDir, err)
	}
	if err := project.ValidateAll(root, validators); err != nil {
		return err
	}
	env, err := cfg.Environment()
	if err != nil {
		return err
	}
	ok, err := ask.Confirm(fmt.Sprintf("Deploy %s to %s (%s)?", root, cfg.Handle, env))
	if err != nil {
		return err
	}
	if !ok {
		return prompt.ErrCancelled
	}
	creds, err := credentials.SFTPCredentials(ctx)
	if err != nil {
		return fmt.Errorf("couldn't obtain SFTP credentials: %w", err)
	}
	if err := uploadProject(ctx, root, cfg, creds, verbose); err != nil {
		return err
	}
	return queueAndWait(ctx, "deploy", func() (int, error) { return tasks.QueueDeploy(ctx) }, tasks)
}

// restartApp queues a restart task and waits for it, streaming its logs.
func restartApp(ctx context.Context, tasks api.TaskService) error {
	return queueAndWait(ctx, "restart", func() (int, error) { return tasks.QueueRestart(ctx) }, tasks)
}

func queueAndWait(ctx context.Context, kind string, queue func() (int, error), tasks api.TaskService) error {
	taskID, err := queue()
	if err != nil {
		return fmt.Errorf("couldn't queue %s task: %w", kind, err)
	}
	fmte.Printf("Queued %s task %d, waiting for the server...\n", kind, taskID)
	start := time.Now()
	status, err := api.WaitForTask(ctx, tasks, taskID, taskPollInterval, printLogLine)
	if err != nil {
		return err
	}
	fmte.Printf("Task %d %s in %.1fs\n", taskID, status, time.Since(start).Seconds())
	return nil
}

func printLogLine(line api.LogLine) {
	if line.Stream == "stderr" {
		fmte.Warnf("> %s\n", line.Text)
		return
	}
	fmte.Printf("> %s\n", line.Text)
}
