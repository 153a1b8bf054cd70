package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/crcloud/crdeploy/api"
	"github.com/crcloud/crdeploy/config"
	"github.com/crcloud/crdeploy/entity"
	"github.com/crcloud/crdeploy/fmte"
	"github.com/crcloud/crdeploy/pathutil"
	"github.com/crcloud/crdeploy/project"
	"github.com/crcloud/crdeploy/prompt"
	"github.com/crcloud/crdeploy/remote"
	flag "github.com/spf13/pflag"
)

// Constants indicating return codes of this tool, when run from command line
const (
	exitCodeSuccess = iota
	exitCodeInvalidArgs
	exitCodeProjectDirError
	exitCodeConfigError
	exitCodeTokenError
	exitCodeExclusionFilesError
	exitCodeCancelled
	exitCodeAuthError
	exitCodeRunError
)

const envVarToken = "CRDEPLOY_TOKEN"

var flags struct {
	isHelp        func() bool
	getConfigPath func() string
	getEnv        func() string
	getToken      func() string
	getAPIURL     func() string
	getExclusions func() []string
	isNoInput     func() bool
	isVerbose     func() bool
}

func setupHelpOpt() {
	helpPtr := flag.BoolP("help", "h", false, "display help")
	flags.isHelp = func() bool {
		return *helpPtr
	}
}

func setupConfigOpt() {
	configPathPtr := flag.StringP("config", "c", "",
		fmt.Sprintf("path to config file (default: %s in the project directory,\n"+
			"then the user config directory)", config.FileName))
	flags.getConfigPath = func() string {
		configPath := *configPathPtr
		if configPath == "" {
			return ""
		}
		if !pathutil.IsReadableFile(configPath) {
			fmte.PrintfErr("error: argument to flag --config should be a readable file\n")
			flag.Usage()
			os.Exit(exitCodeConfigError)
		}
		return configPath
	}
}

func setupEnvOpt() {
	envPtr := flag.StringP("env", "e", "", "hosting environment to act on (\"prod\" or \"staging\")")
	flags.getEnv = func() string {
		return *envPtr
	}
}

func setupTokenOpt() {
	tokenPtr := flag.String("token", "", "platform API token (defaults to the "+envVarToken+" environment variable)")
	flags.getToken = func() string {
		if *tokenPtr != "" {
			return *tokenPtr
		}
		return os.Getenv(envVarToken)
	}
}

func setupAPIURLOpt() {
	urlPtr := flag.String("api-url", "", "override the platform API base URL")
	flags.getAPIURL = func() string {
		return *urlPtr
	}
}

func setupExclusionsOpt() {
	const exclusionsFlag = "exclusions"
	excludesListFilePathPtr := flag.String(exclusionsFlag, "",
		"path to file containing newline separated list of paths to be excluded,\n"+
			"in addition to those from the config file and git")
	flags.getExclusions = func() []string {
		excludesListFilePath := *excludesListFilePathPtr
		if excludesListFilePath == "" {
			return nil
		}
		if !pathutil.IsReadableFile(excludesListFilePath) {
			fmte.PrintfErr("error: argument to flag --%s should be a file\n", exclusionsFlag)
			flag.Usage()
			os.Exit(exitCodeExclusionFilesError)
		}
		rawContents, err := os.ReadFile(excludesListFilePath)
		if err != nil {
			fmte.PrintfErr("error: argument to flag --%s isn't readable: %+v\n", exclusionsFlag, err)
			flag.Usage()
			os.Exit(exitCodeExclusionFilesError)
		}
		contents := strings.ReplaceAll(string(rawContents), "\r\n", "\n") // Windows
		exclusions, _ := pathutil.LineSeparatedStrToSlice(contents)
		return exclusions
	}
}

func setupNoInputOpt() {
	noInputPtr := flag.Bool("noinput", false, "never prompt; assume yes on confirmations and fail if a secret is missing")
	flags.isNoInput = func() bool {
		return *noInputPtr
	}
}

func setupVerboseOpt() {
	verbosePtr := flag.BoolP("verbose", "v", false, "generate extra information")
	flags.isVerbose = func() bool {
		return *verbosePtr
	}
}

func setupFlags() {
	setupHelpOpt()
	setupConfigOpt()
	setupEnvOpt()
	setupTokenOpt()
	setupAPIURLOpt()
	setupExclusionsOpt()
	setupNoInputOpt()
	setupVerboseOpt()
	setupUsage()
}

func setupUsage() {
	flag.Usage = func() {
		fmte.PrintfErr("Run \"crdeploy --help\" for usage\n")
	}
}

func showHelpAndExit() {
	flag.CommandLine.SetOutput(os.Stdout)
	fmt.Printf(`crdeploy is a tool to deploy a local website project to its host.

Usage:
	 crdeploy <command> <flags> [project-dir]

where command is one of,
	upload     upload the project directory to the app's server
	download   download the app's files into the given directory
	deploy     upload the project, then queue and watch a deployment
	restart    restart the app and watch the task

and project-dir defaults to the current directory.

flags: (all optional)
`)
	flag.PrintDefaults()
	os.Exit(exitCodeSuccess)
}

func handlePanic() {
	err := recover()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Program exited unexpectedly. "+
			"Please report the below error to the author:\n"+
			"%+v\n", err)
		_, _ = fmt.Fprintln(os.Stderr, string(debug.Stack()))
	}
}

func readProjectDir(command string) string {
	projectDir := "."
	if flag.NArg() > 1 {
		projectDir = flag.Arg(1)
	}
	if command == "download" {
		// the destination may not exist yet; it gets created
		return projectDir
	}
	projectDirPath, projectDirErr := pathutil.Resolve(projectDir)
	if projectDirErr != nil || !pathutil.IsReadableDirectory(projectDirPath) {
		fmte.PrintfErr("error: project path \"%s\" is not a readable directory\n", projectDir)
		flag.Usage()
		os.Exit(exitCodeProjectDirError)
	}
	return projectDirPath
}

func loadConfig(projectDir string) (config.Config, entity.Env) {
	cfg, err := config.Load(flags.getConfigPath(), projectDir)
	if err != nil {
		fmte.PrintfErr("error: %+v\n", err)
		os.Exit(exitCodeConfigError)
	}
	if envName := flags.getEnv(); envName != "" {
		cfg.Env = envName
	}
	env, envErr := cfg.Environment()
	if envErr != nil {
		fmte.PrintfErr("error: %+v\n", envErr)
		flag.Usage()
		os.Exit(exitCodeInvalidArgs)
	}
	if cfg.Handle == "" {
		fmte.PrintfErr("error: no app handle configured (set \"handle\" in %s, or the %s environment variable)\n",
			config.FileName, "CRDEPLOY_HANDLE")
		os.Exit(exitCodeConfigError)
	}
	cfg.Exclude = append(cfg.Exclude, flags.getExclusions()...)
	return cfg, env
}

func readToken(ask prompt.UserPrompt) string {
	token := flags.getToken()
	if token != "" {
		return token
	}
	if flags.isNoInput() {
		fmte.PrintfErr("error: no API token given (use --token or set %s)\n", envVarToken)
		os.Exit(exitCodeTokenError)
	}
	token, err := ask.Password("API token")
	if err != nil || token == "" {
		fmte.PrintfErr("error: couldn't read API token\n")
		os.Exit(exitCodeTokenError)
	}
	return token
}

func sftpCredentials(ctx context.Context, client *api.Client) remote.Credentials {
	creds, err := client.SFTPCredentials(ctx)
	if err != nil {
		fmte.PrintfErr("error: %+v\n", err)
		os.Exit(exitCodeAuthError)
	}
	return creds
}

func main() {
	defer handlePanic()
	setupFlags()
	flag.Parse()
	if flags.isHelp() {
		showHelpAndExit()
	}
	if flag.NArg() == 0 {
		fmte.PrintfErr("error: no command passed\n")
		flag.Usage()
		os.Exit(exitCodeInvalidArgs)
	}
	if flag.NArg() > 2 {
		fmte.PrintfErr("error: at most two arguments expected: a command and a project directory\n")
		flag.Usage()
		os.Exit(exitCodeInvalidArgs)
	}
	command := flag.Arg(0)
	projectDir := readProjectDir(command)
	cfg, env := loadConfig(projectDir)

	var ask prompt.UserPrompt = prompt.NewTerminal()
	if flags.isNoInput() {
		ask = prompt.Scripted{ConfirmAnswer: true}
	}
	client := api.NewClient(flags.getAPIURL(), readToken(ask), cfg.Handle, env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var runErr error
	switch command {
	case "upload":
		runErr = uploadProject(ctx, projectDir, cfg, sftpCredentials(ctx, client), flags.isVerbose())
	case "download":
		runErr = downloadProject(ctx, cfg, sftpCredentials(ctx, client), projectDir, flags.isVerbose())
	case "deploy":
		validators := []project.Validator{project.RequiredFiles{Names: cfg.Require}}
		runErr = deployProject(ctx, projectDir, cfg, client, client, ask, validators, flags.isVerbose())
	case "restart":
		runErr = restartApp(ctx, client)
	default:
		fmte.PrintfErr("error: unknown command \"%s\"\n", command)
		flag.Usage()
		os.Exit(exitCodeInvalidArgs)
	}
	if errors.Is(runErr, prompt.ErrCancelled) {
		fmte.Printf("Cancelled.\n")
		os.Exit(exitCodeCancelled)
	}
	if runErr != nil {
		fmte.PrintfErr("error while running %s: %+v\n", command, runErr)
		os.Exit(exitCodeRunError)
	}
}
