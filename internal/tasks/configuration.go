package tasks

import "strings"

const (
	// InstallTaskName installs toolchain dependencies from the manifest.
	InstallTaskName = "install"
	// RunTaskName executes the primary pipeline entry point.
	RunTaskName = "run"
	// StartTaskName launches the external web dashboard.
	StartTaskName = "start"
	// TestTaskName executes the comparison script.
	TestTaskName = "test"

	startTaskStreamlitAliasConstant = "streamlit"
	startTaskAppAliasConstant       = "app"

	defaultDependencyManagerConstant     = "pip3"
	defaultScriptInterpreterConstant     = "python3"
	defaultDashboardLauncherConstant     = "streamlit"
	defaultRequirementsManifestConstant  = "requirements.txt"
	defaultPipelineScriptConstant        = "main.py"
	defaultDashboardScriptConstant       = "streamlit_app.py"
	defaultComparisonScriptConstant      = "compare.py"
	installTaskDescriptionConstant       = "Install toolchain dependencies from the requirements manifest"
	runTaskDescriptionConstant           = "Execute the pipeline entry-point script"
	startTaskDescriptionConstant         = "Launch the external web dashboard (blocking)"
	testTaskDescriptionConstant          = "Execute the comparison script"
	dependencyManagerInstallArgumentName = "install"
	dependencyManagerManifestFlagName    = "-r"
	dashboardLauncherRunArgumentName     = "run"
)

// InstallConfiguration describes the dependency installation task.
type InstallConfiguration struct {
	Manager  string `mapstructure:"manager"`
	Manifest string `mapstructure:"manifest"`
}

// Sanitize applies defaults to unset install options.
func (configuration InstallConfiguration) Sanitize() InstallConfiguration {
	configuration.Manager = firstNonBlank(configuration.Manager, defaultDependencyManagerConstant)
	configuration.Manifest = firstNonBlank(configuration.Manifest, defaultRequirementsManifestConstant)
	return configuration
}

// RunConfiguration describes the pipeline entry-point task.
type RunConfiguration struct {
	Interpreter string   `mapstructure:"interpreter"`
	Script      string   `mapstructure:"script"`
	WatchPaths  []string `mapstructure:"watch_paths"`
}

// Sanitize applies defaults to unset run options.
func (configuration RunConfiguration) Sanitize() RunConfiguration {
	configuration.Interpreter = firstNonBlank(configuration.Interpreter, defaultScriptInterpreterConstant)
	configuration.Script = firstNonBlank(configuration.Script, defaultPipelineScriptConstant)
	return configuration
}

// StartConfiguration describes the external dashboard launch task.
type StartConfiguration struct {
	Launcher string `mapstructure:"launcher"`
	Script   string `mapstructure:"script"`
}

// Sanitize applies defaults to unset start options.
func (configuration StartConfiguration) Sanitize() StartConfiguration {
	configuration.Launcher = firstNonBlank(configuration.Launcher, defaultDashboardLauncherConstant)
	configuration.Script = firstNonBlank(configuration.Script, defaultDashboardScriptConstant)
	return configuration
}

// TestConfiguration describes the comparison script task.
type TestConfiguration struct {
	Interpreter string `mapstructure:"interpreter"`
	Script      string `mapstructure:"script"`
}

// Sanitize applies defaults to unset test options.
func (configuration TestConfiguration) Sanitize() TestConfiguration {
	configuration.Interpreter = firstNonBlank(configuration.Interpreter, defaultScriptInterpreterConstant)
	configuration.Script = firstNonBlank(configuration.Script, defaultComparisonScriptConstant)
	return configuration
}

// TaskTableConfiguration bundles the configurations behind the built-in tasks.
type TaskTableConfiguration struct {
	Install InstallConfiguration
	Run     RunConfiguration
	Start   StartConfiguration
	Test    TestConfiguration
}

// BuildTaskTable assembles the built-in task definitions from configuration.
func BuildTaskTable(configuration TaskTableConfiguration) []Task {
	installConfiguration := configuration.Install.Sanitize()
	runConfiguration := configuration.Run.Sanitize()
	startConfiguration := configuration.Start.Sanitize()
	testConfiguration := configuration.Test.Sanitize()

	return []Task{
		{
			Name:        InstallTaskName,
			Description: installTaskDescriptionConstant,
			Tool:        installConfiguration.Manager,
			Arguments:   []string{dependencyManagerInstallArgumentName, dependencyManagerManifestFlagName, installConfiguration.Manifest},
			Streaming:   true,
		},
		{
			Name:        RunTaskName,
			Description: runTaskDescriptionConstant,
			Tool:        runConfiguration.Interpreter,
			Arguments:   []string{runConfiguration.Script},
			Streaming:   true,
		},
		{
			Name:        StartTaskName,
			Aliases:     []string{startTaskStreamlitAliasConstant, startTaskAppAliasConstant},
			Description: startTaskDescriptionConstant,
			Tool:        startConfiguration.Launcher,
			Arguments:   []string{dashboardLauncherRunArgumentName, startConfiguration.Script},
			Streaming:   true,
		},
		{
			Name:        TestTaskName,
			Description: testTaskDescriptionConstant,
			Tool:        testConfiguration.Interpreter,
			Arguments:   []string{testConfiguration.Script},
			Streaming:   true,
		},
	}
}

func firstNonBlank(candidateValue string, fallbackValue string) string {
	trimmedCandidate := strings.TrimSpace(candidateValue)
	if len(trimmedCandidate) > 0 {
		return trimmedCandidate
	}
	return fallbackValue
}
