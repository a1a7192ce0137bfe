package dashboard_test

import (
	"context"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/docrun/cmd/cli/dashboard"
	"github.com/tyemirov/docrun/internal/execshell"
)

type idleCommandRunner struct{}

func (idleCommandRunner) Run(_ context.Context, _ execshell.ShellCommand) (execshell.ExecutionResult, error) {
	return execshell.ExecutionResult{}, nil
}

func TestBuildDashboardCommandMetadata(testInstance *testing.T) {
	builder := &dashboard.CommandBuilder{CommandRunner: idleCommandRunner{}}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)
	require.Equal(testInstance, "dashboard", command.Use)
	require.NotNil(testInstance, command.Flags().Lookup("address"))
}

func TestDashboardCommandServesUntilCancelled(testInstance *testing.T) {
	listener, listenError := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(testInstance, listenError)
	listenAddress := listener.Addr().String()
	require.NoError(testInstance, listener.Close())

	builder := &dashboard.CommandBuilder{CommandRunner: idleCommandRunner{}}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	executionContext, cancelExecution := context.WithCancel(context.Background())
	command.SetOut(&strings.Builder{})
	command.SetErr(&strings.Builder{})
	command.SetArgs([]string{"--address", listenAddress})
	command.SetContext(executionContext)

	executionResult := make(chan error, 1)
	go func() {
		executionResult <- command.Execute()
	}()

	require.Eventually(testInstance, func() bool {
		response, requestError := http.Get("http://" + listenAddress + "/healthz")
		if requestError != nil {
			return false
		}
		defer response.Body.Close()
		return response.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancelExecution()

	select {
	case serveError := <-executionResult:
		require.NoError(testInstance, serveError)
	case <-time.After(5 * time.Second):
		testInstance.Fatal("dashboard command did not stop after cancellation")
	}
}

func TestDashboardConfigurationSanitize(testInstance *testing.T) {
	sanitized := dashboard.Configuration{}.Sanitize()
	require.Positive(testInstance, sanitized.SimilarityThreshold)

	configured := dashboard.Configuration{SimilarityThreshold: 0.25}.Sanitize()
	require.InDelta(testInstance, 0.25, configured.SimilarityThreshold, 0.0001)
}
