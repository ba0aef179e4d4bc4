package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Sternrassler/request-responses/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numbered(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("response %d", i)
	}
	return out
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()

	for _, name := range []string{"url", "request-id", "window-size", "log-level", "log-file", "retries", "plain"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %q", name)
	}
	assert.Equal(t, "10", cmd.Flags().Lookup("window-size").DefValue)
}

func TestRootCmd_Validation(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "window size", args: []string{"--window-size", "0"}, want: "window-size must be >= 1"},
		{name: "retries", args: []string{"--retries", "-1"}, want: "retries must be >= 0"},
		{name: "log level", args: []string{"--log-level", "loud"}, want: "unknown log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestRootCmd_PlainPrintsFirstWindow(t *testing.T) {
	mock := testutil.NewMockResponses(numbered(25))
	defer mock.Close()

	logFile := filepath.Join(t.TempDir(), "view.log")
	out, err := execute(t,
		"--url", mock.URL(),
		"--request-id", "FOIL-1",
		"--window-size", "5",
		"--log-level", "debug",
		"--log-file", logFile,
		"--plain",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "response 0")
	assert.Contains(t, out, "response 4")
	assert.NotContains(t, out, "response 5")
	assert.Equal(t, []string{"FOIL-1"}, mock.RequestIDs())

	logs, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(logs), "responses-client"), "client logs go to the log file")
}

func TestRootCmd_PlainReportsFetchError(t *testing.T) {
	mock := testutil.NewMockResponses(numbered(5))
	defer mock.Close()
	mock.QueueResponse(testutil.NewServerErrorResponse())

	_, err := execute(t, "--url", mock.URL(), "--plain")

	require.Error(t, err)
	assert.Equal(t, 1, mock.RequestCount())
}

func TestOutputWidth(t *testing.T) {
	assert.Equal(t, defaultWidth, outputWidth(&bytes.Buffer{}))

	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, defaultWidth, outputWidth(f), "regular files are not terminals")
}
