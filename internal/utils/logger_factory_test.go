package utils_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/checkup/internal/utils"
)

const loggerTestMessageConstant = "analyzer selection logged"

func captureLoggerOutput(testInstance *testing.T, requestedLogLevel utils.LogLevel, requestedLogFormat utils.LogFormat) string {
	testInstance.Helper()

	pipeReader, pipeWriter, pipeError := os.Pipe()
	require.NoError(testInstance, pipeError)

	originalStderr := os.Stderr
	os.Stderr = pipeWriter
	logger, creationError := utils.NewLoggerFactory().CreateLogger(requestedLogLevel, requestedLogFormat)
	os.Stderr = originalStderr
	require.NoError(testInstance, creationError)

	logger.Info(loggerTestMessageConstant)
	if syncError := logger.Sync(); syncError != nil {
		require.True(testInstance, errors.Is(syncError, syscall.ENOTSUP) || errors.Is(syncError, syscall.EINVAL))
	}
	require.NoError(testInstance, pipeWriter.Close())

	capturedOutput, readError := io.ReadAll(pipeReader)
	require.NoError(testInstance, readError)
	require.NoError(testInstance, pipeReader.Close())
	return string(bytes.TrimSpace(capturedOutput))
}

func TestCreateLoggerStructuredFormatEmitsJSON(testInstance *testing.T) {
	capturedLine := captureLoggerOutput(testInstance, utils.LogLevelInfo, utils.LogFormatStructured)

	require.Contains(testInstance, capturedLine, loggerTestMessageConstant)
	require.True(testInstance, json.Valid([]byte(capturedLine)))
}

func TestCreateLoggerConsoleFormatEmitsReadableLine(testInstance *testing.T) {
	capturedLine := captureLoggerOutput(testInstance, utils.LogLevelInfo, utils.LogFormatConsole)

	require.Contains(testInstance, capturedLine, loggerTestMessageConstant)
	require.Contains(testInstance, capturedLine, "INFO")
	require.False(testInstance, json.Valid([]byte(capturedLine)))
}

func TestCreateLoggerHonorsLevelThreshold(testInstance *testing.T) {
	capturedLine := captureLoggerOutput(testInstance, utils.LogLevelError, utils.LogFormatStructured)

	require.Empty(testInstance, capturedLine, "info messages are suppressed at the error level")
}

func TestCreateLoggerRejectsUnknownValues(testInstance *testing.T) {
	testCases := []struct {
		name               string
		requestedLogLevel  utils.LogLevel
		requestedLogFormat utils.LogFormat
	}{
		{name: "unknown level", requestedLogLevel: utils.LogLevel("verbose"), requestedLogFormat: utils.LogFormatStructured},
		{name: "unknown format", requestedLogLevel: utils.LogLevelInfo, requestedLogFormat: utils.LogFormat("plain")},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(subTest *testing.T) {
			logger, creationError := utils.NewLoggerFactory().CreateLogger(testCase.requestedLogLevel, testCase.requestedLogFormat)
			require.Error(subTest, creationError)
			require.Nil(subTest, logger)
		})
	}
}
