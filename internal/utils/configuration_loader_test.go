package utils_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/checkup/internal/utils"
)

const (
	loaderTestConfigurationNameConstant = "config"
	loaderTestEnvironmentPrefixConstant = "TESTCHECKUP"
	loaderTestConfigFileNameConstant    = "config.yaml"
	loaderTestLogLevelKeyConstant       = "common.log_level"
	loaderTestScanFormatKeyConstant     = "scan.format"
	loaderTestEmbeddedContentConstant   = "common:\n  log_level: info\nscan:\n  format: markdown\n  blocking: false\n"
	loaderTestFileContentConstant       = "scan:\n  format: json\n"
	loaderTestEnvironmentValueConstant  = "debug"
)

type loaderTestConfiguration struct {
	Common loaderTestCommonSection `mapstructure:"common"`
	Scan   loaderTestScanSection   `mapstructure:"scan"`
}

type loaderTestCommonSection struct {
	LogLevel string `mapstructure:"log_level"`
}

type loaderTestScanSection struct {
	Format   string `mapstructure:"format"`
	Blocking bool   `mapstructure:"blocking"`
}

func loadTestConfiguration(testInstance *testing.T, configurationFilePath string, searchPaths []string) (loaderTestConfiguration, utils.LoadedConfiguration) {
	testInstance.Helper()

	configurationLoader := utils.NewConfigurationLoader(loaderTestConfigurationNameConstant, loaderTestEnvironmentPrefixConstant, searchPaths)
	configurationLoader.SetEmbeddedConfiguration([]byte(loaderTestEmbeddedContentConstant))

	defaultValues := map[string]any{
		loaderTestLogLevelKeyConstant:   "info",
		loaderTestScanFormatKeyConstant: "markdown",
	}

	configuration := loaderTestConfiguration{}
	metadata, loadError := configurationLoader.LoadConfiguration(configurationFilePath, defaultValues, &configuration)
	require.NoError(testInstance, loadError)
	return configuration, metadata
}

func TestConfigurationLoaderUsesEmbeddedDefaults(testInstance *testing.T) {
	configuration, metadata := loadTestConfiguration(testInstance, "", []string{testInstance.TempDir()})

	require.Equal(testInstance, "info", configuration.Common.LogLevel)
	require.Equal(testInstance, "markdown", configuration.Scan.Format)
	require.False(testInstance, configuration.Scan.Blocking)
	require.Empty(testInstance, metadata.ConfigFileUsed)
}

func TestConfigurationLoaderFileOverridesEmbeddedDefaults(testInstance *testing.T) {
	configurationDirectory := testInstance.TempDir()
	configurationFilePath := filepath.Join(configurationDirectory, loaderTestConfigFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(loaderTestFileContentConstant), 0o600))

	configuration, metadata := loadTestConfiguration(testInstance, configurationFilePath, nil)

	require.Equal(testInstance, "json", configuration.Scan.Format)
	require.Equal(testInstance, "info", configuration.Common.LogLevel, "sections absent from the file keep embedded values")
	require.Equal(testInstance, configurationFilePath, metadata.ConfigFileUsed)
}

func TestConfigurationLoaderSearchPathDiscoversFile(testInstance *testing.T) {
	configurationDirectory := testInstance.TempDir()
	configurationFilePath := filepath.Join(configurationDirectory, loaderTestConfigFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte(loaderTestFileContentConstant), 0o600))

	configuration, metadata := loadTestConfiguration(testInstance, "", []string{testInstance.TempDir(), configurationDirectory})

	require.Equal(testInstance, "json", configuration.Scan.Format)
	require.Equal(testInstance, configurationFilePath, metadata.ConfigFileUsed)
}

func TestConfigurationLoaderEnvironmentOverridesFile(testInstance *testing.T) {
	configurationDirectory := testInstance.TempDir()
	configurationFilePath := filepath.Join(configurationDirectory, loaderTestConfigFileNameConstant)
	require.NoError(testInstance, os.WriteFile(configurationFilePath, []byte("common:\n  log_level: warn\n"), 0o600))

	environmentVariableName := fmt.Sprintf("%s_COMMON_LOG_LEVEL", loaderTestEnvironmentPrefixConstant)
	testInstance.Setenv(environmentVariableName, loaderTestEnvironmentValueConstant)

	configuration, _ := loadTestConfiguration(testInstance, configurationFilePath, nil)

	require.Equal(testInstance, loaderTestEnvironmentValueConstant, configuration.Common.LogLevel)
}
