package scan

// CommandConfiguration captures persisted settings for the scan command.
type CommandConfiguration struct {
	Format      string   `mapstructure:"format"`
	Output      string   `mapstructure:"output"`
	Scope       string   `mapstructure:"scope"`
	Categories  []string `mapstructure:"categories"`
	Catalog     string   `mapstructure:"catalog"`
	Parallelism int      `mapstructure:"parallelism"`
	ToolTimeout string   `mapstructure:"tool_timeout"`
	Deadline    string   `mapstructure:"deadline"`
	FailOn      string   `mapstructure:"fail_on"`
	Blocking    bool     `mapstructure:"blocking"`
}

const (
	formatConfigurationKeyConstant      = "format"
	outputConfigurationKeyConstant      = "output"
	scopeConfigurationKeyConstant       = "scope"
	catalogConfigurationKeyConstant     = "catalog"
	parallelismConfigurationKeyConstant = "parallelism"
	toolTimeoutConfigurationKeyConstant = "tool_timeout"
	deadlineConfigurationKeyConstant    = "deadline"
	failOnConfigurationKeyConstant      = "fail_on"
	blockingConfigurationKeyConstant    = "blocking"

	defaultFormatConstant      = "markdown"
	defaultToolTimeoutConstant = "2m"
)

// DefaultConfigurationValues returns the configuration defaults for the scan
// command nested beneath the provided configuration key prefix.
func DefaultConfigurationValues(configurationKeyPrefix string) map[string]any {
	prefixed := func(configurationKey string) string {
		return configurationKeyPrefix + "." + configurationKey
	}
	return map[string]any{
		prefixed(formatConfigurationKeyConstant):      defaultFormatConstant,
		prefixed(outputConfigurationKeyConstant):      "",
		prefixed(scopeConfigurationKeyConstant):       "",
		prefixed(catalogConfigurationKeyConstant):     "",
		prefixed(parallelismConfigurationKeyConstant): 0,
		prefixed(toolTimeoutConfigurationKeyConstant): defaultToolTimeoutConstant,
		prefixed(deadlineConfigurationKeyConstant):    "",
		prefixed(failOnConfigurationKeyConstant):      "",
		prefixed(blockingConfigurationKeyConstant):    false,
	}
}
