package utils

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strings"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	configurationKeyDelimiterConstant               = "."
	environmentKeyDelimiterConstant                 = "_"
	listValueSeparatorConstant                      = ","
	configurationReadErrorTemplateConstant          = "failed to read configuration: %w"
	configurationUnmarshalErrorTemplateConstant     = "failed to parse configuration: %w"
	embeddedConfigurationMergeErrorTemplateConstant = "failed to merge embedded configuration: %w"
)

// ConfigurationLoader resolves layered configuration for the command line tool. Layers are applied in
// increasing precedence: defaults, embedded configuration, a configuration file, environment variables.
type ConfigurationLoader struct {
	configurationName         string
	configurationType         string
	environmentPrefix         string
	searchPaths               []string
	embeddedConfiguration     []byte
	embeddedConfigurationType string
}

// LoadedConfiguration describes where the resolved configuration came from.
type LoadedConfiguration struct {
	ConfigFileUsed  string
	EmbeddedApplied bool
}

// NewConfigurationLoader creates a loader that looks for configurationName in searchPaths and reads
// environment variables named environmentPrefix_SECTION_KEY.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName: configurationName,
		configurationType: configurationType,
		environmentPrefix: environmentPrefix,
		searchPaths:       slices.Clone(searchPaths),
	}
}

// SetEmbeddedConfiguration registers configuration content compiled into the binary. An empty type
// falls back to the loader's configuration type.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(configurationData []byte, configurationType string) {
	if loader == nil {
		return
	}
	loader.embeddedConfigurationType = strings.TrimSpace(configurationType)
	if len(configurationData) == 0 {
		loader.embeddedConfiguration = nil
		return
	}
	loader.embeddedConfiguration = bytes.Clone(configurationData)
}

// LoadConfiguration decodes the layered configuration into targetConfiguration. An explicit
// configurationFilePath must exist; otherwise the search paths are probed and a missing file is not an error.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, targetConfiguration any) (LoadedConfiguration, error) {
	configurationStore := loader.newConfigurationStore(defaultValues)

	embeddedApplied, embeddedError := loader.mergeEmbeddedConfiguration(configurationStore)
	if embeddedError != nil {
		return LoadedConfiguration{}, embeddedError
	}

	if fileError := loader.mergeConfigurationFile(configurationStore, configurationFilePath); fileError != nil {
		return LoadedConfiguration{}, fileError
	}

	if decodeError := configurationStore.Unmarshal(targetConfiguration, configureDecoder); decodeError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationUnmarshalErrorTemplateConstant, decodeError)
	}

	return LoadedConfiguration{
		ConfigFileUsed:  configurationStore.ConfigFileUsed(),
		EmbeddedApplied: embeddedApplied,
	}, nil
}

func (loader *ConfigurationLoader) newConfigurationStore(defaultValues map[string]any) *viper.Viper {
	configurationStore := viper.New()
	configurationStore.SetConfigName(loader.configurationName)
	configurationStore.SetConfigType(loader.configurationType)
	for _, searchPath := range loader.searchPaths {
		configurationStore.AddConfigPath(searchPath)
	}

	configurationStore.SetEnvPrefix(loader.environmentPrefix)
	configurationStore.SetEnvKeyReplacer(strings.NewReplacer(configurationKeyDelimiterConstant, environmentKeyDelimiterConstant))
	configurationStore.AutomaticEnv()

	// AutomaticEnv only consults keys viper already knows about.
	for defaultKey, defaultValue := range defaultValues {
		configurationStore.SetDefault(defaultKey, defaultValue)
	}
	return configurationStore
}

func (loader *ConfigurationLoader) mergeEmbeddedConfiguration(configurationStore *viper.Viper) (bool, error) {
	if len(loader.embeddedConfiguration) == 0 {
		return false, nil
	}

	embeddedType := loader.embeddedConfigurationType
	if len(embeddedType) == 0 {
		embeddedType = loader.configurationType
	}

	configurationStore.SetConfigType(embeddedType)
	defer configurationStore.SetConfigType(loader.configurationType)

	if mergeError := configurationStore.MergeConfig(bytes.NewReader(loader.embeddedConfiguration)); mergeError != nil {
		return false, fmt.Errorf(embeddedConfigurationMergeErrorTemplateConstant, mergeError)
	}
	return true, nil
}

func (loader *ConfigurationLoader) mergeConfigurationFile(configurationStore *viper.Viper, configurationFilePath string) error {
	if len(configurationFilePath) > 0 {
		configurationStore.SetConfigFile(configurationFilePath)
	}

	mergeError := configurationStore.MergeInConfig()
	if mergeError == nil {
		return nil
	}

	var notFoundError viper.ConfigFileNotFoundError
	if errors.As(mergeError, &notFoundError) {
		return nil
	}
	return fmt.Errorf(configurationReadErrorTemplateConstant, mergeError)
}

// configureDecoder lets comma separated environment values populate list fields.
func configureDecoder(decoderConfiguration *mapstructure.DecoderConfig) {
	decoderConfiguration.DecodeHook = mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToSliceHookFunc(listValueSeparatorConstant),
		mapstructure.StringToTimeDurationHookFunc(),
	)
}
