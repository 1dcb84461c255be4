package config

import (
	"github.com/go-errors/errors"
	"github.com/redhatinsights/es-index-lifecycle/controllers/elasticsearch"
	"github.com/redhatinsights/es-index-lifecycle/controllers/index"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"reflect"
	"strings"
)

const EnvPrefix = "ESLM"

type Config struct {
	Parameters    Parameters
	ParametersMap map[string]interface{}
}

//NewOptions returns a viper instance reading ESLM_ prefixed env variables and, when configFile is set,
//that file. Values bound later through BindFlags take priority over both.
func NewOptions(configFile string) (*viper.Viper, error) {
	options := viper.New()
	options.SetEnvPrefix(EnvPrefix)
	options.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	options.AutomaticEnv()

	if configFile != "" {
		options.SetConfigFile(configFile)
		if err := options.ReadInConfig(); err != nil {
			return nil, errors.WrapPrefix(err, "unable to read config file "+configFile, 0)
		}
	}

	return options, nil
}

//RegisterFlags adds a flag for every parameter that declares one
func RegisterFlags(flags *pflag.FlagSet) {
	for _, param := range parameterList(NewConfiguration()) {
		if param.Flag == "" || flags.Lookup(param.Flag) != nil {
			continue
		}

		switch param.Type {
		case reflect.String:
			flags.String(param.Flag, param.DefaultValue.(string), param.Usage)
		case reflect.Int:
			flags.Int(param.Flag, param.DefaultValue.(int), param.Usage)
		case reflect.Bool:
			flags.Bool(param.Flag, param.DefaultValue.(bool), param.Usage)
		case reflect.Float64:
			flags.Float64(param.Flag, param.DefaultValue.(float64), param.Usage)
		}
	}
}

//BindFlags makes changed flags override env and file values
func BindFlags(options *viper.Viper, flags *pflag.FlagSet) error {
	for _, param := range parameterList(NewConfiguration()) {
		if param.Flag == "" {
			continue
		}
		flag := flags.Lookup(param.Flag)
		if flag == nil {
			continue
		}
		if err := options.BindPFlag(param.Key, flag); err != nil {
			return errors.Wrap(err, 0)
		}
	}
	return nil
}

func NewConfig(options *viper.Viper) (*Config, error) {
	config := Config{
		Parameters:    NewConfiguration(),
		ParametersMap: make(map[string]interface{}),
	}

	configReflection := reflect.ValueOf(&config.Parameters).Elem()
	for i := 0; i < configReflection.NumField(); i++ {
		param := configReflection.Field(i).Addr().Interface().(*Parameter)

		value, err := parameterValue(options, *param)
		if err != nil {
			return &config, err
		}
		err = param.SetValue(value)
		if err != nil {
			return &config, err
		}

		config.ParametersMap[configReflection.Type().Field(i).Name] = param.Value()
	}

	err := config.validate()
	if err != nil {
		return &config, err
	}

	return &config, nil
}

func parameterValue(options *viper.Viper, param Parameter) (interface{}, error) {
	options.SetDefault(param.Key, param.DefaultValue)

	switch param.Type {
	case reflect.String:
		return options.GetString(param.Key), nil
	case reflect.Int:
		return options.GetInt(param.Key), nil
	case reflect.Bool:
		return options.GetBool(param.Key), nil
	case reflect.Float64:
		return options.GetFloat64(param.Key), nil
	default:
		return nil, errors.Errorf("unsupported type %s for parameter %s", param.Type.String(), param.Key)
	}
}

func (config *Config) validate() error {
	params := &config.Parameters

	if params.DaysToKeep.Int() < 0 {
		return errors.Errorf("DaysToKeep must not be negative, got %d", params.DaysToKeep.Int())
	}
	if params.BulkBatchSize.Int() <= 0 {
		return errors.Errorf("BulkBatchSize must be positive, got %d", params.BulkBatchSize.Int())
	}
	if ratio := params.MaxErrorRatio.Float(); ratio < 0 || ratio > 1 {
		return errors.Errorf("MaxErrorRatio must be between 0 and 1, got %v", ratio)
	}

	if params.MergeTimeoutSeconds.Int() < MinMergeTimeoutSeconds {
		log.Warn("MergeTimeoutSeconds is below the minimum, using the minimum instead",
			"configured", params.MergeTimeoutSeconds.Int(), "minimum", MinMergeTimeoutSeconds)
		err := params.MergeTimeoutSeconds.SetValue(MinMergeTimeoutSeconds)
		if err != nil {
			return err
		}
		config.ParametersMap["MergeTimeoutSeconds"] = MinMergeTimeoutSeconds
	}

	return nil
}

func parameterList(parameters Parameters) []Parameter {
	configReflection := reflect.ValueOf(parameters)
	list := make([]Parameter, 0, configReflection.NumField())
	for i := 0; i < configReflection.NumField(); i++ {
		list = append(list, configReflection.Field(i).Interface().(Parameter))
	}
	return list
}

func (config *Config) ElasticSearchParameters() elasticsearch.Parameters {
	return elasticsearch.Parameters{
		Url:            config.Parameters.ElasticSearchURL.String(),
		Username:       config.Parameters.ElasticSearchUsername.String(),
		Password:       config.Parameters.ElasticSearchPassword.String(),
		Insecure:       config.Parameters.ElasticSearchInsecure.Bool(),
		RequestTimeout: config.Parameters.RequestTimeoutSeconds.Seconds(),
	}
}

func (config *Config) IndexOptions() index.Options {
	return index.Options{
		MergeTimeout: config.Parameters.MergeTimeoutSeconds.Seconds(),
		BulkTimeout:  config.Parameters.BulkTimeoutSeconds.Seconds(),
	}
}

func (config *Config) CleanupOptions() index.CleanupOptions {
	return index.CleanupOptions{
		DaysToKeep:       index.Days(config.Parameters.DaysToKeep.Int()),
		MinIndexesToKeep: config.Parameters.MinIndexesToKeep.Int(),
	}
}
