package cmd

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"os"

	"github.com/go-errors/errors"
	"github.com/redhatinsights/es-index-lifecycle/controllers/config"
	"github.com/redhatinsights/es-index-lifecycle/controllers/elasticsearch"
	"github.com/redhatinsights/es-index-lifecycle/controllers/index"
	logger "github.com/redhatinsights/es-index-lifecycle/controllers/log"
	"github.com/spf13/cobra"
)

var log = logger.NewLogger("cmd")

//app is built once per command from the resolved configuration
type app struct {
	config  *config.Config
	es      *elasticsearch.ElasticSearch
	manager *index.Manager
}

func NewRootCmd() *cobra.Command {
	var configFile string
	a := &app{}

	cmd := &cobra.Command{
		Use:   "es-index-lifecycle",
		Short: "Manage timestamped indices, their alias and their retention",
		Long: `es-index-lifecycle creates timestamped indices, points an alias at exactly one of them,
bulk loads documents and deletes indices older than the retention window.

Settings are read from flags, then ESLM_ prefixed environment variables, then the
config file given with --config.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd, configFile)
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "path to a yaml, json or toml config file")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		newCreateCmd(a),
		newDeleteCmd(a),
		newOptimizeCmd(a),
		newAliasCmd(a),
		newOlderThanCmd(a),
		newCleanupCmd(a),
		newIngestCmd(a),
		newRefreshCmd(a),
		newServeCmd(a),
	)

	return cmd
}

func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

func (a *app) load(cmd *cobra.Command, configFile string) error {
	options, err := config.NewOptions(configFile)
	if err != nil {
		return err
	}
	err = config.BindFlags(options, cmd.Flags())
	if err != nil {
		return err
	}

	a.config, err = config.NewConfig(options)
	if err != nil {
		return err
	}

	//read by the logger when it is first used
	if logFile := a.config.Parameters.LogFile.String(); logFile != "" {
		if err = os.Setenv("LOG_FILE", logFile); err != nil {
			return errors.Wrap(err, 0)
		}
	}

	a.es, err = elasticsearch.NewElasticSearch(a.config.ElasticSearchParameters())
	if err != nil {
		return err
	}
	a.manager = index.NewManager(a.es, a.config.IndexOptions())

	log.Debug("Loaded configuration", "url", a.config.Parameters.ElasticSearchURL.String(),
		"prefix", a.config.Parameters.IndexPrefix.String())
	return nil
}

func (a *app) prefix() (string, error) {
	prefix := a.config.Parameters.IndexPrefix.String()
	if prefix == "" {
		return "", errors.New("an index prefix is required, set --prefix or ESLM_INDEXPREFIX")
	}
	return prefix, nil
}

//readJSONFile parses a mapping or settings file, an empty path yields nil
func readJSONFile(path string) (map[string]interface{}, error) {
	if path == "" {
		return nil, nil
	}

	content, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	var body map[string]interface{}
	err = json.Unmarshal(content, &body)
	if err != nil {
		return nil, errors.WrapPrefix(err, "invalid json in "+path, 0)
	}
	return body, nil
}

func printJSON(cmd *cobra.Command, value interface{}) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(value)
}
