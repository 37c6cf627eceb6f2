package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long:  "Prints the configuration after defaults, the config file and global flags, as YAML.",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func runConfig(c *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	source := configPath
	if source == "" {
		source = "built-in defaults / search paths"
	}
	fmt.Fprintf(c.OutOrStdout(), "%s# elasticswap config (%s)%s\n", colorGray, source, colorReset)
	_, err = c.OutOrStdout().Write(data)
	return err
}
