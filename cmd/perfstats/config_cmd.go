package main

import (
	"bytes"
	"fmt"

	"github.com/blagojts/viper"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/timescale/statsets/pkg/config"
)

const (
	outputFlag    = "output"
	writeConfigTo = "./config.yaml"
)

func initConfigCMD() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Generate example config yaml file and save it to " + writeConfigTo,
		RunE:  writeConfig,
	}
	cmd.Flags().String(outputFlag, writeConfigTo, "where to write the example config")
	return cmd
}

func writeConfig(cmd *cobra.Command, _ []string) error {
	out, _ := cmd.Flags().GetString(outputFlag)
	v, err := exampleViper()
	if err != nil {
		return err
	}
	if err := v.WriteConfigAs(out); err != nil {
		return errors.Wrapf(err, "could not write sample config to file %s", out)
	}
	fmt.Printf("Wrote example config to: %s\n", out)
	return nil
}

// exampleViper holds the example layout and the sampler flag defaults.
func exampleViper() (*viper.Viper, error) {
	b, err := config.ExampleYAML()
	if err != nil {
		return nil, err
	}
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewBuffer(b)); err != nil {
		return nil, errors.Wrap(err, "could not load example config in viper")
	}
	if err := v.BindPFlags(samplerFlags()); err != nil {
		return nil, errors.Wrap(err, "could not bind sampler flags in viper")
	}
	return v, nil
}
