package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/blagojts/viper"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/timescale/statsets/internal/logger"
	"github.com/timescale/statsets/internal/sampler"
	"github.com/timescale/statsets/pkg/config"
	"github.com/timescale/statsets/pkg/sets"
)

type fileConfig struct {
	Sampler sampler.Config `mapstructure:"sampler"`
}

func initSampleCMD() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Sample a process and print its statistics tree",
		RunE:  sample,
	}
	cmd.Flags().AddFlagSet(samplerFlags())
	cmd.Flags().Bool(sharedFlag, false, "build a shared tree that several workers may record into")
	return cmd
}

func sample(cmd *cobra.Command, _ []string) error {
	path, _ := cmd.Flags().GetString(configFlag)
	level, _ := cmd.Flags().GetString(logLevelFlag)
	log := logger.New(os.Stderr, level, "perfstats")

	v, err := config.Load(path)
	if err != nil {
		return err
	}
	if used := v.ConfigFileUsed(); used != "" {
		log.Infof("using config file %s", used)
	}
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return errors.Wrap(err, "could not bind flags")
	}

	layout, err := readLayout(v)
	if err != nil {
		return err
	}
	var fc fileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return errors.Wrap(err, "could not parse sampler config")
	}

	mode := sets.Exclusive
	if v.GetBool(sharedFlag) {
		mode = sets.Shared
	}
	tree, err := config.Build(layout, mode)
	if err != nil {
		return err
	}

	pid := fc.Sampler.PID
	if pid == 0 {
		pid = int32(os.Getpid())
	}
	probe, err := sampler.NewProcessProbe(pid)
	if err != nil {
		return err
	}
	s, err := sampler.New(fc.Sampler, tree, probe, os.Stdout, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigs)
	go func() {
		select {
		case sig := <-sigs:
			log.Infof("received %v, stopping", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return s.Run(ctx)
}

// readLayout returns the configured layout, or the example one when the
// config has none.
func readLayout(v *viper.Viper) (*config.Layout, error) {
	if v.Sub("layout") == nil {
		return config.Example(), nil
	}
	return config.Read(v)
}
