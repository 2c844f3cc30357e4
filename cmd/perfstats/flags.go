package main

import (
	"github.com/spf13/pflag"
	"github.com/timescale/statsets/internal/sampler"
)

const (
	samplerPrefix = "sampler."
	sharedFlag    = "shared"
)

// samplerFlags returns the sampler settings as flags named after their
// config keys.
func samplerFlags() *pflag.FlagSet {
	d := sampler.DefaultConfig()
	fs := pflag.NewFlagSet("sampler", pflag.ContinueOnError)
	fs.Int32(samplerPrefix+"pid", d.PID, "process to sample, this one if 0")
	fs.Duration(samplerPrefix+"interval", d.Interval, "time between readings")
	fs.Float64(samplerPrefix+"rate", d.Rate, "max readings per second, 0 for no limit")
	fs.Int(samplerPrefix+"burst", d.Burst, "readings allowed above the rate at once")
	fs.Int(samplerPrefix+"workers", d.Workers, "concurrent readers, more than 1 needs --shared")
	fs.Int64(samplerPrefix+"advance-every", d.AdvanceEvery, "advance hierarchies every N readings, 0 to never")
	fs.Int64(samplerPrefix+"report-every", d.ReportEvery, "print the tree every N readings, 0 to only print at exit")
	fs.Int64(samplerPrefix+"limit", d.Limit, "stop after N readings, 0 to run until interrupted")
	return fs
}
