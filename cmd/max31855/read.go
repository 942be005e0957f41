package main

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/thermocouple/cmd/max31855/console"
	"github.com/mklimuk/thermocouple/max31855"
	"github.com/mklimuk/thermocouple/snsctx"
)

type reading struct {
	Thermocouple float64 `yaml:"thermocouple"`
	Internal     float64 `yaml:"internal"`
	Fault        string  `yaml:"fault,omitempty"`
}

var formatFlag = &cli.StringFlag{
	Name:    "format",
	Aliases: []string{"f"},
	Usage:   "output format: text or yaml",
	Value:   "text",
}

var readCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Usage:   "read thermocouple and internal temperature",
	Flags: append([]cli.Flag{
		formatFlag,
		&cli.IntFlag{Name: "samples", Aliases: []string{"n"}, Usage: "number of samples to take the median of", Value: 3},
		&cli.DurationFlag{Name: "interval", Usage: "delay between samples", Value: 100 * time.Millisecond},
	}, deviceFlags...),
	Action: func(c *cli.Context) error {
		ctx := snsctx.SetVerbose(context.Background(), c.Bool("verbose"))
		dev, release, err := openThermometer(ctx, c)
		if err != nil {
			return console.Exit(1, "device initialization error: %s", console.Red(err))
		}
		defer release()
		r, err := sampleMedian(ctx, dev, c.Int("samples"), c.Duration("interval"))
		if err != nil {
			return console.Exit(1, "error reading temperature: %s", console.Red(err))
		}
		return printReading(c.String("format"), r)
	},
}

// sampleMedian takes the median of n readings. The chip returns a bad value every now and
// then depending on noise, so it retries until it has n good readings or n failures.
func sampleMedian(ctx context.Context, dev max31855.Thermometer, n int, interval time.Duration) (reading, error) {
	if n < 1 {
		return reading{}, fmt.Errorf("invalid number of samples: %d", n)
	}
	temps := make([]float64, 0, n)
	internals := make([]float64, 0, n)
	var nErr int
	var lastErr error
	for len(temps) < n {
		temp, err := dev.ThermocoupleTemperature(ctx)
		var internal float64
		if err == nil {
			internal, err = dev.InternalTemperature(ctx)
		}
		if err == nil && max31855.IsFault(temp) {
			err = fmt.Errorf("%w: %s", max31855.ErrFault, faultOf(temp))
		}
		if err != nil {
			nErr++
			lastErr = err
			if nErr == n {
				return reading{Thermocouple: temp, Internal: internal, Fault: faultOf(temp)}, lastErr
			}
		} else {
			temps = append(temps, temp)
			internals = append(internals, internal)
		}
		if len(temps) < n {
			time.Sleep(interval)
		}
	}
	sort.Float64s(temps)
	sort.Float64s(internals)
	return reading{Thermocouple: temps[n/2], Internal: internals[n/2]}, nil
}

func faultOf(v float64) string {
	for _, f := range []max31855.Fault{max31855.FaultOpenCircuit, max31855.FaultShortGND, max31855.FaultShortVCC, max31855.FaultUnknown} {
		if v == f.Sentinel() {
			return f.String()
		}
	}
	if max31855.IsFault(v) {
		return "out of range"
	}
	return ""
}

func printReading(format string, r reading) error {
	switch format {
	case "yaml":
		enc := yaml.NewEncoder(console.Writer())
		if err := enc.Encode(r); err != nil {
			return console.Exit(1, "encoding error: %s", console.Red(err))
		}
		return enc.Close()
	case "text":
		if r.Fault != "" {
			console.PInfof(console.PictoStop, "thermocouple fault: %s", console.Red(r.Fault))
		} else {
			console.PInfof(console.PictoProbe, "thermocouple: %s°C", console.White(r.Thermocouple))
		}
		console.PInfof(console.PictoThermometer, "internal: %s°C", console.White(r.Internal))
		return nil
	default:
		return console.Exit(1, "unknown format %q", format)
	}
}
