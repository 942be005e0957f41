package main

import (
	"context"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/mklimuk/thermocouple/cmd/max31855/console"
	"github.com/mklimuk/thermocouple/max31855"
	"github.com/mklimuk/thermocouple/snsctx"
)

var infoCmd = cli.Command{
	Name:  "info",
	Usage: "print static sensor information",
	Action: func(c *cli.Context) error {
		enc := yaml.NewEncoder(console.Writer())
		info := max31855.NewSensor(nil).Info()
		if err := enc.Encode(info); err != nil {
			return console.Exit(1, "encoding error: %s", console.Red(err))
		}
		return enc.Close()
	},
}

var selfTestCmd = cli.Command{
	Name:    "selftest",
	Aliases: []string{"internal"},
	Usage:   "read the internal cold-junction temperature",
	Flags:   deviceFlags,
	Action: func(c *cli.Context) error {
		ctx := snsctx.SetVerbose(context.Background(), c.Bool("verbose"))
		dev, release, err := openThermometer(ctx, c)
		if err != nil {
			return console.Exit(1, "device initialization error: %s", console.Red(err))
		}
		defer release()
		temp, err := max31855.NewSensor(dev).Control(ctx, max31855.ControlSelfTest)
		if err != nil {
			return console.Exit(1, "self test error: %s", console.Red(err))
		}
		console.PInfof(console.PictoThermometer, "internal: %s°C", console.White(temp))
		return nil
	},
}
