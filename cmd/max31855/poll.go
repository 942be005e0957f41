package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/thermocouple/cmd/max31855/console"
	"github.com/mklimuk/thermocouple/max31855"
	"github.com/mklimuk/thermocouple/snsctx"
)

var pollCmd = cli.Command{
	Name:  "poll",
	Usage: "poll the thermocouple temperature on a timer",
	Flags: append([]cli.Flag{
		&cli.DurationFlag{Name: "interval", Aliases: []string{"i"}, Usage: "polling interval", Value: time.Second},
		&cli.IntFlag{Name: "count", Aliases: []string{"c"}, Usage: "number of polls, 0 polls until interrupted"},
	}, deviceFlags...),
	Action: func(c *cli.Context) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		ctx = snsctx.SetVerbose(ctx, c.Bool("verbose"))
		dev, release, err := openThermometer(ctx, c)
		if err != nil {
			return console.Exit(1, "device initialization error: %s", console.Red(err))
		}
		defer release()
		err = poll(ctx, max31855.NewSensor(dev), c.Duration("interval"), c.Int("count"))
		if err != nil {
			return console.Exit(1, "polling error: %s", console.Red(err))
		}
		return nil
	},
}

// poll fetches count readings, one per interval. Failed fetches are reported and polling goes on.
func poll(ctx context.Context, sensor *max31855.Sensor, interval time.Duration, count int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for n := 0; count == 0 || n < count; n++ {
		data, err := sensor.Fetch(ctx)
		if err != nil {
			console.Errorf("%s", err)
		} else {
			celsius := float64(data.Temp) / 100
			fault := max31855.IsFault(celsius)
			console.PInfof(console.PictoClock, "%s %s°C %s",
				data.Timestamp.Format(time.DateTime), console.Temperature(celsius, fault), console.Yellow(faultOf(celsius)))
		}
		if count != 0 && n == count-1 {
			break
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
	return nil
}
