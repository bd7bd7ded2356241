package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"time"

	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/ripplekit/ripple"
	"github.com/urfave/cli/v3"
)

const (
	cpuProfileKey = "cpuprofile"
	iterationsKey = "iterations"
)

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Measure write-to-settle latency across graph shapes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  cpuProfileKey,
				Usage: "Write a CPU profile to the given file",
			},
			&cli.UintFlag{
				Name:  iterationsKey,
				Usage: "Timed writes per graph shape",
				Value: 100,
			},
		},
		Action: run,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

var (
	widths = []int{1, 10, 100, 1_000}
	depths = []int{1, 10, 100, 1_000}
)

func run(ctx context.Context, cmd *cli.Command) error {
	if path := cmd.String(cpuProfileKey); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			return err
		}
		defer pprof.StopCPUProfile()
	}
	iters := int(cmd.Uint(iterationsKey))

	log.Print("warming up")

	tbl := table.NewWriter()
	tbl.SetTitle("Ripple")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, w := range widths {
		for _, d := range depths {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			eng := ripple.NewEngine(func(from ripple.Observer, err error) {
				log.Panicf("%s: %v", from.Name(), err)
			})
			src := ripple.Observable(eng, 1)
			for i := 0; i < w; i++ {
				last := ripple.Computed(eng, func() (int, error) {
					return src.Value() + 1, nil
				})
				for j := 1; j < d; j++ {
					prev := last
					last = ripple.Computed(eng, func() (int, error) {
						v, err := prev.Value()
						return v + 1, err
					})
				}
				leaf := last
				ripple.Autorun(eng, func() error {
					_, err := leaf.Value()
					return err
				})
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				src.SetValue(src.Value() + 1)
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("propagate: %d * %d", w, d),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	tbl.Render()
	return nil
}
