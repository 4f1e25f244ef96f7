package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"bitlife/src/stream"
	"bitlife/src/universe"
	"bitlife/src/view"

	"github.com/integrii/flaggy"
)

var (
	testSample = [][]int{
		{1, 1}, {1, 2},
		{2, 1}, {2, 2},
		{3, 3},
		{4, 2},
		{4, 3},
		{5, 3},
	}
)

type EnvOptions struct {
	interactive bool
	randomData  bool
	listen      string
}

func main() {
	eo, uo := initOptions(os.Args[1:])
	logger := log.New(os.Stderr, "[BITLIFE] ", log.LstdFlags)

	var stateCh chan universe.Status

	if !eo.interactive {
		stateCh = make(chan universe.Status, 10) //the buffered channel to getting the runner status
	}

	r, err := universe.NewRunner(uo, stateCh)
	if err != nil {
		logger.Fatalf("create universe: %v", err)
	}

	r.AddTemplate(
		universe.Template{
			Name:        "testSample1",
			Descr:       "the test sample with 3 stable patterns",
			Coordinates: testSample,
		})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if eo.listen != "" {
		startStream(ctx, r, eo.listen, logger)
	}

	if eo.randomData {
		r.SettleWithRandomData()
		if stateCh != nil {
			<-stateCh
		}
	} else {
		r.SettleTemplate("testSample1")
	}

	if eo.interactive {
		v := view.NewViewTerminal()
		r.RegisterViewer(v)
		v.Start()
		r.Close()
		return
	}

	c := view.NewConsoleOut(os.Stdout, 10)
	r.RegisterViewer(c)
	c.Start()
	r.Run()
	for st := range stateCh {
		if st.RunningMode == universe.RunningStateFinished {
			break
		}
	}
	r.Close()
}

//startStream serves the frames over WebSocket on addr
func startStream(ctx context.Context, r *universe.Runner, addr string, logger *log.Logger) {
	hub := stream.NewHub(logger)
	r.RegisterViewer(hub)
	go hub.Run(ctx)

	mux := http.NewServeMux()
	mux.Handle("/ws", hub)
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()
	go func() {
		logger.Printf("streaming frames on ws://%s/ws", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("stream server: %v", err)
		}
	}()
	hub.Start()
}

func initOptions(args []string) (eo *EnvOptions, uo *universe.Options) {

	o := universe.DefaultOptions
	uo = &o
	uo.Seed = time.Now().UnixNano()
	eo = &EnvOptions{}

	p := flaggy.NewParser("bitlife")
	p.Description = "Conway's Game of Life on a toroidal grid"
	p.ShowHelpOnUnexpected = true
	p.UInt32(&uo.Width, "x", "width", "Width of a simulation field")
	p.UInt32(&uo.Height, "y", "height", "Height of a simulation field")
	p.Duration(&uo.Interval, "i", "interval", "Simulation speed (interval between the steps) in format the number with 'ms' suffix, for example 150ms")
	p.Int(&uo.MaxSteps, "s", "maxSteps", "Limit the simulation to maxSteps, 0 for no limit")
	p.Int64(&uo.Seed, "", "seed", "Seed for the random data")
	p.Bool(&eo.interactive, "n", "interactive", "Start interactive mode")
	p.Bool(&eo.randomData, "r", "random", "Settle with random data")
	p.String(&eo.listen, "l", "listen", "Stream frames over WebSocket on this address, for example :8080")

	if err := p.ParseArgs(args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		p.ShowHelpAndExit(err.Error())
	}

	return
}
