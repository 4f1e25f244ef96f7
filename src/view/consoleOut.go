package view

import (
	"fmt"
	"io"
	"time"

	"bitlife/src/universe"
)

//ConsoleOut prints the progress of a non-interactive run
type ConsoleOut struct {
	r         *universe.Runner
	w         io.Writer
	startTime time.Time
	every     int
}

//NewConsoleOut creates the viewer writing to w, progress is reported every `every` iterations
func NewConsoleOut(w io.Writer, every int) *ConsoleOut {
	if every <= 0 {
		every = 10
	}
	return &ConsoleOut{w: w, every: every}
}

func (c *ConsoleOut) Refresh() {
	st := c.r.Status()
	switch st.RunningMode {
	case universe.RunningStateFinished:
		totalTime := time.Since(c.startTime).Round(time.Millisecond)
		fmt.Fprintln(c.w, "\nFinished:")
		fmt.Fprintf(c.w, "  Last iteration: %v\n", st.IterationNum)
		fmt.Fprintf(c.w, "  Live cells: %v\n", st.LiveCells)
		fmt.Fprintf(c.w, "  Total time: %v\n", totalTime)
	case universe.RunningStateRun:
		if st.IterationNum%c.every == 0 {
			fmt.Fprintf(c.w, "  Iterations done: %v, live cells: %v\n", st.IterationNum, st.LiveCells)
		}
	}
}

func (c *ConsoleOut) Register(r *universe.Runner) {
	c.r = r
	o := r.Options()
	fmt.Fprintln(c.w, "Running configuration:")
	fmt.Fprintf(c.w, "  Dimension: %v x %v\n", o.Width, o.Height)
	fmt.Fprintf(c.w, "  Interval: %v\n", o.Interval)
	fmt.Fprintf(c.w, "  Max iterations: %v steps\n", o.MaxSteps)
	fmt.Fprintf(c.w, "  Seed: %v\n", o.Seed)
}

func (c *ConsoleOut) Start() {
	c.startTime = time.Now()
	fmt.Fprintln(c.w, "\nSimulation started...")
}
