package universe

import (
	"errors"
	"sync"
	"time"
)

//errors returned by Resize
var (
	ErrRunning = errors.New("universe: the simulation is running")
	ErrClosed  = errors.New("universe: the runner is closed")
)

//Runner is the host loop around a Universe
//every mutation goes through the universe lock, commands are executed one by one on the main loop goroutine
type Runner struct {
	src   BoolSource
	state struct {
		Status
		options Options
		views   []Viewer
		sync.Mutex
	}
	universe struct {
		*Universe
		sync.Mutex
	}
	templates struct {
		m map[string]Template
		sync.Mutex
	}
	stateCh   chan Status
	controlCh chan func()
	closeCh   chan struct{}
	closeOnce sync.Once
}

//NewRunner creates the Runner with an empty universe and starts its main loop
//stateCh receives the Status on every running state switch, it may be nil;
//a non-nil stateCh must be drained by the caller
func NewRunner(o *Options, stateCh chan Status) (*Runner, error) {
	if o == nil {
		o = &DefaultOptions
	}
	u, err := NewWithSize(o.Width, o.Height, nil)
	if err != nil {
		return nil, err
	}
	r := &Runner{
		src:       NewRNG(o.Seed),
		stateCh:   stateCh,
		controlCh: make(chan func(), 1),
		closeCh:   make(chan struct{}),
	}
	r.state.options = *o
	r.universe.Universe = u
	r.templates.m = map[string]Template{}
	go r.mainLoop()
	return r, nil
}

//AddTemplate adds the seeding template to the internal storage
//the universe can be populated with this template by call SettleTemplate
func (r *Runner) AddTemplate(tmpl Template) {
	r.templates.Lock()
	r.templates.m[tmpl.Name] = tmpl
	r.templates.Unlock()
}

//Settle settles the universe with data
//vc - array of x,y coordinates
func (r *Runner) Settle(vc [][]int) {
	r.universe.Lock()
	r.settle(vc)
	live := r.universe.LiveCells()
	r.universe.Unlock()
	r.setLiveCells(live)
	r.refreshView()
}

//SettleTemplate populates the universe with the seeding template, reports whether the template exists
func (r *Runner) SettleTemplate(name string) bool {
	r.templates.Lock()
	tmpl, ok := r.templates.m[name]
	r.templates.Unlock()
	if !ok {
		return false
	}
	r.Settle(tmpl.Coordinates)
	return true
}

//SettleWithRandomData replaces every cell with random data, returns immediately
//ignored while the simulation is running
func (r *Runner) SettleWithRandomData() {
	r.post(func() {
		if r.runningMode() == RunningStateRun {
			return
		}
		r.reset(func(u *Universe) { u.Seed(r.src) })
	})
}

//InverseCell inverses the cell state at point x, y
func (r *Runner) InverseCell(x int, y int) {
	r.universe.Lock()
	if x < 0 || y < 0 || x >= int(r.universe.Width()) || y >= int(r.universe.Height()) {
		r.universe.Unlock()
		return
	}
	r.universe.Toggle(uint32(y), uint32(x))
	live := r.universe.LiveCells()
	r.universe.Unlock()
	r.setLiveCells(live)
	r.refreshView()
}

//Resize changes the universe dimensions, all cells become dead and the counters are reset
//the resize is executed on the main loop and refused with ErrRunning while the simulation is running;
//it waits for the Status sent to a non-nil stateCh to be accepted
func (r *Runner) Resize(width uint32, height uint32) error {
	if err := checkSize(width, height); err != nil {
		return err
	}
	errCh := make(chan error, 1)
	if !r.post(func() {
		if r.runningMode() == RunningStateRun {
			errCh <- ErrRunning
			return
		}
		r.state.Lock()
		r.state.options.Width = width
		r.state.options.Height = height
		r.state.Unlock()
		r.reset(func(u *Universe) {
			//checked above, cannot fail
			_ = u.Resize(width, height)
		})
		errCh <- nil
	}) {
		return ErrClosed
	}
	select {
	case err := <-errCh:
		return err
	case <-r.closeCh:
		return ErrClosed
	}
}

//RegisterViewer registers the viewer - the runner will call the viewer when the state is changed
func (r *Runner) RegisterViewer(v Viewer) {
	r.state.Lock()
	r.state.views = append(r.state.views, v)
	r.state.Unlock()
	v.Register(r)
}

//StateCh returns the channel with the runner's status updates
func (r *Runner) StateCh() chan Status {
	return r.stateCh
}

//Status returns current runner status represented by Status struct
func (r *Runner) Status() Status {
	r.state.Lock()
	defer r.state.Unlock()
	return r.state.Status
}

//Options returns current runner configuration represented by Options struct
func (r *Runner) Options() Options {
	r.state.Lock()
	defer r.state.Unlock()
	return r.state.options
}

//Frame returns a copy of the current universe state
func (r *Runner) Frame() Frame {
	iter := r.Status().IterationNum
	r.universe.Lock()
	defer r.universe.Unlock()
	return Frame{
		Iteration: iter,
		Width:     r.universe.Width(),
		Height:    r.universe.Height(),
		Cells:     r.universe.Snapshot(),
	}
}

//Render returns the textual dump of the current universe
func (r *Runner) Render() string {
	r.universe.Lock()
	defer r.universe.Unlock()
	return r.universe.Render()
}

//Run starts the simulation, returns immediately
func (r *Runner) Run() {
	r.post(r.run)
}

//Stop stops the simulation, returns immediately
//the Status struct will be written the stateCh on finish
func (r *Runner) Stop() {
	r.post(r.stop)
}

//Step do one simulation step, returns immediately
//the Status struct will be written to the stateCh on start and on finish
func (r *Runner) Step() {
	r.post(r.step)
}

//Clear clears the universe (kill all cells and reset all counters), returns immediately
//the Status struct will be written to the stateCh on finish
func (r *Runner) Clear() {
	r.post(func() {
		r.reset(func(u *Universe) { u.Clear() })
	})
}

//Close stops the main loop, returns immediately; the stateCh is left open
func (r *Runner) Close() {
	r.closeOnce.Do(func() { close(r.closeCh) })
}

//post queues the command for the main loop, reports false if the runner is closed
func (r *Runner) post(cmd func()) bool {
	select {
	case r.controlCh <- cmd:
		return true
	case <-r.closeCh:
		return false
	}
}

//mainLoop - the main cycle, should start as a goroutine
//waits for command and executes
func (r *Runner) mainLoop() {
	for {
		select {
		case cmd := <-r.controlCh:
			cmd()
		case <-r.closeCh:
			return
		}
	}
}

//settle places the alive cells at the x,y positions, positions outside the universe are skipped
func (r *Runner) settle(vc [][]int) {
	w, h := int(r.universe.Width()), int(r.universe.Height())
	for _, v := range vc {
		if len(v) < 2 || v[0] < 0 || v[1] < 0 || v[0] >= w || v[1] >= h {
			continue
		}
		r.universe.Set(uint32(v[1]), uint32(v[0]), true)
	}
}

func (r *Runner) runningMode() RunningState {
	r.state.Lock()
	defer r.state.Unlock()
	return r.state.RunningMode
}

func (r *Runner) setLiveCells(n int) {
	r.state.Lock()
	r.state.LiveCells = n
	r.state.Unlock()
}

//switchRunningState switch the state of the runner to RunningState
//also writes the new state to the stateCh to signal upper control software
func (r *Runner) switchRunningState(to RunningState) {
	r.notify(r.setRunningState(to))
}

func (r *Runner) setRunningState(to RunningState) Status {
	r.state.Lock()
	defer r.state.Unlock()
	r.state.RunningMode = to
	return r.state.Status
}

//notify writes the status to the stateCh
func (r *Runner) notify(st Status) {
	if r.stateCh != nil {
		select {
		case r.stateCh <- st:
		case <-r.closeCh:
		}
	}
}

//run starts the simulation loop
//simulation will stop on Stop() calling or when the boundary conditions are reached
func (r *Runner) run() {
	if r.runningMode() == RunningStateRun {
		return
	}
	r.switchRunningState(RunningStateRun)
	go func() {
		done := make(chan struct{}, 1)
		for r.runningMode() == RunningStateRun {
			//a step queued before Stop is dropped
			if !r.post(func() {
				if r.runningMode() == RunningStateRun {
					r.step()
				}
				done <- struct{}{}
			}) {
				return
			}
			select {
			case <-done:
			case <-r.closeCh:
				return
			}
			if interval := r.Options().Interval; interval > 0 {
				select {
				case <-time.After(interval):
				case <-r.closeCh:
					return
				}
			}
		}
	}()
}

//stop stops the running cycle
func (r *Runner) stop() {
	if r.runningMode() == RunningStateRun {
		r.switchRunningState(RunningStateManual)
	}
}

//step does the new one state calculation for entire universe
//the runner is finished when the step limit is reached, all cells are dead or nothing changed
func (r *Runner) step() {
	rm := r.runningMode()
	if rm == RunningStateStep {
		rm = RunningStateManual
	}
	r.switchRunningState(RunningStateStep)

	start := time.Now()
	r.universe.Lock()
	changed := r.universe.tick()
	live := r.universe.LiveCells()
	r.universe.Unlock()

	r.state.Lock()
	r.state.IterationNum++
	r.state.LiveCells = live
	r.state.IterationTime = time.Since(start)
	iter := r.state.IterationNum
	maxIter := r.state.options.MaxSteps
	r.state.Unlock()

	if (maxIter != 0 && iter >= maxIter) || live == 0 || !changed {
		rm = RunningStateFinished
	}
	//viewers are refreshed before the status goes out, so a receiver of the status sees them up to date
	st := r.setRunningState(rm)
	r.refreshView()
	r.notify(st)
}

//reset applies fn to the universe and resets all counters
func (r *Runner) reset(fn func(u *Universe)) {
	r.universe.Lock()
	fn(r.universe.Universe)
	live := r.universe.LiveCells()
	r.universe.Unlock()

	r.state.Lock()
	r.state.IterationNum = 0
	r.state.LiveCells = live
	r.state.IterationTime = 0
	r.state.Unlock()
	st := r.setRunningState(RunningStateManual)
	r.refreshView()
	r.notify(st)
}

//refreshView calls Refresh event for all registered views
func (r *Runner) refreshView() {
	r.state.Lock()
	views := r.state.views
	r.state.Unlock()
	for _, v := range views {
		v.Refresh()
	}
}
