package universe

import "time"

//Options represents the Runner's configurable options
type Options struct {
	Width    uint32
	Height   uint32
	Interval time.Duration //pause between the steps in Run mode
	MaxSteps int           //0 means no limit
	Seed     int64         //seed for SettleWithRandomData
}

//Status represents the status of the Runner at concrete moment
type Status struct {
	IterationNum  int
	RunningMode   RunningState
	LiveCells     int
	IterationTime time.Duration
}

//Viewer is the interface to any Viewer - the object who can display simulation data or control the runner
type Viewer interface {
	Refresh()
	Register(r *Runner)
	Start()
}

//Template represent the seeding template which can used to settle the universe with predefined data
type Template struct {
	Name        string  //template name
	Descr       string  //template descr
	Coordinates [][]int //array of [x,y] coordinates
}

//Frame is a copy of the universe state handed to viewers
type Frame struct {
	Iteration int
	Width     uint32
	Height    uint32
	Cells     []uint64 //packed, row-major, LSB-first
}

//Alive reports the state of the cell at row, column
func (f Frame) Alive(row uint32, column uint32) bool {
	if row >= f.Height || column >= f.Width {
		return false
	}
	i := uint(row)*uint(f.Width) + uint(column)
	return f.Cells[i/64]&(1<<(i%64)) != 0
}

//The runner status at the concrete moment
type RunningState int

//default options
const (
	DefSimulationInterval = time.Millisecond * 100
	DefMaxSteps           = 1000
)

const (
	RunningStateManual   RunningState = 0x0
	RunningStateStep     RunningState = 0x1
	RunningStateRun      RunningState = 0x2
	RunningStateFinished RunningState = 0x3
)

func (s RunningState) String() string {
	switch s {
	case RunningStateManual:
		return "manual"
	case RunningStateStep:
		return "step"
	case RunningStateRun:
		return "run"
	case RunningStateFinished:
		return "finished"
	}
	return "unknown"
}

var DefaultOptions = Options{
	Width:    DefWidth,
	Height:   DefHeight,
	Interval: DefSimulationInterval,
	MaxSteps: DefMaxSteps,
}
