package pretty

import (
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/term"

	"github.com/compository/app/common"
)

const spinnerDelay = 500 * time.Millisecond

// ProgressIndicator shows that a conductor operation is still running.
type ProgressIndicator interface {
	Start()
	Update(message string)
	Stop(success bool)
	IsRunning() bool
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stderr.Fd()))
	if err != nil || width <= 0 {
		return 80
	}
	return width
}

// Spinner animates on stderr, so stdout stays clean for piping.
// It only appears when the operation outlives spinnerDelay.
type Spinner struct {
	sync.Mutex
	message string
	frames  []string
	delay   time.Duration
	running bool
	shown   bool
	stop    chan struct{}
	done    chan struct{}
}

func NewSpinner(message string) ProgressIndicator {
	frames := []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
	if !Iconic {
		frames = []string{"|", "/", "-", "\\"}
	}
	return &Spinner{
		message: message,
		frames:  frames,
		delay:   spinnerDelay,
	}
}

func (it *Spinner) Start() {
	it.Lock()
	defer it.Unlock()
	if it.running {
		return
	}
	it.running = true
	common.Debug("Started: %s", it.message)
	if !Interactive {
		return
	}
	it.stop = make(chan struct{})
	it.done = make(chan struct{})
	go it.animate(it.stop, it.done)
}

func (it *Spinner) animate(stop, done chan struct{}) {
	defer close(done)
	select {
	case <-time.After(it.delay):
	case <-stop:
		return
	}
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for frame := 0; ; frame++ {
		it.Lock()
		it.shown = true
		line := fmt.Sprintf("%s%s%s %s", Cyan, it.frames[frame%len(it.frames)], Reset, it.message)
		it.Unlock()
		fmt.Fprintf(os.Stderr, "\r%-*s", terminalWidth()-1, line)
		select {
		case <-ticker.C:
		case <-stop:
			return
		}
	}
}

func (it *Spinner) Update(message string) {
	it.Lock()
	defer it.Unlock()
	it.message = message
	common.Trace("Progress: %s", message)
}

func (it *Spinner) Stop(success bool) {
	it.Lock()
	if !it.running {
		it.Unlock()
		return
	}
	it.running = false
	stop, done := it.stop, it.done
	it.Unlock()

	if stop != nil {
		close(stop)
		<-done
	}
	it.Lock()
	defer it.Unlock()
	if it.shown {
		fmt.Fprintf(os.Stderr, "\r%-*s\r", terminalWidth()-1, "")
	}
	if success {
		common.Debug("Done: %s", it.message)
	} else {
		common.Debug("Failed: %s", it.message)
	}
}

func (it *Spinner) IsRunning() bool {
	it.Lock()
	defer it.Unlock()
	return it.running
}
