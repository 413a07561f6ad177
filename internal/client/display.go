package client

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"sync"

	"golang.org/x/term"

	"github.com/target/jobstatus/internal/domain/model"
	apperrors "github.com/target/jobstatus/internal/errors"
)

const (
	ansiReset       = "\033[0m"
	ansiRed         = "\033[31m"
	ansiGreen       = "\033[32m"
	ansiWhite       = "\033[37m"
	ansiLightYellow = "\033[93m"
	ansiLightCyan   = "\033[96m"
)

// Attributes are the client settings printed by Display.Attributes.
type Attributes struct {
	JobID                  string `json:"job_id"`
	DelaySeconds           int    `json:"delay_seconds"`
	PollingIntervalSeconds int    `json:"polling_interval_seconds"`
	TimeoutSeconds         int    `json:"timeout_seconds"`
}

// Display renders poll progress for humans. Colors are used only when the
// writer is a terminal. It is safe for concurrent use.
type Display struct {
	mu    sync.Mutex
	out   io.Writer
	color bool
}

var _ Observer = (*Display)(nil)

// NewDisplay writes to out, coloring output when out is a terminal and
// noColor is false.
func NewDisplay(out io.Writer, noColor bool) *Display {
	return &Display{out: out, color: !noColor && isTerminal(out)}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Observe prints the status line followed by the elapsed time.
func (d *Display) Observe(o Observation) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Fprintf(d.out, "\n%s%s%s%s\n",
		d.paint(ansiWhite, "Status of "),
		d.paint(ansiLightCyan, o.JobID),
		d.paint(ansiWhite, " : "),
		d.paint(statusColor(o.Status), " "+o.Status.String()))
	fmt.Fprintf(d.out, "%s%s\n\n",
		d.paint(ansiWhite, "Elapsed time: "),
		d.paint(ansiLightCyan, formatSeconds(o.Elapsed.Seconds())+" seconds"))
}

// Attributes prints the effective client settings.
func (d *Display) Attributes(a Attributes) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Fprintf(d.out, "\n%s\n", d.paint(ansiGreen, "Instantiated a client instance with the following attributes:"))
	d.field("job_id", a.JobID)
	d.field("delay_seconds", strconv.Itoa(a.DelaySeconds))
	d.field("polling_interval_seconds", strconv.Itoa(a.PollingIntervalSeconds))
	d.field("timeout_seconds", strconv.Itoa(a.TimeoutSeconds))
	fmt.Fprintln(d.out)
}

// Failure prints the hint matching a failed status query.
func (d *Display) Failure(jobID string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Fprintln(d.out, d.paint(ansiRed, FailureHint(jobID, err)))
}

// Message prints a plain line, e.g. a submit confirmation.
func (d *Display) Message(msg string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	fmt.Fprintln(d.out, msg)
}

// FailureHint returns the user-facing explanation for a failed query.
func FailureHint(jobID string, err error) string {
	if apperrors.IsNotFound(err) {
		return jobID + " could not be found.\nPlease ensure the job has been submitted"
	}
	return "Failed to get the status of the job " + jobID + ". Try again later"
}

func (d *Display) field(name, value string) {
	fmt.Fprintf(d.out, "%s%s\n", d.paint(ansiLightYellow, name+": "), d.paint(ansiLightCyan, value))
}

func (d *Display) paint(color, s string) string {
	if !d.color {
		return s
	}
	return color + s + ansiReset
}

func statusColor(s model.JobStatus) string {
	switch s {
	case model.JobStatusCompleted:
		return ansiGreen
	case model.JobStatusPending:
		return ansiLightYellow
	default:
		return ansiRed
	}
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(math.Round(s*100)/100, 'f', -1, 64)
}
