package command

import (
	"strings"

	"github.com/uartcmd/uartcmd-go/pkg/token"
)

// Command verbs.
const (
	VerbDevice     = "device"
	VerbClear      = "clear"
	VerbSet        = "set"
	VerbGet        = "get"
	VerbMax        = "max"
	VerbOn         = "on"
	VerbOff        = "off"
	VerbAddress    = "address"
	VerbController = "controller"
)

// Response lines.
const (
	RespDeviceMode        = "Device Mode"
	RespControllerMode    = "Controller Mode"
	RespCleared           = "Cleared"
	RespSetting           = "Setting"
	RespAddressPrefix     = "Address:"
	RespValuePrefix       = "Value:"
	RespGetting           = "Getting"
	RespSettingMax        = "Setting max"
	RespContinuous        = "continuous"
	RespContinuousOff     = "continuous off"
	RespDeviceAddress     = "Device address is"
	RespInvalidCommand    = "Invalid Command"
	RespInvalidController = "Invalid Controller Mode Command"
	RespInvalidDevice     = "Invalid Device Mode Command"
	RespInvalidMode       = "Invalid Mode"
)

// Argument delimiters.
const (
	addressDelim = ","
	lineDelim    = "\n"
)

// Sink receives response text.
type Sink interface {
	WriteString(s string) error
}

// Result describes the outcome of one dispatched line.
type Result struct {
	// Verb is the matched command verb, empty if the line was rejected.
	Verb string

	// Responses are the response lines in the order written.
	Responses []string

	// Prev and Next are the state before and after the command.
	Prev, Next State

	// Invalid is set when the line was rejected or an argument was missing.
	Invalid bool
}

// Changed reports whether the command modified the state.
func (r Result) Changed() bool {
	return r.Prev != r.Next
}

// Dispatcher parses command lines against the grammar of the current mode.
type Dispatcher struct {
	state State
}

// NewDispatcher creates a dispatcher starting in the given state.
func NewDispatcher(initial State) *Dispatcher {
	if initial.MaxAddress < 0 {
		initial.MaxAddress = 0
	}
	return &Dispatcher{state: initial}
}

// State returns the current state.
func (d *Dispatcher) State() State {
	return d.state
}

// Dispatch runs one command line and writes its responses to out, each
// terminated by a newline. It returns the first write error, if any; the
// state change of the command is applied regardless.
func (d *Dispatcher) Dispatch(line string, out Sink) (Result, error) {
	r := &responder{out: out, res: Result{Prev: d.state}}

	switch d.state.Mode {
	case ModeController:
		d.dispatchController(line, r)
	case ModeDevice:
		d.dispatchDevice(line, r)
	default:
		r.invalid(RespInvalidMode)
	}

	r.res.Next = d.state
	return r.res, r.err
}

func (d *Dispatcher) dispatchController(line string, r *responder) {
	switch {
	case line == VerbDevice:
		r.verb(VerbDevice)
		d.state.Mode = ModeDevice
		r.say(RespDeviceMode)

	case line == VerbClear:
		r.verb(VerbClear)
		r.say(RespCleared)

	case strings.HasPrefix(line, VerbSet):
		r.verb(VerbSet)
		d.cmdSet(argsAfter(line, VerbSet), r)

	case strings.HasPrefix(line, VerbGet):
		r.verb(VerbGet)
		d.cmdGet(argsAfter(line, VerbGet), r)

	case strings.HasPrefix(line, VerbMax):
		r.verb(VerbMax)
		d.cmdMax(argsAfter(line, VerbMax), r)

	case line == VerbOn:
		r.verb(VerbOn)
		r.say(RespContinuous)

	case line == VerbOff:
		r.verb(VerbOff)
		r.say(RespContinuousOff)

	default:
		r.invalid(RespInvalidController)
	}
}

func (d *Dispatcher) dispatchDevice(line string, r *responder) {
	switch {
	case strings.HasPrefix(line, VerbAddress):
		r.verb(VerbAddress)
		d.cmdAddress(argsAfter(line, VerbAddress), r)

	case line == VerbController:
		r.verb(VerbController)
		d.state.Mode = ModeController
		r.say(RespControllerMode)

	default:
		r.invalid(RespInvalidDevice)
	}
}

// cmdSet handles "set <address>,<value>".
func (d *Dispatcher) cmdSet(args string, r *responder) {
	r.say(RespSetting)

	addr, rest, ok := token.New(args).Next(addressDelim)
	if !ok {
		r.invalid(RespInvalidCommand)
		return
	}
	r.say(RespAddressPrefix + addr.Text)

	val, _, ok := rest.Next(lineDelim)
	if !ok {
		r.invalid(RespInvalidCommand)
		return
	}
	r.say(RespValuePrefix + val.Text)
}

// cmdGet handles "get <address>".
func (d *Dispatcher) cmdGet(args string, r *responder) {
	addr, _, ok := token.New(args).Next(lineDelim)
	if !ok {
		r.invalid(RespInvalidCommand)
		return
	}
	r.say(RespGetting)
	r.say(RespAddressPrefix + addr.Text)
}

// cmdMax handles "max <n>". Unparsable input sets 0; negative values clamp to 0.
func (d *Dispatcher) cmdMax(args string, r *responder) {
	tok, _, ok := token.New(args).Next(lineDelim)
	if !ok {
		r.invalid(RespInvalidCommand)
		return
	}
	r.say(RespSettingMax)
	r.say(tok.Text)

	d.state.MaxAddress = max(Atoi(tok.Text), 0)
}

// cmdAddress handles "address <a>".
func (d *Dispatcher) cmdAddress(args string, r *responder) {
	tok, _, ok := token.New(args).Next(lineDelim)
	if !ok {
		r.invalid(RespInvalidCommand)
		return
	}
	r.say(RespDeviceAddress)
	r.say(tok.Text)
}

// argsAfter returns the text following verb with leading spaces removed.
func argsAfter(line, verb string) string {
	return strings.TrimLeft(line[len(verb):], " ")
}

// responder writes response lines and records them in the result.
type responder struct {
	out Sink
	res Result
	err error
}

func (r *responder) verb(v string) {
	r.res.Verb = v
}

func (r *responder) say(s string) {
	r.res.Responses = append(r.res.Responses, s)
	if r.err != nil || r.out == nil {
		return
	}
	r.err = r.out.WriteString(s + "\n")
}

func (r *responder) invalid(s string) {
	r.res.Invalid = true
	r.say(s)
}
