package command

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// bufSink collects everything written to it.
type bufSink struct {
	strings.Builder
}

func (b *bufSink) WriteString(s string) error {
	_, err := b.Builder.WriteString(s)
	return err
}

// stubSink is a testify mock of Sink.
type stubSink struct{ mock.Mock }

func (s *stubSink) WriteString(str string) error { return s.Called(str).Error(0) }

func controllerDispatcher() *Dispatcher {
	return NewDispatcher(State{Mode: ModeController, MaxAddress: DefaultMaxAddress})
}

func TestDefaultState(t *testing.T) {
	s := DefaultState()
	assert.Equal(t, ModeDevice, s.Mode)
	assert.Equal(t, 512, s.MaxAddress)
}

func TestModeSwitchRoundTrip(t *testing.T) {
	d := NewDispatcher(DefaultState())
	var out bufSink

	res, err := d.Dispatch("controller", &out)
	require.NoError(t, err)
	assert.Equal(t, ModeController, d.State().Mode)
	assert.True(t, res.Changed())

	res, err = d.Dispatch("device", &out)
	require.NoError(t, err)
	assert.Equal(t, ModeDevice, d.State().Mode)
	assert.True(t, res.Changed())

	assert.Equal(t, "Controller Mode\nDevice Mode\n", out.String())
}

func TestControllerGrammar(t *testing.T) {
	tests := []struct {
		line      string
		responses []string
		verb      string
		invalid   bool
	}{
		{"clear", []string{"Cleared"}, VerbClear, false},
		{"on", []string{"continuous"}, VerbOn, false},
		{"off", []string{"continuous off"}, VerbOff, false},
		{"set 3,7", []string{"Setting", "Address:3", "Value:7"}, VerbSet, false},
		{"set 10,255", []string{"Setting", "Address:10", "Value:255"}, VerbSet, false},
		{"set 3", []string{"Setting", "Address:3", "Invalid Command"}, VerbSet, true},
		{"set 3,", []string{"Setting", "Address:3", "Invalid Command"}, VerbSet, true},
		{"set", []string{"Setting", "Invalid Command"}, VerbSet, true},
		{"get 42", []string{"Getting", "Address:42"}, VerbGet, false},
		{"get", []string{"Invalid Command"}, VerbGet, true},
		{"get   ", []string{"Invalid Command"}, VerbGet, true},
		{"bogus", []string{"Invalid Controller Mode Command"}, "", true},
		{"", []string{"Invalid Controller Mode Command"}, "", true},
		{"controller", []string{"Invalid Controller Mode Command"}, "", true},
		{"address 5", []string{"Invalid Controller Mode Command"}, "", true},
		{"clear ", []string{"Invalid Controller Mode Command"}, "", true},
		{"ON", []string{"Invalid Controller Mode Command"}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			d := controllerDispatcher()
			var out bufSink

			res, err := d.Dispatch(tt.line, &out)

			require.NoError(t, err)
			assert.Equal(t, tt.responses, res.Responses)
			assert.Equal(t, strings.Join(tt.responses, "\n")+"\n", out.String())
			assert.Equal(t, tt.verb, res.Verb)
			assert.Equal(t, tt.invalid, res.Invalid)
			assert.Equal(t, controllerDispatcher().State(), d.State(), "state must not change")
		})
	}
}

func TestDeviceGrammar(t *testing.T) {
	tests := []struct {
		line      string
		responses []string
		invalid   bool
	}{
		{"address 17", []string{"Device address is", "17"}, false},
		{"address17", []string{"Device address is", "17"}, false},
		{"address", []string{"Invalid Command"}, true},
		{"device", []string{"Invalid Device Mode Command"}, true},
		{"set 3,7", []string{"Invalid Device Mode Command"}, true},
		{"max 5", []string{"Invalid Device Mode Command"}, true},
		{"", []string{"Invalid Device Mode Command"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			d := NewDispatcher(DefaultState())

			res, err := d.Dispatch(tt.line, nil)

			require.NoError(t, err)
			assert.Equal(t, tt.responses, res.Responses)
			assert.Equal(t, tt.invalid, res.Invalid)
			assert.Equal(t, DefaultState(), d.State())
		})
	}
}

func TestMaxSetsMaxAddress(t *testing.T) {
	d := controllerDispatcher()
	var out bufSink

	res, err := d.Dispatch("max 100", &out)
	require.NoError(t, err)
	assert.Equal(t, 100, d.State().MaxAddress)
	assert.Equal(t, []string{"Setting max", "100"}, res.Responses)
	assert.True(t, res.Changed())

	res, err = d.Dispatch("max abc", &out)
	require.NoError(t, err)
	assert.Equal(t, 0, d.State().MaxAddress, "unparsable value converts to 0")
	assert.Equal(t, []string{"Setting max", "abc"}, res.Responses)
}

func TestMaxConversionPolicy(t *testing.T) {
	tests := []struct {
		arg  string
		want int
	}{
		{"0", 0},
		{"1024", 1024},
		{"12ab", 12},
		{"+7", 7},
		{"-5", 0},
		{"99999999999", 2147483647},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			d := controllerDispatcher()
			_, err := d.Dispatch("max "+tt.arg, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.State().MaxAddress)
		})
	}
}

func TestMaxMissingArgumentKeepsState(t *testing.T) {
	d := controllerDispatcher()

	res, err := d.Dispatch("max", nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"Invalid Command"}, res.Responses)
	assert.Equal(t, DefaultMaxAddress, d.State().MaxAddress)
	assert.False(t, res.Changed())
}

func TestBogusLeavesStateUnchanged(t *testing.T) {
	d := NewDispatcher(State{Mode: ModeController, MaxAddress: 77})
	var out bufSink

	_, err := d.Dispatch("bogus", &out)

	require.NoError(t, err)
	assert.Equal(t, "Invalid Controller Mode Command\n", out.String())
	assert.Equal(t, State{Mode: ModeController, MaxAddress: 77}, d.State())
}

func TestUnknownModeIsReported(t *testing.T) {
	d := NewDispatcher(State{Mode: Mode(9)})

	res, err := d.Dispatch("device", nil)

	require.NoError(t, err)
	assert.Equal(t, []string{"Invalid Mode"}, res.Responses)
	assert.True(t, res.Invalid)
}

func TestNegativeInitialMaxAddressClamped(t *testing.T) {
	d := NewDispatcher(State{Mode: ModeDevice, MaxAddress: -1})
	assert.Equal(t, 0, d.State().MaxAddress)
}

func TestDispatchStopsWritingAfterSinkError(t *testing.T) {
	errBroken := errors.New("broken pipe")
	sink := &stubSink{}
	sink.On("WriteString", "Setting\n").Return(errBroken).Once()

	d := controllerDispatcher()
	res, err := d.Dispatch("set 1,2", sink)

	require.ErrorIs(t, err, errBroken)
	assert.Equal(t, []string{"Setting", "Address:1", "Value:2"}, res.Responses)
	sink.AssertExpectations(t)
	sink.AssertNumberOfCalls(t, "WriteString", 1)
}

func TestDispatchAppliesModeChangeOnSinkError(t *testing.T) {
	sink := &stubSink{}
	sink.On("WriteString", mock.Anything).Return(errors.New("gone"))

	d := NewDispatcher(DefaultState())
	_, err := d.Dispatch("controller", sink)

	require.Error(t, err)
	assert.Equal(t, ModeController, d.State().Mode)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "controller", ModeController.String())
	assert.Equal(t, "device", ModeDevice.String())
	assert.Equal(t, "UNKNOWN", Mode(3).String())
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("Controller")
	require.NoError(t, err)
	assert.Equal(t, ModeController, m)

	m, err = ParseMode(" device ")
	require.NoError(t, err)
	assert.Equal(t, ModeDevice, m)

	_, err = ParseMode("host")
	assert.Error(t, err)
}
