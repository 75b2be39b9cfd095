// Package command implements the two mode-dependent command grammars of the
// console.
//
// A Dispatcher owns the console State (operating mode and maximum address).
// Each completed line is matched against the grammar of the current mode;
// matching commands may change the state and every command answers with one
// or more response lines written to a Sink.
//
// # Controller grammar
//
//	device          switch to device mode         "Device Mode"
//	clear                                         "Cleared"
//	set <a>,<v>                                   "Setting" "Address:<a>" "Value:<v>"
//	get <a>                                       "Getting" "Address:<a>"
//	max <n>         set the maximum address       "Setting max" "<n>"
//	on                                            "continuous"
//	off                                           "continuous off"
//
// # Device grammar
//
//	address <a>                                   "Device address is" "<a>"
//	controller      switch to controller mode     "Controller Mode"
//
// The set, get, max and address verbs are prefix matches; all others must
// match the whole line. A prefix command whose argument is missing answers
// "Invalid Command" and has no other effect. Any other input answers with
// the invalid-command response of the current grammar.
//
// Dispatcher is not safe for concurrent use. Callers that serve several
// streams confine it to a single goroutine (see package console).
package command
