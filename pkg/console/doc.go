// Package console runs the line-command interpreter over character streams.
//
// An Engine owns the command state and serializes every dispatched line on
// a single goroutine, so any number of sessions (a UART, stdio, TCP clients)
// can share one mode and maximum address. A Console drives one stream: it
// writes the banner, accumulates characters into lines, submits completed
// lines to the Engine and writes the responses back.
//
//	engine := console.NewEngine(command.DefaultState())
//	go engine.Run(ctx)
//
//	c := console.New(engine, st, console.Options{Source: "stdio"})
//	err := c.Run(ctx)
package console
