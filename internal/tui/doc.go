// Package tui provides the terminal progress view for crew kickoffs.
//
// The view is read-only: it shows each task with its agent and status, a
// spinner on the running task, cumulative token usage, and a short activity
// log. Users can only quit with 'q' or Ctrl+C.
//
// Usage:
//
//	program, _ := tui.NewProgressProgram("engineering_team", tasks)
//	c.Observer = tui.Observer(program)
//	go func() {
//	    out, err := c.Kickoff(ctx, inputs)
//	    program.Send(tui.DoneMsg{Output: out.String(), Err: err})
//	}()
//	program.Run()
package tui
