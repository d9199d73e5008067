package tgdb

// This file implements the two-FIFO command scheduler (spec.md §4.5),
// grounded on original_source/lib/tgdb/tgdb.cpp's gdb_input_queue/
// oob_input_queue pair and IS_SUBSYSTEM_READY_FOR_NEXT_COMMAND flag. The
// UI-facing gdb_client_request_queue from the original sources is folded
// into "normal" per SPEC_FULL.md §4.5: this core's data model names exactly
// two queues.

// pendingCommand is one command waiting for (or about to receive) delivery
// to gdb's stdin.
type pendingCommand struct {
	req      *Request
	text     string
	oob      bool // true if this goes through the priority queue
	cmdState CommandState
	internal bool // true if Core synthesized this command itself (not user input)
}

// scheduler enforces spec.md §4.5's dispatch cycle: at most one outstanding
// command in flight, priority before normal, with drain-on-interrupt
// semantics.
type scheduler struct {
	normal   []pendingCommand
	priority []pendingCommand
	ready    bool

	// miscPrompt is set while the correlator is sitting at a non-main
	// gdb sub-prompt (query/overload-choice/...). Per spec.md §4.5, a
	// non-user-console command dequeued while at a misc prompt is
	// discarded rather than delivered, since it would hang there.
	miscPrompt bool
}

func newScheduler() *scheduler {
	return &scheduler{ready: true}
}

// enqueueOrDeliver implements spec.md §4.5's "a command submitted while
// ready_for_next is true with an empty priority queue is delivered
// synchronously; otherwise it is enqueued" rule. deliver is called
// synchronously when the command can run now.
func (s *scheduler) enqueueOrDeliver(cmd pendingCommand, deliver func(pendingCommand)) {
	if cmd.oob {
		if s.ready && len(s.priority) == 0 {
			cmd.req.Queued = false
			s.ready = false
			deliver(cmd)
			return
		}
		cmd.req.Queued = true
		s.priority = append(s.priority, cmd)
		return
	}

	if s.ready && len(s.priority) == 0 && len(s.normal) == 0 {
		cmd.req.Queued = false
		s.ready = false
		deliver(cmd)
		return
	}

	cmd.req.Queued = true
	s.normal = append(s.normal, cmd)
}

// pump runs the dispatch cycle (spec.md §4.5 steps 1-3): if ready and a
// queue is non-empty, pop (priority first) and deliver. It is called when a
// prompt or misc-prompt annotation re-arms ready; a command submitted while
// the scheduler is ready is delivered by enqueueOrDeliver itself.
func (s *scheduler) pump(deliver func(pendingCommand)) {
	if !s.ready {
		return
	}

	if len(s.priority) > 0 {
		cmd := s.priority[0]
		s.priority = s.priority[1:]
		if s.miscPrompt && !isUserConsoleCommand(cmd) {
			// Discarded: an internal query would hang at a misc prompt.
			s.pump(deliver)
			return
		}
		s.ready = false
		deliver(cmd)
		return
	}

	if len(s.normal) > 0 {
		cmd := s.normal[0]
		s.normal = s.normal[1:]
		if s.miscPrompt && !isUserConsoleCommand(cmd) {
			s.pump(deliver)
			return
		}
		s.ready = false
		deliver(cmd)
		return
	}
}

func isUserConsoleCommand(cmd pendingCommand) bool {
	return cmd.req != nil && cmd.req.Kind == RequestConsoleCommand
}

// interrupt implements spec.md §4.5's SIGINT handling: both FIFOs are
// drained and destroyed; ready_for_next is left unchanged (the in-flight
// command, if any, is not retracted).
func (s *scheduler) interrupt() {
	s.normal = nil
	s.priority = nil
}

func (s *scheduler) queueSizeNormal() int   { return len(s.normal) }
func (s *scheduler) queueSizePriority() int { return len(s.priority) }
