package store

// opState tracks the lifecycle of one optimistic mutation against the
// persistent store: the in-memory change is applied first, and the
// operation either commits (persistence succeeded) or rolls back
// (persistence failed, undo applied). An operation never moves out of a
// terminal state, so a late completion can never double-apply an undo.
type opState int

const (
	opPending opState = iota
	opCommitted
	opRolledBack
)

// pendingOp pairs an in-flight persistence call with the undo that
// exactly reverses its optimistic in-memory change. commit and rollback
// must be called with the store mutex held.
type pendingOp struct {
	state opState
	undo  func()
}

func newPendingOp(undo func()) *pendingOp {
	return &pendingOp{state: opPending, undo: undo}
}

// commit marks the optimistic change durable. No-op unless pending.
func (op *pendingOp) commit() {
	if op.state == opPending {
		op.state = opCommitted
	}
}

// rollback reverses the optimistic change. No-op unless pending.
func (op *pendingOp) rollback() {
	if op.state == opPending {
		op.state = opRolledBack
		if op.undo != nil {
			op.undo()
		}
	}
}
