package payment

// transactionState implements the state pattern for the transaction
// lifecycle. Only pending has outgoing transitions; every terminal state
// rejects further transitions with ErrAlreadyTerminal so duplicate webhook
// deliveries and webhook/poll races collapse into no-ops at the caller.
type transactionState interface {
	Status() Status
	OnSuccessful(t *Transaction) (transactionState, error)
	OnFailed(t *Transaction) (transactionState, error)
	OnCancelled(t *Transaction) (transactionState, error)
}

func (t *Transaction) state() transactionState {
	switch t.Status {
	case StatusPending:
		return pendingState{}
	case StatusSuccessful:
		return terminalState{status: StatusSuccessful}
	case StatusFailed:
		return terminalState{status: StatusFailed}
	case StatusCancelled:
		return terminalState{status: StatusCancelled}
	case StatusRefunded:
		return terminalState{status: StatusRefunded}
	default:
		// Unknown stored status is treated as terminal so nothing can
		// silently advance a corrupted row.
		return terminalState{status: t.Status}
	}
}

type pendingState struct{}

func (pendingState) Status() Status { return StatusPending }

func (pendingState) OnSuccessful(*Transaction) (transactionState, error) {
	return terminalState{status: StatusSuccessful}, nil
}

func (pendingState) OnFailed(*Transaction) (transactionState, error) {
	return terminalState{status: StatusFailed}, nil
}

func (pendingState) OnCancelled(*Transaction) (transactionState, error) {
	return terminalState{status: StatusCancelled}, nil
}

type terminalState struct{ status Status }

func (s terminalState) Status() Status { return s.status }

func (s terminalState) OnSuccessful(*Transaction) (transactionState, error) {
	return nil, ErrAlreadyTerminal
}

func (s terminalState) OnFailed(*Transaction) (transactionState, error) {
	return nil, ErrAlreadyTerminal
}

func (s terminalState) OnCancelled(*Transaction) (transactionState, error) {
	return nil, ErrAlreadyTerminal
}
