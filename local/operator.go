package local

// Operator is the uniform contract every physical node implements, per
// spec.md §4.6. open/close may fail with I/O or cancellation errors; the
// scheduler never calls TakeEvent after Close.
type Operator interface {
	Open() error
	Close() error
	TakeEvent(e Event) error
	CompleteWindow() error
	CloseUpstream() error
	IsClosed() bool

	SetContext(ctx Context)
	Context() Context
}

// baseOperator implements the bookkeeping every concrete operator shares:
// open/closed state and its context. Concrete operators embed this and
// implement only TakeEvent (and CompleteWindow/CloseUpstream where they
// need to do more than the no-op default).
type baseOperator struct {
	ctx    Context
	opened bool
	closed bool
}

func (b *baseOperator) SetContext(ctx Context) { b.ctx = ctx }
func (b *baseOperator) Context() Context       { return b.ctx }
func (b *baseOperator) IsClosed() bool         { return b.closed }

func (b *baseOperator) Open() error {
	b.opened = true
	return nil
}

func (b *baseOperator) Close() error {
	b.closed = true
	return nil
}

func (b *baseOperator) CompleteWindow() error { return nil }

func (b *baseOperator) CloseUpstream() error {
	b.closed = true
	return nil
}

func (b *baseOperator) emit(e Event) error {
	if b.ctx == nil {
		return nil
	}
	return b.ctx.Emit(e)
}
