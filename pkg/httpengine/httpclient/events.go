package httpclient

// eventKind tags a queued transport notification.
type eventKind int

const (
	eventConnected eventKind = iota
	eventReadable
	eventError
)

// event is what the transport's private poller goroutine hands across
// to the engine's single task; Client.Poll is the only thing that
// ever drains this queue, so no engine state is touched from any
// goroutine but the caller's own.
type event struct {
	kind eventKind
	err  error
}

func (c *Client) enqueueConnected() { c.enqueue(event{kind: eventConnected}) }
func (c *Client) enqueueReadable()  { c.enqueue(event{kind: eventReadable}) }
func (c *Client) enqueueError(err error) {
	c.enqueue(event{kind: eventError, err: err})
}

func (c *Client) enqueue(e event) {
	c.evMu.Lock()
	c.evQ = append(c.evQ, e)
	c.evMu.Unlock()

	select {
	case c.notify <- struct{}{}:
	default:
	}
}

func (c *Client) dequeue() (event, bool) {
	c.evMu.Lock()
	defer c.evMu.Unlock()

	if len(c.evQ) == 0 {
		return event{}, false
	}
	e := c.evQ[0]
	c.evQ = c.evQ[1:]
	return e, true
}
