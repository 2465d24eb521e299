package router

import (
	"github.com/gabrielmiguelok/slidedeck/pkg/core"
	"github.com/gabrielmiguelok/slidedeck/pkg/protocol"
	"github.com/gabrielmiguelok/slidedeck/pkg/transport"
)

// transportAdapter lets a core.Socket push through a transport.Transport.
type transportAdapter struct {
	t transport.Transport
}

func newTransportAdapter(t transport.Transport) *transportAdapter {
	return &transportAdapter{t: t}
}

// Send implements core.Transport.
func (a *transportAdapter) Send(msg core.Message) error {
	out := protocol.NewMessage(msg.Topic, msg.Event, msg.Payload)
	out.Ref = msg.Ref
	return a.t.Send(out)
}

// Close implements core.Transport.
func (a *transportAdapter) Close() error {
	return a.t.Close()
}

// IsConnected implements core.Transport.
func (a *transportAdapter) IsConnected() bool {
	return a.t.IsConnected()
}
