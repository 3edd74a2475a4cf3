package transport

import "fmt"

// socket is the handle returned by Context.NewSocket. It carries no
// behavior of its own until Bind or Connect resolves an endpoint's scheme
// and picks a concrete backend (inproc or tcp) to delegate to.
type socket struct {
	ctx  *Context
	kind Kind
	impl Socket
}

func (s *socket) Kind() Kind { return s.kind }

func (s *socket) Bind(endpoint string) error {
	if s.impl != nil {
		return fmt.Errorf("transport: socket already bound/connected")
	}
	scheme, rest, err := splitEndpoint(endpoint)
	if err != nil {
		return err
	}
	switch scheme {
	case "inproc":
		impl, err := bindInproc(s.ctx.inproc, s.kind, rest)
		if err != nil {
			return err
		}
		s.impl = impl
	case "tcp":
		impl, err := bindTCP(s.kind, rest)
		if err != nil {
			return err
		}
		s.impl = impl
	default:
		return ErrUnknownScheme
	}
	return nil
}

func (s *socket) Connect(endpoint string) error {
	if s.impl != nil {
		return fmt.Errorf("transport: socket already bound/connected")
	}
	scheme, rest, err := splitEndpoint(endpoint)
	if err != nil {
		return err
	}
	switch scheme {
	case "inproc":
		impl, err := connectInproc(s.ctx.inproc, s.kind, rest)
		if err != nil {
			return err
		}
		s.impl = impl
	case "tcp":
		impl, err := connectTCP(s.kind, rest)
		if err != nil {
			return err
		}
		s.impl = impl
	default:
		return ErrUnknownScheme
	}
	return nil
}

func (s *socket) ready() error {
	if s.impl == nil {
		return fmt.Errorf("transport: socket not bound or connected")
	}
	return nil
}

func (s *socket) SetOption(name string, value interface{}) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.impl.SetOption(name, value)
}

func (s *socket) GetOption(name string) (interface{}, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.impl.GetOption(name)
}

func (s *socket) Send(frame []byte, flags Flags) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.impl.Send(frame, flags)
}

func (s *socket) SendAll(msg Message, flags Flags) error {
	if err := s.ready(); err != nil {
		return err
	}
	return s.impl.SendAll(msg, flags)
}

func (s *socket) Recv(flags Flags) ([]byte, bool, error) {
	if err := s.ready(); err != nil {
		return nil, false, err
	}
	return s.impl.Recv(flags)
}

func (s *socket) RecvAll(flags Flags) (Message, bool, error) {
	if err := s.ready(); err != nil {
		return nil, false, err
	}
	return s.impl.RecvAll(flags)
}

func (s *socket) readable() bool {
	if s.impl == nil {
		return false
	}
	return s.impl.readable()
}

func (s *socket) signal() <-chan struct{} {
	if s.impl == nil {
		return make(chan struct{})
	}
	return s.impl.signal()
}

func (s *socket) Close() error {
	if s.impl == nil {
		return nil
	}
	return s.impl.Close()
}
