package server

import "context"

// run is the hub's single goroutine: it owns the client set and is the
// only place that mutates it, so register/unregister/broadcast never
// need external locking. It exits when ctx is canceled.
func (s *Server) run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case c := <-s.register:
			s.clients[c] = struct{}{}
			s.clientCount.Store(int32(len(s.clients)))

		case c := <-s.unregister:
			if _, ok := s.clients[c]; ok {
				delete(s.clients, c)
				close(c.send)
				s.clientCount.Store(int32(len(s.clients)))
			}

		case msg := <-s.broadcast:
			dropped := false
			for c := range s.clients {
				select {
				case c.send <- msg:
				default:
					delete(s.clients, c)
					close(c.send)
					dropped = true
				}
			}
			if dropped {
				s.clientCount.Store(int32(len(s.clients)))
			}
		}
	}
}
