package session

import (
	"context"
	"fmt"

	"github.com/sglre6355/sgrmusic/internal/modules/music_player/domain"
)

// openConnection starts a new connection context. Node calls made while it is
// alive are cancelled when it is cancelled.
func (s *Session) openConnection() {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.connCancel != nil {
		s.connCancel()
	}
	s.connCtx, s.connCancel = context.WithCancel(context.Background())
}

// cancelConnection abandons in-flight node calls. It does not take mu.
func (s *Session) cancelConnection() {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.connCancel != nil {
		s.connCancel()
	}
}

func (s *Session) closeConnection() {
	s.connMu.Lock()
	defer s.connMu.Unlock()

	if s.connCancel != nil {
		s.connCancel()
	}
	s.connCtx = nil
	s.connCancel = nil
}

// dispatch runs a node call under the command timeout, chained to the
// connection context. Failures are reported as ErrNodeUnavailable.
func (s *Session) dispatch(ctx context.Context, call func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.commandTimeout)
	defer cancel()

	s.connMu.Lock()
	conn := s.connCtx
	s.connMu.Unlock()

	if conn != nil {
		stop := context.AfterFunc(conn, cancel)
		defer stop()
	}

	if err := call(ctx); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrNodeUnavailable, err)
	}
	return nil
}
