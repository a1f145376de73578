package peer

import (
	"context"

	"github.com/pkg/errors"

	"github.com/nyric/actorio/actorid"
	"github.com/nyric/actorio/wire"
)

// ErrHandshakeClosed is returned when the remote closes the channel
// before sending its identity.
var ErrHandshakeClosed = errors.New("peer: remote closed before identity")

// Handshake performs the symmetric identity exchange required on every
// freshly-opened Channel: self is sent as the first outbound message, and
// the first inbound message is awaited and interpreted as the peer's
// identity. The result is stored on ch via SetRemoteUID.
func Handshake(ctx context.Context, ch wire.Channel, self actorid.ID) (actorid.ID, error) {
	if err := ch.Send(ctx, &wire.Envelope{Identity: &self}); err != nil {
		return actorid.ID{}, errors.Wrap(err, "send identity")
	}

	env, err := ch.Recv(ctx)
	if err != nil {
		return actorid.ID{}, errors.Wrap(err, "recv identity")
	}
	if env == nil || env.Identity == nil {
		return actorid.ID{}, ErrHandshakeClosed
	}

	ch.SetRemoteUID(env.Identity.UID)
	return *env.Identity, nil
}
