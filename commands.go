package offlinecache

import (
	"context"
	"strings"
)

// Commands accepted on the control channel.
const (
	// CommandForceActivate promotes an installed-but-not-yet-active
	// version immediately, skipping any deferral.
	CommandForceActivate = "force-activate"
	// CommandCleanup purges all dynamic partitions and prunes the image
	// partition. The host invokes it to free space, e.g. on quota errors.
	CommandCleanup = "cleanup"
)

// HandleCommand processes an out-of-band command from the host application.
// Commands are fire-and-forget: outcomes are logged, never returned, and
// unknown commands are ignored.
func (o *OfflineCache) HandleCommand(msg string) {
	switch strings.TrimSpace(msg) {
	case CommandForceActivate:
		if err := o.Activate(context.Background()); err != nil {
			o.log.Warn().Err(err).Msg("Could not force-activate")
		}
	case CommandCleanup:
		if err := o.evictor.Cleanup(); err != nil {
			o.log.Error().Err(err).Msg("Cleanup failed")
		}
	default:
		o.log.Debug().Str("command", msg).Msg("Ignoring unknown command")
	}
}
