// Package notify runs the side effects that follow a committed write: the
// actor's cached dashboard is evicted and a websocket event is pushed to
// their open connections.
package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/zaryan/api/internal/cache"
	"github.com/zaryan/api/internal/ws"
	"go.uber.org/zap"
)

type Notifier struct {
	hub   *ws.Hub
	cache *cache.Cache
}

// New accepts nil for either dependency.
func New(hub *ws.Hub, c *cache.Cache) *Notifier {
	return &Notifier{hub: hub, cache: c}
}

// Changed reports a committed change by userID. An empty eventType only
// evicts the cache.
func (n *Notifier) Changed(ctx context.Context, userID uuid.UUID, eventType string, payload any) {
	if n == nil {
		return
	}
	if err := n.cache.Delete(ctx, cache.DashboardKey(userID)); err != nil {
		zap.L().Warn("evict dashboard cache", zap.String("user_id", userID.String()), zap.Error(err))
	}
	if eventType != "" {
		n.hub.Publish(userID, eventType, payload)
	}
}
