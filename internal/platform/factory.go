package platform

import (
	"github.com/amankumarsingh77/cloud-transcript-service/internal/config"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/models"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/platform/bilibili"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/platform/xiaoyuzhou"
	"github.com/amankumarsingh77/cloud-transcript-service/internal/platform/youtube"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/errs"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/logger"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/ratelimit"
	"github.com/amankumarsingh77/cloud-transcript-service/pkg/retry"
	"github.com/pkg/errors"
)

// Registry hands out one client per supported platform. Clients share the
// rate limiter so the combined request stream respects the admission gate.
type Registry struct {
	clients map[models.Platform]Client
}

func NewRegistry(cfg *config.Config, limiter *ratelimit.Limiter, policy retry.Policy, log logger.Logger) *Registry {
	return &Registry{
		clients: map[models.Platform]Client{
			models.PlatformBilibili:   bilibili.NewClient(cfg.Bilibili, limiter, policy, log),
			models.PlatformYoutube:    youtube.NewClient(cfg.Downloader, limiter, policy, log),
			models.PlatformXiaoyuzhou: xiaoyuzhou.NewClient(limiter, policy, log),
		},
	}
}

// NewRegistryWithClients builds a registry from explicit clients, keyed by
// their own platform name.
func NewRegistryWithClients(clients ...Client) *Registry {
	m := make(map[models.Platform]Client, len(clients))
	for _, c := range clients {
		m[c.Platform()] = c
	}
	return &Registry{clients: m}
}

// Client resolves a platform name; an unknown name is caller
// misconfiguration and is never retried.
func (r *Registry) Client(p models.Platform) (Client, error) {
	c, ok := r.clients[p]
	if !ok {
		return nil, errors.Wrapf(errs.ErrUnsupportedPlatform, "platform %q", p)
	}
	return c, nil
}
