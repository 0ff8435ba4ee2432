package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"netcore/internal/domain"
	"netcore/internal/repository"
)

// Linker infers links from device categories: every router is connected to
// every other device once.
type Linker struct {
	devices repository.DeviceStore
	links   repository.LinkStore
	log     zerolog.Logger
}

// NewLinker creates a linker over the given stores
func NewLinker(devices repository.DeviceStore, links repository.LinkStore, log zerolog.Logger) *Linker {
	return &Linker{
		devices: devices,
		links:   links,
		log:     log.With().Str("component", "linker").Logger(),
	}
}

// LinkRouters creates an ethernet link from each router to each other device
// unless the unordered pair is already linked. Returns the number of links
// created.
func (l *Linker) LinkRouters(ctx context.Context) (int, error) {
	devices, err := l.devices.ListDevices(ctx)
	if err != nil {
		return 0, fmt.Errorf("list devices: %w", err)
	}

	var routers []domain.Device
	for _, d := range devices {
		if d.Category == domain.CategoryRouter {
			routers = append(routers, d)
		}
	}
	if len(routers) == 0 {
		return 0, nil
	}

	pairs, err := l.links.ListLinkPairs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list link pairs: %w", err)
	}
	linked := domain.NewPairSet(pairs...)

	created := 0
	for _, router := range routers {
		for _, other := range devices {
			if other.ID == router.ID || linked.Has(router.ID, other.ID) {
				continue
			}

			link := domain.NewLink(router.ID, other.ID, domain.LinkTypeEthernet)
			if err := l.links.CreateLink(ctx, link); err != nil {
				return created, fmt.Errorf("create link %s -> %s: %w", router.IPAddress, other.IPAddress, err)
			}
			linked.Add(router.ID, other.ID)
			created++
		}
	}

	if created > 0 {
		l.log.Info().Int("routers", len(routers)).Int("created", created).Msg("router links created")
	}
	return created, nil
}
