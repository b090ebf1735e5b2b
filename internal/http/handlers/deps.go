package handlers

import (
	"courtwatch/internal/config"
	"courtwatch/internal/repos"
	"courtwatch/internal/services"
	"courtwatch/internal/subscribers"
)

type Deps struct {
	SlotHandler     *SlotHandler
	ScheduleHandler *ScheduleHandler
	PageHandler     *PageHandler
	RefreshHandler  *RefreshHandler
}

func NewDeps(slots *repos.SlotRepo, cfg config.Config, refresh *services.RefreshService, subs *subscribers.Store) *Deps {
	avail := services.NewAvailabilityService(slots, cfg.Location)
	return &Deps{
		SlotHandler:     &SlotHandler{Avail: avail},
		ScheduleHandler: &ScheduleHandler{Path: cfg.ICSPath},
		PageHandler:     &PageHandler{Avail: avail, Refresh: refresh, Venue: cfg.VenueSlug},
		RefreshHandler:  &RefreshHandler{Refresh: refresh, Slots: slots, Subs: subs},
	}
}
