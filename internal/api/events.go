package api

import (
	"context"
	"fmt"
)

// ListEvents returns one page of events. Pages are 1-based.
func (a *API) ListEvents(ctx context.Context, page int) (*Page[Event], error) {
	return getPage[Event](ctx, a, "/events/", page)
}

func (a *API) Event(ctx context.Context, id int) (*Event, error) {
	var e Event
	if err := a.c.Get(ctx, fmt.Sprintf("/events/%d/", id), nil, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// SetEventActive is the staff-only toggle that publishes or hides an event.
func (a *API) SetEventActive(ctx context.Context, id int, active bool) (*Event, error) {
	var e Event
	body := map[string]bool{"is_active": active}
	if err := a.c.Patch(ctx, fmt.Sprintf("/events/%d/", id), body, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

func (a *API) ListGalleries(ctx context.Context, eventID, page int) (*Page[Gallery], error) {
	return getPage[Gallery](ctx, a, fmt.Sprintf("/events/%d/galleries/", eventID), page)
}

func (a *API) Gallery(ctx context.Context, id int) (*Gallery, error) {
	var g Gallery
	if err := a.c.Get(ctx, fmt.Sprintf("/galleries/%d/", id), nil, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

func (a *API) CreateGallery(ctx context.Context, req CreateGalleryRequest) (*Gallery, error) {
	var g Gallery
	if err := a.c.Post(ctx, "/galleries/", req, &g); err != nil {
		return nil, err
	}
	return &g, nil
}
