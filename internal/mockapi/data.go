package mockapi

import (
	"fmt"
	"time"

	"github.com/dvcrn/eventpix-client/internal/api"
)

// Seeded accounts.
const (
	DemoEmail     = "ana@example.com"
	DemoPassword  = "photos-2024"
	AdminEmail    = "admin@example.com"
	AdminPassword = "admin-2024"

	photoPrice = 500 // cents
)

type account struct {
	user     api.User
	password string
}

type likeKey struct {
	user  int
	photo int
}

type data struct {
	nextID    int
	accounts  map[string]*account // by email
	google    map[string]string   // google access token -> email
	events    []*api.Event
	galleries []*api.Gallery
	photos    []*api.Photo
	tickets   []*api.TicketType
	likes     map[likeKey]bool
	orders    map[string]api.CheckoutRequest
}

func (d *data) id() int {
	d.nextID++
	return d.nextID
}

func seed() *data {
	d := &data{
		nextID:   100,
		accounts: map[string]*account{},
		google:   map[string]string{},
		likes:    map[likeKey]bool{},
		orders:   map[string]api.CheckoutRequest{},
	}
	d.accounts[DemoEmail] = &account{
		user:     api.User{ID: 1, Email: DemoEmail, FirstName: "Ana", LastName: "Silva", IsPhotographer: true},
		password: DemoPassword,
	}
	d.accounts[AdminEmail] = &account{
		user:     api.User{ID: 2, Email: AdminEmail, FirstName: "Admin", IsStaff: true},
		password: AdminPassword,
	}

	start := time.Date(2025, time.June, 14, 18, 0, 0, 0, time.UTC)
	names := []string{"Summer Night Run", "Harbour Jazz Festival", "City Marathon", "Lantern Parade", "Winter Regatta"}
	for i, name := range names {
		ev := &api.Event{
			ID:          i + 1,
			Name:        name,
			Description: name + " photo coverage",
			Location:    "Lisbon",
			StartsAt:    start.AddDate(0, i, 0),
			IsActive:    i != len(names)-1,
			Organizer:   1,
		}
		d.events = append(d.events, ev)

		g := &api.Gallery{ID: i + 1, Event: ev.ID, Title: "Finish line", CreatedAt: ev.StartsAt}
		d.galleries = append(d.galleries, g)
		for p := 0; p < 3; p++ {
			d.addPhoto(g, fmt.Sprintf("seed-%d-%d.jpg", g.ID, p), ev.StartsAt)
		}

		d.tickets = append(d.tickets,
			&api.TicketType{ID: 2*i + 1, Event: ev.ID, Name: "General admission", Price: formatCents(2500), Available: 100},
			&api.TicketType{ID: 2*i + 2, Event: ev.ID, Name: "VIP", Price: formatCents(7500), Available: 2},
		)
	}
	return d
}

func (d *data) addPhoto(g *api.Gallery, name string, at time.Time) *api.Photo {
	p := &api.Photo{
		ID:          d.id(),
		Gallery:     g.ID,
		Image:       "/media/photos/watermarked/" + name,
		Thumbnail:   "/media/photos/thumbs/" + name,
		Watermarked: true,
		Price:       formatCents(photoPrice),
		UploadedAt:  at,
	}
	d.photos = append(d.photos, p)
	g.PhotoCount++
	return p
}

func (d *data) accountByID(id int) *account {
	for _, a := range d.accounts {
		if a.user.ID == id {
			return a
		}
	}
	return nil
}

func (d *data) event(id int) *api.Event {
	for _, e := range d.events {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (d *data) gallery(id int) *api.Gallery {
	for _, g := range d.galleries {
		if g.ID == id {
			return g
		}
	}
	return nil
}

func (d *data) photo(id int) *api.Photo {
	for _, p := range d.photos {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (d *data) ticket(id int) *api.TicketType {
	for _, t := range d.tickets {
		if t.ID == id {
			return t
		}
	}
	return nil
}

func (d *data) likeCount(photo int) int {
	n := 0
	for k, v := range d.likes {
		if v && k.photo == photo {
			n++
		}
	}
	return n
}

func formatCents(c int) string {
	return fmt.Sprintf("%d.%02d", c/100, c%100)
}

// parseCents reads a "12.34" price.
func parseCents(price string) int {
	var units, cents int
	fmt.Sscanf(price, "%d.%d", &units, &cents)
	return units*100 + cents
}
