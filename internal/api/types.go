package api

import "time"

// Page is a DRF paginated list. Next and Previous are absolute URLs or nil.
type Page[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

// HasNext reports whether another page can be fetched.
func (p *Page[T]) HasNext() bool {
	return p != nil && p.Next != nil && *p.Next != ""
}

type User struct {
	ID             int    `json:"id"`
	Email          string `json:"email"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	IsPhotographer bool   `json:"is_photographer"`
	IsStaff        bool   `json:"is_staff"`
}

type RegisterRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	FirstName      string `json:"first_name,omitempty"`
	LastName       string `json:"last_name,omitempty"`
	IsPhotographer bool   `json:"is_photographer"`
}

type GoogleLoginRequest struct {
	AccessToken string `json:"access_token"`
}

type Event struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartsAt    time.Time `json:"starts_at"`
	IsActive    bool      `json:"is_active"`
	CoverURL    string    `json:"cover_url,omitempty"`
	Organizer   int       `json:"organizer"`
}

type Gallery struct {
	ID         int       `json:"id"`
	Event      int       `json:"event"`
	Title      string    `json:"title"`
	PhotoCount int       `json:"photo_count"`
	CreatedAt  time.Time `json:"created_at"`
}

type CreateGalleryRequest struct {
	Event int    `json:"event"`
	Title string `json:"title"`
}

// Photo is a gallery image. Image points at the watermarked rendition
// unless the viewer has purchased it.
type Photo struct {
	ID          int       `json:"id"`
	Gallery     int       `json:"gallery"`
	Image       string    `json:"image"`
	Thumbnail   string    `json:"thumbnail"`
	Watermarked bool      `json:"watermarked"`
	LikeCount   int       `json:"like_count"`
	Liked       bool      `json:"liked"`
	Price       string    `json:"price"`
	UploadedAt  time.Time `json:"uploaded_at"`
}

type LikeStatus struct {
	Liked     bool `json:"liked"`
	LikeCount int  `json:"like_count"`
}

type TicketType struct {
	ID        int    `json:"id"`
	Event     int    `json:"event"`
	Name      string `json:"name"`
	Price     string `json:"price"`
	Available int    `json:"available"`
}

// Checkout item kinds.
const (
	KindTicket = "ticket"
	KindPhoto  = "photo"
)

type CheckoutItem struct {
	Kind     string `json:"kind"`
	ID       int    `json:"id"`
	Quantity int    `json:"quantity"`
}

type CheckoutRequest struct {
	Items []CheckoutItem `json:"items"`
}

// Order is the result of a checkout. The payment itself happens at
// CheckoutURL, outside this API.
type Order struct {
	OrderID     string `json:"order_id"`
	CheckoutURL string `json:"checkout_url"`
	Total       string `json:"total"`
}
