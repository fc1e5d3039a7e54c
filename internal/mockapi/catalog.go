package mockapi

import (
	"encoding/json"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"time"

	"github.com/dvcrn/eventpix-client/internal/api"
)

// paginate slices items DRF style. next/previous are absolute URLs.
func paginate[T any](r *http.Request, items []T, size int) (api.Page[T], bool) {
	page := 1
	if raw := r.URL.Query().Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return api.Page[T]{}, false
		}
		page = n
	}
	start := (page - 1) * size
	if start > 0 && start >= len(items) {
		return api.Page[T]{}, false
	}
	end := min(start+size, len(items))

	out := api.Page[T]{Count: len(items), Results: append([]T{}, items[start:end]...)}
	if end < len(items) {
		next := pageURL(r, page+1)
		out.Next = &next
	}
	if page > 1 {
		prev := pageURL(r, page-1)
		out.Previous = &prev
	}
	return out, true
}

func pageURL(r *http.Request, page int) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	q := r.URL.Query()
	q.Set("page", strconv.Itoa(page))
	u := url.URL{Scheme: scheme, Host: r.Host, Path: r.URL.Path, RawQuery: q.Encode()}
	return u.String()
}

func (s *Server) isStaff(userID int) bool {
	if userID == 0 {
		return false
	}
	acc := s.db.accountByID(userID)
	return acc != nil && acc.user.IsStaff
}

func (s *Server) listEventsHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	staff := s.isStaff(currentUser(r))
	var events []api.Event
	for _, e := range s.db.events {
		if e.IsActive || staff {
			events = append(events, *e)
		}
	}
	s.mu.Unlock()

	page, ok := paginate(r, events, s.opts.PageSize)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Invalid page.")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) getEventHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.db.event(id)
	if e == nil || (!e.IsActive && !s.isStaff(currentUser(r))) {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// updateEventHandler is the admin activation toggle.
func (s *Server) updateEventHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req struct {
		IsActive *bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.IsActive == nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"is_active": {"This field is required."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isStaff(userID) {
		writeDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
		return
	}
	e := s.db.event(id)
	if e == nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	e.IsActive = *req.IsActive
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) listGalleriesHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	if s.db.event(id) == nil {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	var galleries []api.Gallery
	for _, g := range s.db.galleries {
		if g.Event == id {
			galleries = append(galleries, *g)
		}
	}
	s.mu.Unlock()

	page, ok := paginate(r, galleries, s.opts.PageSize)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Invalid page.")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) getGalleryHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.db.gallery(id)
	if g == nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, g)
}

func (s *Server) createGalleryHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req api.CreateGalleryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if acc := s.db.accountByID(userID); acc == nil || !acc.user.IsPhotographer {
		writeDetail(w, http.StatusForbidden, "Only photographers can create galleries.")
		return
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"title": {"This field may not be blank."}})
		return
	}
	if s.db.event(req.Event) == nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"event": {"Invalid pk - object does not exist."}})
		return
	}
	g := &api.Gallery{ID: s.db.id(), Event: req.Event, Title: req.Title, CreatedAt: time.Now().UTC()}
	s.db.galleries = append(s.db.galleries, g)
	writeJSON(w, http.StatusCreated, g)
}

// viewPhoto fills in the per-viewer like state.
func (s *Server) viewPhoto(p *api.Photo, userID int) api.Photo {
	out := *p
	out.LikeCount = s.db.likeCount(p.ID)
	out.Liked = userID != 0 && s.db.likes[likeKey{user: userID, photo: p.ID}]
	return out
}

func (s *Server) listPhotosHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	userID := currentUser(r)

	s.mu.Lock()
	if s.db.gallery(id) == nil {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	var photos []api.Photo
	for _, p := range s.db.photos {
		if p.Gallery == id {
			photos = append(photos, s.viewPhoto(p, userID))
		}
	}
	s.mu.Unlock()

	page, ok := paginate(r, photos, s.opts.PageSize)
	if !ok {
		writeDetail(w, http.StatusNotFound, "Invalid page.")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) uploadPhotoHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeDetail(w, http.StatusBadRequest, "Multipart form parse error")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"image": {"No file was submitted."}})
		return
	}
	file.Close()
	if header.Size == 0 {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"image": {"The submitted file is empty."}})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if acc := s.db.accountByID(userID); acc == nil || !acc.user.IsPhotographer {
		writeDetail(w, http.StatusForbidden, "Only photographers can upload photos.")
		return
	}
	g := s.db.gallery(id)
	if g == nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	p := s.db.addPhoto(g, path.Base(header.Filename), time.Now().UTC())
	writeJSON(w, http.StatusCreated, s.viewPhoto(p, userID))
}

func (s *Server) setLike(w http.ResponseWriter, r *http.Request, liked bool) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db.photo(id) == nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	key := likeKey{user: userID, photo: id}
	if liked {
		s.db.likes[key] = true
	} else {
		delete(s.db.likes, key)
	}
	writeJSON(w, http.StatusOK, api.LikeStatus{Liked: liked, LikeCount: s.db.likeCount(id)})
}

func (s *Server) likeHandler(w http.ResponseWriter, r *http.Request)   { s.setLike(w, r, true) }
func (s *Server) unlikeHandler(w http.ResponseWriter, r *http.Request) { s.setLike(w, r, false) }

func (s *Server) listTicketsHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db.event(id) == nil {
		writeDetail(w, http.StatusNotFound, "Not found.")
		return
	}
	tickets := []api.TicketType{}
	for _, t := range s.db.tickets {
		if t.Event == id {
			tickets = append(tickets, *t)
		}
	}
	writeJSON(w, http.StatusOK, tickets)
}
