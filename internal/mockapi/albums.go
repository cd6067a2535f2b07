package mockapi

import (
	"errors"
	"net/http"
	"strings"

	"albumreviews/internal/api"
	"albumreviews/internal/validator"
)

const (
	msgRequired = "This field is required."
	msgBlank    = "This field may not be blank."
)

func validateArtist(in api.ArtistInput) error {
	v := validator.New()
	v.Check(validator.NotBlank(in.Name), "name", msgBlank)
	v.Check(len(in.Name) <= 200, "name", "Ensure this field has no more than 200 characters.")
	v.Check(validator.NotBlank(in.Genre), "genre", msgBlank)
	v.Check(validator.NotBlank(in.Bio), "bio", msgBlank)
	return v.Err()
}

func validateAlbum(in api.AlbumInput) error {
	v := validator.New()
	v.Check(in.Artist > 0, "artist", msgRequired)
	v.Check(validator.NotBlank(in.Title), "title", msgBlank)
	v.Check(len(in.Title) <= 200, "title", "Ensure this field has no more than 200 characters.")
	v.Check(in.ReleaseYear != 0, "release_year", msgRequired)
	v.Check(validator.NotBlank(in.Genre), "genre", msgBlank)
	return v.Err()
}

func (s *Server) handleListArtists(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.data.Artists(r.URL.Query().Get("search")))
}

func (s *Server) handleGetArtist(w http.ResponseWriter, r *http.Request) {
	artist, err := s.data.Artist(pathID(r))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, artist)
}

func (s *Server) handleCreateArtist(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	var req api.ArtistInput
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateArtist(req); err != nil {
		writeFieldErrors(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, s.data.CreateArtist(req))
}

func (s *Server) handleUpdateArtist(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	var req api.ArtistInput
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateArtist(req); err != nil {
		writeFieldErrors(w, err)
		return
	}
	artist, err := s.data.UpdateArtist(pathID(r), req)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, artist)
}

func (s *Server) handleDeleteArtist(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	if err := s.data.DeleteArtist(pathID(r)); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleArtistAlbums(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if _, err := s.data.Artist(id); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.data.Albums(api.AlbumFilter{ArtistID: id}))
}

func (s *Server) handleListAlbums(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	artistID, ok := queryID(w, r, "artist_id")
	if !ok {
		return
	}
	filter := api.AlbumFilter{
		Genre:    strings.TrimSpace(query.Get("genre")),
		ArtistID: artistID,
		Ordering: query.Get("ordering"),
		Search:   strings.TrimSpace(query.Get("search")),
	}
	writeJSON(w, http.StatusOK, s.data.Albums(filter))
}

func (s *Server) handleGetAlbum(w http.ResponseWriter, r *http.Request) {
	album, err := s.data.Album(pathID(r))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

func (s *Server) handleCreateAlbum(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	var req api.AlbumInput
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateAlbum(req); err != nil {
		writeFieldErrors(w, err)
		return
	}
	album, err := s.data.CreateAlbum(req)
	if err != nil {
		s.writeAlbumError(w, r, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, album)
}

func (s *Server) handleUpdateAlbum(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	id := pathID(r)
	if _, err := s.data.Album(id); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	var req api.AlbumInput
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := validateAlbum(req); err != nil {
		writeFieldErrors(w, err)
		return
	}
	album, err := s.data.UpdateAlbum(id, req)
	if err != nil {
		s.writeAlbumError(w, r, req, err)
		return
	}
	writeJSON(w, http.StatusOK, album)
}

// writeAlbumError reports a dangling artist reference as a field error.
func (s *Server) writeAlbumError(w http.ResponseWriter, r *http.Request, req api.AlbumInput, err error) {
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"artist": {invalidPK(req.Artist)},
		})
		return
	}
	s.writeStoreError(w, r, err)
}

func (s *Server) handleDeleteAlbum(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireUser(w, r); !ok {
		return
	}
	if err := s.data.DeleteAlbum(pathID(r)); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAlbumReviews(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	if _, err := s.data.Album(id); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, s.data.Reviews(api.ReviewFilter{AlbumID: id}, viewerID(r)))
}
