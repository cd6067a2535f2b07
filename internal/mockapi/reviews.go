package mockapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"albumreviews/internal/api"
	"albumreviews/internal/validator"
)

type toggleLikeResponse struct {
	Status    string `json:"status"`
	LikeCount int    `json:"like_count"`
}

type likeStatusResponse struct {
	LikeCount int  `json:"like_count"`
	IsLiked   bool `json:"is_liked"`
}

func invalidPK(id int64) string {
	return fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", id)
}

func (s *Server) handleListReviews(w http.ResponseWriter, r *http.Request) {
	albumID, ok := queryID(w, r, "album_id")
	if !ok {
		return
	}
	userID, ok := queryID(w, r, "user_id")
	if !ok {
		return
	}
	filter := api.ReviewFilter{AlbumID: albumID, UserID: userID, Ordering: r.URL.Query().Get("ordering")}
	writeJSON(w, http.StatusOK, s.data.Reviews(filter, viewerID(r)))
}

func (s *Server) handleGetReview(w http.ResponseWriter, r *http.Request) {
	review, err := s.data.Review(pathID(r), viewerID(r))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

// handleCreateReview checks the required fields in the order the messages
// are documented before any range validation.
func (s *Server) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req api.ReviewInput
	if !decodeJSON(w, r, &req) {
		return
	}

	switch {
	case req.Album == 0:
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Album ID is required"})
		return
	case strings.TrimSpace(req.ReviewText) == "":
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Review text is required"})
		return
	case req.Rating == 0:
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "Rating is required"})
		return
	}

	v := validator.New()
	v.Check(req.Rating >= 1, "rating", "Ensure this value is greater than or equal to 1.")
	v.Check(req.Rating <= 5, "rating", "Ensure this value is less than or equal to 5.")
	if err := v.Err(); err != nil {
		writeFieldErrors(w, err)
		return
	}

	review, err := s.data.CreateReview(claims.UserID, req)
	switch {
	case errors.Is(err, ErrAlreadyReviewed):
		writeJSON(w, http.StatusBadRequest, messageResponse{Message: "You have already reviewed this album"})
		return
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusBadRequest, map[string][]string{"album": {invalidPK(req.Album)}})
		return
	case err != nil:
		s.writeStoreError(w, r, err)
		return
	}

	s.metrics.reviewsPosted.Inc()
	writeJSON(w, http.StatusCreated, review)
}

func (s *Server) handleUpdateReview(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req api.ReviewUpdate
	if !decodeJSON(w, r, &req) {
		return
	}

	v := validator.New()
	v.Check(validator.Between(req.Rating, 1, 5), "rating", "Ensure this value is between 1 and 5.")
	v.Check(validator.NotBlank(req.ReviewText), "review_text", msgBlank)
	if err := v.Err(); err != nil {
		writeFieldErrors(w, err)
		return
	}

	review, err := s.data.UpdateReview(claims.UserID, pathID(r), req)
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func (s *Server) handleDeleteReview(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := s.data.DeleteReview(claims.UserID, pathID(r)); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleLike(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireUser(w, r)
	if !ok {
		return
	}
	liked, count, err := s.data.ToggleLike(claims.UserID, pathID(r))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}

	status := "unliked"
	if liked {
		status = "liked"
	}
	s.metrics.likeToggles.WithLabelValues(status).Inc()
	s.log.Debug().
		Int64("review_id", pathID(r)).
		Str("username", claims.Username).
		Str("status", status).
		Int("like_count", count).
		Msg("like toggled")
	writeJSON(w, http.StatusOK, toggleLikeResponse{Status: status, LikeCount: count})
}

// handleLikeStatus works anonymously; is_liked is then always false.
func (s *Server) handleLikeStatus(w http.ResponseWriter, r *http.Request) {
	liked, count, err := s.data.LikeStatus(viewerID(r), pathID(r))
	if err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, likeStatusResponse{LikeCount: count, IsLiked: liked})
}

func (s *Server) handleListLikes(w http.ResponseWriter, r *http.Request) {
	reviewID, ok := queryID(w, r, "review_id")
	if !ok {
		return
	}
	userID, ok := queryID(w, r, "user_id")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.data.Likes(api.LikeFilter{ReviewID: reviewID, UserID: userID}))
}

func (s *Server) handleCreateLike(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireUser(w, r)
	if !ok {
		return
	}
	var req api.LikeInput
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Review == 0 {
		writeJSON(w, http.StatusBadRequest, map[string][]string{"review": {msgRequired}})
		return
	}

	like, err := s.data.CreateLike(claims.UserID, req.Review)
	switch {
	case errors.Is(err, ErrAlreadyLiked):
		writeJSON(w, http.StatusBadRequest, map[string][]string{
			"non_field_errors": {"The fields user, review must make a unique set."},
		})
		return
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusBadRequest, map[string][]string{"review": {invalidPK(req.Review)}})
		return
	case err != nil:
		s.writeStoreError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, like)
}

func (s *Server) handleDeleteLike(w http.ResponseWriter, r *http.Request) {
	claims, ok := requireUser(w, r)
	if !ok {
		return
	}
	if err := s.data.DeleteLike(claims.UserID, pathID(r)); err != nil {
		s.writeStoreError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
