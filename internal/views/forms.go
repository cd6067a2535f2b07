package views

import (
	"context"
	"errors"
	"strings"
	"sync"

	"albumreviews/internal/api"
	"albumreviews/internal/gateway"
	"albumreviews/internal/nav"
	"albumreviews/internal/session"
	"albumreviews/internal/validator"
)

// Messages shown by the forms.
const (
	MsgRatingRequired    = "Please select a rating"
	MsgRatingRange       = "Rating must be between 1 and 5"
	MsgReviewTextMissing = "Review text is required"
	MsgReviewFailed      = "Failed to submit review. Please try again."
	MsgUsernameRequired  = "Username is required"
	MsgPasswordRequired  = "Password is required"
	MsgLoginFailed       = "Login failed"
	MsgInvalidLogin      = "Invalid username or password"
	MsgLoginSucceeded    = "Login successful!"
	MsgSignupFailed      = "Signup failed"
	MsgSignupSucceeded   = "Account created! You can now log in."

	accountCreated = "Account created successfully"
	defaultRating  = 5
)

// ReviewForm submits a rating and text for one album.
type ReviewForm struct {
	albumID int64
	deps    Deps
	onAdded func(ctx context.Context) error

	mu         sync.Mutex
	rating     int
	text       string
	submitting bool
	message    string
	fields     map[string]string
}

// NewReviewForm starts with a rating of 5. onAdded runs after a successful
// submission.
func NewReviewForm(albumID int64, deps Deps, onAdded func(ctx context.Context) error) *ReviewForm {
	return &ReviewForm{
		albumID: albumID,
		deps:    deps,
		onAdded: onAdded,
		rating:  defaultRating,
	}
}

func (f *ReviewForm) SetRating(rating int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rating = rating
}

func (f *ReviewForm) SetText(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = text
}

// Values returns the current rating and text.
func (f *ReviewForm) Values() (rating int, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rating, f.text
}

// Message returns the form-level error message, if any.
func (f *ReviewForm) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// FieldErrors returns the per-field messages of the last validation.
func (f *ReviewForm) FieldErrors() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]string, len(f.fields))
	for k, v := range f.fields {
		out[k] = v
	}
	return out
}

// ValidateReview checks a review before it is sent.
func ValidateReview(v *validator.Validator, rating int, text string) {
	v.Check(rating != 0, "rating", MsgRatingRequired)
	v.Check(validator.Between(rating, 1, 5), "rating", MsgRatingRange)
	v.Check(validator.NotBlank(text), "review_text", MsgReviewTextMissing)
}

// Submit validates and sends the review. Anonymous users are sent to login
// and invalid input is rejected, both without a network call.
func (f *ReviewForm) Submit(ctx context.Context) (api.Review, error) {
	if err := f.deps.requireSession(); err != nil {
		return api.Review{}, err
	}

	f.mu.Lock()
	if f.submitting {
		f.mu.Unlock()
		return api.Review{}, ErrSubmitInFlight
	}
	v := validator.New()
	ValidateReview(v, f.rating, f.text)
	f.fields = v.Errors
	f.message = ""
	if !v.Valid() {
		f.mu.Unlock()
		return api.Review{}, v.Err()
	}
	f.submitting = true
	in := api.ReviewInput{Album: f.albumID, Rating: f.rating, ReviewText: strings.TrimSpace(f.text)}
	f.mu.Unlock()

	review, err := f.deps.Reviews.Create(ctx, in)

	f.mu.Lock()
	f.submitting = false
	if err != nil {
		if !errors.Is(err, gateway.ErrUnauthorized) {
			f.message = messageOr(err, MsgReviewFailed)
		}
		f.mu.Unlock()
		f.deps.Log.Error().Err(err).Int64("album_id", f.albumID).Msg("submit review failed")
		return api.Review{}, err
	}
	f.text = ""
	f.rating = defaultRating
	f.mu.Unlock()

	if f.onAdded != nil {
		if err := f.onAdded(ctx); err != nil {
			f.deps.Log.Warn().Err(err).Int64("album_id", f.albumID).Msg("refresh after review failed")
		}
	}
	return review, nil
}

// AuthForm is the shared state of the login and signup forms.
type AuthForm struct {
	mu      sync.Mutex
	message string
	success string
}

// Message returns the last error message.
func (f *AuthForm) Message() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.message
}

// Success returns the last success message.
func (f *AuthForm) Success() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.success
}

func (f *AuthForm) set(message, success string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.message, f.success = message, success
}

func validateCredentials(username, password string) error {
	v := validator.New()
	v.Check(validator.NotBlank(username), "username", MsgUsernameRequired)
	v.Check(password != "", "password", MsgPasswordRequired)
	return v.Err()
}

// LoginForm signs the user in. It is the one view that shows the message of
// a rejected login itself.
type LoginForm struct {
	AuthForm
	deps Deps
}

func NewLoginForm(deps Deps) *LoginForm {
	return &LoginForm{deps: deps}
}

// Submit logs in, stores the session and opens the album list.
func (f *LoginForm) Submit(ctx context.Context, username, password string) error {
	if err := validateCredentials(username, password); err != nil {
		f.set(Describe(err), "")
		return err
	}

	res, err := f.deps.Auth.Login(ctx, strings.TrimSpace(username), password)
	if err != nil {
		f.set(messageOr(err, MsgInvalidLogin), "")
		return err
	}
	if res.Token == "" {
		msg := res.Message
		if msg == "" {
			msg = MsgLoginFailed
		}
		f.set(msg, "")
		return errors.New(msg)
	}

	user := &session.User{ID: res.UserID, Username: res.Username}
	if err := f.deps.Sessions.Set(ctx, res.Token, user); err != nil {
		f.set(MsgLoginFailed, "")
		return err
	}
	f.set("", MsgLoginSucceeded)
	f.deps.navigate(nav.Albums)
	return nil
}

// SignupForm registers an account. The user logs in afterwards.
type SignupForm struct {
	AuthForm
	deps Deps
}

func NewSignupForm(deps Deps) *SignupForm {
	return &SignupForm{deps: deps}
}

// Submit registers the account and opens the login page on success.
func (f *SignupForm) Submit(ctx context.Context, creds api.Credentials) error {
	if err := validateCredentials(creds.Username, creds.Password); err != nil {
		f.set(Describe(err), "")
		return err
	}
	creds.Username = strings.TrimSpace(creds.Username)

	res, err := f.deps.Auth.Register(ctx, creds)
	if err != nil {
		f.set(messageOr(err, MsgSignupFailed), "")
		return err
	}
	if res.Message != accountCreated {
		msg := res.Message
		if msg == "" {
			msg = MsgSignupFailed
		}
		f.set(msg, "")
		return errors.New(msg)
	}

	f.set("", MsgSignupSucceeded)
	f.deps.navigate(nav.Login)
	return nil
}

// messageOr prefers the backend's own explanation.
func messageOr(err error, fallback string) string {
	if msg := gateway.Message(err); msg != "" {
		return msg
	}
	return fallback
}
