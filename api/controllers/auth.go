package controllers

import (
	"net/http"
	"time"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/api/validators"
	"github.com/angelmondragon/storefront/internal/session"
	"github.com/angelmondragon/storefront/pkg/logger"
)

type signUpRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
	DisplayName string `json:"display_name" validate:"max=120"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type identityResponse struct {
	UserID      string    `json:"user_id"`
	Email       string    `json:"email"`
	AccessToken string    `json:"access_token,omitempty"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type sessionResponse struct {
	Authenticated bool              `json:"authenticated"`
	Loading       bool              `json:"loading"`
	User          *identityResponse `json:"user,omitempty"`
}

func toIdentityResponse(identity *session.Identity, withToken bool) *identityResponse {
	if identity == nil {
		return nil
	}
	resp := &identityResponse{
		UserID:    identity.UserID.String(),
		Email:     identity.Email,
		ExpiresAt: identity.ExpiresAt,
	}
	if withToken {
		resp.AccessToken = identity.AccessToken
	}
	return resp
}

// AuthSignUp creates an account and signs the device in.
func AuthSignUp(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := deviceClient(w, r, logg)
		if !ok {
			return
		}
		var body signUpRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		identity, err := client.Session().SignUp(r.Context(), body.Email, body.Password, validators.SanitizeString(body.DisplayName, 120))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toIdentityResponse(identity, true))
	}
}

func AuthSignIn(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := deviceClient(w, r, logg)
		if !ok {
			return
		}
		var body signInRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		identity, err := client.Session().SignIn(r.Context(), body.Email, body.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toIdentityResponse(identity, true))
	}
}

func AuthSignOut(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := deviceClient(w, r, logg)
		if !ok {
			return
		}
		if err := client.Session().SignOut(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"signed_out": true})
	}
}

// AuthSession reports the device's current identity without the token.
func AuthSession(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := deviceClient(w, r, logg)
		if !ok {
			return
		}
		store := client.Session()
		identity := store.Identity()
		responses.WriteSuccess(w, sessionResponse{
			Authenticated: identity != nil,
			Loading:       store.Loading(),
			User:          toIdentityResponse(identity, false),
		})
	}
}

func ProfileGet(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := deviceClient(w, r, logg)
		if !ok {
			return
		}
		profile, err := client.Session().Profile(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}

// ProfileUpdate writes the fields present in the body. Unknown fields are
// dropped by the session store.
func ProfileUpdate(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, ok := deviceClient(w, r, logg)
		if !ok {
			return
		}
		fields, err := validators.DecodeJSONObject(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		profile, err := client.Session().UpdateProfile(r.Context(), fields)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, profile)
	}
}
