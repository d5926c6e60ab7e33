package services

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
)

// Callback states. Ignored and AwaitingToken are terminal no-ops from this
// service's point of view; SessionEstablished carries a navigation target.
const (
	CallbackIgnored            = "IGNORED"
	CallbackAwaitingToken      = "AWAITING_TOKEN"
	CallbackSessionEstablished = "SESSION_ESTABLISHED"
	CallbackFailed             = "FAILED"
)

// Navigation targets handed back to the client once a session exists.
const (
	NavigateNone            = ""
	NavigateHome            = "home"
	NavigateCompleteProfile = "complete-profile"
)

// appCallbackMarker identifies redirect URLs addressed to the app itself,
// e.g. pocketfund://auth-callback#access_token=...
const appCallbackMarker = "auth-callback"

type CallbackResult struct {
	State      string   `json:"state"`
	Navigation string   `json:"navigation,omitempty"`
	Session    *Session `json:"session,omitempty"`
}

// CallbackClass is the tagged outcome of classifying an inbound URL.
type CallbackClass struct {
	ProviderVerification bool
	AppCallback          bool
	Token                string
	OTPType              string
	Params               url.Values
}

// classifyCallbackURL maps a raw deep-link URL onto one of three shapes:
// a provider verification link (token + type in the query), an app callback
// (marker in the URL, params in fragment or query, fragment first since
// bearer tokens ride the fragment to stay out of server logs), or
// unrecognized. Pure function; no network.
func classifyCallbackURL(raw string) (CallbackClass, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return CallbackClass{}, fmt.Errorf("%w: %v", ErrMalformedCallback, err)
	}

	// The marker only counts when it addresses the URL itself; providers
	// routinely embed the app deep link in a redirect_to parameter and
	// such a link is still theirs to verify.
	addressedToApp := strings.Contains(u.Host+u.Path, appCallbackMarker)

	query := u.Query()
	if token := query.Get("token"); token != "" && query.Get("type") != "" && !addressedToApp {
		return CallbackClass{
			ProviderVerification: true,
			Token:                token,
			OTPType:              query.Get("type"),
		}, nil
	}

	if addressedToApp {
		params := query
		if u.Fragment != "" {
			if fragParams, err := url.ParseQuery(u.Fragment); err == nil {
				params = fragParams
			}
		}
		return CallbackClass{
			AppCallback: true,
			Params:      params,
		}, nil
	}

	return CallbackClass{}, nil
}

// CallbackService drives the auth deep-link state machine against the
// external identity provider.
type CallbackService struct {
	provider IdentityProvider
}

func NewCallbackService(provider IdentityProvider) *CallbackService {
	return &CallbackService{
		provider: provider,
	}
}

// ProcessCallback classifies an inbound URL and reacts to it. Errors hit
// while merely classifying or probing are logged and swallowed — a stray
// URL must never crash the caller. Errors after committing to a token
// exchange propagate so the caller can prompt a retry.
//
// Launch-time and runtime URL deliveries both land here with no in-process
// dedup; a replayed one-time token is rejected by the provider and that
// rejection is surfaced. Known race, accepted.
func (s *CallbackService) ProcessCallback(ctx context.Context, rawURL string) (*CallbackResult, error) {
	class, err := classifyCallbackURL(rawURL)
	if err != nil {
		log.Printf("[AUTH] Ignoring unparseable callback URL: %v", err)
		return &CallbackResult{State: CallbackFailed}, nil
	}

	switch {
	case class.ProviderVerification:
		return s.handleVerification(ctx, class), nil

	case class.AppCallback:
		return s.handleAppCallback(ctx, class.Params)

	default:
		return &CallbackResult{State: CallbackIgnored}, nil
	}
}

func (s *CallbackService) handleVerification(ctx context.Context, class CallbackClass) *CallbackResult {
	if class.OTPType != "signup" {
		log.Printf("[AUTH] Skipping verification link with type %q", class.OTPType)
		return &CallbackResult{State: CallbackIgnored}
	}

	session, err := s.provider.VerifyOTP(ctx, class.Token, class.OTPType)
	if err != nil {
		// Provider-reported failure (expired or replayed token). Logged,
		// never re-thrown: the user stays on the sign-in screen.
		log.Printf("[AUTH] OTP verification failed: %v", err)
		return &CallbackResult{State: CallbackFailed}
	}

	log.Printf("[AUTH] OTP verified, session established for user %s", session.User.ID)
	return &CallbackResult{
		State:   CallbackSessionEstablished,
		Session: session,
	}
}

func (s *CallbackService) handleAppCallback(ctx context.Context, params url.Values) (*CallbackResult, error) {
	accessToken := params.Get("access_token")
	refreshToken := params.Get("refresh_token")

	if accessToken != "" && refreshToken != "" {
		session, err := s.provider.SetSession(ctx, accessToken, refreshToken)
		if err != nil {
			// Past the point of commitment: the caller must see this.
			return nil, err
		}

		navigation := NavigateCompleteProfile
		if session.User.FullName() != "" {
			navigation = NavigateHome
		}

		log.Printf("[AUTH] Session established for user %s, navigating to %s", session.User.ID, navigation)
		return &CallbackResult{
			State:      CallbackSessionEstablished,
			Navigation: navigation,
			Session:    session,
		}, nil
	}

	if params.Get("token") != "" {
		// Single-use token with no session pair: a dedicated screen
		// consumes it; nothing to exchange here.
		return &CallbackResult{State: CallbackAwaitingToken}, nil
	}

	log.Printf("[AUTH] App callback carried no usable parameters: %v", ErrMalformedCallback)
	return &CallbackResult{State: CallbackFailed}, nil
}
