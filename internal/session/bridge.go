package session

import (
	"context"
	"sync"
	"time"

	"agribasket/internal/api"
	"agribasket/internal/logger"
	"agribasket/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

const (
	tokenKey  = "agribasket.auth.token"
	markerKey = "agribasket.auth.identity"
)

// AuthClient is the slice of the backend client the bridge needs.
type AuthClient interface {
	Token(ctx context.Context, email, password string) (string, error)
	Me(ctx context.Context) (*api.User, error)
}

// CartClearer lets the bridge wipe the cart on identity changes without
// depending on the cart package.
type CartClearer interface {
	Clear()
}

// Bridge tracks the signed-in identity and enforces cart isolation between
// different people sharing one device. The identity marker (last known
// signed-in email) lives in the durable area next to the cart; the access
// token goes to the durable area only when "remember me" was checked,
// otherwise to the session area.
type Bridge struct {
	mu      sync.Mutex
	client  AuthClient
	durable storage.Storage
	session storage.Storage
	cart    CartClearer
	user    *api.User
}

func NewBridge(client AuthClient, durable, session storage.Storage, cart CartClearer) *Bridge {
	return &Bridge{
		client:  client,
		durable: durable,
		session: session,
		cart:    cart,
	}
}

// StoredToken reads the access token from either area, durable first.
// Shared with the API client's TokenSource so outbound calls always carry
// the freshest credential.
func StoredToken(ctx context.Context, durable, session storage.Storage) string {
	for _, area := range []storage.Storage{durable, session} {
		if raw, ok, err := area.Get(ctx, tokenKey); err == nil && ok {
			return string(raw)
		}
	}
	return ""
}

// Boot resolves the startup state: no stored token means anonymous, a
// stored token is validated against the backend and dropped silently when
// rejected. Boot never returns an authentication error, boot-time failure
// degrades to anonymous.
func (b *Bridge) Boot(ctx context.Context) *api.User {
	token := StoredToken(ctx, b.durable, b.session)
	if token == "" {
		return nil
	}

	if tokenExpired(token) {
		logger.FromCtx(ctx).Debug("stored token already expired, skipping validation")
		b.dropToken(ctx)
		return nil
	}

	u, err := b.client.Me(ctx)
	if err != nil {
		logger.FromCtx(ctx).Debug("stored token rejected, booting anonymous", zap.Error(err))
		b.dropToken(ctx)
		return nil
	}

	b.mu.Lock()
	b.user = u
	b.mu.Unlock()
	return u
}

// Login authenticates against the backend. On success the token is stored
// (durable iff remember), the identity marker is rotated, and when the
// previous marker belongs to someone else the cart is cleared so carts
// never leak between users of the same device.
func (b *Bridge) Login(ctx context.Context, email, password string, remember bool) (*api.User, error) {
	log := logger.FromCtx(ctx)

	token, err := b.client.Token(ctx, email, password)
	if err != nil {
		log.Info("login rejected", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	// 1. place the token before fetching the profile, Me needs it
	b.dropToken(ctx)
	area := b.session
	if remember {
		area = b.durable
	}
	if err := area.Set(ctx, tokenKey, []byte(token)); err != nil {
		log.Warn("failed to store access token", zap.Error(err))
	}

	// 2. resolve the full profile
	u, err := b.client.Me(ctx)
	if err != nil {
		log.Error("profile fetch failed after login", zap.Error(err))
		b.dropToken(ctx)
		return nil, err
	}

	// 3. rotate the identity marker only once the login fully succeeded;
	//    an interrupted login must not disturb the previous identity
	identity := u.Email
	if identity == "" {
		identity = email
	}
	var previous string
	if raw, ok, err := b.durable.Get(ctx, markerKey); err == nil && ok {
		previous = string(raw)
	}
	if err := b.durable.Set(ctx, markerKey, []byte(identity)); err != nil {
		log.Warn("failed to store identity marker", zap.Error(err))
	}

	// 4. isolate carts across identities; a returning user keeps theirs
	if previous != "" && previous != identity {
		log.Info("identity changed, clearing cart")
		b.cart.Clear()
	}

	b.mu.Lock()
	b.user = u
	b.mu.Unlock()

	log.Info("login completed", zap.Int64("user_id", u.ID))
	return u, nil
}

// Logout clears the token, the identity marker, the in-memory user, and
// always empties the cart regardless of who was signed in.
func (b *Bridge) Logout(ctx context.Context) {
	b.dropToken(ctx)
	if err := b.durable.Delete(ctx, markerKey); err != nil {
		logger.FromCtx(ctx).Warn("failed to clear identity marker", zap.Error(err))
	}

	b.mu.Lock()
	b.user = nil
	b.mu.Unlock()

	b.cart.Clear()
}

// RefreshMe re-fetches the current profile, used after profile edits.
func (b *Bridge) RefreshMe(ctx context.Context) (*api.User, error) {
	u, err := b.client.Me(ctx)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	b.user = u
	b.mu.Unlock()
	return u, nil
}

// CurrentUser returns the in-memory profile, nil when anonymous.
func (b *Bridge) CurrentUser() *api.User {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.user
}

func (b *Bridge) dropToken(ctx context.Context) {
	for _, area := range []storage.Storage{b.durable, b.session} {
		if err := area.Delete(ctx, tokenKey); err != nil {
			logger.FromCtx(ctx).Warn("failed to drop access token", zap.Error(err))
		}
	}
}

// tokenExpired peeks at the exp claim without verifying the signature (the
// signing key lives on the backend). Opaque tokens or tokens without exp
// are left for the backend to judge.
func tokenExpired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
