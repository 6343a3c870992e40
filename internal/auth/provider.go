package auth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/patrickmn/go-cache"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/desertthunder/linkbox/internal/backend"
	"github.com/desertthunder/linkbox/internal/models"
	"github.com/desertthunder/linkbox/internal/realtime"
	"github.com/desertthunder/linkbox/internal/repositories"
	"github.com/desertthunder/linkbox/internal/server"
	"github.com/desertthunder/linkbox/internal/shared"
)

// ProviderGoogle is the only provider with a built-in endpoint.
const ProviderGoogle = "google"

var defaultScopes = []string{
	"https://www.googleapis.com/auth/userinfo.email",
	"https://www.googleapis.com/auth/userinfo.profile",
}

// Options configures a [Provider].
type Options struct {
	Config   shared.AuthConfig
	Accounts *repositories.AccountRepository
	Sessions *repositories.SessionRepository
	// Broker is optional; when bridged, session changes are shared with other processes.
	Broker *realtime.Broker
	Logger *log.Logger
	// HTTPClient is used for the token exchange and the userinfo request.
	HTTPClient *http.Client
	// OpenBrowser opens the consent page. Defaults to [shared.OpenBrowser].
	OpenBrowser func(url string) error
	// Endpoint and UserInfoURL override the provider defaults.
	Endpoint        *oauth2.Endpoint
	UserInfoURL     string
	CallbackTimeout time.Duration
}

// Provider implements [backend.AuthProvider].
type Provider struct {
	cfg         shared.AuthConfig
	accounts    *repositories.AccountRepository
	sessions    *repositories.SessionRepository
	broker      *realtime.Broker
	logger      *log.Logger
	httpClient  *http.Client
	openBrowser func(string) error
	endpoint    oauth2.Endpoint
	userInfoURL string
	timeout     time.Duration

	tokens  *TokenIssuer
	cache   *cache.Cache
	changes *realtime.Hub[models.SessionChange]
	remote  *realtime.Subscription[realtime.SessionSignal]
	done    chan struct{}

	mu     sync.Mutex
	timer  *time.Timer
	armed  string
	closed bool
}

var _ backend.AuthProvider = (*Provider)(nil)

// NewProvider creates a provider. Call [Provider.Close] to stop its timers and watchers.
func NewProvider(opts Options) *Provider {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = shared.WithLogger(logger, "component", "auth")

	p := &Provider{
		cfg:         opts.Config,
		accounts:    opts.Accounts,
		sessions:    opts.Sessions,
		broker:      opts.Broker,
		logger:      logger,
		httpClient:  opts.HTTPClient,
		openBrowser: opts.OpenBrowser,
		endpoint:    google.Endpoint,
		userInfoURL: GoogleUserInfoURL,
		timeout:     opts.CallbackTimeout,
		tokens:      NewTokenIssuer(opts.Config.SessionSecret, opts.Config.SessionTTL.Duration),
		cache:       cache.New(5*time.Minute, 10*time.Minute),
		changes:     realtime.NewLatestHub[models.SessionChange]("sessions", logger),
		done:        make(chan struct{}),
	}

	if p.httpClient == nil {
		p.httpClient = http.DefaultClient
	}
	if p.openBrowser == nil {
		p.openBrowser = shared.OpenBrowser
	}
	if opts.Endpoint != nil {
		p.endpoint = *opts.Endpoint
	}
	if opts.UserInfoURL != "" {
		p.userInfoURL = opts.UserInfoURL
	}
	if p.timeout <= 0 {
		p.timeout = server.DefaultCallbackTimeout
	}

	if p.broker != nil && p.broker.Bridged() {
		p.remote = p.broker.SubscribeSessions()
		go p.watchRemote()
	} else {
		close(p.done)
	}
	return p
}

// CurrentSession returns the stored session, or nil when signed out or expired.
// A stored token that fails verification is an error.
func (p *Provider) CurrentSession(ctx context.Context) (*models.Session, error) {
	s, err := p.sessions.Current(ctx)
	if errors.Is(err, shared.ErrSessionNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	if _, found := p.cache.Get(s.Token); !found {
		claims, err := p.tokens.Verify(s.Token)
		switch {
		case errors.Is(err, shared.ErrTokenExpired):
			p.logger.Info("stored session expired", "account", s.AccountID)
			if err := p.sessions.Clear(ctx); err != nil {
				p.logger.Warn("failed to clear expired session", "error", err)
			}
			return nil, nil
		case err != nil:
			return nil, err
		case claims.Subject != s.AccountID:
			return nil, fmt.Errorf("%w: token subject does not match stored account", shared.ErrInvalidToken)
		}
		p.cache.Set(s.Token, claims.Subject, time.Until(s.ExpiresAt))
	}

	p.arm(s)
	return s, nil
}

// OnSessionChange returns a handle receiving every later sign-in and sign-out.
func (p *Provider) OnSessionChange() backend.Subscription[models.SessionChange] {
	return p.changes.Subscribe(nil)
}

// SignOut clears the stored session and notifies watchers. Signing out twice is not an error.
func (p *Provider) SignOut(ctx context.Context) error {
	s, err := p.sessions.Current(ctx)
	if err != nil && !errors.Is(err, shared.ErrSessionNotFound) {
		return fmt.Errorf("failed to load session: %w", err)
	}

	if err := p.sessions.Clear(ctx); err != nil {
		return err
	}
	p.cache.Flush()
	p.disarm()

	account := s.Owner()
	p.logger.Info("signed out", "account", account)
	p.changes.Publish(models.SessionChange{})
	if p.broker != nil {
		p.broker.AnnounceSession(ctx, realtime.SessionSignal{AccountID: account, SignedIn: false})
	}
	return nil
}

// SignInWithOAuth runs the authorization code flow for provider and stores the new session.
//
// opts.RedirectTarget overrides the configured redirect URI. A port of 0 binds any free port.
func (p *Provider) SignInWithOAuth(ctx context.Context, provider string, opts backend.SignInOptions) (*models.Session, error) {
	if provider == "" {
		provider = p.cfg.Provider
	}
	if !strings.EqualFold(provider, ProviderGoogle) {
		return nil, fmt.Errorf("%w: %s", shared.ErrUnsupportedProvider, provider)
	}
	if p.cfg.ClientID == "" || p.cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: auth.client_id and auth.client_secret are required", shared.ErrMissingCredentials)
	}

	redirect := opts.RedirectTarget
	if redirect == "" {
		redirect = p.cfg.RedirectURI
	}
	target, err := url.Parse(redirect)
	if err != nil || target.Host == "" {
		return nil, fmt.Errorf("%w: redirect target %q", shared.ErrInvalidConfig, redirect)
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}

	scopes := p.cfg.Scopes
	if len(scopes) == 0 {
		scopes = defaultScopes
	}
	conf := &oauth2.Config{
		ClientID:     p.cfg.ClientID,
		ClientSecret: p.cfg.ClientSecret,
		Scopes:       scopes,
		Endpoint:     p.endpoint,
	}

	handler := server.NewOAuthHandler(conf, state, target.Path)
	srv, err := server.StartCallbackServer(target.Host, handler, p.logger)
	if err != nil {
		return nil, err
	}
	defer srv.Shutdown(context.Background())

	if _, port, _ := net.SplitHostPort(target.Host); port == "0" {
		target.Host = srv.Addr()
	}
	conf.RedirectURL = target.String()

	authURL := conf.AuthCodeURL(state, oauth2.AccessTypeOnline)
	p.logger.Info("waiting for sign-in", "provider", provider, "redirect", conf.RedirectURL)
	if err := p.openBrowser(authURL); err != nil {
		p.logger.Warn("could not open browser, visit the URL manually", "url", authURL, "error", err)
	}

	exchangeCtx := context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	token, err := srv.Wait(exchangeCtx, p.timeout)
	if err != nil {
		return nil, err
	}

	profile, err := FetchProfile(exchangeCtx, conf.Client(exchangeCtx, token), p.userInfoURL)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		Provider: strings.ToLower(provider),
		Subject:  profile.ID,
		Email:    profile.Email,
		Name:     profile.Name,
	}
	if err := p.accounts.Upsert(ctx, account); err != nil {
		return nil, err
	}

	return p.establish(ctx, account)
}

// establish issues, stores and announces a session for account.
func (p *Provider) establish(ctx context.Context, account *models.Account) (*models.Session, error) {
	s, err := p.tokens.Issue(account)
	if err != nil {
		return nil, err
	}
	if err := p.sessions.Save(ctx, s); err != nil {
		return nil, err
	}

	p.cache.Flush()
	p.cache.Set(s.Token, s.AccountID, time.Until(s.ExpiresAt))
	p.arm(s)

	p.logger.Info("signed in", "account", s.AccountID, "email", s.Email)
	p.changes.Publish(models.SessionChange{Session: s})
	if p.broker != nil {
		p.broker.AnnounceSession(ctx, realtime.SessionSignal{AccountID: s.AccountID, SignedIn: true})
	}
	return s, nil
}

// Close stops the expiry timer and remote watcher and closes every change handle.
func (p *Provider) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	if p.timer != nil {
		p.timer.Stop()
	}
	p.mu.Unlock()

	if p.remote != nil {
		p.remote.Close()
	}
	<-p.done
	p.changes.Close()
	return nil
}

// arm schedules a signed-out change at the session's expiry.
func (p *Provider) arm(s *models.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed || p.armed == s.Token {
		return
	}
	if p.timer != nil {
		p.timer.Stop()
	}

	token := s.Token
	p.armed = token
	p.timer = time.AfterFunc(time.Until(s.ExpiresAt), func() { p.expire(token) })
}

func (p *Provider) disarm() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.armed = ""
}

func (p *Provider) expire(token string) {
	p.mu.Lock()
	if p.closed || p.armed != token {
		p.mu.Unlock()
		return
	}
	p.armed = ""
	p.timer = nil
	p.mu.Unlock()

	ctx := context.Background()
	current, err := p.sessions.Current(ctx)
	if err != nil || current.Token != token {
		return
	}

	p.logger.Info("session expired", "account", current.AccountID)
	p.cache.Delete(token)
	if err := p.sessions.Clear(ctx); err != nil {
		p.logger.Warn("failed to clear expired session", "error", err)
	}
	p.changes.Publish(models.SessionChange{})
}

// watchRemote re-reads the shared session whenever another process signs in or out.
func (p *Provider) watchRemote() {
	defer close(p.done)

	for sig := range p.remote.C() {
		p.logger.Debug("remote session change", "account", sig.AccountID, "signed_in", sig.SignedIn)
		p.cache.Flush()

		if !sig.SignedIn {
			p.disarm()
			p.changes.Publish(models.SessionChange{})
			continue
		}

		s, err := p.CurrentSession(context.Background())
		if err != nil {
			p.logger.Warn("failed to reload session after remote change", "error", err)
			continue
		}
		p.changes.Publish(models.SessionChange{Session: s})
	}
}
