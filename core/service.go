package core

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

type Service struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorFactory    ErrorFactory
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	oauthStateStore OAuthStateStore
	provider        Provider
	invoiceSource   InvoiceSource
	credentialStore CredentialStore
	credentialCodec CredentialCodec
	now             Clock
}

type ServiceDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorFactory    ErrorFactory
	ErrorMapper     ErrorMapper
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
	OAuthStateStore OAuthStateStore
	Provider        Provider
	InvoiceSource   InvoiceSource
	CredentialStore CredentialStore
	CredentialCodec CredentialCodec
	Clock           Clock
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("quickbooks", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("quickbooks"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.credentialCodec == nil {
		builder.credentialCodec = JSONCredentialCodec{}
	}
	if builder.clock == nil {
		builder.clock = systemClock
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.oauthStateStore == nil {
		builder.oauthStateStore = NewMemoryOAuthStateStore(finalConfig.OAuth.StateTTL)
	}
	if builder.credentialStore == nil {
		builder.credentialStore = NewMemoryCredentialStore(builder.credentialCodec)
	}

	return &Service{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorFactory:    builder.errorFactory,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		oauthStateStore: builder.oauthStateStore,
		provider:        builder.provider,
		invoiceSource:   builder.invoiceSource,
		credentialStore: builder.credentialStore,
		credentialCodec: builder.credentialCodec,
		now:             builder.clock,
	}, nil
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:          s.logger,
		LoggerProvider:  s.loggerProvider,
		MetricsRecorder: s.metricsRecorder,
		ErrorFactory:    s.errorFactory,
		ErrorMapper:     s.errorMapper,
		ConfigProvider:  s.configProvider,
		OptionsResolver: s.optionsResolver,
		OAuthStateStore: s.oauthStateStore,
		Provider:        s.provider,
		InvoiceSource:   s.invoiceSource,
		CredentialStore: s.credentialStore,
		CredentialCodec: s.credentialCodec,
		Clock:           s.now,
	}
}

// Connect builds the provider authorization URL. With state verification on,
// the generated state is saved so the callback can consume it once.
func (s *Service) Connect(ctx context.Context, req ConnectRequest) (response BeginAuthResponse, err error) {
	startedAt := time.Now().UTC()
	fields := s.baseFields()
	defer func() {
		s.observeOperation(ctx, startedAt, "connect", err, fields)
	}()

	if s.provider == nil {
		err = s.mapError(fmt.Errorf("core: provider is not configured"))
		return BeginAuthResponse{}, err
	}

	state := strings.TrimSpace(req.State)
	if state == "" {
		generated, generateErr := GenerateOAuthState()
		if generateErr != nil {
			err = s.mapError(generateErr)
			return BeginAuthResponse{}, err
		}
		state = generated
	}

	redirectURI := s.config.RedirectURI()
	response, err = s.provider.BeginAuth(ctx, BeginAuthRequest{
		RedirectURI: redirectURI,
		State:       state,
		Scopes:      append([]string(nil), s.config.QuickBooks.Scopes...),
	})
	if err != nil {
		err = s.mapError(err)
		return BeginAuthResponse{}, err
	}
	if strings.TrimSpace(response.State) == "" {
		response.State = state
	}

	if s.config.OAuth.VerifyState && s.oauthStateStore != nil {
		saveErr := s.oauthStateStore.Save(ctx, OAuthStateRecord{
			State:       response.State,
			RedirectURI: redirectURI,
			Metadata:    copyAnyMap(req.Metadata),
		})
		if saveErr != nil {
			err = s.mapError(saveErr)
			return BeginAuthResponse{}, err
		}
	}

	return response, nil
}

// CompleteCallback exchanges the authorization code once and returns the
// landing redirect carrying the serialized credential. The server keeps no
// copy of the credential.
func (s *Service) CompleteCallback(ctx context.Context, req CallbackRequest) (completion CallbackCompletion, err error) {
	startedAt := time.Now().UTC()
	fields := s.baseFields()
	defer func() {
		s.observeOperation(ctx, startedAt, "complete_callback", err, fields)
	}()

	code := strings.TrimSpace(req.Code)
	realmID := strings.TrimSpace(req.RealmID)
	fields["realm_id"] = realmID
	if code == "" || realmID == "" {
		err = newServiceError(MissingParametersMessage, goerrors.CategoryBadInput, ServiceErrorBadInput)
		return CallbackCompletion{}, err
	}
	if s.config.OAuth.VerifyState {
		if err = s.validateOAuthCallbackState(ctx, req); err != nil {
			err = s.mapError(err)
			return CallbackCompletion{}, err
		}
	}
	if s.provider == nil {
		err = s.mapError(fmt.Errorf("core: provider is not configured"))
		return CallbackCompletion{}, err
	}

	credential, err := s.provider.CompleteAuth(ctx, CompleteAuthRequest{
		Code:        code,
		RealmID:     realmID,
		RedirectURI: s.config.RedirectURI(),
	})
	if err != nil {
		err = wrapServiceError(err, goerrors.CategoryExternal, ServiceErrorTokenExchangeFailed, "core: quickbooks token exchange failed")
		return CallbackCompletion{}, err
	}
	credential.RealmID = realmID

	redirectURL, err := s.landingRedirect(credential)
	if err != nil {
		err = s.mapError(err)
		return CallbackCompletion{}, err
	}

	return CallbackCompletion{Credential: credential, RedirectURL: redirectURL}, nil
}

func (s *Service) validateOAuthCallbackState(ctx context.Context, req CallbackRequest) error {
	state := strings.TrimSpace(req.State)
	if state == "" {
		return fmt.Errorf("core: oauth state is required")
	}
	if expected := strings.TrimSpace(req.ExpectedState); expected != state {
		return fmt.Errorf("core: oauth state mismatch")
	}
	if s.oauthStateStore == nil {
		return fmt.Errorf("core: oauth state store is not configured")
	}
	if _, err := s.oauthStateStore.Consume(ctx, state); err != nil {
		return err
	}
	return nil
}

// landingRedirect attaches the encoded credential as the single auth query
// parameter on the landing path.
func (s *Service) landingRedirect(credential Credential) (string, error) {
	payload, err := s.credentialCodec.Encode(credential)
	if err != nil {
		return "", err
	}
	landing, err := url.Parse(s.config.LandingPath())
	if err != nil {
		return "", fmt.Errorf("core: landing path is invalid: %w", err)
	}
	query := landing.Query()
	query.Set(AuthQueryParam, string(payload))
	landing.RawQuery = query.Encode()
	return landing.String(), nil
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) baseFields() map[string]any {
	return map[string]any{
		"provider_id": s.providerID(),
		"environment": s.config.QuickBooks.Environment,
	}
}

func (s *Service) providerID() string {
	if s == nil || s.provider == nil {
		return ""
	}
	return s.provider.ID()
}

// AuthQueryParam carries the serialized credential on the landing redirect.
const AuthQueryParam = "auth"
