package flows

import "context"

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Validate.Codec != nil
}

func (s Service) Mint(subject string) MintResult {
	return RunMint(subject, s.deps.Mint)
}

func (s Service) ValidateAccess(tokenStr string) ValidateResult {
	return RunValidateAccess(tokenStr, s.deps.Validate)
}

func (s Service) Rotate(ctx context.Context, refreshToken string) RotateResult {
	return RunRotate(ctx, refreshToken, s.deps.Rotate)
}

func (s Service) Logout(ctx context.Context, tokenStr string) LogoutResult {
	return RunLogout(ctx, tokenStr, s.deps.Logout)
}

func (s Service) Recover(ctx context.Context, accessToken, refreshToken string) RecoverResult {
	return RunRecover(ctx, accessToken, refreshToken, s.deps.Recover)
}

func (s Service) Login(ctx context.Context, email, password string) LoginResult {
	return RunLogin(ctx, email, password, s.deps.Login)
}

func (s Service) Register(ctx context.Context, email, password, passwordConfirm string) RegisterResult {
	return RunRegister(ctx, email, password, passwordConfirm, s.deps.Register)
}
