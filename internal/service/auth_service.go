package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"time"

	"dev3-backend/internal/core/domain"
	"dev3-backend/internal/core/ports"
	"dev3-backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AuthOptions tunes AuthServiceImpl.
type AuthOptions struct {
	RPCTimeout time.Duration // bound on the key oracle call
	ReplayTTL  time.Duration // 0 disables the replay guard
}

// AuthServiceImpl implements ports.AuthService.
type AuthServiceImpl struct {
	accountRepo ports.AccountRepository
	verifier    ports.SignatureVerifier
	oracle      ports.KeyOracle
	tokenSvc    ports.TokenService
	nonceStore  ports.NonceStore // nil = replay guard disabled
	opts        AuthOptions
	log         zerolog.Logger
}

// NewAuthService creates a new AuthServiceImpl.
func NewAuthService(
	accountRepo ports.AccountRepository,
	verifier ports.SignatureVerifier,
	oracle ports.KeyOracle,
	tokenSvc ports.TokenService,
	nonceStore ports.NonceStore,
	opts AuthOptions,
	log zerolog.Logger,
) *AuthServiceImpl {
	if opts.RPCTimeout <= 0 {
		opts.RPCTimeout = 5 * time.Second
	}
	return &AuthServiceImpl{
		accountRepo: accountRepo,
		verifier:    verifier,
		oracle:      oracle,
		tokenSvc:    tokenSvc,
		nonceStore:  nonceStore,
		opts:        opts,
		log:         log,
	}
}

// Login verifies a wallet-signed payload, confirms the key on chain and
// issues a session token for the existing account.
func (s *AuthServiceImpl) Login(ctx context.Context, username, signedJSON string) (string, time.Time, error) {
	if err := s.confirmWalletKey(ctx, username, signedJSON); err != nil {
		return "", time.Time{}, err
	}

	account, err := s.accountRepo.FindByIdentifier(ctx, username)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("find account: %w", err))
	}
	if account == nil {
		return "", time.Time{}, apperror.ErrAccountNotFound()
	}
	if !account.IsActive {
		return "", time.Time{}, apperror.ErrAccountSuspended()
	}

	token, expiry, err := s.tokenSvc.Generate(account)
	if err != nil {
		return "", time.Time{}, apperror.InternalError(fmt.Errorf("generate token: %w", err))
	}

	// Only a payload that actually buys a session is spent.
	if err := s.consumePayload(ctx, "login", username, signedJSON); err != nil {
		return "", time.Time{}, err
	}

	s.log.Info().Str("uid", account.UID).Msg("wallet session issued")
	return token, expiry, nil
}

// Register creates an account for a wallet that proves control of an on-chain key.
func (s *AuthServiceImpl) Register(ctx context.Context, req ports.RegisterRequest) (*domain.Account, error) {
	if !domain.IsNearAccountID(req.Username) {
		return nil, apperror.Validation("username must be a NEAR account id")
	}
	roles := req.Roles
	if len(roles) == 0 {
		roles = []domain.Role{domain.RoleCustomer}
	}
	for _, r := range roles {
		if !domain.ValidRole(r) || r == domain.RoleAdmin {
			return nil, apperror.Validation(fmt.Sprintf("role %q cannot be requested", r))
		}
	}

	if err := s.confirmWalletKey(ctx, req.Username, req.SignedJSON); err != nil {
		return nil, err
	}

	existing, err := s.accountRepo.FindByIdentifier(ctx, req.Username)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("check account: %w", err))
	}
	if existing != nil {
		return nil, apperror.ErrAccountExists()
	}

	if err := s.consumePayload(ctx, "register", req.Username, req.SignedJSON); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	wallet := req.Username
	account := &domain.Account{
		ID:                  uuid.New(),
		UID:                 req.Username,
		AccountType:         domain.AccountTypeNear,
		Username:            req.Username,
		NearWalletAccountID: &wallet,
		Roles:               slices.Clone(roles),
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		if errors.Is(err, domain.ErrDuplicate) {
			return nil, apperror.ErrAccountExists()
		}
		return nil, apperror.InternalError(fmt.Errorf("create account: %w", err))
	}

	s.log.Info().Str("uid", account.UID).Msg("wallet account registered")
	return account, nil
}

// confirmWalletKey runs signature verification then the on-chain key check.
func (s *AuthServiceImpl) confirmWalletKey(ctx context.Context, accountID, signedJSON string) error {
	publicKey, err := s.verifier.Verify(accountID, signedJSON)
	if err != nil {
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return apperror.ErrInvalidSignature(err)
	}

	rpcCtx, cancel := context.WithTimeout(ctx, s.opts.RPCTimeout)
	defer cancel()

	keys, err := s.oracle.FetchAuthorizedKeys(rpcCtx, accountID)
	if err != nil {
		s.log.Warn().Err(err).Str("account_id", accountID).Msg("key oracle unavailable")
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			return err
		}
		return apperror.ErrNetwork(err)
	}

	if !slices.Contains(keys, publicKey) {
		return apperror.ErrKeyNotAuthorized()
	}
	return nil
}

// consumePayload marks a signed payload as used so it cannot be replayed
// within the TTL. Store failures are logged and the request proceeds.
func (s *AuthServiceImpl) consumePayload(ctx context.Context, op, accountID, signedJSON string) error {
	if s.nonceStore == nil || s.opts.ReplayTTL <= 0 {
		return nil
	}

	digest := sha256.Sum256([]byte(signedJSON))
	fresh, err := s.nonceStore.CheckAndSet(ctx, op+":"+accountID, hex.EncodeToString(digest[:]), s.opts.ReplayTTL)
	if err != nil {
		s.log.Warn().Err(err).Msg("replay guard unavailable, allowing request")
		return nil
	}
	if !fresh {
		return apperror.ErrSignatureReplayed()
	}
	return nil
}
