package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"member-auth/internal/domain"
	"member-auth/internal/email"
	"member-auth/internal/repository"
)

const (
	defaultRegistrationOTPTTL = 5 * time.Minute
	defaultLoginOTPTTL        = time.Minute
	defaultNotifyTimeout      = 10 * time.Second
	defaultMemberIDAttempts   = 32
)

// AuthStores agrupa los repositorios que usa el orquestador.
type AuthStores struct {
	Pending    repository.PendingRegistrationRepository
	Members    repository.MemberRepository
	Challenges repository.LoginChallengeRepository
}

// AuthConfig son las ventanas y politicas del flujo. Los limiters nil se
// reemplazan por limiters en memoria.
type AuthConfig struct {
	RegistrationOTPTTL  time.Duration
	LoginOTPTTL         time.Duration
	NotifyTimeout       time.Duration
	MemberIDMaxAttempts int
	Revocation          RevocationPolicy
	SendLimiter         AttemptLimiter
	VerifyLimiter       AttemptLimiter
}

// AuthService coordina registro, verificacion de email, login por OTP y logout.
type AuthService struct {
	logger        *zap.Logger
	pending       repository.PendingRegistrationRepository
	members       repository.MemberRepository
	challenges    repository.LoginChallengeRepository
	hasher        CredentialHasher
	ids           MemberIDGenerator
	tokens        *TokenService
	sender        email.Sender
	sendLimiter   AttemptLimiter
	verifyLimiter AttemptLimiter
	cfg           AuthConfig
	now           func() time.Time
}

type RegisterInput struct {
	Email       string
	FullName    string
	Contact     string
	DateOfBirth time.Time
}

func NewAuthService(logger *zap.Logger, stores AuthStores, hasher CredentialHasher, tokens *TokenService, sender email.Sender, cfg AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if hasher == nil {
		hasher = NewBcryptHasher(0)
	}
	if cfg.RegistrationOTPTTL <= 0 {
		cfg.RegistrationOTPTTL = defaultRegistrationOTPTTL
	}
	if cfg.LoginOTPTTL <= 0 {
		cfg.LoginOTPTTL = defaultLoginOTPTTL
	}
	if cfg.NotifyTimeout <= 0 {
		cfg.NotifyTimeout = defaultNotifyTimeout
	}
	if cfg.MemberIDMaxAttempts <= 0 {
		cfg.MemberIDMaxAttempts = defaultMemberIDAttempts
	}
	if cfg.Revocation.MaxTokenLifetime <= 0 && tokens != nil {
		cfg.Revocation.MaxTokenLifetime = tokens.TTL()
	}
	if cfg.SendLimiter == nil {
		cfg.SendLimiter = NewMemoryAttemptLimiter(10*time.Minute, 3)
	}
	if cfg.VerifyLimiter == nil {
		cfg.VerifyLimiter = NewMemoryAttemptLimiter(cfg.RegistrationOTPTTL, 5)
	}
	return &AuthService{
		logger:        logger,
		pending:       stores.Pending,
		members:       stores.Members,
		challenges:    stores.Challenges,
		hasher:        hasher,
		tokens:        tokens,
		sender:        sender,
		sendLimiter:   cfg.SendLimiter,
		verifyLimiter: cfg.VerifyLimiter,
		cfg:           cfg,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Register guarda un registro pendiente y envia el OTP de verificacion. Si el
// envio falla el registro pendiente queda guardado; volver a registrarse lo reemplaza.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (err error) {
	defer func() { recordOperation("register", err) }()

	emailAddr := normalizeEmail(in.Email)
	if !isValidEmail(emailAddr) {
		return ErrInvalidEmail
	}
	if in.DateOfBirth.IsZero() || in.DateOfBirth.After(s.now()) {
		return ErrInvalidInput
	}
	if !s.sendLimiter.Allow("register:" + emailAddr) {
		return ErrRateLimited
	}

	_, err = s.members.GetByEmail(ctx, emailAddr)
	switch {
	case err == nil:
		return ErrAlreadyRegistered
	case !errors.Is(err, pgx.ErrNoRows):
		return err
	}

	code, err := generateOTP()
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(code)
	if err != nil {
		return err
	}

	now := s.now()
	pending := domain.PendingRegistration{
		Email:        emailAddr,
		FullName:     strings.TrimSpace(in.FullName),
		Contact:      strings.TrimSpace(in.Contact),
		DateOfBirth:  dateOnly(in.DateOfBirth),
		OtpHash:      hash,
		OtpExpiresAt: now.Add(s.cfg.RegistrationOTPTTL),
		CreatedAt:    now,
	}
	if err := s.pending.Save(ctx, pending); err != nil {
		return err
	}

	if err := s.notify(ctx, email.KindVerification, emailAddr, func(ctx context.Context) error {
		return s.sender.SendVerificationOTP(ctx, emailAddr, code, pending.OtpExpiresAt)
	}); err != nil {
		recordNotificationFailure(email.KindVerification, true)
		return ErrNotificationFailure
	}
	return nil
}

// VerifyEmail promueve el registro pendiente a socio si el OTP es correcto.
// El correo de bienvenida es best effort: un fallo se registra y no se devuelve.
func (s *AuthService) VerifyEmail(ctx context.Context, emailAddr, code string) (member domain.Member, err error) {
	defer func() { recordOperation("verify_email", err) }()

	emailAddr = normalizeEmail(emailAddr)
	code = strings.TrimSpace(code)
	if emailAddr == "" {
		return domain.Member{}, ErrInvalidEmail
	}

	pending, err := s.pending.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Member{}, ErrNotFound
		}
		return domain.Member{}, err
	}

	if pending.Expired(s.now()) {
		if err := s.pending.Delete(ctx, emailAddr); err != nil {
			return domain.Member{}, err
		}
		return domain.Member{}, ErrOTPExpired
	}

	limiterKey := "verify-email:" + emailAddr
	if !s.verifyLimiter.Allow(limiterKey) {
		return domain.Member{}, ErrTooManyAttempts
	}
	if !isValidOTPCode(code) || !s.hasher.Verify(code, pending.OtpHash) {
		return domain.Member{}, ErrOTPInvalid
	}

	member, err = s.promote(ctx, pending)
	if err != nil {
		return domain.Member{}, err
	}
	s.verifyLimiter.Reset(limiterKey)

	if err := s.pending.Delete(ctx, emailAddr); err != nil {
		// el socio ya existe; un pendiente huerfano solo puede terminar en ErrAlreadyRegistered
		s.logger.Warn("delete pending registration failed", zap.Error(err), zap.String("email", emailAddr))
	}

	if err := s.notify(ctx, email.KindWelcome, emailAddr, func(ctx context.Context) error {
		return s.sender.SendWelcome(ctx, member.Email, member.FullName, member.ID)
	}); err != nil {
		recordNotificationFailure(email.KindWelcome, false)
	}
	return member, nil
}

// promote crea el socio probando salts sucesivos hasta encontrar un id libre.
func (s *AuthService) promote(ctx context.Context, pending domain.PendingRegistration) (domain.Member, error) {
	member := domain.Member{
		FullName:    pending.FullName,
		Email:       pending.Email,
		Contact:     pending.Contact,
		DateOfBirth: pending.DateOfBirth,
		CreatedAt:   s.now(),
	}
	for salt := 0; salt < s.cfg.MemberIDMaxAttempts; salt++ {
		member.ID = s.ids.Generate(pending.FullName, pending.DateOfBirth, salt)
		err := s.members.Create(ctx, member)
		switch {
		case err == nil:
			return member, nil
		case errors.Is(err, repository.ErrMemberIDTaken):
			s.logger.Debug("member id collision", zap.String("member_id", member.ID), zap.Int("salt", salt))
			continue
		case errors.Is(err, repository.ErrEmailTaken):
			return domain.Member{}, ErrAlreadyRegistered
		default:
			return domain.Member{}, err
		}
	}
	return domain.Member{}, ErrMemberIDExhausted
}

// SendOTP inicia el login: guarda el hash de un OTP nuevo y lo envia por correo.
func (s *AuthService) SendOTP(ctx context.Context, emailAddr string) (err error) {
	defer func() { recordOperation("send_otp", err) }()

	emailAddr = normalizeEmail(emailAddr)
	if emailAddr == "" {
		return ErrInvalidEmail
	}
	if !s.sendLimiter.Allow("login:" + emailAddr) {
		return ErrRateLimited
	}

	member, err := s.members.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	code, err := generateOTP()
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(code)
	if err != nil {
		return err
	}

	now := s.now()
	challenge := domain.LoginChallenge{
		MemberID:  member.ID,
		OtpHash:   hash,
		ExpiresAt: now.Add(s.cfg.LoginOTPTTL),
		CreatedAt: now,
	}
	if err := s.challenges.Upsert(ctx, challenge); err != nil {
		return err
	}

	if err := s.notify(ctx, email.KindLoginOTP, emailAddr, func(ctx context.Context) error {
		return s.sender.SendLoginOTP(ctx, emailAddr, code, challenge.ExpiresAt)
	}); err != nil {
		recordNotificationFailure(email.KindLoginOTP, true)
		return ErrNotificationFailure
	}
	return nil
}

// VerifyOTP consume el OTP de login y devuelve un token de sesion.
func (s *AuthService) VerifyOTP(ctx context.Context, emailAddr, code string) (token string, err error) {
	defer func() { recordOperation("verify_otp", err) }()

	emailAddr = normalizeEmail(emailAddr)
	code = strings.TrimSpace(code)
	if emailAddr == "" {
		return "", ErrInvalidEmail
	}

	member, err := s.members.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}

	challenge, err := s.challenges.GetByMemberID(ctx, member.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// nunca emitido o ya consumido
			return "", ErrOTPInvalid
		}
		return "", err
	}
	if challenge.Expired(s.now()) {
		return "", ErrOTPExpired
	}

	limiterKey := "verify-otp:" + member.ID
	if !s.verifyLimiter.Allow(limiterKey) {
		return "", ErrTooManyAttempts
	}
	if !isValidOTPCode(code) || !s.hasher.Verify(code, challenge.OtpHash) {
		return "", ErrOTPInvalid
	}

	consumed, err := s.challenges.Consume(ctx, member.ID, challenge.OtpHash)
	if err != nil {
		return "", err
	}
	if !consumed {
		return "", ErrOTPInvalid
	}
	s.verifyLimiter.Reset(limiterKey)

	return s.tokens.Issue(member.ID)
}

// Logout revoca el token. Es idempotente y no falla para tokens invalidos o
// vencidos; solo devuelve errores del registro de revocacion.
func (s *AuthService) Logout(ctx context.Context, token string) (err error) {
	defer func() { recordOperation("logout", err) }()

	token = strings.TrimSpace(token)
	if token == "" {
		return nil
	}
	exp, ok := s.tokens.ExpiresAt(token)
	until := s.cfg.Revocation.ExpiresAt(s.now(), exp, ok)
	return s.tokens.Revoke(ctx, token, until)
}

// Profile devuelve el socio identificado por memberID.
func (s *AuthService) Profile(ctx context.Context, memberID string) (domain.Member, error) {
	member, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Member{}, ErrNotFound
		}
		return domain.Member{}, err
	}
	return member, nil
}

// notify ejecuta el envio con NotifyTimeout para que un relay lento no bloquee el flujo.
func (s *AuthService) notify(ctx context.Context, kind, emailAddr string, send func(ctx context.Context) error) error {
	if s.sender == nil {
		s.logger.Warn("email sender not configured", zap.String("kind", kind))
		return errors.New("email sender not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.NotifyTimeout)
	defer cancel()
	if err := send(ctx); err != nil {
		s.logger.Warn("send notification failed",
			zap.Error(err),
			zap.String("kind", kind),
			zap.String("email", emailAddr),
		)
		return err
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
