package service

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"member-auth/internal/domain"
	"member-auth/internal/email"
	"member-auth/internal/repository"
)

type mockPendingRepo struct {
	mu    sync.Mutex
	items map[string]domain.PendingRegistration
	saves int
}

func newMockPendingRepo() *mockPendingRepo {
	return &mockPendingRepo{items: make(map[string]domain.PendingRegistration)}
}

func (m *mockPendingRepo) Save(_ context.Context, p domain.PendingRegistration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[p.Email] = p
	m.saves++
	return nil
}

func (m *mockPendingRepo) GetByEmail(_ context.Context, email string) (domain.PendingRegistration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[email]
	if !ok {
		return domain.PendingRegistration{}, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockPendingRepo) Delete(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, email)
	return nil
}

func (m *mockPendingRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

type mockMemberRepo struct {
	mu      sync.Mutex
	byID    map[string]domain.Member
	byEmail map[string]string
}

func newMockMemberRepo() *mockMemberRepo {
	return &mockMemberRepo{
		byID:    make(map[string]domain.Member),
		byEmail: make(map[string]string),
	}
}

func (m *mockMemberRepo) Create(_ context.Context, member domain.Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[member.ID]; ok {
		return repository.ErrMemberIDTaken
	}
	if _, ok := m.byEmail[member.Email]; ok {
		return repository.ErrEmailTaken
	}
	m.byID[member.ID] = member
	m.byEmail[member.Email] = member.ID
	return nil
}

func (m *mockMemberRepo) GetByID(_ context.Context, id string) (domain.Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	member, ok := m.byID[id]
	if !ok {
		return domain.Member{}, pgx.ErrNoRows
	}
	return member, nil
}

func (m *mockMemberRepo) GetByEmail(ctx context.Context, email string) (domain.Member, error) {
	m.mu.Lock()
	id, ok := m.byEmail[email]
	m.mu.Unlock()
	if !ok {
		return domain.Member{}, pgx.ErrNoRows
	}
	return m.GetByID(ctx, id)
}

type mockChallengeRepo struct {
	mu    sync.Mutex
	items map[string]domain.LoginChallenge
}

func newMockChallengeRepo() *mockChallengeRepo {
	return &mockChallengeRepo{items: make(map[string]domain.LoginChallenge)}
}

func (m *mockChallengeRepo) Upsert(_ context.Context, c domain.LoginChallenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[c.MemberID] = c
	return nil
}

func (m *mockChallengeRepo) GetByMemberID(_ context.Context, memberID string) (domain.LoginChallenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[memberID]
	if !ok {
		return domain.LoginChallenge{}, pgx.ErrNoRows
	}
	return c, nil
}

func (m *mockChallengeRepo) Consume(_ context.Context, memberID, otpHash string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[memberID]
	if !ok || c.OtpHash != otpHash {
		return false, nil
	}
	delete(m.items, memberID)
	return true, nil
}

type sentMail struct {
	kind string
	to   string
	code string
}

type mockEmailSender struct {
	mu    sync.Mutex
	sent  []sentMail
	errBy map[string]error
	// blockBy simula un relay colgado: el envio espera hasta que venza ctx.
	blockBy map[string]bool
}

func (m *mockEmailSender) record(ctx context.Context, kind, to, code string) error {
	m.mu.Lock()
	m.sent = append(m.sent, sentMail{kind: kind, to: to, code: code})
	err := m.errBy[kind]
	block := m.blockBy[kind]
	m.mu.Unlock()
	if block {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

func (m *mockEmailSender) SendVerificationOTP(ctx context.Context, toEmail, code string, _ time.Time) error {
	return m.record(ctx, email.KindVerification, toEmail, code)
}

func (m *mockEmailSender) SendWelcome(ctx context.Context, toEmail, _, memberID string) error {
	return m.record(ctx, email.KindWelcome, toEmail, memberID)
}

func (m *mockEmailSender) SendLoginOTP(ctx context.Context, toEmail, code string, _ time.Time) error {
	return m.record(ctx, email.KindLoginOTP, toEmail, code)
}

func (m *mockEmailSender) codes(kind string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, s := range m.sent {
		if s.kind == kind {
			out = append(out, s.code)
		}
	}
	return out
}

func (m *mockEmailSender) lastCode(kind string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.sent) - 1; i >= 0; i-- {
		if m.sent[i].kind == kind {
			return m.sent[i].code
		}
	}
	return ""
}

func (m *mockEmailSender) countKind(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sent {
		if s.kind == kind {
			n++
		}
	}
	return n
}

// fakeClock permite mover el tiempo en tests de expiracion.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now().UTC()}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type noopAttemptLimiter struct{}

func (noopAttemptLimiter) Allow(string) bool { return true }
func (noopAttemptLimiter) Reset(string)      {}
