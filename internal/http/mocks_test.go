package http

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"member-auth/internal/domain"
	"member-auth/internal/repository"
)

type mockPendingRepo struct {
	mu    sync.Mutex
	items map[string]domain.PendingRegistration
}

func (m *mockPendingRepo) Save(_ context.Context, p domain.PendingRegistration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[p.Email] = p
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

type mockMemberRepo struct {
	mu      sync.Mutex
	byID    map[string]domain.Member
	byEmail map[string]string
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

type mockEmailSender struct {
	mu        sync.Mutex
	lastCode  string
	lastLogin string
	err       error
}

func (m *mockEmailSender) SendVerificationOTP(_ context.Context, _ string, code string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastCode = code
	return m.err
}

func (m *mockEmailSender) SendWelcome(context.Context, string, string, string) error {
	return nil
}

func (m *mockEmailSender) SendLoginOTP(_ context.Context, _ string, code string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastLogin = code
	return m.err
}
