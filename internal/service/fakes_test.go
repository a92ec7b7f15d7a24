package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"gatehouse/internal/entity"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// Anchored at the real present so that JWTs issued against the fake clock
// still pass the library's wall-clock expiry check; tests move time only by
// advancing.
func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Now()}
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

type memUserRepo struct {
	mu     sync.Mutex
	nextID uint
	users  map[uint]entity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uint]entity.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == user.Email {
			return errors.New("duplicate email")
		}
	}
	r.nextID++
	user.ID = r.nextID
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) FindByID(_ context.Context, id uint) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			found := user
			return &found, nil
		}
	}
	return nil, nil
}

func (r *memUserRepo) Update(_ context.Context, user *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return errors.New("user missing")
	}
	r.users[user.ID] = *user
	return nil
}

func (r *memUserRepo) MarkVerified(_ context.Context, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[userID]
	if !ok {
		return errors.New("user missing")
	}
	user.IsVerified = true
	r.users[userID] = user
	return nil
}

func (r *memUserRepo) delete(id uint) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.users, id)
}

type memSecretRepo struct {
	mu      sync.Mutex
	nextID  uint
	secrets map[uint]entity.OneTimeSecret
}

func newMemSecretRepo() *memSecretRepo {
	return &memSecretRepo{secrets: make(map[uint]entity.OneTimeSecret)}
}

func (r *memSecretRepo) Create(_ context.Context, secret *entity.OneTimeSecret) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	secret.ID = r.nextID
	r.secrets[secret.ID] = *secret
	return nil
}

func (r *memSecretRepo) FindMostRecent(_ context.Context, userID uint, purpose entity.SecretPurpose) (*entity.OneTimeSecret, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var found *entity.OneTimeSecret
	for _, secret := range r.secrets {
		if secret.UserID != userID || secret.Purpose != purpose {
			continue
		}
		if found == nil || secret.ID > found.ID {
			copied := secret
			found = &copied
		}
	}
	return found, nil
}

func (r *memSecretRepo) FindByID(_ context.Context, id uint) (*entity.OneTimeSecret, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	secret, ok := r.secrets[id]
	if !ok {
		return nil, nil
	}
	return &secret, nil
}

func (r *memSecretRepo) FindByDigest(_ context.Context, digest string) (*entity.OneTimeSecret, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, secret := range r.secrets {
		if secret.TokenDigest != nil && *secret.TokenDigest == digest {
			found := secret
			return &found, nil
		}
	}
	return nil, nil
}

func (r *memSecretRepo) IncrementAttempts(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	secret, ok := r.secrets[id]
	if !ok {
		return errors.New("secret missing")
	}
	secret.Attempts++
	r.secrets[id] = secret
	return nil
}

func (r *memSecretRepo) Delete(_ context.Context, id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.secrets[id]; !ok {
		return false, nil
	}
	delete(r.secrets, id)
	return true, nil
}

func (r *memSecretRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.secrets)
}

type memRefreshRepo struct {
	mu     sync.Mutex
	nextID uint
	tokens map[uint]entity.RefreshToken
}

func newMemRefreshRepo() *memRefreshRepo {
	return &memRefreshRepo{tokens: make(map[uint]entity.RefreshToken)}
}

func (r *memRefreshRepo) Create(_ context.Context, token *entity.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	token.ID = r.nextID
	r.tokens[token.ID] = *token
	return nil
}

func (r *memRefreshRepo) FindByDigest(_ context.Context, digest string) (*entity.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, token := range r.tokens {
		if token.TokenDigest == digest {
			found := token
			return &found, nil
		}
	}
	return nil, nil
}

func (r *memRefreshRepo) Delete(_ context.Context, id uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tokens[id]; !ok {
		return false, nil
	}
	delete(r.tokens, id)
	return true, nil
}

func (r *memRefreshRepo) DeleteAllForUser(_ context.Context, userID uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, token := range r.tokens {
		if token.UserID == userID {
			delete(r.tokens, id)
		}
	}
	return nil
}

func (r *memRefreshRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens)
}

type sentCode struct {
	email   string
	code    string
	purpose entity.SecretPurpose
}

type sentLink struct {
	email string
	link  string
}

type captureMailer struct {
	mu    sync.Mutex
	fail  bool
	codes []sentCode
	links []sentLink
}

func (m *captureMailer) SendCode(_ context.Context, email string, code string, purpose entity.SecretPurpose) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.codes = append(m.codes, sentCode{email: email, code: code, purpose: purpose})
	return nil
}

func (m *captureMailer) SendResetLink(_ context.Context, email string, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("smtp unavailable")
	}
	m.links = append(m.links, sentLink{email: email, link: link})
	return nil
}

func (m *captureMailer) lastCode() sentCode {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.codes) == 0 {
		return sentCode{}
	}
	return m.codes[len(m.codes)-1]
}

func (m *captureMailer) lastLink() sentLink {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.links) == 0 {
		return sentLink{}
	}
	return m.links[len(m.links)-1]
}

func (m *captureMailer) codeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.codes)
}

func (m *captureMailer) linkCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.links)
}
