package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/baechuer/credential-auth/internal/domain"
)

/*
Shared audit capture
*/

type auditEntry struct {
	action string
	fields map[string]string
}

type auditSink struct {
	mu      sync.Mutex
	entries []auditEntry
}

func (a *auditSink) record(action string, fields map[string]string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, auditEntry{action: action, fields: fields})
}

func (a *auditSink) actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.action)
	}
	return out
}

/*
Fakes for ports
*/

type fakeStore struct {
	mu sync.Mutex

	byID       map[string]domain.User
	byEmail    map[string]string // normalized email -> id
	byUserName map[string]string // normalized username -> id
	roles      map[string][]string
	seq        int

	// injected errors (if set, method returns error)
	createErr         error
	findByEmailErr    error
	findByUsernameErr error
	verifyErr         error
	assignRoleErr     error

	// block, when set, makes every call wait for ctx to end
	block bool

	// record calls
	createCalls      int
	findByEmailCalls int
	findByNameCalls  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		byID:       map[string]domain.User{},
		byEmail:    map[string]string{},
		byUserName: map[string]string{},
		roles:      map[string][]string{},
	}
}

func (f *fakeStore) wait(ctx context.Context) error {
	if !f.block {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

// seed stores a user whose password hash is "hash:"+password.
func (f *fakeStore) seed(id, userName, email, password string) domain.User {
	f.mu.Lock()
	defer f.mu.Unlock()

	u := domain.User{
		ID:                 id,
		UserName:           userName,
		NormalizedUserName: domain.NormalizeUserName(userName),
		Email:              email,
		NormalizedEmail:    domain.NormalizeEmail(email),
		PasswordHash:       "hash:" + password,
	}
	f.byID[id] = u
	f.byEmail[u.NormalizedEmail] = id
	f.byUserName[u.NormalizedUserName] = id
	return u
}

func (f *fakeStore) Create(ctx context.Context, userName, email, password string) (domain.User, error) {
	if err := f.wait(ctx); err != nil {
		return domain.User{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.createCalls++
	if f.createErr != nil {
		return domain.User{}, f.createErr
	}
	if _, ok := f.byEmail[domain.NormalizeEmail(email)]; ok {
		return domain.User{}, domain.ErrCreateConflict("email is already taken")
	}
	if _, ok := f.byUserName[domain.NormalizeUserName(userName)]; ok {
		return domain.User{}, domain.ErrCreateConflict("username is already taken")
	}

	f.seq++
	u := domain.User{
		ID:                 fmt.Sprintf("u%d", f.seq),
		UserName:           userName,
		NormalizedUserName: domain.NormalizeUserName(userName),
		Email:              email,
		NormalizedEmail:    domain.NormalizeEmail(email),
		PasswordHash:       "hash:" + password,
	}
	f.byID[u.ID] = u
	f.byEmail[u.NormalizedEmail] = u.ID
	f.byUserName[u.NormalizedUserName] = u.ID
	return u, nil
}

func (f *fakeStore) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	if err := f.wait(ctx); err != nil {
		return domain.User{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.findByEmailCalls++
	if f.findByEmailErr != nil {
		return domain.User{}, f.findByEmailErr
	}
	id, ok := f.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return f.byID[id], nil
}

func (f *fakeStore) FindByUsername(ctx context.Context, userName string) (domain.User, error) {
	if err := f.wait(ctx); err != nil {
		return domain.User{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.findByNameCalls++
	if f.findByUsernameErr != nil {
		return domain.User{}, f.findByUsernameErr
	}
	id, ok := f.byUserName[domain.NormalizeUserName(userName)]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound()
	}
	return f.byID[id], nil
}

func (f *fakeStore) VerifyPassword(ctx context.Context, u domain.User, password string) (bool, error) {
	if err := f.wait(ctx); err != nil {
		return false, err
	}
	if f.verifyErr != nil {
		return false, f.verifyErr
	}
	return u.PasswordHash == "hash:"+password, nil
}

func (f *fakeStore) AssignRole(ctx context.Context, u domain.User, role string) error {
	if err := f.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.assignRoleErr != nil {
		return f.assignRoleErr
	}
	f.roles[u.ID] = append(f.roles[u.ID], role)
	return nil
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

type fakeIssuer struct {
	issueFn func(u *domain.User) (string, error)
	issued  []string
}

func (i *fakeIssuer) Issue(u *domain.User) (string, error) {
	if i.issueFn != nil {
		return i.issueFn(u)
	}
	i.issued = append(i.issued, u.ID)
	return fmt.Sprintf("jwt(%s,%s)", u.ID, domain.RoleUser), nil
}

type fakePublisher struct {
	mu     sync.Mutex
	err    error
	events []UserRegisteredEvent
}

func (p *fakePublisher) PublishUserRegistered(ctx context.Context, evt UserRegisteredEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, evt)
	return nil
}

/*
Service constructor used by all tests
*/

func newSvcForTest(t *testing.T) (*Service, *fakeStore, *fakeIssuer, *fakePublisher, *auditSink) {
	t.Helper()

	store := newFakeStore()
	issuer := &fakeIssuer{}
	pub := &fakePublisher{}
	sink := &auditSink{}

	svc := NewService(store, issuer, Config{StoreTimeout: time.Second}).
		WithAudit(sink.record).
		WithEvents(pub)
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	return svc, store, issuer, pub, sink
}

var errBoom = errors.New("boom")
