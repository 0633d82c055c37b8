package auth_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"database/sql"
	"encoding/pem"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	auth "github.com/nexlify/go-tenant-auth"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
)

// testConfig implements auth.Config with test values.
type testConfig struct {
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	privateKey    []byte
	publicKey     []byte
	jwkSetURL     string
	refreshSecret string
	cookieDomain  string
	contextKey    string
	authScheme    string
}

func (c testConfig) GetIssuer() string                { return c.issuer }
func (c testConfig) GetAccessTokenTTL() time.Duration { return c.accessTTL }
func (c testConfig) GetRefreshTokenTTL() time.Duration {
	return c.refreshTTL
}
func (c testConfig) GetAccessPrivateKey() []byte { return c.privateKey }
func (c testConfig) GetAccessPublicKey() []byte  { return c.publicKey }
func (c testConfig) GetJWKSetURL() string        { return c.jwkSetURL }
func (c testConfig) GetRefreshSecret() string    { return c.refreshSecret }
func (c testConfig) GetCookieDomain() string     { return c.cookieDomain }
func (c testConfig) GetContextKey() string       { return c.contextKey }
func (c testConfig) GetAuthScheme() string       { return c.authScheme }

// publicPEM derives a PEM-encoded public key from the config's private key.
func (c testConfig) publicPEM(t *testing.T) []byte {
	t.Helper()

	block, _ := pem.Decode(c.privateKey)
	require.NotNil(t, block)

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	return pem.EncodeToMemory(&pem.Block{
		Type:  "PUBLIC KEY",
		Bytes: der,
	})
}

func newTestConfig(t *testing.T) testConfig {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	pemBytes := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	})

	return testConfig{
		issuer:        "auth-service",
		accessTTL:     time.Hour,
		refreshTTL:    365 * 24 * time.Hour,
		privateKey:    pemBytes,
		refreshSecret: "test-refresh-secret",
		cookieDomain:  "localhost",
		contextKey:    "user",
		authScheme:    "Bearer",
	}
}

// staticIdentity implements auth.Identity with fixed values.
type staticIdentity struct {
	id     string
	email  string
	role   string
	tenant string
}

func (s staticIdentity) ID() string       { return s.id }
func (s staticIdentity) Email() string    { return s.email }
func (s staticIdentity) Role() string     { return s.role }
func (s staticIdentity) TenantID() string { return s.tenant }

// memSessionStore is an in-memory auth.SessionStore that records the order
// of create and delete calls.
type memSessionStore struct {
	mu         sync.Mutex
	refreshTTL time.Duration
	records    map[uuid.UUID]*auth.RefreshSession
	createErr  error
	deleteErr  error
	calls      []string
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{
		refreshTTL: 365 * 24 * time.Hour,
		records:    map[uuid.UUID]*auth.RefreshSession{},
	}
}

func (m *memSessionStore) Create(ctx context.Context, ownerID uuid.UUID) (*auth.RefreshSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return nil, m.createErr
	}

	record := &auth.RefreshSession{
		ID:        uuid.New(),
		UserID:    ownerID,
		ExpiresAt: time.Now().Add(m.refreshTTL),
	}
	m.records[record.ID] = record
	m.calls = append(m.calls, "create:"+record.ID.String())

	return record, nil
}

func (m *memSessionStore) FindActive(ctx context.Context, id, ownerID uuid.UUID) (*auth.RefreshSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, ok := m.records[id]
	if !ok || record.UserID != ownerID {
		return nil, repository.NewRecordNotFound()
	}

	return record, nil
}

func (m *memSessionStore) DeleteByID(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, "delete:"+id.String())

	if m.deleteErr != nil {
		return m.deleteErr
	}

	delete(m.records, id)
	return nil
}

func (m *memSessionStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// memUsers is an in-memory user store implementing both the reader and
// tracker surfaces the session core needs.
type memUsers struct {
	mu      sync.Mutex
	byID    map[uuid.UUID]*auth.User
	byEmail map[string]*auth.User
}

func newMemUsers(users ...*auth.User) *memUsers {
	m := &memUsers{
		byID:    map[uuid.UUID]*auth.User{},
		byEmail: map[string]*auth.User{},
	}
	for _, u := range users {
		m.byID[u.ID] = u
		m.byEmail[u.Email] = u
	}
	return m
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byEmail[email]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}
	clone := *u
	clone.PasswordHash = ""
	return &clone, nil
}

func (m *memUsers) GetByEmailWithPassword(ctx context.Context, email string) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byEmail[email]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}
	clone := *u
	return &clone, nil
}

func (m *memUsers) FindByID(ctx context.Context, id uuid.UUID) (*auth.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.byID[id]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}
	clone := *u
	return &clone, nil
}

func (m *memUsers) TrackAttemptedLogin(ctx context.Context, user *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.byID[user.ID]; ok {
		u.LoginAttempts++
		now := time.Now()
		u.LoginAttemptAt = &now
	}
	return nil
}

func (m *memUsers) TrackSuccessfulLogin(ctx context.Context, user *auth.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if u, ok := m.byID[user.ID]; ok {
		u.LoginAttempts = 0
		u.LoginAttemptAt = nil
		now := time.Now()
		u.LoggedInAt = &now
	}
	return nil
}

// fakeUsers backs the registration handler. The embedded interface covers
// methods the tests never reach.
type fakeUsers struct {
	auth.Users
	mem       *memUsers
	createErr error
}

func (f *fakeUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*auth.User, error) {
	return f.mem.GetByEmailWithPassword(ctx, email)
}

func (f *fakeUsers) CreateTx(ctx context.Context, tx bun.IDB, record *auth.User, criteria ...repository.InsertCriteria) (*auth.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.Role == "" {
		record.Role = auth.RoleCustomer
	}

	f.mem.mu.Lock()
	defer f.mem.mu.Unlock()
	f.mem.byID[record.ID] = record
	f.mem.byEmail[record.Email] = record

	return record, nil
}

type fakeTenants struct {
	auth.Tenants
	byID map[uuid.UUID]*auth.Tenant
}

func (f *fakeTenants) FindByID(ctx context.Context, id uuid.UUID) (*auth.Tenant, error) {
	tenant, ok := f.byID[id]
	if !ok {
		return nil, repository.NewRecordNotFound()
	}
	return tenant, nil
}

// fakeRepoManager satisfies auth.RepositoryManager without a database.
// RunInTx hands the callback a zero transaction the fakes never touch.
type fakeRepoManager struct {
	users   *fakeUsers
	tenants *fakeTenants
}

func newFakeRepoManager(users *memUsers, tenants ...*auth.Tenant) *fakeRepoManager {
	byID := map[uuid.UUID]*auth.Tenant{}
	for _, tenant := range tenants {
		byID[tenant.ID] = tenant
	}
	return &fakeRepoManager{
		users:   &fakeUsers{mem: users},
		tenants: &fakeTenants{byID: byID},
	}
}

func (f *fakeRepoManager) Users() auth.Users       { return f.users }
func (f *fakeRepoManager) Tenants() auth.Tenants   { return f.tenants }
func (f *fakeRepoManager) Sessions() auth.Sessions { return nil }
func (f *fakeRepoManager) Validate() error         { return nil }
func (f *fakeRepoManager) MustValidate()           {}

func (f *fakeRepoManager) RunInTx(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	return fn(ctx, bun.Tx{})
}

var _ auth.RepositoryManager = (*fakeRepoManager)(nil)

// MockContext mocks the router.Context
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}
