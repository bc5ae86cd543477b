package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/bomcorte/blackfriday/internal/config"
	"github.com/bomcorte/blackfriday/internal/location"
	"github.com/bomcorte/blackfriday/internal/middleware"
	"github.com/bomcorte/blackfriday/internal/model"
	"github.com/bomcorte/blackfriday/internal/repository"
	"github.com/bomcorte/blackfriday/internal/session"
)

type fakeLeads struct {
	leads      []model.Lead
	total      int
	lead       *model.Lead
	stats      *repository.LeadStats
	err        error
	createdID  int64
	created    []model.LeadSubmission
	lastFilter repository.ListFilter
	updates    map[int64]map[string]any
	deleted    []int64
}

func (f *fakeLeads) List(ctx context.Context, filter repository.ListFilter) ([]model.Lead, int, error) {
	f.lastFilter = filter
	return f.leads, f.total, f.err
}

func (f *fakeLeads) Get(ctx context.Context, id int64) (*model.Lead, error) {
	if f.lead == nil && f.err == nil {
		return nil, repository.ErrNotFound
	}
	return f.lead, f.err
}

func (f *fakeLeads) Create(ctx context.Context, sub model.LeadSubmission, ip, userAgent string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.created = append(f.created, sub)
	return f.createdID, nil
}

func (f *fakeLeads) Update(ctx context.Context, id int64, changes map[string]any) error {
	if f.err != nil {
		return f.err
	}
	if f.updates == nil {
		f.updates = make(map[int64]map[string]any)
	}
	f.updates[id] = changes
	return nil
}

func (f *fakeLeads) Delete(ctx context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeLeads) GetStats(ctx context.Context) (*repository.LeadStats, error) {
	return f.stats, f.err
}

type fakeContent struct {
	content       *model.LandingPageContent
	integrations  []model.Integration
	err           error
	savedContent  []model.LandingPageContent
	savedIntegras [][]model.Integration
}

func (f *fakeContent) GetContent(ctx context.Context) (*model.LandingPageContent, error) {
	return f.content, f.err
}

func (f *fakeContent) SaveContent(ctx context.Context, content model.LandingPageContent) error {
	if f.err != nil {
		return f.err
	}
	f.savedContent = append(f.savedContent, content)
	return nil
}

func (f *fakeContent) GetIntegrations(ctx context.Context) ([]model.Integration, error) {
	return f.integrations, f.err
}

func (f *fakeContent) SaveIntegrations(ctx context.Context, integrations []model.Integration) error {
	if f.err != nil {
		return f.err
	}
	f.savedIntegras = append(f.savedIntegras, integrations)
	return nil
}

type fakeUsers struct {
	byEmail   map[string]*model.User
	byID      map[int64]*model.User
	users     []model.User
	err       error
	createdID int64
	created   []model.User
	updates   map[int64]map[string]any
	deleted   []int64
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byEmail[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) Get(ctx context.Context, id int64) (*model.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) List(ctx context.Context) ([]model.User, error) {
	return f.users, f.err
}

func (f *fakeUsers) Create(ctx context.Context, email, passwordHash string, role model.Role) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.created = append(f.created, model.User{Email: email, PasswordHash: passwordHash, Role: role})
	return f.createdID, nil
}

func (f *fakeUsers) Update(ctx context.Context, id int64, changes map[string]any) error {
	if f.err != nil {
		return f.err
	}
	if f.updates == nil {
		f.updates = make(map[int64]map[string]any)
	}
	f.updates[id] = changes
	return nil
}

func (f *fakeUsers) Delete(ctx context.Context, id int64) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, id)
	return nil
}

type auditEntry struct {
	UserID  int64
	Action  string
	Details any
}

type fakeAudit struct {
	entries []auditEntry
}

func (f *fakeAudit) Record(ctx context.Context, userID int64, action string, details any, ip string) {
	f.entries = append(f.entries, auditEntry{UserID: userID, Action: action, Details: details})
}

type fakeLocations struct {
	regions []location.RegionOption
	cities  []location.CityOption
	address *location.Address
	err     error
}

func (f *fakeLocations) Regions(ctx context.Context) ([]location.RegionOption, error) {
	return f.regions, f.err
}

func (f *fakeLocations) Cities(ctx context.Context, regionCode string) ([]location.CityOption, error) {
	return f.cities, f.err
}

func (f *fakeLocations) ResolvePostalCode(ctx context.Context, postalCode string) (*location.Address, error) {
	return f.address, f.err
}

type fakeNotifier struct {
	notified []model.LeadSubmission
}

func (f *fakeNotifier) NotifyLead(ctx context.Context, sub model.LeadSubmission) {
	f.notified = append(f.notified, sub)
}

// testHandler bundles a Handler with its fakes and a live session store.
type testHandler struct {
	*Handler
	leadsFake    *fakeLeads
	contentFake  *fakeContent
	usersFake    *fakeUsers
	auditFake    *fakeAudit
	locsFake     *fakeLocations
	notifierFake *fakeNotifier
	store        *session.Store
}

func newTestHandler(t *testing.T) *testHandler {
	t.Helper()

	mr := miniredis.RunT(t)
	store, err := session.NewStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	require.NoError(t, err)

	th := &testHandler{
		leadsFake:    &fakeLeads{},
		contentFake:  &fakeContent{},
		usersFake:    &fakeUsers{},
		auditFake:    &fakeAudit{},
		locsFake:     &fakeLocations{},
		notifierFake: &fakeNotifier{},
		store:        store,
	}

	h, err := New(th.leadsFake, th.contentFake, th.usersFake, th.auditFake, th.locsFake, th.notifierFake, store)
	require.NoError(t, err)
	th.Handler = h
	return th
}

// mux builds the full route table, rate limiter included, for tests that
// exercise routing and role gating.
func (th *testHandler) mux(t *testing.T) *http.ServeMux {
	t.Helper()
	rl, err := middleware.NewRateLimiter(1000)
	require.NoError(t, err)
	t.Cleanup(rl.Close)

	mux := http.NewServeMux()
	th.RegisterRoutes(mux, rl)
	return mux
}

// sessionCookie opens a session for role and returns its cookie.
func (th *testHandler) sessionCookie(t *testing.T, role model.Role) *http.Cookie {
	t.Helper()
	sess, err := th.store.Create(context.Background(), &model.User{
		ID:    9,
		Email: "staff@bomcorte.com.br",
		Role:  role,
	})
	require.NoError(t, err)
	return &http.Cookie{Name: config.SessionCookieName, Value: sess.ID}
}

// authed serves the request through RequireAuth with a fresh session so
// handlers that read the session from context behave as in production.
func (th *testHandler) authed(t *testing.T, role model.Role, handlerFunc http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	r.AddCookie(th.sessionCookie(t, role))
	rec := httptest.NewRecorder()
	th.store.RequireAuth(handlerFunc).ServeHTTP(rec, r)
	return rec
}
