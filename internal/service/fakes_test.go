package service

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/CleanAfricaNow/civic-service/internal/models"
	"github.com/CleanAfricaNow/civic-service/internal/repository"
	"github.com/CleanAfricaNow/civic-service/internal/taxonomy"
)

// In-memory repositories for service tests. They reproduce the same
// guarantees the Postgres implementations give: CreateUser installs the
// citizen role with the user row, SwapRole is atomic, bin submissions
// append history and overwrite the cached status together.

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
	roles *fakeRoleRepo
}

func newFakeUserRepo(roles *fakeRoleRepo) *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*models.User), roles: roles}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *models.User, profile *models.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == user.Email {
			return repository.ErrEmailTaken
		}
	}
	user.ID = uuid.New()
	f.users[user.ID] = user
	f.roles.set(user.ID, models.RoleCitizen)
	return nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, repository.ErrNotFound
}

type fakeRoleRepo struct {
	mu    sync.Mutex
	roles map[uuid.UUID]map[models.Role]bool
	// delayReads makes the first n GetUserRoles calls miss the citizen
	// row, mimicking the read-after-write lag the poll loop exists for.
	delayReads int
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{roles: make(map[uuid.UUID]map[models.Role]bool)}
}

func (f *fakeRoleRepo) set(userID uuid.UUID, role models.Role) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.roles[userID] == nil {
		f.roles[userID] = make(map[models.Role]bool)
	}
	f.roles[userID][role] = true
}

func (f *fakeRoleRepo) GetUserRoles(ctx context.Context, userID uuid.UUID) ([]models.Role, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.delayReads > 0 {
		f.delayReads--
		return nil, nil
	}
	var out []models.Role
	for r := range f.roles[userID] {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRoleRepo) AssignRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	f.set(userID, role)
	return nil
}

func (f *fakeRoleRepo) RemoveRole(ctx context.Context, userID uuid.UUID, role models.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.roles[userID], role)
	return nil
}

func (f *fakeRoleRepo) SwapRole(ctx context.Context, userID uuid.UUID, from, to models.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.roles[userID][from] {
		return repository.ErrNotFound
	}
	delete(f.roles[userID], from)
	f.roles[userID][to] = true
	return nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*models.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: make(map[uuid.UUID]*models.Profile)}
}

func (f *fakeProfileRepo) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return p, nil
}

func (f *fakeProfileRepo) UpdateProfile(ctx context.Context, userID uuid.UUID, fullName string, avatarURL *string, homeCityID *uuid.UUID) error {
	return nil
}

func (f *fakeProfileRepo) IncrementReportsCount(ctx context.Context, userID uuid.UUID, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[userID]; ok {
		p.ReportsCount += delta
	}
	return nil
}

func (f *fakeProfileRepo) IncrementImpactScore(ctx context.Context, userID uuid.UUID, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p, ok := f.profiles[userID]; ok {
		p.ImpactScore += delta
	}
	return nil
}

func (f *fakeProfileRepo) Leaderboard(ctx context.Context, limit int) ([]models.Profile, error) {
	return nil, nil
}

type fakeReportRepo struct {
	mu      sync.Mutex
	reports map[uuid.UUID]*models.Report
}

func newFakeReportRepo() *fakeReportRepo {
	return &fakeReportRepo{reports: make(map[uuid.UUID]*models.Report)}
}

func (f *fakeReportRepo) Create(ctx context.Context, report *models.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	report.ID = uuid.New()
	f.reports[report.ID] = report
	return nil
}

func (f *fakeReportRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeReportRepo) List(ctx context.Context, filter repository.ReportFilter) ([]models.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Report
	for _, r := range f.reports {
		if filter.Status != nil && r.Status != *filter.Status {
			continue
		}
		if filter.CreatedBy != nil && r.CreatedBy != *filter.CreatedBy {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeReportRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status taxonomy.ReportStatus, actorID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Status = status
	if status == taxonomy.ReportResolved || status == taxonomy.ReportVerified {
		r.ResolvedBy = &actorID
	}
	return nil
}

func (f *fakeReportRepo) AssignPriority(ctx context.Context, id uuid.UUID, priority taxonomy.ReportPriority) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Priority = priority
	return nil
}

func (f *fakeReportRepo) AddPhoto(ctx context.Context, id uuid.UUID, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.PhotoURLs = append(r.PhotoURLs, url)
	return nil
}

func (f *fakeReportRepo) SoftDelete(ctx context.Context, id, ownerID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reports[id]
	if !ok {
		return repository.ErrNotFound
	}
	if r.CreatedBy != ownerID {
		return repository.ErrNotOwner
	}
	if r.Status != taxonomy.ReportPending {
		return repository.ErrNotDeletable
	}
	r.Deleted = true
	return nil
}

type fakeBinRepo struct {
	mu      sync.Mutex
	bins    map[uuid.UUID]*models.WasteBin
	history map[uuid.UUID][]models.BinStatusReport
}

func newFakeBinRepo() *fakeBinRepo {
	return &fakeBinRepo{
		bins:    make(map[uuid.UUID]*models.WasteBin),
		history: make(map[uuid.UUID][]models.BinStatusReport),
	}
}

func (f *fakeBinRepo) Create(ctx context.Context, bin *models.WasteBin) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	bin.ID = uuid.New()
	f.bins[bin.ID] = bin
	return nil
}

func (f *fakeBinRepo) Update(ctx context.Context, bin *models.WasteBin) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.bins[bin.ID]; !ok {
		return repository.ErrNotFound
	}
	f.bins[bin.ID] = bin
	return nil
}

func (f *fakeBinRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.WasteBin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bins[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBinRepo) List(ctx context.Context, cityID *uuid.UUID) ([]models.WasteBin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.WasteBin
	for _, b := range f.bins {
		out = append(out, *b)
	}
	return out, nil
}

func (f *fakeBinRepo) SubmitStatusReport(ctx context.Context, report *models.BinStatusReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bins[report.BinID]
	if !ok {
		return repository.ErrNotFound
	}
	report.ID = uuid.New()
	f.history[report.BinID] = append(f.history[report.BinID], *report)
	b.CurrentStatus = report.Status
	return nil
}

func (f *fakeBinRepo) ListStatusReports(ctx context.Context, binID uuid.UUID, limit int) ([]models.BinStatusReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.BinStatusReport(nil), f.history[binID]...), nil
}

func (f *fakeBinRepo) LogCollection(ctx context.Context, c *models.BinCollection) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bins[c.BinID]
	if !ok {
		return repository.ErrNotFound
	}
	c.ID = uuid.New()
	b.CurrentStatus = taxonomy.BinEmpty
	return nil
}

type fakeRegistrationRepo struct {
	mu       sync.Mutex
	requests map[uuid.UUID]*models.RegistrationRequest
	roles    *fakeRoleRepo
}

func newFakeRegistrationRepo(roles *fakeRoleRepo) *fakeRegistrationRepo {
	return &fakeRegistrationRepo{
		requests: make(map[uuid.UUID]*models.RegistrationRequest),
		roles:    roles,
	}
}

func (f *fakeRegistrationRepo) Create(ctx context.Context, req *models.RegistrationRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.requests {
		if existing.UserID == req.UserID && !existing.Status.Terminal() {
			return repository.ErrActiveRequest
		}
	}
	req.ID = uuid.New()
	f.requests[req.ID] = req
	return nil
}

func (f *fakeRegistrationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.RegistrationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRegistrationRepo) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*models.RegistrationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.requests {
		if r.UserID == userID && !r.Status.Terminal() {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRegistrationRepo) List(ctx context.Context, status *taxonomy.RequestStatus) ([]models.RegistrationRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.RegistrationRequest
	for _, r := range f.requests {
		if status != nil && r.Status != *status {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRegistrationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status taxonomy.RequestStatus, rejectionReason, adminNotes *string, reviewedBy uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Status = status
	r.RejectionReason = rejectionReason
	r.AdminNotes = adminNotes
	r.ReviewedBy = &reviewedBy
	return nil
}

func (f *fakeRegistrationRepo) AddDocument(ctx context.Context, id uuid.UUID, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	if len(r.DocumentURLs) >= 3 {
		return repository.ErrDocumentLimit
	}
	r.DocumentURLs = append(r.DocumentURLs, url)
	return nil
}

func (f *fakeRegistrationRepo) ApproveAndGrant(ctx context.Context, id, reviewedBy uuid.UUID, adminNotes *string) error {
	f.mu.Lock()
	r, ok := f.requests[id]
	if !ok {
		f.mu.Unlock()
		return repository.ErrNotFound
	}
	r.Status = taxonomy.RequestApproved
	r.AdminNotes = adminNotes
	r.ReviewedBy = &reviewedBy
	userID, role := r.UserID, r.RequestedRole
	f.mu.Unlock()
	f.roles.set(userID, role)
	return nil
}

// fakeUploader hands back deterministic URLs without touching storage.
type fakeUploader struct {
	mu    sync.Mutex
	count int
	err   error
}

func (f *fakeUploader) Upload(ctx context.Context, prefix string, body io.Reader, size int64, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.count++
	return fmt.Sprintf("https://cdn.example.com/%s/%d", prefix, f.count), nil
}
