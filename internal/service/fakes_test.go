package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/mansoorceksport/bluefin/internal/domain"
)

// In-memory fakes of the repository interfaces. They copy values in and out
// so tests observe only what was stored.

var errStoreDown = errors.New("store unavailable")

type idSeq struct {
	mu sync.Mutex
	n  int
}

func (s *idSeq) next(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", prefix, s.n)
}

// users

type fakeUserRepo struct {
	mu    sync.Mutex
	ids   idSeq
	users map[string]*domain.User
}

func newFakeUserRepo(users ...*domain.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		cp := *u
		r.users[u.ID] = &cp
	}
	return r
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return errors.New("duplicate email")
		}
	}
	user.ID = r.ids.next("user")
	user.CreatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) find(match func(*domain.User) bool) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.Email == email })
}

func (r *fakeUserRepo) GetByFirebaseUID(ctx context.Context, uid string) (*domain.User, error) {
	return r.find(func(u *domain.User) bool { return u.FirebaseUID != "" && u.FirebaseUID == uid })
}

func (r *fakeUserRepo) UpdateFirebaseUID(ctx context.Context, userID string, firebaseUID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.FirebaseUID = firebaseUID
	return nil
}

func (r *fakeUserRepo) SetActivePlan(ctx context.Context, userID string, plan domain.ActivePlan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.ActivePlan = &plan
	return nil
}

func (r *fakeUserRepo) GetByRole(ctx context.Context, role string) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.users {
		if u.Role == role {
			cp := *u
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// plans

type fakePlanRepo struct {
	mu    sync.Mutex
	ids   idSeq
	plans map[string]*domain.Plan
}

func newFakePlanRepo(plans ...*domain.Plan) *fakePlanRepo {
	r := &fakePlanRepo{plans: make(map[string]*domain.Plan)}
	for _, p := range plans {
		cp := *p
		r.plans[p.ID] = &cp
	}
	return r
}

func (r *fakePlanRepo) Create(ctx context.Context, plan *domain.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	plan.ID = r.ids.next("plan")
	cp := *plan
	r.plans[plan.ID] = &cp
	return nil
}

func (r *fakePlanRepo) GetByID(ctx context.Context, id string) (*domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.plans[id]
	if !ok {
		return nil, domain.ErrPlanNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePlanRepo) GetActive(ctx context.Context) ([]*domain.Plan, error) {
	all, _ := r.GetAll(ctx)
	var out []*domain.Plan
	for _, p := range all {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	return out, nil
}

func (r *fakePlanRepo) GetAll(ctx context.Context) ([]*domain.Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Plan
	for _, p := range r.plans {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakePlanRepo) Update(ctx context.Context, plan *domain.Plan) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[plan.ID]; !ok {
		return domain.ErrPlanNotFound
	}
	cp := *plan
	r.plans[plan.ID] = &cp
	return nil
}

func (r *fakePlanRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.plans[id]; !ok {
		return domain.ErrPlanNotFound
	}
	delete(r.plans, id)
	return nil
}

// payments

type fakePaymentRepo struct {
	mu        sync.Mutex
	ids       idSeq
	payments  map[string]*domain.Payment
	failWrite bool
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{payments: make(map[string]*domain.Payment)}
}

func (r *fakePaymentRepo) Create(ctx context.Context, payment *domain.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite {
		return errStoreDown
	}
	for _, p := range r.payments {
		if p.UserID == payment.UserID && p.PlanID == payment.PlanID && p.IsPending() {
			return domain.ErrDuplicatePendingPayment
		}
	}
	payment.ID = r.ids.next("pay")
	cp := *payment
	r.payments[payment.ID] = &cp
	return nil
}

func (r *fakePaymentRepo) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return nil, domain.ErrPaymentNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePaymentRepo) filter(match func(*domain.Payment) bool) []*domain.Payment {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.Payment{}
	for _, p := range r.payments {
		if match(p) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out
}

func (r *fakePaymentRepo) GetByUserID(ctx context.Context, userID string) ([]*domain.Payment, error) {
	return r.filter(func(p *domain.Payment) bool { return p.UserID == userID }), nil
}

func (r *fakePaymentRepo) GetPendingByUserAndPlan(ctx context.Context, userID, planID string) (*domain.Payment, error) {
	found := r.filter(func(p *domain.Payment) bool {
		return p.UserID == userID && p.PlanID == planID && p.IsPending()
	})
	if len(found) == 0 {
		return nil, domain.ErrPaymentNotFound
	}
	return found[0], nil
}

func (r *fakePaymentRepo) List(ctx context.Context, status string) ([]*domain.Payment, error) {
	return r.filter(func(p *domain.Payment) bool { return status == "" || p.Status == status }), nil
}

func (r *fakePaymentRepo) Decide(ctx context.Context, id string, decision domain.PaymentDecision) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.payments[id]
	if !ok {
		return domain.ErrPaymentNotFound
	}
	if !p.IsPending() {
		return domain.ErrPaymentAlreadyDecided
	}
	at := decision.ReviewedAt
	p.Status = decision.Status
	p.AdminNotes = decision.AdminNotes
	p.ReviewedBy = decision.ReviewedBy
	p.ReviewedAt = &at
	return nil
}

// notifications

type fakeNotificationRepo struct {
	mu            sync.Mutex
	ids           idSeq
	notifications []*domain.Notification
	failWrite     bool
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWrite {
		return errStoreDown
	}
	n.ID = r.ids.next("notif")
	cp := *n
	r.notifications = append(r.notifications, &cp)
	return nil
}

func (r *fakeNotificationRepo) CreateMany(ctx context.Context, ns []*domain.Notification) error {
	for _, n := range ns {
		if err := r.Create(ctx, n); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeNotificationRepo) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.ID == id {
			cp := *n
			return &cp, nil
		}
	}
	return nil, domain.ErrNotificationNotFound
}

func (r *fakeNotificationRepo) forUser(userID string) []*domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Notification
	for i := len(r.notifications) - 1; i >= 0; i-- {
		if r.notifications[i].UserID == userID {
			cp := *r.notifications[i]
			out = append(out, &cp)
		}
	}
	return out
}

func (r *fakeNotificationRepo) GetRecentByUserID(ctx context.Context, userID string, limit int64) ([]*domain.Notification, error) {
	out := r.forUser(userID)
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeNotificationRepo) MarkRead(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notifications {
		if n.ID == id {
			n.Read = true
			return nil
		}
	}
	return domain.ErrNotificationNotFound
}

func (r *fakeNotificationRepo) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, x := range r.notifications {
		if x.UserID == userID && !x.Read {
			x.Read = true
			n++
		}
	}
	return n, nil
}

func (r *fakeNotificationRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	var n int64
	for _, x := range r.forUser(userID) {
		if !x.Read {
			n++
		}
	}
	return n, nil
}

// tickets

type fakeTicketRepo struct {
	mu      sync.Mutex
	ids     idSeq
	tickets map[string]*domain.SupportTicket
	order   []string
}

func newFakeTicketRepo() *fakeTicketRepo {
	return &fakeTicketRepo{tickets: make(map[string]*domain.SupportTicket)}
}

func copyTicket(t *domain.SupportTicket) *domain.SupportTicket {
	cp := *t
	cp.Replies = append([]domain.TicketReply(nil), t.Replies...)
	return &cp
}

func (r *fakeTicketRepo) Create(ctx context.Context, ticket *domain.SupportTicket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket.ID = r.ids.next("ticket")
	if ticket.Replies == nil {
		ticket.Replies = []domain.TicketReply{}
	}
	r.tickets[ticket.ID] = copyTicket(ticket)
	r.order = append(r.order, ticket.ID)
	return nil
}

func (r *fakeTicketRepo) GetByID(ctx context.Context, id string) (*domain.SupportTicket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return nil, domain.ErrTicketNotFound
	}
	return copyTicket(t), nil
}

func (r *fakeTicketRepo) filter(match func(*domain.SupportTicket) bool) []*domain.SupportTicket {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*domain.SupportTicket{}
	for i := len(r.order) - 1; i >= 0; i-- {
		t := r.tickets[r.order[i]]
		if match(t) {
			out = append(out, copyTicket(t))
		}
	}
	return out
}

func (r *fakeTicketRepo) GetByUserID(ctx context.Context, userID string) ([]*domain.SupportTicket, error) {
	return r.filter(func(t *domain.SupportTicket) bool { return t.UserID == userID }), nil
}

func (r *fakeTicketRepo) List(ctx context.Context, f domain.TicketFilter) ([]*domain.SupportTicket, error) {
	search := strings.ToLower(f.Search)
	return r.filter(func(t *domain.SupportTicket) bool {
		if f.Status != "" && t.Status != f.Status {
			return false
		}
		if f.Priority != "" && t.Priority != f.Priority {
			return false
		}
		if f.Category != "" && t.Category != f.Category {
			return false
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Subject), search) &&
			!strings.Contains(strings.ToLower(t.Message), search) {
			return false
		}
		return true
	}), nil
}

func (r *fakeTicketRepo) AppendReply(ctx context.Context, id string, reply domain.TicketReply, from, to string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return domain.ErrTicketNotFound
	}
	if t.Status != from {
		return domain.ErrTicketChanged
	}
	t.Replies = append(t.Replies, reply)
	t.Status = to
	return nil
}

func (r *fakeTicketRepo) UpdateStatus(ctx context.Context, id string, change domain.TicketStatusChange) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return domain.ErrTicketNotFound
	}
	if domain.IsTerminalTicketStatus(change.Status) && len(t.Replies) == 0 {
		return domain.ErrReplyRequired
	}
	t.Status = change.Status
	if change.ResolvedAt != nil {
		t.ResolvedAt = change.ResolvedAt
		t.ResolvedBy = change.ResolvedBy
	}
	return nil
}

func (r *fakeTicketRepo) UpdateFields(ctx context.Context, id string, priority, category string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tickets[id]
	if !ok {
		return domain.ErrTicketNotFound
	}
	if priority != "" {
		t.Priority = priority
	}
	if category != "" {
		t.Category = category
	}
	return nil
}

func (r *fakeTicketRepo) Count(ctx context.Context, status, priority string, excludeStatus string) (int64, error) {
	found := r.filter(func(t *domain.SupportTicket) bool {
		if status != "" && t.Status != status {
			return false
		}
		if status == "" && excludeStatus != "" && t.Status == excludeStatus {
			return false
		}
		return priority == "" || t.Priority == priority
	})
	return int64(len(found)), nil
}

// usage

type fakeUsageRepo struct {
	mu      sync.Mutex
	ids     idSeq
	samples []*domain.Usage
}

func (r *fakeUsageRepo) Create(ctx context.Context, usage *domain.Usage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	usage.ID = r.ids.next("usage")
	cp := *usage
	r.samples = append(r.samples, &cp)
	return nil
}

func (r *fakeUsageRepo) GetRecentByUserID(ctx context.Context, userID string, limit int64) ([]*domain.Usage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Usage
	for i := len(r.samples) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		if r.samples[i].UserID == userID {
			cp := *r.samples[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeUsageRepo) GetSince(ctx context.Context, userID string, since time.Time) ([]*domain.Usage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Usage
	for _, s := range r.samples {
		if s.UserID == userID && !s.Date.Before(since) {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

// contact

type fakeContactRepo struct {
	contact *domain.Contact
}

func (r *fakeContactRepo) GetOrCreate(ctx context.Context) (*domain.Contact, error) {
	if r.contact == nil {
		c := domain.DefaultContact()
		r.contact = &c
	}
	cp := *r.contact
	return &cp, nil
}

func (r *fakeContactRepo) Update(ctx context.Context, updates map[string]string) (*domain.Contact, error) {
	c, _ := r.GetOrCreate(ctx)
	for field, v := range updates {
		switch field {
		case "company_name":
			c.CompanyName = v
		case "phone":
			c.Phone = v
		case "email":
			c.Email = v
		case "address":
			c.Address = v
		case "website":
			c.Website = v
		case "business_hours":
			c.BusinessHours = v
		}
	}
	r.contact = c
	cp := *c
	return &cp, nil
}

// files

type fakeFileRepo struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newFakeFileRepo() *fakeFileRepo {
	return &fakeFileRepo{files: make(map[string][]byte)}
}

func (r *fakeFileRepo) Upload(ctx context.Context, file []byte, key string, contentType string) (*domain.StoredFile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.files[key] = file
	return &domain.StoredFile{Key: key, URL: "/uploads/" + key}, nil
}

func (r *fakeFileRepo) Delete(ctx context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.files, key)
	return nil
}

func (r *fakeFileRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.files)
}

// transactions and locks

type fakeTransactor struct {
	calls int
}

func (t *fakeTransactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

// memLocker is a process-local domain.Locker
type memLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLocker() *memLocker {
	return &memLocker{held: make(map[string]bool)}
}

func (l *memLocker) Acquire(ctx context.Context, key string, ttl, wait time.Duration) (func(), error) {
	deadline := time.Now().Add(wait)
	for {
		l.mu.Lock()
		if !l.held[key] {
			l.held[key] = true
			l.mu.Unlock()
			var once sync.Once
			return func() {
				once.Do(func() {
					l.mu.Lock()
					delete(l.held, key)
					l.mu.Unlock()
				})
			}, nil
		}
		l.mu.Unlock()
		if !time.Now().Before(deadline) {
			return nil, domain.ErrDecisionInProgress
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// refresh tokens

type fakeRefreshTokenRepo struct {
	mu     sync.Mutex
	tokens map[string]*domain.RefreshToken
}

func newFakeRefreshTokenRepo() *fakeRefreshTokenRepo {
	return &fakeRefreshTokenRepo{tokens: make(map[string]*domain.RefreshToken)}
}

func (r *fakeRefreshTokenRepo) Create(ctx context.Context, token *domain.RefreshToken) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *token
	r.tokens[token.TokenHash] = &cp
	return nil
}

func (r *fakeRefreshTokenRepo) FindByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tokens[hash]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *fakeRefreshTokenRepo) RevokeByHash(ctx context.Context, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.tokens[hash]; ok {
		now := time.Now()
		t.Revoked = true
		t.RevokedAt = &now
	}
	return nil
}

func (r *fakeRefreshTokenRepo) RevokeAllByUserID(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

// identity provider

type fakeAuthClient struct {
	tokens map[string]*auth.Token
}

func (c *fakeAuthClient) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if t, ok := c.tokens[idToken]; ok {
		return t, nil
	}
	return nil, errors.New("token rejected")
}
