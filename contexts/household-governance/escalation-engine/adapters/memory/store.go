package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"hearth/contexts/household-governance/escalation-engine/domain/entities"
	domainerrors "hearth/contexts/household-governance/escalation-engine/domain/errors"
	"hearth/contexts/household-governance/escalation-engine/ports"
	"hearth/internal/platform/txguard"

	"github.com/google/uuid"
)

var (
	errSimulatedConflict = errors.New("simulated serialization failure")
	errDuplicatePending  = errors.New("duplicate pending counter for subject")
	errDuplicateVote     = errors.New("duplicate vote for participant")
)

// Store is an in-memory adapter implementing the engine's store, reader and
// notifier ports. Transactions are serialized and commit by swapping in a
// working copy, so a failed body leaves no trace.
// It is intended for tests and local development wiring.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex

	state         state
	notifications []entities.Notification

	failCommits     int
	notifyErr       error
	dropRoleUpserts int
	now             time.Time
}

type state struct {
	members  map[string]entities.Member
	holdings map[string]entities.Holding
	roles    map[string]entities.FamilyRole
	counters map[string]entities.Counter
	entries  map[string]entities.LedgerEntry
	acks     map[string]entities.Acknowledgement
}

func newState() state {
	return state{
		members:  make(map[string]entities.Member),
		holdings: make(map[string]entities.Holding),
		roles:    make(map[string]entities.FamilyRole),
		counters: make(map[string]entities.Counter),
		entries:  make(map[string]entities.LedgerEntry),
		acks:     make(map[string]entities.Acknowledgement),
	}
}

func (s state) clone() state {
	out := newState()
	for k, v := range s.members {
		out.members[k] = v
	}
	for k, v := range s.holdings {
		out.holdings[k] = v
	}
	for k, v := range s.roles {
		out.roles[k] = v
	}
	for k, v := range s.counters {
		out.counters[k] = v
	}
	for k, v := range s.entries {
		out.entries[k] = v
	}
	for k, v := range s.acks {
		out.acks[k] = v
	}
	return out
}

func NewStore() *Store {
	return &Store{state: newState()}
}

// PutMember seeds or replaces a member record.
func (s *Store) PutMember(member entities.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.members[memberKey(member.FamilyID, member.MemberID)] = member
}

// PutHolding seeds or replaces an investment or asset.
func (s *Store) PutHolding(holding entities.Holding) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.holdings[holdingKey(holding.Kind, holding.FamilyID, holding.HoldingID)] = holding
}

// PutRole seeds or replaces a family role assignment.
func (s *Store) PutRole(role entities.FamilyRole) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.roles[roleKey(role.FamilyID, role.UserID)] = role
}

// FailNextCommits makes the next n transactions fail at commit with a
// retryable conflict after their body ran.
func (s *Store) FailNextCommits(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failCommits = n
}

// FailNotifications makes Notify return err; nil restores delivery.
func (s *Store) FailNotifications(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifyErr = err
}

// DropNextRoleUpserts silently ignores the next n role upserts, emulating an
// upsert that reported success without persisting.
func (s *Store) DropNextRoleUpserts(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropRoleUpserts = n
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.TxStore) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	tx := &txStore{store: s, state: s.state.clone()}
	s.mu.RUnlock()

	if err := fn(ctx, tx); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCommits > 0 {
		s.failCommits--
		return txguard.Conflict(errSimulatedConflict)
	}
	s.state = tx.state
	return nil
}

// Notify records the notification; delivery failures are injected with
// FailNotifications.
func (s *Store) Notify(_ context.Context, notification entities.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.notifyErr != nil {
		return s.notifyErr
	}
	if notification.NotificationID == "" {
		notification.NotificationID = uuid.NewString()
	}
	s.notifications = append(s.notifications, notification)
	return nil
}

// Notifications returns delivered notifications in delivery order.
func (s *Store) Notifications() []entities.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.Notification(nil), s.notifications...)
}

// ListNotifications returns userID's notifications, newest first.
func (s *Store) ListNotifications(_ context.Context, userID string) ([]entities.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Notification, 0)
	for i := len(s.notifications) - 1; i >= 0; i-- {
		if s.notifications[i].UserID == userID {
			items = append(items, s.notifications[i])
		}
	}
	return items, nil
}

// MarkNotificationRead sets read_at on userID's unread notifications
// referencing counterID.
func (s *Store) MarkNotificationRead(_ context.Context, userID string, counterID string, at time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var marked int64
	for i := range s.notifications {
		n := &s.notifications[i]
		if n.UserID != userID || n.CounterID != counterID || n.ReadAt != nil {
			continue
		}
		readAt := at.UTC()
		n.ReadAt = &readAt
		marked++
	}
	return marked, nil
}

// Member returns the committed member record.
func (s *Store) Member(familyID string, memberID string) (entities.Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	member, ok := s.state.members[memberKey(familyID, memberID)]
	return member, ok
}

// Holding returns the committed holding record.
func (s *Store) Holding(kind entities.SubjectKind, familyID string, holdingID string) (entities.Holding, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	holding, ok := s.state.holdings[holdingKey(kind, familyID, holdingID)]
	return holding, ok
}

// Counters returns every committed counter of a workflow and subject id,
// oldest first.
func (s *Store) Counters(workflow entities.WorkflowKind, subjectID string) []entities.Counter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Counter, 0)
	for _, counter := range s.state.counters {
		if counter.Workflow == workflow && counter.Subject.ID == subjectID {
			items = append(items, counter)
		}
	}
	sortCounters(items)
	return items
}

func (s *Store) GetFamilyRole(_ context.Context, familyID string, userID string) (entities.FamilyRole, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	role, ok := s.state.roles[roleKey(familyID, userID)]
	return role, ok, nil
}

func (s *Store) GetMember(ctx context.Context, familyID string, memberID string) (entities.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.getMember(ctx, familyID, memberID)
}

func (s *Store) GetHolding(ctx context.Context, kind entities.SubjectKind, familyID string, holdingID string) (entities.Holding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.getHolding(ctx, kind, familyID, holdingID)
}

func (s *Store) ListFamilyMembers(ctx context.Context, familyID string) ([]entities.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.listFamilyMembers(ctx, familyID)
}

func (s *Store) ListFamilyRoles(ctx context.Context, familyID string) ([]entities.FamilyRole, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.listFamilyRoles(ctx, familyID)
}

func (s *Store) GetCounter(ctx context.Context, counterID string) (entities.Counter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.getCounter(ctx, counterID)
}

func (s *Store) ListEntries(ctx context.Context, counterID string) ([]entities.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.listEntries(ctx, counterID)
}

func (s *Store) ListPendingCountersByFamily(_ context.Context, familyID string) ([]entities.Counter, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Counter, 0)
	for _, counter := range s.state.counters {
		if counter.Subject.FamilyID == familyID && counter.IsPending() {
			items = append(items, counter)
		}
	}
	sortCounters(items)
	return items, nil
}

// txStore is the working copy a transaction reads and writes.
type txStore struct {
	store *Store
	state state
}

// LockSubject is a no-op: transactions are already serialized.
func (t *txStore) LockSubject(context.Context, entities.SubjectRef) error {
	return nil
}

func (t *txStore) GetMember(ctx context.Context, familyID string, memberID string) (entities.Member, error) {
	return t.state.getMember(ctx, familyID, memberID)
}

func (t *txStore) GetHolding(ctx context.Context, kind entities.SubjectKind, familyID string, holdingID string) (entities.Holding, error) {
	return t.state.getHolding(ctx, kind, familyID, holdingID)
}

func (t *txStore) ListFamilyMembers(ctx context.Context, familyID string) ([]entities.Member, error) {
	return t.state.listFamilyMembers(ctx, familyID)
}

func (t *txStore) ListFamilyRoles(ctx context.Context, familyID string) ([]entities.FamilyRole, error) {
	return t.state.listFamilyRoles(ctx, familyID)
}

func (t *txStore) GetCounter(ctx context.Context, counterID string) (entities.Counter, error) {
	return t.state.getCounter(ctx, counterID)
}

func (t *txStore) GetPendingCounter(ctx context.Context, workflow entities.WorkflowKind, subject entities.SubjectRef) (entities.Counter, bool, error) {
	items, err := t.ListPendingCounters(ctx, workflow, subject)
	if err != nil || len(items) == 0 {
		return entities.Counter{}, false, err
	}
	return items[0], true, nil
}

func (t *txStore) ListPendingCounters(_ context.Context, workflow entities.WorkflowKind, subject entities.SubjectRef) ([]entities.Counter, error) {
	items := make([]entities.Counter, 0)
	for _, counter := range t.state.counters {
		if counter.Workflow != workflow || !counter.IsPending() || !sameSubject(counter.Subject, subject) {
			continue
		}
		items = append(items, counter)
	}
	sortCounters(items)
	return items, nil
}

func (t *txStore) SaveCounter(_ context.Context, counter entities.Counter) error {
	if counter.IsPending() {
		for id, existing := range t.state.counters {
			if id != counter.CounterID && existing.IsPending() &&
				existing.Workflow == counter.Workflow && sameSubject(existing.Subject, counter.Subject) {
				return txguard.Conflict(errDuplicatePending)
			}
		}
	}
	t.state.counters[counter.CounterID] = counter
	return nil
}

func (t *txStore) GetVote(_ context.Context, counterID string, participantID string) (entities.LedgerEntry, bool, error) {
	for _, entry := range t.state.entries {
		if entry.CounterID == counterID && entry.ParticipantID == participantID && entry.Action == entities.LedgerActionVote {
			return entry, true, nil
		}
	}
	return entities.LedgerEntry{}, false, nil
}

func (t *txStore) SaveEntry(_ context.Context, entry entities.LedgerEntry) error {
	if entry.Action == entities.LedgerActionVote {
		for id, existing := range t.state.entries {
			if id != entry.EntryID && existing.Action == entities.LedgerActionVote &&
				existing.CounterID == entry.CounterID && existing.ParticipantID == entry.ParticipantID {
				return txguard.Conflict(errDuplicateVote)
			}
		}
	}
	t.state.entries[entry.EntryID] = entry
	return nil
}

func (t *txStore) ListEntries(ctx context.Context, counterID string) ([]entities.LedgerEntry, error) {
	return t.state.listEntries(ctx, counterID)
}

func (t *txStore) SaveMember(_ context.Context, member entities.Member) error {
	key := memberKey(member.FamilyID, member.MemberID)
	if _, ok := t.state.members[key]; !ok {
		return domainerrors.ErrSubjectNotFound
	}
	t.state.members[key] = member
	return nil
}

func (t *txStore) SaveHolding(_ context.Context, holding entities.Holding) error {
	key := holdingKey(holding.Kind, holding.FamilyID, holding.HoldingID)
	if _, ok := t.state.holdings[key]; !ok {
		return domainerrors.ErrSubjectNotFound
	}
	t.state.holdings[key] = holding
	return nil
}

func (t *txStore) ListLockedHoldingsByOwner(_ context.Context, familyID string, memberID string) ([]entities.Holding, error) {
	items := make([]entities.Holding, 0)
	for _, holding := range t.state.holdings {
		if holding.FamilyID == familyID && holding.OwnerMemberID == memberID && holding.Locked {
			items = append(items, holding)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Kind != items[j].Kind {
			return items[i].Kind < items[j].Kind
		}
		return items[i].HoldingID < items[j].HoldingID
	})
	return items, nil
}

func (t *txStore) UpsertFamilyRole(_ context.Context, role entities.FamilyRole) error {
	if t.store.consumeRoleDrop() {
		return nil
	}
	t.state.roles[roleKey(role.FamilyID, role.UserID)] = role
	return nil
}

func (t *txStore) ForceFamilyRole(_ context.Context, role entities.FamilyRole) error {
	t.state.roles[roleKey(role.FamilyID, role.UserID)] = role
	return nil
}

func (t *txStore) SaveAcknowledgement(_ context.Context, ack entities.Acknowledgement) error {
	key := ack.CounterID + "|" + ack.UserID
	if _, ok := t.state.acks[key]; ok {
		return nil
	}
	t.state.acks[key] = ack
	return nil
}

func (t *txStore) HasAcknowledged(_ context.Context, counterID string, userIDs []string) (bool, error) {
	wanted := make(map[string]struct{}, len(userIDs))
	for _, userID := range userIDs {
		wanted[userID] = struct{}{}
	}
	for _, ack := range t.state.acks {
		if _, ok := wanted[ack.UserID]; ok && ack.CounterID == counterID {
			return true, nil
		}
	}
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()
	for _, notification := range t.store.notifications {
		if notification.CounterID != counterID || notification.ReadAt == nil {
			continue
		}
		if _, ok := wanted[notification.UserID]; ok {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) consumeRoleDrop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dropRoleUpserts <= 0 {
		return false
	}
	s.dropRoleUpserts--
	return true
}

func (s state) getMember(_ context.Context, familyID string, memberID string) (entities.Member, error) {
	member, ok := s.members[memberKey(familyID, memberID)]
	if !ok {
		return entities.Member{}, domainerrors.ErrSubjectNotFound
	}
	return member, nil
}

func (s state) getHolding(_ context.Context, kind entities.SubjectKind, familyID string, holdingID string) (entities.Holding, error) {
	holding, ok := s.holdings[holdingKey(kind, familyID, holdingID)]
	if !ok {
		return entities.Holding{}, domainerrors.ErrSubjectNotFound
	}
	return holding, nil
}

func (s state) listFamilyMembers(_ context.Context, familyID string) ([]entities.Member, error) {
	items := make([]entities.Member, 0)
	for _, member := range s.members {
		if member.FamilyID == familyID {
			items = append(items, member)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].MemberID < items[j].MemberID })
	return items, nil
}

func (s state) listFamilyRoles(_ context.Context, familyID string) ([]entities.FamilyRole, error) {
	items := make([]entities.FamilyRole, 0)
	for _, role := range s.roles {
		if role.FamilyID == familyID {
			items = append(items, role)
		}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].UserID < items[j].UserID })
	return items, nil
}

func (s state) getCounter(_ context.Context, counterID string) (entities.Counter, error) {
	counter, ok := s.counters[counterID]
	if !ok {
		return entities.Counter{}, domainerrors.ErrCounterNotFound
	}
	return counter, nil
}

func (s state) listEntries(_ context.Context, counterID string) ([]entities.LedgerEntry, error) {
	items := make([]entities.LedgerEntry, 0)
	for _, entry := range s.entries {
		if entry.CounterID == counterID {
			items = append(items, entry)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].EntryID < items[j].EntryID
	})
	return items, nil
}

func sameSubject(a entities.SubjectRef, b entities.SubjectRef) bool {
	return a.Kind == b.Kind && a.FamilyID == b.FamilyID && a.ID == b.ID
}

func sortCounters(items []entities.Counter) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].CounterID < items[j].CounterID
	})
}

func memberKey(familyID string, memberID string) string {
	return familyID + "|" + memberID
}

func holdingKey(kind entities.SubjectKind, familyID string, holdingID string) string {
	return string(kind) + "|" + familyID + "|" + holdingID
}

func roleKey(familyID string, userID string) string {
	return familyID + "|" + userID
}

// Now implements ports.Clock. It reports wall time until SetNow pins it.
func (s *Store) Now() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.now.IsZero() {
		return time.Now().UTC()
	}
	return s.now
}

// SetNow pins the store clock.
func (s *Store) SetNow(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now.UTC()
}

// Advance moves a pinned clock forward by d.
func (s *Store) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.now.IsZero() {
		s.now = time.Now().UTC()
	}
	s.now = s.now.Add(d)
}

// NewID implements ports.IDGenerator.
func (s *Store) NewID(context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.UnitOfWork = (*Store)(nil)
var _ ports.CounterReader = (*Store)(nil)
var _ ports.RoleReader = (*Store)(nil)
var _ ports.Notifier = (*Store)(nil)
var _ ports.Inbox = (*Store)(nil)
var _ ports.TxStore = (*txStore)(nil)
