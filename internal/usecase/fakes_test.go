package usecase

import (
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"telehealth-service/internal/domain/entity"
	"telehealth-service/internal/service"
	"telehealth-service/pkg/timefmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// memoryDB backs the fake repositories. Transactions lock rows one by one
// the way PostgreSQL does for SELECT ... FOR UPDATE and UPDATE, and undo their
// writes on rollback. Two transactions touching different rows run in parallel.
type memoryDB struct {
	dataMu sync.RWMutex

	doctors      map[uuid.UUID]*entity.DoctorProfile
	patients     map[uuid.UUID]*entity.PatientProfile
	appointments map[uuid.UUID]*entity.Appointment
	audits       []entity.AuditLog
	nextAuditID  int64

	rowsMu sync.Mutex
	rows   map[uuid.UUID]*sync.Mutex

	txMu sync.Mutex
	txs  map[*gorm.DB]*memoryTx

	uniqueViolations atomic.Int64
}

// memoryTx tracks the row locks and undo steps of one open transaction
type memoryTx struct {
	held map[uuid.UUID]*sync.Mutex
	undo []func()
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		doctors:      map[uuid.UUID]*entity.DoctorProfile{},
		patients:     map[uuid.UUID]*entity.PatientProfile{},
		appointments: map[uuid.UUID]*entity.Appointment{},
		rows:         map[uuid.UUID]*sync.Mutex{},
		txs:          map[*gorm.DB]*memoryTx{},
	}
}

func (m *memoryDB) begin() *gorm.DB {
	handle := &gorm.DB{}
	m.txMu.Lock()
	m.txs[handle] = &memoryTx{held: map[uuid.UUID]*sync.Mutex{}}
	m.txMu.Unlock()
	return handle
}

func (m *memoryDB) tx(handle *gorm.DB) *memoryTx {
	if handle == nil {
		return nil
	}
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return m.txs[handle]
}

// end applies the undo log on rollback, then releases every row lock
func (m *memoryDB) end(handle *gorm.DB, commit bool) {
	m.txMu.Lock()
	t := m.txs[handle]
	delete(m.txs, handle)
	m.txMu.Unlock()

	if !commit {
		m.dataMu.Lock()
		for i := len(t.undo) - 1; i >= 0; i-- {
			t.undo[i]()
		}
		m.dataMu.Unlock()
	}
	for _, mu := range t.held {
		mu.Unlock()
	}
}

// lockRow blocks until the row is free. Outside a transaction it does nothing.
func (m *memoryDB) lockRow(handle *gorm.DB, id uuid.UUID) {
	t := m.tx(handle)
	if t == nil {
		return
	}
	if _, ok := t.held[id]; ok {
		return
	}

	m.rowsMu.Lock()
	mu, ok := m.rows[id]
	if !ok {
		mu = &sync.Mutex{}
		m.rows[id] = mu
	}
	m.rowsMu.Unlock()

	mu.Lock()
	t.held[id] = mu
}

// onRollback registers an undo step; dataMu is held when it runs.
// Writes outside a transaction commit immediately.
func (m *memoryDB) onRollback(handle *gorm.DB, undo func()) {
	if t := m.tx(handle); t != nil {
		t.undo = append(t.undo, undo)
	}
}

func (m *memoryDB) addDoctor(availability entity.Availability) uuid.UUID {
	return m.addNamedDoctor("Dr. Test", "General Practice", 5, availability)
}

func (m *memoryDB) addNamedDoctor(name, specialization string, experience int, availability entity.Availability) uuid.UUID {
	id := uuid.New()
	active := true
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.doctors[id] = &entity.DoctorProfile{
		UserID:             id,
		LicenseNumber:      "LIC-" + id.String()[:8],
		Specialization:     specialization,
		Experience:         experience,
		VerificationStatus: entity.VerificationApproved,
		AvailableSlots:     availability,
		User:               entity.User{ID: id, FullName: name, Email: id.String() + "@clinic.test", IsActive: &active},
	}
	return id
}

func (m *memoryDB) addPatient() uuid.UUID {
	return m.addNamedPatient("Patient Test", "")
}

func (m *memoryDB) addNamedPatient(name, email string) uuid.UUID {
	id := uuid.New()
	if email == "" {
		email = id.String() + "@mail.test"
	}
	m.dataMu.Lock()
	defer m.dataMu.Unlock()
	m.patients[id] = &entity.PatientProfile{
		UserID: id,
		User:   entity.User{ID: id, FullName: name, Email: email},
	}
	return id
}

func (m *memoryDB) doctorSlots(id uuid.UUID) entity.Availability {
	m.dataMu.RLock()
	defer m.dataMu.RUnlock()
	if d, ok := m.doctors[id]; ok {
		return d.AvailableSlots.Clone()
	}
	return nil
}

func (m *memoryDB) appointment(id uuid.UUID) entity.Appointment {
	m.dataMu.RLock()
	defer m.dataMu.RUnlock()
	return *m.appointments[id]
}

func (m *memoryDB) appointmentCount() int {
	m.dataMu.RLock()
	defer m.dataMu.RUnlock()
	return len(m.appointments)
}

func (m *memoryDB) auditActions() []string {
	m.dataMu.RLock()
	defer m.dataMu.RUnlock()
	actions := make([]string, len(m.audits))
	for i, a := range m.audits {
		actions[i] = a.Action
	}
	return actions
}

func copyDoctor(d *entity.DoctorProfile) *entity.DoctorProfile {
	c := *d
	c.AvailableSlots = d.AvailableSlots.Clone()
	return &c
}

type fakeTransactor struct {
	db *memoryDB
}

func (t *fakeTransactor) DB(ctx context.Context) *gorm.DB {
	return nil
}

func (t *fakeTransactor) WithinTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	handle := t.db.begin()
	if err := fn(handle); err != nil {
		t.db.end(handle, false)
		return err
	}
	t.db.end(handle, true)
	return nil
}

type fakeDoctorRepo struct {
	db *memoryDB
}

func (r *fakeDoctorRepo) Create(tx *gorm.DB, profile *entity.DoctorProfile) error {
	r.db.dataMu.Lock()
	defer r.db.dataMu.Unlock()
	r.db.doctors[profile.UserID] = copyDoctor(profile)
	r.db.onRollback(tx, func() { delete(r.db.doctors, profile.UserID) })
	return nil
}

func (r *fakeDoctorRepo) FindByUserID(_ *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error) {
	r.db.dataMu.RLock()
	defer r.db.dataMu.RUnlock()
	d, ok := r.db.doctors[userID]
	if !ok {
		return nil, nil
	}
	return copyDoctor(d), nil
}

func (r *fakeDoctorRepo) FindByUserIDForUpdate(tx *gorm.DB, userID uuid.UUID) (*entity.DoctorProfile, error) {
	r.db.lockRow(tx, userID)
	return r.FindByUserID(tx, userID)
}

func (r *fakeDoctorRepo) FindAll(_ *gorm.DB, status entity.VerificationStatus) ([]entity.DoctorProfile, error) {
	r.db.dataMu.RLock()
	defer r.db.dataMu.RUnlock()
	var out []entity.DoctorProfile
	for _, d := range r.db.doctors {
		if status == "" || d.VerificationStatus == status {
			out = append(out, *copyDoctor(d))
		}
	}
	return out, nil
}

func (r *fakeDoctorRepo) FindBookable(_ *gorm.DB, filter *entity.DoctorFilter) ([]entity.DoctorProfile, error) {
	r.db.dataMu.RLock()
	defer r.db.dataMu.RUnlock()
	if filter == nil {
		filter = &entity.DoctorFilter{}
	}
	contains := func(value, part string) bool {
		return strings.Contains(strings.ToLower(value), strings.ToLower(part))
	}

	out := []entity.DoctorProfile{}
	for _, d := range r.db.doctors {
		switch {
		case !d.IsVerified() || !d.User.Active():
		case filter.Specialization != "" && !contains(d.Specialization, filter.Specialization):
		case filter.Name != "" && !contains(d.User.FullName, filter.Name):
		case filter.MinExperience != nil && d.Experience < *filter.MinExperience:
		case filter.MaxExperience != nil && d.Experience > *filter.MaxExperience:
		default:
			out = append(out, *copyDoctor(d))
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch filter.Sort {
		case entity.DoctorSortNameDesc:
			return a.User.FullName > b.User.FullName
		case entity.DoctorSortExperienceHigh:
			if a.Experience != b.Experience {
				return a.Experience > b.Experience
			}
		case entity.DoctorSortExperienceLow:
			if a.Experience != b.Experience {
				return a.Experience < b.Experience
			}
		}
		return a.User.FullName < b.User.FullName
	})
	return out, nil
}

func (r *fakeDoctorRepo) UpdateAvailability(tx *gorm.DB, userID uuid.UUID, availability entity.Availability) error {
	r.db.dataMu.Lock()
	defer r.db.dataMu.Unlock()
	d, ok := r.db.doctors[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	previous := d.AvailableSlots
	d.AvailableSlots = availability.Clone()
	r.db.onRollback(tx, func() { d.AvailableSlots = previous })
	return nil
}

func (r *fakeDoctorRepo) UpdateVerification(tx *gorm.DB, userID uuid.UUID, status entity.VerificationStatus) (int64, error) {
	r.db.dataMu.Lock()
	defer r.db.dataMu.Unlock()
	d, ok := r.db.doctors[userID]
	if !ok {
		return 0, nil
	}
	previous := d.VerificationStatus
	d.VerificationStatus = status
	r.db.onRollback(tx, func() { d.VerificationStatus = previous })
	return 1, nil
}

type fakePatientRepo struct {
	db *memoryDB
}

func (r *fakePatientRepo) Create(tx *gorm.DB, profile *entity.PatientProfile) error {
	r.db.dataMu.Lock()
	defer r.db.dataMu.Unlock()
	p := *profile
	r.db.patients[profile.UserID] = &p
	r.db.onRollback(tx, func() { delete(r.db.patients, profile.UserID) })
	return nil
}

func (r *fakePatientRepo) FindByUserID(_ *gorm.DB, userID uuid.UUID) (*entity.PatientProfile, error) {
	r.db.dataMu.RLock()
	defer r.db.dataMu.RUnlock()
	p, ok := r.db.patients[userID]
	if !ok {
		return nil, nil
	}
	c := *p
	return &c, nil
}

func (r *fakePatientRepo) FindByDoctor(_ *gorm.DB, filter *entity.PatientFilter) ([]entity.PatientProfile, int64, error) {
	r.db.dataMu.RLock()
	defer r.db.dataMu.RUnlock()

	search := strings.ToLower(filter.Search)
	seen := map[uuid.UUID]bool{}
	var matched []entity.PatientProfile
	for _, a := range r.db.appointments {
		if a.DoctorID != filter.DoctorID || seen[a.PatientID] {
			continue
		}
		seen[a.PatientID] = true
		p, ok := r.db.patients[a.PatientID]
		if !ok {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.User.FullName), search) &&
			!strings.Contains(strings.ToLower(p.User.Email), search) {
			continue
		}
		matched = append(matched, *p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].User.FullName < matched[j].User.FullName })

	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return []entity.PatientProfile{}, total, nil
	}
	end := len(matched)
	if filter.Limit > 0 && filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}
	return matched[filter.Offset:end], total, nil
}

type fakeAppointmentRepo struct {
	db *memoryDB
}

// Create enforces uq_appointments_active_slot
func (r *fakeAppointmentRepo) Create(tx *gorm.DB, appointment *entity.Appointment) error {
	r.db.dataMu.Lock()
	defer r.db.dataMu.Unlock()
	for _, other := range r.db.appointments {
		if other.Status.IsActive() && other.DoctorID == appointment.DoctorID &&
			other.Date.Equal(appointment.Date) && other.Time == appointment.Time {
			r.db.uniqueViolations.Add(1)
			return &pgconn.PgError{
				Code:           "23505",
				Message:        "duplicate key value violates unique constraint",
				ConstraintName: "uq_appointments_active_slot",
			}
		}
	}

	now := time.Now()
	appointment.CreatedAt, appointment.UpdatedAt = now, now
	a := *appointment
	r.db.appointments[a.ID] = &a
	r.db.onRollback(tx, func() { delete(r.db.appointments, a.ID) })
	return nil
}

func (r *fakeAppointmentRepo) FindByID(_ *gorm.DB, id uuid.UUID) (*entity.Appointment, error) {
	r.db.dataMu.RLock()
	defer r.db.dataMu.RUnlock()
	a, ok := r.db.appointments[id]
	if !ok {
		return nil, nil
	}
	c := *a
	return &c, nil
}

func (r *fakeAppointmentRepo) FindOwned(db *gorm.DB, id uuid.UUID, owner entity.AppointmentOwner) (*entity.Appointment, error) {
	a, err := r.FindByID(db, id)
	if err != nil || a == nil || !owner.Owns(a) {
		return nil, err
	}
	return a, nil
}

func (r *fakeAppointmentRepo) FindByFilter(_ *gorm.DB, filter *entity.AppointmentFilter) ([]entity.Appointment, error) {
	r.db.dataMu.RLock()
	defer r.db.dataMu.RUnlock()
	var out []entity.Appointment
	for _, a := range r.db.appointments {
		if filter.PatientID != nil && a.PatientID != *filter.PatientID {
			continue
		}
		if filter.DoctorID != nil && a.DoctorID != *filter.DoctorID {
			continue
		}
		if filter.Date != nil && !a.Date.Equal(*filter.Date) {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, *a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time < out[j].Time })
	return out, nil
}

func (r *fakeAppointmentRepo) FindActiveByDoctorID(_ *gorm.DB, doctorID uuid.UUID) ([]entity.Appointment, error) {
	r.db.dataMu.RLock()
	defer r.db.dataMu.RUnlock()
	var out []entity.Appointment
	for _, a := range r.db.appointments {
		if a.DoctorID == doctorID && a.Status.IsActive() {
			out = append(out, *a)
		}
	}
	return out, nil
}

// Transition takes the row lock first and then re-evaluates the WHERE
// clause, as an UPDATE does after waiting on a concurrent writer.
func (r *fakeAppointmentRepo) Transition(tx *gorm.DB, id uuid.UUID, owner entity.AppointmentOwner, t entity.AppointmentTransition) (int64, error) {
	r.db.lockRow(tx, id)

	r.db.dataMu.Lock()
	defer r.db.dataMu.Unlock()
	a, ok := r.db.appointments[id]
	if !ok || !owner.Owns(a) {
		return 0, nil
	}
	matched := false
	for _, from := range t.From {
		if a.Status == from {
			matched = true
		}
	}
	if !matched {
		return 0, nil
	}

	previous := *a
	r.db.onRollback(tx, func() { *a = previous })

	a.Status = t.To
	if t.Prescription != "" {
		a.Prescription = t.Prescription
	}
	if t.Notes != "" {
		a.Notes = t.Notes
	}
	if t.CompletedAt != nil {
		a.CompletedAt = t.CompletedAt
	}
	a.UpdatedAt = time.Now()
	return 1, nil
}

type fakeAuditLogRepo struct {
	db *memoryDB
}

func (r *fakeAuditLogRepo) Create(tx *gorm.DB, log *entity.AuditLog) error {
	r.db.dataMu.Lock()
	defer r.db.dataMu.Unlock()
	r.db.nextAuditID++
	log.ID = r.db.nextAuditID
	r.db.audits = append(r.db.audits, *log)

	id := log.ID
	r.db.onRollback(tx, func() {
		for i := range r.db.audits {
			if r.db.audits[i].ID == id {
				r.db.audits = append(r.db.audits[:i], r.db.audits[i+1:]...)
				return
			}
		}
	})
	return nil
}

// FindByFilter returns newest first, matching the ORDER BY of the real query
func (r *fakeAuditLogRepo) FindByFilter(_ *gorm.DB, filter *entity.AuditLogFilter) ([]entity.AuditLog, int64, error) {
	r.db.dataMu.RLock()
	defer r.db.dataMu.RUnlock()

	var matched []entity.AuditLog
	for i := len(r.db.audits) - 1; i >= 0; i-- {
		a := r.db.audits[i]
		switch {
		case filter.Action != "" && a.Action != filter.Action:
		case filter.UserID != nil && (a.UserID == nil || *a.UserID != *filter.UserID):
		case filter.Entity != "" && a.Metadata["entity"] != filter.Entity:
		case filter.EntityID != "" && a.Metadata["entity_id"] != filter.EntityID:
		default:
			matched = append(matched, a)
		}
	}

	total := int64(len(matched))
	if filter.Offset >= len(matched) {
		return []entity.AuditLog{}, total, nil
	}
	end := len(matched)
	if filter.Limit > 0 && filter.Offset+filter.Limit < end {
		end = filter.Offset + filter.Limit
	}
	return matched[filter.Offset:end], total, nil
}

func (r *fakeAuditLogRepo) FindByID(_ *gorm.DB, id int64) (*entity.AuditLog, error) {
	r.db.dataMu.RLock()
	defer r.db.dataMu.RUnlock()
	for _, a := range r.db.audits {
		if a.ID == id {
			c := a
			return &c, nil
		}
	}
	return nil, nil
}

var errAuditDown = errors.New("audit store unavailable")

// failingAuditRepo rejects every write
type failingAuditRepo struct{}

func (failingAuditRepo) Create(*gorm.DB, *entity.AuditLog) error {
	return errAuditDown
}

func (failingAuditRepo) FindByFilter(*gorm.DB, *entity.AuditLogFilter) ([]entity.AuditLog, int64, error) {
	return nil, 0, errAuditDown
}

func (failingAuditRepo) FindByID(*gorm.DB, int64) (*entity.AuditLog, error) {
	return nil, errAuditDown
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []service.AppointmentEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event service.AppointmentEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fakePrescriptionStorage struct {
	uploads map[uuid.UUID][]byte
	err     error
}

func (s *fakePrescriptionStorage) Upload(_ context.Context, appointmentID uuid.UUID, file *service.PrescriptionFile) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	body, err := io.ReadAll(file.Content)
	if err != nil {
		return "", err
	}
	if s.uploads == nil {
		s.uploads = map[uuid.UUID][]byte{}
	}
	s.uploads[appointmentID] = body
	return "https://files.test/prescriptions/" + appointmentID.String() + "/" + file.Name, nil
}

// countingRecorder tallies metric calls keyed by "kind/label/outcome"
type countingRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (r *countingRecorder) RecordBooking(outcome string) {
	r.inc("booking/" + outcome)
}

func (r *countingRecorder) RecordTransition(status, outcome string) {
	r.inc("transition/" + status + "/" + outcome)
}

func (r *countingRecorder) inc(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.counts == nil {
		r.counts = map[string]int{}
	}
	r.counts[key]++
}

func (r *countingRecorder) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.counts[key]
}

var errStorageDown = errors.New("storage unavailable")

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func fixedClock(day string) func() time.Time {
	t, err := time.Parse(timefmt.DateLayout, day)
	if err != nil {
		panic(err)
	}
	t = t.Add(10 * time.Hour)
	return func() time.Time { return t }
}
