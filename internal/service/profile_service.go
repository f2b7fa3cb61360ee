package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusdesk/student-portal/internal/config"
	"github.com/campusdesk/student-portal/internal/domain"
	"github.com/campusdesk/student-portal/internal/events"
	"github.com/campusdesk/student-portal/internal/profileapi"
	"github.com/campusdesk/student-portal/internal/session"
)

var (
	// ErrMissingIdentity is returned when no user id is available.
	ErrMissingIdentity = errors.New("no authenticated user")
	// ErrSubmitInProgress rejects a second submit while one is in flight.
	ErrSubmitInProgress = errors.New("profile submission already in progress")
	// ErrDuplicateStudentID means the profile service already has this student id.
	ErrDuplicateStudentID = errors.New("student id already exists")
	// ErrSubmitFailed covers every other submission failure.
	ErrSubmitFailed = errors.New("profile submission failed")

	errStaleLoad = errors.New("stale profile load")
)

// submitLease bounds how long an unfinished submit blocks the next one.
const submitLease = time.Minute

// ProfileAPI is the remote store of student profiles.
type ProfileAPI interface {
	Fetch(ctx context.Context, userID string) (map[string]any, error)
	Create(ctx context.Context, userID string, payload domain.Submission) (map[string]any, error)
	Update(ctx context.Context, userID string, payload domain.Submission) (map[string]any, error)
}

// ProfileDependencies bundles collaborators of the profile service.
type ProfileDependencies struct {
	API        ProfileAPI
	Store      session.Store
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// ProfileService drives the profile page: loading, editing and submitting.
type ProfileService struct {
	api        ProfileAPI
	store      session.Store
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.ProfileConfig
	locks      userLocks
}

// NewProfileService builds the service.
func NewProfileService(cfg config.ProfileConfig, deps ProfileDependencies) *ProfileService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileService{
		api:        deps.API,
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		cfg:        cfg,
		locks:      userLocks{locks: make(map[string]*sync.Mutex)},
	}
}

// Current returns the stored page state without touching the profile service.
func (s *ProfileService) Current(ctx context.Context, identity domain.Identity) (*session.State, error) {
	if identity.ID == "" {
		return nil, ErrMissingIdentity
	}
	return s.store.Get(ctx, identity.ID)
}

// Load fetches the profile and replaces both the confirmed record and the
// edit buffer. The page starts over in read mode. When the fetch fails the
// page starts from the identity's name and email only. A load overtaken by a
// newer load or a save is discarded.
func (s *ProfileService) Load(ctx context.Context, identity domain.Identity) (*session.State, error) {
	if identity.ID == "" {
		return nil, ErrMissingIdentity
	}

	var generation uint64
	if _, err := s.update(ctx, identity.ID, func(st *session.State) error {
		st.Generation++
		generation = st.Generation
		st.Loading = true
		st.Editing = false
		return nil
	}); err != nil {
		return nil, err
	}

	record, fetchErr := s.api.Fetch(ctx, identity.ID)

	st, err := s.update(context.WithoutCancel(ctx), identity.ID, func(st *session.State) error {
		if st.Generation != generation {
			return errStaleLoad
		}
		st.Loading = false
		if fetchErr != nil {
			fallback := domain.EmptyProfile()
			fallback.Name = identity.Name
			fallback.Email = identity.Email
			st.Confirmed, st.Buffer = fallback, fallback
			return nil
		}
		loaded := domain.MergeProfile(domain.EmptyProfile(), record)
		st.Confirmed, st.Buffer = loaded, loaded
		return nil
	})
	switch {
	case errors.Is(err, errStaleLoad):
		s.logger.Debug("discarding stale profile load",
			zap.String("user_id", identity.ID),
			zap.Uint64("generation", generation))
		return st, nil
	case err != nil:
		s.clearLoading(identity.ID, generation)
		return nil, err
	}

	if fetchErr != nil {
		if profileapi.IsNotFound(fetchErr) {
			s.logger.Debug("no profile stored yet", zap.String("user_id", identity.ID))
		} else {
			s.logger.Warn("profile fetch failed; using identity defaults",
				zap.String("user_id", identity.ID), zap.Error(fetchErr))
		}
	}
	return st, nil
}

// clearLoading drops the loading flag of a load that could not store its
// result, unless a newer load owns the flag by now.
func (s *ProfileService) clearLoading(userID string, generation uint64) {
	_, err := s.update(context.Background(), userID, func(st *session.State) error {
		if st.Generation != generation {
			return errStaleLoad
		}
		st.Loading = false
		return nil
	})
	if err != nil && !errors.Is(err, errStaleLoad) {
		s.logger.Error("could not clear loading flag", zap.String("user_id", userID), zap.Error(err))
	}
}

// BeginEdit opens the edit form.
func (s *ProfileService) BeginEdit(ctx context.Context, identity domain.Identity) (*session.State, error) {
	if identity.ID == "" {
		return nil, ErrMissingIdentity
	}
	return s.update(ctx, identity.ID, func(st *session.State) error {
		st.Editing = true
		return nil
	})
}

// Cancel closes the edit form. Unsaved edits are dropped unless the portal
// is configured to keep drafts.
func (s *ProfileService) Cancel(ctx context.Context, identity domain.Identity) (*session.State, error) {
	if identity.ID == "" {
		return nil, ErrMissingIdentity
	}
	return s.update(ctx, identity.ID, func(st *session.State) error {
		st.Editing = false
		if !s.cfg.KeepDraftOnCancel {
			st.Buffer = st.Confirmed
		}
		return nil
	})
}

// SetField replaces a single field of the edit buffer. No validation is done.
func (s *ProfileService) SetField(ctx context.Context, identity domain.Identity, name, value string) (*session.State, error) {
	if identity.ID == "" {
		return nil, ErrMissingIdentity
	}
	return s.update(ctx, identity.ID, func(st *session.State) error {
		buf, err := st.Buffer.WithField(name, value)
		if err != nil {
			return err
		}
		st.Buffer = buf
		return nil
	})
}

// ApplyForm writes every posted form field into the edit buffer. Keys that
// are not form fields are ignored.
func (s *ProfileService) ApplyForm(ctx context.Context, identity domain.Identity, values map[string]string) (*session.State, error) {
	if identity.ID == "" {
		return nil, ErrMissingIdentity
	}
	return s.update(ctx, identity.ID, func(st *session.State) error {
		for _, field := range domain.FormFields {
			value, ok := values[field.Name]
			if !ok {
				continue
			}
			buf, err := st.Buffer.WithField(field.Name, value)
			if err != nil {
				return err
			}
			st.Buffer = buf
		}
		return nil
	})
}

// Submit sends the edit buffer to the profile service. The profile is
// created when the confirmed record has no student id and updated otherwise;
// the buffer's own student id plays no part in that choice. On success the
// profile is fetched again and the form closes. On failure the form stays
// open with the buffer untouched.
func (s *ProfileService) Submit(ctx context.Context, identity domain.Identity) (*session.State, error) {
	if identity.ID == "" {
		return nil, ErrMissingIdentity
	}

	var (
		payload domain.Submission
		create  bool
	)
	if _, err := s.update(ctx, identity.ID, func(st *session.State) error {
		if st.Submitting && time.Since(st.SubmitStartedAt) < submitLease {
			return ErrSubmitInProgress
		}
		st.Submitting = true
		st.SubmitStartedAt = time.Now().UTC()
		payload = domain.NewSubmission(st.Buffer, s.cfg.Cohort, s.cfg.Status)
		create = st.Confirmed.StudentID == ""
		return nil
	}); err != nil {
		return nil, err
	}

	persistCtx := context.WithoutCancel(ctx)

	var callErr error
	if create {
		_, callErr = s.api.Create(ctx, identity.ID, payload)
	} else {
		_, callErr = s.api.Update(ctx, identity.ID, payload)
	}
	if callErr != nil {
		return s.submitFailed(persistCtx, identity, callErr)
	}

	successText := domain.MsgProfileUpdated
	eventType := events.EventProfileUpdated
	if create {
		successText = domain.MsgProfileCreated
		eventType = events.EventProfileCreated
	}

	record, fetchErr := s.api.Fetch(ctx, identity.ID)

	st, err := s.update(persistCtx, identity.ID, func(st *session.State) error {
		st.Submitting = false
		st.Notify(domain.NotificationSuccess, successText)
		if fetchErr != nil {
			st.Notify(domain.NotificationError, domain.MsgGenericFailure)
			return nil
		}
		saved := domain.MergeProfile(domain.EmptyProfile(), record)
		st.Confirmed, st.Buffer = saved, saved
		st.Editing = false
		st.Loading = false
		// loads started before the save would bring back the old record
		st.Generation++
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(persistCtx, eventType, identity.ID, payload)

	if fetchErr != nil {
		s.logger.Warn("profile saved but refresh failed",
			zap.String("user_id", identity.ID), zap.Error(fetchErr))
		return st, fmt.Errorf("%w: refresh after save: %v", ErrSubmitFailed, fetchErr)
	}
	return st, nil
}

func (s *ProfileService) submitFailed(ctx context.Context, identity domain.Identity, callErr error) (*session.State, error) {
	text, result := domain.MsgGenericFailure, ErrSubmitFailed
	if profileapi.IsConflict(callErr) {
		text, result = domain.MsgDuplicateStudent, ErrDuplicateStudentID
	}

	st, err := s.update(ctx, identity.ID, func(st *session.State) error {
		st.Submitting = false
		st.Notify(domain.NotificationError, text)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("profile submission rejected",
		zap.String("user_id", identity.ID),
		zap.String("kind", string(profileapi.KindOf(callErr))),
		zap.Error(callErr))
	return st, fmt.Errorf("%w: %v", result, callErr)
}

// Reset discards the page state of the user.
func (s *ProfileService) Reset(ctx context.Context, identity domain.Identity) error {
	if identity.ID == "" {
		return ErrMissingIdentity
	}
	unlock := s.locks.lock(identity.ID)
	defer unlock()
	return s.store.Delete(ctx, identity.ID)
}

// PageView is everything the profile page renders.
type PageView struct {
	Identity             domain.Identity       `json:"-"`
	Profile              domain.Profile        `json:"profile"`
	Form                 domain.Profile        `json:"form"`
	Fields               []FieldView           `json:"fields"`
	Loading              bool                  `json:"loading"`
	Editing              bool                  `json:"editing"`
	Submitting           bool                  `json:"submitting"`
	Complete             bool                  `json:"complete"`
	ShowIncompleteBanner bool                  `json:"show_incomplete_banner"`
	ActionLabel          string                `json:"action_label"`
	DisplayName          string                `json:"display_name"`
	AvatarInitial        string                `json:"avatar_initial"`
	Notifications        []domain.Notification `json:"notifications"`
}

// FieldView is a form input with its current buffer value.
type FieldView struct {
	domain.FormField
	Value string `json:"value"`
}

// View builds the page view and hands out pending notifications exactly once.
func (s *ProfileService) View(ctx context.Context, identity domain.Identity) (*PageView, error) {
	if identity.ID == "" {
		return nil, ErrMissingIdentity
	}

	var notes []domain.Notification
	st, err := s.update(ctx, identity.ID, func(st *session.State) error {
		notes = st.Notifications
		st.Notifications = nil
		return nil
	})
	if err != nil {
		return nil, err
	}

	view := BuildPageView(identity, st)
	view.Notifications = notes
	return view, nil
}

// BuildPageView derives display values from page state.
func BuildPageView(identity domain.Identity, st *session.State) *PageView {
	complete := st.Confirmed.IsComplete()

	view := &PageView{
		Identity:             identity,
		Profile:              st.Confirmed,
		Form:                 st.Buffer,
		Loading:              st.Loading,
		Editing:              st.Editing,
		Submitting:           st.Submitting,
		Complete:             complete,
		ShowIncompleteBanner: !st.Editing && !complete,
		ActionLabel:          "Edit Profile",
		DisplayName:          st.Confirmed.Name,
		AvatarInitial:        "U",
		Notifications:        []domain.Notification{},
	}
	if !complete {
		view.ActionLabel = "Complete Profile"
	}
	if view.DisplayName == "" {
		view.DisplayName = "Your Name"
	}
	if r, _ := utf8.DecodeRuneInString(st.Confirmed.Name); r != utf8.RuneError {
		view.AvatarInitial = strings.ToUpper(string(r))
	}

	view.Fields = make([]FieldView, 0, len(domain.FormFields))
	for _, field := range domain.FormFields {
		view.Fields = append(view.Fields, FieldView{FormField: field, Value: st.Buffer.Field(field.Name)})
	}
	return view
}

func (s *ProfileService) publish(ctx context.Context, eventType events.EventType, userID string, payload domain.Submission) {
	if s.dispatcher == nil {
		return
	}
	event := events.Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
		Payload: events.ProfileSavedPayload{
			StudentID: payload.StudentID,
			Batch:     payload.Batch,
			Status:    payload.Status,
			Complete:  payload.Profile.IsComplete(),
		},
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("profile event handlers failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

// update runs fn against the user's state under a per-user lock and saves
// the result. When fn fails nothing is saved.
func (s *ProfileService) update(ctx context.Context, userID string, fn func(st *session.State) error) (*session.State, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	st, err := s.store.Get(ctx, userID)
	if errors.Is(err, session.ErrNotFound) {
		st = &session.State{UserID: userID}
	} else if err != nil {
		return nil, fmt.Errorf("load page state: %w", err)
	}

	if err := fn(st); err != nil {
		return st, err
	}
	if err := s.store.Save(ctx, st); err != nil {
		return nil, fmt.Errorf("save page state: %w", err)
	}
	return st, nil
}

type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *userLocks) lock(userID string) func() {
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
