package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/forestapp/wildpark-api/models"
)

type fakeProvider struct {
	multicastBatches [][]string
	multicastFn      func(tokens []string) (*MulticastResult, error)

	singleSent []string
	singleFn   func(token string) error

	topicSends []string
	topicErr   error
	topicDone  chan struct{}
}

func (p *fakeProvider) SendMulticast(ctx context.Context, tokens []string, note Notification, data map[string]string, opts Options) (*MulticastResult, error) {
	batch := append([]string(nil), tokens...)
	p.multicastBatches = append(p.multicastBatches, batch)
	if p.multicastFn != nil {
		return p.multicastFn(tokens)
	}
	return &MulticastResult{
		SuccessCount: len(tokens),
		Responses:    successResponses(len(tokens)),
	}, nil
}

func (p *fakeProvider) SendSingle(ctx context.Context, token string, note Notification, data map[string]string, opts Options) error {
	p.singleSent = append(p.singleSent, token)
	if p.singleFn != nil {
		return p.singleFn(token)
	}
	return nil
}

func (p *fakeProvider) SendToTopic(ctx context.Context, topic string, note Notification, data map[string]string, opts Options) error {
	p.topicSends = append(p.topicSends, topic)
	if p.topicDone != nil {
		close(p.topicDone)
	}
	return p.topicErr
}

func successResponses(n int) []SendResult {
	out := make([]SendResult, n)
	for i := range out {
		out[i] = SendResult{Success: true}
	}
	return out
}

type fakeUserStore struct {
	officers    []models.User
	officersErr error
	all         []models.User
	allErr      error

	mu        sync.Mutex
	updates   map[string]map[string]interface{}
	updateErr map[string]error
}

func (s *fakeUserStore) UsersByRole(ctx context.Context, role string) ([]models.User, error) {
	if s.officersErr != nil {
		return nil, s.officersErr
	}
	var out []models.User
	for _, u := range s.officers {
		if u.Details.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *fakeUserStore) AllUsers(ctx context.Context) ([]models.User, error) {
	if s.allErr != nil {
		return nil, s.allErr
	}
	return s.all, nil
}

func (s *fakeUserStore) UpdateUserFields(ctx context.Context, id string, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.updateErr[id]; ok {
		return err
	}
	if s.updates == nil {
		s.updates = make(map[string]map[string]interface{})
	}
	s.updates[id] = fields
	return nil
}

func officer(id, token, pushToken, notificationToken string) models.User {
	return models.User{
		ID: id,
		Details: models.UserDetails{
			Role:              models.RoleOfficer,
			Token:             token,
			PushToken:         pushToken,
			NotificationToken: notificationToken,
		},
	}
}

func elephantIncident() models.IncidentDetails {
	return models.IncidentDetails{
		Species:      "Elephant",
		Location:     "Sector A",
		Severity:     models.SeverityHigh,
		ReporterName: "Jane",
		Description:  "Saw two trucks",
	}
}

func TestRunSendsMulticastToOfficerTokens(t *testing.T) {
	store := &fakeUserStore{
		officers: []models.User{
			officer("u1", "tok-1", "", ""),
			officer("u2", "", "tok-2", ""),
			officer("u3", "", "", "tok-3"),
			officer("u4", "", "", ""), // no registered device
			{ID: "u5", Details: models.UserDetails{Role: "visitor", Token: "tok-visitor"}},
		},
	}
	provider := &fakeProvider{}
	d := NewDispatcher(store, provider)

	d.Run(context.Background(), "inc-1", elephantIncident())

	assert.Len(t, provider.multicastBatches, 1)
	assert.Equal(t, []string{"tok-1", "tok-2", "tok-3"}, provider.multicastBatches[0])
	assert.Empty(t, provider.topicSends)
	assert.Empty(t, provider.singleSent)
}

func TestRunTokenSlotPriorityPrefersFirstPresent(t *testing.T) {
	store := &fakeUserStore{
		officers: []models.User{officer("u1", "slot-token", "slot-push", "slot-notif")},
	}
	provider := &fakeProvider{}
	NewDispatcher(store, provider).Run(context.Background(), "inc-1", elephantIncident())

	assert.Equal(t, [][]string{{"slot-token"}}, provider.multicastBatches)
}

func TestRunDoesNotDeduplicateSharedTokens(t *testing.T) {
	store := &fakeUserStore{
		officers: []models.User{
			officer("u1", "shared", "", ""),
			officer("u2", "shared", "", ""),
		},
	}
	provider := &fakeProvider{}
	NewDispatcher(store, provider).Run(context.Background(), "inc-1", elephantIncident())

	assert.Equal(t, [][]string{{"shared", "shared"}}, provider.multicastBatches)
}

func TestRunFallsBackToTopicWhenNoTokens(t *testing.T) {
	store := &fakeUserStore{
		officers: []models.User{officer("u1", "", "", "")},
	}
	provider := &fakeProvider{}
	NewDispatcher(store, provider).Run(context.Background(), "inc-1", elephantIncident())

	assert.Equal(t, []string{"officers"}, provider.topicSends)
	assert.Empty(t, provider.multicastBatches)
	assert.Empty(t, provider.singleSent)
}

func TestRunFallsBackToTopicWhenOfficerQueryFails(t *testing.T) {
	store := &fakeUserStore{officersErr: errors.New("mocked-error")}
	provider := &fakeProvider{topicErr: errors.New("mocked-error")}

	assert.NotPanics(t, func() {
		NewDispatcher(store, provider).Run(context.Background(), "inc-1", elephantIncident())
	})
	assert.Equal(t, []string{"officers"}, provider.topicSends)
}

func TestRunPartitionsTokensIntoBatches(t *testing.T) {
	var officers []models.User
	for i := 0; i < 1000; i++ {
		officers = append(officers, officer(fmt.Sprintf("u%d", i), fmt.Sprintf("tok-%d", i), "", ""))
	}
	store := &fakeUserStore{officers: officers}
	provider := &fakeProvider{}
	NewDispatcher(store, provider).Run(context.Background(), "inc-1", elephantIncident())

	// ceil(1000/400) batches, in partition order, nothing dropped or duplicated
	assert.Len(t, provider.multicastBatches, 3)
	assert.Len(t, provider.multicastBatches[0], 400)
	assert.Len(t, provider.multicastBatches[1], 400)
	assert.Len(t, provider.multicastBatches[2], 200)

	var joined []string
	for _, b := range provider.multicastBatches {
		joined = append(joined, b...)
	}
	assert.Len(t, joined, 1000)
	seen := make(map[string]bool, 1000)
	for _, tok := range joined {
		assert.False(t, seen[tok], "token duplicated across batches: %s", tok)
		seen[tok] = true
	}
}

func TestRunFallsBackToSingleSendsWhenMulticastFails(t *testing.T) {
	store := &fakeUserStore{
		officers: []models.User{
			officer("u1", "tok-1", "", ""),
			officer("u2", "tok-2", "", ""),
			officer("u3", "tok-3", "", ""),
		},
	}
	provider := &fakeProvider{
		multicastFn: func([]string) (*MulticastResult, error) {
			return nil, errors.New("transport error")
		},
		singleFn: func(token string) error {
			if token == "tok-2" {
				return errors.New("mocked-error")
			}
			return nil
		},
	}
	NewDispatcher(store, provider).Run(context.Background(), "inc-1", elephantIncident())

	// one attempt per token; tok-2 failing must not stop tok-3
	assert.Equal(t, []string{"tok-1", "tok-2", "tok-3"}, provider.singleSent)
	assert.Empty(t, provider.topicSends)
}

func TestRunPrunesOnlyInvalidRegistrationTokens(t *testing.T) {
	store := &fakeUserStore{
		officers: []models.User{
			officer("u1", "tok-ok", "", ""),
			officer("u2", "tok-dead", "", ""),
			officer("u3", "tok-throttled", "", ""),
		},
		all: []models.User{
			officer("u1", "tok-ok", "", ""),
			officer("u2", "tok-dead", "", ""),
			officer("u3", "tok-throttled", "", ""),
		},
	}
	provider := &fakeProvider{
		multicastFn: func(tokens []string) (*MulticastResult, error) {
			return &MulticastResult{
				SuccessCount: 1,
				FailureCount: 2,
				Responses: []SendResult{
					{Success: true},
					{Success: false, ErrorCode: "NotRegistered"},
					{Success: false, ErrorCode: "Unavailable"},
				},
			}, nil
		},
	}
	NewDispatcher(store, provider).Run(context.Background(), "inc-1", elephantIncident())

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.updates, 1)
	assert.Equal(t, map[string]interface{}{"user.token": nil}, store.updates["u2"])
}

func TestRunCleanupClearsOnlyMatchingSlots(t *testing.T) {
	store := &fakeUserStore{
		officers: []models.User{officer("u1", "tok-dead", "", "")},
		all: []models.User{
			officer("u1", "tok-dead", "", ""),
			// a non-officer holding the same dead token in a different slot
			{ID: "u2", Details: models.UserDetails{Role: "visitor", PushToken: "tok-dead", NotificationToken: "tok-live"}},
			{ID: "u3", Details: models.UserDetails{Role: "visitor", Token: "tok-live"}},
		},
		updateErr: map[string]error{"u1": errors.New("mocked-error")},
	}
	provider := &fakeProvider{
		multicastFn: func(tokens []string) (*MulticastResult, error) {
			return &MulticastResult{
				FailureCount: 1,
				Responses:    []SendResult{{Success: false, ErrorCode: "messaging/registration-token-not-registered"}},
			}, nil
		},
	}
	NewDispatcher(store, provider).Run(context.Background(), "inc-1", elephantIncident())

	store.mu.Lock()
	defer store.mu.Unlock()
	// u1's write failed but u2's still happened; u3 holds no dead token
	assert.Len(t, store.updates, 1)
	assert.Equal(t, map[string]interface{}{"user.pushToken": nil}, store.updates["u2"])
	_, touched := store.updates["u3"]
	assert.False(t, touched)
}

func TestRunCollectsInvalidTokensFromSingleSendFallback(t *testing.T) {
	store := &fakeUserStore{
		officers: []models.User{
			officer("u1", "tok-1", "", ""),
			officer("u2", "tok-2", "", ""),
		},
		all: []models.User{
			officer("u1", "tok-1", "", ""),
			officer("u2", "tok-2", "", ""),
		},
	}
	provider := &fakeProvider{
		multicastFn: func([]string) (*MulticastResult, error) {
			return nil, errors.New("transport error")
		},
		singleFn: func(token string) error {
			if token == "tok-2" {
				return &SendError{Code: "InvalidRegistration"}
			}
			return nil
		},
	}
	NewDispatcher(store, provider).Run(context.Background(), "inc-1", elephantIncident())

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Len(t, store.updates, 1)
	assert.Equal(t, map[string]interface{}{"user.token": nil}, store.updates["u2"])
}

func TestRunNeverPropagatesFailures(t *testing.T) {
	store := &fakeUserStore{
		officers: []models.User{officer("u1", "tok-1", "", "")},
		allErr:   errors.New("mocked-error"),
	}
	provider := &fakeProvider{
		multicastFn: func([]string) (*MulticastResult, error) {
			return nil, errors.New("mocked-error")
		},
		singleFn: func(string) error {
			return &SendError{Code: "NotRegistered"}
		},
		topicErr: errors.New("mocked-error"),
	}

	assert.NotPanics(t, func() {
		NewDispatcher(store, provider).Run(context.Background(), "inc-1", elephantIncident())
	})
}

func TestDispatchRunsInBackground(t *testing.T) {
	done := make(chan struct{})
	store := &fakeUserStore{}
	provider := &fakeProvider{topicDone: done}

	NewDispatcher(store, provider).Dispatch("inc-1", elephantIncident())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("background dispatch never reached the provider")
	}
}
