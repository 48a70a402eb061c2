package notifications

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/forestapp/wildpark-api/models"
)

const (
	// multicastBatchLimit is the provider's documented multicast ceiling
	multicastBatchLimit = 400

	// officersTopic receives the broadcast fallback when no device tokens resolve
	officersTopic = "officers"
)

// UserStore is the slice of the user collection the dispatcher needs:
// officer lookup for destinations, a full scan plus partial updates for
// stale-token cleanup. databases.UserDatabase satisfies it.
type UserStore interface {
	UsersByRole(ctx context.Context, role string) ([]models.User, error)
	AllUsers(ctx context.Context) ([]models.User, error)
	UpdateUserFields(ctx context.Context, id string, fields map[string]interface{}) error
}

// Dispatcher delivers a best-effort push alert about one poaching incident to
// every registered officer device, then prunes tokens the provider reports as
// no longer registered. It never surfaces a failure to the request that
// created the incident.
type Dispatcher struct {
	users    UserStore
	provider Provider
}

// NewDispatcher wires a dispatcher to its user store and push provider
func NewDispatcher(users UserStore, provider Provider) *Dispatcher {
	return &Dispatcher{users: users, provider: provider}
}

// Dispatch delivers the alert in the background. It returns immediately; the
// HTTP handler that created the incident must never wait on delivery.
func (d *Dispatcher) Dispatch(incidentID string, details models.IncidentDetails) {
	go d.Run(context.Background(), incidentID, details)
}

// Run executes one dispatch synchronously. Every store and provider failure
// is logged and swallowed; Run never panics and never returns an error.
//
// Calling Run twice for the same incident sends the alert twice. The creating
// endpoint calls it exactly once per incident; deduplication is not done here.
func (d *Dispatcher) Run(ctx context.Context, incidentID string, details models.IncidentDetails) {
	defer func() {
		if r := recover(); r != nil {
			zap.S().Errorw("incident alert dispatch panicked",
				"incidentId", incidentID,
				"panic", r,
			)
		}
	}()

	note, data := BuildPayload(incidentID, details)
	opts := defaultOptions()

	tokens := d.resolveTokens(ctx)
	if len(tokens) == 0 {
		// sole fallback, no retry
		if err := d.provider.SendToTopic(ctx, officersTopic, note, data, opts); err != nil {
			zap.S().Errorw("officer topic broadcast failed",
				"incidentId", incidentID,
				"topic", officersTopic,
				"error", err,
			)
			return
		}
		zap.S().Infow("no officer tokens registered, sent topic broadcast",
			"incidentId", incidentID,
			"topic", officersTopic,
		)
		return
	}

	success, failure, invalid := d.sendBatches(ctx, incidentID, tokens, note, data, opts)

	zap.S().Infow("incident alert dispatch complete",
		"incidentId", incidentID,
		"destinations", len(tokens),
		"success", success,
		"failure", failure,
		"invalidTokens", len(invalid),
	)

	if len(invalid) > 0 {
		d.pruneInvalidTokens(ctx, invalid)
	}
}

// resolveTokens queries officers and takes each record's first non-empty
// token slot. Tokens shared by multiple users are not deduplicated; each
// registered destination gets its own send.
func (d *Dispatcher) resolveTokens(ctx context.Context) []string {
	officers, err := d.users.UsersByRole(ctx, models.RoleOfficer)
	if err != nil {
		zap.S().Errorw("failed to query officers for incident alert", "error", err)
		return nil
	}

	var tokens []string
	for _, officer := range officers {
		if token := officer.Details.DeviceToken(); token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}

// sendBatches partitions the destinations into multicast batches and sends
// them in order. Batches are sequential so the shared invalid set and
// counters need no locking.
func (d *Dispatcher) sendBatches(ctx context.Context, incidentID string, tokens []string, note Notification, data map[string]string, opts Options) (success, failure int, invalid map[string]struct{}) {
	invalid = make(map[string]struct{})

	for start := 0; start < len(tokens); start += multicastBatchLimit {
		end := start + multicastBatchLimit
		if end > len(tokens) {
			end = len(tokens)
		}
		batch := tokens[start:end]

		res, err := d.provider.SendMulticast(ctx, batch, note, data, opts)
		if err != nil {
			zap.S().Warnw("multicast send failed, falling back to single sends",
				"incidentId", incidentID,
				"batchStart", start,
				"batchSize", len(batch),
				"error", err,
			)
			s, f := d.sendIndividually(ctx, batch, note, data, opts, invalid)
			success += s
			failure += f
			continue
		}

		success += res.SuccessCount
		failure += res.FailureCount
		for i, r := range res.Responses {
			if r.Success || i >= len(batch) {
				continue
			}
			if IsInvalidToken(r.ErrorCode) {
				invalid[batch[i]] = struct{}{}
			}
		}
	}
	return success, failure, invalid
}

// sendIndividually is the per-token fallback after a failed multicast. One
// token's failure never aborts the rest of the batch.
func (d *Dispatcher) sendIndividually(ctx context.Context, batch []string, note Notification, data map[string]string, opts Options, invalid map[string]struct{}) (success, failure int) {
	for _, token := range batch {
		if err := d.provider.SendSingle(ctx, token, note, data, opts); err != nil {
			failure++
			if IsInvalidToken(ErrorCode(err)) {
				invalid[token] = struct{}{}
			}
			continue
		}
		success++
	}
	return success, failure
}

// pruneInvalidTokens clears every token slot whose current value the provider
// reported invalid. The scan covers all roles: the slot fields predate roles,
// so a dead token can live on any record. Per-user updates run concurrently
// and independently; a failed write is logged and skipped.
func (d *Dispatcher) pruneInvalidTokens(ctx context.Context, invalid map[string]struct{}) {
	users, err := d.users.AllUsers(ctx)
	if err != nil {
		zap.S().Errorw("failed to query users for stale token cleanup", "error", err)
		return
	}

	var wg sync.WaitGroup
	cleared := 0
	for _, user := range users {
		fields := staleTokenFields(user.Details, invalid)
		if len(fields) == 0 {
			continue
		}
		cleared++
		wg.Add(1)
		go func(id string, fields map[string]interface{}) {
			defer wg.Done()
			if err := d.users.UpdateUserFields(ctx, id, fields); err != nil {
				zap.S().Errorw("failed to clear stale push token", "userId", id, "error", err)
			}
		}(user.ID, fields)
	}
	wg.Wait()

	zap.S().Infow("stale push token cleanup finished",
		"invalidTokens", len(invalid),
		"usersUpdated", cleared,
	)
}

// staleTokenFields returns the $set fields that clear exactly the slots whose
// current value is in the invalid set. Slots are cleared to an explicit null,
// never an empty string, and untouched slots are left out entirely.
func staleTokenFields(details models.UserDetails, invalid map[string]struct{}) map[string]interface{} {
	fields := make(map[string]interface{})
	if _, ok := invalid[details.Token]; ok && details.Token != "" {
		fields["user.token"] = nil
	}
	if _, ok := invalid[details.PushToken]; ok && details.PushToken != "" {
		fields["user.pushToken"] = nil
	}
	if _, ok := invalid[details.NotificationToken]; ok && details.NotificationToken != "" {
		fields["user.notificationToken"] = nil
	}
	if len(fields) == 0 {
		return nil
	}
	return fields
}
