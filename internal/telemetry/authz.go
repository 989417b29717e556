package telemetry

import (
	"context"
	"log"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"workspace-tracker/internal/authz"
	"workspace-tracker/internal/server/interceptors"
	"workspace-tracker/internal/telemetry/domain"
	"workspace-tracker/internal/telemetry/producer"
)

// decisionMetadata is the Metadata payload of authz_decision events.
type decisionMetadata struct {
	Allowed  bool     `json:"allowed"`
	Code     string   `json:"code,omitempty"`
	Reason   string   `json:"reason,omitempty"`
	Mode     string   `json:"mode"`
	Target   string   `json:"target"`
	Required []string `json:"required,omitempty"`
}

// AuthzObserver reports authorization outcomes: denials are logged, every outcome is counted in
// tracker.authz.decisions and emitted asynchronously as an authz_decision event. The distinct
// failure codes are kept here even though clients only ever see "access denied".
type AuthzObserver struct {
	emitter   EventEmitter
	decisions metric.Int64Counter
	logAllows bool
}

// NewAuthzObserver returns an observer emitting to emitter (may be nil) and counting with meter
// (nil uses a no-op meter).
func NewAuthzObserver(emitter EventEmitter, meter metric.Meter, logAllows bool) (*AuthzObserver, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("")
	}
	counter, err := meter.Int64Counter("tracker.authz.decisions",
		metric.WithDescription("Authorization decisions by outcome and failure code"),
		metric.WithUnit("{decision}"))
	if err != nil {
		return nil, err
	}
	return &AuthzObserver{emitter: emitter, decisions: counter, logAllows: logAllows}, nil
}

// ObserveDecision implements authz.Observer.
func (o *AuthzObserver) ObserveDecision(ctx context.Context, ev authz.DecisionEvent) {
	outcome := "allow"
	if !ev.Allowed {
		outcome = "deny"
	}
	o.decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("code", string(ev.Code)),
		attribute.String("target_kind", string(ev.Target.Kind)),
	))

	required := make([]string, len(ev.Required))
	for i, p := range ev.Required {
		required[i] = p.String()
	}
	if !ev.Allowed {
		log.Printf("authz: deny actor=%s workspace=%s target=%s code=%s reason=%s required=%v",
			ev.ActorID, ev.WorkspaceID, ev.Target, ev.Code, ev.Reason, required)
	} else if o.logAllows {
		log.Printf("authz: allow actor=%s workspace=%s target=%s required=%v", ev.ActorID, ev.WorkspaceID, ev.Target, required)
	}

	meta := decisionMetadata{
		Allowed:  ev.Allowed,
		Code:     string(ev.Code),
		Mode:     ev.Mode.String(),
		Target:   ev.Target.String(),
		Required: required,
	}
	if ev.Reason != authz.ReasonNone {
		meta.Reason = ev.Reason.String()
	}
	event := domain.NewEvent(domain.EventTypeAuthzDecision, "authz", meta)
	event.WorkspaceID = ev.WorkspaceID
	event.UserID = ev.ActorID
	event.SessionID, _ = interceptors.GetSessionID(ctx)
	producer.EmitAsync(o.emitter, event)
}
