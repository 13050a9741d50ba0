package rules

import (
	"strings"

	"vehicle-health-monitor/internal/severity"
)

// Escalation describes when a fired rule is allowed to set the running level.
// Each rule carries its own condition; the engine never takes a generic max.
type Escalation int

const (
	// Overwrite sets the rule's target level unconditionally.
	Overwrite Escalation = iota
	// FromNone sets the target only while the running level is None.
	FromNone
	// FromNoneOrLow sets the target while the running level is None or Low.
	FromNoneOrLow
)

func (e Escalation) apply(current, target severity.Level) severity.Level {
	switch e {
	case Overwrite:
		return target
	case FromNone:
		if current == severity.None {
			return target
		}
	case FromNoneOrLow:
		if current == severity.None || current == severity.Low {
			return target
		}
	}
	return current
}

func (e Escalation) String() string {
	switch e {
	case Overwrite:
		return "overwrite"
	case FromNone:
		return "from_none"
	case FromNoneOrLow:
		return "from_none_or_low"
	default:
		return "unknown"
	}
}

// Rule is a pure predicate plus detail formatter over a snapshot S.
type Rule[S any] struct {
	Name       string
	Target     severity.Level
	Escalation Escalation
	Trigger    func(S) bool
	Detail     func(S) string
}

// Outcome is the aggregated result of one evaluation.
type Outcome struct {
	Level       severity.Level
	Description string
	Details     []string
	Fired       []string
}

// Engine evaluates an ordered rule list against one snapshot at a time.
// It holds no state between evaluations.
type Engine[S any] struct {
	rules        []Rule[S]
	descriptions severity.Descriptions
	gate         func(S) bool
}

// Option customises an Engine.
type Option[S any] func(*Engine[S])

// WithGate installs an activation check. When it returns false the engine
// returns the None description without evaluating any rule.
func WithGate[S any](gate func(S) bool) Option[S] {
	return func(e *Engine[S]) {
		e.gate = gate
	}
}

// New builds an engine. Rules are evaluated in the order given.
func New[S any](descriptions severity.Descriptions, rules []Rule[S], opts ...Option[S]) *Engine[S] {
	owned := make([]Rule[S], len(rules))
	copy(owned, rules)
	e := &Engine[S]{rules: owned, descriptions: descriptions}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate runs every rule against snap and joins the fired details.
func (e *Engine[S]) Evaluate(snap S) Outcome {
	if e.gate != nil && !e.gate(snap) {
		return Outcome{Level: severity.None, Description: e.descriptions.Of(severity.None)}
	}

	level := severity.None
	var details, fired []string
	for _, r := range e.rules {
		if !r.Trigger(snap) {
			continue
		}
		level = r.Escalation.apply(level, r.Target)
		fired = append(fired, r.Name)
		if r.Detail != nil {
			details = append(details, r.Detail(snap))
		}
	}

	description := e.descriptions.Of(level)
	if len(details) > 0 {
		description += " Details: " + strings.Join(details, "; ")
	}
	return Outcome{Level: level, Description: description, Details: details, Fired: fired}
}

// EscalationOf reports the escalation mode of the named rule.
func (e *Engine[S]) EscalationOf(name string) (Escalation, bool) {
	for _, r := range e.rules {
		if r.Name == name {
			return r.Escalation, true
		}
	}
	return 0, false
}

// Rules returns the rule names in evaluation order.
func (e *Engine[S]) Rules() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name
	}
	return names
}
