package app

import (
	"fmt"

	"vehicle-health-monitor/internal/monitor"
	"vehicle-health-monitor/internal/rules"
)

// CheckStability evaluates the stability rules once against the given
// features and prints the verdict.
func (a *App) CheckStability(features monitor.StabilityFeatures) (rules.Outcome, error) {
	th, err := a.Config.Thresholds()
	if err != nil {
		return rules.Outcome{}, err
	}
	engine := monitor.NewStabilityEngine(th.Stability)
	outcome := engine.Evaluate(features)
	return outcome, a.printOutcome(outcome, engine.EscalationOf)
}

// CheckBraking evaluates the braking rules once against the given status.
func (a *App) CheckBraking(status monitor.BrakingStatus) (rules.Outcome, error) {
	th, err := a.Config.Thresholds()
	if err != nil {
		return rules.Outcome{}, err
	}
	engine := monitor.NewBrakingEngine(th.Braking)
	outcome := engine.Evaluate(status)
	return outcome, a.printOutcome(outcome, engine.EscalationOf)
}

// printOutcome writes the verdict followed by each fired rule and the
// escalation mode it was evaluated with.
func (a *App) printOutcome(o rules.Outcome, escalation func(string) (rules.Escalation, bool)) error {
	if _, err := fmt.Fprintf(a.Out, "%s: %s\n", o.Level, o.Description); err != nil {
		return err
	}
	for _, name := range o.Fired {
		mode, _ := escalation(name)
		if _, err := fmt.Fprintf(a.Out, "  fired: %s (%s)\n", name, mode); err != nil {
			return err
		}
	}
	return nil
}
