package lifecycle

import (
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
)

// Health is a derived classification combining the two EC2 status checks.
// It is not a field EC2 itself reports.
type Health string

const (
	HealthOK           Health = "OK"
	HealthInitializing Health = "INITIALIZING"
	HealthImpaired     Health = "IMPAIRED"
	HealthUnknown      Health = "UNKNOWN"
)

// classifyHealth derives Health from the instance state plus the system and
// instance summary statuses. found is false when the status query returned
// nothing for this instance.
func classifyHealth(state ec2types.InstanceStateName, sys, inst ec2types.SummaryStatus, found bool) Health {
	if !found {
		switch state {
		case ec2types.InstanceStateNamePending,
			ec2types.InstanceStateNameStopping,
			ec2types.InstanceStateNameStopped,
			ec2types.InstanceStateNameTerminated:
			return HealthInitializing
		}
		return HealthUnknown
	}

	if sys == ec2types.SummaryStatusOk && inst == ec2types.SummaryStatusOk {
		return HealthOK
	}
	for _, s := range []ec2types.SummaryStatus{sys, inst} {
		if s == ec2types.SummaryStatusInitializing || s == ec2types.SummaryStatusInsufficientData {
			return HealthInitializing
		}
	}
	// Sub-status checks do not apply while the instance is not running.
	if (sys == ec2types.SummaryStatusNotApplicable || inst == ec2types.SummaryStatusNotApplicable) &&
		state != ec2types.InstanceStateNameRunning {
		return HealthInitializing
	}
	return HealthImpaired
}
