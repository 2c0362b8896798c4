package approval

import (
	"errors"

	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	InstancesLaunched metric.Int64Counter
	InstancesApproved metric.Int64Counter
	InstancesRejected metric.Int64Counter
	TasksEscalated    metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var errJoin error

	instancesLaunched, err := meter.Int64Counter("instances_launched", metric.WithDescription("Number of process instances launched"))
	errJoin = errors.Join(errJoin, err)

	instancesApproved, err := meter.Int64Counter("instances_approved", metric.WithDescription("Number of process instances archived as approved"))
	errJoin = errors.Join(errJoin, err)

	instancesRejected, err := meter.Int64Counter("instances_rejected", metric.WithDescription("Number of process instances archived as rejected"))
	errJoin = errors.Join(errJoin, err)

	tasksEscalated, err := meter.Int64Counter("tasks_escalated", metric.WithDescription("Number of overdue tasks reassigned to a superior"))
	errJoin = errors.Join(errJoin, err)

	metrics := Metrics{
		InstancesLaunched: instancesLaunched,
		InstancesApproved: instancesApproved,
		InstancesRejected: instancesRejected,
		TasksEscalated:    tasksEscalated,
	}
	return &metrics, errJoin
}
