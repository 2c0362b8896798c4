package approval

import (
	"context"
	"errors"

	"github.com/ppmc/flowbridge/pkg/storage"
)

// ResolveSuperior walks the manager chain of the given employee exactly
// level hops and returns the employee it arrives at. Level 0 returns the
// starting employee itself. It fails with UnknownEmployeeError when the
// starting employee does not exist and with ChainTooShortError when any hop
// has no superior before level is reached.
func (s *Service) ResolveSuperior(ctx context.Context, employeeID string, level int) (storage.Employee, error) {
	current, err := s.findEmployee(ctx, employeeID)
	if err != nil {
		return storage.Employee{}, err
	}
	for i := 0; i < level; i++ {
		if current.ManagerID == "" {
			return storage.Employee{}, &ChainTooShortError{EmployeeID: employeeID, Level: level, Reached: i}
		}
		current, err = s.findEmployee(ctx, current.ManagerID)
		if err != nil {
			// a dangling manager reference ends the chain the same way a
			// missing manager does
			var unknown *UnknownEmployeeError
			if errors.As(err, &unknown) {
				return storage.Employee{}, &ChainTooShortError{EmployeeID: employeeID, Level: level, Reached: i}
			}
			return storage.Employee{}, err
		}
	}
	return current, nil
}
