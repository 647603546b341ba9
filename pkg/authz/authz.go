// Package authz models authorization as a closed role enumeration plus a
// declarative per-operation allow-list. Every public service operation checks
// its allow-list once at entry; unit-scope rules that depend on loaded
// entities stay inside the owning service.
package authz

import (
	"github.com/google/uuid"

	"github.com/lucasmoura/vitalstock-backend/pkg/enums"
	"github.com/lucasmoura/vitalstock-backend/pkg/errors"
)

// Principal is the verified caller identity attached to every request.
type Principal struct {
	UserID uuid.UUID
	UnitID uuid.UUID
	Role   enums.UserRole
}

// IsCentral reports whether the principal carries central-warehouse authority.
func (p Principal) IsCentral() bool {
	return p.Role.IsCentral()
}

// Operation names one authorization-gated public entry point.
type Operation string

const (
	OpRegisterEntries  Operation = "inventory.register_entries"
	OpDeductBatch      Operation = "inventory.deduct"
	OpSetBatchStatus   Operation = "inventory.set_status"
	OpListBatches      Operation = "inventory.list"
	OpListMovements    Operation = "movements.list"
	OpCreateSchedule   Operation = "schedules.create"
	OpDispatchSchedule Operation = "schedules.dispatch"
	OpCompleteSchedule Operation = "schedules.complete"
	OpReceiveSchedule  Operation = "schedules.receive"
	OpCancelSchedule   Operation = "schedules.cancel"
	OpCreateRequest    Operation = "requests.create"
	OpDecideRequest    Operation = "requests.decide"
	OpManageReference  Operation = "reference.manage"
	OpViewAlerts       Operation = "alerts.view"
	OpViewReports      Operation = "reports.view"
)

var allRoles = []enums.UserRole{
	enums.UserRoleCentralWarehouse,
	enums.UserRoleLocalWarehouse,
	enums.UserRoleManager,
	enums.UserRoleHealthProfessional,
}

var warehouseRoles = []enums.UserRole{
	enums.UserRoleCentralWarehouse,
	enums.UserRoleLocalWarehouse,
}

var allowedRoles = map[Operation][]enums.UserRole{
	OpRegisterEntries:  warehouseRoles,
	OpDeductBatch:      warehouseRoles,
	OpSetBatchStatus:   {enums.UserRoleCentralWarehouse},
	OpListBatches:      allRoles,
	OpListMovements:    allRoles,
	OpCreateSchedule:   {enums.UserRoleCentralWarehouse},
	OpDispatchSchedule: {enums.UserRoleCentralWarehouse},
	OpCompleteSchedule: {enums.UserRoleCentralWarehouse},
	OpReceiveSchedule:  {enums.UserRoleCentralWarehouse, enums.UserRoleLocalWarehouse},
	OpCancelSchedule:   warehouseRoles,
	OpCreateRequest:    {enums.UserRoleManager, enums.UserRoleHealthProfessional},
	OpDecideRequest:    warehouseRoles,
	OpManageReference:  {enums.UserRoleCentralWarehouse, enums.UserRoleManager},
	OpViewAlerts:       allRoles,
	OpViewReports:      allRoles,
}

// Allow returns a Forbidden error unless the principal's role is on the
// operation's allow-list.
func Allow(p Principal, op Operation) error {
	roles, ok := allowedRoles[op]
	if !ok {
		return errors.New(errors.CodeForbidden, "unknown operation")
	}
	for _, role := range roles {
		if role == p.Role {
			return nil
		}
	}
	return errors.New(errors.CodeForbidden, "role not allowed for this operation")
}
