package authz

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lucasmoura/vitalstock-backend/pkg/enums"
	"github.com/lucasmoura/vitalstock-backend/pkg/errors"
)

func TestAllowPerRole(t *testing.T) {
	cases := []struct {
		name string
		role enums.UserRole
		op   Operation
		ok   bool
	}{
		{"central can block batches", enums.UserRoleCentralWarehouse, OpSetBatchStatus, true},
		{"local cannot block batches", enums.UserRoleLocalWarehouse, OpSetBatchStatus, false},
		{"local registers entries", enums.UserRoleLocalWarehouse, OpRegisterEntries, true},
		{"health professional cannot register entries", enums.UserRoleHealthProfessional, OpRegisterEntries, false},
		{"health professional raises requests", enums.UserRoleHealthProfessional, OpCreateRequest, true},
		{"central cannot raise requests", enums.UserRoleCentralWarehouse, OpCreateRequest, false},
		{"local receives schedules", enums.UserRoleLocalWarehouse, OpReceiveSchedule, true},
		{"local cannot dispatch schedules", enums.UserRoleLocalWarehouse, OpDispatchSchedule, false},
		{"manager manages reference data", enums.UserRoleManager, OpManageReference, true},
		{"everyone views alerts", enums.UserRoleHealthProfessional, OpViewAlerts, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Allow(Principal{Role: tc.role}, tc.op)
			if tc.ok {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			require.True(t, errors.HasCode(err, errors.CodeForbidden))
		})
	}
}

func TestAllowUnknownOperation(t *testing.T) {
	err := Allow(Principal{Role: enums.UserRoleCentralWarehouse}, Operation("nope"))
	require.Error(t, err)
	require.True(t, errors.HasCode(err, errors.CodeForbidden))
}
