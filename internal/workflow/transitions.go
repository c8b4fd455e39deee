package workflow

import (
	"github.com/riverclinic/ubscare/pkg/rbac"
	"github.com/riverclinic/ubscare/pkg/types"
)

// edge is one directed transition in the appointment lifecycle.
type edge struct {
	from, to types.AppointmentStatus
}

// capabilityTable is the single source of truth for role-gated transitions.
// Keys are lifecycle edges; values are the roles allowed to perform them.
// The admin role is an escape hatch handled in Allowed and never listed
// here: an empty role list means admin-only.
var capabilityTable = map[edge][]string{
	{types.StatusScheduled, types.StatusAwaitingCare}:      {rbac.RoleReceptionist},
	{types.StatusScheduled, types.StatusCancelled}:         {rbac.RoleReceptionist},
	{types.StatusAwaitingCare, types.StatusAwaitingDoctor}: {rbac.RoleNurse},
	{types.StatusAwaitingCare, types.StatusCancelled}:      {rbac.RoleReceptionist},
	{types.StatusAwaitingDoctor, types.StatusInProgress}:   {rbac.RoleDoctor},
	{types.StatusAwaitingDoctor, types.StatusCancelled}:    {},
	{types.StatusInProgress, types.StatusCompleted}:        {rbac.RoleDoctor},
	{types.StatusInProgress, types.StatusCancelled}:        {},
}

// Allowed reports whether the role may move an appointment from one status
// to another. administrador may force any transition regardless of the
// table; every other role is restricted to the table's entry for the edge.
func Allowed(role string, from, to types.AppointmentStatus) bool {
	if role == rbac.RoleAdmin {
		return true
	}
	roles, ok := capabilityTable[edge{from, to}]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// AvailableTransitions lists the statuses the role may reach from the
// current one. For administrador this is every other state; terminal states
// still offer nothing, since no workflow surface acts on them.
func AvailableTransitions(role string, from types.AppointmentStatus) []types.AppointmentStatus {
	if role == rbac.RoleAdmin {
		if from.Terminal() {
			return nil
		}
		var out []types.AppointmentStatus
		for _, to := range types.AllStatuses {
			if to != from {
				out = append(out, to)
			}
		}
		return out
	}

	var out []types.AppointmentStatus
	for e, roles := range capabilityTable {
		if e.from != from {
			continue
		}
		for _, r := range roles {
			if r == role {
				out = append(out, e.to)
				break
			}
		}
	}
	return out
}
