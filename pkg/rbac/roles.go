package rbac

// Six-role definitions for the clinic network. Role strings are stored on
// user records and embedded in session tokens.
const (
	RoleAdmin        = "administrador"
	RoleReceptionist = "recepcionista"
	RoleNurse        = "enfermeira"
	RoleDoctor       = "medico"
	RoleLab          = "laboratorio"
	RolePatient      = "paciente"
)

// AllRoles lists every role the system recognizes.
var AllRoles = []string{
	RoleAdmin, RoleReceptionist, RoleNurse, RoleDoctor, RoleLab, RolePatient,
}

// ValidRole reports whether role is one of the six defined roles.
func ValidRole(role string) bool {
	for _, r := range AllRoles {
		if role == r {
			return true
		}
	}
	return false
}

// SeesAllAppointments reports whether the role's schedule scope covers every
// appointment. Reception and nursing coordinate the whole queue; the admin
// sees everything; lab staff read the full queue for exam context.
func SeesAllAppointments(role string) bool {
	switch role {
	case RoleAdmin, RoleReceptionist, RoleNurse, RoleLab:
		return true
	}
	return false
}

// CanManageLabOrders reports whether the role may create or progress lab
// test orders.
func CanManageLabOrders(role string) bool {
	switch role {
	case RoleAdmin, RoleLab, RoleDoctor:
		return true
	}
	return false
}

// CanApplyVaccine reports whether the role may register a vaccination.
func CanApplyVaccine(role string) bool {
	switch role {
	case RoleAdmin, RoleNurse, RoleDoctor:
		return true
	}
	return false
}
