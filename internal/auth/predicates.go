package auth

// Authorization predicates. Each one is a pure, total function of the
// principal and its target; the guard composes them into per-route decisions.

// IsAdmin reports whether the account holds the admin role.
func IsAdmin(a *Account) bool {
	return a != nil && a.Role == RoleAdmin
}

// IsDoctor reports whether the account holds the doctor role.
func IsDoctor(a *Account) bool {
	return a != nil && a.Role == RoleDoctor
}

// Owns reports whether the account owns the resource.
func Owns(a *Account, resource Owned) bool {
	return a != nil && resource != nil && resource.OwnedBy() == a.ID
}

// IsAssignedDoctor reports whether the account is the doctor assigned to a
// confirmed appointment. A pending or cancelled appointment grants nothing.
func IsAssignedDoctor(a *Account, appt AppointmentView) bool {
	if a == nil || appt == nil || !appt.Confirmed() {
		return false
	}
	doctorID, assigned := appt.AssignedDoctor()
	return assigned && doctorID == a.ID
}

// CanDeleteComment allows the comment author or an admin.
func CanDeleteComment(a *Account, comment Owned) bool {
	return Owns(a, comment) || IsAdmin(a)
}

// CanDeleteReply allows the reply author or an admin.
func CanDeleteReply(a *Account, reply Owned) bool {
	return Owns(a, reply) || IsAdmin(a)
}

// CanBan allows an admin to ban any non-admin account other than itself.
func CanBan(actor, target *Account) bool {
	if !IsAdmin(actor) || target == nil {
		return false
	}
	return target.Role != RoleAdmin && actor.ID != target.ID
}
