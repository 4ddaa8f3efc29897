package auth

// Authorize admits principal when its role is one of allowed. A nil principal
// is unauthenticated; an unlisted or undefined role is forbidden.
func Authorize(principal *Principal, allowed ...Role) error {
	if principal == nil {
		return ErrUnauthenticated
	}
	switch principal.Role {
	case RoleUser, RoleCompanyHR:
	default:
		return ErrForbidden
	}
	for _, role := range allowed {
		if role == principal.Role {
			return nil
		}
	}
	return ErrForbidden
}
