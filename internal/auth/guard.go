package auth

// EnforceCustomer is the tenant access guard. Every data-access operation
// outside this core calls it (or applies the equivalent per-query customer
// filter) before touching a row: given the resolved claims and the
// customer id a row claims to belong to, it answers yes/no. No
// cross-tenant relationship is ever legitimate, for administrators
// included.
func EnforceCustomer(claims Claims, customerID int64) error {
	if claims.CustomerID != customerID {
		return ErrAccessDenied
	}
	return nil
}
