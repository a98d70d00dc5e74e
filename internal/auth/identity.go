package auth

// Identity describes the authenticated caller as seen by the service
// layer. Capability flags gate writes and the statistics report.
type Identity struct {
	UserID   int64
	Email    string
	IsVendor bool
	IsStaff  bool
}

// CanManageProduct reports whether the caller may edit or soft-delete a
// product owned by vendorID
func (id *Identity) CanManageProduct(vendorID int64) bool {
	return id.IsStaff || id.UserID == vendorID
}

// CanManageReview reports whether the caller may edit or delete a review
// written by userID
func (id *Identity) CanManageReview(userID int64) bool {
	return id.IsStaff || id.UserID == userID
}
