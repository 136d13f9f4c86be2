package enums

// ReconcileSource records which source produced the cart state after a
// reconciliation attempt.
type ReconcileSource string

const (
	ReconcileSourceRemote     ReconcileSource = "remote"
	ReconcileSourceLocalCart  ReconcileSource = "local_cart"
	ReconcileSourceLocalCount ReconcileSource = "local_count"
	ReconcileSourceZero       ReconcileSource = "zero"
)

func (r ReconcileSource) String() string {
	return string(r)
}

// IsFallback reports whether the remote cart could not be used.
func (r ReconcileSource) IsFallback() bool {
	return r != ReconcileSourceRemote
}
