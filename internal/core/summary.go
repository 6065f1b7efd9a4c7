package core

// Summary holds the aggregate figures for a filtered set of transactions.
type Summary struct {
	TotalIncome  Money
	TotalExpense Money
}

// Balance is totalIncome minus totalExpense over the filtered set. It is
// always derived, never stored, and may be negative.
func (s Summary) Balance() Money {
	return s.TotalIncome.Sub(s.TotalExpense)
}
