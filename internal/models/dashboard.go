package models

// StaffDashboard is the owner-scoped summary shown to store staff.
type StaffDashboard struct {
	StoreID       string     `json:"storeId"`
	TotalSales    int64      `json:"totalSales"`
	VerifiedCount int64      `json:"verifiedCount"`
	TotalReceipts int64      `json:"totalReceipts"`
	Weekly        [7]int64   `json:"weekly"`
	Recent        []*Receipt `json:"recent"`
}
