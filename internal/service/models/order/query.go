package order

import "time"

// QueryOrdersModel represents filter parameters for querying orders
type QueryOrdersModel struct {
	Ids             []int64         `json:"ids,omitempty"`
	UserIds         []string        `json:"userIds,omitempty"`
	Statuses        []Status        `json:"statuses,omitempty"`
	PaymentStatuses []PaymentStatus `json:"paymentStatuses,omitempty"`
	CreatedFrom     time.Time       `json:"createdFrom,omitempty"`
	CreatedTo       time.Time       `json:"createdTo,omitempty"`
	Limit           int             `json:"limit,omitempty"`
	Offset          int             `json:"offset,omitempty"`
}
