package customers

type CreateCustomerRequest struct {
	Code             string  `json:"code" validate:"required,max=50"`
	Name             string  `json:"name" validate:"required,max=200"`
	Email            *string `json:"email,omitempty" validate:"omitempty,email"`
	AccountManagerID *int64  `json:"account_manager_id,omitempty" validate:"omitempty,gt=0"`
}

// UpdateCustomerRequest is a partial update. Setting account_locked to false
// unlocks the customer.
type UpdateCustomerRequest struct {
	Name             *string `json:"name,omitempty" validate:"omitempty,max=200"`
	Email            *string `json:"email,omitempty" validate:"omitempty,email"`
	AccountManagerID *int64  `json:"account_manager_id,omitempty" validate:"omitempty,gt=0"`
	IsActive         *bool   `json:"is_active,omitempty"`
	AccountLocked    *bool   `json:"account_locked,omitempty"`
}

type ListCustomersRequest struct {
	Locked   *bool
	IsActive *bool
	Search   string
	Limit    int
	Offset   int
}
