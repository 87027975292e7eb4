package core

// Endpoint names understood by the transaction API.
const (
	EndpointEmployees              = "employees"
	EndpointPaginatedTransactions  = "paginatedTransactions"
	EndpointTransactionsByEmployee = "transactionsByEmployee"
	EndpointSetTransactionApproval = "setTransactionApproval"
)

type (
	// PaginatedRequestParams selects one page of the global feed.
	PaginatedRequestParams struct {
		Page int `json:"page"`
	}

	// RequestByEmployeeParams selects every transaction of one employee.
	RequestByEmployeeParams struct {
		EmployeeID string `json:"employeeId"`
	}

	// SetTransactionApprovalParams carries an approval mutation.
	SetTransactionApprovalParams struct {
		TransactionID string `json:"transactionId"`
		Value         bool   `json:"value"`
	}
)
