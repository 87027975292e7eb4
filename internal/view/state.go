package view

// Mode names the active feed.
type Mode string

const (
	ModeAll                Mode = "all"
	ModeFilteredByEmployee Mode = "employee"
)

// ViewState is either All or FilteredByEmployee. Only one feed is ever the
// source of the visible list, so "both feeds active" cannot be expressed.
type ViewState interface {
	Mode() Mode
	isViewState()
}

// All shows the paginated global feed.
type All struct{}

// FilteredByEmployee shows every transaction of one employee.
type FilteredByEmployee struct {
	EmployeeID string
}

func (All) Mode() Mode                { return ModeAll }
func (FilteredByEmployee) Mode() Mode { return ModeFilteredByEmployee }

func (All) isViewState()                {}
func (FilteredByEmployee) isViewState() {}

// Option is one entry of the employee filter.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// AllEmployeesLabel is the label of the filter entry that shows every transaction.
const AllEmployeesLabel = "All Employees"
