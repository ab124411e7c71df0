package types

import "time"

// FileType represents supported price-list file types
type FileType string

const (
	FileTypeXLSX FileType = "xlsx"
	FileTypeXLSM FileType = "xlsm"
	FileTypeCSV  FileType = "csv"
)

// SpreadsheetRow represents one extracted row from a supplier price list.
// Rows are ephemeral: built while scanning the workbook, consumed by the
// merge, never persisted directly.
type SpreadsheetRow struct {
	Code        string   `json:"code"`
	Description string   `json:"description,omitempty"`
	Brand       string   `json:"brand,omitempty"`
	Co          string   `json:"co,omitempty"`
	Location    string   `json:"location,omitempty"`
	Warehouse   string   `json:"warehouse,omitempty"`
	Package     string   `json:"package,omitempty"`
	USDPrice    *float64 `json:"usdPrice,omitempty"` // unit list price in USD
	BsPrice     *float64 `json:"bsPrice,omitempty"`  // unit list price in Bs, if the sheet supplies it
	RowNumber   int      `json:"rowNumber"`
}

// HasPrice reports whether the row carries any usable price.
func (r *SpreadsheetRow) HasPrice() bool {
	return r.USDPrice != nil || r.BsPrice != nil
}

// DiscountSource indicates where the effective discount came from
type DiscountSource string

const (
	DiscountSourceOverride DiscountSource = "override"
	DiscountSourceSheet    DiscountSource = "sheet"
	DiscountSourceDefault  DiscountSource = "default"
)

// RowError represents a rejected spreadsheet row
type RowError struct {
	RowNumber     int     `json:"rowNumber"`
	Field         *string `json:"field,omitempty"`
	Message       string  `json:"message"`
	OriginalValue *string `json:"originalValue,omitempty"`
}

// RowWarning represents a non-fatal observation about a row. RowNumber 0
// means the warning concerns the run as a whole rather than one row.
type RowWarning struct {
	RowNumber int    `json:"rowNumber"`
	Message   string `json:"message"`
}

// ExtractResult represents the outcome of scanning a price sheet
type ExtractResult struct {
	Rows      []SpreadsheetRow `json:"rows"`
	Errors    []RowError       `json:"errors,omitempty"`
	Warnings  []RowWarning     `json:"warnings,omitempty"`
	TotalRows int              `json:"totalRows"`
	ValidRows int              `json:"validRows"`
}

// RunSource represents what triggered a reconciliation run
type RunSource string

const (
	SourceCLI RunSource = "cli"
	SourceAPI RunSource = "api"
)

// RunStatus represents status of a reconciliation run
type RunStatus string

const (
	StatusRunning     RunStatus = "running"
	StatusCompleted   RunStatus = "completed"
	StatusFailed      RunStatus = "failed"
	StatusInterrupted RunStatus = "interrupted"
)

// RunResult is the structured outcome of one reconciliation run. It is what
// the admin API returns and what gets recorded in the runs table.
type RunResult struct {
	Success        bool           `json:"success"`
	RunID          string         `json:"runId,omitempty"`
	Message        string         `json:"message,omitempty"`
	WorkbookFile   string         `json:"workbookFile,omitempty"`
	Template       string         `json:"template,omitempty"`
	RowsRead       int            `json:"rowsRead"`
	RowsRejected   int            `json:"rowsRejected"`
	Updated        int            `json:"updated"`
	Created        int            `json:"created"`
	Missing        int            `json:"missing"`
	MissingCodes   []string       `json:"missingCodes,omitempty"`
	CreatedCodes   []string       `json:"createdCodes,omitempty"`
	Discount       float64        `json:"discount"`
	DiscountSource DiscountSource `json:"discountSource,omitempty"`
	Warnings       []string       `json:"warnings,omitempty"`
	RowErrors      []RowError     `json:"rowErrors,omitempty"`
	StartedAt      time.Time      `json:"startedAt"`
	CompletedAt    *time.Time     `json:"completedAt,omitempty"`
}

// RunDetail holds the bulky per-run payloads that only matter when an
// operator drills into a specific run.
type RunDetail struct {
	MissingCodes []string     `json:"missingCodes,omitempty"`
	CreatedCodes []string     `json:"createdCodes,omitempty"`
	RowErrors    []RowError   `json:"rowErrors,omitempty"`
	Warnings     []RowWarning `json:"warnings,omitempty"`
}

// RunRecord is the persisted audit record of a reconciliation run.
type RunRecord struct {
	ID             string         `json:"id"`
	Status         RunStatus      `json:"status"`
	Source         RunSource      `json:"source"`
	WorkbookFile   string         `json:"workbookFile,omitempty"`
	Template       string         `json:"template,omitempty"`
	Discount       float64        `json:"discount"`
	DiscountSource DiscountSource `json:"discountSource,omitempty"`
	RowsRead       int            `json:"rowsRead"`
	RowsRejected   int            `json:"rowsRejected"`
	Updated        int            `json:"updated"`
	Created        int            `json:"created"`
	Missing        int            `json:"missing"`
	ErrorMessage   *string        `json:"errorMessage,omitempty"`
	Detail         *RunDetail     `json:"detail,omitempty"`
	StartedAt      time.Time      `json:"startedAt"`
	CompletedAt    *time.Time     `json:"completedAt,omitempty"`
}

// StringPtr returns a pointer to the given string
func StringPtr(s string) *string {
	return &s
}

// Float64Ptr returns a pointer to the given float64
func Float64Ptr(f float64) *float64 {
	return &f
}

// BoolPtr returns a pointer to the given bool
func BoolPtr(b bool) *bool {
	return &b
}

// IntPtr returns a pointer to the given int
func IntPtr(i int) *int {
	return &i
}

// TimePtr returns a pointer to the given time
func TimePtr(t time.Time) *time.Time {
	return &t
}
