package excel

// Sheet names used by the workbook exporter and reader
const (
	SummarySheet   = "SleepSummary"
	IntradaySheet  = "SleepIntraday"
	BaselinesSheet = "Baselines"
	CardsSheet     = "Cards"
)

// ExcelConfig locates summary and intraday data. A path may be an .xlsx
// workbook (the named sheet is read) or a .csv file.
type ExcelConfig struct {
	SummaryPath   string `json:"summary_path"`
	IntradayPath  string `json:"intraday_path"`
	SummarySheet  string `json:"summary_sheet"`
	IntradaySheet string `json:"intraday_sheet"`
}

// DefaultExcelConfig reads both datasets from one exported workbook
func DefaultExcelConfig(workbookPath string) ExcelConfig {
	return ExcelConfig{
		SummaryPath:   workbookPath,
		IntradayPath:  workbookPath,
		SummarySheet:  SummarySheet,
		IntradaySheet: IntradaySheet,
	}
}
