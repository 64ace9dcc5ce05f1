package config

// Application constants - all fixed values for the survey cleaning pipeline
const (
	// Application Info
	AppName    = "Survey Cleaner"
	AppVersion = "1.2.0"

	// Default survey anchor. The first wave opens on this date (a Monday);
	// wave N covers days [start+7*(N-1), start+7*N).
	DefaultSurveyStart = "2025-08-04"

	// File Names (relative to the data directories)
	DefaultRawWorkbook = "EXAMPLE DATA FILE.xlsx"
	DefaultSavFile     = "cleaned_data.sav"
	DefaultQAWorkbook  = "cleaned_data_check.xlsx"
	DefaultCleanCSV    = "cleaned_data.csv"
	DefaultCodebookCSV = "codebook.csv"

	// Config Files (relative to the executable directory)
	CodeframeFileName = "codeframe.yaml"
	ConfigFileName    = "config.yaml"

	// Directories (relative to the executable)
	DefaultDataDir   = "data"
	DefaultRawDir    = "data/raw"
	DefaultOutputDir = "data/output"
	DefaultQADir     = "data/qa"
	DefaultLogsDir   = "logs"
)

// CompletedDateLayouts lists the timestamp layouts accepted for the
// completion field, tried in order. Survey platforms export either ISO
// datetimes or bare dates; Excel round-trips sometimes produce slash forms.
var CompletedDateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2/1/2006 15:04",
	"2/1/2006",
	"02/01/2006 15:04:05",
	"02/01/2006",
}
