package cli

// Flags holds the command-line flag values that are not part of the
// pipeline configuration. Pipeline settings are bound to viper keys.
type Flags struct {
	// General flags
	CfgFile   string
	Region    string
	BatchFile string
	ImagePath string
	Verbose   bool

	// Recognition
	TessdataPrefix string

	// History
	HistoryDB   string
	NoHistory   bool
	ShowHistory int
	Archive     bool

	ListModels bool
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{}
}
