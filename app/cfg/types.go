package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	Port               string
	APIAccessKey       string
	WorkerCount        int
	RefreshConcurrency int
	RefreshInterval    int
	ArchiveDir         string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
