package cfg

type Cfg struct {
	// Database configuration
	DBPath string

	// Application configuration
	FeedsDir          string
	Port              string
	BaseUrl           string
	SchedulerInterval int // minutes between aggregation passes
	JobTickInterval   int // seconds between job queue ticks
	JobMaxConcurrent  int
	APIAccessKey      string

	// External services
	CohereAPIKey    string
	CohereModel     string
	GeminiAPIKey    string
	GeminiModel     string
	UnsplashKey     string
	GenerateTimeout int // seconds per text-generation call

	// Email notifications
	SMTPAddr string
	SMTPFrom string
	SMTPTo   string

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
