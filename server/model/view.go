package model

// State of a chat session.
type State string

const (
	StateLoggedOut State = "logged_out"
	StateLoggedIn  State = "logged_in"
)

// Profile is the logged-in user as shown to the client.
type Profile struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsAdmin     bool   `json:"is_admin"`
}

// Entry is a message prepared for display.
type Entry struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Text        string `json:"message"`
	Timestamp   string `json:"timestamp"`
	Own         bool   `json:"own"`
	Admin       bool   `json:"admin"`
}

// View is everything a client needs to draw one screen. Every session
// transition produces a new View; nothing is patched in place.
type View struct {
	State            State       `json:"state"`
	User             *Profile    `json:"user,omitempty"`
	Messages         []Entry     `json:"messages"`
	Total            int         `json:"total"`
	Shown            int         `json:"shown"`
	Notice           string      `json:"notice,omitempty"`
	Error            string      `json:"error,omitempty"`
	StoreUnavailable bool        `json:"store_unavailable,omitempty"`
	PollIntervalMs   int64       `json:"poll_interval_ms"`
	RefreshedAt      string      `json:"refreshed_at,omitempty"`
	Admin            *AdminPanel `json:"admin_panel,omitempty"`
}

// AdminPanel is attached to views of admins when admin tools are enabled.
type AdminPanel struct {
	Stats               Stats `json:"stats"`
	ConfirmClearPending bool  `json:"confirm_clear_pending"`
	KeepMin             int   `json:"keep_min"`
	KeepMax             int   `json:"keep_max"`
}

// Storage levels reported in Stats.
const (
	LevelOK       = "ok"
	LevelWarning  = "warning"
	LevelCritical = "critical"
)

type Stats struct {
	Total        int            `json:"total"`
	PerUser      map[string]int `json:"per_user"`
	SizeBytes    int            `json:"size_bytes"`
	SizeKB       float64        `json:"size_kb"`
	FirstMessage string         `json:"first_message,omitempty"`
	LastMessage  string         `json:"last_message,omitempty"`
	Level        string         `json:"level"`
}

// Export is the downloadable history snapshot.
type Export struct {
	ExportDate    string    `json:"export_date"`
	TotalMessages int       `json:"total_messages"`
	Messages      []Message `json:"messages"`
	// FileName is the suggested download name, stamped with the same clock
	// as ExportDate.
	FileName string `json:"-"`
}
