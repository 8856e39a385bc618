package portal

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dp-pcs/noah-hw-mcp/lib/configutil"
	"github.com/dp-pcs/noah-hw-mcp/lib/portal/extract"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// SelectorConfig overrides the built-in probe candidates. Empty lists
// fall back to the defaults each component carries.
type SelectorConfig struct {
	Username []string `json:"username"`
	Password []string `json:"password"`
	Submit   []string `json:"submit"`
	LoggedIn []string `json:"logged_in"`
	Success  []string `json:"success"`
}

type BrowserConfig struct {
	// path to a chrome/chromium binary. when empty rod looks one up
	// (and downloads one in dev environments).
	Bin         string `json:"bin"`
	UserDataDir string `json:"user_data_dir"`
}

type NotifyConfig struct {
	Server       string   `json:"server"`
	Port         int      `json:"port" validate:"gte=0,lte=65535"`
	EmailAddress string   `json:"email_address" validate:"omitempty,email"`
	Password     string   `json:"password"`
	Recipients   []string `json:"recipients" validate:"dive,email"`
}

func (c NotifyConfig) Configured() bool {
	return c.Server != "" && len(c.Recipients) > 0
}

type Config struct {
	BaseUrl        string `json:"base_url" validate:"omitempty,url"`
	LoginUrl       string `json:"login_url" validate:"omitempty,url"`
	LoginPath      string `json:"login_path"`
	AssignmentsUrl string `json:"assignments_url" validate:"omitempty,url"`
	GradesUrl      string `json:"grades_url" validate:"omitempty,url"`

	Credentials Credentials `json:"credentials"`

	StatePath string `json:"state_path"`
	// portals are scraped headless by default, flip this for local
	// debugging with a visible browser window
	Headful bool `json:"headful"`
	// when set, login flows drop a screenshot per step into this
	// directory
	CaptureDir string `json:"capture_dir"`
	// default lookback window for assignment and grade recency, in
	// days. zero means the built-in 14 day window.
	SinceDays int `json:"since_days" validate:"gte=0"`

	// sqlite file for grade history snapshots, empty disables them
	SnapshotsDb string `json:"snapshots_db"`

	// nickname -> course key, matched as substrings of course filters
	CourseAliases map[string]string `json:"course_aliases"`
	// course key -> dedicated page url
	CourseLinks map[string]string `json:"course_links"`

	Selectors SelectorConfig `json:"selectors"`
	Extract   extract.Config `json:"extract"`
	Browser   BrowserConfig  `json:"browser"`
	Notify    NotifyConfig   `json:"notify"`
}

// FullLoginUrl resolves the login entrypoint: an explicit login_url
// wins, otherwise login_path is joined onto base_url.
func (c Config) FullLoginUrl() string {
	if c.LoginUrl != "" {
		return c.LoginUrl
	}
	return strings.TrimSuffix(c.BaseUrl, "/") + c.LoginPath
}

// StateFileAbs is the absolute path of the session state file, for
// health reporting.
func (c Config) StateFileAbs() string {
	abs, err := filepath.Abs(c.StatePath)
	if err != nil {
		return c.StatePath
	}
	return abs
}

const configFile = "portal.json5"

var validate = validator.New()

// LoadConfig builds the configuration every component receives
// explicitly. Precedence: built-in defaults < portal.json5 (plus its
// .local overlay) < environment variables. A missing config file is
// fine, the environment alone can carry a full setup.
func LoadConfig() (Config, error) {
	// .env in the working directory, if present
	godotenv.Load()

	cfg, err := configutil.ReadConfig[Config](configFile)
	if err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read %s: %w", configFile, err)
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	err = validate.Struct(cfg)
	if err != nil {
		return Config{}, fmt.Errorf("invalid portal config: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString := func(dst *string, key string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	setString(&cfg.BaseUrl, "PORTAL_BASE_URL")
	setString(&cfg.LoginUrl, "LOGIN_URL")
	setString(&cfg.LoginPath, "LOGIN_PATH")
	setString(&cfg.AssignmentsUrl, "ASSIGNMENTS_URL")
	setString(&cfg.GradesUrl, "GRADES_URL")
	setString(&cfg.Credentials.Username, "PORTAL_USERNAME")
	setString(&cfg.Credentials.Password, "PORTAL_PASSWORD")
	setString(&cfg.StatePath, "STATE_PATH")

	if v := os.Getenv("HEADLESS"); v != "" {
		headless, err := strconv.ParseBool(v)
		if err == nil {
			cfg.Headful = !headless
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.LoginPath == "" {
		cfg.LoginPath = "/login"
	}
	if cfg.StatePath == "" {
		cfg.StatePath = "state.json"
	}
	if cfg.SinceDays == 0 {
		cfg.SinceDays = 14
	}
	if cfg.AssignmentsUrl == "" {
		cfg.AssignmentsUrl = cfg.BaseUrl
	}
	if cfg.GradesUrl == "" {
		cfg.GradesUrl = cfg.BaseUrl
	}
}
