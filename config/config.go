package config

import (
	"fmt"
	"net/http"
	"os"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

// Config holds the project config values, loaded from the environment
type Config struct {
	Port         string `envconfig:"PORT" default:"8080"`
	BaseURL      string `envconfig:"BASE_URL"`
	DBURI        string `envconfig:"DB_URI"`
	DatabaseName string `envconfig:"DB_NAME"`
	JWTSecret    string `envconfig:"JWT_SECRET"`

	FCMServerKey   string `envconfig:"FCM_SERVER_KEY"`
	SendgridAPIKey string `envconfig:"SENDGRID_API_KEY"`

	PythonBin            string `envconfig:"PYTHON_BIN" default:"python3"`
	RecommenderScriptDir string `envconfig:"RECOMMENDER_SCRIPT_DIR" default:"./scripts/recommender"`
	TrainingDataPath     string `envconfig:"TRAINING_DATA_PATH" default:"./scripts/recommender/parks.csv"`
}

// New sets up the logger, then loads all config values from the environment
func New() *Config {

	logger, err := setLogger(os.Getenv("APP_ENV"))
	if err != nil {
		logger = zap.NewExample()
	}
	defer logger.Sync()
	_ = zap.ReplaceGlobals(logger)

	var conf Config
	if err := envconfig.Process("", &conf); err != nil {
		zap.S().With(err).Error("failed to process environment config")
	}
	return &conf
}

// setLogger returns a zap logger suited to the given environment
func setLogger(env string) (*zap.Logger, error) {
	switch env {
	case "development":
		return zap.NewDevelopment()
	case "production":
		return zap.NewProduction()
	default:
		return zap.NewExample(), nil
	}
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().With(err).Error(message)
	w.WriteHeader(httpStatusCode)
	w.Write([]byte(fmt.Sprintf(`{"response": "%s, %v"}`, message, err)))
}
