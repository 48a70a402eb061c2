package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/forestapp/wildpark-api/api"
	"github.com/forestapp/wildpark-api/api/scheduler"
	"github.com/forestapp/wildpark-api/config"
	"github.com/forestapp/wildpark-api/databases"
	"github.com/forestapp/wildpark-api/models"
	"github.com/forestapp/wildpark-api/notifications"
	"github.com/forestapp/wildpark-api/recommender"
)

// Page is the current page for paginated list endpoints
var Page int

// App stores the router and db connection, so it can be reused
type App struct {
	Router     *mux.Router
	Config     config.Config
	dbHelper   databases.DatabaseHelper
	Dispatcher *notifications.Dispatcher
	Engine     *recommender.ScriptEngine
	Scheduler  *scheduler.Scheduler
	Feed       *FeedHub
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()

	u := User{DB: databases.NewUserDatabase(a.dbHelper)}
	inc := Incident{DB: databases.NewIncidentDatabase(a.dbHelper), Dispatcher: a.Dispatcher, Feed: a.Feed}
	an := Animal{DB: databases.NewAnimalDatabase(a.dbHelper)}
	p := Park{DB: databases.NewParkDatabase(a.dbHelper), Model: a.Engine}
	rec := Recommendation{Engine: a.Engine}
	auth := Auth{UDB: databases.NewUserDatabase(a.dbHelper), JWTSecret: a.Config.JWTSecret}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	r.Use(api.MetricsMiddleware)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()
	apiCreate.Use(api.TimeoutMiddleware(30 * time.Second))

	apiCreate.Handle("/auth/token", api.Middleware(http.HandlerFunc(m.CreateToken))).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")
	apiCreate.Handle("/auth/manager/login", http.HandlerFunc(auth.ManagerLoginHandler)).Methods("POST")

	apiCreate.Handle("/user/create-user", http.HandlerFunc(u.UserCreateHandler)).Methods("POST")
	apiCreate.Handle("/user/{user_id}/push-token", api.Middleware(http.HandlerFunc(u.RegisterPushTokenHandler))).Methods("PUT")
	apiCreate.Handle("/user/{user_id}", api.Middleware(http.HandlerFunc(u.UserHandler))).Methods("GET")
	apiCreate.Handle("/users", api.Middleware(http.HandlerFunc(u.UsersHandler))).Methods("GET")

	apiCreate.Handle("/incident/{incident_id}", api.Middleware(http.HandlerFunc(inc.IncidentByIDHandler))).Methods("GET")
	apiCreate.Handle("/incident/{incident_id}", api.Middleware(http.HandlerFunc(inc.UpdateIncidentByIDHandler))).Methods("PUT")
	apiCreate.Handle("/incident/{incident_id}", api.Middleware(http.HandlerFunc(inc.DeleteIncidentByIDHandler))).Methods("DELETE")
	apiCreate.Handle("/incident", api.Middleware(http.HandlerFunc(inc.CreateIncidentHandler))).Methods("POST")
	apiCreate.Handle("/incidents", api.Middleware(http.HandlerFunc(inc.IncidentHandler))).Methods("GET")
	apiCreate.Handle("/incidents/park/{park_id}", api.Middleware(http.HandlerFunc(inc.IncidentsByParkIDHandler))).Methods("GET")

	apiCreate.Handle("/animal/{animal_id}", api.Middleware(http.HandlerFunc(an.AnimalByIDHandler))).Methods("GET")
	apiCreate.Handle("/animal/{animal_id}", api.Middleware(http.HandlerFunc(an.UpdateAnimalByIDHandler))).Methods("PUT")
	apiCreate.Handle("/animal/{animal_id}", api.Middleware(http.HandlerFunc(an.DeleteAnimalByIDHandler))).Methods("DELETE")
	apiCreate.Handle("/animal", api.Middleware(http.HandlerFunc(an.CreateAnimalHandler))).Methods("POST")
	apiCreate.Handle("/animals", api.Middleware(http.HandlerFunc(an.AnimalHandler))).Methods("GET")
	apiCreate.Handle("/animals/census", api.Middleware(http.HandlerFunc(an.AnimalCensusHandler))).Methods("GET")
	apiCreate.Handle("/animals/park/{park_id}", api.Middleware(http.HandlerFunc(an.AnimalsByParkIDHandler))).Methods("GET")

	apiCreate.Handle("/park/{park_id}", api.Middleware(http.HandlerFunc(p.ParkByIDHandler))).Methods("GET")
	apiCreate.Handle("/park/{park_id}", auth.RequireManager(http.HandlerFunc(p.UpdateParkByIDHandler))).Methods("PUT")
	apiCreate.Handle("/park/{park_id}", auth.RequireManager(http.HandlerFunc(p.DeleteParkByIDHandler))).Methods("DELETE")
	apiCreate.Handle("/park", auth.RequireManager(http.HandlerFunc(p.CreateParkHandler))).Methods("POST")
	apiCreate.Handle("/parks", api.Middleware(http.HandlerFunc(p.ParkHandler))).Methods("GET")

	apiCreate.Handle("/recommendations", api.Middleware(http.HandlerFunc(rec.RecommendationHandler))).Methods("POST")
	apiCreate.Handle("/species/supported", api.Middleware(http.HandlerFunc(rec.SupportedSpeciesHandler))).Methods("GET")
	apiCreate.Handle("/species/{species}/seasonal", api.Middleware(http.HandlerFunc(rec.SeasonalPredictionHandler))).Methods("GET")

	apiCreate.Handle("/metrics/summary", auth.RequireManager(http.HandlerFunc(api.MetricsSummaryHandler))).Methods("GET")

	if a.Feed != nil {
		r.HandleFunc("/ws/incidents", a.Feed.HandleIncidentFeed)
	}

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("wildpark-api has connected to the database")

	userDB := databases.NewUserDatabase(a.dbHelper)

	fcm := notifications.NewFCMClient(a.Config.FCMServerKey, "")
	a.Dispatcher = notifications.NewDispatcher(userDB, fcm)
	a.Engine = recommender.NewScriptEngine(a.Config.PythonBin, a.Config.RecommenderScriptDir, a.Config.TrainingDataPath)
	a.Feed = NewFeedHub()

	a.Scheduler = scheduler.NewScheduler(
		databases.NewIncidentDatabase(a.dbHelper),
		userDB,
		a.Engine,
		a.Config.SendgridAPIKey,
	)
	a.Scheduler.Start()

	// initialize api router
	a.initializeRoutes()
	return nil

}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}

// getPage bounds-checks the page query param, defaulting to 0
func getPage(page int, r *http.Request) int {
	if p := r.URL.Query().Get("page"); p != "" {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			zap.S().Warnf("invalid page %q, using default of %v", p, page)
			return 0
		}
		return v
	}
	return 0
}
