package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/forestapp/wildpark-api/databases"
	"github.com/forestapp/wildpark-api/models"
	"github.com/forestapp/wildpark-api/recommender"
	templates "github.com/forestapp/wildpark-api/templates/html"
)

// Scheduler handles periodic background jobs: the manager incident digest
// email and the nightly recommendation model retrain
type Scheduler struct {
	cron        *cron.Cron
	IDB         databases.IncidentDatabase
	UDB         databases.UserDatabase
	Engine      recommender.Engine
	sendgridKey string

	// send is swapped out in tests
	send func(toEmail, toName, subject, htmlContent, plainText string) error
}

// NewScheduler creates a new scheduler instance
func NewScheduler(iDB databases.IncidentDatabase, uDB databases.UserDatabase, engine recommender.Engine, sendgridKey string) *Scheduler {
	s := &Scheduler{
		cron:        cron.New(cron.WithLocation(time.UTC)),
		IDB:         iDB,
		UDB:         uDB,
		Engine:      engine,
		sendgridKey: sendgridKey,
	}
	s.send = s.sendEmail
	return s
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// Email each manager a digest of the last day's incidents at 6 AM UTC
	_, err := s.cron.AddFunc("0 6 * * *", s.RunDailyDigest)
	if err != nil {
		zap.S().Errorw("failed to register daily digest job", "error", err)
	}

	// Retrain the park recommendation model nightly at 2 AM UTC
	_, err = s.cron.AddFunc("0 2 * * *", s.RunNightlyRetrain)
	if err != nil {
		zap.S().Errorw("failed to register retrain job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("scheduler stopped")
}

// RunDailyDigest gathers the incidents reported in the last 24 hours and
// emails the summary to every manager
func (s *Scheduler) RunDailyDigest() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	since := time.Now().Add(-24 * time.Hour)
	filter := bson.M{
		"incident.createdAt": bson.M{"$gte": primitive.NewDateTimeFromTime(since)},
	}

	incidents, err := s.IDB.Find(ctx, filter)
	if err != nil {
		zap.S().Errorw("failed to find incidents for digest", "error", err)
		return
	}
	if len(incidents) == 0 {
		zap.S().Info("no incidents in the last 24 hours, skipping digest")
		return
	}

	managers, err := s.UDB.UsersByRole(ctx, models.RoleManager)
	if err != nil {
		zap.S().Errorw("failed to find managers for digest", "error", err)
		return
	}

	dateLabel := time.Now().UTC().Format("January 2, 2006")
	subject := "Daily Incident Digest - WildPark"
	htmlContent := templates.RenderIncidentDigestEmail(dateLabel, incidents)
	plainText := "Incidents were reported in your parks in the last 24 hours. Open the dashboard for details."

	sent := 0
	for _, manager := range managers {
		if manager.Details.Email == "" {
			continue
		}
		if err := s.send(manager.Details.Email, manager.Details.Name, subject, htmlContent, plainText); err != nil {
			zap.S().Errorw("failed to send digest email", "error", err, "userId", manager.ID)
			continue
		}
		sent++
	}

	zap.S().Infow("daily digest complete", "incidents", len(incidents), "emailsSent", sent)
}

// RunNightlyRetrain rebuilds the recommendation model from the training data
func (s *Scheduler) RunNightlyRetrain() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	if err := s.Engine.Retrain(ctx); err != nil {
		zap.S().Errorw("nightly model retrain failed", "error", err)
		return
	}
	zap.S().Info("nightly model retrain complete")
}

func (s *Scheduler) sendEmail(toEmail, toName, subject, htmlContent, plainText string) error {
	from := mail.NewEmail("WildPark", "no-reply@wildpark-app.com")
	to := mail.NewEmail(toName, toEmail)
	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	client := sendgrid.NewSendClient(s.sendgridKey)
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
	return nil
}
